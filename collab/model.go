package collab

// Domain model shared over the collaboration channel. JSON tags match the
// browser client's field names so Go and browser participants interoperate
// on the same session.

// DesignColors is the shared palette of a project's design system.
type DesignColors struct {
	Primary    string `json:"primary"`
	Secondary  string `json:"secondary"`
	Background string `json:"background"`
	Text       string `json:"text"`
	Accent     string `json:"accent"`
}

// DesignTypography holds font choices and the modular scale factor.
type DesignTypography struct {
	HeadingFont string  `json:"headingFont"`
	BodyFont    string  `json:"bodyFont"`
	Scale       float64 `json:"scale"`
}

// DesignSpacing holds the base spacing unit and its scale factor.
type DesignSpacing struct {
	Base  float64 `json:"base"`
	Scale float64 `json:"scale"`
}

// DesignShadows holds the three elevation presets.
type DesignShadows struct {
	Small  string `json:"small"`
	Medium string `json:"medium"`
	Large  string `json:"large"`
}

// DesignLayout holds page-level layout settings.
type DesignLayout struct {
	MaxWidth float64 `json:"maxWidth"`
}

// DesignSystem is the editable set of tokens applied across a project's
// screens.
type DesignSystem struct {
	Colors       DesignColors     `json:"colors"`
	Typography   DesignTypography `json:"typography"`
	Spacing      DesignSpacing    `json:"spacing"`
	BorderRadius float64          `json:"borderRadius"`
	Shadows      *DesignShadows   `json:"shadows,omitempty"`
	Layout       *DesignLayout    `json:"layout,omitempty"`
}

// ScreenStatus tracks a screen's generation lifecycle.
type ScreenStatus string

const (
	ScreenStreaming ScreenStatus = "streaming"
	ScreenComplete  ScreenStatus = "complete"
	ScreenError     ScreenStatus = "error"
)

// Screen is one generated page mockup positioned on the canvas.
type Screen struct {
	ID        string       `json:"id"`
	PageName  string       `json:"pageName"`
	StyleName string       `json:"styleName"`
	HTML      string       `json:"html"`
	Status    ScreenStatus `json:"status"`
	X         float64      `json:"x"`
	Y         float64      `json:"y"`
}

// SavedComponent is a reusable HTML fragment kept in the project library.
type SavedComponent struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	HTML      string `json:"html"`
	Category  string `json:"category"`
	Timestamp int64  `json:"timestamp"`
}

// Annotation is a free-floating note on the canvas, optionally pinned to a
// screen.
type Annotation struct {
	ID       string  `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Text     string  `json:"text"`
	ScreenID string  `json:"screenId,omitempty"`
}

// Project is one mockup set: the prompt it was generated from, its screens,
// and its design system.
type Project struct {
	ID              string           `json:"id"`
	Prompt          string           `json:"prompt"`
	Timestamp       int64            `json:"timestamp"`
	Screens         []Screen         `json:"screens"`
	DesignSystem    *DesignSystem    `json:"designSystem,omitempty"`
	SavedComponents []SavedComponent `json:"savedComponents,omitempty"`
	Annotations     []Annotation     `json:"annotations,omitempty"`
}

// UserCursor is the last known pointer position of a remote collaborator,
// in canvas coordinates.
type UserCursor struct {
	ID    string  `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Color string  `json:"color"`
	Name  string  `json:"name"`
}
