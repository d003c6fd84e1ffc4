package domain

// AppSettings is the singleton application settings record
type AppSettings struct {
	Theme             string `json:"theme"` // light, dark or system
	UpdateInterval    int    `json:"updateInterval"`
	DefaultCategory   string `json:"defaultCategory"`
	ExportFormat      string `json:"exportFormat"` // markdown, html or json
	KeyboardShortcuts bool   `json:"keyboardShortcuts"`
}

// DefaultAppSettings returns settings used before the user changes anything
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Theme:             "system",
		UpdateInterval:    30,
		DefaultCategory:   "uncategorized",
		ExportFormat:      "markdown",
		KeyboardShortcuts: true,
	}
}

// Setting is one raw row of the settings store, used in backup files
type Setting struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// SavedPrompt is a named summarization prompt template. exactly one prompt
// is flagged as default and cannot be deleted.
type SavedPrompt struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Content   string `json:"content"`
	IsDefault bool   `json:"isDefault,omitempty"`
	CreatedAt int64  `json:"createdAt"`
}
