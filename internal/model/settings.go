package model

// Languages supported by the notebook UI strings.
const (
	LanguageEN = "en"
	LanguageZH = "zh"
)

// CloudConfig holds the coordinates of the hosted backend: the database DSN
// (or HTTP endpoint for a managed deployment) and its public API key.
type CloudConfig struct {
	URL string `json:"url"`
	Key string `json:"anonKey"`
}

// Configured reports whether both coordinates are present.
func (c CloudConfig) Configured() bool {
	return c.URL != "" && c.Key != ""
}

// AIModel describes one entry of the provider's model catalog.
type AIModel struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	ContextLength int    `json:"context_length,omitempty"`
	IsMultimodal  bool   `json:"is_multimodal,omitempty"`
}

// AppSettings is the process-wide configuration, persisted locally as a JSON
// blob and optionally mirrored to the cloud per logged-in user. JSON field
// names are the persisted settings contract; unknown fields are ignored and
// missing fields fall back to defaults during resolution.
type AppSettings struct {
	Username          string    `json:"username"`
	GeminiAPIKey      string    `json:"geminiApiKey,omitempty"`
	OpenRouterAPIKey  string    `json:"openRouterApiKey,omitempty"`
	OpenRouterBaseURL string    `json:"openRouterBaseUrl,omitempty"`
	AIModel           string    `json:"aiModel"`
	CustomModels      []AIModel `json:"customModels,omitempty"`
	Language          string    `json:"language"`
	UseCloud          bool      `json:"useCloud"`
	Cloud             CloudConfig `json:"cloudConfig"`
	LastSyncTime      int64     `json:"lastSyncTime,omitempty"`
}
