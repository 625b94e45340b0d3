package settings

import (
	"encoding/json"
	"log/slog"

	"mistakebook/internal/config"
	"mistakebook/internal/model"
)

// Overrides are the deploy-time values that take precedence over anything the
// user has edited. Cloud coordinates are special: when both are present, cloud
// mode is forced on and cannot be disabled from the settings screen. Operators
// deploying with environment configuration are assumed to intend cloud mode.
type Overrides struct {
	Username         string
	GeminiAPIKey     string
	OpenRouterAPIKey string
	CloudURL         string
	CloudKey         string
}

// OverridesFromConfig extracts the deploy-time overrides from the app config.
func OverridesFromConfig(cfg *config.Config) Overrides {
	return Overrides{
		Username:         cfg.AdminUsername,
		GeminiAPIKey:     cfg.GeminiAPIKey,
		OpenRouterAPIKey: cfg.OpenRouterAPIKey,
		CloudURL:         cfg.CloudURL,
		CloudKey:         cfg.CloudKey,
	}
}

// CloudForced reports whether the one-way cloud override applies.
func (o Overrides) CloudForced() bool {
	return o.CloudURL != "" && o.CloudKey != ""
}

// Defaults returns the hard-coded base settings, before any persisted value or
// override is applied.
func Defaults() model.AppSettings {
	return model.AppSettings{
		Username:          "学生",
		Language:          model.LanguageZH,
		AIModel:           "gemini-3-flash-preview",
		OpenRouterBaseURL: "https://openrouter.ai/api/v1",
	}
}

// Resolve merges defaults, the locally persisted JSON blob, and deploy-time
// overrides into one consistent settings value, lowest to highest precedence
// per field. Malformed persisted JSON is logged and treated as empty; this is
// never escalated to the user. Resolve has no side effects; persistence is
// the caller's responsibility.
func Resolve(persisted []byte, ov Overrides) model.AppSettings {
	merged := Defaults()

	if len(persisted) > 0 {
		// Unmarshal onto the defaults: keys present in the blob replace the
		// default, missing keys keep it, unknown keys are ignored.
		err := json.Unmarshal(persisted, &merged)
		if err != nil {
			slog.Warn("settings blob is malformed, using defaults", "error", err)
			merged = Defaults()
		}
	}

	if ov.Username != "" {
		merged.Username = ov.Username
	}
	if ov.GeminiAPIKey != "" {
		merged.GeminiAPIKey = ov.GeminiAPIKey
	}
	if ov.OpenRouterAPIKey != "" {
		merged.OpenRouterAPIKey = ov.OpenRouterAPIKey
	}
	if ov.CloudURL != "" {
		merged.Cloud.URL = ov.CloudURL
	}
	if ov.CloudKey != "" {
		merged.Cloud.Key = ov.CloudKey
	}

	// One-way override, not a merge: with both coordinates supplied at deploy
	// time, a persisted useCloud=false is ignored.
	if ov.CloudForced() {
		merged.UseCloud = true
	}

	return merged
}

// Sanitize enforces the save-time invariants on user-edited settings: cloud
// mode cannot be enabled without both coordinates, and it cannot be disabled
// while the deploy-time override is in effect. Returns the adjusted value and
// whether cloud mode was force-reverted to false.
func Sanitize(s model.AppSettings, ov Overrides) (model.AppSettings, bool) {
	if ov.CloudForced() {
		s.UseCloud = true
		return s, false
	}
	if s.UseCloud && !s.Cloud.Configured() {
		s.UseCloud = false
		return s, true
	}
	return s, false
}
