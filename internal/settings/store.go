package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"mistakebook/internal/model"
)

const settingsFile = "settings.json"

// Store persists the settings blob to a single JSON file under the data
// directory, replace-whole-value semantics. It also holds the deploy-time
// overrides so Resolve always sees a consistent pair.
type Store struct {
	path      string
	overrides Overrides
}

func NewStore(dataPath string, ov Overrides) *Store {
	return &Store{
		path:      filepath.Join(dataPath, settingsFile),
		overrides: ov,
	}
}

// Overrides returns the deploy-time overrides the store was built with.
func (s *Store) Overrides() Overrides {
	return s.overrides
}

// Resolve reads the persisted blob fresh from disk and merges it with the
// defaults and overrides. A missing file is the empty blob.
func (s *Store) Resolve() model.AppSettings {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		raw = nil
	}
	return Resolve(raw, s.overrides)
}

// Save enforces the save-time invariants, writes the whole blob back, and
// returns the value actually persisted plus whether cloud mode was reverted.
func (s *Store) Save(settings model.AppSettings) (model.AppSettings, bool, error) {
	sanitized, reverted := Sanitize(settings, s.overrides)

	data, err := json.MarshalIndent(sanitized, "", "  ")
	if err != nil {
		return sanitized, reverted, fmt.Errorf("failed to encode settings: %w", err)
	}

	err = writeFileAtomic(s.path, data)
	if err != nil {
		return sanitized, reverted, fmt.Errorf("failed to write settings: %w", err)
	}

	return sanitized, reverted, nil
}

// writeFileAtomic replaces path via a temp file and rename, so a crashed
// write never leaves a truncated blob behind.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".settings-*")
	if err != nil {
		return err
	}

	_, err = tmp.Write(data)
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}

	err = tmp.Close()
	if err != nil {
		os.Remove(tmp.Name())
		return err
	}

	return os.Rename(tmp.Name(), path)
}
