package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
	"github.com/minolabo/radirec/internal/model"
)

// DefaultFile is the settings file name looked up in the working
// directory when no explicit path is given.
const DefaultFile = "config.json"

// Settings holds all configuration options.
type Settings struct {
	// Premium account credentials. Both empty means anonymous
	// ("normal" tier) recording.
	Mail     string `json:"mail"`
	Password string `json:"password"`

	// Template is the output file name template, supporting
	// {DATE}, {TIME}, {TITLE} and {STATION}.
	Template string `json:"template"`

	// OutputDir is the base directory recordings are written under,
	// one subdirectory per station id. Empty means the working
	// directory.
	OutputDir string `json:"output_dir,omitempty"`

	// FFmpegPath overrides ffmpeg binary discovery.
	FFmpegPath string `json:"ffmpeg_path,omitempty"`

	// SaveProgramImage saves the program artwork (when the schedule
	// lists one) next to the recording.
	SaveProgramImage bool `json:"save_program_image,omitempty"`

	// ProgramImageMaxSize bounds the saved artwork's dimensions in
	// pixels.
	ProgramImageMaxSize int `json:"program_image_max_size,omitempty"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	return &Settings{
		Template:            "{DATE}_{TIME}_{TITLE}",
		ProgramImageMaxSize: 1000,
	}
}

// Load reads settings from a JSON file. A missing file yields defaults.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, err
	}

	settings := DefaultSettings()
	if err := json.Unmarshal(data, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// Save writes settings to a JSON file. The write is atomic so a crash
// mid-save cannot leave a truncated file behind. Mode 0600 since the
// file may carry account credentials.
func (s *Settings) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return renameio.WriteFile(path, data, 0600)
}

// ToNameConfig converts settings to a model.NameConfig.
func (s *Settings) ToNameConfig() *model.NameConfig {
	return &model.NameConfig{Template: s.Template}
}
