package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/odklm/spotfetch/ptr"
)

type Config struct {
	MusicDir    string `json:"music_dir"    yaml:"music_dir"`
	YTDLPPath   string `json:"ytdlp_path"   yaml:"ytdlp_path"`
	AllowSpaces *bool  `json:"allow_spaces" yaml:"allow_spaces"`
}

func (cfg *Config) validate() error {
	if cfg.MusicDir == "" {
		return errors.New("music dir is empty")
	}

	if cfg.YTDLPPath == "" {
		cfg.YTDLPPath = "yt-dlp"
	}

	return nil
}

// SpacesAllowed reports whether generated file names may contain spaces.
// Unset means allowed.
func (cfg *Config) SpacesAllowed() bool {
	return ptr.ValueOr(cfg.AllowSpaces, true)
}

func FromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if nil != err {
		return nil, fmt.Errorf("failed to read config file %q: %v", filePath, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); nil != err {
		return nil, fmt.Errorf("failed to unmarshal config file %q: %v", filePath, err)
	}

	if err := cfg.validate(); nil != err {
		return nil, fmt.Errorf("validation failed: %v", err)
	}

	return &cfg, nil
}

func FromString(data string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(data), &cfg); nil != err {
		return nil, fmt.Errorf("failed to unmarshal config: %v", err)
	}

	if err := cfg.validate(); nil != err {
		return nil, fmt.Errorf("validation failed: %v", err)
	}

	return &cfg, nil
}
