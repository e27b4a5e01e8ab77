// Package settings persists the editor preferences in a TOML file in the
// data directory.
package settings

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/framecut/framecut-agent/internal/media"
)

const (
	FileName       = "settings.toml"
	CurrentVersion = "1.0"

	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Settings are the user preferences shown and edited by the player.
type Settings struct {
	Theme          string           `toml:"theme" json:"theme"`
	Loop           bool             `toml:"loop" json:"loop"`
	Volume         float64          `toml:"volume" json:"volume"`
	HasSeenHelpTip bool             `toml:"has_seen_help_tip" json:"has_seen_help_tip"`
	Version        string           `toml:"version" json:"version"`
	VideoCodec     media.VideoCodec `toml:"video_codec" json:"video_codec"`
	AudioCodec     media.AudioCodec `toml:"audio_codec" json:"audio_codec"`
	Quality        int              `toml:"quality" json:"quality"`
}

// Defaults returns the settings used when nothing is stored.
func Defaults() Settings {
	return Settings{
		Theme:      ThemeDark,
		Loop:       true,
		Volume:     1.0,
		Version:    CurrentVersion,
		VideoCodec: media.VideoAuto,
		AudioCodec: media.AudioAuto,
		Quality:    80,
	}
}

// Validate checks every field is in range.
func (s Settings) Validate() error {
	if s.Theme != ThemeDark && s.Theme != ThemeLight {
		return fmt.Errorf("theme must be %q or %q", ThemeDark, ThemeLight)
	}
	if s.Volume < 0 || s.Volume > 1 {
		return fmt.Errorf("volume must be between 0 and 1")
	}
	if _, ok := media.ParseVideoCodec(string(s.VideoCodec)); !ok {
		return fmt.Errorf("unknown video codec %q", s.VideoCodec)
	}
	if _, ok := media.ParseAudioCodec(string(s.AudioCodec)); !ok {
		return fmt.Errorf("unknown audio codec %q", s.AudioCodec)
	}
	if s.Quality < 0 || s.Quality > 100 {
		return fmt.Errorf("quality must be between 0 and 100")
	}
	return nil
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Theme          *string           `json:"theme,omitempty"`
	Loop           *bool             `json:"loop,omitempty"`
	Volume         *float64          `json:"volume,omitempty"`
	HasSeenHelpTip *bool             `json:"has_seen_help_tip,omitempty"`
	VideoCodec     *media.VideoCodec `json:"video_codec,omitempty"`
	AudioCodec     *media.AudioCodec `json:"audio_codec,omitempty"`
	Quality        *int              `json:"quality,omitempty"`
}

func (p Patch) apply(s Settings) Settings {
	if p.Theme != nil {
		s.Theme = *p.Theme
	}
	if p.Loop != nil {
		s.Loop = *p.Loop
	}
	if p.Volume != nil {
		s.Volume = *p.Volume
	}
	if p.HasSeenHelpTip != nil {
		s.HasSeenHelpTip = *p.HasSeenHelpTip
	}
	if p.VideoCodec != nil {
		s.VideoCodec = *p.VideoCodec
	}
	if p.AudioCodec != nil {
		s.AudioCodec = *p.AudioCodec
	}
	if p.Quality != nil {
		s.Quality = *p.Quality
	}
	return s
}

// Store holds the current settings and writes every change back to disk.
type Store struct {
	path   string
	logger *slog.Logger

	mu      sync.RWMutex
	current Settings
}

// Open loads the settings at path. A missing file yields the defaults; an
// unreadable or invalid one is logged and also yields the defaults.
func Open(path string, logger *slog.Logger) *Store {
	s := &Store{path: path, logger: logger, current: Defaults()}
	loaded, err := load(path)
	switch {
	case err == nil:
		s.current = loaded
	case os.IsNotExist(err):
	default:
		if logger != nil {
			logger.Warn("failed to load settings, using defaults", "path", path, "error", err)
		}
	}
	return s
}

func load(path string) (Settings, error) {
	out := Defaults()
	if _, err := toml.DecodeFile(path, &out); err != nil {
		return Defaults(), err
	}
	if err := out.Validate(); err != nil {
		return Defaults(), err
	}
	out.Version = CurrentVersion
	return out, nil
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update applies p, validates the result and persists it. On error nothing
// changes.
func (s *Store) Update(p Patch) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := p.apply(s.current)
	if err := next.Validate(); err != nil {
		return s.current, err
	}
	if err := write(s.path, next); err != nil {
		return s.current, err
	}
	s.current = next
	return next, nil
}

func write(path string, v Settings) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(v); err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}
