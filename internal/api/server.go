// Package api exposes the agent over a loopback HTTP API for the player UI.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/framecut/framecut-agent/internal/catalog"
	"github.com/framecut/framecut-agent/internal/edit"
	"github.com/framecut/framecut-agent/internal/ffmpeg"
	"github.com/framecut/framecut-agent/internal/media"
	"github.com/framecut/framecut-agent/internal/playback"
	"github.com/framecut/framecut-agent/internal/save"
	"github.com/framecut/framecut-agent/internal/settings"
)

// SaveService is the part of save.Service the handlers use.
type SaveService interface {
	Plan(ctx context.Context, fileID string, pending edit.Pending) (*save.Plan, error)
	Save(ctx context.Context, req save.Request) (*save.Result, error)
	GetSave(ctx context.Context, id string) (*catalog.SaveJob, error)
	ListSaves(ctx context.Context, limit int) ([]*catalog.SaveJob, error)
	Active() int
	LastSave() *catalog.SaveJob
}

type SettingsStore interface {
	Get() settings.Settings
	Update(p settings.Patch) (settings.Settings, error)
}

// EncoderDoctor reports the encoders of the local ffmpeg.
type EncoderDoctor interface {
	Get(ctx context.Context) (*ffmpeg.Capabilities, error)
}

// TokenSource holds the API bearer token under the "auth_token" key.
type TokenSource interface {
	GetConfig(ctx context.Context, key string) (string, error)
}

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

type ServerConfig struct {
	Port           int
	CatalogService catalog.CatalogService
	SaveService    SaveService
	PlaybackServer playback.PlaybackService
	Settings       SettingsStore
	Tokens         TokenSource
	Doctor         EncoderDoctor
	Resolver       *media.Resolver
	Backend        string
	Version        string
	Logger         *slog.Logger
	StartTime      time.Time
	DeviceID       string
}

func NewServer(cfg ServerConfig) *Server {
	router := NewRouter(cfg)

	return &Server{
		httpServer: &http.Server{
			Addr:        fmt.Sprintf("127.0.0.1:%d", cfg.Port),
			Handler:     router,
			ReadTimeout: 15 * time.Second,
			// Saves answer only once the backend finishes.
			WriteTimeout: 0,
			IdleTimeout:  60 * time.Second,
		},
		logger: cfg.Logger,
	}
}

func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}
