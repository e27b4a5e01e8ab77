package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/framecut/framecut-agent/internal/api"
	"github.com/framecut/framecut-agent/internal/catalog"
	"github.com/framecut/framecut-agent/internal/config"
	"github.com/framecut/framecut-agent/internal/db"
	"github.com/framecut/framecut-agent/internal/ffmpeg"
	"github.com/framecut/framecut-agent/internal/logging"
	"github.com/framecut/framecut-agent/internal/media"
	"github.com/framecut/framecut-agent/internal/playback"
	"github.com/framecut/framecut-agent/internal/remote"
	"github.com/framecut/framecut-agent/internal/save"
	"github.com/framecut/framecut-agent/internal/settings"
	"github.com/framecut/framecut-agent/internal/ui"
	"github.com/framecut/framecut-agent/internal/watcher"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("framecut agent: %v", err)
	}
}

func run() error {
	startTime := time.Now()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir(), 0o700); err != nil {
		return fmt.Errorf("create data dir %s: %w", cfg.DataDir(), err)
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting framecut agent", "version", config.Version, "data_dir", cfg.DataDir())

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	repo := catalog.NewRepository(database.Conn())

	deviceID, err := ensureDeviceID(repo)
	if err != nil {
		return fmt.Errorf("device id: %w", err)
	}

	authToken, err := ensureAuthToken(repo)
	if err != nil {
		return fmt.Errorf("auth token: %w", err)
	}

	printBanner(os.Stdout, cfg, authToken, deviceID)

	userSettings := settings.Open(cfg.SettingsPath(), logger)

	// ffmpeg is optional when saves go to a remote backend; without it files
	// load with filesystem metadata only.
	var (
		runner *ffmpeg.SubprocessRunner
		doctor *ffmpeg.CachedDoctor
		prober catalog.Prober
	)
	runner, err = ffmpeg.NewRunner(ffmpeg.Config{
		FFmpegPath:  cfg.FFmpegPath(),
		FFprobePath: cfg.FFprobePath(),
		Logger:      logger,
	})
	if err != nil {
		if cfg.Backend() == config.BackendLocal {
			return fmt.Errorf("local backend needs ffmpeg: %w", err)
		}
		logger.Warn("ffmpeg unavailable, loaded files will not be probed", "error", err)
	} else {
		prober = ffmpeg.NewProber(runner, cfg.ProbeTimeout())
		doctor = ffmpeg.NewCachedDoctor(runner, runner.FFmpegPath(), logger)

		initCtx, initCancel := context.WithTimeout(context.Background(), cfg.ProbeTimeout())
		if caps, err := doctor.Refresh(initCtx); err != nil {
			logger.Warn("initial encoder probe failed", "error", err)
		} else {
			logger.Info("ffmpeg encoders detected", "video", len(caps.Video), "audio", len(caps.Audio))
		}
		initCancel()
	}

	var backend save.Backend
	switch cfg.Backend() {
	case config.BackendRemote:
		rb := remote.NewHTTPBackend(cfg.RemoteURL(), cfg.RemoteToken(), 0, logging.WithComponent(logger, "remote"))
		rb.SetDeviceID(deviceID)
		backend = rb
		logger.Info("remote save backend enabled", "url", cfg.RemoteURL())
	default:
		backend = ffmpeg.NewBackend(runner, doctor, logging.WithComponent(logger, "ffmpeg"))
	}

	var fileWatcher watcher.Watcher
	if fw, err := watcher.NewFSWatcher(logger); err != nil {
		logger.Warn("file watching disabled", "error", err)
	} else {
		fileWatcher = fw
		defer fw.Stop()
	}

	catalogSvc := catalog.NewService(repo, prober, fileWatcher, logger)
	if err := catalogSvc.Reconcile(context.Background()); err != nil {
		logger.Warn("failed to reconcile loaded files", "error", err)
	}

	resolver := media.NewResolver(nil)
	saveSvc := save.NewService(save.ServiceConfig{
		Store:      repo,
		Builder:    save.NewBuilder(resolver),
		Dispatcher: save.NewDispatcher(backend, logging.WithComponent(logger, "dispatcher")),
		Timeout:    cfg.SaveTimeout(),
		Logger:     logger,
	})

	serverCfg := api.ServerConfig{
		Port:           cfg.Port(),
		CatalogService: catalogSvc,
		SaveService:    saveSvc,
		PlaybackServer: playback.NewServer(logger),
		Settings:       userSettings,
		Tokens:         repo,
		Resolver:       resolver,
		Backend:        cfg.Backend(),
		Version:        config.Version,
		Logger:         logger,
		StartTime:      startTime,
		DeviceID:       deviceID,
	}
	if doctor != nil {
		serverCfg.Doctor = doctor
	}
	apiServer := api.NewServer(serverCfg)

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	quitCh := make(chan struct{})

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			close(quitCh)
		case <-quitCh:
		}
	}()

	if cfg.Headless() {
		logger.Info("running in headless mode (no system tray)")
	} else {
		tray := ui.NewTray(ui.TrayConfig{
			CatalogService: catalogSvc,
			Saves:          saveSvc,
			Logger:         logger,
			OnShowToken: func() error {
				_, err := fmt.Fprintf(os.Stdout, "API token: %s\n", authToken)
				return err
			},
			OnQuit: func() {
				close(quitCh)
			},
		})
		go tray.Run()
	}

	<-quitCh

	logger.Info("initiating graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

func printBanner(w io.Writer, cfg config.Config, authToken, deviceID string) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "\nframecut agent %s\n", config.Version)
	fmt.Fprintf(tw, "  API\thttp://127.0.0.1:%d\n", cfg.Port())
	fmt.Fprintf(tw, "  Token\t%s\n", authToken)
	fmt.Fprintf(tw, "  Device\t%s\n", deviceID)
	fmt.Fprintf(tw, "  Backend\t%s\n", cfg.Backend())
	if cfg.Backend() == config.BackendRemote {
		fmt.Fprintf(tw, "  Remote\t%s\n", cfg.RemoteURL())
	}
	fmt.Fprintf(tw, "  Data\t%s\n\n", cfg.DataDir())
	tw.Flush()
}

func ensureDeviceID(repo catalog.Repository) (string, error) {
	return ensureSecret(repo, "device_id", 16)
}

func ensureAuthToken(repo catalog.Repository) (string, error) {
	return ensureSecret(repo, api.AuthTokenKey, 32)
}

// ensureSecret returns the stored value of key, generating n random bytes
// hex-encoded on first run.
func ensureSecret(repo catalog.Repository, key string, n int) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, key)
	if err == nil && existing != "" {
		return existing, nil
	}

	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	value := hex.EncodeToString(buf)

	if err := repo.SetConfig(ctx, key, value); err != nil {
		return "", err
	}
	return value, nil
}
