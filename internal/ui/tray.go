// Package ui shows the agent in the system tray.
package ui

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/getlantern/systray"

	"github.com/framecut/framecut-agent/internal/catalog"
)

const refreshInterval = 2 * time.Second

// SaveStatus is the part of the save service the tray reports on.
type SaveStatus interface {
	Active() int
	LastSave() *catalog.SaveJob
}

type Tray struct {
	catalogSvc catalog.CatalogService
	saves      SaveStatus
	logger     *slog.Logger

	statusItem *systray.MenuItem
	filesItem  *systray.MenuItem
	lastItem   *systray.MenuItem

	mu sync.Mutex

	onShowToken func() error
	onQuit      func()
	stop        chan struct{}
}

type TrayConfig struct {
	CatalogService catalog.CatalogService
	Saves          SaveStatus
	Logger         *slog.Logger
	OnShowToken    func() error
	OnQuit         func()
}

func NewTray(cfg TrayConfig) *Tray {
	return &Tray{
		catalogSvc:  cfg.CatalogService,
		saves:       cfg.Saves,
		logger:      cfg.Logger,
		onShowToken: cfg.OnShowToken,
		onQuit:      cfg.OnQuit,
		stop:        make(chan struct{}),
	}
}

func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetIcon(iconBytes)
	systray.SetTitle("Framecut")
	systray.SetTooltip("Framecut Agent")

	t.statusItem = systray.AddMenuItem("Status: Idle", "Current agent status")
	t.statusItem.Disable()

	t.filesItem = systray.AddMenuItem("Files: 0", "Videos opened in the editor")
	t.filesItem.Disable()

	t.lastItem = systray.AddMenuItem("Last save: none", "Most recent save")
	t.lastItem.Disable()

	systray.AddSeparator()

	tokenItem := systray.AddMenuItem("Show API Token", "Log the token the player needs")

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Quit Framecut Agent")

	go t.refreshLoop()

	go func() {
		for {
			select {
			case <-tokenItem.ClickedCh:
				t.handleShowToken()
			case <-quitItem.ClickedCh:
				t.logger.Info("quit requested from tray")
				if t.onQuit != nil {
					t.onQuit()
				}
				systray.Quit()
				return
			}
		}
	}()

	t.logger.Info("system tray ready")
}

func (t *Tray) onExit() {
	close(t.stop)
	t.logger.Info("system tray exiting")
}

func (t *Tray) refreshLoop() {
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()
	for {
		t.refresh()
		select {
		case <-t.stop:
			return
		case <-ticker.C:
		}
	}
}

func (t *Tray) refresh() {
	if t.saves != nil {
		active, last := t.saves.Active(), t.saves.LastSave()
		t.UpdateStatus(StatusLabel(active, last))
		t.mu.Lock()
		t.lastItem.SetTitle(LastSaveLabel(last))
		t.mu.Unlock()
	}
	if t.catalogSvc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		n, err := t.catalogSvc.CountFiles(ctx)
		cancel()
		if err == nil {
			t.UpdateFilesCount(n)
		}
	}
}

func (t *Tray) handleShowToken() {
	if t.onShowToken != nil {
		if err := t.onShowToken(); err != nil {
			t.logger.Error("failed to show token", "error", err)
		}
	}
}

// StatusLabel renders the save state for the status item.
func StatusLabel(active int, last *catalog.SaveJob) string {
	switch {
	case active == 1:
		return "Saving"
	case active > 1:
		return fmt.Sprintf("Saving (%d)", active)
	case last != nil && last.Status == catalog.SaveStatusFailed:
		return "Last save failed"
	default:
		return "Idle"
	}
}

func LastSaveLabel(last *catalog.SaveJob) string {
	if last == nil {
		return "Last save: none"
	}
	return fmt.Sprintf("Last save: %s (%s)", last.OutputContainer, last.Status)
}

func (t *Tray) UpdateStatus(status string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.statusItem.SetTitle("Status: " + status)
}

func (t *Tray) UpdateFilesCount(count int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.filesItem.SetTitle(fmt.Sprintf("Files: %d", count))
}

func (t *Tray) Quit() {
	systray.Quit()
}
