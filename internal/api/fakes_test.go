package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/framecut/framecut-agent/internal/catalog"
	"github.com/framecut/framecut-agent/internal/edit"
	"github.com/framecut/framecut-agent/internal/ffmpeg"
	"github.com/framecut/framecut-agent/internal/save"
	"github.com/framecut/framecut-agent/internal/settings"
)

const testToken = "test-token"

type fakeCatalog struct {
	files   map[string]*catalog.File
	openErr error
}

func (f *fakeCatalog) OpenFile(ctx context.Context, path string) (*catalog.File, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	file := &catalog.File{ID: "opened", Path: path, Filename: "clip.mov", Container: "mov", Present: true}
	if f.files == nil {
		f.files = map[string]*catalog.File{}
	}
	f.files[file.ID] = file
	return file, nil
}

func (f *fakeCatalog) GetFile(ctx context.Context, id string) (*catalog.File, error) {
	if file, ok := f.files[id]; ok {
		return file, nil
	}
	return nil, catalog.ErrNotFound
}

func (f *fakeCatalog) ListFiles(ctx context.Context) ([]*catalog.File, error) {
	out := make([]*catalog.File, 0, len(f.files))
	for _, file := range f.files {
		out = append(out, file)
	}
	return out, nil
}

func (f *fakeCatalog) CountFiles(ctx context.Context) (int, error) {
	return len(f.files), nil
}

type fakeSaves struct {
	plan     *save.Plan
	result   *save.Result
	err      error
	jobs     []*catalog.SaveJob
	active   int
	last     *catalog.SaveJob
	lastReq  save.Request
	lastPend edit.Pending
	limit    int
}

func (f *fakeSaves) Plan(ctx context.Context, fileID string, pending edit.Pending) (*save.Plan, error) {
	f.lastPend = pending
	if f.err != nil {
		return nil, f.err
	}
	return f.plan, nil
}

func (f *fakeSaves) Save(ctx context.Context, req save.Request) (*save.Result, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeSaves) GetSave(ctx context.Context, id string) (*catalog.SaveJob, error) {
	for _, j := range f.jobs {
		if j.ID == id {
			return j, nil
		}
	}
	return nil, nil
}

func (f *fakeSaves) ListSaves(ctx context.Context, limit int) ([]*catalog.SaveJob, error) {
	f.limit = limit
	return f.jobs, nil
}

func (f *fakeSaves) Active() int                { return f.active }
func (f *fakeSaves) LastSave() *catalog.SaveJob { return f.last }

type fakeSettings struct {
	current settings.Settings
}

func (f *fakeSettings) Get() settings.Settings {
	return f.current
}

func (f *fakeSettings) Update(p settings.Patch) (settings.Settings, error) {
	next := f.current
	if p.Theme != nil {
		next.Theme = *p.Theme
	}
	if p.Volume != nil {
		next.Volume = *p.Volume
	}
	if err := next.Validate(); err != nil {
		return f.current, err
	}
	f.current = next
	return next, nil
}

type fakeTokens struct {
	token string
}

func (f fakeTokens) GetConfig(ctx context.Context, key string) (string, error) {
	if key == AuthTokenKey {
		return f.token, nil
	}
	return "", nil
}

type fakeDoctor struct {
	caps *ffmpeg.Capabilities
	err  error
}

func (f *fakeDoctor) Get(ctx context.Context) (*ffmpeg.Capabilities, error) {
	return f.caps, f.err
}

type fakePlayback struct {
	served *catalog.File
}

func (f *fakePlayback) ServeFile(w http.ResponseWriter, r *http.Request, file *catalog.File) error {
	f.served = file
	w.Header().Set("Accept-Ranges", "bytes")
	w.WriteHeader(http.StatusOK)
	return nil
}

type fixture struct {
	catalog  *fakeCatalog
	saves    *fakeSaves
	settings *fakeSettings
	playback *fakePlayback
	cfg      ServerConfig
}

func newFixture() *fixture {
	f := &fixture{
		catalog: &fakeCatalog{files: map[string]*catalog.File{
			"file-1": {ID: "file-1", Path: "/videos/clip.mov", Filename: "clip.mov", Container: "mov", Present: true},
		}},
		saves:    &fakeSaves{},
		settings: &fakeSettings{current: settings.Defaults()},
		playback: &fakePlayback{},
	}
	f.cfg = ServerConfig{
		CatalogService: f.catalog,
		SaveService:    f.saves,
		PlaybackServer: f.playback,
		Settings:       f.settings,
		Tokens:         fakeTokens{token: testToken},
		Backend:        "local",
		Version:        "test",
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		StartTime:      time.Now().Add(-10 * time.Second),
		DeviceID:       "test-device",
	}
	return f
}

// do sends an authenticated request through the full router.
func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Authorization", "Bearer "+testToken)
	req.RemoteAddr = "127.0.0.1:12345"
	rr := httptest.NewRecorder()
	NewRouter(f.cfg).ServeHTTP(rr, req)
	return rr
}

func decodeJSONBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response body: %v (%s)", err, rr.Body.String())
	}

	return body
}
