package save

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framecut/framecut-agent/internal/catalog"
	"github.com/framecut/framecut-agent/internal/edit"
	"github.com/framecut/framecut-agent/internal/media"
)

type memStore struct {
	mu    sync.Mutex
	files map[string]*catalog.File
	jobs  map[string]*catalog.SaveJob
	order []string
}

func newMemStore(files ...*catalog.File) *memStore {
	s := &memStore{files: map[string]*catalog.File{}, jobs: map[string]*catalog.SaveJob{}}
	for _, f := range files {
		s.files[f.ID] = f
	}
	return s
}

func (s *memStore) GetFile(ctx context.Context, id string) (*catalog.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.files[id], nil
}

func (s *memStore) CreateSaveJob(ctx context.Context, job *catalog.SaveJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j := *job
	s.jobs[job.ID] = &j
	s.order = append(s.order, job.ID)
	return nil
}

func (s *memStore) GetSaveJob(ctx context.Context, id string) (*catalog.SaveJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j, ok := s.jobs[id]; ok {
		c := *j
		return &c, nil
	}
	return nil, nil
}

func (s *memStore) ListSaveJobs(ctx context.Context, limit int) ([]*catalog.SaveJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*catalog.SaveJob
	for i := len(s.order) - 1; i >= 0 && len(out) < limit; i-- {
		c := *s.jobs[s.order[i]]
		out = append(out, &c)
	}
	return out, nil
}

func (s *memStore) UpdateSaveJobStatus(ctx context.Context, id, status, errorCode, errorMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return errors.New("no such job")
	}
	j.Status, j.ErrorCode, j.Error = status, errorCode, errorMsg
	return nil
}

type fakeBackend struct {
	mu      sync.Mutex
	ops     []Operation
	err     error
	path    string
	started chan struct{}
	block   chan struct{}
}

func (b *fakeBackend) Save(ctx context.Context, op Operation) (string, error) {
	b.mu.Lock()
	b.ops = append(b.ops, op)
	b.mu.Unlock()
	if b.started != nil {
		b.started <- struct{}{}
	}
	if b.block != nil {
		select {
		case <-b.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return b.path, b.err
}

type fixture struct {
	dir     string
	file    *catalog.File
	store   *memStore
	backend *fakeBackend
	svc     *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.mov")
	require.NoError(t, os.WriteFile(path, []byte("mov"), 0644))

	file := &catalog.File{
		ID: "file-1", Path: path, Filename: "clip.mov", Size: 3, Container: "mov",
		Duration: 60, Width: 1920, Height: 1080, Present: true,
	}
	store := newMemStore(file)
	backend := &fakeBackend{}
	svc := NewService(ServiceConfig{
		Store:      store,
		Dispatcher: NewDispatcher(backend, nil),
		Timeout:    time.Minute,
	})
	return &fixture{dir: dir, file: file, store: store, backend: backend, svc: svc}
}

func compressionPanel(video, audio, quality string) edit.CompressionPanel {
	return edit.CompressionPanel{Active: true, VideoCodec: video, AudioCodec: audio, Quality: quality}
}

func TestService_SaveCompressed(t *testing.T) {
	f := newFixture(t)
	out := filepath.Join(f.dir, "clip.mp4")

	res, err := f.svc.Save(context.Background(), Request{
		FileID:     "file-1",
		Edits:      edit.Pending{Compression: compressionPanel("h264", "aac", "80")},
		OutputPath: out,
	})
	require.NoError(t, err)
	assert.Equal(t, out, res.Path)
	assert.NotEmpty(t, res.SaveID)

	require.Len(t, f.backend.ops, 1)
	op := f.backend.ops[0]
	assert.Equal(t, media.ContainerMP4, op.Changes.Compression.Container)
	assert.Equal(t, media.ContainerMOV, op.Source.Container)
	assert.Equal(t, 80, op.Changes.Compression.Quality)

	job, _ := f.store.GetSaveJob(context.Background(), res.SaveID)
	require.NotNil(t, job)
	assert.Equal(t, catalog.SaveStatusCompleted, job.Status)
	assert.True(t, job.Compressed)
	assert.Contains(t, job.Operation, `"container":"mp4"`)

	last := f.svc.LastSave()
	require.NotNil(t, last)
	assert.Equal(t, res.SaveID, last.ID)
	assert.Equal(t, 0, f.svc.Active())
}

func TestService_SaveWithoutCompression(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Save(context.Background(), Request{
		FileID:     "file-1",
		Edits:      edit.Pending{Trim: &edit.TrimChange{StartTime: 2, EndTime: 8}},
		OutputPath: filepath.Join(f.dir, "clip.mp4"),
	})
	var unsupported *UnsupportedOperationError
	require.ErrorAs(t, err, &unsupported)
	assert.Empty(t, f.backend.ops)

	res, err := f.svc.Save(context.Background(), Request{
		FileID:     "file-1",
		Edits:      edit.Pending{Trim: &edit.TrimChange{StartTime: 2, EndTime: 8}},
		OutputPath: filepath.Join(f.dir, "clip-trimmed.mov"),
	})
	require.NoError(t, err)
	require.Len(t, f.backend.ops, 1)
	assert.Nil(t, f.backend.ops[0].Changes.Compression)
	assert.Equal(t, filepath.Join(f.dir, "clip-trimmed.mov"), res.Path)
}

func TestService_SaveValidationErrors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		req  Request
		code string
	}{
		{"unknown file", Request{FileID: "missing", OutputPath: filepath.Join(f.dir, "a.mov")}, CodeNoFileLoaded},
		{"no file id", Request{OutputPath: filepath.Join(f.dir, "a.mov")}, CodeNoFileLoaded},
		{"bad quality", Request{FileID: "file-1", Edits: edit.Pending{Compression: compressionPanel("h264", "aac", "abc")}, OutputPath: filepath.Join(f.dir, "a.mp4")}, CodeInvalidQuality},
		{"incompatible", Request{FileID: "file-1", Edits: edit.Pending{Compression: compressionPanel("vp9", "opus", "50")}, OutputPath: filepath.Join(f.dir, "a.avi")}, CodeIncompatibleContainer},
		{"trim beyond end", Request{FileID: "file-1", Edits: edit.Pending{Trim: &edit.TrimChange{StartTime: 0, EndTime: 90}}, OutputPath: filepath.Join(f.dir, "a.mov")}, CodeInvalidEdit},
		{"relative output", Request{FileID: "file-1", OutputPath: "a.mov"}, CodeInvalidOutput},
		{"overwrites source", Request{FileID: "file-1", OutputPath: f.file.Path}, CodeInvalidOutput},
		{"missing directory", Request{FileID: "file-1", OutputPath: filepath.Join(f.dir, "nope", "a.mov")}, CodeInvalidOutput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Save(context.Background(), tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.code, Code(err))
		})
	}
	assert.Empty(t, f.backend.ops, "no operation may reach the backend after a validation failure")
	assert.Empty(t, f.store.order, "validation failures are not recorded")
}

func TestService_SaveFileNotPresent(t *testing.T) {
	f := newFixture(t)
	f.file.Present = false

	_, err := f.svc.Save(context.Background(), Request{FileID: "file-1", OutputPath: filepath.Join(f.dir, "a.mov")})
	var noFile *NoFileLoadedError
	require.ErrorAs(t, err, &noFile)
	assert.Equal(t, "file-1", noFile.FileID)
}

func TestService_BackendFailureRecorded(t *testing.T) {
	f := newFixture(t)
	f.backend.err = errors.New("ffmpeg exited with code 1")

	_, err := f.svc.Save(context.Background(), Request{FileID: "file-1", OutputPath: filepath.Join(f.dir, "copy.mov")})
	var backendErr *BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.Equal(t, CodeBackendError, Code(err))

	jobs, _ := f.store.ListSaveJobs(context.Background(), 10)
	require.Len(t, jobs, 1)
	assert.Equal(t, catalog.SaveStatusFailed, jobs[0].Status)
	assert.Equal(t, CodeBackendError, jobs[0].ErrorCode)
	assert.Contains(t, jobs[0].Error, "ffmpeg exited with code 1")
}

func TestService_SaveInProgress(t *testing.T) {
	f := newFixture(t)
	f.backend.started = make(chan struct{}, 1)
	f.backend.block = make(chan struct{})

	req := Request{FileID: "file-1", OutputPath: filepath.Join(f.dir, "first.mov")}
	done := make(chan error, 1)
	go func() {
		_, err := f.svc.Save(context.Background(), req)
		done <- err
	}()
	<-f.backend.started
	assert.Equal(t, 1, f.svc.Active())

	_, err := f.svc.Save(context.Background(), Request{FileID: "file-1", OutputPath: filepath.Join(f.dir, "second.mov")})
	assert.ErrorIs(t, err, ErrSaveInProgress)
	assert.Equal(t, CodeSaveInProgress, Code(err))

	close(f.backend.block)
	require.NoError(t, <-done)
	assert.Equal(t, 0, f.svc.Active())
}

func TestService_Timeout(t *testing.T) {
	f := newFixture(t)
	f.backend.block = make(chan struct{})
	f.svc.timeout = 20 * time.Millisecond

	_, err := f.svc.Save(context.Background(), Request{FileID: "file-1", OutputPath: filepath.Join(f.dir, "slow.mov")})
	var backendErr *BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestService_Plan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	plan, err := f.svc.Plan(ctx, "file-1", edit.Pending{Compression: compressionPanel("h264", "aac", "80")})
	require.NoError(t, err)
	assert.Equal(t, []media.Container{media.ContainerMP4, media.ContainerMKV, media.ContainerMOV, media.ContainerAVI}, plan.Compatible)
	assert.Equal(t, []media.Container{media.ContainerMOV, media.ContainerMP4, media.ContainerMKV, media.ContainerAVI}, plan.Ranked)
	assert.Equal(t, "clip.mov", plan.DefaultName)
	assert.Equal(t, filepath.Join(f.dir, "clip-edited.mov"), plan.DefaultPath)
	assert.Equal(t, "Compatible Formats", plan.FilterName)
	assert.Equal(t, "Compatible formats: mov, mp4, mkv, avi", plan.Warning)
	assert.False(t, plan.Alert)

	plan, err = f.svc.Plan(ctx, "file-1", edit.Pending{Compression: compressionPanel("vp9", "opus", "50")})
	require.NoError(t, err)
	assert.Equal(t, "clip.webm", plan.DefaultName)
	assert.True(t, plan.Alert)
	assert.Contains(t, plan.Warning, "Current format (mov) is not compatible")

	f.svc.builder = NewBuilder(media.NewResolver(flacOnlyInAVI{}))
	plan, err = f.svc.Plan(ctx, "file-1", edit.Pending{Compression: compressionPanel("h265", "flac", "50")})
	require.NoError(t, err)
	assert.Empty(t, plan.Compatible)
	assert.Empty(t, plan.DefaultPath)
	assert.Equal(t, "No compatible formats found for selected codecs", plan.Warning)
	assert.True(t, plan.Alert)

	_, err = f.svc.Save(ctx, Request{
		FileID:     "file-1",
		Edits:      edit.Pending{Compression: compressionPanel("h265", "flac", "50")},
		OutputPath: filepath.Join(f.dir, "a.mkv"),
	})
	assert.Equal(t, CodeNoCompatibleContainer, Code(err))
	f.svc.builder = NewBuilder(nil)

	plan, err = f.svc.Plan(ctx, "file-1", edit.Pending{})
	require.NoError(t, err)
	assert.Equal(t, []media.Container{media.ContainerMOV}, plan.Compatible)
	assert.Equal(t, "Video", plan.FilterName)
	assert.Empty(t, plan.Warning)
	assert.False(t, plan.Compressed)

	_, err = f.svc.Plan(ctx, "missing", edit.Pending{})
	var noFile *NoFileLoadedError
	assert.ErrorAs(t, err, &noFile)
}

func TestService_SaveToPlannedDefaultPath(t *testing.T) {
	tests := []struct {
		name  string
		edits edit.Pending
		want  string
	}{
		{"no edits", edit.Pending{}, "clip-edited.mov"},
		{"trim", edit.Pending{Trim: &edit.TrimChange{StartTime: 2, EndTime: 8}}, "clip-edited.mov"},
		{"h264 aac", edit.Pending{Compression: compressionPanel("h264", "aac", "80")}, "clip-edited.mov"},
		{"vp9 opus", edit.Pending{Compression: compressionPanel("vp9", "opus", "50")}, "clip.webm"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()

			plan, err := f.svc.Plan(ctx, "file-1", tt.edits)
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(f.dir, tt.want), plan.DefaultPath)

			res, err := f.svc.Save(ctx, Request{FileID: "file-1", Edits: tt.edits, OutputPath: plan.DefaultPath})
			require.NoError(t, err)
			assert.Equal(t, plan.DefaultPath, res.Path)
		})
	}
}
