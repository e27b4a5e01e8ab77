package save

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/framecut/framecut-agent/internal/catalog"
	"github.com/framecut/framecut-agent/internal/edit"
	"github.com/framecut/framecut-agent/internal/logging"
	"github.com/framecut/framecut-agent/internal/media"
)

// Store is the persistence the save service needs.
type Store interface {
	GetFile(ctx context.Context, id string) (*catalog.File, error)
	CreateSaveJob(ctx context.Context, job *catalog.SaveJob) error
	GetSaveJob(ctx context.Context, id string) (*catalog.SaveJob, error)
	ListSaveJobs(ctx context.Context, limit int) ([]*catalog.SaveJob, error)
	UpdateSaveJobStatus(ctx context.Context, id, status, errorCode, errorMsg string) error
}

// Request is a save of a loaded file with the edits staged in the editor.
type Request struct {
	FileID     string       `json:"file_id"`
	Edits      edit.Pending `json:"edits"`
	OutputPath string       `json:"output_path"`
}

// Result describes a completed save.
type Result struct {
	SaveID    string    `json:"save_id"`
	Path      string    `json:"path"`
	Operation Operation `json:"operation"`
}

// Plan is what the save dialog needs before the user picks an output path.
type Plan struct {
	FileID      string            `json:"file_id"`
	Current     media.Container   `json:"current"`
	Compressed  bool              `json:"compressed"`
	Compatible  []media.Container `json:"compatible"`
	Ranked      []media.Container `json:"ranked"`
	DefaultName string            `json:"default_name,omitempty"`
	DefaultPath string            `json:"default_path,omitempty"`
	FilterName  string            `json:"filter_name"`
	Warning     string            `json:"warning,omitempty"`
	Alert       bool              `json:"alert"`
}

type ServiceConfig struct {
	Store      Store
	Builder    *Builder
	Dispatcher *Dispatcher
	Timeout    time.Duration
	Logger     *slog.Logger
}

// Service turns save requests into operations, records them and awaits the
// backend. At most one save per source file runs at a time.
type Service struct {
	store      Store
	builder    *Builder
	dispatcher *Dispatcher
	timeout    time.Duration
	logger     *slog.Logger

	mu       sync.Mutex
	inFlight map[string]bool
	lastSave *catalog.SaveJob
}

func NewService(cfg ServiceConfig) *Service {
	builder := cfg.Builder
	if builder == nil {
		builder = NewBuilder(nil)
	}
	return &Service{
		store:      cfg.Store,
		builder:    builder,
		dispatcher: cfg.Dispatcher,
		timeout:    cfg.Timeout,
		logger:     cfg.Logger,
		inFlight:   make(map[string]bool),
	}
}

func (s *Service) loadFile(ctx context.Context, fileID string) (*catalog.File, error) {
	if fileID == "" {
		return nil, &NoFileLoadedError{}
	}
	f, err := s.store.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if f == nil || !f.Present {
		return nil, &NoFileLoadedError{FileID: fileID}
	}
	return f, nil
}

func currentFile(f *catalog.File) (*CurrentFile, VideoMeta) {
	return &CurrentFile{Path: f.Path, Name: f.Filename, Size: f.Size},
		VideoMeta{Duration: f.Duration, Width: f.Width, Height: f.Height}
}

// Prepare validates req against the loaded file and returns the operation
// without dispatching it.
func (s *Service) Prepare(ctx context.Context, req Request) (Operation, error) {
	f, err := s.loadFile(ctx, req.FileID)
	if err != nil {
		return Operation{}, err
	}

	pending := req.Edits
	pending.SourceContainer = media.ContainerFromName(f.Filename)
	changes, err := edit.Assemble(pending)
	if err != nil {
		return Operation{}, err
	}

	file, video := currentFile(f)
	op, err := s.builder.PrepareSave(file, video, changes, req.OutputPath)
	if err != nil {
		return Operation{}, err
	}
	if err := ValidateOutputPath(req.OutputPath, f.Path); err != nil {
		return Operation{}, err
	}
	return op, nil
}

// Save prepares req, records it and awaits the backend.
func (s *Service) Save(ctx context.Context, req Request) (*Result, error) {
	op, err := s.Prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	if !s.acquire(op.Source.Path) {
		return nil, ErrSaveInProgress
	}
	defer s.release(op.Source.Path)

	now := time.Now()
	job := &catalog.SaveJob{
		ID:              catalog.NewID(),
		FileID:          req.FileID,
		OutputPath:      op.Output.Path,
		OutputContainer: string(op.Output.Container),
		Compressed:      op.Compressed(),
		Status:          catalog.SaveStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if data, err := json.Marshal(op); err == nil {
		job.Operation = string(data)
	}
	if err := s.store.CreateSaveJob(ctx, job); err != nil {
		return nil, err
	}

	logger := s.logger
	if logger != nil {
		logger = logging.WithFileID(logging.WithSaveID(logger, job.ID), req.FileID)
		logger.Info("save started",
			"output", logging.SanitizePath(op.Output.Path),
			"container", op.Output.Container,
			"compressed", op.Compressed(),
		)
	}

	s.setStatus(ctx, job, catalog.SaveStatusRunning, nil)

	dispatchCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		dispatchCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	path, err := s.dispatcher.Dispatch(dispatchCtx, op)
	if err != nil {
		s.setStatus(context.WithoutCancel(ctx), job, catalog.SaveStatusFailed, err)
		return nil, err
	}

	s.setStatus(context.WithoutCancel(ctx), job, catalog.SaveStatusCompleted, nil)
	if logger != nil {
		logger.Info("save completed", "path", logging.SanitizePath(path), "duration_ms", time.Since(now).Milliseconds())
	}
	return &Result{SaveID: job.ID, Path: path, Operation: op}, nil
}

func (s *Service) setStatus(ctx context.Context, job *catalog.SaveJob, status string, cause error) {
	var code, msg string
	if cause != nil {
		code = Code(cause)
		msg = cause.Error()
	}
	if err := s.store.UpdateSaveJobStatus(ctx, job.ID, status, code, msg); err != nil && s.logger != nil {
		s.logger.Warn("failed to update save status", "save_id", job.ID, "status", status, "error", err)
	}

	s.mu.Lock()
	job.Status = status
	job.ErrorCode = code
	job.Error = msg
	job.UpdatedAt = time.Now()
	snapshot := *job
	s.lastSave = &snapshot
	s.mu.Unlock()
}

func (s *Service) acquire(sourcePath string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[sourcePath] {
		return false
	}
	s.inFlight[sourcePath] = true
	return true
}

func (s *Service) release(sourcePath string) {
	s.mu.Lock()
	delete(s.inFlight, sourcePath)
	s.mu.Unlock()
}

// Active returns the number of saves currently dispatched.
func (s *Service) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inFlight)
}

// LastSave returns the most recently updated save of this process, or nil.
func (s *Service) LastSave() *catalog.SaveJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastSave == nil {
		return nil
	}
	j := *s.lastSave
	return &j
}

func (s *Service) GetSave(ctx context.Context, id string) (*catalog.SaveJob, error) {
	return s.store.GetSaveJob(ctx, id)
}

func (s *Service) ListSaves(ctx context.Context, limit int) ([]*catalog.SaveJob, error) {
	return s.store.ListSaveJobs(ctx, limit)
}

// Plan computes the save dialog contents for the loaded file and the staged
// edits. An empty compatible set is reported through Warning rather than as
// an error.
func (s *Service) Plan(ctx context.Context, fileID string, pending edit.Pending) (*Plan, error) {
	f, err := s.loadFile(ctx, fileID)
	if err != nil {
		return nil, err
	}

	current := media.ContainerFromName(f.Filename)
	pending.SourceContainer = current
	changes, err := edit.Assemble(pending)
	if err != nil {
		return nil, err
	}

	compatible, err := s.builder.CompatibleFor(changes, current)
	if err != nil {
		compatible = []media.Container{}
	}

	plan := &Plan{
		FileID:     f.ID,
		Current:    current,
		Compressed: changes.Compression != nil,
		Compatible: compatible,
		Ranked:     media.Rank(compatible, current),
		FilterName: FilterName(changes),
	}
	if plan.Compressed {
		plan.Warning, plan.Alert = media.Warning(compatible, current)
	}

	if name, err := DefaultOutputPath(f.Filename, compatible, current); err == nil {
		plan.DefaultName = name
		plan.DefaultPath = OutputPathFor(f.Path, name)
	}
	return plan, nil
}
