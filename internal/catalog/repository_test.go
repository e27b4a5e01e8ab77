package catalog

import (
	"context"
	"testing"
	"time"
)

func insertFile(t *testing.T, repo Repository, path string) *File {
	t.Helper()
	f := &File{
		ID:        NewID(),
		Path:      path,
		Filename:  "clip.mov",
		Mtime:     time.Now(),
		Container: "mov",
		Present:   true,
		CreatedAt: time.Now(),
	}
	if err := repo.UpsertFile(context.Background(), f); err != nil {
		t.Fatalf("UpsertFile() error = %v", err)
	}
	return f
}

func TestRepository_SaveJobLifecycle(t *testing.T) {
	database, repo := setupTestDB(t)
	defer database.Close()
	ctx := context.Background()

	f := insertFile(t, repo, "/videos/clip.mov")

	now := time.Now()
	job := &SaveJob{
		ID:              NewID(),
		FileID:          f.ID,
		OutputPath:      "/videos/clip.mp4",
		OutputContainer: "mp4",
		Compressed:      true,
		Status:          SaveStatusPending,
		Operation:       `{"output":{"path":"/videos/clip.mp4"}}`,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := repo.CreateSaveJob(ctx, job); err != nil {
		t.Fatalf("CreateSaveJob() error = %v", err)
	}

	if err := repo.UpdateSaveJobStatus(ctx, job.ID, SaveStatusFailed, "BACKEND_ERROR", "ffmpeg exited with code 1"); err != nil {
		t.Fatalf("UpdateSaveJobStatus() error = %v", err)
	}

	got, err := repo.GetSaveJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetSaveJob() error = %v", err)
	}
	if got.Status != SaveStatusFailed {
		t.Errorf("Status = %s, want failed", got.Status)
	}
	if got.ErrorCode != "BACKEND_ERROR" || got.Error != "ffmpeg exited with code 1" {
		t.Errorf("error fields = %q/%q", got.ErrorCode, got.Error)
	}
	if !got.Compressed {
		t.Error("Compressed = false, want true")
	}
	if got.Operation != job.Operation {
		t.Errorf("Operation = %s, want %s", got.Operation, job.Operation)
	}

	byFile, err := repo.ListSaveJobsByFile(ctx, f.ID, 10)
	if err != nil {
		t.Fatalf("ListSaveJobsByFile() error = %v", err)
	}
	if len(byFile) != 1 {
		t.Errorf("ListSaveJobsByFile() returned %d jobs, want 1", len(byFile))
	}
}

func TestRepository_ListSaveJobsNewestFirst(t *testing.T) {
	database, repo := setupTestDB(t)
	defer database.Close()
	ctx := context.Background()

	f := insertFile(t, repo, "/videos/clip.mov")
	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"a", "b", "c"} {
		created := base.Add(time.Duration(i) * time.Minute)
		err := repo.CreateSaveJob(ctx, &SaveJob{
			ID: id, FileID: f.ID, OutputPath: "/videos/" + id + ".mov", OutputContainer: "mov",
			Status: SaveStatusCompleted, CreatedAt: created, UpdatedAt: created,
		})
		if err != nil {
			t.Fatalf("CreateSaveJob(%s) error = %v", id, err)
		}
	}

	jobs, err := repo.ListSaveJobs(ctx, 2)
	if err != nil {
		t.Fatalf("ListSaveJobs() error = %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("ListSaveJobs() returned %d jobs, want 2", len(jobs))
	}
	if jobs[0].ID != "c" || jobs[1].ID != "b" {
		t.Errorf("order = [%s %s], want [c b]", jobs[0].ID, jobs[1].ID)
	}
}

func TestRepository_GetMissing(t *testing.T) {
	database, repo := setupTestDB(t)
	defer database.Close()
	ctx := context.Background()

	if f, err := repo.GetFile(ctx, "missing"); err != nil || f != nil {
		t.Errorf("GetFile() = %v, %v; want nil, nil", f, err)
	}
	if j, err := repo.GetSaveJob(ctx, "missing"); err != nil || j != nil {
		t.Errorf("GetSaveJob() = %v, %v; want nil, nil", j, err)
	}
}

func TestRepository_Config(t *testing.T) {
	database, repo := setupTestDB(t)
	defer database.Close()
	ctx := context.Background()

	if v, err := repo.GetConfig(ctx, "auth_token"); err != nil || v != "" {
		t.Errorf("GetConfig() = %q, %v; want empty", v, err)
	}
	if err := repo.SetConfig(ctx, "auth_token", "one"); err != nil {
		t.Fatal(err)
	}
	if err := repo.SetConfig(ctx, "auth_token", "two"); err != nil {
		t.Fatal(err)
	}
	if v, _ := repo.GetConfig(ctx, "auth_token"); v != "two" {
		t.Errorf("GetConfig() = %q, want two", v)
	}
}
