package catalog

import (
	"context"
	"database/sql"
	"time"
)

type Repository interface {
	UpsertFile(ctx context.Context, file *File) error
	GetFile(ctx context.Context, id string) (*File, error)
	GetFileByPath(ctx context.Context, path string) (*File, error)
	ListFiles(ctx context.Context) ([]*File, error)
	CountFiles(ctx context.Context) (int, error)
	UpdateFilePresent(ctx context.Context, path string, present bool) error

	CreateSaveJob(ctx context.Context, job *SaveJob) error
	GetSaveJob(ctx context.Context, id string) (*SaveJob, error)
	ListSaveJobs(ctx context.Context, limit int) ([]*SaveJob, error)
	ListSaveJobsByFile(ctx context.Context, fileID string, limit int) ([]*SaveJob, error)
	UpdateSaveJobStatus(ctx context.Context, id, status, errorCode, errorMsg string) error

	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const fileColumns = `id, path, filename, size, mtime, container, mime_type, duration, width, height,
	frame_rate, video_codec, audio_codec, present, created_at`

// UpsertFile inserts f, or refreshes the metadata of the row with the same
// path. f.ID is replaced by the stored ID.
func (r *SQLiteRepository) UpsertFile(ctx context.Context, f *File) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO files (`+fileColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			filename = excluded.filename,
			size = excluded.size,
			mtime = excluded.mtime,
			container = excluded.container,
			mime_type = excluded.mime_type,
			duration = excluded.duration,
			width = excluded.width,
			height = excluded.height,
			frame_rate = excluded.frame_rate,
			video_codec = excluded.video_codec,
			audio_codec = excluded.audio_codec,
			present = excluded.present
	`, f.ID, f.Path, f.Filename, f.Size, f.Mtime.Format(time.RFC3339), f.Container, nullString(f.MimeType),
		f.Duration, f.Width, f.Height, f.FrameRate, nullString(f.VideoCodec), nullString(f.AudioCodec),
		boolToInt(f.Present), f.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return err
	}
	return r.db.QueryRowContext(ctx, "SELECT id FROM files WHERE path = ?", f.Path).Scan(&f.ID)
}

func (r *SQLiteRepository) GetFile(ctx context.Context, id string) (*File, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+fileColumns+` FROM files WHERE id = ?`, id)
	f, err := scanFile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return f, err
}

func (r *SQLiteRepository) GetFileByPath(ctx context.Context, path string) (*File, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+fileColumns+` FROM files WHERE path = ?`, path)
	f, err := scanFile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return f, err
}

func (r *SQLiteRepository) ListFiles(ctx context.Context) ([]*File, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+fileColumns+` FROM files ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []*File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

func (r *SQLiteRepository) CountFiles(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM files").Scan(&count)
	return count, err
}

func (r *SQLiteRepository) UpdateFilePresent(ctx context.Context, path string, present bool) error {
	_, err := r.db.ExecContext(ctx, "UPDATE files SET present = ? WHERE path = ?", boolToInt(present), path)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row rowScanner) (*File, error) {
	var f File
	var mtime, createdAt string
	var mimeType, videoCodec, audioCodec sql.NullString
	var present int

	err := row.Scan(&f.ID, &f.Path, &f.Filename, &f.Size, &mtime, &f.Container, &mimeType, &f.Duration,
		&f.Width, &f.Height, &f.FrameRate, &videoCodec, &audioCodec, &present, &createdAt)
	if err != nil {
		return nil, err
	}

	f.MimeType = mimeType.String
	f.VideoCodec = videoCodec.String
	f.AudioCodec = audioCodec.String
	f.Present = present == 1
	f.Mtime, _ = time.Parse(time.RFC3339, mtime)
	f.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &f, nil
}

const saveJobColumns = `id, file_id, output_path, output_container, compressed, status, error_code, error,
	operation, created_at, updated_at`

func (r *SQLiteRepository) CreateSaveJob(ctx context.Context, j *SaveJob) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO save_jobs (`+saveJobColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, j.ID, j.FileID, j.OutputPath, j.OutputContainer, boolToInt(j.Compressed), j.Status,
		nullString(j.ErrorCode), nullString(j.Error), nullString(j.Operation),
		j.CreatedAt.Format(time.RFC3339), j.UpdatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetSaveJob(ctx context.Context, id string) (*SaveJob, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+saveJobColumns+` FROM save_jobs WHERE id = ?`, id)
	j, err := scanSaveJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return j, err
}

func (r *SQLiteRepository) ListSaveJobs(ctx context.Context, limit int) ([]*SaveJob, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+saveJobColumns+` FROM save_jobs ORDER BY created_at DESC, rowid DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSaveJobs(rows)
}

func (r *SQLiteRepository) ListSaveJobsByFile(ctx context.Context, fileID string, limit int) ([]*SaveJob, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+saveJobColumns+` FROM save_jobs WHERE file_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?
	`, fileID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSaveJobs(rows)
}

func scanSaveJobs(rows *sql.Rows) ([]*SaveJob, error) {
	var jobs []*SaveJob
	for rows.Next() {
		j, err := scanSaveJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func scanSaveJob(row rowScanner) (*SaveJob, error) {
	var j SaveJob
	var compressed int
	var errCode, errMsg, operation sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&j.ID, &j.FileID, &j.OutputPath, &j.OutputContainer, &compressed, &j.Status,
		&errCode, &errMsg, &operation, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	j.Compressed = compressed == 1
	j.ErrorCode = errCode.String
	j.Error = errMsg.String
	j.Operation = operation.String
	j.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	j.UpdatedAt = parseSQLiteTime(updatedAt)
	return &j, nil
}

func (r *SQLiteRepository) UpdateSaveJobStatus(ctx context.Context, id, status, errorCode, errorMsg string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE save_jobs SET status = ?, error_code = ?, error = ?, updated_at = ? WHERE id = ?
	`, status, nullString(errorCode), nullString(errorMsg), time.Now().UTC().Format(time.RFC3339), id)
	return err
}

func (r *SQLiteRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (r *SQLiteRepository) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// parseSQLiteTime accepts RFC3339 and the datetime('now') layout written by
// the restart cleanup.
func parseSQLiteTime(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	t, _ := time.Parse("2006-01-02 15:04:05", s)
	return t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
