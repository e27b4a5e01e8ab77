package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/framecut/framecut-agent/internal/catalog"
	"github.com/framecut/framecut-agent/internal/config"
	"github.com/framecut/framecut-agent/internal/media"
	"github.com/framecut/framecut-agent/internal/save"
	"github.com/framecut/framecut-agent/internal/settings"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	if cfg.Resolver == nil {
		cfg.Resolver = media.NewResolver(nil)
	}
	if cfg.Version == "" {
		cfg.Version = config.Version
	}

	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(CORSAllowlist())

	r.Get("/health", healthHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(LoopbackGuard())
		r.Get("/playback/file", playbackHandler(cfg))
		r.Head("/playback/file", playbackHandler(cfg))
	})

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Tokens, cfg.Logger))

		r.Get("/status", statusHandler(cfg))
		r.Get("/codecs", codecsHandler())
		r.Get("/compat", compatHandler(cfg))

		r.Post("/files", openFileHandler(cfg))
		r.Get("/files", listFilesHandler(cfg))
		r.Get("/files/{id}", getFileHandler(cfg))
		r.Post("/files/{id}/save-plan", savePlanHandler(cfg))

		r.Post("/saves", createSaveHandler(cfg))
		r.Get("/saves", listSavesHandler(cfg))
		r.Get("/saves/{id}", getSaveHandler(cfg))
		r.Get("/saves/{id}/edl", saveEDLHandler(cfg))

		r.Get("/settings", getSettingsHandler(cfg))
		r.Put("/settings", updateSettingsHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:   "ok",
			Version:  cfg.Version,
			UptimeS:  uptime,
			DeviceID: cfg.DeviceID,
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		filesCount, _ := cfg.CatalogService.CountFiles(ctx)

		resp := StatusResponse{
			State:      "idle",
			Backend:    cfg.Backend,
			FilesCount: filesCount,
		}

		if cfg.SaveService != nil {
			resp.SavesRunning = cfg.SaveService.Active()
			if last := cfg.SaveService.LastSave(); last != nil {
				s := SaveToResponse(last)
				resp.LastSave = &s
				if last.Status == catalog.SaveStatusFailed {
					resp.State = "error"
					resp.LastError = last.Error
				}
			}
			if resp.SavesRunning > 0 {
				resp.State = "saving"
			}
		}

		if cfg.Doctor != nil {
			caps, err := cfg.Doctor.Get(ctx)
			if err == nil && caps != nil {
				resp.Encoders = &EncodersResponse{
					FFmpegPath: caps.FFmpegPath,
					Video:      caps.Video,
					Audio:      caps.Audio,
				}
				if !caps.ProbedAt.IsZero() {
					resp.Encoders.LastProbeAt = caps.ProbedAt.Format(time.RFC3339)
				}
			}
		}

		WriteJSON(w, http.StatusOK, resp)
	}
}

func codecsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, CodecsResponse{
			Video:      media.VideoOptions,
			Audio:      media.AudioOptions,
			Containers: media.Preference,
		})
	}
}

func compatHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		video, ok := media.ParseVideoCodec(q.Get("video_codec"))
		if !ok {
			WriteError(w, http.StatusBadRequest, "unknown video codec", "BAD_REQUEST")
			return
		}
		audio, ok := media.ParseAudioCodec(q.Get("audio_codec"))
		if !ok {
			WriteError(w, http.StatusBadRequest, "unknown audio codec", "BAD_REQUEST")
			return
		}
		current := media.Container(q.Get("current"))

		compatible := cfg.Resolver.Compatible(video, audio)
		warning, alert := media.Warning(compatible, current)
		WriteJSON(w, http.StatusOK, CompatResponse{
			VideoCodec: video,
			AudioCodec: audio,
			Compatible: compatible,
			Ranked:     media.Rank(compatible, current),
			Warning:    warning,
			Alert:      alert,
		})
	}
}

func openFileHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req OpenFileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.Path == "" {
			WriteError(w, http.StatusBadRequest, "path is required", "BAD_REQUEST")
			return
		}

		file, err := cfg.CatalogService.OpenFile(r.Context(), req.Path)
		if err != nil {
			var unsupported *catalog.UnsupportedFileError
			switch {
			case errors.As(err, &unsupported):
				WriteError(w, http.StatusBadRequest, err.Error(), "UNSUPPORTED_FILE")
			case errors.Is(err, os.ErrNotExist):
				WriteError(w, http.StatusNotFound, "file not found", "NOT_FOUND")
			default:
				WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			}
			return
		}

		WriteJSON(w, http.StatusCreated, FileToResponse(file))
	}
}

func listFilesHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		files, err := cfg.CatalogService.ListFiles(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list files", "INTERNAL_ERROR")
			return
		}

		resp := FilesResponse{Files: make([]FileResponse, len(files))}
		for i, f := range files {
			resp.Files[i] = FileToResponse(f)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getFileHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		file, err := cfg.CatalogService.GetFile(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, catalog.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "file not found", "NOT_FOUND")
			return
		}
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		WriteJSON(w, http.StatusOK, FileToResponse(file))
	}
}

func savePlanHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SavePlanRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		plan, err := cfg.SaveService.Plan(r.Context(), chi.URLParam(r, "id"), req)
		if err != nil {
			writeSaveError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, plan)
	}
}

func createSaveHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SaveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		result, err := cfg.SaveService.Save(r.Context(), req)
		if err != nil {
			writeSaveError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, SaveResultResponse{
			SaveID:    result.SaveID,
			Path:      result.Path,
			Operation: result.Operation,
		})
	}
}

func listSavesHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 50
		if l := r.URL.Query().Get("limit"); l != "" {
			n, err := strconv.Atoi(l)
			if err != nil || n < 1 {
				WriteError(w, http.StatusBadRequest, "limit must be a positive integer", "BAD_REQUEST")
				return
			}
			limit = n
		}

		saves, err := cfg.SaveService.ListSaves(r.Context(), limit)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list saves", "INTERNAL_ERROR")
			return
		}

		resp := SavesResponse{Saves: make([]SaveResponse, len(saves))}
		for i, s := range saves {
			resp.Saves[i] = SaveToResponse(s)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getSaveHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, err := cfg.SaveService.GetSave(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if job == nil {
			WriteError(w, http.StatusNotFound, "save not found", "NOT_FOUND")
			return
		}
		WriteJSON(w, http.StatusOK, SaveToResponse(job))
	}
}

// saveEDLHandler returns the recorded operation of a save as an EDL.
func saveEDLHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, err := cfg.SaveService.GetSave(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if job == nil {
			WriteError(w, http.StatusNotFound, "save not found", "NOT_FOUND")
			return
		}

		var op save.Operation
		if err := json.Unmarshal([]byte(job.Operation), &op); err != nil {
			WriteError(w, http.StatusInternalServerError, "save has no recorded operation", "INTERNAL_ERROR")
			return
		}

		frameRate := media.DefaultFrameRate
		if file, err := cfg.CatalogService.GetFile(r.Context(), job.FileID); err == nil {
			frameRate = media.FrameRateOrDefault(file.FrameRate)
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q",
			media.StripExtension(filepath.Base(op.Output.Path))+".edl"))
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, save.EDL(op, frameRate))
	}
}

func getSettingsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, cfg.Settings.Get())
	}
}

func updateSettingsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch settings.Patch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		updated, err := cfg.Settings.Update(patch)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "INVALID_SETTINGS")
			return
		}
		WriteJSON(w, http.StatusOK, updated)
	}
}

func playbackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fileID := r.URL.Query().Get("file_id")
		if fileID == "" {
			WriteError(w, http.StatusBadRequest, "file_id is required", "BAD_REQUEST")
			return
		}

		file, err := cfg.CatalogService.GetFile(r.Context(), fileID)
		if errors.Is(err, catalog.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "file not found", "NOT_FOUND")
			return
		}
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if !file.Present {
			WriteError(w, http.StatusNotFound, "file was moved or deleted", "FILE_MISSING")
			return
		}

		if err := cfg.PlaybackServer.ServeFile(w, r, file); err != nil {
			cfg.Logger.Error("playback error", "error", err, "file_id", fileID)
		}
	}
}

// saveStatus maps a save error code to its HTTP status.
var saveStatus = map[string]int{
	save.CodeNoFileLoaded:          http.StatusConflict,
	save.CodeNoCompatibleContainer: http.StatusUnprocessableEntity,
	save.CodeIncompatibleContainer: http.StatusUnprocessableEntity,
	save.CodeUnsupportedOperation:  http.StatusUnprocessableEntity,
	save.CodeInvalidQuality:        http.StatusBadRequest,
	save.CodeInvalidEdit:           http.StatusBadRequest,
	save.CodeInvalidOutput:         http.StatusBadRequest,
	save.CodeSaveInProgress:        http.StatusConflict,
	save.CodeBackendError:          http.StatusBadGateway,
}

func writeSaveError(w http.ResponseWriter, err error) {
	code := save.Code(err)
	var backendErr *save.BackendError
	if code == save.CodeBackendError && !errors.As(err, &backendErr) {
		WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
		return
	}
	WriteError(w, saveStatus[code], err.Error(), code)
}
