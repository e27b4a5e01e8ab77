package save

import (
	"errors"
	"fmt"

	"github.com/framecut/framecut-agent/internal/edit"
	"github.com/framecut/framecut-agent/internal/media"
)

// ErrSaveInProgress is returned when a save for the same source is already
// being dispatched.
var ErrSaveInProgress = errors.New("a save for this file is already in progress")

// NoFileLoadedError is returned when a save is attempted without an active
// source.
type NoFileLoadedError struct {
	FileID string
}

func (e *NoFileLoadedError) Error() string {
	if e.FileID != "" {
		return fmt.Sprintf("no video loaded (file %s is not available)", e.FileID)
	}
	return "no video loaded"
}

// UnsupportedOperationError is returned for a save without compression whose
// output container differs from the source container.
type UnsupportedOperationError struct {
	Source media.Container
	Output media.Container
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("cannot change container from %q to %q without compression", e.Source, e.Output)
}

// BackendError wraps a failure reported by the processing backend.
type BackendError struct {
	Err error
	// Retryable is set when the backend reports the failure as transient.
	Retryable bool
}

func (e *BackendError) Error() string {
	if e.Retryable {
		return fmt.Sprintf("save failed: %v (the processing service may be temporarily unavailable, try saving again)", e.Err)
	}
	return fmt.Sprintf("save failed: %v (look at the agent logs for more information)", e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// Stable error codes reported by the API and stored on failed saves.
const (
	CodeNoFileLoaded          = "NO_FILE_LOADED"
	CodeNoCompatibleContainer = "NO_COMPATIBLE_CONTAINER"
	CodeIncompatibleContainer = "INCOMPATIBLE_CONTAINER"
	CodeUnsupportedOperation  = "UNSUPPORTED_OPERATION"
	CodeInvalidQuality        = "INVALID_QUALITY"
	CodeInvalidEdit           = "INVALID_EDIT"
	CodeInvalidOutput         = "INVALID_OUTPUT"
	CodeSaveInProgress        = "SAVE_IN_PROGRESS"
	CodeBackendError          = "BACKEND_ERROR"
)

// Code classifies err. Anything unrecognised is a backend error.
func Code(err error) string {
	var (
		noFile       *NoFileLoadedError
		unsupported  *UnsupportedOperationError
		incompatible *media.IncompatibleContainerError
		noCompat     *media.NoCompatibleContainerError
		quality      *edit.InvalidQualityError
		invalidEdit  *edit.InvalidEditError
		output       *InvalidOutputPathError
	)
	switch {
	case errors.As(err, &noFile):
		return CodeNoFileLoaded
	case errors.As(err, &noCompat):
		return CodeNoCompatibleContainer
	case errors.As(err, &incompatible):
		return CodeIncompatibleContainer
	case errors.As(err, &unsupported):
		return CodeUnsupportedOperation
	case errors.As(err, &quality):
		return CodeInvalidQuality
	case errors.As(err, &invalidEdit):
		return CodeInvalidEdit
	case errors.As(err, &output):
		return CodeInvalidOutput
	case errors.Is(err, ErrSaveInProgress):
		return CodeSaveInProgress
	default:
		return CodeBackendError
	}
}
