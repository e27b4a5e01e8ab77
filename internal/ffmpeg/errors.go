package ffmpeg

import (
	"fmt"
	"regexp"
	"strings"
)

// Reason is a coarse classification of an ffmpeg failure.
type Reason string

const (
	ReasonMissingEncoder Reason = "missing_encoder"
	ReasonInvalidInput   Reason = "invalid_input"
	ReasonFileNotFound   Reason = "file_not_found"
	ReasonPermission     Reason = "permission_denied"
	ReasonDiskFull       Reason = "disk_full"
	ReasonMuxer          Reason = "muxer_rejected_stream"
	ReasonFilter         Reason = "filter_error"
	ReasonTimeout        Reason = "timeout"
	ReasonUnknown        Reason = "unknown"
)

// Checked in order; the first match wins.
var stderrPatterns = []struct {
	reason Reason
	re     *regexp.Regexp
}{
	{ReasonMissingEncoder, regexp.MustCompile(`(?i)Unknown encoder|Encoder not found|encoder .* not found`)},
	{ReasonFileNotFound, regexp.MustCompile(`(?i)No such file or directory`)},
	{ReasonPermission, regexp.MustCompile(`(?i)Permission denied|Operation not permitted`)},
	{ReasonDiskFull, regexp.MustCompile(`(?i)No space left on device`)},
	{ReasonInvalidInput, regexp.MustCompile(
		`(?i)Invalid data found when processing input|moov atom not found|` +
			`could not find codec parameters|End of file`)},
	{ReasonMuxer, regexp.MustCompile(
		`(?i)Could not find tag for codec|codec not currently supported in container|` +
			`Could not write header|Error initializing output stream`)},
	{ReasonFilter, regexp.MustCompile(
		`(?i)Invalid too big or non positive size|Error initializing filter|` +
			`Failed to configure|Error reinitializing filters`)},
}

// Classify maps ffmpeg stderr to a Reason.
func Classify(stderr string) Reason {
	for _, p := range stderrPatterns {
		if p.re.MatchString(stderr) {
			return p.reason
		}
	}
	return ReasonUnknown
}

// FailureError is a failed ffmpeg run.
type FailureError struct {
	ExitCode   int
	Reason     Reason
	StderrTail string
	Err        error
}

func (e *FailureError) Error() string {
	msg := fmt.Sprintf("ffmpeg failed (%s, exit code %d)", e.Reason, e.ExitCode)
	if line := lastLine(e.StderrTail); line != "" {
		msg += ": " + line
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FailureError) Unwrap() error {
	return e.Err
}

// MissingEncoderError is returned before running ffmpeg when the installed
// build lacks an encoder the operation needs.
type MissingEncoderError struct {
	Encoder string
}

func (e *MissingEncoderError) Error() string {
	return fmt.Sprintf("the installed ffmpeg has no %s encoder", e.Encoder)
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
