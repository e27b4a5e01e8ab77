// Command framecut inspects codec/container compatibility and saves edited
// copies of a video from the terminal, without the agent running.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/framecut/framecut-agent/internal/config"
	"github.com/framecut/framecut-agent/internal/ffmpeg"
	"github.com/framecut/framecut-agent/internal/logging"
)

var (
	ffmpegPath  string
	ffprobePath string
	logLevel    string
)

// newRunner is swapped out by tests.
var newRunner = func(logger *slog.Logger) (ffmpeg.Runner, error) {
	r, err := ffmpeg.NewRunner(ffmpeg.Config{
		FFmpegPath:  ffmpegPath,
		FFprobePath: ffprobePath,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "framecut",
		Short:   "Codec and container tooling for the Framecut editor",
		Version: config.Version,
		Long: `framecut answers the questions the editor's save dialog asks:
which containers can hold a codec pair, and what a save will run.

Examples:
  framecut codecs
  framecut compat --video h264 --audio aac --current mov
  framecut probe clip.mov
  framecut save clip.mov --compress --video-codec vp9 --audio-codec opus --quality 60 -o clip.webm
  framecut save clip.mov --start 5 --end 00:00:12.5 --dry-run`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&ffmpegPath, "ffmpeg", os.Getenv("FRAMECUT_FFMPEG_PATH"), "path to the ffmpeg binary")
	root.PersistentFlags().StringVar(&ffprobePath, "ffprobe", os.Getenv("FRAMECUT_FFPROBE_PATH"), "path to the ffprobe binary")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(newCodecsCmd(), newCompatCmd(), newProbeCmd(), newSaveCmd())
	return root
}

// cliLogger writes JSON logs to stderr so stdout stays parseable.
func cliLogger(cmd *cobra.Command) *slog.Logger {
	return logging.New(cmd.ErrOrStderr(), logging.ParseLevel(logLevel))
}

func printf(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format, args...)
}
