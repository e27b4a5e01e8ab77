package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/framecut/framecut-agent/internal/edit"
	"github.com/framecut/framecut-agent/internal/ffmpeg"
	"github.com/framecut/framecut-agent/internal/media"
	"github.com/framecut/framecut-agent/internal/save"
)

var (
	saveOutput     string
	saveStart      string
	saveEnd        string
	saveCrop       string
	saveCompress   bool
	saveVideoCodec string
	saveAudioCodec string
	saveQuality    string
	saveDryRun     bool
	saveEDL        bool
)

func newSaveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "save <video-file>",
		Short: "Save an edited copy of a video",
		Long: `Applies trim, crop and compression to a copy of the input.

Without --compress the output keeps the source container and the streams
are copied where possible. With --compress the output extension must be
one of the containers that hold the selected codecs.

Examples:
  framecut save clip.mov --start 00:00:05 --end 00:00:12
  framecut save clip.mov --crop 1280:720:320:180 -o /tmp/clip-crop.mov
  framecut save clip.mov --compress --video-codec h265 --quality 70 -o clip.mp4
  framecut save clip.mov --compress --video-codec vp9 --audio-codec opus --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: runSave,
	}
	f := cmd.Flags()
	f.StringVarP(&saveOutput, "output", "o", "", "output file (default: next to the input, best ranked container)")
	f.StringVar(&saveStart, "start", "", "trim start, seconds or HH:MM:SS(.ms)")
	f.StringVar(&saveEnd, "end", "", "trim end, seconds or HH:MM:SS(.ms) (default: end of file)")
	f.StringVar(&saveCrop, "crop", "", "crop rectangle as width:height:x:y")
	f.BoolVar(&saveCompress, "compress", false, "re-encode with the selected codecs")
	f.StringVar(&saveVideoCodec, "video-codec", "auto", "video codec for --compress")
	f.StringVar(&saveAudioCodec, "audio-codec", "auto", "audio codec for --compress")
	f.StringVar(&saveQuality, "quality", "80", "quality percentage for --compress")
	f.BoolVar(&saveDryRun, "dry-run", false, "print the ffmpeg command instead of running it")
	f.BoolVar(&saveEDL, "edl", false, "write a CMX3600 .edl next to the output")
	return cmd
}

func runSave(cmd *cobra.Command, args []string) error {
	input, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	info, err := os.Stat(input)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", args[0])
		}
		return err
	}

	logger := cliLogger(cmd)
	runner, err := newRunner(logger)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	probe, err := ffmpeg.NewProber(runner, 0).Probe(ctx, input)
	if err != nil {
		return err
	}

	current := media.ContainerFromName(input)
	pending, err := pendingFromFlags(probe.Duration)
	if err != nil {
		return err
	}
	pending.SourceContainer = current
	changes, err := edit.Assemble(pending)
	if err != nil {
		return err
	}

	builder := save.NewBuilder(nil)
	output := saveOutput
	if output == "" {
		compatible, err := builder.CompatibleFor(changes, current)
		if err != nil {
			return err
		}
		name, err := save.DefaultOutputPath(filepath.Base(input), compatible, current)
		if err != nil {
			return err
		}
		output = save.OutputPathFor(input, name)
	} else if output, err = filepath.Abs(output); err != nil {
		return err
	}

	file := &save.CurrentFile{Path: input, Name: filepath.Base(input), Size: info.Size()}
	video := save.VideoMeta{Duration: probe.Duration, Width: probe.Width, Height: probe.Height}
	op, err := builder.PrepareSave(file, video, changes, output)
	if err != nil {
		return err
	}
	if err := save.ValidateOutputPath(op.Output.Path, input); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if saveDryRun {
		printf(out, "ffmpeg %s\n", strings.Join(ffmpeg.BuildArgs(op), " "))
		return nil
	}

	doctor := ffmpeg.NewCachedDoctor(runner, ffmpegPath, logger)
	backend := ffmpeg.NewBackend(runner, doctor, logger)
	path, err := save.NewDispatcher(backend, logger).Dispatch(ctx, op)
	if err != nil {
		return err
	}
	printf(out, "saved %s\n", path)

	if saveEDL {
		edlPath := media.StripExtension(path) + ".edl"
		body := save.EDL(op, media.FrameRateOrDefault(probe.FrameRate))
		if err := os.WriteFile(edlPath, []byte(body), 0o644); err != nil {
			return fmt.Errorf("write edl: %w", err)
		}
		printf(out, "wrote %s\n", edlPath)
	}
	return nil
}

func pendingFromFlags(duration float64) (edit.Pending, error) {
	var p edit.Pending

	if saveStart != "" || saveEnd != "" {
		trim := &edit.TrimChange{EndTime: duration}
		if saveStart != "" {
			v, err := parseTimestamp(saveStart)
			if err != nil {
				return p, fmt.Errorf("--start: %w", err)
			}
			trim.StartTime = v
		}
		if saveEnd != "" {
			v, err := parseTimestamp(saveEnd)
			if err != nil {
				return p, fmt.Errorf("--end: %w", err)
			}
			trim.EndTime = v
		}
		p.Trim = trim
	}

	if saveCrop != "" {
		crop, err := parseCrop(saveCrop)
		if err != nil {
			return p, fmt.Errorf("--crop: %w", err)
		}
		p.Crop = crop
	}

	p.Compression = edit.CompressionPanel{
		Active:     saveCompress,
		VideoCodec: saveVideoCodec,
		AudioCodec: saveAudioCodec,
		Quality:    saveQuality,
	}
	if saveCompress {
		if _, ok := media.ParseVideoCodec(saveVideoCodec); !ok {
			return p, fmt.Errorf("unknown video codec %q", saveVideoCodec)
		}
		if _, ok := media.ParseAudioCodec(saveAudioCodec); !ok {
			return p, fmt.Errorf("unknown audio codec %q", saveAudioCodec)
		}
	}
	return p, nil
}

// parseTimestamp accepts plain seconds ("12.5") or [HH:]MM:SS(.fff).
func parseTimestamp(s string) (float64, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("invalid timestamp %q", s)
	}
	var total float64
	for i, part := range parts {
		v, err := strconv.ParseFloat(part, 64)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("invalid timestamp %q", s)
		}
		if i < len(parts)-1 && v != float64(int(v)) {
			return 0, fmt.Errorf("invalid timestamp %q", s)
		}
		total = total*60 + v
	}
	return total, nil
}

func parseCrop(s string) (*edit.CropChange, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 4 {
		return nil, fmt.Errorf("want width:height:x:y, got %q", s)
	}
	var vals [4]int
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("want width:height:x:y, got %q", s)
		}
		vals[i] = v
	}
	return &edit.CropChange{Width: vals[0], Height: vals[1], X: vals[2], Y: vals[3]}, nil
}
