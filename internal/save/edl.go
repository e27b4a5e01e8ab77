package save

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/framecut/framecut-agent/internal/media"
)

// EDL renders op as a single-event CMX 3600 edit decision list so the cut
// can be rebuilt in another editor. Without a trim the whole source is used.
// At 29.97 and 59.94 fps the timecodes are SMPTE drop-frame.
func EDL(op Operation, frameRate float64) string {
	if frameRate <= 0 {
		frameRate = media.DefaultFrameRate
	}
	tc := nonDropTimecode
	mode := "FCM: NON-DROP FRAME"
	if isDropFrame(frameRate) {
		tc = dropFrameTimecode
		mode = "FCM: DROP FRAME"
	}
	stamp := func(seconds float64) string {
		return tc(int(math.Round(seconds*frameRate)), frameRate)
	}

	start, end := 0.0, op.Source.Duration
	if t := op.Changes.Trim; t != nil {
		start, end = t.StartTime, t.EndTime
	}

	title := media.StripExtension(filepath.Base(op.Output.Path))
	lines := []string{"TITLE: " + title, mode, "",
		fmt.Sprintf("%03d  %-8s %-5s C        %s %s %s %s", 1, "AX", "B",
			stamp(start), stamp(end), stamp(0), stamp(end-start)),
		"* FROM CLIP NAME:  " + op.Source.Name,
		"* SOURCE FILE:  " + op.Source.Path,
	}
	if c := op.Changes.Crop; c != nil {
		lines = append(lines, fmt.Sprintf("* CROP:  %dx%d+%d+%d", c.Width, c.Height, c.X, c.Y))
	}
	if c := op.Changes.Compression; c != nil {
		lines = append(lines, fmt.Sprintf("* ENCODE:  %s/%s Q%d %s", c.VideoCodec, c.AudioCodec, c.Quality, c.Container))
	}
	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func isDropFrame(frameRate float64) bool {
	return math.Abs(frameRate-29.97) < 0.01 || math.Abs(frameRate-59.94) < 0.01
}

func nonDropTimecode(frames int, frameRate float64) string {
	fps := int(math.Round(frameRate))
	return formatTimecode(frames, fps, ':')
}

// dropFrameTimecode skips frame numbers 0 and 1 (0-3 at 59.94) at the start
// of every minute except each tenth minute.
func dropFrameTimecode(frames int, frameRate float64) string {
	fps := int(math.Round(frameRate))
	drop := fps / 15
	perMinute := fps*60 - drop
	perTenMinutes := perMinute*10 + drop

	tens, rem := frames/perTenMinutes, frames%perTenMinutes
	frames += 9 * drop * tens
	if rem > drop {
		frames += drop * ((rem - drop) / perMinute)
	}
	return formatTimecode(frames, fps, ';')
}

func formatTimecode(frames, fps int, sep byte) string {
	secs := frames / fps
	return fmt.Sprintf("%02d:%02d:%02d%c%02d", secs/3600, secs/60%60, secs%60, sep, frames%fps)
}
