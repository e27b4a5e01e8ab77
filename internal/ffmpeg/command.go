package ffmpeg

import (
	"fmt"
	"strconv"

	"github.com/framecut/framecut-agent/internal/edit"
	"github.com/framecut/framecut-agent/internal/media"
	"github.com/framecut/framecut-agent/internal/save"
)

var videoEncoders = map[media.VideoCodec]string{
	media.VideoH264: "libx264",
	media.VideoH265: "libx265",
	media.VideoAV1:  "libaom-av1",
	media.VideoVP8:  "libvpx",
	media.VideoVP9:  "libvpx-vp9",
}

var audioEncoders = map[media.AudioCodec]string{
	media.AudioAAC:    "aac",
	media.AudioMP3:    "libmp3lame",
	media.AudioOpus:   "libopus",
	media.AudioVorbis: "libvorbis",
	media.AudioAC3:    "ac3",
	media.AudioFLAC:   "flac",
}

// VideoEncoder returns the ffmpeg encoder for codec. Auto and unknown codecs
// have none and leave the choice to ffmpeg.
func VideoEncoder(codec media.VideoCodec) (string, bool) {
	enc, ok := videoEncoders[codec]
	return enc, ok
}

// AudioEncoder returns the ffmpeg encoder for codec.
func AudioEncoder(codec media.AudioCodec) (string, bool) {
	enc, ok := audioEncoders[codec]
	return enc, ok
}

// RequiredEncoders lists the encoders a compression needs.
func RequiredEncoders(c *edit.CompressionChange) []string {
	if c == nil {
		return nil
	}
	var out []string
	if enc, ok := VideoEncoder(c.VideoCodec); ok {
		out = append(out, enc)
	}
	if enc, ok := AudioEncoder(c.AudioCodec); ok {
		out = append(out, enc)
	}
	return out
}

// CRF maps a quality percentage onto the x264/x265 scale, 100 -> 0 and 0 -> 51.
func CRF(quality int) int {
	return int(float64(100-quality) * 0.51)
}

// BitrateMbps maps a quality percentage to a target video bitrate, 100 -> 20.
func BitrateMbps(quality int) int {
	return max(1, int(float64(quality)*0.2))
}

// BuildArgs returns the ffmpeg arguments for op. Trim seeks on the output so
// the cut is frame accurate. A save without compression or crop copies the
// streams.
func BuildArgs(op save.Operation) []string {
	args := []string{"-hide_banner", "-nostdin", "-i", op.Source.Path}

	if t := op.Changes.Trim; t != nil {
		args = append(args, "-ss", formatSeconds(t.StartTime), "-to", formatSeconds(t.EndTime))
	}

	c := op.Changes.Compression
	switch {
	case c != nil:
		// Auto codecs have no encoder entry: ffmpeg picks the container's
		// default encoders and quality is applied as a -b:v bitrate.
		venc, hasVideo := VideoEncoder(c.VideoCodec)
		if hasVideo {
			args = append(args, "-c:v", venc)
		}
		if aenc, ok := AudioEncoder(c.AudioCodec); ok {
			args = append(args, "-c:a", aenc)
		}
		if venc == "libx264" || venc == "libx265" {
			args = append(args, "-crf", strconv.Itoa(CRF(c.Quality)))
		} else {
			args = append(args, "-b:v", fmt.Sprintf("%dM", BitrateMbps(c.Quality)))
		}
	case op.Changes.Crop == nil:
		args = append(args, "-c", "copy")
	default:
		args = append(args, "-c:a", "copy")
	}

	if cr := op.Changes.Crop; cr != nil {
		args = append(args, "-vf", fmt.Sprintf("crop=%d:%d:%d:%d", cr.Width, cr.Height, cr.X, cr.Y))
	}

	return append(args, "-y", op.Output.Path)
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', -1, 64)
}
