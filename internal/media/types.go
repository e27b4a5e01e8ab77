// Package media holds the codec and container vocabulary of the editor and the
// static compatibility matrix that decides which containers can carry which
// codecs.
package media

import "strings"

// VideoCodec identifies the encoder family requested for the video track.
type VideoCodec string

const (
	VideoAuto VideoCodec = "auto"
	VideoH264 VideoCodec = "h264"
	VideoH265 VideoCodec = "h265"
	VideoAV1  VideoCodec = "av1"
	VideoVP8  VideoCodec = "vp8"
	VideoVP9  VideoCodec = "vp9"
)

// AudioCodec identifies the encoder family requested for the audio track.
type AudioCodec string

const (
	AudioAuto   AudioCodec = "auto"
	AudioAAC    AudioCodec = "aac"
	AudioMP3    AudioCodec = "mp3"
	AudioOpus   AudioCodec = "opus"
	AudioVorbis AudioCodec = "vorbis"
	AudioAC3    AudioCodec = "ac3"
	AudioFLAC   AudioCodec = "flac"
)

// Container is an output file format, named by its file extension.
type Container string

const (
	ContainerMP4  Container = "mp4"
	ContainerWebM Container = "webm"
	ContainerMKV  Container = "mkv"
	ContainerMOV  Container = "mov"
	ContainerAVI  Container = "avi"
)

// TrackType selects the video or audio half of the matrix.
type TrackType int

const (
	TrackVideo TrackType = iota
	TrackAudio
)

func (t TrackType) String() string {
	if t == TrackAudio {
		return "audio"
	}
	return "video"
}

// Preference is the global container ordering used for defaults and for the
// order of options offered to the user.
var Preference = []Container{ContainerMP4, ContainerWebM, ContainerMKV, ContainerMOV, ContainerAVI}

// Option is a selectable codec with its display label.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

var VideoOptions = []Option{
	{Value: string(VideoAuto), Label: "Auto"},
	{Value: string(VideoH264), Label: "H.264/AVC"},
	{Value: string(VideoH265), Label: "H.265/HEVC"},
	{Value: string(VideoAV1), Label: "AV1"},
	{Value: string(VideoVP8), Label: "VP8"},
	{Value: string(VideoVP9), Label: "VP9"},
}

var AudioOptions = []Option{
	{Value: string(AudioAuto), Label: "Auto"},
	{Value: string(AudioAAC), Label: "AAC"},
	{Value: string(AudioMP3), Label: "MP3"},
	{Value: string(AudioOpus), Label: "Opus"},
	{Value: string(AudioVorbis), Label: "Vorbis"},
	{Value: string(AudioAC3), Label: "AC3"},
	{Value: string(AudioFLAC), Label: "FLAC"},
}

// ParseVideoCodec normalises s. An empty string means auto. The boolean is
// false when s names no known codec; the returned value is then auto.
func ParseVideoCodec(s string) (VideoCodec, bool) {
	switch c := VideoCodec(strings.ToLower(strings.TrimSpace(s))); c {
	case "":
		return VideoAuto, true
	case VideoAuto, VideoH264, VideoH265, VideoAV1, VideoVP8, VideoVP9:
		return c, true
	default:
		return VideoAuto, false
	}
}

// ParseAudioCodec normalises s the same way ParseVideoCodec does.
func ParseAudioCodec(s string) (AudioCodec, bool) {
	switch c := AudioCodec(strings.ToLower(strings.TrimSpace(s))); c {
	case "":
		return AudioAuto, true
	case AudioAuto, AudioAAC, AudioMP3, AudioOpus, AudioVorbis, AudioAC3, AudioFLAC:
		return c, true
	default:
		return AudioAuto, false
	}
}

// ContainerFromName returns the lower-cased extension of a file name or path,
// without the dot. A name without an extension yields "".
func ContainerFromName(name string) Container {
	slash := strings.LastIndexAny(name, `/\`)
	dot := strings.LastIndex(name, ".")
	if dot < 0 || dot < slash {
		return ""
	}
	return Container(strings.ToLower(name[dot+1:]))
}

// StripExtension removes the final extension from name, if any.
func StripExtension(name string) string {
	slash := strings.LastIndexAny(name, `/\`)
	dot := strings.LastIndex(name, ".")
	if dot < 0 || dot < slash {
		return name
	}
	return name[:dot]
}

// Known reports whether c is one of the containers in the matrix universe.
func (c Container) Known() bool {
	return preferenceIndex(c) >= 0
}

// MIMEType returns the content type a browser expects for the container.
func (c Container) MIMEType() string {
	switch c {
	case ContainerMP4:
		return "video/mp4"
	case ContainerWebM:
		return "video/webm"
	case ContainerMKV:
		return "video/x-matroska"
	case ContainerMOV:
		return "video/quicktime"
	case ContainerAVI:
		return "video/x-msvideo"
	default:
		return "application/octet-stream"
	}
}

// Strings converts a container list for display or JSON.
func Strings(cs []Container) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = string(c)
	}
	return out
}

func preferenceIndex(c Container) int {
	for i, p := range Preference {
		if p == c {
			return i
		}
	}
	return -1
}
