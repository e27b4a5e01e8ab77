package media

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Resolver answers compatibility questions against a Matrix.
type Resolver struct {
	matrix Matrix
}

// NewResolver returns a resolver over m, or over DefaultMatrix when m is nil.
func NewResolver(m Matrix) *Resolver {
	if m == nil {
		m = DefaultMatrix
	}
	return &Resolver{matrix: m}
}

// Compatible returns the containers supporting both codecs, in the order of
// the video row. The result is non-nil and may be empty.
func (r *Resolver) Compatible(video VideoCodec, audio AudioCodec) []Container {
	audioRow := r.matrix.Audio(audio)
	out := make([]Container, 0, len(audioRow))
	for _, c := range r.matrix.Video(video) {
		if slices.Contains(audioRow, c) && !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out
}

// Require is Compatible that reports an empty intersection as
// NoCompatibleContainerError.
func (r *Resolver) Require(video VideoCodec, audio AudioCodec) ([]Container, error) {
	compatible := r.Compatible(video, audio)
	if len(compatible) == 0 {
		return nil, &NoCompatibleContainerError{Video: video, Audio: audio}
	}
	return compatible, nil
}

// Rank orders compatible containers for presentation: current first when it
// is a member, then Preference order, then unrecognised containers in their
// original order. The input slice is not modified.
func Rank(compatible []Container, current Container) []Container {
	out := slices.Clone(compatible)
	if out == nil {
		out = []Container{}
	}
	key := func(c Container) int {
		if current != "" && c == current {
			return -1
		}
		if i := preferenceIndex(c); i >= 0 {
			return i
		}
		return len(Preference)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return key(out[i]) < key(out[j])
	})
	return out
}

// Validate checks chosen against the compatible set.
func Validate(chosen Container, compatible []Container) error {
	if slices.Contains(compatible, chosen) {
		return nil
	}
	return &IncompatibleContainerError{Chosen: chosen, Compatible: slices.Clone(compatible)}
}

// Warning renders the compatibility hint shown next to the codec selects.
// current may be empty when no file is loaded.
func Warning(compatible []Container, current Container) (text string, alert bool) {
	if len(compatible) == 0 {
		return "No compatible formats found for selected codecs", true
	}
	list := strings.Join(Strings(Rank(compatible, current)), ", ")
	if current != "" && !slices.Contains(compatible, current) {
		return fmt.Sprintf("Current format (%s) is not compatible with selected codecs. Compatible formats: %s", current, list), true
	}
	return "Compatible formats: " + list, false
}
