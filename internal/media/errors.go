package media

import (
	"fmt"
	"strings"
)

// NoCompatibleContainerError is returned when no container supports both
// selected codecs. The user has to change the codec selection.
type NoCompatibleContainerError struct {
	Video VideoCodec
	Audio AudioCodec
}

func (e *NoCompatibleContainerError) Error() string {
	return fmt.Sprintf("no compatible container for video codec %q and audio codec %q", e.Video, e.Audio)
}

// IncompatibleContainerError is returned when the chosen output container is
// not among the compatible ones. Compatible lists the valid alternatives.
type IncompatibleContainerError struct {
	Chosen     Container
	Compatible []Container
}

func (e *IncompatibleContainerError) Error() string {
	return fmt.Sprintf("the selected container format %q is not compatible with the chosen codecs; compatible formats are: %s",
		e.Chosen, strings.Join(Strings(e.Compatible), ", "))
}
