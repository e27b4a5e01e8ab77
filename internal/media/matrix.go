package media

// Matrix maps each codec to the ordered containers able to carry it.
// Implementations must return a non-empty row for every concrete codec and
// the full container universe for auto.
type Matrix interface {
	Video(codec VideoCodec) []Container
	Audio(codec AudioCodec) []Container
}

// StaticMatrix is the process-wide compatibility table.
type StaticMatrix struct{}

// DefaultMatrix is shared by every resolver built without an explicit matrix.
var DefaultMatrix Matrix = StaticMatrix{}

func (StaticMatrix) Video(codec VideoCodec) []Container {
	switch codec {
	case VideoH264:
		return []Container{ContainerMP4, ContainerMKV, ContainerMOV, ContainerAVI}
	case VideoH265:
		return []Container{ContainerMP4, ContainerMKV, ContainerMOV}
	case VideoAV1:
		return []Container{ContainerMP4, ContainerMKV, ContainerWebM}
	case VideoVP8:
		return []Container{ContainerWebM, ContainerMKV}
	case VideoVP9:
		return []Container{ContainerWebM, ContainerMKV, ContainerMP4}
	case VideoAuto:
		return universe()
	default:
		// Unknown codecs get the auto row; the UI only offers known ones.
		return universe()
	}
}

func (StaticMatrix) Audio(codec AudioCodec) []Container {
	switch codec {
	case AudioAAC, AudioMP3:
		return []Container{ContainerMP4, ContainerMKV, ContainerMOV, ContainerAVI}
	case AudioOpus, AudioVorbis:
		return []Container{ContainerWebM, ContainerMKV}
	case AudioAC3:
		return []Container{ContainerMP4, ContainerMKV, ContainerMOV}
	case AudioFLAC:
		return []Container{ContainerMKV}
	case AudioAuto:
		return universe()
	default:
		return universe()
	}
}

// ContainersFor looks up a raw codec identifier for the given track. Unknown
// identifiers resolve to the auto row, so the result is never empty for the
// static matrix.
func ContainersFor(m Matrix, codec string, track TrackType) []Container {
	if track == TrackAudio {
		c, _ := ParseAudioCodec(codec)
		return m.Audio(c)
	}
	c, _ := ParseVideoCodec(codec)
	return m.Video(c)
}

func universe() []Container {
	out := make([]Container, len(Preference))
	copy(out, Preference)
	return out
}
