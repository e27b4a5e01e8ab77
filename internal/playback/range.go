package playback

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrInvalidRange  = errors.New("invalid range format")
	ErrUnsatisfiable = errors.New("range not satisfiable")
)

// ByteRange is an inclusive byte span of a file.
type ByteRange struct {
	Start int64
	End   int64
}

func (r ByteRange) Length() int64 {
	return r.End - r.Start + 1
}

func (r ByteRange) Header(size int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, size)
}

// ParseRange reads a Range header against a file of size bytes. A missing
// header returns ok=false. Only the first span of a multi-range request is
// honoured since players never ask for more than one.
func ParseRange(header string, size int64) (r ByteRange, ok bool, err error) {
	if header == "" {
		return ByteRange{}, false, nil
	}
	rangeSet, found := strings.CutPrefix(header, "bytes=")
	if !found {
		return ByteRange{}, false, ErrInvalidRange
	}
	rangeSet, _, _ = strings.Cut(rangeSet, ",")
	first, last, found := strings.Cut(strings.TrimSpace(rangeSet), "-")
	if !found {
		return ByteRange{}, false, ErrInvalidRange
	}

	if first == "" {
		n, err := strconv.ParseInt(last, 10, 64)
		if err != nil || n <= 0 {
			return ByteRange{}, false, ErrInvalidRange
		}
		return ByteRange{Start: max(0, size-n), End: size - 1}, true, nil
	}

	r.Start, err = strconv.ParseInt(first, 10, 64)
	if err != nil || r.Start < 0 {
		return ByteRange{}, false, ErrInvalidRange
	}
	r.End = size - 1
	if last != "" {
		if r.End, err = strconv.ParseInt(last, 10, 64); err != nil {
			return ByteRange{}, false, ErrInvalidRange
		}
	}
	if r.Start > r.End || r.Start >= size {
		return ByteRange{}, false, ErrUnsatisfiable
	}
	r.End = min(r.End, size-1)
	return r, true, nil
}
