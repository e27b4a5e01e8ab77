package save

import (
	"path/filepath"
	"strings"

	"github.com/framecut/framecut-agent/internal/edit"
	"github.com/framecut/framecut-agent/internal/media"
)

// Builder assembles Operations. It performs no I/O.
type Builder struct {
	resolver *media.Resolver
}

func NewBuilder(resolver *media.Resolver) *Builder {
	if resolver == nil {
		resolver = media.NewResolver(nil)
	}
	return &Builder{resolver: resolver}
}

// Source derives the SourceInfo snapshot for a loaded file.
func Source(file CurrentFile, video VideoMeta) SourceInfo {
	return SourceInfo{
		Path:      file.Path,
		Name:      file.Name,
		Size:      file.Size,
		Container: media.ContainerFromName(file.Name),
		Duration:  video.Duration,
		Width:     video.Width,
		Height:    video.Height,
	}
}

// CompatibleFor returns the containers a save with changes may target. Without
// compression only the source container is allowed.
func (b *Builder) CompatibleFor(changes edit.ChangeSet, source media.Container) ([]media.Container, error) {
	if c := changes.Compression; c != nil {
		return b.resolver.Require(c.VideoCodec, c.AudioCodec)
	}
	return []media.Container{source}, nil
}

// FilterName is the label of the save dialog's extension filter.
func FilterName(changes edit.ChangeSet) string {
	if changes.Compression != nil {
		return "Compatible Formats"
	}
	return "Video"
}

// PrepareSave validates the requested save and returns the operation for the
// backend. On error no operation is returned.
func (b *Builder) PrepareSave(file *CurrentFile, video VideoMeta, changes edit.ChangeSet, outputPath string) (Operation, error) {
	if file == nil {
		return Operation{}, &NoFileLoadedError{}
	}

	source := Source(*file, video)
	output := Output{Path: outputPath, Container: media.ContainerFromName(outputPath)}

	cs := changes.Clone()
	if cs.Compression != nil {
		compatible, err := b.resolver.Require(cs.Compression.VideoCodec, cs.Compression.AudioCodec)
		if err != nil {
			return Operation{}, err
		}
		if err := media.Validate(output.Container, compatible); err != nil {
			return Operation{}, err
		}
		cs.Compression.Container = output.Container
	} else if output.Container != source.Container {
		return Operation{}, &UnsupportedOperationError{Source: source.Container, Output: output.Container}
	}

	if err := cs.Validate(edit.Bounds{Duration: source.Duration, Width: source.Width, Height: source.Height}); err != nil {
		return Operation{}, err
	}

	return Operation{Source: source, Changes: cs, Output: output}, nil
}

// DefaultOutputPath replaces the extension of sourceName with the best ranked
// compatible container.
func DefaultOutputPath(sourceName string, compatible []media.Container, current media.Container) (string, error) {
	ranked := media.Rank(compatible, current)
	if len(ranked) == 0 {
		return "", &media.NoCompatibleContainerError{}
	}
	stem := media.StripExtension(sourceName)
	if ranked[0] == "" {
		return stem, nil
	}
	return stem + "." + string(ranked[0]), nil
}

// OutputPathFor places name next to sourcePath. A name that would overwrite
// the source gets "-edited" inserted before its extension.
func OutputPathFor(sourcePath, name string) string {
	dir := filepath.Dir(sourcePath)
	path := filepath.Join(dir, SanitizeName(name, 255))
	if path != filepath.Clean(sourcePath) {
		return path
	}
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return filepath.Join(dir, strings.TrimSuffix(base, ext)+"-edited"+ext)
}
