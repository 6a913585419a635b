// Package tags reads embedded title/artist/album tags from audio files.
package tags

import (
	"errors"
	"fmt"
	"os"

	"github.com/dhowden/tag"
)

// Tags holds the embedded metadata of an audio file.
type Tags struct {
	Title    string
	Artist   string
	Album    string
	Genre    string
	Year     int
	Format   string
	FileType string
}

// Empty reports whether no descriptive tag is set.
func (t *Tags) Empty() bool {
	return t.Title == "" && t.Artist == "" && t.Album == "" && t.Genre == "" && t.Year == 0
}

// Reader reads tags from a file path.
type Reader interface {
	Read(path string) (*Tags, error)
}

// FileReader implements Reader with github.com/dhowden/tag
// (ID3v1/ID3v2, MP4 atoms, FLAC and Ogg Vorbis comments).
type FileReader struct{}

// NewFileReader creates a tag reader.
func NewFileReader() *FileReader {
	return &FileReader{}
}

// Read returns the tags of the file at path, or (nil, nil) if it has none.
func (r *FileReader) Read(path string) (*Tags, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		if errors.Is(err, tag.ErrNoTagsFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("read tags: %w", err)
	}

	return &Tags{
		Title:    m.Title(),
		Artist:   m.Artist(),
		Album:    m.Album(),
		Genre:    m.Genre(),
		Year:     m.Year(),
		Format:   string(m.Format()),
		FileType: string(m.FileType()),
	}, nil
}
