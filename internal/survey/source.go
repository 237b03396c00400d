package survey

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// Source yields the cumulative transcript of a survey.
type Source interface {
	Transcript(ctx context.Context) (string, error)
}

// FileSource reads the transcript from a text file. A missing file reads as
// an empty transcript.
type FileSource struct {
	Path string
}

// Transcript returns the file's current content.
func (f FileSource) Transcript(_ context.Context) (string, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("survey: read transcript %s: %w", f.Path, err)
	}
	return string(data), nil
}

// StaticSource always returns the same transcript.
type StaticSource string

// Transcript returns s.
func (s StaticSource) Transcript(context.Context) (string, error) {
	return string(s), nil
}
