package ports

import (
	"context"

	"filmtrend/domain/film"
)

// DatasetPort loads the cleaned film table and its category vocabulary from
// the wrangling stage. Loading happens once, before sampling; all failures
// are data errors that abort the run.
type DatasetPort interface {
	// ReadVocabulary parses the closed category vocabulary (one line per axis)
	ReadVocabulary(ctx context.Context, path string) (*film.Vocabulary, error)

	// ReadDataset parses the film table and validates it against the vocabulary
	ReadDataset(ctx context.Context, path string, vocab *film.Vocabulary) (*film.Dataset, error)
}
