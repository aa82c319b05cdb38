package classify

import (
	"context"
	"fmt"

	"github.com/sdejongh/filenorris/pkg/models"
)

// Classifier maps a file entry to its metadata
type Classifier interface {
	Classify(ctx context.Context, entry models.FileEntry) (models.Metadata, error)
}

// Func adapts a function to the Classifier interface
type Func func(ctx context.Context, entry models.FileEntry) (models.Metadata, error)

// Classify calls f
func (f Func) Classify(ctx context.Context, entry models.FileEntry) (models.Metadata, error) {
	return f(ctx, entry)
}

// Dispatcher routes a file to the classifier registered for its content kind.
// Files of unknown kind get the unclassified metadata without any call.
type Dispatcher struct {
	Text  Classifier
	Image Classifier
}

// Classify dispatches on entry.Kind
func (d *Dispatcher) Classify(ctx context.Context, entry models.FileEntry) (models.Metadata, error) {
	var c Classifier
	switch entry.Kind {
	case models.KindText:
		c = d.Text
	case models.KindImage:
		c = d.Image
	default:
		return models.Unclassified(entry), nil
	}

	if c == nil {
		return models.Metadata{}, &models.ClassificationError{
			Path: entry.AbsolutePath,
			Err:  fmt.Errorf("no classifier for %s files", entry.Kind),
		}
	}
	return c.Classify(ctx, entry)
}

// NewOllamaDispatcher wires the text and image variants of an Ollama client
func NewOllamaDispatcher(client *Ollama) *Dispatcher {
	return &Dispatcher{
		Text:  Func(client.ClassifyText),
		Image: Func(client.ClassifyImage),
	}
}

// NewSimulatedDispatcher uses the simulated classifier for every kind
func NewSimulatedDispatcher() *Dispatcher {
	sim := Simulated{}
	return &Dispatcher{Text: sim, Image: sim}
}
