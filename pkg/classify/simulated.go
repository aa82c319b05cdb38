package classify

import (
	"context"
	"strings"

	"github.com/sdejongh/filenorris/pkg/models"
)

// Simulated produces deterministic metadata from the extension and the file
// name, without any network access
type Simulated struct{}

// Classify derives the category from the type group of the file
func (Simulated) Classify(ctx context.Context, entry models.FileEntry) (models.Metadata, error) {
	if err := ctx.Err(); err != nil {
		return models.Metadata{}, err
	}

	group := models.TypeGroup(entry.Ext())
	name := strings.TrimSpace(entry.Stem())
	if name == "" {
		name = "untitled"
	}

	return models.Metadata{
		Category:      group,
		Description:   strings.ToLower(group) + " file " + name,
		SuggestedName: name,
	}, nil
}
