package vision

import (
	"context"
	"io"
)

// DescriptionPrompt is the shared prompt used by all vision adapters.
const DescriptionPrompt = `This photo shows a single item that is being put into storage.
Describe the item in a short phrase a person would search for later
(e.g. "blue wool sweater", "box of AA batteries"). Respond with the phrase only,
on one line, without quotes or extra commentary.`

// Describer suggests a short searchable description for an item photo.
type Describer interface {
	Describe(ctx context.Context, r io.Reader, mimeType string) (string, error)
}
