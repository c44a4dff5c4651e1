package catalog

import (
	"context"
	_ "embed"
)

//go:embed sample.json
var sampleDocument []byte

// SampleName identifies the built-in demo catalog.
const SampleName = "builtin:sample"

// NewSampleSource serves the built-in demo catalog.
func NewSampleSource(ctx context.Context) (*DocumentSource, error) {
	return NewDocumentSource(ctx, SampleName, sampleDocument)
}
