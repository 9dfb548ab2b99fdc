package ports

import "context"

// TextExtractor reads labeled text off a photographed survey form.
// This port keeps the profile service independent of which OCR engine or
// vision model does the reading.
type TextExtractor interface {
	// Extract returns recognized lines in reading order. mediaType is the image
	// content type (e.g. "image/png").
	Extract(ctx context.Context, image []byte, mediaType string) ([]TextLine, error)

	// Backend names the implementation for logs and metrics.
	Backend() string
}

// TextLine is one recognized line and the engine's confidence in it, in [0,1].
type TextLine struct {
	Text       string
	Confidence float64
}
