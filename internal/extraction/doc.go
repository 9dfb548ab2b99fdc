// Package extraction holds the backends that read survey text off an uploaded
// image. Each backend satisfies ports.TextExtractor.
//
//   - ocrhttp: an OCR sidecar reached over HTTP
//   - vision: an Anthropic vision model
//   - fallback: a primary backend that fails over to a secondary one behind a circuit breaker
package extraction
