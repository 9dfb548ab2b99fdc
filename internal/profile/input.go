package profile

// Input is the raw survey handed to the pipeline. It is closed over two variants:
// StructuredSurvey for JSON submissions and ExtractedLines for text read off an image.
// Pass variants by value.
type Input interface {
	isInput()
}

// StructuredSurvey is a fully-typed survey submission. Shape and type checking happen
// where the payload is decoded, so a value of this type is always well formed.
type StructuredSurvey struct {
	Age      int
	Smoker   bool
	Exercise string
	Diet     string
}

func (StructuredSurvey) isInput() {}

// Line is one piece of recognized text and the extractor's confidence in it.
type Line struct {
	Text       string
	Confidence float64
}

// ExtractedLines is the ordered output of text extraction over a form photo.
type ExtractedLines struct {
	Lines []Line
}

func (ExtractedLines) isInput() {}
