package engine

import "fmt"

// OCRError is a terminal pipeline failure: every retry attempt failed with a
// provider or parsing error, so there is no data to return at all. Low
// confidence is never an OCRError; it comes back as a flagged result.
type OCRError struct {
	Attempts int
	Err      error
}

func (e *OCRError) Error() string {
	return fmt.Sprintf("extraction failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *OCRError) Unwrap() error {
	return e.Err
}
