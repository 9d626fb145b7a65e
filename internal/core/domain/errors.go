package domain

import (
	"errors"
	"fmt"
)

var (
	ErrConfig           = errors.New("configuration error")
	ErrDocumentOpen     = errors.New("document open failed")
	ErrExtractionFailed = errors.New("extraction failed")
	ErrWrite            = errors.New("write failed")
	ErrOCRUnavailable   = errors.New("ocr backend unavailable")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
