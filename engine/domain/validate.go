package domain

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	_ "image/jpeg"
	_ "image/png"
)

// ValidateRow checks a parsed CSV row before indexing. A row with no usable
// image URL is rejected so the indexer can skip it with a diagnostic.
func ValidateRow(r CSVRow) error {
	if strings.TrimSpace(r.Label) == "" {
		return NewValidationError("car_label", r.Label, ErrMissingLabel)
	}
	if strings.TrimSpace(r.CarInfo) == "" {
		return NewValidationError("car_info", r.Label, ErrMissingInfo)
	}
	if len(r.ImageURLs) == 0 {
		return NewValidationError("image_url", r.Label, ErrNoImageURLs)
	}
	return nil
}

// ValidateUpload checks an uploaded search image before any store
// interaction: size ceiling first, then a decode to confirm the content is
// a real image in an allowed format. The returned error message is shown to
// the user as-is.
func ValidateUpload(data []byte) error {
	if len(data) > MaxUploadBytes {
		return fmt.Errorf("%w: please upload images smaller than %d MB", ErrUploadTooLarge, MaxUploadBytes>>20)
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUploadUnreadable, err)
	}
	if !AllowedUploadFormats[format] {
		return fmt.Errorf("%w: %s, please upload JPEG or PNG images only", ErrUploadBadFormat, format)
	}
	return nil
}
