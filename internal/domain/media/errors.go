package media

import "errors"

var (
	ErrInvalidFile     = errors.New("invalid media file")
	ErrQuotaExceeded   = errors.New("storage quota exceeded")
	ErrAssetNotFound   = errors.New("media asset not found")
	ErrOriginalMissing = errors.New("original file is missing from storage")
	ErrInvalidCategory = errors.New("invalid media category")
)
