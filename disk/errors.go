package disk

import "github.com/pkg/errors"

var (
	ErrBadSize     = errors.New("unexpected image size")
	ErrSignature   = errors.New("unsupported signature")
	ErrGeometry    = errors.New("incompatible disk geometry")
	ErrUnsupported = errors.New("unsupported format")
	ErrSectorRange = errors.New("sector address out of range")
	ErrIntegrity   = errors.New("integrity errors encountered")
	ErrTruncated   = errors.New("truncated container")
)
