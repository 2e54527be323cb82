package domain

import "errors"

var (
	ErrNoRegion        = errors.New("you must specify either a region or a bounding box")
	ErrRegionConflict  = errors.New("only one of region, bounding box or circle may be set")
	ErrRegionNotFound  = errors.New("region not found")
	ErrMalformedRecord = errors.New("malformed record")
	ErrSourceClosed    = errors.New("stream source closed")
	ErrCacheMiss       = errors.New("cache miss")
)
