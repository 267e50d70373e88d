package internal

import "errors"

// Error definitions for the rendition switching engine
var (
	ErrResourceUnavailable  = errors.New("resource unavailable")
	ErrResourceNotFound     = errors.New("resource not found")
	ErrReadyTimeout         = errors.New("timed out waiting for backend ready")
	ErrNoResyncMatch        = errors.New("no confident resync match")
	ErrIntentSuperseded     = errors.New("swap intent superseded")
	ErrUnknownFamily        = errors.New("unknown rendition family")
	ErrRenditionUnavailable = errors.New("rendition not available for media item")
	ErrNoMediaItem          = errors.New("no media item loaded")
	ErrClosed               = errors.New("switcher closed")
	ErrUnsupportedTransport = errors.New("unsupported transport")
	ErrUnsupportedCueFormat = errors.New("unsupported cue format")
)
