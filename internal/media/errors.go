// ABOUTME: Sentinel errors for media source opening and decoding
package media

import "errors"

var (
	// ErrUnsupportedFormat indicates the file extension maps to no known
	// audio decoder.
	ErrUnsupportedFormat = errors.New("media: unsupported audio format")

	// ErrNoFrames indicates a frame directory was given but contained no
	// readable image files.
	ErrNoFrames = errors.New("media: no video frames found")

	// ErrClosed indicates a read on a closed source.
	ErrClosed = errors.New("media: source is closed")
)
