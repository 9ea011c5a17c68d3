package resolver

import "errors"

var (
	// ErrNoPlaybackDetails indicates the episode page carried no usable
	// structured-data block.
	ErrNoPlaybackDetails = errors.New("no playback details")

	// ErrNoStream indicates the playlist exchange produced no media URL.
	ErrNoStream = errors.New("no stream available")
)
