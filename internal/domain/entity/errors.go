package entity

import "errors"

var (
	// ErrEmptyInput is returned when a stage fetches its input artifact and
	// gets zero bytes back.
	ErrEmptyInput = errors.New("input artifact is empty")

	// ErrMalformedEvent marks an inbound message that could not be decoded
	// into the stage's event schema. The consumer applies its malformed
	// message policy to these instead of retrying them.
	ErrMalformedEvent = errors.New("malformed event")

	// ErrEmptyUpload is returned when an uploaded file has no content.
	ErrEmptyUpload = errors.New("file is empty")

	// ErrVideoNotFound is returned by repositories for lookups and updates
	// on a video_id that has no record.
	ErrVideoNotFound = errors.New("video not found")
)
