package cacheditem

import "errors"

var (
	// ErrNoProducer is returned when a lookup is made without a primary producer.
	ErrNoProducer = errors.New("cacheditem: primary producer is required")

	// ErrDecode indicates a stored payload could not be decoded into the requested type.
	ErrDecode = errors.New("cacheditem: stored payload cannot be decoded")
)
