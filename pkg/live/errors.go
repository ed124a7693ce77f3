package live

import "errors"

var (
	// ErrSetupTimeout means the endpoint never acknowledged the setup frame
	// within the handshake window.
	ErrSetupTimeout = errors.New("live: setup acknowledgment timed out")
	// ErrSetupRejected means a frame arrived during the handshake but it did
	// not carry the setup completion marker.
	ErrSetupRejected = errors.New("live: setup acknowledgment missing completion marker")
	// ErrNoInput means the caller supplied neither text nor audio.
	ErrNoInput = errors.New("live: no text or audio input provided")
)
