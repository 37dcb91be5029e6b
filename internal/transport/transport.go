package transport

import (
	"context"
	"errors"
)

// ErrNotConnected is returned by Read and Write when no connection is open.
var ErrNotConnected = errors.New("transport is not connected")

// Transport is a byte stream to the relay board.
type Transport interface {
	Name() string
	// Target is a human-readable address of the remote end, empty when unset.
	Target() string
	Connect(ctx context.Context) error
	Close() error
	Read(ctx context.Context, buf []byte) (int, error)
	Write(ctx context.Context, payload []byte) error
}
