package transport

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func TestSerialTransportTarget(t *testing.T) {
	tr := NewSerialTransport("/dev/ttyUSB0", 9600)
	if got := tr.Target(); got != "/dev/ttyUSB0@9600" {
		t.Fatalf("unexpected target %q", got)
	}
	if got := NewSerialTransport("", 9600).Target(); got != "" {
		t.Fatalf("expected empty target for empty port, got %q", got)
	}
}

func TestSerialTransportConnectValidatesConfig(t *testing.T) {
	if err := NewSerialTransport("", 9600).Connect(context.Background()); err == nil {
		t.Fatalf("expected error for empty port")
	}
	if err := NewSerialTransport("/dev/ttyUSB0", 0).Connect(context.Background()); err == nil {
		t.Fatalf("expected error for invalid baud")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewSerialTransport("/dev/ttyUSB0", 9600).Connect(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}

func TestSerialTransportWriteWithoutPort(t *testing.T) {
	tr := NewSerialTransport("/dev/ttyUSB0", 9600)
	if err := tr.Write(context.Background(), []byte("SO 1 on\n")); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
	if err := tr.Close(); err != nil {
		t.Fatalf("close without port must be a no-op, got %v", err)
	}
}

func TestWriteFullHandlesShortWrites(t *testing.T) {
	var dst bytes.Buffer
	w := &shortWriter{dst: &dst, max: 3}

	if err := writeFull(context.Background(), w, []byte("SR 12 off 250\n")); err != nil {
		t.Fatalf("write full: %v", err)
	}
	if got := dst.String(); got != "SR 12 off 250\n" {
		t.Fatalf("unexpected written bytes %q", got)
	}
}

type shortWriter struct {
	dst *bytes.Buffer
	max int
}

func (w *shortWriter) Write(p []byte) (int, error) {
	if len(p) > w.max {
		p = p[:w.max]
	}

	return w.dst.Write(p)
}
