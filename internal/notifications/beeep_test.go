package notifications

import (
	"errors"
	"testing"
)

func TestBeeepSenderTrimsAndSkipsEmpty(t *testing.T) {
	var got [][2]string
	s := NewBeeepSender(nil)
	s.notify = func(title, message string) error {
		got = append(got, [2]string{title, message})

		return nil
	}

	s.Send(Payload{Title: "  ", Content: ""})
	s.Send(Payload{Title: " IP - connected ", Content: " 10.0.0.5:17123 "})

	if len(got) != 1 {
		t.Fatalf("expected one notification, got %d", len(got))
	}
	if got[0][0] != "IP - connected" || got[0][1] != "10.0.0.5:17123" {
		t.Fatalf("unexpected notification %q", got[0])
	}
}

func TestBeeepSenderSwallowsErrors(t *testing.T) {
	s := NewBeeepSender(nil)
	s.notify = func(string, string) error { return errors.New("no dbus session") }

	s.Send(Payload{Title: "IP - error"})

	var nilSender *BeeepSender
	nilSender.Send(Payload{Title: "ignored"})
}
