package x11

import (
	"errors"
	"fmt"
	"testing"

	"github.com/BurntSushi/xgb/xproto"
)

func TestPIDFromProperty(t *testing.T) {
	if pid, err := pidFromProperty(32, 1, []byte{0x39, 0x30, 0, 0}); err != nil || pid != 12345 {
		t.Fatalf("expected 12345, got %d, %v", pid, err)
	}
	if _, err := pidFromProperty(0, 0, nil); !errors.Is(err, ErrNoPID) {
		t.Fatalf("absent property should be ErrNoPID, got %v", err)
	}
	if _, err := pidFromProperty(32, 1, []byte{0, 0, 0, 0}); !errors.Is(err, ErrNoPID) {
		t.Fatalf("zero pid should be ErrNoPID, got %v", err)
	}
}

func TestIsWindowGone(t *testing.T) {
	if !IsWindowGone(fmt.Errorf("geometry: %w", xproto.WindowError{})) {
		t.Fatalf("wrapped BadWindow should count as gone")
	}
	if !IsWindowGone(xproto.DrawableError{}) {
		t.Fatalf("BadDrawable should count as gone")
	}
	if IsWindowGone(errors.New("timeout")) || IsWindowGone(nil) {
		t.Fatalf("other errors are not gone")
	}
}
