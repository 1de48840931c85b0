package errs

import (
	"errors"
	"strings"
	"testing"
)

func TestCodeErrorIs(t *testing.T) {
	if !errors.Is(ErrArgs.Wrap(), ErrArgs) {
		t.Fatal("wrapped error should match by code")
	}
	if !errors.Is(ErrConnExists.WithDetail("alice->bob").Wrap(), ErrConnExists) {
		t.Fatal("detail must not break code matching")
	}
	if errors.Is(ErrArgs.Wrap(), ErrRecordNotFound) {
		t.Fatal("different codes must not match")
	}
	if errors.Is(errors.New("plain"), ErrArgs) {
		t.Fatal("plain error must not match a coded one")
	}
}

func TestWithDetailCopies(t *testing.T) {
	base := ErrStatusConflict
	d1 := base.WithDetail("first")
	d2 := d1.WithDetail("second")

	if base.Detail != "" {
		t.Fatalf("base mutated: %q", base.Detail)
	}
	if d1.Detail != "first" {
		t.Fatalf("d1 detail: %q", d1.Detail)
	}
	if d2.Detail != "first, second" {
		t.Fatalf("d2 detail: %q", d2.Detail)
	}
	if !strings.Contains(d2.Error(), "first, second") {
		t.Fatalf("Error() misses detail: %q", d2.Error())
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(nil); got != 0 {
		t.Fatalf("nil: want 0, got %d", got)
	}
	if got := CodeOf(ErrPermissionDenied.WrapMsg("not recipient")); got != PermissionDenied {
		t.Fatalf("coded: want %d, got %d", PermissionDenied, got)
	}
	if got := CodeOf(errors.New("boom")); got != ServerInternalError {
		t.Fatalf("plain: want %d, got %d", ServerInternalError, got)
	}
}

func TestWrapMsgNilPassthrough(t *testing.T) {
	if WrapMsg(nil, "context") != nil {
		t.Fatal("nil must stay nil")
	}
	err := WrapMsg(errors.New("io broken"), "load config", "path", "/tmp/x")
	if err == nil || !strings.Contains(err.Error(), "io broken") {
		t.Fatalf("cause lost: %v", err)
	}
}
