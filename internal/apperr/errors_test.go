package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want Kind
	}{
		{Validation("bad input"), KindValidation},
		{Permission("denied"), KindPermission},
		{NotFound("missing"), KindNotFound},
		{Business("too late"), KindBusiness},
		{Conflict("duplicate"), KindConflict},
		{RateLimit("slow down"), KindRateLimit},
		{Storage(errors.New("disk"), "query failed"), KindStorage},
		{errors.New("untyped"), KindStorage},
	}

	for _, tc := range cases {
		if got := KindOf(tc.err); got != tc.want {
			t.Errorf("KindOf(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	inner := NotFound("thread %s", "abc")
	wrapped := fmt.Errorf("loading context: %w", inner)

	if !Is(wrapped, KindNotFound) {
		t.Error("kind lost through fmt.Errorf %w wrapping")
	}
	if KindOf(wrapped) != KindNotFound {
		t.Errorf("KindOf(wrapped) = %v, want %v", KindOf(wrapped), KindNotFound)
	}
}

func TestStorageUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Storage(cause, "insert message")

	if !errors.Is(err, cause) {
		t.Error("Storage should wrap its cause for errors.Is")
	}
	if err.Error() != "insert message: connection refused" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestIsRejectsOtherKinds(t *testing.T) {
	err := Conflict("taken")
	if Is(err, KindValidation) {
		t.Error("Is matched the wrong kind")
	}
	if Is(nil, KindConflict) {
		t.Error("Is(nil) must be false")
	}
}
