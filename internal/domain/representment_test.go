package domain

import (
	"errors"
	"testing"
)

func TestValidateRepresentmentTransition(t *testing.T) {
	t.Parallel()

	valid := []struct{ from, to RepresentmentStatus }{
		{RepresentmentNone, RepresentmentPending},
		{RepresentmentPending, RepresentmentAcceptedByBank},
		{RepresentmentPending, RepresentmentRejectedByBank},
		{RepresentmentPending, RepresentmentAwaitingCustomerInfo},
		{RepresentmentAwaitingCustomerInfo, RepresentmentPrearbitrationFiled},
		{RepresentmentAwaitingCustomerInfo, RepresentmentAcceptedByBank},
	}
	for _, tc := range valid {
		if err := ValidateRepresentmentTransition(tc.from, tc.to); err != nil {
			t.Fatalf("%s -> %s: unexpected error %v", tc.from, tc.to, err)
		}
	}

	invalid := []struct{ from, to RepresentmentStatus }{
		{RepresentmentNone, RepresentmentAcceptedByBank},
		{RepresentmentAcceptedByBank, RepresentmentPending},
		{RepresentmentRejectedByBank, RepresentmentPending},
		{RepresentmentPrearbitrationFiled, RepresentmentAcceptedByBank},
		// Repeating the current status is an error, not a no-op.
		{RepresentmentPending, RepresentmentPending},
	}
	for _, tc := range invalid {
		err := ValidateRepresentmentTransition(tc.from, tc.to)
		if !errors.Is(err, ErrInvalidStateTransition) {
			t.Fatalf("%s -> %s: error = %v, want ErrInvalidStateTransition", tc.from, tc.to, err)
		}
	}
}

func TestIsTerminalRepresentmentStatus(t *testing.T) {
	t.Parallel()

	terminals := []RepresentmentStatus{
		RepresentmentAcceptedByBank,
		RepresentmentRejectedByBank,
		RepresentmentPrearbitrationFiled,
	}
	for _, s := range terminals {
		if !IsTerminalRepresentmentStatus(s) {
			t.Fatalf("%s not terminal", s)
		}
	}
	for _, s := range []RepresentmentStatus{RepresentmentNone, RepresentmentPending, RepresentmentAwaitingCustomerInfo} {
		if IsTerminalRepresentmentStatus(s) {
			t.Fatalf("%s reported terminal", s)
		}
	}
}
