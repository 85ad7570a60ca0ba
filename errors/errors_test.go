package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorFormat(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "phase and kind only",
			err:  &Error{Phase: PhaseDecode, Kind: KindMalformedData},
			want: "[decode] malformed_data",
		},
		{
			name: "with detail",
			err:  MalformedData(PhaseDecode, "enum ordinal %d out of range 0..%d", 7, 3),
			want: "[decode] malformed_data: enum ordinal 7 out of range 0..3",
		},
		{
			name: "with cause",
			err:  IO(PhaseEncode, errors.New("pipe closed")),
			want: "[encode] io (caused by: pipe closed)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorStateDump(t *testing.T) {
	err := New(PhaseCode, KindAPIUsage).
		Detail("usage of finished coder").
		State("stack: []").
		Build()
	got := err.Error()
	if !strings.Contains(got, "\nstate: stack: []") {
		t.Errorf("Error() = %q, missing state dump", got)
	}
}

func TestKindFatal(t *testing.T) {
	fatal := []Kind{KindIO, KindMalformedData, KindPlatformLimits, KindIllegalSchema}
	recoverable := []Kind{KindSchemaNonConformance, KindAPIUsage}

	for _, k := range fatal {
		if !k.Fatal() {
			t.Errorf("Kind(%s).Fatal() = false, want true", k)
		}
	}
	for _, k := range recoverable {
		if k.Fatal() {
			t.Errorf("Kind(%s).Fatal() = true, want false", k)
		}
	}
}

func TestIsKind(t *testing.T) {
	err := NonConformance(PhaseCode, "need struct field %q", "right")
	if !IsKind(err, KindSchemaNonConformance) {
		t.Error("IsKind should match the error's kind")
	}
	if IsKind(err, KindMalformedData) {
		t.Error("IsKind should not match a different kind")
	}

	wrapped := fmt.Errorf("outer: %w", err)
	if !IsKind(wrapped, KindSchemaNonConformance) {
		t.Error("IsKind should unwrap wrapped errors")
	}

	if IsKind(errors.New("plain"), KindIO) {
		t.Error("IsKind should not match plain errors")
	}
	if IsKind(nil, KindIO) {
		t.Error("IsKind(nil) should be false")
	}
}

func TestErrorIs(t *testing.T) {
	err := MalformedData(PhaseDecode, "bad bool byte 3")
	target := &Error{Phase: PhaseDecode, Kind: KindMalformedData}
	if !errors.Is(err, target) {
		t.Error("errors.Is should match on phase+kind")
	}
	other := &Error{Phase: PhaseEncode, Kind: KindMalformedData}
	if errors.Is(err, other) {
		t.Error("errors.Is should not match a different phase")
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("short write")
	err := IO(PhaseEncode, cause)
	if !errors.Is(err, cause) {
		t.Error("cause should be reachable through Unwrap")
	}
}
