package core

import (
	"errors"
	"testing"
	"time"

	"schedcore/pkg/domain"
)

func TestParseWireTimeAccepts(t *testing.T) {
	got, err := ParseWireTime("2030-01-15T09:05:00Z")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := time.Date(2030, 1, 15, 9, 5, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestParseWireTimeRejectsDeviations(t *testing.T) {
	cases := []string{
		"2025-08-20 10:00:00",      // space, no Z
		"2025-08-20T10:00:00",      // missing Z
		"2025-08-20T10:00:00.000Z", // fractional seconds
		"2025-08-20T10:00:00+00:00",
		"2025-8-20T10:00:00Z", // unpadded month
		"2025-08-20T10:00Z",   // missing seconds
		"25-08-20T10:00:00Z",  // two-digit year
		"",
	}
	for _, in := range cases {
		_, err := ParseWireTime(in)
		var mal domain.MalformedInputError
		if !errors.As(err, &mal) {
			t.Errorf("%q: expected malformed input, got %v", in, err)
		}
	}
}

func TestFormatWireTimeRoundTrip(t *testing.T) {
	in := "2030-01-15T23:59:59Z"
	parsed, err := ParseWireTime(in)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if out := FormatWireTime(parsed); out != in {
		t.Fatalf("round trip mismatch: %q", out)
	}
}

func TestNormalizeInstant(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	in := time.Date(2030, 1, 15, 11, 0, 0, 500_000_000, loc)
	got := NormalizeInstant(in)
	want := time.Date(2030, 1, 15, 10, 0, 0, 0, time.UTC)
	if !got.Equal(want) || got.Location() != time.UTC {
		t.Fatalf("got %v, want %v", got, want)
	}
}
