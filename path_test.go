package pal_test

import (
	"errors"
	"testing"

	pal "github.com/adamjmurray/producer-pal-sub006"
)

func TestParseSegmentsValid(t *testing.T) {
	tests := []string{
		"t0/d0",
		"t12/d3",
		"rt0/d1",
		"mt/d0",
		"t0/d0/c2",
		"t0/d0/rc0",
		"t0/d0/pC1",
		"t0/d0/pF#2",
		"t0/d0/p*",
		"t0/d0/pC1/c0",
		"t0/d0/pC1/c0/d1",
		"t0/d0/c1/d0/c0",
	}
	for _, path := range tests {
		segments, err := pal.ParseSegments(path)
		if err != nil {
			t.Errorf("ParseSegments(%q) error: %v", path, err)
			continue
		}
		if got := pal.FormatPath(segments); got != path {
			t.Errorf("FormatPath(ParseSegments(%q)) = %q", path, got)
		}
	}
}

func TestParseSegmentsMalformed(t *testing.T) {
	tests := []string{
		"",
		"t0",          // track segment alone addresses nothing
		"mt",          // same for the master track
		"t0/c0",       // container before any device
		"t0/pC1",      // pad before any device
		"d0/t0",       // must start with a track
		"t0/d0/d1",    // device directly after a device
		"t0/d0/pC1/pD1", // pad directly after a pad
		"t0//d0",      // empty segment
		"t0/d0/pH3",   // invalid pitch name
		"t0/d0/p",     // truncated pitch
		"t/d0",        // missing track index
		"t-1/d0",      // negative index
		"t0/dx",       // garbled index
		"t0/d0/x9",    // unknown domain
	}
	for _, path := range tests {
		if _, err := pal.ParseSegments(path); !errors.Is(err, pal.ErrMalformedPath) {
			t.Errorf("ParseSegments(%q) error = %v, want ErrMalformedPath", path, err)
		}
	}
}
