package pal_test

import (
	"testing"

	pal "github.com/adamjmurray/producer-pal-sub006"
)

func TestNoteNumber(t *testing.T) {
	tests := []struct {
		name string
		num  int
		ok   bool
	}{
		{"C3", 60, true},
		{"C1", 36, true},
		{"D1", 38, true},
		{"A3", 69, true},
		{"C-2", 0, true},
		{"G8", 127, true},
		{"F#2", 54, true},
		{"Bb2", 58, true},
		{"Db3", 61, true},
		{"c3", 60, true},
		{"e2", 52, true},
		{"H3", 0, false},
		{"C", 0, false},
		{"C#", 0, false},
		{"G#8", 0, false},
		{"Cb-2", 0, false},
		{"3C", 0, false},
		{"", 0, false},
		{"C3x", 0, false},
	}
	for _, test := range tests {
		num, ok := pal.NoteNumber(test.name)
		if ok != test.ok {
			t.Errorf("NoteNumber(%q) ok = %v, want %v", test.name, ok, test.ok)
			continue
		}
		if ok && num != test.num {
			t.Errorf("NoteNumber(%q) = %v, want %v", test.name, num, test.num)
		}
	}
}

func TestNoteName(t *testing.T) {
	tests := []struct {
		num  int
		name string
	}{
		{60, "C3"},
		{36, "C1"},
		{61, "C#3"},
		{0, "C-2"},
		{127, "G8"},
		{-1, ""},
		{128, ""},
	}
	for _, test := range tests {
		if name := pal.NoteName(test.num); name != test.name {
			t.Errorf("NoteName(%v) = %q, want %q", test.num, name, test.name)
		}
	}
}

// Converting any pitch name to a number and back yields the canonical
// sharp-preferred spelling.
func TestNoteRoundTrip(t *testing.T) {
	for num := 0; num <= 127; num++ {
		name := pal.NoteName(num)
		got, ok := pal.NoteNumber(name)
		if !ok || got != num {
			t.Fatalf("NoteNumber(NoteName(%v)) = %v, %v", num, got, ok)
		}
	}
	if num, ok := pal.NoteNumber("Eb2"); !ok || pal.NoteName(num) != "D#2" {
		t.Errorf("flat spelling did not normalize to sharp: %v %v", num, ok)
	}
}
