package pal

import (
	"fmt"
	"strconv"
)

// octaveAnchor fixes the octave numbering so that MIDI 60 is named
// "C3", the convention the host displays. Both conversion directions
// use it; changing one without the other breaks the round trip.
const octaveAnchor = -2

// noteNames is the sharp-preferred spelling table; NoteName always
// picks from here, so flat input normalizes to sharps.
var noteNames = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// noteOffsets maps a note letter to its semitone offset within the
// octave.
var noteOffsets = map[byte]int{'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11}

// NoteNumber converts a pitch name such as "C3", "F#-1" or "Bb2" to a
// MIDI note number. It returns ok=false for malformed names or names
// outside 0-127; it never panics, as pitch names arrive straight from
// callers.
func NoteNumber(name string) (int, bool) {
	if len(name) < 2 {
		return 0, false
	}
	letter := name[0]
	if letter >= 'a' && letter <= 'g' {
		letter -= 'a' - 'A'
	}
	offset, found := noteOffsets[letter]
	if !found {
		return 0, false
	}
	rest := name[1:]
	switch rest[0] {
	case '#':
		offset++
		rest = rest[1:]
	case 'b':
		offset--
		rest = rest[1:]
	}
	octave, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	num := (octave-octaveAnchor)*12 + offset
	if num < 0 || num > 127 {
		return 0, false
	}
	return num, true
}

// NoteName converts a MIDI note number to its canonical sharp-preferred
// pitch name. Out-of-range numbers return the empty string.
func NoteName(num int) string {
	if num < 0 || num > 127 {
		return ""
	}
	return fmt.Sprintf("%s%d", noteNames[num%12], num/12+octaveAnchor)
}
