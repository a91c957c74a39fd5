package pal_test

import (
	"testing"

	"github.com/adamjmurray/producer-pal-sub006/memgraph"
)

// sessionFixture is the session most tests run against: a drum rack
// with layered pads, an instrument with one parameter of every display
// flavor, an effects track and a two-instrument track.
const sessionFixture = `
tracks:
  - name: Drums
    devices:
      - name: Drum Rack
        role: instrument
        rack: drum_rack
        chains:
          - name: Kick
            note: C1
            devices:
              - name: Kick Sampler
                role: instrument
          - name: Snare
            note: D1
          - name: Kick Layer
            note: C1
          - name: Spare
            note: "*"
  - name: Bass
    mute: true
    devices:
      - name: Analog
        role: instrument
        params:
          - { name: Volume, value: 0, min: -70, max: 6, display: db }
          - { name: Pan, value: 0.5, min: 0, max: 1, display: pan }
          - { name: Rate, value: 2, min: 0, max: 6, display: division }
          - { name: Root, value: 60, min: 0, max: 127, display: pitch }
          - { name: Mode, value: 1, quantized: true, items: [Off, On], display: enum }
          - { name: Cutoff, value: 440, min: 20, max: 20000, display: hz }
  - name: FX
    devices:
      - { name: EQ, role: audio_effect }
      - { name: Comp, role: audio_effect }
      - { name: Arp, role: midi_effect }
  - name: Keys
    devices:
      - { name: Piano, role: instrument }
      - { name: Strings, role: instrument }
returnTracks:
  - name: Reverb Return
    devices:
      - { name: Reverb, role: audio_effect }
`

func loadSession(t *testing.T) *memgraph.Graph {
	t.Helper()
	g, err := memgraph.Load([]byte(sessionFixture))
	if err != nil {
		t.Fatalf("memgraph.Load error: %v", err)
	}
	return g
}
