package memgraph_test

import (
	"errors"
	"testing"

	pal "github.com/adamjmurray/producer-pal-sub006"
	"github.com/adamjmurray/producer-pal-sub006/memgraph"
)

const drumFixture = `
tracks:
  - name: Drums
    devices:
      - name: Drum Rack
        role: instrument
        rack: drum_rack
        chains:
          - { name: Kick, note: C1 }
          - { name: Snare, note: D1 }
          - { name: Kick Layer, note: C1 }
`

func load(t *testing.T, fixture string) *memgraph.Graph {
	t.Helper()
	g, err := memgraph.Load([]byte(fixture))
	if err != nil {
		t.Fatalf("memgraph.Load error: %v", err)
	}
	return g
}

func TestAddressing(t *testing.T) {
	g := load(t, drumFixture)
	if !g.Exists("live_set") || !g.Exists("live_set tracks 0") || !g.Exists("live_set master_track") {
		t.Fatal("basic addresses missing")
	}
	if g.Exists("live_set tracks 1") || g.Exists("live_set tracks 0 devices 1") || g.Exists("nonsense") {
		t.Fatal("phantom addresses exist")
	}
	kind, err := g.Kind("live_set tracks 0 devices 0")
	if err != nil || kind != pal.KindRack {
		t.Errorf("Kind = %v, %v", kind, err)
	}
	kind, err = g.Kind("live_set tracks 0 devices 0 chains 0")
	if err != nil || kind != pal.KindDrumChain {
		t.Errorf("chain Kind = %v, %v", kind, err)
	}
}

// Stable IDs survive structural moves; addresses do not.
func TestStableIDs(t *testing.T) {
	g := load(t, drumFixture)
	id, err := g.ID("live_set tracks 0 devices 0")
	if err != nil || id == "" {
		t.Fatalf("ID = %q, %v", id, err)
	}
	addr, err := g.Address(id)
	if err != nil || addr != "live_set tracks 0 devices 0" {
		t.Fatalf("Address = %q, %v", addr, err)
	}
	if _, err := g.Address("bogus"); !errors.Is(err, pal.ErrNotFound) {
		t.Errorf("Address(bogus) error = %v, want ErrNotFound", err)
	}
}

// Pads are a derived view over the chains: one pad per distinct
// assigned note, sorted by pitch, with identity preserved across note
// rewrites.
func TestDerivedPads(t *testing.T) {
	g := load(t, drumFixture)
	device := "live_set tracks 0 devices 0"
	pads, err := g.Children(device, "drum_pads")
	if err != nil {
		t.Fatalf("Children error: %v", err)
	}
	if len(pads) != 2 {
		t.Fatalf("got %d pads, want 2", len(pads))
	}
	kickPadID, err := g.ID(pads[0])
	if err != nil {
		t.Fatalf("ID error: %v", err)
	}
	note, err := g.Get(pads[0], "note")
	if err != nil || note != 36 {
		t.Errorf("pad note = %v, %v", note, err)
	}
	chains, err := g.Children(pads[0], "chains")
	if err != nil || len(chains) != 2 {
		t.Fatalf("pad chains = %v, %v", chains, err)
	}
	if chains[0] != device+" chains 0" || chains[1] != device+" chains 2" {
		t.Errorf("pad chains are not device-level addresses: %v", chains)
	}
	// rewriting one layered chain's note keeps the C1 pad alive under
	// the same ID
	if err := g.Set(device+" chains 2", "note", 40); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	pads, err = g.Children(device, "drum_pads")
	if err != nil || len(pads) != 3 {
		t.Fatalf("pads after split = %v, %v", pads, err)
	}
	id, err := g.ID(pads[0])
	if err != nil || id != kickPadID {
		t.Errorf("C1 pad changed identity: %q vs %q", id, kickPadID)
	}
}

func TestSetValidation(t *testing.T) {
	g := load(t, drumFixture)
	chain := "live_set tracks 0 devices 0 chains 0"
	if err := g.Set(chain, "name", "Kick Drum"); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if err := g.Set(chain, "color", 5); !errors.Is(err, pal.ErrNotApplicable) {
		t.Errorf("Set color error = %v, want ErrNotApplicable", err)
	}
	if err := g.Set("live_set tracks 7", "name", "x"); !errors.Is(err, pal.ErrNotFound) {
		t.Errorf("Set on missing node error = %v, want ErrNotFound", err)
	}
}

func TestTrackLifecycle(t *testing.T) {
	g := load(t, drumFixture)
	addr, err := g.Call("live_set", "create_track", 1)
	if err != nil {
		t.Fatalf("create_track error: %v", err)
	}
	if addr != "live_set tracks 1" {
		t.Errorf("created track at %v", addr)
	}
	tracks, err := g.Children("live_set", "tracks")
	if err != nil || len(tracks) != 2 {
		t.Fatalf("tracks = %v, %v", tracks, err)
	}
	if _, err := g.Call("live_set", "delete_track", 1); err != nil {
		t.Fatalf("delete_track error: %v", err)
	}
	tracks, err = g.Children("live_set", "tracks")
	if err != nil || len(tracks) != 1 {
		t.Fatalf("tracks after delete = %v, %v", tracks, err)
	}
	if _, err := g.Call("live_set", "delete_track", 5); !errors.Is(err, pal.ErrNotFound) {
		t.Errorf("delete_track 5 error = %v, want ErrNotFound", err)
	}
}

func TestDeviceCreationAndMove(t *testing.T) {
	g := load(t, drumFixture)
	track := "live_set tracks 0"
	// an instrument rack cannot be created beside the drum rack, which
	// is itself an instrument
	if _, err := g.Call(track, "create_device", pal.DeviceTypeInstrumentRack, 0); !errors.Is(err, pal.ErrNotApplicable) {
		t.Errorf("create instrument rack error = %v, want ErrNotApplicable", err)
	}
	rackAddr, err := g.Call(track, "create_device", pal.DeviceTypeAudioEffectRack, 1)
	if err != nil {
		t.Fatalf("create_device error: %v", err)
	}
	chainAddr, err := g.Call(rackAddr.(string), "create_chain")
	if err != nil {
		t.Fatalf("create_chain error: %v", err)
	}
	drumID, err := g.ID(track + " devices 0")
	if err != nil {
		t.Fatalf("ID error: %v", err)
	}
	moved, err := g.Call("live_set", "move_device", track+" devices 0", chainAddr, 0)
	if err != nil {
		t.Fatalf("move_device error: %v", err)
	}
	movedAddr, err := g.Address(drumID)
	if err != nil || movedAddr != moved {
		t.Fatalf("moved address = %v vs %v, %v", movedAddr, moved, err)
	}
	devices, err := g.Children(track, "devices")
	if err != nil || len(devices) != 1 {
		t.Fatalf("track devices = %v, %v", devices, err)
	}
}

func TestFixtureParameters(t *testing.T) {
	g := load(t, `
tracks:
  - name: Bass
    devices:
      - name: Analog
        role: instrument
        params:
          - { name: Volume, value: -12, min: -70, max: 6, display: db }
          - { name: Mode, value: 1, quantized: true, items: [Off, On], display: enum }
`)
	params, err := g.Children("live_set tracks 0 devices 0", "parameters")
	if err != nil || len(params) != 2 {
		t.Fatalf("parameters = %v, %v", params, err)
	}
	label, err := g.Call(params[0], "str_for_value", -12.0)
	if err != nil || label != "-12.0 dB" {
		t.Errorf("str_for_value = %v, %v", label, err)
	}
	label, err = g.Call(params[0], "str_for_value", -70.0)
	if err != nil || label != "-inf dB" {
		t.Errorf("floor label = %v, %v", label, err)
	}
	label, err = g.Call(params[1], "str_for_value", 1.0)
	if err != nil || label != "On" {
		t.Errorf("enum label = %v, %v", label, err)
	}
	if _, err := g.Call(params[1], "raw_for_display", 1.0); !errors.Is(err, pal.ErrNotApplicable) {
		t.Errorf("raw_for_display error = %v, want ErrNotApplicable", err)
	}
}

func TestFixtureRejectsBadNote(t *testing.T) {
	if _, err := memgraph.Load([]byte(`
tracks:
  - name: Drums
    devices:
      - name: Drum Rack
        role: instrument
        rack: drum_rack
        chains:
          - { name: Kick, note: H7 }
`)); err == nil {
		t.Fatal("expected an error for an invalid note name")
	}
}
