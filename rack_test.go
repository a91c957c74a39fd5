package pal_test

import (
	"errors"
	"testing"

	pal "github.com/adamjmurray/producer-pal-sub006"
)

func resolveAll(t *testing.T, g pal.Graph, paths ...string) []pal.Target {
	t.Helper()
	targets := make([]pal.Target, len(paths))
	for i, path := range paths {
		target, err := pal.Resolve(g, path)
		if err != nil {
			t.Fatalf("Resolve(%q) error: %v", path, err)
		}
		targets[i] = target
	}
	return targets
}

func deviceName(t *testing.T, g pal.Graph, addr string) string {
	t.Helper()
	name, err := g.Get(addr, "name")
	if err != nil {
		t.Fatalf("Get name error: %v", err)
	}
	return name.(string)
}

// Wrapping two audio effects yields one rack with two containers, one
// device each, in original left-to-right order.
func TestWrapAudioEffects(t *testing.T) {
	g := loadSession(t)
	targets := resolveAll(t, g, "t2/d0", "t2/d1")
	rack, err := pal.WrapInRack(g, targets)
	if err != nil {
		t.Fatalf("WrapInRack error: %v", err)
	}
	if rack.Kind != pal.KindRack {
		t.Errorf("rack kind = %v", rack.Kind)
	}
	if rack.Path != "t2/d0" {
		t.Errorf("rack path = %q, want t2/d0 (first target's location)", rack.Path)
	}
	chains, err := g.Children(rack.Address, "chains")
	if err != nil {
		t.Fatalf("Children error: %v", err)
	}
	if len(chains) != 2 {
		t.Fatalf("got %d chains, want 2", len(chains))
	}
	for i, want := range []string{"EQ", "Comp"} {
		devices, err := g.Children(chains[i], "devices")
		if err != nil || len(devices) != 1 {
			t.Fatalf("chain %d devices = %v, %v", i, devices, err)
		}
		if name := deviceName(t, g, devices[0]); name != want {
			t.Errorf("chain %d device = %q, want %q", i, name, want)
		}
	}
	// the track now holds the rack and the untouched Arp
	trackDevices, err := g.Children("live_set tracks 2", "devices")
	if err != nil || len(trackDevices) != 2 {
		t.Fatalf("track devices = %v, %v", trackDevices, err)
	}
	if name := deviceName(t, g, trackDevices[1]); name != "Arp" {
		t.Errorf("second track device = %q, want Arp", name)
	}
}

// Mixing audio and MIDI effects fails before any mutation.
func TestWrapMixedRolesFails(t *testing.T) {
	g := loadSession(t)
	targets := resolveAll(t, g, "t2/d0", "t2/d2")
	if _, err := pal.WrapInRack(g, targets); !errors.Is(err, pal.ErrNotApplicable) {
		t.Fatalf("error = %v, want ErrNotApplicable", err)
	}
	devices, err := g.Children("live_set tracks 2", "devices")
	if err != nil || len(devices) != 3 {
		t.Errorf("track mutated: devices = %v, %v", devices, err)
	}

	targets = resolveAll(t, g, "t3/d0", "t2/d0")
	if _, err := pal.WrapInRack(g, targets); !errors.Is(err, pal.ErrNotApplicable) {
		t.Fatalf("instrument+effect error = %v, want ErrNotApplicable", err)
	}
}

// Instruments are wrapped through a temporary track, which is always
// deleted afterwards.
func TestWrapInstruments(t *testing.T) {
	g := loadSession(t)
	tracksBefore, err := g.Children("live_set", "tracks")
	if err != nil {
		t.Fatalf("Children error: %v", err)
	}
	targets := resolveAll(t, g, "t3/d0", "t3/d1")
	rack, err := pal.WrapInRack(g, targets)
	if err != nil {
		t.Fatalf("WrapInRack error: %v", err)
	}
	if rack.Path != "t3/d0" {
		t.Errorf("rack path = %q, want t3/d0", rack.Path)
	}
	tracksAfter, err := g.Children("live_set", "tracks")
	if err != nil {
		t.Fatalf("Children error: %v", err)
	}
	if len(tracksAfter) != len(tracksBefore) {
		t.Errorf("temporary track not cleaned up: %d tracks, want %d", len(tracksAfter), len(tracksBefore))
	}
	trackDevices, err := g.Children("live_set tracks 3", "devices")
	if err != nil || len(trackDevices) != 1 {
		t.Fatalf("track devices = %v, %v", trackDevices, err)
	}
	chains, err := g.Children(rack.Address, "chains")
	if err != nil || len(chains) != 2 {
		t.Fatalf("rack chains = %v, %v", chains, err)
	}
	for i, want := range []string{"Piano", "Strings"} {
		devices, err := g.Children(chains[i], "devices")
		if err != nil || len(devices) != 1 {
			t.Fatalf("chain %d devices = %v, %v", i, devices, err)
		}
		if name := deviceName(t, g, devices[0]); name != want {
			t.Errorf("chain %d device = %q, want %q", i, name, want)
		}
	}
}

// A failure partway through the instrument wrap still deletes the
// temporary track before the error propagates.
func TestWrapInstrumentsCleanupOnFailure(t *testing.T) {
	g := loadSession(t)
	tracksBefore, err := g.Children("live_set", "tracks")
	if err != nil {
		t.Fatalf("Children error: %v", err)
	}
	targets := resolveAll(t, g, "t3/d0", "t3/d1")
	targets[1].ID = "vanished"
	_, err = pal.WrapInRack(g, targets)
	if !errors.Is(err, pal.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
	tracksAfter, err := g.Children("live_set", "tracks")
	if err != nil {
		t.Fatalf("Children error: %v", err)
	}
	if len(tracksAfter) != len(tracksBefore) {
		t.Errorf("temporary track survived the failure: %d tracks, want %d", len(tracksAfter), len(tracksBefore))
	}
}

func TestWrapNothing(t *testing.T) {
	g := loadSession(t)
	if _, err := pal.WrapInRack(g, nil); !errors.Is(err, pal.ErrNotApplicable) {
		t.Fatalf("error = %v, want ErrNotApplicable", err)
	}
}
