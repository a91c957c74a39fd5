package pal

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// WrapInRack creates a rack device and redistributes the target
// devices into its containers, one per device, preserving their
// left-to-right order. All targets must share a compatible role:
// mixing audio effects and MIDI effects is a hard validation failure,
// reported before any mutation. Instruments take a longer route, see
// wrapInstruments.
func WrapInRack(g Graph, targets []Target) (Target, error) {
	if len(targets) == 0 {
		return Target{}, fmt.Errorf("nothing to wrap: %w", ErrNotApplicable)
	}
	var hasInstrument, hasAudio, hasMidi bool
	for _, t := range targets {
		role, err := getString(g, t.Address, "role")
		if err != nil {
			return Target{}, fmt.Errorf("%s is not a device: %w", t.Path, ErrNotApplicable)
		}
		switch role {
		case RoleInstrument:
			hasInstrument = true
		case RoleAudioEffect:
			hasAudio = true
		case RoleMidiEffect:
			hasMidi = true
		}
	}
	switch {
	case hasAudio && hasMidi:
		return Target{}, fmt.Errorf("cannot wrap audio effects and MIDI effects in one rack: %w", ErrNotApplicable)
	case hasInstrument && (hasAudio || hasMidi):
		return Target{}, fmt.Errorf("cannot wrap instruments together with effects: %w", ErrNotApplicable)
	case hasInstrument:
		return wrapInstruments(g, targets)
	case hasMidi:
		return wrapEffects(g, targets, DeviceTypeMidiEffectRack)
	}
	return wrapEffects(g, targets, DeviceTypeAudioEffectRack)
}

// wrapEffects creates the rack at the first target's location, then
// relocates each device into its own container. Pre-existing
// containers are reused before new ones are created. Devices are
// re-resolved by stable ID before each move, since every mutation
// shifts the positional addresses of later siblings.
func wrapEffects(g Graph, targets []Target, rackType string) (Target, error) {
	parent, _, index, ok := parentAddr(targets[0].Address)
	if !ok {
		return Target{}, fmt.Errorf("%s has no parent: %w", targets[0].Path, ErrNotFound)
	}
	rackAddr, err := callAddr(g, parent, ActionCreateDevice, rackType, index)
	if err != nil {
		return Target{}, err
	}
	rackID, err := g.ID(rackAddr)
	if err != nil {
		return Target{}, err
	}
	existing, err := g.Children(rackAddr, ChildChains)
	if err != nil {
		return Target{}, err
	}
	for i, t := range targets {
		var chainAddr string
		if i < len(existing) {
			chainAddr = existing[i]
		} else {
			if chainAddr, err = callAddr(g, rackAddr, ActionCreateChain); err != nil {
				return Target{}, err
			}
		}
		deviceAddr, err := g.Address(t.ID)
		if err != nil {
			return Target{}, fmt.Errorf("device %s vanished during wrap: %w", t.Path, ErrNotFound)
		}
		if _, err := g.Call(SetRoot, ActionMoveDevice, deviceAddr, chainAddr, 0); err != nil {
			return Target{}, err
		}
	}
	return targetForID(g, rackID)
}

// wrapInstruments handles the instrument case. The host refuses to
// create an instrument rack on a track that already holds an
// instrument, so the instruments are first relocated to a fresh
// temporary track, the rack is created at the original location, and
// each instrument is moved back into its own container, always pulling
// the temporary track's first device so order is preserved. The
// temporary track is deleted on every exit path; a cleanup failure is
// logged and never masks the primary error.
func wrapInstruments(g Graph, targets []Target) (retTarget Target, retErr error) {
	tracks, err := g.Children(SetRoot, ChildTracks)
	if err != nil {
		return Target{}, err
	}
	tmpAddr, err := callAddr(g, SetRoot, ActionCreateTrack, len(tracks))
	if err != nil {
		return Target{}, err
	}
	tmpID, err := g.ID(tmpAddr)
	if err != nil {
		return Target{}, err
	}
	defer func() {
		addr, err := g.Address(tmpID)
		if err == nil {
			_, _, index, ok := parentAddr(addr)
			if ok {
				_, err = g.Call(SetRoot, ActionDeleteTrack, index)
			}
		}
		if err != nil {
			logrus.WithFields(logrus.Fields{"track": tmpID, "error": err}).Warn("temporary track cleanup failed")
		}
	}()
	parent, _, index, ok := parentAddr(targets[0].Address)
	if !ok {
		return Target{}, fmt.Errorf("%s has no parent: %w", targets[0].Path, ErrNotFound)
	}
	for i, t := range targets {
		deviceAddr, err := g.Address(t.ID)
		if err != nil {
			return Target{}, fmt.Errorf("device %s vanished during wrap: %w", t.Path, ErrNotFound)
		}
		tmp, err := g.Address(tmpID)
		if err != nil {
			return Target{}, err
		}
		if _, err := g.Call(SetRoot, ActionMoveDevice, deviceAddr, tmp, i); err != nil {
			return Target{}, err
		}
	}
	rackAddr, err := callAddr(g, parent, ActionCreateDevice, DeviceTypeInstrumentRack, index)
	if err != nil {
		return Target{}, err
	}
	rackID, err := g.ID(rackAddr)
	if err != nil {
		return Target{}, err
	}
	for range targets {
		chainAddr, err := callAddr(g, rackAddr, ActionCreateChain)
		if err != nil {
			return Target{}, err
		}
		tmp, err := g.Address(tmpID)
		if err != nil {
			return Target{}, err
		}
		devices, err := g.Children(tmp, ChildDevices)
		if err != nil || len(devices) == 0 {
			return Target{}, fmt.Errorf("temporary track lost its devices: %w", ErrNotFound)
		}
		if _, err := g.Call(SetRoot, ActionMoveDevice, devices[0], chainAddr, 0); err != nil {
			return Target{}, err
		}
	}
	return targetForID(g, rackID)
}

// callAddr invokes an action whose result is a native address.
func callAddr(g Graph, addr, action string, args ...any) (string, error) {
	ret, err := g.Call(addr, action, args...)
	if err != nil {
		return "", err
	}
	s, ok := ret.(string)
	if !ok {
		return "", fmt.Errorf("action %s on %s did not return an address", action, addr)
	}
	return s, nil
}

func targetForID(g Graph, id string) (Target, error) {
	t, err := ResolveID(g, id)
	if err != nil {
		return Target{}, err
	}
	return t, nil
}
