package pal

import (
	"fmt"
)

// MovePad relocates drum containers to a new input pitch. The source
// must be a resolved pad or drum container target. A whole-pad source
// (pad segment with no container index) relocates every container on
// the parent device whose input pitch equals the source pitch, so
// layered containers travel as one logical pad; a specific container
// source moves only that container.
//
// The destination must be pad-shaped: a path whose final segment is a
// pad selector. The wildcard selector "p*" assigns the unassigned
// sentinel instead of a real pitch. Shape and pitch failures are
// reported without touching the graph, so callers batching several
// moves can skip just this one.
func MovePad(g Graph, src Target, destPath string) error {
	destPitch, err := destinationPitch(destPath)
	if err != nil {
		return err
	}
	switch {
	case src.WholePad:
		device, _, _, ok := parentAddr(src.Address)
		if !ok {
			return fmt.Errorf("pad %s has no parent device: %w", src.Address, ErrNotFound)
		}
		return moveWholePad(g, device, src.PadPitch, destPitch)
	case src.Kind == KindDrumChain:
		return g.Set(src.Address, "note", destPitch)
	}
	return fmt.Errorf("%s is a %v, not a pad or drum container: %w", src.Path, src.Kind, ErrNotApplicable)
}

// moveWholePad rewrites the input pitch of every container on the
// device currently assigned to pitch. The matching containers are
// gathered before any write so containers already moved to destPitch
// are not picked up again.
func moveWholePad(g Graph, deviceAddr string, pitch, destPitch int) error {
	chains, err := g.Children(deviceAddr, ChildChains)
	if err != nil {
		return err
	}
	var matched []string
	for _, chain := range chains {
		note, err := getInt(g, chain, "note")
		if err != nil {
			continue
		}
		if note == pitch {
			matched = append(matched, chain)
		}
	}
	if len(matched) == 0 {
		return fmt.Errorf("no containers with pitch %s on %s: %w", NoteName(pitch), deviceAddr, ErrNotFound)
	}
	for _, chain := range matched {
		if err := g.Set(chain, "note", destPitch); err != nil {
			return err
		}
	}
	return nil
}

// destinationPitch validates that a move destination is pad-shaped and
// extracts its pitch. Non-pad destinations and bad pitch names report
// ErrNotApplicable / ErrMalformedPath so the caller can skip the move.
func destinationPitch(destPath string) (int, error) {
	segments, err := ParseSegments(destPath)
	if err != nil {
		return 0, err
	}
	last := segments[len(segments)-1]
	if last.Domain != DomainPad {
		return 0, fmt.Errorf("move destination %q does not end in a pad segment: %w", destPath, ErrNotApplicable)
	}
	return last.Pitch, nil
}
