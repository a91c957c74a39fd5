package pal

import (
	"fmt"
	"strconv"
	"strings"
)

// Target is a resolved graph location. Address is the host's positional
// path and is only valid until siblings are inserted or deleted; ID
// survives moves. PadPitch is set for pads and for containers reached
// through a pad segment; WholePad marks a pad target with no explicit
// container index, which widens move semantics to every container
// sharing the pitch.
type Target struct {
	Address  string
	ID       string
	Kind     Kind
	Path     string
	PadPitch int
	WholePad bool
}

// Resolve walks a compact path against the live graph. Absent nodes
// report ErrNotFound; bad syntax reports ErrMalformedPath.
func Resolve(g Graph, path string) (Target, error) {
	segments, err := ParseSegments(path)
	if err != nil {
		return Target{}, err
	}
	return ResolveSegments(g, segments)
}

// ResolveSegments resolves an already tokenized path. Positional
// segments translate directly into native address steps; a pad segment
// switches to pitch lookup, and segments after it recurse relative to
// the matched pad.
func ResolveSegments(g Graph, segments []Segment) (Target, error) {
	var t Target
	addr := ""
	kind := KindUnknown
	inPad := false
	padDevice := ""
	for i, seg := range segments {
		switch seg.Domain {
		case DomainTrack:
			addr = childAddr(SetRoot, ChildTracks, seg.Index)
			kind = KindTrack
		case DomainReturnTrack:
			addr = childAddr(SetRoot, ChildReturnTracks, seg.Index)
			kind = KindReturnTrack
		case DomainMasterTrack:
			addr = SetRoot + " master_track"
			kind = KindMasterTrack
		case DomainDevice:
			addr = childAddr(addr, ChildDevices, seg.Index)
			kind = KindDevice
			inPad = false
		case DomainChain:
			if inPad {
				chains, err := chainsForPitch(g, padDevice, t.PadPitch)
				if err != nil {
					return Target{}, err
				}
				if seg.Index >= len(chains) {
					return Target{}, fmt.Errorf("pad %s on %s has %d containers, index %d: %w", pitchToken(t.PadPitch), padDevice, len(chains), seg.Index, ErrNotFound)
				}
				addr = chains[seg.Index]
				kind = KindDrumChain
				inPad = false
				continue
			}
			addr = childAddr(addr, ChildChains, seg.Index)
			kind = KindChain
		case DomainReturnChain:
			addr = childAddr(addr, ChildReturnChains, seg.Index)
			kind = KindReturnChain
		case DomainPad:
			// Traversal through a pad only needs the pitch; the pad node
			// itself is looked up when the pad is the target, which the
			// unassigned pseudo-pad never is since no node carries it.
			padDevice = addr
			t.PadPitch = seg.Pitch
			inPad = true
			if i == len(segments)-1 {
				padAddr, err := findPad(g, addr, seg.Pitch)
				if err != nil {
					return Target{}, err
				}
				addr = padAddr
				kind = KindPad
				t.WholePad = true
			}
			continue
		}
		if !g.Exists(addr) {
			return Target{}, fmt.Errorf("no %v at %s: %w", kind, addr, ErrNotFound)
		}
	}
	// The graph distinguishes racks from simple devices; trust its
	// classification over the segment domain for the final node.
	if actual, err := g.Kind(addr); err == nil && actual != KindUnknown {
		kind = actual
	}
	t.Address = addr
	t.Kind = kind
	t.Path = FormatPath(segments)
	if id, err := g.ID(addr); err == nil {
		t.ID = id
	}
	return t, nil
}

// ResolveID locates a node by its stable identifier and reconstructs
// its compact path so the result is re-addressable.
func ResolveID(g Graph, id string) (Target, error) {
	addr, err := g.Address(id)
	if err != nil {
		return Target{}, fmt.Errorf("id %q: %w", id, ErrNotFound)
	}
	path, err := PathForAddress(g, addr)
	if err != nil {
		return Target{}, err
	}
	return Resolve(g, path)
}

// chainsForPitch lists a device's chains whose input pitch matches, in
// positional order. This is the pad's container list without requiring
// a pad node, so it also serves the unassigned sentinel.
func chainsForPitch(g Graph, deviceAddr string, pitch int) ([]string, error) {
	chains, err := g.Children(deviceAddr, ChildChains)
	if err != nil {
		return nil, fmt.Errorf("%s has no containers: %w", deviceAddr, ErrNotFound)
	}
	var matched []string
	for _, chain := range chains {
		note, err := getInt(g, chain, "note")
		if err == nil && note == pitch {
			matched = append(matched, chain)
		}
	}
	return matched, nil
}

// findPad scans a device's pad collection for the pad whose note
// matches the requested pitch. Pad counts never exceed 128, so a
// linear scan is fine and no index structure is kept.
func findPad(g Graph, deviceAddr string, pitch int) (string, error) {
	pads, err := g.Children(deviceAddr, ChildDrumPads)
	if err != nil {
		return "", fmt.Errorf("%s has no pads: %w", deviceAddr, ErrNotFound)
	}
	for _, pad := range pads {
		note, err := getInt(g, pad, "note")
		if err != nil {
			continue
		}
		if note == pitch {
			return pad, nil
		}
	}
	return "", fmt.Errorf("no pad with pitch %s on %s: %w", NoteName(pitch), deviceAddr, ErrNotFound)
}

// PathForAddress translates a native address back into compact path
// syntax. Containers of a drum rack come back in pad-relative form
// (pC1/c0 rather than a bare chain index), so round trips through
// stable IDs keep the pitch-keyed spelling.
func PathForAddress(g Graph, addr string) (string, error) {
	fields := strings.Fields(addr)
	if len(fields) == 0 || fields[0] != SetRoot {
		return "", fmt.Errorf("address %q is not under %s: %w", addr, SetRoot, ErrNotFound)
	}
	var parts []string
	cur := SetRoot
	i := 1
	for i < len(fields) {
		collection := fields[i]
		if collection == "master_track" {
			parts = append(parts, "mt")
			cur += " master_track"
			i++
			continue
		}
		if i+1 >= len(fields) {
			return "", fmt.Errorf("address %q truncated after %q: %w", addr, collection, ErrNotFound)
		}
		index, err := strconv.Atoi(fields[i+1])
		if err != nil {
			return "", fmt.Errorf("address %q has non-numeric index %q: %w", addr, fields[i+1], ErrNotFound)
		}
		child := childAddr(cur, collection, index)
		switch collection {
		case ChildTracks:
			parts = append(parts, fmt.Sprintf("t%d", index))
		case ChildReturnTracks:
			parts = append(parts, fmt.Sprintf("rt%d", index))
		case ChildDevices:
			parts = append(parts, fmt.Sprintf("d%d", index))
		case ChildReturnChains:
			parts = append(parts, fmt.Sprintf("rc%d", index))
		case ChildChains:
			if kind, err := g.Kind(child); err == nil && kind == KindDrumChain {
				pitch, perr := getInt(g, child, "note")
				if perr != nil {
					return "", perr
				}
				padIndex, perr := padRelativeIndex(g, cur, pitch, child)
				if perr != nil {
					return "", perr
				}
				parts = append(parts, pitchToken(pitch), fmt.Sprintf("c%d", padIndex))
			} else {
				parts = append(parts, fmt.Sprintf("c%d", index))
			}
		case ChildDrumPads:
			pitch, perr := getInt(g, child, "note")
			if perr != nil {
				return "", perr
			}
			parts = append(parts, pitchToken(pitch))
		default:
			return "", fmt.Errorf("address %q has unknown collection %q: %w", addr, collection, ErrNotFound)
		}
		cur = child
		i += 2
	}
	return strings.Join(parts, "/"), nil
}

// pitchToken renders a pad selector, spelling the unassigned sentinel
// as the wildcard.
func pitchToken(pitch int) string {
	if pitch == PitchUnassigned {
		return "p*"
	}
	return "p" + NoteName(pitch)
}

// padRelativeIndex finds a chain's index within the pad that shares its
// pitch, i.e. its position among the device's chains with that note.
func padRelativeIndex(g Graph, deviceAddr string, pitch int, chainAddr string) (int, error) {
	chains, err := g.Children(deviceAddr, ChildChains)
	if err != nil {
		return 0, err
	}
	index := 0
	for _, chain := range chains {
		if chain == chainAddr {
			return index, nil
		}
		note, err := getInt(g, chain, "note")
		if err == nil && note == pitch {
			index++
		}
	}
	return 0, fmt.Errorf("chain %s not under device %s: %w", chainAddr, deviceAddr, ErrNotFound)
}
