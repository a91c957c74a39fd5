package pal

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an addressable node in the session graph.
type Kind int

const (
	KindUnknown Kind = iota
	KindTrack
	KindReturnTrack
	KindMasterTrack
	KindDevice
	KindRack
	KindChain
	KindReturnChain
	KindDrumChain
	KindPad
	KindParameter
)

// kindNames are the type strings used in serialized responses.
var kindNames = map[Kind]string{
	KindUnknown:     "unknown",
	KindTrack:       "track",
	KindReturnTrack: "return-track",
	KindMasterTrack: "master-track",
	KindDevice:      "device",
	KindRack:        "rack",
	KindChain:       "container",
	KindReturnChain: "return-container",
	KindDrumChain:   "drum-container",
	KindPad:         "pad",
	KindParameter:   "parameter",
}

func (k Kind) String() string { return kindNames[k] }

// Device roles, as reported by the "role" property of a device node.
const (
	RoleInstrument  = "instrument"
	RoleAudioEffect = "audio_effect"
	RoleMidiEffect  = "midi_effect"
)

// Child collection names understood by Graph.Children. These mirror the
// host's own positional addressing: the address of the i:th child is
// always parent + " " + collection + " " + i, except for drum pad
// chains, which keep their device-level chain addresses.
const (
	ChildTracks       = "tracks"
	ChildReturnTracks = "return_tracks"
	ChildDevices      = "devices"
	ChildChains       = "chains"
	ChildReturnChains = "return_chains"
	ChildDrumPads     = "drum_pads"
	ChildParameters   = "parameters"
)

// Actions invocable through Graph.Call. CreateDevice, CreateChain,
// CreateTrack and MoveDevice return the native address of the node they
// created or moved. StrForValue is the per-parameter stringify
// capability; it must be a pure function of the raw value (see the
// purity note on Graph). RawForDisplay is the optional inverse.
const (
	ActionStrForValue   = "str_for_value"
	ActionRawForDisplay = "raw_for_display"
	ActionCreateDevice  = "create_device"
	ActionCreateChain   = "create_chain"
	ActionCreateTrack   = "create_track"
	ActionDeleteTrack   = "delete_track"
	ActionMoveDevice    = "move_device"
)

// Rack device type names accepted by ActionCreateDevice.
const (
	DeviceTypeInstrumentRack  = "instrument_rack"
	DeviceTypeAudioEffectRack = "audio_effect_rack"
	DeviceTypeMidiEffectRack  = "midi_effect_rack"
	DeviceTypeDrumRack        = "drum_rack"
)

// SetRoot is the native address of the session root.
const SetRoot = "live_set"

// PitchUnassigned is the out-of-band input pitch of a drum container
// that is not mapped to any pad. The wildcard pad selector "p*"
// addresses this value.
const PitchUnassigned = -1

// DecibelFloor is the raw decibel value that "-inf dB" labels decode
// to; the host clamps faders to this floor rather than using a true
// negative infinity.
const DecibelFloor = -70.0

var (
	// ErrNotFound reports a syntactically valid address for which no
	// node exists. Batch callers tolerate it per target.
	ErrNotFound = errors.New("target not found")

	// ErrMalformedPath reports bad path or pitch syntax; it always
	// aborts the call it occurs in.
	ErrMalformedPath = errors.New("malformed path")

	// ErrNotApplicable reports a property or action that is valid in
	// general but meaningless for the node it was applied to.
	ErrNotApplicable = errors.New("not applicable")

	// ErrNoMatch reports a display value that could not be matched to
	// any raw value; the parameter is left unchanged.
	ErrNoMatch = errors.New("no matching value")
)

// Graph is the capability interface to the live session graph. All
// calls are synchronous and act on current state; the host serializes
// access, so no locking happens here. Implementations must keep
// ActionStrForValue pure: the label may depend only on the raw value
// passed in, as value classification probes it and would otherwise
// flicker between calls.
type Graph interface {
	// Exists tells whether a node exists at the native address.
	Exists(addr string) bool
	// Kind classifies the node at addr.
	Kind(addr string) (Kind, error)
	// ID returns the stable identifier of the node at addr. Stable IDs
	// are opaque, unique and survive structural moves.
	ID(addr string) (string, error)
	// Address returns the current native address for a stable ID.
	Address(id string) (string, error)
	// Get reads a named property.
	Get(addr, prop string) (any, error)
	// Set writes a named property.
	Set(addr, prop string, value any) error
	// Call invokes a named action, returning its result if any.
	Call(addr, action string, args ...any) (any, error)
	// Children lists the native addresses of the typed children of a
	// node, in positional order.
	Children(addr, collection string) ([]string, error)
}

// Parameter is a snapshot of one device parameter, loaded from the
// graph. Stringify is the owning device's own raw-to-label conversion;
// no static per-parameter table exists, so all display semantics are
// inferred from it transiently on every read or write.
type Parameter struct {
	Addr      string
	Name      string
	Value     float64
	Min       float64
	Max       float64
	Quantized bool
	Labels    []string
	Stringify func(raw float64) string
}

// LoadParameter reads a parameter node into a Parameter snapshot. The
// Stringify closure calls back into the graph, so labels always
// reflect the device's current conversion.
func LoadParameter(g Graph, addr string) (*Parameter, error) {
	kind, err := g.Kind(addr)
	if err != nil {
		return nil, err
	}
	if kind != KindParameter {
		return nil, fmt.Errorf("%s is a %v, not a parameter: %w", addr, kind, ErrNotApplicable)
	}
	p := &Parameter{Addr: addr}
	if p.Name, err = getString(g, addr, "name"); err != nil {
		return nil, err
	}
	if p.Value, err = getFloat(g, addr, "value"); err != nil {
		return nil, err
	}
	if p.Min, err = getFloat(g, addr, "min"); err != nil {
		return nil, err
	}
	if p.Max, err = getFloat(g, addr, "max"); err != nil {
		return nil, err
	}
	if quantized, err := g.Get(addr, "is_quantized"); err == nil {
		p.Quantized, _ = quantized.(bool)
	}
	if p.Quantized {
		items, err := g.Get(addr, "value_items")
		if err != nil {
			return nil, fmt.Errorf("quantized parameter %s has no value_items: %v", addr, err)
		}
		p.Labels = toStrings(items)
	}
	p.Stringify = func(raw float64) string {
		label, err := g.Call(addr, ActionStrForValue, raw)
		if err != nil {
			return ""
		}
		s, _ := label.(string)
		return s
	}
	return p, nil
}

func getString(g Graph, addr, prop string) (string, error) {
	v, err := g.Get(addr, prop)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("property %s of %s is not a string", prop, addr)
	}
	return s, nil
}

func getFloat(g Graph, addr, prop string) (float64, error) {
	v, err := g.Get(addr, prop)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	}
	return 0, fmt.Errorf("property %s of %s is not numeric", prop, addr)
}

func getInt(g Graph, addr, prop string) (int, error) {
	f, err := getFloat(g, addr, prop)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

func toStrings(v any) []string {
	switch items := v.(type) {
	case []string:
		return items
	case []any:
		ret := make([]string, 0, len(items))
		for _, item := range items {
			ret = append(ret, fmt.Sprint(item))
		}
		return ret
	}
	return nil
}

// childAddr builds the native address of the i:th entry of a child
// collection.
func childAddr(parent, collection string, index int) string {
	return fmt.Sprintf("%s %s %d", parent, collection, index)
}

// parentAddr strips the trailing collection+index pair from a native
// address, returning the parent address, the collection name and the
// index. The master track has no index component.
func parentAddr(addr string) (parent, collection string, index int, ok bool) {
	fields := strings.Fields(addr)
	if len(fields) < 3 {
		return "", "", 0, false
	}
	last := fields[len(fields)-1]
	if _, err := fmt.Sscanf(last, "%d", &index); err != nil {
		return "", "", 0, false
	}
	collection = fields[len(fields)-2]
	parent = strings.Join(fields[:len(fields)-2], " ")
	return parent, collection, index, true
}
