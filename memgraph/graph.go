// Package memgraph is an in-memory implementation of the pal.Graph
// capability interface. It backs the test suite and the CLI's offline
// mode, behaving like a live session host: positional native
// addresses, opaque stable IDs that survive moves, typed children and
// per-parameter stringify functions.
package memgraph

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	pal "github.com/adamjmurray/producer-pal-sub006"
)

type node struct {
	id         string
	kind       pal.Kind
	collection string // collection name within parent
	parent     *node
	props      map[string]any
	children   map[string][]*node

	// parameter capabilities
	strFn func(raw float64) string
	invFn func(display float64) float64
}

// Graph is an in-memory session graph. It is not safe for concurrent
// use; like the live host, it assumes callers are serialized.
type Graph struct {
	root *node
	byID map[string]*node
}

// New creates an empty session with a master track and no regular
// tracks.
func New() *Graph {
	g := &Graph{byID: map[string]*node{}}
	g.root = g.newNode(pal.KindUnknown, nil, "")
	master := g.newNode(pal.KindMasterTrack, g.root, "master_track")
	master.props["name"] = "Master"
	g.root.children["master_track"] = []*node{master}
	return g
}

func (g *Graph) newNode(kind pal.Kind, parent *node, collection string) *node {
	n := &node{
		id:         uuid.NewString(),
		kind:       kind,
		collection: collection,
		parent:     parent,
		props:      map[string]any{},
		children:   map[string][]*node{},
	}
	g.byID[n.id] = n
	return n
}

// Exists implements pal.Graph.
func (g *Graph) Exists(addr string) bool { return g.lookup(addr) != nil }

// Kind implements pal.Graph.
func (g *Graph) Kind(addr string) (pal.Kind, error) {
	n := g.lookup(addr)
	if n == nil {
		return pal.KindUnknown, fmt.Errorf("no node at %s: %w", addr, pal.ErrNotFound)
	}
	return n.kind, nil
}

// ID implements pal.Graph.
func (g *Graph) ID(addr string) (string, error) {
	n := g.lookup(addr)
	if n == nil {
		return "", fmt.Errorf("no node at %s: %w", addr, pal.ErrNotFound)
	}
	return n.id, nil
}

// Address implements pal.Graph.
func (g *Graph) Address(id string) (string, error) {
	n, ok := g.byID[id]
	if !ok {
		return "", fmt.Errorf("no node with id %s: %w", id, pal.ErrNotFound)
	}
	return g.addrOf(n), nil
}

// Get implements pal.Graph.
func (g *Graph) Get(addr, prop string) (any, error) {
	n := g.lookup(addr)
	if n == nil {
		return nil, fmt.Errorf("no node at %s: %w", addr, pal.ErrNotFound)
	}
	v, ok := n.props[prop]
	if !ok {
		return nil, fmt.Errorf("%v has no property %s: %w", n.kind, prop, pal.ErrNotApplicable)
	}
	return v, nil
}

// Set implements pal.Graph. Only properties the node already carries
// can be written; anything else is not applicable to its kind.
func (g *Graph) Set(addr, prop string, value any) error {
	n := g.lookup(addr)
	if n == nil {
		return fmt.Errorf("no node at %s: %w", addr, pal.ErrNotFound)
	}
	if _, ok := n.props[prop]; !ok {
		return fmt.Errorf("%v has no property %s: %w", n.kind, prop, pal.ErrNotApplicable)
	}
	if prop == "value" && n.kind == pal.KindParameter {
		f, ok := toFloat(value)
		if !ok {
			return fmt.Errorf("parameter value %v is not numeric: %w", value, pal.ErrNotApplicable)
		}
		n.props[prop] = f
		return nil
	}
	n.props[prop] = value
	if prop == "note" && n.kind == pal.KindDrumChain && n.parent != nil {
		g.refreshPads(n.parent)
	}
	return nil
}

// Children implements pal.Graph. A pad's chain children are the parent
// device's chains sharing the pad's note, reported under their
// device-level addresses.
func (g *Graph) Children(addr, collection string) ([]string, error) {
	n := g.lookup(addr)
	if n == nil {
		return nil, fmt.Errorf("no node at %s: %w", addr, pal.ErrNotFound)
	}
	if n.kind == pal.KindPad && collection == pal.ChildChains {
		note, _ := n.props["note"].(int)
		var addrs []string
		for _, chain := range n.parent.children[pal.ChildChains] {
			if chainNote, ok := chain.props["note"].(int); ok && chainNote == note {
				addrs = append(addrs, g.addrOf(chain))
			}
		}
		return addrs, nil
	}
	if collection == pal.ChildDrumPads {
		g.refreshPads(n)
	}
	list, ok := n.children[collection]
	if !ok {
		return nil, fmt.Errorf("%v has no %s: %w", n.kind, collection, pal.ErrNotApplicable)
	}
	addrs := make([]string, len(list))
	for i, child := range list {
		addrs[i] = g.addrOf(child)
	}
	return addrs, nil
}

// Call implements pal.Graph.
func (g *Graph) Call(addr, action string, args ...any) (any, error) {
	n := g.lookup(addr)
	if n == nil {
		return nil, fmt.Errorf("no node at %s: %w", addr, pal.ErrNotFound)
	}
	switch action {
	case pal.ActionStrForValue:
		if n.strFn == nil {
			return nil, fmt.Errorf("%v has no stringify: %w", n.kind, pal.ErrNotApplicable)
		}
		raw, ok := toFloat(argAt(args, 0))
		if !ok {
			return nil, fmt.Errorf("str_for_value needs a numeric argument: %w", pal.ErrNotApplicable)
		}
		return n.strFn(raw), nil
	case pal.ActionRawForDisplay:
		if n.invFn == nil {
			return nil, fmt.Errorf("%v has no display conversion: %w", n.kind, pal.ErrNotApplicable)
		}
		display, ok := toFloat(argAt(args, 0))
		if !ok {
			return nil, fmt.Errorf("raw_for_display needs a numeric argument: %w", pal.ErrNotApplicable)
		}
		return n.invFn(display), nil
	case pal.ActionCreateTrack:
		return g.createTrack(n, args)
	case pal.ActionDeleteTrack:
		return nil, g.deleteTrack(n, args)
	case pal.ActionCreateDevice:
		return g.createDevice(n, args)
	case pal.ActionCreateChain:
		return g.createChain(n)
	case pal.ActionMoveDevice:
		return g.moveDevice(args)
	}
	return nil, fmt.Errorf("unknown action %s: %w", action, pal.ErrNotApplicable)
}

func (g *Graph) createTrack(n *node, args []any) (string, error) {
	if n != g.root {
		return "", fmt.Errorf("tracks are created on %s: %w", pal.SetRoot, pal.ErrNotApplicable)
	}
	index, ok := toInt(argAt(args, 0))
	if !ok {
		return "", fmt.Errorf("create_track needs an index: %w", pal.ErrNotApplicable)
	}
	track := g.newNode(pal.KindTrack, g.root, pal.ChildTracks)
	track.props["name"] = fmt.Sprintf("%d Track", index+1)
	track.props["mute"] = false
	track.props["solo"] = false
	track.children[pal.ChildDevices] = nil
	g.root.children[pal.ChildTracks] = insertNode(g.root.children[pal.ChildTracks], track, index)
	return g.addrOf(track), nil
}

func (g *Graph) deleteTrack(n *node, args []any) error {
	if n != g.root {
		return fmt.Errorf("tracks are deleted on %s: %w", pal.SetRoot, pal.ErrNotApplicable)
	}
	index, ok := toInt(argAt(args, 0))
	tracks := g.root.children[pal.ChildTracks]
	if !ok || index < 0 || index >= len(tracks) {
		return fmt.Errorf("no track %v: %w", argAt(args, 0), pal.ErrNotFound)
	}
	g.removeSubtree(tracks[index])
	g.root.children[pal.ChildTracks] = append(tracks[:index], tracks[index+1:]...)
	return nil
}

func (g *Graph) createDevice(n *node, args []any) (string, error) {
	if n.kind != pal.KindTrack && n.kind != pal.KindReturnTrack && n.kind != pal.KindMasterTrack &&
		n.kind != pal.KindChain && n.kind != pal.KindReturnChain && n.kind != pal.KindDrumChain {
		return "", fmt.Errorf("%v cannot hold devices: %w", n.kind, pal.ErrNotApplicable)
	}
	deviceType, _ := argAt(args, 0).(string)
	index, ok := toInt(argAt(args, 1))
	if deviceType == "" || !ok {
		return "", fmt.Errorf("create_device needs a type and index: %w", pal.ErrNotApplicable)
	}
	// The host refuses to create an instrument rack next to an
	// existing instrument; callers work around it with a temporary
	// track, so the same restriction applies here.
	if deviceType == pal.DeviceTypeInstrumentRack {
		for _, sibling := range n.children[pal.ChildDevices] {
			if sibling.props["role"] == pal.RoleInstrument {
				return "", fmt.Errorf("cannot create an instrument rack beside an instrument: %w", pal.ErrNotApplicable)
			}
		}
	}
	kind := pal.KindDevice
	role := deviceType
	switch deviceType {
	case pal.DeviceTypeInstrumentRack, pal.DeviceTypeDrumRack:
		kind, role = pal.KindRack, pal.RoleInstrument
	case pal.DeviceTypeAudioEffectRack:
		kind, role = pal.KindRack, pal.RoleAudioEffect
	case pal.DeviceTypeMidiEffectRack:
		kind, role = pal.KindRack, pal.RoleMidiEffect
	}
	device := g.newNode(kind, n, pal.ChildDevices)
	device.props["name"] = deviceType
	device.props["role"] = role
	device.props["device_type"] = deviceType
	if kind == pal.KindRack {
		device.children[pal.ChildChains] = nil
	}
	if index < 0 || index > len(n.children[pal.ChildDevices]) {
		index = len(n.children[pal.ChildDevices])
	}
	n.children[pal.ChildDevices] = insertNode(n.children[pal.ChildDevices], device, index)
	return g.addrOf(device), nil
}

func (g *Graph) createChain(n *node) (string, error) {
	if n.kind != pal.KindRack {
		return "", fmt.Errorf("%v cannot hold containers: %w", n.kind, pal.ErrNotApplicable)
	}
	kind := pal.KindChain
	drum := n.props["device_type"] == pal.DeviceTypeDrumRack
	if drum {
		kind = pal.KindDrumChain
	}
	chain := g.newNode(kind, n, pal.ChildChains)
	chain.props["name"] = fmt.Sprintf("Chain %d", len(n.children[pal.ChildChains])+1)
	chain.props["mute"] = false
	chain.props["solo"] = false
	chain.children[pal.ChildDevices] = nil
	if drum {
		chain.props["note"] = pal.PitchUnassigned
	}
	n.children[pal.ChildChains] = append(n.children[pal.ChildChains], chain)
	if drum {
		g.refreshPads(n)
	}
	return g.addrOf(chain), nil
}

func (g *Graph) moveDevice(args []any) (string, error) {
	fromAddr, _ := argAt(args, 0).(string)
	destAddr, _ := argAt(args, 1).(string)
	index, ok := toInt(argAt(args, 2))
	device := g.lookup(fromAddr)
	dest := g.lookup(destAddr)
	if device == nil || dest == nil || !ok {
		return "", fmt.Errorf("move_device %v: %w", args, pal.ErrNotFound)
	}
	if device.kind != pal.KindDevice && device.kind != pal.KindRack {
		return "", fmt.Errorf("%s is not a device: %w", fromAddr, pal.ErrNotApplicable)
	}
	if _, ok := dest.children[pal.ChildDevices]; !ok && dest.kind != pal.KindTrack && dest.kind != pal.KindChain {
		return "", fmt.Errorf("%s cannot hold devices: %w", destAddr, pal.ErrNotApplicable)
	}
	g.detach(device)
	if index < 0 || index > len(dest.children[pal.ChildDevices]) {
		index = len(dest.children[pal.ChildDevices])
	}
	device.parent = dest
	device.collection = pal.ChildDevices
	dest.children[pal.ChildDevices] = insertNode(dest.children[pal.ChildDevices], device, index)
	return g.addrOf(device), nil
}

func (g *Graph) detach(n *node) {
	siblings := n.parent.children[n.collection]
	for i, sibling := range siblings {
		if sibling == n {
			n.parent.children[n.collection] = append(siblings[:i], siblings[i+1:]...)
			return
		}
	}
}

func (g *Graph) removeSubtree(n *node) {
	delete(g.byID, n.id)
	for _, list := range n.children {
		for _, child := range list {
			g.removeSubtree(child)
		}
	}
}

// refreshPads rebuilds a drum rack's pad list from its chains: one pad
// per distinct assigned note, ordered by pitch. Pads keep their node
// identity (and stable ID) across refreshes as long as some chain
// still carries their note.
func (g *Graph) refreshPads(device *node) {
	if device.props["device_type"] != pal.DeviceTypeDrumRack {
		return
	}
	existing := map[int]*node{}
	for _, pad := range device.children[pal.ChildDrumPads] {
		if note, ok := pad.props["note"].(int); ok {
			existing[note] = pad
		}
	}
	notes := map[int]bool{}
	for _, chain := range device.children[pal.ChildChains] {
		if note, ok := chain.props["note"].(int); ok && note != pal.PitchUnassigned {
			notes[note] = true
		}
	}
	sorted := make([]int, 0, len(notes))
	for note := range notes {
		sorted = append(sorted, note)
	}
	sort.Ints(sorted)
	pads := make([]*node, 0, len(sorted))
	for _, note := range sorted {
		pad := existing[note]
		if pad == nil {
			pad = g.newNode(pal.KindPad, device, pal.ChildDrumPads)
			pad.props["note"] = note
			pad.props["name"] = pal.NoteName(note)
		}
		pads = append(pads, pad)
	}
	for note, pad := range existing {
		if !notes[note] {
			delete(g.byID, pad.id)
		}
	}
	device.children[pal.ChildDrumPads] = pads
}

func (g *Graph) addrOf(n *node) string {
	if n == g.root {
		return pal.SetRoot
	}
	if n.collection == "master_track" {
		return g.addrOf(n.parent) + " master_track"
	}
	siblings := n.parent.children[n.collection]
	for i, sibling := range siblings {
		if sibling == n {
			return fmt.Sprintf("%s %s %d", g.addrOf(n.parent), n.collection, i)
		}
	}
	return ""
}

func (g *Graph) lookup(addr string) *node {
	fields := strings.Fields(addr)
	if len(fields) == 0 || fields[0] != pal.SetRoot {
		return nil
	}
	n := g.root
	i := 1
	for i < len(fields) {
		collection := fields[i]
		if collection == "master_track" {
			list := n.children["master_track"]
			if len(list) == 0 {
				return nil
			}
			n = list[0]
			i++
			continue
		}
		if i+1 >= len(fields) {
			return nil
		}
		index, err := strconv.Atoi(fields[i+1])
		if err != nil {
			return nil
		}
		if collection == pal.ChildDrumPads {
			g.refreshPads(n)
		}
		list, ok := n.children[collection]
		if !ok || index < 0 || index >= len(list) {
			return nil
		}
		n = list[index]
		i += 2
	}
	return n
}

func insertNode(list []*node, n *node, index int) []*node {
	list = append(list, nil)
	copy(list[index+1:], list[index:])
	list[index] = n
	return list
}

func argAt(args []any, i int) any {
	if i < len(args) {
		return args[i]
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}

func toInt(v any) (int, bool) {
	f, ok := toFloat(v)
	return int(f), ok
}
