package memgraph

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	pal "github.com/adamjmurray/producer-pal-sub006"
)

// Fixture is the YAML session description loaded into a Graph. The
// display field of a parameter picks one of the stringify presets
// below, standing in for the conversion a real device would supply.
type Fixture struct {
	Tracks       []TrackSpec `yaml:"tracks"`
	ReturnTracks []TrackSpec `yaml:"returnTracks"`
}

type TrackSpec struct {
	Name    string       `yaml:"name"`
	Mute    bool         `yaml:"mute"`
	Solo    bool         `yaml:"solo"`
	Devices []DeviceSpec `yaml:"devices"`
	Params  []ParamSpec  `yaml:"params"` // mixer parameters (volume, pan)
}

type DeviceSpec struct {
	Name         string      `yaml:"name"`
	Role         string      `yaml:"role"`
	Rack         string      `yaml:"rack"` // empty for a simple device
	Chains       []ChainSpec `yaml:"chains"`
	ReturnChains []ChainSpec `yaml:"returnChains"`
	Params       []ParamSpec `yaml:"params"`
}

type ChainSpec struct {
	Name    string       `yaml:"name"`
	Note    string       `yaml:"note"` // pitch name, or "*" for unassigned; drum chains only
	Mute    bool         `yaml:"mute"`
	Solo    bool         `yaml:"solo"`
	Devices []DeviceSpec `yaml:"devices"`
}

type ParamSpec struct {
	Name       string   `yaml:"name"`
	Value      float64  `yaml:"value"`
	Min        float64  `yaml:"min"`
	Max        float64  `yaml:"max"`
	Quantized  bool     `yaml:"quantized"`
	Items      []string `yaml:"items,flow"`
	Display    string   `yaml:"display"` // preset: db, hz, pan, division, pitch, enum
	State      string   `yaml:"state"`
	Automation string   `yaml:"automation"`
}

// Load builds a Graph from YAML fixture data.
func Load(data []byte) (*Graph, error) {
	var fixture Fixture
	if err := yaml.Unmarshal(data, &fixture); err != nil {
		return nil, fmt.Errorf("fixture: %v", err)
	}
	g := New()
	for _, spec := range fixture.Tracks {
		track := g.newNode(pal.KindTrack, g.root, pal.ChildTracks)
		if err := g.fillTrack(track, spec); err != nil {
			return nil, err
		}
		g.root.children[pal.ChildTracks] = append(g.root.children[pal.ChildTracks], track)
	}
	for _, spec := range fixture.ReturnTracks {
		track := g.newNode(pal.KindReturnTrack, g.root, pal.ChildReturnTracks)
		if err := g.fillTrack(track, spec); err != nil {
			return nil, err
		}
		g.root.children[pal.ChildReturnTracks] = append(g.root.children[pal.ChildReturnTracks], track)
	}
	return g, nil
}

// LoadFile builds a Graph from a YAML fixture file.
func LoadFile(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fixture %s: %v", path, err)
	}
	return Load(data)
}

func (g *Graph) fillTrack(track *node, spec TrackSpec) error {
	track.props["name"] = spec.Name
	track.props["mute"] = spec.Mute
	track.props["solo"] = spec.Solo
	track.children[pal.ChildDevices] = nil
	for _, deviceSpec := range spec.Devices {
		device, err := g.buildDevice(track, deviceSpec)
		if err != nil {
			return err
		}
		track.children[pal.ChildDevices] = append(track.children[pal.ChildDevices], device)
	}
	track.children[pal.ChildParameters] = nil
	for _, paramSpec := range spec.Params {
		param, err := g.buildParam(track, paramSpec)
		if err != nil {
			return err
		}
		track.children[pal.ChildParameters] = append(track.children[pal.ChildParameters], param)
	}
	return nil
}

func (g *Graph) buildDevice(parent *node, spec DeviceSpec) (*node, error) {
	kind := pal.KindDevice
	if spec.Rack != "" {
		kind = pal.KindRack
	}
	device := g.newNode(kind, parent, pal.ChildDevices)
	device.props["name"] = spec.Name
	device.props["role"] = spec.Role
	if spec.Rack != "" {
		device.props["device_type"] = spec.Rack
		device.children[pal.ChildChains] = nil
		chainKind := pal.KindChain
		if spec.Rack == pal.DeviceTypeDrumRack {
			chainKind = pal.KindDrumChain
		}
		for _, chainSpec := range spec.Chains {
			chain, err := g.buildChain(device, chainKind, pal.ChildChains, chainSpec)
			if err != nil {
				return nil, err
			}
			device.children[pal.ChildChains] = append(device.children[pal.ChildChains], chain)
		}
		for _, chainSpec := range spec.ReturnChains {
			chain, err := g.buildChain(device, pal.KindReturnChain, pal.ChildReturnChains, chainSpec)
			if err != nil {
				return nil, err
			}
			device.children[pal.ChildReturnChains] = append(device.children[pal.ChildReturnChains], chain)
		}
		g.refreshPads(device)
	}
	device.children[pal.ChildParameters] = nil
	for _, paramSpec := range spec.Params {
		param, err := g.buildParam(device, paramSpec)
		if err != nil {
			return nil, err
		}
		device.children[pal.ChildParameters] = append(device.children[pal.ChildParameters], param)
	}
	return device, nil
}

func (g *Graph) buildChain(device *node, kind pal.Kind, collection string, spec ChainSpec) (*node, error) {
	chain := g.newNode(kind, device, collection)
	chain.props["name"] = spec.Name
	chain.props["mute"] = spec.Mute
	chain.props["solo"] = spec.Solo
	chain.children[pal.ChildDevices] = nil
	if kind == pal.KindDrumChain {
		note := pal.PitchUnassigned
		if spec.Note != "" && spec.Note != "*" {
			n, ok := pal.NoteNumber(spec.Note)
			if !ok {
				return nil, fmt.Errorf("fixture: chain %q has invalid note %q", spec.Name, spec.Note)
			}
			note = n
		}
		chain.props["note"] = note
	}
	for _, deviceSpec := range spec.Devices {
		device, err := g.buildDevice(chain, deviceSpec)
		if err != nil {
			return nil, err
		}
		chain.children[pal.ChildDevices] = append(chain.children[pal.ChildDevices], device)
	}
	return chain, nil
}

func (g *Graph) buildParam(device *node, spec ParamSpec) (*node, error) {
	param := g.newNode(pal.KindParameter, device, pal.ChildParameters)
	param.props["name"] = spec.Name
	param.props["value"] = spec.Value
	param.props["min"] = spec.Min
	param.props["max"] = spec.Max
	param.props["is_quantized"] = spec.Quantized
	if spec.Quantized {
		param.props["value_items"] = spec.Items
	}
	state := spec.State
	if state == "" {
		state = "active"
	}
	param.props["state"] = state
	automation := spec.Automation
	if automation == "" {
		automation = "none"
	}
	param.props["automation_state"] = automation
	strFn, invFn, err := displayPreset(spec)
	if err != nil {
		return nil, err
	}
	param.strFn = strFn
	param.invFn = invFn
	return param, nil
}

// displayPreset returns the stringify function (and inverse, when the
// preset has one) for a parameter spec. All presets are pure functions
// of the raw value, as the classification probing requires.
func displayPreset(spec ParamSpec) (func(float64) string, func(float64) float64, error) {
	switch spec.Display {
	case "":
		identity := func(v float64) float64 { return v }
		return func(raw float64) string { return trimFloat(raw) }, identity, nil
	case "hz":
		identity := func(v float64) float64 { return v }
		return func(raw float64) string { return trimFloat(raw) + " Hz" }, identity, nil
	case "db":
		return func(raw float64) string {
			if raw <= spec.Min {
				return "-inf dB"
			}
			return fmt.Sprintf("%.1f dB", raw)
		}, nil, nil
	case "pan":
		return func(raw float64) string {
			pos := int(math.Round((raw-spec.Min)/(spec.Max-spec.Min)*100)) - 50
			switch {
			case pos == 0:
				return "C"
			case pos < 0:
				return fmt.Sprintf("%dL", -pos)
			}
			return fmt.Sprintf("%dR", pos)
		}, nil, nil
	case "division":
		return func(raw float64) string {
			k := int(raw)
			if k < 0 || k > 6 || raw != math.Trunc(raw) {
				return ""
			}
			if k == 0 {
				return "1"
			}
			return fmt.Sprintf("1/%d", 1<<k)
		}, nil, nil
	case "pitch":
		return func(raw float64) string { return pal.NoteName(int(raw)) }, nil, nil
	case "enum":
		items := spec.Items
		return func(raw float64) string {
			i := int(raw)
			if i < 0 || i >= len(items) {
				return ""
			}
			return items[i]
		}, nil, nil
	}
	return nil, nil, fmt.Errorf("fixture: unknown display preset %q", spec.Display)
}

func trimFloat(v float64) string {
	return fmt.Sprintf("%g", v)
}
