package pal

import (
	"fmt"
)

// ReadOptions selects which descendant kinds ReadNode includes. All
// flags default to false; a read with no flags returns just the node
// itself.
type ReadOptions struct {
	IncludeDevices      bool
	IncludeChains       bool
	IncludeReturnChains bool
	IncludePads         bool
	IncludeParameters   bool
}

// NodeInfo is the serializable tree form of a node. Every child
// carries its own compact path, so results are independently
// re-addressable without re-resolving from the root. Zero-valued
// booleans like mute/solo and empty child lists are suppressed when
// marshaled.
type NodeInfo struct {
	ID           string      `yaml:"id" json:"id"`
	Path         string      `yaml:"path,omitempty" json:"path,omitempty"`
	Type         string      `yaml:"type" json:"type"`
	Name         string      `yaml:"name,omitempty" json:"name,omitempty"`
	Role         string      `yaml:"role,omitempty" json:"role,omitempty"`
	Mute         bool        `yaml:"mute,omitempty" json:"mute,omitempty"`
	Solo         bool        `yaml:"solo,omitempty" json:"solo,omitempty"`
	MappedPitch  string      `yaml:"mappedPitch,omitempty" json:"mappedPitch,omitempty"`
	Devices      []NodeInfo  `yaml:"devices,omitempty" json:"devices,omitempty"`
	Chains       []NodeInfo  `yaml:"chains,omitempty" json:"chains,omitempty"`
	ReturnChains []NodeInfo  `yaml:"returnChains,omitempty" json:"returnChains,omitempty"`
	Pads         []NodeInfo  `yaml:"pads,omitempty" json:"pads,omitempty"`
	Parameters   []ParamInfo `yaml:"parameters,omitempty" json:"parameters,omitempty"`
}

// ReadNode serializes a resolved target and its requested descendants.
func ReadNode(g Graph, t Target, opts ReadOptions) (NodeInfo, error) {
	return readNode(g, t.Address, t.Path, opts)
}

func readNode(g Graph, addr, path string, opts ReadOptions) (NodeInfo, error) {
	kind, err := g.Kind(addr)
	if err != nil {
		return NodeInfo{}, err
	}
	info := NodeInfo{Path: path, Type: kind.String()}
	if id, err := g.ID(addr); err == nil {
		info.ID = id
	}
	if name, err := getString(g, addr, "name"); err == nil {
		info.Name = name
	}
	if role, err := getString(g, addr, "role"); err == nil {
		info.Role = role
	}
	if mute, err := g.Get(addr, "mute"); err == nil {
		info.Mute, _ = mute.(bool)
	}
	if solo, err := g.Get(addr, "solo"); err == nil {
		info.Solo, _ = solo.(bool)
	}
	if kind == KindDrumChain || kind == KindPad {
		if note, err := getInt(g, addr, "note"); err == nil && note != PitchUnassigned {
			info.MappedPitch = NoteName(note)
		}
	}
	if opts.IncludeDevices {
		if info.Devices, err = readChildren(g, addr, ChildDevices, path, "d", opts); err != nil {
			return NodeInfo{}, err
		}
	}
	if opts.IncludeChains && kind != KindPad {
		if info.Chains, err = readChildren(g, addr, ChildChains, path, "c", opts); err != nil {
			return NodeInfo{}, err
		}
	}
	if opts.IncludeChains && kind == KindPad {
		if info.Chains, err = readPadChains(g, addr, path, opts); err != nil {
			return NodeInfo{}, err
		}
	}
	if opts.IncludeReturnChains {
		if info.ReturnChains, err = readChildren(g, addr, ChildReturnChains, path, "rc", opts); err != nil {
			return NodeInfo{}, err
		}
	}
	if opts.IncludePads {
		if info.Pads, err = readPads(g, addr, path, opts); err != nil {
			return NodeInfo{}, err
		}
	}
	if opts.IncludeParameters {
		if info.Parameters, err = readParameters(g, addr); err != nil {
			return NodeInfo{}, err
		}
	}
	return info, nil
}

func readChildren(g Graph, addr, collection, path, prefix string, opts ReadOptions) ([]NodeInfo, error) {
	children, err := g.Children(addr, collection)
	if err != nil {
		return nil, nil // collection not applicable to this kind
	}
	var infos []NodeInfo
	for i, child := range children {
		childPath := fmt.Sprintf("%s/%s%d", path, prefix, i)
		// Containers of a drum rack address by pad, not by device
		// chain index.
		if collection == ChildChains {
			if kind, err := g.Kind(child); err == nil && kind == KindDrumChain {
				pitch, perr := getInt(g, child, "note")
				padIndex, ierr := padRelativeIndex(g, addr, pitch, child)
				if perr == nil && ierr == nil {
					childPath = fmt.Sprintf("%s/%s/c%d", path, pitchToken(pitch), padIndex)
				}
			}
		}
		info, err := readNode(g, child, childPath, opts)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// readPadChains lists a pad's containers with pad-relative indices.
func readPadChains(g Graph, padAddr, path string, opts ReadOptions) ([]NodeInfo, error) {
	chains, err := g.Children(padAddr, ChildChains)
	if err != nil {
		return nil, nil
	}
	var infos []NodeInfo
	for i, chain := range chains {
		info, err := readNode(g, chain, fmt.Sprintf("%s/c%d", path, i), opts)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// readPads lists a drum rack's pads, addressed by pitch.
func readPads(g Graph, addr, path string, opts ReadOptions) ([]NodeInfo, error) {
	pads, err := g.Children(addr, ChildDrumPads)
	if err != nil {
		return nil, nil
	}
	var infos []NodeInfo
	for _, pad := range pads {
		pitch, err := getInt(g, pad, "note")
		if err != nil {
			continue
		}
		info, err := readNode(g, pad, fmt.Sprintf("%s/%s", path, pitchToken(pitch)), opts)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func readParameters(g Graph, addr string) ([]ParamInfo, error) {
	params, err := g.Children(addr, ChildParameters)
	if err != nil {
		return nil, nil
	}
	var infos []ParamInfo
	for _, param := range params {
		info, err := DescribeParameter(g, param)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// SetProperties applies named properties to one target. A property the
// node's kind cannot carry is reported and skipped; the remaining
// properties are still applied, and the first such error is returned
// after the loop completes.
func SetProperties(g Graph, t Target, props map[string]any) error {
	var firstErr error
	for name, value := range props {
		if err := g.Set(t.Address, name, value); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("property %s on %s: %w", name, t.Path, err)
			}
		}
	}
	return firstErr
}
