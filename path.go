package pal

import (
	"fmt"
	"strconv"
	"strings"
)

// Domain tells which child space a path segment selects from.
type Domain int

const (
	DomainTrack Domain = iota
	DomainReturnTrack
	DomainMasterTrack
	DomainDevice
	DomainChain
	DomainReturnChain
	DomainPad
)

var domainNames = map[Domain]string{
	DomainTrack:       "track",
	DomainReturnTrack: "return-track",
	DomainMasterTrack: "master-track",
	DomainDevice:      "device",
	DomainChain:       "container",
	DomainReturnChain: "return-container",
	DomainPad:         "pad",
}

func (d Domain) String() string { return domainNames[d] }

// Segment is one token of a compact path. Pads select by pitch, all
// other domains by index; Wildcard marks the "p*" unassigned-pitch
// selector.
type Segment struct {
	Domain   Domain
	Index    int
	Pitch    int
	Wildcard bool
}

// String renders the segment back in compact path syntax.
func (s Segment) String() string {
	switch s.Domain {
	case DomainTrack:
		return fmt.Sprintf("t%d", s.Index)
	case DomainReturnTrack:
		return fmt.Sprintf("rt%d", s.Index)
	case DomainMasterTrack:
		return "mt"
	case DomainDevice:
		return fmt.Sprintf("d%d", s.Index)
	case DomainChain:
		return fmt.Sprintf("c%d", s.Index)
	case DomainReturnChain:
		return fmt.Sprintf("rc%d", s.Index)
	case DomainPad:
		if s.Wildcard {
			return "p*"
		}
		return "p" + NoteName(s.Pitch)
	}
	return ""
}

// ParseSegments tokenizes a compact path. The grammar is
//
//	path        := track-seg ('/' device-seg ( '/' container-or-pad-seg )* )?
//	track-seg   := 't' INDEX | 'rt' INDEX | 'mt'
//	device-seg  := 'd' INDEX
//	container-or-pad-seg := 'c' INDEX | 'rc' INDEX | 'p' PITCH | 'p' '*'
//
// with segments after a pad recursing into that pad's containers. All
// failures wrap ErrMalformedPath, since a bad path is a caller error
// rather than an absent node.
func ParseSegments(path string) ([]Segment, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("empty path: %w", ErrMalformedPath)
	}
	parts := strings.Split(path, "/")
	segments := make([]Segment, 0, len(parts))
	for i, part := range parts {
		seg, err := parseSegment(part, i == 0)
		if err != nil {
			return nil, fmt.Errorf("path %q: %v: %w", path, err, ErrMalformedPath)
		}
		segments = append(segments, seg)
	}
	return segments, validateSegments(path, segments)
}

func parseSegment(token string, first bool) (Segment, error) {
	if token == "" {
		return Segment{}, fmt.Errorf("empty segment")
	}
	if first {
		switch {
		case token == "mt":
			return Segment{Domain: DomainMasterTrack}, nil
		case strings.HasPrefix(token, "rt"):
			return indexSegment(DomainReturnTrack, token[2:], token)
		case token[0] == 't':
			return indexSegment(DomainTrack, token[1:], token)
		}
		return Segment{}, fmt.Errorf("path must start with a track segment, got %q", token)
	}
	switch {
	case token[0] == 'd':
		return indexSegment(DomainDevice, token[1:], token)
	case strings.HasPrefix(token, "rc"):
		return indexSegment(DomainReturnChain, token[2:], token)
	case token[0] == 'c':
		return indexSegment(DomainChain, token[1:], token)
	case token[0] == 'p':
		if token[1:] == "*" {
			return Segment{Domain: DomainPad, Pitch: PitchUnassigned, Wildcard: true}, nil
		}
		pitch, ok := NoteNumber(token[1:])
		if !ok {
			return Segment{}, fmt.Errorf("invalid pitch name %q", token[1:])
		}
		return Segment{Domain: DomainPad, Pitch: pitch}, nil
	}
	return Segment{}, fmt.Errorf("unknown segment %q", token)
}

func indexSegment(domain Domain, digits, token string) (Segment, error) {
	index, err := strconv.Atoi(digits)
	if err != nil || index < 0 {
		return Segment{}, fmt.Errorf("segment %q needs a non-negative index", token)
	}
	return Segment{Domain: domain, Index: index}, nil
}

// validateSegments enforces the structural rules the tokenizer itself
// cannot see: exactly one device segment must follow a track prefix
// before any container or pad segment is legal, and a path consisting
// of only a track segment addresses nothing.
func validateSegments(path string, segments []Segment) error {
	if len(segments) == 1 {
		return fmt.Errorf("path %q has only a track segment; a device index must follow: %w", path, ErrMalformedPath)
	}
	if segments[1].Domain != DomainDevice {
		return fmt.Errorf("path %q: expected a device segment after the track, got %q: %w", path, segments[1], ErrMalformedPath)
	}
	// Track past the second segment: containers and pads may follow a
	// device, and a device may follow a container.
	prev := segments[1].Domain
	for _, seg := range segments[2:] {
		switch seg.Domain {
		case DomainDevice:
			if prev != DomainChain && prev != DomainReturnChain {
				return fmt.Errorf("path %q: device segment must follow a container: %w", path, ErrMalformedPath)
			}
		case DomainChain, DomainReturnChain:
			if prev != DomainDevice && prev != DomainPad {
				return fmt.Errorf("path %q: container segment must follow a device or pad: %w", path, ErrMalformedPath)
			}
		case DomainPad:
			if prev != DomainDevice {
				return fmt.Errorf("path %q: pad segment must follow a device: %w", path, ErrMalformedPath)
			}
		default:
			return fmt.Errorf("path %q: segment %q not allowed here: %w", path, seg, ErrMalformedPath)
		}
		prev = seg.Domain
	}
	return nil
}

// FormatPath renders segments back into a compact path string.
func FormatPath(segments []Segment) string {
	parts := make([]string, len(segments))
	for i, seg := range segments {
		parts[i] = seg.String()
	}
	return strings.Join(parts, "/")
}
