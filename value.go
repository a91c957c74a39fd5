package pal

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// The value codec infers a parameter's display semantics by probing its
// own stringify capability; no static per-parameter-type table exists.
// Classification is a prioritized strategy list evaluated in fixed
// order, first match wins. Later strategies are conservative rather
// than mutually exclusive with earlier ones, so the order matters.
type valueStrategy struct {
	name string
	// probe tells whether this strategy applies to the parameter and
	// caller value combination.
	probe func(p *Parameter, caller any) bool
	// encode converts the caller value to a raw value. Errors leave
	// the parameter untouched.
	encode func(g Graph, p *Parameter, caller any) (float64, error)
}

var valueStrategies = []valueStrategy{
	{name: "enum", probe: probeEnum, encode: encodeEnum},
	{name: "pitch", probe: probePitch, encode: encodePitch},
	{name: "pan", probe: probePan, encode: encodePan},
	{name: "division", probe: probeDivision, encode: encodeDivision},
	{name: "numeric", probe: probeNumeric, encode: encodeNumeric},
}

// SetParameterValue writes a caller-supplied display value to a
// parameter, converting it to the parameter's raw representation. The
// caller value may be a number or a string (an enum label, a pitch
// name, a rhythmic division label, or a unit-qualified number). On any
// failure the raw value is left unchanged; there is no partial
// mutation.
func SetParameterValue(g Graph, addr string, caller any) error {
	p, err := LoadParameter(g, addr)
	if err != nil {
		return err
	}
	for _, s := range valueStrategies {
		if !s.probe(p, caller) {
			continue
		}
		raw, err := s.encode(g, p, caller)
		if err != nil {
			return fmt.Errorf("parameter %s (%s): %w", p.Name, s.name, err)
		}
		return g.Set(addr, "value", raw)
	}
	return fmt.Errorf("parameter %s: cannot interpret %v: %w", p.Name, caller, ErrNoMatch)
}

// ParamInfo is the serializable description of a parameter. Fields
// keep the default-suppression contract: State is omitted when the
// parameter is active, Automation when none, Min/Max when quantized
// (Options carries the labels instead), and DisplayValue when it
// string-equals the raw value and so adds no information.
type ParamInfo struct {
	Name         string   `yaml:"name,omitempty" json:"name,omitempty"`
	Value        float64  `yaml:"value" json:"value"`
	DisplayValue string   `yaml:"displayValue,omitempty" json:"displayValue,omitempty"`
	Unit         string   `yaml:"unit,omitempty" json:"unit,omitempty"`
	Options      []string `yaml:"options,omitempty" json:"options,omitempty"`
	Min          *float64 `yaml:"min,omitempty" json:"min,omitempty"`
	Max          *float64 `yaml:"max,omitempty" json:"max,omitempty"`
	State        string   `yaml:"state,omitempty" json:"state,omitempty"`
	Automation   string   `yaml:"automation,omitempty" json:"automation,omitempty"`
}

// DescribeParameter reads a parameter into its display description.
func DescribeParameter(g Graph, addr string) (ParamInfo, error) {
	p, err := LoadParameter(g, addr)
	if err != nil {
		return ParamInfo{}, err
	}
	info := ParamInfo{Name: p.Name, Value: p.Value}
	if label := p.Stringify(p.Value); label != "" && label != formatRaw(p.Value) {
		info.DisplayValue = label
		if _, unit, ok := parseDisplay(label); ok && unit != "" {
			info.Unit = unit
		}
	}
	if p.Quantized {
		info.Options = p.Labels
	} else {
		min, max := p.Min, p.Max
		info.Min = &min
		info.Max = &max
	}
	if state, err := getString(g, addr, "state"); err == nil && state != "active" {
		info.State = state
	}
	if automation, err := getString(g, addr, "automation_state"); err == nil && automation != "none" {
		info.Automation = automation
	}
	return info, nil
}

// enum: quantized parameter addressed by label. The raw value of a
// quantized parameter is its label's position.

func probeEnum(p *Parameter, caller any) bool {
	_, isString := caller.(string)
	return p.Quantized && isString
}

func encodeEnum(g Graph, p *Parameter, caller any) (float64, error) {
	want := caller.(string)
	for i, label := range p.Labels {
		if label == want {
			return float64(i), nil
		}
	}
	for i, label := range p.Labels {
		if strings.EqualFold(label, want) {
			return float64(i), nil
		}
	}
	return 0, fmt.Errorf("%q is not one of %v: %w", want, p.Labels, ErrNoMatch)
}

// pitch: a caller string in pitch-name syntax. The raw value of a
// pitch-typed parameter is the MIDI note number itself, so no further
// conversion happens.

func probePitch(p *Parameter, caller any) bool {
	s, isString := caller.(string)
	if !isString {
		return false
	}
	_, ok := NoteNumber(s)
	return ok
}

func encodePitch(g Graph, p *Parameter, caller any) (float64, error) {
	num, _ := NoteNumber(caller.(string))
	if float64(num) < p.Min || float64(num) > p.Max {
		return 0, fmt.Errorf("pitch %s is outside [%v, %v]: %w", caller, p.Min, p.Max, ErrNoMatch)
	}
	return float64(num), nil
}

// pan: classified by probing the label of the current raw value
// against the pan vocabulary. Caller values are bipolar [-1, 1].

func probePan(p *Parameter, caller any) bool {
	if _, ok := toNumber(caller); !ok {
		return false
	}
	return !p.Quantized && isPanLabel(p.Stringify(p.Value))
}

func encodePan(g Graph, p *Parameter, caller any) (float64, error) {
	v, _ := toNumber(caller)
	if v < -1 || v > 1 {
		return 0, fmt.Errorf("pan value %v is outside [-1, 1]: %w", v, ErrNoMatch)
	}
	return (v+1)/2*(p.Max-p.Min) + p.Min, nil
}

// isPanLabel recognizes the center/left/right vocabulary: "C",
// "Center", "50L", "L50", "25R" and the like.
func isPanLabel(label string) bool {
	label = strings.TrimSpace(label)
	if label == "" {
		return false
	}
	if strings.EqualFold(label, "C") || strings.EqualFold(label, "Center") {
		return true
	}
	first, last := label[0], label[len(label)-1]
	if first == 'L' || first == 'R' {
		return allDigits(label[1:])
	}
	if last == 'L' || last == 'R' {
		return allDigits(label[:len(label)-1])
	}
	return false
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// division: classified by probing the label at the raw minimum (and
// the current value) against a fraction pattern such as "1/8" or "1".
// No closed-form inverse exists, so setting by label scans every
// integer raw value in range, probing the label at each candidate.
// The scan is bounded by the parameter range and always terminates.

func probeDivision(p *Parameter, caller any) bool {
	if _, isString := caller.(string); !isString || p.Quantized {
		return false
	}
	return isDivisionLabel(p.Stringify(math.Min(p.Min, p.Max))) || isDivisionLabel(p.Stringify(p.Value))
}

func encodeDivision(g Graph, p *Parameter, caller any) (float64, error) {
	want := normalizeLabel(caller.(string))
	lo := int(math.Ceil(math.Min(p.Min, p.Max)))
	hi := int(math.Floor(math.Max(p.Min, p.Max)))
	for raw := lo; raw <= hi; raw++ {
		if normalizeLabel(p.Stringify(float64(raw))) == want {
			return float64(raw), nil
		}
	}
	return 0, fmt.Errorf("no raw value in [%d, %d] displays as %q: %w", lo, hi, caller, ErrNoMatch)
}

// isDivisionLabel matches "1", "1/8", "1/16T", "1/4 dotted" and
// similar fraction-like spellings.
func isDivisionLabel(label string) bool {
	label = normalizeLabel(label)
	label = strings.TrimSuffix(strings.TrimSuffix(label, "t"), "d")
	label = strings.TrimSuffix(strings.TrimSuffix(label, "triplet"), "dotted")
	num, den, found := strings.Cut(label, "/")
	if !found {
		return allDigits(label)
	}
	return allDigits(num) && allDigits(den)
}

// normalizeLabel lowers case and strips spaces so label comparison
// survives cosmetic differences.
func normalizeLabel(label string) string {
	return strings.ToLower(strings.ReplaceAll(label, " ", ""))
}

// numeric: the default. The caller supplies the display value; the
// owning device's raw_for_display capability converts it when exposed,
// otherwise the value is taken as raw. Unit-qualified strings such as
// "120 Hz" or "-inf dB" are split into magnitude and unit first.

func probeNumeric(p *Parameter, caller any) bool {
	if _, ok := toNumber(caller); ok {
		return true
	}
	s, isString := caller.(string)
	if !isString {
		return false
	}
	_, _, ok := parseDisplay(s)
	return ok
}

func encodeNumeric(g Graph, p *Parameter, caller any) (float64, error) {
	display, ok := toNumber(caller)
	if !ok {
		display, _, ok = parseDisplay(caller.(string))
		if !ok {
			return 0, fmt.Errorf("%v is not numeric: %w", caller, ErrNoMatch)
		}
	}
	if raw, err := g.Call(p.Addr, ActionRawForDisplay, display); err == nil {
		if f, isFloat := raw.(float64); isFloat {
			return f, nil
		}
	}
	// Device exposes only forward stringify; take the value as raw,
	// clamped to the parameter range.
	return math.Max(math.Min(display, math.Max(p.Min, p.Max)), math.Min(p.Min, p.Max)), nil
}

// parseDisplay splits a display label into a numeric magnitude and a
// trailing unit, e.g. "120 Hz" into 120 and "Hz". "-inf dB" decodes to
// the decibel floor sentinel rather than a literal negative infinity.
func parseDisplay(label string) (magnitude float64, unit string, ok bool) {
	label = strings.TrimSpace(label)
	if strings.HasPrefix(strings.ToLower(label), "-inf") {
		return DecibelFloor, strings.TrimSpace(label[4:]), true
	}
	end := 0
	for end < len(label) {
		c := label[end]
		if (c >= '0' && c <= '9') || c == '.' || ((c == '-' || c == '+') && end == 0) {
			end++
			continue
		}
		break
	}
	magnitude, err := strconv.ParseFloat(label[:end], 64)
	if err != nil {
		return 0, "", false
	}
	return magnitude, strings.TrimSpace(label[end:]), true
}

func toNumber(v any) (float64, bool) {
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

// formatRaw renders a raw value the way a bare number would marshal,
// used to detect display values that add no information.
func formatRaw(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
