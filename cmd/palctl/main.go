package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	pal "github.com/adamjmurray/producer-pal-sub006"
	"github.com/adamjmurray/producer-pal-sub006/gomidi"
	"github.com/adamjmurray/producer-pal-sub006/memgraph"
	"github.com/adamjmurray/producer-pal-sub006/rpc"
	"github.com/adamjmurray/producer-pal-sub006/version"
)

var (
	fixturePath  = flag.String("fixture", "", "Load the session graph from this YAML fixture file.")
	serverAddr   = flag.String("addr", "", "Connect to a session graph served at this TCP address instead of loading a fixture.")
	jsonOut      = flag.Bool("j", false, "Output results as JSON instead of YAML.")
	withDevices  = flag.Bool("devices", false, "Include devices when reading.")
	withChains   = flag.Bool("chains", false, "Include containers when reading.")
	withReturns  = flag.Bool("returns", false, "Include return containers when reading.")
	withPads     = flag.Bool("pads", false, "Include pads when reading.")
	withParams   = flag.Bool("params", false, "Include parameters when reading.")
	listenAddr   = flag.String("listen", "127.0.0.1:7373", "TCP address the serve command listens on.")
	midiPort     = flag.String("port", "", "MIDI output name prefix for the preview command; first port when empty.")
	previewMs    = flag.Int("dur", 250, "Preview note duration in milliseconds.")
	quiet        = flag.Bool("q", false, "Only log errors.")
	helpFlag     = flag.Bool("h", false, "Show help.")
	versionFlag  = flag.Bool("v", false, "Print version.")
)

func main() {
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.VersionOrHash)
		os.Exit(0)
	}
	if flag.NArg() == 0 || *helpFlag {
		flag.Usage()
		os.Exit(0)
	}
	if *quiet {
		logrus.SetLevel(logrus.ErrorLevel)
	}
	command := flag.Arg(0)
	args := flag.Args()[1:]
	if command == "preview" {
		if err := preview(args); err != nil {
			fmt.Fprintf(os.Stderr, "preview failed: %v\n", err)
			os.Exit(1)
		}
		return
	}
	g, closeGraph, err := openGraph()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer closeGraph()
	switch command {
	case "read":
		err = read(g, args)
	case "set":
		err = set(g, args)
	case "value":
		err = value(g, args)
	case "move":
		err = move(g, args)
	case "wrap":
		err = wrap(g, args)
	case "serve":
		err = serve(g)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", command)
		flag.Usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v failed: %v\n", command, err)
		os.Exit(1)
	}
}

func openGraph() (pal.Graph, func(), error) {
	switch {
	case *serverAddr != "":
		client, err := rpc.Dial(*serverAddr)
		if err != nil {
			return nil, nil, err
		}
		return client, func() { client.Close() }, nil
	case *fixturePath != "":
		g, err := memgraph.LoadFile(*fixturePath)
		if err != nil {
			return nil, nil, err
		}
		return g, func() {}, nil
	}
	return nil, nil, fmt.Errorf("no session graph: give -fixture or -addr")
}

func readOptions() pal.ReadOptions {
	return pal.ReadOptions{
		IncludeDevices:      *withDevices,
		IncludeChains:       *withChains,
		IncludeReturnChains: *withReturns,
		IncludePads:         *withPads,
		IncludeParameters:   *withParams,
	}
}

func read(g pal.Graph, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: read PATHS")
	}
	outcomes := pal.ExpandTargets(g, args[0])
	opts := readOptions()
	var payloads []any
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			continue
		}
		info, err := pal.ReadNode(g, outcome.Target, opts)
		if err != nil {
			return err
		}
		payloads = append(payloads, info)
	}
	return output(pal.CollapseResults(payloads))
}

func set(g pal.Graph, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: set PATHS prop=value ...")
	}
	props := map[string]any{}
	for _, arg := range args[1:] {
		name, raw, ok := strings.Cut(arg, "=")
		if !ok {
			return fmt.Errorf("property %q is not of the form prop=value", arg)
		}
		props[name] = parseScalar(raw)
	}
	var firstErr error
	for _, outcome := range pal.ExpandTargets(g, args[0]) {
		if outcome.Err != nil {
			continue
		}
		if err := pal.SetProperties(g, outcome.Target, props); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func value(g pal.Graph, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: value PATH PARAM-NAME VALUE")
	}
	target, err := pal.Resolve(g, args[0])
	if err != nil {
		return err
	}
	paramAddr, err := findParameter(g, target.Address, args[1])
	if err != nil {
		return err
	}
	if err := pal.SetParameterValue(g, paramAddr, parseScalar(args[2])); err != nil {
		return err
	}
	info, err := pal.DescribeParameter(g, paramAddr)
	if err != nil {
		return err
	}
	return output(info)
}

func findParameter(g pal.Graph, addr, name string) (string, error) {
	params, err := g.Children(addr, pal.ChildParameters)
	if err != nil {
		return "", fmt.Errorf("%s has no parameters: %w", addr, pal.ErrNotFound)
	}
	for _, param := range params {
		n, err := g.Get(param, "name")
		if err == nil && n == name {
			return param, nil
		}
	}
	return "", fmt.Errorf("no parameter named %q on %s: %w", name, addr, pal.ErrNotFound)
}

func move(g pal.Graph, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: move SRC-PATH DEST-PATH")
	}
	src, err := pal.Resolve(g, args[0])
	if err != nil {
		return err
	}
	if err := pal.MovePad(g, src, args[1]); err != nil {
		return err
	}
	// A whole-pad move retires the source pad node, so report the
	// destination. The unassigned pseudo-pad has no node to report.
	target, err := pal.Resolve(g, args[1])
	if err != nil {
		return nil
	}
	info, err := pal.ReadNode(g, target, readOptions())
	if err != nil {
		return err
	}
	return output(info)
}

func wrap(g pal.Graph, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: wrap PATHS")
	}
	var targets []pal.Target
	for _, outcome := range pal.ExpandTargets(g, args[0]) {
		if outcome.Err != nil {
			return fmt.Errorf("target %q: %v", outcome.Input, outcome.Err)
		}
		targets = append(targets, outcome.Target)
	}
	rack, err := pal.WrapInRack(g, targets)
	if err != nil {
		return err
	}
	opts := readOptions()
	opts.IncludeChains = true
	opts.IncludeDevices = true
	info, err := pal.ReadNode(g, rack, opts)
	if err != nil {
		return err
	}
	return output(info)
}

func serve(g pal.Graph) error {
	l, err := rpc.Serve(g, *listenAddr)
	if err != nil {
		return err
	}
	logrus.WithField("addr", l.Addr().String()).Info("serving session graph")
	select {} // runs until killed
}

func preview(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: preview PITCH-NAME")
	}
	pitch, ok := pal.NoteNumber(args[0])
	if !ok {
		return fmt.Errorf("invalid pitch name %q", args[0])
	}
	ctx := gomidi.NewContext()
	defer ctx.Close()
	if err := ctx.TryToOpenBy(*midiPort, *midiPort == ""); err != nil {
		return err
	}
	return ctx.Preview(0, uint8(pitch), 100, time.Duration(*previewMs)*time.Millisecond)
}

// parseScalar interprets a command line value the way the YAML fixtures
// would: bools and numbers become typed, everything else stays a string.
func parseScalar(raw string) any {
	switch raw {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return n
	}
	return raw
}

func output(payload any) error {
	if payload == nil {
		return nil
	}
	if *jsonOut {
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return fmt.Errorf("could not marshal result as json: %v", err)
		}
		fmt.Println(string(data))
		return nil
	}
	data, err := yaml.Marshal(payload)
	if err != nil {
		return fmt.Errorf("could not marshal result as yaml: %v", err)
	}
	fmt.Print(string(data))
	return nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Session graph addressing tool. Resolves compact paths against a live
session graph and reads, mutates, moves and wraps the nodes they name.
Usage: %s [flags] command [args]
Commands:
  read PATHS                 read nodes (comma separated paths or stable IDs)
  set PATHS prop=value ...   set node properties
  value PATH PARAM VALUE     set a device parameter from a display value
  move SRC DEST              move a pad or drum container to another pad
  wrap PATHS                 wrap devices into a new rack
  preview PITCH              audition a pitch on a MIDI output
  serve                      serve the -fixture graph over RPC
Flags:
`, os.Args[0])
	flag.PrintDefaults()
}
