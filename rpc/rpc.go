// Package rpc serves a pal.Graph over net/rpc so the CLI can drive a
// session host in another process, and provides a client that itself
// implements pal.Graph.
package rpc

import (
	"encoding/gob"
	"errors"
	"fmt"
	"net"
	netrpc "net/rpc"

	pal "github.com/adamjmurray/producer-pal-sub006"
)

func init() {
	// Property and action values travel as interfaces; gob needs the
	// concrete types registered on both ends.
	gob.Register(float64(0))
	gob.Register(int(0))
	gob.Register(false)
	gob.Register("")
	gob.Register([]string(nil))
	gob.Register([]any(nil))
}

type (
	AddrArgs struct{ Addr string }
	IDArgs   struct{ ID string }
	PropArgs struct{ Addr, Prop string }
	SetArgs  struct {
		Addr, Prop string
		Value      any
	}
	CallArgs struct {
		Addr, Action string
		Args         []any
	}
	ChildrenArgs struct{ Addr, Collection string }

	// Result carries a value plus a transportable error. net/rpc
	// flattens errors to strings, so the sentinel kind travels
	// separately and the client re-wraps it for errors.Is.
	Result struct {
		Value   any
		ErrKind string
		ErrMsg  string
	}
)

const (
	errNone          = ""
	errNotFound      = "not-found"
	errMalformed     = "malformed"
	errNotApplicable = "not-applicable"
	errNoMatch       = "no-match"
	errOther         = "other"
)

func encodeErr(err error) (kind, msg string) {
	switch {
	case err == nil:
		return errNone, ""
	case errors.Is(err, pal.ErrNotFound):
		return errNotFound, err.Error()
	case errors.Is(err, pal.ErrMalformedPath):
		return errMalformed, err.Error()
	case errors.Is(err, pal.ErrNotApplicable):
		return errNotApplicable, err.Error()
	case errors.Is(err, pal.ErrNoMatch):
		return errNoMatch, err.Error()
	}
	return errOther, err.Error()
}

func decodeErr(kind, msg string) error {
	switch kind {
	case errNone:
		return nil
	case errNotFound:
		return fmt.Errorf("%s: %w", msg, pal.ErrNotFound)
	case errMalformed:
		return fmt.Errorf("%s: %w", msg, pal.ErrMalformedPath)
	case errNotApplicable:
		return fmt.Errorf("%s: %w", msg, pal.ErrNotApplicable)
	case errNoMatch:
		return fmt.Errorf("%s: %w", msg, pal.ErrNoMatch)
	}
	return errors.New(msg)
}

// GraphServer exposes a pal.Graph to net/rpc clients.
type GraphServer struct {
	graph pal.Graph
}

func (s *GraphServer) Exists(args AddrArgs, reply *bool) error {
	*reply = s.graph.Exists(args.Addr)
	return nil
}

func (s *GraphServer) Kind(args AddrArgs, reply *Result) error {
	kind, err := s.graph.Kind(args.Addr)
	reply.Value = int(kind)
	reply.ErrKind, reply.ErrMsg = encodeErr(err)
	return nil
}

func (s *GraphServer) ID(args AddrArgs, reply *Result) error {
	id, err := s.graph.ID(args.Addr)
	reply.Value = id
	reply.ErrKind, reply.ErrMsg = encodeErr(err)
	return nil
}

func (s *GraphServer) Address(args IDArgs, reply *Result) error {
	addr, err := s.graph.Address(args.ID)
	reply.Value = addr
	reply.ErrKind, reply.ErrMsg = encodeErr(err)
	return nil
}

func (s *GraphServer) Get(args PropArgs, reply *Result) error {
	value, err := s.graph.Get(args.Addr, args.Prop)
	reply.Value = value
	reply.ErrKind, reply.ErrMsg = encodeErr(err)
	return nil
}

func (s *GraphServer) Set(args SetArgs, reply *Result) error {
	err := s.graph.Set(args.Addr, args.Prop, args.Value)
	reply.ErrKind, reply.ErrMsg = encodeErr(err)
	return nil
}

func (s *GraphServer) Call(args CallArgs, reply *Result) error {
	value, err := s.graph.Call(args.Addr, args.Action, args.Args...)
	reply.Value = value
	reply.ErrKind, reply.ErrMsg = encodeErr(err)
	return nil
}

func (s *GraphServer) Children(args ChildrenArgs, reply *Result) error {
	children, err := s.graph.Children(args.Addr, args.Collection)
	reply.Value = children
	reply.ErrKind, reply.ErrMsg = encodeErr(err)
	return nil
}

// Serve listens on the given TCP address and serves the graph until
// the listener is closed. The listener is returned so callers control
// shutdown.
func Serve(g pal.Graph, listenAddr string) (net.Listener, error) {
	server := netrpc.NewServer()
	if err := server.RegisterName("Graph", &GraphServer{graph: g}); err != nil {
		return nil, fmt.Errorf("rpc register failed: %v", err)
	}
	l, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return nil, fmt.Errorf("net.Listen failed: %v", err)
	}
	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			go server.ServeConn(conn)
		}
	}()
	return l, nil
}

// Client is a pal.Graph backed by a remote GraphServer.
type Client struct {
	c *netrpc.Client
}

// Dial connects to a GraphServer at the given TCP address.
func Dial(serverAddr string) (*Client, error) {
	c, err := netrpc.Dial("tcp", serverAddr)
	if err != nil {
		return nil, fmt.Errorf("rpc.Dial failed: %v", err)
	}
	return &Client{c: c}, nil
}

func (c *Client) Close() error { return c.c.Close() }

func (c *Client) call(method string, args any) (any, error) {
	var result Result
	if err := c.c.Call(method, args, &result); err != nil {
		return nil, fmt.Errorf("%s: %v", method, err)
	}
	return result.Value, decodeErr(result.ErrKind, result.ErrMsg)
}

func (c *Client) Exists(addr string) bool {
	var ok bool
	if err := c.c.Call("Graph.Exists", AddrArgs{Addr: addr}, &ok); err != nil {
		return false
	}
	return ok
}

func (c *Client) Kind(addr string) (pal.Kind, error) {
	value, err := c.call("Graph.Kind", AddrArgs{Addr: addr})
	if err != nil {
		return pal.KindUnknown, err
	}
	kind, _ := value.(int)
	return pal.Kind(kind), nil
}

func (c *Client) ID(addr string) (string, error) {
	value, err := c.call("Graph.ID", AddrArgs{Addr: addr})
	if err != nil {
		return "", err
	}
	id, _ := value.(string)
	return id, nil
}

func (c *Client) Address(id string) (string, error) {
	value, err := c.call("Graph.Address", IDArgs{ID: id})
	if err != nil {
		return "", err
	}
	addr, _ := value.(string)
	return addr, nil
}

func (c *Client) Get(addr, prop string) (any, error) {
	return c.call("Graph.Get", PropArgs{Addr: addr, Prop: prop})
}

func (c *Client) Set(addr, prop string, value any) error {
	_, err := c.call("Graph.Set", SetArgs{Addr: addr, Prop: prop, Value: value})
	return err
}

func (c *Client) Call(addr, action string, args ...any) (any, error) {
	return c.call("Graph.Call", CallArgs{Addr: addr, Action: action, Args: args})
}

func (c *Client) Children(addr, collection string) ([]string, error) {
	value, err := c.call("Graph.Children", ChildrenArgs{Addr: addr, Collection: collection})
	if err != nil {
		return nil, err
	}
	children, _ := value.([]string)
	return children, nil
}
