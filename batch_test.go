package pal_test

import (
	"errors"
	"testing"

	pal "github.com/adamjmurray/producer-pal-sub006"
)

func TestExpandTargets(t *testing.T) {
	g := loadSession(t)
	outcomes := pal.ExpandTargets(g, " t0/d0 , t9/d0, t0/x1 ,t1/d0")
	if len(outcomes) != 4 {
		t.Fatalf("got %d outcomes, want 4", len(outcomes))
	}
	if outcomes[0].Err != nil || outcomes[0].Target.Address != "live_set tracks 0 devices 0" {
		t.Errorf("outcome 0 = %+v", outcomes[0])
	}
	if !errors.Is(outcomes[1].Err, pal.ErrNotFound) {
		t.Errorf("outcome 1 error = %v, want ErrNotFound", outcomes[1].Err)
	}
	if !errors.Is(outcomes[2].Err, pal.ErrMalformedPath) {
		t.Errorf("outcome 2 error = %v, want ErrMalformedPath", outcomes[2].Err)
	}
	if outcomes[3].Err != nil || outcomes[3].Target.Address != "live_set tracks 1 devices 0" {
		t.Errorf("outcome 3 = %+v", outcomes[3])
	}
}

// Items are tried as stable IDs before path syntax, so opaque IDs can
// be mixed freely with paths in one batch.
func TestExpandTargetsStableID(t *testing.T) {
	g := loadSession(t)
	device, err := pal.Resolve(g, "t1/d0")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	outcomes := pal.ExpandTargets(g, device.ID+",t2/d0")
	if len(outcomes) != 2 {
		t.Fatalf("got %d outcomes, want 2", len(outcomes))
	}
	if outcomes[0].Err != nil || outcomes[0].Target.Address != device.Address {
		t.Errorf("outcome 0 = %+v", outcomes[0])
	}
	if outcomes[0].Target.Path != "t1/d0" {
		t.Errorf("outcome 0 path = %q, want t1/d0", outcomes[0].Target.Path)
	}
}

func TestCollapseResults(t *testing.T) {
	if got := pal.CollapseResults(nil); len(got.([]any)) != 0 {
		t.Errorf("CollapseResults(nil) = %v, want empty list", got)
	}
	if got := pal.CollapseResults([]any{"a"}); got != "a" {
		t.Errorf("CollapseResults one = %v, want bare payload", got)
	}
	got, ok := pal.CollapseResults([]any{"a", "b"}).([]any)
	if !ok || len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("CollapseResults two = %v, want list in order", got)
	}
}
