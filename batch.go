package pal

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// Outcome is the per-target result of a batch expansion. Exactly one
// of Target and Err is meaningful; failed targets are recorded and
// skipped, never aborting the batch.
type Outcome struct {
	Input  string
	Target Target
	Err    error
}

// ExpandTargets splits a comma-separated list of stable IDs and compact
// paths and resolves each item independently, in input order. Each item
// is tried as a stable ID first and as a path second, so opaque IDs
// never collide with path syntax. Resolution failures are logged and
// recorded in the outcome; processing always continues with the
// remaining items. There is no rollback: this is a best-effort batch,
// not a transaction.
func ExpandTargets(g Graph, commaList string) []Outcome {
	var outcomes []Outcome
	for _, item := range strings.Split(commaList, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		target, err := resolveOne(g, item)
		if err != nil {
			logrus.WithFields(logrus.Fields{"target": item, "error": err}).Warn("skipping unresolved batch target")
		}
		outcomes = append(outcomes, Outcome{Input: item, Target: target, Err: err})
	}
	return outcomes
}

func resolveOne(g Graph, item string) (Target, error) {
	if _, err := g.Address(item); err == nil {
		return ResolveID(g, item)
	}
	return Resolve(g, item)
}

// CollapseResults shapes per-target payloads for the caller: no
// successes yield an empty list, a single success yields the bare
// payload unwrapped, and two or more yield the payloads as a list in
// input order. Callers depend on this asymmetry, so it must not be
// regularized.
func CollapseResults(payloads []any) any {
	switch len(payloads) {
	case 0:
		return []any{}
	case 1:
		return payloads[0]
	}
	return payloads
}
