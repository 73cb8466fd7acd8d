package merge

import (
	"fmt"
	"strings"

	"github.com/phobologic/outline/internal/model"
)

// Policy decides what happens when several files declare the same function,
// endpoint or overlay.
type Policy string

const (
	Keep  Policy = "keep"  // retain every declaration
	First Policy = "first" // retain the first in visiting order
	Last  Policy = "last"  // retain the last in visiting order
	Error Policy = "error" // fail the merge
)

// ParsePolicy validates a policy name. An empty name selects Keep.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return Keep, nil
	case Keep, First, Last, Error:
		return p, nil
	default:
		return "", fmt.Errorf("unknown duplicate policy %q (want keep, first, last or error)", s)
	}
}

// DuplicateError reports a name declared more than once under the Error
// policy.
type DuplicateError struct {
	Kind  string
	Name  string
	Files []string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate %s %q declared in %s", e.Kind, e.Name, strings.Join(e.Files, ", "))
}

// Dedupe applies p to o's functions, endpoints and overlays. Prefix mappings
// are never deduplicated: groups for one identifier from several files are
// all retained. The registration entry point may legitimately appear in
// several files and is always kept.
func Dedupe(o *model.Outline, p Policy) (*model.Outline, error) {
	if p == Keep || p == "" {
		return o, nil
	}

	fns, err := dedupe(p, "function", o.Functions,
		func(f model.Function) string { return f.Name },
		func(f model.Function) string { return f.File },
		func(f model.Function) bool { return f.Name == model.RegistrationEntryPoint })
	if err != nil {
		return nil, err
	}
	identName := func(d model.DocumentedIdent) string { return d.Ident }
	identFile := func(d model.DocumentedIdent) string { return d.File }
	never := func(model.DocumentedIdent) bool { return false }
	eps, err := dedupe(p, "endpoint", o.Endpoints, identName, identFile, never)
	if err != nil {
		return nil, err
	}
	ovs, err := dedupe(p, "overlay", o.Overlays, identName, identFile, never)
	if err != nil {
		return nil, err
	}

	return &model.Outline{
		Functions:        fns,
		Endpoints:        eps,
		Overlays:         ovs,
		EndpointPrefixes: o.EndpointPrefixes,
		OverlayPrefixes:  o.OverlayPrefixes,
	}, nil
}

func dedupe[T any](p Policy, kind string, items []T, name, file func(T) string, exempt func(T) bool) ([]T, error) {
	byName := make(map[string][]int)
	for i, it := range items {
		if exempt(it) {
			continue
		}
		byName[name(it)] = append(byName[name(it)], i)
	}

	drop := make(map[int]struct{})
	for i, it := range items {
		idx := byName[name(it)]
		if exempt(it) || len(idx) < 2 || idx[0] != i {
			continue
		}
		switch p {
		case Error:
			err := &DuplicateError{Kind: kind, Name: name(it)}
			for _, j := range idx {
				err.Files = append(err.Files, file(items[j]))
			}
			return nil, err
		case First:
			for _, j := range idx[1:] {
				drop[j] = struct{}{}
			}
		case Last:
			for _, j := range idx[:len(idx)-1] {
				drop[j] = struct{}{}
			}
		}
	}
	if len(drop) == 0 {
		return items, nil
	}

	kept := make([]T, 0, len(items)-len(drop))
	for i, it := range items {
		if _, ok := drop[i]; !ok {
			kept = append(kept, it)
		}
	}
	return kept, nil
}
