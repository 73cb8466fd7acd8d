package scan

import (
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/outline/internal/lang"
	"github.com/phobologic/outline/internal/model"
)

const resultType = "ParseStrChunkResult"

type prefixGroup struct {
	at       uint32
	line     int
	prefixes []string
	body     *sitter.Node
}

// markerImpls finds ParseStrChunkResult impl blocks under a top-level
// declaration and records the prefix groups of their conditionals.
func (f *fileScan) markerImpls(n *sitter.Node) error {
	impls, err := f.pats.markerImpl.All(n, f.source)
	if err != nil {
		return f.wrap(err)
	}
	for _, impl := range impls {
		if err := f.prefixGroups(impl.Body); err != nil {
			return err
		}
	}
	return nil
}

func (f *fileScan) prefixGroups(body *sitter.Node) error {
	var groups []prefixGroup

	many, err := f.pats.stripMany.All(body, f.source)
	if err != nil {
		return f.wrap(err)
	}
	for _, m := range many {
		var prefixes []string
		for i := 0; i < int(m.Prefixes.NamedChildCount()); i++ {
			lit := m.Prefixes.NamedChild(i)
			if lit.Type() != "string_literal" {
				continue
			}
			prefixes = append(prefixes, f.literal(lit))
		}
		groups = append(groups, prefixGroup{at: m.Cond.StartByte(), line: lang.Line(m.Cond), prefixes: prefixes, body: m.Body})
	}

	one, err := f.pats.stripOne.All(body, f.source)
	if err != nil {
		return f.wrap(err)
	}
	for _, m := range one {
		groups = append(groups, prefixGroup{at: m.Cond.StartByte(), line: lang.Line(m.Cond), prefixes: []string{f.text(m.Prefix)}, body: m.Body})
	}

	sort.SliceStable(groups, func(i, j int) bool { return groups[i].at < groups[j].at })

	for _, g := range groups {
		if err := f.classify(g); err != nil {
			return err
		}
	}
	return nil
}

// literal returns the contents of a string literal without its quotes.
func (f *fileScan) literal(n *sitter.Node) string {
	s := f.text(n)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// classify finds what a prefix group's branch constructs and records the
// group against that identifier. Constructions in the branch must agree on
// Endpoint versus Overlay; the first one names the identifier. Branches
// without a recognisable construction are dropped with a warning.
func (f *fileScan) classify(g prefixGroup) error {
	res, ok, err := pick(f, f.pats.result, g.body)
	if err != nil {
		return f.wrap(err)
	}
	if !ok {
		f.drop(g, "branch does not construct "+resultType+"::Endpoint or "+resultType+"::Overlay")
		return nil
	}

	variant := strings.TrimPrefix(f.text(res.Variant), resultType+"::")
	target := res.Content
	if variant == overlayEnum {
		fld, ok, err := pick(f, f.pats.overlayField, res.Content)
		if err != nil {
			return f.wrap(err)
		}
		if !ok {
			f.drop(g, "overlay construction has no ovl field")
			return nil
		}
		target = fld.Value
	}

	nm, ok, err := pick(f, f.pats.constructName, target)
	if err != nil {
		return f.wrap(err)
	}
	if !ok {
		f.drop(g, "cannot find the constructed "+strings.ToLower(variant)+" name")
		return nil
	}

	mapping := model.PrefixMapping{Name: f.text(nm.Name), Prefixes: g.prefixes}
	switch variant {
	case endpointEnum:
		f.out.EndpointPrefixes = append(f.out.EndpointPrefixes, mapping)
	case overlayEnum:
		f.out.OverlayPrefixes = append(f.out.OverlayPrefixes, mapping)
	}
	return nil
}

func (f *fileScan) drop(g prefixGroup, reason string) {
	f.log.WithFields(logrus.Fields{
		"file":     f.path,
		"line":     g.line,
		"prefixes": g.prefixes,
	}).Warn("dropping prefix group: " + reason)
}
