// Package query runs tree-sitter queries and decodes every match into a typed
// record. Record fields are bound to capture names with a struct tag:
//
//	type registration struct {
//		Callee   *sitter.Node `capture:"callee,advisory"`
//		Public   *sitter.Node `capture:"public"`
//		Internal *sitter.Node `capture:"internal"`
//	}
//
// A *sitter.Node field accepts exactly one node per match; a []*sitter.Node
// field accepts any number. Options after the capture name:
//
//   - advisory: the capture only drives predicates and is ignored when
//     deciding whether two matches agree.
//   - outer: matches whose node for this capture lies strictly inside the
//     node of another match are discarded, leaving the outermost ones.
package query

import (
	"fmt"
	"reflect"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/outline/internal/lang"
)

var (
	nodeType  = reflect.TypeOf((*sitter.Node)(nil))
	nodesType = reflect.TypeOf([]*sitter.Node(nil))
)

// Pattern is a compiled query whose matches decode into T.
type Pattern[T any] struct {
	Name   string
	query  *sitter.Query
	fields []field
	byID   map[uint32]int
	outer  int
}

type field struct {
	index    int
	capture  string
	many     bool
	advisory bool
	outer    bool
}

// Compile parses src for language l and binds its captures to T's fields.
// Every capture in the query must be bound, and every tagged field must name
// a capture that exists.
func Compile[T any](name string, src []byte, l *sitter.Language) (*Pattern[T], error) {
	q, err := sitter.NewQuery(src, l)
	if err != nil {
		return nil, fmt.Errorf("compiling query %s: %w", name, err)
	}
	p := &Pattern[T]{Name: name, query: q, byID: make(map[uint32]int), outer: -1}
	if err := p.bind(reflect.TypeOf((*T)(nil)).Elem()); err != nil {
		q.Close()
		return nil, fmt.Errorf("query %s: %w", name, err)
	}
	return p, nil
}

// MustCompile is like Compile but panics on error. It is meant for queries
// embedded in the binary.
func MustCompile[T any](name string, src []byte, l *sitter.Language) *Pattern[T] {
	p, err := Compile[T](name, src, l)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Pattern[T]) bind(rt reflect.Type) error {
	if rt.Kind() != reflect.Struct {
		return fmt.Errorf("record type %s is not a struct", rt)
	}

	ids := make(map[string]uint32)
	for i := uint32(0); i < p.query.CaptureCount(); i++ {
		ids[p.query.CaptureNameForId(i)] = i
	}

	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		tag, ok := sf.Tag.Lookup("capture")
		if !ok {
			continue
		}
		parts := strings.Split(tag, ",")
		f := field{index: i, capture: parts[0]}
		for _, opt := range parts[1:] {
			switch opt {
			case "advisory":
				f.advisory = true
			case "outer":
				f.outer = true
			default:
				return fmt.Errorf("field %s: unknown capture option %q", sf.Name, opt)
			}
		}
		switch sf.Type {
		case nodeType:
		case nodesType:
			f.many = true
		default:
			return fmt.Errorf("field %s: type %s cannot hold a capture", sf.Name, sf.Type)
		}
		if f.outer {
			if f.many {
				return fmt.Errorf("field %s: outer capture must be a single node", sf.Name)
			}
			if p.outer >= 0 {
				return fmt.Errorf("field %s: only one outer capture is allowed", sf.Name)
			}
			p.outer = len(p.fields)
		}
		id, ok := ids[f.capture]
		if !ok {
			return fmt.Errorf("field %s: query has no capture @%s", sf.Name, f.capture)
		}
		p.byID[id] = len(p.fields)
		p.fields = append(p.fields, f)
	}

	for name, id := range ids {
		if _, ok := p.byID[id]; !ok {
			return fmt.Errorf("capture @%s is not bound to a field", name)
		}
	}
	return nil
}

// Close releases the compiled query.
func (p *Pattern[T]) Close() {
	p.query.Close()
}

type match[T any] struct {
	value T
	nodes [][]*sitter.Node
}

// All returns every match under node in document order. Matches rejected by
// predicates are skipped and, for patterns with an outer capture, only the
// outermost matches are kept.
func (p *Pattern[T]) All(node *sitter.Node, source []byte) ([]T, error) {
	ms, err := p.run(node, source)
	if err != nil {
		return nil, err
	}
	out := make([]T, len(ms))
	for i := range ms {
		out[i] = ms[i].value
	}
	return out, nil
}

// One returns the single semantically relevant match under node. Surviving
// matches must agree on every non-advisory capture, otherwise an
// *AmbiguityError is returned. ok is false when nothing matched.
func (p *Pattern[T]) One(node *sitter.Node, source []byte) (value T, ok bool, err error) {
	ms, err := p.run(node, source)
	if err != nil || len(ms) == 0 {
		return value, false, err
	}
	first := p.key(&ms[0], source)
	for i := 1; i < len(ms); i++ {
		if p.key(&ms[i], source) != first {
			return value, false, p.ambiguity(node, ms, source)
		}
	}
	return ms[0].value, true, nil
}

// First returns the first surviving match in document order without
// checking the others for agreement.
func (p *Pattern[T]) First(node *sitter.Node, source []byte) (value T, ok bool, err error) {
	ms, err := p.run(node, source)
	if err != nil || len(ms) == 0 {
		return value, false, err
	}
	return ms[0].value, true, nil
}

func (p *Pattern[T]) run(node *sitter.Node, source []byte) ([]match[T], error) {
	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(p.query, node)

	var ms []match[T]
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		m = qc.FilterPredicates(m, source)
		if len(m.Captures) == 0 {
			continue
		}
		d, err := p.decode(m, source)
		if err != nil {
			return nil, err
		}
		ms = append(ms, d)
	}
	return p.outermost(ms), nil
}

func (p *Pattern[T]) decode(m *sitter.QueryMatch, source []byte) (match[T], error) {
	d := match[T]{nodes: make([][]*sitter.Node, len(p.fields))}
	for _, c := range m.Captures {
		fi := p.byID[c.Index]
		seen := false
		for _, n := range d.nodes[fi] {
			if lang.SameSpan(n, c.Node) {
				seen = true
				break
			}
		}
		if !seen {
			d.nodes[fi] = append(d.nodes[fi], c.Node)
		}
	}

	rv := reflect.ValueOf(&d.value).Elem()
	for fi, f := range p.fields {
		nodes := d.nodes[fi]
		if len(nodes) == 0 {
			continue
		}
		if f.many {
			rv.Field(f.index).Set(reflect.ValueOf(nodes))
			continue
		}
		if len(nodes) > 1 {
			err := &CardinalityError{Pattern: p.Name, Capture: f.capture, Line: lang.Line(nodes[0])}
			for _, n := range nodes {
				err.Texts = append(err.Texts, lang.NodeText(n, source))
			}
			return d, err
		}
		rv.Field(f.index).Set(reflect.ValueOf(nodes[0]))
	}
	return d, nil
}

func (p *Pattern[T]) outermost(ms []match[T]) []match[T] {
	if p.outer < 0 || len(ms) < 2 {
		return ms
	}
	outerOf := func(m *match[T]) *sitter.Node {
		if ns := m.nodes[p.outer]; len(ns) > 0 {
			return ns[0]
		}
		return nil
	}
	var kept []match[T]
	for i := range ms {
		inner := outerOf(&ms[i])
		nested := false
		for j := range ms {
			other := outerOf(&ms[j])
			if i == j || inner == nil || other == nil {
				continue
			}
			if lang.Contains(other, inner) && !lang.SameSpan(other, inner) {
				nested = true
				break
			}
		}
		if !nested {
			kept = append(kept, ms[i])
		}
	}
	return kept
}

// key is the text of every non-advisory capture; two matches agree when
// their keys are equal.
func (p *Pattern[T]) key(m *match[T], source []byte) string {
	var b strings.Builder
	for fi, f := range p.fields {
		if f.advisory {
			continue
		}
		b.WriteString(f.capture)
		b.WriteByte('=')
		for _, n := range m.nodes[fi] {
			b.WriteString(lang.NodeText(n, source))
			b.WriteByte(0)
		}
		b.WriteByte(1)
	}
	return b.String()
}

func (p *Pattern[T]) ambiguity(scope *sitter.Node, ms []match[T], source []byte) error {
	err := &AmbiguityError{Pattern: p.Name, Line: lang.Line(scope)}
	for i := range ms {
		err.Candidates = append(err.Candidates, p.describe(&ms[i], source))
	}
	return err
}

func (p *Pattern[T]) describe(m *match[T], source []byte) string {
	var parts []string
	line := 0
	for fi, f := range p.fields {
		if f.advisory {
			continue
		}
		for _, n := range m.nodes[fi] {
			if line == 0 {
				line = lang.Line(n)
			}
			parts = append(parts, fmt.Sprintf("@%s=%q", f.capture, lang.CollapseWhitespace(lang.NodeText(n, source))))
		}
	}
	return fmt.Sprintf("line %d: %s", line, strings.Join(parts, " "))
}
