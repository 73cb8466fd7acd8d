// Package scan extracts an outline from annotated Rust source: documented
// functions with their registrations, callbacks and options, the Endpoint and
// Overlay enums, and the prefixes that select each specifier.
package scan

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/outline/internal/lang"
	"github.com/phobologic/outline/internal/model"
	"github.com/phobologic/outline/internal/query"
)

// TaskHandle is the return type recorded for callback_and_continue bindings.
const TaskHandle = "Handle<Task>"

const (
	endpointEnum = "Endpoint"
	overlayEnum  = "Overlay"
)

// StructureError reports a declaration that does not have the shape the
// scanner relies on. No partial result from the file can be trusted.
type StructureError struct {
	File   string
	Line   int
	Decl   string
	Reason string
}

func (e *StructureError) Error() string {
	return fmt.Sprintf("%s:%d: %s: %s", e.File, e.Line, e.Decl, e.Reason)
}

// Options configures a Scanner.
type Options struct {
	// Lenient resolves disagreeing matches by taking the first one in
	// document order instead of failing with *query.AmbiguityError.
	Lenient bool
	Logger  logrus.FieldLogger
}

// Scanner extracts outlines from Rust files. It owns a parser and must not
// be used from several goroutines at once.
type Scanner struct {
	lang    *lang.Language
	parser  *sitter.Parser
	pats    *patterns
	lenient bool
	log     logrus.FieldLogger
}

// New creates a Scanner for Rust sources.
func New(opts Options) (*Scanner, error) {
	l := lang.Languages[lang.Rust]
	pats, err := getPatterns(l.GetLanguage())
	if err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Scanner{
		lang:    l,
		parser:  l.NewParser(),
		pats:    pats,
		lenient: opts.Lenient,
		log:     log,
	}, nil
}

// File extracts the outline fragment of one source file. path is used only
// for provenance and diagnostics.
func (s *Scanner) File(path string, source []byte) (*model.Outline, error) {
	out := &model.Outline{}
	if len(source) == 0 {
		return out, nil
	}

	tree, err := s.lang.Parse(s.parser, source)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	defer tree.Close()

	f := &fileScan{Scanner: s, path: path, source: source, out: out}
	if err := f.topLevel(tree.RootNode()); err != nil {
		return nil, err
	}
	return out, nil
}

type fileScan struct {
	*Scanner
	path   string
	source []byte
	out    *model.Outline
}

func (f *fileScan) text(n *sitter.Node) string {
	return lang.NodeText(n, f.source)
}

func (f *fileScan) structural(n *sitter.Node, decl, reason string) error {
	return &StructureError{File: f.path, Line: lang.Line(n), Decl: decl, Reason: reason}
}

func (f *fileScan) wrap(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", f.path, err)
}

// pick returns the single relevant match of p under n, honouring the
// scanner's ambiguity policy.
func pick[T any](f *fileScan, p *query.Pattern[T], n *sitter.Node) (T, bool, error) {
	if f.lenient {
		return p.First(n, f.source)
	}
	return p.One(n, f.source)
}

// topLevel walks the direct children of the file. Doc lines are handed to
// the declaration that follows them; any other declaration consumes and
// discards them.
func (f *fileScan) topLevel(root *sitter.Node) error {
	var acc Accumulator
	for i := 0; i < int(root.ChildCount()); i++ {
		c := root.Child(i)
		var err error
		switch c.Type() {
		case "line_comment":
			acc.Observe(f.text(c))
		case "block_comment", "attribute_item", "inner_attribute_item":
		case "function_item":
			err = f.function(c, acc.Take())
		case "enum_item":
			acc.Take()
			err = f.enum(c)
		default:
			acc.Take()
			err = f.markerImpls(c)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (f *fileScan) function(n *sitter.Node, doc model.DocBlock) error {
	nameNode := n.ChildByFieldName("name")
	params := n.ChildByFieldName("parameters")
	if nameNode == nil || params == nil || params.IsMissing() {
		return f.structural(n, n.Type(), "declaration without a parameter list")
	}

	fn := model.Function{
		Name:       f.text(nameNode),
		Doc:        doc,
		ReturnType: "()",
		File:       f.path,
		Line:       lang.Line(n),
	}
	decl := "fn " + fn.Name

	var acc Accumulator
	for i := 0; i < int(params.ChildCount()); i++ {
		c := params.Child(i)
		switch c.Type() {
		case "line_comment":
			acc.Observe(f.text(c))
		case "parameter":
			pdoc := acc.Take()
			pat, typ := c.ChildByFieldName("pattern"), c.ChildByFieldName("type")
			if pat == nil || typ == nil {
				return f.structural(c, decl, "parameter without a pattern or type")
			}
			if pat.Type() != "identifier" {
				continue
			}
			fn.Params = append(fn.Params, model.Parameter{
				Name: f.text(pat),
				Type: f.text(typ),
				Doc:  pdoc,
			})
		case "self_parameter", "variadic_parameter":
			acc.Take()
		}
	}

	// Trailing doc lines after the last parameter, and any between the
	// parameter list and the return type, document the return value.
	if rt := n.ChildByFieldName("return_type"); rt != nil {
		fn.ReturnType = f.text(rt)
		for i := 0; i < int(n.ChildCount()); i++ {
			c := n.Child(i)
			if c.Type() == "line_comment" && c.StartByte() >= params.EndByte() && c.EndByte() <= rt.StartByte() {
				acc.Observe(f.text(c))
			}
		}
	}
	fn.ReturnDoc = acc.Take()

	if body := n.ChildByFieldName("body"); body != nil {
		if err := f.registrations(body, &fn); err != nil {
			return err
		}
		if err := f.callbacks(body, &fn); err != nil {
			return err
		}
		if err := f.options(body, &fn); err != nil {
			return err
		}
	}

	f.out.Functions = append(f.out.Functions, fn)
	return nil
}

func (f *fileScan) registrations(body *sitter.Node, fn *model.Function) error {
	calls, err := f.pats.register.All(body, f.source)
	if err != nil {
		return f.wrap(err)
	}
	for _, c := range calls {
		fn.Registrations = append(fn.Registrations, model.RegistrationEdge{
			Public:   f.text(c.Public),
			Internal: f.text(c.Internal),
		})
	}
	return nil
}

type binding struct {
	name string
	sig  model.CallbackSignature
	at   uint32
	line int
}

// callbacks collects callback signatures keyed by the continuation argument.
// Several call sites may bind the same name as long as they agree.
func (f *fileScan) callbacks(body *sitter.Node, fn *model.Function) error {
	var all []binding

	cont, err := f.pats.callbackContinue.All(body, f.source)
	if err != nil {
		return f.wrap(err)
	}
	for _, m := range cont {
		all = append(all, f.binding(m.Continuation, TaskHandle, m.Params))
	}

	gen, err := f.pats.callbackGeneric.All(body, f.source)
	if err != nil {
		return f.wrap(err)
	}
	for _, m := range gen {
		all = append(all, f.binding(m.Continuation, f.text(m.Return), m.Params))
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].at < all[j].at })

	bound := make(map[string][]binding)
	var names []string
	for _, b := range all {
		if _, ok := bound[b.name]; !ok {
			names = append(names, b.name)
		}
		bound[b.name] = append(bound[b.name], b)
	}
	for _, name := range names {
		bs := bound[name]
		if !f.lenient {
			if err := agree(fn.Name, name, bs); err != nil {
				return f.wrap(err)
			}
		}
		if fn.Callbacks == nil {
			fn.Callbacks = make(map[string]model.CallbackSignature)
		}
		fn.Callbacks[name] = bs[0].sig
	}
	return nil
}

func (f *fileScan) binding(cont *sitter.Node, ret string, params *sitter.Node) binding {
	return binding{
		name: f.text(cont),
		sig:  model.CallbackSignature{Return: ret, Params: f.tupleTypes(params)},
		at:   cont.StartByte(),
		line: lang.Line(cont),
	}
}

func agree(fnName, param string, bs []binding) error {
	for _, b := range bs[1:] {
		if b.sig.Equal(bs[0].sig) {
			continue
		}
		err := &query.AmbiguityError{Pattern: "callback " + fnName + "/" + param, Line: bs[0].line}
		for _, c := range bs {
			err.Candidates = append(err.Candidates, fmt.Sprintf("line %d: %s", c.line, c.sig))
		}
		return err
	}
	return nil
}

func (f *fileScan) tupleTypes(tuple *sitter.Node) []string {
	types := make([]string, 0, tuple.NamedChildCount())
	for i := 0; i < int(tuple.NamedChildCount()); i++ {
		types = append(types, f.text(tuple.NamedChild(i)))
	}
	return types
}

func (f *fileScan) options(body *sitter.Node, fn *model.Function) error {
	structs, err := f.pats.options.All(body, f.source)
	if err != nil {
		return f.wrap(err)
	}
	for _, s := range structs {
		var acc Accumulator
		for i := 0; i < int(s.Fields.ChildCount()); i++ {
			c := s.Fields.Child(i)
			switch c.Type() {
			case "line_comment":
				acc.Observe(f.text(c))
			case "field_declaration":
				name, typ := c.ChildByFieldName("name"), c.ChildByFieldName("type")
				if name == nil || typ == nil {
					return f.structural(c, "struct "+f.text(s.Name), "field without a name or type")
				}
				fn.Options = append(fn.Options, model.OptionField{
					Name: f.text(name),
					Type: f.text(typ),
					Doc:  acc.Take(),
				})
			}
		}
	}
	return nil
}

func (f *fileScan) enum(n *sitter.Node) error {
	nameNode := n.ChildByFieldName("name")
	body := n.ChildByFieldName("body")
	if nameNode == nil || body == nil || body.IsMissing() {
		return f.structural(n, n.Type(), "enum declaration without a body")
	}

	var dst *[]model.DocumentedIdent
	switch f.text(nameNode) {
	case endpointEnum:
		dst = &f.out.Endpoints
	case overlayEnum:
		dst = &f.out.Overlays
	default:
		return nil
	}

	var acc Accumulator
	for i := 0; i < int(body.ChildCount()); i++ {
		c := body.Child(i)
		switch c.Type() {
		case "line_comment":
			acc.Observe(f.text(c))
		case "enum_variant":
			vn := c.ChildByFieldName("name")
			if vn == nil {
				return f.structural(c, "enum "+f.text(nameNode), "variant without a name")
			}
			*dst = append(*dst, model.DocumentedIdent{
				Ident: f.text(vn),
				Doc:   acc.Take(),
				File:  f.path,
			})
		}
	}
	return nil
}
