package scan

import (
	"embed"
	"fmt"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/outline/internal/query"
)

//go:embed queries/*.scm
var queryFS embed.FS

type registerCall struct {
	Callee   *sitter.Node `capture:"callee,advisory"`
	Public   *sitter.Node `capture:"public"`
	Internal *sitter.Node `capture:"internal"`
}

type continueCallback struct {
	Callee       *sitter.Node `capture:"callee,advisory"`
	Params       *sitter.Node `capture:"params"`
	Continuation *sitter.Node `capture:"continuation"`
}

type genericCallback struct {
	Callee       *sitter.Node `capture:"callee,advisory"`
	Return       *sitter.Node `capture:"ret"`
	Params       *sitter.Node `capture:"params"`
	Continuation *sitter.Node `capture:"continuation"`
}

type optionsStruct struct {
	Name   *sitter.Node `capture:"name"`
	Fields *sitter.Node `capture:"fields"`
}

type markerImpl struct {
	Impl *sitter.Node `capture:"impl,advisory,outer"`
	Type *sitter.Node `capture:"type,advisory"`
	Body *sitter.Node `capture:"body"`
}

type stripMany struct {
	Cond     *sitter.Node `capture:"cond,advisory"`
	Callee   *sitter.Node `capture:"callee,advisory"`
	Prefixes *sitter.Node `capture:"prefixes"`
	Body     *sitter.Node `capture:"body"`
}

type stripOne struct {
	Cond   *sitter.Node `capture:"cond,advisory"`
	Callee *sitter.Node `capture:"callee,advisory"`
	Prefix *sitter.Node `capture:"prefix"`
	Body   *sitter.Node `capture:"body"`
}

type resultConstruct struct {
	Construct *sitter.Node `capture:"construct,advisory,outer"`
	Variant   *sitter.Node `capture:"variant"`
	Content   *sitter.Node `capture:"content,advisory"`
}

type overlayField struct {
	Init  *sitter.Node `capture:"init,advisory,outer"`
	Field *sitter.Node `capture:"field,advisory"`
	Value *sitter.Node `capture:"value"`
}

type constructName struct {
	Construct *sitter.Node `capture:"construct,advisory,outer"`
	Name      *sitter.Node `capture:"name"`
}

type patterns struct {
	register         *query.Pattern[registerCall]
	callbackContinue *query.Pattern[continueCallback]
	callbackGeneric  *query.Pattern[genericCallback]
	options          *query.Pattern[optionsStruct]
	markerImpl       *query.Pattern[markerImpl]
	stripMany        *query.Pattern[stripMany]
	stripOne         *query.Pattern[stripOne]
	result           *query.Pattern[resultConstruct]
	overlayField     *query.Pattern[overlayField]
	constructName    *query.Pattern[constructName]
}

var (
	patternsOnce sync.Once
	compiled     *patterns
	compileErr   error
)

// getPatterns compiles the embedded queries once; compiled queries are safe
// to share between scanners.
func getPatterns(l *sitter.Language) (*patterns, error) {
	patternsOnce.Do(func() {
		ld := &loader{lang: l}
		p := &patterns{
			register:         load[registerCall](ld, "register"),
			callbackContinue: load[continueCallback](ld, "callback_continue"),
			callbackGeneric:  load[genericCallback](ld, "callback_generic"),
			options:          load[optionsStruct](ld, "options_struct"),
			markerImpl:       load[markerImpl](ld, "marker_impl"),
			stripMany:        load[stripMany](ld, "strip_prefix_many"),
			stripOne:         load[stripOne](ld, "strip_prefix"),
			result:           load[resultConstruct](ld, "result_construct"),
			overlayField:     load[overlayField](ld, "overlay_field"),
			constructName:    load[constructName](ld, "construct_name"),
		}
		compiled, compileErr = p, ld.err
	})
	return compiled, compileErr
}

type loader struct {
	lang *sitter.Language
	err  error
}

func load[T any](ld *loader, name string) *query.Pattern[T] {
	if ld.err != nil {
		return nil
	}
	src, err := queryFS.ReadFile("queries/" + name + ".scm")
	if err != nil {
		ld.err = fmt.Errorf("reading query file: %w", err)
		return nil
	}
	p, err := query.Compile[T](name, src, ld.lang)
	if err != nil {
		ld.err = err
		return nil
	}
	return p
}
