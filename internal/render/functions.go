// Package render formats a processed document as Markdown reference text.
package render

import (
	"io"
	"regexp"
	"strings"

	"github.com/phobologic/outline/internal/model"
)

// HideMarker in a function's primary doc keeps it out of the reference.
const HideMarker = "doc(hidden)"

const (
	fnPtrType      = "FnPtr"
	unresolvedType = "???"
	optsDefaultDoc = "object map containing dynamic options to the function"
	fnPtrDoc       = "Rhai function that will be called to continue processing"
)

var (
	arrowRe  = regexp.MustCompile(`^\s*->\s*(.*)$`)
	resultRe = regexp.MustCompile(`^RhResult\s*<\s*(.*)\s*>\s*$`)
	handleRe = regexp.MustCompile(`^Handle\s*<\s*(.*)\s*>\s*$`)
)

// StripHandle unwraps one level of Handle<...>.
func StripHandle(s string) string {
	if m := handleRe.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	return strings.TrimSpace(s)
}

// ReturnType is the displayed form of a return type expression. The second
// result is false for functions that return nothing.
func ReturnType(typ string) (string, bool) {
	if typ == "" || typ == "()" {
		return "", false
	}
	if m := arrowRe.FindStringSubmatch(typ); m != nil {
		typ = m[1]
	}
	if m := resultRe.FindStringSubmatch(typ); m != nil {
		typ = m[1]
	}
	return StripHandle(typ), true
}

// ParamType is the displayed type of a parameter. Function pointers show the
// callback signature bound to the parameter's name.
func ParamType(p model.NamedTypeAndDoc, callbacks map[string]model.CallbackSignature) string {
	if p.Type != fnPtrType {
		return StripHandle(p.Type)
	}
	cb, ok := callbacks[p.Name]
	if !ok {
		return unresolvedType
	}
	params := make([]string, len(cb.Params))
	for i, t := range cb.Params {
		params[i] = StripHandle(strings.TrimSpace(t))
	}
	s := "Fn(" + strings.Join(params, ", ") + ")"
	if cb.Return != "" {
		s += " -> " + StripHandle(cb.Return)
	}
	return s
}

func paramDoc(p model.NamedTypeAndDoc) string {
	switch {
	case p.Doc != "":
		return p.Doc
	case p.Name == "opts" && p.Type == "Dynamic":
		return optsDefaultDoc
	case p.Type == fnPtrType:
		return fnPtrDoc
	}
	return ""
}

// Functions writes the reference entry of every function, sorted by public
// name. Hidden functions are skipped.
func Functions(w io.Writer, fns []model.ExecutorFunction) error {
	var b strings.Builder
	writeFunctions(&b, fns)
	_, err := io.WriteString(w, b.String())
	return err
}

func writeFunctions(b *strings.Builder, fns []model.ExecutorFunction) {
	d := (&model.Document{ExecutorFunctions: fns}).Clone()
	d.Sort()
	for _, f := range d.ExecutorFunctions {
		writeFunction(b, f)
	}
}

func writeFunction(b *strings.Builder, f model.ExecutorFunction) {
	if strings.Contains(f.PrimaryDoc, HideMarker) {
		return
	}

	b.WriteString("## " + f.Public + "\n\n")
	if f.PrimaryDoc != "" {
		b.WriteString(f.PrimaryDoc + "\n\n")
	}

	if len(f.Params) > 0 {
		b.WriteString("Parameters:\n\n")
		for _, p := range f.Params {
			line := "* " + strings.TrimPrefix(p.Name, "r#") + " (`" + ParamType(p, f.Callbacks) + "`)"
			if doc := paramDoc(p); doc != "" {
				line += " - " + doc
			}
			b.WriteString(line + "\n")
		}
		b.WriteString("\n")
	}

	ret := "Does not return anything."
	if typ, ok := ReturnType(f.Return.Type); ok {
		ret = "Returns `" + typ + "`"
	}
	if f.Return.Doc != "" {
		ret += " - " + f.Return.Doc
	}
	b.WriteString(ret + "\n\n")

	if len(f.Options) > 0 {
		b.WriteString("Options:\n\n")
		for _, o := range f.Options {
			line := "* " + strings.TrimPrefix(o.Name, "r#") + " (`" + o.Type + "`)"
			if o.Doc != "" {
				line += " - " + o.Doc
			}
			b.WriteString(line + "\n")
		}
		b.WriteString("\n")
	}
}
