// Package process cross-references a merged outline into the render-ready
// document: registered functions with their public names, and endpoints and
// overlays with the prefixes that select them.
package process

import (
	"regexp"

	"github.com/phobologic/outline/internal/model"
)

// ContextParam is the name of the context argument that is never documented.
const ContextParam = "ctx"

var receiverRe = regexp.MustCompile(`^&\s*mut\s+Handle\s*<\s*(.+?)\s*>$`)

// Receiver returns the target type of a "&mut Handle<T>" parameter type.
func Receiver(typ string) (string, bool) {
	m := receiverRe.FindStringSubmatch(typ)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Approvals maps internal function names to the public names the
// registration entry point gives them. A name registered twice keeps the
// later public name.
func Approvals(o *model.Outline) map[string]string {
	approved := make(map[string]string)
	for _, fn := range o.Functions {
		if fn.Name != model.RegistrationEntryPoint {
			continue
		}
		for _, r := range fn.Registrations {
			approved[r.Internal] = r.Public
		}
	}
	return approved
}

// Unmatched returns registration edges naming no scanned function.
func Unmatched(o *model.Outline) []model.RegistrationEdge {
	scanned := make(map[string]struct{}, len(o.Functions))
	for _, fn := range o.Functions {
		scanned[fn.Name] = struct{}{}
	}
	var out []model.RegistrationEdge
	for _, fn := range o.Functions {
		if fn.Name != model.RegistrationEntryPoint {
			continue
		}
		for _, r := range fn.Registrations {
			if _, ok := scanned[r.Internal]; !ok {
				out = append(out, r)
			}
		}
	}
	return out
}

// Build derives the document from o. o is not modified.
func Build(o *model.Outline) *model.Document {
	approved := Approvals(o)

	doc := &model.Document{}
	for _, fn := range o.Functions {
		if fn.Name == model.RegistrationEntryPoint {
			continue
		}
		public, ok := approved[fn.Name]
		if !ok {
			continue
		}
		doc.ExecutorFunctions = append(doc.ExecutorFunctions, executorFunction(fn, public))
	}

	doc.PlannerContent.Endpoints = plannerItems(o.Endpoints, prefixMap(o.EndpointPrefixes))
	doc.PlannerContent.Overlays = plannerItems(o.Overlays, prefixMap(o.OverlayPrefixes))

	doc.Sort()
	return doc
}

func executorFunction(fn model.Function, public string) model.ExecutorFunction {
	params := make([]model.Parameter, 0, len(fn.Params))
	for _, p := range fn.Params {
		if p.Name == ContextParam {
			continue
		}
		params = append(params, p)
	}

	if len(params) > 0 {
		if target, ok := Receiver(params[0].Type); ok {
			params = params[1:]
			public = target + "::" + public
		}
	}

	ef := model.ExecutorFunction{
		Internal:   fn.Name,
		Public:     public,
		PrimaryDoc: fn.Doc.Join("\n"),
		Return:     model.TypeAndDoc{Type: fn.ReturnType, Doc: fn.ReturnDoc.Join(" ")},
		Params:     make([]model.NamedTypeAndDoc, 0, len(params)),
		Options:    make([]model.NamedTypeAndDoc, 0, len(fn.Options)),
	}
	for _, p := range params {
		ef.Params = append(ef.Params, model.NamedTypeAndDoc{Name: p.Name, Type: p.Type, Doc: p.Doc.Join(" ")})
	}
	for _, o := range fn.Options {
		ef.Options = append(ef.Options, model.NamedTypeAndDoc{Name: o.Name, Type: o.Type, Doc: o.Doc.Join(" ")})
	}
	if len(fn.Callbacks) > 0 {
		ef.Callbacks = make(map[string]model.CallbackSignature, len(fn.Callbacks))
		for name, sig := range fn.Callbacks {
			ef.Callbacks[name] = model.CallbackSignature{
				Return: sig.Return,
				Params: append([]string(nil), sig.Params...),
			}
		}
	}
	return ef
}

// prefixMap concatenates every group recorded for an identifier, in merge
// order.
func prefixMap(mappings []model.PrefixMapping) map[string][]string {
	m := make(map[string][]string)
	for _, pm := range mappings {
		m[pm.Name] = append(m[pm.Name], pm.Prefixes...)
	}
	return m
}

func plannerItems(idents []model.DocumentedIdent, prefixes map[string][]string) []model.PlannerItem {
	items := make([]model.PlannerItem, 0, len(idents))
	for _, id := range idents {
		p := prefixes[id.Ident]
		if p == nil {
			p = []string{}
		}
		items = append(items, model.PlannerItem{
			Name:     id.Ident,
			Prefixes: append([]string{}, p...),
			Doc:      id.Doc.Join("\n"),
		})
	}
	return items
}
