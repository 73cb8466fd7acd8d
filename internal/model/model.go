// Package model defines the API outline extracted from annotated sources and
// the render-ready document derived from it.
package model

import "strings"

// RegistrationEntryPoint is the name of the function whose registration
// calls decide which scanned functions are documented.
const RegistrationEntryPoint = "register"

// DocBlock is an ordered list of documentation lines.
type DocBlock []string

// Join concatenates the lines with sep.
func (d DocBlock) Join(sep string) string {
	return strings.Join(d, sep)
}

// Parameter is one positional parameter of a scanned function.
type Parameter struct {
	Name string   `json:"name" yaml:"name"`
	Type string   `json:"typ" yaml:"typ"`
	Doc  DocBlock `json:"doc" yaml:"doc"`
}

// CallbackSignature is the shape of a function-pointer parameter, discovered
// from a call site in the function body.
type CallbackSignature struct {
	Return string   `json:"rettyp" yaml:"rettyp"`
	Params []string `json:"argtyps" yaml:"argtyps"`
}

// Equal reports whether two signatures are textually identical.
func (c CallbackSignature) Equal(o CallbackSignature) bool {
	if c.Return != o.Return || len(c.Params) != len(o.Params) {
		return false
	}
	for i := range c.Params {
		if c.Params[i] != o.Params[i] {
			return false
		}
	}
	return true
}

// String renders the signature as "(A, B) -> R".
func (c CallbackSignature) String() string {
	return "(" + strings.Join(c.Params, ", ") + ") -> " + c.Return
}

// OptionField is one field of an options struct declared inside a function.
type OptionField struct {
	Name string   `json:"name" yaml:"name"`
	Type string   `json:"typ" yaml:"typ"`
	Doc  DocBlock `json:"doc" yaml:"doc"`
}

// RegistrationEdge maps an externally visible name to the internal
// declaration it exposes.
type RegistrationEdge struct {
	Public   string `json:"rhname" yaml:"rhname"`
	Internal string `json:"fnname" yaml:"fnname"`
}

// Function is one scanned top-level function declaration.
type Function struct {
	Name          string                       `json:"name" yaml:"name"`
	Doc           DocBlock                     `json:"doc" yaml:"doc"`
	ReturnType    string                       `json:"rettyp" yaml:"rettyp"`
	ReturnDoc     DocBlock                     `json:"retdoc" yaml:"retdoc"`
	Params        []Parameter                  `json:"args" yaml:"args"`
	Registrations []RegistrationEdge           `json:"reg_calls" yaml:"reg_calls"`
	Options       []OptionField                `json:"opts" yaml:"opts"`
	Callbacks     map[string]CallbackSignature `json:"callbacks" yaml:"callbacks"`
	File          string                       `json:"file,omitempty" yaml:"file,omitempty"`
	Line          int                          `json:"line,omitempty" yaml:"line,omitempty"`
}

// DocumentedIdent is an Endpoint or Overlay variant with its doc.
type DocumentedIdent struct {
	Ident string   `json:"ident" yaml:"ident"`
	Doc   DocBlock `json:"doc" yaml:"doc"`
	File  string   `json:"file,omitempty" yaml:"file,omitempty"`
}

// PrefixMapping associates a constructed identifier with the literal
// prefixes that select it when parsing a specifier.
type PrefixMapping struct {
	Name     string   `json:"name" yaml:"name"`
	Prefixes []string `json:"prefixes" yaml:"prefixes"`
}

// Outline is everything extracted from one or more files.
type Outline struct {
	Functions        []Function        `json:"functions" yaml:"functions"`
	Endpoints        []DocumentedIdent `json:"endpoints" yaml:"endpoints"`
	Overlays         []DocumentedIdent `json:"overlays" yaml:"overlays"`
	EndpointPrefixes []PrefixMapping   `json:"endpoint_prefixes" yaml:"endpoint_prefixes"`
	OverlayPrefixes  []PrefixMapping   `json:"overlay_prefixes" yaml:"overlay_prefixes"`
}

// Append concatenates every list of other onto o.
func (o *Outline) Append(other *Outline) {
	o.Functions = append(o.Functions, other.Functions...)
	o.Endpoints = append(o.Endpoints, other.Endpoints...)
	o.Overlays = append(o.Overlays, other.Overlays...)
	o.EndpointPrefixes = append(o.EndpointPrefixes, other.EndpointPrefixes...)
	o.OverlayPrefixes = append(o.OverlayPrefixes, other.OverlayPrefixes...)
}
