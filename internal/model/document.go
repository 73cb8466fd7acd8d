package model

import "sort"

// TypeAndDoc is a rendered type expression with its joined doc.
type TypeAndDoc struct {
	Type string `json:"typ" yaml:"typ"`
	Doc  string `json:"doc" yaml:"doc"`
}

// NamedTypeAndDoc is a parameter or option row.
type NamedTypeAndDoc struct {
	Name string `json:"nam" yaml:"nam"`
	Type string `json:"typ" yaml:"typ"`
	Doc  string `json:"doc" yaml:"doc"`
}

// ExecutorFunction is the render-ready view of a registered function.
type ExecutorFunction struct {
	Internal   string                       `json:"rust_function" yaml:"rust_function"`
	Public     string                       `json:"rhai_function" yaml:"rhai_function"`
	PrimaryDoc string                       `json:"primary_doc" yaml:"primary_doc"`
	Params     []NamedTypeAndDoc            `json:"params" yaml:"params"`
	Return     TypeAndDoc                   `json:"ret" yaml:"ret"`
	Callbacks  map[string]CallbackSignature `json:"callbacks" yaml:"callbacks"`
	Options    []NamedTypeAndDoc            `json:"options" yaml:"options"`
}

// PlannerItem is the render-ready view of an endpoint or overlay.
type PlannerItem struct {
	Name     string   `json:"name" yaml:"name"`
	Prefixes []string `json:"prefixes" yaml:"prefixes"`
	Doc      string   `json:"doc" yaml:"doc"`
}

// PlannerContent holds endpoints and overlays as separately renderable lists.
type PlannerContent struct {
	Endpoints []PlannerItem `json:"endpoints" yaml:"endpoints"`
	Overlays  []PlannerItem `json:"overlays" yaml:"overlays"`
}

// Document is the processed model handed to renderers.
type Document struct {
	ExecutorFunctions []ExecutorFunction `json:"executor_functions" yaml:"executor_functions"`
	PlannerContent    PlannerContent     `json:"planner_content" yaml:"planner_content"`
}

// Sort orders functions by public name and planner items by name. Ties keep
// their merge order.
func (d *Document) Sort() {
	sort.SliceStable(d.ExecutorFunctions, func(i, j int) bool {
		return d.ExecutorFunctions[i].Public < d.ExecutorFunctions[j].Public
	})
	sortItems(d.PlannerContent.Endpoints)
	sortItems(d.PlannerContent.Overlays)
}

func sortItems(items []PlannerItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Name < items[j].Name
	})
}

// Clone returns a copy whose slices can be reordered without touching d.
func (d *Document) Clone() *Document {
	c := &Document{
		ExecutorFunctions: append([]ExecutorFunction(nil), d.ExecutorFunctions...),
	}
	c.PlannerContent.Endpoints = append([]PlannerItem(nil), d.PlannerContent.Endpoints...)
	c.PlannerContent.Overlays = append([]PlannerItem(nil), d.PlannerContent.Overlays...)
	return c
}
