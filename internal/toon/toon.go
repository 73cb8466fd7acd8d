// Package toon implements TOON (Token-Oriented Object Notation) encoding.
package toon

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/phobologic/outline/internal/model"
	"github.com/phobologic/outline/internal/render"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// Encode converts a processed document into TOON tables: one row per
// function, endpoint and overlay, sorted by name.
func Encode(doc *model.Document, root string) string {
	d := doc.Clone()
	d.Sort()

	var parts []string
	parts = append(parts, fmt.Sprintf("root: %s", encodeValue(root)))

	var fnRows [][]string
	for i := range d.ExecutorFunctions {
		f := &d.ExecutorFunctions[i]
		params := make([]string, 0, len(f.Params))
		for _, p := range f.Params {
			params = append(params, strings.TrimPrefix(p.Name, "r#")+" "+render.ParamType(p, f.Callbacks))
		}
		ret, ok := render.ReturnType(f.Return.Type)
		if !ok {
			ret = "()"
		}
		options := make([]string, 0, len(f.Options))
		for _, o := range f.Options {
			options = append(options, strings.TrimPrefix(o.Name, "r#"))
		}
		fnRows = append(fnRows, []string{
			f.Public,
			f.Internal,
			strings.Join(params, "; "),
			ret,
			strings.Join(options, " "),
			yesNo(strings.Contains(f.PrimaryDoc, render.HideMarker)),
		})
	}
	parts = append(parts, formatTabular("functions",
		[]string{"name", "internal", "params", "returns", "options", "hidden"}, fnRows))

	parts = append(parts, plannerTable("endpoints", d.PlannerContent.Endpoints))
	parts = append(parts, plannerTable("overlays", d.PlannerContent.Overlays))

	return strings.Join(parts, "\n")
}

func plannerTable(name string, items []model.PlannerItem) string {
	var rows [][]string
	for i := range items {
		it := &items[i]
		rows = append(rows, []string{
			it.Name,
			strings.Join(it.Prefixes, " "),
			yesNo(it.Doc != ""),
		})
	}
	return formatTabular(name, []string{"name", "prefixes", "documented"}, rows)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
