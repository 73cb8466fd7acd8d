package render

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/phobologic/outline/internal/model"
)

// InhibitMarker in an item's doc suppresses its prefix listing.
const InhibitMarker = "@inhibit_prefixes"

// Kind selects endpoints or overlays.
type Kind string

const (
	Endpoints Kind = "endpoints"
	Overlays  Kind = "overlays"
)

// ErrKind is returned for a kind other than endpoints or overlays.
var ErrKind = errors.New("TODOC environment variable should be `endpoints` or `overlays`")

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case Endpoints, Overlays:
		return k, nil
	default:
		return "", ErrKind
	}
}

func (k Kind) singular() string {
	return strings.TrimSuffix(string(k), "s")
}

// Items returns the collection of c selected by k.
func (k Kind) Items(c model.PlannerContent) []model.PlannerItem {
	if k == Overlays {
		return c.Overlays
	}
	return c.Endpoints
}

// Specifiers writes one level-2 entry per item of the selected kind, sorted
// by name.
func Specifiers(w io.Writer, c model.PlannerContent, k Kind) error {
	if _, err := ParseKind(string(k)); err != nil {
		return err
	}
	var b strings.Builder
	writeItems(&b, k.Items(c), k, "##")
	_, err := io.WriteString(w, b.String())
	return err
}

func sortedItems(items []model.PlannerItem) []model.PlannerItem {
	s := append([]model.PlannerItem(nil), items...)
	sort.SliceStable(s, func(i, j int) bool { return s[i].Name < s[j].Name })
	return s
}

func writeItems(b *strings.Builder, items []model.PlannerItem, k Kind, heading string) {
	for _, it := range sortedItems(items) {
		writeItem(b, it, k, heading)
	}
}

func writeItem(b *strings.Builder, it model.PlannerItem, k Kind, heading string) {
	fmt.Fprintf(b, "%s %s\n\n", heading, it.Name)

	inhibit := false
	if it.Doc == "" {
		b.WriteString("(undocumented)\n\n")
	} else {
		d := it.Doc
		if strings.Contains(d, InhibitMarker) {
			inhibit = true
			d = strings.ReplaceAll(d, InhibitMarker, "")
		}
		b.WriteString(d + "\n\n")
	}
	if inhibit {
		return
	}

	if len(it.Prefixes) == 0 {
		fmt.Fprintf(b, "This %s cannot be directly specified as a prefix to a positional CLI argument, "+
			"there may be some other way to access it.\n\n", k.singular())
		return
	}
	b.WriteString("Prefixes:\n\n")
	for _, p := range it.Prefixes {
		b.WriteString("* `" + p + "`\n")
	}
	b.WriteString("\n")
}

// CheatSheet writes the short list of first prefixes per endpoint and
// overlay.
func CheatSheet(w io.Writer, c model.PlannerContent) error {
	var b strings.Builder
	b.WriteString("Short list of endpoint prefixes:\n")
	for _, it := range sortedItems(c.Endpoints) {
		if len(it.Prefixes) > 0 {
			b.WriteString("  " + it.Prefixes[0] + "\n")
		}
	}
	b.WriteString("\nShort list of overlay prefixes:\n")
	for _, it := range sortedItems(c.Overlays) {
		if len(it.Prefixes) > 0 {
			b.WriteString("  " + it.Prefixes[0] + "\n")
			// The server side shares the client's overlay.
			if it.Prefixes[0] == "ws-lowlevel-client:" {
				b.WriteString("  ws-lowlevel-server:\n")
			}
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
