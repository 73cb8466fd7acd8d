package scan

import (
	"regexp"
	"strings"

	"github.com/phobologic/outline/internal/model"
)

var docLineRe = regexp.MustCompile(`^\s*//@\s*(.*)`)

// Accumulator collects marked doc-comment lines until the next declaration
// takes them. The zero value is ready to use.
type Accumulator struct {
	lines model.DocBlock
}

// Observe records the text after the //@ marker if comment carries it, and
// reports whether it did.
func (a *Accumulator) Observe(comment string) bool {
	m := docLineRe.FindStringSubmatch(comment)
	if m == nil {
		return false
	}
	a.lines = append(a.lines, strings.TrimRight(m[1], "\r"))
	return true
}

// Take returns the accumulated block and empties the accumulator.
func (a *Accumulator) Take() model.DocBlock {
	lines := a.lines
	a.lines = nil
	return lines
}

// Len is the number of pending lines.
func (a *Accumulator) Len() int {
	return len(a.lines)
}
