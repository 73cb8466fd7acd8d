package query

import (
	"fmt"
	"strings"
)

// AmbiguityError reports matches that disagree where at most one
// semantically relevant match was expected.
type AmbiguityError struct {
	Pattern    string
	Line       int
	Candidates []string
}

func (e *AmbiguityError) Error() string {
	return fmt.Sprintf("ambiguous %s matches in construct at line %d:\n  %s",
		e.Pattern, e.Line, strings.Join(e.Candidates, "\n  "))
}

// CardinalityError reports a capture that yielded several nodes where the
// record field holds a single one.
type CardinalityError struct {
	Pattern string
	Capture string
	Line    int
	Texts   []string
}

func (e *CardinalityError) Error() string {
	return fmt.Sprintf("query %s: capture @%s matched %d nodes at line %d, want 1: %q",
		e.Pattern, e.Capture, len(e.Texts), e.Line, e.Texts)
}
