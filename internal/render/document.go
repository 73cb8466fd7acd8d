package render

import (
	_ "embed"
	"io"
	"strings"

	"github.com/phobologic/outline/internal/model"
)

//go:embed glossary.md
var glossary string

// DocumentOptions configures Document.
type DocumentOptions struct {
	// CLIHelp is the captured help text of the program, shown verbatim at
	// the top of the command-line section. Empty omits it.
	CLIHelp string
}

// Document writes the complete reference: the command-line section with
// endpoints and overlays, the scenario functions, and the glossary.
func Document(w io.Writer, doc *model.Document, opts DocumentOptions) error {
	var b strings.Builder

	b.WriteString("# Command-line interface\n\n")
	b.WriteString("This section describes options, flags and specifiers of Websocat CLI.\n\n")
	if help := strings.TrimRight(opts.CLIHelp, "\n"); help != "" {
		b.WriteString("```\n" + help + "\n```\n\n")
	}

	b.WriteString("\n## Endpoints\n\n")
	writeItems(&b, doc.PlannerContent.Endpoints, Endpoints, "###")
	b.WriteString("\n## Overlays\n\n")
	writeItems(&b, doc.PlannerContent.Overlays, Overlays, "###")

	b.WriteString("# Scenario functions\n\n")
	b.WriteString("Those functions are used in Websocat Rhai Scripts (Scenarios):\n\n")
	writeFunctions(&b, doc.ExecutorFunctions)

	b.WriteString("\n" + glossary)

	_, err := io.WriteString(w, b.String())
	return err
}
