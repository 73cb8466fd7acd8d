package lang

import (
	"github.com/smacker/go-tree-sitter/rust"
)

// Rust is the only language the outline scanner reads.
const Rust = "rust"

func init() {
	Languages[Rust] = &Language{
		Name:       Rust,
		Extensions: []string{".rs"},
		lang:       rust.GetLanguage(),
	}
}
