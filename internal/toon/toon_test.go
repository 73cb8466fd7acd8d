package toon

import (
	"strings"
	"testing"

	"github.com/phobologic/outline/internal/model"
)

func TestEncodeValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", `""`},
		{"simple", "hello", "hello"},
		{"leading space", " hello", `" hello"`},
		{"trailing space", "hello ", `"hello "`},
		{"newline", "a\nb", `"a\nb"`},
		{"tab", "a\tb", `"a\tb"`},
		{"carriage return", "a\rb", `"a\rb"`},
		{"true keyword", "true", `"true"`},
		{"True keyword", "True", `"True"`},
		{"false keyword", "false", `"false"`},
		{"null keyword", "null", `"null"`},
		{"integer", "42", "42"},
		{"negative integer", "-1", "-1"},
		{"float", "3.14", "3.14"},
		{"zero", "0", "0"},
		{"leading zero invalid", "01", "01"},
		{"comma", "a,b", `"a,b"`},
		{"colon", "a:b", `"a:b"`},
		{"quote", `a"b`, `"a\"b"`},
		{"backslash", `a\b`, `"a\\b"`},
		{"bracket", "a[b", `"a[b"`},
		{"brace", "a{b", `"a{b"`},
		{"dash prefix", "-foo", `"-foo"`},
		{"path", "src/scenario_executor/net.rs", "src/scenario_executor/net.rs"},
		{"qualified name", "StreamSocket::exchange", `"StreamSocket::exchange"`},
		{"callback type", "Fn(i64) -> Task", "Fn(i64) -> Task"},
		{"prefix", "ws://", `"ws://"`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := encodeValue(tt.in)
			if got != tt.want {
				t.Errorf("encodeValue(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEncode(t *testing.T) {
	t.Parallel()

	doc := &model.Document{
		ExecutorFunctions: []model.ExecutorFunction{
			{
				Public:   "ws",
				Internal: "connect_ws",
				Params: []model.NamedTypeAndDoc{
					{Name: "url", Type: "String"},
					{Name: "continuation", Type: "FnPtr"},
				},
				Callbacks: map[string]model.CallbackSignature{
					"continuation": {Return: "Handle<Task>", Params: []string{"i64"}},
				},
				Return:  model.TypeAndDoc{Type: "RhResult<Handle<Task>>"},
				Options: []model.NamedTypeAndDoc{{Name: "timeout", Type: "u64"}},
			},
			{
				Public:     "close",
				Internal:   "close_impl",
				PrimaryDoc: "doc(hidden)",
				Return:     model.TypeAndDoc{Type: "()"},
			},
		},
		PlannerContent: model.PlannerContent{
			Endpoints: []model.PlannerItem{
				{Name: "WsUrl", Prefixes: []string{"ws://", "wss://"}, Doc: "WebSocket"},
				{Name: "Stdio", Prefixes: []string{}},
			},
		},
	}

	got := Encode(doc, "websocat")

	want := []string{
		"root: websocat",
		"functions[2]{name,internal,params,returns,options,hidden}:",
		`  close,close_impl,"",(),"",yes`,
		"  ws,connect_ws,url String; continuation Fn(i64) -> Task,Task,timeout,no",
		"endpoints[2]{name,prefixes,documented}:",
		`  Stdio,"",no`,
		`  WsUrl,"ws:// wss://",yes`,
		"overlays[0]{name,prefixes,documented}:",
	}
	lines := strings.Split(got, "\n")
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(want), got)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i, lines[i], want[i])
		}
	}

	// Encoding sorts a copy.
	if doc.ExecutorFunctions[0].Public != "ws" {
		t.Errorf("input reordered: %q first", doc.ExecutorFunctions[0].Public)
	}
}

func TestEncodeEmpty(t *testing.T) {
	t.Parallel()

	got := Encode(&model.Document{}, "empty")
	if !strings.Contains(got, "functions[0]{name,internal,params,returns,options,hidden}:") {
		t.Errorf("expected empty functions section, got:\n%s", got)
	}
	if !strings.Contains(got, "endpoints[0]{name,prefixes,documented}:") {
		t.Errorf("expected empty endpoints section, got:\n%s", got)
	}
}
