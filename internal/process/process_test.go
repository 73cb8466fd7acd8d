package process

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/outline/internal/model"
)

func registerFn(edges ...model.RegistrationEdge) model.Function {
	return model.Function{Name: model.RegistrationEntryPoint, Registrations: edges}
}

func TestRegistrationFiltering(t *testing.T) {
	t.Parallel()
	o := &model.Outline{Functions: []model.Function{
		registerFn(
			model.RegistrationEdge{Public: "ws", Internal: "connect_ws"},
			model.RegistrationEdge{Public: "gone", Internal: "never_scanned"},
		),
		{Name: "connect_ws", Doc: model.DocBlock{"Opens a websocket"}},
		{Name: "helper", Doc: model.DocBlock{"Fully documented", "but never registered"}},
	}}

	doc := Build(o)
	require.Len(t, doc.ExecutorFunctions, 1)
	assert.Equal(t, "ws", doc.ExecutorFunctions[0].Public)
	assert.Equal(t, "connect_ws", doc.ExecutorFunctions[0].Internal)

	assert.Equal(t, []model.RegistrationEdge{{Public: "gone", Internal: "never_scanned"}}, Unmatched(o))
}

func TestContextAndReceiver(t *testing.T) {
	t.Parallel()
	o := &model.Outline{Functions: []model.Function{
		registerFn(
			model.RegistrationEdge{Public: "foo", Internal: "foo_impl"},
			model.RegistrationEdge{Public: "bar", Internal: "bar_impl"},
		),
		{
			Name: "foo_impl",
			Params: []model.Parameter{
				{Name: "ctx", Type: "NativeCallContext"},
				{Name: "h", Type: "&mut Handle<StreamSocket>"},
				{Name: "n", Type: "i64", Doc: model.DocBlock{"count", "of things"}},
			},
		},
		{
			Name: "bar_impl",
			Params: []model.Parameter{
				{Name: "x", Type: "i64"},
				{Name: "h", Type: "&mut Handle<StreamSocket>"},
				{Name: "ctx", Type: "i64"},
			},
		},
	}}

	doc := Build(o)
	require.Len(t, doc.ExecutorFunctions, 2)

	foo, bar := doc.ExecutorFunctions[0], doc.ExecutorFunctions[1]
	assert.Equal(t, "StreamSocket::foo", foo.Public)
	assert.Equal(t, []model.NamedTypeAndDoc{{Name: "n", Type: "i64", Doc: "count of things"}}, foo.Params)

	// Only a leading receiver qualifies the name.
	assert.Equal(t, "bar", bar.Public)
	assert.Equal(t, []model.NamedTypeAndDoc{
		{Name: "x", Type: "i64"},
		{Name: "h", Type: "&mut Handle<StreamSocket>"},
	}, bar.Params)
}

func TestReceiver(t *testing.T) {
	t.Parallel()
	tests := []struct {
		typ    string
		want   string
		wantOK bool
	}{
		{"&mut Handle<StreamSocket>", "StreamSocket", true},
		{"& mut Handle < DatagramSocket >", "DatagramSocket", true},
		{"&mut Handle<Option<Task>>", "Option<Task>", true},
		{"&Handle<StreamSocket>", "", false},
		{"Handle<StreamSocket>", "", false},
		{"&mut Other<StreamSocket>", "", false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.typ, func(t *testing.T) {
			t.Parallel()
			got, ok := Receiver(tt.typ)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDocsAndCallbacks(t *testing.T) {
	t.Parallel()
	o := &model.Outline{Functions: []model.Function{
		registerFn(model.RegistrationEdge{Public: "exchange", Internal: "exchange"}),
		{
			Name:       "exchange",
			Doc:        model.DocBlock{"line one", "line two"},
			ReturnType: "RhResult<Handle<Task>>",
			ReturnDoc:  model.DocBlock{"the", "task"},
			Params:     []model.Parameter{{Name: "continuation", Type: "FnPtr"}},
			Options:    []model.OptionField{{Name: "timeout", Type: "u64", Doc: model.DocBlock{"in", "ms"}}},
			Callbacks: map[string]model.CallbackSignature{
				"continuation": {Return: "Handle<Task>", Params: []string{"i64"}},
			},
		},
	}}

	doc := Build(o)
	require.Len(t, doc.ExecutorFunctions, 1)
	ef := doc.ExecutorFunctions[0]
	assert.Equal(t, "line one\nline two", ef.PrimaryDoc)
	assert.Equal(t, model.TypeAndDoc{Type: "RhResult<Handle<Task>>", Doc: "the task"}, ef.Return)
	assert.Equal(t, []model.NamedTypeAndDoc{{Name: "timeout", Type: "u64", Doc: "in ms"}}, ef.Options)
	assert.Equal(t, o.Functions[1].Callbacks, ef.Callbacks)

	// The document does not alias the outline.
	ef.Callbacks["continuation"].Params[0] = "changed"
	assert.Equal(t, "i64", o.Functions[1].Callbacks["continuation"].Params[0])
}

func TestPlannerItems(t *testing.T) {
	t.Parallel()
	o := &model.Outline{
		Endpoints: []model.DocumentedIdent{
			{Ident: "WsUrl", Doc: model.DocBlock{"WebSocket", "client"}},
			{Ident: "Stdio"},
		},
		Overlays: []model.DocumentedIdent{{Ident: "LineChunks"}},
		EndpointPrefixes: []model.PrefixMapping{
			{Name: "WsUrl", Prefixes: []string{"ws://"}},
			{Name: "Orphan", Prefixes: []string{"orphan:"}},
			{Name: "WsUrl", Prefixes: []string{"wss://", "ws-url:"}},
		},
		OverlayPrefixes: []model.PrefixMapping{{Name: "LineChunks", Prefixes: []string{"lines:"}}},
	}

	doc := Build(o)
	assert.Equal(t, []model.PlannerItem{
		{Name: "Stdio", Prefixes: []string{}},
		{Name: "WsUrl", Prefixes: []string{"ws://", "wss://", "ws-url:"}, Doc: "WebSocket\nclient"},
	}, doc.PlannerContent.Endpoints)
	assert.Equal(t, []model.PlannerItem{
		{Name: "LineChunks", Prefixes: []string{"lines:"}},
	}, doc.PlannerContent.Overlays)
}

func TestBuildEmpty(t *testing.T) {
	t.Parallel()
	doc := Build(&model.Outline{})
	assert.Empty(t, doc.ExecutorFunctions)
	assert.NotNil(t, doc.PlannerContent.Endpoints)
	assert.NotNil(t, doc.PlannerContent.Overlays)
}
