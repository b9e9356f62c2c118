package tools

import (
	"context"
	"errors"
	"testing"
)

func echoTool(name string) *Tool {
	return &Tool{
		Name:        name,
		Description: "echoes its input",
		Schema: Schema{
			Required: []string{"text"},
			Properties: map[string]Property{
				"text": {Type: "string", Description: "text to echo"},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			s, _ := args["text"].(string)
			return s, nil
		},
	}
}

func TestRegistry_RegisterAndExecute(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(echoTool("echo")); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if !r.Has("echo") || r.Count() != 1 {
		t.Fatal("registry does not report the registered tool")
	}

	res, err := r.Execute(context.Background(), "echo", map[string]any{"text": "hi"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.Output != "hi" || !res.IsSuccess() {
		t.Fatalf("Execute() result = %+v", res)
	}
}

func TestRegistry_DuplicateRegistration(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(echoTool("echo")); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := r.Register(echoTool("echo")); !errors.Is(err, ErrToolAlreadyRegistered) {
		t.Fatalf("duplicate Register() error = %v, want ErrToolAlreadyRegistered", err)
	}
}

func TestRegistry_UnknownTool(t *testing.T) {
	r := NewRegistry()
	_, err := r.Execute(context.Background(), "nope", nil)
	if !errors.Is(err, ErrToolNotFound) {
		t.Fatalf("Execute(unknown) error = %v, want ErrToolNotFound", err)
	}
}

func TestRegistry_MissingRequiredArg(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(echoTool("echo"))

	res, err := r.Execute(context.Background(), "echo", map[string]any{})
	if !errors.Is(err, ErrMissingRequiredArg) {
		t.Fatalf("error = %v, want ErrMissingRequiredArg", err)
	}
	if res == nil || res.IsSuccess() {
		t.Fatal("result should report the failure")
	}
}

func TestRegistry_InvalidTool(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&Tool{Name: ""}); err == nil {
		t.Fatal("Register() accepted a nameless tool")
	}
	if err := r.Register(&Tool{Name: "x"}); err == nil {
		t.Fatal("Register() accepted a tool without Execute")
	}
}

func TestRegistry_SpecsSortedAndComplete(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(echoTool("zeta"))
	r.MustRegister(echoTool("alpha"))

	specs := r.Specs()
	if len(specs) != 2 {
		t.Fatalf("got %d specs, want 2", len(specs))
	}
	if specs[0].Name != "alpha" || specs[1].Name != "zeta" {
		t.Fatalf("specs not name-sorted: %v, %v", specs[0].Name, specs[1].Name)
	}

	params := specs[0].Parameters
	if params["type"] != "object" {
		t.Fatalf("spec parameters type = %v", params["type"])
	}
	props, ok := params["properties"].(map[string]any)
	if !ok || props["text"] == nil {
		t.Fatalf("spec parameters missing properties: %v", params)
	}
}
