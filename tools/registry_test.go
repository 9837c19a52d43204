package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

func echoTool(name string) *Tool {
	def := mcp.NewTool(name,
		mcp.WithDescription("echo"),
		mcp.WithString("text", mcp.Required()),
		mcp.WithNumber("times"),
		mcp.WithString("mode", mcp.Enum("loud", "quiet")),
	)
	return New(def, func(_ context.Context, args map[string]any, _ Context) (any, error) {
		return args["text"], nil
	})
}

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(echoTool("Echo")); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := r.Register(echoTool("Echo")); err == nil {
		t.Error("expected duplicate registration to fail")
	}
	if err := r.Register(echoTool("Other")); err != nil {
		t.Fatal(err)
	}

	if got := r.Names(); len(got) != 2 || got[0] != "Echo" || got[1] != "Other" {
		t.Errorf("Names() = %v", got)
	}
	if _, err := r.Schema("Missing"); !errors.Is(err, ErrUnknownTool) {
		t.Errorf("Schema(Missing) error = %v, want ErrUnknownTool", err)
	}
}

func TestRegistryExecute(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(echoTool("Echo"))
	_ = r.Register(New(mcp.NewTool("Boom"), func(context.Context, map[string]any, Context) (any, error) {
		return nil, errors.New("disk on fire")
	}))
	_ = r.Register(New(mcp.NewTool("Panic"), func(context.Context, map[string]any, Context) (any, error) {
		panic("unexpected")
	}))

	tests := []struct {
		name     string
		tool     string
		args     map[string]any
		validate func(t *testing.T, res any, err error)
	}{
		{
			name: "success",
			tool: "Echo",
			args: map[string]any{"text": "hi"},
			validate: func(t *testing.T, res any, err error) {
				if err != nil || res != "hi" {
					t.Errorf("got %v, %v", res, err)
				}
			},
		},
		{
			name: "unknown tool",
			tool: "Nope",
			validate: func(t *testing.T, _ any, err error) {
				if !errors.Is(err, ErrUnknownTool) {
					t.Errorf("err = %v, want ErrUnknownTool", err)
				}
			},
		},
		{
			name: "missing required",
			tool: "Echo",
			args: map[string]any{},
			validate: func(t *testing.T, _ any, err error) {
				var argErr *ArgumentError
				if !errors.As(err, &argErr) {
					t.Fatalf("err = %v, want ArgumentError", err)
				}
				if argErr.Error() != `call Echo failed: missing required argument "text"` {
					t.Errorf("message = %q", argErr.Error())
				}
			},
		},
		{
			name: "wrong type",
			tool: "Echo",
			args: map[string]any{"text": "hi", "times": "three"},
			validate: func(t *testing.T, _ any, err error) {
				var argErr *ArgumentError
				if !errors.As(err, &argErr) {
					t.Errorf("err = %v, want ArgumentError", err)
				}
			},
		},
		{
			name: "enum violation",
			tool: "Echo",
			args: map[string]any{"text": "hi", "mode": "whisper"},
			validate: func(t *testing.T, _ any, err error) {
				var argErr *ArgumentError
				if !errors.As(err, &argErr) {
					t.Errorf("err = %v, want ArgumentError", err)
				}
			},
		},
		{
			name: "executor error becomes failure result",
			tool: "Boom",
			validate: func(t *testing.T, res any, err error) {
				if err != nil {
					t.Fatalf("unexpected error %v", err)
				}
				f, ok := res.(Failure)
				if !ok || f.Success || f.Error != "disk on fire" {
					t.Errorf("result = %#v", res)
				}
			},
		},
		{
			name: "panic becomes failure result",
			tool: "Panic",
			validate: func(t *testing.T, res any, err error) {
				if err != nil {
					t.Fatalf("unexpected error %v", err)
				}
				if _, ok := res.(Failure); !ok {
					t.Errorf("result = %#v", res)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := r.Execute(context.Background(), tt.tool, tt.args, Context{})
			tt.validate(t, res, err)
		})
	}
}

func TestRegistryWithout(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(echoTool("A"))
	_ = r.Register(echoTool("Task"))
	_ = r.Register(echoTool("B"))

	sub := r.Without("Task")
	if _, ok := sub.Get("Task"); ok {
		t.Error("Task should be excluded")
	}
	if got := sub.Names(); len(got) != 2 || got[0] != "A" || got[1] != "B" {
		t.Errorf("Names() = %v", got)
	}
	if r.Len() != 3 {
		t.Error("Without must not modify the parent registry")
	}
}

func TestRegistryDescribeFallback(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(echoTool("Echo"))

	d := r.Describe("Echo", nil, map[string]any{"ok": true})
	if d.Title != "Echo" || d.Text != `{"ok":true}` {
		t.Errorf("Describe() = %+v", d)
	}
}

func TestBuiltinsGating(t *testing.T) {
	r := NewRegistry()
	if err := RegisterBuiltins(r, NewTodoList()); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"Bash", "WriteFile", "UpdateFile"} {
		if !r.IsSensitive(name) {
			t.Errorf("%s should be sensitive", name)
		}
	}
	for _, name := range []string{"ReadFile", "Grep", "Glob", "LS", "Fetch", "Weather", "WriteTodo"} {
		if r.IsSensitive(name) {
			t.Errorf("%s should not be sensitive", name)
		}
	}
}
