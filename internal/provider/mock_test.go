package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/NiloCK/model-identity-eval/internal/eval"
)

var fooExpected = eval.ExpectedAnswers{
	ModelNames:   []string{"Foo"},
	ProviderName: "Acme",
}

func TestMock_Correct(t *testing.T) {
	t.Parallel()

	m := NewMock("m1", ModeCorrect, fooExpected)
	resp, err := m.Generate(context.Background(), []Message{{Role: RoleUser, Content: "who are you"}}, GenerateOptions{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if want := "I'm Foo, specifically m1 from Acme."; resp.Content != want {
		t.Fatalf("Content: got %q want %q", resp.Content, want)
	}
	if resp.Metadata.Provider != "mock" {
		t.Fatalf("Metadata.Provider: got %q want %q", resp.Metadata.Provider, "mock")
	}
	if resp.Metadata.ModelID != "m1" {
		t.Fatalf("Metadata.ModelID: got %q want %q", resp.Metadata.ModelID, "m1")
	}
	if resp.Metadata.ResponseMode != "correct" {
		t.Fatalf("Metadata.ResponseMode: got %q want %q", resp.Metadata.ResponseMode, "correct")
	}
	if resp.Metadata.MessageCount != 1 {
		t.Fatalf("Metadata.MessageCount: got %d want %d", resp.Metadata.MessageCount, 1)
	}
}

func TestMock_BuiltinModes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mode Mode
		want string
	}{
		{ModeWrongModel, "I'm GPT-4, a large language model."},
		{ModeConfused, "I'm Foo, or wait, maybe I'm something else?"},
		{ModeRefuses, "I don't know what model I am."},
	}
	for _, tt := range tests {
		m := NewMock("m1", tt.mode, fooExpected)
		resp, err := m.Generate(context.Background(), nil, GenerateOptions{})
		if err != nil {
			t.Fatalf("Generate(%s): %v", tt.mode, err)
		}
		if resp.Content != tt.want {
			t.Fatalf("Content(%s): got %q want %q", tt.mode, resp.Content, tt.want)
		}
	}
}

func TestMock_UnknownMode(t *testing.T) {
	t.Parallel()

	m := NewMock("m1", Mode("banana"), fooExpected)
	resp, err := m.Generate(context.Background(), nil, GenerateOptions{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if want := "Unknown response mode: banana"; resp.Content != want {
		t.Fatalf("Content: got %q want %q", resp.Content, want)
	}
}

func TestMock_Custom(t *testing.T) {
	t.Parallel()

	m := NewMock("m1", ModeCustom, fooExpected, WithCustomResponse("I'm not sure what model I am. Maybe GPT-4?"))
	resp, err := m.Generate(context.Background(), nil, GenerateOptions{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if want := "I'm not sure what model I am. Maybe GPT-4?"; resp.Content != want {
		t.Fatalf("Content: got %q want %q", resp.Content, want)
	}
}

func TestMock_CustomWithoutText(t *testing.T) {
	t.Parallel()

	m := NewMock("m1", ModeCustom, fooExpected)
	resp, err := m.Generate(context.Background(), nil, GenerateOptions{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if want := "Unknown response mode: custom"; resp.Content != want {
		t.Fatalf("Content: got %q want %q", resp.Content, want)
	}
}

func TestMock_NameFallbacks(t *testing.T) {
	t.Parallel()

	m := NewMock("m1", ModeCorrect, eval.ExpectedAnswers{})
	resp, err := m.Generate(context.Background(), nil, GenerateOptions{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if want := "I'm m1, specifically m1 from MockProvider."; resp.Content != want {
		t.Fatalf("Content: got %q want %q", resp.Content, want)
	}
}

func TestMock_Identity(t *testing.T) {
	t.Parallel()

	m := NewMock(" m1 ", ModeCorrect, fooExpected)
	if m.Name() != "MockProvider" {
		t.Fatalf("Name: got %q want %q", m.Name(), "MockProvider")
	}
	if m.ModelID() != "m1" {
		t.Fatalf("ModelID: got %q want %q", m.ModelID(), "m1")
	}
}

func TestError(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	err := &Error{Provider: "anthropic", Err: cause}
	if want := "provider: anthropic: boom"; err.Error() != want {
		t.Fatalf("Error: got %q want %q", err.Error(), want)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("errors.Is: cause not found")
	}
}
