package ai

import "testing"

func TestAcceptsSystemRole(t *testing.T) {
	tests := []struct {
		model string
		want  bool
	}{
		{"google/gemini-2.0-flash-001", true},
		{"gpt-4o-mini", true},
		{"google/gemma-3-27b-it:free", false},
		{"meta-llama/llama-3.3-70b-instruct:free", false},
		{"Llama3.1", false},
	}
	for _, tt := range tests {
		if got := AcceptsSystemRole(tt.model); got != tt.want {
			t.Errorf("AcceptsSystemRole(%q) = %v, want %v", tt.model, got, tt.want)
		}
	}
}

func TestBuildMessagesWithoutInstruction(t *testing.T) {
	msgs := BuildMessages("  ", "body", "gpt-4o")
	if len(msgs) != 1 || msgs[0].Role != RoleUser || msgs[0].Content != "body" {
		t.Fatalf("unexpected %#v", msgs)
	}
}

func TestSplitMessages(t *testing.T) {
	sys, user := splitMessages(BuildMessages("rules", "body", "gemini-2.0-flash"))
	if sys != "rules" || user != "body" {
		t.Fatalf("got %q / %q", sys, user)
	}
}

func TestNewProviderValidation(t *testing.T) {
	if _, err := NewOpenAIProvider("", "", "m"); err == nil {
		t.Fatal("expected error for missing key")
	}
	if _, err := NewOllamaProvider("", ""); err == nil {
		t.Fatal("expected error for missing model")
	}
	p, err := NewOllamaProvider("http://localhost:11434/", "llama3.1")
	if err != nil {
		t.Fatalf("ollama: %v", err)
	}
	if p.Name() != "ollama" || p.Model() != "llama3.1" {
		t.Fatalf("unexpected provider %s/%s", p.Name(), p.Model())
	}
}
