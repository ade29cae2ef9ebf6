package clients

import "testing"

func TestNewCompleter(t *testing.T) {
	tests := []struct {
		backend string
		want    string
		wantErr bool
	}{
		{"", "*clients.GenAICompleter", false},
		{"genai", "*clients.GenAICompleter", false},
		{"LangChain", "*clients.LangChainCompleter", false},
		{"openai", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			c, err := NewCompleter(tt.backend, "")
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewCompleter(%q) error = %v", tt.backend, err)
			}
			if tt.wantErr {
				return
			}
			switch v := c.(type) {
			case *GenAICompleter:
				if tt.want != "*clients.GenAICompleter" || v.model != DefaultModel {
					t.Errorf("got %T with model %q", v, v.model)
				}
			case *LangChainCompleter:
				if tt.want != "*clients.LangChainCompleter" || v.model != DefaultModel {
					t.Errorf("got %T with model %q", v, v.model)
				}
			default:
				t.Errorf("unexpected completer %T", c)
			}
		})
	}
}

func TestNewCompleterKeepsConfiguredModel(t *testing.T) {
	for _, backend := range []string{BackendGenAI, BackendLangChain} {
		c, err := NewCompleter(backend, "gemini-1.5-pro")
		if err != nil {
			t.Fatalf("NewCompleter(%q) error = %v", backend, err)
		}
		var got ModelType
		switch v := c.(type) {
		case *GenAICompleter:
			got = v.model
		case *LangChainCompleter:
			got = v.model
		}
		if got != "gemini-1.5-pro" {
			t.Errorf("NewCompleter(%q) model = %q, want gemini-1.5-pro", backend, got)
		}
	}
}
