package openrouter

import "testing"

func TestNewClientRequiresAPIKey(t *testing.T) {
	t.Parallel()

	if c := NewClient(Config{APIKey: "   "}); c != nil {
		t.Fatal("NewClient() with a blank API key must return nil")
	}
	if c := NewClient(Config{APIKey: "sk-test", Model: "m"}); c == nil {
		t.Fatal("NewClient() with an API key returned nil")
	}
}
