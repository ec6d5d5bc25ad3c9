package llm

import "testing"

func TestExtractJSONBare(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}
	if err := ExtractJSON(`{"name":"Charizard"}`, &v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Name != "Charizard" {
		t.Fatalf("got %q", v.Name)
	}
}

func TestExtractJSONFenced(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}
	text := "```json\n{\"name\":\"Blastoise\"}\n```"
	if err := ExtractJSON(text, &v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Name != "Blastoise" {
		t.Fatalf("got %q", v.Name)
	}
}

func TestExtractJSONEmpty(t *testing.T) {
	var v struct{}
	if err := ExtractJSON("   ", &v); err == nil {
		t.Fatal("expected error for empty input")
	}
}
