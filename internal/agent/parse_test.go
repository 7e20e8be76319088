package agent

import (
	"strings"
	"testing"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  string
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`},
		{"bare array", `[1, 2]`, `[1, 2]`},
		{"fenced", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"fenced no lang", "```\n[1]\n```", `[1]`},
		{"prose around object", `Sure! Here you go: {"a": 1} Hope that helps.`, `{"a": 1}`},
		{"prose around array", `The result is [1, 2] as requested.`, `[1, 2]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractJSON(tt.reply)
			if err != nil {
				t.Fatalf("extractJSON(%q): %v", tt.reply, err)
			}
			if got != tt.want {
				t.Errorf("extractJSON(%q) = %q, want %q", tt.reply, got, tt.want)
			}
		})
	}
}

func TestExtractJSONNoJSON(t *testing.T) {
	if _, err := extractJSON("I cannot help with that."); err == nil {
		t.Error("expected error for reply without JSON")
	}
}

func TestParseCollected(t *testing.T) {
	reply := `[
		{"site": "polymarket", "id": "p1", "title": "Will X happen?", "price": 0.42, "url": "https://example.com/p1"},
		{"site": "manifold", "id": "m1", "title": "X happens?", "price": null, "url": ""}
	]`
	markets, err := parseCollected(reply)
	if err != nil {
		t.Fatalf("parseCollected: %v", err)
	}
	if len(markets) != 2 {
		t.Fatalf("got %d markets, want 2", len(markets))
	}
	if markets[0].Price == nil || *markets[0].Price != 0.42 {
		t.Errorf("markets[0].Price = %v", markets[0].Price)
	}
	if markets[1].Price != nil {
		t.Errorf("markets[1].Price = %v, want nil", markets[1].Price)
	}
}

func TestParseCollectedRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  string
	}{
		{"missing site", `[{"id": "1", "title": "T"}]`, "no site"},
		{"missing title", `[{"site": "s", "id": "1"}]`, "no title"},
		{"price out of range", `[{"site": "s", "id": "1", "title": "T", "price": 1.5}]`, "outside [0,1]"},
		{"not an array", `{"site": "s"}`, "decode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseCollected(tt.reply)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestParseIdentified(t *testing.T) {
	reply := "```json\n" + `{
		"unified_products": [
			{
				"unified_title": "Will Trump win the 2024 presidential election?",
				"members": [
					{"site": "polymarket", "id": "p1", "title": "Will Trump win?", "price": 0.45, "confidence": 1.0},
					{"site": "manifold", "id": "m1", "title": "Trump wins 2024?", "price": 0.47, "confidence": 0.93}
				]
			}
		]
	}` + "\n```"

	groups, err := parseIdentified(reply)
	if err != nil {
		t.Fatalf("parseIdentified: %v", err)
	}
	if len(groups) != 1 || len(groups[0].Members) != 2 {
		t.Fatalf("groups = %+v", groups)
	}
	if groups[0].Members[1].Confidence != 0.93 {
		t.Errorf("confidence = %v", groups[0].Members[1].Confidence)
	}
}

func TestParseIdentifiedRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  string
	}{
		{"no title", `{"unified_products": [{"members": [{"site": "s", "id": "1", "title": "T", "confidence": 0.5}]}]}`, "unified_title"},
		{"no members", `{"unified_products": [{"unified_title": "T", "members": []}]}`, "no members"},
		{"bad confidence", `{"unified_products": [{"unified_title": "T", "members": [{"site": "s", "id": "1", "title": "T", "confidence": 2}]}]}`, "outside [0,1]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseIdentified(tt.reply)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want mention of %q", err, tt.want)
			}
		})
	}
}
