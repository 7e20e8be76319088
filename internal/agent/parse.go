package agent

import (
	"encoding/json"
	"fmt"
	"strings"
)

// collectedMarket is one listing in the collector step's response.
type collectedMarket struct {
	Site  string   `json:"site"`
	ID    string   `json:"id"`
	Title string   `json:"title"`
	Price *float64 `json:"price"`
	URL   string   `json:"url"`
}

// identifiedMember is one grouped listing in the identifier step's response.
type identifiedMember struct {
	Site       string   `json:"site"`
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Price      *float64 `json:"price"`
	Confidence float64  `json:"confidence"`
}

// identifiedProduct is one group in the identifier step's response.
type identifiedProduct struct {
	UnifiedTitle string             `json:"unified_title"`
	Members      []identifiedMember `json:"members"`
}

// identifierResult is the identifier step's full response.
type identifierResult struct {
	UnifiedProducts []identifiedProduct `json:"unified_products"`
}

// extractJSON strips markdown fences and leading/trailing prose so model
// replies that wrap JSON in commentary still parse. It returns the substring
// from the first '{' or '[' to the matching end of the reply.
func extractJSON(reply string) (string, error) {
	s := strings.TrimSpace(reply)

	if i := strings.Index(s, "```"); i >= 0 {
		s = s[i+3:]
		s = strings.TrimPrefix(s, "json")
		if j := strings.Index(s, "```"); j >= 0 {
			s = s[:j]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return "", fmt.Errorf("agent: no JSON found in reply")
	}
	var end int
	if s[start] == '{' {
		end = strings.LastIndexByte(s, '}')
	} else {
		end = strings.LastIndexByte(s, ']')
	}
	if end <= start {
		return "", fmt.Errorf("agent: unterminated JSON in reply")
	}
	return s[start : end+1], nil
}

// parseCollected decodes and validates the collector step's reply.
func parseCollected(reply string) ([]collectedMarket, error) {
	raw, err := extractJSON(reply)
	if err != nil {
		return nil, err
	}

	var markets []collectedMarket
	if err := json.Unmarshal([]byte(raw), &markets); err != nil {
		return nil, fmt.Errorf("agent: decode collector reply: %w", err)
	}

	for i, m := range markets {
		if m.Site == "" {
			return nil, fmt.Errorf("agent: collector item %d has no site", i)
		}
		if m.Title == "" {
			return nil, fmt.Errorf("agent: collector item %d has no title", i)
		}
		if m.Price != nil && (*m.Price < 0 || *m.Price > 1) {
			return nil, fmt.Errorf("agent: collector item %d price %v outside [0,1]", i, *m.Price)
		}
	}
	return markets, nil
}

// parseIdentified decodes and validates the identifier step's reply.
func parseIdentified(reply string) ([]identifiedProduct, error) {
	raw, err := extractJSON(reply)
	if err != nil {
		return nil, err
	}

	var result identifierResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("agent: decode identifier reply: %w", err)
	}

	for i, p := range result.UnifiedProducts {
		if p.UnifiedTitle == "" {
			return nil, fmt.Errorf("agent: group %d has no unified_title", i)
		}
		if len(p.Members) == 0 {
			return nil, fmt.Errorf("agent: group %q has no members", p.UnifiedTitle)
		}
		for j, m := range p.Members {
			if m.Site == "" || m.Title == "" {
				return nil, fmt.Errorf("agent: group %q member %d missing site or title", p.UnifiedTitle, j)
			}
			if m.Confidence < 0 || m.Confidence > 1 {
				return nil, fmt.Errorf("agent: group %q member %d confidence %v outside [0,1]", p.UnifiedTitle, j, m.Confidence)
			}
		}
	}
	return result.UnifiedProducts, nil
}
