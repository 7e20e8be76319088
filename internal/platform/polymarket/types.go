package polymarket

import (
	"encoding/json"
	"strconv"
	"strings"
)

// flexString unmarshals from a JSON string or number, since the CLOB API is
// inconsistent about whether IDs are quoted.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// flexFloat unmarshals from a JSON number or a numeric string. A null, an
// empty string, or a non-numeric string leaves Valid false.
type flexFloat struct {
	Value float64
	Valid bool
}

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err == nil {
		f.Value, f.Valid = v, true
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		f.Value, f.Valid = v, true
	}
	return nil
}

// APIMarket represents a market item as returned by the CLOB markets
// endpoint. Only the fields used for listing extraction are declared; the
// full item is carried separately as raw JSON.
type APIMarket struct {
	ID         flexString `json:"id"`
	MarketID   flexString `json:"market_id"`
	QuestionID flexString `json:"question_id"`

	Question string `json:"question"`
	Title    string `json:"title"`
	Name     string `json:"name"`

	URL string `json:"url"`

	LastPrice          flexFloat `json:"last_price"`
	ImpliedProbability flexFloat `json:"impliedProbability"`
	ImpliedProbAlt     flexFloat `json:"implied_probability"`
}

// identity returns the first non-empty candidate ID field.
func (m *APIMarket) identity() string {
	for _, id := range []string{string(m.ID), string(m.MarketID), string(m.QuestionID)} {
		if id != "" {
			return id
		}
	}
	return ""
}

// title returns the first non-empty candidate title field.
func (m *APIMarket) title() string {
	for _, t := range []string{m.Question, m.Title, m.Name} {
		if t != "" {
			return t
		}
	}
	return ""
}

// price returns the last trade price when present, otherwise the implied
// probability.
func (m *APIMarket) price() *float64 {
	for _, f := range []flexFloat{m.LastPrice, m.ImpliedProbability, m.ImpliedProbAlt} {
		if f.Valid {
			v := f.Value
			return &v
		}
	}
	return nil
}
