package model

import (
	"bytes"
	"encoding/json"
	"strings"
)

// CareerInsights is a structured suggestion from a text understanding
// service. Every field is optional; nil means "not suggested".
type CareerInsights struct {
	CurrentTitle      *string  `json:"current_title,omitempty"`
	CurrentCompany    *string  `json:"current_company,omitempty"`
	PreviousCompanies []string `json:"previous_companies,omitempty"`
	Education         *string  `json:"education,omitempty"`
}

// Empty reports whether no field was suggested.
func (ci CareerInsights) Empty() bool {
	return ci.CurrentTitle == nil && ci.CurrentCompany == nil &&
		len(ci.PreviousCompanies) == 0 && ci.Education == nil
}

// DecodeInsights decodes untrusted output key by key. Null, blank and
// wrongly typed values are dropped. The boolean is false when raw is not a
// JSON object at all.
func DecodeInsights(raw []byte) (CareerInsights, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(bytes.TrimSpace(raw), &fields); err != nil {
		return CareerInsights{}, false
	}

	var ci CareerInsights
	ci.CurrentTitle = optionalString(fields["current_title"])
	ci.CurrentCompany = optionalString(fields["current_company"])
	ci.Education = optionalString(fields["education"])
	ci.PreviousCompanies = stringList(fields["previous_companies"])
	return ci, true
}

func optionalString(raw json.RawMessage) *string {
	if len(raw) == 0 {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		// some models answer with a list where a string was asked for
		list := stringList(raw)
		if len(list) == 0 {
			return nil
		}
		s = strings.Join(list, ", ")
	}
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") {
		return nil
	}
	return &s
}

func stringList(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		if s := optionalScalar(raw); s != "" {
			return []string{s}
		}
		return nil
	}
	var out []string
	for _, it := range items {
		if s, ok := it.(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func optionalScalar(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}
