// Package problem implements the RFC 7807 "Problem Details" document type
// and a registry for dispatching a problem's "type" URI to a concrete,
// strongly-typed decoder (spec.md §4.3, §4.5).
package problem

import (
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

// AboutBlank is the default "type" for a Problem that does not identify a
// more specific problem type.
const AboutBlank = "about:blank"

// knownFields are the RFC 7807 fields every Problem carries explicitly;
// anything else in the JSON body lands in Parameters.
var knownFields = map[string]bool{
	"type": true, "title": true, "status": true, "detail": true, "instance": true,
}

// Parameters is an insertion-ordered bag of the fields outside the RFC 7807
// core set found on a generically decoded problem document. A registered
// concrete subtype receives its extra fields through its own struct fields
// and leaves Parameters unset.
type Parameters struct {
	keys   []string
	values map[string]any
}

// NewParameters returns an empty Parameters bag.
func NewParameters() *Parameters {
	return &Parameters{values: map[string]any{}}
}

// Set stores name=value, appending name to Keys() if not already present.
func (p *Parameters) Set(name string, value any) {
	if p.values == nil {
		p.values = map[string]any{}
	}
	if _, exists := p.values[name]; !exists {
		p.keys = append(p.keys, name)
	}
	p.values[name] = value
}

// Get returns the value for name and whether it was present.
func (p *Parameters) Get(name string) (any, bool) {
	if p == nil {
		return nil, false
	}
	v, ok := p.values[name]
	return v, ok
}

// Keys returns parameter names in insertion (i.e. first-seen-in-body) order.
func (p *Parameters) Keys() []string {
	if p == nil {
		return nil
	}
	return append([]string(nil), p.keys...)
}

// Len reports the number of parameters, treating a nil bag as empty.
func (p *Parameters) Len() int {
	if p == nil {
		return 0
	}
	return len(p.keys)
}

// Problem is the generic RFC 7807 document.
type Problem struct {
	Type       string      `json:"type"`
	Title      string      `json:"title"`
	Status     int         `json:"status"`
	Detail     *string     `json:"detail,omitempty"`
	Instance   *string     `json:"instance,omitempty"`
	Parameters *Parameters `json:"-"`
}

// Error implements the error interface so a Problem can be returned
// directly as the typed error of the result chain (spec.md §4.5).
func (p *Problem) Error() string {
	if p.Detail != nil {
		return fmt.Sprintf("%s (%d): %s: %s", p.Title, p.Status, p.Type, *p.Detail)
	}
	return fmt.Sprintf("%s (%d): %s", p.Title, p.Status, p.Type)
}

// Generic builds the fallback Problem used when the response body is empty
// or unparseable (spec.md §4.5 steps 1 and 3).
func Generic(status int, reasonPhrase string) *Problem {
	return &Problem{
		Type:   AboutBlank,
		Title:  reasonPhrase,
		Status: status,
	}
}

// DecodeGeneric parses raw JSON problem+json bytes into a generic Problem,
// placing any field not in the RFC 7807 core set into Parameters.
func DecodeGeneric(raw []byte) (*Problem, error) {
	var p Problem
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("problem: decode: %w", err)
	}
	params := NewParameters()
	result := gjson.ParseBytes(raw)
	result.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		if knownFields[name] {
			return true
		}
		params.Set(name, value.Value())
		return true
	})
	if params.Len() > 0 {
		p.Parameters = params
	}
	if p.Type == "" {
		p.Type = AboutBlank
	}
	return &p, nil
}
