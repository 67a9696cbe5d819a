// Package mediatype implements a parsed, canonical representation of IANA
// media types and a pair of registries (encoders, decoders) used by the
// request factory and session facade for content negotiation.
package mediatype

import (
	"fmt"
	"sort"
	"strings"
)

// Top is the top-level media type token (the part before the first "/").
type Top string

const (
	Application Top = "application"
	Audio       Top = "audio"
	Example     Top = "example"
	Font        Top = "font"
	Image       Top = "image"
	Message     Top = "message"
	Model       Top = "model"
	Multipart   Top = "multipart"
	Text        Top = "text"
	Video       Top = "video"
	AnyTop      Top = "*"
)

// Tree identifies the subtype registration tree (RFC 6838 §3).
type Tree string

const (
	Standard     Tree = "standard"
	Vendor       Tree = "vendor"
	Personal     Tree = "personal"
	Unregistered Tree = "unregistered"
	Obsolete     Tree = "obsolete"
)

// treePrefixes maps a Tree to its textual subtype prefix.
var treePrefixes = map[Tree]string{
	Vendor:       "vnd.",
	Personal:     "prs.",
	Unregistered: "x.",
	Obsolete:     "x-",
}

var prefixTrees = map[string]Tree{
	"vnd.": Vendor,
	"prs.": Personal,
	"x.":   Unregistered,
	"x-":   Obsolete,
}

// Suffix is a structured subtype suffix (RFC 6839), e.g. "+json".
type Suffix string

const (
	NoSuffix    Suffix = ""
	XML         Suffix = "xml"
	JSONSuffix  Suffix = "json"
	BER         Suffix = "ber"
	DER         Suffix = "der"
	FastInfoset Suffix = "fastinfoset"
	WBXML       Suffix = "wbxml"
	ZIP         Suffix = "zip"
	CBORSuffix  Suffix = "cbor"
)

// Param is a single media-type parameter in declaration order.
type Param struct {
	Name  string
	Value string
}

// MediaType is a parsed, canonical IANA media type.
//
// The zero value is not a valid MediaType; construct one with Parse or New.
type MediaType struct {
	Top        Top
	Tree       Tree
	Subtype    string
	Suffix     Suffix
	Parameters []Param
}

// New builds a canonical MediaType from its structured parts.
func New(top Top, tree Tree, subtype string, suffix Suffix, params map[string]string) MediaType {
	mt := MediaType{
		Top:     Top(strings.ToLower(string(top))),
		Tree:    tree,
		Subtype: strings.ToLower(subtype),
		Suffix:  Suffix(strings.ToLower(string(suffix))),
	}
	for name, value := range params {
		mt.Parameters = append(mt.Parameters, Param{Name: name, Value: value})
	}
	mt.sortParameters()
	return mt
}

func (mt *MediaType) sortParameters() {
	sort.Slice(mt.Parameters, func(i, j int) bool {
		return strings.ToLower(mt.Parameters[i].Name) < strings.ToLower(mt.Parameters[j].Name)
	})
}

// Parameter looks up a parameter value case-insensitively by name.
func (mt MediaType) Parameter(name string) (string, bool) {
	for _, p := range mt.Parameters {
		if strings.EqualFold(p.Name, name) {
			return p.Value, true
		}
	}
	return "", false
}

// WithParameter returns a copy of mt with name=value set (overwriting any
// existing case-insensitive match), re-sorted into canonical order.
func (mt MediaType) WithParameter(name, value string) MediaType {
	out := mt
	out.Parameters = append([]Param(nil), mt.Parameters...)
	replaced := false
	for i, p := range out.Parameters {
		if strings.EqualFold(p.Name, name) {
			out.Parameters[i].Value = value
			replaced = true
			break
		}
	}
	if !replaced {
		out.Parameters = append(out.Parameters, Param{Name: name, Value: value})
	}
	out.sortParameters()
	return out
}

// Parse parses a media-type string of the form
// "top/[tree-prefix]subtype[+suffix][;param=value]*".
func Parse(s string) (MediaType, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return MediaType{}, fmt.Errorf("mediatype: empty value")
	}

	var mt MediaType

	parts := strings.Split(s, ";")
	head := strings.TrimSpace(parts[0])

	slash := strings.IndexByte(head, '/')
	if slash < 0 {
		return MediaType{}, fmt.Errorf("mediatype: missing '/' in %q", s)
	}
	top := strings.ToLower(strings.TrimSpace(head[:slash]))
	rest := strings.TrimSpace(head[slash+1:])
	if top == "" || rest == "" {
		return MediaType{}, fmt.Errorf("mediatype: malformed type %q", s)
	}
	mt.Top = Top(top)

	tree := Standard
	lowerRest := strings.ToLower(rest)
	for prefix, t := range prefixTrees {
		if strings.HasPrefix(lowerRest, prefix) {
			tree = t
			rest = rest[len(prefix):]
			break
		}
	}
	mt.Tree = tree

	subtype := rest
	suffix := NoSuffix
	if plus := strings.LastIndexByte(rest, '+'); plus >= 0 {
		subtype = rest[:plus]
		suffix = Suffix(strings.ToLower(rest[plus+1:]))
	}
	mt.Subtype = strings.ToLower(subtype)
	mt.Suffix = suffix

	for _, raw := range parts[1:] {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		eq := strings.IndexByte(raw, '=')
		if eq < 0 {
			mt.Parameters = append(mt.Parameters, Param{Name: strings.ToLower(raw), Value: ""})
			continue
		}
		name := strings.ToLower(strings.TrimSpace(raw[:eq]))
		value := strings.TrimSpace(raw[eq+1:])
		value = strings.Trim(value, `"`)
		mt.Parameters = append(mt.Parameters, Param{Name: name, Value: value})
	}
	mt.sortParameters()

	return mt, nil
}

// MustParse is Parse, panicking on error. Intended for package-level
// variable initialization of well-known media types.
func MustParse(s string) MediaType {
	mt, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return mt
}

// String renders mt in canonical textual form.
func (mt MediaType) String() string {
	var b strings.Builder
	b.WriteString(string(mt.Top))
	b.WriteByte('/')
	b.WriteString(treePrefixes[mt.Tree])
	b.WriteString(mt.Subtype)
	if mt.Suffix != NoSuffix {
		b.WriteByte('+')
		b.WriteString(string(mt.Suffix))
	}
	for _, p := range mt.Parameters {
		b.WriteByte(';')
		b.WriteString(strings.ToLower(p.Name))
		b.WriteByte('=')
		b.WriteString(p.Value)
	}
	return b.String()
}

// Equal reports whether mt and other have the same canonical form.
func (mt MediaType) Equal(other MediaType) bool {
	return mt.String() == other.String()
}

// Compatible implements the "~=" relation from spec.md §3: type equal or
// either is Any; subtype equal or either is "*"; trees equal; suffixes
// equal or both absent; for every parameter present on both sides, values
// match case-insensitively (parameters present on only one side are
// ignored).
func (mt MediaType) Compatible(other MediaType) bool {
	if mt.Top != other.Top && mt.Top != AnyTop && other.Top != AnyTop {
		return false
	}
	if mt.Subtype != other.Subtype && mt.Subtype != "*" && other.Subtype != "*" {
		return false
	}
	if mt.Tree != other.Tree {
		return false
	}
	if mt.Suffix != other.Suffix && mt.Suffix != NoSuffix && other.Suffix != NoSuffix {
		return false
	}
	for _, p := range mt.Parameters {
		if v, ok := other.Parameter(p.Name); ok {
			if !strings.EqualFold(v, p.Value) {
				return false
			}
		}
	}
	return true
}

// Well-known media types used as defaults throughout the package.
var (
	JSON            = MustParse("application/json")
	CBOR            = MustParse("application/cbor")
	FormURLEncoded  = MustParse("application/x-www-form-urlencoded")
	TextPlain       = MustParse("text/plain")
	AnyText         = MustParse("text/*")
	OctetStream     = MustParse("application/octet-stream")
	ProblemJSON     = MustParse("application/problem+json")
	ProblemCBOR     = MustParse("application/problem+cbor")
	AnyMediaType    = New(AnyTop, Standard, "*", NoSuffix, nil)
)
