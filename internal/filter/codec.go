// Package filter compiles stored filter definitions into catalog predicates and
// populates facet options for them.
package filter

import (
	"bytes"
	"encoding/json"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// TokenSeparator joins the key and value of a composite token.
const TokenSeparator = "::"

// Token is a decoded selection value.
type Token struct {
	Key       string
	Value     string
	Composite bool
}

// EncodeToken builds a composite key::value token.
func EncodeToken(key, value string) string {
	return key + TokenSeparator + value
}

// DecodeToken splits a token on the first separator. Values may contain the
// separator themselves. Key and value come back trimmed; anything without a
// non-empty key and value is plain.
func DecodeToken(token string) Token {
	key, value, found := strings.Cut(token, TokenSeparator)
	key, value = strings.TrimSpace(key), strings.TrimSpace(value)
	if found && key != "" && value != "" {
		return Token{Key: key, Value: value, Composite: true}
	}
	return Token{Value: token}
}

// Selection maps a filter id to the tokens chosen for it.
type Selection map[string][]string

// FilterIds returns the ids having at least one non-empty token, sorted.
func (s Selection) FilterIds() []string {
	ids := make([]string, 0, len(s))
	for id, tokens := range s {
		if hasValue(tokens) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// maxSelectionDecodes is how many URL-decoding passes a payload may need:
// raw JSON, encoded once, encoded twice.
const maxSelectionDecodes = 2

// ParseSelection accepts an already decoded selection object, a JSON string, or a
// JSON string URL-encoded once or twice. Malformed input yields an empty selection.
func ParseSelection(raw any) Selection {
	switch v := raw.(type) {
	case nil:
		return Selection{}
	case Selection:
		return normalizeSelection(v)
	case map[string][]string:
		return normalizeSelection(v)
	case map[string]any:
		return selectionFromObject(v)
	case []byte:
		return parseSelectionString(string(v))
	case string:
		return parseSelectionString(v)
	default:
		return Selection{}
	}
}

func parseSelectionString(s string) Selection {
	candidate := strings.TrimSpace(s)
	if candidate == "" {
		return Selection{}
	}
	for i := 0; i <= maxSelectionDecodes; i++ {
		if sel, ok := selectionFromJSON(candidate); ok {
			return sel
		}
		if i == maxSelectionDecodes {
			break
		}
		next, err := url.QueryUnescape(candidate)
		if err != nil || next == candidate {
			break
		}
		candidate = strings.TrimSpace(next)
	}
	return Selection{}
}

func selectionFromJSON(s string) (Selection, bool) {
	if !strings.HasPrefix(s, "{") {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, false
	}
	return selectionFromObject(obj), true
}

func selectionFromObject(obj map[string]any) Selection {
	sel := make(Selection, len(obj))
	for id, v := range obj {
		var tokens []string
		switch vv := v.(type) {
		case []any:
			for _, item := range vv {
				if t, ok := scalarToken(item); ok {
					tokens = append(tokens, t)
				}
			}
		case []string:
			tokens = trimTokens(vv)
		default:
			if t, ok := scalarToken(vv); ok {
				tokens = append(tokens, t)
			}
		}
		if id = strings.TrimSpace(id); id != "" && hasValue(tokens) {
			sel[id] = tokens
		}
	}
	return sel
}

// scalarToken converts a JSON scalar to a token. Null and blank values are kept
// as empty tokens so range bounds stay positional.
func scalarToken(v any) (string, bool) {
	var s string
	switch vv := v.(type) {
	case nil:
		return "", true
	case string:
		s = vv
	case json.Number:
		s = vv.String()
	case float64:
		s = strconv.FormatFloat(vv, 'f', -1, 64)
	case int:
		s = strconv.Itoa(vv)
	case bool:
		s = strconv.FormatBool(vv)
	default:
		return "", false
	}
	return strings.TrimSpace(s), true
}

func trimTokens(in []string) []string {
	out := make([]string, len(in))
	for i, t := range in {
		out[i] = strings.TrimSpace(t)
	}
	return out
}

func hasValue(tokens []string) bool {
	for _, t := range tokens {
		if t != "" {
			return true
		}
	}
	return false
}

// nonEmpty drops blank tokens.
func nonEmpty(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

func normalizeSelection(in map[string][]string) Selection {
	sel := make(Selection, len(in))
	for id, tokens := range in {
		id = strings.TrimSpace(id)
		if trimmed := trimTokens(tokens); id != "" && hasValue(trimmed) {
			sel[id] = trimmed
		}
	}
	return sel
}
