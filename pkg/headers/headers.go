// Package headers implements the ordered, case-insensitive multi-map
// used for HTTP request/response header fields.
package headers

import (
	"strings"

	"github.com/WhileEndless/go-httpcore/pkg/errors"
)

// validHeaderChars mirrors RFC 7230's token grammar for a header
// field-name: any of these bytes, repeated one-or-more times.
const validHeaderChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
	"abcdefghijklmnopqrstuvwxyz" +
	"0123456789" +
	"!#$%&'*+-.^_`|~"

type entry struct {
	name  string
	value string
}

// Headers is an ordered multi-map of header fields: lookups and
// equality are case-insensitive, but the original casing of every
// name is preserved for emission, and a name may repeat (e.g. multiple
// Set-Cookie response headers).
type Headers struct {
	items []entry
}

// New builds Headers from an ordered name/value sequence, validating
// every field. Duplicate names are kept, not collapsed.
func New(pairs [][2]string) (Headers, error) {
	h := Headers{items: make([]entry, 0, len(pairs))}
	for _, p := range pairs {
		name, err := validateName(p[0])
		if err != nil {
			return Headers{}, err
		}
		value, err := validateValue(p[1])
		if err != nil {
			return Headers{}, err
		}
		h.items = append(h.items, entry{name, value})
	}
	return h, nil
}

// FromMap builds Headers from an unordered map; callers that need a
// stable field order should use New with an explicit pair sequence
// instead (e.g. for the Host header, which conventionally comes first).
func FromMap(m map[string]string) (Headers, error) {
	pairs := make([][2]string, 0, len(m))
	for k, v := range m {
		pairs = append(pairs, [2]string{k, v})
	}
	return New(pairs)
}

func validateName(name string) (string, error) {
	if name == "" || strings.Trim(name, validHeaderChars) != "" {
		return "", errors.NewValidationError("invalid HTTP header name " + quote(name))
	}
	return name, nil
}

func validateValue(value string) (string, error) {
	trimmed := strings.Trim(value, " ")
	if trimmed == "" || !isASCIIPrintable(trimmed) {
		return "", errors.NewValidationError("invalid HTTP header value " + quote(value))
	}
	return trimmed, nil
}

func isASCIIPrintable(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 0x20 || c > 0x7e {
			return false
		}
	}
	return true
}

func quote(s string) string { return "\"" + s + "\"" }

// Get returns the first value for key (case-insensitively matched),
// or def if key is absent.
func (h Headers) Get(key, def string) string {
	for _, e := range h.items {
		if strings.EqualFold(e.name, key) {
			return e.value
		}
	}
	return def
}

// GetList returns every value for key, in original order.
func (h Headers) GetList(key string) []string {
	var out []string
	for _, e := range h.items {
		if strings.EqualFold(e.name, key) {
			out = append(out, e.value)
		}
	}
	return out
}

// Has reports whether key has at least one value.
func (h Headers) Has(key string) bool {
	for _, e := range h.items {
		if strings.EqualFold(e.name, key) {
			return true
		}
	}
	return false
}

// Items returns every (name, value) pair in wire order.
func (h Headers) Items() [][2]string {
	out := make([][2]string, len(h.items))
	for i, e := range h.items {
		out[i] = [2]string{e.name, e.value}
	}
	return out
}

// Keys returns the distinct header names, in first-seen order, with
// their original casing.
func (h Headers) Keys() []string {
	seen := map[string]bool{}
	var out []string
	for _, e := range h.items {
		lower := strings.ToLower(e.name)
		if seen[lower] {
			continue
		}
		seen[lower] = true
		out = append(out, e.name)
	}
	return out
}

// Len returns the total number of header fields, including duplicates.
func (h Headers) Len() int { return len(h.items) }

// CopySet returns a copy with every existing field named key removed
// and a single new field appended in its place — this is "remove all
// occurrences, then append", not an in-place replace of the first
// occurrence, so field order moves the key to the end.
func (h Headers) CopySet(key, value string) (Headers, error) {
	name, err := validateName(key)
	if err != nil {
		return Headers{}, err
	}
	val, err := validateValue(value)
	if err != nil {
		return Headers{}, err
	}
	out := Headers{}
	for _, e := range h.items {
		if strings.EqualFold(e.name, key) {
			continue
		}
		out.items = append(out.items, e)
	}
	out.items = append(out.items, entry{name, val})
	return out, nil
}

// CopyAppend returns a copy with a new field appended, leaving any
// existing same-named fields in place.
func (h Headers) CopyAppend(key, value string) (Headers, error) {
	name, err := validateName(key)
	if err != nil {
		return Headers{}, err
	}
	val, err := validateValue(value)
	if err != nil {
		return Headers{}, err
	}
	out := Headers{items: append([]entry(nil), h.items...)}
	out.items = append(out.items, entry{name, val})
	return out, nil
}

// CopyRemove returns a copy with every field named key removed.
func (h Headers) CopyRemove(key string) Headers {
	out := Headers{}
	for _, e := range h.items {
		if strings.EqualFold(e.name, key) {
			continue
		}
		out.items = append(out.items, e)
	}
	return out
}

// CopyUpdate returns a copy merged with update: every field name
// present in update is first removed from this map (case-insensitively,
// all occurrences), then update's fields are appended in order.
func (h Headers) CopyUpdate(update Headers) Headers {
	updateNames := map[string]bool{}
	for _, e := range update.items {
		updateNames[strings.ToLower(e.name)] = true
	}
	out := Headers{}
	for _, e := range h.items {
		if updateNames[strings.ToLower(e.name)] {
			continue
		}
		out.items = append(out.items, e)
	}
	out.items = append(out.items, update.items...)
	return out
}

// Equal reports order-independent, case-insensitive equality: the same
// multiset of (lowercased name, value) pairs.
func (h Headers) Equal(other Headers) bool {
	if len(h.items) != len(other.items) {
		return false
	}
	norm := func(hs Headers) []string {
		out := make([]string, len(hs.items))
		for i, e := range hs.items {
			out[i] = strings.ToLower(e.name) + "\x00" + e.value
		}
		return out
	}
	a, b := norm(h), norm(other)
	counts := map[string]int{}
	for _, s := range a {
		counts[s]++
	}
	for _, s := range b {
		counts[s]--
	}
	for _, c := range counts {
		if c != 0 {
			return false
		}
	}
	return true
}

// Encode renders the headers as CRLF-joined "Name: value" lines, with
// no leading or trailing CRLF, ready to be followed by the blank line
// that terminates an HTTP header block.
func (h Headers) Encode() string {
	lines := make([]string, len(h.items))
	for i, e := range h.items {
		lines[i] = e.name + ": " + e.value
	}
	return strings.Join(lines, "\r\n")
}
