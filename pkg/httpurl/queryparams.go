package httpurl

import "sort"

// Values is the ordered multi-map shared by QueryParams and Form: a
// string key maps to one-or-more ordered string values, constructed
// from a percent-encoded query string, a map, or a key/value sequence.
type Values struct {
	order []string
	data  map[string][]string
}

func newValues() Values {
	return Values{data: map[string][]string{}}
}

func (v *Values) appendValue(key, value string) {
	if _, ok := v.data[key]; !ok {
		v.order = append(v.order, key)
	}
	v.data[key] = append(v.data[key], value)
}

func (v *Values) setValues(key string, values []string) {
	if _, ok := v.data[key]; !ok {
		v.order = append(v.order, key)
	}
	v.data[key] = values
}

// FromPairs builds Values from an ordered key/value sequence, allowing
// duplicate keys (each occurrence is appended).
func FromPairs(pairs [][2]string) Values {
	v := newValues()
	for _, p := range pairs {
		v.appendValue(p[0], p[1])
	}
	return v
}

// FromMap builds Values from a map whose values are either a single
// string or a slice of strings.
func FromMap(m map[string]any) Values {
	v := newValues()
	for key, raw := range m {
		switch val := raw.(type) {
		case string:
			v.setValues(key, []string{val})
		case []string:
			v.setValues(key, append([]string(nil), val...))
		}
	}
	sort.Strings(v.order)
	return v
}

// FromEncoded parses a percent-encoded "a=1&b=2&b=3" style string.
func FromEncoded(encoded string) Values {
	v := newValues()
	if encoded == "" {
		return v
	}
	for _, part := range splitAmp(encoded) {
		if part == "" {
			continue
		}
		key, value := partitionEquals(part)
		v.appendValue(unquoteFormValue(key), unquoteFormValue(value))
	}
	return v
}

func splitAmp(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '&' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}

func partitionEquals(s string) (string, string) {
	for i := 0; i < len(s); i++ {
		if s[i] == '=' {
			return s[:i], s[i+1:]
		}
	}
	return s, ""
}

// Keys returns the distinct keys in first-seen order.
func (v Values) Keys() []string {
	return append([]string(nil), v.order...)
}

// Values returns, for each key in order, its first value.
func (v Values) Values() []string {
	out := make([]string, 0, len(v.order))
	for _, k := range v.order {
		out = append(out, v.data[k][0])
	}
	return out
}

// Items returns (key, first-value) pairs in key order.
func (v Values) Items() [][2]string {
	out := make([][2]string, 0, len(v.order))
	for _, k := range v.order {
		out = append(out, [2]string{k, v.data[k][0]})
	}
	return out
}

// MultiItems returns every (key, value) pair, including duplicates.
func (v Values) MultiItems() [][2]string {
	var out [][2]string
	for _, k := range v.order {
		for _, val := range v.data[k] {
			out = append(out, [2]string{k, val})
		}
	}
	return out
}

// Get returns the first value for key, or def if key is absent.
func (v Values) Get(key, def string) string {
	if vals, ok := v.data[key]; ok && len(vals) > 0 {
		return vals[0]
	}
	return def
}

// GetList returns every value for key, in order.
func (v Values) GetList(key string) []string {
	return append([]string(nil), v.data[key]...)
}

// Has reports whether key has at least one value.
func (v Values) Has(key string) bool {
	_, ok := v.data[key]
	return ok
}

// Len reports the number of distinct keys.
func (v Values) Len() int { return len(v.order) }

// CopySet returns a copy with key's values replaced by a single value.
func (v Values) CopySet(key, value string) Values {
	out := v.clone()
	out.setValues(key, []string{value})
	return out
}

// CopyAppend returns a copy with value appended to key's values.
func (v Values) CopyAppend(key, value string) Values {
	out := v.clone()
	out.appendValue(key, value)
	return out
}

// CopyRemove returns a copy with key removed entirely.
func (v Values) CopyRemove(key string) Values {
	out := newValues()
	for _, k := range v.order {
		if k == key {
			continue
		}
		out.setValues(k, append([]string(nil), v.data[k]...))
	}
	return out
}

// CopyUpdate returns a copy merged with update: update's keys replace
// this map's values for those keys; other keys are kept as-is.
func (v Values) CopyUpdate(update Values) Values {
	out := newValues()
	for _, k := range v.order {
		if update.Has(k) {
			continue
		}
		out.setValues(k, append([]string(nil), v.data[k]...))
	}
	for _, k := range update.order {
		out.setValues(k, append([]string(nil), update.data[k]...))
	}
	return out
}

func (v Values) clone() Values {
	out := newValues()
	for _, k := range v.order {
		out.setValues(k, append([]string(nil), v.data[k]...))
	}
	return out
}

// Equal compares two Values for order-independent multi-item equality.
func (v Values) Equal(other Values) bool {
	a, b := v.MultiItems(), other.MultiItems()
	if len(a) != len(b) {
		return false
	}
	sortPairs(a)
	sortPairs(b)
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sortPairs(p [][2]string) {
	sort.Slice(p, func(i, j int) bool {
		if p[i][0] != p[j][0] {
			return p[i][0] < p[j][0]
		}
		return p[i][1] < p[j][1]
	})
}

// Encode renders Values back to a percent-encoded query string.
func (v Values) Encode() string {
	items := v.MultiItems()
	parts := make([]string, 0, len(items))
	for _, kv := range items {
		parts = append(parts, quoteFormValue(kv[0])+"="+quoteFormValue(kv[1]))
	}
	return joinAmp(parts)
}

func joinAmp(parts []string) string {
	if len(parts) == 0 {
		return ""
	}
	out := parts[0]
	for _, p := range parts[1:] {
		out += "&" + p
	}
	return out
}
