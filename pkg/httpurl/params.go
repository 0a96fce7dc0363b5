package httpurl

// QueryParams is the ordered multi-map backing a URL's query string.
type QueryParams struct{ Values }

// NewQueryParams builds QueryParams from a raw percent-encoded query
// string (without the leading '?').
func NewQueryParams(encoded string) QueryParams {
	return QueryParams{FromEncoded(encoded)}
}

// NewQueryParamsFromPairs builds QueryParams from an ordered sequence,
// preserving duplicate keys.
func NewQueryParamsFromPairs(pairs [][2]string) QueryParams {
	return QueryParams{FromPairs(pairs)}
}

// NewQueryParamsFromMap builds QueryParams from a map of string or
// []string values.
func NewQueryParamsFromMap(m map[string]any) QueryParams {
	return QueryParams{FromMap(m)}
}

func (q QueryParams) CopySet(key, value string) QueryParams    { return QueryParams{q.Values.CopySet(key, value)} }
func (q QueryParams) CopyAppend(key, value string) QueryParams { return QueryParams{q.Values.CopyAppend(key, value)} }
func (q QueryParams) CopyRemove(key string) QueryParams        { return QueryParams{q.Values.CopyRemove(key)} }
func (q QueryParams) CopyUpdate(update QueryParams) QueryParams {
	return QueryParams{q.Values.CopyUpdate(update.Values)}
}
func (q QueryParams) Equal(other QueryParams) bool { return q.Values.Equal(other.Values) }
func (q QueryParams) String() string               { return q.Encode() }

// Form is the ordered multi-map used for application/x-www-form-urlencoded
// bodies; it shares QueryParams' exact encoding/decoding semantics.
type Form struct{ Values }

// NewForm builds a Form from a raw percent-encoded body string.
func NewForm(encoded string) Form {
	return Form{FromEncoded(encoded)}
}

// NewFormFromPairs builds a Form from an ordered sequence, preserving
// duplicate keys.
func NewFormFromPairs(pairs [][2]string) Form {
	return Form{FromPairs(pairs)}
}

// NewFormFromMap builds a Form from a map of string or []string values.
func NewFormFromMap(m map[string]any) Form {
	return Form{FromMap(m)}
}

func (f Form) CopySet(key, value string) Form    { return Form{f.Values.CopySet(key, value)} }
func (f Form) CopyAppend(key, value string) Form { return Form{f.Values.CopyAppend(key, value)} }
func (f Form) CopyRemove(key string) Form        { return Form{f.Values.CopyRemove(key)} }
func (f Form) CopyUpdate(update Form) Form       { return Form{f.Values.CopyUpdate(update.Values)} }
func (f Form) Equal(other Form) bool             { return f.Values.Equal(other.Values) }
func (f Form) String() string                    { return f.Encode() }
