package headers

import (
	"regexp"
	"strings"
)

var contentTypeRE = regexp.MustCompile(`^([^;]+)`)

// paramPattern matches `;key=value` or `;key="quoted value"` segments,
// ported from parse_opts_header's verbose regex: a semicolon, optional
// whitespace, a bare key, '=', then either a double-quoted value
// (allowing backslash-escaped characters) or an unquoted run up to the
// next semicolon.
var paramPattern = regexp.MustCompile(`;\s*([^=;\s]+)=("(?:[^"\\]|\\.)*"|[^;]*)`)

var escapedCharRE = regexp.MustCompile(`\\(.)`)

// ParseContentType splits a Content-Type (or similarly-shaped,
// parameterized) header value into its lowercased media type and a
// map of its lowercase-keyed parameters, unescaping quoted values.
func ParseContentType(header string) (mediaType string, params map[string]string) {
	header = strings.TrimSpace(header)
	params = map[string]string{}

	m := contentTypeRE.FindStringSubmatchIndex(header)
	if m == nil {
		return "", params
	}
	mediaType = strings.ToLower(strings.TrimSpace(header[m[2]:m[3]]))
	rest := header[m[1]:]

	for _, pm := range paramPattern.FindAllStringSubmatch(rest, -1) {
		key := strings.ToLower(pm[1])
		value := strings.TrimSpace(pm[2])
		if strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`) && len(value) >= 2 {
			value = escapedCharRE.ReplaceAllString(value[1:len(value)-1], "$1")
		}
		params[key] = value
	}
	return mediaType, params
}
