package httpurl

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/idna"

	"github.com/WhileEndless/go-httpcore/pkg/errors"
)

// defaultPorts normalizes a URL's port to absent when it matches the
// scheme's default. ws/wss/ftp are included even though this module
// does not otherwise speak them, because the WHATWG default-port table
// they belong to is what tests exercise.
var defaultPorts = map[string]int{
	"http":  80,
	"https": 443,
	"ws":    80,
	"wss":   443,
	"ftp":   21,
}

var authorityRE = regexp.MustCompile(`^(?:(.*)@)?(\[[^\]]*\]|[^:]*)(?::(\d*))?$`)

// URL is an immutable, normalized URL: the scheme is lowercased, the
// host is stored as its IDNA A-label lowercased, and the port is
// omitted whenever it equals the scheme's default.
type URL struct {
	scheme      string
	rawUserinfo string
	ahost       string
	port        *int
	rawPath     string
	rawQuery    *string
	fragment    string
}

// Parse parses raw into a normalized URL, or returns a ProtocolError-
// flavored validation error on malformed input. Parsing proceeds
// right-to-left off the generic RFC 3986 Appendix B grammar: strip the
// fragment, then the query, then an optional scheme, then an optional
// "//"-prefixed authority, leaving the path.
func Parse(raw string) (URL, error) {
	working := raw

	fragment := ""
	if i := strings.IndexByte(working, '#'); i >= 0 {
		fragment = working[i+1:]
		working = working[:i]
	}

	var query *string
	if i := strings.IndexByte(working, '?'); i >= 0 {
		q := working[i+1:]
		query = &q
		working = working[:i]
	}

	scheme := ""
	if i := strings.IndexByte(working, ':'); i >= 0 {
		slash := strings.IndexByte(working, '/')
		if slash == -1 || i < slash {
			scheme = strings.ToLower(working[:i])
			working = working[i+1:]
		}
	}

	u := URL{scheme: scheme, rawQuery: query, fragment: fragment}

	if strings.HasPrefix(working, "//") {
		working = working[2:]
		end := len(working)
		if i := strings.IndexByte(working, '/'); i >= 0 {
			end = i
		}
		authority := working[:end]
		working = working[end:]

		am := authorityRE.FindStringSubmatch(authority)
		if am == nil {
			return URL{}, errors.NewValidationError("malformed authority in URL " + strconv.Quote(raw))
		}
		u.rawUserinfo = am[1]
		ahost, err := normalizeHost(am[2])
		if err != nil {
			return URL{}, err
		}
		u.ahost = ahost
		if am[3] != "" {
			p, err := strconv.Atoi(am[3])
			if err != nil || p < 0 || p > 65535 {
				return URL{}, errors.NewValidationError("invalid port in URL " + strconv.Quote(raw))
			}
			u.port = &p
		}
	}

	u.rawPath = working
	u.normalizePort()
	return u, nil
}

func normalizeHost(host string) (string, error) {
	if host == "" {
		return "", nil
	}
	if strings.HasPrefix(host, "[") {
		return strings.ToLower(host), nil
	}
	lower := strings.ToLower(host)
	a, err := idna.ToASCII(lower)
	if err != nil {
		// Not every bracketed/literal host is valid IDNA (e.g. plain
		// ASCII hosts with underscores); fall back to the lowercased
		// literal rather than rejecting it outright.
		return lower, nil
	}
	return a, nil
}

func (u *URL) normalizePort() {
	if u.port == nil {
		return
	}
	if def, ok := defaultPorts[u.scheme]; ok && *u.port == def {
		u.port = nil
	}
}

// MustParse is Parse but panics on error; useful for constants in
// tests and examples.
func MustParse(raw string) URL {
	u, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return u
}

// Scheme returns the lowercased URL scheme.
func (u URL) Scheme() string { return u.scheme }

// RawUserinfo returns the userinfo component, percent-encoded, without
// URL-decoding applied.
func (u URL) RawUserinfo() string { return u.rawUserinfo }

// Username returns the percent-decoded username portion of userinfo.
func (u URL) Username() string {
	name, _, _ := strings.Cut(u.rawUserinfo, ":")
	return Unquote(name)
}

// Password returns the percent-decoded password portion of userinfo.
func (u URL) Password() string {
	_, pass, found := strings.Cut(u.rawUserinfo, ":")
	if !found {
		return ""
	}
	return Unquote(pass)
}

// RawHost returns the IDNA A-label host, lowercased, as stored.
func (u URL) RawHost() string { return u.ahost }

// Host returns the IDNA U-label (Unicode) form of the host, decoded
// on demand from the stored A-label.
func (u URL) Host() string {
	if u.ahost == "" || strings.HasPrefix(u.ahost, "[") {
		return u.ahost
	}
	uni, err := idna.ToUnicode(u.ahost)
	if err != nil {
		return u.ahost
	}
	return uni
}

// Port returns the normalized port, or nil if it is absent or equal
// to the scheme's default.
func (u URL) Port() *int { return u.port }

// Netloc returns "host" or "host:port", suitable for a request's Host
// header.
func (u URL) Netloc() string {
	if u.port == nil {
		return u.ahost
	}
	return u.ahost + ":" + strconv.Itoa(*u.port)
}

// RawPath returns the percent-encoded path, defaulting to "/".
func (u URL) RawPath() string {
	if u.rawPath == "" {
		return "/"
	}
	return u.rawPath
}

// Path returns the percent-decoded path, defaulting to "/".
func (u URL) Path() string { return Unquote(u.RawPath()) }

// RawQuery returns the raw query bytes, excluding the leading '?', or
// "" with ok=false if the URL has no query component at all.
func (u URL) RawQuery() (string, bool) {
	if u.rawQuery == nil {
		return "", false
	}
	return *u.rawQuery, true
}

// Params parses the query string into an ordered multi-map.
func (u URL) Params() QueryParams {
	q, _ := u.RawQuery()
	return NewQueryParams(q)
}

// Target is the request-line target: path plus "?query" if present.
func (u URL) Target() string {
	t := u.RawPath()
	if q, ok := u.RawQuery(); ok {
		t += "?" + quoteRawQuery(q)
	}
	return t
}

// Fragment returns the percent-decoded fragment, without the leading '#'.
func (u URL) Fragment() string { return Unquote(u.fragment) }

// IsAbsoluteURL reports whether both scheme and host are present.
func (u URL) IsAbsoluteURL() bool { return u.scheme != "" && u.ahost != "" }

// IsRelativeURL is the negation of IsAbsoluteURL.
func (u URL) IsRelativeURL() bool { return !u.IsAbsoluteURL() }

// CopyWithOpts names the fields CopyWith can override; zero-value
// pointers leave the corresponding component unchanged.
type CopyWithOpts struct {
	Scheme    *string
	Username  *string
	Password  *string
	Host      *string
	Port      *int
	ClearPort bool
	Path      *string
	Params    *QueryParams
	Fragment  *string
}

// CopyWith returns a new URL with the given components replaced,
// re-running normalization (lowercasing, default-port elision).
func (u URL) CopyWith(opts CopyWithOpts) (URL, error) {
	out := u
	if opts.Scheme != nil {
		out.scheme = strings.ToLower(*opts.Scheme)
	}
	if opts.Host != nil {
		ahost, err := normalizeHost(*opts.Host)
		if err != nil {
			return URL{}, err
		}
		out.ahost = ahost
	}
	if opts.Username != nil || opts.Password != nil {
		user := u.Username()
		pass := u.Password()
		if opts.Username != nil {
			user = *opts.Username
		}
		if opts.Password != nil {
			pass = *opts.Password
		}
		if pass != "" {
			out.rawUserinfo = quoteFormValue(user) + ":" + quoteFormValue(pass)
		} else {
			out.rawUserinfo = quoteFormValue(user)
		}
	}
	if opts.ClearPort {
		out.port = nil
	} else if opts.Port != nil {
		p := *opts.Port
		out.port = &p
	}
	if opts.Path != nil {
		out.rawPath = Quote(*opts.Path, unreservedSafe+"/%")
	}
	if opts.Params != nil {
		if opts.Params.Len() == 0 {
			out.rawQuery = nil
		} else {
			q := opts.Params.Encode()
			out.rawQuery = &q
		}
	}
	if opts.Fragment != nil {
		out.fragment = Quote(*opts.Fragment)
	}
	out.normalizePort()
	return out, nil
}

// CopySetParam returns a copy with the given query parameter set.
func (u URL) CopySetParam(key, value string) (URL, error) {
	p := u.Params().CopySet(key, value)
	return u.CopyWith(CopyWithOpts{Params: &p})
}

// CopyAppendParam returns a copy with the given query parameter appended.
func (u URL) CopyAppendParam(key, value string) (URL, error) {
	p := u.Params().CopyAppend(key, value)
	return u.CopyWith(CopyWithOpts{Params: &p})
}

// CopyRemoveParam returns a copy with the given query parameter removed.
func (u URL) CopyRemoveParam(key string) (URL, error) {
	p := u.Params().CopyRemove(key)
	return u.CopyWith(CopyWithOpts{Params: &p})
}

// String reconstructs the canonical wire form of the URL.
func (u URL) String() string {
	var b strings.Builder
	if u.scheme != "" {
		b.WriteString(u.scheme)
		b.WriteString(":")
	}
	if u.ahost != "" || u.scheme != "" {
		b.WriteString("//")
		if u.rawUserinfo != "" {
			b.WriteString(u.rawUserinfo)
			b.WriteString("@")
		}
		b.WriteString(u.Netloc())
	}
	b.WriteString(u.RawPath())
	if q, ok := u.RawQuery(); ok {
		b.WriteString("?")
		b.WriteString(quoteRawQuery(q))
	}
	if u.fragment != "" {
		b.WriteString("#")
		b.WriteString(u.fragment)
	}
	return b.String()
}

// Equal reports whether two URLs have identical canonical string forms.
func (u URL) Equal(other URL) bool { return u.String() == other.String() }

// Join resolves ref against u as its base, per RFC 3986 §5.3.
func (u URL) Join(ref URL) (URL, error) {
	if ref.IsAbsoluteURL() {
		return ref, nil
	}
	out := ref
	if ref.scheme == "" {
		out.scheme = u.scheme
	}
	if ref.ahost != "" {
		// ref carries its own authority (protocol-relative reference).
		out.normalizePort()
		return out, nil
	}
	out.ahost = u.ahost
	out.port = u.port
	out.rawUserinfo = u.rawUserinfo

	switch {
	case ref.rawPath == "" && ref.rawQuery == nil:
		out.rawPath = u.rawPath
		out.rawQuery = u.rawQuery
	case ref.rawPath == "":
		out.rawPath = u.rawPath
		out.rawQuery = ref.rawQuery
	case strings.HasPrefix(ref.rawPath, "/"):
		out.rawPath = removeDotSegments(ref.rawPath)
		out.rawQuery = ref.rawQuery
	default:
		out.rawPath = removeDotSegments(mergePaths(u, ref.rawPath))
		out.rawQuery = ref.rawQuery
	}
	out.normalizePort()
	return out, nil
}

func mergePaths(base URL, refPath string) string {
	if base.ahost != "" && base.rawPath == "" {
		return "/" + refPath
	}
	idx := strings.LastIndex(base.rawPath, "/")
	if idx < 0 {
		return refPath
	}
	return base.rawPath[:idx+1] + refPath
}

// removeDotSegments implements RFC 3986 §5.2.4.
func removeDotSegments(path string) string {
	var out []string
	absolute := strings.HasPrefix(path, "/")
	for _, seg := range strings.Split(path, "/") {
		switch seg {
		case ".":
			// drop
		case "..":
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		default:
			out = append(out, seg)
		}
	}
	joined := strings.Join(out, "/")
	if absolute && !strings.HasPrefix(joined, "/") {
		joined = "/" + joined
	}
	return joined
}
