package httpparser

import (
	"strconv"

	"github.com/WhileEndless/go-httpcore/pkg/errors"
)

const digits = "0123456789"
const hexDigits = "0123456789abcdefABCDEF"

// boundedInt parses s as a non-negative decimal integer, rejecting it
// as a ProtocolError if it is longer than maxDigits or contains any
// non-digit byte. Used for Content-Length and status-code parsing,
// where a malicious or buggy peer could otherwise send an arbitrarily
// long digit string.
func boundedInt(s string, maxDigits int, excText string) (int64, error) {
	if len(s) == 0 || len(s) > maxDigits || containsOutside(s, digits) {
		return 0, errors.NewProtocolError(excText, nil)
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errors.NewProtocolError(excText, nil)
	}
	return v, nil
}

// boundedHex parses s as a hex chunk-size, with the same bounded-length
// and charset validation as boundedInt.
func boundedHex(s string, maxDigits int, excText string) (int64, error) {
	if len(s) == 0 || len(s) > maxDigits || containsOutside(s, hexDigits) {
		return 0, errors.NewProtocolError(excText, nil)
	}
	v, err := strconv.ParseInt(s, 16, 64)
	if err != nil {
		return 0, errors.NewProtocolError(excText, nil)
	}
	return v, nil
}

func containsOutside(s, set string) bool {
	for i := 0; i < len(s); i++ {
		if indexByte(set, s[i]) < 0 {
			return true
		}
	}
	return false
}

func indexByte(set string, b byte) int {
	for i := 0; i < len(set); i++ {
		if set[i] == b {
			return i
		}
	}
	return -1
}
