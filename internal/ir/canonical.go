package ir

import (
	"bytes"
	"sort"
	"strconv"
	"unicode/utf16"

	"github.com/cockroachdb/errors"
	"golang.org/x/text/unicode/norm"
)

// Node is a value in the canonical tree the fingerprint is computed over.
// Implementations: Str, Int, Bool, List, Object.
type Node interface {
	isNode()
}

// Str is a string node.
type Str string

// Int is an integer node.
type Int int64

// Bool is a boolean node.
type Bool bool

// List is a sequence node, encoded in index order.
type List []Node

// Object is a mapping node, encoded in sorted-key order.
type Object map[string]Node

func (Str) isNode()    {}
func (Int) isNode()    {}
func (Bool) isNode()   {}
func (List) isNode()   {}
func (Object) isNode() {}

// MarshalCanonical encodes n as RFC 8785 canonical JSON.
//
// Object keys are ordered by UTF-16 code units, strings are NFC normalized
// and only quote, backslash and control characters are escaped. This is the
// only encoding used for fingerprinting.
func MarshalCanonical(n Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeCanonical(&buf, n); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, n Node) error {
	switch v := n.(type) {
	case nil:
		return errors.New("null is forbidden in canonical JSON")
	case Str:
		writeCanonicalString(buf, string(v))
	case Int:
		buf.WriteString(strconv.FormatInt(int64(v), 10))
	case Bool:
		buf.WriteString(strconv.FormatBool(bool(v)))
	case List:
		buf.WriteByte('[')
		for i, elem := range v {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, elem); err != nil {
				return errors.Wrapf(err, "[%d]", i)
			}
		}
		buf.WriteByte(']')
	case Object:
		buf.WriteByte('{')
		for i, k := range v.SortedKeys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeCanonicalString(buf, k)
			buf.WriteByte(':')
			if err := writeCanonical(buf, v[k]); err != nil {
				return errors.Wrapf(err, "%q", k)
			}
		}
		buf.WriteByte('}')
	default:
		return errors.Newf("unsupported canonical node %T", n)
	}
	return nil
}

const hexDigits = "0123456789abcdef"

func writeCanonicalString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for _, r := range norm.NFC.String(s) {
		switch {
		case r == '"':
			buf.WriteString(`\"`)
		case r == '\\':
			buf.WriteString(`\\`)
		case r == '\b':
			buf.WriteString(`\b`)
		case r == '\f':
			buf.WriteString(`\f`)
		case r == '\n':
			buf.WriteString(`\n`)
		case r == '\r':
			buf.WriteString(`\r`)
		case r == '\t':
			buf.WriteString(`\t`)
		case r < 0x20:
			buf.WriteString(`\u00`)
			buf.WriteByte(hexDigits[r>>4])
			buf.WriteByte(hexDigits[r&0xF])
		default:
			buf.WriteRune(r)
		}
	}
	buf.WriteByte('"')
}

// SortedKeys returns the keys of o in RFC 8785 order.
func (o Object) SortedKeys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return compareUTF16(keys[i], keys[j]) < 0 })
	return keys
}

// compareUTF16 orders strings by UTF-16 code units. It differs from byte
// order for characters outside the BMP.
func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	for i := 0; i < len(a16) && i < len(b16); i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}
	return len(a16) - len(b16)
}
