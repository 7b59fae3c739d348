package pdf

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strconv"

	pdflib "github.com/digitorus/pdf"
)

// WriteValue serializes v in PDF syntax. owner is the id of the indirect object v
// was read from: direct values nested in an object report the owner's pointer, so
// any other pointer marks a value that must be written as a reference.
func WriteValue(buf *bytes.Buffer, owner uint32, v pdflib.Value) {
	if ref, ok := refOf(v); ok && ref.ID != owner {
		buf.WriteString(ref.String())
		return
	}

	switch v.Kind() {
	case pdflib.Null:
		buf.WriteString("null")
	case pdflib.Bool:
		if v.Bool() {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case pdflib.Integer:
		buf.WriteString(strconv.FormatInt(v.Int64(), 10))
	case pdflib.Real:
		buf.WriteString(FormatNumber(v.Float64()))
	case pdflib.String:
		buf.WriteString("<" + hex.EncodeToString([]byte(v.RawString())) + ">")
	case pdflib.Name:
		buf.WriteString(Name(v.Name()))
	case pdflib.Array:
		buf.WriteString("[")
		for i := 0; i < v.Len(); i++ {
			buf.WriteString(" ")
			WriteValue(buf, owner, v.Index(i))
		}
		buf.WriteString(" ]")
	case pdflib.Dict:
		WriteDict(buf, owner, v, nil)
	case pdflib.Stream:
		// A stream is always an indirect object; reaching this point means it
		// shares the owner's id, which only happens for the owner itself.
		buf.WriteString("null")
	default:
		buf.WriteString("null")
	}
}

// WriteDict serializes the entries of dict except the keys in skip.
func WriteDict(buf *bytes.Buffer, owner uint32, dict pdflib.Value, skip map[string]bool) {
	buf.WriteString("<<")
	writeEntries(buf, owner, dict, skip)
	buf.WriteString(" >>")
}

func writeEntries(buf *bytes.Buffer, owner uint32, dict pdflib.Value, skip map[string]bool) {
	for _, key := range dict.Keys() {
		if skip[key] {
			continue
		}
		buf.WriteString(" " + Name(key) + " ")
		WriteValue(buf, owner, dict.Key(key))
	}
}

// Entry is a raw dictionary entry added during a merge.
type Entry struct {
	Key   string
	Value string
}

// WriteMergedDict writes dict with extra entries appended. Callers pick extra keys
// that do not collide with existing ones. A null dict writes only the extra
// entries.
func WriteMergedDict(buf *bytes.Buffer, dict pdflib.Value, extra []Entry) {
	WriteUpdatedDict(buf, dict, nil, extra)
}

// WriteUpdatedDict writes dict without the keys in skip, followed by extra.
func WriteUpdatedDict(buf *bytes.Buffer, dict pdflib.Value, skip map[string]bool, extra []Entry) {
	buf.WriteString("<<")
	if dict.Kind() == pdflib.Dict {
		writeEntries(buf, OwnerID(dict), dict, skip)
	}
	for _, e := range extra {
		buf.WriteString(" " + Name(e.Key) + " " + e.Value)
	}
	buf.WriteString(" >>")
}

// OwnerID returns the id of the object that holds v.
func OwnerID(v pdflib.Value) uint32 {
	return uint32(v.GetPtr().GetID())
}

// Name encodes a name object, escaping delimiters and non-regular characters.
func Name(s string) string {
	var b bytes.Buffer
	b.WriteByte('/')
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '!' || c > '~' || bytes.IndexByte([]byte("#()<>[]{}/%"), c) >= 0 {
			fmt.Fprintf(&b, "#%02X", c)
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// FormatNumber formats a real number without exponent and trailing zeros.
func FormatNumber(f float64) string {
	s := strconv.FormatFloat(f, 'f', 4, 64)
	s = trimZeros(s)
	if s == "-0" {
		return "0"
	}
	return s
}

func trimZeros(s string) string {
	if !bytes.ContainsRune([]byte(s), '.') {
		return s
	}
	for len(s) > 0 && s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	if len(s) > 0 && s[len(s)-1] == '.' {
		s = s[:len(s)-1]
	}
	return s
}
