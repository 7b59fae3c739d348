package pdf

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strconv"

	pdflib "github.com/digitorus/pdf"
)

// Object is an indirect object of a document.
type Object struct {
	Ref   Ref
	Value pdflib.Value
}

// ObjectRef returns the reference of the indirect object v.
func ObjectRef(v pdflib.Value) Ref {
	ref, _ := refOf(v)
	return ref
}

// Reachable returns the indirect objects reachable from the trailer's /Root and
// /Info entries, ordered by id. Objects nothing refers to are left out.
func Reachable(r *pdflib.Reader) (objs []Object, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("malformed document: %v", p)
		}
	}()

	trailer := r.Trailer()
	if !trailer.Key("Encrypt").IsNull() {
		return nil, fmt.Errorf("encrypted documents are not supported")
	}

	seen := make(map[uint32]bool)
	var queue []pdflib.Value
	var visit func(v pdflib.Value, owner uint32)
	walk := func(v pdflib.Value, owner uint32) {
		switch v.Kind() {
		case pdflib.Array:
			for i := 0; i < v.Len(); i++ {
				visit(v.Index(i), owner)
			}
		case pdflib.Dict, pdflib.Stream:
			for _, key := range v.Keys() {
				visit(v.Key(key), owner)
			}
		}
	}
	visit = func(v pdflib.Value, owner uint32) {
		ref, ok := refOf(v)
		if !ok || ref.ID == owner {
			walk(v, owner)
			return
		}
		if seen[ref.ID] || v.Kind() == pdflib.Null {
			return
		}
		seen[ref.ID] = true
		objs = append(objs, Object{Ref: ref, Value: v})
		queue = append(queue, v)
	}

	for _, key := range []string{"Root", "Info"} {
		visit(trailer.Key(key), 0)
	}
	if !seen[uint32(trailer.Key("Root").GetPtr().GetID())] {
		return nil, fmt.Errorf("document has no /Root")
	}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		walk(v, OwnerID(v))
	}

	sort.Slice(objs, func(i, j int) bool { return objs[i].Ref.ID < objs[j].Ref.ID })
	return objs, nil
}

// RawStream returns the undecoded bytes of the stream object ref as stored in
// data. When an object was redefined by an incremental update the last
// definition is used.
func RawStream(data []byte, ref Ref, length int64) ([]byte, error) {
	re := regexp.MustCompile(`(?:^|[\s])` + strconv.FormatUint(uint64(ref.ID), 10) + `\s+` +
		strconv.FormatUint(uint64(ref.Gen), 10) + `\s+obj\b`)
	locs := re.FindAllIndex(data, -1)
	if len(locs) == 0 {
		return nil, fmt.Errorf("object %d not found", ref.ID)
	}
	rest := data[locs[len(locs)-1][1]:]

	i := bytes.Index(rest, []byte("stream"))
	if i < 0 || bytes.Contains(rest[:i], []byte("endobj")) {
		return nil, fmt.Errorf("object %d is not a stream", ref.ID)
	}
	rest = rest[i+len("stream"):]
	switch {
	case bytes.HasPrefix(rest, []byte("\r\n")):
		rest = rest[2:]
	case bytes.HasPrefix(rest, []byte("\n")), bytes.HasPrefix(rest, []byte("\r")):
		rest = rest[1:]
	}
	if length < 0 || int64(len(rest)) < length {
		return nil, fmt.Errorf("object %d: stream length %d out of range", ref.ID, length)
	}
	return rest[:length], nil
}
