package pdfmark

import (
	"bytes"
	"compress/zlib"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"

	pdflib "github.com/digitorus/pdf"

	"github.com/digitorus/pdfmark/internal/logging"
	"github.com/digitorus/pdfmark/internal/pdf"
)

// objectsPerStream caps the number of objects packed into one object stream.
const objectsPerStream = 100

// Compress rewrites the whole document. Streams the reader can decode are
// deflated again at the compression level set with SetCompression, other
// objects are packed into object streams indexed by a cross-reference stream.
// Objects nothing refers to are dropped. Streams with filters the reader
// cannot decode, such as JPEG images, are copied unchanged.
func (d *Document) Compress(ctx context.Context) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: malformed document: %v", ErrUnreadable, r)
		}
	}()

	objs, err := pdf.Reachable(d.rdr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	p := newPacker(d.compressLevel)
	for _, o := range objs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if o.Value.Kind() == pdflib.Stream {
			if err := p.stream(d.data, o); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrSave, err)
			}
			continue
		}
		p.object(o)
	}

	trailer := d.rdr.Trailer()
	root := pdf.ObjectRef(trailer.Key("Root"))
	var info *pdf.Ref
	if v := trailer.Key("Info"); v.Kind() == pdflib.Dict {
		ref := pdf.ObjectRef(v)
		info = &ref
	}
	out, err = p.finish(root, info)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSave, err)
	}

	logging.Debug().Add(logging.Count("objects", len(objs))).Add(logging.Bytes(len(out))).
		Add(logging.Count("original_bytes", len(d.data))).Msg("compressed document")
	return out, nil
}

// xrefSlot is one row of a cross-reference stream.
type xrefSlot struct {
	kind   byte
	field2 uint32
	field3 uint16
}

// packer writes a complete document with object streams and a
// cross-reference stream.
type packer struct {
	level   int
	buf     bytes.Buffer
	slots   map[uint32]xrefSlot
	maxID   uint32
	pending []pdf.Object
}

func newPacker(level int) *packer {
	p := &packer{level: level, slots: make(map[uint32]xrefSlot)}
	p.buf.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")
	return p
}

func (p *packer) see(id uint32) {
	if id > p.maxID {
		p.maxID = id
	}
}

// object queues a non-stream object for an object stream. Objects with a
// non-zero generation cannot live in one and are written directly.
func (p *packer) object(o pdf.Object) {
	p.see(o.Ref.ID)
	if o.Ref.Gen != 0 {
		var body bytes.Buffer
		pdf.WriteValue(&body, o.Ref.ID, o.Value)
		p.write(o.Ref, body.Bytes())
		return
	}
	p.pending = append(p.pending, o)
}

// stream rewrites a stream object. Decodable data is deflated again; anything
// else is copied from the original bytes with its filters.
func (p *packer) stream(original []byte, o pdf.Object) error {
	p.see(o.Ref.ID)
	v := o.Value

	var dict bytes.Buffer
	data, err := io.ReadAll(v.Reader())
	if err == nil {
		var filter string
		data, filter, err = p.deflate(data)
		if err != nil {
			return err
		}
		extra := []pdf.Entry{{Key: "Length", Value: strconv.Itoa(len(data))}}
		if filter != "" {
			extra = append([]pdf.Entry{{Key: "Filter", Value: filter}}, extra...)
		}
		pdf.WriteUpdatedDict(&dict, v.Header(), map[string]bool{"Filter": true, "DecodeParms": true, "Length": true}, extra)
	} else {
		data, err = pdf.RawStream(original, o.Ref, v.Key("Length").Int64())
		if err != nil {
			return err
		}
		pdf.WriteUpdatedDict(&dict, v.Header(), map[string]bool{"Length": true},
			[]pdf.Entry{{Key: "Length", Value: strconv.Itoa(len(data))}})
	}

	dict.WriteString("\nstream\n")
	dict.Write(data)
	dict.WriteString("\nendstream")
	p.write(o.Ref, dict.Bytes())
	return nil
}

func (p *packer) write(ref pdf.Ref, body []byte) {
	p.slots[ref.ID] = xrefSlot{kind: 1, field2: uint32(p.buf.Len()), field3: ref.Gen}
	fmt.Fprintf(&p.buf, "%d %d obj\n%s\nendobj\n", ref.ID, ref.Gen, body)
}

func (p *packer) deflate(data []byte) ([]byte, string, error) {
	if p.level == zlib.NoCompression {
		return data, "", nil
	}
	var z bytes.Buffer
	zw, err := zlib.NewWriterLevel(&z, p.level)
	if err != nil {
		return nil, "", fmt.Errorf("invalid compression level: %w", err)
	}
	if _, err := zw.Write(data); err != nil {
		return nil, "", err
	}
	if err := zw.Close(); err != nil {
		return nil, "", err
	}
	return z.Bytes(), "/FlateDecode", nil
}

// streamObject writes a new stream object with the next free id.
func (p *packer) streamObject(dict string, data []byte) (uint32, error) {
	body, err := p.streamBody(dict, data)
	if err != nil {
		return 0, err
	}
	p.maxID++
	p.write(pdf.Ref{ID: p.maxID}, body)
	return p.maxID, nil
}

func (p *packer) streamBody(dict string, data []byte) ([]byte, error) {
	data, filter, err := p.deflate(data)
	if err != nil {
		return nil, err
	}
	var body bytes.Buffer
	body.WriteString("<< " + dict)
	if filter != "" {
		body.WriteString(" /Filter " + filter)
	}
	fmt.Fprintf(&body, " /Length %d >>\nstream\n", len(data))
	body.Write(data)
	body.WriteString("\nendstream")
	return body.Bytes(), nil
}

// pack writes the queued objects into object streams.
func (p *packer) pack() error {
	for len(p.pending) > 0 {
		n := min(len(p.pending), objectsPerStream)
		batch := p.pending[:n]
		p.pending = p.pending[n:]

		var header, objects bytes.Buffer
		for _, o := range batch {
			fmt.Fprintf(&header, "%d %d ", o.Ref.ID, objects.Len())
			pdf.WriteValue(&objects, o.Ref.ID, o.Value)
			objects.WriteByte('\n')
		}
		dict := fmt.Sprintf("/Type /ObjStm /N %d /First %d", n, header.Len())
		id, err := p.streamObject(dict, append(header.Bytes(), objects.Bytes()...))
		if err != nil {
			return err
		}
		for i, o := range batch {
			p.slots[o.Ref.ID] = xrefSlot{kind: 2, field2: id, field3: uint16(i)}
		}
	}
	return nil
}

// finish writes the object streams, the cross-reference stream and the
// trailer entries it carries.
func (p *packer) finish(root pdf.Ref, info *pdf.Ref) ([]byte, error) {
	if err := p.pack(); err != nil {
		return nil, err
	}

	p.maxID++
	xrefID := p.maxID
	size := xrefID + 1
	start := p.buf.Len()
	p.slots[xrefID] = xrefSlot{kind: 1, field2: uint32(start)}

	rows := make([]byte, 0, int(size)*7)
	for id := uint32(0); id < size; id++ {
		s := p.slots[id]
		if id == 0 {
			s.field3 = 65535
		}
		rows = append(rows, s.kind)
		rows = binary.BigEndian.AppendUint32(rows, s.field2)
		rows = binary.BigEndian.AppendUint16(rows, s.field3)
	}

	sum := sha256.Sum256(p.buf.Bytes())
	fileID := hex.EncodeToString(sum[:16])

	dict := fmt.Sprintf("/Type /XRef /Size %d /W [ 1 4 2 ] /Root %s", size, root)
	if info != nil {
		dict += " /Info " + info.String()
	}
	dict += fmt.Sprintf(" /ID [ <%s> <%s> ]", fileID, fileID)

	body, err := p.streamBody(dict, rows)
	if err != nil {
		return nil, err
	}
	p.write(pdf.Ref{ID: xrefID}, body)

	fmt.Fprintf(&p.buf, "startxref\n%d\n%%%%EOF\n", start)
	return p.buf.Bytes(), nil
}
