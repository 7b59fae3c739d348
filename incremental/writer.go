// Package incremental appends an incremental update to an existing PDF. The
// original bytes are copied unchanged; new and replaced objects, a cross-reference
// section and a trailer pointing back to the previous one are written after them.
package incremental

import (
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"sort"

	"github.com/digitorus/pdf"
	"github.com/mattetti/filebuffer"
)

// ErrEncrypted is returned for documents protected with an /Encrypt dictionary.
var ErrEncrypted = errors.New("encrypted documents are not supported")

// ErrFinished is returned when objects are added after Finish.
var ErrFinished = errors.New("incremental update already finished")

type xrefEntry struct {
	ID     uint32
	Gen    uint16
	Offset int64
}

// Writer collects the objects of one incremental update.
type Writer struct {
	reader *pdf.Reader
	out    *filebuffer.Buffer

	lastXrefID         uint32
	newXrefEntries     []xrefEntry
	updatedXrefEntries []xrefEntry
	newXrefStart       int64
	finished           bool

	// CompressLevel determines compression level (zlib) for stream objects.
	CompressLevel int
}

// New starts an update of the document r was read from. original must hold the
// exact bytes r parses; they are copied and never modified.
func New(r *pdf.Reader, original []byte) (*Writer, error) {
	trailer := r.Trailer()
	if !trailer.Key("Encrypt").IsNull() {
		return nil, ErrEncrypted
	}

	w := &Writer{
		reader:        r,
		out:           filebuffer.New([]byte{}),
		CompressLevel: zlib.DefaultCompression,
	}

	size := trailer.Key("Size").Int64()
	if size <= 0 {
		size = r.XrefInformation.ItemCount
	}
	if size <= 0 {
		return nil, fmt.Errorf("invalid trailer: missing /Size")
	}
	w.lastXrefID = uint32(size - 1)

	if _, err := w.out.Write(original); err != nil {
		return nil, err
	}
	// File always needs an empty line after %%EOF.
	if _, err := w.out.Write([]byte("\n")); err != nil {
		return nil, err
	}
	return w, nil
}

// NextID returns the id the next added object will receive.
func (w *Writer) NextID() uint32 {
	return w.lastXrefID + uint32(len(w.newXrefEntries)) + 1
}

// AddObject appends a new object and returns its id.
func (w *Writer) AddObject(content []byte) (uint32, error) {
	if w.finished {
		return 0, ErrFinished
	}
	id := w.NextID()
	offset, err := w.writeObject(id, 0, content)
	if err != nil {
		return 0, fmt.Errorf("failed to add object %d: %w", id, err)
	}
	w.newXrefEntries = append(w.newXrefEntries, xrefEntry{ID: id, Offset: offset})
	return id, nil
}

// AddStream appends a stream object. dict holds the dictionary entries besides
// /Length and /Filter, which are set from the (optionally compressed) data.
func (w *Writer) AddStream(dict string, data []byte) (uint32, error) {
	stream, filter, err := w.compress(data)
	if err != nil {
		return 0, err
	}

	var buf bytes.Buffer
	buf.WriteString("<<")
	if dict != "" {
		buf.WriteString(" " + dict)
	}
	if filter != "" {
		buf.WriteString(" " + filter)
	}
	fmt.Fprintf(&buf, " /Length %d >>\nstream\n", len(stream))
	buf.Write(stream)
	buf.WriteString("\nendstream")
	return w.AddObject(buf.Bytes())
}

// UpdateObject replaces an existing object. Updating the same object twice keeps
// the last version.
func (w *Writer) UpdateObject(id uint32, gen uint16, content []byte) error {
	if w.finished {
		return ErrFinished
	}
	if id == 0 || id > w.lastXrefID {
		return fmt.Errorf("cannot update object %d: not part of the original document", id)
	}
	offset, err := w.writeObject(id, gen, content)
	if err != nil {
		return fmt.Errorf("failed to update object %d: %w", id, err)
	}

	for i, e := range w.updatedXrefEntries {
		if e.ID == id {
			w.updatedXrefEntries[i] = xrefEntry{ID: id, Gen: gen, Offset: offset}
			return nil
		}
	}
	w.updatedXrefEntries = append(w.updatedXrefEntries, xrefEntry{ID: id, Gen: gen, Offset: offset})
	return nil
}

// Finish writes the cross-reference section and trailer and returns the complete
// document.
func (w *Writer) Finish() ([]byte, error) {
	if w.finished {
		return nil, ErrFinished
	}

	sort.Slice(w.updatedXrefEntries, func(i, j int) bool {
		return w.updatedXrefEntries[i].ID < w.updatedXrefEntries[j].ID
	})

	if err := w.writeXref(); err != nil {
		return nil, fmt.Errorf("failed to write xref: %w", err)
	}
	if err := w.writeTrailer(); err != nil {
		return nil, fmt.Errorf("failed to write trailer: %w", err)
	}
	w.finished = true

	return w.out.Buff.Bytes(), nil
}

func (w *Writer) writeObject(id uint32, gen uint16, content []byte) (int64, error) {
	offset := int64(w.out.Buff.Len())

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%d %d obj\n", id, gen)
	buf.Write(bytes.TrimSpace(content))
	buf.WriteString("\nendobj\n")

	if _, err := w.out.Write(buf.Bytes()); err != nil {
		return 0, err
	}
	return offset, nil
}

func (w *Writer) compress(data []byte) ([]byte, string, error) {
	if w.CompressLevel == zlib.NoCompression {
		return data, "", nil
	}
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, w.CompressLevel)
	if err != nil {
		return nil, "", fmt.Errorf("invalid compression level: %w", err)
	}
	if _, err := zw.Write(data); err != nil {
		return nil, "", err
	}
	if err := zw.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), "/Filter /FlateDecode", nil
}
