package incremental

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// xrefStreamColumns is the row width of the /W [1 4 1] layout.
const xrefStreamColumns = 6

// writeXref writes the cross-reference section in the flavour of the source
// document.
func (w *Writer) writeXref() error {
	switch w.reader.XrefInformation.Type {
	case "stream":
		return w.writeXrefStream()
	case "table", "":
		return w.writeIncrXrefTable()
	default:
		return fmt.Errorf("unknown xref type: %s", w.reader.XrefInformation.Type)
	}
}

// writeIncrXrefTable writes a classic cross-reference table. Every replaced object
// gets its own subsection; new objects share one.
func (w *Writer) writeIncrXrefTable() error {
	w.newXrefStart = int64(w.out.Buff.Len())

	var buf bytes.Buffer
	buf.WriteString("xref\n")
	for _, entry := range w.updatedXrefEntries {
		fmt.Fprintf(&buf, "%d %d\n", entry.ID, 1)
		fmt.Fprintf(&buf, "%010d %05d n\r\n", entry.Offset, entry.Gen)
	}
	if len(w.newXrefEntries) > 0 {
		fmt.Fprintf(&buf, "%d %d\n", w.lastXrefID+1, len(w.newXrefEntries))
		for _, entry := range w.newXrefEntries {
			fmt.Fprintf(&buf, "%010d 00000 n\r\n", entry.Offset)
		}
	}

	if _, err := w.out.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write incremental xref table: %w", err)
	}
	return nil
}

// writeXrefStream writes a cross-reference stream. The stream is itself a new
// object and lists its own offset.
func (w *Writer) writeXrefStream() error {
	id := w.NextID()
	w.newXrefStart = int64(w.out.Buff.Len())
	w.newXrefEntries = append(w.newXrefEntries, xrefEntry{ID: id, Offset: w.newXrefStart})

	var rows bytes.Buffer
	var index []uint32
	for _, entry := range w.updatedXrefEntries {
		writeXrefStreamLine(&rows, 1, entry.Offset, byte(entry.Gen))
		index = append(index, entry.ID, 1)
	}
	for _, entry := range w.newXrefEntries {
		writeXrefStreamLine(&rows, 1, entry.Offset, 0)
	}
	index = append(index, w.lastXrefID+1, uint32(len(w.newXrefEntries)))

	stream, filter, err := w.compress(rows.Bytes())
	if err != nil {
		return fmt.Errorf("failed to encode xref stream: %w", err)
	}

	var header bytes.Buffer
	header.WriteString("<< /Type /XRef")
	fmt.Fprintf(&header, " /Size %d", w.lastXrefID+uint32(len(w.newXrefEntries))+1)
	header.WriteString(" /W [ 1 4 1 ] /Index [")
	for _, v := range index {
		fmt.Fprintf(&header, " %d", v)
	}
	header.WriteString(" ]")
	fmt.Fprintf(&header, " /Prev %d", w.reader.XrefInformation.StartPos)
	w.writeTrailerRefs(&header)
	if filter != "" {
		header.WriteString(" " + filter)
	}
	fmt.Fprintf(&header, " /Length %d >>\nstream\n", len(stream))
	header.Write(stream)
	header.WriteString("\nendstream")

	if _, err := w.writeObject(id, 0, header.Bytes()); err != nil {
		return fmt.Errorf("failed to add xref stream object: %w", err)
	}
	return nil
}

// writeXrefStreamLine writes a single line in the xref stream.
func writeXrefStreamLine(b *bytes.Buffer, xreftype byte, offset int64, gen byte) {
	b.WriteByte(xreftype)

	offsetBytes := make([]byte, 4)
	binary.BigEndian.PutUint32(offsetBytes, uint32(offset))
	b.Write(offsetBytes)

	b.WriteByte(gen)
}
