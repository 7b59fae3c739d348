package incremental

import (
	"bytes"
	"fmt"

	pdfint "github.com/digitorus/pdfmark/internal/pdf"
)

// writeTrailer writes the trailer dictionary (classic tables only), the new xref
// start position and the end-of-file marker.
func (w *Writer) writeTrailer() error {
	var buf bytes.Buffer

	if w.reader.XrefInformation.Type != "stream" {
		buf.WriteString("trailer\n<<")
		fmt.Fprintf(&buf, " /Size %d", w.lastXrefID+uint32(len(w.newXrefEntries))+1)
		w.writeTrailerRefs(&buf)
		fmt.Fprintf(&buf, " /Prev %d >>\n", w.reader.XrefInformation.StartPos)
	}

	fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF\n", w.newXrefStart)

	if _, err := w.out.Write(buf.Bytes()); err != nil {
		return err
	}
	return nil
}

// writeTrailerRefs copies /Root, /Info and /ID from the previous trailer.
func (w *Writer) writeTrailerRefs(buf *bytes.Buffer) {
	trailer := w.reader.Trailer()
	owner := pdfint.OwnerID(trailer)
	for _, key := range []string{"Root", "Info", "ID"} {
		v := trailer.Key(key)
		if v.IsNull() {
			continue
		}
		buf.WriteString(" /" + key + " ")
		pdfint.WriteValue(buf, owner, v)
	}
}
