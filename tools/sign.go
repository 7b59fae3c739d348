package tools

import (
	"context"
	"fmt"

	"github.com/digitorus/pdfmark"
	"github.com/digitorus/pdfmark/annotations"
	"github.com/digitorus/pdfmark/fonts"
	"github.com/digitorus/pdfmark/geom"
	"github.com/digitorus/pdfmark/images"
	"github.com/digitorus/pdfmark/internal/render"
	"github.com/digitorus/pdfmark/session"
)

// SignInfo describes the pdf-sign tool.
var SignInfo = Info{
	ID:          "pdf-sign",
	Name:        "Sign PDF",
	Description: "Place a drawn signature and a signing date on a page",
	Category:    CategoryEdit,
	Accept:      []string{".pdf"},
}

const (
	stampMarginX = 50
	stampMarginY = 30
	stampSize    = 8
)

// Signer places a signature image and/or a signature line on one page. The
// marks live in a session so they can be dragged before signing.
type Signer struct {
	env     Env
	session *session.Session

	page    int
	textID  string
	imageID string
}

func newSigner(env Env) (Tool, error) {
	s, err := newSession(env, "signed")
	if err != nil {
		return nil, err
	}
	return &Signer{env: env, session: s, page: 1}, nil
}

// Info implements Tool.
func (s *Signer) Info() Info { return SignInfo }

// Open loads the document to sign.
func (s *Signer) Open(ctx context.Context, f File) error {
	if err := openSession(ctx, s.session, SignInfo, f); err != nil {
		return err
	}
	s.page, s.textID, s.imageID = 1, "", ""
	return nil
}

// Session implements Annotator.
func (s *Signer) Session() *session.Session { return s.session }

// Page returns the page the signature goes on.
func (s *Signer) Page() int { return s.page }

// SetPage moves the signature to page n.
func (s *Signer) SetPage(ctx context.Context, n int) error {
	doc := s.session.Document()
	if doc == nil {
		return session.ErrNoDocument
	}
	if n < 1 || n > doc.PageCount() {
		return fmt.Errorf("%w: the document has %d pages", pdfmark.ErrPageOutOfRange, doc.PageCount())
	}
	s.page = n
	for _, id := range []string{s.textID, s.imageID} {
		if id != "" {
			s.session.Update(id, annotations.Patch{Page: &n})
		}
	}
	if _, err := s.session.GoToPage(ctx, n); err != nil {
		return err
	}
	return nil
}

// SetText sets the signature line. An empty text removes it.
func (s *Signer) SetText(text string) error {
	if text == "" {
		if s.textID != "" {
			s.session.Remove(s.textID)
			s.textID = ""
		}
		return nil
	}
	if s.textID != "" {
		s.session.Update(s.textID, annotations.Patch{Text: &text})
		return nil
	}

	w, h, err := s.pageSize()
	if err != nil {
		return err
	}
	c := s.env.Config.Sign
	a := s.session.Add(annotations.Annotation{
		Kind:       annotations.Text,
		Page:       s.page,
		Text:       text,
		FontFamily: "Helvetica",
		FontSize:   c.TextSize,
		Color:      annotations.Gray(0.2),
		X:          min(c.X, w-100),
		Y:          min(c.Y, h-30),
	})
	s.textID = a.ID
	return nil
}

// SetSignature sets the signature image. A nil image removes it.
func (s *Signer) SetSignature(img *images.Image) error {
	if s.imageID != "" {
		s.session.Remove(s.imageID)
		s.imageID = ""
	}
	if img == nil {
		return nil
	}

	w, h, err := s.pageSize()
	if err != nil {
		return err
	}
	c := s.env.Config.Sign
	a, err := s.session.AddImage(img,
		max(min(c.X, w-c.Width-50), 0),
		max(min(c.Y-c.Height, h-c.Height-30), 0),
		c.Width, c.Height)
	if err != nil {
		return err
	}
	s.imageID = a.ID
	return nil
}

// SetSignatureFile registers a PNG or JPEG signature with the document and
// places it like SetSignature.
func (s *Signer) SetSignatureFile(name string, data []byte) error {
	doc := s.session.Document()
	if doc == nil {
		return session.ErrNoDocument
	}
	img, err := doc.AddImage(name, data)
	if err != nil {
		return fmt.Errorf("%w: %v", pdfmark.ErrInvalidInput, err)
	}
	return s.SetSignature(img)
}

func (s *Signer) pageSize() (float64, float64, error) {
	doc := s.session.Document()
	if doc == nil {
		return 0, 0, session.ErrNoDocument
	}
	return doc.PageSize(s.page)
}

// Run writes the signed document as signed_<name>, with the signing date below
// the page content when enabled.
func (s *Signer) Run(ctx context.Context) (File, error) {
	if s.textID == "" && s.imageID == "" {
		return File{}, fmt.Errorf("%w: draw a signature or enter a signature text", pdfmark.ErrInvalidInput)
	}

	var extra []annotations.Annotation
	c := s.env.Config.Sign
	if c.Timestamp {
		pw, ph, err := s.pageSize()
		if err != nil {
			return File{}, err
		}
		line := render.ExpandTemplateVariables(c.Line, render.TemplateContext{Date: s.env.now(), File: s.session.Name(), Layout: c.DateLayout})
		anchor, err := geom.ParseAnchor(c.StampAnchor)
		if err != nil {
			return File{}, fmt.Errorf("%w: %v", pdfmark.ErrInvalidInput, err)
		}
		font, _ := fonts.Resolve("Helvetica", fonts.Style{})
		x, y := anchor.Place(font.Width(line, stampSize), stampSize, pw, ph, stampMarginX, stampMarginY)
		extra = append(extra, annotations.Annotation{
			ID:         "timestamp",
			Kind:       annotations.Text,
			Page:       s.page,
			Text:       line,
			FontFamily: "Helvetica",
			FontSize:   stampSize,
			Color:      annotations.Gray(0.4),
			X:          x,
			Y:          y,
		})
	}

	out, err := s.session.SaveWith(ctx, extra)
	if err != nil {
		return File{}, err
	}
	return File{Name: out.Name, Data: out.Data}, nil
}
