package tools

import (
	"context"
	"fmt"

	"github.com/digitorus/pdfmark"
	"github.com/digitorus/pdfmark/annotations"
	"github.com/digitorus/pdfmark/config"
	"github.com/digitorus/pdfmark/session"
)

// EditorInfo describes the pdf-editor tool.
var EditorInfo = Info{
	ID:          "pdf-editor",
	Name:        "PDF Editor",
	Description: "Add text to PDF pages and drag it into place",
	Category:    CategoryEdit,
	Accept:      []string{".pdf"},
}

// Editor places text annotations on a document.
type Editor struct {
	session *session.Session
}

func newEditor(env Env) (Tool, error) {
	s, err := newSession(env, "edited")
	if err != nil {
		return nil, err
	}
	return &Editor{session: s}, nil
}

func newSession(env Env, prefix string) (*session.Session, error) {
	if env.Renderer == nil {
		return nil, ErrNoRenderer
	}
	return session.New(env.Renderer, session.Options{
		Prefix: prefix,
		Grid:   env.Config.Grid(),
		Text:   textDefaults(env.Config.Text),
	})
}

func textDefaults(c config.Text) session.TextDefaults {
	return session.TextDefaults{
		Text:       c.Text,
		FontFamily: c.Font,
		FontSize:   c.Size,
		Color:      annotations.ParseHexColor(c.Color),
		X:          c.X,
		Y:          c.Y,
	}
}

// Info implements Tool.
func (e *Editor) Info() Info { return EditorInfo }

// Open loads the document to edit.
func (e *Editor) Open(ctx context.Context, f File) error {
	return openSession(ctx, e.session, EditorInfo, f)
}

func openSession(ctx context.Context, s *session.Session, info Info, f File) error {
	if !info.Accepts(f.Name) {
		return fmt.Errorf("%w: %s is not a PDF file", pdfmark.ErrInvalidInput, f.Name)
	}
	_, err := s.Load(ctx, f.Name, f.Data)
	return err
}

// Run saves the edited document as edited_<name>.
func (e *Editor) Run(ctx context.Context) (File, error) {
	out, err := e.session.Save(ctx)
	if err != nil {
		return File{}, err
	}
	return File{Name: out.Name, Data: out.Data}, nil
}

// Session implements Annotator.
func (e *Editor) Session() *session.Session { return e.session }
