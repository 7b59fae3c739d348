// Package session holds the state of one interactive annotation session: the
// loaded document, the displayed page, the annotations and the drag controller.
//
// Rendering and saving run without holding the session lock, so pointer events
// never wait for them. Only one of these operations runs at a time; a second one
// fails with ErrBusy. Loading a document is always accepted. Once it replaces the
// document, results of operations still running for the previous one are
// discarded with ErrStale; a load that fails leaves them alone.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/digitorus/pdfmark"
	"github.com/digitorus/pdfmark/annotations"
	"github.com/digitorus/pdfmark/drag"
	"github.com/digitorus/pdfmark/internal/logging"
	"github.com/digitorus/pdfmark/raster"
)

var (
	// ErrBusy is returned when a render or save is requested while another one
	// is running.
	ErrBusy = errors.New("another operation is in progress")

	// ErrStale is returned by an operation whose document was replaced while it
	// was running. Its result was discarded.
	ErrStale = errors.New("document was replaced")

	// ErrNoDocument is returned by operations that need a loaded document.
	ErrNoDocument = errors.New("no document loaded")
)

const tracerName = "github.com/digitorus/pdfmark/session"

// TextDefaults are the properties of a newly added text annotation.
type TextDefaults struct {
	Text       string
	FontFamily string
	FontSize   float64
	Color      annotations.Color
	X, Y       float64
}

// DefaultText returns the defaults of the editor: "New Text" in 16 pt black
// Helvetica at (100, 300).
func DefaultText() TextDefaults {
	return TextDefaults{
		Text:       "New Text",
		FontFamily: "Helvetica",
		FontSize:   16,
		Color:      annotations.Black,
		X:          100,
		Y:          300,
	}
}

// Options configure a session.
type Options struct {
	// Prefix names the saved file "<Prefix>_<original name>".
	Prefix string

	// Grid is the snapping grid in document units. Zero disables snapping.
	Grid float64

	// Text is used by AddText.
	Text TextDefaults
}

// Output is a saved document.
type Output struct {
	Name   string
	Data   []byte
	Result *pdfmark.Result
}

// Session is safe for concurrent use.
type Session struct {
	mu sync.Mutex

	renderer *raster.Renderer
	opts     Options
	tracer   trace.Tracer

	name string
	doc  *pdfmark.Document
	page int
	view raster.PageView

	store *annotations.Store
	drag  *drag.Controller

	// generation changes when a load commits; loads counts load attempts so
	// a newer load supersedes an older one still parsing.
	generation uint64
	loads      uint64

	busy    uint64 // id of the operation holding the controls, 0 when idle
	ops     uint64
	running map[uint64]struct{}
}

// New returns an empty session that renders pages with r.
func New(r *raster.Renderer, opts Options) (*Session, error) {
	if opts.Prefix == "" {
		opts.Prefix = "edited"
	}
	if opts.Text.FontSize <= 0 {
		opts.Text = DefaultText()
	}

	store := annotations.NewStore()
	ctrl, err := drag.New(store, opts.Grid)
	if err != nil {
		return nil, err
	}

	return &Session{
		renderer: r,
		opts:     opts,
		tracer:   otel.Tracer(tracerName),
		store:    store,
		drag:     ctrl,
		running:  make(map[uint64]struct{}),
	}, nil
}

// Close releases the drag controller.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drag.Stop()
}

// Load replaces the session document. The name must carry a .pdf extension and
// data must be a readable PDF. On success annotations are discarded and page 1
// is rendered. On failure the previous document, page and annotations are kept
// and operations still running for it complete normally.
func (s *Session) Load(ctx context.Context, name string, data []byte) (raster.PageView, error) {
	ctx, span := s.tracer.Start(ctx, "session.Load", trace.WithAttributes(
		attribute.String("file", name),
		attribute.Int("bytes", len(data)),
	))
	defer span.End()

	s.mu.Lock()
	s.loads++
	ticket, prev := s.loads, s.busy
	op := s.begin()
	s.mu.Unlock()

	view, doc, err := s.load(ctx, name, data)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.abandon(op, prev)
		return s.fail(span, err, logging.File(name))
	}
	if ticket != s.loads {
		s.abandon(op, prev)
		return s.fail(span, ErrStale, logging.File(name))
	}
	s.finish(op)

	s.generation++
	s.name = name
	s.doc = doc
	s.page = 1
	s.view = view
	s.store.Reset()
	s.drag.SetView(1, view.State)

	logging.Info().Add(logging.File(name)).Add(logging.Pages(doc.PageCount())).
		Add(logging.Generation(s.generation)).Msg("document loaded")
	return view, nil
}

func (s *Session) load(ctx context.Context, name string, data []byte) (raster.PageView, *pdfmark.Document, error) {
	if !pdfmark.HasPDFExtension(name) {
		return raster.PageView{}, nil, fmt.Errorf("%w: %s is not a PDF file", pdfmark.ErrInvalidInput, name)
	}
	doc, err := pdfmark.OpenBytes(data)
	if err != nil {
		return raster.PageView{}, nil, err
	}
	view, err := s.renderer.Render(ctx, doc, 1)
	if err != nil {
		return raster.PageView{}, nil, err
	}
	return view, doc, nil
}

// GoToPage renders page n, clamped to the document. On a render failure the
// previous bitmap is dropped so nothing stale stays on display.
func (s *Session) GoToPage(ctx context.Context, n int) (raster.PageView, error) {
	ctx, span := s.tracer.Start(ctx, "session.GoToPage", trace.WithAttributes(attribute.Int("page", n)))
	defer span.End()

	s.mu.Lock()
	if s.doc == nil {
		s.mu.Unlock()
		return s.fail(span, ErrNoDocument)
	}
	if s.busy != 0 {
		s.mu.Unlock()
		return s.fail(span, ErrBusy, logging.Page(n))
	}
	n = min(max(n, 1), s.doc.PageCount())
	doc, gen, op := s.doc, s.generation, s.begin()
	s.mu.Unlock()
	defer s.end(op)

	view, err := s.renderer.Render(ctx, doc, n)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return s.fail(span, ErrStale, logging.Page(n))
	}
	if err != nil {
		s.view = raster.PageView{}
		s.drag.SetView(s.page, s.view.State)
		return s.fail(span, err, logging.Page(n))
	}

	s.page = n
	s.view = view
	s.drag.SetView(n, view.State)
	return view, nil
}

// NextPage renders the page after the current one.
func (s *Session) NextPage(ctx context.Context) (raster.PageView, error) {
	return s.GoToPage(ctx, s.Page()+1)
}

// PrevPage renders the page before the current one.
func (s *Session) PrevPage(ctx context.Context) (raster.PageView, error) {
	return s.GoToPage(ctx, s.Page()-1)
}

// Save writes every annotation into the document. At least one annotation is
// required. On failure the annotations are left untouched for a retry.
func (s *Session) Save(ctx context.Context) (Output, error) {
	return s.SaveWith(ctx, nil)
}

// SaveWith is like Save but also draws extra marks that are not kept in the
// session, such as a signing timestamp.
func (s *Session) SaveWith(ctx context.Context, extra []annotations.Annotation) (Output, error) {
	ctx, span := s.tracer.Start(ctx, "session.Save")
	defer span.End()

	s.mu.Lock()
	if s.doc == nil {
		s.mu.Unlock()
		return Output{}, s.failErr(span, ErrNoDocument)
	}
	if s.store.Len() == 0 {
		s.mu.Unlock()
		return Output{}, s.failErr(span, fmt.Errorf("%w: add an annotation before saving", pdfmark.ErrInvalidInput))
	}
	if s.busy != 0 {
		s.mu.Unlock()
		return Output{}, s.failErr(span, ErrBusy)
	}
	doc, name, gen, op := s.doc, s.name, s.generation, s.begin()
	marks := append(s.store.All(), extra...)
	s.mu.Unlock()
	defer s.end(op)

	start := time.Now()
	data, result, err := doc.Apply(ctx, marks)

	s.mu.Lock()
	stale := gen != s.generation
	s.mu.Unlock()
	if stale {
		return Output{}, s.failErr(span, ErrStale, logging.File(name))
	}
	if err != nil {
		return Output{}, s.failErr(span, err, logging.File(name))
	}

	out := Output{Name: s.opts.Prefix + "_" + name, Data: data, Result: result}
	span.SetAttributes(attribute.Int("marks", result.Marks), attribute.Int("bytes", len(data)))
	logging.Info().Add(logging.File(out.Name)).Add(logging.Count("marks", result.Marks)).
		Add(logging.Bytes(len(data))).Add(logging.Duration(time.Since(start))).Msg("document saved")
	return out, nil
}

// begin marks an operation as running and gives it the controls. The caller
// holds s.mu.
func (s *Session) begin() uint64 {
	s.ops++
	s.busy = s.ops
	s.running[s.ops] = struct{}{}
	return s.ops
}

// end finishes an operation.
func (s *Session) end(op uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finish(op)
}

// finish releases the controls unless a newer operation took them. The caller
// holds s.mu.
func (s *Session) finish(op uint64) {
	delete(s.running, op)
	if s.busy == op {
		s.busy = 0
	}
}

// abandon finishes a load that did not commit and hands the controls back to
// the operation it took them from, if that one is still running. The caller
// holds s.mu.
func (s *Session) abandon(op, prev uint64) {
	s.finish(op)
	if _, ok := s.running[prev]; ok && s.busy == 0 {
		s.busy = prev
	}
}

func (s *Session) fail(span trace.Span, err error, fields ...logging.Field) (raster.PageView, error) {
	return raster.PageView{}, s.failErr(span, err, fields...)
}

func (s *Session) failErr(span trace.Span, err error, fields ...logging.Field) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	ev := logging.Warn()
	for _, f := range fields {
		ev.Add(f)
	}
	ev.Add(logging.ErrorField(err)).Msg("session operation failed")
	return err
}

// Name returns the file name of the loaded document.
func (s *Session) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

// Document returns the loaded document, or nil.
func (s *Session) Document() *pdfmark.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// Page returns the displayed page number, 0 before a document was loaded.
func (s *Session) Page() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

// PageCount returns the page count of the loaded document.
func (s *Session) PageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return 0
	}
	return s.doc.PageCount()
}

// View returns the last rendered page. Its state is invalid when no page is on
// display.
func (s *Session) View() raster.PageView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Generation increases with every Load that replaced the document.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Busy reports whether a render or save is running.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy != 0
}
