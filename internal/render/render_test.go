package render

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/digitorus/pdfmark/fonts"
	"github.com/digitorus/pdfmark/images"
	"github.com/digitorus/pdfmark/internal/pdf"
)

type fakeWriter struct {
	objects []string
}

func (f *fakeWriter) AddObject(content []byte) (uint32, error) {
	f.objects = append(f.objects, string(content))
	return uint32(len(f.objects)), nil
}

func (f *fakeWriter) AddStream(dict string, data []byte) (uint32, error) {
	return f.AddObject([]byte("<< " + dict + " >>\nstream\n" + string(data) + "\nendstream"))
}

func testImage(t *testing.T, format string, alpha uint8) *images.Image {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for x := 0; x < 2; x++ {
		for y := 0; y < 2; y++ {
			img.Set(x, y, color.NRGBA{R: 255, A: alpha})
		}
	}

	var buf bytes.Buffer
	var err error
	if format == "jpeg" {
		err = jpeg.Encode(&buf, img, nil)
	} else {
		err = png.Encode(&buf, img)
	}
	if err != nil {
		t.Fatal(err)
	}
	i, err := images.New("test."+format, buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	return i
}

func TestRenderText(t *testing.T) {
	w := &fakeWriter{}
	res := NewResources(w)

	ov, err := res.RenderOverlay([]Element{
		TextElement{Content: "New Text", Size: 16, X: 100, Y: 300, Color: Color{R: 255}},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	content := string(ov.Content)
	for _, want := range []string{
		"/PMF1 16 Tf",
		"1 0 0 rg",
		"1 0 0 1 100 300 Tm",
		"<4e65772054657874> Tj",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("content %q missing %q", content, want)
		}
	}
	if strings.Contains(content, " gs") {
		t.Errorf("opaque text sets a graphics state: %q", content)
	}

	entries := ov.Resources[pdf.Font]
	if len(entries) != 1 || entries[0].Key != "PMF1" || entries[0].Value != "1 0 R" {
		t.Errorf("font resources = %v", entries)
	}
	if !strings.Contains(w.objects[0], "/BaseFont /Helvetica") {
		t.Errorf("font object = %q", w.objects[0])
	}
}

func TestRenderTakenNames(t *testing.T) {
	res := NewResources(&fakeWriter{})
	taken := map[string]bool{"PMF1": true}

	ov, err := res.RenderOverlay([]Element{TextElement{Content: "a", Size: 10}}, taken)
	if err != nil {
		t.Fatal(err)
	}
	if got := ov.Resources[pdf.Font][0].Key; got != "PMF2" {
		t.Errorf("font name = %q, want PMF2", got)
	}
	if len(taken) != 1 {
		t.Errorf("taken names modified: %v", taken)
	}
}

func TestRenderSharedResources(t *testing.T) {
	w := &fakeWriter{}
	res := NewResources(w)
	helv := fonts.Standard(fonts.Helvetica)

	page := []Element{
		TextElement{Content: "one", Font: helv, Size: 10},
		TextElement{Content: "two", Font: fonts.Standard(fonts.Helvetica), Size: 12},
	}
	for i := 0; i < 2; i++ {
		ov, err := res.RenderOverlay(page, nil)
		if err != nil {
			t.Fatal(err)
		}
		if n := len(ov.Resources[pdf.Font]); n != 1 {
			t.Errorf("overlay %d names %d fonts, want 1", i, n)
		}
	}
	if len(w.objects) != 1 {
		t.Errorf("wrote %d objects, want one shared font", len(w.objects))
	}
}

func TestRenderEmbeddedFont(t *testing.T) {
	w := &fakeWriter{}
	res := NewResources(w)
	goFont, ok := fonts.Resolve("Go", fonts.Style{})
	if !ok {
		t.Fatal("Go font not available")
	}

	if _, err := res.RenderOverlay([]Element{TextElement{Content: "go", Font: goFont, Size: 10}}, nil); err != nil {
		t.Fatal(err)
	}
	if len(w.objects) != 3 {
		t.Fatalf("wrote %d objects, want font program, descriptor and font", len(w.objects))
	}
	if !strings.Contains(w.objects[2], "/Subtype /TrueType /BaseFont /Go-Regular /FontDescriptor 2 0 R") {
		t.Errorf("font dict = %.120q", w.objects[2])
	}
	if !strings.Contains(w.objects[1], "/FontFile2 1 0 R") {
		t.Errorf("descriptor = %q", w.objects[1])
	}
}

func TestRenderOpacity(t *testing.T) {
	w := &fakeWriter{}
	res := NewResources(w)

	ov, err := res.RenderOverlay([]Element{
		TextElement{Content: "WATERMARK", Size: 60, Opacity: 0.3},
		TextElement{Content: "again", Size: 60, Opacity: 0.3},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(string(ov.Content), "/PMGs1 gs") != 2 {
		t.Errorf("content = %q", ov.Content)
	}
	states := ov.Resources[pdf.ExtGState]
	if len(states) != 1 {
		t.Fatalf("graphics states = %v", states)
	}
	found := false
	for _, obj := range w.objects {
		if obj == "<< /Type /ExtGState /ca 0.3 /CA 0.3 >>" {
			found = true
		}
	}
	if !found {
		t.Errorf("no graphics state object in %q", w.objects)
	}
}

func TestRenderRotation(t *testing.T) {
	res := NewResources(&fakeWriter{})

	// "AB" at size 10 is 10 wide, so the box center is (105, 105).
	ov, err := res.RenderOverlay([]Element{TextElement{Content: "AB", Size: 10, X: 100, Y: 100, Rotation: 90}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(ov.Content), "0 1 -1 0 110 100 Tm") {
		t.Errorf("content = %q", ov.Content)
	}
}

func TestRenderImage(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		alpha   uint8
		objects int
		filter  string
	}{
		{"jpeg", "jpeg", 255, 1, "/DCTDecode"},
		{"opaque png", "png", 255, 1, "/ColorSpace /DeviceRGB"},
		{"transparent png", "png", 128, 2, "/SMask 1 0 R"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &fakeWriter{}
			res := NewResources(w)
			img := testImage(t, tt.format, tt.alpha)

			ov, err := res.RenderOverlay([]Element{
				ImageElement{Image: img, X: 100, Y: 100, Width: 100, Height: 50},
				ImageElement{Image: img, X: 300, Y: 100, Width: 100, Height: 50},
			}, nil)
			if err != nil {
				t.Fatal(err)
			}
			if len(w.objects) != tt.objects {
				t.Errorf("wrote %d objects, want %d", len(w.objects), tt.objects)
			}
			if !strings.Contains(w.objects[len(w.objects)-1], tt.filter) {
				t.Errorf("image object missing %q", tt.filter)
			}
			content := string(ov.Content)
			if !strings.Contains(content, "100 0 0 50 100 100 cm\n/PMIm1 Do") {
				t.Errorf("content = %q", content)
			}
			if strings.Count(content, "/PMIm1 Do") != 2 {
				t.Errorf("same image not reused: %q", content)
			}
		})
	}
}

func TestRegisterImageInvalid(t *testing.T) {
	res := NewResources(&fakeWriter{})
	if _, err := res.RegisterImage("", nil); err == nil {
		t.Error("expected error for empty image data")
	}
	if _, err := res.RegisterImage("", []byte("GIF89a...")); err == nil {
		t.Error("expected error for undecodable image data")
	}
}

func TestEncodeWinAnsi(t *testing.T) {
	got := EncodeWinAnsi("A€é漢")
	want := []byte{'A', 0x80, 0xe9, '?'}
	if !bytes.Equal(got, want) {
		t.Errorf("EncodeWinAnsi() = %x, want %x", got, want)
	}
}

func TestExpandTemplateVariables(t *testing.T) {
	ctx := TemplateContext{
		Name:  "Alice Bob",
		Date:  time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC),
		File:  "contract.pdf",
		Page:  2,
		Pages: 5,
	}
	tests := map[string]string{
		"Signed: {{Date}}":            "Signed: 2024-03-09",
		"{{Initials}} / {{Name}}":     "AB / Alice Bob",
		"{{File}} {{Page}}/{{Pages}}": "contract.pdf 2/5",
		"{{Unknown}}":                 "{{Unknown}}",
	}
	for in, want := range tests {
		if got := ExpandTemplateVariables(in, ctx); got != want {
			t.Errorf("ExpandTemplateVariables(%q) = %q, want %q", in, got, want)
		}
	}
}
