package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/digitorus/pdfmark/annotations"
	"github.com/digitorus/pdfmark/config"
	"github.com/digitorus/pdfmark/images"
)

// markFile is the YAML layout of a list of marks:
//
//	marks:
//	  - page: 1
//	    x: 100
//	    y: 700
//	    text: Approved
//	    size: 18
//	    color: "#cc0000"
//	  - page: 2
//	    x: 400
//	    y: 80
//	    image: signature.png
//	    width: 120
//	    height: 60
type markFile struct {
	Marks []mark `yaml:"marks"`
}

type mark struct {
	Page int     `yaml:"page"`
	X    float64 `yaml:"x"`
	Y    float64 `yaml:"y"`

	Text   string  `yaml:"text"`
	Font   string  `yaml:"font"`
	Size   float64 `yaml:"size"`
	Color  string  `yaml:"color"`
	Bold   bool    `yaml:"bold"`
	Italic bool    `yaml:"italic"`

	// Image is a path relative to the marks file.
	Image  string  `yaml:"image"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`

	Rotation float64 `yaml:"rotation"`
	Opacity  float64 `yaml:"opacity"`
}

// readMarks loads a marks file. Text marks take unset font, size and color from
// the text defaults.
func readMarks(path string, defaults config.Text) ([]annotations.Annotation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read marks: %w", err)
	}
	var f markFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse marks %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	out := make([]annotations.Annotation, 0, len(f.Marks))
	for i, m := range f.Marks {
		a := annotations.Annotation{
			Page:     m.Page,
			X:        m.X,
			Y:        m.Y,
			Rotation: m.Rotation,
			Opacity:  m.Opacity,
		}
		if a.Page == 0 {
			a.Page = 1
		}

		if m.Image != "" {
			p := m.Image
			if !filepath.IsAbs(p) {
				p = filepath.Join(dir, p)
			}
			img, err := images.Load(p)
			if err != nil {
				return nil, fmt.Errorf("mark %d: %w", i+1, err)
			}
			a.Kind = annotations.Image
			a.Image = img
			a.Width, a.Height = m.Width, m.Height
			if a.Width == 0 && a.Height == 0 {
				a.Width, a.Height = float64(img.Width), float64(img.Height)
			}
		} else {
			a.Kind = annotations.Text
			a.Text = m.Text
			a.FontFamily = or(m.Font, defaults.Font)
			a.FontSize = m.Size
			if a.FontSize == 0 {
				a.FontSize = defaults.Size
			}
			a.Color = annotations.ParseHexColor(or(m.Color, defaults.Color))
			a.Bold, a.Italic = m.Bold, m.Italic
		}
		out = append(out, a)
	}
	return out, nil
}

func or(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
