// Package config reads the TOML settings of the pdfmark tools.
package config

import (
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/asaskevich/govalidator"
)

// DefaultLocation of the config file.
var DefaultLocation = "./pdfmark.toml"

// Config is the root of the config
type Config struct {
	Display   Display   `toml:"display"`
	Drag      Drag      `toml:"drag"`
	Text      Text      `toml:"text"`
	Sign      Sign      `toml:"sign"`
	Watermark Watermark `toml:"watermark"`
	Raster    Raster    `toml:"raster"`
	Images    Images    `toml:"images"`
	Compress  Compress  `toml:"compress"`
	Log       Log       `toml:"log"`
}

// Display controls how pages are fitted for display.
type Display struct {
	MaxWidth float64 `toml:"max_width" valid:"required,range(50|4000)"`
}

// Drag controls pointer dragging.
type Drag struct {
	Grid float64 `toml:"grid" valid:"range(0|500)"`
	Snap bool    `toml:"snap"`
}

// Text holds the defaults of a new text annotation.
type Text struct {
	Text  string  `toml:"text"`
	Font  string  `toml:"font" valid:"required"`
	Size  float64 `toml:"size" valid:"required,range(1|500)"`
	Color string  `toml:"color" valid:"required,hexcolor"`
	X     float64 `toml:"x" valid:"range(0|20000)"`
	Y     float64 `toml:"y" valid:"range(0|20000)"`
}

// Sign holds the placement of a signature.
type Sign struct {
	X         float64 `toml:"x" valid:"range(0|20000)"`
	Y         float64 `toml:"y" valid:"range(0|20000)"`
	Width     float64 `toml:"width" valid:"required,range(1|2000)"`
	Height    float64 `toml:"height" valid:"required,range(1|2000)"`
	TextSize  float64 `toml:"text_size" valid:"required,range(1|500)"`
	Timestamp bool    `toml:"timestamp"`
	// Line is the timestamp text. {{Date}} is replaced with the signing time.
	Line       string `toml:"line"`
	DateLayout string `toml:"date_layout"`
	// StampAnchor is the page corner the timestamp is placed against.
	StampAnchor string `toml:"timestamp_anchor" valid:"required,in(top-left|top-right|bottom-left|bottom-right|center)"`
}

// Watermark holds the watermark appearance.
type Watermark struct {
	Font     string  `toml:"font" valid:"required"`
	Size     float64 `toml:"size" valid:"required,range(1|500)"`
	Color    string  `toml:"color" valid:"required,hexcolor"`
	Opacity  float64 `toml:"opacity" valid:"range(0|1)"`
	Rotation float64 `toml:"rotation"`
	// ImageScale is applied to the pixel size of an image watermark.
	ImageScale float64 `toml:"image_scale" valid:"required"`
}

// Raster controls page exports.
type Raster struct {
	DPI     int `toml:"dpi" valid:"required,range(72|300)"`
	Quality int `toml:"quality" valid:"required,range(1|100)"`
}

// Images controls documents created from images.
type Images struct {
	Paper string `toml:"paper" valid:"required,in(A4|Letter|Legal)"`
}

// Compress controls the compression tools.
type Compress struct {
	// Level is the zlib level of rewritten PDF streams, -1 for the zlib default.
	Level int `toml:"level" valid:"range(-1|9)"`
	// Quality is the JPEG quality of compressed images.
	Quality int `toml:"quality" valid:"required,range(1|100)"`
}

// Log configures logging.
type Log struct {
	Level  string `toml:"level" valid:"required,in(trace|debug|info|warn|error)"`
	Format string `toml:"format" valid:"required,in(json|console)"`
}

// Default returns the settings used when no config file is given.
func Default() Config {
	return Config{
		Display: Display{MaxWidth: 600},
		Drag:    Drag{Grid: 10},
		Text: Text{
			Text:  "New Text",
			Font:  "Helvetica",
			Size:  16,
			Color: "#000000",
			X:     100,
			Y:     300,
		},
		Sign: Sign{
			X:           100,
			Y:           100,
			Width:       100,
			Height:      50,
			TextSize:    14,
			Timestamp:   true,
			Line:        "Signed: {{Date}}",
			DateLayout:  "2006-01-02 15:04:05",
			StampAnchor: "bottom-left",
		},
		Watermark: Watermark{
			Font:       "Helvetica",
			Size:       60,
			Color:      "#808080",
			Opacity:    0.3,
			Rotation:   -45,
			ImageScale: 0.5,
		},
		Raster:   Raster{DPI: 150, Quality: 90},
		Images:   Images{Paper: "A4"},
		Compress: Compress{Level: 9, Quality: 80},
		Log:      Log{Level: "info", Format: "console"},
	}
}

// Grid returns the snapping grid, zero when snapping is off.
func (c Config) Grid() float64 {
	if !c.Drag.Snap {
		return 0
	}
	return c.Drag.Grid
}

// ValidateFields validates all the fields of the config
func (c Config) ValidateFields() error {
	_, err := govalidator.ValidateStruct(c)
	if err != nil {
		return err
	}
	if c.Watermark.Rotation < -360 || c.Watermark.Rotation > 360 {
		return fmt.Errorf("watermark rotation %v out of range", c.Watermark.Rotation)
	}
	if c.Watermark.ImageScale < 0 {
		return fmt.Errorf("watermark image scale %v is negative", c.Watermark.ImageScale)
	}
	return nil
}

// Read loads the config file at path over the defaults. A missing file is an
// error.
func Read(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("config file is missing: %w", err)
	}
	defer func() { _ = f.Close() }()

	c, err := Decode(f)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Decode reads TOML settings from r over the defaults and validates them.
func Decode(r io.Reader) (Config, error) {
	c := Default()
	md, err := toml.NewDecoder(r).Decode(&c)
	if err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("unknown config key %s", undecoded[0])
	}
	if err := c.ValidateFields(); err != nil {
		return Config{}, fmt.Errorf("config is not valid: %w", err)
	}
	return c, nil
}
