package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitorus/pdfmark/config"
)

func TestConfig(t *testing.T) {
	const configContent = `
[display]
max_width = 800

[drag]
grid = 5
snap = true

[text]
font = "Times"
color = "#ff0000"

[raster]
dpi = 300

[sign]
timestamp_anchor = "top-right"

[compress]
quality = 60

[log]
level = "debug"
format = "json"
`

	c, err := config.Decode(strings.NewReader(configContent))
	require.NoError(t, err)

	assert.Equal(t, 800.0, c.Display.MaxWidth)
	assert.Equal(t, 5.0, c.Grid())
	assert.Equal(t, "Times", c.Text.Font)
	assert.Equal(t, "#ff0000", c.Text.Color)
	assert.Equal(t, 300, c.Raster.DPI)
	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, "top-right", c.Sign.StampAnchor)
	assert.Equal(t, 60, c.Compress.Quality)

	// Untouched keys keep their defaults.
	assert.Equal(t, 16.0, c.Text.Size)
	assert.Equal(t, "New Text", c.Text.Text)
	assert.Equal(t, -45.0, c.Watermark.Rotation)
	assert.Equal(t, 9, c.Compress.Level)
}

func TestDefault(t *testing.T) {
	c := config.Default()
	require.NoError(t, c.ValidateFields())
	assert.Equal(t, 0.0, c.Grid(), "snapping is off by default")
	assert.Equal(t, 600.0, c.Display.MaxWidth)
	assert.Equal(t, 150, c.Raster.DPI)
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"dpi too low", "[raster]\ndpi = 50\n"},
		{"dpi too high", "[raster]\ndpi = 600\n"},
		{"bad color", "[text]\ncolor = \"red\"\n"},
		{"bad level", "[log]\nlevel = \"verbose\"\n"},
		{"bad paper", "[images]\npaper = \"A3\"\n"},
		{"opacity", "[watermark]\nopacity = 2.0\n"},
		{"rotation", "[watermark]\nrotation = 720.0\n"},
		{"stamp anchor", "[sign]\ntimestamp_anchor = \"middle\"\n"},
		{"compress level", "[compress]\nlevel = 12\n"},
		{"compress quality", "[compress]\nquality = 0\n"},
		{"unknown key", "[text]\nfont_name = \"Times\"\n"},
		{"syntax", "[text\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Decode(strings.NewReader(tt.content))
			assert.Error(t, err)
		})
	}

	var c config.Config
	if _, err := toml.Decode(``, &c); err != nil {
		t.Error(err)
	}
	assert.NotNil(t, c.ValidateFields(), "an empty config validated")
}

func TestRead(t *testing.T) {
	_, err := config.Read(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "pdfmark.toml")
	require.NoError(t, os.WriteFile(path, []byte("[images]\npaper = \"Letter\"\n"), 0o600))

	c, err := config.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "Letter", c.Images.Paper)
}
