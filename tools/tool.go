// Package tools is the catalog of file tools. Each tool is registered under an
// id with a factory; front ends look tools up by id and discover optional
// capabilities, such as reordering inputs, by type assertion.
package tools

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/digitorus/pdfmark/config"
	"github.com/digitorus/pdfmark/raster"
	"github.com/digitorus/pdfmark/session"
)

var (
	// ErrUnknownTool is returned for an id nobody registered.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrNoRenderer is returned by tools that display or export pages when the
	// environment has no renderer.
	ErrNoRenderer = errors.New("tool needs a page renderer")
)

// Category groups tools in a catalog.
type Category string

// Categories.
const (
	CategoryEdit     Category = "edit"
	CategoryConvert  Category = "convert"
	CategoryOptimize Category = "optimize"
)

// Info describes a tool.
type Info struct {
	ID          string
	Name        string
	Description string
	Category    Category
	// Accept lists the file extensions the tool takes as input.
	Accept []string
}

// Accepts reports whether a file name carries one of the accepted extensions.
func (i Info) Accepts(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, a := range i.Accept {
		if ext == a {
			return true
		}
	}
	return false
}

// File is a named input or output.
type File struct {
	Name string
	Data []byte
}

// Tool transforms its input files into one output file.
type Tool interface {
	Info() Info
	// Open adds an input. Tools that take a single input replace the previous one.
	Open(ctx context.Context, f File) error
	// Run produces the output. Nothing is returned unless the whole output was
	// produced.
	Run(ctx context.Context) (File, error)
}

// Annotator is implemented by tools that place marks interactively.
type Annotator interface {
	Session() *session.Session
}

// Direction moves an input within its list.
type Direction int

// Directions.
const (
	Up Direction = iota
	Down
)

// Reorderer is implemented by tools whose output depends on input order.
type Reorderer interface {
	Inputs() []string
	// Move swaps the input at index with its neighbour. It reports false when
	// there is nothing to swap with.
	Move(index int, d Direction) bool
}

// Remover is implemented by tools that can drop an input again.
type Remover interface {
	Remove(index int) bool
}

// Env is what tools are built from.
type Env struct {
	Config   config.Config
	Renderer *raster.Renderer
	// Now is used for dates in output names and stamps, time.Now when nil.
	Now func() time.Time
}

// NewEnv returns an environment with the given settings.
func NewEnv(c config.Config, r raster.Rasterizer) Env {
	env := Env{Config: c}
	if r != nil {
		env.Renderer = &raster.Renderer{Rasterizer: r, MaxWidth: c.Display.MaxWidth}
	}
	return env
}

func (e Env) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Factory builds a tool.
type Factory func(Env) (Tool, error)

// baseName strips a .pdf extension.
func baseName(name string) string {
	if strings.EqualFold(filepath.Ext(name), ".pdf") {
		return name[:len(name)-4]
	}
	return name
}
