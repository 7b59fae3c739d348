// Package cli provides the pdfmark command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/digitorus/pdfmark/config"
	"github.com/digitorus/pdfmark/internal/logging"
	"github.com/digitorus/pdfmark/raster"
	"github.com/digitorus/pdfmark/raster/mupdf"
	"github.com/digitorus/pdfmark/tools"
)

// Version information set at build time.
var (
	Version   = "dev"
	GitCommit = "unknown"
)

type globalOptions struct {
	configPath string
	logLevel   string
	outDir     string
}

// App represents the CLI application.
type App struct {
	root   *cobra.Command
	stdout io.Writer
	stderr io.Writer

	registry   *tools.Registry
	rasterizer raster.Rasterizer
	now        func() time.Time

	opts globalOptions
	cfg  config.Config
}

// New creates the CLI application with the built-in tools and the MuPDF
// rasterizer.
func New() *App {
	app := &App{
		stdout:     os.Stdout,
		stderr:     os.Stderr,
		registry:   tools.Default(),
		rasterizer: mupdf.New(),
		now:        time.Now,
		cfg:        config.Default(),
	}

	app.root = &cobra.Command{
		Use:   "pdfmark",
		Short: "Annotate, sign, watermark and convert PDF files",
		Long: `pdfmark places text and image marks on PDF pages without rewriting the
original document. Changes are appended as an incremental update.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error { return app.loadConfig() },
	}

	flags := app.root.PersistentFlags()
	flags.StringVarP(&app.opts.configPath, "config", "c", "", "Path to a TOML config file (default "+config.DefaultLocation+" when present)")
	flags.StringVar(&app.opts.logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	flags.StringVarP(&app.opts.outDir, "out", "o", ".", "Directory for output files")

	app.root.AddCommand(
		app.newVersionCmd(),
		app.newToolsCmd(),
		app.newFontsCmd(),
		app.newEditCmd(),
		app.newSignCmd(),
		app.newWatermarkCmd(),
		app.newToJPEGCmd(),
		app.newFromImagesCmd(),
		app.newCompressCmd(),
		app.newCompressImagesCmd(),
		app.newRenderCmd(),
		app.newPreviewCmd(),
	)
	return app
}

// WithOutput sets custom output writers.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	a.root.SetOut(stdout)
	a.root.SetErr(stderr)
	return a
}

// WithRasterizer replaces the page rasterizer.
func (a *App) WithRasterizer(r raster.Rasterizer) *App {
	a.rasterizer = r
	return a
}

// WithClock replaces the clock used for dates in output names and stamps.
func (a *App) WithClock(now func() time.Time) *App {
	a.now = now
	return a
}

// Execute runs the CLI application.
func (a *App) Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return a.root.ExecuteContext(ctx)
}

// ExecuteWithArgs runs the CLI with specific arguments.
func (a *App) ExecuteWithArgs(ctx context.Context, args []string) error {
	a.root.SetArgs(args)
	return a.Execute(ctx)
}

func (a *App) loadConfig() error {
	path := a.opts.configPath
	if path == "" {
		if _, err := os.Stat(config.DefaultLocation); err == nil {
			path = config.DefaultLocation
		}
	}

	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Read(path); err != nil {
			return err
		}
	}
	if a.opts.logLevel != "" {
		if !logging.ValidLevel(a.opts.logLevel) {
			return fmt.Errorf("invalid log level %q", a.opts.logLevel)
		}
		cfg.Log.Level = a.opts.logLevel
	}

	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: os.Stderr})
	a.cfg = cfg
	return nil
}

func (a *App) env() tools.Env {
	env := tools.NewEnv(a.cfg, a.rasterizer)
	env.Now = a.now
	return env
}

// runTool opens every input with the tool, lets configure adjust it and writes
// the output. Nothing is written when any step fails.
func (a *App) runTool(ctx context.Context, id string, inputs []string, configure func(tools.Tool) error) error {
	tool, err := a.registry.New(id, a.env())
	if err != nil {
		return err
	}
	if s, ok := tool.(tools.Annotator); ok {
		defer s.Session().Close()
	}

	for _, path := range inputs {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		if err := tool.Open(ctx, tools.File{Name: filepath.Base(path), Data: data}); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	if configure != nil {
		if err := configure(tool); err != nil {
			return err
		}
	}

	start := time.Now()
	out, err := tool.Run(ctx)
	if err != nil {
		logging.Error().Add(logging.Tool(id)).Add(logging.ErrorField(err)).Msg("tool failed")
		return err
	}
	path, err := a.write(out)
	if err != nil {
		return err
	}
	logging.Info().Add(logging.Tool(id)).Add(logging.File(path)).Add(logging.Bytes(len(out.Data))).
		Add(logging.Duration(time.Since(start))).Msg("output written")
	return nil
}

func (a *App) write(out tools.File) (string, error) {
	if err := os.MkdirAll(a.opts.outDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(a.opts.outDir, out.Name)
	if err := os.WriteFile(path, out.Data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write output: %w", err)
	}
	fmt.Fprintln(a.stdout, path)
	return path, nil
}
