package cli

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/digitorus/pdfmark"
	"github.com/digitorus/pdfmark/annotations"
	"github.com/digitorus/pdfmark/fonts"
	"github.com/digitorus/pdfmark/preview"
	"github.com/digitorus/pdfmark/raster"
	"github.com/digitorus/pdfmark/tools"
)

func (a *App) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "pdfmark version %s\n", Version)
			fmt.Fprintf(a.stdout, "  Git commit: %s\n", GitCommit)
		},
	}
}

func (a *App) newToolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the available tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCATEGORY\tINPUT\tDESCRIPTION")
			for _, info := range a.registry.List() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", info.ID, info.Category, strings.Join(info.Accept, ","), info.Description)
			}
			return w.Flush()
		},
	}
}

func (a *App) newFontsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fonts [input.pdf]",
		Short: "List the font families for text marks, and the fonts a PDF uses",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(a.stdout, "Available:")
			for _, family := range fonts.Families() {
				fmt.Fprintf(a.stdout, "  %s\n", family)
			}
			if len(args) == 0 {
				return nil
			}

			doc, err := pdfmark.OpenFile(args[0])
			if err != nil {
				return err
			}
			used, err := doc.Fonts()
			if err != nil {
				return fmt.Errorf("%w: %v", pdfmark.ErrUnreadable, err)
			}
			fmt.Fprintf(a.stdout, "Used by %s:\n", filepath.Base(args[0]))
			for _, name := range used {
				fmt.Fprintf(a.stdout, "  %s\n", name)
			}
			return nil
		},
	}
}

func (a *App) newEditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <input.pdf> <marks.yaml>",
		Short: "Place the marks listed in a YAML file",
		Long: `Place text and image marks on a PDF. The marks file lists one entry per
mark with its page, position in points from the lower-left corner, and either
a text or an image path.

Example:
  pdfmark edit contract.pdf marks.yaml -o out/`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			marks, err := readMarks(args[1], a.cfg.Text)
			if err != nil {
				return err
			}
			return a.runTool(cmd.Context(), tools.EditorInfo.ID, args[:1], func(t tools.Tool) error {
				s := t.(tools.Annotator).Session()
				for _, m := range marks {
					s.Add(m)
				}
				return nil
			})
		},
	}
}

type signOptions struct {
	text      string
	image     string
	page      int
	x, y      float64
	noStamp   bool
	stampLine string
}

func (a *App) newSignCmd() *cobra.Command {
	opts := &signOptions{}
	cmd := &cobra.Command{
		Use:   "sign <input.pdf>",
		Short: "Place a signature image or line and the signing date",
		Long: `Place a visible signature on one page. Give a signature text, a signature
image (PNG or JPEG), or both.

Examples:
  pdfmark sign --text "Jane Doe" lease.pdf
  pdfmark sign --image signature.png --page 3 --x 380 --y 120 lease.pdf`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("x") {
				a.cfg.Sign.X = opts.x
			}
			if cmd.Flags().Changed("y") {
				a.cfg.Sign.Y = opts.y
			}
			if opts.noStamp {
				a.cfg.Sign.Timestamp = false
			}
			if opts.stampLine != "" {
				a.cfg.Sign.Line = opts.stampLine
			}
			return a.runTool(cmd.Context(), tools.SignInfo.ID, args, func(t tools.Tool) error {
				return configureSigner(cmd.Context(), t.(*tools.Signer), opts)
			})
		},
	}

	cmd.Flags().StringVar(&opts.text, "text", "", "Signature line")
	cmd.Flags().StringVar(&opts.image, "image", "", "Signature image (PNG or JPEG)")
	cmd.Flags().IntVar(&opts.page, "page", 1, "Page to sign")
	cmd.Flags().Float64Var(&opts.x, "x", 0, "Horizontal position in points")
	cmd.Flags().Float64Var(&opts.y, "y", 0, "Vertical position in points")
	cmd.Flags().BoolVar(&opts.noStamp, "no-timestamp", false, "Leave out the signing date")
	cmd.Flags().StringVar(&opts.stampLine, "timestamp-line", "", "Signing date text, {{Date}} is replaced")
	return cmd
}

func configureSigner(ctx context.Context, s *tools.Signer, opts *signOptions) error {
	if opts.page != 1 {
		if err := s.SetPage(ctx, opts.page); err != nil {
			return err
		}
	}
	if err := s.SetText(opts.text); err != nil {
		return err
	}
	if opts.image == "" {
		return nil
	}
	data, err := os.ReadFile(opts.image)
	if err != nil {
		return fmt.Errorf("failed to read signature: %w", err)
	}
	return s.SetSignatureFile(filepath.Base(opts.image), data)
}

type watermarkOptions struct {
	text     string
	image    string
	font     string
	size     float64
	color    string
	opacity  float64
	rotation float64
	scale    float64
}

func (a *App) newWatermarkCmd() *cobra.Command {
	opts := &watermarkOptions{}
	cmd := &cobra.Command{
		Use:   "watermark <input.pdf>",
		Short: "Stamp a text or image across every page",
		Long: `Stamp a watermark centered on every page.

Examples:
  pdfmark watermark --text CONFIDENTIAL report.pdf
  pdfmark watermark --image logo.png --opacity 0.1 --rotation 0 report.pdf`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTool(cmd.Context(), tools.WatermarkInfo.ID, args, func(t tools.Tool) error {
				w := t.(*tools.Watermark)
				w.Text = opts.text
				flags := cmd.Flags()
				if flags.Changed("font") {
					w.Font = opts.font
				}
				if flags.Changed("size") {
					w.Size = opts.size
				}
				if flags.Changed("color") {
					w.Color = annotations.ParseHexColor(opts.color)
				}
				if flags.Changed("opacity") {
					w.Opacity = opts.opacity
				}
				if flags.Changed("rotation") {
					w.Rotation = opts.rotation
				}
				if flags.Changed("scale") {
					w.ImageScale = opts.scale
				}
				if opts.image != "" {
					data, err := os.ReadFile(opts.image)
					if err != nil {
						return fmt.Errorf("failed to read watermark: %w", err)
					}
					return w.SetImage(filepath.Base(opts.image), data)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&opts.text, "text", "", "Watermark text")
	cmd.Flags().StringVar(&opts.image, "image", "", "Watermark image (PNG or JPEG)")
	cmd.Flags().StringVar(&opts.font, "font", "", "Font family")
	cmd.Flags().Float64Var(&opts.size, "size", 0, "Font size in points")
	cmd.Flags().StringVar(&opts.color, "color", "", "Text color as #rrggbb")
	cmd.Flags().Float64Var(&opts.opacity, "opacity", 0, "Opacity between 0 and 1")
	cmd.Flags().Float64Var(&opts.rotation, "rotation", 0, "Rotation in degrees")
	cmd.Flags().Float64Var(&opts.scale, "scale", 0, "Image scale")
	return cmd
}

func (a *App) newToJPEGCmd() *cobra.Command {
	var dpi, quality int
	cmd := &cobra.Command{
		Use:   "to-jpg <input.pdf>",
		Short: "Export every page as JPEG into a zip archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTool(cmd.Context(), tools.ToJPEGInfo.ID, args, func(t tools.Tool) error {
				p := t.(*tools.PageExporter)
				if cmd.Flags().Changed("dpi") {
					p.DPI = dpi
				}
				if cmd.Flags().Changed("quality") {
					p.Quality = quality
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&dpi, "dpi", 0, fmt.Sprintf("Resolution (%d-%d)", tools.MinDPI, tools.MaxDPI))
	cmd.Flags().IntVar(&quality, "quality", 0, "JPEG quality (1-100)")
	return cmd
}

func (a *App) newFromImagesCmd() *cobra.Command {
	var paper string
	cmd := &cobra.Command{
		Use:   "from-images <image>...",
		Short: "Combine images into a PDF, one per page",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTool(cmd.Context(), tools.FromImagesInfo.ID, args, func(t tools.Tool) error {
				if paper == "" {
					return nil
				}
				size, err := pdfmark.ParsePaperSize(paper)
				if err != nil {
					return err
				}
				t.(*tools.ImageCollector).Paper = size
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&paper, "paper", "", "Page size (A4, Letter, Legal)")
	return cmd
}

func (a *App) newCompressCmd() *cobra.Command {
	var level int
	cmd := &cobra.Command{
		Use:   "compress <input.pdf>",
		Short: "Rewrite a PDF with compressed streams and object streams",
		Long: `Rewrite the whole document. Streams are deflated again, the other objects
are packed into object streams and objects nothing refers to are dropped.

Example:
  pdfmark compress --level 9 scan.pdf -o out/`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTool(cmd.Context(), tools.CompressInfo.ID, args, func(t tools.Tool) error {
				if cmd.Flags().Changed("level") {
					t.(*tools.Compressor).Level = level
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&level, "level", 0, "zlib level (0-9, -1 for the zlib default)")
	return cmd
}

func (a *App) newCompressImagesCmd() *cobra.Command {
	var quality int
	cmd := &cobra.Command{
		Use:   "compress-images <image>...",
		Short: "Re-encode JPEG and PNG images to reduce their size",
		Long: `Re-encode images. JPEG images use the given quality, PNG images the best
compression level. An image that cannot be made smaller is kept as is. Several
images are written into one zip archive.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTool(cmd.Context(), tools.ImageCompressInfo.ID, args, func(t tools.Tool) error {
				if cmd.Flags().Changed("quality") {
					t.(*tools.ImageCompressor).Quality = quality
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&quality, "quality", 0, "JPEG quality (1-100)")
	return cmd
}

func (a *App) newRenderCmd() *cobra.Command {
	var page, dpi int
	cmd := &cobra.Command{
		Use:   "render <input.pdf>",
		Short: "Render a page to PNG",
		Long: `Render one page to PNG. Without --dpi the page is fitted to the display
width from the config.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := a.render(cmd.Context(), args[0], page, dpi)
			if err != nil {
				return err
			}
			return a.writePNG(fmt.Sprintf("%s_%03d.png", stem(args[0]), page), view.Image)
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "Page to render")
	cmd.Flags().IntVar(&dpi, "dpi", 0, fmt.Sprintf("Resolution (%d-%d)", tools.MinDPI, tools.MaxDPI))
	return cmd
}

func (a *App) newPreviewCmd() *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "preview <input.pdf> [marks.yaml]",
		Short: "Render a page, with marks drawn over it, to PNG",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var marks []annotations.Annotation
			if len(args) == 2 {
				var err error
				if marks, err = readMarks(args[1], a.cfg.Text); err != nil {
					return err
				}
			}
			view, err := a.render(cmd.Context(), args[0], page, 0)
			if err != nil {
				return err
			}
			img, err := preview.Compose(view, marks, "")
			if err != nil {
				return err
			}
			return a.writePNG(fmt.Sprintf("%s_page_%03d.png", stem(args[0]), page), img)
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "Page to render")
	return cmd
}

// render draws page n at dpi, or fitted to the display width when dpi is zero.
func (a *App) render(ctx context.Context, path string, n, dpi int) (raster.PageView, error) {
	env := a.env()
	if env.Renderer == nil {
		return raster.PageView{}, tools.ErrNoRenderer
	}
	doc, err := pdfmark.OpenFile(path)
	if err != nil {
		return raster.PageView{}, err
	}
	if dpi == 0 {
		return env.Renderer.Render(ctx, doc, n)
	}
	if dpi < tools.MinDPI || dpi > tools.MaxDPI {
		return raster.PageView{}, fmt.Errorf("%w: dpi %d outside %d-%d", pdfmark.ErrInvalidInput, dpi, tools.MinDPI, tools.MaxDPI)
	}
	return env.Renderer.RenderAt(ctx, doc, n, float64(dpi)/72)
}

func (a *App) writePNG(name string, img image.Image) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return err
	}
	_, err := a.write(tools.File{Name: name, Data: buf.Bytes()})
	return err
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
