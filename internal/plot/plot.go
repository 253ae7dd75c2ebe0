// Package plot renders the comparison figures: one multi-panel heatmap per
// (variable, depth, time period), with the reference dataset first and
// optional difference panels. Output format (png, pdf, svg) and location
// come straight from the resolved settings.
package plot

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
	"gonum.org/v1/plot/vg/vgpdf"
	"gonum.org/v1/plot/vg/vgsvg"

	"github.com/oceanbgc/climodiag/internal/dataset"
	"github.com/oceanbgc/climodiag/internal/fsutil"
)

const (
	panelWidth  = 6 * vg.Inch
	panelHeight = 4 * vg.Inch
)

// Panel is one subplot: a 2D field with its title.
type Panel struct {
	Title string
	Field *dataset.Field
	// Diverging centers the color scale on zero; used for difference
	// panels.
	Diverging bool
}

// Renderer writes figures to disk.
type Renderer struct {
	Format string // png, pdf, or svg
}

// Render tiles the panels onto one canvas and writes it to path.
func (r *Renderer) Render(path string, panels []Panel) error {
	if len(panels) == 0 {
		return fmt.Errorf("no panels to render")
	}
	rows, cols := Dims(len(panels))

	grid := make([][]*plot.Plot, rows)
	for i := range grid {
		grid[i] = make([]*plot.Plot, cols)
	}
	for i, panel := range panels {
		p, err := buildPanel(panel)
		if err != nil {
			return fmt.Errorf("panel %q: %w", panel.Title, err)
		}
		grid[i/cols][i%cols] = p
	}

	canvas, write, err := newCanvas(r.Format, cols, rows)
	if err != nil {
		return err
	}
	tiles := draw.Tiles{
		Rows: rows, Cols: cols,
		PadX: vg.Millimeter * 2, PadY: vg.Millimeter * 2,
		PadTop: vg.Millimeter * 2, PadBottom: vg.Millimeter * 2,
		PadLeft: vg.Millimeter * 2, PadRight: vg.Millimeter * 2,
	}
	canvases := plot.Align(grid, tiles, canvas)
	for row := range grid {
		for col, p := range grid[row] {
			if p != nil {
				p.Draw(canvases[row][col])
			}
		}
	}

	if err := fsutil.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	if _, err := write(f); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func buildPanel(panel Panel) (*plot.Plot, error) {
	if len(panel.Field.Shape) != 2 {
		return nil, fmt.Errorf("expected a 2D field, got shape %v", panel.Field.Shape)
	}
	p := plot.New()
	p.Title.Text = panel.Title
	p.Title.TextStyle.Font.Size = vg.Points(9)
	p.X.Label.Text = ""
	p.Y.Label.Text = ""

	g := &fieldGrid{field: panel.Field}
	h := plotter.NewHeatMap(g, moreland.SmoothBlueRed().Palette(255))
	if panel.Diverging {
		m := math.Max(math.Abs(h.Min), math.Abs(h.Max))
		h.Min, h.Max = -m, m
	}
	// A uniform field (a zero bias, say) has no range to map colors over.
	if h.Min == h.Max {
		h.Min, h.Max = h.Min-0.5, h.Max+0.5
	}
	p.Add(h)
	return p, nil
}

// newCanvas creates the drawing surface for the requested format and
// returns it with its serialization function.
func newCanvas(format string, cols, rows int) (draw.Canvas, func(io.Writer) (int64, error), error) {
	w := panelWidth * vg.Length(cols)
	h := panelHeight * vg.Length(rows)
	switch format {
	case "", "png":
		c := vgimg.New(w, h)
		png := vgimg.PngCanvas{Canvas: c}
		return draw.New(c), png.WriteTo, nil
	case "pdf":
		c := vgpdf.New(w, h)
		return draw.New(c), c.WriteTo, nil
	case "svg":
		c := vgsvg.New(w, h)
		return draw.New(c), c.WriteTo, nil
	}
	return draw.Canvas{}, nil, fmt.Errorf("unknown plot format %q", format)
}

// fieldGrid adapts a 2D field to gonum's heatmap grid. Coordinates are
// cell indices: the diagnostics compare fields on their native grids and
// do not project them.
type fieldGrid struct {
	field *dataset.Field
}

func (g *fieldGrid) Dims() (c, r int) {
	return g.field.Shape[1], g.field.Shape[0]
}

func (g *fieldGrid) Z(c, r int) float64 {
	return g.field.Values[r*g.field.Shape[1]+c]
}

func (g *fieldGrid) X(c int) float64 { return float64(c) }

func (g *fieldGrid) Y(r int) float64 { return float64(r) }
