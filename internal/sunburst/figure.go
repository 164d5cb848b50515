package sunburst

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"math"
	"strings"
)

// HoverTemplate is the tooltip shown for each segment.
const HoverTemplate = "<b>%{label} </b> <br> Parent: %{parent}<br> Total Regions: %{value}<br> Percent: (%{color:.2f})"

// Options controls figure styling.
type Options struct {
	// MaxDepth bounds the rings visible at once; <= 0 shows all.
	MaxDepth   int
	ColorMin   float64
	ColorMax   float64
	ColorScale string
}

// DefaultOptions colors coverage on [0, 0.5] with a red-yellow-green scale.
func DefaultOptions() Options {
	return Options{MaxDepth: -1, ColorMin: 0, ColorMax: 0.5, ColorScale: "RdYlGn"}
}

// Figure is a Plotly figure: one sunburst trace and a layout.
type Figure struct {
	Data   []Trace        `json:"data"`
	Layout map[string]any `json:"layout"`
}

// Trace is a Plotly sunburst trace.
type Trace struct {
	Type          string    `json:"type"`
	IDs           []string  `json:"ids"`
	Labels        []string  `json:"labels"`
	Parents       []string  `json:"parents"`
	Values        []*number `json:"values"`
	BranchValues  string    `json:"branchvalues"`
	HoverTemplate string    `json:"hovertemplate"`
	Marker        Marker    `json:"marker"`
	MaxDepth      int       `json:"maxdepth"`
}

// Marker colors segments by coverage.
type Marker struct {
	Colors     []*number `json:"colors"`
	// ColorScale is a Plotly scale name or a list of [position, colour] stops.
	ColorScale any       `json:"colorscale"`
	CMin       float64   `json:"cmin"`
	CMax       float64   `json:"cmax"`
	ShowScale  bool      `json:"showscale"`
	Line       Line      `json:"line"`
}

// Line styles segment borders.
type Line struct {
	Width float64 `json:"width"`
}

// rdYlGn is the ColorBrewer red-yellow-green diverging scale. Plotly.js has no
// built-in scale by that name, so it is sent as explicit stops.
var rdYlGn = []string{
	"rgb(165,0,38)", "rgb(215,48,39)", "rgb(244,109,67)", "rgb(253,174,97)",
	"rgb(254,224,139)", "rgb(255,255,191)", "rgb(217,239,139)", "rgb(166,217,106)",
	"rgb(102,189,99)", "rgb(26,152,80)", "rgb(0,104,55)",
}

// colorScales maps lower-cased scale names to evenly spaced colour stops.
var colorScales = map[string][]string{
	"rdylgn":   rdYlGn,
	"rdylgn_r": reversed(rdYlGn),
}

func reversed(in []string) []string {
	out := make([]string, len(in))
	for i, c := range in {
		out[len(in)-1-i] = c
	}
	return out
}

// resolveColorScale expands a known name into [position, colour] stops.
// Any other name is passed through for Plotly.js to resolve.
func resolveColorScale(name string) any {
	cs, ok := colorScales[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return name
	}
	stops := make([][2]any, len(cs))
	for i, c := range cs {
		stops[i] = [2]any{float64(i) / float64(len(cs)-1), c}
	}
	return stops
}

// number marshals NaN as null, which Plotly treats as missing.
type number float64

func num(x float64) *number {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return nil
	}
	n := number(x)
	return &n
}

// BuildFigure lays out the tree as a sunburst rooted at its parentless nodes.
func BuildFigure(t *Tree, opt Options) Figure {
	if opt.MaxDepth <= 0 {
		opt.MaxDepth = -1
	}
	tr := Trace{
		Type:          "sunburst",
		BranchValues:  "total",
		HoverTemplate: HoverTemplate,
		MaxDepth:      opt.MaxDepth,
		Marker: Marker{
			ColorScale: resolveColorScale(opt.ColorScale),
			CMin:       opt.ColorMin,
			CMax:       opt.ColorMax,
			ShowScale:  true,
			Line:       Line{Width: 0},
		},
	}
	for _, n := range t.Nodes {
		tr.IDs = append(tr.IDs, n.Name)
		tr.Labels = append(tr.Labels, n.Name)
		tr.Parents = append(tr.Parents, n.Parent)
		tr.Values = append(tr.Values, num(n.Total))
		tr.Marker.Colors = append(tr.Marker.Colors, num(n.Percent))
	}
	return Figure{
		Data:   []Trace{tr},
		Layout: map[string]any{"margin": map[string]int{"t": 10, "l": 10, "r": 10, "b": 10}},
	}
}

// JSON encodes the figure for Plotly.newPlot.
func (f Figure) JSON() ([]byte, error) {
	b, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("marshal figure: %w", err)
	}
	return b, nil
}

//go:embed page.html.tmpl
var pageSource string

var pageTmpl = template.Must(template.New("page").Parse(pageSource))

// PageOptions fills the HTML shell around the figure.
type PageOptions struct {
	Title     string
	PlotlyURL string
}

// RenderPage writes a standalone HTML page that draws fig.
func RenderPage(w io.Writer, fig Figure, opt PageOptions) error {
	b, err := fig.JSON()
	if err != nil {
		return err
	}
	data := struct {
		Title     string
		PlotlyURL string
		Figure    template.JS
	}{opt.Title, opt.PlotlyURL, template.JS(b)}
	if err := pageTmpl.Execute(w, data); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	return nil
}

// Page renders the HTML page into memory.
func Page(fig Figure, opt PageOptions) ([]byte, error) {
	var buf bytes.Buffer
	if err := RenderPage(&buf, fig, opt); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
