// Package sunburst renders a names/parents hierarchy of region coverage as an
// interactive Plotly sunburst chart and serves it to a browser.
package sunburst

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/teamnsrg/covtab/internal/analysis"
)

// Hierarchy table columns.
const (
	ColNames          = "names"
	ColParents        = "parents"
	ColTotal          = "total"
	ColPercentCovered = "percentcovered"
)

var (
	// ErrUsage is returned when the renderer is not given exactly a file and a depth.
	ErrUsage = errors.New("Need an input file and a depth")
	// ErrDuplicateNode is returned when two rows share a name.
	ErrDuplicateNode = errors.New("duplicate node name")
)

// Node is one segment of the chart. An empty Parent marks a root.
type Node struct {
	Name    string
	Parent  string
	Total   float64
	Percent float64
}

// Tree is a validated hierarchy in input order.
type Tree struct {
	Nodes []Node
	// Orphans name nodes whose parent is not in the table; the chart drops them.
	Orphans []string
	// Depth is the number of rings needed to show every reachable node.
	Depth int
}

// ParseArgs checks the positional arguments <input_csv> <max_depth>.
func ParseArgs(args []string) (string, int, error) {
	if len(args) != 2 {
		return "", 0, ErrUsage
	}
	depth, err := strconv.Atoi(args[1])
	if err != nil {
		return "", 0, fmt.Errorf("max depth %q: %w", args[1], err)
	}
	return args[0], depth, nil
}

// LoadTree reads a hierarchy CSV.
func LoadTree(path string) (*Tree, error) {
	f, err := analysis.ReadCSV(path)
	if err != nil {
		return nil, err
	}
	return TreeFromFrame(f)
}

// TreeFromFrame extracts and validates nodes from a hierarchy table.
func TreeFromFrame(f *analysis.Frame) (*Tree, error) {
	idx, err := f.Cols(ColNames, ColParents, ColTotal, ColPercentCovered)
	if err != nil {
		return nil, err
	}
	nodes := make([]Node, 0, f.Len())
	for _, r := range f.Rows {
		nodes = append(nodes, Node{
			Name:    r[idx[0]],
			Parent:  r[idx[1]],
			Total:   analysis.ParseNumber(r[idx[2]]),
			Percent: analysis.ParseNumber(r[idx[3]]),
		})
	}
	return NewTree(nodes)
}

// NewTree validates nodes: names must be unique, and the depth of every node
// reachable from a root is computed. Nodes on a parent cycle count as orphans.
func NewTree(nodes []Node) (*Tree, error) {
	byName := make(map[string]int, len(nodes))
	for i, n := range nodes {
		if _, dup := byName[n.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateNode, n.Name)
		}
		byName[n.Name] = i
	}

	depth := make(map[string]int, len(nodes))
	var resolve func(name string, seen map[string]bool) int
	resolve = func(name string, seen map[string]bool) int {
		if d, ok := depth[name]; ok {
			return d
		}
		i, ok := byName[name]
		if !ok || seen[name] {
			return -1
		}
		n := nodes[i]
		if n.Parent == "" {
			depth[name] = 1
			return 1
		}
		seen[name] = true
		d := resolve(n.Parent, seen)
		if d > 0 {
			d++
		}
		depth[name] = d
		return d
	}

	t := &Tree{Nodes: nodes}
	for _, n := range nodes {
		d := resolve(n.Name, map[string]bool{})
		if d < 0 {
			t.Orphans = append(t.Orphans, n.Name)
			continue
		}
		if d > t.Depth {
			t.Depth = d
		}
	}
	sort.Strings(t.Orphans)
	return t, nil
}

// Roots returns the names of nodes without a parent.
func (t *Tree) Roots() []string {
	var out []string
	for _, n := range t.Nodes {
		if n.Parent == "" {
			out = append(out, n.Name)
		}
	}
	return out
}
