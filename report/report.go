// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package report prints a plain text coverage summary.
//
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	hw "github.com/db47h/hwcov"
	"github.com/pkg/errors"
	"github.com/rivo/uniseg"
)

// Options controls the content of a report.
//
type Options struct {
	// Glob patterns selecting covergroup instances by path. Paths have the
	// form "scopeType/cgType/instance". All instances are listed if empty.
	Include []string
	// List coverpoints and crosses below each instance.
	Verbose bool
}

type row struct {
	name   string
	pct    string
	counts string
}

func newRow(name string, pct float64, covered, total int) row {
	return row{name, fmt.Sprintf("%.2f%%", pct), fmt.Sprintf("%d/%d", covered, total)}
}

type typeKey struct {
	scope, group string
}

// collector is a hwcov.Visitor gathering report rows.
type collector struct {
	opts  Options
	rows  []row
	types []typeKey
	seen  map[typeKey]bool
}

func (c *collector) include(path string) bool {
	if len(c.opts.Include) == 0 {
		return true
	}
	for _, p := range c.opts.Include {
		if ok, _ := doublestar.Match(p, path); ok {
			return true
		}
	}
	return false
}

func (c *collector) VisitScope(n hw.ScopeNode) {
	for _, tg := range n.Types() {
		k := typeKey{tg.ScopeType, tg.Name}
		for _, g := range tg.Instances {
			path := tg.ScopeType + "/" + tg.Name + "/" + g.Name()
			if !c.include(path) {
				continue
			}
			if !c.seen[k] {
				c.seen[k] = true
				c.types = append(c.types, k)
			}
			if !g.Enabled() {
				c.rows = append(c.rows, row{path, "disabled", ""})
				continue
			}
			pct, covered, total := hw.NodeCoverage(g)
			c.rows = append(c.rows, newRow(path, pct, covered, total))
			if c.opts.Verbose {
				g.Accept(c)
			}
		}
	}
	for _, s := range n.Scopes() {
		s.Accept(c)
	}
}

func (c *collector) VisitCovergroup(n hw.CovergroupNode) {
	for _, it := range n.Items() {
		it.Accept(c)
	}
}

func (c *collector) item(n hw.Node, name string) {
	pct, covered, total := hw.NodeCoverage(n)
	c.rows = append(c.rows, newRow("  "+name, pct, covered, total))
}

func (c *collector) VisitCoverpoint(n hw.CoverpointNode) { c.item(n, n.Name()) }
func (c *collector) VisitCross(n hw.CrossNode)           { c.item(n, n.Name()) }
func (c *collector) VisitBin(hw.BinNode)                 {}

// Write writes a coverage summary of ctx to w: one row per covergroup
// instance, followed by one row per covergroup type and the global coverage.
//
func Write(w io.Writer, ctx *hw.Context, opts Options) error {
	for _, p := range opts.Include {
		if !doublestar.ValidatePattern(p) {
			return errors.Errorf("report: invalid pattern %q", p)
		}
	}
	c := &collector{opts: opts, seen: make(map[typeKey]bool)}
	if err := ctx.Walk(c); err != nil {
		return err
	}
	rows := append([]row{{"COVERGROUP", "COVERAGE", "BINS"}}, c.rows...)
	for _, k := range c.types {
		pct, covered, total, err := ctx.TypeCoverageCounts(k.scope, k.group)
		if err != nil {
			return err
		}
		rows = append(rows, newRow("type "+k.scope+"/"+k.group, pct, covered, total))
	}
	pct, covered, total, err := ctx.CoverageCounts()
	if err != nil {
		return err
	}
	rows = append(rows, newRow("TOTAL", pct, covered, total))
	return errors.Wrap(writeTable(w, rows), "report")
}

// writeTable writes rows with the name column left aligned and the others
// right aligned.
func writeTable(w io.Writer, rows []row) error {
	var wName, wPct, wCounts int
	for _, r := range rows {
		wName = max(wName, uniseg.StringWidth(r.name))
		wPct = max(wPct, uniseg.StringWidth(r.pct))
		wCounts = max(wCounts, uniseg.StringWidth(r.counts))
	}
	var sb strings.Builder
	for _, r := range rows {
		sb.WriteString(pad(r.name, wName, false))
		sb.WriteString("  ")
		sb.WriteString(pad(r.pct, wPct, true))
		sb.WriteString("  ")
		sb.WriteString(pad(r.counts, wCounts, true))
		sb.WriteString("\n")
	}
	_, err := io.WriteString(w, trimLines(sb.String()))
	return err
}

func pad(s string, width int, right bool) string {
	n := width - uniseg.StringWidth(s)
	if n <= 0 {
		return s
	}
	if right {
		return strings.Repeat(" ", n) + s
	}
	return s + strings.Repeat(" ", n)
}

func trimLines(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " ")
	}
	return strings.Join(lines, "\n")
}
