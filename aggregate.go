// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwcov

// accumulator sums weighted child results. The same formula is used at every
// level of the model: bins in a coverpoint or cross, items in a covergroup,
// instances of a type, types in a scope or in a context.
type accumulator struct {
	sum     float64
	weights float64
}

func (a *accumulator) add(result float64, weight uint) {
	a.sum += result * float64(weight)
	a.weights += float64(weight)
}

// result returns the weighted average of the accumulated results, or 100 if
// that average reaches goal. empty is returned when no child carries any
// weight.
func (a *accumulator) result(goal uint, empty float64) float64 {
	if a.weights == 0 {
		return empty
	}
	r := a.sum / a.weights
	if r >= float64(goal) {
		return 100
	}
	return r
}

// fallback is the coverage of an item without children: a zero weight item
// counts as covered.
func fallback(weight uint) float64 {
	if weight == 0 {
		return 100
	}
	return 0
}

// ratio computes the coverage of covered bins out of total.
func ratio(covered, total int, goal, weight uint) float64 {
	a := accumulator{sum: 100 * float64(covered), weights: float64(total)}
	return a.result(goal, fallback(weight))
}

// coverageVisitor computes coverage bottom-up. After visiting a node, result
// holds its coverage. covered and total accumulate bin counts over all the
// coverpoints and crosses visited.
type coverageVisitor struct {
	hits    uint64
	result  float64
	covered int
	total   int
}

func (c *coverageVisitor) VisitBin(n BinNode) {
	c.hits = n.HitCount()
}

func (c *coverageVisitor) VisitCoverpoint(n CoverpointNode) {
	opt := n.Option()
	var covered, total int
	for _, b := range n.Bins() {
		if b.Kind() != Regular {
			continue
		}
		b.Accept(c)
		total++
		if c.hits >= opt.AtLeast {
			covered++
		}
	}
	c.covered += covered
	c.total += total
	c.result = ratio(covered, total, opt.Goal, opt.Weight)
}

func (c *coverageVisitor) VisitCross(n CrossNode) {
	opt := n.Option()
	var covered int
	for _, b := range n.Bins() {
		if b.Hits >= opt.AtLeast {
			covered++
		}
	}
	total := n.Size()
	c.covered += covered
	c.total += total
	c.result = ratio(covered, total, opt.Goal, opt.Weight)
}

func (c *coverageVisitor) VisitCovergroup(n CovergroupNode) {
	if !n.Enabled() {
		c.result = 100
		return
	}
	var a accumulator
	for _, it := range n.Items() {
		it.Accept(c)
		a.add(c.result, it.Weight())
	}
	opt := n.Option()
	c.result = a.result(opt.Goal, fallback(opt.Weight))
}

func (c *coverageVisitor) VisitScope(n ScopeNode) {
	c.result = c.types(n.Types())
}

// typeGroup computes the coverage of a covergroup type over its enabled
// instances.
func (c *coverageVisitor) typeGroup(tg TypeGroup) float64 {
	var a accumulator
	for _, g := range tg.Instances {
		if !g.Enabled() {
			continue
		}
		g.Accept(c)
		a.add(c.result, g.Option().Weight)
	}
	return a.result(tg.Option.Goal, fallback(tg.Option.Weight))
}

// A Node is a scope, covergroup, coverpoint or cross passed to a Visitor.
//
type Node interface {
	Accept(Visitor)
}

// NodeCoverage returns the coverage of n along with the number of covered
// bins and the total number of bins below n.
//
func NodeCoverage(n Node) (pct float64, covered, total int) {
	var c coverageVisitor
	n.Accept(&c)
	return c.result, c.covered, c.total
}

// TypeGroupCoverage returns the coverage of the enabled instances in tg,
// along with covered and total bin counts.
//
func TypeGroupCoverage(tg TypeGroup) (pct float64, covered, total int) {
	var c coverageVisitor
	pct = c.typeGroup(tg)
	return pct, c.covered, c.total
}

func (c *coverageVisitor) types(tgs []TypeGroup) float64 {
	var a accumulator
	for _, tg := range tgs {
		a.add(c.typeGroup(tg), tg.Option.Weight)
	}
	return a.result(100, 100)
}
