// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwcov

// A Visitor walks the coverage model. Each node's Accept method calls the
// matching Visit method; visitors recurse into children by calling Accept on
// them.
//
// Nodes are read-only views valid until the owning context is closed.
//
type Visitor interface {
	VisitScope(ScopeNode)
	VisitCovergroup(CovergroupNode)
	VisitCoverpoint(CoverpointNode)
	VisitCross(CrossNode)
	VisitBin(BinNode)
}

// Source identifies a declaration point. File is an index into the context's
// source file table (see Context.SourceFiles).
//
type Source struct {
	File int
	Line int
}

// SourceFile is an entry of the source file table.
//
type SourceFile struct {
	ID   int
	Name string
}

// ScopeNode is the visitor view of a scope instance.
//
type ScopeNode interface {
	Name() string
	// Scope type name. Child scope types are prefixed with their parent type:
	// "top::child".
	TypeName() string
	InstanceID() uint
	ParentID() (uint, bool)
	Source() Source
	// Covergroup instances of this scope grouped by type, in order of first
	// registration.
	Types() []TypeGroup
	Scopes() []ScopeNode
	Accept(Visitor)
}

// A TypeGroup is the set of instances of one covergroup type.
//
type TypeGroup struct {
	Name      string
	ScopeType string
	Option    TypeOption
	Instances []CovergroupNode
}

// CovergroupNode is the visitor view of a covergroup instance.
//
type CovergroupNode interface {
	Name() string
	TypeName() string
	ScopeTypeName() string
	Option() CovergroupOption
	TypeOption() TypeOption
	Enabled() bool
	Source() (inst, typ Source)
	// Coverpoints and crosses in declaration order.
	Items() []ItemNode
	Accept(Visitor)
}

// ItemNode is either a CoverpointNode or a CrossNode.
//
type ItemNode interface {
	Name() string
	Weight() uint
	Accept(Visitor)
}

// CoverpointNode is the visitor view of a coverpoint.
//
type CoverpointNode interface {
	ItemNode
	Option() CoverpointOption
	SampleExpr() string
	Misses() uint64
	// Regular bins in declaration order, followed by illegal then ignore bins.
	Bins() []BinNode
}

// CrossNode is the visitor view of a cross.
//
type CrossNode interface {
	ItemNode
	Option() CrossOption
	// Names of the crossed coverpoints.
	Coverpoints() []string
	// Product of the crossed coverpoints sizes.
	Size() int
	Misses() uint64
	// Hit tuples, sorted by index.
	Bins() []CrossBin
}

// BinNode is the visitor view of a bin.
//
type BinNode interface {
	Name() string
	Kind() BinKind
	// Number of intervals.
	Len() int
	// Bounds of interval i, formatted in base 10.
	Bounds(i int) (lo, hi string)
	// Hit counts, one per interval.
	Hits() []uint64
	HitCount() uint64
	Accept(Visitor)
}
