// Package grammar defines the CGrammar contract the earley core consults
// for rule/symbol metadata, plus a programmatic Builder that assembles a
// CGrammar directly from Go data. Parsing a grammar out of a textual
// grammar source is out of scope, exactly as spec.md describes: the
// Builder here plays the same role that a parser-generator's fixture
// grammars play in the teacher's own tests
// (internal/ictiobus/parse/*_test.go build grammar.Grammar values by hand
// rather than parsing text for most cases).
package grammar

import "github.com/dekarrin/earley/internal/earley/lexer"

// SymIdx identifies a grammar symbol (terminal or nonterminal). The zero
// value, NullSym, is the sentinel meaning "no symbol" (a rule position past
// its last symbol, or an absent LHS).
type SymIdx uint32

// NullSym is the sentinel symbol index.
const NullSym SymIdx = 0

// RuleIdx indexes one dotted position within the grammar's flattened rule
// table. A rule of length n occupies n+1 consecutive RuleIdx values: one
// per dot position before each symbol, plus one at the end. Advancing the
// dot is always RuleIdx+1, which is what lets the earley core treat dot
// advance as an O(1) integer increment instead of a rule+offset pair.
type RuleIdx uint32

// ModelVariable names a runtime value a grammar can reference (e.g. to gate
// a production on something outside the grammar itself, such as remaining
// token budget). The original Rust source calls this a "ModelVariable";
// the set of legal names is owned by the caller, not by this package.
type ModelVariable string

// Flags carries the LHS-level annotations the core consults when a rule
// completes.
type Flags struct {
	Capture     bool
	StopCapture bool
	Hidden      bool
	CommitPoint bool
}

// GenGrammarRef marks a symbol whose production is a nested grammar
// resolved outside the core (scan_gen_grammar splices its output back in).
type GenGrammarRef struct {
	Name string
}

// Props carries the per-symbol metadata the core needs when predicting or
// completing a symbol.
type Props struct {
	Temperature      float32
	MaxTokens        int // 0 means unlimited
	CaptureName      string
	StopCaptureName  string
	Hidden           bool
	ModelVariable    *ModelVariable
}

// Unlimited is the MaxTokens value meaning "no budget enforced".
const Unlimited = 0

// Symbol is the grammar data the core reads via sym_data/sym_data_dot.
type Symbol struct {
	Idx        SymIdx
	Name       string
	IsNullable bool
	IsTerminal bool
	Rules      []RuleIdx
	Lexeme     *lexer.LexemeIdx
	GenGrammar *GenGrammarRef
	Props      Props
}

// dottedPos is one entry of the flattened rule table: the LHS of the rule
// this position belongs to, and the symbol immediately after the dot
// (NullSym if the position is at the rule's end).
type dottedPos struct {
	lhs      SymIdx
	afterDot SymIdx
	flags    Flags
}

// Grammar is the CGrammar contract's concrete, immutable implementation.
// It is built once via Builder and never mutated afterward, matching
// spec.md's "the grammar is immutable across the parser's lifetime".
type Grammar struct {
	symbols   []Symbol
	positions []dottedPos
	start     SymIdx
	lexSpec   *lexer.Spec
}

// Start returns the grammar's start symbol.
func (g *Grammar) Start() SymIdx {
	return g.start
}

// RulesOf returns the RuleIdx of the first (dot-at-start) position of every
// production whose LHS is sym.
func (g *Grammar) RulesOf(sym SymIdx) []RuleIdx {
	return g.symbols[sym].Rules
}

// SymIdxDot returns the symbol immediately after the dot at rule position
// idx, or NullSym if the rule is complete there.
func (g *Grammar) SymIdxDot(idx RuleIdx) SymIdx {
	return g.positions[idx].afterDot
}

// SymIdxLHS returns the LHS of the rule that position idx belongs to.
func (g *Grammar) SymIdxLHS(idx RuleIdx) SymIdx {
	return g.positions[idx].lhs
}

// SymFlagsLHS returns the capture/stop_capture/hidden/commit_point flags
// declared for the rule idx belongs to.
func (g *Grammar) SymFlagsLHS(idx RuleIdx) Flags {
	return g.positions[idx].flags
}

// SymData returns the symbol metadata for sym.
func (g *Grammar) SymData(sym SymIdx) *Symbol {
	return &g.symbols[sym]
}

// SymDataDot is a convenience wrapper for SymData(SymIdxDot(idx)); it
// panics if idx is a rule-end position (no symbol to look up).
func (g *Grammar) SymDataDot(idx RuleIdx) *Symbol {
	return g.SymData(g.SymIdxDot(idx))
}

// SymName returns sym's declared name, for diagnostics.
func (g *Grammar) SymName(sym SymIdx) string {
	return g.symbols[sym].Name
}

// LexerSpec returns the lexeme catalog this grammar's terminals reference.
func (g *Grammar) LexerSpec() *lexer.Spec {
	return g.lexSpec
}

// RuleToString renders position idx for diagnostics (print_row-equivalent
// dumps in cmd/earleyctl).
func (g *Grammar) RuleToString(idx RuleIdx) string {
	lhs := g.SymName(g.SymIdxLHS(idx))
	after := g.SymIdxDot(idx)
	if after == NullSym {
		return lhs + " -> (dot at end)"
	}
	return lhs + " -> ... . " + g.SymName(after) + " ..."
}
