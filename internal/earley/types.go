// Package earley implements an incremental Earley recognizer driven one
// byte at a time by a DFA-based lexer, for constraining token-by-token
// generation to a context-free grammar. It holds the recognizer core only:
// grammar compilation, lexer compilation, the token trie walker, and
// serialization all live outside this package (internal/earley/grammar,
// internal/earley/lexer, internal/earley/tokens) and are consulted through
// narrow interfaces.
package earley

import (
	"github.com/dekarrin/earley/internal/earley/grammar"
	"github.com/dekarrin/earley/internal/earley/lexer"
	"github.com/dekarrin/earley/internal/util"
)

// Item is a packed Earley item: a rule position (low 32 bits) plus the
// origin row index (high 32 bits). Advancing the dot is Item+1 because the
// grammar's flattened rule table guarantees the next dotted position for
// the same rule is always the next RuleIdx.
type Item uint64

// NewItem builds an item at the start of rule, with the given origin row.
func NewItem(rule grammar.RuleIdx, origin uint32) Item {
	return Item(uint64(origin)<<32 | uint64(rule))
}

// Rule returns the item's rule position.
func (it Item) Rule() grammar.RuleIdx {
	return grammar.RuleIdx(uint32(it))
}

// Start returns the item's origin row.
func (it Item) Start() uint32 {
	return uint32(it >> 32)
}

// Advance returns the item with its dot moved one symbol forward.
func (it Item) Advance() Item {
	return it + 1
}

// noHiddenStart is the "none" value for ItemProps.HiddenStart.
const noHiddenStart = -1

// ItemProps is the definitive-mode-only sidecar recording the byte offset
// at which an item's hidden lookahead begins, if any. It is vestigial: the
// lexer now owns lookahead enforcement, and this is kept only as a
// debugging aid (see print_row).
type ItemProps struct {
	HiddenStart int
}

func noProps() ItemProps {
	return ItemProps{HiddenStart: noHiddenStart}
}

// mergeItemProps combines the props of two occurrences of the same item,
// keeping the earliest hidden_start.
func mergeItemProps(a, b ItemProps) ItemProps {
	if a.HiddenStart == noHiddenStart {
		return b
	}
	if b.HiddenStart == noHiddenStart {
		return a
	}
	if a.HiddenStart < b.HiddenStart {
		return a
	}
	return b
}

// Row is a half-open range [FirstItem, LastItem) into the parser's item
// arena, plus the lexemes admissible immediately after it.
type Row struct {
	FirstItem      int
	LastItem       int
	AllowedLexemes *util.Bitset
}

func (r Row) Len() int {
	return r.LastItem - r.FirstItem
}

// RowInfo is definitive-only metadata attached to a committed row: which
// lexeme was scanned to produce it, its cumulative visible byte offset, the
// token-index window of tokens that touched it, and the per-lexeme token
// budgets remembered while the row was built.
type RowInfo struct {
	Lexeme        lexer.Lexeme
	StartByteIdx  int
	TokenIdxStart int
	TokenIdxStop  int
	MaxTokens     map[lexer.LexemeIdx]int
}

// LexerState is one frame of the execution stack: which row is current,
// the DFA state after consuming the last byte, and that byte itself (nil
// when the frame was synthesized by a restart or end-of-input).
type LexerState struct {
	RowIdx     uint32
	LexerState lexer.StateID
	Byte       *byte
}

// Capture is one (name, bytes) pair appended in declaration order;
// duplicates are retained.
type Capture struct {
	Name  string
	Bytes []byte
}

// Stats mirrors the original source's ParserStats: running counters a
// caller can diff across calls to understand how much work a parse step
// did.
type Stats struct {
	Rows           int
	DefinitiveBytes int
	LexerOps       int
	AllItems       int
	HiddenBytes    int
}

// Delta returns the element-wise difference s - prev.
func (s Stats) Delta(prev Stats) Stats {
	return Stats{
		Rows:            s.Rows - prev.Rows,
		DefinitiveBytes: s.DefinitiveBytes - prev.DefinitiveBytes,
		LexerOps:        s.LexerOps - prev.LexerOps,
		AllItems:        s.AllItems - prev.AllItems,
		HiddenBytes:     s.HiddenBytes - prev.HiddenBytes,
	}
}

// Options configures a Parser at construction time.
type Options struct {
	// MaxRow is the hard cap on items in a single row (MAX_ROW in the
	// original source). Zero selects the default of 100.
	MaxRow int
}

const defaultMaxRow = 100

func (o Options) maxRow() int {
	if o.MaxRow <= 0 {
		return defaultMaxRow
	}
	return o.MaxRow
}
