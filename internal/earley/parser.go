package earley

import (
	"fmt"

	"github.com/dekarrin/earley/internal/earley/grammar"
	"github.com/dekarrin/earley/internal/earley/lexer"
	"github.com/dekarrin/earley/internal/earleyerr"
	"github.com/dekarrin/earley/internal/util"
)

// Recognizer is the narrow surface the token trie walker (internal/earley/
// tokens) drives. It never sees Parser's internals, only this interface.
type Recognizer interface {
	TryPushByte(b byte) bool
	PopBytes(n int)
	TrieStarted()
	TrieFinished()
	Collapse()
}

// Trie is what the core needs from a token trie walker to compute a bias
// mask: something that can walk token prefixes against a Recognizer and
// report how large a token-set bitmap it needs.
type Trie interface {
	AddBias(r Recognizer, set *util.Bitset, start []byte)
	VocabSize() int
	EOSTokenID() int
}

// Token is one model token's raw bytes.
type Token []byte

// Parser is the Earley recognizer: grammar, scratch arena, committed rows,
// per-row metadata, the lexer execution stack, captures, running
// statistics, and construction options. It is single-threaded and
// non-reentrant, same as the original source: no operation suspends, and
// nothing here is safe to share across goroutines without an external lock.
type Parser struct {
	grammar *grammar.Grammar
	lexer   lexer.Lexer
	opts    Options

	scratch  *Scratch
	rows     []Row
	rowInfos []RowInfo

	lexerStack []LexerState

	// frameCounts records, per TryPushByte call, how many lexerStack frames
	// it pushed, so PopBytes(n) can undo exactly n byte-feeds rather than n
	// raw frames.
	frameCounts []int

	// specStack holds one snapshot per nested TrieStarted/TrieFinished
	// region.
	specStack []specSnapshot

	captures []Capture

	definitive bool

	stats Stats

	modelVariablesSeen map[grammar.ModelVariable]bool
	modelVariables     []grammar.ModelVariable

	bytes []byte

	// tokenIdx is the index (within the current ApplyTokens call) of the
	// token presently being fed; -1 outside of ApplyTokens, where the
	// token-index window tracked by RowInfo has no meaning.
	tokenIdx int

	lastCollapse int

	pendingGenGrammar *grammar.SymIdx

	traceListeners []func(string)
}

// New constructs a Parser over an immutable grammar and lexer. Row 0 is
// seeded from the start symbol's productions; SKIP is excluded from row 0's
// allowed lexemes per the invariant that whitespace may not open a parse.
func New(g *grammar.Grammar, lx lexer.Lexer, opts Options) (*Parser, error) {
	if g == nil {
		return nil, earleyerr.Construction(nil, "grammar must not be nil")
	}
	if lx == nil {
		return nil, earleyerr.Construction(nil, "lexer must not be nil")
	}

	p := &Parser{
		grammar:            g,
		lexer:              lx,
		opts:               opts,
		scratch:            newScratch(),
		definitive:         true,
		modelVariablesSeen: make(map[grammar.ModelVariable]bool),
		lastCollapse:       -1,
		tokenIdx:           -1,
	}

	rowStart := p.scratch.startRow()
	for _, rule := range g.RulesOf(g.Start()) {
		p.scratch.push(rowStart, NewItem(rule, 0), true, noProps())
	}
	ok, err := p.pushRow(rowStart, 0, lexer.Bogus())
	if err != nil {
		return nil, earleyerr.Construction(err, "failed to seed start row")
	}
	if !ok {
		return nil, earleyerr.Construction(nil, "grammar's start symbol has no productions")
	}

	// Row 0 must never admit SKIP; the caller decides whether leading
	// whitespace is legal by choosing a grammar that allows it explicitly.
	p.rows[0].AllowedLexemes.Clear(int(lexer.SkipLexeme))

	startState := p.lexer.StartState(p.rows[0].AllowedLexemes, nil)
	p.lexerStack = []LexerState{{RowIdx: 0, LexerState: startState}}

	return p, nil
}

func (p *Parser) trace(format string, args ...interface{}) {
	if len(p.traceListeners) == 0 {
		return
	}
	msg := fmt.Sprintf(format, args...)
	for _, l := range p.traceListeners {
		l(msg)
	}
}

// RegisterTraceListener adds a callback invoked with a formatted message at
// every significant core transition (row push, scan, speculation
// enter/exit). Mirrors lrParser.RegisterTraceListener in the teacher's
// parser package.
func (p *Parser) RegisterTraceListener(f func(string)) {
	p.traceListeners = append(p.traceListeners, f)
}

// NumRows returns the number of rows reachable from the top of the lexer
// stack (lexer_stack.last().row_idx + 1), which is also len(p.rows) while
// definitive.
func (p *Parser) NumRows() int {
	return int(p.topFrame().RowIdx) + 1
}

func (p *Parser) topFrame() LexerState {
	return p.lexerStack[len(p.lexerStack)-1]
}

// GetBytes returns every visible byte consumed so far, in order.
func (p *Parser) GetBytes() []byte {
	out := make([]byte, len(p.bytes))
	copy(out, p.bytes)
	return out
}

// Captures returns the accumulated (name, bytes) capture list. The caller
// owns draining it; the parser never clears it itself.
func (p *Parser) Captures() []Capture {
	return p.captures
}

// ModelVariables returns every ModelVariable scanned so far, in first-seen
// order (an explicit Open Question in the original source, resolved here
// by preserving insertion order via modelVariablesSeen).
func (p *Parser) ModelVariables() []grammar.ModelVariable {
	out := make([]grammar.ModelVariable, len(p.modelVariables))
	copy(out, p.modelVariables)
	return out
}

// Stats returns the running counters.
func (p *Parser) Stats() Stats {
	return p.stats
}

// Temperature returns the temperature declared on the start symbol, the
// simplest reasonable reading of "the grammar's sampling temperature" for a
// single-grammar parser instance.
func (p *Parser) Temperature() float32 {
	return p.grammar.SymData(p.grammar.Start()).Props.Temperature
}

// CanAdvance reports whether the current row has any items at all (an
// empty row can never have been produced by a successful push_row, so this
// is really asking "has the parser been driven into dead state").
func (p *Parser) CanAdvance() bool {
	return p.currentRow().Len() > 0
}

func (p *Parser) currentRow() Row {
	return p.rows[p.topFrame().RowIdx]
}

// HiddenStart returns the earliest hidden_start recorded among the current
// row's items, or -1 if none carry one. Vestigial debugging aid, per the
// original design notes; lookahead correctness never depends on it.
func (p *Parser) HiddenStart() int {
	row := p.currentRow()
	best := noHiddenStart
	for i := row.FirstItem; i < row.LastItem; i++ {
		props := p.scratch.propsOf(i)
		if props.HiddenStart == noHiddenStart {
			continue
		}
		if best == noHiddenStart || props.HiddenStart < best {
			best = props.HiddenStart
		}
	}
	return best
}
