// Package lexer defines the DFA contract the earley core drives one byte at
// a time, plus a concrete byte-transition implementation assembled directly
// from literal, byte-class, and stop-sequence fragments. Compiling a DFA out
// of a regex syntax is out of scope here, same as it is out of scope for the
// core: transition tables are built programmatically by Builder, the way
// grammar.Builder assembles a CGrammar directly from rule tables.
package lexer

import "github.com/dekarrin/earley/internal/util"

// LexemeIdx identifies one lexeme kind within a LexerSpec. SkipLexeme is
// reserved for whitespace-like lexemes that never advance grammar rules.
type LexemeIdx uint32

// SkipLexeme is the distinguished index for skippable (whitespace/comment)
// lexemes.
const SkipLexeme LexemeIdx = 0

const bogusLexemeIdx = ^LexemeIdx(0)

// Lexeme is a lexically atomic byte sequence produced by the DFA. The tail
// hidden_len bytes were consumed as lookahead and must be replayed into the
// next lexeme.
type Lexeme struct {
	Idx       LexemeIdx
	Bytes     []byte
	HiddenLen int
}

// Bogus returns the distinguished lexeme carried by rows with no scanned
// lexeme (row 0, and certain synthetic rows).
func Bogus() Lexeme {
	return Lexeme{Idx: bogusLexemeIdx}
}

// JustIdx returns a lexeme with no bytes attached, used where only the index
// matters (gen-grammar splices, SKIP propagation).
func JustIdx(idx LexemeIdx) Lexeme {
	return Lexeme{Idx: idx}
}

// IsBogus reports whether lx is the sentinel produced by Bogus.
func (lx Lexeme) IsBogus() bool {
	return lx.Idx == bogusLexemeIdx
}

// VisibleBytes returns the lexeme's bytes minus its hidden tail.
func (lx Lexeme) VisibleBytes() []byte {
	if lx.HiddenLen >= len(lx.Bytes) {
		return nil
	}
	return lx.Bytes[:len(lx.Bytes)-lx.HiddenLen]
}

// HiddenBytes returns the lexeme's lookahead tail.
func (lx Lexeme) HiddenBytes() []byte {
	if lx.HiddenLen >= len(lx.Bytes) {
		return lx.Bytes
	}
	return lx.Bytes[len(lx.Bytes)-lx.HiddenLen:]
}

// StateID identifies one DFA state. Negative values other than DeadStateID
// are never produced by the concrete DFA but are valid for hand-built test
// lexers.
type StateID int32

// DeadStateID is the sentinel state from which no lexeme can ever be
// completed; pushing it onto the speculative stack blocks further
// exploration down that branch.
const DeadStateID StateID = -1

// IsDead reports whether s is the dead state.
func (s StateID) IsDead() bool {
	return s == DeadStateID
}

// PreLexeme is what the DFA reports when a lexeme completes: the lexeme
// index, an optional byte that starts the next lexeme (when the completing
// byte wasn't consumed into this lexeme), and the hidden lookahead length.
type PreLexeme struct {
	Idx         LexemeIdx
	Byte        *byte
	ByteNextRow bool
	HiddenLen   int
}

// ResultKind discriminates the three shapes a DFA advance can return.
type ResultKind int

const (
	ResultState ResultKind = iota
	ResultLexeme
	ResultError
)

// Result is the outcome of one DFA step: either "still inside a lexeme"
// (State), "a lexeme just completed" (Lexeme), or "no allowed lexeme can
// accept this byte" (Error).
type Result struct {
	Kind      ResultKind
	NextState StateID
	Byte      byte
	Pre       PreLexeme
}

// StateResult builds a "still scanning" result.
func StateResult(next StateID, b byte) Result {
	return Result{Kind: ResultState, NextState: next, Byte: b}
}

// LexemeResult builds a "lexeme completed" result.
func LexemeResult(pre PreLexeme) Result {
	return Result{Kind: ResultLexeme, Pre: pre}
}

// ErrorResult builds a "no allowed lexeme accepts this byte" result.
func ErrorResult() Result {
	return Result{Kind: ResultError}
}

// IsError reports whether r is a dead-end result.
func (r Result) IsError() bool {
	return r.Kind == ResultError
}

// LexemeSpec names and classifies one lexeme of a LexerSpec.
type LexemeSpec struct {
	Idx  LexemeIdx
	Name string
}

// Spec is the lexeme catalog a CGrammar's symbols reference by LexemeIdx.
type Spec struct {
	Lexemes []LexemeSpec
}

// NumLexemes returns the count of declared lexemes, including SKIP.
func (s *Spec) NumLexemes() int {
	return len(s.Lexemes)
}

// Lexeme returns the spec entry for idx.
func (s *Spec) Lexeme(idx LexemeIdx) LexemeSpec {
	return s.Lexemes[idx]
}

// Lexer is the DFA contract the earley core drives. Implementations are
// immutable once constructed; StateID values they hand out are stable for
// the Lexer's lifetime.
type Lexer interface {
	// StartState returns the DFA state reachable before any byte of a new
	// lexeme is consumed, restricted to allowed lexemes. If
	// transitionByte is non-nil, that byte is immediately consumed (it was
	// already known to start the next lexeme from the prior advance).
	StartState(allowed *util.Bitset, transitionByte *byte) StateID

	// Advance steps the DFA by one byte.
	Advance(state StateID, b byte, logging bool) Result

	// TryLexemeEnd asks whether state may end a lexeme right now, with no
	// further byte consumed.
	TryLexemeEnd(state StateID) Result

	// ForceLexemeEnd is TryLexemeEnd with the expectation (enforced by the
	// caller, not this method) that it will not fail.
	ForceLexemeEnd(state StateID) Result

	// AllowsEOS reports whether state is a legal place to stop the input.
	AllowsEOS(state StateID) bool

	// PossibleLexemes returns the lexemes state could still complete.
	PossibleLexemes(state StateID) *util.Bitset

	// PossibleHiddenLen returns the hidden length that would be reported
	// if the lexeme were ended right now.
	PossibleHiddenLen(state StateID) int

	// LimitStateTo restricts state to lexemes in allowed, returning
	// ADeadState() if nothing survives.
	LimitStateTo(state StateID, allowed *util.Bitset) StateID

	// CheckForSingleByteLexeme reports whether consuming b alone from
	// state completes a lexeme.
	CheckForSingleByteLexeme(state StateID, b byte) (PreLexeme, bool)

	// ADeadState returns the sentinel dead state.
	ADeadState() StateID

	// Spec returns the lexeme catalog.
	Spec() *Spec
}
