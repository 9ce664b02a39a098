package grammars

import (
	"fmt"

	"github.com/dekarrin/earley/internal/earley/grammar"
	"github.com/dekarrin/earley/internal/earley/lexer"
)

// LexemeKind classifies how a LexemeDescriptor matches bytes.
type LexemeKind int

const (
	LexemeLiteral LexemeKind = iota
	LexemeByteClass
	LexemeStopSequence
)

func (k LexemeKind) String() string {
	switch k {
	case LexemeLiteral:
		return "literal"
	case LexemeByteClass:
		return "byte-class"
	case LexemeStopSequence:
		return "stop-sequence"
	default:
		return fmt.Sprintf("LexemeKind(%d)", int(k))
	}
}

// LexemeDescriptor is the REZI-encodable equivalent of one fragment handed
// to lexer.Builder. ByteMask replaces the predicate closure ByteClass takes:
// a closure can't survive a round trip through storage, so the mask is
// evaluated byte-by-byte instead at Build time.
type LexemeDescriptor struct {
	Name         string
	Kind         LexemeKind
	Literal      []byte
	ByteMask     [256]bool
	ByteMaskMin  int
	StopSequence []byte
}

// SymbolDescriptor is the REZI-encodable equivalent of one grammar.Builder
// Nonterminal/Terminal declaration. LexemeIdx is only meaningful when
// IsTerminal is true, and indexes Lexemes (not the built lexer.Spec, which
// also carries the builtin SKIP lexeme at index 0).
type SymbolDescriptor struct {
	Name            string
	IsTerminal      bool
	LexemeIdx       int
	Temperature     float32
	MaxTokens       int
	CaptureName     string
	StopCaptureName string
	Hidden          bool
	ModelVariable   string // empty means "no model variable"
}

// RuleDescriptor is one production LHS -> RHS, LHS and RHS indexing Symbols.
type RuleDescriptor struct {
	LHS         int
	RHS         []int
	Capture     bool
	StopCapture bool
	Hidden      bool
	CommitPoint bool
}

// GrammarDescriptor is the plain-data form of a compiled grammar+lexer pair
// that can be REZI-encoded into a dao.GrammarCache.Blob. It carries exactly
// the data grammar.Builder and lexer.Builder need to reconstruct the pair;
// building one out of a textual grammar source is a caller concern, just as
// it is for the Builders themselves.
type GrammarDescriptor struct {
	Name    string
	Version string

	StartSymbol int

	Lexemes []LexemeDescriptor
	Symbols []SymbolDescriptor
	Rules   []RuleDescriptor
}

// Build reconstructs the grammar.Grammar and lexer.Lexer pair the
// descriptor was made from. The returned Lexer is immutable and may be
// shared across every Parser opened against this GrammarDescriptor.
func (d GrammarDescriptor) Build() (*grammar.Grammar, lexer.Lexer, error) {
	lb := lexer.NewBuilder()
	for i, ld := range d.Lexemes {
		idx := lexer.LexemeIdx(i + 1) // 0 is the builtin SKIP lexeme
		switch ld.Kind {
		case LexemeLiteral:
			lb.Literal(idx, ld.Name, ld.Literal)
		case LexemeByteClass:
			mask := ld.ByteMask
			lb.ByteClass(idx, ld.Name, func(b byte) bool { return mask[b] }, ld.ByteMaskMin)
		case LexemeStopSequence:
			lb.StopSequence(idx, ld.Name, ld.StopSequence)
		default:
			return nil, nil, fmt.Errorf("lexeme %q: unknown kind %s", ld.Name, ld.Kind)
		}
	}
	lx := lb.Build()

	gb := grammar.NewBuilder(lx.Spec())

	symIdx := make([]grammar.SymIdx, len(d.Symbols))
	for i, sd := range d.Symbols {
		props := grammar.Props{
			Temperature:     sd.Temperature,
			MaxTokens:       sd.MaxTokens,
			CaptureName:     sd.CaptureName,
			StopCaptureName: sd.StopCaptureName,
			Hidden:          sd.Hidden,
		}
		if sd.ModelVariable != "" {
			mv := grammar.ModelVariable(sd.ModelVariable)
			props.ModelVariable = &mv
		}

		if sd.IsTerminal {
			symIdx[i] = gb.Terminal(sd.Name, lexer.LexemeIdx(sd.LexemeIdx+1), props)
		} else {
			symIdx[i] = gb.Nonterminal(sd.Name, props)
		}
	}

	if d.StartSymbol < 0 || d.StartSymbol >= len(symIdx) {
		return nil, nil, fmt.Errorf("start symbol index %d out of range for %d symbols", d.StartSymbol, len(symIdx))
	}
	gb.SetStart(symIdx[d.StartSymbol])

	for _, rd := range d.Rules {
		if rd.LHS < 0 || rd.LHS >= len(symIdx) {
			return nil, nil, fmt.Errorf("rule LHS index %d out of range for %d symbols", rd.LHS, len(symIdx))
		}
		rhs := make([]grammar.SymIdx, len(rd.RHS))
		for i, s := range rd.RHS {
			if s < 0 || s >= len(symIdx) {
				return nil, nil, fmt.Errorf("rule RHS index %d out of range for %d symbols", s, len(symIdx))
			}
			rhs[i] = symIdx[s]
		}
		flags := grammar.Flags{
			Capture:     rd.Capture,
			StopCapture: rd.StopCapture,
			Hidden:      rd.Hidden,
			CommitPoint: rd.CommitPoint,
		}
		gb.AddRule(symIdx[rd.LHS], rhs, flags)
	}

	return gb.Build(), lx, nil
}
