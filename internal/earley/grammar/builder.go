package grammar

import "github.com/dekarrin/earley/internal/earley/lexer"

// Builder assembles a Grammar from Go data: declare symbols, declare rules
// over them, then Build. No grammar source text is parsed; that stays a
// caller concern, same as lexer.Builder builds a DFA from transition
// fragments rather than from a regex.
type Builder struct {
	g        *Grammar
	ruleRHS  map[SymIdx][][]SymIdx // retained only to compute nullability before Build
	ruleFlag map[SymIdx][]Flags
}

// NewBuilder starts a Builder whose symbol 0 is always NullSym.
func NewBuilder(lexSpec *lexer.Spec) *Builder {
	b := &Builder{
		g: &Grammar{
			symbols: []Symbol{{Idx: NullSym, Name: "<null>"}},
			lexSpec: lexSpec,
		},
		ruleRHS:  map[SymIdx][][]SymIdx{},
		ruleFlag: map[SymIdx][]Flags{},
	}
	return b
}

func (b *Builder) addSymbol(sym Symbol) SymIdx {
	sym.Idx = SymIdx(len(b.g.symbols))
	b.g.symbols = append(b.g.symbols, sym)
	return sym.Idx
}

// Nonterminal declares a fresh nonterminal symbol with the given name and
// properties; rules are attached to it afterward with AddRule.
func (b *Builder) Nonterminal(name string, props Props) SymIdx {
	return b.addSymbol(Symbol{Name: name, IsTerminal: false, Props: props})
}

// Terminal declares a fresh terminal symbol bound to a lexeme.
func (b *Builder) Terminal(name string, lexemeIdx lexer.LexemeIdx, props Props) SymIdx {
	idx := lexemeIdx
	return b.addSymbol(Symbol{Name: name, IsTerminal: true, Lexeme: &idx, Props: props})
}

// GenGrammarSymbol declares a symbol whose production is resolved by a
// nested grammar spliced in via scan_gen_grammar.
func (b *Builder) GenGrammarSymbol(name string, ref GenGrammarRef, props Props) SymIdx {
	return b.addSymbol(Symbol{Name: name, IsTerminal: false, GenGrammar: &ref, Props: props})
}

// SetStart marks sym as the grammar's start symbol.
func (b *Builder) SetStart(sym SymIdx) {
	b.g.start = sym
}

// AddRule declares one production lhs -> rhs (rhs may be empty, for an
// epsilon rule) with the given per-rule flags.
func (b *Builder) AddRule(lhs SymIdx, rhs []SymIdx, flags Flags) {
	b.ruleRHS[lhs] = append(b.ruleRHS[lhs], rhs)
	b.ruleFlag[lhs] = append(b.ruleFlag[lhs], flags)
}

// Build finalizes the grammar: flattens every declared rule into the dotted
// position table, computes nullability to a fixpoint (the same
// iterative-growth technique the teacher's automaton package uses for
// epsilon closures), and links each symbol to its RuleIdx list.
func (b *Builder) Build() *Grammar {
	g := b.g

	// Flatten: one dottedPos per (rule, position-in-rule), plus a closing
	// position with afterDot == NullSym.
	for lhs, rules := range b.ruleRHS {
		flagsForLHS := b.ruleFlag[lhs]
		for ri, rhs := range rules {
			first := RuleIdx(len(g.positions))
			flags := flagsForLHS[ri]
			for _, sym := range rhs {
				g.positions = append(g.positions, dottedPos{lhs: lhs, afterDot: sym, flags: flags})
			}
			g.positions = append(g.positions, dottedPos{lhs: lhs, afterDot: NullSym, flags: flags})
			g.symbols[lhs].Rules = append(g.symbols[lhs].Rules, first)
		}
	}

	computeNullable(g, b.ruleRHS)

	return g
}

func computeNullable(g *Grammar, ruleRHS map[SymIdx][][]SymIdx) {
	changed := true
	for changed {
		changed = false
		for lhs, rules := range ruleRHS {
			if g.symbols[lhs].IsNullable {
				continue
			}
		ruleLoop:
			for _, rhs := range rules {
				for _, sym := range rhs {
					if sym == NullSym {
						continue
					}
					if g.symbols[sym].IsTerminal || !g.symbols[sym].IsNullable {
						continue ruleLoop
					}
				}
				g.symbols[lhs].IsNullable = true
				changed = true
				break
			}
		}
	}
}
