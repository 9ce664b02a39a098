package earley

import "github.com/dekarrin/earley/internal/earley/grammar"

// rowIsAccepting reports whether row contains a completed item for the
// grammar's start symbol whose origin is row 0: the full input span has
// been reduced to the start symbol.
func (p *Parser) rowIsAccepting(row Row) bool {
	start := p.grammar.Start()
	for i := row.FirstItem; i < row.LastItem; i++ {
		it := p.scratch.items[i]
		if it.Start() != 0 {
			continue
		}
		rule := it.Rule()
		if p.grammar.SymIdxDot(rule) != grammar.NullSym {
			continue
		}
		if p.grammar.SymIdxLHS(rule) == start {
			return true
		}
	}
	return false
}

// isAccepting flushes any bytes still pending in the lexer (a partially
// matched lexeme may still complete on EOS) and reports whether the
// resulting row accepts. The flush runs inside a speculative region so a
// caller merely probing "could I stop here" never commits the flush.
func (p *Parser) isAccepting() bool {
	accepting := false
	p.RunSpeculative(func() (bool, error) {
		ok, err := p.flushLexer()
		if err != nil || !ok {
			return false, err
		}
		accepting = p.rowIsAccepting(p.currentRow())
		return true, nil
	})
	return accepting
}

// lexerAllowsEOS reports whether there is a lexeme still being matched AND
// the lexer state at the top of the stack permits input to end there without
// completing it. With nothing pending, there is no lexeme for EOS to cut
// short, so this is false rather than vacuously true: a fresh row with
// nothing fed yet is not itself an EOS-accepting lexer state.
func (p *Parser) lexerAllowsEOS() bool {
	if len(p.bytesSinceRowStart()) == 0 {
		return false
	}
	return p.lexer.AllowsEOS(p.topFrame().LexerState)
}
