package earley

import "github.com/dekarrin/earley/internal/earley/lexer"

// flushLexer completes whatever lexeme is partially matched at the top of
// the lexer stack, as if input ended right now. With nothing pending there
// is nothing to flush. With bytes pending, TryLexemeEnd decides whether
// stopping here is a valid lexeme boundary; if so advanceParser runs the
// usual scan/push_row cycle, otherwise the flush fails.
func (p *Parser) flushLexer() (bool, error) {
	if len(p.bytesSinceRowStart()) == 0 {
		return true, nil
	}
	res := p.lexer.TryLexemeEnd(p.topFrame().LexerState)
	if res.Kind != lexer.ResultLexeme {
		return false, nil
	}
	return p.advanceParser(res.Pre, 0)
}
