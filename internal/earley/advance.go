package earley

import "github.com/dekarrin/earley/internal/earley/lexer"

// pushFrame appends a lexer-stack frame, keeping p.bytes (the flat visible
// byte trace used by GetBytes and replay comparisons) in lockstep.
func (p *Parser) pushFrame(f LexerState) {
	p.lexerStack = append(p.lexerStack, f)
	if f.Byte != nil {
		p.bytes = append(p.bytes, *f.Byte)
	}
}

// popFrame removes the top lexer-stack frame, the inverse of pushFrame.
func (p *Parser) popFrame() LexerState {
	f := p.lexerStack[len(p.lexerStack)-1]
	p.lexerStack = p.lexerStack[:len(p.lexerStack)-1]
	if f.Byte != nil {
		p.bytes = p.bytes[:len(p.bytes)-1]
	}
	return f
}

// bytesSinceRowStart collects the bytes of every frame pushed since the
// current row began, in order. Combined with a lexeme's own final byte (if
// any), this reconstructs the full byte sequence of a just-completed
// lexeme, since the lexer itself never hands back the bytes it matched.
func (p *Parser) bytesSinceRowStart() []byte {
	row := p.topFrame().RowIdx
	start := len(p.lexerStack)
	for start > 0 && p.lexerStack[start-1].RowIdx == row {
		start--
	}
	var out []byte
	for _, f := range p.lexerStack[start:] {
		if f.Byte != nil {
			out = append(out, *f.Byte)
		}
	}
	return out
}

// tryPushByte feeds one byte to the lexer at the top of the stack. If the
// byte completes a lexeme, advanceParser runs the full scan/push_row cycle;
// otherwise a plain "still scanning" frame is pushed. Returns false (not an
// error) if the lexer rejects the byte outright.
func (p *Parser) tryPushByte(b byte) (bool, error) {
	frame := p.topFrame()
	res := p.lexer.Advance(frame.LexerState, b, false)
	p.stats.LexerOps++

	switch res.Kind {
	case lexer.ResultError:
		return false, nil
	case lexer.ResultState:
		p.pushFrame(LexerState{RowIdx: frame.RowIdx, LexerState: res.NextState, Byte: &b})
		return true, nil
	case lexer.ResultLexeme:
		return p.advanceParser(res.Pre, 0)
	default:
		return false, nil
	}
}

// maxAdvanceDepth caps the recursive single-byte-lexeme chaining described
// in spec 4.3 step 5: a transition byte that itself completes a fresh
// lexeme triggers one more advance, never two.
const maxAdvanceDepth = 2

// advanceParser runs the full lexeme-boundary transition: scan the
// completed lexeme into a new row, compute the post-scan lexer state, hand
// off to handleHiddenBytes if the lexeme carries lookahead, and otherwise
// push the resulting frame (possibly after one more recursive advance if
// the transition byte alone completes another lexeme).
func (p *Parser) advanceParser(pre lexer.PreLexeme, depth int) (bool, error) {
	if depth >= maxAdvanceDepth {
		panic("earley: advanceParser recursion exceeded maxAdvanceDepth")
	}

	var transitionByte, lexemeByte *byte
	if pre.ByteNextRow {
		transitionByte = pre.Byte
	} else {
		lexemeByte = pre.Byte
	}

	lexBytes := p.bytesSinceRowStart()
	if lexemeByte != nil {
		lexBytes = append(lexBytes, *lexemeByte)
	}
	lx := lexer.Lexeme{Idx: pre.Idx, Bytes: lexBytes, HiddenLen: pre.HiddenLen}

	oldRowIdx := p.topFrame().RowIdx
	if lexemeByte != nil {
		// The completing byte belongs to the row it completed from, not to
		// whatever row comes next: attribute it there before scan moves the
		// frontier forward, so the new row starts with nothing pending.
		p.pushFrame(LexerState{RowIdx: oldRowIdx, LexerState: p.topFrame().LexerState, Byte: lexemeByte})
	}

	ok, err := p.scan(lx)
	if err != nil || !ok {
		return false, err
	}
	p.stats.HiddenBytes += pre.HiddenLen

	newRowIdx := oldRowIdx + 1
	newRow := p.rows[newRowIdx]

	if pre.HiddenLen > 0 {
		return p.handleHiddenBytes(newRowIdx, newRow, lx, depth)
	}

	baseState := p.lexer.StartState(newRow.AllowedLexemes, nil)

	if transitionByte != nil {
		res := p.lexer.Advance(baseState, *transitionByte, false)
		p.stats.LexerOps++
		switch res.Kind {
		case lexer.ResultError:
			return false, nil
		case lexer.ResultLexeme:
			p.pushFrame(LexerState{RowIdx: newRowIdx, LexerState: baseState})
			return p.advanceParser(res.Pre, depth+1)
		case lexer.ResultState:
			p.pushFrame(LexerState{RowIdx: newRowIdx, LexerState: res.NextState, Byte: transitionByte})
			return true, nil
		}
	}

	p.pushFrame(LexerState{RowIdx: newRowIdx, LexerState: baseState})
	return true, nil
}
