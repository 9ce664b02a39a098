package earley

import (
	"github.com/dekarrin/earley/internal/earley/lexer"
	"github.com/dekarrin/earley/internal/util"
)

// hasForcedBytes reports whether every lexeme still reachable from allowed
// is guaranteed to accept exactly these bytes next: simulate a fresh start
// state restricted to allowed and walk it byte by byte, succeeding only if
// every step stays inside a lexeme (never completes early, never errors).
func (p *Parser) hasForcedBytes(allowed *util.Bitset, bytes []byte) bool {
	state := p.lexer.StartState(allowed, nil)
	for _, b := range bytes {
		res := p.lexer.Advance(state, b, false)
		if res.Kind != lexer.ResultState {
			return false
		}
		state = res.NextState
	}
	return true
}

// handleHiddenBytes replays a completed lexeme's hidden lookahead tail so
// the next lexeme can re-match it. If every allowed lexeme would
// deterministically accept those bytes, the replay commits: the N frames
// already on the stack for them (including the lexeme's own final byte,
// attributed to the row it completed from) are popped, and all N bytes are
// re-fed from the new row's start state. Otherwise the ambiguity is
// resolved by restarting (definitive mode) or blocking the branch outright
// (speculative mode, via the dead state).
func (p *Parser) handleHiddenBytes(newRowIdx uint32, newRow Row, lx lexer.Lexeme, depth int) (bool, error) {
	hidden := lx.HiddenBytes()
	n := len(hidden)

	if p.hasForcedBytes(newRow.AllowedLexemes, hidden) {
		for i := 0; i < n; i++ {
			p.popFrame()
		}
		state := p.lexer.StartState(newRow.AllowedLexemes, nil)
		for _, b := range hidden {
			res := p.lexer.Advance(state, b, false)
			p.stats.LexerOps++
			if res.Kind != lexer.ResultState {
				panic("earley: hidden byte replay failed to re-match its own bytes")
			}
			bCopy := b
			p.pushFrame(LexerState{RowIdx: newRowIdx, LexerState: res.NextState, Byte: &bCopy})
			state = res.NextState
		}
		return true, nil
	}

	if p.definitive {
		p.pushFrame(LexerState{RowIdx: newRowIdx, LexerState: p.lexer.StartState(newRow.AllowedLexemes, nil)})
	} else {
		p.pushFrame(LexerState{RowIdx: newRowIdx, LexerState: p.lexer.ADeadState()})
	}
	return true, nil
}
