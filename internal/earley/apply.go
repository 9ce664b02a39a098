package earley

import "github.com/dekarrin/earley/internal/earleyerr"

// ApplyTokens commits a batch of tokens to the parser. The first numSkip
// tokens are a replay: their bytes are expected to already be reflected in
// the parser's committed state (e.g. after resuming from serialized state),
// so they are checked byte-for-byte against GetBytes rather than re-fed to
// the lexer, and any mismatch is a static reject rather than a parse
// reject -- a corrupted replay, not a bad continuation. Tokens from numSkip
// onward are new: each byte is fed to the lexer in turn, and a grammar
// violation there is an ordinary parse reject.
func (p *Parser) ApplyTokens(trie Trie, tokens []Token, numSkip int) error {
	if numSkip < 0 || numSkip > len(tokens) {
		return earleyerr.Construction(nil, "num_skip %d out of range for %d tokens", numSkip, len(tokens))
	}

	replayOffset := 0
	for i := 0; i < numSkip; i++ {
		for _, b := range tokens[i] {
			if replayOffset >= len(p.bytes) || p.bytes[replayOffset] != b {
				return earleyerr.StaticReject(
					"token %d: replayed byte 0x%02x does not match committed state at offset %d",
					i, b, replayOffset,
				)
			}
			replayOffset++
		}
		p.tokenIdx++
	}

	for i := numSkip; i < len(tokens); i++ {
		p.tokenIdx++
		for _, b := range tokens[i] {
			ok, err := p.tryPushByte(b)
			if err != nil {
				return err
			}
			if !ok {
				return earleyerr.ParseReject("token %d: byte 0x%02x rejected at offset %d", i, b, len(p.bytes))
			}
		}
		if idx := p.topFrame().RowIdx; int(idx) < len(p.rowInfos) {
			p.rowInfos[idx].TokenIdxStop = p.tokenIdx
		}
		if err := p.enforceMaxTokensAfterToken(); err != nil {
			return err
		}
	}

	return nil
}

// enforceMaxTokensAfterToken checks the current row's per-lexeme token
// budgets against how many tokens have now been spent inside it. A lexeme
// that has overrun its budget is removed from the lexer's live
// configuration; if that leaves no viable continuation at all, the
// in-progress lexeme is forced to end right now rather than left to grow
// further.
func (p *Parser) enforceMaxTokensAfterToken() error {
	rowIdx := p.topFrame().RowIdx
	if int(rowIdx) >= len(p.rowInfos) {
		return nil
	}
	info := p.rowInfos[rowIdx]
	if len(info.MaxTokens) == 0 {
		return nil
	}

	spent := p.tokenIdx - info.TokenIdxStart
	row := p.rows[rowIdx]
	allowed := row.AllowedLexemes.Copy()
	blocked := false
	for idx, budget := range info.MaxTokens {
		if spent >= budget {
			allowed.Clear(int(idx))
			blocked = true
		}
	}
	if !blocked {
		return nil
	}

	limited := p.lexer.LimitStateTo(p.topFrame().LexerState, allowed)
	if limited.IsDead() {
		ok, err := p.flushLexer()
		if err != nil {
			return err
		}
		if !ok {
			return earleyerr.ParseReject("row %d: max_tokens budget exceeded with no legal lexeme end", rowIdx)
		}
		return nil
	}

	p.lexerStack[len(p.lexerStack)-1].LexerState = limited
	return nil
}
