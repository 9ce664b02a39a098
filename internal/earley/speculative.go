package earley

// specSnapshot captures every length needed to roll the parser back to
// exactly its pre-speculation state: this is the "stack-snapshot" mechanism
// described in spec 4.6 -- rewinding is always array-length truncation,
// never a structural copy.
type specSnapshot struct {
	lexerStackLen  int
	bytesLen       int
	frameCountsLen int
	scratchLen     int
	rowsLen        int
	rowInfosLen    int
	capturesLen    int
}

func (p *Parser) snapshot() specSnapshot {
	return specSnapshot{
		lexerStackLen:  len(p.lexerStack),
		bytesLen:       len(p.bytes),
		frameCountsLen: len(p.frameCounts),
		scratchLen:     len(p.scratch.items),
		rowsLen:        len(p.rows),
		rowInfosLen:    len(p.rowInfos),
		capturesLen:    len(p.captures),
	}
}

func (p *Parser) restore(s specSnapshot) {
	p.lexerStack = p.lexerStack[:s.lexerStackLen]
	p.bytes = p.bytes[:s.bytesLen]
	p.frameCounts = p.frameCounts[:s.frameCountsLen]
	p.scratch.truncateTo(s.scratchLen)
	p.rows = p.rows[:s.rowsLen]
	p.rowInfos = p.rowInfos[:s.rowInfosLen]
	p.captures = p.captures[:s.capturesLen]
}

// TrieStarted brackets the start of a speculative region: entering pushes a
// snapshot and clears definitive mode. Regions may nest (a trie walker may
// itself call a helper that also brackets a region), each nested region
// restoring to its own entry point.
func (p *Parser) TrieStarted() {
	p.specStack = append(p.specStack, p.snapshot())
	p.definitive = false
}

// TrieFinished pops the most recent snapshot and rewinds to it, restoring
// definitive mode once every nested region has closed.
func (p *Parser) TrieFinished() {
	n := len(p.specStack)
	snap := p.specStack[n-1]
	p.specStack = p.specStack[:n-1]
	p.restore(snap)
	if len(p.specStack) == 0 {
		p.definitive = true
	}
}

// RunSpeculative runs f inside a bracketed speculative region, always
// rewinding afterward regardless of f's result.
func (p *Parser) RunSpeculative(f func() (bool, error)) (bool, error) {
	p.TrieStarted()
	defer p.TrieFinished()
	return f()
}

// TryPushByte feeds b speculatively and reports whether it was accepted.
// Every frame pushed by this single byte (ordinarily one, but a completed
// lexeme with hidden lookahead or a chained single-byte lexeme can push
// more) is recorded as one unit so PopBytes(n) can undo exactly n
// TryPushByte calls regardless of how many raw frames each produced.
func (p *Parser) TryPushByte(b byte) bool {
	before := len(p.lexerStack)
	ok, err := p.tryPushByte(b)
	if err != nil || !ok {
		for len(p.lexerStack) > before {
			p.popFrame()
		}
		return false
	}
	p.frameCounts = append(p.frameCounts, len(p.lexerStack)-before)
	return true
}

// PopBytes undoes the last n TryPushByte calls, a trie backtrack.
func (p *Parser) PopBytes(n int) {
	for i := 0; i < n; i++ {
		if len(p.frameCounts) == 0 {
			return
		}
		cnt := p.frameCounts[len(p.frameCounts)-1]
		p.frameCounts = p.frameCounts[:len(p.frameCounts)-1]
		for j := 0; j < cnt; j++ {
			p.popFrame()
		}
	}
}

// Collapse marks the current position as committed: an informational,
// no-backtrack-intended boundary. The core never drops prior rows on its
// own account; this only records where the boundary was for diagnostics
// (print_row and the like).
func (p *Parser) Collapse() {
	p.lastCollapse = p.NumRows() - 1
}
