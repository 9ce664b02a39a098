package earley

import (
	"github.com/dekarrin/earley/internal/earley/grammar"
	"github.com/dekarrin/earley/internal/earleyerr"
	"github.com/dekarrin/earley/internal/util"
)

// ComputeBias returns the set of vocabulary token IDs legal to generate
// next. The trie walks its own prefixes against the parser (a Recognizer)
// inside one speculative region, so no candidate byte it tries ever leaks
// into committed state. If nothing came out biasable, the lexer is flushed
// to drain any pending state rather than left to go stale; EOS is added only
// when start is empty (the caller isn't mid-token already) and the lexer
// itself would allow input to end here -- a narrower condition than
// isAccepting, which asks about the grammar's start symbol rather than the
// lexer's current partial lexeme.
func (p *Parser) ComputeBias(trie Trie, start []byte) *util.Bitset {
	set := util.NewBitset(trie.VocabSize())
	p.RunSpeculative(func() (bool, error) {
		trie.AddBias(p, set, start)
		return true, nil
	})
	if set.IsZero() {
		_, _ = p.flushLexer()
	}
	if len(start) == 0 && p.lexerAllowsEOS() {
		set.Set(trie.EOSTokenID())
	}
	return set
}

// ComputeBiasAfterGenGrammar splices a nested grammar's output in via
// ScanGenGrammar, then computes bias for whatever comes next. The caller is
// responsible for resolving symIdx via PendingGenGrammar before calling
// this, since dispatch to the wrong nested grammar cannot be undone by a
// speculative rollback (ScanGenGrammar commits a real row).
func (p *Parser) ComputeBiasAfterGenGrammar(trie Trie, symIdx grammar.SymIdx, innerBytes []byte) (*util.Bitset, error) {
	ok, err := p.ScanGenGrammar(symIdx, innerBytes)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, earleyerr.ParseReject("gen_grammar symbol %d has no live prediction in the current row", symIdx)
	}
	return p.ComputeBias(trie, nil), nil
}
