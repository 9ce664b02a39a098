package earley

import (
	"github.com/dekarrin/earley/internal/earley/grammar"
	"github.com/dekarrin/earley/internal/earley/lexer"
	"github.com/dekarrin/earley/internal/util"
)

// FilterMaxTokens sweeps every row, dropping items whose LHS has overrun its
// declared max_tokens budget, measured by each item's own token span. A
// sentinel RowInfo is appended for the duration of the sweep so
// overBudget's row_infos[start_pos+1] lookup stays in bounds even for items
// whose origin is the row currently being built (spec 4.12). Items are
// compacted in a single left-to-right pass over the shared item arena, since
// rows are laid out contiguously in it; every row's [FirstItem,LastItem)
// range is rewritten as the sweep proceeds, and AllowedLexemes is rebuilt
// from what survives.
func (p *Parser) FilterMaxTokens() {
	sentinel := len(p.rowInfos)
	p.rowInfos = append(p.rowInfos, RowInfo{TokenIdxStart: p.tokenIdx})
	defer func() { p.rowInfos = p.rowInfos[:sentinel] }()

	write := 0
	removed := 0
	for idx := range p.rows {
		row := p.rows[idx]
		first := write
		for i := row.FirstItem; i < row.LastItem; i++ {
			it := p.scratch.items[i]
			if p.overBudget(it, uint32(idx)) {
				removed++
				continue
			}
			if write != i {
				p.scratch.items[write] = it
				if props, ok := p.scratch.props[i]; ok {
					p.scratch.props[write] = props
				}
				delete(p.scratch.props, i)
			}
			write++
		}
		row.FirstItem = first
		row.LastItem = write
		p.rows[idx] = row
	}

	if removed == 0 {
		return
	}

	p.scratch.items = p.scratch.items[:write]

	for idx := range p.rows {
		row := p.rows[idx]
		allowed := util.NewBitset(p.grammar.LexerSpec().NumLexemes())
		for i := row.FirstItem; i < row.LastItem; i++ {
			sym := p.grammar.SymIdxDot(p.scratch.items[i].Rule())
			if sym == grammar.NullSym {
				continue
			}
			data := p.grammar.SymData(sym)
			if data.IsTerminal {
				allowed.Set(int(*data.Lexeme))
			}
		}
		allowed.Set(int(lexer.SkipLexeme))
		row.AllowedLexemes = allowed
		p.rows[idx] = row
	}
	p.stats.AllItems -= removed
}

// overBudget reports whether it has consumed at least as many tokens as its
// LHS's declared max_tokens allows, measured as the item's token span:
// tokens spent since the row right after its own origin started. Spec 8's
// max-tokens scenario is explicit that a span *reaching* the budget (not
// just exceeding it) is already over, matching the >= the Rust original
// uses at this same boundary.
func (p *Parser) overBudget(it Item, currIdx uint32) bool {
	lhs := p.grammar.SymIdxLHS(it.Rule())
	budget := p.grammar.SymData(lhs).Props.MaxTokens
	if budget == grammar.Unlimited {
		return false
	}
	originStart := it.Start() + 1
	if int(originStart) >= len(p.rowInfos) {
		return false
	}
	span := p.tokenIdx - p.rowInfos[originStart].TokenIdxStart
	return span >= budget
}
