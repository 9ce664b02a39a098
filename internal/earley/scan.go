package earley

import (
	"github.com/dekarrin/earley/internal/earley/grammar"
	"github.com/dekarrin/earley/internal/earley/lexer"
)

// scan begins a new row seeded from every current-row item whose next
// symbol's lexeme matches lx, then runs pushRow to fixpoint. SKIP lexemes
// are handled separately by scanSkipLexeme, since they must never advance
// a dot.
func (p *Parser) scan(lx lexer.Lexeme) (bool, error) {
	if lx.Idx == lexer.SkipLexeme {
		return p.scanSkipLexeme()
	}

	currRow := p.currentRow()
	newIdx := p.topFrame().RowIdx + 1
	rowStart := p.scratch.startRow()

	for i := currRow.FirstItem; i < currRow.LastItem; i++ {
		it := p.scratch.items[i]
		sym := p.grammar.SymIdxDot(it.Rule())
		if sym == grammar.NullSym {
			continue
		}
		symData := p.grammar.SymData(sym)
		if symData.IsTerminal && *symData.Lexeme == lx.Idx {
			p.scratch.push(rowStart, it.Advance(), p.definitive, noProps())
		}
	}

	return p.pushRow(rowStart, newIdx, lx)
}

// scanSkipLexeme copies the current row's items verbatim into the next row
// (dot not advanced) and inherits allowed_lexemes/max_tokens from the
// preceding row, rather than re-running predict/complete: whitespace never
// changes what the grammar expects next.
func (p *Parser) scanSkipLexeme() (bool, error) {
	currIdx := p.topFrame().RowIdx
	currRow := p.currentRow()
	rowStart := p.scratch.startRow()

	for i := currRow.FirstItem; i < currRow.LastItem; i++ {
		p.scratch.push(rowStart, p.scratch.items[i], p.definitive, p.scratch.propsOf(i))
	}

	newRow := Row{FirstItem: rowStart, LastItem: len(p.scratch.items), AllowedLexemes: currRow.AllowedLexemes.Copy()}
	p.rows = append(p.rows, newRow)
	p.stats.Rows++
	p.stats.AllItems += newRow.Len()

	if p.definitive {
		prevInfo := p.rowInfos[currIdx]
		inherited := make(map[lexer.LexemeIdx]int, len(prevInfo.MaxTokens))
		for k, v := range prevInfo.MaxTokens {
			inherited[k] = v
		}
		p.rowInfos = append(p.rowInfos, RowInfo{
			Lexeme:        lexer.JustIdx(lexer.SkipLexeme),
			StartByteIdx:  len(p.bytes),
			TokenIdxStart: p.tokenIdx,
			TokenIdxStop:  p.tokenIdx,
			MaxTokens:     inherited,
		})
	}

	return true, nil
}
