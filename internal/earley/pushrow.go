package earley

import (
	"github.com/dekarrin/earley/internal/earley/grammar"
	"github.com/dekarrin/earley/internal/earley/lexer"
	"github.com/dekarrin/earley/internal/earleyerr"
	"github.com/dekarrin/earley/internal/util"
)

// pushRow runs predict/scan/complete to a fixpoint over the agenda seeded
// at scratch.items[rowStart:], producing row number currIdx, triggered by
// lx. It returns false (parse reject, not an error) if the resulting row
// has no items at all.
func (p *Parser) pushRow(rowStart int, currIdx uint32, lx lexer.Lexeme) (bool, error) {
	g := p.grammar
	maxRow := p.opts.maxRow()

	allowed := util.NewBitset(g.LexerSpec().NumLexemes())
	maxTokens := map[lexer.LexemeIdx]int{}

	ptr := rowStart
	for ptr < len(p.scratch.items) {
		it := p.scratch.items[ptr]
		rule := it.Rule()
		sym := g.SymIdxDot(rule)

		if sym == grammar.NullSym {
			lhs := g.SymIdxLHS(rule)
			flags := g.SymFlagsLHS(rule)
			lhsData := g.SymData(lhs)

			if flags.StopCapture && p.definitive {
				p.captures = append(p.captures, Capture{
					Name:  lhsData.Props.StopCaptureName,
					Bytes: append([]byte(nil), lx.HiddenBytes()...),
				})
			}
			if flags.Capture && p.definitive {
				var text []byte
				for i := it.Start() + 1; i < currIdx; i++ {
					text = append(text, p.rowInfos[i].Lexeme.VisibleBytes()...)
				}
				text = append(text, lx.VisibleBytes()...)
				p.captures = append(p.captures, Capture{Name: lhsData.Props.CaptureName, Bytes: text})
			}

			if it.Start() < currIdx {
				originRow := p.rows[it.Start()]
				for i := originRow.FirstItem; i < originRow.LastItem; i++ {
					cand := p.scratch.items[i]
					if g.SymIdxDot(cand.Rule()) != lhs {
						continue
					}
					if err := p.agendaPush(rowStart, cand.Advance(), maxRow); err != nil {
						return false, err
					}
				}
			}
		} else {
			symData := g.SymData(sym)

			if symData.IsTerminal {
				allowed.Set(int(*symData.Lexeme))
				if p.definitive && symData.Props.MaxTokens != grammar.Unlimited {
					if cur, ok := maxTokens[*symData.Lexeme]; !ok || symData.Props.MaxTokens < cur {
						maxTokens[*symData.Lexeme] = symData.Props.MaxTokens
					}
				}
			}
			if symData.IsNullable {
				if err := p.agendaPush(rowStart, it.Advance(), maxRow); err != nil {
					return false, err
				}
				if symData.Props.CaptureName != "" && p.definitive {
					p.captures = append(p.captures, Capture{Name: symData.Props.CaptureName})
				}
			}
			for _, rule := range symData.Rules {
				if err := p.agendaPush(rowStart, NewItem(rule, currIdx), maxRow); err != nil {
					return false, err
				}
			}
		}

		ptr++
	}

	allowed.Set(int(lexer.SkipLexeme))

	if len(p.scratch.items) == rowStart {
		return false, nil
	}

	row := Row{FirstItem: rowStart, LastItem: len(p.scratch.items), AllowedLexemes: allowed}
	p.rows = append(p.rows, row)
	p.stats.Rows++
	p.stats.AllItems += row.Len()

	if p.definitive {
		limited := map[lexer.LexemeIdx]int{}
		for idx, budget := range maxTokens {
			limited[idx] = budget
		}
		p.rowInfos = append(p.rowInfos, RowInfo{
			Lexeme:        lx,
			StartByteIdx: len(p.bytes),
			TokenIdxStart: p.tokenIdx,
			TokenIdxStop:  p.tokenIdx,
			MaxTokens:     limited,
		})
	}

	return true, nil
}

func (p *Parser) agendaPush(rowStart int, it Item, maxRow int) error {
	if _, added := p.scratch.push(rowStart, it, p.definitive, noProps()); added {
		if len(p.scratch.items)-rowStart > maxRow {
			return earleyerr.RowOverflow(len(p.scratch.items)-rowStart, maxRow)
		}
	}
	return nil
}
