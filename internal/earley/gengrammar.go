package earley

import (
	"github.com/dekarrin/earley/internal/earley/grammar"
	"github.com/dekarrin/earley/internal/earley/lexer"
)

// genGrammarLexemeIdx is the sentinel RowInfo.Lexeme.Idx recorded for a row
// produced by splicing a nested grammar's output back in, rather than by
// matching an ordinary lexeme.
const genGrammarLexemeIdx = lexer.LexemeIdx(^uint32(0))

// PendingGenGrammar reports the single nested-grammar symbol predicted in
// the current row, if exactly one is live. More than one live candidate is
// an ambiguous dispatch point: the caller must fall back to raw byte-level
// bias rather than guess which nested grammar applies.
func (p *Parser) PendingGenGrammar() (grammar.SymIdx, *grammar.GenGrammarRef, bool) {
	row := p.currentRow()
	seen := make(map[grammar.SymIdx]bool)
	var found grammar.SymIdx
	var ref *grammar.GenGrammarRef

	for i := row.FirstItem; i < row.LastItem; i++ {
		sym := p.grammar.SymIdxDot(p.scratch.items[i].Rule())
		if sym == grammar.NullSym {
			continue
		}
		data := p.grammar.SymData(sym)
		if data.GenGrammar == nil || seen[sym] {
			continue
		}
		seen[sym] = true
		found, ref = sym, data.GenGrammar
	}

	if len(seen) != 1 {
		return grammar.NullSym, nil, false
	}
	return found, ref, true
}

// ScanGenGrammar splices innerBytes in as the completed match of symIdx, a
// nested-grammar symbol whose content was produced entirely outside this
// core. It runs the same predict/complete fixpoint as an ordinary scan,
// just seeded from symIdx rather than from a lexeme.
func (p *Parser) ScanGenGrammar(symIdx grammar.SymIdx, innerBytes []byte) (bool, error) {
	currRow := p.currentRow()
	newIdx := p.topFrame().RowIdx + 1
	rowStart := p.scratch.startRow()

	matched := false
	for i := currRow.FirstItem; i < currRow.LastItem; i++ {
		it := p.scratch.items[i]
		if p.grammar.SymIdxDot(it.Rule()) == symIdx {
			p.scratch.push(rowStart, it.Advance(), p.definitive, noProps())
			matched = true
		}
	}
	if !matched {
		return false, nil
	}

	lx := lexer.Lexeme{Idx: genGrammarLexemeIdx, Bytes: innerBytes}
	ok, err := p.pushRow(rowStart, newIdx, lx)
	if err != nil || !ok {
		return false, err
	}

	baseState := p.lexer.StartState(p.rows[newIdx].AllowedLexemes, nil)
	p.pushFrame(LexerState{RowIdx: newIdx, LexerState: baseState})
	return true, nil
}

// ScanModelVariable records mv the first time it is encountered, preserving
// first-seen order for ModelVariables().
func (p *Parser) ScanModelVariable(mv grammar.ModelVariable) {
	if p.modelVariablesSeen[mv] {
		return
	}
	p.modelVariablesSeen[mv] = true
	p.modelVariables = append(p.modelVariables, mv)
}
