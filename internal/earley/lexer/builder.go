package lexer

// Builder assembles a DFA's lexeme catalog and fragment table. It plays the
// same role for the lexer as grammar.Builder does for the grammar: handing
// the core a concrete, programmatically-built collaborator instead of one
// compiled from a textual regex/grammar source.
type Builder struct {
	dfa  *DFA
	seen map[LexemeIdx]bool
}

// NewBuilder starts a Builder whose lexeme 0 is always SKIP.
func NewBuilder() *Builder {
	spec := &Spec{Lexemes: []LexemeSpec{{Idx: SkipLexeme, Name: "SKIP"}}}
	b := &Builder{dfa: newDFA(spec), seen: map[LexemeIdx]bool{}}
	b.dfa.fragments[SkipLexeme] = &classFragment{lexeme: SkipLexeme, pred: isWhitespace, min: 1}
	b.seen[SkipLexeme] = true
	return b
}

func isWhitespace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func (b *Builder) declare(idx LexemeIdx, name string, frag fragment) LexemeIdx {
	if b.seen[idx] {
		panic("lexer: duplicate LexemeIdx in Builder")
	}
	for len(b.dfa.spec.Lexemes) <= int(idx) {
		b.dfa.spec.Lexemes = append(b.dfa.spec.Lexemes, LexemeSpec{})
	}
	b.dfa.spec.Lexemes[idx] = LexemeSpec{Idx: idx, Name: name}
	b.dfa.fragments[idx] = frag
	b.seen[idx] = true
	return idx
}

// Literal declares a lexeme that matches exactly the given bytes.
func (b *Builder) Literal(idx LexemeIdx, name string, bytes []byte) LexemeIdx {
	return b.declare(idx, name, &literalFragment{lexeme: idx, bytes: append([]byte(nil), bytes...)})
}

// ByteClass declares a maximal-munch lexeme matching bytes satisfying pred,
// min or more repetitions (0 or 1).
func (b *Builder) ByteClass(idx LexemeIdx, name string, pred func(byte) bool, min int) LexemeIdx {
	return b.declare(idx, name, &classFragment{lexeme: idx, pred: pred, min: min})
}

// StopSequence declares a lexeme matching arbitrary bytes up to and
// including the literal stop delimiter, with the delimiter reported hidden.
func (b *Builder) StopSequence(idx LexemeIdx, name string, stop []byte) LexemeIdx {
	return b.declare(idx, name, &stopSequenceFragment{lexeme: idx, stop: append([]byte(nil), stop...)})
}

// Build finalizes the DFA. The Builder must not be reused afterward.
func (b *Builder) Build() *DFA {
	return b.dfa
}
