package earley

import (
	"testing"

	"github.com/dekarrin/earley/internal/earley/grammar"
	"github.com/dekarrin/earley/internal/earley/lexer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildNameGenParser builds S -> "NAME=" <value>, where <value>'s production
// is a nested grammar resolved entirely outside this core.
func buildNameGenParser(t *testing.T) *Parser {
	t.Helper()

	lx := lexer.NewBuilder()
	lx.Literal(1, "PREFIX", []byte("NAME="))
	dfa := lx.Build()

	gb := grammar.NewBuilder(dfa.Spec())
	s := gb.Nonterminal("S", grammar.Props{})
	prefix := gb.Terminal("prefix", 1, grammar.Props{})
	value := gb.GenGrammarSymbol("value", grammar.GenGrammarRef{Name: "name"}, grammar.Props{})
	gb.SetStart(s)
	gb.AddRule(s, []grammar.SymIdx{prefix, value}, grammar.Flags{})
	g := gb.Build()

	p, err := New(g, dfa, Options{})
	require.NoError(t, err)
	return p
}

func Test_Parser_PendingGenGrammar_none(t *testing.T) {
	p := buildNameGenParser(t)

	_, _, ok := p.PendingGenGrammar()
	assert.False(t, ok, "value is not yet predicted before the prefix is scanned")
}

func Test_Parser_PendingGenGrammar_afterPrefix(t *testing.T) {
	p := buildNameGenParser(t)
	feedBytes(t, p, "NAME=")

	sym, ref, ok := p.PendingGenGrammar()
	require.True(t, ok)
	require.NotNil(t, ref)
	assert.Equal(t, "name", ref.Name)
	assert.NotEqual(t, grammar.NullSym, sym)
}

func Test_Parser_ScanGenGrammar_accepts(t *testing.T) {
	p := buildNameGenParser(t)
	feedBytes(t, p, "NAME=")

	sym, _, ok := p.PendingGenGrammar()
	require.True(t, ok)

	matched, err := p.ScanGenGrammar(sym, []byte("Alice"))
	require.NoError(t, err)
	assert.True(t, matched)
	assert.True(t, p.isAccepting())
}

func Test_Parser_ScanGenGrammar_wrongSymRejected(t *testing.T) {
	p := buildNameGenParser(t)
	feedBytes(t, p, "NAME=")

	matched, err := p.ScanGenGrammar(grammar.NullSym, []byte("Alice"))
	require.NoError(t, err)
	assert.False(t, matched, "NullSym is not the symbol predicted in the current row")
}
