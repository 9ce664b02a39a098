package grammar

import (
	"testing"

	"github.com/dekarrin/earley/internal/earley/lexer"
	"github.com/stretchr/testify/assert"
)

func buildTestLexSpec() *lexer.Spec {
	lb := lexer.NewBuilder()
	lb.Literal(1, "A", []byte("a"))
	lb.Literal(2, "B", []byte("b"))
	return lb.Build().Spec()
}

// S -> A B | <empty>
func buildTestGrammar() (*Grammar, SymIdx, SymIdx, SymIdx) {
	b := NewBuilder(buildTestLexSpec())
	s := b.Nonterminal("S", Props{})
	a := b.Terminal("A", 1, Props{})
	bb := b.Terminal("B", 2, Props{})
	b.SetStart(s)
	b.AddRule(s, []SymIdx{a, bb}, Flags{})
	b.AddRule(s, nil, Flags{})
	return b.Build(), s, a, bb
}

func Test_Builder_FlattensRulePositions(t *testing.T) {
	assert := assert.New(t)
	g, s, a, bb := buildTestGrammar()

	rules := g.RulesOf(s)
	assert.Len(rules, 2)

	abRule := rules[0]
	assert.Equal(a, g.SymIdxDot(abRule))
	assert.Equal(s, g.SymIdxLHS(abRule))
	assert.Equal(bb, g.SymIdxDot(abRule+1))
	assert.Equal(NullSym, g.SymIdxDot(abRule+2))

	epsRule := rules[1]
	assert.Equal(NullSym, g.SymIdxDot(epsRule))
}

func Test_Builder_Nullable(t *testing.T) {
	assert := assert.New(t)
	g, s, _, _ := buildTestGrammar()
	assert.True(g.SymData(s).IsNullable, "S has an empty production so it must be nullable")
}

func Test_Builder_Nullable_TransitiveThroughNonterminals(t *testing.T) {
	assert := assert.New(t)
	b := NewBuilder(buildTestLexSpec())
	s := b.Nonterminal("S", Props{})
	t1 := b.Nonterminal("T", Props{})
	b.SetStart(s)
	b.AddRule(s, []SymIdx{t1}, Flags{})
	b.AddRule(t1, nil, Flags{})

	g := b.Build()
	assert.True(g.SymData(t1).IsNullable)
	assert.True(g.SymData(s).IsNullable, "S -> T and T is nullable, so S must be too")
}

func Test_Builder_Nullable_RequiresEveryRHSSymbol(t *testing.T) {
	assert := assert.New(t)
	g, s, a, _ := buildTestGrammar()
	assert.False(g.SymData(a).IsNullable, "a terminal is never nullable")
	_ = s
}
