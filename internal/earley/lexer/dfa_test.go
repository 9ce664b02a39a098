package lexer

import (
	"testing"

	"github.com/dekarrin/earley/internal/util"
	"github.com/stretchr/testify/assert"
)

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func buildTestDFA() *DFA {
	b := NewBuilder()
	b.Literal(1, "AB", []byte("ab"))
	b.ByteClass(2, "DIGITS", isDigit, 1)
	b.StopSequence(3, "COMMENT", []byte("\n"))
	return b.Build()
}

func onlyLexeme(d *DFA, idx LexemeIdx) *util.Bitset {
	set := util.NewBitset(d.Spec().NumLexemes())
	set.Set(int(idx))
	return set
}

func allowAll(d *DFA) *util.Bitset {
	set := util.NewBitset(d.Spec().NumLexemes())
	set.SetAll()
	return set
}

func Test_DFA_Literal(t *testing.T) {
	assert := assert.New(t)
	d := buildTestDFA()

	allowed := onlyLexeme(d, 1)
	state := d.StartState(allowed, nil)
	res := d.Advance(state, 'a', false)
	assert.Equal(ResultState, res.Kind)

	res = d.Advance(res.NextState, 'b', false)
	assert.Equal(ResultLexeme, res.Kind)
	assert.Equal(LexemeIdx(1), res.Pre.Idx)
	assert.False(res.Pre.ByteNextRow)
	assert.Equal(0, res.Pre.HiddenLen)
}

// A lexeme that is the only one admitted in its row has no competing
// fragment to keep the config alive, so once inside it every other byte
// value is a dead end: this is what forced_byte relies on to find the
// unique legal continuation without searching a wider space.
func Test_DFA_Literal_MidToken_ForcesNextByte(t *testing.T) {
	assert := assert.New(t)
	d := buildTestDFA()

	allowed := onlyLexeme(d, 1)
	state := d.StartState(allowed, nil)
	res := d.Advance(state, 'a', false)
	assert.Equal(ResultState, res.Kind)

	for b := 0; b < 256; b++ {
		r := d.Advance(res.NextState, byte(b), false)
		if byte(b) == 'b' {
			assert.Equal(ResultLexeme, r.Kind)
		} else {
			assert.Equal(ResultError, r.Kind, "byte %d should not continue the literal", b)
		}
	}
}

func Test_DFA_ByteClass_MaximalMunch(t *testing.T) {
	assert := assert.New(t)
	d := buildTestDFA()

	allowed := onlyLexeme(d, 2)
	state := d.StartState(allowed, nil)
	var res Result
	for _, b := range []byte("123") {
		res = d.Advance(state, b, false)
		assert.Equal(ResultState, res.Kind)
		state = res.NextState
	}
	// A non-digit ends the run; it was not consumed into the match, since
	// nothing else is alive to absorb it.
	end := d.Advance(state, 'x', false)
	assert.Equal(ResultLexeme, end.Kind)
	assert.Equal(LexemeIdx(2), end.Pre.Idx)
	assert.True(end.Pre.ByteNextRow)
	assert.Equal(byte('x'), *end.Pre.Byte)
}

// A stop-sequence fragment absorbs any byte that isn't (yet) part of its
// delimiter, so mixed in with allow-everything it still survives past
// whatever kills every other fragment first.
func Test_DFA_StopSequence_HiddenBytes(t *testing.T) {
	assert := assert.New(t)
	d := buildTestDFA()

	state := d.StartState(allowAll(d), nil)
	var res Result
	for _, b := range []byte("hi\n") {
		res = d.Advance(state, b, false)
		state = res.NextState
	}
	assert.Equal(ResultLexeme, res.Kind)
	assert.Equal(LexemeIdx(3), res.Pre.Idx)
	assert.Equal(1, res.Pre.HiddenLen)
	assert.False(res.Pre.ByteNextRow)
}

func Test_DFA_LimitStateTo_Dead(t *testing.T) {
	assert := assert.New(t)
	d := buildTestDFA()

	onlyDigits := onlyLexeme(d, 2)
	state := d.StartState(onlyDigits, nil)
	limited := d.LimitStateTo(state, onlyDigits)
	assert.False(limited.IsDead())

	onlyAB := onlyLexeme(d, 1)
	afterDigit := d.Advance(d.StartState(onlyDigits, nil), '5', false)
	assert.Equal(ResultState, afterDigit.Kind)
	deadened := d.LimitStateTo(afterDigit.NextState, onlyAB)
	assert.True(deadened.IsDead())
}

func Test_DFA_AllowsEOS(t *testing.T) {
	assert := assert.New(t)
	d := buildTestDFA()

	allowed := onlyLexeme(d, 1)
	start := d.StartState(allowed, nil)
	assert.False(d.AllowsEOS(start), "no bytes consumed yet and no accept recorded")

	mid := d.Advance(start, 'a', false)
	assert.Equal(ResultState, mid.Kind)
	assert.False(d.AllowsEOS(mid.NextState))
}
