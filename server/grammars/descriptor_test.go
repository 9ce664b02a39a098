package grammars

import (
	"testing"

	"github.com/dekarrin/rezi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// digitDescriptor builds a tiny descriptor for S -> digits, the same shape
// as cmd/earleyctl's "digits" demo grammar, for use across this file's
// tests.
func digitDescriptor() GrammarDescriptor {
	var mask [256]bool
	for b := byte('0'); b <= '9'; b++ {
		mask[b] = true
	}

	return GrammarDescriptor{
		Name:    "digits",
		Version: "1",
		Lexemes: []LexemeDescriptor{
			{Name: "DIGITS", Kind: LexemeByteClass, ByteMask: mask, ByteMaskMin: 1},
		},
		Symbols: []SymbolDescriptor{
			{Name: "S", IsTerminal: false},
			{Name: "digits", IsTerminal: true, LexemeIdx: 0, CaptureName: "num"},
		},
		Rules: []RuleDescriptor{
			{LHS: 0, RHS: []int{1}, Capture: true},
		},
		StartSymbol: 0,
	}
}

func Test_GrammarDescriptor_Build(t *testing.T) {
	desc := digitDescriptor()

	g, lx, err := desc.Build()
	require.NoError(t, err)
	assert.NotNil(t, g)
	assert.NotNil(t, lx)
}

func Test_GrammarDescriptor_Build_badStartSymbol(t *testing.T) {
	desc := digitDescriptor()
	desc.StartSymbol = 99

	_, _, err := desc.Build()
	assert.Error(t, err)
}

func Test_GrammarDescriptor_Build_badRuleRef(t *testing.T) {
	desc := digitDescriptor()
	desc.Rules[0].RHS = []int{99}

	_, _, err := desc.Build()
	assert.Error(t, err)
}

func Test_GrammarDescriptor_REZIRoundTrip(t *testing.T) {
	desc := digitDescriptor()

	blob := rezi.EncBinary(&desc)

	var decoded GrammarDescriptor
	_, err := rezi.DecBinary(blob, &decoded)
	require.NoError(t, err)

	assert.Equal(t, desc.Name, decoded.Name)
	assert.Equal(t, desc.Version, decoded.Version)
	assert.Equal(t, desc.Lexemes, decoded.Lexemes)
	assert.Equal(t, desc.Symbols, decoded.Symbols)
	assert.Equal(t, desc.Rules, decoded.Rules)

	// the round-tripped descriptor must still compile.
	_, _, err = decoded.Build()
	assert.NoError(t, err)
}
