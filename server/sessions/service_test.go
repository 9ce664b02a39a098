package sessions

import (
	"context"
	"testing"

	"github.com/dekarrin/earley/server/dao/inmem"
	"github.com/dekarrin/earley/server/grammars"
	"github.com/dekarrin/earley/server/serr"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// parensDescriptor builds S -> ( S ) S | <empty>, the same shape as
// cmd/earleyctl's "parens" demo grammar, entirely in balanced-paren bytes.
func parensDescriptor() grammars.GrammarDescriptor {
	return grammars.GrammarDescriptor{
		Name:    "parens",
		Version: "1",
		Lexemes: []grammars.LexemeDescriptor{
			{Name: "OPEN", Kind: grammars.LexemeLiteral, Literal: []byte("(")},
			{Name: "CLOSE", Kind: grammars.LexemeLiteral, Literal: []byte(")")},
		},
		Symbols: []grammars.SymbolDescriptor{
			{Name: "S", IsTerminal: false},
			{Name: "(", IsTerminal: true, LexemeIdx: 0},
			{Name: ")", IsTerminal: true, LexemeIdx: 1},
		},
		Rules: []grammars.RuleDescriptor{
			{LHS: 0, RHS: []int{1, 0, 2, 0}},
			{LHS: 0, RHS: nil},
		},
		StartSymbol: 0,
	}
}

func newTestService(t *testing.T) Service {
	t.Helper()
	db := inmem.NewDatastore()
	gsvc := grammars.Service{DB: db}

	_, err := gsvc.Register(context.Background(), parensDescriptor())
	require.NoError(t, err)

	return Service{DB: db, Grammars: gsvc, Reg: NewRegistry()}
}

func Test_Service_Open(t *testing.T) {
	svc := newTestService(t)
	userID := uuid.New()

	sesh, err := svc.Open(context.Background(), userID, "parens", "1", nil)
	require.NoError(t, err)
	assert.Equal(t, userID, sesh.UserID)
	assert.True(t, sesh.Accepting, "empty input is a valid balanced-paren string")
	assert.Equal(t, 1, svc.Reg.Len())
}

func Test_Service_Open_unknownGrammar(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Open(context.Background(), uuid.New(), "nonexistent", "1", nil)
	assert.ErrorIs(t, err, serr.ErrNotFound)
}

func Test_Service_ApplyTokens_acceptsBalanced(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	sesh, err := svc.Open(ctx, uuid.New(), "parens", "1", nil)
	require.NoError(t, err)

	updated, err := svc.ApplyTokens(ctx, sesh.ID, [][]byte{[]byte("("), []byte(")")}, 0)
	require.NoError(t, err)
	assert.True(t, updated.Accepting)
	assert.Equal(t, 2, updated.BytesFed)
}

func Test_Service_ApplyTokens_rejectsUnbalanced(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	sesh, err := svc.Open(ctx, uuid.New(), "parens", "1", nil)
	require.NoError(t, err)

	_, err = svc.ApplyTokens(ctx, sesh.ID, [][]byte{[]byte(")")}, 0)
	assert.Error(t, err)
}

func Test_Service_ComputeBias(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	sesh, err := svc.Open(ctx, uuid.New(), "parens", "1", nil)
	require.NoError(t, err)

	bias, err := svc.ComputeBias(ctx, sesh.ID)
	require.NoError(t, err)
	assert.True(t, bias.Get('('), "an open paren must always be legal")
}

func Test_Service_Close(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	sesh, err := svc.Open(ctx, uuid.New(), "parens", "1", nil)
	require.NoError(t, err)

	closed, err := svc.Close(ctx, sesh.ID)
	require.NoError(t, err)
	assert.True(t, closed.Closed)
	assert.Equal(t, 0, svc.Reg.Len())

	// closing again is a no-op, not an error.
	_, err = svc.Close(ctx, sesh.ID)
	assert.NoError(t, err)
}

func Test_Service_ApplyTokens_closedSessionRejected(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	sesh, err := svc.Open(ctx, uuid.New(), "parens", "1", nil)
	require.NoError(t, err)

	_, err = svc.Close(ctx, sesh.ID)
	require.NoError(t, err)

	_, err = svc.ApplyTokens(ctx, sesh.ID, [][]byte{[]byte("(")}, 0)
	assert.ErrorIs(t, err, serr.ErrBadArgument)
}
