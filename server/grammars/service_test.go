package grammars

import (
	"context"
	"errors"
	"testing"

	"github.com/dekarrin/earley/server/dao/inmem"
	"github.com/dekarrin/earley/server/serr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() Service {
	return Service{DB: inmem.NewDatastore()}
}

func Test_Service_Register_and_Get(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	desc := digitDescriptor()

	cache, err := svc.Register(ctx, desc)
	require.NoError(t, err)
	assert.Equal(t, "digits", cache.Name)
	assert.Equal(t, "1", cache.Version)

	got, err := svc.Get(ctx, "digits", "1")
	require.NoError(t, err)
	assert.Equal(t, desc.Symbols, got.Symbols)
	assert.Equal(t, desc.Rules, got.Rules)
}

func Test_Service_Register_duplicate(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	desc := digitDescriptor()

	_, err := svc.Register(ctx, desc)
	require.NoError(t, err)

	_, err = svc.Register(ctx, desc)
	assert.ErrorIs(t, err, serr.ErrAlreadyExists)
}

func Test_Service_Register_malformedDescriptor(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	desc := digitDescriptor()
	desc.StartSymbol = 99

	_, err := svc.Register(ctx, desc)
	assert.ErrorIs(t, err, serr.ErrBadArgument)
}

func Test_Service_Get_notFound(t *testing.T) {
	svc := newTestService()

	_, err := svc.Get(context.Background(), "nonexistent", "1")
	assert.True(t, errors.Is(err, serr.ErrNotFound))
}

func Test_Service_Build(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	desc := digitDescriptor()

	_, err := svc.Register(ctx, desc)
	require.NoError(t, err)

	g, lx, err := svc.Build(ctx, "digits", "1")
	require.NoError(t, err)
	assert.NotNil(t, g)
	assert.NotNil(t, lx)
}

func Test_Service_Delete(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	desc := digitDescriptor()

	_, err := svc.Register(ctx, desc)
	require.NoError(t, err)

	_, err = svc.Delete(ctx, "digits", "1")
	require.NoError(t, err)

	_, err = svc.Get(ctx, "digits", "1")
	assert.ErrorIs(t, err, serr.ErrNotFound)
}

func Test_Service_ListVersions(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	desc := digitDescriptor()

	_, err := svc.Register(ctx, desc)
	require.NoError(t, err)

	desc.Version = "2"
	_, err = svc.Register(ctx, desc)
	require.NoError(t, err)

	versions, err := svc.ListVersions(ctx, "digits")
	require.NoError(t, err)
	assert.Len(t, versions, 2)
}
