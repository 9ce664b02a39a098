// Package grammars provides storage and reconstruction of compiled grammar
// descriptors for the constraint server, analogous to the role
// server/accounts plays for user/session bookkeeping.
package grammars

import (
	"context"
	"errors"

	"github.com/dekarrin/earley/internal/earley/grammar"
	"github.com/dekarrin/earley/internal/earley/lexer"
	"github.com/dekarrin/earley/server/dao"
	"github.com/dekarrin/earley/server/serr"
	"github.com/dekarrin/rezi"
)

// Service stores and retrieves compiled grammar descriptors against a
// dao.Store. It holds no live parser state; that is the job of
// server/sessions.Registry.
type Service struct {
	DB dao.Store
}

// Register encodes desc and stores it under (desc.Name, desc.Version). It
// is an error to register the same name/version twice; delete the old one
// first if it must be replaced.
func (svc Service) Register(ctx context.Context, desc GrammarDescriptor) (dao.GrammarCache, error) {
	if desc.Name == "" {
		return dao.GrammarCache{}, serr.New("name: must not be empty", serr.ErrBadArgument)
	}
	if desc.Version == "" {
		return dao.GrammarCache{}, serr.New("version: must not be empty", serr.ErrBadArgument)
	}

	// fail fast on a malformed descriptor rather than caching garbage that
	// will only blow up the first time a session tries to open against it.
	if _, _, err := desc.Build(); err != nil {
		return dao.GrammarCache{}, serr.New("descriptor does not compile: "+err.Error(), serr.ErrBadArgument)
	}

	blob := rezi.EncBinary(&desc)

	cache, err := svc.DB.GrammarCache().Create(ctx, dao.GrammarCache{
		Name:    desc.Name,
		Version: desc.Version,
		Blob:    blob,
	})
	if err != nil {
		if errors.Is(err, dao.ErrConstraintViolation) {
			return dao.GrammarCache{}, serr.ErrAlreadyExists
		}
		return dao.GrammarCache{}, serr.WrapDB("create grammar cache entry", err)
	}
	return cache, nil
}

// Get retrieves and decodes the descriptor registered under name/version.
func (svc Service) Get(ctx context.Context, name, version string) (GrammarDescriptor, error) {
	cache, err := svc.DB.GrammarCache().GetByNameVersion(ctx, name, version)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return GrammarDescriptor{}, serr.ErrNotFound
		}
		return GrammarDescriptor{}, serr.WrapDB("get grammar cache entry", err)
	}
	return decode(cache.Blob)
}

// Build retrieves, decodes, and compiles the grammar/lexer pair registered
// under name/version, ready to hand to earley.New.
func (svc Service) Build(ctx context.Context, name, version string) (*grammar.Grammar, lexer.Lexer, error) {
	desc, err := svc.Get(ctx, name, version)
	if err != nil {
		return nil, nil, err
	}
	g, lx, err := desc.Build()
	if err != nil {
		return nil, nil, serr.New("cached descriptor does not compile: " + err.Error())
	}
	return g, lx, nil
}

// ListVersions lists every registered version of the grammar named name.
func (svc Service) ListVersions(ctx context.Context, name string) ([]dao.GrammarCache, error) {
	caches, err := svc.DB.GrammarCache().GetAllByName(ctx, name)
	if err != nil {
		return nil, serr.WrapDB("list grammar versions", err)
	}
	return caches, nil
}

// ListAll lists every registered (name, version) pair.
func (svc Service) ListAll(ctx context.Context) ([]dao.GrammarCache, error) {
	caches, err := svc.DB.GrammarCache().GetAll(ctx)
	if err != nil {
		return nil, serr.WrapDB("list grammars", err)
	}
	return caches, nil
}

// Delete removes the registered descriptor under name/version.
func (svc Service) Delete(ctx context.Context, name, version string) (dao.GrammarCache, error) {
	cache, err := svc.DB.GrammarCache().Delete(ctx, name, version)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.GrammarCache{}, serr.ErrNotFound
		}
		return dao.GrammarCache{}, serr.WrapDB("delete grammar cache entry", err)
	}
	return cache, nil
}

func decode(blob []byte) (GrammarDescriptor, error) {
	var desc GrammarDescriptor
	_, err := rezi.DecBinary(blob, &desc)
	if err != nil {
		return GrammarDescriptor{}, serr.New("decode grammar descriptor: " + err.Error())
	}
	return desc, nil
}
