package sessions

import (
	"context"
	"errors"

	"github.com/dekarrin/earley/internal/earley"
	"github.com/dekarrin/earley/internal/earley/grammar"
	"github.com/dekarrin/earley/internal/earley/tokens"
	"github.com/dekarrin/earley/internal/util"
	"github.com/dekarrin/earley/server/dao"
	"github.com/dekarrin/earley/server/grammars"
	"github.com/dekarrin/earley/server/serr"
	"github.com/google/uuid"
)

// Service opens and drives constrained-generation sessions. It wires
// together grammar storage (Grammars), durable session bookkeeping (DB),
// and the in-process live parser registry (Reg).
type Service struct {
	DB       dao.Store
	Grammars grammars.Service
	Reg      *Registry
}

// Open compiles the named grammar, constructs a fresh Parser for it, and
// records a new session owned by userID. If vocab is empty, the session
// uses the default single-byte-per-token vocabulary (tokens.NewByteVocab),
// matching cmd/earleyctl's default when no real model vocabulary is
// supplied.
func (svc Service) Open(ctx context.Context, userID uuid.UUID, grammarName, grammarVersion string, vocab [][]byte) (dao.Session, error) {
	g, lx, err := svc.Grammars.Build(ctx, grammarName, grammarVersion)
	if err != nil {
		return dao.Session{}, err
	}

	p, err := earley.New(g, lx, earley.Options{})
	if err != nil {
		return dao.Session{}, serr.New("construct parser: "+err.Error(), serr.ErrBadArgument)
	}

	var trie earley.Trie
	if len(vocab) > 0 {
		trie = tokens.New(vocab, len(vocab))
	} else {
		trie = tokens.NewByteVocab()
	}

	sesh, err := svc.DB.Sessions().Create(ctx, dao.Session{
		UserID:         userID,
		GrammarName:    grammarName,
		GrammarVersion: grammarVersion,
		Accepting:      accepts(p, trie),
	})
	if err != nil {
		return dao.Session{}, serr.WrapDB("create session", err)
	}

	svc.Reg.Put(sesh.ID, p, trie)
	return sesh, nil
}

// Get returns the durable bookkeeping row for id.
func (svc Service) Get(ctx context.Context, id uuid.UUID) (dao.Session, error) {
	sesh, err := svc.DB.Sessions().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.Session{}, serr.ErrNotFound
		}
		return dao.Session{}, serr.WrapDB("get session", err)
	}
	return sesh, nil
}

// GetAllByUser lists every session owned by userID.
func (svc Service) GetAllByUser(ctx context.Context, userID uuid.UUID) ([]dao.Session, error) {
	seshes, err := svc.DB.Sessions().GetAllByUser(ctx, userID)
	if err != nil {
		return nil, serr.WrapDB("list sessions", err)
	}
	return seshes, nil
}

// liveParser looks up id's live parser, erroring with serr.ErrNotFound if
// the session is unknown, already closed, or has no live parser in this
// process (e.g. the server restarted since it was opened).
func (svc Service) liveParser(id uuid.UUID) (*earley.Parser, earley.Trie, error) {
	p, trie, ok := svc.Reg.Get(id)
	if !ok {
		return nil, nil, serr.New("session has no live parser in this process (closed, or server restarted since it was opened)", serr.ErrNotFound)
	}
	return p, trie, nil
}

// ApplyTokens feeds tokens (with the first numSkip treated as an
// already-committed replay) to id's live parser and updates its durable
// row. A grammar violation is reported as an ordinary error the caller can
// classify with earleyerr.Classify; it does not close the session, since a
// client may want to inspect Stats/Captures before giving up on it.
func (svc Service) ApplyTokens(ctx context.Context, id uuid.UUID, tokenBytes [][]byte, numSkip int) (dao.Session, error) {
	sesh, err := svc.Get(ctx, id)
	if err != nil {
		return dao.Session{}, err
	}
	if sesh.Closed {
		return dao.Session{}, serr.New("session is closed", serr.ErrBadArgument)
	}

	p, trie, err := svc.liveParser(id)
	if err != nil {
		return dao.Session{}, err
	}

	toks := make([]earley.Token, len(tokenBytes))
	for i, b := range tokenBytes {
		toks[i] = earley.Token(b)
	}

	if err := p.ApplyTokens(trie, toks, numSkip); err != nil {
		return dao.Session{}, err
	}

	sesh.BytesFed = len(p.GetBytes())
	sesh.Accepting = accepts(p, trie)

	sesh, err = svc.DB.Sessions().Update(ctx, id, sesh)
	if err != nil {
		return dao.Session{}, serr.WrapDB("update session", err)
	}
	return sesh, nil
}

// ComputeBias returns the vocabulary bitmask of tokens legal to generate
// next for id's live parser.
func (svc Service) ComputeBias(ctx context.Context, id uuid.UUID) (*util.Bitset, error) {
	sesh, err := svc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sesh.Closed {
		return nil, serr.New("session is closed", serr.ErrBadArgument)
	}

	p, trie, err := svc.liveParser(id)
	if err != nil {
		return nil, err
	}

	return p.ComputeBias(trie, nil), nil
}

// Captures returns id's live parser's accumulated captures.
func (svc Service) Captures(id uuid.UUID) ([]earley.Capture, error) {
	p, _, err := svc.liveParser(id)
	if err != nil {
		return nil, err
	}
	return p.Captures(), nil
}

// Stats returns id's live parser's running work counters.
func (svc Service) Stats(id uuid.UUID) (earley.Stats, error) {
	p, _, err := svc.liveParser(id)
	if err != nil {
		return earley.Stats{}, err
	}
	return p.Stats(), nil
}

// ModelVariables returns the model variables id's live parser has scanned
// so far, in first-seen order.
func (svc Service) ModelVariables(id uuid.UUID) ([]grammar.ModelVariable, error) {
	p, _, err := svc.liveParser(id)
	if err != nil {
		return nil, err
	}
	return p.ModelVariables(), nil
}

// PendingGenGrammar reports the single nested-grammar symbol predicted in
// id's live parser's current row, if exactly one is live.
func (svc Service) PendingGenGrammar(id uuid.UUID) (grammar.SymIdx, *grammar.GenGrammarRef, bool, error) {
	p, _, err := svc.liveParser(id)
	if err != nil {
		return grammar.NullSym, nil, false, err
	}
	sym, ref, ok := p.PendingGenGrammar()
	return sym, ref, ok, nil
}

// ScanGenGrammar splices innerBytes in as the completed match of the pending
// gen-grammar symbol and updates the durable row to match.
func (svc Service) ScanGenGrammar(ctx context.Context, id uuid.UUID, symIdx grammar.SymIdx, innerBytes []byte) (dao.Session, error) {
	sesh, err := svc.Get(ctx, id)
	if err != nil {
		return dao.Session{}, err
	}
	if sesh.Closed {
		return dao.Session{}, serr.New("session is closed", serr.ErrBadArgument)
	}

	p, trie, err := svc.liveParser(id)
	if err != nil {
		return dao.Session{}, err
	}

	ok, err := p.ScanGenGrammar(symIdx, innerBytes)
	if err != nil {
		return dao.Session{}, err
	}
	if !ok {
		return dao.Session{}, serr.New("gen-grammar symbol has no live prediction in the current row", serr.ErrBadArgument)
	}

	sesh.BytesFed = len(p.GetBytes())
	sesh.Accepting = accepts(p, trie)

	sesh, err = svc.DB.Sessions().Update(ctx, id, sesh)
	if err != nil {
		return dao.Session{}, serr.WrapDB("update session", err)
	}
	return sesh, nil
}

// Close marks id's session closed and drops its live parser. Idempotent:
// closing an already-closed session is not an error.
func (svc Service) Close(ctx context.Context, id uuid.UUID) (dao.Session, error) {
	sesh, err := svc.Get(ctx, id)
	if err != nil {
		return dao.Session{}, err
	}

	svc.Reg.Delete(id)

	if sesh.Closed {
		return sesh, nil
	}
	sesh.Closed = true

	sesh, err = svc.DB.Sessions().Update(ctx, id, sesh)
	if err != nil {
		return dao.Session{}, serr.WrapDB("close session", err)
	}
	return sesh, nil
}

func accepts(p *earley.Parser, trie earley.Trie) bool {
	bias := p.ComputeBias(trie, nil)
	return bias.Get(trie.EOSTokenID())
}
