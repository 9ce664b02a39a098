// Package inmem provides an in-memory dao.Store, suitable for tests and for
// running the server without a persistence dependency.
package inmem

import (
	"fmt"

	"github.com/dekarrin/earley/server/dao"
)

type store struct {
	users  *InMemoryUsersRepository
	seshes *InMemorySessionsRepository
	gc     *InMemoryGrammarCacheRepository
}

func NewDatastore() dao.Store {
	return &store{
		users:  NewUsersRepository(),
		seshes: NewSessionsRepository(),
		gc:     NewGrammarCacheRepository(),
	}
}

func (s *store) Users() dao.UserRepository {
	return s.users
}

func (s *store) Sessions() dao.SessionRepository {
	return s.seshes
}

func (s *store) GrammarCache() dao.GrammarCacheRepository {
	return s.gc
}

func (s *store) Close() error {
	var err error
	var nextErr error

	nextErr = s.users.Close()
	if nextErr != err {
		if err != nil {
			err = fmt.Errorf("%s\nadditionally, %w", err, nextErr)
		} else {
			err = nextErr
		}
	}
	nextErr = s.seshes.Close()
	if nextErr != err {
		if err != nil {
			err = fmt.Errorf("%s\nadditionally, %w", err, nextErr)
		} else {
			err = nextErr
		}
	}
	nextErr = s.gc.Close()
	if nextErr != err {
		if err != nil {
			err = fmt.Errorf("%s\nadditionally, %w", err, nextErr)
		} else {
			err = nextErr
		}
	}

	return err
}
