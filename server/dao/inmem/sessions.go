package inmem

import (
	"context"
	"fmt"
	"time"

	"github.com/dekarrin/earley/internal/util"
	"github.com/dekarrin/earley/server/dao"
	"github.com/google/uuid"
)

func NewSessionsRepository() *InMemorySessionsRepository {
	return &InMemorySessionsRepository{
		seshes:        make(map[uuid.UUID]dao.Session),
		byUserIDIndex: make(map[uuid.UUID][]uuid.UUID),
	}
}

type InMemorySessionsRepository struct {
	seshes        map[uuid.UUID]dao.Session
	byUserIDIndex map[uuid.UUID][]uuid.UUID
}

func (imsr *InMemorySessionsRepository) Close() error {
	return nil
}

func (imsr *InMemorySessionsRepository) Create(ctx context.Context, s dao.Session) (dao.Session, error) {
	newUUID, err := uuid.NewRandom()
	if err != nil {
		return dao.Session{}, fmt.Errorf("could not generate ID: %w", err)
	}

	s.ID = newUUID
	s.Created = time.Now()

	imsr.seshes[s.ID] = s

	userSeshes := imsr.byUserIDIndex[s.UserID]
	userSeshes = append(userSeshes, s.ID)
	imsr.byUserIDIndex[s.UserID] = userSeshes

	return s, nil
}

func (imsr *InMemorySessionsRepository) GetAll(ctx context.Context) ([]dao.Session, error) {
	all := make([]dao.Session, len(imsr.seshes))

	i := 0
	for k := range imsr.seshes {
		all[i] = imsr.seshes[k]
		i++
	}

	all = util.SortBy(all, func(l, r dao.Session) bool {
		return l.ID.String() < r.ID.String()
	})

	return all, nil
}

func (imsr *InMemorySessionsRepository) GetAllByUser(ctx context.Context, id uuid.UUID) ([]dao.Session, error) {
	byUser := imsr.byUserIDIndex[id]
	if len(byUser) < 1 {
		return nil, dao.ErrNotFound
	}

	all := make([]dao.Session, len(byUser))

	for i := range byUser {
		all[i] = imsr.seshes[byUser[i]]
	}

	all = util.SortBy(all, func(l, r dao.Session) bool {
		return l.ID.String() < r.ID.String()
	})

	return all, nil
}

func (imsr *InMemorySessionsRepository) Update(ctx context.Context, id uuid.UUID, s dao.Session) (dao.Session, error) {
	existing, ok := imsr.seshes[id]
	if !ok {
		return dao.Session{}, dao.ErrNotFound
	}

	// check for conflicts on this table only
	// (inmem does not support enforcement of foreign keys)
	if s.ID != id {
		if _, ok := imsr.seshes[s.ID]; ok {
			return dao.Session{}, dao.ErrConstraintViolation
		}
	}

	imsr.seshes[s.ID] = s
	if s.ID != id {
		delete(imsr.seshes, id)

		if existing.UserID == s.UserID {
			byUser := imsr.byUserIDIndex[existing.UserID]
			pos := util.SliceIndexOf(id, byUser)
			if pos < 0 {
				return dao.Session{}, fmt.Errorf("DB ASSERTION FAILURE: missing index entry for user %s to sesh %s", existing.UserID, existing.ID)
			}
			byUser[pos] = s.ID
			imsr.byUserIDIndex[existing.UserID] = byUser
		}
	}

	if s.UserID != existing.UserID {
		// if we're modifying the user, we must remove it from old index
		// entry and put it into another.
		byUser := imsr.byUserIDIndex[existing.UserID]
		updated := util.SliceRemove(existing.ID, byUser)
		imsr.byUserIDIndex[existing.UserID] = updated
		if len(updated) < 1 {
			delete(imsr.byUserIDIndex, existing.UserID)
		}

		newByUser := imsr.byUserIDIndex[s.UserID]
		newByUser = append(newByUser, s.ID)
		imsr.byUserIDIndex[s.UserID] = newByUser
	}

	return s, nil
}

func (imsr *InMemorySessionsRepository) GetByID(ctx context.Context, id uuid.UUID) (dao.Session, error) {
	s, ok := imsr.seshes[id]
	if !ok {
		return dao.Session{}, dao.ErrNotFound
	}

	return s, nil
}

func (imsr *InMemorySessionsRepository) Delete(ctx context.Context, id uuid.UUID) (dao.Session, error) {
	s, ok := imsr.seshes[id]
	if !ok {
		return dao.Session{}, dao.ErrNotFound
	}

	byUser := imsr.byUserIDIndex[s.UserID]
	userUpdated := util.SliceRemove(s.ID, byUser)
	imsr.byUserIDIndex[s.UserID] = userUpdated
	if len(userUpdated) < 1 {
		delete(imsr.byUserIDIndex, s.UserID)
	}

	delete(imsr.seshes, s.ID)

	return s, nil
}
