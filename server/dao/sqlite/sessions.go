package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dekarrin/earley/server/dao"
	"github.com/google/uuid"
)

func NewSessionsDBConn(file string) (*SessionsDB, error) {
	repo := &SessionsDB{}

	var err error
	repo.db, err = sql.Open("sqlite", file)
	if err != nil {
		return nil, wrapDBError(err)
	}

	return repo, repo.init(false)
}

type SessionsDB struct {
	db *sql.DB
}

func (repo *SessionsDB) init(fk bool) error {
	stmt := `CREATE TABLE IF NOT EXISTS sessions (
		id TEXT NOT NULL PRIMARY KEY,
		user_id TEXT NOT NULL`

	if fk {
		stmt += ` REFERENCES users(id) ON DELETE CASCADE ON UPDATE CASCADE`
	}

	stmt += `,
		grammar_name TEXT NOT NULL,
		grammar_version TEXT NOT NULL,
		bytes_fed INTEGER NOT NULL,
		accepting INTEGER NOT NULL,
		closed INTEGER NOT NULL,
		created INTEGER NOT NULL
	);`
	_, err := repo.db.Exec(stmt)
	if err != nil {
		return wrapDBError(err)
	}
	return nil
}

func (repo *SessionsDB) Create(ctx context.Context, s dao.Session) (dao.Session, error) {
	newUUID, err := uuid.NewRandom()
	if err != nil {
		return dao.Session{}, fmt.Errorf("could not generate ID: %w", err)
	}

	stmt, err := repo.db.Prepare(`INSERT INTO sessions (id, user_id, grammar_name, grammar_version, bytes_fed, accepting, closed, created) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return dao.Session{}, wrapDBError(err)
	}
	now := time.Now()

	_, err = stmt.ExecContext(ctx, newUUID.String(), s.UserID.String(), s.GrammarName, s.GrammarVersion, s.BytesFed, s.Accepting, s.Closed, now.Unix())
	if err != nil {
		return dao.Session{}, wrapDBError(err)
	}

	return repo.GetByID(ctx, newUUID)
}

func (repo *SessionsDB) GetAll(ctx context.Context) ([]dao.Session, error) {
	rows, err := repo.db.QueryContext(ctx, `SELECT id, user_id, grammar_name, grammar_version, bytes_fed, accepting, closed, created FROM sessions;`)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var all []dao.Session

	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return all, err
		}
		all = append(all, s)
	}

	if err := rows.Err(); err != nil {
		return all, wrapDBError(err)
	}

	return all, nil
}

func (repo *SessionsDB) GetAllByUser(ctx context.Context, userID uuid.UUID) ([]dao.Session, error) {
	rows, err := repo.db.QueryContext(ctx, `SELECT id, user_id, grammar_name, grammar_version, bytes_fed, accepting, closed, created FROM sessions WHERE user_id=?;`, userID.String())
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var all []dao.Session

	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return all, err
		}
		all = append(all, s)
	}

	if err := rows.Err(); err != nil {
		return all, wrapDBError(err)
	}

	if len(all) < 1 {
		return nil, dao.ErrNotFound
	}

	return all, nil
}

func (repo *SessionsDB) Update(ctx context.Context, id uuid.UUID, s dao.Session) (dao.Session, error) {
	res, err := repo.db.ExecContext(ctx, `UPDATE sessions SET id=?, user_id=?, grammar_name=?, grammar_version=?, bytes_fed=?, accepting=?, closed=? WHERE id=?;`,
		s.ID.String(),
		s.UserID.String(),
		s.GrammarName,
		s.GrammarVersion,
		s.BytesFed,
		s.Accepting,
		s.Closed,
		id.String(),
	)
	if err != nil {
		return dao.Session{}, wrapDBError(err)
	}
	rowsAff, err := res.RowsAffected()
	if err != nil {
		return dao.Session{}, wrapDBError(err)
	}
	if rowsAff < 1 {
		return dao.Session{}, dao.ErrNotFound
	}

	return repo.GetByID(ctx, s.ID)
}

func (repo *SessionsDB) GetByID(ctx context.Context, id uuid.UUID) (dao.Session, error) {
	row := repo.db.QueryRowContext(ctx, `SELECT id, user_id, grammar_name, grammar_version, bytes_fed, accepting, closed, created FROM sessions WHERE id = ?;`,
		id.String(),
	)

	return scanSessionRow(row)
}

func (repo *SessionsDB) Delete(ctx context.Context, id uuid.UUID) (dao.Session, error) {
	curVal, err := repo.GetByID(ctx, id)
	if err != nil {
		return curVal, err
	}

	res, err := repo.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id.String())
	if err != nil {
		return curVal, wrapDBError(err)
	}
	rowsAff, err := res.RowsAffected()
	if err != nil {
		return curVal, wrapDBError(err)
	}
	if rowsAff < 1 {
		return curVal, dao.ErrNotFound
	}

	return curVal, nil
}

func (repo *SessionsDB) Close() error {
	return repo.db.Close()
}

type sessionScanner interface {
	Scan(dest ...any) error
}

func scanSession(rows *sql.Rows) (dao.Session, error) {
	return scanSessionRow(rows)
}

func scanSessionRow(row sessionScanner) (dao.Session, error) {
	var s dao.Session
	var id string
	var userID string
	var created int64

	err := row.Scan(
		&id,
		&userID,
		&s.GrammarName,
		&s.GrammarVersion,
		&s.BytesFed,
		&s.Accepting,
		&s.Closed,
		&created,
	)
	if err != nil {
		return s, wrapDBError(err)
	}

	s.ID, err = uuid.Parse(id)
	if err != nil {
		return s, fmt.Errorf("stored UUID %q is invalid", id)
	}
	s.UserID, err = uuid.Parse(userID)
	if err != nil {
		return s, fmt.Errorf("stored user ID %q is invalid: %w", userID, err)
	}
	s.Created = time.Unix(created, 0)

	return s, nil
}
