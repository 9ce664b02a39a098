package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/mail"
	"time"

	"github.com/dekarrin/earley/server/dao"
	"github.com/google/uuid"
)

func NewUsersDBConn(file string) (*UsersDB, error) {
	repo := &UsersDB{}

	var err error
	repo.db, err = sql.Open("sqlite", file)
	if err != nil {
		return nil, err
	}

	return repo, repo.init()
}

type UsersDB struct {
	db *sql.DB
}

func (repo *UsersDB) init() error {
	_, err := repo.db.Exec(`CREATE TABLE IF NOT EXISTS users (
		id TEXT NOT NULL PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		role INTEGER NOT NULL,
		email TEXT NOT NULL,
		created INTEGER NOT NULL,
		modified INTEGER NOT NULL,
		last_logout_time INTEGER NOT NULL,
		last_login_time INTEGER NOT NULL
	);`)
	if err != nil {
		return wrapDBError(err)
	}
	return nil
}

func (repo *UsersDB) Create(ctx context.Context, user dao.User) (dao.User, error) {
	newUUID, err := uuid.NewRandom()
	if err != nil {
		return dao.User{}, fmt.Errorf("could not generate ID: %w", err)
	}

	stmt, err := repo.db.Prepare(`INSERT INTO users (id, username, password, role, email, created, modified, last_logout_time, last_login_time) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return dao.User{}, wrapDBError(err)
	}
	newEmail := ""
	if user.Email != nil {
		newEmail = user.Email.Address
	}
	now := time.Now()
	_, err = stmt.ExecContext(ctx, newUUID.String(), user.Username, user.Password, user.Role.String(), newEmail, now.Unix(), now.Unix(), now.Unix(), user.LastLoginTime.Unix())
	if err != nil {
		return dao.User{}, wrapDBError(err)
	}

	return repo.GetByID(ctx, newUUID)
}

func (repo *UsersDB) GetAll(ctx context.Context) ([]dao.User, error) {
	rows, err := repo.db.QueryContext(ctx, `SELECT id, username, password, role, email, created, modified, last_logout_time, last_login_time FROM users;`)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var all []dao.User

	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return all, err
		}
		all = append(all, user)
	}

	if err := rows.Err(); err != nil {
		return all, wrapDBError(err)
	}

	return all, nil
}

func (repo *UsersDB) Update(ctx context.Context, id uuid.UUID, user dao.User) (dao.User, error) {
	newEmail := ""
	if user.Email != nil {
		newEmail = user.Email.Address
	}
	res, err := repo.db.ExecContext(ctx, `UPDATE users SET id=?, username=?, password=?, role=?, email=?, modified=?, last_logout_time=?, last_login_time=? WHERE id=?;`,
		user.ID.String(),
		user.Username,
		user.Password,
		user.Role.String(),
		newEmail,
		time.Now().Unix(),
		user.LastLogoutTime.Unix(),
		user.LastLoginTime.Unix(),
		id.String(),
	)
	if err != nil {
		return dao.User{}, wrapDBError(err)
	}
	rowsAff, err := res.RowsAffected()
	if err != nil {
		return dao.User{}, wrapDBError(err)
	}
	if rowsAff < 1 {
		return dao.User{}, dao.ErrNotFound
	}

	return repo.GetByID(ctx, user.ID)
}

func (repo *UsersDB) GetByUsername(ctx context.Context, username string) (dao.User, error) {
	row := repo.db.QueryRowContext(ctx, `SELECT id, username, password, role, email, created, modified, last_logout_time, last_login_time FROM users WHERE username = ?;`,
		username,
	)

	return scanUserRow(row)
}

func (repo *UsersDB) GetByID(ctx context.Context, id uuid.UUID) (dao.User, error) {
	row := repo.db.QueryRowContext(ctx, `SELECT id, username, password, role, email, created, modified, last_logout_time, last_login_time FROM users WHERE id = ?;`,
		id.String(),
	)

	return scanUserRow(row)
}

func (repo *UsersDB) Delete(ctx context.Context, id uuid.UUID) (dao.User, error) {
	curVal, err := repo.GetByID(ctx, id)
	if err != nil {
		return curVal, err
	}

	res, err := repo.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id.String())
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

func (repo *UsersDB) Close() error {
	return repo.db.Close()
}

type userScanner interface {
	Scan(dest ...any) error
}

func scanUser(rows *sql.Rows) (dao.User, error) {
	return scanUserRow(rows)
}

func scanUserRow(row userScanner) (dao.User, error) {
	var user dao.User
	var id string
	var email string
	var role string
	var created int64
	var modified int64
	var logout int64
	var login int64

	err := row.Scan(
		&id,
		&user.Username,
		&user.Password,
		&role,
		&email,
		&created,
		&modified,
		&logout,
		&login,
	)
	if err != nil {
		return user, wrapDBError(err)
	}

	user.ID, err = uuid.Parse(id)
	if err != nil {
		return user, fmt.Errorf("stored UUID %q is invalid", id)
	}
	if email != "" {
		user.Email, err = mail.ParseAddress(email)
		if err != nil {
			return user, fmt.Errorf("stored email %q is invalid: %w", email, err)
		}
	}
	user.Role, err = dao.ParseRole(role)
	if err != nil {
		return user, fmt.Errorf("stored role %q is invalid: %w", role, err)
	}
	user.Created = time.Unix(created, 0)
	user.Modified = time.Unix(modified, 0)
	user.LastLogoutTime = time.Unix(logout, 0)
	user.LastLoginTime = time.Unix(login, 0)

	return user, nil
}
