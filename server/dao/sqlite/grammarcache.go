package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/dekarrin/earley/server/dao"
)

type GrammarCacheDB struct {
	db *sql.DB
}

func (repo *GrammarCacheDB) init() error {
	_, err := repo.db.Exec(`CREATE TABLE IF NOT EXISTS grammar_cache (
		name TEXT NOT NULL,
		version TEXT NOT NULL,
		blob TEXT NOT NULL,
		created INTEGER NOT NULL,
		PRIMARY KEY (name, version)
	);`)
	if err != nil {
		return wrapDBError(err)
	}
	return nil
}

func (repo *GrammarCacheDB) Create(ctx context.Context, g dao.GrammarCache) (dao.GrammarCache, error) {
	stmt, err := repo.db.Prepare(`INSERT INTO grammar_cache (name, version, blob, created) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return dao.GrammarCache{}, wrapDBError(err)
	}

	now := time.Now()
	_, err = stmt.ExecContext(ctx, g.Name, g.Version, convertToDB_ByteSlice(g.Blob), now.Unix())
	if err != nil {
		return dao.GrammarCache{}, wrapDBError(err)
	}

	return repo.GetByNameVersion(ctx, g.Name, g.Version)
}

func (repo *GrammarCacheDB) GetByNameVersion(ctx context.Context, name, version string) (dao.GrammarCache, error) {
	row := repo.db.QueryRowContext(ctx, `SELECT name, version, blob, created FROM grammar_cache WHERE name = ? AND version = ?;`,
		name, version,
	)

	return scanGrammarCacheRow(row)
}

func (repo *GrammarCacheDB) GetAllByName(ctx context.Context, name string) ([]dao.GrammarCache, error) {
	rows, err := repo.db.QueryContext(ctx, `SELECT name, version, blob, created FROM grammar_cache WHERE name = ?;`, name)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var all []dao.GrammarCache

	for rows.Next() {
		g, err := scanGrammarCacheRow(rows)
		if err != nil {
			return all, err
		}
		all = append(all, g)
	}

	if err := rows.Err(); err != nil {
		return all, wrapDBError(err)
	}

	if len(all) < 1 {
		return nil, dao.ErrNotFound
	}

	return all, nil
}

func (repo *GrammarCacheDB) GetAll(ctx context.Context) ([]dao.GrammarCache, error) {
	rows, err := repo.db.QueryContext(ctx, `SELECT name, version, blob, created FROM grammar_cache;`)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var all []dao.GrammarCache

	for rows.Next() {
		g, err := scanGrammarCacheRow(rows)
		if err != nil {
			return all, err
		}
		all = append(all, g)
	}

	if err := rows.Err(); err != nil {
		return all, wrapDBError(err)
	}

	return all, nil
}

func (repo *GrammarCacheDB) Delete(ctx context.Context, name, version string) (dao.GrammarCache, error) {
	curVal, err := repo.GetByNameVersion(ctx, name, version)
	if err != nil {
		return curVal, err
	}

	res, err := repo.db.ExecContext(ctx, `DELETE FROM grammar_cache WHERE name = ? AND version = ?`, name, version)
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

func (repo *GrammarCacheDB) Close() error {
	return nil
}

type grammarCacheScanner interface {
	Scan(dest ...any) error
}

func scanGrammarCacheRow(row grammarCacheScanner) (dao.GrammarCache, error) {
	var g dao.GrammarCache
	var blob string
	var created int64

	err := row.Scan(&g.Name, &g.Version, &blob, &created)
	if err != nil {
		return g, wrapDBError(err)
	}

	if err := convertFromDB_ByteSlice(blob, &g.Blob); err != nil {
		return g, err
	}
	g.Created = time.Unix(created, 0)

	return g, nil
}
