package shared

import (
	"context"
	"database/sql"
	"errors"
)

// SqlConnection is a wrapper around Go native sql.DB that satisfies Connector.
type SqlConnection struct {
	DbSql  *sql.DB
	DbType string
}

// Connector:

func (c *SqlConnection) Begin() (Transacter, error) {
	return c.BeginTx(context.Background())
}

func (c *SqlConnection) BeginTx(ctx context.Context) (Transacter, error) {
	if c.DbSql == nil {
		return nil, errors.New("SqlConnection was not configured correctly: DbSql is missing")
	}
	tx, err := c.DbSql.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &SqlTx{txSql: tx}, nil
}

func (c *SqlConnection) Exec(query string, args ...interface{}) (Result, error) {
	return c.ExecContext(context.Background(), query, args...)
}

func (c *SqlConnection) ExecContext(ctx context.Context, query string, args ...interface{}) (Result, error) {
	return c.DbSql.ExecContext(ctx, query, args...)
}

func (c *SqlConnection) Close() {
	if c.DbSql != nil {
		_ = c.DbSql.Close()
	}
}

func (c *SqlConnection) GetType() string {
	return c.DbType
}

// Transacter:

type SqlTx struct {
	txSql *sql.Tx
}

func (t *SqlTx) Exec(query string, args ...interface{}) (Result, error) {
	return t.ExecContext(context.Background(), query, args...)
}

func (t *SqlTx) ExecContext(ctx context.Context, query string, args ...interface{}) (Result, error) {
	return t.txSql.ExecContext(ctx, query, args...)
}

func (t *SqlTx) Commit() error {
	return t.txSql.Commit()
}

func (t *SqlTx) Rollback() error {
	return t.txSql.Rollback()
}
