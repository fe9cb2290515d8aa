// Package localdb is a single-file SQLite backend implementing the remote
// record stores, for running TaskHive without a PostgreSQL server.
package localdb

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schema string

// DB wraps the SQLite connection.
type DB struct {
	conn *sqlx.DB
}

// Open opens (creating if needed) the database at path and applies the
// schema. Use ":memory:" for a throwaway database.
func Open(path string) (*DB, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		dsn = path
	}

	conn, err := sqlx.Open("sqlite3", dsn+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// Every connection to :memory: is its own database.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.Migrate(context.Background()); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Migrate applies the embedded schema. It is idempotent.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Projects returns the projects table store.
func (db *DB) Projects() *ProjectStore { return &ProjectStore{db: db} }

// Tasks returns the tasks table store.
func (db *DB) Tasks() *TaskStore { return &TaskStore{db: db} }

// SubTasks returns the sub_tasks table store.
func (db *DB) SubTasks() *SubTaskStore { return &SubTaskStore{db: db} }

// Activities returns the activities table store.
func (db *DB) Activities() *ActivityStore { return &ActivityStore{db: db} }

// Profiles returns the user_profiles table store.
func (db *DB) Profiles() *ProfileStore { return &ProfileStore{db: db} }

// Auth returns the users and sessions store.
func (db *DB) Auth() *AuthStore { return &AuthStore{db: db} }

// update runs a whitelisted partial UPDATE stamped with updated_at when
// stamp is set. It reports whether a row matched.
func (db *DB) update(ctx context.Context, table, id string, stamp bool, allowed []string, updates map[string]any, conv func(string, any) (any, error)) (bool, error) {
	var (
		sets []string
		args []any
	)
	if stamp {
		sets = append(sets, "updated_at = ?")
		args = append(args, now())
	}
	for _, col := range allowed {
		v, ok := updates[col]
		if !ok {
			continue
		}
		if conv != nil {
			var err error
			if v, err = conv(col, v); err != nil {
				return false, err
			}
		}
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if len(sets) == 0 {
		var n int
		err := db.conn.GetContext(ctx, &n, `SELECT COUNT(*) FROM `+table+` WHERE id = ?`, id)
		return n > 0, err
	}

	args = append(args, id)
	res, err := db.conn.ExecContext(ctx, `UPDATE `+table+` SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique
}

// ErrNoRow is returned by Update when the id matches nothing.
var ErrNoRow = errors.New("no such row")
