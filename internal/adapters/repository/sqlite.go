package repository

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/okian/carom/internal/domain/model"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore is a Store backed by a SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and applies
// pending migrations. path may be ":memory:".
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection serializes writers and keeps ":memory:" a single database.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if err := migrateSQLite(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func migrateSQLite(db *sql.DB) error {
	dir, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("access migrations: %w", err)
	}
	src, err := iofs.New(dir, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migration instance: %w", err)
	}
	// m is not closed: its database driver owns db.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func (s *SQLiteStore) CreateUser(ctx context.Context, u model.User) (err error) {
	defer func(start time.Time) { observe(DriverSQLite, "create_user", start, err) }(time.Now())
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users(id, name, handicap, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Handicap, u.CreatedAt.UnixNano(), u.UpdatedAt.UnixNano())
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

func (s *SQLiteStore) GetUser(ctx context.Context, id string) (u model.User, err error) {
	defer func(start time.Time) { observe(DriverSQLite, "get_user", start, err) }(time.Now())
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, handicap, created_at, updated_at FROM users WHERE id = ?`, id)
	u, err = scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	return u, err
}

func (s *SQLiteStore) ListUsers(ctx context.Context) (users []model.User, err error) {
	defer func(start time.Time) { observe(DriverSQLite, "list_users", start, err) }(time.Now())
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, handicap, created_at, updated_at FROM users ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users = []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *SQLiteStore) UpdateUser(ctx context.Context, u model.User) (err error) {
	defer func(start time.Time) { observe(DriverSQLite, "update_user", start, err) }(time.Now())
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET name = ?, handicap = ?, updated_at = ? WHERE id = ?`,
		u.Name, u.Handicap, u.UpdatedAt.UnixNano(), u.ID)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (s *SQLiteStore) AddGame(ctx context.Context, g model.Game) (err error) {
	defer func(start time.Time) { observe(DriverSQLite, "add_game", start, err) }(time.Now())
	var exists int
	if err = s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM users WHERE id = ?`, g.UserID).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return ErrNotFound
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO games(id, user_id, score, inning, result, game_type, game_date, memo, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.UserID, g.Score, g.Inning, string(g.Result), string(g.GameType),
		nullableTime(g.GameDate), g.Memo, g.CreatedAt.UnixNano())
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

func (s *SQLiteStore) GetGame(ctx context.Context, userID, gameID string) (g model.Game, err error) {
	defer func(start time.Time) { observe(DriverSQLite, "get_game", start, err) }(time.Now())
	row := s.db.QueryRowContext(ctx, `SELECT `+gameColumns+` FROM games WHERE id = ? AND user_id = ?`, gameID, userID)
	g, err = scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Game{}, ErrNotFound
	}
	return g, err
}

func (s *SQLiteStore) DeleteGame(ctx context.Context, userID, gameID string) (err error) {
	defer func(start time.Time) { observe(DriverSQLite, "delete_game", start, err) }(time.Now())
	res, err := s.db.ExecContext(ctx, `DELETE FROM games WHERE id = ? AND user_id = ?`, gameID, userID)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (s *SQLiteStore) ListGames(ctx context.Context, userID string) (games []model.Game, err error) {
	defer func(start time.Time) { observe(DriverSQLite, "list_games", start, err) }(time.Now())
	if _, err = s.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+gameColumns+` FROM games WHERE user_id = ?`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	games = []model.Game{}
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	model.SortByDateDesc(games)
	return games, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

const gameColumns = `id, user_id, score, inning, result, game_type, game_date, memo, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (model.User, error) {
	var (
		u                model.User
		created, updated int64
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Handicap, &created, &updated); err != nil {
		return model.User{}, err
	}
	u.CreatedAt = time.Unix(0, created).UTC()
	u.UpdatedAt = time.Unix(0, updated).UTC()
	return u, nil
}

func scanGame(row scanner) (model.Game, error) {
	var (
		g                model.Game
		result, gameType string
		date             sql.NullInt64
		created          int64
	)
	if err := row.Scan(&g.ID, &g.UserID, &g.Score, &g.Inning, &result, &gameType, &date, &g.Memo, &created); err != nil {
		return model.Game{}, err
	}
	g.Result = model.Result(result)
	g.GameType = model.GameType(gameType)
	if date.Valid {
		g.GameDate = time.Unix(0, date.Int64).UTC()
	}
	g.CreatedAt = time.Unix(0, created).UTC()
	return g, nil
}

func nullableTime(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixNano(), Valid: true}
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
