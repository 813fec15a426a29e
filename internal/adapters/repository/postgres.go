package repository

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/okian/carom/internal/domain/model"
)

//go:embed schema.sql
var schema embed.FS

// uniqueViolation is the PostgreSQL SQLSTATE for duplicate keys.
const uniqueViolation = "23505"

// PostgresStore is a Store backed by PostgreSQL through a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to dsn and applies the embedded schema.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s := &PostgresStore{pool: pool}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Migrate applies the embedded schema. It is idempotent.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	sqlBytes, err := schema.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}
	if _, err := s.pool.Exec(ctx, string(sqlBytes)); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, u model.User) (err error) {
	defer func(start time.Time) { observe(DriverPostgres, "create_user", start, err) }(time.Now())
	_, err = s.pool.Exec(ctx,
		`INSERT INTO users(id, name, handicap, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.Name, u.Handicap, u.CreatedAt, u.UpdatedAt)
	if isPgUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

func (s *PostgresStore) GetUser(ctx context.Context, id string) (u model.User, err error) {
	defer func(start time.Time) { observe(DriverPostgres, "get_user", start, err) }(time.Now())
	err = s.pool.QueryRow(ctx,
		`SELECT id, name, handicap, created_at, updated_at FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Name, &u.Handicap, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	return u, err
}

func (s *PostgresStore) ListUsers(ctx context.Context) (users []model.User, err error) {
	defer func(start time.Time) { observe(DriverPostgres, "list_users", start, err) }(time.Now())
	rows, err := s.pool.Query(ctx, `SELECT id, name, handicap, created_at, updated_at FROM users ORDER BY name COLLATE "C", id`)
	if err != nil {
		return nil, err
	}
	users, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.User, error) {
		var u model.User
		err := row.Scan(&u.ID, &u.Name, &u.Handicap, &u.CreatedAt, &u.UpdatedAt)
		return u, err
	})
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []model.User{}
	}
	return users, nil
}

func (s *PostgresStore) UpdateUser(ctx context.Context, u model.User) (err error) {
	defer func(start time.Time) { observe(DriverPostgres, "update_user", start, err) }(time.Now())
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET name = $2, handicap = $3, updated_at = $4 WHERE id = $1`,
		u.ID, u.Name, u.Handicap, u.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) AddGame(ctx context.Context, g model.Game) (err error) {
	defer func(start time.Time) { observe(DriverPostgres, "add_game", start, err) }(time.Now())
	doc, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("encode game: %w", err)
	}
	var date *time.Time
	if g.HasDate() {
		date = &g.GameDate
	}
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO games(id, user_id, game_date, created_at, doc)
		SELECT $1::text, id, $3::timestamptz, $4::timestamptz, $5::jsonb FROM users WHERE id = $2`,
		g.ID, g.UserID, date, g.CreatedAt, doc)
	if isPgUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) GetGame(ctx context.Context, userID, gameID string) (g model.Game, err error) {
	defer func(start time.Time) { observe(DriverPostgres, "get_game", start, err) }(time.Now())
	var doc []byte
	err = s.pool.QueryRow(ctx, `SELECT doc FROM games WHERE id = $1 AND user_id = $2`, gameID, userID).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Game{}, ErrNotFound
	}
	if err != nil {
		return model.Game{}, err
	}
	err = json.Unmarshal(doc, &g)
	return g, err
}

func (s *PostgresStore) DeleteGame(ctx context.Context, userID, gameID string) (err error) {
	defer func(start time.Time) { observe(DriverPostgres, "delete_game", start, err) }(time.Now())
	tag, err := s.pool.Exec(ctx, `DELETE FROM games WHERE id = $1 AND user_id = $2`, gameID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListGames(ctx context.Context, userID string) (games []model.Game, err error) {
	defer func(start time.Time) { observe(DriverPostgres, "list_games", start, err) }(time.Now())
	if _, err = s.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, `SELECT doc FROM games WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	games, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Game, error) {
		var (
			g   model.Game
			doc []byte
		)
		if err := row.Scan(&doc); err != nil {
			return g, err
		}
		err := json.Unmarshal(doc, &g)
		return g, err
	})
	if err != nil {
		return nil, err
	}
	if games == nil {
		games = []model.Game{}
	}
	model.SortByDateDesc(games)
	return games, nil
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func isPgUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
