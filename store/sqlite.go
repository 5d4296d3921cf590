package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"nutricoach"
)

//go:embed schema.sql
var ddl embed.FS

// SQLiteStore is a local meal record store backed by an embedded SQLite
// database.
type SQLiteStore struct {
	db   *sql.DB
	user string
}

// NewSQLiteStore opens (creating if needed) the database at path and runs the
// schema migration. The user id is fixed for the store's lifetime; empty
// falls back to the anonymous identity.
func NewSQLiteStore(path, user string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, err
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	if user == "" {
		user = AnonymousUser
	}
	return &SQLiteStore{db: db, user: user}, nil
}

func migrate(db *sql.DB) error {
	b, err := ddl.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	_, err = db.Exec(string(b))
	return err
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) CreateMeal(ctx context.Context, record nutricoach.MealRecord) (nutricoach.MealRecord, error) {
	record.ID = uuid.NewString()
	record.CreatedAt = time.Now()
	if record.UserID == "" {
		record.UserID = s.user
	}
	if record.LoggedAt.IsZero() {
		record.LoggedAt = record.CreatedAt
	}

	_, err := s.db.ExecContext(ctx, `
        INSERT INTO meal_logs
            (id, user_id, meal_name, meal_type, calories, protein, carbs, fat, fiber, sugar, sodium, confidence, logged_at, created_at)
        VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		record.ID, record.UserID, record.Name, string(record.MealType),
		record.Calories, record.Protein, record.Carbs, record.Fat,
		record.Fiber, record.Sugar, record.Sodium, record.Confidence,
		record.LoggedAt.Unix(), record.CreatedAt.Unix(),
	)
	if err != nil {
		return nutricoach.MealRecord{}, fmt.Errorf("create meal record: %w", err)
	}
	return record, nil
}

func (s *SQLiteStore) DeleteMeal(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM meal_logs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete meal record: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("meal record %q not found", id)
	}
	return nil
}

func (s *SQLiteStore) ListMeals(ctx context.Context, userID string, from, to time.Time) ([]nutricoach.MealRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, user_id, meal_name, meal_type, calories, protein, carbs, fat, fiber, sugar, sodium, confidence, logged_at, created_at
        FROM meal_logs
        WHERE user_id = ? AND logged_at >= ? AND logged_at < ?
        ORDER BY logged_at DESC`,
		userID, from.Unix(), to.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("list meal records: %w", err)
	}
	defer rows.Close()

	var out []nutricoach.MealRecord
	for rows.Next() {
		var r nutricoach.MealRecord
		var mealType string
		var loggedAt, createdAt int64
		if err := rows.Scan(
			&r.ID, &r.UserID, &r.Name, &mealType,
			&r.Calories, &r.Protein, &r.Carbs, &r.Fat,
			&r.Fiber, &r.Sugar, &r.Sodium, &r.Confidence,
			&loggedAt, &createdAt,
		); err != nil {
			return nil, err
		}
		r.MealType = nutricoach.MealType(mealType)
		r.LoggedAt = time.Unix(loggedAt, 0)
		r.CreatedAt = time.Unix(createdAt, 0)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CurrentUser(ctx context.Context) (string, error) {
	return s.user, nil
}
