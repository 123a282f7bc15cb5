package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrEmailTaken = errors.New("email already registered")
)

// DB wraps the shared Postgres connection pool.
type DB struct {
	pool *pgxpool.Pool
}

// NewDB connects to Postgres and verifies the connection.
func NewDB(ctx context.Context, databaseURL string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Str("host", cfg.ConnConfig.Host).Str("database", cfg.ConnConfig.Database).Msg("Connected to PostgreSQL")
	return &DB{pool: pool}, nil
}

func (db *DB) Close() {
	db.pool.Close()
}

func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// Repository interface for database operations. Every note and roadmap
// method is scoped to the owning user.
type Repository interface {
	CreateUser(ctx context.Context, arg CreateUserParams) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUserByID(ctx context.Context, id int64) (User, error)
	UpsertOAuthUser(ctx context.Context, name, email string) (User, error)

	ListNotes(ctx context.Context, userID int64) ([]Note, error)
	CreateNote(ctx context.Context, arg CreateNoteParams) (Note, error)
	DeleteNote(ctx context.Context, userID, id int64) error

	ListRoadmapItems(ctx context.Context, userID int64) ([]RoadmapItem, error)
	CreateRoadmapItem(ctx context.Context, userID int64, title string) (RoadmapItem, error)
	UpdateRoadmapItem(ctx context.Context, arg UpdateRoadmapItemParams) error
	DeleteRoadmapItem(ctx context.Context, userID, id int64) error
	CreateSubtask(ctx context.Context, userID, itemID int64, text string) (RoadmapSubtask, error)
	ToggleSubtask(ctx context.Context, userID, id int64) (RoadmapSubtask, error)
	DeleteSubtask(ctx context.Context, userID, id int64) error
}

// User is an account. PasswordHash is nil for accounts created through Google.
type User struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash *string   `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

type Note struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"-" db:"user_id"`
	Title     string    `json:"title" db:"title"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type RoadmapItem struct {
	ID        int64            `json:"id" db:"id"`
	UserID    int64            `json:"user_id" db:"user_id"`
	Title     string           `json:"title" db:"title"`
	Notes     string           `json:"notes" db:"notes"`
	Expanded  bool             `json:"expanded" db:"expanded"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
	SubTasks  []RoadmapSubtask `json:"subTasks" db:"-"`
}

type RoadmapSubtask struct {
	ID     int64  `json:"id" db:"id"`
	ItemID int64  `json:"item_id" db:"item_id"`
	Text   string `json:"text" db:"text"`
	Done   bool   `json:"done" db:"done"`
}

type CreateUserParams struct {
	Name         string
	Email        string
	PasswordHash string
}

type CreateNoteParams struct {
	UserID  int64
	Title   string
	Content string
}

// UpdateRoadmapItemParams leaves a column untouched when its field is nil.
type UpdateRoadmapItemParams struct {
	ID       int64
	UserID   int64
	Title    *string
	Notes    *string
	Expanded *bool
}

type repository struct {
	db *DB
}

func NewRepository(db *DB) Repository {
	return &repository{db: db}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
