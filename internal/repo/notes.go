package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const noteColumns = `id, user_id, COALESCE(title, '') AS title,
	COALESCE(content, '') AS content, created_at`

func (r *repository) ListNotes(ctx context.Context, userID int64) ([]Note, error) {
	rows, _ := r.db.pool.Query(ctx,
		`SELECT `+noteColumns+`
		 FROM notes WHERE user_id = $1 ORDER BY id DESC`, userID)

	notes, err := pgx.CollectRows(rows, pgx.RowToStructByName[Note])
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	if notes == nil {
		notes = []Note{}
	}
	return notes, nil
}

func (r *repository) CreateNote(ctx context.Context, arg CreateNoteParams) (Note, error) {
	rows, _ := r.db.pool.Query(ctx,
		`INSERT INTO notes (user_id, title, content)
		 VALUES ($1, $2, $3)
		 RETURNING `+noteColumns,
		arg.UserID, arg.Title, arg.Content)

	note, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[Note])
	if err != nil {
		return Note{}, fmt.Errorf("failed to create note: %w", err)
	}
	return note, nil
}

func (r *repository) DeleteNote(ctx context.Context, userID, id int64) error {
	tag, err := r.db.pool.Exec(ctx,
		`DELETE FROM notes WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
