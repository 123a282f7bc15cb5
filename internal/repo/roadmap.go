package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"
)

// Notes and expanded are nullable in older tables; rows created with only
// (user_id, title) read back as "" and false.
const (
	roadmapItemColumns = `id, user_id, title, COALESCE(notes, '') AS notes,
		COALESCE(expanded, false) AS expanded, created_at`
	subtaskColumns = `s.id, s.item_id, s.text, COALESCE(s.done, false) AS done`
)

// ListRoadmapItems returns the user's items, newest first, each with its subtasks.
func (r *repository) ListRoadmapItems(ctx context.Context, userID int64) ([]RoadmapItem, error) {
	var (
		items    []RoadmapItem
		subtasks []RoadmapSubtask
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, _ := r.db.pool.Query(gctx,
			`SELECT `+roadmapItemColumns+`
			 FROM roadmap_items WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, userID)
		var err error
		items, err = pgx.CollectRows(rows, pgx.RowToStructByName[RoadmapItem])
		return err
	})
	g.Go(func() error {
		rows, _ := r.db.pool.Query(gctx,
			`SELECT `+subtaskColumns+`
			 FROM roadmap_subtasks s
			 JOIN roadmap_items i ON i.id = s.item_id
			 WHERE i.user_id = $1 ORDER BY s.id`, userID)
		var err error
		subtasks, err = pgx.CollectRows(rows, pgx.RowToStructByName[RoadmapSubtask])
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to list roadmap: %w", err)
	}

	return groupSubtasks(items, subtasks), nil
}

// groupSubtasks attaches each subtask to its parent item. Items always get a
// non-nil slice so they encode as [] rather than null.
func groupSubtasks(items []RoadmapItem, subtasks []RoadmapSubtask) []RoadmapItem {
	byItem := make(map[int64][]RoadmapSubtask, len(items))
	for _, st := range subtasks {
		byItem[st.ItemID] = append(byItem[st.ItemID], st)
	}
	for i := range items {
		items[i].SubTasks = byItem[items[i].ID]
		if items[i].SubTasks == nil {
			items[i].SubTasks = []RoadmapSubtask{}
		}
	}
	if items == nil {
		items = []RoadmapItem{}
	}
	return items
}

func (r *repository) CreateRoadmapItem(ctx context.Context, userID int64, title string) (RoadmapItem, error) {
	rows, _ := r.db.pool.Query(ctx,
		`INSERT INTO roadmap_items (user_id, title)
		 VALUES ($1, $2)
		 RETURNING `+roadmapItemColumns, userID, title)

	item, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[RoadmapItem])
	if err != nil {
		return RoadmapItem{}, fmt.Errorf("failed to create roadmap item: %w", err)
	}
	item.SubTasks = []RoadmapSubtask{}
	return item, nil
}

func (r *repository) UpdateRoadmapItem(ctx context.Context, arg UpdateRoadmapItemParams) error {
	tag, err := r.db.pool.Exec(ctx,
		`UPDATE roadmap_items SET
		   title = COALESCE($1, title),
		   notes = COALESCE($2, notes),
		   expanded = COALESCE($3, expanded)
		 WHERE id = $4 AND user_id = $5`,
		arg.Title, arg.Notes, arg.Expanded, arg.ID, arg.UserID)
	if err != nil {
		return fmt.Errorf("failed to update roadmap item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteRoadmapItem removes the item and its subtasks in one transaction.
func (r *repository) DeleteRoadmapItem(ctx context.Context, userID, id int64) error {
	return pgx.BeginFunc(ctx, r.db.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`DELETE FROM roadmap_subtasks
			 WHERE item_id IN (SELECT id FROM roadmap_items WHERE id = $1 AND user_id = $2)`,
			id, userID)
		if err != nil {
			return fmt.Errorf("failed to delete subtasks: %w", err)
		}

		tag, err := tx.Exec(ctx,
			`DELETE FROM roadmap_items WHERE id = $1 AND user_id = $2`, id, userID)
		if err != nil {
			return fmt.Errorf("failed to delete roadmap item: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// CreateSubtask inserts only when the parent item belongs to userID.
func (r *repository) CreateSubtask(ctx context.Context, userID, itemID int64, text string) (RoadmapSubtask, error) {
	rows, _ := r.db.pool.Query(ctx,
		`INSERT INTO roadmap_subtasks AS s (item_id, text)
		 SELECT id, $3 FROM roadmap_items WHERE id = $1 AND user_id = $2
		 RETURNING `+subtaskColumns,
		itemID, userID, text)

	st, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[RoadmapSubtask])
	if err != nil {
		return RoadmapSubtask{}, notFound(err)
	}
	return st, nil
}

func (r *repository) ToggleSubtask(ctx context.Context, userID, id int64) (RoadmapSubtask, error) {
	rows, _ := r.db.pool.Query(ctx,
		`UPDATE roadmap_subtasks s SET done = NOT COALESCE(s.done, false)
		 FROM roadmap_items i
		 WHERE s.id = $1 AND s.item_id = i.id AND i.user_id = $2
		 RETURNING `+subtaskColumns,
		id, userID)

	st, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[RoadmapSubtask])
	if err != nil {
		return RoadmapSubtask{}, notFound(err)
	}
	return st, nil
}

func (r *repository) DeleteSubtask(ctx context.Context, userID, id int64) error {
	tag, err := r.db.pool.Exec(ctx,
		`DELETE FROM roadmap_subtasks s
		 USING roadmap_items i
		 WHERE s.id = $1 AND s.item_id = i.id AND i.user_id = $2`,
		id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete subtask: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
