package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"

	"ai-hub/internal/repo"
	"ai-hub/internal/services/auth"
)

// SeedUser is one account with the study data created for it.
type SeedUser struct {
	Name     string        `json:"name"`
	Email    string        `json:"email"`
	Password string        `json:"password"`
	Notes    []SeedNote    `json:"notes"`
	Roadmap  []SeedRoadmap `json:"roadmap"`
}

type SeedNote struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type SeedRoadmap struct {
	Title    string   `json:"title"`
	Notes    string   `json:"notes"`
	Subtasks []string `json:"subtasks"`
}

type Accounts interface {
	Signup(ctx context.Context, req auth.SignupRequest) (auth.Session, error)
}

type Store interface {
	CreateNote(ctx context.Context, arg repo.CreateNoteParams) (repo.Note, error)
	CreateRoadmapItem(ctx context.Context, userID int64, title string) (repo.RoadmapItem, error)
	UpdateRoadmapItem(ctx context.Context, arg repo.UpdateRoadmapItemParams) error
	CreateSubtask(ctx context.Context, userID, itemID int64, text string) (repo.RoadmapSubtask, error)
}

// Loader seeds accounts through the regular signup path so passwords are
// hashed the same way as for real users.
type Loader struct {
	accounts Accounts
	store    Store
}

func NewLoader(accounts Accounts, store Store) *Loader {
	return &Loader{accounts: accounts, store: store}
}

// LoadFromDirectory loads every .json file under dirPath.
func (l *Loader) LoadFromDirectory(ctx context.Context, dirPath string) error {
	return filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(path), ".json") {
			return nil
		}
		return l.LoadFromFile(ctx, path)
	})
}

// LoadFromFile loads a JSON array of users. A user that fails to load is
// logged and skipped.
func (l *Loader) LoadFromFile(ctx context.Context, filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read seed file %s: %w", filePath, err)
	}

	var users []SeedUser
	if err := sonic.Unmarshal(data, &users); err != nil {
		return fmt.Errorf("failed to decode seed file %s: %w", filePath, err)
	}

	log.Info().Str("file", filePath).Int("users", len(users)).Msg("Loading seed file")
	l.loadAll(ctx, users)
	return nil
}

// LoadDemo creates the built-in demo account.
func (l *Loader) LoadDemo(ctx context.Context) {
	l.loadAll(ctx, DemoUsers())
}

func (l *Loader) loadAll(ctx context.Context, users []SeedUser) {
	for _, u := range users {
		err := l.LoadUser(ctx, u)
		switch {
		case errors.Is(err, auth.ErrEmailTaken):
			log.Info().Str("email", u.Email).Msg("Seed user already exists, skipping")
		case err != nil:
			log.Error().Err(err).Str("email", u.Email).Msg("Failed to load seed user")
		default:
			log.Info().Str("email", u.Email).Msg("Loaded seed user")
		}
	}
}

// LoadUser creates the account and then its notes and roadmap. Existing
// accounts are left untouched and reported as auth.ErrEmailTaken.
func (l *Loader) LoadUser(ctx context.Context, u SeedUser) error {
	session, err := l.accounts.Signup(ctx, auth.SignupRequest{
		Name:     u.Name,
		Email:    u.Email,
		Password: u.Password,
	})
	if err != nil {
		return err
	}
	userID := session.User.ID

	for _, n := range u.Notes {
		if _, err := l.store.CreateNote(ctx, repo.CreateNoteParams{
			UserID:  userID,
			Title:   n.Title,
			Content: n.Content,
		}); err != nil {
			return fmt.Errorf("failed to create note %q: %w", n.Title, err)
		}
	}

	for _, r := range u.Roadmap {
		item, err := l.store.CreateRoadmapItem(ctx, userID, r.Title)
		if err != nil {
			return fmt.Errorf("failed to create roadmap item %q: %w", r.Title, err)
		}
		if r.Notes != "" {
			notes := r.Notes
			if err := l.store.UpdateRoadmapItem(ctx, repo.UpdateRoadmapItemParams{
				ID:     item.ID,
				UserID: userID,
				Notes:  &notes,
			}); err != nil {
				return fmt.Errorf("failed to set notes on %q: %w", r.Title, err)
			}
		}
		for _, text := range r.Subtasks {
			if _, err := l.store.CreateSubtask(ctx, userID, item.ID, text); err != nil {
				return fmt.Errorf("failed to create subtask %q: %w", text, err)
			}
		}
	}
	return nil
}

// DemoUsers is the account created by -seed demo.
func DemoUsers() []SeedUser {
	return []SeedUser{
		{
			Name:     "Alice",
			Email:    "alice@example.com",
			Password: "password123",
			Notes: []SeedNote{
				{Title: "Big-O cheat sheet", Content: "O(1) < O(log n) < O(n) < O(n log n) < O(n^2)"},
				{Title: "Interview prep", Content: "Review graphs and dynamic programming before Friday."},
			},
			Roadmap: []SeedRoadmap{
				{
					Title:    "Learn Go",
					Notes:    "Focus on concurrency after the basics.",
					Subtasks: []string{"Tour of Go", "Goroutines and channels", "Build a REST API"},
				},
				{
					Title:    "Data Structures",
					Subtasks: []string{"Linked lists", "Trees", "Hash maps"},
				},
			},
		},
	}
}
