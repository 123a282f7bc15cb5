package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"ai-hub/internal/middleware"
	"ai-hub/internal/repo"
	"ai-hub/internal/services/auth"
	"ai-hub/internal/services/extract"
	"ai-hub/internal/services/llm"
	"ai-hub/internal/services/mail"
	"ai-hub/internal/services/tools"
	"ai-hub/internal/services/transcript"
)

const maxJSONBody = 2 << 20

var (
	errInvalidBody = errors.New("Invalid request body")
	errInvalidID   = errors.New("Invalid id")
	errNoUpload    = errors.New("No file uploaded.")
	errEmptyNote   = errors.New("Title or content is required")
	errEmptyTitle  = errors.New("Title is required")
	errEmptyText   = errors.New("Text is required")
)

type Dispatcher interface {
	Dispatch(ctx context.Context, req llm.GenerationRequest) (llm.GenerationResult, error)
}

type Tools interface {
	CodeGen(ctx context.Context, prompt string) (tools.Output, error)
	Debug(ctx context.Context, code string) (tools.Output, error)
	AnalyzeResume(ctx context.Context, path, mimeType string) (tools.ResumeScore, error)
	SummarizeText(ctx context.Context, path, mimeType, service string) (tools.Summary, error)
	SummarizeVideo(ctx context.Context, req tools.VideoSummaryRequest) (tools.VideoSummary, error)
	RoadmapGenerate(ctx context.Context, req tools.RoadmapGenerateRequest) (llm.GenerationResult, error)
}

type Accounts interface {
	Signup(ctx context.Context, req auth.SignupRequest) (auth.Session, error)
	Login(ctx context.Context, req auth.LoginRequest) (auth.Session, error)
}

type GoogleAuth interface {
	AuthURL(ctx context.Context) (string, error)
	Callback(ctx context.Context, state, code string) (string, error)
}

type NotesStore interface {
	ListNotes(ctx context.Context, userID int64) ([]repo.Note, error)
	CreateNote(ctx context.Context, arg repo.CreateNoteParams) (repo.Note, error)
	DeleteNote(ctx context.Context, userID, id int64) error
}

type RoadmapStore interface {
	ListRoadmapItems(ctx context.Context, userID int64) ([]repo.RoadmapItem, error)
	CreateRoadmapItem(ctx context.Context, userID int64, title string) (repo.RoadmapItem, error)
	UpdateRoadmapItem(ctx context.Context, arg repo.UpdateRoadmapItemParams) error
	DeleteRoadmapItem(ctx context.Context, userID, id int64) error
	CreateSubtask(ctx context.Context, userID, itemID int64, text string) (repo.RoadmapSubtask, error)
	ToggleSubtask(ctx context.Context, userID, id int64) (repo.RoadmapSubtask, error)
	DeleteSubtask(ctx context.Context, userID, id int64) error
}

type ContactMailer interface {
	SendContact(ctx context.Context, msg mail.ContactMessage) error
}

type UploadConfig struct {
	Dir      string
	MaxBytes int64
}

// Deps are the services the handlers call. Every field is required.
type Deps struct {
	Dispatcher Dispatcher
	Tools      Tools
	Accounts   Accounts
	Google     GoogleAuth
	Notes      NotesStore
	Roadmap    RoadmapStore
	Mailer     ContactMailer
	Upload     UploadConfig
}

type Handlers struct {
	Deps
}

func NewHandlers(deps Deps) *Handlers {
	if deps.Upload.MaxBytes <= 0 {
		deps.Upload.MaxBytes = 10 << 20
	}
	return &Handlers{Deps: deps}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

type errorBody struct {
	Error                    string `json:"error"`
	RequiresManualTranscript bool   `json:"requiresManualTranscript,omitempty"`
}

// writeError maps service errors onto status codes. Messages of unknown
// errors are logged and never sent to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classify(err)
	if status >= http.StatusInternalServerError {
		log.Error().
			Err(err).
			Str("request_id", chimiddleware.GetReqID(r.Context())).
			Str("path", r.URL.Path).
			Msg("Request failed")
	}
	writeJSON(w, status, body)
}

var statusBySentinel = []struct {
	err    error
	status int
}{
	{errInvalidBody, http.StatusBadRequest},
	{errInvalidID, http.StatusBadRequest},
	{errNoUpload, http.StatusBadRequest},
	{errEmptyNote, http.StatusBadRequest},
	{errEmptyTitle, http.StatusBadRequest},
	{errEmptyText, http.StatusBadRequest},
	{llm.ErrInvalidRequest, http.StatusBadRequest},
	{llm.ErrUnsupportedService, http.StatusBadRequest},
	{tools.ErrMissingPrompt, http.StatusBadRequest},
	{tools.ErrMissingCode, http.StatusBadRequest},
	{tools.ErrMissingTitle, http.StatusBadRequest},
	{tools.ErrMissingVideoURL, http.StatusBadRequest},
	{auth.ErrMissingSignupFields, http.StatusBadRequest},
	{auth.ErrMissingCredentials, http.StatusBadRequest},
	{auth.ErrPasswordTooLong, http.StatusBadRequest},
	{auth.ErrInvalidOAuthState, http.StatusBadRequest},
	{auth.ErrMissingOAuthCode, http.StatusBadRequest},
	{auth.ErrGoogleProfile, http.StatusBadRequest},
	{auth.ErrInvalidCredentials, http.StatusUnauthorized},
	{auth.ErrInvalidToken, http.StatusUnauthorized},
	{auth.ErrEmailTaken, http.StatusConflict},
	{auth.ErrGoogleNotConfigured, http.StatusServiceUnavailable},
	{extract.ErrUnsupportedFileType, http.StatusInternalServerError},
	{extract.ErrEmptyOrImageOnlyPDF, http.StatusInternalServerError},
	{llm.ErrMalformedAIResponse, http.StatusInternalServerError},
	{tools.ErrEmptySummary, http.StatusInternalServerError},
}

var manualTranscriptErrors = []error{
	transcript.ErrInvalidVideoURL,
	transcript.ErrNoTranscriptAvailable,
	transcript.ErrTranscriptTooShort,
}

// classify returns the status and body for err. Only sentinel messages reach
// the client; wrapped causes stay in the logs.
func classify(err error) (int, errorBody) {
	var providerErr *llm.ProviderError
	if errors.As(err, &providerErr) {
		return http.StatusInternalServerError, errorBody{Error: providerErr.Error()}
	}

	for _, sentinel := range manualTranscriptErrors {
		if errors.Is(err, sentinel) {
			return http.StatusBadRequest, errorBody{Error: sentinel.Error(), RequiresManualTranscript: true}
		}
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge, errorBody{Error: "Upload too large"}
	}

	if errors.Is(err, repo.ErrNotFound) {
		return http.StatusNotFound, errorBody{Error: "Not found"}
	}

	for _, e := range statusBySentinel {
		if errors.Is(err, e.err) {
			return e.status, errorBody{Error: e.err.Error()}
		}
	}

	return http.StatusInternalServerError, errorBody{Error: "Internal server error"}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return errInvalidBody
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}

// userID returns the authenticated user. Routes using it sit behind RequireAuth.
func userID(r *http.Request) int64 {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return 0
	}
	return claims.ID
}

type successResponse struct {
	Success bool `json:"success"`
}
