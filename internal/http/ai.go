package http

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"ai-hub/internal/services/extract"
	"ai-hub/internal/services/llm"
	"ai-hub/internal/services/tools"
)

// Generate handles POST /api/generate.
func (h *Handlers) Generate(w http.ResponseWriter, r *http.Request) {
	var req llm.GenerationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.Dispatcher.Dispatch(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) CodeGen(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	out, err := h.Tools.CodeGen(r.Context(), req.Prompt)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) Debug(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	out, err := h.Tools.Debug(r.Context(), req.Code)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// AnalyzeResume handles the multipart upload in field "resume".
func (h *Handlers) AnalyzeResume(w http.ResponseWriter, r *http.Request) {
	upload, err := h.receiveUpload(w, r, "resume")
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer upload.Release()

	score, err := h.Tools.AnalyzeResume(r.Context(), upload.Path, upload.MimeType)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, score)
}

// SummarizeText handles the multipart upload in field "file" with an optional
// "service" field.
func (h *Handlers) SummarizeText(w http.ResponseWriter, r *http.Request) {
	upload, err := h.receiveUpload(w, r, "file")
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer upload.Release()

	summary, err := h.Tools.SummarizeText(r.Context(), upload.Path, upload.MimeType, r.FormValue("service"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handlers) SummarizeVideo(w http.ResponseWriter, r *http.Request) {
	var req tools.VideoSummaryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	summary, err := h.Tools.SummarizeVideo(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// receiveUpload spools the multipart file in field to the upload directory.
// The caller must Release the result.
func (h *Handlers) receiveUpload(w http.ResponseWriter, r *http.Request, field string) (*extract.TempFile, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.Upload.MaxBytes+(1<<20))
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, errNoUpload
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			log.Warn().Err(err).Msg("Failed to remove multipart temp files")
		}
	}()

	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, errNoUpload
	}
	defer file.Close()

	if header.Size > h.Upload.MaxBytes {
		return nil, &http.MaxBytesError{Limit: h.Upload.MaxBytes}
	}

	return extract.SaveTemp(file, h.Upload.Dir, header.Filename, header.Header.Get("Content-Type"))
}
