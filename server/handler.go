package server

import (
	"errors"
	"io"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/hupe1980/resumevec"
	"github.com/hupe1980/resumevec/record"
	"github.com/hupe1980/resumevec/search"
)

type handler struct {
	svc *resumevec.Service
}

type resumeResponse struct {
	ID             string    `json:"id"`
	OwnerID        string    `json:"owner_id"`
	SourceName     string    `json:"source_name,omitempty"`
	SourceLocation string    `json:"source_location,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type matchResponse struct {
	Resume   resumeResponse `json:"resume"`
	Distance float32        `json:"distance"`
}

type searchRequest struct {
	Query   string `json:"query"`
	K       int    `json:"k"`
	OwnerID string `json:"owner_id"`
}

func toResumeResponse(rec *record.Record) resumeResponse {
	return resumeResponse{
		ID:             rec.ID,
		OwnerID:        rec.OwnerID,
		SourceName:     rec.SourceName,
		SourceLocation: rec.SourceLocation,
		CreatedAt:      rec.CreatedAt,
	}
}

func toMatchResponses(matches []resumevec.Match) []matchResponse {
	out := make([]matchResponse, 0, len(matches))
	for _, m := range matches {
		out = append(out, matchResponse{
			Resume:   toResumeResponse(m.Record),
			Distance: m.Distance,
		})
	}
	return out
}

// Upload ingests one resume from a multipart form file.
func (h *handler) Upload(c fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing form file \"file\""})
	}

	f, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "cannot open uploaded file"})
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "cannot read uploaded file"})
	}

	summary, err := h.svc.Ingest(c.Context(), resumevec.IngestRequest{
		Content:     content,
		Filename:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		OwnerID:     Principal(c),
	})
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(resumeResponse{
		ID:             summary.ID,
		OwnerID:        summary.OwnerID,
		SourceName:     summary.SourceName,
		SourceLocation: summary.SourceLocation,
		CreatedAt:      summary.CreatedAt,
	})
}

// List returns the caller's resumes in upload order.
func (h *handler) List(c fiber.Ctx) error {
	records, err := h.svc.ListByOwner(c.Context(), Principal(c))
	if err != nil {
		return errorResponse(c, err)
	}

	out := make([]resumeResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, toResumeResponse(rec))
	}

	return c.JSON(fiber.Map{"resumes": out, "count": len(out)})
}

// Get returns one of the caller's resumes.
func (h *handler) Get(c fiber.Ctx) error {
	rec, err := h.svc.Get(c.Context(), c.Params("id"), Principal(c))
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(toResumeResponse(rec))
}

// Delete removes one of the caller's resumes.
func (h *handler) Delete(c fiber.Ctx) error {
	if err := h.svc.Delete(c.Context(), c.Params("id"), Principal(c)); err != nil {
		return errorResponse(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Similar returns the resumes most similar to one of the caller's resumes.
func (h *handler) Similar(c fiber.Ctx) error {
	// The query vector comes from a stored resume, so the caller must own it.
	if _, err := h.svc.Get(c.Context(), c.Params("id"), Principal(c)); err != nil {
		return errorResponse(c, err)
	}

	k := queryInt(c, "k", 10)

	matches, err := h.svc.SearchBySimilar(c.Context(), c.Params("id"), k)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{"matches": toMatchResponses(matches), "count": len(matches)})
}

// Search runs a free-text similarity search across all resumes, optionally
// restricted to one owner.
func (h *handler) Search(c fiber.Ctx) error {
	var req searchRequest
	if err := c.Bind().JSON(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if req.K <= 0 {
		req.K = 10
	}

	matches, err := h.svc.SearchByText(c.Context(), req.Query, req.K, func(o *search.Options) {
		o.OwnerID = req.OwnerID
	})
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{"matches": toMatchResponses(matches), "count": len(matches)})
}

func queryInt(c fiber.Ctx, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}

	return v
}

// errorResponse maps service errors onto HTTP status codes.
func errorResponse(c fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError

	switch {
	case errors.Is(err, resumevec.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, resumevec.ErrNotOwner):
		status = fiber.StatusForbidden
	case errors.Is(err, resumevec.ErrDuplicateID):
		status = fiber.StatusConflict
	case errors.Is(err, resumevec.ErrInvalidDocument),
		errors.Is(err, resumevec.ErrEmptyContent),
		errors.Is(err, resumevec.ErrInvalidK):
		status = fiber.StatusBadRequest
	}

	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
