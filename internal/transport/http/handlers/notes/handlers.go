package noteshandler

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"milestonenotifier/internal/domain/auth"
	"milestonenotifier/internal/domain/milestones"
	"milestonenotifier/internal/domain/notes"
	"milestonenotifier/internal/transport/http/api"
	"milestonenotifier/internal/transport/http/middleware"
	"milestonenotifier/internal/transport/http/shared"
)

type Handler struct {
	Service *notes.Service
}

func NewHandler(service *notes.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/notes", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermNotesRead)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermNotesRead)).Get("/{noteID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermNotesRead)).Get("/{noteID}/certificate", h.handleCertificate)
		r.With(middleware.RequirePermission(auth.PermNotesWrite)).Post("/{noteID}/action", h.handleAction)
		r.With(middleware.RequirePermission(auth.PermNotesWrite)).Delete("/{noteID}", h.handleDelete)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	query := r.URL.Query()
	filter := notes.Filter{
		Name:   query.Get("name"),
		Status: query.Get("status"),
		Source: query.Get("source"),
	}

	v := shared.NewValidator()
	v.Enum("status", filter.Status, []string{notes.StatusUnactioned, notes.StatusActioned}, "must be unactioned or actioned")
	page := v.Pagination(r, 25, 100)
	if v.Reject(w, requestID) {
		return
	}

	total, err := h.Service.Count(r.Context(), filter)
	if err != nil {
		slog.Warn("note count failed", "err", err)
	}

	items, err := h.Service.List(r.Context(), filter, page.Limit, page.Offset)
	if err != nil {
		slog.Error("note list failed", "err", err, "requestId", requestID)
		api.Fail(w, http.StatusInternalServerError, "note_list_failed", "failed to list notes", requestID)
		return
	}
	if items == nil {
		items = []notes.Note{}
	}

	page.WriteHeaders(w, r, total)
	api.Success(w, items, requestID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	note, ok := h.loadNote(w, r)
	if !ok {
		return
	}
	api.Success(w, note, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAction(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	noteID := chi.URLParam(r, "noteID")

	if err := h.Service.MarkActioned(r.Context(), user.UserID, requestID, noteID); err != nil {
		h.fail(w, err, "note_update_failed", "failed to update note", requestID)
		return
	}
	api.Success(w, map[string]string{"id": noteID, "status": notes.StatusActioned}, requestID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	noteID := chi.URLParam(r, "noteID")

	if err := h.Service.Delete(r.Context(), user.UserID, requestID, noteID); err != nil {
		h.fail(w, err, "note_delete_failed", "failed to delete note", requestID)
		return
	}
	api.Success(w, map[string]string{"id": noteID, "status": "deleted"}, requestID)
}

func (h *Handler) handleCertificate(w http.ResponseWriter, r *http.Request) {
	note, ok := h.loadNote(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())

	var buf bytes.Buffer
	if err := milestones.RenderCertificate(&buf, note); err != nil {
		slog.Error("certificate render failed", "noteId", note.ID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "certificate_failed", "failed to render certificate", requestID)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+note.Name+`.pdf"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) loadNote(w http.ResponseWriter, r *http.Request) (notes.Note, bool) {
	requestID := middleware.GetRequestID(r.Context())
	note, err := h.Service.Get(r.Context(), chi.URLParam(r, "noteID"))
	if err != nil {
		h.fail(w, err, "note_fetch_failed", "failed to load note", requestID)
		return notes.Note{}, false
	}
	return note, true
}

func (h *Handler) fail(w http.ResponseWriter, err error, code, message, requestID string) {
	if errors.Is(err, notes.ErrNoteNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "note not found", requestID)
		return
	}
	slog.Error(message, "err", err, "requestId", requestID)
	api.Fail(w, http.StatusInternalServerError, code, message, requestID)
}
