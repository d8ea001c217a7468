package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gboigwe/StratoLedger/internal/platform/middleware"
	"github.com/gboigwe/StratoLedger/internal/registry/models"
	"github.com/gboigwe/StratoLedger/internal/transport/http/shared"
	dErrors "github.com/gboigwe/StratoLedger/pkg/domain-errors"
	"github.com/gboigwe/StratoLedger/pkg/requestcontext"
)

// Service defines the registry operations the HTTP layer delegates to.
type Service interface {
	Register(ctx context.Context, caller models.Principal, req models.RegisterRequest) (models.RecordID, error)
	UpdateMetadata(ctx context.Context, caller models.Principal, id models.RecordID, req models.UpdateMetadataRequest) error
	Freeze(ctx context.Context, caller models.Principal, id models.RecordID) error
	Transfer(ctx context.Context, caller models.Principal, id models.RecordID, newOwner models.Principal) error
	Validate(ctx context.Context, validator models.Principal, id models.RecordID) error
	Get(ctx context.Context, id models.RecordID) (*models.DatasetRecord, error)
	ListByOwner(ctx context.Context, owner models.Principal) ([]models.RecordID, error)
	Count(ctx context.Context) (uint64, error)
	IsPublic(ctx context.Context, id models.RecordID) (bool, error)
	Attestations(ctx context.Context, id models.RecordID) ([]models.Attestation, error)
	GetAdmin(ctx context.Context) (models.Principal, error)
	SetAdmin(ctx context.Context, caller, newAdmin models.Principal) error
}

// Handler is the thin HTTP layer over the registry service. It owns request
// parsing and response mapping; business rules stay in the service.
type Handler struct {
	service   Service
	validator middleware.TokenValidator
	logger    *slog.Logger
}

func New(service Service, validator middleware.TokenValidator, logger *slog.Logger) *Handler {
	return &Handler{service: service, validator: validator, logger: logger}
}

// Register wires the registry routes. Reads are public; mutations require a
// bearer token resolving to the caller principal.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Get("/records/count", h.handleCount)
		r.Get("/records/{id}", h.handleGet)
		r.Get("/records/{id}/visibility", h.handleVisibility)
		r.Get("/records/{id}/attestations", h.handleAttestations)
		r.Get("/owners/{owner}/records", h.handleListByOwner)
		r.Get("/admin", h.handleGetAdmin)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.validator, h.logger))
		r.Post("/records", h.handleRegister)
		r.Put("/records/{id}/metadata", h.handleUpdateMetadata)
		r.Post("/records/{id}/freeze", h.handleFreeze)
		r.Post("/records/{id}/transfer", h.handleTransfer)
		r.Post("/records/{id}/validate", h.handleValidate)
		r.Put("/admin", h.handleSetAdmin)
	})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(ctx, w)
	if !ok {
		return
	}

	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	id, err := h.service.Register(ctx, caller, req)
	if err != nil {
		h.logRejected(ctx, "register", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, models.RegisterResponse{ID: id})
}

func (h *Handler) handleUpdateMetadata(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(ctx, w)
	if !ok {
		return
	}
	id, ok := h.recordID(w, r)
	if !ok {
		return
	}

	var req models.UpdateMetadataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := h.service.UpdateMetadata(ctx, caller, id, req); err != nil {
		h.logRejected(ctx, "update_metadata", err)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleFreeze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(ctx, w)
	if !ok {
		return
	}
	id, ok := h.recordID(w, r)
	if !ok {
		return
	}

	if err := h.service.Freeze(ctx, caller, id); err != nil {
		h.logRejected(ctx, "freeze", err)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(ctx, w)
	if !ok {
		return
	}
	id, ok := h.recordID(w, r)
	if !ok {
		return
	}

	var req models.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	newOwner, err := models.ParsePrincipal(req.NewOwner)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	if err := h.service.Transfer(ctx, caller, id, newOwner); err != nil {
		h.logRejected(ctx, "transfer", err)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(ctx, w)
	if !ok {
		return
	}
	id, ok := h.recordID(w, r)
	if !ok {
		return
	}

	if err := h.service.Validate(ctx, caller, id); err != nil {
		h.logRejected(ctx, "validate", err)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.recordID(w, r)
	if !ok {
		return
	}
	rec, err := h.service.Get(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, models.RecordResponse{Record: rec})
}

func (h *Handler) handleVisibility(w http.ResponseWriter, r *http.Request) {
	id, ok := h.recordID(w, r)
	if !ok {
		return
	}
	isPublic, err := h.service.IsPublic(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, models.VisibilityResponse{ID: id, IsPublic: isPublic})
}

func (h *Handler) handleAttestations(w http.ResponseWriter, r *http.Request) {
	id, ok := h.recordID(w, r)
	if !ok {
		return
	}
	atts, err := h.service.Attestations(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, models.AttestationsResponse{ID: id, Attestations: atts})
}

func (h *Handler) handleListByOwner(w http.ResponseWriter, r *http.Request) {
	owner, err := models.ParsePrincipal(chi.URLParam(r, "owner"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	ids, err := h.service.ListByOwner(r.Context(), owner)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, models.OwnerRecordsResponse{Owner: owner.String(), Records: ids})
}

func (h *Handler) handleCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.Count(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, models.CountResponse{Count: count})
}

func (h *Handler) handleGetAdmin(w http.ResponseWriter, r *http.Request) {
	admin, err := h.service.GetAdmin(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, models.AdminResponse{Admin: admin.String()})
}

func (h *Handler) handleSetAdmin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(ctx, w)
	if !ok {
		return
	}

	var req models.SetAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	newAdmin, err := models.ParsePrincipal(req.NewAdmin)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	if err := h.service.SetAdmin(ctx, caller, newAdmin); err != nil {
		h.logRejected(ctx, "set_admin", err)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) caller(ctx context.Context, w http.ResponseWriter) (models.Principal, bool) {
	caller, err := models.ParsePrincipal(requestcontext.Caller(ctx))
	if err != nil {
		// RequireAuth already ran; an empty caller here is a wiring bug.
		h.logger.ErrorContext(ctx, "caller missing from context despite auth middleware",
			"request_id", requestcontext.RequestID(ctx),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return "", false
	}
	return caller, true
}

func (h *Handler) recordID(w http.ResponseWriter, r *http.Request) (models.RecordID, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "record id must be a positive integer"))
		return 0, false
	}
	return models.RecordID(id), true
}

func (h *Handler) logRejected(ctx context.Context, operation string, err error) {
	if dErrors.Is(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(ctx, "registry operation failed",
			"operation", operation,
			"error", err.Error(),
			"request_id", requestcontext.RequestID(ctx),
		)
		return
	}
	h.logger.WarnContext(ctx, "registry operation rejected",
		"operation", operation,
		"error", err.Error(),
		"request_id", requestcontext.RequestID(ctx),
	)
}
