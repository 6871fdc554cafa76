// Package handler exposes the student registry over HTTP for the mobile
// client: lookup, registration, profile edits, photo upload, card rendering
// and third-party validation.
package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"

	"carteirinha/internal/platform/config"
	"carteirinha/internal/platform/metrics"
	"carteirinha/internal/platform/middleware"
	"carteirinha/internal/student/card"
	"carteirinha/internal/student/models"
	"carteirinha/internal/student/service"
	pkgerrors "carteirinha/pkg/errors"
)

// maxPhotoUploadBytes caps the multipart body before normalization sees it.
const maxPhotoUploadBytes = 10 << 20

// Service defines the registry operations the handlers call.
type Service interface {
	Lookup(ctx context.Context, rawCPF string) (models.Student, error)
	Register(ctx context.Context, in service.RegisterInput) (models.Student, error)
	UpdateProfile(ctx context.Context, rawCPF string, patch models.StudentPatch) (models.Student, error)
	Delete(ctx context.Context, rawCPF string) error
	ValidateByUsageCode(ctx context.Context, code string) (models.Student, error)
	UploadPhoto(ctx context.Context, rawCPF string, data []byte, previousRef string) (string, error)
}

// Handler handles the student registry endpoints.
type Handler struct {
	logger    *slog.Logger
	students  Service
	metrics   *metrics.Metrics
	rateLimit config.RateLimitConfig
}

// New creates a new student Handler.
func New(students Service, logger *slog.Logger, m *metrics.Metrics, rl config.RateLimitConfig) *Handler {
	return &Handler{
		logger:    logger,
		students:  students,
		metrics:   m,
		rateLimit: rl,
	}
}

// Register registers the student routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	studentRouter := chi.NewRouter()
	studentRouter.Use(middleware.Recovery(h.logger))
	studentRouter.Use(middleware.RequestID)
	studentRouter.Use(middleware.Logger(h.logger))
	studentRouter.Use(middleware.Timeout(30 * time.Second))
	studentRouter.Use(middleware.ContentTypeJSON)
	studentRouter.Use(middleware.Latency(h.metrics))
	studentRouter.Use(middleware.RateLimit(h.rateLimit.RequestsPerSecond, h.rateLimit.Burst))

	studentRouter.Get("/students/{cpf}", h.handleGetStudent)
	studentRouter.Post("/students", h.handleRegisterStudent)
	studentRouter.Patch("/students/{cpf}", h.handleUpdateStudent)
	studentRouter.Delete("/students/{cpf}", h.handleDeleteStudent)
	studentRouter.Post("/students/{cpf}/photo", h.handleUploadPhoto)
	studentRouter.Get("/students/{cpf}/card", h.handleGetCard)
	studentRouter.Get("/validations/{usageCode}", h.handleValidate)

	r.Mount("/", studentRouter)
}

func (h *Handler) handleGetStudent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	st, err := h.students.Lookup(ctx, chi.URLParam(r, "cpf"))
	if err != nil {
		h.logLookupFailure(ctx, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// registerStudentRequest is the registration form as the client posts it.
type registerStudentRequest struct {
	CPF       string `json:"cpf"`
	Name      string `json:"name"`
	RG        string `json:"rg"`
	BirthDate string `json:"birth_date"`
	Course    string `json:"course"`
	PhotoURL  string `json:"photo_url"`
}

func (h *Handler) handleRegisterStudent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerStudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, pkgerrors.New(pkgerrors.CodeInvalidInput, "invalid request body"))
		return
	}
	if err := validateRegisterRequest(req); err != nil {
		writeError(w, err)
		return
	}

	created, err := h.students.Register(ctx, service.RegisterInput{
		CPF:       req.CPF,
		Name:      req.Name,
		RG:        req.RG,
		BirthDate: req.BirthDate,
		Course:    req.Course,
		PhotoURL:  req.PhotoURL,
	})
	if err != nil {
		if !clientFault(err) {
			h.logger.ErrorContext(ctx, "registration failed",
				"request_id", middleware.GetRequestID(ctx),
				"error", err.Error(),
			)
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// updateStudentRequest carries a sparse profile edit. Absent fields stay
// untouched.
type updateStudentRequest struct {
	Name      *string `json:"name"`
	RG        *string `json:"rg"`
	BirthDate *string `json:"birth_date"`
	Course    *string `json:"course"`
	PhotoURL  *string `json:"photo_url"`
}

func (h *Handler) handleUpdateStudent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req updateStudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, pkgerrors.New(pkgerrors.CodeInvalidInput, "invalid request body"))
		return
	}

	updated, err := h.students.UpdateProfile(ctx, chi.URLParam(r, "cpf"), models.StudentPatch{
		Name:      req.Name,
		RG:        req.RG,
		BirthDate: req.BirthDate,
		Course:    req.Course,
		PhotoURL:  req.PhotoURL,
	})
	if err != nil {
		if !clientFault(err) {
			h.logger.ErrorContext(ctx, "profile update failed",
				"request_id", middleware.GetRequestID(ctx),
				"error", err.Error(),
			)
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleDeleteStudent(w http.ResponseWriter, r *http.Request) {
	if err := h.students.Delete(r.Context(), chi.URLParam(r, "cpf")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// photoUploadResponse returns the public URL of the stored photo.
type photoUploadResponse struct {
	PhotoURL string `json:"photo_url"`
}

// handleUploadPhoto accepts a multipart form with the image in the "photo"
// field. An optional "previous_url" field names the blob the upload replaces;
// its deletion is best effort and never fails the request.
func (h *Handler) handleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoUploadBytes)
	if err := r.ParseMultipartForm(maxPhotoUploadBytes); err != nil {
		writeError(w, pkgerrors.New(pkgerrors.CodeInvalidInput, "invalid multipart body"))
		return
	}
	file, _, err := r.FormFile("photo")
	if err != nil {
		writeError(w, pkgerrors.New(pkgerrors.CodeInvalidInput, "photo field is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, pkgerrors.New(pkgerrors.CodeInvalidInput, "could not read photo"))
		return
	}

	url, err := h.students.UploadPhoto(ctx, chi.URLParam(r, "cpf"), data, r.FormValue("previous_url"))
	if err != nil {
		if !clientFault(err) {
			h.logger.ErrorContext(ctx, "photo upload failed",
				"request_id", middleware.GetRequestID(ctx),
				"error", err.Error(),
			)
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, photoUploadResponse{PhotoURL: url})
}

func (h *Handler) handleGetCard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	st, err := h.students.Lookup(ctx, chi.URLParam(r, "cpf"))
	if err != nil {
		h.logLookupFailure(ctx, err)
		writeError(w, err)
		return
	}
	payload, err := card.Build(st)
	if err != nil {
		h.logger.ErrorContext(ctx, "card rendering failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		writeError(w, pkgerrors.New(pkgerrors.CodeInternal, "could not render the card"))
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

// validationResponse is the public summary shown to whoever scans the code.
// It deliberately omits CPF, RG and birth date.
type validationResponse struct {
	Name        string `json:"name"`
	Course      string `json:"course"`
	Matricula   string `json:"matricula"`
	Institution string `json:"institution"`
	Level       string `json:"level"`
	Validity    string `json:"validity"`
	PhotoURL    string `json:"photo_url"`
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	st, err := h.students.ValidateByUsageCode(r.Context(), chi.URLParam(r, "usageCode"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, validationResponse{
		Name:        st.Name,
		Course:      st.Course,
		Matricula:   st.Matricula,
		Institution: st.Institution,
		Level:       st.Level,
		Validity:    st.Validity,
		PhotoURL:    st.PhotoURL,
	})
}

func (h *Handler) logLookupFailure(ctx context.Context, err error) {
	if clientFault(err) {
		return
	}
	h.logger.ErrorContext(ctx, "lookup failed",
		"request_id", middleware.GetRequestID(ctx),
		"error", err.Error(),
	)
}

func validateRegisterRequest(req registerStudentRequest) error {
	if !govalidator.StringLength(req.Name, "1", "120") {
		return pkgerrors.New(pkgerrors.CodeInvalidInput, "name must be 1-120 characters")
	}
	if !govalidator.StringLength(req.RG, "1", "20") {
		return pkgerrors.New(pkgerrors.CodeInvalidInput, "rg must be 1-20 characters")
	}
	if req.PhotoURL != "" && !govalidator.IsURL(req.PhotoURL) {
		return pkgerrors.New(pkgerrors.CodeInvalidInput, "photo_url must be a URL")
	}
	return nil
}

// clientFault reports whether the error is the caller's, in which case the
// handlers skip error-level logging.
func clientFault(err error) bool {
	switch pkgerrors.CodeOf(err) {
	case pkgerrors.CodeInvalidInput, pkgerrors.CodeNotFound, pkgerrors.CodeConflict:
		return true
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError centralizes coded-error translation into the JSON error envelope.
func writeError(w http.ResponseWriter, err error) {
	code := pkgerrors.CodeOf(err)
	w.WriteHeader(pkgerrors.ToHTTPStatus(code))
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   string(code),
		"message": pkgerrors.MessageOf(err),
	})
}
