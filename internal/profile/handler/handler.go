package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"healthrisk/internal/profile"
	dErrors "healthrisk/pkg/domain-errors"
	"healthrisk/pkg/platform/httputil"
	"healthrisk/pkg/requestcontext"
)

const (
	// AssessmentIDHeader carries the stored assessment ID on analyze responses.
	AssessmentIDHeader = "X-Assessment-ID"

	uploadField = "file"

	// DefaultMaxUploadBytes bounds an uploaded form image.
	DefaultMaxUploadBytes int64 = 10 << 20
)

// Service defines the interface for profile operations.
type Service interface {
	Analyze(ctx context.Context, input profile.Input) (*profile.Assessment, error)
	AnalyzeImage(ctx context.Context, image []byte, mediaType string) (*profile.Assessment, error)
	Get(ctx context.Context, id uuid.UUID) (*profile.Assessment, error)
}

// Handler wires profile endpoints to the profile service.
type Handler struct {
	service        Service
	logger         *slog.Logger
	maxUploadBytes int64
}

// New constructs a profile handler with its dependencies.
// A non-positive maxUploadBytes selects DefaultMaxUploadBytes.
func New(service Service, logger *slog.Logger, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service:        service,
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
	}
}

// Register mounts profile endpoints on the router. analyzeMiddleware wraps only
// POST /analyze.
func (h *Handler) Register(r chi.Router, analyzeMiddleware ...func(http.Handler) http.Handler) {
	r.With(analyzeMiddleware...).Post("/analyze", h.HandleAnalyze)
	r.Get("/assessments/{id}", h.HandleGetAssessment)
}

// HandleAnalyze handles POST /analyze. Multipart requests carry a form photo in the
// "file" part; anything else is decoded as a JSON survey.
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	if isMultipart(r) {
		h.handleAnalyzeImage(w, r)
		return
	}
	h.handleAnalyzeJSON(w, r)
}

func (h *Handler) handleAnalyzeJSON(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[AnalyzeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	assessment, err := h.service.Analyze(ctx, req.ToInput())
	if err != nil {
		h.logger.ErrorContext(ctx, "survey analysis failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.writeAnalysis(ctx, w, assessment, start)
}

func (h *Handler) handleAnalyzeImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	image, mediaType, err := h.readUpload(r)
	if err != nil {
		h.logger.WarnContext(ctx, "rejected survey upload",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	assessment, err := h.service.AnalyzeImage(ctx, image, mediaType)
	if err != nil {
		h.logger.ErrorContext(ctx, "image analysis failed",
			"request_id", requestID,
			"media_type", mediaType,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.writeAnalysis(ctx, w, assessment, start)
}

func (h *Handler) writeAnalysis(ctx context.Context, w http.ResponseWriter, a *profile.Assessment, start time.Time) {
	h.logger.InfoContext(ctx, "survey analyzed",
		"request_id", requestcontext.RequestID(ctx),
		"assessment_id", a.ID,
		"source", a.Source,
		"status", a.Status,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	w.Header().Set(AssessmentIDHeader, a.ID.String())
	httputil.WriteJSON(w, http.StatusOK, FromResult(a.Result()))
}

// HandleGetAssessment handles GET /assessments/{id}.
func (h *Handler) HandleGetAssessment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid assessment id"))
		return
	}

	assessment, err := h.service.Get(ctx, id)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeNotFound) {
			h.logger.ErrorContext(ctx, "failed to load assessment",
				"request_id", requestID,
				"assessment_id", id,
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromAssessment(assessment))
}

// readUpload extracts the image part of a multipart request.
func (h *Handler) readUpload(r *http.Request) ([]byte, string, error) {
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, "", dErrors.Wrap(err, dErrors.CodeBadRequest, "upload exceeds size limit")
		}
		return nil, "", dErrors.Wrap(err, dErrors.CodeValidation, "invalid multipart form")
	}

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeValidation, "file is required")
	}
	defer file.Close()

	if header.Size > h.maxUploadBytes {
		return nil, "", dErrors.New(dErrors.CodeBadRequest, "upload exceeds size limit")
	}

	image, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeBadRequest, "failed to read upload")
	}
	if int64(len(image)) > h.maxUploadBytes {
		return nil, "", dErrors.New(dErrors.CodeBadRequest, "upload exceeds size limit")
	}

	mediaType := header.Header.Get("Content-Type")
	if mediaType == "" {
		mediaType = http.DetectContentType(image)
	}
	if parsed, _, err := mime.ParseMediaType(mediaType); err == nil {
		mediaType = parsed
	}
	if !strings.HasPrefix(mediaType, "image/") {
		return nil, "", dErrors.New(dErrors.CodeBadRequest, "file must be an image")
	}
	return image, mediaType, nil
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}
