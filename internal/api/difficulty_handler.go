package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/phrazzld/adaptive-api/internal/api/shared"
	"github.com/phrazzld/adaptive-api/internal/platform/logger"
	"github.com/phrazzld/adaptive-api/internal/service/difficulty"
)

// Paging bounds for GET /decisions.
const (
	DefaultDecisionLimit = 100
	MaxDecisionLimit     = 1000
)

// DifficultyHandler serves the adaptive difficulty endpoints.
type DifficultyHandler struct {
	service difficulty.Service
	logger  *slog.Logger
}

// NewDifficultyHandler creates a new DifficultyHandler.
func NewDifficultyHandler(service difficulty.Service, logger *slog.Logger) *DifficultyHandler {
	if service == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("service cannot be nil for DifficultyHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for DifficultyHandler")
	}

	return &DifficultyHandler{
		service: service,
		logger:  logger.With(slog.String("component", "difficulty_handler")),
	}
}

// NextDifficulty handles POST /adaptive/api/v1/next-difficulty.
func (h *DifficultyHandler) NextDifficulty(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req NextDifficultyRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	decision, err := h.service.NextDifficulty(r.Context(), difficulty.NextDifficultyRequest{
		UserID:            req.UserID,
		LearningLanguage:  req.LearningLanguage,
		ExerciseType:      req.ExerciseType,
		CurrentDifficulty: req.CurrentDifficulty,
	})
	if err != nil {
		respondServiceError(w, r, err, "Failed to calculate next difficulty")
		return
	}

	log.Debug("next difficulty served",
		slog.String("user_id", decision.UserID),
		slog.Int("next_difficulty", decision.NextDifficulty))
	shared.RespondWithJSON(w, r, http.StatusOK, NewNextDifficultyResponse(decision))
}

// RecordAttempt handles POST /adaptive/api/v1/attempts.
func (h *DifficultyHandler) RecordAttempt(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req AttemptRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	attempt, err := h.service.RecordAttempt(r.Context(), difficulty.RecordAttemptRequest{
		UserID:           req.UserID,
		LearningLanguage: req.LearningLanguage,
		ExerciseID:       req.ExerciseID,
		Correct:          req.Correct,
		TimeSpentSeconds: req.TimeSpentSeconds,
		Difficulty:       req.Difficulty,
	})
	if err != nil {
		respondServiceError(w, r, err, "Failed to record attempt")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, attemptToResponse(attempt))
}

// ListDecisions handles GET /adaptive/api/v1/decisions?limit=N.
func (h *DifficultyHandler) ListDecisions(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	limit := DefaultDecisionLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			log.Warn("invalid limit parameter", slog.String("limit", raw))
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid limit: must be a positive integer")
			return
		}
		limit = min(parsed, MaxDecisionLimit)
	}

	logs, err := h.service.ListDecisions(r.Context(), limit)
	if err != nil {
		respondServiceError(w, r, err, "Failed to list decisions")
		return
	}

	out := make([]DecisionLogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, decisionLogToResponse(l))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, out)
}

// decodeAndValidate writes a 400 response and returns false when the body
// cannot be decoded or fails validation.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}, log *slog.Logger) bool {
	if err := shared.DecodeJSON(r, dst); err != nil {
		log.Warn("invalid request body", slog.String("error", err.Error()))
		msg := "Invalid request format"
		if errors.Is(err, shared.ErrEmptyBody) {
			msg = GetSafeErrorMessage(err)
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, msg, err)
		return false
	}

	if err := shared.ValidateRequest(dst); err != nil {
		log.Warn("request validation failed", slog.String("error", err.Error()))
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return false
	}
	return true
}

// respondServiceError maps a service error onto a status and safe message.
// Unclassified failures use fallback as their message.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := MapErrorToStatusCode(err)
	msg := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError {
		msg = fallback
	}
	shared.RespondWithErrorAndLog(w, r, status, msg, err)
}
