package difficulty

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/adaptive-api/internal/domain"
	"github.com/phrazzld/adaptive-api/internal/domain/adaptive"
	"github.com/phrazzld/adaptive-api/internal/platform/logger"
	"github.com/phrazzld/adaptive-api/internal/store"
)

// DefaultHistoryWindow is the number of recent attempts handed to the engine.
const DefaultHistoryWindow = 20

// Verify interface compliance at compile time
var _ Service = (*serviceImpl)(nil)

type serviceImpl struct {
	db            store.TxBeginner
	stats         store.UserStatsStore
	attempts      store.AttemptStore
	decisions     store.DecisionStore
	engine        adaptive.Service
	recorder      DecisionRecorder
	historyWindow int
	clock         func() time.Time
	logger        *slog.Logger
}

// Option customizes the service.
type Option func(*serviceImpl)

// WithHistoryWindow sets how many recent attempts the engine sees.
// Non-positive values are ignored.
func WithHistoryWindow(n int) Option {
	return func(s *serviceImpl) {
		if n > 0 {
			s.historyWindow = n
		}
	}
}

// WithClock replaces the wall clock used to timestamp decisions and attempts.
func WithClock(clock func() time.Time) Option {
	return func(s *serviceImpl) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewService creates the difficulty service.
// A nil recorder writes decision logs synchronously through decisions.
func NewService(
	db store.TxBeginner,
	stats store.UserStatsStore,
	attempts store.AttemptStore,
	decisions store.DecisionStore,
	engine adaptive.Service,
	recorder DecisionRecorder,
	logger *slog.Logger,
	opts ...Option,
) Service {
	if db == nil {
		panic("db cannot be nil")
	}
	if stats == nil {
		panic("stats store cannot be nil")
	}
	if attempts == nil {
		panic("attempt store cannot be nil")
	}
	if decisions == nil {
		panic("decision store cannot be nil")
	}
	if engine == nil {
		engine = adaptive.NewDefaultService()
	}
	if recorder == nil {
		recorder = NewStoreRecorder(decisions, DefaultWriteTimeout)
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &serviceImpl{
		db:            db,
		stats:         stats,
		attempts:      attempts,
		decisions:     decisions,
		engine:        engine,
		recorder:      recorder,
		historyWindow: DefaultHistoryWindow,
		clock:         func() time.Time { return time.Now().UTC() },
		logger:        logger.With(slog.String("component", "difficulty_service")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func validateIdentity(userID, learningLanguage string) error {
	if strings.TrimSpace(userID) == "" {
		return domain.ErrEmptyUserID
	}
	return domain.ValidateLearningLanguage(learningLanguage)
}

// NextDifficulty implements Service.NextDifficulty.
func (s *serviceImpl) NextDifficulty(ctx context.Context, req NextDifficultyRequest) (*domain.AdaptiveDecision, error) {
	const op = "next_difficulty"
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("user_id", req.UserID),
		slog.String("learning_language", req.LearningLanguage))

	if err := validateIdentity(req.UserID, req.LearningLanguage); err != nil {
		log.Warn("invalid next difficulty request", slog.String("error", err.Error()))
		return nil, invalid(op, err)
	}
	if req.CurrentDifficulty != nil &&
		(*req.CurrentDifficulty < domain.MinDifficulty || *req.CurrentDifficulty > domain.MaxDifficulty) {
		return nil, invalid(op, domain.ErrInvalidDifficulty)
	}
	exerciseType := req.ExerciseType
	if exerciseType == "" {
		exerciseType = DefaultExerciseType
	}

	stats, err := s.stats.Get(ctx, req.UserID, req.LearningLanguage)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrUserStatsNotFound):
		log.Debug("no stats stored, using defaults")
		defaults := domain.DefaultUserStats()
		defaults.UserID = req.UserID
		defaults.LearningLanguage = req.LearningLanguage
		stats = &defaults
	default:
		log.Error("failed to load user stats", slog.String("error", err.Error()))
		return nil, unavailable(op, "failed to load user stats", err)
	}

	recent, err := s.attempts.ListRecent(ctx, req.UserID, req.LearningLanguage, s.historyWindow)
	if err != nil {
		log.Error("failed to load exercise history", slog.String("error", err.Error()))
		return nil, unavailable(op, "failed to load exercise history", err)
	}
	history := oldestFirst(recent)

	current := resolveCurrentDifficulty(req.CurrentDifficulty, history)

	decision, err := s.engine.CalculateNextDifficulty(req.UserID, *stats, history, current, s.clock())
	if err != nil {
		log.Error("engine rejected input", slog.String("error", err.Error()))
		return nil, NewServiceError(op, "failed to calculate next difficulty", err)
	}

	log.Info("difficulty decided",
		slog.Int("current_difficulty", decision.CurrentDifficulty),
		slog.Int("next_difficulty", decision.NextDifficulty),
		slog.Float64("mastery_score", decision.MasteryScore),
		slog.Int("consistency_adjustment", decision.Adjustments.Consistency),
		slog.Int("error_rate_adjustment", decision.Adjustments.ErrorRate),
		slog.Int("speed_adjustment", decision.Adjustments.Speed),
		slog.Bool("model_used", decision.ModelUsed),
		slog.Int("history_size", len(history)))

	entry := newDecisionLog(*decision, req.LearningLanguage, exerciseType, history)
	if err := s.recorder.Record(ctx, entry); err != nil {
		log.Error("failed to record decision log", slog.String("error", err.Error()))
	}

	return decision, nil
}

// RecordAttempt implements Service.RecordAttempt.
func (s *serviceImpl) RecordAttempt(ctx context.Context, req RecordAttemptRequest) (*domain.ExerciseAttempt, error) {
	const op = "record_attempt"
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("user_id", req.UserID),
		slog.String("learning_language", req.LearningLanguage))

	if err := validateIdentity(req.UserID, req.LearningLanguage); err != nil {
		return nil, invalid(op, err)
	}

	attempt := domain.AttemptInput{
		ExerciseID:       req.ExerciseID,
		Correct:          req.Correct,
		TimeSpentSeconds: req.TimeSpentSeconds,
		Difficulty:       req.Difficulty,
	}.Normalize()
	attempt.ID = uuid.New()
	attempt.UserID = req.UserID
	attempt.LearningLanguage = req.LearningLanguage
	attempt.AttemptedAt = s.clock()

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.attempts.WithTx(tx).Create(ctx, &attempt); err != nil {
			return fmt.Errorf("failed to store attempt: %w", err)
		}
		if err := s.stats.WithTx(tx).IncrementExercisesCompleted(ctx, req.UserID, req.LearningLanguage); err != nil {
			return fmt.Errorf("failed to update user stats: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrInvalidEntity) {
			return nil, invalid(op, err)
		}
		log.Error("failed to record attempt", slog.String("error", err.Error()))
		return nil, unavailable(op, "failed to record attempt", err)
	}

	if inv, ok := s.stats.(store.UserStatsInvalidator); ok {
		inv.Invalidate(ctx, req.UserID, req.LearningLanguage)
	}

	log.Debug("attempt recorded",
		slog.String("attempt_id", attempt.ID.String()),
		slog.Bool("correct", attempt.Correct))
	return &attempt, nil
}

// ListDecisions implements Service.ListDecisions.
func (s *serviceImpl) ListDecisions(ctx context.Context, limit int) ([]domain.DecisionLog, error) {
	if limit <= 0 {
		return nil, invalid("list_decisions", fmt.Errorf("limit must be positive, got %d", limit))
	}
	logs, err := s.decisions.List(ctx, limit)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list decision logs",
			slog.String("error", err.Error()))
		return nil, unavailable("list_decisions", "failed to list decision logs", err)
	}
	return logs, nil
}

// oldestFirst reverses a newest-first store result into engine order.
func oldestFirst(recent []domain.ExerciseAttempt) []domain.ExerciseAttempt {
	history := make([]domain.ExerciseAttempt, len(recent))
	for i, a := range recent {
		history[len(recent)-1-i] = a
	}
	return history
}

// resolveCurrentDifficulty prefers the requested value, then the difficulty
// of the most recent attempt that carries one, then the minimum.
func resolveCurrentDifficulty(requested *int, history []domain.ExerciseAttempt) int {
	if requested != nil {
		return *requested
	}
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Difficulty != nil {
			return *history[i].Difficulty
		}
	}
	return domain.MinDifficulty
}

func newDecisionLog(
	decision domain.AdaptiveDecision,
	learningLanguage, exerciseType string,
	history []domain.ExerciseAttempt,
) domain.DecisionLog {
	entry := domain.DecisionLog{
		AdaptiveDecision: decision,
		LearningLanguage: learningLanguage,
		ExerciseType:     exerciseType,
	}
	if len(history) == 0 {
		return entry
	}

	summary := adaptive.Summarize(history)
	errorRate := summary.ErrorRate
	lastCorrect := summary.LastCorrect
	entry.ErrorRate = &errorRate
	entry.LastCorrect = &lastCorrect
	if summary.HasTimeData() {
		avg := summary.AvgTimeSpent
		entry.AvgTimeSpent = &avg
	}
	return entry
}
