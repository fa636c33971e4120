// Package summary assembles the daily summary of a user: derived energy
// metrics plus cached language-model feedback.
package summary

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"nutricoach"
	"nutricoach/energy"
)

// Repository looks up the inputs of a summary.
type Repository interface {
	GetUser(ctx context.Context, id uint) (*nutricoach.UserProfile, error)
	GetRecord(ctx context.Context, userID uint, date nutricoach.Date) (*nutricoach.DailyRecord, error)
}

// FeedbackEnsurer attaches feedback to a draft summary.
type FeedbackEnsurer interface {
	EnsureFeedback(ctx context.Context, record nutricoach.DailyRecord, draft nutricoach.DailySummary) (nutricoach.DailySummary, bool, error)
}

type Service struct {
	repo     Repository
	feedback FeedbackEnsurer
	tracer   trace.Tracer
}

func NewService(repo Repository, feedback FeedbackEnsurer) *Service {
	return &Service{
		repo:     repo,
		feedback: feedback,
		tracer:   otel.Tracer(nutricoach.TracerNameSummary),
	}
}

// Assemble derives the metrics for user and record and fills in feedback.
func (s *Service) Assemble(ctx context.Context, user nutricoach.UserProfile, record nutricoach.DailyRecord) (nutricoach.DailySummary, error) {
	derived := energy.Derive(user, record)

	draft := nutricoach.DailySummary{
		Date:                     record.RecordDate,
		User:                     user,
		Record:                   record,
		BMR:                      derived.BMR,
		RecommendedDailyCalories: derived.RecommendedCalories,
		CalorieBalance:           derived.CalorieBalance,
	}

	summary, persisted, err := s.feedback.EnsureFeedback(ctx, record, draft)
	if err != nil {
		return nutricoach.DailySummary{}, err
	}
	if persisted {
		slog.Info("SUMMARY: Feedback generated", "user_id", user.ID, "date", record.RecordDate.String())
	}
	return summary, nil
}

// BuildSummary loads the user and their record for date and assembles the summary.
func (s *Service) BuildSummary(ctx context.Context, userID uint, date nutricoach.Date) (nutricoach.DailySummary, error) {
	ctx, span := s.tracer.Start(ctx, "Service.BuildSummary", trace.WithAttributes(
		attribute.Int("user.id", int(userID)),
		attribute.String("date", date.String()),
	))
	defer span.End()

	summary, err := s.build(ctx, userID, date)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return summary, err
}

func (s *Service) build(ctx context.Context, userID uint, date nutricoach.Date) (nutricoach.DailySummary, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nutricoach.DailySummary{}, err
	}

	record, err := s.repo.GetRecord(ctx, userID, date)
	if err != nil {
		return nutricoach.DailySummary{}, err
	}

	return s.Assemble(ctx, *user, *record)
}
