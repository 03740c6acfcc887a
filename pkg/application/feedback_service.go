package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/feedback/pkg/domain/feedback"
	"github.com/felixgeelhaar/feedback/pkg/sdk"
)

// FeedbackService wraps the remote collection with validation, logging and
// user-facing alerts.
type FeedbackService struct {
	repo     FeedbackRepository
	exporter Exporter
	logger   *slog.Logger
}

func NewFeedbackService(repo FeedbackRepository, exporter Exporter, logger *slog.Logger) *FeedbackService {
	if logger == nil {
		logger = slog.Default()
	}
	return &FeedbackService{repo: repo, exporter: exporter, logger: logger}
}

// List fetches the whole collection.
func (s *FeedbackService) List(ctx context.Context) ([]feedback.Item, error) {
	items, err := s.repo.ListFeedback(ctx)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	return items, nil
}

// Submit validates and sends a submission. Validation failures never reach
// the backend.
func (s *FeedbackService) Submit(ctx context.Context, sub feedback.Submission) error {
	normalized, err := sub.Normalize()
	if err != nil {
		return err
	}
	if err := s.repo.CreateFeedback(ctx, normalized); err != nil {
		s.logger.Warn("submit failed", "category", normalized.Category, "error", err)
		return &ActionError{Op: "submit", Alert: AlertSubmitFailed, Err: err}
	}
	s.logger.Info("feedback submitted", "category", normalized.Category, "screenshot", normalized.Screenshot != "")
	return nil
}

// Delete removes one item. Every failure carries the delete alert.
func (s *FeedbackService) Delete(ctx context.Context, id int) error {
	if err := s.repo.DeleteFeedback(ctx, id); err != nil {
		s.logger.Warn("delete failed", "id", id, "status", sdk.StatusCode(err), "error", err)
		return &ActionError{Op: "delete", Alert: AlertDeleteFailed, Err: err}
	}
	s.logger.Info("feedback deleted", "id", id)
	return nil
}

// Export downloads the collection in the given format.
func (s *FeedbackService) Export(ctx context.Context, format sdk.ExportFormat) (*sdk.Export, error) {
	exp, err := s.exporter.Export(ctx, format)
	if err != nil {
		s.logger.Warn("export failed", "format", format, "error", err)
		return nil, &ActionError{Op: "export", Alert: AlertExportFailed, Err: err}
	}
	s.logger.Info("feedback exported", "format", format, "records", exp.Records)
	return exp, nil
}
