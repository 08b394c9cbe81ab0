package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"mindwell/internal/analysis/crisis"
	"mindwell/internal/model"
)

type CrisisEventStore interface {
	Create(ctx context.Context, event *model.CrisisEvent) error
	LatestUnansweredByUserID(ctx context.Context, userID uint) (*model.CrisisEvent, error)
	UpdateResponse(ctx context.Context, id uint, response string) error
	ListRecent(ctx context.Context, limit int) ([]model.CrisisEvent, error)
}

// CrisisService detects crisis language in companion messages, records the
// events for the therapist dashboard and the user's reaction to the interrupt.
type CrisisService struct {
	detector   *crisis.Detector
	events     CrisisEventStore
	alertLimit int
	now        func() time.Time
}

func NewCrisisService(detector *crisis.Detector, events CrisisEventStore, alertLimit int) *CrisisService {
	if detector == nil {
		detector = crisis.NewDetector(nil)
	}
	if alertLimit <= 0 {
		alertLimit = 50
	}
	return &CrisisService{
		detector:   detector,
		events:     events,
		alertLimit: alertLimit,
		now:        time.Now,
	}
}

// CheckMessage classifies text and records an event when it triggers. The
// detection result is returned even if recording fails.
func (s *CrisisService) CheckMessage(ctx context.Context, userID uint, text string) (crisis.Result, error) {
	result := s.detector.Detect(text)
	if !result.Triggered {
		return result, nil
	}

	event := &model.CrisisEvent{
		UserID:        userID,
		SeverityLevel: string(result.Severity),
		DetectedAt:    s.now(),
	}
	event.SetKeywords(result.Keywords)
	if err := s.events.Create(ctx, event); err != nil {
		return result, fmt.Errorf("record crisis event failed: %w", err)
	}
	return result, nil
}

// LogResponse attaches the user's disposition to their latest unanswered event.
func (s *CrisisService) LogResponse(ctx context.Context, userID uint, response string) (*model.CrisisEvent, error) {
	response = strings.TrimSpace(response)
	if userID == 0 || !model.IsValidCrisisResponse(response) {
		return nil, ErrInvalidInput
	}

	event, err := s.events.LatestUnansweredByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrCrisisEventNotFound
	}
	if err := s.events.UpdateResponse(ctx, event.ID, response); err != nil {
		return nil, err
	}
	event.UserResponse = response
	return event, nil
}

func (s *CrisisService) ListAlerts(ctx context.Context, limit int) ([]model.CrisisEvent, error) {
	if limit <= 0 || limit > s.alertLimit {
		limit = s.alertLimit
	}
	return s.events.ListRecent(ctx, limit)
}
