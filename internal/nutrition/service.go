package nutrition

import (
	"context"
	"errors"
	"fmt"

	"github.com/fdg312/fitness-hub/internal/events"
	"github.com/fdg312/fitness-hub/internal/storage"
	"github.com/fdg312/fitness-hub/internal/userctx"
	"github.com/google/uuid"
)

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalidRequest = errors.New("invalid request")
)

// Service handles macro goals business logic.
type Service struct {
	goalsStorage storage.MacroGoalsStorage
	publisher    events.Publisher
}

// NewService creates a new nutrition service.
func NewService(goalsStorage storage.MacroGoalsStorage, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.Discard
	}
	return &Service{
		goalsStorage: goalsStorage,
		publisher:    publisher,
	}
}

// GoalsFor returns the stored goals of userID or the defaults when none are saved.
func (s *Service) GoalsFor(ctx context.Context, userID uuid.UUID) (Macros, bool, error) {
	goals, err := s.goalsStorage.GetGoals(ctx, userID)
	if err != nil {
		return Macros{}, false, fmt.Errorf("get macro goals: %w", err)
	}
	if goals == nil {
		return DefaultGoals(), true, nil
	}
	return Macros(goals.Macros), false, nil
}

// Current returns the caller's goals or defaults if not set.
func (s *Service) Current(ctx context.Context) (*GetGoalsResponse, error) {
	userID, ok := userctx.GetUserID(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	goals, err := s.goalsStorage.GetGoals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get macro goals: %w", err)
	}
	if goals == nil {
		return &GetGoalsResponse{Goals: GoalsDTO{Macros: DefaultGoals()}, IsDefault: true}, nil
	}

	updatedAt := goals.UpdatedAt
	return &GetGoalsResponse{
		Goals: GoalsDTO{Macros: Macros(goals.Macros), UpdatedAt: &updatedAt},
	}, nil
}

// Update replaces the caller's goals.
func (s *Service) Update(ctx context.Context, req UpdateGoalsRequest) (*GoalsDTO, error) {
	userID, ok := userctx.GetUserID(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	macros, err := req.Validate()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	goals, err := s.goalsStorage.UpsertGoals(ctx, userID, storage.Macros(macros))
	if err != nil {
		return nil, fmt.Errorf("upsert macro goals: %w", err)
	}

	s.publisher.Publish(userID, events.Event{Type: events.TypeGoalsUpdated})

	updatedAt := goals.UpdatedAt
	return &GoalsDTO{Macros: Macros(goals.Macros), UpdatedAt: &updatedAt}, nil
}

// Scale clamps the factor and applies it to the given macros.
func (s *Service) Scale(req ScaleRequest) (*ScaleResponse, error) {
	if err := req.Macros.ValidateAtMost(MaxPortionValue); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	factor := 1.0
	if req.ScaleFactor != nil {
		factor = ClampScale(*req.ScaleFactor)
	}
	scaled := req.Macros.Scale(factor)
	return &ScaleResponse{
		ScaleFactor: factor,
		Macros:      scaled,
		Display:     scaled.Rounded(),
	}, nil
}
