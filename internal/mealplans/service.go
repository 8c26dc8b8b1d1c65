package mealplans

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fdg312/fitness-hub/internal/ai"
	"github.com/fdg312/fitness-hub/internal/blob"
	"github.com/fdg312/fitness-hub/internal/events"
	"github.com/fdg312/fitness-hub/internal/nutrition"
	"github.com/fdg312/fitness-hub/internal/shopping"
	"github.com/fdg312/fitness-hub/internal/storage"
	"github.com/fdg312/fitness-hub/internal/userctx"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidRequest   = errors.New("invalid request")
	ErrNotFound         = errors.New("meal plan not found")
	ErrGenerationFailed = errors.New("meal plan generation failed")
)

const (
	DeliveryURL    = "url"
	DeliveryStream = "stream"

	defaultPresignTTL = 15 * time.Minute
)

// GoalsSource returns the daily macro goals of a user.
type GoalsSource interface {
	GoalsFor(ctx context.Context, userID uuid.UUID) (nutrition.Macros, bool, error)
}

// ExportConfig controls where PDF exports go. Without a Store the PDF is streamed back.
type ExportConfig struct {
	Store      blob.Store
	PresignTTL time.Duration
	Counter    *prometheus.CounterVec
}

// ExportResult carries either the PDF bytes or a presigned download URL.
type ExportResult struct {
	Filename  string
	PDF       []byte
	URL       string
	ExpiresAt time.Time
}

// Service handles meal plans business logic.
type Service struct {
	storage   storage.MealPlansStorage
	goals     GoalsSource
	provider  ai.Provider
	publisher events.Publisher
	export    ExportConfig
	now       func() time.Time
}

// NewService creates a new meal plans service.
func NewService(
	plansStorage storage.MealPlansStorage,
	goals GoalsSource,
	provider ai.Provider,
	publisher events.Publisher,
	export ExportConfig,
) *Service {
	if publisher == nil {
		publisher = events.Discard
	}
	if provider == nil {
		provider = ai.NewMockProvider()
	}
	if export.PresignTTL <= 0 {
		export.PresignTTL = defaultPresignTTL
	}
	return &Service{
		storage:   plansStorage,
		goals:     goals,
		provider:  provider,
		publisher: publisher,
		export:    export,
		now:       time.Now,
	}
}

// List returns the caller's plans, newest first.
func (s *Service) List(ctx context.Context) (*ListMealPlansResponse, error) {
	userID, ok := userctx.GetUserID(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	plans, err := s.storage.ListMealPlans(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list meal plans: %w", err)
	}

	resp := &ListMealPlansResponse{Plans: make([]MealPlanDTO, 0, len(plans))}
	for _, p := range plans {
		resp.Plans = append(resp.Plans, planToDTO(p))
	}
	return resp, nil
}

func (s *Service) Get(ctx context.Context, planID uuid.UUID) (*MealPlanDTO, error) {
	plan, err := s.getPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	dto := planToDTO(*plan)
	return &dto, nil
}

// Create saves a manually built plan.
func (s *Service) Create(ctx context.Context, req SaveMealPlanRequest) (*MealPlanDTO, error) {
	userID, ok := userctx.GetUserID(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	content, err := req.Validate()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	plan := &storage.MealPlan{
		ID:           uuid.New(),
		UserID:       userID,
		Title:        content.title,
		Source:       storage.MealPlanSourceManual,
		StartDate:    content.start,
		EndDate:      content.end,
		Meals:        content.meals,
		ShoppingList: content.shopping,
	}
	if err := s.storage.CreateMealPlan(ctx, plan); err != nil {
		return nil, fmt.Errorf("create meal plan: %w", err)
	}

	s.publish(userID, plan.ID)
	dto := planToDTO(*plan)
	return &dto, nil
}

// Replace overwrites an existing plan. The source is kept.
func (s *Service) Replace(ctx context.Context, planID uuid.UUID, req SaveMealPlanRequest) (*MealPlanDTO, error) {
	userID, ok := userctx.GetUserID(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	content, err := req.Validate()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	existing, err := s.getPlan(ctx, planID)
	if err != nil {
		return nil, err
	}

	existing.Title = content.title
	existing.StartDate = content.start
	existing.EndDate = content.end
	existing.Meals = content.meals
	existing.ShoppingList = content.shopping

	if err := s.storage.ReplaceMealPlan(ctx, existing); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("replace meal plan: %w", err)
	}

	s.publish(userID, planID)
	dto := planToDTO(*existing)
	return &dto, nil
}

// Delete removes the plan and its exported PDF, if any.
func (s *Service) Delete(ctx context.Context, planID uuid.UUID) error {
	userID, ok := userctx.GetUserID(ctx)
	if !ok {
		return ErrUnauthorized
	}

	if err := s.storage.DeleteMealPlan(ctx, userID, planID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete meal plan: %w", err)
	}

	if s.export.Store != nil {
		if err := s.export.Store.Delete(ctx, exportKey(userID, planID)); err != nil {
			log.WithError(err).WithField("plan_id", planID).Warn("failed to delete meal plan export")
		}
	}

	s.publish(userID, planID)
	return nil
}

// ShoppingList returns the plan's shopping list bucketed by category.
func (s *Service) ShoppingList(ctx context.Context, planID uuid.UUID) (*ShoppingListResponse, error) {
	plan, err := s.getPlan(ctx, planID)
	if err != nil {
		return nil, err
	}

	return &ShoppingListResponse{
		PlanID:     plan.ID.String(),
		TotalItems: len(plan.ShoppingList),
		Sections:   shopping.Sections(shoppingItems(plan.ShoppingList)),
	}, nil
}

// Generate asks the provider for meals sized to the caller's goals and saves the result.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (*MealPlanDTO, error) {
	userID, ok := userctx.GetUserID(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	today := s.now().UTC().Truncate(24 * time.Hour)
	start, days, err := req.Validate(today)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	goals, _, err := s.goals.GoalsFor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load goals: %w", err)
	}

	planned, err := s.provider.PlanMeals(ctx, ai.PlanRequest{
		StartDate:   start,
		Days:        days,
		Goals:       storage.Macros(goals),
		Preferences: strings.TrimSpace(req.Preferences),
	})
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("meal plan provider failed")
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = planned.Title
	}
	if title == "" {
		title = "Meal plan"
	}

	end := start.AddDate(0, 0, days-1)
	content, err := (&SaveMealPlanRequest{
		Title:        title,
		StartDate:    start.Format(dateLayout),
		EndDate:      end.Format(dateLayout),
		Meals:        planned.Meals,
		ShoppingList: planned.Shopping,
	}).Validate()
	if err != nil {
		return nil, fmt.Errorf("%w: provider returned an invalid plan: %v", ErrGenerationFailed, err)
	}

	plan := &storage.MealPlan{
		ID:           uuid.New(),
		UserID:       userID,
		Title:        content.title,
		Source:       storage.MealPlanSourceGenerated,
		StartDate:    content.start,
		EndDate:      content.end,
		Meals:        content.meals,
		ShoppingList: content.shopping,
	}
	if err := s.storage.CreateMealPlan(ctx, plan); err != nil {
		return nil, fmt.Errorf("create meal plan: %w", err)
	}

	s.publish(userID, plan.ID)
	dto := planToDTO(*plan)
	return &dto, nil
}

// Export renders the plan as PDF. With a blob store configured the document is
// uploaded and a presigned URL is returned instead of the bytes.
func (s *Service) Export(ctx context.Context, planID uuid.UUID) (*ExportResult, error) {
	plan, err := s.getPlan(ctx, planID)
	if err != nil {
		return nil, err
	}

	data, err := renderPDF(*plan)
	if err != nil {
		return nil, fmt.Errorf("render meal plan pdf: %w", err)
	}

	result := &ExportResult{Filename: exportFilename(*plan)}
	if s.export.Store == nil {
		result.PDF = data
		s.countExport(DeliveryStream)
		return result, nil
	}

	key := exportKey(plan.UserID, plan.ID)
	obj := blob.Object{Key: key, Body: data, ContentType: "application/pdf", Filename: result.Filename}
	if err := s.export.Store.Put(ctx, obj); err != nil {
		return nil, fmt.Errorf("upload meal plan pdf: %w", err)
	}

	url, err := s.export.Store.PresignGet(ctx, key, s.export.PresignTTL)
	if err != nil {
		return nil, fmt.Errorf("presign meal plan pdf: %w", err)
	}

	result.URL = url
	result.ExpiresAt = s.now().UTC().Add(s.export.PresignTTL)
	s.countExport(DeliveryURL)
	return result, nil
}

// ============================================================================
// Helpers
// ============================================================================

func (s *Service) getPlan(ctx context.Context, planID uuid.UUID) (*storage.MealPlan, error) {
	userID, ok := userctx.GetUserID(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	plan, err := s.storage.GetMealPlan(ctx, userID, planID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get meal plan: %w", err)
	}
	return plan, nil
}

func (s *Service) publish(userID, planID uuid.UUID) {
	s.publisher.Publish(userID, events.Event{
		Type: events.TypeMealPlansChanged,
		ID:   planID.String(),
	})
}

func (s *Service) countExport(delivery string) {
	if s.export.Counter != nil {
		s.export.Counter.WithLabelValues(delivery).Inc()
	}
}

func exportKey(userID, planID uuid.UUID) string {
	return fmt.Sprintf("meal-plans/%s/%s.pdf", userID, planID)
}

func exportFilename(p storage.MealPlan) string {
	return fmt.Sprintf("meal-plan-%s.pdf", p.StartDate.Format(dateLayout))
}
