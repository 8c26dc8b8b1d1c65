package foodlog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fdg312/fitness-hub/internal/events"
	"github.com/fdg312/fitness-hub/internal/nutrition"
	"github.com/fdg312/fitness-hub/internal/progress"
	"github.com/fdg312/fitness-hub/internal/storage"
	"github.com/fdg312/fitness-hub/internal/userctx"
	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalidRequest = errors.New("invalid request")
	ErrEntryNotFound  = errors.New("entry not found")
)

// GoalsSource returns the daily macro goals of a user.
type GoalsSource interface {
	GoalsFor(ctx context.Context, userID uuid.UUID) (nutrition.Macros, bool, error)
}

type Service struct {
	storage   storage.FoodLogStorage
	goals     GoalsSource
	publisher events.Publisher
	now       func() time.Time
}

func NewService(foodStorage storage.FoodLogStorage, goals GoalsSource, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.Discard
	}
	return &Service{
		storage:   foodStorage,
		goals:     goals,
		publisher: publisher,
		now:       time.Now,
	}
}

// Log stores a food entry. Stored macros are the base macros times the
// clamped scale factor and are never rounded.
func (s *Service) Log(ctx context.Context, req LogFoodRequest) (*EntryDTO, error) {
	userID, ok := userctx.GetUserID(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	components := req.storageComponents()
	var base nutrition.Macros
	if len(components) > 0 {
		base = nutrition.ComponentMacros(components)
	} else {
		base = *req.Macros
	}

	if err := base.ValidateAtMost(nutrition.MaxPortionValue); err != nil {
		return nil, fmt.Errorf("%w: meal totals: %v", ErrInvalidRequest, err)
	}

	factor := 1.0
	if req.ScaleFactor != nil {
		factor = nutrition.ClampScale(*req.ScaleFactor)
	}
	scaled := base.Scale(factor)
	if err := scaled.Validate(); err != nil {
		return nil, fmt.Errorf("%w: scaled macros: %v", ErrInvalidRequest, err)
	}

	loggedAt := s.now().UTC()
	if req.LoggedAt != nil {
		loggedAt = req.LoggedAt.UTC()
	}

	entry := &storage.FoodEntry{
		ID:          uuid.New(),
		UserID:      userID,
		Name:        req.Name,
		BaseMacros:  storage.Macros(base),
		ScaleFactor: factor,
		Macros:      storage.Macros(scaled),
		Components:  components,
		LoggedAt:    loggedAt,
	}
	if err := s.storage.AddEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("add food entry: %w", err)
	}

	s.publisher.Publish(userID, events.Event{Type: events.TypeFoodChanged, ID: entry.ID.String()})
	dto := entryToDTO(*entry)
	return &dto, nil
}

func (s *Service) Delete(ctx context.Context, entryID uuid.UUID) error {
	userID, ok := userctx.GetUserID(ctx)
	if !ok {
		return ErrUnauthorized
	}

	if err := s.storage.DeleteEntry(ctx, userID, entryID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrEntryNotFound
		}
		return fmt.Errorf("delete food entry: %w", err)
	}

	s.publisher.Publish(userID, events.Event{Type: events.TypeFoodChanged, ID: entryID.String()})
	return nil
}

// Recent returns the most recent entries, one per case-insensitive name.
func (s *Service) Recent(ctx context.Context, limit int) (*RecentResponse, error) {
	userID, ok := userctx.GetUserID(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	if limit <= 0 {
		limit = defaultRecent
	}
	if limit > maxRecent {
		limit = maxRecent
	}

	// duplicates are common, so read ahead before de-duplicating
	entries, err := s.storage.ListRecentEntries(ctx, userID, limit*5)
	if err != nil {
		return nil, fmt.Errorf("list recent entries: %w", err)
	}

	seen := make(map[string]struct{}, limit)
	resp := &RecentResponse{Items: make([]EntryDTO, 0, limit)}
	for _, e := range entries {
		key := strings.ToLower(strings.TrimSpace(e.Name))
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		resp.Items = append(resp.Items, entryToDTO(e))
		if len(resp.Items) == limit {
			break
		}
	}
	return resp, nil
}

// Day summarizes the UTC day containing date against the user's goals.
func (s *Service) Day(ctx context.Context, date time.Time) (*DaySummaryResponse, error) {
	userID, ok := userctx.GetUserID(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	date = date.UTC()
	from := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)

	entries, err := s.storage.ListEntriesBetween(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list food entries: %w", err)
	}

	goals, isDefault, err := s.goals.GoalsFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := &DaySummaryResponse{
		Date:         from.Format(dateLayout),
		Entries:      make([]EntryDTO, 0, len(entries)),
		Goals:        goals,
		GoalsDefault: isDefault,
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, entryToDTO(e))
		resp.Totals = resp.Totals.Add(nutrition.Macros(e.Macros))
	}
	resp.TotalsDisplay = resp.Totals.Rounded()
	resp.Rings = progress.Rings(resp.Totals.Values(), goals.Values())
	resp.Remaining = nutrition.Macros{
		Calories: resp.Rings.Calories.Remaining,
		Protein:  resp.Rings.Protein.Remaining,
		Carbs:    resp.Rings.Carbs.Remaining,
		Fat:      resp.Rings.Fat.Remaining,
	}

	return resp, nil
}

func parseDate(raw string, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now.UTC(), nil
	}
	return time.ParseInLocation(dateLayout, raw, time.UTC)
}
