package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fdg312/fitness-hub/internal/config"
	"github.com/fdg312/fitness-hub/internal/storage"
)

const (
	planStartTag = "<plan>"
	planEndTag   = "</plan>"
)

type OpenAIProvider struct {
	apiKey      string
	model       string
	baseURL     string
	maxTokens   int
	temperature float64
	httpClient  *http.Client
}

func NewOpenAIProvider(cfg *config.Config) *OpenAIProvider {
	timeoutSeconds := cfg.AITimeoutSeconds
	if timeoutSeconds <= 0 {
		timeoutSeconds = 30
	}
	baseURL := strings.TrimRight(cfg.OpenAIBaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	return &OpenAIProvider{
		apiKey:      cfg.OpenAIAPIKey,
		model:       cfg.OpenAIModel,
		baseURL:     baseURL,
		maxTokens:   cfg.AIMaxTokens,
		temperature: cfg.AITemperature,
		httpClient: &http.Client{
			Timeout: time.Duration(timeoutSeconds) * time.Second,
		},
	}
}

func (p *OpenAIProvider) PlanMeals(ctx context.Context, req PlanRequest) (PlanResponse, error) {
	requestPayload := chatCompletionsRequest{
		Model:       p.model,
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
		Messages: []chatMessageRequest{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt(req)},
		},
	}

	body, err := json.Marshal(requestPayload)
	if err != nil {
		return PlanResponse{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return PlanResponse{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return PlanResponse{}, err
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return PlanResponse{}, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return PlanResponse{}, fmt.Errorf("openai request failed with status %d", resp.StatusCode)
	}

	var parsed chatCompletionsResponse
	if err := json.Unmarshal(responseBody, &parsed); err != nil {
		return PlanResponse{}, err
	}
	if len(parsed.Choices) == 0 {
		return PlanResponse{}, fmt.Errorf("%w: no choices", ErrInvalidResponse)
	}

	return extractPlanFromText(strings.TrimSpace(parsed.Choices[0].Message.Content), req.Days)
}

const systemPrompt = "You are the meal planner of Fitness Hub. " +
	"Plan meals for every requested day and every slot: breakfast, lunch, dinner, snack. " +
	"Size each day so the meals add up to the daily macro goals. " +
	"Answer with a single block strictly in the format " +
	"<plan>{\"title\":\"...\",\"meals\":[{\"day_index\":0,\"slot\":\"breakfast\",\"title\":\"...\"," +
	"\"calories\":550,\"protein\":30,\"carbs\":60,\"fat\":18}]," +
	"\"shopping\":[{\"category\":\"Dairy\",\"name\":\"Greek yogurt\",\"amount\":\"500 g\"}]}</plan>. " +
	"Shopping categories: Dairy, Meat & Fish, Fruit & Veg, Store Cupboard, Frozen, Breads & Grains, Other. " +
	"Do not add any other keys."

func userPrompt(req PlanRequest) string {
	prefs := strings.TrimSpace(req.Preferences)
	if prefs == "" {
		prefs = "none"
	}
	return fmt.Sprintf(
		"start_date=%s days=%d daily_goals: calories=%.0f protein=%.0f carbs=%.0f fat=%.0f. preferences: %s",
		req.StartDate.Format("2006-01-02"),
		req.Days,
		req.Goals.Calories,
		req.Goals.Protein,
		req.Goals.Carbs,
		req.Goals.Fat,
		prefs,
	)
}

type planPayload struct {
	Title string `json:"title"`
	Meals []struct {
		DayIndex int     `json:"day_index"`
		Slot     string  `json:"slot"`
		Title    string  `json:"title"`
		Calories float64 `json:"calories"`
		Protein  float64 `json:"protein"`
		Carbs    float64 `json:"carbs"`
		Fat      float64 `json:"fat"`
	} `json:"meals"`
	Shopping []storage.ShoppingItem `json:"shopping"`
}

// extractPlanFromText parses the <plan> block. Meals outside [0, days) are dropped;
// the caller validates the rest.
func extractPlanFromText(content string, days int) (PlanResponse, error) {
	start := strings.Index(content, planStartTag)
	end := strings.Index(content, planEndTag)
	if start == -1 || end == -1 || end <= start {
		return PlanResponse{}, fmt.Errorf("%w: missing plan block", ErrInvalidResponse)
	}

	jsonChunk := strings.TrimSpace(content[start+len(planStartTag) : end])

	var payload planPayload
	if err := json.Unmarshal([]byte(jsonChunk), &payload); err != nil {
		return PlanResponse{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if len(payload.Meals) == 0 {
		return PlanResponse{}, fmt.Errorf("%w: plan has no meals", ErrInvalidResponse)
	}

	meals := make([]storage.PlannedMeal, 0, len(payload.Meals))
	for _, m := range payload.Meals {
		if m.DayIndex < 0 || m.DayIndex >= days {
			continue
		}
		meals = append(meals, storage.PlannedMeal{
			DayIndex: m.DayIndex,
			Slot:     strings.ToLower(strings.TrimSpace(m.Slot)),
			Title:    strings.TrimSpace(m.Title),
			Macros: storage.Macros{
				Calories: m.Calories,
				Protein:  m.Protein,
				Carbs:    m.Carbs,
				Fat:      m.Fat,
			},
		})
	}

	shopping := payload.Shopping
	if shopping == nil {
		shopping = []storage.ShoppingItem{}
	}

	return PlanResponse{
		Title:    strings.TrimSpace(payload.Title),
		Meals:    meals,
		Shopping: shopping,
	}, nil
}

type chatCompletionsRequest struct {
	Model       string               `json:"model"`
	Messages    []chatMessageRequest `json:"messages"`
	Temperature float64              `json:"temperature"`
	MaxTokens   int                  `json:"max_tokens"`
}

type chatMessageRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionsResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}
