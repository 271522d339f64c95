package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/todo-grow/backend/internal/config"
	"github.com/todo-grow/backend/internal/constants"
	apperrors "github.com/todo-grow/backend/internal/errors"
	"github.com/todo-grow/backend/internal/models"
)

const aiServiceName = "ai"

// TaskGenerator turns free text into a task tree
type TaskGenerator interface {
	Generate(ctx context.Context, text string, date models.Date) ([]GeneratedTask, error)
}

type AIService struct {
	client *openai.Client
	model  string
}

// GeneratedSubtask is a subtask proposed by the generator
type GeneratedSubtask struct {
	Title  string `json:"title"`
	Points int    `json:"points"`
}

// GeneratedTask is a top-level task proposed by the generator
type GeneratedTask struct {
	Title    string             `json:"title"`
	Points   int                `json:"points"`
	Subtasks []GeneratedSubtask `json:"subtasks"`
}

// NewAIService creates the generator. Without an API key every call
// fails with an UpstreamError wrapping ErrNotConfigured.
func NewAIService(cfg config.AIConfig) *AIService {
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	if cfg.APIKey == "" {
		return &AIService{model: model}
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &AIService{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
	}
}

// Generate asks the model for tasks and subtasks needed to accomplish text on date
func (s *AIService) Generate(ctx context.Context, text string, date models.Date) ([]GeneratedTask, error) {
	if s.client == nil {
		return nil, apperrors.NewUpstream(aiServiceName, apperrors.ErrNotConfigured)
	}

	prompt := fmt.Sprintf(`당신은 할 일 정리 도우미입니다. 사용자의 입력을 분석해 실행 가능한 할 일 목록을 만들어 주세요.

기준 날짜: %s

사용자 입력:
%s

다음 JSON 형식으로만 응답하세요:
{
  "tasks": [
    {
      "title": "할 일 제목 (간결하게)",
      "points": 5,
      "subtasks": [
        {"title": "세부 할 일 제목", "points": 2}
      ]
    }
  ]
}

규칙:
- points는 노력과 중요도를 나타내는 1부터 10 사이의 정수입니다
- 세부 할 일이 필요 없으면 subtasks를 빈 배열로 두세요
- 세부 할 일은 또 다른 세부 할 일을 가질 수 없습니다
- 할 일은 최대 %d개까지 만드세요
- JSON 외의 설명은 포함하지 마세요`, date.String(), text, constants.MaxAIGeneratedTasks)

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: s.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.3,
		},
	)
	if err != nil {
		return nil, apperrors.NewUpstream(aiServiceName, err)
	}

	if len(resp.Choices) == 0 {
		return nil, apperrors.NewUpstream(aiServiceName, fmt.Errorf("no response from model"))
	}

	return parseGeneratedTasks(resp.Choices[0].Message.Content)
}

// Wire shape of the model's answer. Pointers tell a missing field from a zero value.
type rawGeneration struct {
	Tasks *[]rawGeneratedTask `json:"tasks"`
}

type rawGeneratedTask struct {
	Title    *string               `json:"title"`
	Points   *int64                `json:"points"`
	Subtasks []rawGeneratedSubtask `json:"subtasks"`
}

type rawGeneratedSubtask struct {
	Title  *string `json:"title"`
	Points *int64  `json:"points"`
}

// parseGeneratedTasks strictly decodes the model output and clamps points into range
func parseGeneratedTasks(content string) ([]GeneratedTask, error) {
	var raw rawGeneration
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &raw); err != nil {
		// Fractional or huge points land here; they are never rounded
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, malformedOutput("%s must be %s, got %s", typeErr.Field, typeErr.Type, typeErr.Value)
		}
		return nil, malformedOutput("response is not valid JSON: %v", err)
	}
	if raw.Tasks == nil {
		return nil, malformedOutput("response has no tasks field")
	}
	if len(*raw.Tasks) > constants.MaxAIGeneratedTasks {
		return nil, malformedOutput("response has %d tasks, at most %d allowed", len(*raw.Tasks), constants.MaxAIGeneratedTasks)
	}

	tasks := make([]GeneratedTask, 0, len(*raw.Tasks))
	for i, rt := range *raw.Tasks {
		title, points, err := requireTitleAndPoints(rt.Title, rt.Points)
		if err != nil {
			return nil, malformedOutput("task %d: %v", i, err)
		}

		task := GeneratedTask{
			Title:    title,
			Points:   points,
			Subtasks: make([]GeneratedSubtask, 0, len(rt.Subtasks)),
		}
		for j, rs := range rt.Subtasks {
			title, points, err := requireTitleAndPoints(rs.Title, rs.Points)
			if err != nil {
				return nil, malformedOutput("task %d subtask %d: %v", i, j, err)
			}
			task.Subtasks = append(task.Subtasks, GeneratedSubtask{Title: title, Points: points})
		}

		tasks = append(tasks, task)
	}

	return tasks, nil
}

func requireTitleAndPoints(title *string, points *int64) (string, int, error) {
	if title == nil || strings.TrimSpace(*title) == "" {
		return "", 0, fmt.Errorf("missing title")
	}
	if points == nil {
		return "", 0, fmt.Errorf("missing points")
	}
	return strings.TrimSpace(*title), clampGeneratedPoints(*points), nil
}

// stripCodeFence extracts the body of a ```json ... ``` or ``` ... ``` block if there is one
func stripCodeFence(content string) string {
	for _, fence := range []string{"```json", "```"} {
		start := strings.Index(content, fence)
		if start < 0 {
			continue
		}
		body := content[start+len(fence):]
		if end := strings.Index(body, "```"); end >= 0 {
			body = body[:end]
		}
		return strings.TrimSpace(body)
	}
	return strings.TrimSpace(content)
}

func malformedOutput(format string, args ...any) error {
	return apperrors.NewValidation("ai_output", format, args...)
}
