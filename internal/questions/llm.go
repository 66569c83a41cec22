package questions

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"kitchenrush/internal/models"
)

// LLMSource generates questions with a language model and falls back to
// another source when the model is slow, unavailable or returns junk
type LLMSource struct {
	gen      Generator
	fallback Source
	timeout  time.Duration
}

// NewLLMSource creates an LLM-backed source
func NewLLMSource(gen Generator, fallback Source, timeout time.Duration) *LLMSource {
	return &LLMSource{gen: gen, fallback: fallback, timeout: timeout}
}

type generated struct {
	questions []models.Question
	err       error
}

// Fetch implements Source
func (s *LLMSource) Fetch(ctx context.Context, q Query) ([]models.Question, error) {
	genCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := make(chan generated, 1)
	go func() {
		qs, err := s.generate(genCtx, q)
		done <- generated{questions: qs, err: err}
	}()

	var err error
	select {
	case res := <-done:
		if res.err == nil {
			return res.questions, nil
		}
		err = res.err
	case <-genCtx.Done():
		err = genCtx.Err()
	}

	log.Printf("Question generation failed for station %s, using fallback: %v", q.StationType, err)
	if s.fallback == nil {
		return nil, ErrNoQuestions
	}
	return s.fallback.Fetch(ctx, q)
}

func (s *LLMSource) generate(ctx context.Context, q Query) ([]models.Question, error) {
	text, err := s.gen.Complete(ctx, buildPrompt(q))
	if err != nil {
		return nil, err
	}
	qs, err := parseQuestions(text, q)
	if err != nil {
		return nil, err
	}
	if q.Count > 0 && len(qs) > q.Count {
		qs = qs[:q.Count]
	}
	return qs, nil
}

func buildPrompt(q Query) string {
	count := q.Count
	if count <= 0 {
		count = 1
	}
	exam := q.ExamType
	if exam == "" {
		exam = "SAT"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Write %d multiple-choice %s practice question(s) themed around a kitchen %s station.\n", count, exam, q.StationType)
	if len(q.Skills) > 0 {
		fmt.Fprintf(&b, "Cover these skills: %s.\n", strings.Join(q.Skills, ", "))
	}
	if q.Difficulty > 0 {
		fmt.Fprintf(&b, "Difficulty %d on a 1-5 scale.\n", q.Difficulty)
	}
	b.WriteString("Respond with JSON only, in the form ")
	b.WriteString(`{"questions":[{"skill_id":"","section":"","difficulty":1,"stem":"","passage":"",` +
		`"choices":[{"id":"a","text":""}],"correct_choice_id":"a","explanation":""}]}`)
	return b.String()
}

type llmResponse struct {
	Questions []struct {
		SkillID         string          `json:"skill_id"`
		Section         string          `json:"section"`
		Difficulty      int             `json:"difficulty"`
		Stem            string          `json:"stem"`
		Passage         string          `json:"passage"`
		Choices         []models.Choice `json:"choices"`
		CorrectChoiceID string          `json:"correct_choice_id"`
		Explanation     string          `json:"explanation"`
	} `json:"questions"`
}

// parseQuestions extracts and validates the JSON payload of a completion
func parseQuestions(text string, q Query) ([]models.Question, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("completion contains no JSON object")
	}

	var resp llmResponse
	if err := json.Unmarshal([]byte(text[start:end+1]), &resp); err != nil {
		return nil, fmt.Errorf("failed to decode generated questions: %w", err)
	}

	exam := q.ExamType
	if exam == "" {
		exam = "SAT"
	}
	var out []models.Question
	for _, g := range resp.Questions {
		question := models.Question{
			ID:              "llm-" + uuid.NewString(),
			SkillID:         g.SkillID,
			ExamType:        exam,
			Section:         g.Section,
			Difficulty:      g.Difficulty,
			StationType:     q.StationType,
			Stem:            g.Stem,
			Passage:         g.Passage,
			Choices:         g.Choices,
			CorrectChoiceID: g.CorrectChoiceID,
			Explanation:     g.Explanation,
		}
		if question.Difficulty == 0 {
			question.Difficulty = 3
		}
		if err := Validate(&question); err != nil {
			log.Printf("Dropping generated question: %v", err)
			continue
		}
		out = append(out, question)
	}
	if len(out) == 0 {
		return nil, ErrNoQuestions
	}
	return out, nil
}
