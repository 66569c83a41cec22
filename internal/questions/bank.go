package questions

import (
	"context"
	_ "embed"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"kitchenrush/internal/models"
)

//go:embed questions.yaml
var defaultQuestions []byte

// Bank is an in-memory question source
type Bank struct {
	questions []models.Question

	mu  sync.Mutex
	rng *rand.Rand
}

type bankFile struct {
	Questions []models.Question `yaml:"questions"`
}

// NewBank validates questions and builds a bank. A zero seed uses the clock.
func NewBank(questions []models.Question, seed int64) (*Bank, error) {
	seen := make(map[string]bool, len(questions))
	for i := range questions {
		q := &questions[i]
		if err := Validate(q); err != nil {
			return nil, err
		}
		if seen[q.ID] {
			return nil, fmt.Errorf("duplicate question id: %s", q.ID)
		}
		seen[q.ID] = true
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	stored := make([]models.Question, len(questions))
	for i, q := range questions {
		stored[i] = q.Clone()
	}
	return &Bank{questions: stored, rng: rand.New(rand.NewSource(seed))}, nil
}

// LoadBank parses a yaml question list
func LoadBank(data []byte, seed int64) (*Bank, error) {
	var f bankFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse questions: %w", err)
	}
	return NewBank(f.Questions, seed)
}

// DefaultBank returns the built-in question set
func DefaultBank(seed int64) (*Bank, error) {
	return LoadBank(defaultQuestions, seed)
}

// Validate checks that a question can be asked and answered
func Validate(q *models.Question) error {
	if q.ID == "" || q.Stem == "" {
		return fmt.Errorf("question requires an id and a stem")
	}
	if !q.StationType.IsValid() {
		return fmt.Errorf("question %s has unknown station type %q", q.ID, q.StationType)
	}
	if q.Difficulty < 1 || q.Difficulty > 5 {
		return fmt.Errorf("question %s difficulty must be 1-5", q.ID)
	}
	if len(q.Choices) < 2 {
		return fmt.Errorf("question %s needs at least two choices", q.ID)
	}
	if !q.HasChoice(q.CorrectChoiceID) {
		return fmt.Errorf("question %s: correct choice %q is not among its choices", q.ID, q.CorrectChoiceID)
	}
	return nil
}

// Fetch filters, shuffles and caps. A count of zero or less returns every match.
func (b *Bank) Fetch(ctx context.Context, q Query) ([]models.Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var matched []models.Question
	for i := range b.questions {
		if q.Matches(&b.questions[i]) {
			matched = append(matched, b.questions[i].Clone())
		}
	}
	if len(matched) == 0 {
		return nil, ErrNoQuestions
	}

	b.mu.Lock()
	b.rng.Shuffle(len(matched), func(i, j int) {
		matched[i], matched[j] = matched[j], matched[i]
	})
	b.mu.Unlock()

	if q.Count > 0 && q.Count < len(matched) {
		matched = matched[:q.Count]
	}
	return matched, nil
}

// Len returns the number of questions in the bank
func (b *Bank) Len() int {
	return len(b.questions)
}

// Stations returns how many questions each station type has
func (b *Bank) Stations() map[models.StationType]int {
	out := make(map[models.StationType]int)
	for _, q := range b.questions {
		out[q.StationType]++
	}
	return out
}
