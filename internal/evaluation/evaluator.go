package evaluation

import (
	"sort"

	"kitchenrush/internal/models"
)

// GradeBand maps a minimum accuracy to a letter grade
type GradeBand struct {
	Min   float64
	Grade string
}

// Evaluator turns a session summary into a recap with rewards.
// Grade bands are checked from the highest minimum down.
type Evaluator struct {
	bands        []GradeBand
	coinDivisor  int
	xpPerCorrect int
	xpPerOrder   int
}

// DefaultBands is the usual A-F scale
var DefaultBands = []GradeBand{
	{Min: 90, Grade: "A"},
	{Min: 80, Grade: "B"},
	{Min: 70, Grade: "C"},
	{Min: 60, Grade: "D"},
}

// NewEvaluator creates an evaluator with the standard scale and rewards:
// one coin per ten points, 10 XP per correct answer and 50 XP per served order
func NewEvaluator() *Evaluator {
	bands := make([]GradeBand, len(DefaultBands))
	copy(bands, DefaultBands)
	return &Evaluator{
		bands:        bands,
		coinDivisor:  10,
		xpPerCorrect: 10,
		xpPerOrder:   50,
	}
}

// Grade returns the letter for an accuracy percentage
func (e *Evaluator) Grade(accuracy float64) string {
	for _, b := range e.bands {
		if accuracy >= b.Min {
			return b.Grade
		}
	}
	return "F"
}

// Coins converts a score into coins
func (e *Evaluator) Coins(score int) int {
	if score <= 0 {
		return 0
	}
	return score / e.coinDivisor
}

// XP rewards correct answers and completed orders
func (e *Evaluator) XP(correct, completed int) int {
	return correct*e.xpPerCorrect + completed*e.xpPerOrder
}

// Evaluate builds the recap for a session
func (e *Evaluator) Evaluate(s SessionSummary) *Report {
	r := &Report{
		SessionSummary: s,
		Stations:       make(map[models.StationType]*Breakdown),
		Skills:         make(map[string]*Breakdown),
	}

	for _, a := range s.Attempts {
		r.QuestionsAttempted++
		if a.Correct {
			r.QuestionsCorrect++
		} else {
			r.Review = append(r.Review, a)
		}
		add(r.Stations, a.Station, a)
		if a.SkillID != "" {
			add(r.Skills, a.SkillID, a)
		}
	}

	r.Accuracy = percent(r.QuestionsCorrect, r.QuestionsAttempted)
	r.Grade = e.Grade(r.Accuracy)
	r.Coins = e.Coins(s.Score)
	r.XP = e.XP(r.QuestionsCorrect, s.OrdersCompleted)
	return r
}

func add[K comparable](m map[K]*Breakdown, key K, a Attempt) {
	b, ok := m[key]
	if !ok {
		b = &Breakdown{}
		m[key] = b
	}
	b.Attempted++
	if a.Correct {
		b.Correct++
	}
	b.TotalTime += a.TimeTaken
}

// WeakestSkills lists skills by ascending accuracy, most attempts first on ties
func (r *Report) WeakestSkills(n int) []string {
	skills := make([]string, 0, len(r.Skills))
	for s := range r.Skills {
		skills = append(skills, s)
	}
	sort.Slice(skills, func(i, j int) bool {
		a, b := r.Skills[skills[i]], r.Skills[skills[j]]
		if a.Accuracy() != b.Accuracy() {
			return a.Accuracy() < b.Accuracy()
		}
		if a.Attempted != b.Attempted {
			return a.Attempted > b.Attempted
		}
		return skills[i] < skills[j]
	})
	if n > 0 && len(skills) > n {
		skills = skills[:n]
	}
	return skills
}
