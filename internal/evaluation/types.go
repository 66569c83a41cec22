package evaluation

import (
	"time"

	"kitchenrush/internal/models"
)

// Attempt is one answered question
type Attempt struct {
	QuestionID string             `json:"question_id"`
	SkillID    string             `json:"skill_id"`
	Station    models.StationType `json:"station"`
	ChoiceID   string             `json:"choice_id"`
	Correct    bool               `json:"correct"`
	TimeTaken  time.Duration      `json:"time_taken"`
	AnsweredAt time.Time          `json:"answered_at"`
}

// SessionSummary is the raw outcome of a session
type SessionSummary struct {
	SessionID       string    `json:"session_id"`
	UserID          string    `json:"user_id"`
	StartedAt       time.Time `json:"started_at"`
	EndedAt         time.Time `json:"ended_at"`
	Score           int       `json:"score"`
	OrdersGenerated int       `json:"orders_generated"`
	OrdersCompleted int       `json:"orders_completed"`
	OrdersFailed    int       `json:"orders_failed"`
	DishesServed    []string  `json:"dishes_served"`
	Attempts        []Attempt `json:"attempts"`
}

// Breakdown aggregates attempts for one station or skill
type Breakdown struct {
	Attempted int           `json:"attempted"`
	Correct   int           `json:"correct"`
	TotalTime time.Duration `json:"total_time"`
}

// Accuracy returns the percentage of correct attempts
func (b *Breakdown) Accuracy() float64 {
	return percent(b.Correct, b.Attempted)
}

// Report is the end-of-session recap
type Report struct {
	SessionSummary
	QuestionsAttempted int                               `json:"questions_attempted"`
	QuestionsCorrect   int                               `json:"questions_correct"`
	Accuracy           float64                           `json:"accuracy"`
	Grade              string                            `json:"grade"`
	Coins              int                               `json:"coins"`
	XP                 int                               `json:"xp"`
	Stations           map[models.StationType]*Breakdown `json:"stations"`
	Skills             map[string]*Breakdown             `json:"skills"`
	Review             []Attempt                         `json:"review"`
}

// Record converts the report into its persisted form
func (r *Report) Record() *models.SessionRecord {
	rec := &models.SessionRecord{
		SessionID:          r.SessionID,
		UserID:             r.UserID,
		StartedAt:          r.StartedAt,
		EndedAt:            r.EndedAt,
		Duration:           r.EndedAt.Sub(r.StartedAt),
		Score:              r.Score,
		OrdersGenerated:    r.OrdersGenerated,
		OrdersCompleted:    r.OrdersCompleted,
		OrdersFailed:       r.OrdersFailed,
		QuestionsAttempted: r.QuestionsAttempted,
		QuestionsCorrect:   r.QuestionsCorrect,
		Accuracy:           r.Accuracy,
		Grade:              r.Grade,
		Coins:              r.Coins,
		XP:                 r.XP,
		DishesServed:       models.StringSlice(r.DishesServed),
	}
	for _, a := range r.Attempts {
		rec.Attempts = append(rec.Attempts, models.AttemptRecord{
			QuestionID:  a.QuestionID,
			SkillID:     a.SkillID,
			StationType: a.Station,
			ChoiceID:    a.ChoiceID,
			Correct:     a.Correct,
			TimeTaken:   a.TimeTaken,
			AnsweredAt:  a.AnsweredAt,
		})
	}
	return rec
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}
