// Package questions supplies the skill-check questions shown at stations.
package questions

import (
	"context"
	"errors"

	"kitchenrush/internal/models"
)

// ErrNoQuestions is returned when nothing matches a query
var ErrNoQuestions = errors.New("no questions available")

// Query selects questions
type Query struct {
	Count       int                `form:"count" json:"count"`
	StationType models.StationType `form:"station" json:"station_type"`
	Skills      []string           `form:"skill" json:"skills,omitempty"`
	Difficulty  int                `form:"difficulty" json:"difficulty,omitempty"`
	ExamType    string             `form:"exam" json:"exam_type,omitempty"`
}

// Source returns a shuffled, size-capped set of questions matching a query.
// Implementations never hand out their own backing data.
type Source interface {
	Fetch(ctx context.Context, q Query) ([]models.Question, error)
}

// Matches reports whether a question satisfies every filter set on the query
func (q Query) Matches(question *models.Question) bool {
	if q.StationType != "" && question.StationType != q.StationType {
		return false
	}
	if q.Difficulty > 0 && question.Difficulty != q.Difficulty {
		return false
	}
	if q.ExamType != "" && question.ExamType != q.ExamType {
		return false
	}
	if len(q.Skills) > 0 {
		for _, s := range q.Skills {
			if s == question.SkillID {
				return true
			}
		}
		return false
	}
	return true
}
