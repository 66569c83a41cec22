package models

// Choice is one multiple-choice answer
type Choice struct {
	ID   string `json:"id" yaml:"id"`
	Text string `json:"text" yaml:"text"`
}

// Question is a skill-check question shown at a station
type Question struct {
	ID              string      `json:"id" yaml:"id"`
	SkillID         string      `json:"skill_id" yaml:"skill_id"`
	ExamType        string      `json:"exam_type" yaml:"exam_type"` // SAT or ACT
	Section         string      `json:"section" yaml:"section"`
	Difficulty      int         `json:"difficulty" yaml:"difficulty"` // 1-5
	StationType     StationType `json:"station_type" yaml:"station_type"`
	Stem            string      `json:"stem" yaml:"stem"`
	Passage         string      `json:"passage,omitempty" yaml:"passage"`
	Choices         []Choice    `json:"choices" yaml:"choices"`
	CorrectChoiceID string      `json:"correct_choice_id" yaml:"correct_choice_id"`
	Explanation     string      `json:"explanation" yaml:"explanation"`
}

// IsCorrect checks a submitted choice id
func (q *Question) IsCorrect(choiceID string) bool {
	return choiceID != "" && choiceID == q.CorrectChoiceID
}

// HasChoice reports whether the id names one of the question's choices
func (q *Question) HasChoice(choiceID string) bool {
	for _, c := range q.Choices {
		if c.ID == choiceID {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no slices with q
func (q Question) Clone() Question {
	q.Choices = append([]Choice(nil), q.Choices...)
	return q
}

// QuestionView is what a player sees while answering; the answer is withheld
type QuestionView struct {
	ID          string      `json:"id"`
	SkillID     string      `json:"skill_id"`
	ExamType    string      `json:"exam_type"`
	Section     string      `json:"section"`
	Difficulty  int         `json:"difficulty"`
	StationType StationType `json:"station_type"`
	Stem        string      `json:"stem"`
	Passage     string      `json:"passage,omitempty"`
	Choices     []Choice    `json:"choices"`
}

// View strips the answer and explanation
func (q *Question) View() QuestionView {
	return QuestionView{
		ID:          q.ID,
		SkillID:     q.SkillID,
		ExamType:    q.ExamType,
		Section:     q.Section,
		Difficulty:  q.Difficulty,
		StationType: q.StationType,
		Stem:        q.Stem,
		Passage:     q.Passage,
		Choices:     append([]Choice(nil), q.Choices...),
	}
}
