package lesson

type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type Question struct {
	ID              string   `json:"id"`
	QuestionText    string   `json:"questionText"`
	QuizType        string   `json:"quizType"` // multiple-choice, true-false, ...
	Tags            []string `json:"tags"`
	Options         []Option `json:"options"`
	CorrectAnswerID string   `json:"correctAnswerId,omitempty"`
	Explanation     string   `json:"explanation,omitempty"`
}

type Assessment struct {
	PassingScore int        `json:"passingScore"`
	Questions    []Question `json:"questions"`
}

type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type Lesson struct {
	ID               string         `json:"id"`
	TopicID          string         `json:"topicId"`
	Order            int            `json:"order"`
	Title            string         `json:"title"`
	XP               int            `json:"xp"`
	EstimatedMinutes int            `json:"estimatedMinutes"`
	Difficulty       string         `json:"difficulty"`
	Tags             []string       `json:"tags"`
	Content          []ContentBlock `json:"content"`
	Assessment       Assessment     `json:"assessment"`
	CreatedAt        int64          `json:"createdAt,omitempty"`
}

type Topic struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"createdAt,omitempty"`
}

// ContentSnippet is pre-authored remedial text addressed by concept tags.
type ContentSnippet struct {
	ID      string   `json:"id" db:"id"`
	Tags    []string `json:"tags" db:"-"`
	Content string   `json:"content" db:"content"`
}

// WithoutAnswerKeys returns a copy safe to serve to learners: correct option
// ids and explanations are cleared.
func (l Lesson) WithoutAnswerKeys() Lesson {
	qs := make([]Question, len(l.Assessment.Questions))
	for i, q := range l.Assessment.Questions {
		q.CorrectAnswerID = ""
		q.Explanation = ""
		qs[i] = q
	}
	l.Assessment.Questions = qs
	return l
}
