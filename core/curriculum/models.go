package curriculum

// The curriculum is admin-authored content shipped with the binary: phases
// (numbered 0..N) containing topics, which in turn hold learning steps,
// knowledge questions and setup checklist items. A phase may also carry a
// hands-on requirement verified against the learner's project repository.

type (
	LearningStep struct {
		ID    string `json:"id" yaml:"id"`
		Title string `json:"title" yaml:"title"`
		Body  string `json:"body,omitempty" yaml:"body"`
		Link  string `json:"link,omitempty" yaml:"link"`
	}

	Question struct {
		ID     string `json:"id" yaml:"id"`
		Prompt string `json:"prompt" yaml:"prompt"`
		Hint   string `json:"hint,omitempty" yaml:"hint"`
	}

	ChecklistItem struct {
		ID    string `json:"id" yaml:"id"`
		Title string `json:"title" yaml:"title"`
	}

	// HandsOn describes the practical requirement of a phase: a project the
	// learner builds in a public repository, verified by probing for the
	// required artifacts (file paths relative to the repository root).
	HandsOn struct {
		Project     string   `json:"project" yaml:"project"`
		Description string   `json:"description,omitempty" yaml:"description"`
		Artifacts   []string `json:"artifacts" yaml:"artifacts"`
	}

	Topic struct {
		Slug        string          `json:"slug" yaml:"slug"`
		Name        string          `json:"name" yaml:"name"`
		Description string          `json:"description,omitempty" yaml:"description"`
		Steps       []LearningStep  `json:"steps" yaml:"steps"`
		Questions   []Question      `json:"questions" yaml:"questions"`
		Checklist   []ChecklistItem `json:"checklist,omitempty" yaml:"checklist"`
	}

	Phase struct {
		Number      int      `json:"number" yaml:"number"`
		Slug        string   `json:"slug" yaml:"slug"`
		Name        string   `json:"name" yaml:"name"`
		Description string   `json:"description,omitempty" yaml:"description"`
		Topics      []Topic  `json:"topics" yaml:"topics"`
		HandsOn     *HandsOn `json:"hands_on,omitempty" yaml:"hands_on"`
	}
)

func (t Topic) Step(id string) (LearningStep, bool) {
	for _, s := range t.Steps {
		if s.ID == id {
			return s, true
		}
	}
	return LearningStep{}, false
}

func (t Topic) Question(id string) (Question, bool) {
	for _, q := range t.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

func (t Topic) ChecklistEntry(id string) (ChecklistItem, bool) {
	for _, c := range t.Checklist {
		if c.ID == id {
			return c, true
		}
	}
	return ChecklistItem{}, false
}

// StepCount returns the number of learning steps across all topics.
func (p Phase) StepCount() int {
	var n int
	for _, t := range p.Topics {
		n += len(t.Steps)
	}
	return n
}

// QuestionCount returns the number of questions across all topics.
func (p Phase) QuestionCount() int {
	var n int
	for _, t := range p.Topics {
		n += len(t.Questions)
	}
	return n
}

// ChecklistCount returns the number of checklist items across all topics.
func (p Phase) ChecklistCount() int {
	var n int
	for _, t := range p.Topics {
		n += len(t.Checklist)
	}
	return n
}

func (p Phase) Topic(slug string) (Topic, bool) {
	for _, t := range p.Topics {
		if t.Slug == slug {
			return t, true
		}
	}
	return Topic{}, false
}

// RequiresHandsOn reports whether completing this phase requires a verified
// hands-on submission.
func (p Phase) RequiresHandsOn() bool {
	return p.HandsOn != nil
}
