package models

// StudyMaterials is the structured output generated from one document.
// The shapes mirror what the frontend renders: a summary with key points,
// flashcards graded by difficulty, and a multiple-choice quiz.
type StudyMaterials struct {
	Summary    Summary        `json:"summary"`
	Flashcards []Flashcard    `json:"flashcards"`
	Quiz       []QuizQuestion `json:"quiz"`
}

type Summary struct {
	MainPoints      []KeyPoint       `json:"mainPoints"`
	KeyInsights     string           `json:"keyInsights"`
	Recommendations []Recommendation `json:"recommendations"`
}

type KeyPoint struct {
	KeyPoint string `json:"keyPoint"`
}

type Recommendation struct {
	Statement string `json:"statement"`
}

// Flashcard difficulty is one of "easy", "medium" or "hard".
type Flashcard struct {
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Difficulty string `json:"difficulty"`
}

// QuizQuestion holds four options; Correct is the 1-based index of the
// right one.
type QuizQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Correct  int      `json:"correct"`
}
