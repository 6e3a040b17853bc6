package entity

// AnswerKeyEntry is one question of an exam's answer key.
// ExamID is assigned by the persistence stage, never by the extraction model.
type AnswerKeyEntry struct {
	ID                 string  `json:"id,omitempty"`
	ExamID             string  `json:"exam_id,omitempty"`
	QuestionNo         int     `json:"question_no"`
	QuestionText       string  `json:"question_text"`
	IdealAnswer        string  `json:"ideal_answer"`
	MaxMarkPerQuestion float64 `json:"max_mark_per_question"`
}
