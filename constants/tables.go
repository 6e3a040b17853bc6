package constants

// Table names in the relational store.
const (
	TableExams      = "exams"
	TableAnswerKeys = "answer_keys"
	TableStudents   = "students"
)
