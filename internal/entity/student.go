package entity

// StudentDetail is the identity block read from one answer script.
// UserID (submitter) and ExamID are assigned by the persistence stage.
type StudentDetail struct {
	ID      string `json:"id,omitempty"`
	UserID  string `json:"user_id,omitempty"`
	ExamID  string `json:"exam_id,omitempty"`
	Name    string `json:"name"`
	RollNo  string `json:"roll_no"`
	Class   string `json:"class"`
	Section string `json:"section"`
}
