package llm

import "strings"

// Instructions sent alongside the page images.
var (
	AnswerKeyInstruction = strings.Join([]string{
		"The images are the pages of an exam answer key, in order.",
		"Return ONLY JSON that matches the provided JSON Schema: one element per question.",
		"Copy question text and ideal answers exactly as written in the images. Do not add, replace or remove content.",
		"Keep the question numbering of the source; do not renumber.",
		"Use the marks printed for each question as max_mark_per_question.",
	}, " ")

	StudentDetailInstruction = strings.Join([]string{
		"The images are the pages of one student's answer script, in order.",
		"Return ONLY JSON that matches the provided JSON Schema.",
		"Take only the student's name, roll number, class and section from the images.",
		"If a value is not visible, use an empty string. Never copy answers into these fields.",
	}, " ")
)
