// SPDX-License-Identifier: Apache-2.0

package qa

// Question is one question to pose against a document, with an optional
// external id.
type Question struct {
	Text string
	UID  string
}

// Input pairs a document text with the questions to ask about it. It is the
// inverse-direction shape for feeding a QA model and carries no derived
// logic.
type Input struct {
	DocText   string
	Questions []Question
}

// NewInput builds an Input for one or more questions.
func NewInput(docText string, questions ...Question) Input {
	return Input{DocText: docText, Questions: questions}
}

// QuestionEntry is the serialized form of one question. Answers is always
// present and empty; the model fills it in.
type QuestionEntry struct {
	Question string   `json:"question"`
	ID       *string  `json:"id"`
	Answers  []string `json:"answers"`
}

// InputDocument is the serialized model-input shape.
type InputDocument struct {
	QAs     []QuestionEntry `json:"qas"`
	Context string          `json:"context"`
}

// Document projects the input onto the model-input schema.
func (in Input) Document() InputDocument {
	qas := make([]QuestionEntry, 0, len(in.Questions))
	for _, q := range in.Questions {
		entry := QuestionEntry{
			Question: q.Text,
			Answers:  []string{},
		}
		if q.UID != "" {
			uid := q.UID
			entry.ID = &uid
		}
		qas = append(qas, entry)
	}
	return InputDocument{QAs: qas, Context: in.DocText}
}
