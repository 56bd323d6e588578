// SPDX-License-Identifier: Apache-2.0

package qa

import (
	"bytes"
	"encoding/json"
)

// TaskQA tags the emitted document with its task kind.
const TaskQA = "qa"

// Serializer is the capability a prediction container needs for output.
// PredictionSet is the only implementation today; further prediction kinds
// plug in here instead of subclassing a shared base.
type Serializer interface {
	ToJSON(squad bool) ([]byte, error)
}

// Document is the top-level output shape, shared by the native and the
// SQuAD-compatible schema.
type Document struct {
	Task        string            `json:"task"`
	Predictions []PredictionEntry `json:"predictions"`
}

// PredictionEntry holds the answers for one question. Exactly one of ID and
// QuestionID is set, depending on the schema variant.
type PredictionEntry struct {
	Question    string        `json:"question"`
	ID          string        `json:"id,omitempty"`
	QuestionID  string        `json:"question_id,omitempty"`
	GroundTruth *string       `json:"ground_truth"`
	Answers     []AnswerEntry `json:"answers"`
	NoAnswerGap float64       `json:"no_ans_gap"`
}

// AnswerEntry is one formatted candidate. Probability is always emitted as
// null; this is part of the output contract, not a missing value.
type AnswerEntry struct {
	Score              float64  `json:"score"`
	Probability        *float64 `json:"probability"`
	Answer             string   `json:"answer"`
	OffsetAnswerStart  int      `json:"offset_answer_start"`
	OffsetAnswerEnd    int      `json:"offset_answer_end"`
	Context            string   `json:"context"`
	OffsetContextStart int      `json:"offset_context_start"`
	OffsetContextEnd   int      `json:"offset_context_end"`
	DocumentID         string   `json:"document_id"`
}

// MarshalNoEscape encodes v into JSON without escaping <, > and & so answer
// and context text round-trips verbatim.
func MarshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// MarshalIndentNoEscape is MarshalNoEscape with indentation, for human
// consumption of the emitted document.
func MarshalIndentNoEscape(v any, prefix, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent(prefix, indent)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
