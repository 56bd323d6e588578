// SPDX-License-Identifier: Apache-2.0

// Package schema validates emitted prediction documents against a CUE
// definition of the output contract, so schema drift is caught at the
// boundary instead of in downstream scoring tooling.
package schema

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cuejson "cuelang.org/go/encoding/json"
)

// documentSchema describes both output variants: the native shape carries
// "id", the SQuAD-compatible shape carries "question_id". probability is
// null by contract.
const documentSchema = `
#Answer: {
	score:                number
	probability:          null
	answer:               string
	offset_answer_start:  int & >=0
	offset_answer_end:    int & >=0
	context:              string
	offset_context_start: int & >=0
	offset_context_end:   int & >=0
	document_id:          string
}

#Prediction: {
	question:     string
	ground_truth: string | null
	answers: [...#Answer]
	no_ans_gap: number

	// id for the native schema, question_id for SQuAD; exactly one is set.
	{id: string, question_id?: _|_} | {question_id: string, id?: _|_}
}

task: "qa"
predictions: [...#Prediction]
`

var (
	cuectx   *cue.Context
	compiled cue.Value
)

func init() {
	cuectx = cuecontext.New()
	compiled = cuectx.CompileString(documentSchema)
	if err := compiled.Err(); err != nil {
		panic(fmt.Sprintf("invalid document schema: %v", err))
	}
}

// ValidateDocument checks a serialized prediction document against the
// output contract. Validation is concrete: required fields that are absent
// from the document are errors, not merely unresolved.
func ValidateDocument(data []byte) error {
	expr, err := cuejson.Extract("document.json", data)
	if err != nil {
		return fmt.Errorf("document is not valid JSON: %w", err)
	}
	doc := cuectx.BuildExpr(expr)
	if err := doc.Err(); err != nil {
		return fmt.Errorf("document is not valid JSON: %w", err)
	}
	if err := compiled.Unify(doc).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("document does not match output schema: %w", err)
	}
	return nil
}
