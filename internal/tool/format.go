// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/qaformproj/qaform-mcp/internal/config"
	"github.com/qaformproj/qaform-mcp/internal/qa"
	"github.com/qaformproj/qaform-mcp/internal/schema"
)

// MetadataFormatPredictions describes the format_qa_predictions tool.
var MetadataFormatPredictions = &mcp.Tool{
	Name: "format_qa_predictions",
	Description: "Format raw question-answering model output into a structured answer document. " +
		"Takes token-level span candidates plus the passage text and its token-offset table, " +
		"converts spans to character offsets, derives answer strings, extracts a bounded context " +
		"window around each answer for display, and serializes to the native or SQuAD-compatible " +
		"JSON schema. Data anomalies (inconsistent offsets, wrong offset units) are reported as " +
		"diagnostics alongside the document rather than failing the request.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"question", "context", "token_offsets", "candidates"},
		"properties": map[string]interface{}{
			"id": map[string]interface{}{
				"type":        "string",
				"description": "Identifier of the (question, passage-or-document) pair, echoed as id/question_id and document_id.",
			},
			"question": map[string]interface{}{
				"type":        "string",
				"description": "The question being answered.",
			},
			"context": map[string]interface{}{
				"type":        "string",
				"description": "The passage text the candidate spans point into.",
			},
			"token_offsets": map[string]interface{}{
				"type":        "array",
				"items":       map[string]interface{}{"type": "integer"},
				"description": "Start character index of each token in the context, ascending, index-aligned with the model's token spans.",
			},
			"context_window_size": map[string]interface{}{
				"type":        "integer",
				"description": "Requested display-window size in characters. Defaults to the server configuration; grows automatically for longer answers.",
			},
			"no_ans_gap": map[string]interface{}{
				"type":        "number",
				"description": "Margin by which the no-answer boost would need to shift to flip a no-answer into a positive answer.",
			},
			"ground_truth": map[string]interface{}{
				"type":        "string",
				"description": "Optional gold answer, passed through to the output document.",
			},
			"squad_format": map[string]interface{}{
				"type":        "boolean",
				"description": "Emit the SQuAD-compatible schema: question_id instead of id, empty strings for no-answers.",
			},
			"candidates": map[string]interface{}{
				"type":        "array",
				"description": "Scored span candidates in ranking order. Token spans are inclusive; (-1,-1) is the no-answer prediction.",
				"items": map[string]interface{}{
					"type":     "object",
					"required": []string{"answer_type", "score", "start_token", "end_token"},
					"properties": map[string]interface{}{
						"answer_type":       map[string]interface{}{"type": "string", "enum": []string{"span", "yes", "no", "no_answer"}},
						"score":             map[string]interface{}{"type": "number"},
						"start_token":       map[string]interface{}{"type": "integer"},
						"end_token":         map[string]interface{}{"type": "integer"},
						"probability":       map[string]interface{}{"type": "number"},
						"confidence":        map[string]interface{}{"type": "number"},
						"passage_id":        map[string]interface{}{"type": "string"},
						"n_passages_in_doc": map[string]interface{}{"type": "integer"},
						"offset_unit":       map[string]interface{}{"type": "string", "enum": []string{"token", "char"}, "description": "Defaults to token; anything else is reported as an anomaly."},
						"aggregation_level": map[string]interface{}{"type": "string", "enum": []string{"passage", "document"}},
						"predicted_class":   map[string]interface{}{"type": "string", "description": "Optional yes/no signal from a classification head."},
					},
				},
			},
		},
	},
}

// InputFormatPredictions is the input for the FormatPredictions tool.
type InputFormatPredictions struct {
	qa.Request
	SQuADFormat bool `json:"squad_format"`
}

// OutputFormatPredictions is the output for the FormatPredictions tool.
type OutputFormatPredictions struct {
	// Document is the serialized answer document in the selected schema.
	Document json.RawMessage `json:"document"`
	// Diagnostics lists the data anomalies found while deriving answers.
	Diagnostics []qa.Diagnostic `json:"diagnostics"`
	// AnswerCount is the number of formatted candidates.
	AnswerCount int `json:"answer_count"`
}

// Options carries the server-side defaults applied to every request.
type Options struct {
	Config config.Config
	// Sink additionally receives diagnostics, e.g. for structured logging.
	Sink qa.DiagnosticSink
}

// FormatPredictions formats one raw prediction payload. Contract violations
// in the payload fail the request; data anomalies inside a structurally
// valid payload are returned as diagnostics with a best-effort document.
func FormatPredictions(opts Options) func(ctx context.Context, req *mcp.CallToolRequest, input InputFormatPredictions) (*mcp.CallToolResult, OutputFormatPredictions, error) {
	return func(_ context.Context, _ *mcp.CallToolRequest, input InputFormatPredictions) (*mcp.CallToolResult, OutputFormatPredictions, error) {
		if input.Question == "" {
			return nil, OutputFormatPredictions{}, fmt.Errorf("question is required")
		}
		if err := input.Request.Validate(); err != nil {
			return nil, OutputFormatPredictions{}, err
		}

		// A per-request window size wins over the server default.
		size := input.Request.ContextWindowSize
		if size <= 0 {
			size = opts.Config.ContextWindowSize
		}
		set := input.Request.PredictionSet(size, opts.Sink)
		if len(set.AnswerTypes) == 0 {
			set.AnswerTypes = opts.Config.AnswerTypes
		}

		squad := input.SQuADFormat || opts.Config.SQuADFormat
		data, err := set.ToJSON(squad)
		if err != nil {
			return nil, OutputFormatPredictions{}, fmt.Errorf("serialize document: %w", err)
		}
		if opts.Config.ValidateOutput {
			if err := schema.ValidateDocument(data); err != nil {
				return nil, OutputFormatPredictions{}, err
			}
		}

		diags := set.Diagnostics
		if diags == nil {
			diags = []qa.Diagnostic{}
		}
		return nil, OutputFormatPredictions{
			Document:    data,
			Diagnostics: diags,
			AnswerCount: len(set.Candidates),
		}, nil
	}
}
