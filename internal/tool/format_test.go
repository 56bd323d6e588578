// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qaformproj/qaform-mcp/internal/config"
	"github.com/qaformproj/qaform-mcp/internal/qa"
)

func TestFormatPredictions(t *testing.T) {
	ctx := context.Background()
	req := &mcp.CallToolRequest{}
	handler := FormatPredictions(Options{Config: config.Default()})

	parisRequest := qa.Request{
		ID:           "doc-1",
		Question:     "What is the capital of France?",
		Context:      "The capital of France is Paris.",
		TokenOffsets: []int{0, 4, 12, 15, 22, 25, 30},
		NoAnswerGap:  2.1,
		Candidates: []qa.RawCandidate{
			{AnswerType: "span", Score: 0.93, StartToken: 5, EndToken: 5, PassageID: "p0", NPassagesInDoc: 1},
			{AnswerType: "no_answer", Score: 0.2, StartToken: -1, EndToken: -1, PassageID: "p0", NPassagesInDoc: 1},
		},
	}

	tests := []struct {
		name           string
		input          InputFormatPredictions
		wantErr        bool
		errContains    string
		validateOutput func(t *testing.T, output OutputFormatPredictions)
	}{
		{
			name:        "missing question returns error",
			input:       InputFormatPredictions{Request: qa.Request{Context: "text", Candidates: []qa.RawCandidate{{StartToken: -1, EndToken: -1}}}},
			wantErr:     true,
			errContains: "question is required",
		},
		{
			name:        "missing context returns error",
			input:       InputFormatPredictions{Request: qa.Request{Question: "q", Candidates: []qa.RawCandidate{{StartToken: -1, EndToken: -1}}}},
			wantErr:     true,
			errContains: "context is required",
		},
		{
			name: "span outside offset table returns error",
			input: InputFormatPredictions{Request: qa.Request{
				Question:     "q",
				Context:      "short",
				TokenOffsets: []int{0},
				Candidates:   []qa.RawCandidate{{AnswerType: "span", StartToken: 4, EndToken: 5}},
			}},
			wantErr:     true,
			errContains: "outside offset table",
		},
		{
			name:  "native document for a span and a no-answer",
			input: InputFormatPredictions{Request: parisRequest},
			validateOutput: func(t *testing.T, output OutputFormatPredictions) {
				assert.Equal(t, 2, output.AnswerCount)
				assert.Empty(t, output.Diagnostics)

				var doc map[string]any
				require.NoError(t, json.Unmarshal(output.Document, &doc))
				assert.Equal(t, "qa", doc["task"])

				pred := doc["predictions"].([]any)[0].(map[string]any)
				assert.Equal(t, "doc-1", pred["id"])
				answers := pred["answers"].([]any)
				require.Len(t, answers, 2)
				assert.Equal(t, "Paris", answers[0].(map[string]any)["answer"])
				assert.Equal(t, "no_answer", answers[1].(map[string]any)["answer"])
			},
		},
		{
			name:  "squad document replaces the no-answer sentinel",
			input: InputFormatPredictions{Request: parisRequest, SQuADFormat: true},
			validateOutput: func(t *testing.T, output OutputFormatPredictions) {
				var doc map[string]any
				require.NoError(t, json.Unmarshal(output.Document, &doc))
				pred := doc["predictions"].([]any)[0].(map[string]any)
				assert.Equal(t, "doc-1", pred["question_id"])
				assert.NotContains(t, pred, "id")
				answers := pred["answers"].([]any)
				assert.Equal(t, "", answers[1].(map[string]any)["answer"])
			},
		},
		{
			name: "request window size wins over the server default",
			input: func() InputFormatPredictions {
				req := parisRequest
				req.ContextWindowSize = 10
				return InputFormatPredictions{Request: req}
			}(),
			validateOutput: func(t *testing.T, output OutputFormatPredictions) {
				var doc map[string]any
				require.NoError(t, json.Unmarshal(output.Document, &doc))
				pred := doc["predictions"].([]any)[0].(map[string]any)
				top := pred["answers"].([]any)[0].(map[string]any)
				assert.Equal(t, " is Paris.", top["context"], "window must honor the request's 10 chars, not the server default")
				assert.InDelta(t, 21, top["offset_context_start"], 1e-9)
				assert.InDelta(t, 31, top["offset_context_end"], 1e-9)
			},
		},
		{
			name: "anomalies are reported, not fatal",
			input: InputFormatPredictions{Request: qa.Request{
				ID:           "doc-2",
				Question:     "q",
				Context:      "The capital of France is Paris.",
				TokenOffsets: []int{0, 4, 12, 15, 22, 25, 30},
				Candidates: []qa.RawCandidate{
					{AnswerType: "span", Score: 0.5, StartToken: 3, EndToken: 1},
					{AnswerType: "span", Score: 0.4, StartToken: 5, EndToken: 5},
				},
			}},
			validateOutput: func(t *testing.T, output OutputFormatPredictions) {
				assert.Equal(t, 2, output.AnswerCount)
				require.Len(t, output.Diagnostics, 1)
				assert.Equal(t, qa.CodeNoAnswerOffsets, output.Diagnostics[0].Code)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, output, err := handler(ctx, req, tt.input)

			if tt.wantErr {
				require.Error(t, err)
				if tt.errContains != "" {
					assert.Contains(t, err.Error(), tt.errContains)
				}
				return
			}

			require.NoError(t, err)
			if tt.validateOutput != nil {
				tt.validateOutput(t, output)
			}
		})
	}
}

func TestFormatPredictions_ValidateOutput(t *testing.T) {
	cfg := config.Default()
	cfg.ValidateOutput = true
	handler := FormatPredictions(Options{Config: cfg})

	_, output, err := handler(context.Background(), &mcp.CallToolRequest{}, InputFormatPredictions{Request: qa.Request{
		ID:           "doc-3",
		Question:     "q",
		Context:      "The capital of France is Paris.",
		TokenOffsets: []int{0, 4, 12, 15, 22, 25, 30},
		Candidates:   []qa.RawCandidate{{AnswerType: "span", Score: 1, StartToken: 5, EndToken: 5}},
	}})

	require.NoError(t, err)
	assert.NotEmpty(t, output.Document)
}
