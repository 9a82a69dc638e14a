package tools

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SuggestedTool points at a follow-up tool the caller (or the chain
// executor) may want to run next, with any parameters that can be
// carried over from the current invocation.
type SuggestedTool struct {
	Tool       string         `json:"tool"`
	Reason     string         `json:"reason,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// ContentSummary describes tabular payloads for downstream consumers.
type ContentSummary struct {
	Fields      []string `json:"fields,omitempty"`
	RecordCount int      `json:"recordCount"`
}

// ResultMetadata carries descriptive information about a tool invocation.
type ResultMetadata struct {
	Intent                 string          `json:"intent"`
	Description            string          `json:"description"`
	DataType               string          `json:"dataType"`
	DataSize               int             `json:"dataSize"`
	Confidence             float64         `json:"confidence"`
	RequiresPostProcessing bool            `json:"requiresPostProcessing"`
	SuggestedTools         []SuggestedTool `json:"suggestedTools,omitempty"`
	ContentSummary         *ContentSummary `json:"contentSummary,omitempty"`
}

// ToolResult is the uniform envelope a successful tool invocation produces.
// Constructed fresh per call, never persisted by the core.
type ToolResult struct {
	ResultID  string         `json:"resultId"`
	Tool      string         `json:"tool"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  ResultMetadata `json:"metadata"`
	Payload   any            `json:"payload"`
}

// ResultOption customizes a ToolResult under construction.
type ResultOption func(*ToolResult)

// WithSuggestions attaches follow-up tool references.
func WithSuggestions(suggestions ...SuggestedTool) ResultOption {
	return func(r *ToolResult) {
		r.Metadata.SuggestedTools = append(r.Metadata.SuggestedTools, suggestions...)
		r.Metadata.RequiresPostProcessing = len(r.Metadata.SuggestedTools) > 0
	}
}

// WithConfidence records the classifier confidence behind this invocation.
func WithConfidence(confidence float64) ResultOption {
	return func(r *ToolResult) {
		r.Metadata.Confidence = confidence
	}
}

// WithContentSummary attaches a summary of tabular payload content.
func WithContentSummary(fields []string, count int) ResultOption {
	return func(r *ToolResult) {
		r.Metadata.ContentSummary = &ContentSummary{Fields: fields, RecordCount: count}
	}
}

// NewResult builds a ToolResult envelope for the given tool and payload.
func NewResult(tool, intent, description string, payload any, opts ...ResultOption) *ToolResult {
	r := &ToolResult{
		ResultID:  uuid.New().String(),
		Tool:      tool,
		Timestamp: time.Now().UTC(),
		Metadata: ResultMetadata{
			Intent:      intent,
			Description: description,
			DataType:    "application/json",
			Confidence:  1.0,
		},
		Payload: payload,
	}
	if payload != nil {
		if data, err := json.Marshal(payload); err == nil {
			r.Metadata.DataSize = len(data)
		}
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}
