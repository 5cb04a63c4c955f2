package mcp

import (
	"github.com/Aman-CERP/simscore/internal/embed"
	"github.com/Aman-CERP/simscore/internal/telemetry"
)

// CompareTextsInput defines the input schema for the compare_texts tool.
type CompareTextsInput struct {
	Text1  string `json:"text1" jsonschema:"the first text"`
	Text2  string `json:"text2" jsonschema:"the second text"`
	Method string `json:"method,omitempty" jsonschema:"scoring method: lexical (TF-IDF, default) or semantic (embeddings)"`
}

// CompareTextsOutput defines the output schema for the compare_texts tool.
type CompareTextsOutput struct {
	Score      float64 `json:"score" jsonschema:"cosine similarity in [-1, 1], rounded to 4 decimals"`
	MethodUsed string  `json:"method_used" jsonschema:"label of the scorer that produced the score"`
	Percentage string  `json:"percentage" jsonschema:"score times 100 with two decimals and a percent sign"`
}

// SimilarityStatusInput defines the input schema for the similarity_status tool (no parameters).
type SimilarityStatusInput struct{}

// SimilarityStatusOutput defines the output schema for the similarity_status tool.
type SimilarityStatusOutput struct {
	Methods   []string            `json:"methods"`
	Encoder   EncoderInfo         `json:"encoder"`
	Telemetry *telemetry.Snapshot `json:"telemetry,omitempty"` // nil when telemetry is disabled
}

// EncoderInfo describes the semantic encoder without loading it.
type EncoderInfo struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Status   string `json:"status"` // "ready", "not_loaded" or "unavailable"

	Handle embed.HandleStatus `json:"handle"`
}

// encoderStatus folds the handle state into a single word.
func encoderStatus(st embed.HandleStatus) string {
	switch {
	case st.Loaded:
		return "ready"
	case st.Breaker == "open":
		return "unavailable"
	default:
		return "not_loaded"
	}
}
