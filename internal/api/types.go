package api

import (
	"github.com/Aman-CERP/simscore/internal/embed"
	"github.com/Aman-CERP/simscore/internal/similarity"
)

// WelcomeResponse is the body of GET /.
type WelcomeResponse struct {
	Message string `json:"message"`
}

// CompareResponse is the body of a successful comparison.
type CompareResponse struct {
	SimilarityScore      float64 `json:"similarity_score"`
	MethodUsed           string  `json:"method_used"`
	PercentageSimilarity string  `json:"percentage_similarity"`
}

// NewCompareResponse builds the response for result.
func NewCompareResponse(result similarity.Result) CompareResponse {
	return CompareResponse{
		SimilarityScore:      result.Score,
		MethodUsed:           result.Method,
		PercentageSimilarity: result.Percentage(),
	}
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status            string             `json:"status"`
	SemanticAvailable bool               `json:"semantic_available"`
	Encoder           embed.HandleStatus `json:"encoder"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error      string `json:"error"`
	Code       string `json:"code"`
	Suggestion string `json:"suggestion,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
}
