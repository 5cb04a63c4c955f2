package similarity

import (
	"context"
	"fmt"
	"strings"

	"github.com/Aman-CERP/simscore/internal/embed"
)

// SemanticScorer compares texts by the cosine of their embeddings. The
// encoder comes from a shared Handle and is loaded on first use.
type SemanticScorer struct {
	handle *embed.Handle
}

// NewSemanticScorer creates a scorer backed by handle.
func NewSemanticScorer(handle *embed.Handle) *SemanticScorer {
	return &SemanticScorer{handle: handle}
}

// Label returns "Semantic (<model>)" for the loaded (or configured) model.
func (s *SemanticScorer) Label() string {
	return fmt.Sprintf("Semantic (%s)", s.handle.ModelName())
}

// Score embeds both texts in one batch and returns their cosine similarity.
// Empty or whitespace-only text maps to the zero vector, scoring 0, and is
// not sent to the encoder. The encoder must be loaded even then, so an
// unavailable model is reported consistently.
func (s *SemanticScorer) Score(ctx context.Context, text1, text2 string) (float64, error) {
	encoder, err := s.handle.Get(ctx)
	if err != nil {
		return 0, err
	}

	texts := make([]string, 0, 2)
	for _, t := range []string{text1, text2} {
		if strings.TrimSpace(t) != "" {
			texts = append(texts, t)
		}
	}
	if len(texts) < 2 {
		return 0, nil
	}

	vecs, err := encoder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed texts: %w", err)
	}
	if len(vecs) != 2 {
		return 0, fmt.Errorf("encoder returned %d vectors for 2 texts", len(vecs))
	}
	return cosine(vecs[0], vecs[1]), nil
}
