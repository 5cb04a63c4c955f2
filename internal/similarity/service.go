package similarity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Aman-CERP/simscore/internal/analysis"
	"github.com/Aman-CERP/simscore/internal/embed"
	simerrors "github.com/Aman-CERP/simscore/internal/errors"
	"github.com/Aman-CERP/simscore/internal/telemetry"
)

// Recorder receives one event per comparison. *telemetry.Metrics implements it.
type Recorder interface {
	Record(event telemetry.ComparisonEvent)
}

// Service is the comparison entry point. It holds no per-request state and
// is safe for concurrent use.
type Service struct {
	lexical  *LexicalScorer
	semantic *SemanticScorer
	recorder Recorder
}

// Option configures a Service.
type Option func(*Service)

// WithRecorder reports every comparison to r.
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		s.recorder = r
	}
}

// NewService creates a service from an analyzer and an encoder handle.
func NewService(analyzer *analysis.Analyzer, handle *embed.Handle, opts ...Option) (*Service, error) {
	if analyzer == nil {
		return nil, fmt.Errorf("analyzer is required")
	}
	if handle == nil {
		return nil, fmt.Errorf("encoder handle is required")
	}

	s := &Service{
		lexical:  NewLexicalScorer(analyzer),
		semantic: NewSemanticScorer(handle),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CompareString parses method and compares text1 with text2.
func (s *Service) CompareString(ctx context.Context, text1, text2, method string) (Result, error) {
	m, err := ParseMethod(method)
	if err != nil {
		s.record(Method(method), text1, text2, 0, 0, err)
		return Result{}, err
	}
	return s.Compare(ctx, text1, text2, m)
}

// Compare scores text1 against text2 with method. Texts are expected to be
// cleaned already.
func (s *Service) Compare(ctx context.Context, text1, text2 string, method Method) (Result, error) {
	start := time.Now()

	var (
		score float64
		label string
		err   error
	)
	switch method {
	case MethodLexical:
		score = s.lexical.Score(text1, text2)
		label = LexicalLabel
	case MethodSemantic:
		score, err = s.semantic.Score(ctx, text1, text2)
		label = s.semantic.Label()
	default:
		// Method values are matched exactly; only ParseMethod normalizes
		err = simerrors.InvalidMethod(string(method), methodNames())
	}

	latency := time.Since(start)
	if err != nil {
		slog.Debug("comparison_failed",
			slog.String("method", string(method)),
			slog.Duration("duration", latency),
			slog.String("error", err.Error()))
		s.record(method, text1, text2, 0, latency, err)
		return Result{}, err
	}

	result := Result{Score: normalizeScore(score), Method: label}
	slog.Debug("comparison_done",
		slog.String("method", string(method)),
		slog.Float64("score", result.Score),
		slog.Duration("duration", latency))
	s.record(method, text1, text2, result.Score, latency, nil)

	return result, nil
}

// Semantic returns the semantic scorer, e.g. to report its label.
func (s *Service) Semantic() *SemanticScorer {
	return s.semantic
}

func (s *Service) record(method Method, text1, text2 string, score float64, latency time.Duration, err error) {
	if s.recorder == nil {
		return
	}
	s.recorder.Record(comparisonEvent(method, text1, text2, score, latency, err))
}

// invalidMethodKey is the telemetry key for every unrecognized method.
const invalidMethodKey = "invalid"

func comparisonEvent(method Method, text1, text2 string, score float64, latency time.Duration, err error) telemetry.ComparisonEvent {
	if method != MethodLexical && method != MethodSemantic {
		method = invalidMethodKey
	}
	event := telemetry.ComparisonEvent{
		Method:    string(method),
		Score:     score,
		Latency:   latency,
		PairHash:  telemetry.HashPair(string(method), text1, text2),
		Timestamp: time.Now(),
	}
	if err != nil {
		event.ErrorCode = simerrors.GetCode(err)
		if event.ErrorCode == "" {
			event.ErrorCode = simerrors.ErrCodeInternal
		}
	}
	return event
}

func formatPercent(score float64) string {
	return fmt.Sprintf("%.2f%%", score*100)
}
