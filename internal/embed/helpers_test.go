package embed

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

func vectorMagnitude(v []float32) float64 {
	var sum float64
	for _, val := range v {
		sum += float64(val) * float64(val)
	}
	return math.Sqrt(sum)
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// fakeOllama is an httptest Ollama that embeds with the static hash encoder.
type fakeOllama struct {
	*httptest.Server

	mu         sync.Mutex
	models     []string
	pullable   map[string]bool
	embedFails int // remaining /api/embed calls that return 500

	embedCalls atomic.Int64
	pullCalls  atomic.Int64
}

func newFakeOllama(t *testing.T, models ...string) *fakeOllama {
	t.Helper()
	f := &fakeOllama{models: models, pullable: map[string]bool{}}
	static := NewStaticEmbedder()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/tags", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		var resp OllamaModelListResponse
		for _, m := range f.models {
			resp.Models = append(resp.Models, OllamaModelInfo{Name: m})
		}
		_ = json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("POST /api/pull", func(w http.ResponseWriter, r *http.Request) {
		f.pullCalls.Add(1)
		var req OllamaPullRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		defer f.mu.Unlock()
		if !f.pullable[req.Model] {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(OllamaPullResponse{Error: "model not found"})
			return
		}
		f.models = append(f.models, req.Model+":latest")
		_ = json.NewEncoder(w).Encode(OllamaPullResponse{Status: "success"})
	})
	mux.HandleFunc("POST /api/embed", func(w http.ResponseWriter, r *http.Request) {
		f.embedCalls.Add(1)
		f.mu.Lock()
		if f.embedFails > 0 {
			f.embedFails--
			f.mu.Unlock()
			http.Error(w, "busy", http.StatusInternalServerError)
			return
		}
		f.mu.Unlock()

		var req struct {
			Model string `json:"model"`
			Input any    `json:"input"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		var texts []string
		switch in := req.Input.(type) {
		case string:
			texts = []string{in}
		case []any:
			for _, s := range in {
				texts = append(texts, s.(string))
			}
		}
		resp := OllamaEmbedResponse{Model: req.Model}
		for _, text := range texts {
			// Unnormalized on purpose: the client must normalize
			vec, _ := static.Embed(context.Background(), text)
			out := make([]float64, len(vec))
			for i, v := range vec {
				out[i] = float64(v) * 3
			}
			resp.Embeddings = append(resp.Embeddings, out)
		}
		_ = json.NewEncoder(w).Encode(resp)
	})

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func (f *fakeOllama) config(t *testing.T, model string) OllamaConfig {
	cfg := DefaultOllamaConfig()
	cfg.Host = f.URL
	cfg.Model = model
	cfg.LockDir = t.TempDir()
	return cfg
}

// fakeOpenAI is an httptest OpenAI-compatible /embeddings endpoint.
func newFakeOpenAI(t *testing.T) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	static := NewStaticEmbedder()
	var calls atomic.Int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, "/embeddings") {
			http.NotFound(w, r)
			return
		}
		calls.Add(1)
		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		type item struct {
			Object    string    `json:"object"`
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		}
		data := make([]item, len(req.Input))
		for i, text := range req.Input {
			vec, _ := static.Embed(context.Background(), text)
			data[i] = item{Object: "embedding", Index: i, Embedding: vec}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  req.Model,
			"usage":  map[string]int{"prompt_tokens": 1, "total_tokens": 1},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

// countingEmbedder records calls; used to test wrappers and the handle.
type countingEmbedder struct {
	*StaticEmbedder
	batches atomic.Int64
	texts   atomic.Int64
}

func newCountingEmbedder() *countingEmbedder {
	return &countingEmbedder{StaticEmbedder: NewStaticEmbedder()}
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.texts.Add(1)
	return c.StaticEmbedder.Embed(ctx, text)
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	c.batches.Add(1)
	c.texts.Add(int64(len(texts)))
	return c.StaticEmbedder.EmbedBatch(ctx, texts)
}
