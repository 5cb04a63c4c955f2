package mcp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/simscore/internal/config"
	"github.com/Aman-CERP/simscore/internal/document"
	"github.com/Aman-CERP/simscore/internal/embed"
	"github.com/Aman-CERP/simscore/internal/similarity"
	"github.com/Aman-CERP/simscore/internal/telemetry"
	"github.com/Aman-CERP/simscore/pkg/version"
)

// ServerName is reported to MCP clients during initialization.
const ServerName = "simscore"

// Server is the MCP server for simscore.
// It exposes the similarity service to AI clients over JSON-RPC.
type Server struct {
	mcp    *mcp.Server
	svc    *similarity.Service
	handle *embed.Handle
	config *config.Config
	logger *slog.Logger

	// Comparison telemetry (optional, set via SetMetrics)
	metrics *telemetry.Metrics

	mu sync.RWMutex
}

// ToolInfo contains information about a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

// ResourceInfo contains information about a resource.
type ResourceInfo struct {
	URI      string
	Name     string
	MIMEType string
}

// ResourceContent contains the content of a resource.
type ResourceContent struct {
	URI      string
	Content  string
	MIMEType string
}

const (
	compareTextsDescription = "Score how similar two texts are. Returns a cosine similarity in [-1, 1]. " +
		"Use method 'lexical' (TF-IDF, default) for shared wording, or 'semantic' (sentence embeddings) for shared meaning."
	similarityStatusDescription = "Report the available scoring methods, the semantic encoder state " +
		"(provider, model, loaded or not) and aggregate comparison telemetry. Never loads the encoder."
)

// NewServer creates a new MCP server.
// The handle must be the one the service scores with; it is only inspected,
// never loaded, by similarity_status.
func NewServer(svc *similarity.Service, handle *embed.Handle, cfg *config.Config) (*Server, error) {
	if svc == nil {
		return nil, errors.New("similarity service is required")
	}
	if handle == nil {
		return nil, errors.New("encoder handle is required")
	}
	if cfg == nil {
		cfg = config.NewConfig()
	}

	s := &Server{
		svc:    svc,
		handle: handle,
		config: cfg,
		logger: slog.Default(),
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    ServerName,
			Version: version.Version,
		},
		nil, // capabilities are inferred from registered tools/resources
	)

	s.registerTools()

	return s, nil
}

// SetMetrics sets the telemetry collector.
// When set, the metrics resource is registered.
func (s *Server) SetMetrics(m *telemetry.Metrics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = m

	if m != nil {
		s.registerMetricsResource()
	}
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Info returns the server name and version.
func (s *Server) Info() (name, ver string) {
	return ServerName, version.Version
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	return []ToolInfo{
		{Name: "compare_texts", Description: compareTextsDescription},
		{Name: "similarity_status", Description: similarityStatusDescription},
	}
}

// CallTool invokes a tool by name with the given arguments.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	switch name {
	case "compare_texts":
		var input CompareTextsInput
		if err := decodeArgs(args, &input); err != nil {
			return nil, err
		}
		return s.handleCompareTexts(ctx, input)
	case "similarity_status":
		return s.handleSimilarityStatus(ctx)
	default:
		return nil, NewMethodNotFoundError(name)
	}
}

// handleCompareTexts scores one pair.
func (s *Server) handleCompareTexts(ctx context.Context, input CompareTextsInput) (*CompareTextsOutput, error) {
	start := time.Now()
	requestID := generateRequestID()

	method := input.Method
	if method == "" {
		method = string(similarity.MethodLexical)
	}

	s.logger.Info("compare_texts started",
		slog.String("request_id", requestID),
		slog.String("method", method),
		slog.Int("text1_len", len(input.Text1)),
		slog.Int("text2_len", len(input.Text2)))

	res, err := s.svc.CompareString(ctx, document.Clean(input.Text1), document.Clean(input.Text2), method)
	if err != nil {
		s.logger.Warn("compare_texts failed",
			slog.String("request_id", requestID),
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	s.logger.Info("compare_texts completed",
		slog.String("request_id", requestID),
		slog.Duration("duration", time.Since(start)),
		slog.Float64("score", res.Score))

	return &CompareTextsOutput{
		Score:      res.Score,
		MethodUsed: res.Method,
		Percentage: res.Percentage(),
	}, nil
}

// handleSimilarityStatus reports methods, encoder state and telemetry.
func (s *Server) handleSimilarityStatus(_ context.Context) (*SimilarityStatusOutput, error) {
	st := s.handle.Status()

	methods := similarity.Methods()
	output := &SimilarityStatusOutput{
		Methods: make([]string, 0, len(methods)),
		Encoder: EncoderInfo{
			Provider: s.config.Embeddings.Provider,
			Model:    st.Model,
			Status:   encoderStatus(st),
			Handle:   st,
		},
	}
	for _, m := range methods {
		output.Methods = append(output.Methods, string(m))
	}

	s.mu.RLock()
	metrics := s.metrics
	s.mu.RUnlock()
	if metrics != nil {
		output.Telemetry = metrics.Snapshot()
	}

	return output, nil
}

// registerTools registers all tools with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "compare_texts",
		Description: compareTextsDescription,
	}, s.mcpCompareTextsHandler)
	s.logger.Debug("Registered tool", slog.String("name", "compare_texts"))

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "similarity_status",
		Description: similarityStatusDescription,
	}, s.mcpSimilarityStatusHandler)
	s.logger.Debug("Registered tool", slog.String("name", "similarity_status"))

	s.logger.Debug("MCP tools registered", slog.Int("count", 2))
}

// mcpCompareTextsHandler is the MCP SDK handler for the compare_texts tool.
func (s *Server) mcpCompareTextsHandler(ctx context.Context, _ *mcp.CallToolRequest, input CompareTextsInput) (
	*mcp.CallToolResult,
	*CompareTextsOutput,
	error,
) {
	output, err := s.handleCompareTexts(ctx, input)
	if err != nil {
		return nil, nil, err
	}
	return nil, output, nil
}

// mcpSimilarityStatusHandler is the MCP SDK handler for the similarity_status tool.
func (s *Server) mcpSimilarityStatusHandler(ctx context.Context, _ *mcp.CallToolRequest, _ SimilarityStatusInput) (
	*mcp.CallToolResult,
	*SimilarityStatusOutput,
	error,
) {
	output, err := s.handleSimilarityStatus(ctx)
	if err != nil {
		return nil, nil, MapError(err)
	}
	return nil, output, nil
}

// ListResources returns all available resources.
func (s *Server) ListResources(_ context.Context) []ResourceInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.metrics == nil {
		return nil
	}
	return []ResourceInfo{{URI: MetricsResourceURI, Name: "metrics", MIMEType: "application/json"}}
}

// ReadResource reads a resource by URI.
func (s *Server) ReadResource(_ context.Context, uri string) (*ResourceContent, error) {
	if uri != MetricsResourceURI {
		return nil, NewResourceNotFoundError(uri)
	}
	content, err := s.readMetrics()
	if err != nil {
		return nil, err
	}
	return &ResourceContent{URI: uri, Content: content, MIMEType: "application/json"}, nil
}

// Serve starts the server with the specified transport.
func (s *Server) Serve(ctx context.Context, transport string) error {
	s.logger.Info("Starting MCP server", slog.String("transport", transport))

	switch transport {
	case "stdio":
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("MCP server stopped with error",
				slog.String("error", err.Error()))
		} else {
			s.logger.Info("MCP server stopped gracefully")
		}
		return err
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}
}

// Close releases server resources.
func (s *Server) Close() error {
	// The MCP server stops when its context is canceled.
	return nil
}

// decodeArgs converts loosely typed tool arguments into an input struct.
func decodeArgs(args map[string]any, v any) error {
	data, err := json.Marshal(args)
	if err != nil {
		return NewInvalidParamsError(err.Error())
	}
	if err := json.Unmarshal(data, v); err != nil {
		return NewInvalidParamsError(fmt.Sprintf("invalid arguments: %v", err))
	}
	return nil
}

// generateRequestID creates a short unique request ID for log correlation.
func generateRequestID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
