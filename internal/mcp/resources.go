package mcp

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// MetricsResourceURI identifies the telemetry snapshot resource.
const MetricsResourceURI = "simscore://metrics"

// registerMetricsResource registers the metrics resource.
func (s *Server) registerMetricsResource() {
	s.mcp.AddResource(
		&mcp.Resource{
			Name:        "metrics",
			URI:         MetricsResourceURI,
			Description: "Aggregate comparison telemetry: counts per method, latency and score histograms",
			MIMEType:    "application/json",
		},
		s.makeMetricsHandler(),
	)
}

// makeMetricsHandler creates a handler for the metrics resource.
func (s *Server) makeMetricsHandler() mcp.ResourceHandler {
	return func(_ context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		content, err := s.readMetrics()
		if err != nil {
			return nil, err
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{
					URI:      MetricsResourceURI,
					MIMEType: "application/json",
					Text:     content,
				},
			},
		}, nil
	}
}

// readMetrics renders the current snapshot as indented JSON.
func (s *Server) readMetrics() (string, error) {
	s.mu.RLock()
	metrics := s.metrics
	s.mu.RUnlock()

	if metrics == nil {
		return "", NewResourceNotFoundError(MetricsResourceURI)
	}

	content, err := json.MarshalIndent(metrics.Snapshot(), "", "  ")
	if err != nil {
		return "", MapError(err)
	}
	return string(content), nil
}
