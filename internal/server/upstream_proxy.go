package server

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UpstreamProxy forwards JSON-RPC bodies to a node, typically the devnet the
// simulated wallet pretends to live on.
type UpstreamProxy struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

type proxyErrorResponse struct {
	Error string `json:"error"`
}

// NewUpstreamProxy returns nil for an empty url.
func NewUpstreamProxy(url string, logger *zap.Logger) *UpstreamProxy {
	if url == "" {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UpstreamProxy{
		url: url,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger,
	}
}

func (p *UpstreamProxy) Forward(c *gin.Context, body []byte) {
	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		c.JSON(http.StatusInternalServerError, proxyErrorResponse{Error: "failed to create upstream request"})
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Warn("upstream request failed", zap.String("url", p.url), zap.Error(err))
		c.JSON(http.StatusBadGateway, proxyErrorResponse{Error: err.Error()})
		return
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.JSON(http.StatusBadGateway, proxyErrorResponse{Error: "failed to read upstream response"})
		return
	}
	c.Data(resp.StatusCode, resp.Header.Get("Content-Type"), respBody)
}
