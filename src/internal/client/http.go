// FILE: zkpauth/src/internal/client/http.go
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"time"

	"zkpauth/src/internal/auth"
	"zkpauth/src/internal/transport"
	"zkpauth/src/internal/version"

	"github.com/lixenwraith/log"
	"github.com/valyala/fasthttp"
)

// HTTPTransport calls the JSON API with a fasthttp client.
type HTTPTransport struct {
	baseURL string
	timeout time.Duration
	client  *fasthttp.Client
	logger  *log.Logger
}

// NewHTTPTransport creates a transport for address, which may be a bare
// host:port or a URL. pathPrefix must match the server's path_prefix.
func NewHTTPTransport(address, pathPrefix string, timeout time.Duration, logger *log.Logger) *HTTPTransport {
	return &HTTPTransport{
		baseURL: baseURL(address, pathPrefix),
		timeout: timeout,
		client: &fasthttp.Client{
			MaxConnsPerHost:               4,
			MaxIdleConnDuration:           10 * time.Second,
			ReadTimeout:                   timeout,
			WriteTimeout:                  timeout,
			DisableHeaderNamesNormalizing: true,
		},
		logger: logger,
	}
}

func baseURL(address, pathPrefix string) string {
	base := strings.TrimSuffix(address, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}

	pathPrefix = strings.Trim(pathPrefix, "/")
	if pathPrefix != "" {
		base += "/" + pathPrefix
	}
	return base
}

// WithDial replaces the client dialer, for in-memory listeners.
func (h *HTTPTransport) WithDial(dial func(addr string) (net.Conn, error)) *HTTPTransport {
	h.client.Dial = dial
	return h
}

func (h *HTTPTransport) Register(ctx context.Context, req *auth.RegisterRequest) (*auth.RegisterResponse, error) {
	resp := &auth.RegisterResponse{}
	if err := h.post(ctx, transport.PathRegister, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (h *HTTPTransport) CreateChallenge(ctx context.Context, req *auth.ChallengeRequest) (*auth.ChallengeResponse, error) {
	resp := &auth.ChallengeResponse{}
	if err := h.post(ctx, transport.PathChallenge, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (h *HTTPTransport) VerifyAnswer(ctx context.Context, req *auth.AnswerRequest) (*auth.AnswerResponse, error) {
	resp := &auth.AnswerResponse{}
	if err := h.post(ctx, transport.PathVerify, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (h *HTTPTransport) post(ctx context.Context, path string, in, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	timeout := h.timeout
	if d, ok := ctx.Deadline(); ok {
		if remaining := time.Until(d); remaining < timeout {
			timeout = remaining
		}
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(h.baseURL + path)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("User-Agent", fmt.Sprintf("zkpauth-client/%s", version.Short()))
	req.SetBody(body)

	if err := h.client.DoTimeout(req, resp, timeout); err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}

	statusCode := resp.StatusCode()
	if statusCode == fasthttp.StatusOK {
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return fmt.Errorf("malformed response from %s: %w", path, err)
		}
		return nil
	}

	var w transport.WireError
	if err := json.Unmarshal(resp.Body(), &w); err != nil || w.Code == "" {
		return auth.Errorf(transport.CodeFromHTTPStatus(statusCode), "server returned status %d", statusCode)
	}

	h.logger.Debug("msg", "Request rejected by server",
		"component", "client",
		"path", path,
		"status_code", statusCode,
		"code", w.Code)
	return w.Err()
}

// Close releases idle connections.
func (h *HTTPTransport) Close() error {
	h.client.CloseIdleConnections()
	return nil
}
