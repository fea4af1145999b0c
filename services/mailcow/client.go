package mailcow

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/opentracing/opentracing-go"
	tracingLog "github.com/opentracing/opentracing-go/log"
	"golang.org/x/net/context"

	"github.com/NeonAnubis/afrimail-backend/interfaces"
	"github.com/NeonAnubis/afrimail-backend/internal/config"
	er "github.com/NeonAnubis/afrimail-backend/internal/errors"
	"github.com/NeonAnubis/afrimail-backend/internal/logger"
	"github.com/NeonAnubis/afrimail-backend/internal/tracing"
)

// Resources live under the versioned base URL: reads at get/{resource},
// writes at add|edit|delete/{resource}
type mailcowClient struct {
	cfg        *config.MailcowConfig
	log        logger.Logger
	httpClient *http.Client
}

func NewMailcowClient(cfg *config.MailcowConfig, log logger.Logger) interfaces.MailcowClient {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &mailcowClient{
		cfg: cfg,
		log: log,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *mailcowClient) IsConfigured() bool {
	return c.cfg.ApiUrl != "" && c.cfg.ApiKey != ""
}

// doRequest performs one API call and decodes the body with json.Number so
// numeric fields survive untouched until the coercion helpers see them.
// Mailcow reports write failures as 200 responses carrying error objects, so
// the body is inspected even on success.
func (c *mailcowClient) doRequest(ctx context.Context, method, path string, payload interface{}) (interface{}, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailcowClient.doRequest")
	defer span.Finish()
	tracing.TagComponentMailcowClient(span)
	span.LogKV("method", method, "path", path)

	if !c.IsConfigured() {
		return nil, er.ErrMailcowNotConfigured
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			tracing.TraceErr(span, err)
			return nil, fmt.Errorf("failed to encode mailcow request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	url := strings.TrimRight(c.cfg.ApiUrl, "/") + "/" + strings.TrimLeft(path, "/")
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, fmt.Errorf("failed to build mailcow request: %w", err)
	}
	req.Header.Set("X-API-Key", c.cfg.ApiKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		apiErr := newAPIError(KindConnection, "mailcow API unreachable: "+err.Error(), 0, "")
		tracing.TraceErr(span, apiErr)
		return nil, apiErr
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		apiErr := newAPIError(KindConnection, "failed to read mailcow response: "+err.Error(), resp.StatusCode, "")
		tracing.TraceErr(span, apiErr)
		return nil, apiErr
	}

	if apiErr := classifyStatus(resp.StatusCode, raw); apiErr != nil {
		tracing.TraceErr(span, apiErr, tracingLog.String("responseBody", string(raw)))
		return nil, apiErr
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var decoded interface{}
	if err := decoder.Decode(&decoded); err != nil {
		apiErr := newAPIError(KindValidation, "mailcow returned a non-JSON body", resp.StatusCode, string(raw))
		tracing.TraceErr(span, apiErr)
		return nil, apiErr
	}

	if apiErr := extractBodyError(decoded, resp.StatusCode, raw); apiErr != nil {
		tracing.TraceErr(span, apiErr)
		return nil, apiErr
	}

	return decoded, nil
}

func classifyStatus(statusCode int, raw []byte) *APIError {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return nil
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return newAPIError(KindAuth, "mailcow rejected the API key", statusCode, string(raw))
	case statusCode == http.StatusNotFound:
		return newAPIError(KindNotFound, "resource not found", statusCode, string(raw))
	case statusCode >= 400 && statusCode < 500:
		return newAPIError(KindValidation, "mailcow rejected the request", statusCode, string(raw))
	default:
		return newAPIError(KindConnection, "mailcow API error", statusCode, string(raw))
	}
}

// extractBodyError detects mailcow's in-band failures: a 200 response whose
// body is [{"type":"error","msg":...}] or {"type":"error",...}
func extractBodyError(decoded interface{}, statusCode int, raw []byte) *APIError {
	check := func(entry map[string]interface{}) *APIError {
		if entryType, ok := entry["type"].(string); ok && entryType == "error" {
			msg := "mailcow reported an error"
			switch m := entry["msg"].(type) {
			case string:
				msg = m
			case []interface{}:
				var parts []string
				for _, p := range m {
					if s, ok := p.(string); ok {
						parts = append(parts, s)
					}
				}
				if len(parts) > 0 {
					msg = strings.Join(parts, " ")
				}
			}
			return newAPIError(KindValidation, msg, statusCode, string(raw))
		}
		return nil
	}

	switch v := decoded.(type) {
	case map[string]interface{}:
		return check(v)
	case []interface{}:
		for _, item := range v {
			if entry, ok := item.(map[string]interface{}); ok {
				if apiErr := check(entry); apiErr != nil {
					return apiErr
				}
			}
		}
	}
	return nil
}

func (c *mailcowClient) get(ctx context.Context, path string) (interface{}, error) {
	return c.doRequest(ctx, http.MethodGet, path, nil)
}

func (c *mailcowClient) post(ctx context.Context, path string, payload interface{}) error {
	_, err := c.doRequest(ctx, http.MethodPost, path, payload)
	return err
}

// HealthCheck probes the container status endpoint. Any well-formed answer
// counts as healthy; errors are swallowed into a false.
func (c *mailcowClient) HealthCheck(ctx context.Context) bool {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailcowClient.HealthCheck")
	defer span.Finish()
	tracing.TagComponentMailcowClient(span)

	if !c.IsConfigured() {
		return false
	}

	_, err := c.get(ctx, "get/status/containers")
	if err != nil {
		c.log.Warnf("mailcow health check failed: %v", err)
		return false
	}
	return true
}

func (c *mailcowClient) GetStatus(ctx context.Context) (map[string]interface{}, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailcowClient.GetStatus")
	defer span.Finish()
	tracing.TagComponentMailcowClient(span)

	decoded, err := c.get(ctx, "get/status/containers")
	if err != nil {
		return nil, err
	}

	status, ok := decoded.(map[string]interface{})
	if !ok {
		return nil, newAPIError(KindValidation, "unexpected status payload shape", 0, "")
	}
	return status, nil
}

// asList normalizes mailcow's listing quirk: an empty collection arrives as
// {} instead of []
func asList(decoded interface{}) []interface{} {
	switch v := decoded.(type) {
	case []interface{}:
		return v
	case map[string]interface{}:
		if len(v) == 0 {
			return nil
		}
		var items []interface{}
		for _, item := range v {
			items = append(items, item)
		}
		return items
	default:
		return nil
	}
}
