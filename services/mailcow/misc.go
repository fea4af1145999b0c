package mailcow

import (
	"fmt"
	"strconv"

	"github.com/opentracing/opentracing-go"
	"golang.org/x/net/context"

	"github.com/NeonAnubis/afrimail-backend/internal/tracing"
)

func (c *mailcowClient) GetDKIM(ctx context.Context, domain string) (map[string]interface{}, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailcowClient.GetDKIM")
	defer span.Finish()
	tracing.TagComponentMailcowClient(span)
	span.LogKV("domain", domain)

	decoded, err := c.get(ctx, "get/dkim/"+domain)
	if err != nil {
		return nil, err
	}

	record, ok := decoded.(map[string]interface{})
	if !ok {
		return map[string]interface{}{}, nil
	}
	return record, nil
}

func (c *mailcowClient) CreateDKIM(ctx context.Context, domain, selector string, keySize int) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailcowClient.CreateDKIM")
	defer span.Finish()
	tracing.TagComponentMailcowClient(span)
	span.LogKV("domain", domain, "selector", selector)

	if selector == "" {
		selector = "dkim"
	}
	if keySize == 0 {
		keySize = 2048
	}

	return c.post(ctx, "add/dkim", map[string]interface{}{
		"domains":       domain,
		"dkim_selector": selector,
		"key_size":      keySize,
	})
}

func (c *mailcowClient) DeleteDKIM(ctx context.Context, domain string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailcowClient.DeleteDKIM")
	defer span.Finish()
	tracing.TagComponentMailcowClient(span)
	span.LogKV("domain", domain)

	return c.post(ctx, "delete/dkim", []string{domain})
}

// GetLogs tails one of the service logs (postfix, dovecot, rspamd, ...)
func (c *mailcowClient) GetLogs(ctx context.Context, logType string, count int) ([]interface{}, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailcowClient.GetLogs")
	defer span.Finish()
	tracing.TagComponentMailcowClient(span)
	span.LogKV("logType", logType, "count", count)

	if count <= 0 {
		count = 50
	}

	decoded, err := c.get(ctx, fmt.Sprintf("get/logs/%s/%s", logType, strconv.Itoa(count)))
	if err != nil {
		return nil, err
	}

	return asList(decoded), nil
}

// GetRspamdStats reads rspamd's action counters (reject, greylist, add header)
func (c *mailcowClient) GetRspamdStats(ctx context.Context) ([]interface{}, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailcowClient.GetRspamdStats")
	defer span.Finish()
	tracing.TagComponentMailcowClient(span)

	decoded, err := c.get(ctx, "get/rspamd/actions")
	if err != nil {
		return nil, err
	}

	return asList(decoded), nil
}

func (c *mailcowClient) GetQuarantine(ctx context.Context) ([]interface{}, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailcowClient.GetQuarantine")
	defer span.Finish()
	tracing.TagComponentMailcowClient(span)

	decoded, err := c.get(ctx, "get/quarantine/all")
	if err != nil {
		return nil, err
	}

	return asList(decoded), nil
}

func (c *mailcowClient) GetMailQueue(ctx context.Context) ([]interface{}, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailcowClient.GetMailQueue")
	defer span.Finish()
	tracing.TagComponentMailcowClient(span)

	decoded, err := c.get(ctx, "get/mailq/all")
	if err != nil {
		return nil, err
	}

	return asList(decoded), nil
}

// GetRateLimits reads the postfix-level ratelimit object for one mailbox.
// This is the transport throttle, separate from the application send caps.
func (c *mailcowClient) GetRateLimits(ctx context.Context, mailbox string) (map[string]interface{}, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailcowClient.GetRateLimits")
	defer span.Finish()
	tracing.TagComponentMailcowClient(span)
	span.LogKV("mailbox", mailbox)

	decoded, err := c.get(ctx, "get/ratelimit/mailbox/"+mailbox)
	if err != nil {
		return nil, err
	}

	record, ok := decoded.(map[string]interface{})
	if !ok {
		return map[string]interface{}{}, nil
	}
	return record, nil
}

func (c *mailcowClient) SetRateLimit(ctx context.Context, mailbox string, value int, frame string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailcowClient.SetRateLimit")
	defer span.Finish()
	tracing.TagComponentMailcowClient(span)
	span.LogKV("mailbox", mailbox, "value", value, "frame", frame)

	if frame == "" {
		frame = "h"
	}

	return c.editItems(ctx, "edit/ratelimit/mailbox", []string{mailbox}, map[string]interface{}{
		"rl_value": strconv.Itoa(value),
		"rl_frame": frame,
	})
}
