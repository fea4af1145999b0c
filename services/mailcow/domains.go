package mailcow

import (
	"github.com/opentracing/opentracing-go"
	"golang.org/x/net/context"

	"github.com/NeonAnubis/afrimail-backend/interfaces"
	er "github.com/NeonAnubis/afrimail-backend/internal/errors"
	"github.com/NeonAnubis/afrimail-backend/internal/tracing"
	"github.com/NeonAnubis/afrimail-backend/internal/utils"
)

func (c *mailcowClient) GetDomains(ctx context.Context) ([]interfaces.MailcowDomain, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailcowClient.GetDomains")
	defer span.Finish()
	tracing.TagComponentMailcowClient(span)

	decoded, err := c.get(ctx, "get/domain/all")
	if err != nil {
		return nil, err
	}

	var domains []interfaces.MailcowDomain
	for _, item := range asList(decoded) {
		entry, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		domains = append(domains, parseDomain(entry))
	}

	return domains, nil
}

func (c *mailcowClient) GetDomain(ctx context.Context, domain string) (*interfaces.MailcowDomain, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailcowClient.GetDomain")
	defer span.Finish()
	tracing.TagComponentMailcowClient(span)
	span.LogKV("domain", domain)

	decoded, err := c.get(ctx, "get/domain/"+domain)
	if err != nil {
		return nil, err
	}

	entry, ok := decoded.(map[string]interface{})
	if !ok || len(entry) == 0 {
		return nil, er.ErrDomainNotFound
	}

	parsed := parseDomain(entry)
	return &parsed, nil
}

func (c *mailcowClient) CreateDomain(ctx context.Context, req interfaces.MailcowDomainCreate) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailcowClient.CreateDomain")
	defer span.Finish()
	tracing.TagComponentMailcowClient(span)
	span.LogKV("domain", req.Domain)

	payload := map[string]interface{}{
		"domain":      req.Domain,
		"description": req.Description,
		"aliases":     req.MaxAliases,
		"mailboxes":   req.MaxMailboxes,
		"maxquota":    req.MaxQuotaPerMailboxBytes / bytesPerMiB,
		"quota":       req.TotalQuotaBytes / bytesPerMiB,
		"defquota":    req.DefaultQuotaBytes / bytesPerMiB,
		"active":      boolFlag(req.Active),
	}

	return c.post(ctx, "add/domain", payload)
}

func (c *mailcowClient) UpdateDomain(ctx context.Context, domain string, req interfaces.MailcowDomainUpdate) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailcowClient.UpdateDomain")
	defer span.Finish()
	tracing.TagComponentMailcowClient(span)
	span.LogKV("domain", domain)

	attr := map[string]interface{}{}
	if req.Description != nil {
		attr["description"] = *req.Description
	}
	if req.MaxAliases != nil {
		attr["aliases"] = *req.MaxAliases
	}
	if req.MaxMailboxes != nil {
		attr["mailboxes"] = *req.MaxMailboxes
	}
	if req.MaxQuotaPerMailboxBytes != nil {
		attr["maxquota"] = *req.MaxQuotaPerMailboxBytes / bytesPerMiB
	}
	if req.TotalQuotaBytes != nil {
		attr["quota"] = *req.TotalQuotaBytes / bytesPerMiB
	}
	if req.Active != nil {
		attr["active"] = boolFlag(*req.Active)
	}
	if len(attr) == 0 {
		return nil
	}

	return c.editItems(ctx, "edit/domain", []string{domain}, attr)
}

func (c *mailcowClient) DeleteDomain(ctx context.Context, domain string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailcowClient.DeleteDomain")
	defer span.Finish()
	tracing.TagComponentMailcowClient(span)
	span.LogKV("domain", domain)

	return c.post(ctx, "delete/domain", []string{domain})
}

// parseDomain is lenient throughout: domain listings come from trusted admin
// actions and a zero is always safer than a dropped row
func parseDomain(entry map[string]interface{}) interfaces.MailcowDomain {
	return interfaces.MailcowDomain{
		Domain:             utils.AsString(entry["domain_name"]),
		Description:        utils.AsString(entry["description"]),
		AliasesLeft:        utils.AsInt(entry["aliases_left"], 0),
		MailboxesLeft:      utils.AsInt(entry["mboxes_left"], 0),
		MaxAliases:         utils.AsInt(entry["max_num_aliases_for_domain"], 0),
		MaxMailboxes:       utils.AsInt(entry["max_num_mboxes_for_domain"], 0),
		MaxQuotaPerMailbox: utils.AsInt64(entry["max_quota_for_mbox"], 0),
		QuotaBytes:         utils.AsInt64(entry["max_quota_for_domain"], 0),
		UsedBytes:          utils.AsInt64(entry["bytes_total"], 0),
		Active:             utils.AsBool(entry["active"]),
		BackupMX:           utils.AsBool(entry["backupmx"]),
		RelayAllRecipients: utils.AsBool(entry["relay_all_recipients"]),
		Created:            utils.AsString(entry["created"]),
		Modified:           utils.AsString(entry["modified"]),
	}
}
