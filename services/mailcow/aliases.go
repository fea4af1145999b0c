package mailcow

import (
	"strconv"

	"github.com/opentracing/opentracing-go"
	"golang.org/x/net/context"

	"github.com/NeonAnubis/afrimail-backend/interfaces"
	er "github.com/NeonAnubis/afrimail-backend/internal/errors"
	"github.com/NeonAnubis/afrimail-backend/internal/tracing"
	"github.com/NeonAnubis/afrimail-backend/internal/utils"
)

func (c *mailcowClient) GetAliases(ctx context.Context, domain string) ([]interfaces.MailcowAlias, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailcowClient.GetAliases")
	defer span.Finish()
	tracing.TagComponentMailcowClient(span)
	span.LogKV("domain", domain)

	decoded, err := c.get(ctx, "get/alias/all")
	if err != nil {
		return nil, err
	}

	var aliases []interfaces.MailcowAlias
	for _, item := range asList(decoded) {
		entry, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		alias := parseAlias(entry)
		if domain != "" && alias.Domain != domain {
			continue
		}
		aliases = append(aliases, alias)
	}

	return aliases, nil
}

func (c *mailcowClient) GetAlias(ctx context.Context, aliasID int) (*interfaces.MailcowAlias, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailcowClient.GetAlias")
	defer span.Finish()
	tracing.TagComponentMailcowClient(span)
	span.LogKV("aliasID", aliasID)

	decoded, err := c.get(ctx, "get/alias/"+strconv.Itoa(aliasID))
	if err != nil {
		return nil, err
	}

	entry, ok := decoded.(map[string]interface{})
	if !ok || len(entry) == 0 {
		return nil, er.ErrAliasNotFound
	}

	alias := parseAlias(entry)
	return &alias, nil
}

func (c *mailcowClient) CreateAlias(ctx context.Context, req interfaces.MailcowAliasCreate) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailcowClient.CreateAlias")
	defer span.Finish()
	tracing.TagComponentMailcowClient(span)
	span.LogKV("address", req.Address)

	return c.post(ctx, "add/alias", map[string]interface{}{
		"address": req.Address,
		"goto":    req.Goto,
		"active":  boolFlag(req.Active),
	})
}

func (c *mailcowClient) UpdateAlias(ctx context.Context, aliasID int, req interfaces.MailcowAliasUpdate) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailcowClient.UpdateAlias")
	defer span.Finish()
	tracing.TagComponentMailcowClient(span)
	span.LogKV("aliasID", aliasID)

	attr := map[string]interface{}{}
	if req.Address != nil {
		attr["address"] = *req.Address
	}
	if req.Goto != nil {
		attr["goto"] = *req.Goto
	}
	if req.Active != nil {
		attr["active"] = boolFlag(*req.Active)
	}
	if len(attr) == 0 {
		return nil
	}

	return c.editItems(ctx, "edit/alias", []string{strconv.Itoa(aliasID)}, attr)
}

func (c *mailcowClient) DeleteAlias(ctx context.Context, aliasID int) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailcowClient.DeleteAlias")
	defer span.Finish()
	tracing.TagComponentMailcowClient(span)
	span.LogKV("aliasID", aliasID)

	return c.post(ctx, "delete/alias", []string{strconv.Itoa(aliasID)})
}

func parseAlias(entry map[string]interface{}) interfaces.MailcowAlias {
	return interfaces.MailcowAlias{
		ID:       utils.AsInt(entry["id"], 0),
		Address:  utils.AsString(entry["address"]),
		Goto:     utils.AsString(entry["goto"]),
		Domain:   utils.AsString(entry["domain"]),
		Active:   utils.AsBool(entry["active"]),
		Created:  utils.AsString(entry["created"]),
		Modified: utils.AsString(entry["modified"]),
	}
}
