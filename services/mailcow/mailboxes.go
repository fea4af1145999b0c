package mailcow

import (
	"fmt"
	"strings"

	"github.com/opentracing/opentracing-go"
	"golang.org/x/net/context"

	"github.com/NeonAnubis/afrimail-backend/interfaces"
	er "github.com/NeonAnubis/afrimail-backend/internal/errors"
	"github.com/NeonAnubis/afrimail-backend/internal/tracing"
	"github.com/NeonAnubis/afrimail-backend/internal/utils"
)

const bytesPerMiB = 1024 * 1024

// GetMailboxes lists mailboxes, optionally scoped to one domain. Entries the
// typing boundary rejects land in the Malformed slice instead of failing the
// whole listing.
func (c *mailcowClient) GetMailboxes(ctx context.Context, domain string) (*interfaces.MailcowMailboxList, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailcowClient.GetMailboxes")
	defer span.Finish()
	tracing.TagComponentMailcowClient(span)
	span.LogKV("domain", domain)

	path := "get/mailbox/all"
	if domain != "" {
		path += "/" + domain
	}

	decoded, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}

	list := &interfaces.MailcowMailboxList{}
	for i, item := range asList(decoded) {
		entry, ok := item.(map[string]interface{})
		if !ok {
			list.Malformed = append(list.Malformed, interfaces.MalformedEntry{
				Key:    fmt.Sprintf("entry[%d]", i),
				Reason: "entry is not an object",
			})
			continue
		}

		mailbox, err := parseMailbox(entry)
		if err != nil {
			list.Malformed = append(list.Malformed, interfaces.MalformedEntry{
				Key:    mailboxKey(entry, i),
				Reason: err.Error(),
			})
			continue
		}
		list.Mailboxes = append(list.Mailboxes, mailbox)
	}

	if len(list.Malformed) > 0 {
		c.log.Warnf("mailcow mailbox listing contained %d malformed entries", len(list.Malformed))
	}

	return list, nil
}

func (c *mailcowClient) GetMailbox(ctx context.Context, email string) (*interfaces.MailcowMailbox, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailcowClient.GetMailbox")
	defer span.Finish()
	tracing.TagComponentMailcowClient(span)
	span.LogKV("email", email)

	decoded, err := c.get(ctx, "get/mailbox/"+email)
	if err != nil {
		return nil, err
	}

	entry, ok := decoded.(map[string]interface{})
	if !ok || len(entry) == 0 {
		// mailcow answers {} for unknown mailboxes
		return nil, er.ErrMailboxNotFound
	}

	mailbox, err := parseMailbox(entry)
	if err != nil {
		return nil, newAPIError(KindValidation, "malformed mailbox entry: "+err.Error(), 0, "")
	}
	return &mailbox, nil
}

func (c *mailcowClient) CreateMailbox(ctx context.Context, req interfaces.MailcowMailboxCreate) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailcowClient.CreateMailbox")
	defer span.Finish()
	tracing.TagComponentMailcowClient(span)
	span.LogKV("localPart", req.LocalPart, "domain", req.Domain)

	payload := map[string]interface{}{
		"local_part": req.LocalPart,
		"domain":     req.Domain,
		"name":       req.Name,
		"password":   req.Password,
		"password2":  req.Password,
		"quota":      req.QuotaBytes / bytesPerMiB,
		"active":     boolFlag(req.Active),
	}
	if req.ForcePasswordUpdate {
		payload["force_pw_update"] = "1"
	}

	return c.post(ctx, "add/mailbox", payload)
}

func (c *mailcowClient) UpdateMailbox(ctx context.Context, email string, req interfaces.MailcowMailboxUpdate) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailcowClient.UpdateMailbox")
	defer span.Finish()
	tracing.TagComponentMailcowClient(span)
	span.LogKV("email", email)

	attr := mailboxUpdateAttr(req)
	if len(attr) == 0 {
		return nil
	}

	return c.editItems(ctx, "edit/mailbox", []string{email}, attr)
}

// UpdateMailboxes applies the same edit to several mailboxes in one call.
// The edit endpoint already accepts multiple items, so this is a single
// round trip rather than a loop.
func (c *mailcowClient) UpdateMailboxes(ctx context.Context, emails []string, req interfaces.MailcowMailboxUpdate) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailcowClient.UpdateMailboxes")
	defer span.Finish()
	tracing.TagComponentMailcowClient(span)
	span.LogKV("count", len(emails))

	if len(emails) == 0 {
		return nil
	}
	attr := mailboxUpdateAttr(req)
	if len(attr) == 0 {
		return nil
	}

	return c.editItems(ctx, "edit/mailbox", emails, attr)
}

func mailboxUpdateAttr(req interfaces.MailcowMailboxUpdate) map[string]interface{} {
	attr := map[string]interface{}{}
	if req.Name != nil {
		attr["name"] = *req.Name
	}
	if req.QuotaBytes != nil {
		attr["quota"] = *req.QuotaBytes / bytesPerMiB
	}
	if req.Password != nil {
		attr["password"] = *req.Password
		attr["password2"] = *req.Password
	}
	if req.Active != nil {
		attr["active"] = boolFlag(*req.Active)
	}
	return attr
}

func (c *mailcowClient) DeleteMailbox(ctx context.Context, email string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailcowClient.DeleteMailbox")
	defer span.Finish()
	tracing.TagComponentMailcowClient(span)
	span.LogKV("email", email)

	return c.post(ctx, "delete/mailbox", []string{email})
}

func (c *mailcowClient) ActivateMailbox(ctx context.Context, email string) error {
	return c.editItems(ctx, "edit/mailbox", []string{email}, map[string]interface{}{"active": "1"})
}

func (c *mailcowClient) DeactivateMailbox(ctx context.Context, email string) error {
	return c.editItems(ctx, "edit/mailbox", []string{email}, map[string]interface{}{"active": "0"})
}

func (c *mailcowClient) UpdateMailboxQuota(ctx context.Context, email string, quotaBytes int64) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailcowClient.UpdateMailboxQuota")
	defer span.Finish()
	tracing.TagComponentMailcowClient(span)
	span.LogKV("email", email, "quotaBytes", quotaBytes)

	return c.editItems(ctx, "edit/mailbox", []string{email}, map[string]interface{}{
		"quota": quotaBytes / bytesPerMiB,
	})
}

func (c *mailcowClient) SetMailboxPassword(ctx context.Context, email, newPassword string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailcowClient.SetMailboxPassword")
	defer span.Finish()
	tracing.TagComponentMailcowClient(span)
	span.LogKV("email", email)

	return c.editItems(ctx, "edit/mailbox", []string{email}, map[string]interface{}{
		"password":  newPassword,
		"password2": newPassword,
	})
}

// editItems wraps mailcow's edit payload shape: the target keys under items,
// the changed fields under attr
func (c *mailcowClient) editItems(ctx context.Context, path string, items []string, attr map[string]interface{}) error {
	return c.post(ctx, path, map[string]interface{}{
		"items": items,
		"attr":  attr,
	})
}

func boolFlag(value bool) string {
	if value {
		return "1"
	}
	return "0"
}

// parseMailbox types one raw mailbox entry. Identity fields are strict: a
// missing or empty address makes the entry malformed, as does a quota field
// carrying a non-numeric string. Absent numerics degrade to zero.
func parseMailbox(entry map[string]interface{}) (interfaces.MailcowMailbox, error) {
	var mailbox interfaces.MailcowMailbox

	localPart := utils.AsString(entry["local_part"])
	domain := utils.AsString(entry["domain"])
	if localPart == "" || domain == "" {
		username := utils.AsString(entry["username"])
		at := strings.Index(username, "@")
		if at <= 0 || at == len(username)-1 {
			return mailbox, fmt.Errorf("missing or invalid mailbox address")
		}
		localPart = username[:at]
		domain = username[at+1:]
	}
	mailbox.Username = localPart
	mailbox.Domain = domain

	quota, err := strictInt64(entry, "quota")
	if err != nil {
		return mailbox, err
	}
	used, err := strictInt64(entry, "quota_used")
	if err != nil {
		return mailbox, err
	}

	mailbox.QuotaBytes = quota
	mailbox.UsedBytes = used
	mailbox.Messages = utils.AsInt64(entry["messages"], 0)
	mailbox.Name = utils.AsString(entry["name"])
	mailbox.Active = utils.AsBool(entry["active"])
	mailbox.LastIMAPLogin = utils.AsString(entry["last_imap_login"])
	mailbox.LastSMTPLogin = utils.AsString(entry["last_smtp_login"])
	mailbox.Created = utils.AsString(entry["created"])
	mailbox.Modified = utils.AsString(entry["modified"])

	return mailbox, nil
}

// strictInt64 coerces a numeric field but treats a present, non-empty,
// non-numeric string as malformed rather than silently zero
func strictInt64(entry map[string]interface{}, field string) (int64, error) {
	value, present := entry[field]
	if !present || value == nil {
		return 0, nil
	}
	if s, ok := value.(string); ok {
		trimmed := strings.TrimSpace(s)
		if trimmed == "" {
			return 0, nil
		}
		coerced := utils.AsInt64(trimmed, -1)
		if coerced == -1 && trimmed != "-1" {
			return 0, fmt.Errorf("field %q is not numeric: %q", field, s)
		}
		return coerced, nil
	}
	return utils.AsInt64(value, 0), nil
}

func mailboxKey(entry map[string]interface{}, index int) string {
	if username := utils.AsString(entry["username"]); username != "" {
		return username
	}
	localPart := utils.AsString(entry["local_part"])
	domain := utils.AsString(entry["domain"])
	if localPart != "" && domain != "" {
		return localPart + "@" + domain
	}
	return fmt.Sprintf("entry[%d]", index)
}
