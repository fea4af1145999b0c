package errors

import "github.com/pkg/errors"

var (
	// common errors
	ErrConnectionTimeout = errors.New("connection timeout")

	// sending limit errors
	ErrSendingLimitNotFound = errors.New("sending limit not found")
	ErrTierNotFound         = errors.New("sending tier not found")
	ErrTierInactive         = errors.New("sending tier is not active")
	ErrViolationNotFound    = errors.New("violation not found")

	// mail control plane errors
	ErrMailcowNotConfigured = errors.New("mailcow API is not configured")
	ErrMailboxNotFound      = errors.New("mailbox not found")
	ErrAliasNotFound        = errors.New("alias not found")
	ErrDomainNotFound       = errors.New("domain not found")
)
