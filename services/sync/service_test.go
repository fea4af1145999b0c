package sync

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NeonAnubis/afrimail-backend/interfaces"
	er "github.com/NeonAnubis/afrimail-backend/internal/errors"
	"github.com/NeonAnubis/afrimail-backend/internal/logger"
	"github.com/NeonAnubis/afrimail-backend/internal/models"
)

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{DevMode: true})
	appLogger.InitLogger()
	return appLogger
}

type mockMailcowClient struct {
	interfaces.MailcowClient

	mailboxList *interfaces.MailcowMailboxList
	mailbox     *interfaces.MailcowMailbox
	aliases     []interfaces.MailcowAlias
	domains     []interfaces.MailcowDomain
	err         error
}

func (m *mockMailcowClient) GetMailboxes(ctx context.Context, domain string) (*interfaces.MailcowMailboxList, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.mailboxList, nil
}

func (m *mockMailcowClient) GetMailbox(ctx context.Context, email string) (*interfaces.MailcowMailbox, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.mailbox, nil
}

func (m *mockMailcowClient) GetAliases(ctx context.Context, domain string) ([]interfaces.MailcowAlias, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.aliases, nil
}

func (m *mockMailcowClient) GetDomains(ctx context.Context) ([]interfaces.MailcowDomain, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.domains, nil
}

type mockMailboxRepo struct {
	rows      map[string]*models.MailboxMetadata
	failEmail string
}

func newMockMailboxRepo() *mockMailboxRepo {
	return &mockMailboxRepo{rows: map[string]*models.MailboxMetadata{}}
}

func (m *mockMailboxRepo) GetByEmail(ctx context.Context, email string) (*models.MailboxMetadata, error) {
	row, ok := m.rows[email]
	if !ok {
		return nil, er.ErrMailboxNotFound
	}
	return row, nil
}

func (m *mockMailboxRepo) GetAll(ctx context.Context) ([]*models.MailboxMetadata, error) {
	var rows []*models.MailboxMetadata
	for _, row := range m.rows {
		rows = append(rows, row)
	}
	return rows, nil
}

func (m *mockMailboxRepo) Upsert(ctx context.Context, metadata *models.MailboxMetadata) (bool, error) {
	if metadata.Email == m.failEmail {
		return false, errors.New("unique constraint violation")
	}
	_, existed := m.rows[metadata.Email]
	metadata.LastSynced = time.Now().UTC()
	m.rows[metadata.Email] = metadata
	return !existed, nil
}

func (m *mockMailboxRepo) DeleteByEmail(ctx context.Context, email string) error {
	delete(m.rows, email)
	return nil
}

type mockAliasRepo struct {
	rows map[string]*models.EmailAlias
}

func newMockAliasRepo() *mockAliasRepo {
	return &mockAliasRepo{rows: map[string]*models.EmailAlias{}}
}

func (m *mockAliasRepo) GetByAddress(ctx context.Context, address string) (*models.EmailAlias, error) {
	row, ok := m.rows[address]
	if !ok {
		return nil, er.ErrAliasNotFound
	}
	return row, nil
}

func (m *mockAliasRepo) GetAll(ctx context.Context) ([]*models.EmailAlias, error) {
	return nil, nil
}

func (m *mockAliasRepo) Upsert(ctx context.Context, alias *models.EmailAlias) (bool, error) {
	_, existed := m.rows[alias.AliasAddress]
	m.rows[alias.AliasAddress] = alias
	return !existed, nil
}

func (m *mockAliasRepo) DeleteByAddress(ctx context.Context, address string) error {
	delete(m.rows, address)
	return nil
}

type mockDomainRepo struct {
	rows map[string]*models.MailDomain
}

func newMockDomainRepo() *mockDomainRepo {
	return &mockDomainRepo{rows: map[string]*models.MailDomain{}}
}

func (m *mockDomainRepo) GetByDomain(ctx context.Context, domain string) (*models.MailDomain, error) {
	row, ok := m.rows[domain]
	if !ok {
		return nil, er.ErrDomainNotFound
	}
	return row, nil
}

func (m *mockDomainRepo) GetAll(ctx context.Context) ([]*models.MailDomain, error) {
	return nil, nil
}

func (m *mockDomainRepo) Upsert(ctx context.Context, domain *models.MailDomain) (bool, error) {
	_, existed := m.rows[domain.Domain]
	m.rows[domain.Domain] = domain
	return !existed, nil
}

func (m *mockDomainRepo) DeleteByDomain(ctx context.Context, domain string) error {
	delete(m.rows, domain)
	return nil
}

func mailboxFixture(localPart string, quota int64) interfaces.MailcowMailbox {
	return interfaces.MailcowMailbox{
		Username:   localPart,
		Domain:     "example.com",
		QuotaBytes: quota,
		UsedBytes:  quota / 10,
		Messages:   12,
		Active:     true,
	}
}

func TestSyncAllMailboxes_MalformedEntriesBecomeFailures(t *testing.T) {
	client := &mockMailcowClient{
		mailboxList: &interfaces.MailcowMailboxList{
			Mailboxes: []interfaces.MailcowMailbox{
				mailboxFixture("a", 1000),
				mailboxFixture("b", 2000),
			},
			Malformed: []interfaces.MalformedEntry{
				{Key: "broken@example.com", Reason: `field "quota" is not numeric: "abc"`},
			},
		},
	}
	mailboxRepo := newMockMailboxRepo()
	svc := NewSyncService(getLogger(), client, mailboxRepo, newMockAliasRepo(), newMockDomainRepo())

	report, err := svc.SyncAllMailboxes(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 2, report.Created)
	assert.Equal(t, 0, report.Updated)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "broken@example.com", report.Failed[0].Key)
	assert.Contains(t, report.Failed[0].Error, "not numeric")

	// the two well-formed rows landed despite the failure
	assert.Len(t, mailboxRepo.rows, 2)
}

func TestSyncAllMailboxes_SecondSweepUpdatesInsteadOfCreates(t *testing.T) {
	client := &mockMailcowClient{
		mailboxList: &interfaces.MailcowMailboxList{
			Mailboxes: []interfaces.MailcowMailbox{mailboxFixture("a", 1000)},
		},
	}
	svc := NewSyncService(getLogger(), client, newMockMailboxRepo(), newMockAliasRepo(), newMockDomainRepo())

	first, err := svc.SyncAllMailboxes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Created)
	assert.Equal(t, 0, first.Updated)

	second, err := svc.SyncAllMailboxes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 1, second.Updated)
}

func TestSyncAllMailboxes_UpsertFailureDoesNotAbortSweep(t *testing.T) {
	client := &mockMailcowClient{
		mailboxList: &interfaces.MailcowMailboxList{
			Mailboxes: []interfaces.MailcowMailbox{
				mailboxFixture("a", 1000),
				mailboxFixture("b", 2000),
				mailboxFixture("c", 3000),
			},
		},
	}
	mailboxRepo := newMockMailboxRepo()
	mailboxRepo.failEmail = "b@example.com"
	svc := NewSyncService(getLogger(), client, mailboxRepo, newMockAliasRepo(), newMockDomainRepo())

	report, err := svc.SyncAllMailboxes(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 2, report.Created)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "b@example.com", report.Failed[0].Key)
}

func TestSyncAllMailboxes_RemoteErrorAbortsSweep(t *testing.T) {
	client := &mockMailcowClient{err: er.ErrMailcowNotConfigured}
	svc := NewSyncService(getLogger(), client, newMockMailboxRepo(), newMockAliasRepo(), newMockDomainRepo())

	_, err := svc.SyncAllMailboxes(context.Background())
	assert.ErrorIs(t, err, er.ErrMailcowNotConfigured)
}

func TestSyncMailbox_OverwritesCachedRow(t *testing.T) {
	mailbox := mailboxFixture("a", 5000)
	client := &mockMailcowClient{mailbox: &mailbox}
	mailboxRepo := newMockMailboxRepo()
	mailboxRepo.rows["a@example.com"] = &models.MailboxMetadata{
		Email:      "a@example.com",
		QuotaBytes: 1,
		UsageBytes: 1,
	}
	svc := NewSyncService(getLogger(), client, mailboxRepo, newMockAliasRepo(), newMockDomainRepo())

	row, err := svc.SyncMailbox(context.Background(), "a@example.com")
	require.NoError(t, err)

	assert.Equal(t, int64(5000), row.QuotaBytes)
	assert.Equal(t, int64(500), row.UsageBytes)
	assert.False(t, row.LastSynced.IsZero())
}

func TestSyncAllAliases(t *testing.T) {
	client := &mockMailcowClient{
		aliases: []interfaces.MailcowAlias{
			{ID: 1, Address: "info@example.com", Goto: "a@example.com,b@example.com", Domain: "example.com", Active: true},
			{ID: 2, Address: "@example.com", Goto: "catch@example.com", Domain: "example.com", Active: true},
			{ID: 3, Goto: "nowhere@example.com"},
		},
	}
	aliasRepo := newMockAliasRepo()
	svc := NewSyncService(getLogger(), client, newMockMailboxRepo(), aliasRepo, newMockDomainRepo())

	report, err := svc.SyncAllAliases(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 2, report.Created)
	require.Len(t, report.Failed, 1)

	distribution := aliasRepo.rows["info@example.com"]
	require.NotNil(t, distribution)
	assert.True(t, distribution.IsDistributionList)
	assert.False(t, distribution.IsCatchAll)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, []string(distribution.TargetAddresses))

	catchAll := aliasRepo.rows["@example.com"]
	require.NotNil(t, catchAll)
	assert.True(t, catchAll.IsCatchAll)
	assert.False(t, catchAll.IsDistributionList)
}

func TestSyncAllDomains(t *testing.T) {
	client := &mockMailcowClient{
		domains: []interfaces.MailcowDomain{
			{Domain: "example.com", MaxMailboxes: 25, MaxAliases: 400, QuotaBytes: 10 << 30, UsedBytes: 1 << 30, Active: true},
			{Domain: "other.com", Active: false},
		},
	}
	domainRepo := newMockDomainRepo()
	svc := NewSyncService(getLogger(), client, newMockMailboxRepo(), newMockAliasRepo(), domainRepo)

	report, err := svc.SyncAllDomains(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 2, report.Created)
	assert.Empty(t, report.Failed)

	row := domainRepo.rows["example.com"]
	require.NotNil(t, row)
	assert.Equal(t, 25, row.MaxMailboxes)
	assert.True(t, row.IsActive)
	assert.False(t, domainRepo.rows["other.com"].IsActive)
}
