package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NeonAnubis/afrimail-backend/interfaces"
	er "github.com/NeonAnubis/afrimail-backend/internal/errors"
	"github.com/NeonAnubis/afrimail-backend/internal/logger"
	"github.com/NeonAnubis/afrimail-backend/internal/models"
)

const testUserID = "6ba7b810-9dad-11d1-80b4-00c04fd430c8"

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{DevMode: true})
	appLogger.InitLogger()
	return appLogger
}

type mockLimitRepo struct {
	rows map[string]*models.EmailSendingLimit
}

func newMockLimitRepo() *mockLimitRepo {
	return &mockLimitRepo{rows: map[string]*models.EmailSendingLimit{}}
}

func (m *mockLimitRepo) GetByUserID(ctx context.Context, userID string) (*models.EmailSendingLimit, error) {
	row, ok := m.rows[userID]
	if !ok {
		return nil, er.ErrSendingLimitNotFound
	}
	copied := *row
	return &copied, nil
}

func (m *mockLimitRepo) GetByID(ctx context.Context, id string) (*models.EmailSendingLimit, error) {
	for _, row := range m.rows {
		if row.ID == id {
			copied := *row
			return &copied, nil
		}
	}
	return nil, er.ErrSendingLimitNotFound
}

func (m *mockLimitRepo) GetAll(ctx context.Context) ([]*models.EmailSendingLimit, error) {
	var rows []*models.EmailSendingLimit
	for _, row := range m.rows {
		copied := *row
		rows = append(rows, &copied)
	}
	return rows, nil
}

func (m *mockLimitRepo) EnsureForUser(ctx context.Context, userID string, defaults models.SendingTier) (*models.EmailSendingLimit, error) {
	if row, ok := m.rows[userID]; ok {
		copied := *row
		return &copied, nil
	}
	row := &models.EmailSendingLimit{
		ID:               "eslim_" + userID[:8],
		UserID:           userID,
		TierName:         defaults.Name,
		DailyLimit:       defaults.DailyLimit,
		HourlyLimit:      defaults.HourlyLimit,
		IsSendingEnabled: true,
	}
	m.rows[userID] = row
	copied := *row
	return &copied, nil
}

func (m *mockLimitRepo) Save(ctx context.Context, limit *models.EmailSendingLimit) error {
	copied := *limit
	m.rows[limit.UserID] = &copied
	return nil
}

func (m *mockLimitRepo) UpdateWithLock(ctx context.Context, userID string, fn func(limit *models.EmailSendingLimit) error) (*models.EmailSendingLimit, error) {
	row, ok := m.rows[userID]
	if !ok {
		return nil, er.ErrSendingLimitNotFound
	}
	// fn works on a copy; an error aborts without touching the stored row
	working := *row
	if err := fn(&working); err != nil {
		return nil, err
	}
	m.rows[userID] = &working
	copied := working
	return &copied, nil
}

func (m *mockLimitRepo) Stats(ctx context.Context) (*interfaces.SendingStats, error) {
	return &interfaces.SendingStats{}, nil
}

type mockSendLogRepo struct {
	entries []*models.EmailSendLog
}

func (m *mockSendLogRepo) Create(ctx context.Context, log *models.EmailSendLog) error {
	m.entries = append(m.entries, log)
	return nil
}

func (m *mockSendLogRepo) ListByUser(ctx context.Context, userID string, since time.Time, limit int) ([]*models.EmailSendLog, error) {
	return m.entries, nil
}

type mockViolationRepo struct {
	violations []*models.SendingLimitViolation
}

func (m *mockViolationRepo) Create(ctx context.Context, violation *models.SendingLimitViolation) error {
	m.violations = append(m.violations, violation)
	return nil
}

func (m *mockViolationRepo) List(ctx context.Context, resolved *bool) ([]*models.SendingLimitViolation, error) {
	return m.violations, nil
}

func (m *mockViolationRepo) GetByID(ctx context.Context, id string) (*models.SendingLimitViolation, error) {
	return nil, er.ErrViolationNotFound
}

func (m *mockViolationRepo) Resolve(ctx context.Context, id, resolvedBy, adminNotes string) error {
	return nil
}

func (m *mockViolationRepo) CountOpen(ctx context.Context) (int64, error) {
	return int64(len(m.violations)), nil
}

type mockTierService struct {
	tiers map[string]*models.SendingTier
}

func newMockTierService() *mockTierService {
	return &mockTierService{
		tiers: map[string]*models.SendingTier{
			"free": {Name: "free", DisplayName: "Free", DailyLimit: 50, HourlyLimit: 10, IsActive: true},
			"pro":  {Name: "pro", DisplayName: "Pro", DailyLimit: 500, HourlyLimit: 100, IsActive: true},
		},
	}
}

func (m *mockTierService) ResolveTier(ctx context.Context, name string) (*models.SendingTier, error) {
	tier, ok := m.tiers[name]
	if !ok {
		return nil, er.ErrTierNotFound
	}
	return tier, nil
}

func (m *mockTierService) ListTiers(ctx context.Context, activeOnly bool) ([]*models.SendingTier, error) {
	return nil, nil
}

func (m *mockTierService) SaveTier(ctx context.Context, tier *models.SendingTier) error {
	return nil
}

func (m *mockTierService) DeactivateTier(ctx context.Context, name string) error {
	return nil
}

func (m *mockTierService) AssignTier(ctx context.Context, userID, tierName string) (*models.EmailSendingLimit, error) {
	return nil, nil
}

func (m *mockTierService) EffectiveLimits(limit *models.EmailSendingLimit) (int, int) {
	return limit.DailyLimit, limit.HourlyLimit
}

func (m *mockTierService) DefaultTier(ctx context.Context) models.SendingTier {
	return *m.tiers["free"]
}

type fixture struct {
	service       *rateLimiterService
	limitRepo     *mockLimitRepo
	sendLogRepo   *mockSendLogRepo
	violationRepo *mockViolationRepo
}

func newFixture(t *testing.T, now time.Time) *fixture {
	limitRepo := newMockLimitRepo()
	sendLogRepo := &mockSendLogRepo{}
	violationRepo := &mockViolationRepo{}

	svc := NewRateLimiterService(getLogger(), limitRepo, sendLogRepo, violationRepo, newMockTierService())
	impl, ok := svc.(*rateLimiterService)
	require.True(t, ok)
	impl.nowFunc = func() time.Time { return now }

	return &fixture{
		service:       impl,
		limitRepo:     limitRepo,
		sendLogRepo:   sendLogRepo,
		violationRepo: violationRepo,
	}
}

func (f *fixture) seedRow(row *models.EmailSendingLimit) {
	f.limitRepo.rows[row.UserID] = row
}

func attempt(count int) interfaces.SendAttemptRequest {
	return interfaces.SendAttemptRequest{
		UserID:         testUserID,
		RecipientEmail: "dest@example.com",
		RecipientCount: count,
		Subject:        "hello",
	}
}

func TestAttemptSend_AllowsAndIncrementsBothCounters(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	f := newFixture(t, now)

	decision, err := f.service.AttemptSend(context.Background(), attempt(3))
	require.NoError(t, err)

	assert.True(t, decision.Allowed)
	assert.Equal(t, 3, decision.EmailsSentToday)
	assert.Equal(t, 3, decision.EmailsSentThisHour)
	assert.Equal(t, 50, decision.DailyLimit)
	assert.Equal(t, 10, decision.HourlyLimit)

	require.Len(t, f.sendLogRepo.entries, 1)
	assert.Equal(t, models.SendStatusSent, f.sendLogRepo.entries[0].Status)
	assert.Empty(t, f.violationRepo.violations)
}

func TestAttemptSend_DeniesWholeRequestNearDailyLimit(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	f := newFixture(t, now)
	f.seedRow(&models.EmailSendingLimit{
		UserID:             testUserID,
		TierName:           "free",
		DailyLimit:         50,
		HourlyLimit:        10,
		EmailsSentToday:    49,
		EmailsSentThisHour: 9,
		LastResetDate:      now.Truncate(24 * time.Hour),
		LastResetHour:      now.Truncate(time.Hour),
		IsSendingEnabled:   true,
	})

	decision, err := f.service.AttemptSend(context.Background(), attempt(2))
	require.NoError(t, err)

	assert.False(t, decision.Allowed)
	assert.Equal(t, models.BlockedReasonDailyLimit, decision.Reason)
	// deny leaves counters untouched
	assert.Equal(t, 49, decision.EmailsSentToday)
	assert.Equal(t, 9, decision.EmailsSentThisHour)

	require.Len(t, f.violationRepo.violations, 1)
	violation := f.violationRepo.violations[0]
	assert.Equal(t, models.ViolationTypeDailyLimit, violation.ViolationType)
	assert.Equal(t, 2, violation.AttemptedCount)
	assert.Equal(t, 50, violation.LimitAtTime)

	require.Len(t, f.sendLogRepo.entries, 1)
	assert.Equal(t, models.SendStatusBlocked, f.sendLogRepo.entries[0].Status)
}

func TestAttemptSend_ExactlyAtLimitIsAllowed(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	f := newFixture(t, now)
	f.seedRow(&models.EmailSendingLimit{
		UserID:             testUserID,
		TierName:           "free",
		DailyLimit:         50,
		HourlyLimit:        10,
		EmailsSentToday:    48,
		EmailsSentThisHour: 8,
		LastResetDate:      now.Truncate(24 * time.Hour),
		LastResetHour:      now.Truncate(time.Hour),
		IsSendingEnabled:   true,
	})

	decision, err := f.service.AttemptSend(context.Background(), attempt(2))
	require.NoError(t, err)

	assert.True(t, decision.Allowed)
	assert.Equal(t, 50, decision.EmailsSentToday)
	assert.Equal(t, 10, decision.EmailsSentThisHour)
}

func TestAttemptSend_DeniesOnHourlyLimit(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	f := newFixture(t, now)
	f.seedRow(&models.EmailSendingLimit{
		UserID:             testUserID,
		TierName:           "free",
		DailyLimit:         50,
		HourlyLimit:        10,
		EmailsSentToday:    20,
		EmailsSentThisHour: 10,
		LastResetDate:      now.Truncate(24 * time.Hour),
		LastResetHour:      now.Truncate(time.Hour),
		IsSendingEnabled:   true,
	})

	decision, err := f.service.AttemptSend(context.Background(), attempt(1))
	require.NoError(t, err)

	assert.False(t, decision.Allowed)
	assert.Equal(t, models.BlockedReasonHourlyLimit, decision.Reason)
	assert.Equal(t, 20, decision.EmailsSentToday)

	require.Len(t, f.violationRepo.violations, 1)
	assert.Equal(t, models.ViolationTypeHourlyLimit, f.violationRepo.violations[0].ViolationType)
	assert.Equal(t, 10, f.violationRepo.violations[0].LimitAtTime)
}

func TestAttemptSend_SendingDisabledDeniesWithoutViolation(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	f := newFixture(t, now)
	f.seedRow(&models.EmailSendingLimit{
		UserID:           testUserID,
		TierName:         "free",
		DailyLimit:       50,
		HourlyLimit:      10,
		EmailsSentToday:  5,
		LastResetDate:    now.Truncate(24 * time.Hour),
		LastResetHour:    now.Truncate(time.Hour),
		IsSendingEnabled: false,
	})

	decision, err := f.service.AttemptSend(context.Background(), attempt(1))
	require.NoError(t, err)

	assert.False(t, decision.Allowed)
	assert.Equal(t, models.BlockedReasonSendingDisabled, decision.Reason)
	assert.Equal(t, 5, decision.EmailsSentToday)

	// the kill switch is not a limit violation
	assert.Empty(t, f.violationRepo.violations)
	require.Len(t, f.sendLogRepo.entries, 1)
	assert.Equal(t, models.SendStatusBlocked, f.sendLogRepo.entries[0].Status)
}

func TestAttemptSend_SendingDisabledKeepsStaleWindows(t *testing.T) {
	now := time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, now)

	staleDate := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	staleHour := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	f.seedRow(&models.EmailSendingLimit{
		UserID:             testUserID,
		TierName:           "free",
		DailyLimit:         50,
		HourlyLimit:        10,
		EmailsSentToday:    37,
		EmailsSentThisHour: 4,
		LastResetDate:      staleDate,
		LastResetHour:      staleHour,
		IsSendingEnabled:   false,
	})

	decision, err := f.service.AttemptSend(context.Background(), attempt(1))
	require.NoError(t, err)

	assert.False(t, decision.Allowed)
	assert.Equal(t, models.BlockedReasonSendingDisabled, decision.Reason)
	assert.Equal(t, 37, decision.EmailsSentToday)
	assert.Equal(t, 4, decision.EmailsSentThisHour)

	// the disabled deny must not roll over or persist anything, even with
	// day-old reset markers
	row := f.limitRepo.rows[testUserID]
	assert.Equal(t, 37, row.EmailsSentToday)
	assert.Equal(t, 4, row.EmailsSentThisHour)
	assert.Equal(t, staleDate, row.LastResetDate)
	assert.Equal(t, staleHour, row.LastResetHour)

	assert.Empty(t, f.violationRepo.violations)
	require.Len(t, f.sendLogRepo.entries, 1)
	assert.Equal(t, models.SendStatusBlocked, f.sendLogRepo.entries[0].Status)
}

func TestAttemptSend_DailyRolloverResetsCounter(t *testing.T) {
	now := time.Date(2026, 3, 11, 0, 5, 0, 0, time.UTC)
	f := newFixture(t, now)
	f.seedRow(&models.EmailSendingLimit{
		UserID:             testUserID,
		TierName:           "free",
		DailyLimit:         50,
		HourlyLimit:        10,
		EmailsSentToday:    50,
		EmailsSentThisHour: 10,
		LastResetDate:      time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		LastResetHour:      time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC),
		IsSendingEnabled:   true,
	})

	decision, err := f.service.AttemptSend(context.Background(), attempt(1))
	require.NoError(t, err)

	assert.True(t, decision.Allowed)
	assert.Equal(t, 1, decision.EmailsSentToday)
	assert.Equal(t, 1, decision.EmailsSentThisHour)
}

func TestAttemptSend_HourlyRolloverKeepsDailyCounter(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 30, 0, time.UTC)
	f := newFixture(t, now)
	f.seedRow(&models.EmailSendingLimit{
		UserID:             testUserID,
		TierName:           "free",
		DailyLimit:         50,
		HourlyLimit:        10,
		EmailsSentToday:    30,
		EmailsSentThisHour: 10,
		LastResetDate:      now.Truncate(24 * time.Hour),
		LastResetHour:      time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC),
		IsSendingEnabled:   true,
	})

	decision, err := f.service.AttemptSend(context.Background(), attempt(1))
	require.NoError(t, err)

	assert.True(t, decision.Allowed)
	assert.Equal(t, 31, decision.EmailsSentToday)
	assert.Equal(t, 1, decision.EmailsSentThisHour)
}

func TestRolloverCounters_Idempotent(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	limit := &models.EmailSendingLimit{
		EmailsSentToday:    7,
		EmailsSentThisHour: 3,
		LastResetDate:      time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
		LastResetHour:      time.Date(2026, 3, 10, 13, 0, 0, 0, time.UTC),
	}

	rolloverCounters(limit, now)
	assert.Equal(t, 0, limit.EmailsSentToday)
	assert.Equal(t, 0, limit.EmailsSentThisHour)

	limit.EmailsSentToday = 4
	limit.EmailsSentThisHour = 2

	// same instant again must not reset anything
	rolloverCounters(limit, now)
	assert.Equal(t, 4, limit.EmailsSentToday)
	assert.Equal(t, 2, limit.EmailsSentThisHour)
}

func TestAttemptSend_ZeroRecipientCountDefaultsToOne(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	f := newFixture(t, now)

	decision, err := f.service.AttemptSend(context.Background(), attempt(0))
	require.NoError(t, err)

	assert.True(t, decision.Allowed)
	assert.Equal(t, 1, decision.EmailsSentToday)
}

func TestAttemptSend_RequiresUserID(t *testing.T) {
	f := newFixture(t, time.Now().UTC())

	_, err := f.service.AttemptSend(context.Background(), interfaces.SendAttemptRequest{RecipientCount: 1})
	assert.Error(t, err)
}

func TestSuspendAndResumeSending(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	f := newFixture(t, now)
	f.seedRow(&models.EmailSendingLimit{
		UserID:           testUserID,
		DailyLimit:       50,
		HourlyLimit:      10,
		EmailsSentToday:  12,
		LastResetDate:    now.Truncate(24 * time.Hour),
		LastResetHour:    now.Truncate(time.Hour),
		IsSendingEnabled: true,
	})

	require.NoError(t, f.service.SuspendSending(context.Background(), testUserID, "spam reports"))

	row := f.limitRepo.rows[testUserID]
	assert.False(t, row.IsSendingEnabled)
	require.NotNil(t, row.CustomLimitReason)
	assert.Equal(t, "spam reports", *row.CustomLimitReason)
	// suspension preserves counters
	assert.Equal(t, 12, row.EmailsSentToday)

	require.NoError(t, f.service.ResumeSending(context.Background(), testUserID))
	assert.True(t, f.limitRepo.rows[testUserID].IsSendingEnabled)
	assert.Nil(t, f.limitRepo.rows[testUserID].CustomLimitReason)
}

func TestSuspendSending_ReplacesPreviousReason(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	f := newFixture(t, now)
	oldReason := "earlier override"
	f.seedRow(&models.EmailSendingLimit{
		UserID:            testUserID,
		DailyLimit:        50,
		HourlyLimit:       10,
		CustomLimitReason: &oldReason,
		LastResetDate:     now.Truncate(24 * time.Hour),
		LastResetHour:     now.Truncate(time.Hour),
		IsSendingEnabled:  true,
	})

	require.NoError(t, f.service.SuspendSending(context.Background(), testUserID, "abuse report"))
	row := f.limitRepo.rows[testUserID]
	require.NotNil(t, row.CustomLimitReason)
	assert.Equal(t, "abuse report", *row.CustomLimitReason)

	// an empty reason clears the previous one instead of leaving it behind
	require.NoError(t, f.service.SuspendSending(context.Background(), testUserID, ""))
	assert.Nil(t, f.limitRepo.rows[testUserID].CustomLimitReason)
	assert.False(t, f.limitRepo.rows[testUserID].IsSendingEnabled)
}

func TestResetCounters(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	f := newFixture(t, now)
	f.seedRow(&models.EmailSendingLimit{
		UserID:             testUserID,
		DailyLimit:         50,
		HourlyLimit:        10,
		EmailsSentToday:    40,
		EmailsSentThisHour: 8,
		LastResetDate:      now.Truncate(24 * time.Hour),
		LastResetHour:      now.Truncate(time.Hour),
		IsSendingEnabled:   true,
	})

	require.NoError(t, f.service.ResetCounters(context.Background(), testUserID))

	row := f.limitRepo.rows[testUserID]
	assert.Equal(t, 0, row.EmailsSentToday)
	assert.Equal(t, 0, row.EmailsSentThisHour)
}

func TestUpdateLimits_TierChangeThenExplicitOverride(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	f := newFixture(t, now)
	f.seedRow(&models.EmailSendingLimit{
		UserID:           testUserID,
		TierName:         "free",
		DailyLimit:       50,
		HourlyLimit:      10,
		LastResetDate:    now.Truncate(24 * time.Hour),
		LastResetHour:    now.Truncate(time.Hour),
		IsSendingEnabled: true,
	})

	tierName := "pro"
	daily := 200
	updated, err := f.service.UpdateLimits(context.Background(), testUserID, interfaces.LimitUpdate{
		TierName:   &tierName,
		DailyLimit: &daily,
	})
	require.NoError(t, err)

	assert.Equal(t, "pro", updated.TierName)
	// explicit cap wins over the tier default
	assert.Equal(t, 200, updated.DailyLimit)
	assert.Equal(t, 100, updated.HourlyLimit)
}

func TestUpdateLimits_RejectsNegativeCaps(t *testing.T) {
	f := newFixture(t, time.Now().UTC())

	bad := -1
	_, err := f.service.UpdateLimits(context.Background(), testUserID, interfaces.LimitUpdate{DailyLimit: &bad})
	assert.Error(t, err)
}

func TestUpdateLimits_UnknownTier(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	f := newFixture(t, now)
	f.seedRow(&models.EmailSendingLimit{
		UserID:           testUserID,
		DailyLimit:       50,
		HourlyLimit:      10,
		LastResetDate:    now.Truncate(24 * time.Hour),
		LastResetHour:    now.Truncate(time.Hour),
		IsSendingEnabled: true,
	})

	tierName := "platinum"
	_, err := f.service.UpdateLimits(context.Background(), testUserID, interfaces.LimitUpdate{TierName: &tierName})
	assert.ErrorIs(t, err, er.ErrTierNotFound)
}
