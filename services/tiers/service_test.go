package tiers

import (
	"context"
	"testing"

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

type mockTierRepo struct {
	tiers map[string]*models.SendingTier
}

func newMockTierRepo() *mockTierRepo {
	return &mockTierRepo{
		tiers: map[string]*models.SendingTier{
			"free": {Name: "free", DisplayName: "Free", DailyLimit: 50, HourlyLimit: 10, IsActive: true},
			"pro":  {Name: "pro", DisplayName: "Pro", DailyLimit: 500, HourlyLimit: 100, IsActive: true},
			"old":  {Name: "old", DisplayName: "Legacy", DailyLimit: 100, HourlyLimit: 20, IsActive: false},
		},
	}
}

func (m *mockTierRepo) GetByName(ctx context.Context, name string) (*models.SendingTier, error) {
	tier, ok := m.tiers[name]
	if !ok {
		return nil, er.ErrTierNotFound
	}
	copied := *tier
	return &copied, nil
}

func (m *mockTierRepo) GetAll(ctx context.Context, activeOnly bool) ([]*models.SendingTier, error) {
	var tiers []*models.SendingTier
	for _, tier := range m.tiers {
		if activeOnly && !tier.IsActive {
			continue
		}
		copied := *tier
		tiers = append(tiers, &copied)
	}
	return tiers, nil
}

func (m *mockTierRepo) Save(ctx context.Context, tier *models.SendingTier) error {
	copied := *tier
	m.tiers[tier.Name] = &copied
	return nil
}

func (m *mockTierRepo) SetActive(ctx context.Context, name string, active bool) error {
	tier, ok := m.tiers[name]
	if !ok {
		return er.ErrTierNotFound
	}
	tier.IsActive = active
	return nil
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
	return row, nil
}

func (m *mockLimitRepo) GetByID(ctx context.Context, id string) (*models.EmailSendingLimit, error) {
	return nil, er.ErrSendingLimitNotFound
}

func (m *mockLimitRepo) GetAll(ctx context.Context) ([]*models.EmailSendingLimit, error) {
	return nil, nil
}

func (m *mockLimitRepo) EnsureForUser(ctx context.Context, userID string, defaults models.SendingTier) (*models.EmailSendingLimit, error) {
	if row, ok := m.rows[userID]; ok {
		return row, nil
	}
	row := &models.EmailSendingLimit{
		UserID:           userID,
		TierName:         defaults.Name,
		DailyLimit:       defaults.DailyLimit,
		HourlyLimit:      defaults.HourlyLimit,
		IsSendingEnabled: true,
	}
	m.rows[userID] = row
	return row, nil
}

func (m *mockLimitRepo) Save(ctx context.Context, limit *models.EmailSendingLimit) error {
	m.rows[limit.UserID] = limit
	return nil
}

func (m *mockLimitRepo) UpdateWithLock(ctx context.Context, userID string, fn func(limit *models.EmailSendingLimit) error) (*models.EmailSendingLimit, error) {
	row, ok := m.rows[userID]
	if !ok {
		return nil, er.ErrSendingLimitNotFound
	}
	if err := fn(row); err != nil {
		return nil, err
	}
	copied := *row
	return &copied, nil
}

func (m *mockLimitRepo) Stats(ctx context.Context) (*interfaces.SendingStats, error) {
	return &interfaces.SendingStats{}, nil
}

func newService(tierRepo *mockTierRepo, limitRepo *mockLimitRepo) interfaces.TierService {
	return NewTierService(getLogger(), tierRepo, limitRepo)
}

func TestAssignTier_DenormalizesLimitsOntoUserRow(t *testing.T) {
	limitRepo := newMockLimitRepo()
	svc := newService(newMockTierRepo(), limitRepo)

	limit, err := svc.AssignTier(context.Background(), testUserID, "pro")
	require.NoError(t, err)

	assert.Equal(t, "pro", limit.TierName)
	assert.Equal(t, 500, limit.DailyLimit)
	assert.Equal(t, 100, limit.HourlyLimit)
}

func TestAssignTier_LaterTierEditDoesNotChangeAssignedRow(t *testing.T) {
	tierRepo := newMockTierRepo()
	limitRepo := newMockLimitRepo()
	svc := newService(tierRepo, limitRepo)

	_, err := svc.AssignTier(context.Background(), testUserID, "pro")
	require.NoError(t, err)

	// edit the catalog after assignment
	tierRepo.tiers["pro"].DailyLimit = 9999

	row := limitRepo.rows[testUserID]
	assert.Equal(t, 500, row.DailyLimit)

	// re-assignment picks up the new caps
	updated, err := svc.AssignTier(context.Background(), testUserID, "pro")
	require.NoError(t, err)
	assert.Equal(t, 9999, updated.DailyLimit)
}

func TestAssignTier_RejectsInactiveTier(t *testing.T) {
	svc := newService(newMockTierRepo(), newMockLimitRepo())

	_, err := svc.AssignTier(context.Background(), testUserID, "old")
	assert.ErrorIs(t, err, er.ErrTierInactive)
}

func TestAssignTier_UnknownTier(t *testing.T) {
	svc := newService(newMockTierRepo(), newMockLimitRepo())

	_, err := svc.AssignTier(context.Background(), testUserID, "platinum")
	assert.ErrorIs(t, err, er.ErrTierNotFound)
}

func TestAssignTier_ClearsCustomLimitReason(t *testing.T) {
	limitRepo := newMockLimitRepo()
	reason := "manual override"
	limitRepo.rows[testUserID] = &models.EmailSendingLimit{
		UserID:            testUserID,
		TierName:          "free",
		DailyLimit:        5,
		HourlyLimit:       2,
		CustomLimitReason: &reason,
		IsSendingEnabled:  true,
	}
	svc := newService(newMockTierRepo(), limitRepo)

	limit, err := svc.AssignTier(context.Background(), testUserID, "pro")
	require.NoError(t, err)

	assert.Nil(t, limit.CustomLimitReason)
	assert.Equal(t, 500, limit.DailyLimit)
}

func TestDeactivateTier_DefaultTierIsProtected(t *testing.T) {
	svc := newService(newMockTierRepo(), newMockLimitRepo())

	err := svc.DeactivateTier(context.Background(), "free")
	assert.Error(t, err)
}

func TestDeactivateTier(t *testing.T) {
	tierRepo := newMockTierRepo()
	svc := newService(tierRepo, newMockLimitRepo())

	require.NoError(t, svc.DeactivateTier(context.Background(), "pro"))
	assert.False(t, tierRepo.tiers["pro"].IsActive)
}

func TestSaveTier_Validation(t *testing.T) {
	svc := newService(newMockTierRepo(), newMockLimitRepo())

	err := svc.SaveTier(context.Background(), &models.SendingTier{DailyLimit: 10})
	assert.Error(t, err)

	err = svc.SaveTier(context.Background(), &models.SendingTier{Name: "basic", DailyLimit: -1})
	assert.Error(t, err)
}

func TestSaveTier_DefaultsDisplayName(t *testing.T) {
	tierRepo := newMockTierRepo()
	svc := newService(tierRepo, newMockLimitRepo())

	require.NoError(t, svc.SaveTier(context.Background(), &models.SendingTier{
		Name:        "basic",
		DailyLimit:  100,
		HourlyLimit: 20,
	}))

	assert.Equal(t, "basic", tierRepo.tiers["basic"].DisplayName)
}

func TestEffectiveLimits_FallsBackOnZeroCaps(t *testing.T) {
	svc := newService(newMockTierRepo(), newMockLimitRepo())

	daily, hourly := svc.EffectiveLimits(&models.EmailSendingLimit{DailyLimit: 0, HourlyLimit: 0})
	assert.Equal(t, DefaultDailyLimit, daily)
	assert.Equal(t, DefaultHourlyLimit, hourly)

	daily, hourly = svc.EffectiveLimits(&models.EmailSendingLimit{DailyLimit: 500, HourlyLimit: 100})
	assert.Equal(t, 500, daily)
	assert.Equal(t, 100, hourly)
}

func TestDefaultTier_UsesBuiltinFallbackWhenCatalogUnseeded(t *testing.T) {
	tierRepo := &mockTierRepo{tiers: map[string]*models.SendingTier{}}
	svc := newService(tierRepo, newMockLimitRepo())

	tier := svc.DefaultTier(context.Background())
	assert.Equal(t, DefaultTierName, tier.Name)
	assert.Equal(t, DefaultDailyLimit, tier.DailyLimit)
	assert.Equal(t, DefaultHourlyLimit, tier.HourlyLimit)
}

func TestDefaultTier_PrefersCatalogRow(t *testing.T) {
	tierRepo := newMockTierRepo()
	tierRepo.tiers["free"].DailyLimit = 75
	svc := newService(tierRepo, newMockLimitRepo())

	tier := svc.DefaultTier(context.Background())
	assert.Equal(t, 75, tier.DailyLimit)
}
