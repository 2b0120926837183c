package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelens/carelens/constants"
	"github.com/carelens/carelens/internal/entity"
)

func TestMemoryReportUpdateIsShallowMerge(t *testing.T) {
	stores := NewMemoryStores()
	ctx := context.Background()

	rep, err := stores.Reports.Create(ctx, &entity.Report{
		UserID:     uuid.New(),
		FileName:   "labs.pdf",
		FileURL:    "memory://labs.pdf",
		ReportType: constants.TypeGeneral,
		Status:     constants.StatusProcessing,
	})
	require.NoError(t, err)

	text := "Glucose: 105"
	typ := constants.TypeBloodTest
	updated, err := stores.Reports.Update(ctx, rep.ID, ReportPatch{
		OriginalText: &text,
		ReportType:   &typ,
	})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "Glucose: 105", updated.OriginalText)
	assert.Equal(t, constants.TypeBloodTest, updated.ReportType)

	// Untouched fields survive the patch.
	assert.Equal(t, "labs.pdf", updated.FileName)
	assert.Equal(t, constants.StatusProcessing, updated.Status)

	summary := "done"
	status := constants.StatusCompleted
	updated, err = stores.Reports.Update(ctx, rep.ID, ReportPatch{
		Summary:       &summary,
		Status:        &status,
		Analysis:      json.RawMessage(`{"risk_level":"low"}`),
		ExtractedData: json.RawMessage(`{}`),
	})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "Glucose: 105", updated.OriginalText, "earlier patch fields survive later patches")
	assert.Equal(t, constants.StatusCompleted, updated.Status)
}

func TestMemoryReportAbsentID(t *testing.T) {
	stores := NewMemoryStores()
	ctx := context.Background()

	got, err := stores.Reports.GetByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, got, "absence is not an error")

	status := constants.StatusFailed
	updated, err := stores.Reports.Update(ctx, uuid.New(), ReportPatch{Status: &status})
	require.NoError(t, err)
	assert.Nil(t, updated, "updating an absent report is a no-op")
}

func TestMemoryReportListByUserIsScopedAndOrdered(t *testing.T) {
	stores := NewMemoryStores()
	ctx := context.Background()
	me, other := uuid.New(), uuid.New()

	for i := 0; i < 3; i++ {
		_, err := stores.Reports.Create(ctx, &entity.Report{UserID: me, Status: constants.StatusProcessing})
		require.NoError(t, err)
		time.Sleep(time.Millisecond)
	}
	_, err := stores.Reports.Create(ctx, &entity.Report{UserID: other, Status: constants.StatusProcessing})
	require.NoError(t, err)

	mine, err := stores.Reports.ListByUser(ctx, me)
	require.NoError(t, err)
	require.Len(t, mine, 3)
	for i := 1; i < len(mine); i++ {
		assert.False(t, mine[i].CreatedAt.After(mine[i-1].CreatedAt), "newest first")
	}
}

func TestMemoryMedicationSetActive(t *testing.T) {
	stores := NewMemoryStores()
	ctx := context.Background()

	med, err := stores.Medications.Create(ctx, &entity.Medication{
		UserID:   uuid.New(),
		Name:     "Metformin",
		IsActive: true,
	})
	require.NoError(t, err)

	updated, err := stores.Medications.SetActive(ctx, med.ID, med.UserID, false)
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.False(t, updated.IsActive)

	missing, err := stores.Medications.SetActive(ctx, uuid.New(), med.UserID, true)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemoryMedicationSetActiveScopedToOwner(t *testing.T) {
	stores := NewMemoryStores()
	ctx := context.Background()
	owner := uuid.New()

	med, err := stores.Medications.Create(ctx, &entity.Medication{
		UserID:   owner,
		Name:     "Metformin",
		IsActive: true,
	})
	require.NoError(t, err)

	got, err := stores.Medications.SetActive(ctx, med.ID, uuid.New(), false)
	require.NoError(t, err)
	assert.Nil(t, got, "a mismatched user id is treated as absence")

	mine, err := stores.Medications.ListByUser(ctx, owner)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.True(t, mine[0].IsActive, "the owner's record must be untouched")
}

func TestMemoryShareLinkLifecycle(t *testing.T) {
	stores := NewMemoryStores()
	ctx := context.Background()
	now := time.Now().UTC()

	live, err := stores.ShareLinks.Create(ctx, &entity.ShareLink{
		Token:     "live-token",
		UserID:    uuid.New(),
		ExpiresAt: now.Add(time.Hour),
	})
	require.NoError(t, err)
	_, err = stores.ShareLinks.Create(ctx, &entity.ShareLink{
		Token:     "dead-token",
		UserID:    uuid.New(),
		ExpiresAt: now.Add(-time.Hour),
	})
	require.NoError(t, err)

	got, err := stores.ShareLinks.GetByToken(ctx, "live-token")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, live.UserID, got.UserID)

	n, err := stores.ShareLinks.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	gone, err := stores.ShareLinks.GetByToken(ctx, "dead-token")
	require.NoError(t, err)
	assert.Nil(t, gone)

	still, err := stores.ShareLinks.GetByToken(ctx, "live-token")
	require.NoError(t, err)
	assert.NotNil(t, still)
}
