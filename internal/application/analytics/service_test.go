package analytics

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"fleetdesk-backend/internal/application/access"
	"fleetdesk-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var now = time.Date(2026, 5, 20, 15, 30, 0, 0, time.UTC)

func event(kind string, ago time.Duration) domain.Interaction {
	return domain.Interaction{InteractionType: kind, CreatedAt: now.Add(-ago)}
}

func repeat(n int, e domain.Interaction) []domain.Interaction {
	out := make([]domain.Interaction, n)
	for i := range out {
		out[i] = e
	}
	return out
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil, now, 30)
	assert.Equal(t, 0.0, s.ConversionRate)
	assert.Equal(t, 0.0, s.WeekChange)
	assert.Equal(t, 0.0, s.AvgDailyViews)
	assert.Nil(t, s.PeakHour)
	require.Len(t, s.Daily, 30)
	assert.Equal(t, "2026-04-21", s.Daily[0].Date)
	assert.Equal(t, "2026-05-20", s.Daily[29].Date)
	for _, d := range s.Daily {
		assert.Zero(t, d.Views)
		assert.Zero(t, d.Inquiries)
	}
}

func TestSummarize_ConversionRate(t *testing.T) {
	var events []domain.Interaction
	events = append(events, repeat(10, event(domain.InteractionUnitView, time.Hour))...)
	events = append(events, event(domain.InteractionUnitInquiry, time.Hour))
	events = append(events, event(domain.InteractionFormSubmit, time.Hour))

	s := Summarize(events, now, 30)
	assert.Equal(t, 10, s.TotalViews)
	assert.Equal(t, 2, s.TotalInquiries)
	assert.Equal(t, 20.0, s.ConversionRate)
	assert.Equal(t, 10, s.Daily[29].Views)
	assert.Equal(t, 2, s.Daily[29].Inquiries)
	require.NotNil(t, s.PeakHour)
	assert.Equal(t, 14, *s.PeakHour)
	assert.Equal(t, 12, s.Hourly[14])
}

func TestSummarize_WeekChange(t *testing.T) {
	var events []domain.Interaction
	events = append(events, repeat(6, event(domain.InteractionUnitView, 2*24*time.Hour))...)
	events = append(events, repeat(4, event(domain.InteractionUnitView, 9*24*time.Hour))...)
	// inquiries never count toward the view trend
	events = append(events, repeat(5, event(domain.InteractionUnitInquiry, 9*24*time.Hour))...)

	s := Summarize(events, now, 30)
	assert.Equal(t, 50.0, s.WeekChange)

	s = Summarize(repeat(3, event(domain.InteractionUnitView, time.Hour)), now, 30)
	assert.Equal(t, 0.0, s.WeekChange, "no views last week")

	s = Summarize(repeat(3, event(domain.InteractionUnitView, 10*24*time.Hour)), now, 30)
	assert.Equal(t, -100.0, s.WeekChange)
}

func TestSummarize_WindowAndAverages(t *testing.T) {
	events := []domain.Interaction{
		event(domain.InteractionUnitView, 40*24*time.Hour), // outside the window
		event(domain.InteractionUnitView, 29*24*time.Hour),
		event(domain.InteractionUnitView, 0),
		event("unknown", 0),
	}
	s := Summarize(events, now, 30)
	assert.Equal(t, 2, s.TotalViews)
	assert.Equal(t, 1, s.Daily[0].Views)
	assert.Equal(t, 1, s.Daily[29].Views)
	assert.Equal(t, 0.1, s.AvgDailyViews)

	hourly := 0
	for _, n := range s.Hourly {
		hourly += n
	}
	assert.Equal(t, 3, hourly, "hourly counts every type inside the window")
}

func TestWriteDailyCSV(t *testing.T) {
	s := Summarize([]domain.Interaction{event(domain.InteractionUnitView, 0)}, now, 3)
	var buf bytes.Buffer
	require.NoError(t, WriteDailyCSV(&buf, &s))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "date,views,inquiries", lines[0])
	assert.Equal(t, "2026-05-18,0,0", lines[1])
	assert.Equal(t, "2026-05-20,1,0", lines[3])
}

func setupAnalytics(t *testing.T) (*Service, domain.Actor, uuid.UUID) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&domain.Listing{}, &domain.Asset{}, &domain.Photo{}, &domain.Interaction{}))

	host := domain.Actor{UserID: uuid.New(), Role: "host"}
	listing := &domain.Listing{OwnerID: host.UserID, BusinessName: "Big Iron", Category: "equipment"}
	require.NoError(t, db.Create(listing).Error)
	asset := &domain.Asset{ListingID: listing.ListingID, Name: "Mini ex", AssetClass: domain.ClassEquipment}
	require.NoError(t, db.Create(asset).Error)

	clock := now
	svc := &Service{DB: db, WindowDays: 30, Now: func() time.Time { return clock }}
	return svc, host, asset.ID
}

func TestRecordAndGet(t *testing.T) {
	svc, host, assetID := setupAnalytics(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := svc.Record(ctx, assetID, domain.InteractionUnitView, map[string]interface{}{"source": "directory"})
		require.NoError(t, err)
	}
	ev, err := svc.Record(ctx, assetID, domain.InteractionFormSubmit, nil)
	require.NoError(t, err)
	require.NotNil(t, ev.ListingID)

	_, err = svc.Record(ctx, assetID, "click", nil)
	assert.ErrorIs(t, err, ErrInvalidInteraction)
	_, err = svc.Record(ctx, uuid.New(), domain.InteractionUnitView, nil)
	assert.ErrorIs(t, err, access.ErrAssetNotFound)

	s, err := svc.Get(ctx, host, assetID)
	require.NoError(t, err)
	assert.Equal(t, 4, s.TotalViews)
	assert.Equal(t, 1, s.TotalInquiries)
	assert.Equal(t, 25.0, s.ConversionRate)
	assert.Len(t, s.Daily, 30)

	stranger := domain.Actor{UserID: uuid.New(), Role: "host"}
	_, err = svc.Get(ctx, stranger, assetID)
	assert.ErrorIs(t, err, access.ErrForbidden)
}
