package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"fleetdesk-backend/internal/application/access"
	"fleetdesk-backend/internal/domain"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	"github.com/montanaflynn/stats"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DefaultWindowDays is the trailing window used when the service is built without one.
const DefaultWindowDays = 30

const dayLayout = "2006-01-02"

var ErrInvalidInteraction = errors.New("Unknown interaction type")

type Service struct {
	DB         *gorm.DB
	WindowDays int
	Now        func() time.Time
}

// DayBucket is one calendar day (UTC) of the window.
type DayBucket struct {
	Date      string `json:"date" csv:"date"`
	Views     int    `json:"views" csv:"views"`
	Inquiries int    `json:"inquiries" csv:"inquiries"`
}

// Summary is the rollup of one asset's interactions over the window.
type Summary struct {
	WindowDays     int         `json:"window_days"`
	TotalViews     int         `json:"total_views"`
	TotalInquiries int         `json:"total_inquiries"`
	ConversionRate float64     `json:"conversion_rate"`
	WeekChange     float64     `json:"week_change"`
	AvgDailyViews  float64     `json:"avg_daily_views"`
	PeakHour       *int        `json:"peak_hour"`
	Daily          []DayBucket `json:"daily"`
	Hourly         [24]int     `json:"hourly"`
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) window() int {
	if s.WindowDays > 0 {
		return s.WindowDays
	}
	return DefaultWindowDays
}

// windowStart is midnight UTC of the oldest day in the window.
func windowStart(now time.Time, days int) time.Time {
	today := now.UTC().Truncate(24 * time.Hour)
	return today.AddDate(0, 0, -(days - 1))
}

// Get loads the window's events for an asset the actor manages and summarizes them.
func (s *Service) Get(ctx context.Context, actor domain.Actor, assetID uuid.UUID) (*Summary, error) {
	if _, _, err := access.Asset(ctx, s.DB, actor, assetID); err != nil {
		return nil, err
	}
	now := s.now()
	days := s.window()
	var events []domain.Interaction
	if err := s.DB.WithContext(ctx).
		Where("service_id = ? AND created_at >= ?", assetID, windowStart(now, days)).
		Order("created_at ASC").
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("load interactions: %w", err)
	}
	summary := Summarize(events, now, days)
	return &summary, nil
}

// Summarize buckets events by UTC day and hour. Every day of the window is present in
// Daily, oldest first, even when it has no activity. Rates are percentages rounded to
// one decimal and are zero when their denominator is zero.
func Summarize(events []domain.Interaction, now time.Time, days int) Summary {
	if days <= 0 {
		days = DefaultWindowDays
	}
	start := windowStart(now, days)
	out := Summary{WindowDays: days, Daily: make([]DayBucket, days)}
	index := make(map[string]int, days)
	for i := 0; i < days; i++ {
		d := start.AddDate(0, 0, i).Format(dayLayout)
		out.Daily[i] = DayBucket{Date: d}
		index[d] = i
	}

	weekAgo := now.Add(-7 * 24 * time.Hour)
	twoWeeksAgo := now.Add(-14 * 24 * time.Hour)
	var thisWeek, lastWeek int
	for _, e := range events {
		at := e.CreatedAt.UTC()
		i, ok := index[at.Format(dayLayout)]
		if !ok {
			continue
		}
		out.Hourly[at.Hour()]++
		switch {
		case e.InteractionType == domain.InteractionUnitView:
			out.TotalViews++
			out.Daily[i].Views++
			if !at.Before(weekAgo) {
				thisWeek++
			} else if !at.Before(twoWeeksAgo) {
				lastWeek++
			}
		case domain.IsInquiry(e.InteractionType):
			out.TotalInquiries++
			out.Daily[i].Inquiries++
		}
	}

	if out.TotalViews > 0 {
		out.ConversionRate = percent(float64(out.TotalInquiries), float64(out.TotalViews))
	}
	if lastWeek > 0 {
		out.WeekChange = percent(float64(thisWeek-lastWeek), float64(lastWeek))
	}

	views := make(stats.Float64Data, len(out.Daily))
	for i, d := range out.Daily {
		views[i] = float64(d.Views)
	}
	if mean, err := stats.Mean(views); err == nil {
		out.AvgDailyViews, _ = stats.Round(mean, 1)
	}

	peak, best := -1, 0
	for h, n := range out.Hourly {
		if n > best {
			peak, best = h, n
		}
	}
	if peak >= 0 {
		out.PeakHour = &peak
	}
	return out
}

func percent(num, den float64) float64 {
	v, _ := stats.Round(num/den*100, 1)
	return v
}

// WriteDailyCSV writes the day series as date,views,inquiries rows with a header.
func WriteDailyCSV(w io.Writer, summary *Summary) error {
	rows := summary.Daily
	if rows == nil {
		rows = []DayBucket{}
	}
	return gocsv.Marshal(&rows, w)
}

// Record appends one interaction for a storefront visitor. No session is needed.
func (s *Service) Record(ctx context.Context, assetID uuid.UUID, interactionType string, metadata map[string]interface{}) (*domain.Interaction, error) {
	if !domain.ValidInteractionType(interactionType) {
		return nil, ErrInvalidInteraction
	}
	var asset domain.Asset
	if err := s.DB.WithContext(ctx).Select("id", "listing_id").Where("id = ?", assetID).First(&asset).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, access.ErrAssetNotFound
		}
		return nil, err
	}
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return nil, err
	}
	listingID := asset.ListingID
	event := &domain.Interaction{
		ServiceID:       asset.ID,
		ListingID:       &listingID,
		InteractionType: interactionType,
		Metadata:        datatypes.JSON(raw),
		CreatedAt:       s.now().UTC(),
	}
	if err := s.DB.WithContext(ctx).Create(event).Error; err != nil {
		return nil, fmt.Errorf("record interaction: %w", err)
	}
	return event, nil
}
