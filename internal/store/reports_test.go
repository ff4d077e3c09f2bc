package store

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriodStart(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		period   string
		expected time.Time
	}{
		{"7d", time.Date(2026, 3, 8, 12, 0, 0, 0, time.UTC)},
		{"30d", time.Date(2026, 2, 13, 12, 0, 0, 0, time.UTC)},
		{"90d", time.Date(2025, 12, 15, 12, 0, 0, 0, time.UTC)},
		{"1y", time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)},
		{"", time.Date(2026, 2, 13, 12, 0, 0, 0, time.UTC)},
		{"2w", time.Date(2026, 2, 13, 12, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, PeriodStart(tt.period, now), "period %q", tt.period)
	}
}

func TestSalesBucketKey(t *testing.T) {
	// Week buckets count calendar days of the month in blocks of seven,
	// so the 1st-7th are W1, the 8th-14th W2, and so on.
	tests := []struct {
		ts       time.Time
		groupBy  string
		expected string
	}{
		{time.Date(2026, 1, 5, 9, 30, 0, 0, time.UTC), "day", "2026-01-05"},
		{time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), "week", "2026-W1"},
		{time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC), "week", "2026-W1"},
		{time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC), "week", "2026-W2"},
		{time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC), "week", "2026-W5"},
		{time.Date(2026, 12, 31, 23, 59, 59, 0, time.UTC), "week", "2026-W5"},
		{time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), "month", "2026-01"},
		{time.Date(2026, 11, 30, 0, 0, 0, 0, time.UTC), "month", "2026-11"},
		// Unknown grouping falls back to day.
		{time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), "hour", "2026-01-05"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, SalesBucketKey(tt.ts, tt.groupBy), "%s by %s", tt.ts, tt.groupBy)
	}
}

func TestGroupSales_Empty(t *testing.T) {
	result := GroupSales(nil, "day")

	assert.Empty(t, result.ReportData)
	assert.True(t, result.Summary.TotalRevenue.Equal(decimal.Zero))
	assert.Equal(t, int64(0), result.Summary.TotalOrders)
	assert.True(t, result.Summary.AverageOrderValue.Equal(decimal.Zero))
}

func TestGroupSales_ByDay(t *testing.T) {
	day1 := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 2, 2, 8, 0, 0, 0, time.UTC)

	rows := []salesRow{
		{Total: decimal.NewFromInt(100), CreatedAt: day1},
		{Total: decimal.NewFromInt(250), CreatedAt: day1},
		{Total: decimal.NewFromInt(400), CreatedAt: day2},
	}

	result := GroupSales(rows, "day")

	require.Len(t, result.ReportData, 2)
	assert.Equal(t, "2026-02-01", result.ReportData[0].Date)
	assert.True(t, result.ReportData[0].Total.Equal(decimal.NewFromInt(350)))
	assert.Equal(t, int64(2), result.ReportData[0].Count)
	assert.Equal(t, "2026-02-02", result.ReportData[1].Date)
	assert.True(t, result.ReportData[1].Total.Equal(decimal.NewFromInt(400)))
	assert.Equal(t, int64(1), result.ReportData[1].Count)

	assert.True(t, result.Summary.TotalRevenue.Equal(decimal.NewFromInt(750)))
	assert.Equal(t, int64(3), result.Summary.TotalOrders)
	assert.True(t, result.Summary.AverageOrderValue.Equal(decimal.NewFromInt(250)))
}

// The summary must always equal the sums over the produced buckets.
func TestGroupSales_SummaryMatchesBuckets(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	var rows []salesRow
	for i := 0; i < 45; i++ {
		rows = append(rows, salesRow{
			Total:     decimal.NewFromInt(int64(10 + i*3)),
			CreatedAt: base.AddDate(0, 0, i),
		})
	}

	for _, groupBy := range []string{"day", "week", "month"} {
		result := GroupSales(rows, groupBy)

		bucketRevenue := decimal.Zero
		var bucketOrders int64
		for _, b := range result.ReportData {
			bucketRevenue = bucketRevenue.Add(b.Total)
			bucketOrders += b.Count
		}

		assert.True(t, result.Summary.TotalRevenue.Equal(bucketRevenue), "groupBy %s", groupBy)
		assert.Equal(t, result.Summary.TotalOrders, bucketOrders, "groupBy %s", groupBy)
	}
}

func TestGroupSales_BucketsKeepChronologicalOrder(t *testing.T) {
	rows := []salesRow{
		{Total: decimal.NewFromInt(1), CreatedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)},
		{Total: decimal.NewFromInt(1), CreatedAt: time.Date(2026, 1, 9, 0, 0, 0, 0, time.UTC)},
		{Total: decimal.NewFromInt(1), CreatedAt: time.Date(2026, 1, 16, 0, 0, 0, 0, time.UTC)},
	}

	result := GroupSales(rows, "week")

	require.Len(t, result.ReportData, 3)
	assert.Equal(t, "2026-W1", result.ReportData[0].Date)
	assert.Equal(t, "2026-W2", result.ReportData[1].Date)
	assert.Equal(t, "2026-W3", result.ReportData[2].Date)
}
