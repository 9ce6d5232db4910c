package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gopkg.in/guregu/null.v4"

	"parking/internal/domain"
	"parking/internal/service"
)

func TestBookingAmount(t *testing.T) {
	t.Parallel()

	start := time.Date(2030, time.March, 1, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		duration time.Duration
		price    float64
		want     float64
	}{
		{"whole hours", 2 * time.Hour, 20, 40},
		{"fractional hours are not rounded up", 90 * time.Minute, 12.5, 18.75},
		{"rounded to cents", 20 * time.Minute, 10, 3.33},
		{"free lot", 3 * time.Hour, 0, 0},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, service.BookingAmount(start, start.Add(tc.duration), tc.price))
		})
	}
}

func TestComputeCheckout(t *testing.T) {
	t.Parallel()

	start := time.Date(2030, time.March, 1, 8, 0, 0, 0, time.UTC)
	booking := func(checkedIn null.Time) *domain.Booking {
		return &domain.Booking{
			StartTime:       start,
			EndTime:         start.Add(2 * time.Hour),
			TotalAmount:     40,
			ActualStartTime: checkedIn,
		}
	}

	tests := []struct {
		name         string
		booking      *domain.Booking
		now          time.Time
		wantFinal    float64
		wantDuration float64
		wantOvertime float64
	}{
		{
			name:         "late check-in with overtime",
			booking:      booking(null.TimeFrom(start.Add(time.Hour))),
			now:          start.Add(4 * time.Hour),
			wantFinal:    70,
			wantDuration: 3,
			wantOvertime: 1,
		},
		{
			name:         "skipped check-in bills from booked start",
			booking:      booking(null.Time{}),
			now:          start.Add(150 * time.Minute),
			wantFinal:    55,
			wantDuration: 2.5,
			wantOvertime: 0.5,
		},
		{
			name:         "leaving early is not refunded",
			booking:      booking(null.TimeFrom(start)),
			now:          start.Add(30 * time.Minute),
			wantFinal:    40,
			wantDuration: 0.5,
			wantOvertime: 0,
		},
		{
			name:         "exactly on time",
			booking:      booking(null.TimeFrom(start)),
			now:          start.Add(2 * time.Hour),
			wantFinal:    40,
			wantDuration: 2,
			wantOvertime: 0,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			bill := service.ComputeCheckout(tc.booking, 20, tc.now)
			assert.Equal(t, tc.wantFinal, bill.FinalAmount)
			assert.Equal(t, tc.wantDuration, bill.DurationHours)
			assert.Equal(t, tc.wantOvertime, bill.OvertimeHours)
			assert.Equal(t, 2.0, bill.OriginalHours)
			assert.InDelta(t, tc.wantOvertime*20*service.OvertimeMultiplier, bill.OvertimeCharge, 0.005)
		})
	}
}
