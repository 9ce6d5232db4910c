package service

import (
	"math"
	"time"

	"parking/internal/domain"
)

const (
	// OvertimeMultiplier is applied to the hourly price past the booked end.
	OvertimeMultiplier = 1.5

	// CheckInLeadTime is how early before start a check-in is accepted.
	CheckInLeadTime = 15 * time.Minute

	// CancellationCutoff is the minimum notice required to cancel.
	CancellationCutoff = time.Hour
)

// CheckoutBill is the charge breakdown computed at check-out.
type CheckoutBill struct {
	FinalAmount    float64
	DurationHours  float64 // Actual parked time
	OriginalHours  float64 // Booked window
	OvertimeHours  float64
	OvertimeCharge float64
}

// BookingAmount prices a window at fractional hours, rounded to cents.
func BookingAmount(start, end time.Time, pricePerHour float64) float64 {
	return round2(end.Sub(start).Hours() * pricePerHour)
}

// ComputeCheckout bills a booking leaving at now. Parking time runs from
// the check-in instant, or from the booked start if check-in was skipped.
func ComputeCheckout(b *domain.Booking, pricePerHour float64, now time.Time) CheckoutBill {
	actualStart := b.StartTime
	if b.ActualStartTime.Valid {
		actualStart = b.ActualStartTime.Time
	}

	actualHours := now.Sub(actualStart).Hours()
	originalHours := b.EndTime.Sub(b.StartTime).Hours()

	var overtimeHours, overtimeCharge float64
	if actualHours > originalHours {
		overtimeHours = actualHours - originalHours
		overtimeCharge = overtimeHours * pricePerHour * OvertimeMultiplier
	}

	return CheckoutBill{
		FinalAmount:    round2(b.TotalAmount + overtimeCharge),
		DurationHours:  round2(actualHours),
		OriginalHours:  round2(originalHours),
		OvertimeHours:  round2(overtimeHours),
		OvertimeCharge: round2(overtimeCharge),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
