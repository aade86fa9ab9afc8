// Package eligibility holds the pure donor-eligibility rules: the 90-day
// wait period between donations and the ABO/Rh compatibility table.
package eligibility

import (
	"math"
	"time"
)

// MinIntervalDays is the mandatory wait between two donations.
const MinIntervalDays = 90

// Result is the outcome of an eligibility check at a given instant.
type Result struct {
	Eligible         bool      `json:"eligible"`
	DaysRemaining    int       `json:"daysRemaining"`
	NextEligibleDate time.Time `json:"nextEligibleDate"`
}

// Evaluate computes eligibility from the last recorded donation. A nil or
// zero lastDonation means no prior donation on record, which is eligible
// immediately. Deterministic, no side effects.
func Evaluate(lastDonation *time.Time, now time.Time) Result {
	if lastDonation == nil || lastDonation.IsZero() {
		return Result{Eligible: true, DaysRemaining: 0, NextEligibleDate: now}
	}

	elapsedDays := int(math.Ceil(now.Sub(*lastDonation).Hours() / 24))
	if elapsedDays >= MinIntervalDays {
		return Result{Eligible: true, DaysRemaining: 0, NextEligibleDate: now}
	}

	return Result{
		Eligible:         false,
		DaysRemaining:    MinIntervalDays - elapsedDays,
		NextEligibleDate: lastDonation.AddDate(0, 0, MinIntervalDays),
	}
}
