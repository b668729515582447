package billing

import "github.com/shopspring/decimal"

// WorkingDaysInMonth is the largest totalDays seen in the batch. Zero for an
// empty batch.
func WorkingDaysInMonth(records []AttendanceRecord) decimal.Decimal {
	max := decimal.Zero
	for _, r := range records {
		if r.TotalDays.GreaterThan(max) {
			max = r.TotalDays
		}
	}
	return max
}

// OvertimeThreshold returns the number of days billed at the regular rate.
// It is negative when workingDays is below the offset.
func OvertimeThreshold(workingDays decimal.Decimal) decimal.Decimal {
	return workingDays.Sub(decimal.NewFromInt(OvertimeOffsetDays))
}

// AllocateOvertime splits present days into regular and overtime days.
// regular + overtime always equals present.
func AllocateOvertime(present, workingDays decimal.Decimal) (regular, overtime decimal.Decimal) {
	threshold := OvertimeThreshold(workingDays)
	if present.GreaterThan(threshold) {
		if threshold.IsNegative() {
			// nothing is regular; every present day is overtime
			return decimal.Zero, present
		}
		return threshold, present.Sub(threshold)
	}
	return present, decimal.Zero
}
