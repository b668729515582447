package billing

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// RawAttendanceRow is one row as delivered by an attendance source (manual
// entry, spreadsheet import or an extraction service). Field names vary.
type RawAttendanceRow map[string]any

// AttendanceRecord is the canonical attendance of one employee for a period.
type AttendanceRecord struct {
	Name        string          `json:"name"`
	PresentDays decimal.Decimal `json:"presentDays"`
	AbsentDays  decimal.Decimal `json:"absentDays"`
	TotalDays   decimal.Decimal `json:"totalDays"`
}

var (
	nameKeys    = []string{"name", "employee_name", "employeeName"}
	presentKeys = []string{"presentDays", "present_day", "present_days", "presentDay"}
	totalKeys   = []string{"totalDays", "total_day", "total_days", "totalDay"}
	absentKeys  = []string{"absentDays", "absent_day", "absent_days", "absentDay"}
)

// NormalizeAttendance converts raw rows into attendance records. Rows without
// a name or with no working days are dropped; dropped reports how many.
func NormalizeAttendance(rows []RawAttendanceRow) (records []AttendanceRecord, dropped int) {
	records = make([]AttendanceRecord, 0, len(rows))
	for _, row := range rows {
		rec, ok := normalizeRow(row)
		if !ok {
			dropped++
			continue
		}
		records = append(records, rec)
	}
	return records, dropped
}

func normalizeRow(row RawAttendanceRow) (AttendanceRecord, bool) {
	name := strings.TrimSpace(lookupString(row, nameKeys))
	present := nonNegative(lookupNumber(row, presentKeys))
	total := nonNegative(lookupNumber(row, totalKeys))

	if name == "" || !total.IsPositive() {
		return AttendanceRecord{}, false
	}

	absent, found := lookupNumberOK(row, absentKeys)
	if !found {
		absent = total.Sub(present)
	}

	return AttendanceRecord{
		Name:        name,
		PresentDays: present,
		AbsentDays:  nonNegative(absent),
		TotalDays:   total,
	}, true
}

func lookupString(row RawAttendanceRow, keys []string) string {
	for _, k := range keys {
		if v, ok := row[k]; ok && v != nil {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}
	return ""
}

func lookupNumber(row RawAttendanceRow, keys []string) decimal.Decimal {
	v, _ := lookupNumberOK(row, keys)
	return v
}

func lookupNumberOK(row RawAttendanceRow, keys []string) (decimal.Decimal, bool) {
	for _, k := range keys {
		raw, ok := row[k]
		if !ok || raw == nil {
			continue
		}
		if d, ok := toDecimal(raw); ok {
			return d, true
		}
	}
	return decimal.Zero, false
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, true
	case float64:
		return decimal.NewFromFloat(n), true
	case float32:
		return decimal.NewFromFloat32(n), true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		return d, err == nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(n))
		return d, err == nil
	default:
		return decimal.Zero, false
	}
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
