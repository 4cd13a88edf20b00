package factory

import (
	"encoding/json"
)

// =============================================================================
// PRESET POLICIES
// =============================================================================
//
// Each preset returns a JSON document for ParsePolicy. Amounts are whole won,
// rates are percentages. They back the demo scenarios and tests.

// FixedMonthlyJSON returns a flat monthly salary.
func FixedMonthlyJSON(id, name string, baseAmount int64) string {
	return render(map[string]interface{}{
		"id":          id,
		"name":        name,
		"type":        "fixed_monthly",
		"base_amount": baseAmount,
	})
}

// HourlyJSON returns an hourly policy.
func HourlyJSON(id, name string, hourlyRate int64) string {
	return render(map[string]interface{}{
		"id":          id,
		"name":        name,
		"type":        "fixed_hourly",
		"hourly_rate": hourlyRate,
	})
}

// CommissionJSON returns a flat commission on the given basis.
func CommissionJSON(id, name string, ratePercent float64, basis string) string {
	return render(map[string]interface{}{
		"id":               id,
		"name":             name,
		"type":             "commission",
		"commission_rate":  ratePercent,
		"commission_basis": basis,
	})
}

// TieredCommissionJSON returns a marginal tiered commission on revenue.
func TieredCommissionJSON(id, name string, tiers []TierJSON) string {
	return render(map[string]interface{}{
		"id":               id,
		"name":             name,
		"type":             "tiered_commission",
		"commission_basis": "revenue",
		"tiers":            tiers,
	})
}

// StudentBasedJSON returns a per-student policy. Zero min or max means no limit.
func StudentBasedJSON(id, name string, studentRate int64, minStudents, maxStudents int) string {
	pj := map[string]interface{}{
		"id":           id,
		"name":         name,
		"type":         "student_based",
		"student_rate": studentRate,
	}
	if minStudents > 0 {
		pj["min_students"] = minStudents
	}
	if maxStudents > 0 {
		pj["max_students"] = maxStudents
	}
	return render(pj)
}

// HybridJSON returns base salary plus commission on revenue.
func HybridJSON(id, name string, baseAmount int64, ratePercent float64) string {
	return render(map[string]interface{}{
		"id":               id,
		"name":             name,
		"type":             "hybrid",
		"base_amount":      baseAmount,
		"commission_rate":  ratePercent,
		"commission_basis": "revenue",
	})
}

// GuaranteedMinimumJSON returns a revenue commission with a guaranteed floor.
func GuaranteedMinimumJSON(id, name string, minimum int64, ratePercent float64) string {
	return render(map[string]interface{}{
		"id":                 id,
		"name":               name,
		"type":               "guaranteed_minimum",
		"minimum_guaranteed": minimum,
		"commission_rate":    ratePercent,
		"commission_basis":   "revenue",
	})
}

func render(pj map[string]interface{}) string {
	b, _ := json.MarshalIndent(pj, "", "  ")
	return string(b)
}
