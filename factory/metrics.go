package factory

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/educanvas/salary-engine/salary"
)

// MetricsJSON is the wire form of salary.PeriodMetrics. Absent fields are zero.
type MetricsJSON struct {
	Revenue      decimal.Decimal `json:"revenue"`
	Sessions     decimal.Decimal `json:"sessions"`
	Hours        decimal.Decimal `json:"hours"`
	Students     decimal.Decimal `json:"students"`
	SessionValue decimal.Decimal `json:"session_value"`
	CustomAmount decimal.Decimal `json:"custom_amount"`
}

func (mj MetricsJSON) Metrics() salary.PeriodMetrics {
	return salary.PeriodMetrics{
		Revenue:      mj.Revenue,
		Sessions:     mj.Sessions,
		Hours:        mj.Hours,
		Students:     mj.Students,
		SessionValue: mj.SessionValue,
		CustomAmount: mj.CustomAmount,
	}
}

func MetricsToJSON(m salary.PeriodMetrics) MetricsJSON {
	return MetricsJSON{
		Revenue:      m.Revenue,
		Sessions:     m.Sessions,
		Hours:        m.Hours,
		Students:     m.Students,
		SessionValue: m.SessionValue,
		CustomAmount: m.CustomAmount,
	}
}

// ParseMetrics decodes a metrics document. Negative figures are kept as
// given; the engine floors them.
func ParseMetrics(data []byte) (salary.PeriodMetrics, error) {
	var mj MetricsJSON
	if err := json.Unmarshal(data, &mj); err != nil {
		return salary.PeriodMetrics{}, fmt.Errorf("failed to parse metrics JSON: %w", err)
	}
	return mj.Metrics(), nil
}
