package core

import "encoding/json"

// Report payloads. Field names are the wire contract the dashboard charts
// depend on; each report type is its own struct so the shape is enforced by
// construction. All values are derived per request and never persisted.
type (
	// Summary backs the dashboard stat cards and is polled continuously.
	Summary struct {
		TotalPledges     int64   `json:"total_pledges"`
		TodayPledges     int64   `json:"today_pledges"`
		TodayChangePct   float64 `json:"today_change_pct"`
		ThisMonthPledges int64   `json:"this_month_pledges"`
		MonthChangePct   float64 `json:"month_change_pct"`
		ThisYearPledges  int64   `json:"this_year_pledges"`
		YearChangePct    float64 `json:"year_change_pct"`
		AvgPerDay        float64 `json:"avg_per_day"`
	}

	// Series is a positional labels/data pair; len(Labels) == len(Data) always,
	// zero-count buckets included.
	Series struct {
		Labels []string `json:"labels"`
		Data   []int64  `json:"data"`
	}

	// GrowthMetric is a period-over-period change. FromZero distinguishes
	// "grew from nothing" (previous period had no pledges) from "no change".
	GrowthMetric struct {
		Value     float64 `json:"value"`
		Count     int64   `json:"count"`
		PrevCount int64   `json:"prev_count"`
		FromZero  bool    `json:"from_zero"`
	}

	Comparative struct {
		MoM GrowthMetric `json:"mom"`
		YoY GrowthMetric `json:"yoy"`
	}

	// StateCount serializes as a [label, count] pair.
	StateCount struct {
		Label string
		Count int64
	}

	// CategoryCount is one labeled slice of a categorical breakdown.
	CategoryCount struct {
		Label string `json:"label"`
		Value int64  `json:"value"`
	}

	DistrictCount struct {
		District string `json:"district"`
		Count    int64  `json:"count"`
	}

	Demographics struct {
		Age    Series `json:"age"`
		Gender Series `json:"gender"`
	}
)

func (s StateCount) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{s.Label, s.Count})
}

func (s *StateCount) UnmarshalJSON(data []byte) error {
	var pair [2]json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if err := json.Unmarshal(pair[0], &s.Label); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &s.Count)
}
