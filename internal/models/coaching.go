package models

// SourceRules marks coaching text built from local statistics.
const SourceRules = "rules"

// DailyNudge is the coaching message for one calendar day
type DailyNudge struct {
	Date        string `json:"date"` // YYYY-MM-DD
	Message     string `json:"message"`
	GeneratedAt int64  `json:"generated_at"` // epoch millis
	Source      string `json:"source"`
}

// WeeklyInsight summarises one week, keyed by its Monday
type WeeklyInsight struct {
	WeekOf             string  `json:"week_of"` // YYYY-MM-DD
	Summary            string  `json:"summary"`
	TopPerformingHabit *string `json:"top_performing_habit,omitempty"`
	MostAtRiskHabit    *string `json:"most_at_risk_habit,omitempty"`
	Recommendation     string  `json:"recommendation"`
	OverallScore       int     `json:"overall_score"` // 0-100
	GeneratedAt        int64   `json:"generated_at"`
	Source             string  `json:"source"`
}
