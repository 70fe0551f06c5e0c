package habits

import (
	"time"

	"github.com/julianstephens/habitstore/internal/constants"
	"github.com/julianstephens/habitstore/internal/models"
)

// RiskAssessment is the same-weekday miss rate of one habit.
type RiskAssessment struct {
	Habit    models.Habit
	MissRate float64
	// Assessed is false when the habit is too new to judge.
	Assessed bool
	AtRisk   bool
}

// AssessRisk looks at the same weekday as now over the previous four weeks,
// ignoring days before the habit existed. A habit missed on at least half
// of those days is at risk.
func AssessRisk(h models.Habit, now time.Time) RiskAssessment {
	today := civilDay(now)
	created := createdDay(h, now.Location())
	days := parseDates(h.CompletedDates)

	window := 0
	missed := 0
	for weeks := 1; weeks <= constants.RiskWindowWeeks; weeks++ {
		day := today.AddDate(0, 0, -7*weeks)
		if day.Before(created) {
			continue
		}
		window++
		if _, ok := days[day]; !ok {
			missed++
		}
	}

	if window < constants.RiskMinDataPoints {
		return RiskAssessment{Habit: h}
	}

	rate := float64(missed) / float64(window)
	return RiskAssessment{
		Habit:    h,
		MissRate: rate,
		Assessed: true,
		AtRisk:   rate >= constants.RiskMissRateCutoff,
	}
}

// DetectAtRisk returns the assessments of the habits that are at risk,
// in the order given.
func DetectAtRisk(habits []models.Habit, now time.Time) []RiskAssessment {
	var atRisk []RiskAssessment
	for _, h := range habits {
		if a := AssessRisk(h, now); a.AtRisk {
			atRisk = append(atRisk, a)
		}
	}
	return atRisk
}
