package export

import (
	"github.com/shopspring/decimal"

	"github.com/fieldwork/timesheet-engine/timesheet"
)

// =============================================================================
// WEBHOOK PAYLOAD - JSON body for the fire-and-forget submission
// =============================================================================

// WebhookPayload is the JSON body posted to a user's webhook endpoint.
type WebhookPayload struct {
	Employee   EmployeeRef        `json:"employee"`
	Week       WeekRef            `json:"week"`
	TotalHours float64            `json:"totalHours"`
	Daily      []DayBreakdown     `json:"dailyBreakdown"`
	SiteTotals map[string]float64 `json:"siteTotals"`
}

type EmployeeRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type WeekRef struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// DayBreakdown is one complete worked day in the payload.
type DayBreakdown struct {
	Date          string             `json:"date"`
	DayName       string             `json:"dayName"`
	ClockInTime   string             `json:"clockInTime"`
	ClockOutTime  string             `json:"clockOutTime"`
	BreakDuration float64            `json:"breakDuration"`
	TotalHours    float64            `json:"totalHours"`
	SiteHours     map[string]float64 `json:"siteHours"`
}

// BuildPayload assembles the webhook body from a week allocation.
// All hour figures are rounded to two decimals here, at presentation.
func BuildPayload(user timesheet.User, alloc timesheet.WeekAllocation) WebhookPayload {
	payload := WebhookPayload{
		Employee: EmployeeRef{ID: user.ID, Name: user.Name},
		Week: WeekRef{
			StartDate: alloc.Start.Format("2006-01-02"),
			EndDate:   alloc.End.Format("2006-01-02"),
		},
		TotalHours: round2(alloc.GrandTotal),
		SiteTotals: make(map[string]float64, len(alloc.SiteTotals)),
	}

	for _, day := range alloc.Days {
		breakdown := DayBreakdown{
			Date:          day.Date.Format("02/01/2006"),
			DayName:       day.Date.Weekday().String(),
			ClockInTime:   day.ClockIn.Format("15:04"),
			ClockOutTime:  day.ClockOut.Format("15:04"),
			BreakDuration: round2(day.BreakHours),
			TotalHours:    round2(day.NetHours),
			SiteHours:     make(map[string]float64, len(day.SiteHours)),
		}
		for name, hours := range day.SiteHours {
			breakdown.SiteHours[name] = round2(hours)
		}
		payload.Daily = append(payload.Daily, breakdown)
	}

	for name, hours := range alloc.SiteTotals {
		payload.SiteTotals[name] = round2(hours)
	}
	return payload
}

func round2(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}
