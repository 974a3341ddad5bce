/*
csv.go - Payroll CSV rendition of a submitted week

PURPOSE:
  Serializes a week allocation into the fixed payroll grid:

    Timesheet for <name>
    <blank>
    Week,Day,Date,Clock In,Clock Out,Break (Hours),Site 1,Site 1 Hours,...
    Week 1
    <one row per calendar day Monday..Sunday>
    <blank x3>
    <one row per site with its week total, sorted by site name>
    <blank x2>
    ...,Grand Total,<total>

  Every calendar day in the week gets a row, not only days with entries;
  days with an open entry or no entries keep the row but render blank data
  cells. Hour figures are rounded to two decimals here, at presentation.

QUOTING:
  Job and site titles are free text, so any cell containing commas, quotes
  or newlines is quoted RFC4180-style with embedded quotes doubled.
*/
package export

import (
	"bytes"
	"strings"

	"github.com/fieldwork/timesheet-engine/timesheet"
)

// csvHeader is the fixed header row for the payroll grid.
var csvHeader = []string{
	"Week", "Day", "Date", "Clock In", "Clock Out", "Break (Hours)",
	"Site 1", "Site 1 Hours", "Site 2", "Site 2 Hours", "Site 3", "Site 3 Hours",
	"Daily Total Hours",
}

// maxSiteColumns caps how many site/hours pairs fit in a day row.
const maxSiteColumns = 3

// Filename returns the export filename for a user's week:
// Timesheet-<user>-<weekStart>_to_<weekEnd>.csv, spaces in the name
// replaced with underscores.
func Filename(user timesheet.User, alloc timesheet.WeekAllocation) string {
	name := strings.ReplaceAll(user.Name, " ", "_")
	return "Timesheet-" + name + "-" +
		alloc.Start.Format("2006-01-02") + "_to_" + alloc.End.Format("2006-01-02") + ".csv"
}

// BuildCSV renders the payroll grid as UTF-8 CSV bytes.
func BuildCSV(user timesheet.User, alloc timesheet.WeekAllocation) []byte {
	var buf bytes.Buffer

	writeRow(&buf, []string{"Timesheet for " + user.Name})
	writeRow(&buf, nil)
	writeRow(&buf, csvHeader)
	writeRow(&buf, []string{"Week 1"})

	// One row per calendar day, whether or not anything was worked.
	for d := alloc.Start; !d.After(alloc.End); d = d.AddDate(0, 0, 1) {
		dayAlloc, ok := alloc.DayFor(d)
		if !ok {
			writeRow(&buf, []string{
				"", d.Weekday().String(), d.Format("02/01/2006"),
				"", "", "", "", "", "", "", "", "", "",
			})
			continue
		}

		row := []string{
			"",
			d.Weekday().String(),
			d.Format("02/01/2006"),
			dayAlloc.ClockIn.Format("15:04"),
			dayAlloc.ClockOut.Format("15:04"),
			dayAlloc.BreakHours.StringFixed(2),
		}
		names := dayAlloc.SiteNames()
		for i := 0; i < maxSiteColumns; i++ {
			if i < len(names) {
				row = append(row, names[i], dayAlloc.SiteHours[names[i]].StringFixed(2))
			} else {
				row = append(row, "", "")
			}
		}
		row = append(row, dayAlloc.NetHours.StringFixed(2))
		writeRow(&buf, row)
	}

	// Separator, then week totals per site sorted by name.
	for i := 0; i < 3; i++ {
		writeRow(&buf, nil)
	}
	for _, name := range alloc.SiteNames() {
		row := make([]string, len(csvHeader))
		row[1] = name
		row[12] = alloc.SiteTotals[name].StringFixed(2)
		writeRow(&buf, row)
	}
	for i := 0; i < 2; i++ {
		writeRow(&buf, nil)
	}

	total := make([]string, len(csvHeader))
	total[11] = "Grand Total"
	total[12] = alloc.GrandTotal.StringFixed(2)
	writeRow(&buf, total)

	return buf.Bytes()
}

func writeRow(buf *bytes.Buffer, cells []string) {
	for i, cell := range cells {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(escapeCell(cell))
	}
	buf.WriteByte('\n')
}

// escapeCell applies RFC4180 quoting: cells containing commas, quotes or
// newlines are wrapped in quotes with embedded quotes doubled.
func escapeCell(cell string) string {
	if !strings.ContainsAny(cell, ",\"\n\r") {
		return cell
	}
	return `"` + strings.ReplaceAll(cell, `"`, `""`) + `"`
}
