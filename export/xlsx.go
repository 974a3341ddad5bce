package export

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/fieldwork/timesheet-engine/timesheet"
)

// =============================================================================
// XLSX RENDITION - Same payroll grid as the CSV, as a spreadsheet
// =============================================================================

// XLSXFilename mirrors Filename with an .xlsx extension.
func XLSXFilename(user timesheet.User, alloc timesheet.WeekAllocation) string {
	return strings.TrimSuffix(Filename(user, alloc), ".csv") + ".xlsx"
}

// BuildXLSX renders the payroll grid as an XLSX workbook. Layout matches
// BuildCSV row for row so downstream consumers can switch formats without
// remapping columns.
func BuildXLSX(user timesheet.User, alloc timesheet.WeekAllocation) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	row := 1

	setRow := func(cells []interface{}) error {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return err
		}
		row++
		return nil
	}
	blank := func(n int) { row += n }

	if err := setRow([]interface{}{"Timesheet for " + user.Name}); err != nil {
		return nil, err
	}
	blank(1)

	header := make([]interface{}, len(csvHeader))
	for i, h := range csvHeader {
		header[i] = h
	}
	if err := setRow(header); err != nil {
		return nil, err
	}
	if err := setRow([]interface{}{"Week 1"}); err != nil {
		return nil, err
	}

	for d := alloc.Start; !d.After(alloc.End); d = d.AddDate(0, 0, 1) {
		cells := []interface{}{"", d.Weekday().String(), d.Format("02/01/2006")}
		if dayAlloc, ok := alloc.DayFor(d); ok {
			cells = append(cells,
				dayAlloc.ClockIn.Format("15:04"),
				dayAlloc.ClockOut.Format("15:04"),
				round2(dayAlloc.BreakHours),
			)
			names := dayAlloc.SiteNames()
			for i := 0; i < maxSiteColumns; i++ {
				if i < len(names) {
					cells = append(cells, names[i], round2(dayAlloc.SiteHours[names[i]]))
				} else {
					cells = append(cells, "", "")
				}
			}
			cells = append(cells, round2(dayAlloc.NetHours))
		}
		if err := setRow(cells); err != nil {
			return nil, err
		}
	}

	blank(3)
	for _, name := range alloc.SiteNames() {
		cells := make([]interface{}, len(csvHeader))
		cells[1] = name
		cells[12] = round2(alloc.SiteTotals[name])
		if err := setRow(cells); err != nil {
			return nil, err
		}
	}
	blank(2)

	total := make([]interface{}, len(csvHeader))
	total[11] = "Grand Total"
	total[12] = round2(alloc.GrandTotal)
	if err := setRow(total); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
