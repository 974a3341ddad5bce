/*
Package export serializes aggregated weeks into payroll exports and owns
the submission flow.

PURPOSE:
  Turns a WeeklyBucket into CSV bytes, an XLSX workbook, or a webhook
  payload, and finalizes submission by recording the week in the user's
  submission ledger. Submission is the one state mutation in the export
  path and it runs only after the export itself succeeded.

KNOWN LIMITATION:
  The webhook transport cannot confirm delivery (no readable response), so
  there is a small window where the payload was sent but the ledger write
  fails, or vice versa. The design accepts this and reports it: Result
  carries DeliveryConfirmed=false for the webhook path and callers must
  tell the user to verify the data downstream.

SEE ALSO:
  - csv.go:     the payroll grid layout
  - webhook.go: fire-and-forget delivery semantics
  - timesheet/allocation.go: where the numbers come from
*/
package export

import (
	"context"

	"github.com/fieldwork/timesheet-engine/timesheet"
)

// Method says how a week left the system.
type Method string

const (
	MethodCSV     Method = "csv"
	MethodWebhook Method = "webhook"
)

// Result is the outcome of a week submission.
type Result struct {
	WeekID string
	Method Method

	// CSV fields, set for MethodCSV.
	CSV      []byte
	Filename string

	// Webhook fields, set for MethodWebhook. DeliveryConfirmed stays false
	// for this transport; surface the caveat to the user.
	Payload           *WebhookPayload
	DeliveryConfirmed bool
}

// Exporter runs week submissions against the submission ledger.
type Exporter struct {
	Ledger  timesheet.SubmissionLedger
	Webhook *WebhookClient
}

// NewExporter creates an exporter over the given ledger.
func NewExporter(ledger timesheet.SubmissionLedger) *Exporter {
	return &Exporter{Ledger: ledger, Webhook: NewWebhookClient()}
}

// SubmitWeek exports the bucket for the user and archives the week.
//
// Rules:
//   - A week containing any open entry is rejected before any export or
//     mutation (ErrExportBlockedByOpenEntry with the blocking day).
//   - An already-archived week is rejected (archiving is monotonic).
//   - Users with a webhook endpoint submit there; everyone else gets CSV.
//   - The ledger write happens last, after the export succeeded.
func (x *Exporter) SubmitWeek(ctx context.Context, user timesheet.User, bucket timesheet.WeeklyBucket, cat timesheet.Catalog) (*Result, error) {
	for _, e := range bucket.Entries {
		if e.IsOpen() {
			return nil, &timesheet.OpenEntryError{
				UserID:  user.ID,
				EntryID: e.ID,
				Day:     e.Day(),
			}
		}
	}
	if user.HasSubmitted(bucket.WeekID) {
		return nil, timesheet.ErrWeekAlreadySubmitted
	}

	alloc := timesheet.AllocateWeek(bucket, cat)
	result := &Result{WeekID: bucket.WeekID}

	if user.WebhookURL != "" {
		payload := BuildPayload(user, alloc)
		receipt, err := x.Webhook.Submit(ctx, user.WebhookURL, payload)
		if err != nil {
			return nil, err
		}
		result.Method = MethodWebhook
		result.Payload = &payload
		result.DeliveryConfirmed = receipt.DeliveryConfirmed
	} else {
		result.Method = MethodCSV
		result.CSV = BuildCSV(user, alloc)
		result.Filename = Filename(user, alloc)
	}

	if err := x.Ledger.AddSubmittedWeek(ctx, user.ID, bucket.WeekID); err != nil {
		return nil, err
	}
	return result, nil
}

// ExportWeekCSV renders a week's CSV without touching the ledger. Used for
// re-downloading archived weeks.
func (x *Exporter) ExportWeekCSV(user timesheet.User, bucket timesheet.WeeklyBucket, cat timesheet.Catalog) ([]byte, string) {
	alloc := timesheet.AllocateWeek(bucket, cat)
	return BuildCSV(user, alloc), Filename(user, alloc)
}

// ExportWeekXLSX is ExportWeekCSV's spreadsheet twin: same grid, no ledger
// mutation.
func (x *Exporter) ExportWeekXLSX(user timesheet.User, bucket timesheet.WeeklyBucket, cat timesheet.Catalog) ([]byte, string, error) {
	alloc := timesheet.AllocateWeek(bucket, cat)
	data, err := BuildXLSX(user, alloc)
	if err != nil {
		return nil, "", err
	}
	return data, XLSXFilename(user, alloc), nil
}
