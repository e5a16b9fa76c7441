package scheduler

import (
	"context"
	"log/slog"

	"congregation/internal/application/drafts"
	"congregation/internal/application/orchestrators"
)

// AutoSubmitHour and AutoSubmitMinute place the nightly auto-submit at 23:59 local time.
const (
	AutoSubmitHour   = 23
	AutoSubmitMinute = 59
)

// AbsentSubmitter is the draft capability the auto-submit needs.
type AbsentSubmitter interface {
	SubmitAbsent(ctx context.Context) (drafts.SubmitResult, error)
}

// AutoSubmitDeps holds dependencies for the nightly auto-submit.
type AutoSubmitDeps struct {
	Drafts AbsentSubmitter
	Digest orchestrators.AbsenceDigestDeps
}

// AutoSubmitJob marks unconfirmed drafts absent, then emails the digest.
// When some rows failed to append, the digest lists the rows that landed and
// the submit error is still returned. A digest failure is logged only.
func AutoSubmitJob(deps AutoSubmitDeps) Job {
	return func(ctx context.Context) error {
		res, err := deps.Drafts.SubmitAbsent(ctx)
		if err != nil && res.Date == "" {
			return err
		}
		digest := orchestrators.AbsenceDigestInput{
			Date:         res.Date,
			PresentCount: res.PresentCount,
			Absent:       res.Submitted,
		}
		if sendErr := orchestrators.ExecuteSendAbsenceDigest(ctx, digest, deps.Digest); sendErr != nil {
			slog.Error("absence_digest_failed", "date", res.Date, "error", sendErr)
		}
		return err
	}
}

// NewAutoSubmit builds the 23:59 daily task.
func NewAutoSubmit(clock Clock, deps AutoSubmitDeps) *DailyTask {
	return NewDailyTask("auto_submit", AutoSubmitHour, AutoSubmitMinute, clock, AutoSubmitJob(deps))
}
