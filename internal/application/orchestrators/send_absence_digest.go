package orchestrators

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	emailAdapter "congregation/internal/adapters/email"
	"congregation/internal/domain/attendance"
)

// digestRenderer escapes raw HTML in names; WithUnsafe is not set.
var digestRenderer = goldmark.New(
	goldmark.WithExtensions(extension.Table),
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// AbsenceDigestInput summarises one auto-submit run.
type AbsenceDigestInput struct {
	Date         string
	PresentCount int
	Absent       []attendance.Record
}

// AbsenceDigestDeps holds dependencies for SendAbsenceDigest.
type AbsenceDigestDeps struct {
	Sender emailAdapter.Sender
	From   string
	To     string
}

// ExecuteSendAbsenceDigest emails the administrator the day's absentee list.
// A missing recipient skips the send.
// PRE: input.Date is YYYY-MM-DD
// POST: At most one email sent; failures are returned for logging, never retried
func ExecuteSendAbsenceDigest(ctx context.Context, input AbsenceDigestInput, deps AbsenceDigestDeps) error {
	if deps.To == "" || deps.Sender == nil {
		slog.Info("absence_digest_skipped", "date", input.Date, "reason", "no_recipient")
		return nil
	}

	html, err := RenderAbsenceDigest(input)
	if err != nil {
		return err
	}
	res, err := deps.Sender.Send(ctx, emailAdapter.SendRequest{
		To:      []string{deps.To},
		From:    deps.From,
		Subject: fmt.Sprintf("Attendance %s: %d present, %d absent", input.Date, input.PresentCount, len(input.Absent)),
		HTML:    html,
	})
	if err != nil {
		return fmt.Errorf("send absence digest: %w", err)
	}
	slog.Info("absence_digest_sent", "date", input.Date, "absent", len(input.Absent), "message_id", res.MessageID)
	return nil
}

// RenderAbsenceDigest builds the digest body as Markdown and converts it to HTML.
func RenderAbsenceDigest(input AbsenceDigestInput) (string, error) {
	var md strings.Builder
	fmt.Fprintf(&md, "# Attendance for %s\n\n", input.Date)
	fmt.Fprintf(&md, "- Present: **%d**\n- Absent: **%d**\n\n", input.PresentCount, len(input.Absent))
	if len(input.Absent) == 0 {
		md.WriteString("Everyone on today's list was marked present.\n")
	} else {
		md.WriteString("## Absent\n\n")
		md.WriteString("| Name | Phone | Fellowship |\n|---|---|---|\n")
		for _, r := range input.Absent {
			fmt.Fprintf(&md, "| %s | %s | %s |\n", tableCell(r.Name), tableCell(r.Phone), tableCell(r.Fellowship))
		}
	}

	var buf bytes.Buffer
	if err := digestRenderer.Convert([]byte(md.String()), &buf); err != nil {
		return "", fmt.Errorf("render absence digest: %w", err)
	}
	return buf.String(), nil
}

func tableCell(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.ReplaceAll(s, "|", `\|`)
}
