package orchestrators

import (
	"context"
	"errors"
	"strings"
	"testing"

	emailAdapter "congregation/internal/adapters/email"
	"congregation/internal/domain/attendance"
)

// mockSender captures sent requests.
type mockSender struct {
	sent []emailAdapter.SendRequest
	err  error
}

func (m *mockSender) Send(_ context.Context, req emailAdapter.SendRequest) (emailAdapter.SendResult, error) {
	if m.err != nil {
		return emailAdapter.SendResult{}, m.err
	}
	m.sent = append(m.sent, req)
	return emailAdapter.SendResult{MessageID: "m-1"}, nil
}

func digestInput() AbsenceDigestInput {
	return AbsenceDigestInput{
		Date:         "2024-01-07",
		PresentCount: 12,
		Absent: []attendance.Record{
			{Name: "Ama <b>Owusu</b>", Phone: "555-1111", Fellowship: "Youth"},
			{Name: "Kofi | Mensah", Phone: "555-2222", Fellowship: "Men"},
		},
	}
}

func TestSendAbsenceDigest_SendsRenderedTable(t *testing.T) {
	sender := &mockSender{}
	err := ExecuteSendAbsenceDigest(context.Background(), digestInput(),
		AbsenceDigestDeps{Sender: sender, From: "desk@example.org", To: "admin@example.org"})
	if err != nil {
		t.Fatalf("ExecuteSendAbsenceDigest: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("sent = %d, want 1", len(sender.sent))
	}
	req := sender.sent[0]
	if req.Subject != "Attendance 2024-01-07: 12 present, 2 absent" {
		t.Errorf("Subject = %q", req.Subject)
	}
	if !strings.Contains(req.HTML, "<table>") || !strings.Contains(req.HTML, "555-2222") {
		t.Errorf("HTML missing table rows: %s", req.HTML)
	}
	if strings.Contains(req.HTML, "<b>Owusu</b>") {
		t.Error("raw HTML in names must be escaped")
	}
}

func TestSendAbsenceDigest_NoRecipientSkips(t *testing.T) {
	sender := &mockSender{}
	if err := ExecuteSendAbsenceDigest(context.Background(), digestInput(), AbsenceDigestDeps{Sender: sender}); err != nil {
		t.Fatalf("err = %v", err)
	}
	if len(sender.sent) != 0 {
		t.Error("nothing should be sent without a recipient")
	}
}

func TestSendAbsenceDigest_SenderErrorReturned(t *testing.T) {
	boom := errors.New("resend down")
	err := ExecuteSendAbsenceDigest(context.Background(), digestInput(),
		AbsenceDigestDeps{Sender: &mockSender{err: boom}, To: "admin@example.org"})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped sender error", err)
	}
}

func TestRenderAbsenceDigest_NobodyAbsent(t *testing.T) {
	html, err := RenderAbsenceDigest(AbsenceDigestInput{Date: "2024-01-07", PresentCount: 3})
	if err != nil {
		t.Fatalf("RenderAbsenceDigest: %v", err)
	}
	if strings.Contains(html, "<table>") || !strings.Contains(html, "Everyone") {
		t.Errorf("html = %s", html)
	}
}
