package mailbox

import (
	"strings"
	"testing"
	"time"
)

func rawSimple(from, subject, msgID, date, contentType, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: me@example.com\r\n")
	if subject != "" {
		b.WriteString("Subject: " + subject + "\r\n")
	}
	if msgID != "" {
		b.WriteString("Message-ID: <" + msgID + ">\r\n")
	}
	if date != "" {
		b.WriteString("Date: " + date + "\r\n")
	}
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: " + contentType + "\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

func TestDecodeSimpleMessage(t *testing.T) {
	raw := rawSimple(
		"noreply@zomato.com",
		"Your Zomato order",
		"abc123@zomato.com",
		"Mon, 10 Mar 2025 12:00:00 +0530",
		"text/html; charset=utf-8",
		"<html><body>Total paid - ₹860.42</body></html>",
	)

	msg, err := Decode(raw)
	if err != nil {
		t.Fatalf("decoding: %v", err)
	}

	if msg.Subject != "Your Zomato order" {
		t.Errorf("subject: got %q", msg.Subject)
	}
	if msg.ID != "abc123@zomato.com" {
		t.Errorf("message id: got %q", msg.ID)
	}
	if msg.From != "noreply@zomato.com" {
		t.Errorf("from: got %q", msg.From)
	}
	want := time.Date(2025, 3, 10, 12, 0, 0, 0, time.FixedZone("", 5*3600+1800))
	if !msg.Date.Equal(want) {
		t.Errorf("date: got %v, want %v", msg.Date, want)
	}
	if !strings.Contains(msg.Body, "Total paid - ₹860.42") {
		t.Errorf("body: got %q", msg.Body)
	}
}

func TestDecodeMultipartPrefersHTML(t *testing.T) {
	raw := []byte(strings.Join([]string{
		"From: noreply@swiggy.in",
		"Subject: Order delivered",
		"Message-ID: <m1@swiggy.in>",
		"Date: Sun, 14 Dec 2025 20:15:00 +0530",
		"MIME-Version: 1.0",
		`Content-Type: multipart/alternative; boundary="frontier"`,
		"",
		"--frontier",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"Order Total: 590 (plain)",
		"--frontier",
		"Content-Type: text/html; charset=utf-8",
		"",
		"<p>Order Total: ₹590</p>",
		"--frontier--",
		"",
	}, "\r\n"))

	msg, err := Decode(raw)
	if err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if !strings.Contains(msg.Body, "<p>Order Total: ₹590</p>") {
		t.Errorf("body: got %q, want html part", msg.Body)
	}
}

func TestDecodeMissingHeadersDegrade(t *testing.T) {
	raw := rawSimple("noreply@uber.com", "", "", "", "text/plain", "Total: ₹100")

	msg, err := Decode(raw)
	if err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if msg.ID != "" {
		t.Errorf("message id: got %q, want empty", msg.ID)
	}
	if !msg.Date.IsZero() {
		t.Errorf("date: got %v, want zero", msg.Date)
	}
	if msg.Body != "Total: ₹100" {
		t.Errorf("body: got %q", msg.Body)
	}
}
