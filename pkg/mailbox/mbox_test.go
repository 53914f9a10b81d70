package mailbox

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ArionMiles/spendsync/pkg/api"
)

const testMbox = `From noreply@zomato.com Mon Mar 10 12:00:00 2025
From: noreply@zomato.com
To: me@example.com
Subject: Zomato order receipt
Message-ID: <z1@zomato.com>
Date: Mon, 10 Mar 2025 12:00:00 +0530
Content-Type: text/html; charset=utf-8

<html>Total paid - ₹860.42</html>

From noreply@zomato.com Mon Jan 02 09:00:00 2023
From: noreply@zomato.com
To: me@example.com
Subject: Old Zomato order
Message-ID: <z0@zomato.com>
Date: Mon, 02 Jan 2023 09:00:00 +0530
Content-Type: text/html; charset=utf-8

<html>Total paid - ₹99</html>

From friend@example.com Tue Mar 11 09:00:00 2025
From: friend@example.com
To: me@example.com
Subject: lunch?
Message-ID: <f1@example.com>
Date: Tue, 11 Mar 2025 09:00:00 +0000
Content-Type: text/plain

want to grab lunch?
`

func writeTestMbox(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.mbox")
	if err := os.WriteFile(path, []byte(testMbox), 0o600); err != nil {
		t.Fatalf("writing mbox fixture: %v", err)
	}
	return path
}

func TestMboxSearchFiltersSenderAndDate(t *testing.T) {
	m := NewMbox(writeTestMbox(t), nil)
	ctx := context.Background()

	if err := m.Connect(ctx); err != nil {
		t.Fatalf("connecting: %v", err)
	}
	defer m.Close()

	ids, err := m.Search(ctx, api.Query{
		Sender: "noreply@zomato.com",
		Since:  api.EpochDate(),
	})
	if err != nil {
		t.Fatalf("searching: %v", err)
	}
	// The 2023 message is older than the watermark; the friend's mail is
	// from the wrong sender.
	if len(ids) != 1 {
		t.Fatalf("matches: got %d, want 1", len(ids))
	}

	raw, err := m.Fetch(ctx, ids[0])
	if err != nil {
		t.Fatalf("fetching: %v", err)
	}
	msg, err := Decode(raw)
	if err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if msg.ID != "z1@zomato.com" {
		t.Errorf("message id: got %q, want z1@zomato.com", msg.ID)
	}
	if !strings.Contains(msg.Body, "860.42") {
		t.Errorf("body: got %q", msg.Body)
	}
}

func TestMboxSearchSinceInclusive(t *testing.T) {
	m := NewMbox(writeTestMbox(t), nil)
	ctx := context.Background()

	if err := m.Connect(ctx); err != nil {
		t.Fatalf("connecting: %v", err)
	}
	defer m.Close()

	// Since equal to the message's own date must re-match it.
	ids, err := m.Search(ctx, api.Query{
		Sender: "noreply@zomato.com",
		Since:  time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("searching: %v", err)
	}
	if len(ids) != 1 {
		t.Errorf("matches: got %d, want 1", len(ids))
	}
}

func TestMboxEmptyFileYieldsNoMatches(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.mbox")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	m := NewMbox(path, nil)
	ctx := context.Background()
	// An empty mailbox is a valid mailbox, not a connection failure.
	if err := m.Connect(ctx); err != nil {
		t.Fatalf("connecting: %v", err)
	}
	defer m.Close()

	ids, err := m.Search(ctx, api.Query{
		Sender: "noreply@zomato.com",
		Since:  api.EpochDate(),
	})
	if err != nil {
		t.Fatalf("searching: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("matches: got %d, want 0", len(ids))
	}
}

func TestMboxSearchInclusiveAcrossTimezones(t *testing.T) {
	// 02:00 +0530 on 10 Mar is 20:30 UTC on 9 Mar; the calendar date is
	// what the watermark was derived from, so a 10 Mar watermark must
	// still re-match the message.
	const eastern = `From noreply@zomato.com Mon Mar 10 02:00:00 2025
From: noreply@zomato.com
To: me@example.com
Subject: Zomato late night order
Message-ID: <z2@zomato.com>
Date: Mon, 10 Mar 2025 02:00:00 +0530
Content-Type: text/html; charset=utf-8

<html>Total paid - ₹310</html>
`
	path := filepath.Join(t.TempDir(), "eastern.mbox")
	if err := os.WriteFile(path, []byte(eastern), 0o600); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	m := NewMbox(path, nil)
	ctx := context.Background()
	if err := m.Connect(ctx); err != nil {
		t.Fatalf("connecting: %v", err)
	}
	defer m.Close()

	ids, err := m.Search(ctx, api.Query{
		Sender: "noreply@zomato.com",
		Since:  time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("searching: %v", err)
	}
	if len(ids) != 1 {
		t.Errorf("matches: got %d, want 1", len(ids))
	}
}

func TestMboxMissingFileIsConnectionFailure(t *testing.T) {
	m := NewMbox(filepath.Join(t.TempDir(), "absent.mbox"), nil)
	if err := m.Connect(context.Background()); err == nil {
		t.Fatal("connecting to missing file: got nil error")
	}
}

func TestMboxFetchUnknownID(t *testing.T) {
	m := NewMbox(writeTestMbox(t), nil)
	ctx := context.Background()
	if err := m.Connect(ctx); err != nil {
		t.Fatalf("connecting: %v", err)
	}
	defer m.Close()

	if _, err := m.Fetch(ctx, "999"); err == nil {
		t.Fatal("fetching unknown id: got nil error")
	}
}
