// Package mailbox provides the mail-source backends (IMAP, Gmail API, local
// mbox) behind the api.Mailbox contract, plus RFC 822 decoding shared by the
// sync pipeline.
package mailbox

import (
	"bytes"
	"fmt"
	"io"

	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"

	"github.com/ArionMiles/spendsync/pkg/api"
)

// Decode parses a raw RFC 822 message into the decoded form the pipeline
// works with: subject, Message-ID, header date and a body. Multipart
// messages prefer the text/html part; otherwise the single body is taken.
// A missing or unparseable Date header leaves Date zero for the caller's
// fallback chain.
func Decode(raw []byte) (api.Message, error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return api.Message{}, fmt.Errorf("reading message: %w", err)
	}
	defer mr.Close()

	var msg api.Message

	// Header decode errors (bad encoded-words, unknown charsets) degrade to
	// whatever was recoverable rather than failing the message.
	msg.Subject, _ = mr.Header.Subject()
	msg.ID, _ = mr.Header.MessageID()
	if date, err := mr.Header.Date(); err == nil {
		msg.Date = date
	}
	if addrs, err := mr.Header.AddressList("From"); err == nil && len(addrs) > 0 {
		msg.From = addrs[0].Address
	}

	var htmlBody, plainBody string
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A broken part ends the walk; keep what decoded so far.
			break
		}

		h, ok := p.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		ct, _, err := h.ContentType()
		if err != nil {
			continue
		}

		switch ct {
		case "text/html":
			if htmlBody == "" {
				if b, err := io.ReadAll(p.Body); err == nil {
					htmlBody = string(b)
				}
			}
		case "text/plain":
			if plainBody == "" {
				if b, err := io.ReadAll(p.Body); err == nil {
					plainBody = string(b)
				}
			}
		}
	}

	msg.Body = htmlBody
	if msg.Body == "" {
		msg.Body = plainBody
	}

	return msg, nil
}
