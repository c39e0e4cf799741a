// SPDX-License-Identifier: GPL-3.0-or-later
package mail

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
)

// MailHeaderInfos returns the decoded subject and a hash identifying the mail
// across folders and uid changes.
func MailHeaderInfos(rawMail []byte) (string, string, error) {
	h, err := ParseHeaders(rawMail)
	if err != nil {
		return "", "", fmt.Errorf("could not parse mail: %w", err)
	}

	messageIdHeader := h.Values("Message-Id")
	receivedHeader := h.Values("Received")
	if len(receivedHeader) == 0 && len(messageIdHeader) == 0 {
		return "", "", fmt.Errorf("Received and Message-Id header header not found")
	}

	mailIdHash, err := hash([][]string{messageIdHeader, receivedHeader})
	if err != nil {
		return "", "", fmt.Errorf("could not hash headers: %w", err)
	}

	return h.Subject, mailIdHash, nil
}

// UnwrapSpamassassinReport returns the original mail embedded in a
// SpamAssassin report, or rawMail itself if it is not a report.
func UnwrapSpamassassinReport(rawMail []byte) ([]byte, error) {
	entity, err := message.Read(bytes.NewReader(rawMail))
	if err != nil && !message.IsUnknownCharset(err) {
		return nil, fmt.Errorf("could not parse mail: %w", err)
	}

	mediaType, _, err := entity.Header.ContentType()
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		return rawMail, nil
	}

	saHeaders := 0
	fields := entity.Header.Fields()
	for fields.Next() {
		if strings.Contains(fields.Key(), "X-Spam-") {
			saHeaders++
		}
	}

	if saHeaders < 2 {
		return rawMail, nil
	}

	mr := entity.MultipartReader()
	if mr == nil {
		return rawMail, nil
	}
	for {
		p, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return rawMail, nil
		}
		if err != nil {
			return nil, fmt.Errorf("unexpected error while unwrapping: %w", err)
		}

		if strings.Contains(p.Header.Get("Content-Type"), "x-spam-type=original") {
			unwrapped, err := io.ReadAll(p.Body)
			if err != nil {
				return nil, fmt.Errorf("unexpected error while reading wrapped body: %w", err)
			}

			return unwrapped, nil
		}
	}
}

func ShortSubject(subject string) string {
	if (len(subject)) > 30 {
		subject = subject[:30] + "..."
	}
	return subject
}

func hash(input [][]string) (string, error) {
	sha := sha256.New()
	for _, i := range input {
		for _, ii := range i {
			_, err := sha.Write([]byte(ii))
			if err != nil {
				return "", fmt.Errorf("could not hash: %w", err)
			}
		}
	}

	return fmt.Sprintf("%x", sha.Sum(nil)), nil
}
