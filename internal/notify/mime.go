package notify

import (
	"bytes"
	"fmt"

	gomail "github.com/wneessen/go-mail"
)

// buildMsg turns an EmailMessage into a multipart MIME message: text body,
// optional HTML alternative and any attachments.
func buildMsg(fromName, fromEmail string, msg EmailMessage) (*gomail.Msg, error) {
	m := gomail.NewMsg()
	if err := m.FromFormat(fromName, fromEmail); err != nil {
		return nil, fmt.Errorf("notify: invalid from address %q: %w", fromEmail, err)
	}
	if msg.ToName != "" {
		if err := m.AddToFormat(msg.ToName, msg.To); err != nil {
			return nil, fmt.Errorf("notify: invalid recipient %q: %w", msg.To, err)
		}
	} else if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("notify: invalid recipient %q: %w", msg.To, err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextPlain, msg.Body)
	if msg.HTML != "" {
		m.AddAlternativeString(gomail.TypeTextHTML, msg.HTML)
	}
	for _, a := range msg.Attachments {
		opts := []gomail.FileOption{}
		if a.ContentType != "" {
			opts = append(opts, gomail.WithFileContentType(gomail.ContentType(a.ContentType)))
		}
		if err := m.AttachReader(a.Filename, bytes.NewReader(a.Content), opts...); err != nil {
			return nil, fmt.Errorf("notify: attach %s: %w", a.Filename, err)
		}
	}
	return m, nil
}

// rawMIME renders the message as RFC 5322 bytes.
func rawMIME(fromName, fromEmail string, msg EmailMessage) ([]byte, error) {
	m, err := buildMsg(fromName, fromEmail, msg)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("notify: render mime: %w", err)
	}
	return buf.Bytes(), nil
}
