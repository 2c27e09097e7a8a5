package core

import "net/mail"

type (
	// EmailMessage is a simple text email. Templated/HTML content is a
	// frontend concern; the backend only ships plain-text notifications.
	EmailMessage struct {
		To      []mail.Address
		Subject string
		Body    string
	}

	EmailService interface {
		SendMessages(messages ...*EmailMessage)
	}
)

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 }

func (m *EmailMessage) HasContent() bool { return m.Body != "" }
