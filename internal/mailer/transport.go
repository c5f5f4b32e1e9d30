package mailer

import "context"

// Message is one outbound email. HTML is optional; when empty the message is
// sent as plain text only.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Transport abstracts the outbound mail server. A send either fully succeeds
// or returns an error and is retried in full by the email queue — there is no
// partial-send notion, so duplicate emails on retry are an accepted tradeoff.
// Mocking this interface in tests gives full control over transport behaviour
// without a real SMTP connection.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}
