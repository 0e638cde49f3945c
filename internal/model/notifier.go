package model

// Notifier delivers operator notifications such as ban alerts.
type Notifier interface {
	// Send delivers a message whose body is HTML.
	Send(subject, htmlBody string) error
}
