package email

// Message is a rendered email ready for delivery.
type Message struct {
	To       []string
	ReplyTo  string
	Subject  string
	TextBody string
	HTMLBody string
	Headers  map[string]string
}
