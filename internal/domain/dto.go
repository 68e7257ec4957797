package domain

import "time"

// DTOs (Data Transfer Objects) - Domain layer request/response structures

type (
	// InboundEvent struct - One message from the transport, already keyed
	InboundEvent struct {
		Key        IdentityKey
		MessageID  int
		Text       string
		Attachment *Attachment // Nil for plain text
		ReceivedAt time.Time
	}

	// Attachment struct - File carried by an inbound event
	Attachment struct {
		FileID   string // Transport handle used to download the content
		FileName string // Optional name hint from the sender
		Size     int64
	}

	// BroadcastReport struct - Outcome of a broadcast
	BroadcastReport struct {
		Sent   int
		Failed int
	}

	// ToolStatus struct - Availability of one external binary
	ToolStatus struct {
		Name        string
		Command     string
		Available   bool
		Path        string
		Description string
	}
)

// HasFile reports whether the event carries an attachment
func (e InboundEvent) HasFile() bool {
	return e.Attachment != nil
}

// Kind returns "file" or "text", used for log fields
func (e InboundEvent) Kind() string {
	if e.HasFile() {
		return "file"
	}
	return "text"
}
