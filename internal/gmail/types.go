package gmail

import (
	"encoding/base64"
	"fmt"
	"mime"
	"strings"

	gmail "google.golang.org/api/gmail/v1"
)

// Format selects how much of a message the API returns.
type Format string

const (
	FormatMinimal  Format = "minimal"
	FormatFull     Format = "full"
	FormatRaw      Format = "raw"
	FormatMetadata Format = "metadata"
)

func (f Format) valid() bool {
	switch f {
	case FormatMinimal, FormatFull, FormatRaw, FormatMetadata:
		return true
	}
	return false
}

// ListOptions narrows a message listing.
type ListOptions struct {
	// MaxResults caps the number of returned messages (default 100).
	MaxResults int64

	// PageToken retrieves a specific result page.
	PageToken string

	// LabelIDs restricts results to messages carrying all these labels.
	LabelIDs []string

	// IncludeSpamTrash includes messages from SPAM and TRASH.
	IncludeSpamTrash bool
}

// MessageSummary identifies one message in a listing.
type MessageSummary struct {
	ID       string
	ThreadID string
}

// MessageList is one page of a message listing.
type MessageList struct {
	Messages           []MessageSummary
	NextPageToken      string
	ResultSizeEstimate int64
}

// Attachment describes an attachment without its content.
type Attachment struct {
	ID       string
	Filename string
	MimeType string
	Size     int64
}

// MessageRecord is the typed form of a Gmail message. Every field the
// caller can reach is populated and validated here, instead of being
// looked up ad hoc in the API's nested part tree.
type MessageRecord struct {
	ID           string
	ThreadID     string
	Snippet      string
	LabelIDs     []string
	SizeEstimate int64

	// Headers maps header names to their first occurrence.
	Headers map[string]string

	// Body is the decoded text body; BodyMimeType says whether it came
	// from a text/plain or text/html part. Both are empty when the
	// requested format carries no payload.
	Body         string
	BodyMimeType string

	Attachments []Attachment
}

// Header returns the named header value, matching case-insensitively
// like mail headers do.
func (r *MessageRecord) Header(name string) string {
	for k, v := range r.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// newMessageRecord validates and converts an API message.
func newMessageRecord(msg *gmail.Message) (*MessageRecord, error) {
	if msg == nil || msg.Id == "" {
		return nil, fmt.Errorf("message record is missing an id")
	}

	rec := &MessageRecord{
		ID:           msg.Id,
		ThreadID:     msg.ThreadId,
		Snippet:      msg.Snippet,
		LabelIDs:     msg.LabelIds,
		SizeEstimate: msg.SizeEstimate,
		Headers:      map[string]string{},
	}

	if msg.Payload == nil {
		return rec, nil
	}

	rec.Headers = headerMap(msg.Payload.Headers)

	body, mimeType, err := extractBody(msg.Payload)
	if err != nil {
		return nil, fmt.Errorf("message %s: %w", msg.Id, err)
	}
	rec.Body = body
	rec.BodyMimeType = mimeType

	walkParts(msg.Payload, func(part *gmail.MessagePart) {
		if part.Filename != "" && part.Body != nil && part.Body.AttachmentId != "" {
			rec.Attachments = append(rec.Attachments, Attachment{
				ID:       part.Body.AttachmentId,
				Filename: part.Filename,
				MimeType: part.MimeType,
				Size:     part.Body.Size,
			})
		}
	})

	return rec, nil
}

// headerMap flattens the header list; the first occurrence of a name
// wins, matching how mail readers treat duplicate headers.
func headerMap(headers []*gmail.MessagePartHeader) map[string]string {
	m := make(map[string]string, len(headers))
	for _, h := range headers {
		if h == nil || h.Name == "" {
			continue
		}
		if _, ok := m[h.Name]; !ok {
			m[h.Name] = h.Value
		}
	}
	return m
}

// extractBody finds the message body, preferring text/plain over
// text/html, and decodes it.
func extractBody(payload *gmail.MessagePart) (body, mimeType string, err error) {
	for _, target := range []string{"text/plain", "text/html"} {
		var data string
		if payload.MimeType == target && payload.Body != nil && payload.Body.Data != "" {
			data = payload.Body.Data
		} else {
			walkParts(payload, func(part *gmail.MessagePart) {
				if data == "" && part.MimeType == target && part.Body != nil && part.Body.Data != "" {
					data = part.Body.Data
				}
			})
		}
		if data == "" {
			continue
		}
		decoded, err := decodeBase64(data)
		if err != nil {
			return "", "", fmt.Errorf("failed to decode %s body: %w", target, err)
		}
		return string(decoded), target, nil
	}
	return "", "", nil
}

// walkParts recursively visits the message part tree.
func walkParts(part *gmail.MessagePart, fn func(*gmail.MessagePart)) {
	if part == nil {
		return
	}
	fn(part)
	for _, subpart := range part.Parts {
		walkParts(subpart, fn)
	}
}

// decodeBase64 decodes Gmail body data, which is base64url per the API
// docs but occasionally arrives in standard base64.
func decodeBase64(s string) ([]byte, error) {
	data, err := base64.URLEncoding.DecodeString(s)
	if err == nil {
		return data, nil
	}
	if data, stdErr := base64.StdEncoding.DecodeString(s); stdErr == nil {
		return data, nil
	}
	return nil, err
}

// OutgoingMessage is an email to be sent.
type OutgoingMessage struct {
	To      []string
	Cc      []string
	Bcc     []string
	Subject string
	Body    string
	HTML    bool
}

// SendReceipt reports a successfully sent message.
type SendReceipt struct {
	ID       string
	ThreadID string
	LabelIDs []string
}

func (m *OutgoingMessage) validate() error {
	if len(m.To) == 0 {
		return fmt.Errorf("at least one recipient is required")
	}
	if m.Subject == "" {
		return fmt.Errorf("subject is required")
	}
	if m.Body == "" {
		return fmt.Errorf("body is required")
	}
	return nil
}

// encode builds the RFC 2822 message and returns it base64url-encoded
// for the API's raw field.
func (m *OutgoingMessage) encode() string {
	var b strings.Builder

	b.WriteString("To: ")
	b.WriteString(strings.Join(m.To, ", "))
	b.WriteString("\r\n")

	if len(m.Cc) > 0 {
		b.WriteString("Cc: ")
		b.WriteString(strings.Join(m.Cc, ", "))
		b.WriteString("\r\n")
	}
	if len(m.Bcc) > 0 {
		b.WriteString("Bcc: ")
		b.WriteString(strings.Join(m.Bcc, ", "))
		b.WriteString("\r\n")
	}

	b.WriteString("Subject: ")
	b.WriteString(encodeRFC2047(m.Subject))
	b.WriteString("\r\n")

	if m.HTML {
		b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	} else {
		b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	}
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("\r\n")
	b.WriteString(m.Body)

	return base64.URLEncoding.EncodeToString([]byte(b.String()))
}

// encodeRFC2047 encodes a header value for non-ASCII characters (like
// umlauts) per RFC 2047; plain ASCII passes through untouched.
func encodeRFC2047(s string) string {
	for _, r := range s {
		if r > 127 {
			return mime.BEncoding.Encode("UTF-8", s)
		}
	}
	return s
}
