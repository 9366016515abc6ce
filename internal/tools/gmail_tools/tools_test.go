package gmail_tools

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/teemow/gmailkit/internal/gmail"
)

func TestSplitEmailAddresses(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", nil},
		{"single", "a@example.com", []string{"a@example.com"}},
		{"multiple with spaces", "a@example.com, b@example.com ,c@example.com", []string{"a@example.com", "b@example.com", "c@example.com"}},
		{"dangling commas", ",a@example.com,,", []string{"a@example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitEmailAddresses(tt.in))
		})
	}
}

func TestFormatMessageList(t *testing.T) {
	t.Run("empty result", func(t *testing.T) {
		got := formatMessageList("in:inbox", &gmail.MessageList{})
		assert.Contains(t, got, "No messages found")
		assert.Contains(t, got, "in:inbox")
	})

	t.Run("with next page", func(t *testing.T) {
		got := formatMessageList("from:a@example.com", &gmail.MessageList{
			Messages: []gmail.MessageSummary{
				{ID: "m1", ThreadID: "t1"},
				{ID: "m2", ThreadID: "t2"},
			},
			NextPageToken: "page-2",
		})
		assert.Contains(t, got, "Found 2 message(s)")
		assert.Contains(t, got, "ID: m1 (thread t1)")
		assert.Contains(t, got, "Next page token: page-2")
	})
}

func TestFormatMessageRecord(t *testing.T) {
	rec := &gmail.MessageRecord{
		ID:       "m1",
		ThreadID: "t1",
		LabelIDs: []string{"INBOX"},
		Headers: map[string]string{
			"From":    "sender@example.com",
			"Subject": "hello",
		},
		Body: "the body",
		Attachments: []gmail.Attachment{
			{Filename: "report.pdf", MimeType: "application/pdf", Size: 1234},
		},
	}

	got := formatMessageRecord(rec)
	assert.Contains(t, got, "Message ID: m1")
	assert.Contains(t, got, "From: sender@example.com")
	assert.Contains(t, got, "Subject: hello")
	assert.Contains(t, got, "Labels: INBOX")
	assert.Contains(t, got, "the body")
	assert.Contains(t, got, "report.pdf (application/pdf, 1234 bytes)")
}

func TestFormatMessageRecordFallsBackToSnippet(t *testing.T) {
	got := formatMessageRecord(&gmail.MessageRecord{ID: "m1", Snippet: "short preview"})
	assert.Contains(t, got, "Snippet: short preview")
}
