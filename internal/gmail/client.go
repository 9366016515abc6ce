package gmail

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/oauth2"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/teemow/gmailkit/internal/instrumentation"
	"github.com/teemow/gmailkit/internal/logging"
)

const defaultMaxResults = 100

// Client wraps the Gmail Users service for a single account.
type Client struct {
	svc     *gmail.UsersService
	userID  string
	logger  *slog.Logger
	metrics *instrumentation.Metrics
}

// NewClient creates a Gmail client that authenticates every request
// through the given token source.
func NewClient(ctx context.Context, ts oauth2.TokenSource) (*Client, error) {
	svc, err := gmail.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	return &Client{
		svc:    svc.Users,
		userID: "me",
		logger: slog.Default(),
	}, nil
}

// SetLogger sets the logger for this client.
func (c *Client) SetLogger(logger *slog.Logger) {
	if logger != nil {
		c.logger = logger
	}
}

// SetMetrics sets the metrics recorder for this client.
func (c *Client) SetMetrics(metrics *instrumentation.Metrics) {
	c.metrics = metrics
}

// SendMessage sends an email and returns the receipt for the created
// message. The message is validated before any network traffic.
func (c *Client) SendMessage(ctx context.Context, msg *OutgoingMessage) (*SendReceipt, error) {
	if msg == nil {
		return nil, fmt.Errorf("message must not be nil")
	}
	if err := msg.validate(); err != nil {
		return nil, fmt.Errorf("invalid outgoing message: %w", err)
	}

	start := time.Now()
	sent, err := c.svc.Messages.Send(c.userID, &gmail.Message{Raw: msg.encode()}).Context(ctx).Do()
	c.record(ctx, "send_message", start, err)
	if err != nil {
		c.logger.Error("failed to send message", logging.Operation("send_message"), logging.Err(err))
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	c.logger.Info("message sent",
		logging.Operation("send_message"),
		slog.String("message_id", sent.Id),
		slog.String("thread_id", sent.ThreadId),
	)

	return &SendReceipt{
		ID:       sent.Id,
		ThreadID: sent.ThreadId,
		LabelIDs: sent.LabelIds,
	}, nil
}

// ListMessages lists messages matching the Gmail search query, one
// page at a time.
func (c *Client) ListMessages(ctx context.Context, query string, opts ListOptions) (*MessageList, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	req := c.svc.Messages.List(c.userID).MaxResults(maxResults).Context(ctx)
	if query != "" {
		req = req.Q(query)
	}
	if opts.PageToken != "" {
		req = req.PageToken(opts.PageToken)
	}
	if len(opts.LabelIDs) > 0 {
		req = req.LabelIds(opts.LabelIDs...)
	}
	if opts.IncludeSpamTrash {
		req = req.IncludeSpamTrash(true)
	}

	start := time.Now()
	res, err := req.Do()
	c.record(ctx, "list_messages", start, err)
	if err != nil {
		c.logger.Error("failed to list messages", logging.Operation("list_messages"), logging.Err(err))
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	list := &MessageList{
		Messages:           make([]MessageSummary, 0, len(res.Messages)),
		NextPageToken:      res.NextPageToken,
		ResultSizeEstimate: res.ResultSizeEstimate,
	}
	for _, m := range res.Messages {
		list.Messages = append(list.Messages, MessageSummary{ID: m.Id, ThreadID: m.ThreadId})
	}
	return list, nil
}

// GetMessage retrieves one message and converts it into a validated
// record.
func (c *Client) GetMessage(ctx context.Context, id string, format Format) (*MessageRecord, error) {
	if id == "" {
		return nil, fmt.Errorf("message id must not be empty")
	}
	if format == "" {
		format = FormatFull
	}
	if !format.valid() {
		return nil, fmt.Errorf("unknown message format %q", format)
	}

	start := time.Now()
	msg, err := c.svc.Messages.Get(c.userID, id).Format(string(format)).Context(ctx).Do()
	c.record(ctx, "get_message", start, err)
	if err != nil {
		c.logger.Error("failed to get message",
			logging.Operation("get_message"),
			slog.String("message_id", id),
			logging.Err(err),
		)
		return nil, fmt.Errorf("failed to get message %s: %w", id, err)
	}

	return newMessageRecord(msg)
}

// GetSignature returns the configured signature for a send-as address.
// With an empty address the primary send-as alias is used.
func (c *Client) GetSignature(ctx context.Context, address string) (string, error) {
	start := time.Now()
	res, err := c.svc.Settings.SendAs.List(c.userID).Context(ctx).Do()
	c.record(ctx, "get_signature", start, err)
	if err != nil {
		c.logger.Error("failed to list send-as aliases", logging.Operation("get_signature"), logging.Err(err))
		return "", fmt.Errorf("failed to list send-as aliases: %w", err)
	}

	alias, err := pickSendAs(res.SendAs, address)
	if err != nil {
		return "", err
	}
	return alias.Signature, nil
}

// pickSendAs selects the alias for the given address, or the primary
// alias when address is empty.
func pickSendAs(aliases []*gmail.SendAs, address string) (*gmail.SendAs, error) {
	if address == "" {
		for _, a := range aliases {
			if a != nil && a.IsPrimary {
				return a, nil
			}
		}
		return nil, fmt.Errorf("no primary send-as alias configured")
	}
	for _, a := range aliases {
		if a != nil && a.SendAsEmail == address {
			return a, nil
		}
	}
	return nil, fmt.Errorf("no send-as alias for %s", address)
}

func (c *Client) record(ctx context.Context, operation string, start time.Time, err error) {
	result := instrumentation.ResultSuccess
	if err != nil {
		result = instrumentation.ResultError
	}
	c.metrics.RecordAPIOperation(ctx, operation, result, time.Since(start).Seconds())
}
