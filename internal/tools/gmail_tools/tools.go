package gmail_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/gmailkit/internal/gmail"
	"github.com/teemow/gmailkit/internal/server"
)

// RegisterGmailTools registers all Gmail-related tools with the MCP
// server. With readOnly set, tools that modify the mailbox are left
// out.
func RegisterGmailTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	if err := RegisterEmailTools(s, sc, readOnly); err != nil {
		return fmt.Errorf("failed to register email tools: %w", err)
	}

	searchTool := mcp.NewTool("gmail_search_messages",
		mcp.WithDescription("Search Gmail messages matching a query"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Gmail search query (e.g., 'in:inbox', 'from:user@example.com')"),
		),
		mcp.WithNumber("maxResults",
			mcp.Description("Maximum number of results to return (default: 100)"),
		),
		mcp.WithString("pageToken",
			mcp.Description("Page token from a previous search to fetch the next page"),
		),
	)

	s.AddTool(searchTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleSearchMessages(ctx, request, sc)
	})

	getTool := mcp.NewTool("gmail_get_message",
		mcp.WithDescription("Retrieve a single Gmail message with headers, body and attachment list"),
		mcp.WithString("messageId",
			mcp.Required(),
			mcp.Description("The ID of the message to retrieve"),
		),
		mcp.WithString("format",
			mcp.Description("Message format: minimal, full, raw or metadata (default: full)"),
		),
	)

	s.AddTool(getTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleGetMessage(ctx, request, sc)
	})

	signatureTool := mcp.NewTool("gmail_get_signature",
		mcp.WithDescription("Get the signature configured for a Gmail send-as address"),
		mcp.WithString("address",
			mcp.Description("Send-as email address (default: the primary address)"),
		),
	)

	s.AddTool(signatureTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleGetSignature(ctx, request, sc)
	})

	return nil
}

func handleSearchMessages(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return mcp.NewToolResultError("'query' field is required"), nil
	}

	opts := gmail.ListOptions{}
	if maxResults, ok := args["maxResults"].(float64); ok {
		opts.MaxResults = int64(maxResults)
	}
	if pageToken, ok := args["pageToken"].(string); ok {
		opts.PageToken = pageToken
	}

	client, err := sc.GmailClient(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	list, err := client.ListMessages(ctx, query, opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to search messages: %v", err)), nil
	}

	return mcp.NewToolResultText(formatMessageList(query, list)), nil
}

func handleGetMessage(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	messageID, ok := args["messageId"].(string)
	if !ok || messageID == "" {
		return mcp.NewToolResultError("'messageId' field is required"), nil
	}

	format := gmail.FormatFull
	if formatVal, ok := args["format"].(string); ok && formatVal != "" {
		format = gmail.Format(formatVal)
	}

	client, err := sc.GmailClient(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	rec, err := client.GetMessage(ctx, messageID, format)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get message: %v", err)), nil
	}

	return mcp.NewToolResultText(formatMessageRecord(rec)), nil
}

func handleGetSignature(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	address := ""
	if addressVal, ok := args["address"].(string); ok {
		address = addressVal
	}

	client, err := sc.GmailClient(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	signature, err := client.GetSignature(ctx, address)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get signature: %v", err)), nil
	}
	if signature == "" {
		return mcp.NewToolResultText("No signature configured."), nil
	}
	return mcp.NewToolResultText(signature), nil
}

func formatMessageList(query string, list *gmail.MessageList) string {
	if len(list.Messages) == 0 {
		return fmt.Sprintf("No messages found for query: %s", query)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d message(s) for query: %s\n", len(list.Messages), query)
	for _, m := range list.Messages {
		fmt.Fprintf(&b, "- ID: %s (thread %s)\n", m.ID, m.ThreadID)
	}
	if list.NextPageToken != "" {
		fmt.Fprintf(&b, "\nMore results available. Next page token: %s", list.NextPageToken)
	}
	return b.String()
}

func formatMessageRecord(rec *gmail.MessageRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Message ID: %s\n", rec.ID)
	fmt.Fprintf(&b, "Thread ID: %s\n", rec.ThreadID)

	for _, name := range []string{"From", "To", "Cc", "Date", "Subject"} {
		if v := rec.Header(name); v != "" {
			fmt.Fprintf(&b, "%s: %s\n", name, v)
		}
	}
	if len(rec.LabelIDs) > 0 {
		fmt.Fprintf(&b, "Labels: %s\n", strings.Join(rec.LabelIDs, ", "))
	}

	if rec.Body != "" {
		fmt.Fprintf(&b, "\n%s\n", rec.Body)
	} else if rec.Snippet != "" {
		fmt.Fprintf(&b, "\nSnippet: %s\n", rec.Snippet)
	}

	if len(rec.Attachments) > 0 {
		b.WriteString("\nAttachments:\n")
		for _, a := range rec.Attachments {
			fmt.Fprintf(&b, "- %s (%s, %d bytes)\n", a.Filename, a.MimeType, a.Size)
		}
	}
	return b.String()
}
