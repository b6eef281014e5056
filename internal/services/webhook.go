package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/taskmanager-dev/taskmanager/internal/models"
)

type DiscordWebhookField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type DiscordEmbed struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Color       int                   `json:"color"`
	Fields      []DiscordWebhookField `json:"fields"`
	Footer      *DiscordFooter        `json:"footer,omitempty"`
	Timestamp   string                `json:"timestamp"`
}

type DiscordFooter struct {
	Text string `json:"text"`
}

type DiscordWebhookRequest struct {
	Username string         `json:"username"`
	Embeds   []DiscordEmbed `json:"embeds"`
}

type SlackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type SlackAttachment struct {
	Color     string       `json:"color"`
	Title     string       `json:"title"`
	Text      string       `json:"text"`
	Fields    []SlackField `json:"fields"`
	Footer    string       `json:"footer"`
	Timestamp int64        `json:"ts"`
}

type SlackWebhookRequest struct {
	Username    string            `json:"username"`
	IconEmoji   string            `json:"icon_emoji,omitempty"`
	Text        string            `json:"text"`
	Attachments []SlackAttachment `json:"attachments"`
}

const (
	ColorBlue   = 3447003  // #3498DB - Task assigned
	ColorPurple = 10181046 // #9B59B6 - Comment added

	Username = "Taskmanager"
)

// dispatchTimeout bounds one background delivery, covering both webhooks.
const dispatchTimeout = 15 * time.Second

// Notifier posts project events to the Slack and Discord webhooks configured
// on the project. Projects without webhooks are skipped.
type Notifier struct {
	client *http.Client
	logger *slog.Logger
	wg     sync.WaitGroup
}

func NewNotifier(client *http.Client, logger *slog.Logger) *Notifier {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Notifier{client: client, logger: logger}
}

// Dispatch runs send in the background so a slow webhook never holds up the
// request that triggered it. The request context's values are kept but its
// cancellation is not. Failures are logged.
func (n *Notifier) Dispatch(ctx context.Context, event string, project models.Project, send func(ctx context.Context) error) {
	if project.SlackWebhook == "" && project.DiscordWebhook == "" {
		return
	}

	ctx = context.WithoutCancel(ctx)

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		ctx, cancel := context.WithTimeout(ctx, dispatchTimeout)
		defer cancel()

		if err := send(ctx); err != nil {
			n.logger.Warn("webhook notification failed", "event", event, "project_id", project.ID, "error", err)
		}
	}()
}

// Wait blocks until every dispatched notification has finished.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

func (n *Notifier) TaskAssigned(ctx context.Context, project models.Project, task models.Task, assignee models.User) error {
	discord := DiscordWebhookRequest{
		Username: Username,
		Embeds: []DiscordEmbed{
			{
				Title:       "Task assigned",
				Description: fmt.Sprintf("**%s** is now assigned to %s.", task.Name, assignee.Name),
				Color:       ColorBlue,
				Fields: []DiscordWebhookField{
					{Name: "Task", Value: task.Name, Inline: true},
					{Name: "Assignee", Value: assignee.Name, Inline: true},
				},
				Footer:    &DiscordFooter{Text: fmt.Sprintf("Project: %s", project.Name)},
				Timestamp: time.Now().Format(time.RFC3339),
			},
		},
	}

	slack := SlackWebhookRequest{
		Username:  Username,
		IconEmoji: ":pushpin:",
		Text:      fmt.Sprintf(":pushpin: *%s* assigned to %s", task.Name, assignee.Name),
		Attachments: []SlackAttachment{
			{
				Color: "#3498db",
				Title: task.Name,
				Text:  task.Description,
				Fields: []SlackField{
					{Title: "Assignee", Value: assignee.Name, Short: true},
					{Title: "Completed", Value: fmt.Sprintf("%t", task.Completed), Short: true},
				},
				Footer:    fmt.Sprintf("Project: %s", project.Name),
				Timestamp: time.Now().Unix(),
			},
		},
	}

	return n.send(ctx, project, discord, slack)
}

func (n *Notifier) CommentAdded(ctx context.Context, project models.Project, task models.Task, author models.User, comment string) error {
	discord := DiscordWebhookRequest{
		Username: Username,
		Embeds: []DiscordEmbed{
			{
				Title:       fmt.Sprintf("New comment on %s", task.Name),
				Description: comment,
				Color:       ColorPurple,
				Fields: []DiscordWebhookField{
					{Name: "Author", Value: author.Name, Inline: true},
				},
				Footer:    &DiscordFooter{Text: fmt.Sprintf("Project: %s", project.Name)},
				Timestamp: time.Now().Format(time.RFC3339),
			},
		},
	}

	slack := SlackWebhookRequest{
		Username:  Username,
		IconEmoji: ":speech_balloon:",
		Text:      fmt.Sprintf(":speech_balloon: %s commented on *%s*", author.Name, task.Name),
		Attachments: []SlackAttachment{
			{
				Color:     "#9b59b6",
				Title:     task.Name,
				Text:      comment,
				Footer:    fmt.Sprintf("Project: %s", project.Name),
				Timestamp: time.Now().Unix(),
			},
		},
	}

	return n.send(ctx, project, discord, slack)
}

func (n *Notifier) send(ctx context.Context, project models.Project, discord DiscordWebhookRequest, slack SlackWebhookRequest) error {
	if project.DiscordWebhook != "" {
		if err := n.post(ctx, project.DiscordWebhook, discord); err != nil {
			return fmt.Errorf("discord: %w", err)
		}
	}

	if project.SlackWebhook != "" {
		if err := n.post(ctx, project.SlackWebhook, slack); err != nil {
			return fmt.Errorf("slack: %w", err)
		}
	}

	return nil
}

func (n *Notifier) post(ctx context.Context, webhookURL string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}
