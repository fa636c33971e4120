package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"nutricoach"
)

type doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	webhookURL string
	httpClient doer
}

func NewClient(webhookURL string, httpClient doer) *Client {
	return &Client{
		webhookURL: webhookURL,
		httpClient: httpClient,
	}
}

func (c *Client) PostMessage(ctx context.Context, channel string, message string) error {
	payload, err := json.Marshal(map[string]any{
		"channel": channel,
		"text":    message,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to post message: %s", resp.Status)
	}

	return nil
}

type poster interface {
	PostMessage(ctx context.Context, channel string, message string) error
}

// Notifier implements nutricoach.FeedbackNotifier by posting to a channel.
type Notifier struct {
	client  poster
	channel string
}

func NewNotifier(client poster, channel string) *Notifier {
	return &Notifier{client: client, channel: channel}
}

func (n *Notifier) FeedbackGenerated(ctx context.Context, s nutricoach.DailySummary) error {
	return n.client.PostMessage(ctx, n.channel, FormatSummary(s))
}

// FormatSummary renders s as Slack mrkdwn.
func FormatSummary(s nutricoach.DailySummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Daily feedback for %s* (%s)\n", s.User.Nickname, s.Date)
	fmt.Fprintf(&b, "BMR %.2f kcal | target %.2f kcal | balance %+.2f kcal\n",
		s.BMR, s.RecommendedDailyCalories, s.CalorieBalance)
	fmt.Fprintf(&b, "> %s", strings.ReplaceAll(s.Feedback, "<br>", "\n> "))
	return b.String()
}
