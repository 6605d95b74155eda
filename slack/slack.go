package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"mealresolver"
)

type doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client posts to a Slack incoming webhook.
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
	if strings.TrimSpace(c.webhookURL) == "" {
		return mealresolver.MissingCredential("SLACK_WEBHOOK_URL")
	}

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

// PostMealSummary posts a formatted summary of a resolved meal.
func PostMealSummary(ctx context.Context, sc mealresolver.SlackClient, channel, query string, res mealresolver.MealResult) error {
	return sc.PostMessage(ctx, channel, FormatMealSummary(query, res))
}

// FormatMealSummary renders totals first, then one line per item in mrkdwn.
func FormatMealSummary(query string, res mealresolver.MealResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n", query)
	fmt.Fprintf(&b, "%d kcal | protein %.1f g | carbs %.1f g | fat %.1f g\n",
		res.Calories, res.Protein, res.Carbs, res.Fat)
	if res.Note != "" {
		fmt.Fprintf(&b, "_%s_\n", res.Note)
	}
	for _, it := range res.Items {
		kcal := "n/a"
		if it.Calories != nil {
			kcal = fmt.Sprintf("%.0f kcal", *it.Calories)
		}
		fmt.Fprintf(&b, "• %s (%g g): %s, %s\n", it.Name, it.Grams, kcal, it.Source)
	}
	return strings.TrimRight(b.String(), "\n")
}
