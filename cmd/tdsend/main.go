// tdsend fires a single push notification through the configured provider,
// bypassing the schedule store. Useful for smoke-testing provider credentials
// and topics without standing up the full service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/YadvendraRathor/truth-dare-notification-scheduler/internal/config"
	"github.com/YadvendraRathor/truth-dare-notification-scheduler/internal/dispatcher"
	"github.com/YadvendraRathor/truth-dare-notification-scheduler/internal/domain"
)

func main() {
	title := flag.String("title", "", "notification title (required)")
	body := flag.String("body", "", "notification body (required)")
	topic := flag.String("topic", "", "target topic (default: DEFAULT_TOPIC)")
	image := flag.String("image", "", "optional image URL")
	flag.Parse()

	if *title == "" || *body == "" {
		fmt.Fprintln(os.Stderr, "tdsend: -title and -body are required")
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	if cfg.PushServerKey == "" {
		fmt.Fprintln(os.Stderr, "tdsend: PUSH_SERVER_KEY is required")
		os.Exit(2)
	}

	target := *topic
	if target == "" {
		target = cfg.DefaultTopic
	}

	sender := dispatcher.NewHTTPPushSender(cfg.PushEndpoint, cfg.PushServerKey).
		WithTimeout(cfg.PushTimeout)
	disp := dispatcher.New(discardHistory{}, sender)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.PushTimeout+5*time.Second)
	defer cancel()

	messageID, err := disp.Dispatch(ctx, domain.PushMessage{
		Title: *title,
		Body:  *body,
		Topic: target,
		Image: *image,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "tdsend: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("sent to %s (message_id=%s)\n", target, messageID)
}

// discardHistory satisfies the dispatcher's history store; one-shot sends
// have no database to record into.
type discardHistory struct{}

func (discardHistory) AppendHistory(ctx context.Context, entry domain.HistoryEntry) error {
	return nil
}
