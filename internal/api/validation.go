package api

import (
	"fmt"
	"net/url"
	"time"

	"github.com/YadvendraRathor/truth-dare-notification-scheduler/internal/timeparse"
)

// validateSchedule checks a schedule request and returns the normalized
// delivery instant in UTC.
func validateSchedule(req ScheduleRequest) (time.Time, error) {
	if req.Title == "" {
		return time.Time{}, fmt.Errorf("title is required")
	}

	if req.Body == "" {
		return time.Time{}, fmt.Errorf("body is required")
	}

	if req.Time == "" {
		return time.Time{}, fmt.Errorf("time is required")
	}
	sendAt, err := timeparse.Normalize(req.Time)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time: %w", err)
	}

	if req.Image != "" {
		if err := validateImageURL(req.Image); err != nil {
			return time.Time{}, fmt.Errorf("invalid image: %w", err)
		}
	}

	return sendAt, nil
}

func validateSend(req SendRequest) error {
	if req.Title == "" {
		return fmt.Errorf("title is required")
	}

	if req.Body == "" {
		return fmt.Errorf("body is required")
	}

	if req.Image != "" {
		if err := validateImageURL(req.Image); err != nil {
			return fmt.Errorf("invalid image: %w", err)
		}
	}

	return nil
}

func validateImageURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("host is required")
	}
	return nil
}
