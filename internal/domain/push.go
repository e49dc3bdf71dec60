package domain

import "time"

// PushMessage is the payload handed to the push provider.
type PushMessage struct {
	Title string
	Body  string
	Topic string
	Image string
}

// PushResult is the provider's answer to a single send.
type PushResult struct {
	MessageID  string
	StatusCode int
	Error      error
	Duration   time.Duration
}

func (r PushResult) IsSuccess() bool {
	return r.Error == nil && r.StatusCode >= 200 && r.StatusCode < 300
}
