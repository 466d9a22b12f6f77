package api

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultPollInterval matches the status refresh cadence of the library view.
const DefaultPollInterval = 5 * time.Second

// WaitForStatus polls a video's status every interval until it reaches a
// terminal status, which it returns. onUpdate sees every successful poll.
// Poll failures are retried on the next tick with no backoff and no cap, so
// only ctx ends the wait against a backend that keeps failing.
func (c *Client) WaitForStatus(ctx context.Context, id string, interval time.Duration, onUpdate func(VideoStatus)) (*VideoStatus, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		st, err := c.GetVideoStatus(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Debug().Err(err).Str("video_id", id).Msg("status poll failed, retrying")
			continue
		}
		if onUpdate != nil {
			onUpdate(*st)
		}
		if st.Status.Terminal() {
			return st, nil
		}
	}
}
