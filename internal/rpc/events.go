package rpc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/DeanoC/AIWhisperer-sub003/internal/logging"
	"github.com/DeanoC/AIWhisperer-sub003/pkg/types"
)

// Events opens the backend's push-event stream and decodes channel
// messages from it. The returned channels are closed when the stream ends;
// a terminal error, if any, is delivered on errs first. Cancelling ctx
// tears the stream down.
//
// The wire format is server-sent events; only "channel.message" events are
// decoded, anything else on the stream is skipped.
func (c *Client) Events(ctx context.Context) (<-chan types.ChannelMessage, <-chan error) {
	msgs := make(chan types.ChannelMessage, 16)
	errs := make(chan error, 1)

	go func() {
		defer close(msgs)
		defer close(errs)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/events", nil)
		if err != nil {
			errs <- &TransportError{Op: "events", Err: err}
			return
		}
		req.Header.Set("Accept", "text/event-stream")

		resp, err := c.http.Do(req)
		if err != nil {
			errs <- &TransportError{Op: "events", Err: err}
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			errs <- &TransportError{Op: "events", Status: resp.StatusCode, Err: errStreamRefused}
			return
		}

		log := logging.Component("events")
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		var eventName, data string
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case strings.HasPrefix(line, "event:"):
				eventName = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			case strings.HasPrefix(line, "data:"):
				data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			case line == "":
				// Blank line terminates one SSE frame.
				if eventName == "channel.message" && data != "" {
					var msg types.ChannelMessage
					if err := json.Unmarshal([]byte(data), &msg); err != nil {
						log.Warn().Err(err).Msg("undecodable channel event, skipping")
					} else {
						select {
						case msgs <- msg:
						case <-ctx.Done():
							return
						}
					}
				}
				eventName, data = "", ""
			}
		}

		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			errs <- &TransportError{Op: "events", Err: err}
		}
	}()

	return msgs, errs
}

var errStreamRefused = errors.New("event stream refused")
