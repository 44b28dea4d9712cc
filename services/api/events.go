package api

import (
	"context"
	"time"
)

// publishEvent emits a best-effort domain event. Failures are logged and never
// affect the request outcome.
func (a *API) publishEvent(topic, action string, payload map[string]any) {
	if a.store.Bus == nil || topic == "" {
		return
	}

	payload["action"] = action

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := a.store.Bus.Publish(ctx, topic, payload); err != nil {
		a.log.Warn().Err(err).Str("topic", topic).Str("action", action).Msg("publish event")
	}
}
