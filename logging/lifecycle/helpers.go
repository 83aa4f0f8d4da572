package lifecycle

import (
	"context"

	"openplace/server/logging"
)

const (
	// EventClientConnected is emitted when a client session opens.
	EventClientConnected logging.EventType = "lifecycle.client_connected"
	// EventClientDisconnected is emitted when a client session closes.
	EventClientDisconnected logging.EventType = "lifecycle.client_disconnected"
)

// ClientConnectedPayload captures membership after a connect.
type ClientConnectedPayload struct {
	ConnectedClients int `json:"connectedClients"`
}

// ClientDisconnectedPayload captures the reason a client left and the
// remaining membership.
type ClientDisconnectedPayload struct {
	Reason           string `json:"reason"`
	ConnectedClients int    `json:"connectedClients"`
}

// ClientConnected publishes a client connect event.
func ClientConnected(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload ClientConnectedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventClientConnected,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategorySession,
		Payload:  payload,
	})
}

// ClientDisconnected publishes a client disconnect event.
func ClientDisconnected(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload ClientDisconnectedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventClientDisconnected,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategorySession,
		Payload:  payload,
	})
}
