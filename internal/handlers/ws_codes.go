// internal/handlers/ws_codes.go
package handlers

import "github.com/coder/websocket"

// Custom WebSocket close codes used by the chat socket.
// These give clients a more specific reason than the standard codes.
const (
	SubscribeFailedError  websocket.StatusCode = 3000 // The live message subscription could not be opened.
	SubscriptionLostError websocket.StatusCode = 3001 // The subscription dropped while the socket was open; reconnect.
)
