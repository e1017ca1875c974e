package websocket

import (
	"github.com/gofiber/websocket/v2"
)

// ServeWs registers the connection with the hub and blocks until it closes.
func ServeWs(hub *Hub, c *websocket.Conn, rehearsalId string) {
	client := &Client{Hub: hub, Conn: c, RehearsalID: rehearsalId, Send: make(chan []byte, 16)}
	client.Hub.register <- client

	go client.writePump()
	client.readPump()
}
