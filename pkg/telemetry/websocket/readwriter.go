// Package websocket streams telemetry records to dashboards that
// cannot reach the MQTT broker directly.
package websocket

import "golang.org/x/net/websocket"

// ReadWriter frames messages over a websocket connection.
type ReadWriter websocket.Conn

// New wraps websocket.Conn.
func New(conn *websocket.Conn) *ReadWriter {
	return (*ReadWriter)(conn)
}

// ReadMessage receives one binary message.
func (p *ReadWriter) ReadMessage() (msg []byte, err error) {
	err = websocket.Message.Receive((*websocket.Conn)(p), &msg)
	return
}

// WriteMessage sends one binary message.
func (p *ReadWriter) WriteMessage(msg []byte) error {
	return websocket.Message.Send((*websocket.Conn)(p), msg)
}

// ReadJSON receives one JSON-encoded message.
func (p *ReadWriter) ReadJSON(v interface{}) error {
	return websocket.JSON.Receive((*websocket.Conn)(p), v)
}

// WriteJSON sends one JSON-encoded message.
func (p *ReadWriter) WriteJSON(v interface{}) error {
	return websocket.JSON.Send((*websocket.Conn)(p), v)
}
