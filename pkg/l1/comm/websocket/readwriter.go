// Package websocket carries packets as binary websocket messages.
package websocket

import "golang.org/x/net/websocket"

// MaxPacketSize caps an incoming message. Typed messages on this link
// are small status and command payloads.
const MaxPacketSize = 64 << 10

// ReadWriter implements PacketReadWriter with one packet per message.
type ReadWriter struct {
	Conn *websocket.Conn
}

// New wraps a websocket.Conn and limits its payload size.
func New(conn *websocket.Conn) *ReadWriter {
	conn.PayloadType = websocket.BinaryFrame
	conn.MaxPayloadBytes = MaxPacketSize
	return &ReadWriter{Conn: conn}
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	var pkt []byte
	if err := websocket.Message.Receive(p.Conn, &pkt); err != nil {
		return nil, err
	}
	return pkt, nil
}

// WritePacket implements PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	return websocket.Message.Send(p.Conn, pkt)
}

// Close closes the connection.
func (p *ReadWriter) Close() error {
	return p.Conn.Close()
}
