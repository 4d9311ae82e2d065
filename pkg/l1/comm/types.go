// Package comm carries typed messages between controllers and clients
// over packet transports.
package comm

// PacketReader reads one whole packet per call.
type PacketReader interface {
	ReadPacket() ([]byte, error)
}

// PacketWriter writes one whole packet per call.
type PacketWriter interface {
	WritePacket([]byte) error
}

// PacketReadWriter reads and writes packets.
type PacketReadWriter interface {
	PacketReader
	PacketWriter
}
