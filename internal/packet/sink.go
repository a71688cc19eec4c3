package packet

import (
	"fmt"
	"net"
	"strconv"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Sink sends frames to the consumer as UDP datagrams. Delivery is not
// confirmed and failed sends are not retried.
type Sink struct {
	conn    *net.UDPConn
	address string
	sent    atomic.Uint64
	dropped atomic.Uint64
}

// NewSink resolves host:port and creates the sending socket. This fails
// only on bad addresses or socket exhaustion; a missing listener is not an
// error for UDP.
func NewSink(host string, port int, log logrus.FieldLogger) (*Sink, error) {
	address := net.JoinHostPort(host, strconv.Itoa(port))
	udpAddr, err := net.ResolveUDPAddr("udp", address)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", address, err)
	}

	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, fmt.Errorf("create socket for %s: %w", address, err)
	}

	log.WithField("address", address).Info("sending control frames")

	return &Sink{
		conn:    conn,
		address: address,
	}, nil
}

// Send encodes a frame and writes it in a single datagram. A returned error
// means the frame was dropped; callers are expected to discard it.
func (s *Sink) Send(f Frame) error {
	data, err := Encode(f)
	if err != nil {
		s.dropped.Add(1)
		return fmt.Errorf("encode frame: %w", err)
	}

	if _, err := s.conn.Write(data); err != nil {
		s.dropped.Add(1)
		return fmt.Errorf("send to %s: %w", s.address, err)
	}

	s.sent.Add(1)
	return nil
}

// Address returns the destination as host:port.
func (s *Sink) Address() string {
	return s.address
}

// Sent returns the number of datagrams written.
func (s *Sink) Sent() uint64 {
	return s.sent.Load()
}

// Dropped returns the number of frames that failed to send.
func (s *Sink) Dropped() uint64 {
	return s.dropped.Load()
}

// Close closes the socket.
func (s *Sink) Close() error {
	return s.conn.Close()
}
