//
// conn.go
//
// Copyright (c) 2025 Dyslex7c
//
// All rights reserved.
//

package wire

import (
	"encoding/binary"
	"io"
	"net"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

// DefaultMaxFrameSize bounds the payload length accepted before any
// body bytes are read or allocated.
const DefaultMaxFrameSize = 1 << 20

// initialReadBufSize is the starting capacity of the reusable read
// buffer; it grows on demand up to the frame size limit.
const initialReadBufSize = 8192

// ErrFrameTooLarge is returned when a frame header announces a
// payload above the configured maximum.
var ErrFrameTooLarge = errors.New("wire: frame exceeds maximum size")

// IOStats counts the bytes and frames moved over a connection.
type IOStats struct {
	Sent       atomic.Uint64
	Recvd      atomic.Uint64
	FramesSent atomic.Uint64
	FramesRecv atomic.Uint64
}

// Sum returns the total bytes moved in both directions.
func (stats *IOStats) Sum() uint64 {
	return stats.Sent.Load() + stats.Recvd.Load()
}

// Conn frames a stream connection: every message is a little-endian
// uint32 payload length followed by the payload bytes. The read
// buffer is owned by the connection and reused; a slice returned by
// ReadFrame is valid until the next ReadFrame call.
type Conn struct {
	conn        io.ReadWriter
	maxFrame    uint32
	readTimeout time.Duration
	readBuf     []byte
	sizeBuf     [4]byte
	Stats       IOStats
}

// NewConn wraps conn with the frame codec.
func NewConn(conn io.ReadWriter) *Conn {
	return &Conn{
		conn:     conn,
		maxFrame: DefaultMaxFrameSize,
		readBuf:  make([]byte, initialReadBufSize),
	}
}

// SetMaxFrameSize overrides the payload length limit.
func (c *Conn) SetMaxFrameSize(n uint32) {
	if n > 0 {
		c.maxFrame = n
	}
}

// SetReadTimeout sets the per-read deadline. Zero disables the
// deadline. The deadline only applies when the underlying connection
// is a net.Conn.
func (c *Conn) SetReadTimeout(d time.Duration) {
	c.readTimeout = d
}

// ReadFrame reads the next frame and returns its payload. The frame
// size is validated against the maximum before the body is read.
func (c *Conn) ReadFrame() ([]byte, error) {
	if nc, ok := c.conn.(net.Conn); ok {
		var deadline time.Time
		if c.readTimeout > 0 {
			deadline = time.Now().Add(c.readTimeout)
		}
		if err := nc.SetReadDeadline(deadline); err != nil {
			return nil, errors.Wrap(err, "read frame")
		}
	}

	if _, err := io.ReadFull(c.conn, c.sizeBuf[:]); err != nil {
		return nil, errors.Wrap(err, "read frame size")
	}
	c.Stats.Recvd.Add(4)

	size := binary.LittleEndian.Uint32(c.sizeBuf[:])
	if size > c.maxFrame {
		return nil, ErrFrameTooLarge
	}
	if uint32(len(c.readBuf)) < size {
		c.readBuf = make([]byte, size)
	}

	payload := c.readBuf[:size]
	if _, err := io.ReadFull(c.conn, payload); err != nil {
		return nil, errors.Wrap(err, "read frame body")
	}
	c.Stats.Recvd.Add(uint64(size))
	c.Stats.FramesRecv.Add(1)

	return payload, nil
}

// WriteFrame writes one frame with the payload.
func (c *Conn) WriteFrame(payload []byte) error {
	if uint32(len(payload)) > c.maxFrame {
		return ErrFrameTooLarge
	}
	var size [4]byte
	binary.LittleEndian.PutUint32(size[:], uint32(len(payload)))

	buf := make([]byte, 0, 4+len(payload))
	buf = append(buf, size[:]...)
	buf = append(buf, payload...)

	if _, err := c.conn.Write(buf); err != nil {
		return errors.Wrap(err, "write frame")
	}
	c.Stats.Sent.Add(uint64(len(buf)))
	c.Stats.FramesSent.Add(1)
	return nil
}

// Close closes the underlying connection when it is closable.
func (c *Conn) Close() error {
	if closer, ok := c.conn.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
