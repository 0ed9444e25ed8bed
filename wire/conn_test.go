//
// conn_test.go
//
// Copyright (c) 2025 Dyslex7c
//
// All rights reserved.
//

package wire

import (
	"bytes"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func connPair() (client net.Conn, server *Conn) {
	c, s := net.Pipe()
	return c, NewConn(s)
}

func TestFrameRoundTrip(t *testing.T) {
	client, server := connPair()
	defer client.Close()
	defer server.Close()

	payload := bytes.Repeat([]byte{0x5a}, 1000)

	errCh := make(chan error, 1)
	go func() {
		_, err := client.Write(frameBytes(payload))
		errCh <- err
	}()

	got, err := server.ReadFrame()
	require.NoError(t, err)
	require.Equal(t, payload, got)
	require.NoError(t, <-errCh)

	require.Equal(t, uint64(4+len(payload)), server.Stats.Recvd.Load())
	require.Equal(t, uint64(1), server.Stats.FramesRecv.Load())
}

func TestFrameEmptyPayload(t *testing.T) {
	client, server := connPair()
	defer client.Close()
	defer server.Close()

	go client.Write([]byte{0x00, 0x00, 0x00, 0x00})

	got, err := server.ReadFrame()
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestFrameWriteRead(t *testing.T) {
	c, s := net.Pipe()
	client := NewConn(c)
	server := NewConn(s)
	defer client.Close()
	defer server.Close()

	payload := []byte{0x08, 0x05}

	go func() {
		client.WriteFrame(payload)
	}()

	got, err := server.ReadFrame()
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestFrameTooLarge(t *testing.T) {
	client, server := connPair()
	defer client.Close()
	defer server.Close()

	// A size announcement of 0xFFFFFFFF must be refused before any
	// body bytes are read; nothing but the header is ever written.
	go client.Write([]byte{0xff, 0xff, 0xff, 0xff})

	_, err := server.ReadFrame()
	require.ErrorIs(t, err, ErrFrameTooLarge)
}

func TestFrameMaxOverride(t *testing.T) {
	client, server := connPair()
	defer client.Close()
	defer server.Close()

	server.SetMaxFrameSize(16)

	go client.Write(frameBytes(bytes.Repeat([]byte{0x01}, 17)))

	_, err := server.ReadFrame()
	require.ErrorIs(t, err, ErrFrameTooLarge)
}

func TestWriteFrameTooLarge(t *testing.T) {
	_, server := connPair()
	defer server.Close()

	server.SetMaxFrameSize(8)
	err := server.WriteFrame(bytes.Repeat([]byte{0x01}, 9))
	require.ErrorIs(t, err, ErrFrameTooLarge)
}

func TestReadTimeout(t *testing.T) {
	client, server := connPair()
	defer client.Close()
	defer server.Close()

	server.SetReadTimeout(50 * time.Millisecond)

	start := time.Now()
	_, err := server.ReadFrame()
	require.Error(t, err)
	require.Less(t, time.Since(start), 5*time.Second)
}

func frameBytes(payload []byte) []byte {
	buf := make([]byte, 4+len(payload))
	buf[0] = byte(len(payload))
	buf[1] = byte(len(payload) >> 8)
	buf[2] = byte(len(payload) >> 16)
	buf[3] = byte(len(payload) >> 24)
	copy(buf[4:], payload)
	return buf
}
