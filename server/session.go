//
// session.go
//
// Copyright (c) 2025 Dyslex7c
//
// All rights reserved.
//

package server

import (
	"io"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Dyslex7c/mta-cot-protocol-tcp/mta"
	"github.com/Dyslex7c/mta-cot-protocol-tcp/ot"
	"github.com/Dyslex7c/mta-cot-protocol-tcp/wire"
)

// Protocol states of one session. The machine is linear; any failure
// is terminal and closes the connection without a response.
type sessionState int

const (
	stateWaitingForCorrelationDelta sessionState = iota
	stateWaitingForAliceMessages
	stateProtocolComplete
)

var errUnexpectedState = errors.New("server: message in unexpected state")

// Session owns one accepted connection and drives the protocol to
// completion: receive the correlation delta, send the setup, receive
// Alice's transfer message, send Bob's response. The session owns its
// MtA engine; all secret material is wiped when Run returns.
type Session struct {
	conn    *wire.Conn
	engine  *mta.Bob
	logger  *zap.Logger
	state   sessionState
	timing  *Timing
	verbose bool

	yShare    uint32
	publicKey []byte

	delta         uint32
	additiveShare uint32
	check         uint32
}

func newSession(conn *wire.Conn, logger *zap.Logger, yShare uint32,
	publicKey []byte, rng io.Reader, verbose bool) *Session {

	return &Session{
		conn:      conn,
		engine:    mta.NewBob(rng),
		logger:    logger,
		state:     stateWaitingForCorrelationDelta,
		timing:    NewTiming(),
		verbose:   verbose,
		yShare:    yShare,
		publicKey: publicKey,
	}
}

// Run executes the session state machine. The connection is closed
// and the engine wiped on return; the error reports why the session
// ended early.
func (s *Session) Run() error {
	defer s.engine.Wipe()
	defer s.conn.Close()

	if err := s.processCorrelationDelta(); err != nil {
		return err
	}
	s.timing.Sample("setup")

	if err := s.processAliceMessages(); err != nil {
		return err
	}
	s.timing.Sample("convert")

	s.state = stateProtocolComplete
	s.logger.Info("protocol complete",
		zap.Uint32("additive_share", s.additiveShare),
		zap.Uint32("correlation_check", s.check),
	)
	if s.verbose {
		s.timing.Print(&s.conn.Stats)
	}
	return nil
}

// processCorrelationDelta receives the first frame, initializes the
// COT session and responds with the setup message.
func (s *Session) processCorrelationDelta() error {
	if s.state != stateWaitingForCorrelationDelta {
		return errUnexpectedState
	}
	payload, err := s.conn.ReadFrame()
	if err != nil {
		return err
	}
	var delta wire.CorrelationDelta
	if err := delta.Decode(payload); err != nil {
		return err
	}
	s.delta = delta.Delta
	s.logger.Debug("received correlation delta",
		zap.Uint32("delta", s.delta))

	setup, err := s.engine.Init(s.delta)
	if err != nil {
		return err
	}

	msg := &wire.BobSetup{
		Success:        true,
		OTMessages:     splitChunks(setup.PointsB, ot.PointSize),
		PublicKey:      s.publicKey,
		NumOTInstances: setup.NumInstances,
	}
	encoded, err := msg.Encode()
	if err != nil {
		return err
	}
	if err := s.conn.WriteFrame(encoded); err != nil {
		return err
	}

	s.state = stateWaitingForAliceMessages
	return nil
}

// processAliceMessages receives Alice's transfer message, runs the
// conversion and responds with Bob's masked share and correlation
// check. The OT responses and encrypted result fields of the response
// are left empty.
func (s *Session) processAliceMessages() error {
	if s.state != stateWaitingForAliceMessages {
		return errUnexpectedState
	}
	payload, err := s.conn.ReadFrame()
	if err != nil {
		return err
	}
	var alice wire.AliceMessages
	if err := alice.Decode(payload); err != nil {
		return err
	}
	if !alice.Success {
		return mta.ErrPeerFailure
	}
	e0, e1, err := alice.Shares()
	if err != nil {
		return err
	}

	// The share adopted from the correlation delta governs the
	// arithmetic only when no share was configured.
	y := s.yShare
	if y == 0 {
		y = s.delta
	}

	resp, err := s.engine.Prepare(y)
	if err != nil {
		return err
	}
	result, err := s.engine.Execute(y, &mta.AliceInput{
		Success:     alice.Success,
		MaskedShare: alice.MaskedShare,
		PointsA:     alice.PointsA,
		E0:          e0,
		E1:          e1,
	})
	if err != nil {
		return err
	}
	s.additiveShare = result.AdditiveShare
	s.check = mta.CorrelationCheck(y, result.AdditiveShare, s.delta)

	msg := &wire.BobMessages{
		Success:          true,
		MaskedShare:      resp.MaskedShare,
		CorrelationCheck: s.check,
	}
	return s.conn.WriteFrame(msg.Encode())
}

func splitChunks(data []byte, size int) [][]byte {
	chunks := make([][]byte, 0, len(data)/size)
	for off := 0; off < len(data); off += size {
		end := off + size
		if end > len(data) {
			end = len(data)
		}
		chunks = append(chunks, data[off:end])
	}
	return chunks
}
