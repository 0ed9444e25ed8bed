//
// server.go
//
// Copyright (c) 2025 Dyslex7c
//
// All rights reserved.
//

// Package server runs the TCP endpoint of the MtA share conversion:
// it accepts connections and executes one protocol session per
// connection.
package server

import (
	"fmt"
	"io"
	"net"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Dyslex7c/mta-cot-protocol-tcp/config"
	"github.com/Dyslex7c/mta-cot-protocol-tcp/ot"
	"github.com/Dyslex7c/mta-cot-protocol-tcp/wire"
)

// Server owns the listening socket and spawns sessions. Sessions do
// not share state; the listener is the only process-wide resource.
type Server struct {
	cfg       config.Config
	logger    *zap.Logger
	listener  net.Listener
	publicKey []byte
	rng       io.Reader
}

// New validates the configuration and binds the listener.
func New(cfg config.Config, logger *zap.Logger) (*Server, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	publicKey, err := cfg.PublicKeyBytes()
	if err != nil {
		return nil, err
	}
	if publicKey == nil {
		publicKey = placeholderPublicKey()
	}

	addr := fmt.Sprintf("%s:%d", cfg.ListenAddr, cfg.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrap(err, "listen")
	}

	return &Server{
		cfg:       cfg,
		logger:    logger,
		listener:  listener,
		publicKey: publicKey,
	}, nil
}

// SetRand overrides the randomness source of new sessions. Intended
// for deterministic runs; nil restores crypto/rand.
func (s *Server) SetRand(rng io.Reader) {
	s.rng = rng
}

// Addr returns the bound listener address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve runs the accept loop until the listener is closed. Each
// connection executes the protocol once and is closed.
func (s *Server) Serve() error {
	s.logger.Info("server listening",
		zap.String("addr", s.listener.Addr().String()),
	)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return errors.Wrap(err, "accept")
		}
		go s.handle(conn)
	}
}

// Close closes the listener. Live sessions run to completion or
// error out on their own connections.
func (s *Server) Close() error {
	return s.listener.Close()
}

func (s *Server) handle(nc net.Conn) {
	logger := s.logger.With(
		zap.String("remote", nc.RemoteAddr().String()),
	)
	logger.Info("client connected")

	conn := wire.NewConn(nc)
	conn.SetMaxFrameSize(s.cfg.MaxFrameSize)
	conn.SetReadTimeout(s.cfg.ReadTimeout())

	sess := newSession(conn, logger, s.cfg.YShare, s.publicKey, s.rng,
		s.cfg.Verbose)
	if err := sess.Run(); err != nil {
		logger.Info("session closed", zap.Error(err))
		return
	}
	logger.Info("session finished")
}

// placeholderPublicKey is the 65-byte sequence 0x00..0x40 sent when
// no key is configured. Peers do not interpret it.
func placeholderPublicKey() []byte {
	key := make([]byte, ot.PointSize)
	for i := range key {
		key[i] = byte(i)
	}
	return key
}
