//
// mta.go
//
// Copyright (c) 2025 Dyslex7c
//
// All rights reserved.
//

// Package mta implements the Bob role of the two-party
// multiplicative-to-additive share conversion. Alice holds x, Bob
// holds y; after the exchange the parties hold additive shares of
// x*y modulo 2^32. The conversion is driven over the 32-instance
// correlated OT engine in package ot.
package mta

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/Dyslex7c/mta-cot-protocol-tcp/ot"
)

var (
	// ErrNotPrepared is returned when Execute runs before Prepare
	// has drawn the additive mask.
	ErrNotPrepared = fmt.Errorf("mta: response not prepared")

	// ErrPeerFailure is returned when Alice's message carries a
	// failure flag.
	ErrPeerFailure = fmt.Errorf("mta: peer reported failure")
)

// Setup is the material Bob publishes after initialization: the
// concatenated OT instance points and the echoed correlation value.
type Setup struct {
	PointsB      []byte
	NumInstances uint32
	Delta        uint32
}

// Response carries Bob's masked share y*beta.
type Response struct {
	MaskedShare uint32
}

// AliceInput is Bob's view of Alice's transfer message: her masked
// share x*alpha, the 32 sender points and the two ciphertext columns.
type AliceInput struct {
	Success     bool
	MaskedShare uint32
	PointsA     []byte
	E0          []byte
	E1          []byte
}

// Result is the outcome of the conversion on Bob's side.
type Result struct {
	AdditiveShare uint32
}

// Bob drives the server side of the conversion. A Bob engine is
// single-session: Init starts a fresh COT session and Wipe clears all
// secret material.
type Bob struct {
	cot      *ot.COT
	rng      io.Reader
	beta     uint32
	prepared bool
}

// NewBob creates an engine drawing randomness from rng, or from
// crypto/rand when rng is nil.
func NewBob(rng io.Reader) *Bob {
	if rng == nil {
		rng = rand.Reader
	}
	return &Bob{
		cot: ot.NewCOT(),
		rng: rng,
	}
}

// Init initializes the COT session with the correlation value delta
// and returns the setup to publish to Alice.
func (b *Bob) Init(delta uint32) (*Setup, error) {
	setup, err := b.cot.Init(delta, b.rng)
	if err != nil {
		return nil, err
	}
	return &Setup{
		PointsB:      setup.PointsB,
		NumInstances: ot.BitLength,
		Delta:        setup.Delta,
	}, nil
}

// Prepare draws the additive mask beta uniformly from the 32-bit
// range and computes the masked share y*beta. The mask is retained
// for Execute.
func (b *Bob) Prepare(y uint32) (*Response, error) {
	var buf [4]byte
	if _, err := io.ReadFull(b.rng, buf[:]); err != nil {
		return nil, err
	}
	b.beta = binary.LittleEndian.Uint32(buf[:])
	b.prepared = true

	return &Response{
		MaskedShare: y * b.beta,
	}, nil
}

// Execute runs the correlated transfers against Alice's message and
// computes Bob's additive share beta*maskedShare + V mod 2^32.
func (b *Bob) Execute(y uint32, in *AliceInput) (*Result, error) {
	if !b.prepared {
		return nil, ErrNotPrepared
	}
	if !in.Success {
		return nil, ErrPeerFailure
	}
	v, err := b.cot.Multiply(y, in.PointsA, in.E0, in.E1)
	if err != nil {
		return nil, err
	}
	return &Result{
		AdditiveShare: b.beta*in.MaskedShare + v,
	}, nil
}

// CorrelationCheck is the value emitted with Bob's response so Alice
// can detect a diverging transcript: (y + share) XOR delta, with a
// wrapping add. It is not verified on this side.
func CorrelationCheck(y, additiveShare, delta uint32) uint32 {
	return (y + additiveShare) ^ delta
}

// Delta returns the correlation value of the current COT session.
func (b *Bob) Delta() uint32 {
	return b.cot.Delta()
}

// Wipe clears the OT scalars and the additive mask.
func (b *Bob) Wipe() {
	b.cot.Wipe()
	b.beta = 0
	b.prepared = false
}
