//
// cot.go
//
// Copyright (c) 2025 Dyslex7c
//
// All rights reserved.
//

package ot

import (
	"encoding/binary"
	"fmt"
	"io"
)

// BitLength is the number of parallel OT bit instances, one per bit
// of the 32-bit multiplicative share.
const BitLength = 32

// Derived buffer sizes for one correlated transfer.
const (
	// PointsSize is the length of the concatenated instance points.
	PointsSize = BitLength * PointSize

	// MessagesSize is the length of one concatenated ciphertext
	// column (all E0 or all E1 messages).
	MessagesSize = BitLength * MessageSize
)

// ErrLengthMismatch is returned when a transfer buffer does not have
// its exact fixed size.
var ErrLengthMismatch = fmt.Errorf("ot: buffer length mismatch")

// COT runs the receiver side of a 32-instance correlated oblivious
// transfer. For each bit i of the receiver value y it recovers
// m_i = U_i + y_i*x (mod 2^32) where U_i is chosen by the sender, and
// accumulates V = sum(2^i * m_i) mod 2^32.
type COT struct {
	instances []*BitInstance
	delta     uint32
}

// Setup carries the receiver's public instance points, ready to be
// sent to the peer. Delta echoes the correlation value the engine was
// initialized with.
type Setup struct {
	PointsB []byte
	Delta   uint32
}

// NewCOT creates an uninitialized engine.
func NewCOT() *COT {
	return &COT{}
}

// Init generates fresh scalars for all bit instances and returns
// their public points as a single 2080-byte buffer. Scalars from any
// previous initialization are wiped.
func (c *COT) Init(delta uint32, rng io.Reader) (*Setup, error) {
	c.Wipe()

	instances := make([]*BitInstance, BitLength)
	points := make([]byte, 0, PointsSize)
	for i := 0; i < BitLength; i++ {
		inst, err := NewBitInstance(rng)
		if err != nil {
			return nil, err
		}
		instances[i] = inst
		points = append(points, inst.PublicPoint()...)
	}

	c.instances = instances
	c.delta = delta

	return &Setup{
		PointsB: points,
		Delta:   delta,
	}, nil
}

// Delta returns the correlation value of the current session.
func (c *COT) Delta() uint32 {
	return c.delta
}

// Multiply runs all bit transfers for the receiver value y. pointsA
// holds the 32 sender points, e0 and e1 the two ciphertext columns.
// Bit i of y selects the ciphertext; the recovered message is the
// little-endian uint32 in the first four plaintext bytes and is
// accumulated with weight 2^i.
func (c *COT) Multiply(y uint32, pointsA, e0, e1 []byte) (uint32, error) {
	if len(c.instances) != BitLength {
		return 0, ErrNotInitialized
	}
	if len(pointsA) != PointsSize ||
		len(e0) != MessagesSize || len(e1) != MessagesSize {
		return 0, ErrLengthMismatch
	}

	var v uint32
	for i := 0; i < BitLength; i++ {
		enc := e0[i*MessageSize : (i+1)*MessageSize]
		if (y>>uint(i))&1 == 1 {
			enc = e1[i*MessageSize : (i+1)*MessageSize]
		}
		plain, err := c.instances[i].Decrypt(
			pointsA[i*PointSize:(i+1)*PointSize], enc)
		if err != nil {
			return 0, err
		}
		m := binary.LittleEndian.Uint32(plain[:4])
		v += m << uint(i)
	}
	return v, nil
}

// Wipe clears all instance scalars.
func (c *COT) Wipe() {
	for _, inst := range c.instances {
		inst.Wipe()
	}
	c.instances = nil
	c.delta = 0
}
