//
// ot.go
//
// Copyright (c) 2025 Dyslex7c
//
// All rights reserved.
//
// Chou Orlandi style base OT over secp256k1.
//  - https://eprint.iacr.org/2015/267.pdf
//

// Package ot implements the oblivious transfer bit instances and the
// correlated OT engine used by the multiplicative-to-additive share
// conversion. The receiver publishes B = bG and derives the transfer
// key from the X coordinate of bA. The key is the raw 32-byte
// coordinate and the transfer messages are 32 bytes, so decryption is
// a plain XOR without a KDF; peers depend on this exact derivation.
package ot

import (
	"crypto/elliptic"
	"crypto/rand"
	"fmt"
	"io"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
)

// Sizes of the fixed-width protocol quantities, in bytes.
const (
	// ScalarSize is the length of a big-endian secp256k1 scalar.
	ScalarSize = 32

	// PointSize is the length of an uncompressed curve point
	// (0x04 prefix, X, Y).
	PointSize = 65

	// KeySize is the length of a derived transfer key.
	KeySize = 32

	// MessageSize is the length of an encrypted transfer message.
	MessageSize = 32
)

var (
	// ErrInvalidPoint is returned when a peer point does not decode
	// to a point on secp256k1.
	ErrInvalidPoint = fmt.Errorf("ot: invalid curve point")

	// ErrNotInitialized is returned when a transfer is attempted
	// before setup.
	ErrNotInitialized = fmt.Errorf("ot: not initialized")
)

// Curve returns the secp256k1 curve all instances operate on.
func Curve() elliptic.Curve {
	return btcec.S256()
}

// RandomScalar returns a uniform scalar in [1, n) where n is the
// secp256k1 group order. The scalar is encoded as 32 big-endian
// bytes.
func RandomScalar(rng io.Reader) ([]byte, error) {
	if rng == nil {
		rng = rand.Reader
	}
	n := Curve().Params().N
	for {
		k, err := rand.Int(rng, n)
		if err != nil {
			return nil, err
		}
		if k.Sign() == 0 {
			continue
		}
		buf := make([]byte, ScalarSize)
		k.FillBytes(buf)
		return buf, nil
	}
}

// EncodePoint encodes the point (x, y) in uncompressed form.
func EncodePoint(x, y *big.Int) []byte {
	buf := make([]byte, PointSize)
	buf[0] = 0x04
	x.FillBytes(buf[1:33])
	y.FillBytes(buf[33:])
	return buf
}

// DecodePoint decodes an uncompressed point and verifies that it is
// on secp256k1. The identity is rejected.
func DecodePoint(data []byte) (x, y *big.Int, err error) {
	if len(data) != PointSize || data[0] != 0x04 {
		return nil, nil, ErrInvalidPoint
	}
	x = new(big.Int).SetBytes(data[1:33])
	y = new(big.Int).SetBytes(data[33:])

	p := Curve().Params().P
	if x.Cmp(p) >= 0 || y.Cmp(p) >= 0 {
		return nil, nil, ErrInvalidPoint
	}
	if x.Sign() == 0 && y.Sign() == 0 {
		return nil, nil, ErrInvalidPoint
	}
	if !Curve().IsOnCurve(x, y) {
		return nil, nil, ErrInvalidPoint
	}
	return x, y, nil
}

// BitInstance is the receiver side of one base OT. It holds the
// ephemeral scalar b for the lifetime of a session.
type BitInstance struct {
	b  []byte
	bx *big.Int
	by *big.Int
}

// NewBitInstance creates an instance with a fresh scalar and computes
// its public point B = bG.
func NewBitInstance(rng io.Reader) (*BitInstance, error) {
	b, err := RandomScalar(rng)
	if err != nil {
		return nil, err
	}
	bx, by := Curve().ScalarBaseMult(b)
	return &BitInstance{
		b:  b,
		bx: bx,
		by: by,
	}, nil
}

// PublicPoint returns the 65-byte encoding of B.
func (bi *BitInstance) PublicPoint() []byte {
	return EncodePoint(bi.bx, bi.by)
}

// Scalar returns the instance scalar. The caller must not retain the
// slice past the instance lifetime.
func (bi *BitInstance) Scalar() []byte {
	return bi.b
}

// SharedKey computes the transfer key X(b*A) for the peer point A.
func (bi *BitInstance) SharedKey(pointA []byte) ([]byte, error) {
	ax, ay, err := DecodePoint(pointA)
	if err != nil {
		return nil, err
	}
	sx, _ := Curve().ScalarMult(ax, ay, bi.b)
	key := make([]byte, KeySize)
	sx.FillBytes(key)
	return key, nil
}

// Decrypt XORs the encrypted transfer message with the key derived
// from the peer point and returns the 32-byte plaintext.
func (bi *BitInstance) Decrypt(pointA, encrypted []byte) ([]byte, error) {
	if len(encrypted) != MessageSize {
		return nil, fmt.Errorf("ot: message length %d, expected %d",
			len(encrypted), MessageSize)
	}
	key, err := bi.SharedKey(pointA)
	if err != nil {
		return nil, err
	}
	plain := make([]byte, MessageSize)
	xorBytes(plain, encrypted, key)
	return plain, nil
}

// Wipe clears the instance scalar.
func (bi *BitInstance) Wipe() {
	for i := range bi.b {
		bi.b[i] = 0
	}
	bi.bx = nil
	bi.by = nil
}

func xorBytes(dst, src, key []byte) {
	for i := range dst {
		dst[i] = src[i] ^ key[i%KeySize]
	}
}
