//
// prg.go
//
// Copyright (c) 2025 Dyslex7c
//
// All rights reserved.
//

package ot

import (
	"golang.org/x/crypto/chacha20"
)

// PRG is a deterministic random byte stream built on the ChaCha20
// keystream. It implements io.Reader and stands in for crypto/rand in
// tests and debugging runs that need reproducible scalars and masks.
type PRG struct {
	cipher *chacha20.Cipher
}

// NewPRG creates a PRG from a seed of any length. The seed is
// expanded/trimmed deterministically to the 32-byte ChaCha20 key; the
// nonce is zero so equal seeds give equal streams.
func NewPRG(seed []byte) *PRG {
	key := make([]byte, chacha20.KeySize)
	for i := 0; i < len(key); i++ {
		key[i] = seed[i%len(seed)]
	}
	nonce := make([]byte, chacha20.NonceSize)
	c, err := chacha20.NewUnauthenticatedCipher(key, nonce)
	if err != nil {
		// Key and nonce sizes are correct by construction.
		panic(err)
	}
	return &PRG{
		cipher: c,
	}
}

// Read fills p with keystream bytes. It never fails.
func (prg *PRG) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	prg.cipher.XORKeyStream(p, p)
	return len(p), nil
}
