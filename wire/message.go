//
// message.go
//
// Copyright (c) 2025 Dyslex7c
//
// All rights reserved.
//

// Package wire implements the framed transport and the message codec
// of the MtA protocol. Payloads are protobuf wire format (package
// mta of the original schema), hand-encoded with
// google.golang.org/protobuf/encoding/protowire; frames carry a
// little-endian uint32 length prefix.
package wire

import (
	"encoding/binary"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/Dyslex7c/mta-cot-protocol-tcp/ot"
)

// Field numbers of the protocol messages.
const (
	fieldDeltaValue = 1

	fieldSetupSuccess      = 1
	fieldSetupOTMessages   = 2
	fieldSetupPublicKey    = 3
	fieldSetupNumInstances = 4

	fieldAliceMaskedShare     = 1
	fieldAliceOTChoices       = 2
	fieldAliceEncryptedShares = 3

	fieldBobSuccess          = 1
	fieldBobOTResponses      = 2
	fieldBobEncryptedResult  = 3
	fieldBobCorrelationCheck = 4
	fieldBobMaskedShare      = 5
)

// MaxPublicKeySize bounds the BobSetup public key field.
const MaxPublicKeySize = 256

// rawAliceSize is the length of the unstructured AliceMessages
// layout: success byte, masked share, sender points, two ciphertext
// columns.
const rawAliceSize = 1 + 4 + ot.PointsSize + 2*ot.MessagesSize

var (
	// ErrBadShares is returned when the encrypted share list has an
	// unsupported layout.
	ErrBadShares = errors.New("wire: unsupported encrypted share layout")

	// ErrPublicKeySize is returned when a public key exceeds
	// MaxPublicKeySize.
	ErrPublicKeySize = errors.New("wire: public key too large")
)

// CorrelationDelta is the first protocol message, Alice to Bob.
type CorrelationDelta struct {
	Delta uint32
}

// Encode serializes the message payload.
func (m *CorrelationDelta) Encode() []byte {
	var buf []byte
	if m.Delta != 0 {
		buf = protowire.AppendTag(buf, fieldDeltaValue, protowire.VarintType)
		buf = protowire.AppendVarint(buf, uint64(m.Delta))
	}
	return buf
}

// Decode parses the message payload.
func (m *CorrelationDelta) Decode(data []byte) error {
	*m = CorrelationDelta{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return errors.Wrap(protowire.ParseError(n), "correlation delta")
		}
		data = data[n:]

		if num == fieldDeltaValue && typ == protowire.VarintType {
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return errors.Wrap(protowire.ParseError(n),
					"correlation delta")
			}
			m.Delta = uint32(v)
			data = data[n:]
			continue
		}
		n = protowire.ConsumeFieldValue(num, typ, data)
		if n < 0 {
			return errors.Wrap(protowire.ParseError(n), "correlation delta")
		}
		data = data[n:]
	}
	return nil
}

// BobSetup is the second protocol message, Bob to Alice: the 32 OT
// instance points, the instance count, and the public key field.
type BobSetup struct {
	Success        bool
	OTMessages     [][]byte
	PublicKey      []byte
	NumOTInstances uint32
}

// Encode serializes the message payload.
func (m *BobSetup) Encode() ([]byte, error) {
	if len(m.PublicKey) > MaxPublicKeySize {
		return nil, ErrPublicKeySize
	}
	var buf []byte
	if m.Success {
		buf = protowire.AppendTag(buf, fieldSetupSuccess, protowire.VarintType)
		buf = protowire.AppendVarint(buf, 1)
	}
	for _, msg := range m.OTMessages {
		buf = protowire.AppendTag(buf, fieldSetupOTMessages,
			protowire.BytesType)
		buf = protowire.AppendBytes(buf, msg)
	}
	if len(m.PublicKey) > 0 {
		buf = protowire.AppendTag(buf, fieldSetupPublicKey,
			protowire.BytesType)
		buf = protowire.AppendBytes(buf, m.PublicKey)
	}
	if m.NumOTInstances != 0 {
		buf = protowire.AppendTag(buf, fieldSetupNumInstances,
			protowire.VarintType)
		buf = protowire.AppendVarint(buf, uint64(m.NumOTInstances))
	}
	return buf, nil
}

// Decode parses the message payload.
func (m *BobSetup) Decode(data []byte) error {
	*m = BobSetup{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return errors.Wrap(protowire.ParseError(n), "bob setup")
		}
		data = data[n:]

		switch {
		case num == fieldSetupSuccess && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return errors.Wrap(protowire.ParseError(n), "bob setup")
			}
			m.Success = v != 0
			data = data[n:]

		case num == fieldSetupOTMessages && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return errors.Wrap(protowire.ParseError(n), "bob setup")
			}
			m.OTMessages = append(m.OTMessages, append([]byte(nil), v...))
			data = data[n:]

		case num == fieldSetupPublicKey && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return errors.Wrap(protowire.ParseError(n), "bob setup")
			}
			if len(v) > MaxPublicKeySize {
				return ErrPublicKeySize
			}
			m.PublicKey = append([]byte(nil), v...)
			data = data[n:]

		case num == fieldSetupNumInstances && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return errors.Wrap(protowire.ParseError(n), "bob setup")
			}
			m.NumOTInstances = uint32(v)
			data = data[n:]

		default:
			n = protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return errors.Wrap(protowire.ParseError(n), "bob setup")
			}
			data = data[n:]
		}
	}
	return nil
}

// AliceMessages is the third protocol message, Alice to Bob. Two
// layouts exist in the original ecosystem: the structured schema
// (masked share, choice bits, encrypted share list) and an
// unstructured layout that additionally carries the sender points.
// Decode accepts both; PointsA, E0 and E1 are only populated by the
// unstructured layout. Shares returns the ciphertext columns for
// either layout without storing them in E0 and E1.
type AliceMessages struct {
	Success         bool
	MaskedShare     uint32
	OTChoices       []bool
	EncryptedShares [][]byte

	PointsA []byte
	E0      []byte
	E1      []byte
}

// Encode serializes the structured form of the message.
func (m *AliceMessages) Encode() []byte {
	var buf []byte
	if m.MaskedShare != 0 {
		buf = protowire.AppendTag(buf, fieldAliceMaskedShare,
			protowire.VarintType)
		buf = protowire.AppendVarint(buf, uint64(m.MaskedShare))
	}
	if len(m.OTChoices) > 0 {
		// Packed encoding; one byte per bool.
		buf = protowire.AppendTag(buf, fieldAliceOTChoices,
			protowire.BytesType)
		buf = protowire.AppendVarint(buf, uint64(len(m.OTChoices)))
		for _, c := range m.OTChoices {
			if c {
				buf = append(buf, 1)
			} else {
				buf = append(buf, 0)
			}
		}
	}
	for _, share := range m.EncryptedShares {
		buf = protowire.AppendTag(buf, fieldAliceEncryptedShares,
			protowire.BytesType)
		buf = protowire.AppendBytes(buf, share)
	}
	return buf
}

// EncodeRaw serializes the unstructured form: success byte, masked
// share, sender points, both ciphertext columns.
func (m *AliceMessages) EncodeRaw() []byte {
	buf := make([]byte, 0, rawAliceSize)
	if m.Success {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	var share [4]byte
	binary.LittleEndian.PutUint32(share[:], m.MaskedShare)
	buf = append(buf, share[:]...)
	buf = append(buf, m.PointsA...)
	buf = append(buf, m.E0...)
	buf = append(buf, m.E1...)
	return buf
}

// Decode parses either layout. The unstructured layout is recognized
// by its exact fixed size.
func (m *AliceMessages) Decode(data []byte) error {
	if len(data) == rawAliceSize {
		return m.decodeRaw(data)
	}
	return m.decodeProto(data)
}

func (m *AliceMessages) decodeRaw(data []byte) error {
	*m = AliceMessages{}
	m.Success = data[0] == 1
	m.MaskedShare = binary.LittleEndian.Uint32(data[1:5])

	off := 5
	m.PointsA = append([]byte(nil), data[off:off+ot.PointsSize]...)
	off += ot.PointsSize
	m.E0 = append([]byte(nil), data[off:off+ot.MessagesSize]...)
	off += ot.MessagesSize
	m.E1 = append([]byte(nil), data[off:off+ot.MessagesSize]...)
	return nil
}

func (m *AliceMessages) decodeProto(data []byte) error {
	*m = AliceMessages{Success: true}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return errors.Wrap(protowire.ParseError(n), "alice messages")
		}
		data = data[n:]

		switch {
		case num == fieldAliceMaskedShare && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return errors.Wrap(protowire.ParseError(n), "alice messages")
			}
			m.MaskedShare = uint32(v)
			data = data[n:]

		case num == fieldAliceOTChoices && typ == protowire.VarintType:
			// Unpacked repeated bool.
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return errors.Wrap(protowire.ParseError(n), "alice messages")
			}
			m.OTChoices = append(m.OTChoices, v != 0)
			data = data[n:]

		case num == fieldAliceOTChoices && typ == protowire.BytesType:
			// Packed repeated bool.
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return errors.Wrap(protowire.ParseError(n), "alice messages")
			}
			for len(v) > 0 {
				b, bn := protowire.ConsumeVarint(v)
				if bn < 0 {
					return errors.Wrap(protowire.ParseError(bn),
						"alice messages")
				}
				m.OTChoices = append(m.OTChoices, b != 0)
				v = v[bn:]
			}
			data = data[n:]

		case num == fieldAliceEncryptedShares && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return errors.Wrap(protowire.ParseError(n), "alice messages")
			}
			m.EncryptedShares = append(m.EncryptedShares,
				append([]byte(nil), v...))
			data = data[n:]

		default:
			n = protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return errors.Wrap(protowire.ParseError(n), "alice messages")
			}
			data = data[n:]
		}
	}
	return nil
}

// Shares normalizes the encrypted share list into the two ciphertext
// columns. Supported layouts: 64 32-byte elements interleaved per
// instance (element 2i is E0[i], element 2i+1 is E1[i]) and the
// legacy pair of whole 1024-byte columns. A message decoded from the
// unstructured layout returns its columns directly.
func (m *AliceMessages) Shares() (e0, e1 []byte, err error) {
	if len(m.E0) == ot.MessagesSize && len(m.E1) == ot.MessagesSize {
		return m.E0, m.E1, nil
	}

	switch len(m.EncryptedShares) {
	case 2 * ot.BitLength:
		e0 = make([]byte, 0, ot.MessagesSize)
		e1 = make([]byte, 0, ot.MessagesSize)
		for i := 0; i < ot.BitLength; i++ {
			s0 := m.EncryptedShares[2*i]
			s1 := m.EncryptedShares[2*i+1]
			if len(s0) != ot.MessageSize || len(s1) != ot.MessageSize {
				return nil, nil, ErrBadShares
			}
			e0 = append(e0, s0...)
			e1 = append(e1, s1...)
		}
		return e0, e1, nil

	case 2:
		s0, s1 := m.EncryptedShares[0], m.EncryptedShares[1]
		if len(s0) != ot.MessagesSize || len(s1) != ot.MessagesSize {
			return nil, nil, ErrBadShares
		}
		return s0, s1, nil
	}
	return nil, nil, ErrBadShares
}

// BobMessages is the final protocol message, Bob to Alice.
type BobMessages struct {
	Success          bool
	OTResponses      [][]byte
	EncryptedResult  []byte
	CorrelationCheck uint32
	MaskedShare      uint32
}

// Encode serializes the message payload.
func (m *BobMessages) Encode() []byte {
	var buf []byte
	if m.Success {
		buf = protowire.AppendTag(buf, fieldBobSuccess, protowire.VarintType)
		buf = protowire.AppendVarint(buf, 1)
	}
	for _, resp := range m.OTResponses {
		buf = protowire.AppendTag(buf, fieldBobOTResponses,
			protowire.BytesType)
		buf = protowire.AppendBytes(buf, resp)
	}
	if len(m.EncryptedResult) > 0 {
		buf = protowire.AppendTag(buf, fieldBobEncryptedResult,
			protowire.BytesType)
		buf = protowire.AppendBytes(buf, m.EncryptedResult)
	}
	if m.CorrelationCheck != 0 {
		buf = protowire.AppendTag(buf, fieldBobCorrelationCheck,
			protowire.VarintType)
		buf = protowire.AppendVarint(buf, uint64(m.CorrelationCheck))
	}
	if m.MaskedShare != 0 {
		buf = protowire.AppendTag(buf, fieldBobMaskedShare,
			protowire.VarintType)
		buf = protowire.AppendVarint(buf, uint64(m.MaskedShare))
	}
	return buf
}

// Decode parses the message payload.
func (m *BobMessages) Decode(data []byte) error {
	*m = BobMessages{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return errors.Wrap(protowire.ParseError(n), "bob messages")
		}
		data = data[n:]

		switch {
		case num == fieldBobSuccess && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return errors.Wrap(protowire.ParseError(n), "bob messages")
			}
			m.Success = v != 0
			data = data[n:]

		case num == fieldBobOTResponses && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return errors.Wrap(protowire.ParseError(n), "bob messages")
			}
			m.OTResponses = append(m.OTResponses, append([]byte(nil), v...))
			data = data[n:]

		case num == fieldBobEncryptedResult && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return errors.Wrap(protowire.ParseError(n), "bob messages")
			}
			m.EncryptedResult = append([]byte(nil), v...)
			data = data[n:]

		case num == fieldBobCorrelationCheck && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return errors.Wrap(protowire.ParseError(n), "bob messages")
			}
			m.CorrelationCheck = uint32(v)
			data = data[n:]

		case num == fieldBobMaskedShare && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return errors.Wrap(protowire.ParseError(n), "bob messages")
			}
			m.MaskedShare = uint32(v)
			data = data[n:]

		default:
			n = protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return errors.Wrap(protowire.ParseError(n), "bob messages")
			}
			data = data[n:]
		}
	}
	return nil
}
