//
// message_test.go
//
// Copyright (c) 2025 Dyslex7c
//
// All rights reserved.
//

package wire

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Dyslex7c/mta-cot-protocol-tcp/ot"
)

func TestCorrelationDeltaRoundTrip(t *testing.T) {
	msg := &CorrelationDelta{Delta: 123456}
	encoded := msg.Encode()

	var decoded CorrelationDelta
	require.NoError(t, decoded.Decode(encoded))
	require.Equal(t, msg.Delta, decoded.Delta)
}

func TestCorrelationDeltaGolden(t *testing.T) {
	msg := &CorrelationDelta{Delta: 5}
	// Field 1, varint, value 5.
	require.Equal(t, []byte{0x08, 0x05}, msg.Encode())

	var decoded CorrelationDelta
	require.NoError(t, decoded.Decode([]byte{0x08, 0x05}))
	require.Equal(t, uint32(5), decoded.Delta)
}

func TestCorrelationDeltaEmpty(t *testing.T) {
	// proto3: zero value is absent.
	msg := &CorrelationDelta{}
	require.Empty(t, msg.Encode())

	var decoded CorrelationDelta
	require.NoError(t, decoded.Decode(nil))
	require.Equal(t, uint32(0), decoded.Delta)
}

func TestCorrelationDeltaMalformed(t *testing.T) {
	var decoded CorrelationDelta
	// Tag without a value.
	require.Error(t, decoded.Decode([]byte{0x08}))
	// Truncated varint.
	require.Error(t, decoded.Decode([]byte{0x08, 0x80}))
}

func TestBobSetupRoundTrip(t *testing.T) {
	points := make([][]byte, ot.BitLength)
	for i := range points {
		points[i] = bytes.Repeat([]byte{byte(i)}, ot.PointSize)
	}
	msg := &BobSetup{
		Success:        true,
		OTMessages:     points,
		PublicKey:      []byte{0, 1, 2, 3, 4},
		NumOTInstances: ot.BitLength,
	}
	encoded, err := msg.Encode()
	require.NoError(t, err)

	var decoded BobSetup
	require.NoError(t, decoded.Decode(encoded))
	require.Equal(t, msg.Success, decoded.Success)
	require.Equal(t, msg.OTMessages, decoded.OTMessages)
	require.Equal(t, msg.PublicKey, decoded.PublicKey)
	require.Equal(t, msg.NumOTInstances, decoded.NumOTInstances)
}

func TestBobSetupPublicKeyLimit(t *testing.T) {
	msg := &BobSetup{
		Success:   true,
		PublicKey: make([]byte, MaxPublicKeySize+1),
	}
	_, err := msg.Encode()
	require.ErrorIs(t, err, ErrPublicKeySize)
}

func TestBobSetupUnknownField(t *testing.T) {
	msg := &BobSetup{Success: true, NumOTInstances: 32}
	encoded, err := msg.Encode()
	require.NoError(t, err)

	// Field 15, varint: unknown, must be skipped.
	encoded = append(encoded, 0x78, 0x07)

	var decoded BobSetup
	require.NoError(t, decoded.Decode(encoded))
	require.True(t, decoded.Success)
	require.Equal(t, uint32(32), decoded.NumOTInstances)
}

func TestAliceMessagesProtoRoundTrip(t *testing.T) {
	choices := make([]bool, ot.BitLength)
	shares := make([][]byte, 2*ot.BitLength)
	for i := range choices {
		choices[i] = i%3 == 0
	}
	for i := range shares {
		shares[i] = bytes.Repeat([]byte{byte(i)}, ot.MessageSize)
	}
	msg := &AliceMessages{
		MaskedShare:     0xdeadbeef,
		OTChoices:       choices,
		EncryptedShares: shares,
	}
	encoded := msg.Encode()

	var decoded AliceMessages
	require.NoError(t, decoded.Decode(encoded))
	require.True(t, decoded.Success)
	require.Equal(t, msg.MaskedShare, decoded.MaskedShare)
	require.Equal(t, msg.OTChoices, decoded.OTChoices)
	require.Equal(t, msg.EncryptedShares, decoded.EncryptedShares)
}

func TestAliceMessagesUnpackedChoices(t *testing.T) {
	// Unpacked repeated bool: one tagged varint per element.
	data := []byte{
		0x10, 0x01, // field 2, varint, true
		0x10, 0x00, // field 2, varint, false
		0x10, 0x01, // field 2, varint, true
	}
	var decoded AliceMessages
	require.NoError(t, decoded.Decode(data))
	require.Equal(t, []bool{true, false, true}, decoded.OTChoices)
}

func TestAliceMessagesRawRoundTrip(t *testing.T) {
	msg := &AliceMessages{
		Success:     true,
		MaskedShare: 0x01020304,
		PointsA:     bytes.Repeat([]byte{0xaa}, ot.PointsSize),
		E0:          bytes.Repeat([]byte{0xbb}, ot.MessagesSize),
		E1:          bytes.Repeat([]byte{0xcc}, ot.MessagesSize),
	}
	encoded := msg.EncodeRaw()
	require.Len(t, encoded, rawAliceSize)

	var decoded AliceMessages
	require.NoError(t, decoded.Decode(encoded))
	require.True(t, decoded.Success)
	require.Equal(t, msg.MaskedShare, decoded.MaskedShare)
	require.Equal(t, msg.PointsA, decoded.PointsA)

	e0, e1, err := decoded.Shares()
	require.NoError(t, err)
	require.Equal(t, msg.E0, e0)
	require.Equal(t, msg.E1, e1)
}

func TestAliceMessagesSharesInterleaved(t *testing.T) {
	shares := make([][]byte, 2*ot.BitLength)
	for i := range shares {
		shares[i] = bytes.Repeat([]byte{byte(i)}, ot.MessageSize)
	}
	msg := &AliceMessages{EncryptedShares: shares}

	e0, e1, err := msg.Shares()
	require.NoError(t, err)
	require.Len(t, e0, ot.MessagesSize)
	require.Len(t, e1, ot.MessagesSize)
	for i := 0; i < ot.BitLength; i++ {
		require.Equal(t, shares[2*i],
			e0[i*ot.MessageSize:(i+1)*ot.MessageSize])
		require.Equal(t, shares[2*i+1],
			e1[i*ot.MessageSize:(i+1)*ot.MessageSize])
	}
}

func TestAliceMessagesSharesLegacy(t *testing.T) {
	msg := &AliceMessages{
		EncryptedShares: [][]byte{
			bytes.Repeat([]byte{0x01}, ot.MessagesSize),
			bytes.Repeat([]byte{0x02}, ot.MessagesSize),
		},
	}
	e0, e1, err := msg.Shares()
	require.NoError(t, err)
	require.Equal(t, msg.EncryptedShares[0], e0)
	require.Equal(t, msg.EncryptedShares[1], e1)
}

func TestAliceMessagesSharesBadLayout(t *testing.T) {
	msg := &AliceMessages{
		EncryptedShares: [][]byte{{0x01}},
	}
	_, _, err := msg.Shares()
	require.ErrorIs(t, err, ErrBadShares)

	// Right count, wrong element size.
	shares := make([][]byte, 2*ot.BitLength)
	for i := range shares {
		shares[i] = []byte{0x01}
	}
	msg = &AliceMessages{EncryptedShares: shares}
	_, _, err = msg.Shares()
	require.ErrorIs(t, err, ErrBadShares)
}

func TestBobMessagesRoundTrip(t *testing.T) {
	msg := &BobMessages{
		Success:          true,
		OTResponses:      [][]byte{{0x01, 0x02}, {0x03}},
		EncryptedResult:  []byte{0x0a, 0x0b},
		CorrelationCheck: 0xcafebabe,
		MaskedShare:      0x12345678,
	}
	encoded := msg.Encode()

	var decoded BobMessages
	require.NoError(t, decoded.Decode(encoded))
	require.Equal(t, msg, &decoded)
}

func TestBobMessagesMinimal(t *testing.T) {
	// The response the server actually sends: success, masked share,
	// correlation check.
	msg := &BobMessages{
		Success:          true,
		MaskedShare:      77,
		CorrelationCheck: 3,
	}
	encoded := msg.Encode()

	var decoded BobMessages
	require.NoError(t, decoded.Decode(encoded))
	require.True(t, decoded.Success)
	require.Equal(t, uint32(77), decoded.MaskedShare)
	require.Equal(t, uint32(3), decoded.CorrelationCheck)
	require.Empty(t, decoded.OTResponses)
	require.Empty(t, decoded.EncryptedResult)
}
