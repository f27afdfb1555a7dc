package vbus

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChecksum(t *testing.T) {
	testCases := []struct {
		name  string
		block []byte
		crc   byte
	}{
		{"empty", nil, 0x7f},
		{"single", []byte{0x01}, 0x7e},
		{"header", []byte{0x01, 0x00, 0x02, 0x00, 0x01, 0x10, 0x00, 0x01}, 0x6a},
		{"frame", []byte{0x11, 0x22, 0x33, 0x44, 0x00}, 0x55},
		{"frame with msb", []byte{0x11, 0x22, 0x33, 0x44, 0x01}, 0x54},
		{"wraparound", []byte{0xff, 0xff, 0xff}, ^byte(0xfd) & 0x7f},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.crc, Checksum(tc.block))
			require.True(t, checksumOK(append(tc.block, tc.crc)))
			require.False(t, checksumOK(append(tc.block, tc.crc^0x01)))
		})
	}
}

func TestPacketBytes(t *testing.T) {
	pkt := &Packet{
		Destination:      0x0001,
		Source:           0x0002,
		ProtocolRevision: 0x01,
		Command:          0x0010,
		FrameCount:       1,
		Payload:          []byte{0x11, 0x22, 0x33, 0x44},
	}
	require.Equal(t, []byte{
		0xaa,
		0x01, 0x00, 0x02, 0x00, 0x01, 0x10, 0x00, 0x01, 0x6a,
		0x11, 0x22, 0x33, 0x44, 0x00, 0x55,
	}, pkt.Bytes())
}

func TestPacketBytesHighBits(t *testing.T) {
	pkt := &Packet{
		Destination: 0x0010,
		Source:      0x7e20,
		Command:     0x0300,
		FrameCount:  1,
		Payload:     []byte{0x91, 0x22, 0xb3, 0xc4},
	}
	b := pkt.Bytes()
	require.Len(t, b, 1+WireHeaderLen+WireFrameLen)
	for _, c := range b[1:] {
		require.Less(t, c, byte(0x80))
	}
	// bits 0, 2 and 3 of the mask byte carry the stripped high bits
	require.Equal(t, []byte{0x11, 0x22, 0x33, 0x44, 0x0d}, b[10:15])
}

func TestPacketBytesNoFrames(t *testing.T) {
	pkt := &Packet{Destination: 0x0001, FrameCount: 0}
	require.Len(t, pkt.Bytes(), 1+WireHeaderLen)
}
