package vbus

// Sync is the marker byte announcing the start of a packet. It is the only
// byte on the wire with bit 7 set.
const Sync byte = 0xaa

// Wire block sizes, excluding the sync byte.
const (
	// WireHeaderLen is the header block size: two address words, protocol
	// revision, command word, frame count and checksum.
	WireHeaderLen = 9
	// WireFrameLen is the frame block size: four data bytes, the high-bit
	// mask and checksum.
	WireFrameLen = 6
	// FrameDataLen is the number of payload bytes carried per frame.
	FrameDataLen = 4
)

// Packet contains the information of a decoded packet.
type Packet struct {
	Destination      uint16
	Source           uint16
	ProtocolRevision byte
	Command          uint16
	FrameCount       byte
	Payload          []byte
}

// Checksum computes the additive checksum of a wire block: the 8-bit sum of
// the block's bytes, negated, with bit 7 cleared. It is a plain checksum for
// catching line noise, not a CRC.
func Checksum(block []byte) byte {
	var sum byte
	for _, b := range block {
		sum += b
	}
	return ^sum & 0x7f
}

// checksumOK reports whether the last byte of block is the checksum of the
// preceding bytes.
func checksumOK(block []byte) bool {
	return Checksum(block[:len(block)-1]) == block[len(block)-1]
}

// Bytes returns the wire encoding of the packet, sync byte included. Header
// bytes are masked to 7 bits and bit 7 of each payload byte is extracted
// into the frame's mask byte, so the result always satisfies the high-bit
// rule. Payload bytes beyond FrameCount frames are ignored; missing ones
// encode as zero.
func (p *Packet) Bytes() []byte {
	b := make([]byte, 0, 1+WireHeaderLen+int(p.FrameCount)*WireFrameLen)
	b = append(b,
		Sync,
		byte(p.Destination)&0x7f, byte(p.Destination>>8)&0x7f,
		byte(p.Source)&0x7f, byte(p.Source>>8)&0x7f,
		p.ProtocolRevision&0x7f,
		byte(p.Command)&0x7f, byte(p.Command>>8)&0x7f,
		p.FrameCount&0x7f,
	)
	b = append(b, Checksum(b[1:]))

	for i := 0; i < int(p.FrameCount); i++ {
		var frame [WireFrameLen]byte
		for j := 0; j < FrameDataLen; j++ {
			var d byte
			if n := i*FrameDataLen + j; n < len(p.Payload) {
				d = p.Payload[n]
			}
			if d&0x80 != 0 {
				frame[FrameDataLen] |= 1 << uint(j)
			}
			frame[j] = d & 0x7f
		}
		frame[WireFrameLen-1] = Checksum(frame[:WireFrameLen-1])
		b = append(b, frame[:]...)
	}
	return b
}
