package vbus

import (
	"github.com/golang/glog"
)

// DecodeState identifies where the decoder is in the packet grammar.
type DecodeState int

const (
	// StateSyncHunt means the decoder is discarding bytes until a sync byte.
	StateSyncHunt DecodeState = iota
	// StateHeader means the decoder is collecting the 9-byte header block.
	StateHeader
	// StateFrame means the decoder is collecting 6-byte frame blocks.
	StateFrame
)

// DecodeResult is the outcome of consuming one byte.
type DecodeResult struct {
	State  DecodeState
	Packet *Packet
}

// Decoder is the packet framing state machine. It consumes one byte at a
// time and assembles validated packets; it performs no I/O. The zero value
// is ready to use, hunting for sync.
type Decoder struct {
	state  DecodeState
	buf    [WireHeaderLen]byte
	n      int
	packet *Packet
	frames int
}

// State gets the current decode state.
func (d *Decoder) State() DecodeState {
	return d.state
}

// Reset discards any packet in progress and resumes the sync hunt.
func (d *Decoder) Reset() {
	d.state = StateSyncHunt
	d.n = 0
	d.packet = nil
	d.frames = 0
}

// Decode consumes one byte. The result carries the state after the byte and,
// when the byte completed a fully validated packet, the packet itself.
func (d *Decoder) Decode(b byte) (dr DecodeResult) {
	dr.Packet = d.decodeByte(b)
	dr.State = d.state
	return
}

func (d *Decoder) decodeByte(b byte) *Packet {
	switch d.state {
	case StateSyncHunt:
		if b == Sync {
			d.state, d.n = StateHeader, 0
		}
	case StateHeader:
		if b&0x80 != 0 {
			return d.resync(b)
		}
		d.buf[d.n] = b
		if d.n++; d.n < WireHeaderLen {
			return nil
		}
		if !checksumOK(d.buf[:WireHeaderLen]) {
			glog.V(5).Info("header checksum mismatch, resyncing")
			d.Reset()
			return nil
		}
		d.packet = &Packet{
			Destination:      uint16(d.buf[0]) | uint16(d.buf[1])<<8,
			Source:           uint16(d.buf[2]) | uint16(d.buf[3])<<8,
			ProtocolRevision: d.buf[4],
			Command:          uint16(d.buf[5]) | uint16(d.buf[6])<<8,
			FrameCount:       d.buf[7],
			Payload:          make([]byte, 0, FrameDataLen*int(d.buf[7])),
		}
		if d.packet.FrameCount == 0 {
			return d.packetReady()
		}
		d.state, d.n, d.frames = StateFrame, 0, 0
	case StateFrame:
		if b&0x80 != 0 {
			return d.resync(b)
		}
		d.buf[d.n] = b
		if d.n++; d.n < WireFrameLen {
			return nil
		}
		if !checksumOK(d.buf[:WireFrameLen]) {
			glog.V(5).Info("frame checksum mismatch, resyncing")
			d.Reset()
			return nil
		}
		msb := d.buf[FrameDataLen]
		for i := 0; i < FrameDataLen; i++ {
			v := d.buf[i]
			if msb&(1<<uint(i)) != 0 {
				v |= 0x80
			}
			d.packet.Payload = append(d.packet.Payload, v)
		}
		d.n = 0
		if d.frames++; d.frames >= int(d.packet.FrameCount) {
			return d.packetReady()
		}
	}
	return nil
}

// resync handles a byte with bit 7 set observed inside a block. The packet
// in progress is lost, but the offending byte is re-examined as a sync
// candidate: when a real sync byte cuts a corrupted packet short, the next
// packet starts with zero extra loss.
func (d *Decoder) resync(b byte) *Packet {
	d.Reset()
	return d.decodeByte(b)
}

func (d *Decoder) packetReady() (pkt *Packet) {
	pkt, d.packet = d.packet, nil
	d.state = StateSyncHunt
	return
}
