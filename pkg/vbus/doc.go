// Package vbus decodes packets from a VBus serial link.
package vbus

// VBus is an RS-485-like half-duplex bus: one differential pair, and only
// the master talks unless a slave answers a master command. This package is
// the receive side only. It turns the raw byte stream into validated packets
// and delivers them to a handler from a dedicated reader goroutine.
//
// On the wire a packet is SYNC HEADER FRAME*. The sync byte is 0xAA and is
// the only byte allowed to have bit 7 set; every header and frame byte
// carries 7 bits, with the missing high bit of the frame data bytes packed
// into a side-channel mask byte. Each block ends with an additive checksum.
// Any checksum or high-bit violation drops the packet in progress and
// resumes hunting for the next sync byte, so the decoder recovers from
// arbitrary byte loss on its own.
