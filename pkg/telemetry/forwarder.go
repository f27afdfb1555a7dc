package telemetry

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/golang/glog"

	"github.com/solartap/vbus.go/pkg/vbus"
)

// Forwarder publishes every decoded packet as JSON and implements
// vbus.PacketHandler. The shutdown sentinel disconnects from the broker, so
// a Forwarder registered as a session handler tears its connection down when
// the bus stream ends.
type Forwarder struct {
	pub *Publisher
}

// NewForwarder creates a Forwarder on top of a connected Publisher.
func NewForwarder(pub *Publisher) *Forwarder {
	return &Forwarder{pub: pub}
}

// packetMessage is the published JSON shape. The payload is hex encoded to
// stay greppable in broker logs.
type packetMessage struct {
	Destination      uint16 `json:"dst"`
	Source           uint16 `json:"src"`
	ProtocolRevision byte   `json:"proto"`
	Command          uint16 `json:"cmd"`
	FrameCount       byte   `json:"frames"`
	Payload          string `json:"payload"`
}

// PacketTopic returns the topic suffix for a packet, one topic per source
// address and command.
func PacketTopic(pkt *vbus.Packet) string {
	return fmt.Sprintf("vbus/%04x/%04x", pkt.Source, pkt.Command)
}

func encodePacket(pkt *vbus.Packet) packetMessage {
	return packetMessage{
		Destination:      pkt.Destination,
		Source:           pkt.Source,
		ProtocolRevision: pkt.ProtocolRevision,
		Command:          pkt.Command,
		FrameCount:       pkt.FrameCount,
		Payload:          hex.EncodeToString(pkt.Payload),
	}
}

// HandlePacket implements vbus.PacketHandler.
func (f *Forwarder) HandlePacket(pkt *vbus.Packet) {
	if pkt == nil {
		f.pub.Close()
		return
	}
	payload, err := json.Marshal(encodePacket(pkt))
	if err != nil {
		glog.Errorf("encode packet: %v", err)
		return
	}
	f.pub.Pub(PacketTopic(pkt), payload)
}
