package vbus

import (
	"errors"
	"io"

	"github.com/golang/glog"
)

// PacketHandler is called for each decoded packet, and exactly once with a
// nil packet when the session shuts down. Calls are made from the session's
// reader goroutine, strictly one at a time; a handler touching state shared
// with other goroutines must synchronize on its own.
type PacketHandler interface {
	HandlePacket(*Packet)
}

// HandlePacketFunc is func type of PacketHandler.
type HandlePacketFunc func(*Packet)

// HandlePacket implements PacketHandler.
func (f HandlePacketFunc) HandlePacket(pkt *Packet) {
	f(pkt)
}

var (
	// ErrNoSource indicates Start was called without a byte source.
	ErrNoSource = errors.New("no byte source")
	// ErrNoHandler indicates Start was called without a handler.
	ErrNoHandler = errors.New("no packet handler")
)

// Session is one running bus reader bound to one byte source. It owns the
// source: when the stream ends the session closes it (restoring terminal
// settings if the source is a serial port), delivers the nil sentinel and
// terminates. There is no cancellation primitive; to stop a session, close
// the underlying device from outside and let the blocked read fail.
type Session struct {
	src     io.Reader
	handler PacketHandler
	decoder Decoder

	err    error
	doneCh chan struct{}
}

// Start launches the decode loop against src in its own goroutine and
// returns immediately. Every validated packet is handed to handler in
// arrival order; handler must not retain a packet beyond the call.
func Start(src io.Reader, handler PacketHandler) (*Session, error) {
	if src == nil {
		return nil, ErrNoSource
	}
	if handler == nil {
		return nil, ErrNoHandler
	}
	s := &Session{
		src:     src,
		handler: handler,
		doneCh:  make(chan struct{}),
	}
	go s.run()
	return s, nil
}

// Join blocks until the session has fully terminated, sentinel call
// included, and returns the completion status: nil after a clean
// end-of-stream, the read error otherwise.
func (s *Session) Join() error {
	<-s.doneCh
	return s.err
}

// Done returns a channel closed when the session has terminated.
func (s *Session) Done() <-chan struct{} {
	return s.doneCh
}

func (s *Session) run() {
	err := s.loop()

	// Teardown order matters: release the source first (a serial port
	// restores its saved terminal settings in Close), then tell the
	// handler the stream is over, then complete the join.
	if c, ok := s.src.(io.Closer); ok {
		if cerr := c.Close(); cerr != nil {
			glog.Errorf("close byte source: %v", cerr)
		}
	}
	s.handler.HandlePacket(nil)
	s.err = err
	close(s.doneCh)
}

func (s *Session) loop() error {
	glog.V(4).Info("vbus session started")
	buf := make([]byte, 1)
	for {
		if _, err := io.ReadFull(s.src, buf); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				glog.V(4).Info("vbus stream ended")
				return nil
			}
			glog.V(4).Infof("vbus stream failed: %v", err)
			return err
		}
		if dr := s.decoder.Decode(buf[0]); dr.Packet != nil {
			s.handler.HandlePacket(dr.Packet)
		}
	}
}
