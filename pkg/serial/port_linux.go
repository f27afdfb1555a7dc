//go:build linux

package serial

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// Baud is the fixed line rate of the bus.
const Baud = unix.B9600

// Port is an open bus device.
type Port struct {
	file  *os.File
	raw   bool
	saved unix.Termios

	closeOnce sync.Once
	closeErr  error
}

// Open opens the device at path, or stdin when path is "-" (useful for
// replaying captured streams). When rawMode is set, the line is switched to
// raw 9600 8N1 with blocking single-byte reads; the previous settings are
// restored by Close.
func Open(path string, rawMode bool) (*Port, error) {
	var f *os.File
	if path == "-" {
		f = os.Stdin
	} else {
		var err error
		if f, err = os.OpenFile(path, os.O_RDWR, 0); err != nil {
			return nil, err
		}
	}
	p := &Port{file: f}
	if rawMode {
		if err := p.makeRaw(); err != nil {
			if f != os.Stdin {
				f.Close()
			}
			return nil, err
		}
	}
	return p, nil
}

// Read implements io.Reader, blocking until at least one byte arrives.
func (p *Port) Read(b []byte) (int, error) {
	return p.file.Read(b)
}

// Close restores the saved terminal settings and releases the device.
// Close is idempotent: both the session owning the port and an outside
// caller forcing shutdown may close it.
func (p *Port) Close() error {
	p.closeOnce.Do(func() {
		p.closeErr = p.close()
	})
	return p.closeErr
}

func (p *Port) close() error {
	if p.raw {
		saved := p.saved
		if err := unix.IoctlSetTermios(int(p.file.Fd()), unix.TCSETS, &saved); err != nil {
			return fmt.Errorf("restore termios: %w", err)
		}
	}
	if p.file == os.Stdin {
		return nil
	}
	return p.file.Close()
}

// Name returns the device path.
func (p *Port) Name() string {
	return p.file.Name()
}

func (p *Port) makeRaw() error {
	fd := int(p.file.Fd())
	saved, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return fmt.Errorf("get termios: %w", err)
	}
	p.saved = *saved

	t := *saved
	t.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP |
		unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	t.Oflag &^= unix.OPOST
	t.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	t.Cflag &^= unix.CSIZE | unix.PARENB | unix.CBAUD
	t.Cflag |= unix.CS8 | unix.CLOCAL | unix.CREAD | Baud
	t.Ispeed, t.Ospeed = Baud, Baud
	t.Cc[unix.VMIN] = 1
	t.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, &t); err != nil {
		return fmt.Errorf("set termios: %w", err)
	}
	p.raw = true
	return nil
}
