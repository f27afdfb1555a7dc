// Package serial opens the bus device and hands the decoder a raw byte
// stream. The port saves the original terminal settings when raw mode is
// requested and restores them on Close.
package serial
