// vbusmon reads packets from a VBus serial device and prints them,
// optionally forwarding each packet to an MQTT broker.
package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/golang/glog"

	"github.com/solartap/vbus.go/pkg/run"
	"github.com/solartap/vbus.go/pkg/serial"
	"github.com/solartap/vbus.go/pkg/telemetry"
	"github.com/solartap/vbus.go/pkg/vbus"
)

var (
	configFile string
	flagConf   = defaultConfig()
)

func init() {
	flag.StringVar(&flagConf.Device, "device", flagConf.Device, "Bus device path, - for stdin.")
	flag.BoolVar(&flagConf.RawMode, "raw", flagConf.RawMode, "Put the device in raw 9600 8N1 mode.")
	flag.StringVar(&flagConf.MQTTURL, "mqtt", flagConf.MQTTURL, "MQTT broker URL, empty to disable forwarding.")
	flag.StringVar(&configFile, "config", "", "TOML config file; explicit flags override it.")
}

func main() {
	flag.Parse()
	conf := resolveConfig()

	port, err := serial.Open(conf.Device, conf.RawMode)
	if err != nil {
		glog.Exitf("open %s: %v", conf.Device, err)
	}

	handler := newHandler(conf)
	session, err := vbus.Start(port, handler)
	if err != nil {
		port.Close()
		glog.Exit(err)
	}

	// The session stops when its byte source fails, so shutdown is wired
	// by closing the port once a signal cancels the context.
	err = run.NewRunner().HandleSignals().Go(run.RunnableFunc(
		func(ctx context.Context) error {
			return run.RunWithContextCloser(ctx, port, session.Join)
		},
	)).Wait()
	if err != nil {
		glog.Exit(err)
	}
}

func resolveConfig() config {
	if configFile == "" {
		return flagConf
	}
	conf, err := loadConfig(configFile)
	if err != nil {
		glog.Exit(err)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "device":
			conf.Device = flagConf.Device
		case "raw":
			conf.RawMode = flagConf.RawMode
		case "mqtt":
			conf.MQTTURL = flagConf.MQTTURL
		}
	})
	return conf
}

func newHandler(conf config) vbus.PacketHandler {
	printer := vbus.HandlePacketFunc(printPacket)
	if conf.MQTTURL == "" {
		return printer
	}
	pub, err := telemetry.NewPublisher(conf.MQTTURL)
	if err != nil {
		glog.Exit(err)
	}
	if err := pub.Connect(); err != nil {
		glog.Exitf("connect mqtt: %v", err)
	}
	fwd := telemetry.NewForwarder(pub)
	return vbus.HandlePacketFunc(func(pkt *vbus.Packet) {
		printer.HandlePacket(pkt)
		fwd.HandlePacket(pkt)
	})
}

func printPacket(pkt *vbus.Packet) {
	if pkt == nil {
		glog.Info("bus stream ended")
		return
	}
	fmt.Printf("%04x -> %04x cmd %04x proto %02x [% x]\n",
		pkt.Source, pkt.Destination, pkt.Command, pkt.ProtocolRevision, pkt.Payload)
}
