package main

// Taps ZooKeeper client traffic on the wire and reports per-operation
// request counts and latencies. Use tcpdump -w to create a capture file
// for offline poking, or point this at a live interface.

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uber-go/tally"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jeffbean/zktap/decoder"
)

const zkDefaultPort = 2181

var (
	device = flag.String("interface", "eth0", "interface to listen on")
	zkPort = flag.Int("zk-port", zkDefaultPort, "ZooKeeper server port to filter on")

	// metrics
	addr = flag.String("listen-address", ":8085", "The address to listen on for HTTP requests.")

	maxPacketBytes = flag.Int("max-packet-bytes", 1024*1024, "largest message the decoder accepts")
	debug          = flag.Bool("debug", false, "enable debug logging")

	// logger to show any messages to the user
	logger *zap.Logger

	snapshotLen int32 = 65536
	timeout           = -1 * time.Second
)

// flowKey identifies one client connection by its host and port.
type flowKey struct {
	host string
	port layers.TCPPort
}

func (f flowKey) String() string {
	return fmt.Sprintf("%v:%v", f.host, f.port)
}

// tap owns one decoder per observed client connection.
type tap struct {
	flows          map[flowKey]*decoder.Decoder
	serverPort     layers.TCPPort
	maxPacketBytes int32

	packets        tally.Counter
	skippedPackets tally.Counter
}

func newTap(serverPort layers.TCPPort, maxPacketBytes int32, scope tally.Scope) *tap {
	return &tap{
		flows:          make(map[flowKey]*decoder.Decoder),
		serverPort:     serverPort,
		maxPacketBytes: maxPacketBytes,
		packets:        scope.Counter("packets"),
		skippedPackets: scope.Counter("skipped_packets"),
	}
}

func (t *tap) decoderFor(key flowKey) *decoder.Decoder {
	d, ok := t.flows[key]
	if !ok {
		callbacks := newTapCallbacks(logger.With(zap.Stringer("client", key)))
		d = decoder.New(callbacks, t.maxPacketBytes, decoder.SystemClock(), logger)
		t.flows[key] = d
	}
	return d
}

func (t *tap) processPacket(packet gopacket.Packet) {
	// In this hot path we want to return as soon as we know anything is
	// not going through.
	t.packets.Inc(1)

	if errLayer := packet.ErrorLayer(); errLayer != nil {
		logger.Error("error layer found in packet", zap.Error(errLayer.Error()))
		return
	}

	tcp, ip, err := castLayers(packet)
	if err != nil {
		t.skippedPackets.Inc(1)
		return
	}

	// Connection teardown discards the flow's decoder along with any
	// requests still waiting for a response.
	if tcp.FIN || tcp.RST {
		switch {
		case tcp.SrcPort == t.serverPort:
			delete(t.flows, flowKey{ip.DstIP.String(), tcp.DstPort})
		case tcp.DstPort == t.serverPort:
			delete(t.flows, flowKey{ip.SrcIP.String(), tcp.SrcPort})
		}
		return
	}

	applicationLayer := packet.ApplicationLayer()
	if applicationLayer == nil {
		return
	}
	payload := applicationLayer.Payload()

	switch {
	case tcp.SrcPort == t.serverPort:
		key := flowKey{ip.DstIP.String(), tcp.DstPort}
		t.decoderFor(key).OnWrite(decoder.NewOwnedBuffer(payload))
	case tcp.DstPort == t.serverPort:
		key := flowKey{ip.SrcIP.String(), tcp.SrcPort}
		t.decoderFor(key).OnData(decoder.NewOwnedBuffer(payload))
	}
}

func castLayers(packet gopacket.Packet) (*layers.TCP, *layers.IPv4, error) {
	// Need TCP to use the source and destination ports to see the direction
	// of the packets.
	tcpLayer := packet.Layer(layers.LayerTypeTCP)
	// Need network info to track the client the bytes belong to.
	ipLayer := packet.LayerClass(layers.LayerClassIPNetwork)

	if tcpLayer == nil || ipLayer == nil {
		return nil, nil, errors.New("required layers not found")
	}
	tcp, _ := tcpLayer.(*layers.TCP)
	ip, _ := ipLayer.(*layers.IPv4)

	if tcp == nil || ip == nil {
		return nil, nil, errors.New("failed to cast required layers TCP or IP")
	}

	return tcp, ip, nil
}

func main() {
	flag.Parse()
	loggerConfig := zap.NewDevelopmentConfig()
	loggerConfig.EncoderConfig = zapcore.EncoderConfig{
		LevelKey:      "L",
		TimeKey:       "",
		MessageKey:    "M",
		NameKey:       "N",
		CallerKey:     "",
		StacktraceKey: "S",
		EncodeLevel:   zapcore.CapitalColorLevelEncoder,
	}
	if *debug {
		loggerConfig.Level.SetLevel(zap.DebugLevel)
	} else {
		loggerConfig.Level.SetLevel(zap.InfoLevel)
	}
	logger, _ = loggerConfig.Build()

	scope, _, closer := RootScope()
	defer closer.Close()

	http.Handle("/metrics", promhttp.Handler())
	go http.ListenAndServe(*addr, nil)

	handle, err := pcap.OpenLive(*device, snapshotLen, false /* promiscuous */, timeout)
	if err != nil {
		log.Fatal(err)
	}
	defer handle.Close()

	filter := fmt.Sprintf("tcp and port %v", *zkPort)
	if err := handle.SetBPFFilter(filter); err != nil {
		log.Fatal(err)
	}
	logger.Info("capturing", zap.String("interface", *device), zap.String("filter", filter))

	t := newTap(layers.TCPPort(*zkPort), int32(*maxPacketBytes), scope)

	packetSource := gopacket.NewPacketSource(handle, handle.LinkType())
	for packet := range packetSource.Packets() {
		t.processPacket(packet)
	}
}
