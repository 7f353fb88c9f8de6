// Package tracepath discovers the path MTU toward a destination and
// measures hop-by-hop latency without raw sockets.
//
// It exposes a [Client] that traces a single [Target] with configurable
// [Options]. Under the hood it sends UDP datagrams with increasing hop limits
// from one unconnected socket with path MTU discovery forced on, and reads the
// ICMP/ICMPv6 errors the kernel queues on the socket's error queue
// (IP_RECVERR/IPV6_RECVERR). Each probe carries its hop count and send time and
// is sent to a destination port derived from a small history slot, so every
// asynchronous notification can be mapped back to the probe that caused it.
//
// Per hop limit the tracer sends up to three probes. A "fragmentation needed"
// notification lowers the MTU estimate and restarts the current hop with the
// smaller datagram, a port unreachable from the destination ends the trace as
// reached, and unreachable/refused notifications from the path abort it.
//
// Typical usage:
//
//	client := tracepath.NewClient(tracepath.WithReporter(tracepath.NewPrinter(os.Stdout, tracepath.DisplayName)))
//	opts := tracepath.DefaultOptions()
//	target, _ := tracepath.ParseTarget("example.com")
//	res, err := client.Run(ctx, target, &opts)
//	// res.Summary carries the resolved pmtu and the forward/reverse hop counts
//
// The probing engine is strictly sequential: one probe is outstanding at a
// time and all state is owned by a single trace.
package tracepath
