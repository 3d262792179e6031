package proto

// XidCode is a reserved transaction id. Clients tag data requests with
// positive xids; the reserved values below mark session control traffic
// and server-pushed watch notifications.
type XidCode int32

const (
	// ConnectXid marks the session handshake. The handshake request has no
	// xid field; the protocol-version field that sits where the xid would
	// be is always zero.
	ConnectXid XidCode = 0
	// WatchXid is stamped by the server on unsolicited watch notifications.
	WatchXid XidCode = -1
	// PingXid marks session keep-alives.
	PingXid XidCode = -2
	// AuthXid marks addAuth requests.
	AuthXid XidCode = -4
	// SetWatchesXid marks the watch restore sent right after connecting,
	// typically when a client roams from one server to the next.
	SetWatchesXid XidCode = -8
)
