package proto

// Fixed field widths on the wire. All integers are big-endian
// two's-complement; every message is preceded by an int32 byte count
// that excludes itself.
const (
	BoolLength   = 1
	IntLength    = 4
	LongLength   = 8
	XidLength    = 4
	OpcodeLength = 4
	ZxidLength   = 8

	TimeoutLength         = 4
	SessionLength         = 8
	ProtocolVersionLength = 4

	// MultiHeaderLength is one transaction sub-header: opcode + done + err.
	MultiHeaderLength = OpcodeLength + BoolLength + IntLength
	// ServerHeaderLength is the fixed reply prefix: xid + zxid + err.
	ServerHeaderLength = XidLength + ZxidLength + IntLength
)
