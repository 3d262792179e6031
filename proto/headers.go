package proto

import (
	"go.uber.org/zap/zapcore"

	"github.com/jeffbean/zktap/zkerrors"
)

// RequestHeader is the first bytes for all data request packets.
type RequestHeader struct {
	Xid    int32
	Opcode OpType
}

// MarshalLogObject renders the logging structure for the RequestHeader
func (h RequestHeader) MarshalLogObject(kv zapcore.ObjectEncoder) error {
	kv.AddInt32("xid", h.Xid)
	kv.AddString("op", h.Opcode.String())
	return nil
}

// ResponseHeader is the first bytes for all ZK response packets except the
// connect handshake reply, which carries no zxid nor error.
type ResponseHeader struct {
	Xid  int32
	Zxid int64
	Err  zkerrors.ErrCode
}

// MarshalLogObject renders the logging structure for the ResponseHeader
func (h ResponseHeader) MarshalLogObject(kv zapcore.ObjectEncoder) error {
	kv.AddInt32("xid", h.Xid)
	kv.AddInt64("zxid", h.Zxid)
	kv.AddInt32("errorCode", int32(h.Err))
	kv.AddString("errorMsg", zkerrors.ZKErrCodeToMessage(h.Err))
	return nil
}
