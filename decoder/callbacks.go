package decoder

import (
	"time"

	"github.com/jeffbean/zktap/proto"
	"github.com/jeffbean/zktap/zkerrors"
)

// Callbacks is the observer surface the decoder emits to: one method per
// request type, mirrored response events, byte accounting, and a single
// decode-error signal. After OnDecodeError no further events are emitted
// for the chunk that failed.
type Callbacks interface {
	OnDecodeError()
	OnRequestBytes(n int64)
	OnResponseBytes(n int64)

	OnConnect(readonly bool)
	OnPing()
	OnAuthRequest(scheme string)
	OnGetDataRequest(path string, watch bool)
	OnCreateRequest(path string, flags proto.CreateFlag, op proto.OpType)
	OnSetRequest(path string)
	OnGetChildrenRequest(path string, watch bool, v2 bool)
	OnDeleteRequest(path string, version int32)
	OnExistsRequest(path string, watch bool)
	OnGetACLRequest(path string)
	OnSetACLRequest(path string, version int32)
	OnSyncRequest(path string)
	OnCheckRequest(path string, version int32)
	OnMultiRequest()
	OnReconfigRequest()
	OnSetWatchesRequest()
	OnCheckWatchesRequest(path string, watchType int32)
	OnRemoveWatchesRequest(path string, watchType int32)
	OnGetEphemeralsRequest(path string)
	OnGetAllChildrenNumberRequest(path string)
	OnCloseRequest()

	OnConnectResponse(protocolVersion int32, timeout int32, readonly bool, latency time.Duration)
	OnResponse(op proto.OpType, xid int32, zxid int64, err zkerrors.ErrCode, latency time.Duration)
	OnWatchEvent(eventType int32, clientState int32, path string, zxid int64, err zkerrors.ErrCode)
}

// Clock supplies the timestamps used to measure request latency.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }
