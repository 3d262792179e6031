package main

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/jeffbean/zktap/decoder"
	"github.com/jeffbean/zktap/proto"
	"github.com/jeffbean/zktap/zkerrors"
)

// tapCallbacks turns decoder events into logs and metrics for one client
// connection.
type tapCallbacks struct {
	logger *zap.Logger
}

var _ decoder.Callbacks = (*tapCallbacks)(nil)

func newTapCallbacks(logger *zap.Logger) *tapCallbacks {
	return &tapCallbacks{logger: logger}
}

func (c *tapCallbacks) count(op proto.OpType) {
	operationCounter.With(prometheus.Labels{"operation": op.String()}).Inc()
}

func (c *tapCallbacks) OnDecodeError() {
	decodeErrorCounter.Inc()
	c.logger.Warn("decode error, rest of chunk dropped")
}

func (c *tapCallbacks) OnRequestBytes(n int64) {
	requestBytesCounter.Add(float64(n))
}

func (c *tapCallbacks) OnResponseBytes(n int64) {
	responseBytesCounter.Add(float64(n))
}

func (c *tapCallbacks) OnConnect(readonly bool) {
	c.count(proto.OpConnect)
	c.logger.Info("--> connect", zap.Bool("readonly", readonly))
}

func (c *tapCallbacks) OnPing() {
	c.count(proto.OpPing)
	c.logger.Debug("--> ping")
}

func (c *tapCallbacks) OnAuthRequest(scheme string) {
	c.count(proto.OpSetAuth)
	c.logger.Debug("--> auth", zap.String("scheme", scheme))
}

func (c *tapCallbacks) OnGetDataRequest(path string, watch bool) {
	c.count(proto.OpGetData)
	c.logger.Debug("--> getData", zap.String("path", path), zap.Bool("watch", watch))
}

func (c *tapCallbacks) OnCreateRequest(path string, flags proto.CreateFlag, op proto.OpType) {
	c.count(op)
	c.logger.Debug("--> create", zap.Object("op", op), zap.String("path", path), zap.Object("flags", flags))
}

func (c *tapCallbacks) OnSetRequest(path string) {
	c.count(proto.OpSetData)
	c.logger.Debug("--> setData", zap.String("path", path))
}

func (c *tapCallbacks) OnGetChildrenRequest(path string, watch bool, v2 bool) {
	op := proto.OpGetChildren
	if v2 {
		op = proto.OpGetChildren2
	}
	c.count(op)
	c.logger.Debug("--> getChildren", zap.Object("op", op), zap.String("path", path), zap.Bool("watch", watch))
}

func (c *tapCallbacks) OnDeleteRequest(path string, version int32) {
	c.count(proto.OpDelete)
	c.logger.Debug("--> delete", zap.String("path", path), zap.Int32("version", version))
}

func (c *tapCallbacks) OnExistsRequest(path string, watch bool) {
	c.count(proto.OpExists)
	c.logger.Debug("--> exists", zap.String("path", path), zap.Bool("watch", watch))
}

func (c *tapCallbacks) OnGetACLRequest(path string) {
	c.count(proto.OpGetACL)
	c.logger.Debug("--> getAcl", zap.String("path", path))
}

func (c *tapCallbacks) OnSetACLRequest(path string, version int32) {
	c.count(proto.OpSetACL)
	c.logger.Debug("--> setAcl", zap.String("path", path), zap.Int32("version", version))
}

func (c *tapCallbacks) OnSyncRequest(path string) {
	c.count(proto.OpSync)
	c.logger.Debug("--> sync", zap.String("path", path))
}

func (c *tapCallbacks) OnCheckRequest(path string, version int32) {
	c.count(proto.OpCheck)
	c.logger.Debug("--> check", zap.String("path", path), zap.Int32("version", version))
}

func (c *tapCallbacks) OnMultiRequest() {
	c.count(proto.OpMulti)
	c.logger.Debug("--> multi")
}

func (c *tapCallbacks) OnReconfigRequest() {
	c.count(proto.OpReconfig)
	c.logger.Debug("--> reconfig")
}

func (c *tapCallbacks) OnSetWatchesRequest() {
	c.count(proto.OpSetWatches)
	c.logger.Debug("--> setWatches")
}

func (c *tapCallbacks) OnCheckWatchesRequest(path string, watchType int32) {
	c.count(proto.OpCheckWatches)
	c.logger.Debug("--> checkWatches", zap.String("path", path), zap.Int32("type", watchType))
}

func (c *tapCallbacks) OnRemoveWatchesRequest(path string, watchType int32) {
	c.count(proto.OpRemoveWatches)
	c.logger.Debug("--> removeWatches", zap.String("path", path), zap.Int32("type", watchType))
}

func (c *tapCallbacks) OnGetEphemeralsRequest(path string) {
	c.count(proto.OpGetEphemerals)
	c.logger.Debug("--> getEphemerals", zap.String("path", path))
}

func (c *tapCallbacks) OnGetAllChildrenNumberRequest(path string) {
	c.count(proto.OpGetAllChildrenNumber)
	c.logger.Debug("--> getAllChildrenNumber", zap.String("path", path))
}

func (c *tapCallbacks) OnCloseRequest() {
	c.count(proto.OpClose)
	c.logger.Debug("--> closeSession")
}

func (c *tapCallbacks) OnConnectResponse(protocolVersion int32, timeout int32, readonly bool, latency time.Duration) {
	c.observe(proto.OpConnect, latency)
	c.logger.Info("<-- connect",
		zap.Int32("protocolVersion", protocolVersion),
		zap.Int32("timeout", timeout),
		zap.Bool("readonly", readonly),
		zap.Duration("latency", latency),
	)
}

func (c *tapCallbacks) OnResponse(op proto.OpType, xid int32, zxid int64, errCode zkerrors.ErrCode, latency time.Duration) {
	c.observe(op, latency)
	l := c.logger.With(
		zap.Object("op", op),
		zap.Int32("xid", xid),
		zap.Int64("zxid", zxid),
		zap.Duration("latency", latency),
	)
	if errCode != zkerrors.ErrOk {
		l.Warn("<-- response error", zap.String("error", zkerrors.ZKErrCodeToMessage(errCode)))
		return
	}
	l.Debug("<-- response")
}

func (c *tapCallbacks) OnWatchEvent(eventType int32, clientState int32, path string, zxid int64, errCode zkerrors.ErrCode) {
	watchEventCounter.Inc()
	c.logger.Info("<-- watch event",
		zap.Int32("type", eventType),
		zap.Int32("state", clientState),
		zap.String("path", path),
		zap.Int64("zxid", zxid),
		zap.Int32("error", int32(errCode)),
	)
}

func (c *tapCallbacks) observe(op proto.OpType, latency time.Duration) {
	operationHistogram.With(prometheus.Labels{"operation": op.String()}).Observe(latency.Seconds())
}
