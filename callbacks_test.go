package main

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/jeffbean/zktap/proto"
	"github.com/jeffbean/zktap/zkerrors"
)

func TestTapCallbacksCountsOperations(t *testing.T) {
	c := newTapCallbacks(zap.NewNop())

	before := testutil.ToFloat64(operationCounter.WithLabelValues("getData"))
	c.OnGetDataRequest("/foo", true)
	c.OnGetDataRequest("/bar", false)
	after := testutil.ToFloat64(operationCounter.WithLabelValues("getData"))

	assert.Equal(t, 2.0, after-before)
}

func TestTapCallbacksByteAccounting(t *testing.T) {
	c := newTapCallbacks(zap.NewNop())

	beforeReq := testutil.ToFloat64(requestBytesCounter)
	beforeResp := testutil.ToFloat64(responseBytesCounter)
	c.OnRequestBytes(21)
	c.OnResponseBytes(20)

	assert.Equal(t, 21.0, testutil.ToFloat64(requestBytesCounter)-beforeReq)
	assert.Equal(t, 20.0, testutil.ToFloat64(responseBytesCounter)-beforeResp)
}

func TestTapCallbacksDecodeError(t *testing.T) {
	c := newTapCallbacks(zap.NewNop())

	before := testutil.ToFloat64(decodeErrorCounter)
	c.OnDecodeError()

	assert.Equal(t, 1.0, testutil.ToFloat64(decodeErrorCounter)-before)
}

func TestTapCallbacksResponseDoesNotPanicOnError(t *testing.T) {
	c := newTapCallbacks(zap.NewNop())

	c.OnResponse(proto.OpGetData, 1, 42, zkerrors.ErrCode(-101), 3*time.Millisecond)
	c.OnWatchEvent(1, 3, "/w", 0, zkerrors.ErrOk)
}

func TestFlowKeyString(t *testing.T) {
	key := flowKey{host: "10.0.0.5", port: 50000}
	assert.Equal(t, "10.0.0.5:50000", key.String())
}
