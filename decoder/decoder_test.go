package decoder

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeffbean/zktap/proto"
	"github.com/jeffbean/zktap/zkerrors"
)

type event struct {
	Name string
	Args []interface{}
}

func ev(name string, args ...interface{}) event {
	return event{Name: name, Args: args}
}

// recorder captures decoder events for assertions. Byte accounting and
// latencies are kept out of the event list so tests can compare sequences
// without caring about them.
type recorder struct {
	events        []event
	latencies     []time.Duration
	requestBytes  int64
	responseBytes int64
	decodeErrors  int
}

func (r *recorder) add(name string, args ...interface{}) {
	r.events = append(r.events, ev(name, args...))
}

func (r *recorder) OnDecodeError() {
	r.decodeErrors++
	r.add("decodeError")
}

func (r *recorder) OnRequestBytes(n int64)  { r.requestBytes += n }
func (r *recorder) OnResponseBytes(n int64) { r.responseBytes += n }

func (r *recorder) OnConnect(readonly bool) { r.add("connect", readonly) }
func (r *recorder) OnPing()                 { r.add("ping") }
func (r *recorder) OnAuthRequest(scheme string) {
	r.add("auth", scheme)
}
func (r *recorder) OnGetDataRequest(path string, watch bool) {
	r.add("getData", path, watch)
}
func (r *recorder) OnCreateRequest(path string, flags proto.CreateFlag, op proto.OpType) {
	r.add("create", path, flags, op)
}
func (r *recorder) OnSetRequest(path string) { r.add("setData", path) }
func (r *recorder) OnGetChildrenRequest(path string, watch bool, v2 bool) {
	r.add("getChildren", path, watch, v2)
}
func (r *recorder) OnDeleteRequest(path string, version int32) {
	r.add("delete", path, version)
}
func (r *recorder) OnExistsRequest(path string, watch bool) {
	r.add("exists", path, watch)
}
func (r *recorder) OnGetACLRequest(path string) { r.add("getAcl", path) }
func (r *recorder) OnSetACLRequest(path string, version int32) {
	r.add("setAcl", path, version)
}
func (r *recorder) OnSyncRequest(path string) { r.add("sync", path) }
func (r *recorder) OnCheckRequest(path string, version int32) {
	r.add("check", path, version)
}
func (r *recorder) OnMultiRequest()      { r.add("multi") }
func (r *recorder) OnReconfigRequest()   { r.add("reconfig") }
func (r *recorder) OnSetWatchesRequest() { r.add("setWatches") }
func (r *recorder) OnCheckWatchesRequest(path string, watchType int32) {
	r.add("checkWatches", path, watchType)
}
func (r *recorder) OnRemoveWatchesRequest(path string, watchType int32) {
	r.add("removeWatches", path, watchType)
}
func (r *recorder) OnGetEphemeralsRequest(path string) { r.add("getEphemerals", path) }
func (r *recorder) OnGetAllChildrenNumberRequest(path string) {
	r.add("getAllChildrenNumber", path)
}
func (r *recorder) OnCloseRequest() { r.add("closeSession") }

func (r *recorder) OnConnectResponse(protocolVersion int32, timeout int32, readonly bool, latency time.Duration) {
	r.latencies = append(r.latencies, latency)
	r.add("connectResponse", protocolVersion, timeout, readonly)
}

func (r *recorder) OnResponse(op proto.OpType, xid int32, zxid int64, err zkerrors.ErrCode, latency time.Duration) {
	r.latencies = append(r.latencies, latency)
	r.add("response", op, xid, zxid, err)
}

func (r *recorder) OnWatchEvent(eventType int32, clientState int32, path string, zxid int64, err zkerrors.ErrCode) {
	r.add("watchEvent", eventType, clientState, path, zxid, err)
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

// frameBuilder assembles one length-prefixed wire message.
type frameBuilder struct {
	payload []byte
}

func frame() *frameBuilder { return &frameBuilder{} }

func (f *frameBuilder) int32(v int32) *frameBuilder {
	var raw [4]byte
	binary.BigEndian.PutUint32(raw[:], uint32(v))
	f.payload = append(f.payload, raw[:]...)
	return f
}

func (f *frameBuilder) int64(v int64) *frameBuilder {
	var raw [8]byte
	binary.BigEndian.PutUint64(raw[:], uint64(v))
	f.payload = append(f.payload, raw[:]...)
	return f
}

func (f *frameBuilder) boolean(b bool) *frameBuilder {
	if b {
		f.payload = append(f.payload, 1)
	} else {
		f.payload = append(f.payload, 0)
	}
	return f
}

func (f *frameBuilder) str(s string) *frameBuilder {
	f.int32(int32(len(s)))
	f.payload = append(f.payload, s...)
	return f
}

// bytes prepends the length field, which excludes itself.
func (f *frameBuilder) bytes() []byte {
	var raw [4]byte
	binary.BigEndian.PutUint32(raw[:], uint32(len(f.payload)))
	return append(raw[:], f.payload...)
}

func newTestDecoder(maxPacketBytes int32) (*Decoder, *recorder, *fakeClock) {
	rec := &recorder{}
	clock := &fakeClock{now: time.Unix(1500000000, 0)}
	return New(rec, maxPacketBytes, clock, nil), rec, clock
}

func getDataRequest(xid int32, path string, watch bool) []byte {
	return frame().int32(xid).int32(int32(proto.OpGetData)).str(path).boolean(watch).bytes()
}

func pingRequest() []byte {
	return frame().int32(int32(proto.PingXid)).int32(int32(proto.OpPing)).bytes()
}

func response(xid int32, zxid int64, errCode int32) []byte {
	return frame().int32(xid).int64(zxid).int32(errCode).bytes()
}

func watchEvent(eventType, state int32, path string) []byte {
	return frame().
		int32(int32(proto.WatchXid)).int64(0).int32(0).
		int32(eventType).int32(state).str(path).
		bytes()
}

func TestGetDataRequestAndResponse(t *testing.T) {
	d, rec, clock := newTestDecoder(1024)

	d.OnData(NewOwnedBuffer(getDataRequest(1, "test", false)))
	clock.advance(5 * time.Millisecond)
	d.OnWrite(NewOwnedBuffer(response(1, 42, 0)))

	assert.Equal(t, []event{
		ev("getData", "test", false),
		ev("response", proto.OpGetData, int32(1), int64(42), zkerrors.ErrOk),
	}, rec.events)
	require.Len(t, rec.latencies, 1)
	assert.Equal(t, 5*time.Millisecond, rec.latencies[0])
	assert.Equal(t, int64(len(getDataRequest(1, "test", false))), rec.requestBytes)
	assert.Equal(t, int64(len(response(1, 42, 0))), rec.responseBytes)
	assert.Empty(t, d.requestsByXid)
}

func TestFramingSplitAtEveryByteBoundary(t *testing.T) {
	msg := getDataRequest(7, "/a/b", true)
	want := []event{ev("getData", "/a/b", true)}

	for i := 1; i < len(msg); i++ {
		d, rec, _ := newTestDecoder(1024)
		d.OnData(NewOwnedBuffer(msg[:i]))
		d.OnData(NewOwnedBuffer(msg[i:]))

		assert.Equal(t, want, rec.events, "split at byte %d", i)
		assert.Zero(t, rec.decodeErrors, "split at byte %d", i)
		assert.Equal(t, int64(len(msg)), rec.requestBytes, "split at byte %d", i)
		assert.Zero(t, d.readBuffer.Length(), "split at byte %d", i)
	}
}

func TestFramingOneByteAtATime(t *testing.T) {
	msg := getDataRequest(3, "/drip", false)
	d, rec, _ := newTestDecoder(1024)

	for _, b := range msg {
		d.OnData(NewOwnedBuffer([]byte{b}))
	}

	assert.Equal(t, []event{ev("getData", "/drip", false)}, rec.events)
	assert.Zero(t, d.readBuffer.Length())
}

func TestMultiMessageCoalescing(t *testing.T) {
	closeRequest := frame().int32(5).int32(int32(proto.OpClose)).bytes()

	var chunk []byte
	chunk = append(chunk, pingRequest()...)
	chunk = append(chunk, closeRequest...)
	chunk = append(chunk, getDataRequest(6, "/x", false)...)

	d, rec, _ := newTestDecoder(1024)
	d.OnData(NewOwnedBuffer(chunk))

	assert.Equal(t, []event{
		ev("ping"),
		ev("closeSession"),
		ev("getData", "/x", false),
	}, rec.events)
	assert.Equal(t, int64(len(chunk)), rec.requestBytes)
}

func TestTrailingPartialAfterCompleteMessage(t *testing.T) {
	tail := getDataRequest(2, "/later", false)
	chunk := append(pingRequest(), tail[:5]...)

	d, rec, _ := newTestDecoder(1024)
	d.OnData(NewOwnedBuffer(chunk))

	assert.Equal(t, []event{ev("ping")}, rec.events)
	assert.Equal(t, int64(5), d.readBuffer.Length())

	d.OnData(NewOwnedBuffer(tail[5:]))
	assert.Equal(t, []event{ev("ping"), ev("getData", "/later", false)}, rec.events)
	assert.Zero(t, d.readBuffer.Length())
}

func TestCorrelationAcrossInterleavedTraffic(t *testing.T) {
	d, rec, clock := newTestDecoder(1024)

	d.OnData(NewOwnedBuffer(getDataRequest(1, "/one", false)))
	clock.advance(time.Millisecond)
	d.OnData(NewOwnedBuffer(frame().int32(2).int32(int32(proto.OpExists)).str("/two").boolean(true).bytes()))
	clock.advance(time.Millisecond)
	d.OnData(NewOwnedBuffer(frame().int32(3).int32(int32(proto.OpDelete)).str("/three").int32(4).bytes()))

	// Responses arrive out of request order, with an unrelated watch
	// notification in between.
	clock.advance(time.Millisecond)
	d.OnWrite(NewOwnedBuffer(response(2, 100, 0)))
	d.OnWrite(NewOwnedBuffer(watchEvent(1, 3, "/w")))
	clock.advance(time.Millisecond)
	d.OnWrite(NewOwnedBuffer(response(1, 101, 0)))
	d.OnWrite(NewOwnedBuffer(response(3, 102, 0)))

	assert.Equal(t, []event{
		ev("getData", "/one", false),
		ev("exists", "/two", true),
		ev("delete", "/three", int32(4)),
		ev("response", proto.OpExists, int32(2), int64(100), zkerrors.ErrOk),
		ev("watchEvent", int32(1), int32(3), "/w", int64(0), zkerrors.ErrOk),
		ev("response", proto.OpGetData, int32(1), int64(101), zkerrors.ErrOk),
		ev("response", proto.OpDelete, int32(3), int64(102), zkerrors.ErrOk),
	}, rec.events)
	for _, latency := range rec.latencies {
		assert.True(t, latency >= 0)
	}
	assert.Empty(t, d.requestsByXid)
}

func TestWatchEventNeedsNoPendingRequest(t *testing.T) {
	d, rec, _ := newTestDecoder(1024)

	d.OnWrite(NewOwnedBuffer(watchEvent(4, 3, "/watched")))

	assert.Equal(t, []event{
		ev("watchEvent", int32(4), int32(3), "/watched", int64(0), zkerrors.ErrOk),
	}, rec.events)
	assert.Zero(t, rec.decodeErrors)
}

func TestResponseWithUnknownXid(t *testing.T) {
	d, rec, _ := newTestDecoder(1024)

	d.OnWrite(NewOwnedBuffer(response(42, 1, 0)))

	assert.Equal(t, []event{ev("decodeError")}, rec.events)
}

func TestUnknownOpcodeRejected(t *testing.T) {
	d, rec, _ := newTestDecoder(1024)

	d.OnData(NewOwnedBuffer(frame().int32(5).int32(999).bytes()))

	assert.Equal(t, []event{ev("decodeError")}, rec.events)
	assert.Zero(t, rec.requestBytes)
}

func TestDecodeErrorAbortsRestOfChunk(t *testing.T) {
	good := getDataRequest(1, "/ok", false)
	bad := frame().int32(2).int32(999).bytes()

	d, rec, _ := newTestDecoder(1024)
	d.OnData(NewOwnedBuffer(append(append([]byte{}, good...), bad...)))

	// Events for prior, fully-decoded messages stay; the bad one aborts
	// the rest of the cycle.
	assert.Equal(t, []event{ev("getData", "/ok", false), ev("decodeError")}, rec.events)
	assert.Equal(t, int64(len(good)), rec.requestBytes)
}

func TestBoundsEnforcement(t *testing.T) {
	tests := []struct {
		msg  string
		feed func(d *Decoder)
	}{
		{"undersized request", func(d *Decoder) {
			d.OnData(NewOwnedBuffer(frame().int32(1).bytes())) // len 4 < xid+opcode
		}},
		{"undersized response", func(d *Decoder) {
			d.OnWrite(NewOwnedBuffer(frame().int32(1).int32(2).bytes())) // len 8 < header
		}},
		{"oversized request", func(d *Decoder) {
			d.OnData(NewOwnedBuffer(getDataRequest(1, "/a-path-long-enough-to-overflow", false)))
		}},
	}

	for _, tt := range tests {
		d, rec, _ := newTestDecoder(32)
		tt.feed(d)
		assert.Equal(t, []event{ev("decodeError")}, rec.events, tt.msg)
	}
}

func TestConnectHandshake(t *testing.T) {
	d, rec, clock := newTestDecoder(1024)

	// protocol version, last seen zxid, timeout, session id, password,
	// readonly.
	connectRequest := frame().
		int32(0).int64(0).int32(30000).int64(0).str("").boolean(true).
		bytes()
	d.OnData(NewOwnedBuffer(connectRequest))
	clock.advance(2 * time.Millisecond)

	// protocol version, negotiated timeout, session id, password.
	connectResponse := frame().
		int32(0).int32(40000).int64(99).str("pw").boolean(false).
		bytes()
	d.OnWrite(NewOwnedBuffer(connectResponse))

	assert.Equal(t, []event{
		ev("connect", true),
		ev("connectResponse", int32(0), int32(40000), false),
	}, rec.events)
	require.Len(t, rec.latencies, 1)
	assert.Equal(t, 2*time.Millisecond, rec.latencies[0])
	assert.Empty(t, d.requestsByXid)
}

func TestConnectReadOnlyFlagAbsent(t *testing.T) {
	d, rec, _ := newTestDecoder(1024)

	connectRequest := frame().
		int32(0).int64(0).int32(30000).int64(0).str("").
		bytes()
	d.OnData(NewOwnedBuffer(connectRequest))

	assert.Equal(t, []event{ev("connect", false)}, rec.events)
}

func TestPingRoundTrip(t *testing.T) {
	d, rec, _ := newTestDecoder(1024)

	d.OnData(NewOwnedBuffer(pingRequest()))
	d.OnWrite(NewOwnedBuffer(response(int32(proto.PingXid), 7, 0)))

	assert.Equal(t, []event{
		ev("ping"),
		ev("response", proto.OpPing, int32(proto.PingXid), int64(7), zkerrors.ErrOk),
	}, rec.events)
}

func TestAuthRoundTrip(t *testing.T) {
	d, rec, _ := newTestDecoder(1024)

	authRequest := frame().
		int32(int32(proto.AuthXid)).int32(int32(proto.OpSetAuth)).
		int32(0).str("digest").str("user:pass").
		bytes()
	d.OnData(NewOwnedBuffer(authRequest))
	d.OnWrite(NewOwnedBuffer(response(int32(proto.AuthXid), 8, 0)))

	assert.Equal(t, []event{
		ev("auth", "digest"),
		ev("response", proto.OpSetAuth, int32(proto.AuthXid), int64(8), zkerrors.ErrOk),
	}, rec.events)
}

func TestSetWatchesSentinelRoundTrip(t *testing.T) {
	d, rec, _ := newTestDecoder(1024)

	setWatches := frame().
		int32(int32(proto.SetWatchesXid)).int32(int32(proto.OpSetWatches)).
		int64(0).int32(0).int32(0).int32(0).
		bytes()
	d.OnData(NewOwnedBuffer(setWatches))
	d.OnWrite(NewOwnedBuffer(response(int32(proto.SetWatchesXid), 9, 0)))

	assert.Equal(t, []event{
		ev("setWatches"),
		ev("response", proto.OpSetWatches, int32(proto.SetWatchesXid), int64(9), zkerrors.ErrOk),
	}, rec.events)
}

func createRequest(xid int32, op proto.OpType, path string, flags int32) []byte {
	return frame().
		int32(xid).int32(int32(op)).
		str(path).str("data").
		int32(1).int32(31).str("world").str("anyone"). // one ACL entry
		int32(flags).
		bytes()
}

func TestCreateRequestFlags(t *testing.T) {
	tests := []struct {
		flags int32
		want  proto.CreateFlag
	}{
		{0, proto.FlagPersistent},
		{1, proto.FlagEphemeral},
		{3, proto.FlagEphemeralSequential},
		{99, proto.CreateFlag(99)}, // out of enumeration, still decodes
	}

	for _, tt := range tests {
		d, rec, _ := newTestDecoder(1024)
		d.OnData(NewOwnedBuffer(createRequest(1, proto.OpCreate, "/n", tt.flags)))
		assert.Equal(t, []event{ev("create", "/n", tt.want, proto.OpCreate)}, rec.events)
	}
}

func TestCreateVariants(t *testing.T) {
	for _, op := range []proto.OpType{
		proto.OpCreate, proto.OpCreate2, proto.OpCreateContainer, proto.OpCreateTTL,
	} {
		d, rec, _ := newTestDecoder(1024)
		d.OnData(NewOwnedBuffer(createRequest(1, op, "/n", 0)))
		assert.Equal(t, []event{ev("create", "/n", proto.FlagPersistent, op)}, rec.events)
	}
}

func TestNegativeStringLengthIsAbsent(t *testing.T) {
	// The data field of this create is an absent string, length -1.
	msg := frame().
		int32(1).int32(int32(proto.OpCreate)).
		str("/n").int32(-1).
		int32(0). // empty ACL list
		int32(0).
		bytes()

	d, rec, _ := newTestDecoder(1024)
	d.OnData(NewOwnedBuffer(msg))

	assert.Equal(t, []event{ev("create", "/n", proto.FlagPersistent, proto.OpCreate)}, rec.events)
	assert.Zero(t, rec.decodeErrors)
}

func TestPathAndVersionRequests(t *testing.T) {
	d, rec, _ := newTestDecoder(1024)

	var chunk []byte
	chunk = append(chunk, frame().int32(1).int32(int32(proto.OpSetData)).str("/s").str("v").int32(-1).bytes()...)
	chunk = append(chunk, frame().int32(2).int32(int32(proto.OpSetACL)).str("/a").int32(0).int32(3).bytes()...)
	chunk = append(chunk, frame().int32(3).int32(int32(proto.OpCheck)).str("/c").int32(2).bytes()...)
	chunk = append(chunk, frame().int32(4).int32(int32(proto.OpGetChildren2)).str("/k").boolean(true).bytes()...)
	d.OnData(NewOwnedBuffer(chunk))

	assert.Equal(t, []event{
		ev("setData", "/s"),
		ev("setAcl", "/a", int32(3)),
		ev("check", "/c", int32(2)),
		ev("getChildren", "/k", true, true),
	}, rec.events)
}

func TestPathOnlyRequests(t *testing.T) {
	tests := []struct {
		op   proto.OpType
		want string
	}{
		{proto.OpGetACL, "getAcl"},
		{proto.OpSync, "sync"},
		{proto.OpGetEphemerals, "getEphemerals"},
		{proto.OpGetAllChildrenNumber, "getAllChildrenNumber"},
	}

	for _, tt := range tests {
		d, rec, _ := newTestDecoder(1024)
		d.OnData(NewOwnedBuffer(frame().int32(1).int32(int32(tt.op)).str("/p").bytes()))
		assert.Equal(t, []event{ev(tt.want, "/p")}, rec.events, tt.want)
	}
}

func TestWatchManagementRequests(t *testing.T) {
	d, rec, _ := newTestDecoder(1024)

	var chunk []byte
	chunk = append(chunk, frame().int32(1).int32(int32(proto.OpCheckWatches)).str("/w").int32(1).bytes()...)
	chunk = append(chunk, frame().int32(2).int32(int32(proto.OpRemoveWatches)).str("/w").int32(2).bytes()...)
	d.OnData(NewOwnedBuffer(chunk))

	assert.Equal(t, []event{
		ev("checkWatches", "/w", int32(1)),
		ev("removeWatches", "/w", int32(2)),
	}, rec.events)
}

func TestReconfigRequest(t *testing.T) {
	d, rec, _ := newTestDecoder(1024)

	msg := frame().
		int32(1).int32(int32(proto.OpReconfig)).
		str("joining").str("leaving").str("members").int64(7).
		bytes()
	d.OnData(NewOwnedBuffer(msg))

	assert.Equal(t, []event{ev("reconfig")}, rec.events)
}

func TestMultiTransaction(t *testing.T) {
	d, rec, _ := newTestDecoder(1024)

	msg := frame().
		int32(9).int32(int32(proto.OpMulti)).
		// create sub-operation
		int32(int32(proto.OpCreate)).boolean(false).int32(-1).
		str("/m").str("d").int32(0).int32(0).
		// setData sub-operation
		int32(int32(proto.OpSetData)).boolean(false).int32(-1).
		str("/m").str("d2").int32(-1).
		// check sub-operation
		int32(int32(proto.OpCheck)).boolean(false).int32(-1).
		str("/m").int32(2).
		// done header
		int32(-1).boolean(true).int32(-1).
		bytes()
	d.OnData(NewOwnedBuffer(msg))

	assert.Equal(t, []event{
		ev("create", "/m", proto.FlagPersistent, proto.OpCreate),
		ev("setData", "/m"),
		ev("check", "/m", int32(2)),
		ev("multi"),
	}, rec.events)
	assert.Zero(t, rec.decodeErrors)
}

func TestMultiRejectsForeignSubOperation(t *testing.T) {
	d, rec, _ := newTestDecoder(1024)

	msg := frame().
		int32(9).int32(int32(proto.OpMulti)).
		int32(int32(proto.OpDelete)).boolean(false).int32(-1).
		str("/m").int32(-1).
		int32(-1).boolean(true).int32(-1).
		bytes()
	d.OnData(NewOwnedBuffer(msg))

	assert.Equal(t, []event{ev("decodeError")}, rec.events)
}

func TestResponsePayloadSkipped(t *testing.T) {
	d, rec, _ := newTestDecoder(1024)

	d.OnData(NewOwnedBuffer(getDataRequest(1, "/x", false)))
	// A getData response carries data and stat after the header; the
	// decoder jumps over them using the declared length.
	respWithBody := frame().int32(1).int64(5).int32(0).str("payload").int64(123).bytes()
	next := watchEvent(1, 3, "/after")
	d.OnWrite(NewOwnedBuffer(append(respWithBody, next...)))

	assert.Equal(t, []event{
		ev("getData", "/x", false),
		ev("response", proto.OpGetData, int32(1), int64(5), zkerrors.ErrOk),
		ev("watchEvent", int32(1), int32(3), "/after", int64(0), zkerrors.ErrOk),
	}, rec.events)
}

func TestResponseErrorCodeSurfaced(t *testing.T) {
	d, rec, _ := newTestDecoder(1024)

	d.OnData(NewOwnedBuffer(getDataRequest(1, "/gone", false)))
	d.OnWrite(NewOwnedBuffer(response(1, 6, -101)))

	assert.Equal(t, []event{
		ev("getData", "/gone", false),
		ev("response", proto.OpGetData, int32(1), int64(6), zkerrors.ErrCode(-101)),
	}, rec.events)
}

func TestPendingTableGrowsUntilResponse(t *testing.T) {
	d, _, _ := newTestDecoder(1024)

	for xid := int32(1); xid <= 5; xid++ {
		d.OnData(NewOwnedBuffer(getDataRequest(xid, "/n", false)))
	}
	assert.Len(t, d.requestsByXid, 5)

	d.OnWrite(NewOwnedBuffer(response(3, 1, 0)))
	assert.Len(t, d.requestsByXid, 4)
	_, ok := d.requestsByXid[3]
	assert.False(t, ok)
}
