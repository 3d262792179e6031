package decoder

import (
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/jeffbean/zktap/proto"
	"github.com/jeffbean/zktap/zkerrors"
)

type direction int

const (
	// directionRead is client to server traffic, carrying requests.
	directionRead direction = iota
	// directionWrite is server to client traffic, carrying responses.
	directionWrite
)

type pendingRequest struct {
	opcode proto.OpType
	start  time.Time
}

// Decoder reconstructs ZooKeeper messages from the two byte streams of one
// client connection and reports them to its Callbacks. A Decoder is owned
// by a single connection and is not safe for concurrent use. Requests that
// never receive a response stay in the correlation table until the Decoder
// is discarded at connection teardown; there is no eviction.
type Decoder struct {
	callbacks Callbacks
	clock     Clock
	logger    *zap.Logger

	maxPacketBytes int64
	helper         fieldReader

	// requestsByXid correlates in-flight requests to their responses.
	requestsByXid map[int32]pendingRequest

	// Residual bytes of an in-progress message, one accumulator per
	// direction, never aliased.
	readBuffer  OwnedBuffer
	writeBuffer OwnedBuffer
}

// New builds a Decoder for one connection. A nil logger disables logging.
func New(callbacks Callbacks, maxPacketBytes int32, clock Clock, logger *zap.Logger) *Decoder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Decoder{
		callbacks:      callbacks,
		clock:          clock,
		logger:         logger,
		maxPacketBytes: int64(maxPacketBytes),
		helper:         fieldReader{maxLen: int64(maxPacketBytes)},
		requestsByXid:  make(map[int32]pendingRequest),
	}
}

// OnData feeds bytes flowing client to server.
func (d *Decoder) OnData(data Buffer) {
	d.decodeAndBuffer(data, directionRead, &d.readBuffer)
}

// OnWrite feeds bytes flowing server to client.
func (d *Decoder) OnWrite(data Buffer) {
	d.decodeAndBuffer(data, directionWrite, &d.writeBuffer)
}

func (d *Decoder) decodeAndBuffer(data Buffer, dir direction, residual *OwnedBuffer) {
	residualLen := residual.Length()
	if residualLen == 0 {
		d.decodeAndBufferHelper(data, dir, residual)
		return
	}

	// The residual buffer holds the unconsumed prefix of one in-progress
	// message; prepending it lets the scan see whole messages. The
	// prepended bytes are drained again afterwards so the caller's buffer
	// holds only the bytes it arrived with.
	data.Prepend(residual)
	d.decodeAndBufferHelper(data, dir, residual)
	data.Drain(residualLen)
}

func (d *Decoder) minFrameLength(dir direction) int32 {
	if dir == directionRead {
		return proto.XidLength + proto.OpcodeLength
	}
	return proto.ServerHeaderLength
}

// decodeAndBufferHelper scans the chunk for message boundaries before any
// semantic decoding happens: length prefixes are self-describing, so one
// forward pass establishes how many full messages are present. Complete
// messages are decoded immediately; a trailing partial message moves to
// the residual buffer for the next feed cycle.
func (d *Decoder) decodeAndBufferHelper(data Buffer, dir direction, residual *OwnedBuffer) {
	dataLen := data.Length()
	minLen := d.minFrameLength(dir)

	var offset int64
	fullFrames := false
	partialStart := int64(-1)

	for offset < dataLen {
		frameStart := offset
		if frameStart+proto.IntLength > dataLen {
			// Not even the length prefix has fully arrived.
			partialStart = frameStart
			break
		}
		d.helper.reset()
		frameLen, err := d.helper.peekInt32(data, &offset)
		if err == nil {
			err = d.ensureMinLength(frameLen, minLen)
		}
		if err == nil {
			err = d.ensureMaxLength(frameLen)
		}
		if err != nil {
			d.logger.Debug("discarding chunk on framing error", zap.Error(err))
			d.callbacks.OnDecodeError()
			return
		}
		offset += int64(frameLen)
		if offset <= dataLen {
			fullFrames = true
		} else {
			partialStart = frameStart
			break
		}
	}

	if partialStart < 0 {
		// The scan consumed the chunk exactly; every message is complete.
		d.decode(data, dir)
		return
	}

	if fullFrames {
		head := make([]byte, partialStart)
		if err := data.CopyOut(0, head); err != nil {
			d.logger.Debug("copying complete messages failed", zap.Error(err))
			d.callbacks.OnDecodeError()
			return
		}
		d.decode(&OwnedBuffer{data: head}, dir)
	}

	tail := make([]byte, dataLen-partialStart)
	if err := data.CopyOut(partialStart, tail); err != nil {
		d.logger.Debug("copying partial message failed", zap.Error(err))
		d.callbacks.OnDecodeError()
		return
	}
	residual.Append(tail)
}

// decode walks a span known to hold only complete messages. The first
// error aborts the whole pass: once a message of unknown true length is in
// doubt, every later boundary is in doubt too.
func (d *Decoder) decode(data Buffer, dir direction) {
	var offset int64
	for offset < data.Length() {
		// Two cursors on purpose: offset is absolute within the chunk,
		// while the helper's cursor is reset per message so each message
		// is bounded independently of its position.
		d.helper.reset()
		current := offset

		var err error
		switch dir {
		case directionRead:
			if err = d.decodeRequest(data, &offset); err == nil {
				d.callbacks.OnRequestBytes(offset - current)
			}
		case directionWrite:
			if err = d.decodeResponse(data, &offset); err == nil {
				d.callbacks.OnResponseBytes(offset - current)
			}
		}
		if err != nil {
			d.logger.Debug("abandoning decode pass", zap.Error(err))
			d.callbacks.OnDecodeError()
			return
		}
	}
}

func (d *Decoder) decodeRequest(data Buffer, offset *int64) error {
	frameLen, err := d.helper.peekInt32(data, offset)
	if err != nil {
		return err
	}
	if err := d.ensureMinLength(frameLen, proto.XidLength+proto.OpcodeLength); err != nil {
		return err
	}
	if err := d.ensureMaxLength(frameLen); err != nil {
		return err
	}

	start := d.clock.Now()

	xid, err := d.helper.peekInt32(data, offset)
	if err != nil {
		return err
	}

	// Control requests carry reserved xids: connect, keep-alive, auth and
	// the watch restore sent when roaming between servers. Some client
	// implementations also expose setWatches as a plain data request;
	// that form is handled by the opcode switch below.
	switch proto.XidCode(xid) {
	case proto.ConnectXid:
		if err := d.parseConnect(data, offset, frameLen); err != nil {
			return err
		}
		d.requestsByXid[xid] = pendingRequest{proto.OpConnect, start}
		return nil
	case proto.PingXid:
		if err := d.helper.skip(data, proto.OpcodeLength, offset); err != nil {
			return err
		}
		d.callbacks.OnPing()
		d.requestsByXid[xid] = pendingRequest{proto.OpPing, start}
		return nil
	case proto.AuthXid:
		if err := d.parseAuthRequest(data, offset, frameLen); err != nil {
			return err
		}
		d.requestsByXid[xid] = pendingRequest{proto.OpSetAuth, start}
		return nil
	case proto.SetWatchesXid:
		if err := d.helper.skip(data, proto.OpcodeLength, offset); err != nil {
			return err
		}
		if err := d.parseSetWatchesRequest(data, offset, frameLen); err != nil {
			return err
		}
		d.requestsByXid[xid] = pendingRequest{proto.OpSetWatches, start}
		return nil
	}

	oc, err := d.helper.peekInt32(data, offset)
	if err != nil {
		return err
	}
	opcode, err := proto.OpFromInt32(oc)
	if err != nil {
		return err
	}
	d.logger.Debug("decoding request",
		zap.Object("header", proto.RequestHeader{Xid: xid, Opcode: opcode}),
		zap.Int32("len", frameLen))

	switch opcode {
	case proto.OpGetData:
		err = d.parseGetDataRequest(data, offset, frameLen)
	case proto.OpCreate, proto.OpCreate2, proto.OpCreateContainer, proto.OpCreateTTL:
		err = d.parseCreateRequest(data, offset, frameLen, opcode)
	case proto.OpSetData:
		err = d.parseSetRequest(data, offset, frameLen)
	case proto.OpGetChildren:
		err = d.parseGetChildrenRequest(data, offset, frameLen, false)
	case proto.OpGetChildren2:
		err = d.parseGetChildrenRequest(data, offset, frameLen, true)
	case proto.OpDelete:
		err = d.parseDeleteRequest(data, offset, frameLen)
	case proto.OpExists:
		err = d.parseExistsRequest(data, offset, frameLen)
	case proto.OpGetACL:
		err = d.parseGetACLRequest(data, offset, frameLen)
	case proto.OpSetACL:
		err = d.parseSetACLRequest(data, offset, frameLen)
	case proto.OpSync:
		var path string
		if path, err = d.pathOnlyRequest(data, offset, frameLen); err == nil {
			d.callbacks.OnSyncRequest(path)
		}
	case proto.OpCheck:
		err = d.parseCheckRequest(data, offset, frameLen)
	case proto.OpMulti:
		err = d.parseMultiRequest(data, offset, frameLen)
	case proto.OpReconfig:
		err = d.parseReconfigRequest(data, offset, frameLen)
	case proto.OpSetWatches:
		err = d.parseSetWatchesRequest(data, offset, frameLen)
	case proto.OpCheckWatches:
		err = d.parseXWatchesRequest(data, offset, frameLen, proto.OpCheckWatches)
	case proto.OpRemoveWatches:
		err = d.parseXWatchesRequest(data, offset, frameLen, proto.OpRemoveWatches)
	case proto.OpGetEphemerals:
		var path string
		if path, err = d.pathOnlyRequest(data, offset, frameLen); err == nil {
			d.callbacks.OnGetEphemeralsRequest(path)
		}
	case proto.OpGetAllChildrenNumber:
		var path string
		if path, err = d.pathOnlyRequest(data, offset, frameLen); err == nil {
			d.callbacks.OnGetAllChildrenNumberRequest(path)
		}
	case proto.OpClose:
		d.callbacks.OnCloseRequest()
	default:
		return errors.Errorf("unknown opcode: %d", oc)
	}
	if err != nil {
		return err
	}

	d.requestsByXid[xid] = pendingRequest{opcode, start}
	return nil
}

func (d *Decoder) decodeResponse(data Buffer, offset *int64) error {
	frameLen, err := d.helper.peekInt32(data, offset)
	if err != nil {
		return err
	}
	if err := d.ensureMinLength(frameLen, proto.ServerHeaderLength); err != nil {
		return err
	}
	if err := d.ensureMaxLength(frameLen); err != nil {
		return err
	}

	xid, err := d.helper.peekInt32(data, offset)
	if err != nil {
		return err
	}
	xidCode := proto.XidCode(xid)

	var latency time.Duration
	var opcode proto.OpType

	// Watch notifications are generated by the server and never answer an
	// outstanding request; everything else must correlate to one. A miss
	// is either a server-side bug or a desynchronized stream.
	if xidCode != proto.WatchXid {
		req, ok := d.requestsByXid[xid]
		if !ok {
			return errors.Errorf("xid %d not found", xid)
		}
		latency = d.clock.Now().Sub(req.start)
		opcode = req.opcode
		delete(d.requestsByXid, xid)
	}

	// Connect responses are special: no zxid nor error fields, just the
	// protocol version where the xid would be.
	if xidCode == proto.ConnectXid {
		return d.parseConnectResponse(data, offset, frameLen, latency)
	}

	zxid, err := d.helper.peekInt64(data, offset)
	if err != nil {
		return err
	}
	errCode, err := d.helper.peekInt32(data, offset)
	if err != nil {
		return err
	}
	d.logger.Debug("decoding response",
		zap.Object("header", proto.ResponseHeader{Xid: xid, Zxid: zxid, Err: zkerrors.ErrCode(errCode)}),
		zap.Int32("len", frameLen))

	switch xidCode {
	case proto.PingXid:
		d.callbacks.OnResponse(proto.OpPing, xid, zxid, zkerrors.ErrCode(errCode), latency)
		return nil
	case proto.AuthXid:
		d.callbacks.OnResponse(proto.OpSetAuth, xid, zxid, zkerrors.ErrCode(errCode), latency)
		return nil
	case proto.SetWatchesXid:
		d.callbacks.OnResponse(proto.OpSetWatches, xid, zxid, zkerrors.ErrCode(errCode), latency)
		return nil
	case proto.WatchXid:
		return d.parseWatchEvent(data, offset, frameLen, zxid, zkerrors.ErrCode(errCode))
	}

	d.callbacks.OnResponse(opcode, xid, zxid, zkerrors.ErrCode(errCode), latency)
	// Response payloads are not decoded further; jump to the declared end.
	*offset += int64(frameLen) - proto.ServerHeaderLength
	return nil
}

func (d *Decoder) ensureMinLength(frameLen, minLen int32) error {
	if frameLen < minLen {
		return errors.Errorf("packet of %d bytes is too small, need at least %d", frameLen, minLen)
	}
	return nil
}

func (d *Decoder) ensureMaxLength(frameLen int32) error {
	if int64(frameLen) > d.maxPacketBytes {
		return errors.Errorf("packet of %d bytes is too big, max is %d", frameLen, d.maxPacketBytes)
	}
	return nil
}

func (d *Decoder) parseConnect(data Buffer, offset *int64, frameLen int32) error {
	err := d.ensureMinLength(frameLen,
		proto.XidLength+proto.ZxidLength+proto.TimeoutLength+proto.SessionLength+proto.IntLength)
	if err != nil {
		return err
	}

	// Skip last seen zxid, timeout, and session id.
	skip := int64(proto.ZxidLength + proto.TimeoutLength + proto.SessionLength)
	if err := d.helper.skip(data, skip, offset); err != nil {
		return err
	}
	// Skip password.
	if err := d.skipString(data, offset); err != nil {
		return err
	}

	readonly, err := d.maybeReadBool(data, offset)
	if err != nil {
		return err
	}

	d.callbacks.OnConnect(readonly)
	return nil
}

func (d *Decoder) parseAuthRequest(data Buffer, offset *int64, frameLen int32) error {
	err := d.ensureMinLength(frameLen, proto.XidLength+proto.OpcodeLength+(3*proto.IntLength))
	if err != nil {
		return err
	}

	// Skip opcode + auth type.
	if err := d.helper.skip(data, proto.OpcodeLength+proto.IntLength, offset); err != nil {
		return err
	}
	scheme, err := d.helper.peekString(data, offset)
	if err != nil {
		return err
	}
	// Skip credential.
	if err := d.skipString(data, offset); err != nil {
		return err
	}

	d.callbacks.OnAuthRequest(scheme)
	return nil
}

func (d *Decoder) parseGetDataRequest(data Buffer, offset *int64, frameLen int32) error {
	err := d.ensureMinLength(frameLen,
		proto.XidLength+proto.OpcodeLength+proto.IntLength+proto.BoolLength)
	if err != nil {
		return err
	}

	path, err := d.helper.peekString(data, offset)
	if err != nil {
		return err
	}
	watch, err := d.helper.peekBool(data, offset)
	if err != nil {
		return err
	}

	d.callbacks.OnGetDataRequest(path, watch)
	return nil
}

func (d *Decoder) skipACLs(data Buffer, offset *int64) error {
	count, err := d.helper.peekInt32(data, offset)
	if err != nil {
		return err
	}
	for i := int32(0); i < count; i++ {
		// Perms.
		if _, err := d.helper.peekInt32(data, offset); err != nil {
			return err
		}
		// Skip scheme.
		if err := d.skipString(data, offset); err != nil {
			return err
		}
		// Skip credential.
		if err := d.skipString(data, offset); err != nil {
			return err
		}
	}
	return nil
}

func (d *Decoder) parseCreateRequest(data Buffer, offset *int64, frameLen int32, opcode proto.OpType) error {
	err := d.ensureMinLength(frameLen, proto.XidLength+proto.OpcodeLength+(3*proto.IntLength))
	if err != nil {
		return err
	}

	path, err := d.helper.peekString(data, offset)
	if err != nil {
		return err
	}
	// Skip data.
	if err := d.skipString(data, offset); err != nil {
		return err
	}
	if err := d.skipACLs(data, offset); err != nil {
		return err
	}
	flags, err := d.helper.peekInt32(data, offset)
	if err != nil {
		return err
	}

	d.callbacks.OnCreateRequest(path, proto.CreateFlag(flags), opcode)
	return nil
}

func (d *Decoder) parseSetRequest(data Buffer, offset *int64, frameLen int32) error {
	err := d.ensureMinLength(frameLen, proto.XidLength+proto.OpcodeLength+(3*proto.IntLength))
	if err != nil {
		return err
	}

	path, err := d.helper.peekString(data, offset)
	if err != nil {
		return err
	}
	// Skip data.
	if err := d.skipString(data, offset); err != nil {
		return err
	}
	// Ignore version.
	if _, err := d.helper.peekInt32(data, offset); err != nil {
		return err
	}

	d.callbacks.OnSetRequest(path)
	return nil
}

func (d *Decoder) parseGetChildrenRequest(data Buffer, offset *int64, frameLen int32, two bool) error {
	err := d.ensureMinLength(frameLen,
		proto.XidLength+proto.OpcodeLength+proto.IntLength+proto.BoolLength)
	if err != nil {
		return err
	}

	path, err := d.helper.peekString(data, offset)
	if err != nil {
		return err
	}
	watch, err := d.helper.peekBool(data, offset)
	if err != nil {
		return err
	}

	d.callbacks.OnGetChildrenRequest(path, watch, two)
	return nil
}

func (d *Decoder) parseDeleteRequest(data Buffer, offset *int64, frameLen int32) error {
	err := d.ensureMinLength(frameLen, proto.XidLength+proto.OpcodeLength+(2*proto.IntLength))
	if err != nil {
		return err
	}

	path, err := d.helper.peekString(data, offset)
	if err != nil {
		return err
	}
	version, err := d.helper.peekInt32(data, offset)
	if err != nil {
		return err
	}

	d.callbacks.OnDeleteRequest(path, version)
	return nil
}

func (d *Decoder) parseExistsRequest(data Buffer, offset *int64, frameLen int32) error {
	err := d.ensureMinLength(frameLen,
		proto.XidLength+proto.OpcodeLength+proto.IntLength+proto.BoolLength)
	if err != nil {
		return err
	}

	path, err := d.helper.peekString(data, offset)
	if err != nil {
		return err
	}
	watch, err := d.helper.peekBool(data, offset)
	if err != nil {
		return err
	}

	d.callbacks.OnExistsRequest(path, watch)
	return nil
}

func (d *Decoder) parseGetACLRequest(data Buffer, offset *int64, frameLen int32) error {
	path, err := d.pathOnlyRequest(data, offset, frameLen)
	if err != nil {
		return err
	}
	d.callbacks.OnGetACLRequest(path)
	return nil
}

func (d *Decoder) parseSetACLRequest(data Buffer, offset *int64, frameLen int32) error {
	err := d.ensureMinLength(frameLen, proto.XidLength+proto.OpcodeLength+(2*proto.IntLength))
	if err != nil {
		return err
	}

	path, err := d.helper.peekString(data, offset)
	if err != nil {
		return err
	}
	if err := d.skipACLs(data, offset); err != nil {
		return err
	}
	version, err := d.helper.peekInt32(data, offset)
	if err != nil {
		return err
	}

	d.callbacks.OnSetACLRequest(path, version)
	return nil
}

func (d *Decoder) pathOnlyRequest(data Buffer, offset *int64, frameLen int32) (string, error) {
	err := d.ensureMinLength(frameLen, proto.XidLength+proto.OpcodeLength+proto.IntLength)
	if err != nil {
		return "", err
	}
	return d.helper.peekString(data, offset)
}

func (d *Decoder) parseCheckRequest(data Buffer, offset *int64, frameLen int32) error {
	if err := d.ensureMinLength(frameLen, 2*proto.IntLength); err != nil {
		return err
	}

	path, err := d.helper.peekString(data, offset)
	if err != nil {
		return err
	}
	version, err := d.helper.peekInt32(data, offset)
	if err != nil {
		return err
	}

	d.callbacks.OnCheckRequest(path, version)
	return nil
}

// parseMultiRequest walks the transaction's sub-operations. Sub-operations
// carry no length prefix of their own, so each one is bounds-checked
// against the outer message's declared length.
func (d *Decoder) parseMultiRequest(data Buffer, offset *int64, frameLen int32) error {
	// An empty transaction is a decoding error, there should be at least
	// one sub-header.
	err := d.ensureMinLength(frameLen,
		proto.XidLength+proto.OpcodeLength+proto.MultiHeaderLength)
	if err != nil {
		return err
	}

	for {
		opcode, err := d.helper.peekInt32(data, offset)
		if err != nil {
			return err
		}
		done, err := d.helper.peekBool(data, offset)
		if err != nil {
			return err
		}
		// Ignore the error field.
		if _, err := d.helper.peekInt32(data, offset); err != nil {
			return err
		}

		if done {
			break
		}

		switch proto.OpType(opcode) {
		case proto.OpCreate:
			err = d.parseCreateRequest(data, offset, frameLen, proto.OpCreate)
		case proto.OpSetData:
			err = d.parseSetRequest(data, offset, frameLen)
		case proto.OpCheck:
			err = d.parseCheckRequest(data, offset, frameLen)
		default:
			return errors.Errorf("unknown opcode within a transaction: %d", opcode)
		}
		if err != nil {
			return err
		}
	}

	d.callbacks.OnMultiRequest()
	return nil
}

func (d *Decoder) parseReconfigRequest(data Buffer, offset *int64, frameLen int32) error {
	err := d.ensureMinLength(frameLen,
		proto.XidLength+proto.OpcodeLength+(3*proto.IntLength)+proto.LongLength)
	if err != nil {
		return err
	}

	// Skip joining, leaving and new members.
	for i := 0; i < 3; i++ {
		if err := d.skipString(data, offset); err != nil {
			return err
		}
	}
	// Read config id.
	if _, err := d.helper.peekInt64(data, offset); err != nil {
		return err
	}

	d.callbacks.OnReconfigRequest()
	return nil
}

func (d *Decoder) parseSetWatchesRequest(data Buffer, offset *int64, frameLen int32) error {
	err := d.ensureMinLength(frameLen, proto.XidLength+proto.OpcodeLength+(3*proto.IntLength))
	if err != nil {
		return err
	}

	// Ignore relative zxid.
	if _, err := d.helper.peekInt64(data, offset); err != nil {
		return err
	}
	// Data, exist and child watches.
	for i := 0; i < 3; i++ {
		if err := d.skipStrings(data, offset); err != nil {
			return err
		}
	}

	d.callbacks.OnSetWatchesRequest()
	return nil
}

func (d *Decoder) parseXWatchesRequest(data Buffer, offset *int64, frameLen int32, opcode proto.OpType) error {
	err := d.ensureMinLength(frameLen, proto.XidLength+proto.OpcodeLength+(2*proto.IntLength))
	if err != nil {
		return err
	}

	path, err := d.helper.peekString(data, offset)
	if err != nil {
		return err
	}
	watchType, err := d.helper.peekInt32(data, offset)
	if err != nil {
		return err
	}

	if opcode == proto.OpCheckWatches {
		d.callbacks.OnCheckWatchesRequest(path, watchType)
	} else {
		d.callbacks.OnRemoveWatchesRequest(path, watchType)
	}
	return nil
}

func (d *Decoder) parseConnectResponse(data Buffer, offset *int64, frameLen int32, latency time.Duration) error {
	err := d.ensureMinLength(frameLen,
		proto.ProtocolVersionLength+proto.TimeoutLength+proto.SessionLength+proto.IntLength)
	if err != nil {
		return err
	}

	timeout, err := d.helper.peekInt32(data, offset)
	if err != nil {
		return err
	}
	// Skip session id and password.
	if err := d.helper.skip(data, proto.SessionLength, offset); err != nil {
		return err
	}
	if err := d.skipString(data, offset); err != nil {
		return err
	}

	readonly, err := d.maybeReadBool(data, offset)
	if err != nil {
		return err
	}

	d.callbacks.OnConnectResponse(0, timeout, readonly, latency)
	return nil
}

func (d *Decoder) parseWatchEvent(data Buffer, offset *int64, frameLen int32, zxid int64, errCode zkerrors.ErrCode) error {
	err := d.ensureMinLength(frameLen, proto.ServerHeaderLength+(3*proto.IntLength))
	if err != nil {
		return err
	}

	eventType, err := d.helper.peekInt32(data, offset)
	if err != nil {
		return err
	}
	clientState, err := d.helper.peekInt32(data, offset)
	if err != nil {
		return err
	}
	path, err := d.helper.peekString(data, offset)
	if err != nil {
		return err
	}

	d.callbacks.OnWatchEvent(eventType, clientState, path, zxid, errCode)
	return nil
}

func (d *Decoder) skipString(data Buffer, offset *int64) error {
	slen, err := d.helper.peekInt32(data, offset)
	if err != nil {
		return err
	}
	if slen < 0 {
		// Negative length means an absent string; nothing more to skip.
		d.logger.Debug("negative string length on the wire", zap.Int32("len", slen))
		return nil
	}
	return d.helper.skip(data, int64(slen), offset)
}

func (d *Decoder) skipStrings(data Buffer, offset *int64) error {
	count, err := d.helper.peekInt32(data, offset)
	if err != nil {
		return err
	}
	for i := int32(0); i < count; i++ {
		if err := d.skipString(data, offset); err != nil {
			return err
		}
	}
	return nil
}

// maybeReadBool reads the optional trailing read-only flag on connect
// packets; its absence defaults to false.
func (d *Decoder) maybeReadBool(data Buffer, offset *int64) (bool, error) {
	if data.Length() >= *offset+proto.BoolLength {
		return d.helper.peekBool(data, offset)
	}
	return false, nil
}
