// Package zkerrors maps the server error codes carried in ZooKeeper
// response headers to human readable messages.
package zkerrors

// ErrCode is the signed error code stamped on every server reply header.
type ErrCode int32

const (
	// ErrOk The OK Error code from ZK packets
	ErrOk ErrCode = 0
	// System and server-side errors
	errSystemError          ErrCode = -1
	errRuntimeInconsistency ErrCode = -2
	errDataInconsistency    ErrCode = -3
	errConnectionLoss       ErrCode = -4
	errMarshallingError     ErrCode = -5
	errUnimplemented        ErrCode = -6
	errOperationTimeout     ErrCode = -7
	errBadArguments         ErrCode = -8
	errInvalidState         ErrCode = -9

	// API errors
	errAPIError                ErrCode = -100
	errNoNode                  ErrCode = -101 // *
	errNoAuth                  ErrCode = -102
	errBadVersion              ErrCode = -103 // *
	errNoChildrenForEphemerals ErrCode = -108
	errNodeExists              ErrCode = -110 // *
	errNotEmpty                ErrCode = -111
	errSessionExpired          ErrCode = -112
	errInvalidCallback         ErrCode = -113
	errInvalidACL              ErrCode = -114
	errAuthFailed              ErrCode = -115
	errClosing                 ErrCode = -116
	errNothing                 ErrCode = -117
	errSessionMoved            ErrCode = -118
)

var errCodeToString = map[ErrCode]string{
	ErrOk:                      "",
	errSystemError:             "system error",
	errRuntimeInconsistency:    "runtime inconsistency",
	errDataInconsistency:       "data inconsistency",
	errConnectionLoss:          "connection loss",
	errMarshallingError:        "marshalling error",
	errUnimplemented:           "operation is unimplemented",
	errOperationTimeout:        "operation timed out",
	errBadArguments:            "bad arguments",
	errInvalidState:            "invalid server state",
	errAPIError:                "api error",
	errNoNode:                  "node does not exist",
	errNoAuth:                  "not authenticated",
	errBadVersion:              "version conflict",
	errNoChildrenForEphemerals: "ephemeral nodes may not have children",
	errNodeExists:              "node already exists",
	errNotEmpty:                "node has children",
	errSessionExpired:          "session has been expired by the server",
	errInvalidCallback:         "invalid callback specified",
	errInvalidACL:              "invalid ACL specified",
	errAuthFailed:              "client authentication failed",
	errClosing:                 "zookeeper is closing",
	errNothing:                 "no server responsees to process",
	errSessionMoved:            "session moved to another server, so operation is ignored",
}

// ZKErrCodeToMessage converts the ZK error code to a message
func ZKErrCodeToMessage(ec ErrCode) string {
	if errString, ok := errCodeToString[ec]; ok {
		return errString
	}
	return "unknown error"
}
