package proto

import "go.uber.org/zap/zapcore"

// CreateFlag is the node-creation mode carried by create requests.
// Values follow CreateMode from the ZooKeeper client library.
type CreateFlag int32

const (
	FlagPersistent CreateFlag = iota
	FlagEphemeral
	FlagPersistentSequential
	FlagEphemeralSequential
	FlagContainer
	FlagPersistentWithTTL
	FlagPersistentSequentialWithTTL
)

var createFlagNames = map[CreateFlag]string{
	FlagPersistent:                  "persistent",
	FlagEphemeral:                   "ephemeral",
	FlagPersistentSequential:        "persistent_sequential",
	FlagEphemeralSequential:         "ephemeral_sequential",
	FlagContainer:                   "container",
	FlagPersistentWithTTL:           "persistent_with_ttl",
	FlagPersistentSequentialWithTTL: "persistent_sequential_with_ttl",
}

// String names the flag for observability. Values outside the enumeration
// render as "unknown"; they never fail decoding.
func (f CreateFlag) String() string {
	if name, ok := createFlagNames[f]; ok {
		return name
	}
	return "unknown"
}

// MarshalLogObject renders the logging structure for the CreateFlag
func (f CreateFlag) MarshalLogObject(kv zapcore.ObjectEncoder) error {
	kv.AddInt32("code", int32(f))
	kv.AddString("name", f.String())
	return nil
}
