// Package proto holds the ZooKeeper wire-level vocabulary: opcodes,
// reserved transaction ids, node-creation flags and field widths.
// Based on ZK 3.5 https://github.com/apache/zookeeper/blob/branch-3.5/src/java/main/org/apache/zookeeper/ZooDefs.java
package proto

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"
)

// OpType is the type of ZK operation. Used to track operation metrics.
type OpType int32

const (
	// OpConnect is the session handshake. It has no opcode of its own on
	// the wire; handshake requests are recognized by their reserved xid.
	OpConnect OpType = 0
	// OpCreate is zk connection Create()
	OpCreate OpType = 1
	// OpDelete is zk connection Delete()
	OpDelete OpType = 2

	OpExists      OpType = 3
	OpGetData     OpType = 4
	OpSetData     OpType = 5
	OpGetACL      OpType = 6
	OpSetACL      OpType = 7
	OpGetChildren OpType = 8
	OpSync        OpType = 9

	// OpPing is the zk client connection ping request
	OpPing         OpType = 11
	OpGetChildren2 OpType = 12
	OpCheck        OpType = 13
	OpMulti        OpType = 14

	OpCreate2       OpType = 15
	OpReconfig      OpType = 16
	OpCheckWatches  OpType = 17
	OpRemoveWatches OpType = 18

	OpCreateContainer OpType = 19
	OpDeleteContainer OpType = 20
	OpCreateTTL       OpType = 21

	OpClose OpType = -11

	OpSetAuth    OpType = 100
	OpSetWatches OpType = 101

	OpGetEphemerals        OpType = 103
	OpGetAllChildrenNumber OpType = 104
)

var opNames = map[OpType]string{
	OpConnect:              "connect",
	OpCreate:               "create",
	OpDelete:               "delete",
	OpExists:               "exists",
	OpGetData:              "getData",
	OpSetData:              "setData",
	OpGetACL:               "getAcl",
	OpSetACL:               "setAcl",
	OpGetChildren:          "getChildren",
	OpSync:                 "sync",
	OpPing:                 "ping",
	OpGetChildren2:         "getChildren2",
	OpCheck:                "check",
	OpMulti:                "multi",
	OpCreate2:              "create2",
	OpReconfig:             "reconfig",
	OpCheckWatches:         "checkWatches",
	OpRemoveWatches:        "removeWatches",
	OpCreateContainer:      "createContainer",
	OpDeleteContainer:      "deleteContainer",
	OpCreateTTL:            "createTtl",
	OpClose:                "closeSession",
	OpSetAuth:              "setAuth",
	OpSetWatches:           "setWatches",
	OpGetEphemerals:        "getEphemerals",
	OpGetAllChildrenNumber: "getAllChildrenNumber",
}

// OpFromInt32 resolves a wire opcode into the closed OpType enumeration.
// Values outside the enumeration are a recoverable error, not a cast.
func OpFromInt32(code int32) (OpType, error) {
	op := OpType(code)
	if _, ok := opNames[op]; !ok {
		return 0, errors.Errorf("unknown opcode: %d", code)
	}
	return op, nil
}

func (o OpType) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return fmt.Sprintf("OpType(%d)", int32(o))
}

// MarshalLogObject renders the logging structure for the OpType
func (o OpType) MarshalLogObject(kv zapcore.ObjectEncoder) error {
	kv.AddInt32("code", int32(o))
	kv.AddString("name", o.String())
	return nil
}
