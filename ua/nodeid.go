package ua

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// NodeID identifies a node in the server address space. The concrete types
// are comparable, so NodeIDs can be map keys and compared with ==.
type NodeID interface {
	fmt.Stringer
	nodeID()
}

// NodeIDNumeric is a NodeID with a numeric identifier.
type NodeIDNumeric struct {
	NamespaceIndex uint16
	ID             uint32
}

// NewNodeIDNumeric makes a NodeID with a numeric identifier.
func NewNodeIDNumeric(ns uint16, id uint32) NodeIDNumeric {
	return NodeIDNumeric{ns, id}
}

func (n NodeIDNumeric) nodeID() {}

func (n NodeIDNumeric) String() string {
	if n.NamespaceIndex == 0 {
		return fmt.Sprintf("i=%d", n.ID)
	}
	return fmt.Sprintf("ns=%d;i=%d", n.NamespaceIndex, n.ID)
}

// NodeIDString is a NodeID with a string identifier.
type NodeIDString struct {
	NamespaceIndex uint16
	ID             string
}

// NewNodeIDString makes a NodeID with a string identifier.
func NewNodeIDString(ns uint16, id string) NodeIDString {
	return NodeIDString{ns, id}
}

func (n NodeIDString) nodeID() {}

func (n NodeIDString) String() string {
	if n.NamespaceIndex == 0 {
		return fmt.Sprintf("s=%s", n.ID)
	}
	return fmt.Sprintf("ns=%d;s=%s", n.NamespaceIndex, n.ID)
}

// NodeIDGUID is a NodeID with a GUID identifier.
type NodeIDGUID struct {
	NamespaceIndex uint16
	ID             uuid.UUID
}

// NewNodeIDGUID makes a NodeID with a GUID identifier.
func NewNodeIDGUID(ns uint16, id uuid.UUID) NodeIDGUID {
	return NodeIDGUID{ns, id}
}

func (n NodeIDGUID) nodeID() {}

func (n NodeIDGUID) String() string {
	if n.NamespaceIndex == 0 {
		return fmt.Sprintf("g=%s", n.ID)
	}
	return fmt.Sprintf("ns=%d;g=%s", n.NamespaceIndex, n.ID)
}

// NodeIDOpaque is a NodeID with an opaque (byte string) identifier.
type NodeIDOpaque struct {
	NamespaceIndex uint16
	ID             ByteString
}

// NewNodeIDOpaque makes a NodeID with an opaque identifier.
func NewNodeIDOpaque(ns uint16, id ByteString) NodeIDOpaque {
	return NodeIDOpaque{ns, id}
}

func (n NodeIDOpaque) nodeID() {}

func (n NodeIDOpaque) String() string {
	b := base64.StdEncoding.EncodeToString([]byte(n.ID))
	if n.NamespaceIndex == 0 {
		return fmt.Sprintf("b=%s", b)
	}
	return fmt.Sprintf("ns=%d;b=%s", n.NamespaceIndex, b)
}

// NilNodeID is the zero NodeID, ns=0;i=0.
var NilNodeID = NodeIDNumeric{}

// ParseNodeID parses the string form of a NodeID, e.g. "i=85",
// "ns=2;s=Demo.Static". Malformed input yields NilNodeID.
func ParseNodeID(s string) NodeID {
	var ns uint64
	var err error
	if strings.HasPrefix(s, "ns=") {
		parts := strings.SplitN(s, ";", 2)
		if len(parts) != 2 {
			return NilNodeID
		}
		if ns, err = strconv.ParseUint(parts[0][3:], 10, 16); err != nil {
			return NilNodeID
		}
		s = parts[1]
	}
	switch {
	case strings.HasPrefix(s, "i="):
		id, err := strconv.ParseUint(s[2:], 10, 32)
		if err != nil {
			return NilNodeID
		}
		return NewNodeIDNumeric(uint16(ns), uint32(id))
	case strings.HasPrefix(s, "s="):
		return NewNodeIDString(uint16(ns), s[2:])
	case strings.HasPrefix(s, "g="):
		id, err := uuid.Parse(s[2:])
		if err != nil {
			return NilNodeID
		}
		return NewNodeIDGUID(uint16(ns), id)
	case strings.HasPrefix(s, "b="):
		id, err := base64.StdEncoding.DecodeString(s[2:])
		if err != nil {
			return NilNodeID
		}
		return NewNodeIDOpaque(uint16(ns), ByteString(id))
	}
	return NilNodeID
}
