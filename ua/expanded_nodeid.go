package ua

import "fmt"

// ExpandedNodeID extends a NodeID with an optional namespace URI and a
// server index for identifiers that live on another server.
type ExpandedNodeID struct {
	ServerIndex  uint32
	NamespaceURI string
	NodeID       NodeID
}

// NewExpandedNodeID wraps a NodeID that lives on the local server.
func NewExpandedNodeID(id NodeID) ExpandedNodeID {
	return ExpandedNodeID{NodeID: id}
}

// NilExpandedNodeID is the zero ExpandedNodeID.
var NilExpandedNodeID = ExpandedNodeID{NodeID: NilNodeID}

func (n ExpandedNodeID) String() string {
	b := ""
	if n.ServerIndex > 0 {
		b = fmt.Sprintf("svr=%d;", n.ServerIndex)
	}
	if len(n.NamespaceURI) > 0 {
		b += fmt.Sprintf("nsu=%s;", n.NamespaceURI)
	}
	if n.NodeID != nil {
		b += n.NodeID.String()
	}
	return b
}
