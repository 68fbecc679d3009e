package server

import (
	"sync"
	"time"

	"github.com/edgeworks/opcua/ua"
	"github.com/puzpuzpuz/xsync/v3"
)

// VariableNode is a readable, optionally writable value in the server
// address space. Values are fed programmatically by the host application.
type VariableNode struct {
	mu                      sync.RWMutex
	nodeID                  ua.NodeID
	browseName              ua.QualifiedName
	value                   ua.DataValue
	accessLevel             byte
	minimumSamplingInterval float64
	euRange                 *ua.Range
}

// NewVariableNode makes a VariableNode with an initial value.
func NewVariableNode(nodeID ua.NodeID, browseName ua.QualifiedName, value ua.DataValue, accessLevel byte, minimumSamplingInterval float64, euRange *ua.Range) *VariableNode {
	return &VariableNode{
		nodeID:                  nodeID,
		browseName:              browseName,
		value:                   value,
		accessLevel:             accessLevel,
		minimumSamplingInterval: minimumSamplingInterval,
		euRange:                 euRange,
	}
}

// NodeID returns the node id.
func (n *VariableNode) NodeID() ua.NodeID {
	return n.nodeID
}

// BrowseName returns the browse name.
func (n *VariableNode) BrowseName() ua.QualifiedName {
	return n.browseName
}

// AccessLevel returns the access level bits.
func (n *VariableNode) AccessLevel() byte {
	return n.accessLevel
}

// MinimumSamplingInterval returns the fastest supported sampling interval
// in milliseconds, 0 for unrestricted.
func (n *VariableNode) MinimumSamplingInterval() float64 {
	return n.minimumSamplingInterval
}

// EURange returns the engineering unit range of the value, or nil when the
// node has none. Percent deadband filters require a range.
func (n *VariableNode) EURange() *ua.Range {
	return n.euRange
}

// Value returns the current value.
func (n *VariableNode) Value() ua.DataValue {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.value
}

// SetValue replaces the current value.
func (n *VariableNode) SetValue(value ua.DataValue) {
	n.mu.Lock()
	n.value = value
	n.mu.Unlock()
}

// SetValueNow replaces the value with a Good quality sample timestamped
// now.
func (n *VariableNode) SetValueNow(value ua.Variant) {
	now := time.Now()
	n.SetValue(ua.NewDataValue(value, ua.Good, now, 0, now, 0))
}

// Namespace is the address space: a concurrent node id to VariableNode
// table.
type Namespace struct {
	nodes *xsync.MapOf[ua.NodeID, *VariableNode]
}

// NewNamespace makes an empty Namespace.
func NewNamespace() *Namespace {
	return &Namespace{nodes: xsync.NewMapOf[ua.NodeID, *VariableNode]()}
}

// AddVariable adds a node, replacing any node with the same id.
func (ns *Namespace) AddVariable(n *VariableNode) {
	ns.nodes.Store(n.NodeID(), n)
}

// DeleteVariable removes a node.
func (ns *Namespace) DeleteVariable(id ua.NodeID) {
	ns.nodes.Delete(id)
}

// FindVariable looks a node up by id.
func (ns *Namespace) FindVariable(id ua.NodeID) (*VariableNode, bool) {
	return ns.nodes.Load(id)
}

// Len returns the node count.
func (ns *Namespace) Len() int {
	return ns.nodes.Size()
}
