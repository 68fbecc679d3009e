package ua

import (
	"reflect"
	"sync"
)

// ExtensionObject carries a structure identified on the wire by the NodeID
// of its binary encoding. Values are pointers to the registered Go structs.
type ExtensionObject interface{}

var (
	registryMu       sync.RWMutex
	typeForEncoding  = map[NodeID]reflect.Type{}
	encodingForType  = map[reflect.Type]NodeID{}
)

// RegisterBinaryEncodingID binds a struct type to the NodeID of its binary
// encoding so the codec can round-trip it inside an ExtensionObject.
func RegisterBinaryEncodingID(typ reflect.Type, id NodeID) {
	registryMu.Lock()
	defer registryMu.Unlock()
	typeForEncoding[id] = typ
	encodingForType[typ] = id
}

// FindTypeForBinaryEncodingID returns the struct type registered for the
// given binary encoding NodeID.
func FindTypeForBinaryEncodingID(id NodeID) (reflect.Type, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	typ, ok := typeForEncoding[id]
	return typ, ok
}

// FindBinaryEncodingIDForType returns the binary encoding NodeID registered
// for the given struct type.
func FindBinaryEncodingIDForType(typ reflect.Type) (NodeID, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	id, ok := encodingForType[typ]
	return id, ok
}
