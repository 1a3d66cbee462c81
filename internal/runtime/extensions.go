package runtime

import (
	"sync"

	"github.com/nyxlang/nyx/internal/value"
)

// extensionTable implements resolve.ExtensionTable, backing spec §6's
// `register_extension(type_name, name, callable)`: user code can attach a
// function or property to any type name (built-in or declared class) at
// embedding time, resolved by internal/resolve's strategy 6/7 before
// falling through to foreign reflection.
type extensionTable struct {
	mu         sync.RWMutex
	functions  map[extKey]value.Callable
	properties map[extKey]value.Value
}

type extKey struct {
	typeName string
	name     string
}

func newExtensionTable() *extensionTable {
	return &extensionTable{
		functions:  make(map[extKey]value.Callable),
		properties: make(map[extKey]value.Value),
	}
}

func (t *extensionTable) Register(typeName, name string, c value.Callable) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.functions[extKey{typeName, name}] = c
}

func (t *extensionTable) RegisterProperty(typeName, name string, v value.Value) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.properties[extKey{typeName, name}] = v
}

func (t *extensionTable) LookupExtensionFunction(typeName, name string) (value.Callable, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.functions[extKey{typeName, name}]
	return c, ok
}

func (t *extensionTable) LookupExtensionProperty(typeName, name string) (value.Value, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.properties[extKey{typeName, name}]
	return v, ok
}

// stdlibTable implements resolve.StdlibExtensionTable: the engine's own
// built-in-module methods on core types (e.g. List.map, String.trim),
// keyed by a type tag rather than a user-registered type name so it never
// collides with extensionTable's user-facing registry.
type stdlibTable struct {
	mu      sync.RWMutex
	methods map[extKey]value.Callable
}

func newStdlibTable() *stdlibTable {
	return &stdlibTable{methods: make(map[extKey]value.Callable)}
}

func (t *stdlibTable) Register(typeTag, name string, c value.Callable) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.methods[extKey{typeTag, name}] = c
}

func (t *stdlibTable) LookupStdlibExtension(typeTag, name string) (value.Callable, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.methods[extKey{typeTag, name}]
	return c, ok
}
