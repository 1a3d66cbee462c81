package runtime

import (
	nerr "github.com/nyxlang/nyx/internal/errors"
	"github.com/nyxlang/nyx/internal/value"
)

// AnnotationHandle is spec §6's register_annotation_processor return value:
// a live registration a script can unregister, re-register, or swap the
// handler of without going through the top-level registerAnnotationProcessor
// call again. Wrapped as a *value.External so unregister/register/replace
// reach it through the same reflection dispatch as any other foreign
// object, per internal/foreign's method resolution.
type AnnotationHandle struct {
	rt      *Runtime
	name    string
	handler value.Callable
	active  bool
}

func (h *AnnotationHandle) Unregister() value.Value {
	h.rt.mu.Lock()
	h.active = false
	delete(h.rt.annotations, h.name)
	h.rt.mu.Unlock()
	return value.Unit
}

func (h *AnnotationHandle) Register() value.Value {
	h.rt.mu.Lock()
	h.active = true
	h.rt.annotations[h.name] = h
	h.rt.mu.Unlock()
	return value.Unit
}

func (h *AnnotationHandle) Replace(newHandler value.Value) (value.Value, error) {
	cb, ok := newHandler.(value.Callable)
	if !ok {
		return nil, nerr.New(nerr.TypeMismatch, "AnnotationHandle.replace: argument must be callable")
	}
	h.rt.mu.Lock()
	h.handler = cb
	h.rt.mu.Unlock()
	return value.Unit, nil
}

// applyAnnotations runs every active processor whose name appears in the
// class's Annotations list against the class, called from RegisterClass so
// a class's annotation processors fire exactly once, at declaration time
// (spec: "creation ... registers annotation processors that apply to the
// class").
func (rt *Runtime) applyAnnotations(c *value.Class) error {
	if len(c.Annotations) == 0 {
		return nil
	}
	rt.mu.RLock()
	handlers := make([]*AnnotationHandle, 0, len(c.Annotations))
	for _, name := range c.Annotations {
		if h, ok := rt.annotations[name]; ok && h.active {
			handlers = append(handlers, h)
		}
	}
	rt.mu.RUnlock()
	for _, h := range handlers {
		if _, err := h.handler.Call(rt.eval, []value.Value{c}); err != nil {
			return err
		}
	}
	return nil
}

// registerAnnotationProcessorBuiltin installs `registerAnnotationProcessor`
// per §6.1, returning the External-wrapped AnnotationHandle.
func (rt *Runtime) registerAnnotationProcessorBuiltin() {
	rt.define("registerAnnotationProcessor", 2, func(_ any, args []value.Value) (value.Value, error) {
		name, err := stringArg(args, 0, "registerAnnotationProcessor")
		if err != nil {
			return nil, err
		}
		cb, ok := arg(args, 1).(value.Callable)
		if !ok {
			return nil, nerr.New(nerr.TypeMismatch, "registerAnnotationProcessor: second argument must be callable")
		}
		h := &AnnotationHandle{rt: rt, name: name, handler: cb, active: true}
		rt.mu.Lock()
		rt.annotations[name] = h
		rt.mu.Unlock()
		return value.NewExternal(h, "AnnotationHandle"), nil
	})
}

// RegisterAnnotationProcessor is the Go-side embedding entry point for
// spec §6's register_annotation_processor, for hosts that want to install a
// processor before running any script rather than from within one.
func (rt *Runtime) RegisterAnnotationProcessor(name string, handler value.Callable) *AnnotationHandle {
	h := &AnnotationHandle{rt: rt, name: name, handler: handler, active: true}
	rt.mu.Lock()
	rt.annotations[name] = h
	rt.mu.Unlock()
	return h
}
