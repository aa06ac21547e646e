package hub

import (
	"fmt"
	"reflect"

	"github.com/provide-io/foundation-go/errs"
)

// Resolve is constructor-introspection dependency injection. It takes a
// constructor function and satisfies each parameter from the registered
// components: first by assignable type, then, for each parameter that
// no registered component satisfies, by a registered factory for that
// type.
// Go reflection exposes parameter types but not names, so name-based
// resolution becomes the explicit factory API here.
//
// The constructor must return either (T) or (T, error). Resolve returns
// the constructed T.
func (h *Hub) Resolve(constructor any) (any, error) {
	fn := reflect.ValueOf(constructor)
	if fn.Kind() != reflect.Func {
		return nil, errs.Validation("constructor must be a function").
			With("got", fmt.Sprintf("%T", constructor))
	}
	t := fn.Type()
	if t.NumOut() < 1 || t.NumOut() > 2 {
		return nil, errs.Validation("constructor must return a value or a value and an error")
	}
	if t.NumOut() == 2 && !t.Out(1).Implements(reflect.TypeOf((*error)(nil)).Elem()) {
		return nil, errs.Validation("constructor's second return must be error")
	}

	args := make([]reflect.Value, t.NumIn())
	for i := 0; i < t.NumIn(); i++ {
		paramType := t.In(i)
		value, err := h.resolveParam(paramType)
		if err != nil {
			return nil, err
		}
		args[i] = value
	}

	out := fn.Call(args)
	if len(out) == 2 && !out[1].IsNil() {
		return nil, out[1].Interface().(error)
	}
	return out[0].Interface(), nil
}

func (h *Hub) resolveParam(paramType reflect.Type) (reflect.Value, error) {
	// Pass 1: a registered component whose value is assignable.
	for _, entry := range h.components.Snapshot() {
		if entry.Dimension == DimensionCommand {
			continue
		}
		if entry.Value == nil {
			continue
		}
		vt := reflect.TypeOf(entry.Value)
		if vt.AssignableTo(paramType) {
			return reflect.ValueOf(entry.Value), nil
		}
	}

	// Pass 2: an explicit factory for the type.
	h.mu.Lock()
	factory, ok := h.factories[typeKey(paramType)]
	h.mu.Unlock()
	if ok {
		built, err := h.Resolve(factory)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(built), nil
	}

	return reflect.Value{}, errs.New(errs.CodeDependencyMissing, "no component or factory satisfies constructor parameter").
		With("type", paramType.String())
}

// RegisterFactory records factory for later Resolve calls. The factory
// is itself resolved recursively, so factories may depend on other
// components. Its first return type keys the registration.
func (h *Hub) RegisterFactory(factory any) error {
	fn := reflect.TypeOf(factory)
	if fn == nil || fn.Kind() != reflect.Func || fn.NumOut() < 1 {
		return errs.Validation("factory must be a function returning at least one value")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.factories[typeKey(fn.Out(0))] = factory
	return nil
}

func typeKey(t reflect.Type) string { return t.String() }
