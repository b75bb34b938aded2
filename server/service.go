package server

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"twitter-bridge/message"
	"unicode"
	"unicode/utf8"
)

var (
	// ErrPluginNotFound is reported when a request names an unregistered plugin.
	ErrPluginNotFound = errors.New("plugin not found")
	// ErrActionNotFound is reported when a plugin has no such action.
	ErrActionNotFound = errors.New("action not found")
)

type actionType struct {
	method    reflect.Method
	ReplyType reflect.Type
}

type plugin struct {
	name    string
	rcvr    reflect.Value
	typ     reflect.Type
	actions map[string]*actionType
}

var (
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	argsType    = reflect.TypeOf(message.Args(nil))
)

// newPlugin wraps rcvr and collects its actions. An empty name uses the
// receiver's type name.
func newPlugin(name string, rcvr any) (*plugin, error) {
	typ := reflect.TypeOf(rcvr)
	if typ == nil || typ.Kind() != reflect.Ptr {
		return nil, fmt.Errorf("bridge: plugin must be a pointer, got %v", typ)
	}
	if typ.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("bridge: plugin must point to a struct, got %s", typ.Elem().Kind())
	}
	if name == "" {
		name = typ.Elem().Name()
	}

	p := &plugin{
		name:    name,
		rcvr:    reflect.ValueOf(rcvr),
		typ:     typ,
		actions: make(map[string]*actionType),
	}
	p.registerActions()
	if len(p.actions) == 0 {
		return nil, fmt.Errorf("bridge: plugin %s has no actions", name)
	}
	return p, nil
}

// registerActions keeps exported methods shaped like
//
//	func (p *T) Name(ctx context.Context, args message.Args) (R, error)
//
// and exposes each under its lower-camel name (ComposeTweet → composeTweet).
func (p *plugin) registerActions() {
	for i := 0; i < p.typ.NumMethod(); i++ {
		method := p.typ.Method(i)
		mt := method.Type
		if mt.NumIn() != 3 || mt.NumOut() != 2 ||
			mt.In(1) != contextType || mt.In(2) != argsType || mt.Out(1) != errorType {
			continue
		}

		p.actions[ActionName(method.Name)] = &actionType{
			method:    method,
			ReplyType: mt.Out(0),
		}
	}
}

// ActionName converts a Go method name into its wire action name.
func ActionName(method string) string {
	r, size := utf8.DecodeRuneInString(method)
	if r == utf8.RuneError {
		return method
	}
	return string(unicode.ToLower(r)) + method[size:]
}

func (p *plugin) call(ctx context.Context, at *actionType, args message.Args) (any, error) {
	in := [3]reflect.Value{p.rcvr, reflect.ValueOf(ctx), reflect.ValueOf(args)}
	results := at.method.Func.Call(in[:])
	if !results[1].IsNil() {
		return nil, results[1].Interface().(error)
	}
	return results[0].Interface(), nil
}
