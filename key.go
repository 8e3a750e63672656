package sdkcommon

import "reflect"

// ServiceKey identifies a registration by static type and optional name
type ServiceKey struct {
	Type reflect.Type
	Name string
}

// KeyOf returns the key for T under name ("" for the default registration)
func KeyOf[T any](name string) ServiceKey {
	return ServiceKey{Type: reflect.TypeFor[T](), Name: name}
}

func (k ServiceKey) String() string {
	typeName := "<nil>"
	if k.Type != nil {
		typeName = k.Type.String()
	}
	if k.Name == "" {
		return typeName
	}
	return typeName + "#" + k.Name
}

// Option configures a single register or resolve call
type Option func(*options)

type options struct {
	scope Scope
	name  string
}

// As sets the scope. On Register it is the registration scope, on Resolve the
// resolution scope.
func As(scope Scope) Option {
	return func(o *options) {
		o.scope = scope
	}
}

// Named selects one of several registrations of the same type
func Named(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

func buildOptions(opts []Option) options {
	o := options{scope: Automatic}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
