package sdkcommon

import "fmt"

// Assembly groups related registrations, typically one per feature module
type Assembly interface {
	Assemble(c *Container) error
}

// AssemblyFunc adapts a function to Assembly
type AssemblyFunc func(c *Container) error

func (f AssemblyFunc) Assemble(c *Container) error {
	return f(c)
}

// Apply runs assemblies in order, stopping at the first failure
func (c *Container) Apply(assemblies ...Assembly) error {
	for i, a := range assemblies {
		if err := a.Assemble(c); err != nil {
			return fmt.Errorf("applying assembly %d: %w", i, err)
		}
	}
	return nil
}
