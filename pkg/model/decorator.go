package model

// Decorator enriches field definitions after they are fetched from the
// backend. Implementations return a new map and leave the input untouched.
type Decorator interface {
	Decorate(Definitions) (Definitions, error)
}

// DecoratorFunc adapts a function into a Decorator.
type DecoratorFunc func(Definitions) (Definitions, error)

// Decorate calls the underlying function.
func (fn DecoratorFunc) Decorate(defs Definitions) (Definitions, error) {
	return fn(defs)
}

// Chain applies decorators in order, skipping nil entries.
func Chain(defs Definitions, decorators ...Decorator) (Definitions, error) {
	out := defs
	for _, decorator := range decorators {
		if decorator == nil {
			continue
		}
		next, err := decorator.Decorate(out)
		if err != nil {
			return nil, err
		}
		out = next
	}
	return out, nil
}
