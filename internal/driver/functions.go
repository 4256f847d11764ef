// functions.go implements the user-defined function registry.
//
// Separated because registration follows a different lifecycle from
// connections: functions are declared once, before the driver opens its
// first connection, and then installed on every connection it opens.
//
// Design: A Functions value is owned by whoever builds it and handed to
// driver.New through Options. Names are checked for duplicates at
// registration time. Each registry gets its own engine instance carrying
// only its functions, so two drivers never see each other's functions and
// may reuse names. Drivers built without functions use an engine with none.

package driver

import (
	"database/sql"
	sqldriver "database/sql/driver"
	"errors"
	"fmt"
	"sync"

	"github.com/jpl-au/sqlitepdo/internal/bind"
	"github.com/jpl-au/sqlitepdo/internal/value"
	"modernc.org/sqlite"
)

// ScalarFunc computes one result from one row of arguments.
type ScalarFunc func(args []value.Value) (any, error)

// AggregateOptions describes an aggregate function.
type AggregateOptions struct {
	// Start returns the initial accumulator. Optional; nil starts at nil.
	Start func() any
	// Step folds one row of arguments into the accumulator.
	Step func(acc any, args []value.Value) (any, error)
	// Result turns the accumulator into the returned value. Optional;
	// without it the accumulator itself is returned.
	Result func(acc any) (any, error)
}

// Functions is a registry of user-defined functions.
type Functions struct {
	mu    sync.Mutex
	impls map[string]*sqlite.FunctionImpl
	order []string

	once       sync.Once
	eng        *sqlite.Driver
	installErr error
}

// NewFunctions returns an empty registry.
func NewFunctions() *Functions {
	return &Functions{impls: make(map[string]*sqlite.FunctionImpl)}
}

// Scalar adds a scalar function. nArgs of -1 accepts any number of
// arguments. Panics if name is already in this registry.
func (f *Functions) Scalar(name string, nArgs int32, deterministic bool, fn ScalarFunc) *Functions {
	f.add(name, &sqlite.FunctionImpl{
		NArgs:         nArgs,
		Deterministic: deterministic,
		Scalar: func(_ *sqlite.FunctionContext, args []sqldriver.Value) (sqldriver.Value, error) {
			vals, err := argValues(args)
			if err != nil {
				return nil, err
			}
			out, err := fn(vals)
			if err != nil {
				return nil, err
			}
			return bind.Primitive(out)
		},
	})
	return f
}

// Aggregate adds an aggregate function. Panics if name is already in this
// registry or opts.Step is nil.
func (f *Functions) Aggregate(name string, nArgs int32, opts AggregateOptions) *Functions {
	if opts.Step == nil {
		panic(fmt.Sprintf("aggregate %q has no step function", name))
	}
	f.add(name, &sqlite.FunctionImpl{
		NArgs: nArgs,
		MakeAggregate: func(sqlite.FunctionContext) (sqlite.AggregateFunction, error) {
			a := &aggregate{opts: opts}
			if opts.Start != nil {
				a.acc = opts.Start()
			}
			return a, nil
		},
	})
	return f
}

func (f *Functions) add(name string, impl *sqlite.FunctionImpl) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.impls == nil {
		f.impls = make(map[string]*sqlite.FunctionImpl)
	}
	if _, exists := f.impls[name]; exists {
		panic(fmt.Sprintf("function %q already registered", name))
	}
	f.impls[name] = impl
	f.order = append(f.order, name)
}

// Names returns registered function names in registration order.
func (f *Functions) Names() []string {
	if f == nil {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}

// Len returns the number of registered functions.
func (f *Functions) Len() int {
	if f == nil {
		return 0
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.order)
}

// engine returns the registry's private engine, building it on first use.
// Drivers sharing a registry share its engine.
func (f *Functions) engine() (*sqlite.Driver, error) {
	f.once.Do(func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.eng, f.installErr = privateEngine(f.order, f.impls)
	})
	return f.eng, f.installErr
}

// aggregate adapts AggregateOptions to the engine's aggregate interface.
type aggregate struct {
	opts AggregateOptions
	acc  any
}

func (a *aggregate) Step(_ *sqlite.FunctionContext, args []sqldriver.Value) error {
	vals, err := argValues(args)
	if err != nil {
		return err
	}
	a.acc, err = a.opts.Step(a.acc, vals)
	return err
}

func (a *aggregate) WindowInverse(*sqlite.FunctionContext, []sqldriver.Value) error {
	return errors.New("aggregate cannot be used as a sliding window function")
}

func (a *aggregate) WindowValue(*sqlite.FunctionContext) (sqldriver.Value, error) {
	out := a.acc
	if a.opts.Result != nil {
		var err error
		if out, err = a.opts.Result(a.acc); err != nil {
			return nil, err
		}
	}
	return bind.Primitive(out)
}

func (a *aggregate) Final(*sqlite.FunctionContext) {}

// argValues converts function arguments with the same rules as result
// cells from a column with no declared type.
func argValues(args []sqldriver.Value) ([]value.Value, error) {
	out := make([]value.Value, len(args))
	for i, a := range args {
		v, err := cellValue(a, "")
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// namedValues adapts arguments for a raw engine exec.
func namedValues(args []any) ([]sqldriver.NamedValue, error) {
	adapted, err := bind.Args(args...)
	if err != nil {
		return nil, err
	}
	out := make([]sqldriver.NamedValue, len(adapted))
	for i, a := range adapted {
		nv := sqldriver.NamedValue{Ordinal: i + 1}
		if na, ok := a.(sql.NamedArg); ok {
			nv.Name = na.Name
			a = na.Value
		}
		if nv.Value, err = bind.Primitive(a); err != nil {
			return nil, err
		}
		out[i] = nv
	}
	return out, nil
}
