package param

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidParameter is returned for unknown parameters and non-finite values.
var ErrInvalidParameter = errors.New("invalid parameter")

// Store holds the parameter tree of a unit.
//
// The set of parameters is fixed by NewStore. Lookups therefore read
// immutable maps and need no lock; only the per-parameter value slots
// change afterwards.
type Store struct {
	params       []*Parameter
	byAddress    map[uint64]*Parameter
	byIdentifier map[string]*Parameter
}

// NewStore builds a store from params, in order. Every parameter is reset to
// its default value.
func NewStore(params ...*Parameter) (*Store, error) {
	s := &Store{
		params:       make([]*Parameter, 0, len(params)),
		byAddress:    make(map[uint64]*Parameter, len(params)),
		byIdentifier: make(map[string]*Parameter, len(params)),
	}

	for _, p := range params {
		if p == nil {
			return nil, errors.New("param: nil parameter")
		}
		if p.Max < p.Min {
			return nil, fmt.Errorf("param: %q has inverted range [%v, %v]", p.Identifier, p.Min, p.Max)
		}
		if _, exists := s.byAddress[p.Address]; exists {
			return nil, fmt.Errorf("param: duplicate address %d", p.Address)
		}
		if _, exists := s.byIdentifier[p.Identifier]; exists {
			return nil, fmt.Errorf("param: duplicate identifier %q", p.Identifier)
		}

		p.index = len(s.params)
		p.Reset()
		s.params = append(s.params, p)
		s.byAddress[p.Address] = p
		s.byIdentifier[p.Identifier] = p
	}

	return s, nil
}

// MustStore is NewStore for static parameter layouts; it panics on error.
func MustStore(params ...*Parameter) *Store {
	s, err := NewStore(params...)
	if err != nil {
		panic(err)
	}
	return s
}

// Get retrieves a parameter by address, or nil.
func (s *Store) Get(address uint64) *Parameter {
	return s.byAddress[address]
}

// ByIdentifier retrieves a parameter by its string identifier, or nil.
func (s *Store) ByIdentifier(identifier string) *Parameter {
	return s.byIdentifier[identifier]
}

// Count returns the number of parameters
func (s *Store) Count() int {
	return len(s.params)
}

// All returns all parameters in order
func (s *Store) All() []*Parameter {
	result := make([]*Parameter, len(s.params))
	copy(result, s.params)
	return result
}

// SetParameter validates, clamps and publishes value for the parameter at
// address. Unknown addresses, read-only parameters and non-finite values
// fail with ErrInvalidParameter and leave the store unchanged.
func (s *Store) SetParameter(address uint64, value float64) error {
	if err := s.Validate(address, value); err != nil {
		return err
	}
	return s.byAddress[address].Set(value)
}

// Validate reports whether SetParameter would accept value for address.
func (s *Store) Validate(address uint64, value float64) error {
	p := s.byAddress[address]
	if p == nil {
		return fmt.Errorf("%w: unknown address %d", ErrInvalidParameter, address)
	}
	if !p.IsWritable() {
		return fmt.Errorf("%w: %q is read-only", ErrInvalidParameter, p.Identifier)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("%w: %q rejects non-finite value %v", ErrInvalidParameter, p.Identifier, value)
	}
	return nil
}

// ValueForParameter returns the last published value without blocking.
func (s *Store) ValueForParameter(address uint64) (float64, error) {
	p := s.byAddress[address]
	if p == nil {
		return 0, fmt.Errorf("%w: unknown address %d", ErrInvalidParameter, address)
	}
	return p.Value(), nil
}

// Snapshot copies every value, in index order, into dst and returns the
// number copied. It does not allocate. Each value is read atomically, but
// values of different parameters may come from different writes.
func (s *Store) Snapshot(dst []float64) int {
	n := len(s.params)
	if len(dst) < n {
		n = len(dst)
	}
	for i := 0; i < n; i++ {
		dst[i] = s.params[i].Value()
	}
	return n
}
