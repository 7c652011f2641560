package directions

import (
	"context"
	"fmt"
	"strings"
)

// Mock is a scripted Provider for tests. Results are keyed by the ordered
// address list joined with "|". When Fallback is non-nil it answers any
// ordering without a scripted result.
type Mock struct {
	m        map[string]Result
	Fallback func(addresses []string, optimize bool) (Result, error)
	Calls    int
}

func NewMock() *Mock {
	return &Mock{m: make(map[string]Result)}
}

func MockKey(addresses []string) string {
	return strings.Join(addresses, "|")
}

func (p *Mock) Add(addresses []string, r Result) *Mock {
	p.m[MockKey(addresses)] = r
	return p
}

func (p *Mock) ComputeRoute(ctx context.Context, addresses []string, optimize bool) (Result, error) {
	if err := validateAddresses(addresses); err != nil {
		return Result{}, err
	}
	p.Calls++

	if r, ok := p.m[MockKey(addresses)]; ok {
		return r, nil
	}
	if p.Fallback != nil {
		return p.Fallback(addresses, optimize)
	}
	return Result{}, fmt.Errorf("mock: no scripted result for %q", MockKey(addresses))
}
