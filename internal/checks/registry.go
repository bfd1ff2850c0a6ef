package checks

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

type Option struct {
	Name        string
	Description string
	Default     string
}

// Params carries the per-invocation settings of a check kind. Each kind
// reads only the fields it needs.
type Params struct {
	Column     string
	Columns    []string
	AllowExtra bool
	MaxLength  *int
	Values     []string
	Codes      CodeSet
	OnFail     OnFail
}

// Kind describes one check of the catalogue so that checklists can refer to
// it by ID.
type Kind interface {
	ID() string
	Title() string
	Description() string
	Options() []Option

	// Run invokes the check on v. An error that is not a *ValidationError
	// means p was unusable and nothing was recorded.
	Run(v *Validator, p Params) error
}

var (
	registry = make(map[string]Kind)
	mu       sync.RWMutex
)

func Register(k Kind) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[k.ID()]; exists {
		panic(fmt.Sprintf("check %s already registered", k.ID()))
	}
	registry[k.ID()] = k
}

func List() []Kind {
	mu.RLock()
	defer mu.RUnlock()
	kinds := make([]Kind, 0, len(registry))
	for _, k := range registry {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool {
		return kinds[i].ID() < kinds[j].ID()
	})
	return kinds
}

func Lookup(id string) (Kind, error) {
	mu.RLock()
	defer mu.RUnlock()
	k, ok := registry[strings.TrimSpace(id)]
	if !ok {
		return nil, fmt.Errorf("check not found: %s", id)
	}
	return k, nil
}

// Resolve returns the kinds named by a comma-separated selector, or all
// kinds when the selector is empty.
func Resolve(selector string) ([]Kind, error) {
	if strings.TrimSpace(selector) == "" {
		return List(), nil
	}
	var selected []Kind
	for _, id := range strings.Split(selector, ",") {
		k, err := Lookup(id)
		if err != nil {
			return nil, err
		}
		selected = append(selected, k)
	}
	return selected, nil
}
