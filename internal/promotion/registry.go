package promotion

import (
	"fmt"
	"sort"
	"sync"

	"github.com/harborline/storefront/internal/domain"
	apperrors "github.com/harborline/storefront/pkg/errors"
)

// RuleFactory builds a Rule from its stored record.
type RuleFactory func(rec domain.PromotionRule) (Rule, error)

// ActionFactory builds an Action from its stored record.
type ActionFactory func(rec domain.PromotionAction) (Action, error)

// CalculatorFactory builds a Calculator from its stored settings.
type CalculatorFactory func(rec domain.PromotionAction) (Calculator, error)

var (
	mu          sync.RWMutex
	rules       = make(map[string]RuleFactory)
	actions     = make(map[string]ActionFactory)
	calculators = make(map[string]CalculatorFactory)
)

// RegisterRule registers a rule type. It panics on a duplicate name since
// registration happens at init time.
func RegisterRule(name string, f RuleFactory) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := rules[name]; dup {
		panic(fmt.Sprintf("promotion: rule type %q registered twice", name))
	}
	rules[name] = f
}

// RegisterAction registers an action type. It panics on a duplicate name.
func RegisterAction(name string, f ActionFactory) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := actions[name]; dup {
		panic(fmt.Sprintf("promotion: action type %q registered twice", name))
	}
	actions[name] = f
}

// RegisterCalculator registers a calculator type. It panics on a duplicate
// name.
func RegisterCalculator(name string, f CalculatorFactory) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := calculators[name]; dup {
		panic(fmt.Sprintf("promotion: calculator type %q registered twice", name))
	}
	calculators[name] = f
}

// NewRule builds the rule behavior for a stored record. Unknown types are an
// input error so callers can surface them as 4xx rather than 500.
func NewRule(rec domain.PromotionRule) (Rule, error) {
	mu.RLock()
	f, ok := rules[rec.Type]
	mu.RUnlock()
	if !ok {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown promotion rule type %q", rec.Type))
	}
	return f(rec)
}

// NewAction builds the action behavior for a stored record.
func NewAction(rec domain.PromotionAction) (Action, error) {
	mu.RLock()
	f, ok := actions[rec.Type]
	mu.RUnlock()
	if !ok {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown promotion action type %q", rec.Type))
	}
	return f(rec)
}

// NewCalculator builds the calculator named by the action record.
func NewCalculator(rec domain.PromotionAction) (Calculator, error) {
	mu.RLock()
	f, ok := calculators[rec.CalculatorType]
	mu.RUnlock()
	if !ok {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown calculator type %q", rec.CalculatorType))
	}
	return f(rec)
}

// KnownRuleTypes returns the registered rule type names, sorted.
func KnownRuleTypes() []string { return knownNames(rules) }

// KnownActionTypes returns the registered action type names, sorted.
func KnownActionTypes() []string { return knownNames(actions) }

// KnownCalculatorTypes returns the registered calculator type names, sorted.
func KnownCalculatorTypes() []string { return knownNames(calculators) }

func knownNames[T any](m map[string]T) []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
