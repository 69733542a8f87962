package service

import (
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/villagereg/landregistry/cmd/registry/models"
	"github.com/villagereg/landregistry/common/derrors"
)

// FilterEvaluator evaluates CEL filter expressions against parcels, with a
// compiled-program cache keyed by expression.
//
// Expressions see one variable, `parcel`, a map with parcel_number, location,
// area_sqm, boundaries, current_owner and original_owner (owner full names,
// empty string when unassigned). Example:
//
//	parcel.area_sqm > 500.0 && parcel.location.contains("North")
type FilterEvaluator struct {
	cache map[string]cel.Program
	mu    sync.RWMutex
}

// NewFilterEvaluator creates a new filter evaluator with caching
func NewFilterEvaluator() *FilterEvaluator {
	return &FilterEvaluator{
		cache: make(map[string]cel.Program),
	}
}

// Matches evaluates expr against a parcel. A non-boolean result or a
// compilation failure is the caller's fault and reported as such.
func (e *FilterEvaluator) Matches(expr string, parcel *models.ParcelWithOwners) (bool, error) {
	// Check cache first
	e.mu.RLock()
	prg, exists := e.cache[expr]
	e.mu.RUnlock()

	if !exists {
		var err error
		prg, err = e.compile(expr)
		if err != nil {
			return false, err
		}

		e.mu.Lock()
		e.cache[expr] = prg
		e.mu.Unlock()
	}

	out, _, err := prg.Eval(map[string]interface{}{
		"parcel": parcelVars(parcel),
	})
	if err != nil {
		return false, derrors.Wrap(err, derrors.KindValidation, "filter evaluation failed")
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, derrors.Newf(derrors.KindValidation, "filter did not return a boolean, got %T", out.Value())
	}

	return result, nil
}

// compile compiles a CEL filter expression
func (e *FilterEvaluator) compile(expr string) (cel.Program, error) {
	env, err := cel.NewEnv(
		cel.Variable("parcel", cel.DynType),
	)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.KindValidation, "failed to create filter env")
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, derrors.Wrap(issues.Err(), derrors.KindValidation, "invalid filter expression")
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.KindValidation, "failed to build filter program")
	}

	return prg, nil
}

func parcelVars(parcel *models.ParcelWithOwners) map[string]interface{} {
	boundaries := ""
	if parcel.Boundaries != nil {
		boundaries = *parcel.Boundaries
	}
	currentOwner := ""
	if parcel.CurrentOwner != nil {
		currentOwner = parcel.CurrentOwner.FullName
	}
	originalOwner := ""
	if parcel.OriginalOwner != nil {
		originalOwner = parcel.OriginalOwner.FullName
	}

	return map[string]interface{}{
		"parcel_number":  parcel.ParcelNumber,
		"location":       parcel.Location,
		"area_sqm":       parcel.AreaSqm,
		"boundaries":     boundaries,
		"current_owner":  currentOwner,
		"original_owner": originalOwner,
	}
}
