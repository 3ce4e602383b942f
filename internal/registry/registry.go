// Package registry provides the stage registry for transform operations.
//
// # Overview
//
// A TransformSpec names its operations by string (impute_median, standardize, ...).
// The registry resolves those names to stage definitions, so the transform
// package never switches on operation names itself.
//
// # Adding a New Operation
//
//  1. Implement a fit function and an apply function in package stages
//  2. Bundle them in a stages.Definition
//  3. Register the definition in an init() function
//
// Example:
//
//	func init() {
//	    registry.RegisterStage(stages.Definition{
//	        Op:    "clip",
//	        Fit:   FitClip,
//	        Apply: ApplyClip,
//	    })
//	}
//
// # Built-in Operations
//
// The median imputer, mode imputer, ordinal encoder and standard scaler are
// registered automatically via init() in builtins.go.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Klnishant/DiamondPricePrediction/internal/errhandling"
	"github.com/Klnishant/DiamondPricePrediction/internal/stages"
	"github.com/Klnishant/DiamondPricePrediction/pkg/preprocess"
)

// stageRegistry holds registered stage definitions.
var (
	stageMu       sync.RWMutex
	stageRegistry = make(map[preprocess.Operation]stages.Definition)
)

// RegisterStage registers a stage definition by its operation name.
// Registering an already registered operation overwrites the previous definition.
//
// This function is safe for concurrent use and is typically called from init().
func RegisterStage(def stages.Definition) {
	stageMu.Lock()
	defer stageMu.Unlock()
	stageRegistry[def.Op] = def
}

// GetStage returns the registered definition for op.
// Returns an error wrapping ErrUnknownOperation if op is not registered.
func GetStage(op preprocess.Operation) (stages.Definition, error) {
	stageMu.RLock()
	defer stageMu.RUnlock()
	def, ok := stageRegistry[op]
	if !ok || def.Fit == nil || def.Apply == nil {
		return stages.Definition{}, fmt.Errorf("%w: %q", errhandling.ErrUnknownOperation, op)
	}
	return def, nil
}

// ListStages returns all registered operation names, sorted.
// Useful for documentation and debugging.
func ListStages() []preprocess.Operation {
	stageMu.RLock()
	defer stageMu.RUnlock()
	ops := make([]preprocess.Operation, 0, len(stageRegistry))
	for op := range stageRegistry {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })
	return ops
}

// ClearRegistry removes all registered stages.
// This is intended for testing purposes only; call Reset to restore built-ins.
func ClearRegistry() {
	stageMu.Lock()
	stageRegistry = make(map[preprocess.Operation]stages.Definition)
	stageMu.Unlock()
}

// Reset restores the registry to the built-in stages only.
func Reset() {
	ClearRegistry()
	registerBuiltinStages()
}
