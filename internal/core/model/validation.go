package model

type FailureKind string

const (
	FailureMissingName        FailureKind = "MissingName"
	FailureInvalidDateOrder   FailureKind = "InvalidDateOrder"
	FailureGenerationConflict FailureKind = "GenerationConflict"
	FailureImplausibleAgeGap  FailureKind = "ImplausibleAgeGap"
	FailureInvalidGender      FailureKind = "InvalidGender"
	FailureInvalidGeneration  FailureKind = "InvalidGeneration"
	FailureRoleGender         FailureKind = "RoleGenderMismatch"
	FailureInvalidRole        FailureKind = "InvalidRole"
	FailureLineageCycle       FailureKind = "LineageCycle"
	FailureAliveWithMemorial  FailureKind = "AliveWithMemorial"
	FailureInvalidAction      FailureKind = "InvalidAction"
)

type Failure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

type ValidationResult struct {
	Valid    bool      `json:"valid"`
	Errors   []string  `json:"errors"`
	Failures []Failure `json:"failures,omitempty"`
}

func NewValidationResult() *ValidationResult {
	return &ValidationResult{Valid: true, Errors: []string{}}
}

func (r *ValidationResult) Add(kind FailureKind, message string) {
	r.Failures = append(r.Failures, Failure{Kind: kind, Message: message})
	r.Errors = append(r.Errors, message)
	r.Valid = false
}

func (r *ValidationResult) Has(kind FailureKind) bool {
	for _, f := range r.Failures {
		if f.Kind == kind {
			return true
		}
	}
	return false
}

// Merge appends other's failures onto r.
func (r *ValidationResult) Merge(other *ValidationResult) {
	if other == nil {
		return
	}
	for _, f := range other.Failures {
		r.Add(f.Kind, f.Message)
	}
}

// Err returns nil for a valid result, otherwise a *ValidationError.
func (r *ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return &ValidationError{Failures: append([]Failure(nil), r.Failures...)}
}
