// Package lineage runs pre-flight checks on members and family links before
// they are committed.
package lineage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/agenthands/lineage/internal/core/model"
)

const DefaultMinParentAgeGapYears = 10

// MemberLookup resolves members referenced by a validation context.
type MemberLookup interface {
	GetMember(ctx context.Context, id string) (*model.Member, error)
}

type Validator struct {
	minAgeGap float64
}

func NewValidator(minParentAgeGapYears int) *Validator {
	if minParentAgeGapYears <= 0 {
		minParentAgeGapYears = DefaultMinParentAgeGapYears
	}
	return &Validator{minAgeGap: float64(minParentAgeGapYears)}
}

// ValidateNewMember checks a candidate against an optional parent and returns
// every failure found. A nil parent skips the parent-relative checks.
func (v *Validator) ValidateNewMember(candidate, parent *model.Member) *model.ValidationResult {
	res := model.NewValidationResult()

	if strings.TrimSpace(candidate.Name) == "" {
		res.Add(model.FailureMissingName, "name is required")
	}

	birth, hasBirth := ParseDate(candidate.BirthDate)
	if death, hasDeath := ParseDate(candidate.DeathDate); hasBirth && hasDeath && birth.After(death) {
		res.Add(model.FailureInvalidDateOrder,
			fmt.Sprintf("birth date %s is after death date %s", candidate.BirthDate, candidate.DeathDate))
	}

	if parent != nil {
		v.checkParentChild(res, parent, candidate)
	}

	if candidate.Gender != "" && !candidate.Gender.Valid() {
		res.Add(model.FailureInvalidGender, fmt.Sprintf("gender %q must be M or F", candidate.Gender))
	}
	if candidate.Generation < 0 {
		res.Add(model.FailureInvalidGeneration, fmt.Sprintf("generation %d must be positive", candidate.Generation))
	}
	return res
}

// ValidateWithLookup resolves parentID before validating. An unknown parent
// only skips the parent checks.
func (v *Validator) ValidateWithLookup(ctx context.Context, lookup MemberLookup, candidate *model.Member, parentID string) (*model.ValidationResult, error) {
	var parent *model.Member
	if parentID != "" {
		p, err := lookup.GetMember(ctx, parentID)
		switch {
		case err == nil:
			parent = p
		case errors.Is(err, model.ErrNotFound):
		default:
			return nil, err
		}
	}
	return v.ValidateNewMember(candidate, parent), nil
}

// ValidateLink checks a proposed edge from source to target. The role is read
// from source's side, so a father edge makes target the parent.
func (v *Validator) ValidateLink(source, target *model.Member, rel model.Relationship, role model.Role) *model.ValidationResult {
	res := model.NewValidationResult()

	if !role.Valid() {
		res.Add(model.FailureInvalidRole, fmt.Sprintf("unknown role %q", role))
		return res
	}
	if !rel.Valid() {
		res.Add(model.FailureInvalidRole, fmt.Sprintf("unknown relationship %q", rel))
		return res
	}
	if source.ID == target.ID {
		res.Add(model.FailureLineageCycle, "a member cannot be linked to itself")
		return res
	}

	switch {
	case role.IsParent():
		checkRoleGender(res, target, role)
		if rel.Lineal() {
			v.checkParentChild(res, target, source)
		}
	case role.IsChild():
		checkRoleGender(res, target, role)
		if rel.Lineal() {
			v.checkParentChild(res, source, target)
		}
	}
	return res
}

func (v *Validator) checkParentChild(res *model.ValidationResult, parent, child *model.Member) {
	if parent.Generation > 0 && child.Generation > 0 && child.Generation <= parent.Generation {
		res.Add(model.FailureGenerationConflict,
			fmt.Sprintf("generation conflict: child generation %d must be greater than parent generation %d",
				child.Generation, parent.Generation))
	}

	parentBirth, ok := ParseDate(parent.BirthDate)
	if !ok {
		return
	}
	childBirth, ok := ParseDate(child.BirthDate)
	if !ok {
		return
	}
	if gap := yearsBetween(parentBirth, childBirth); gap < v.minAgeGap {
		res.Add(model.FailureImplausibleAgeGap,
			fmt.Sprintf("implausible age gap: child born %.1f years after parent, expected at least %.0f",
				gap, v.minAgeGap))
	}
}

func checkRoleGender(res *model.ValidationResult, m *model.Member, role model.Role) {
	if m.Gender == "" {
		return
	}
	var want model.Gender
	switch role {
	case model.RoleFather, model.RoleSon:
		want = model.GenderMale
	case model.RoleMother, model.RoleDaughter:
		want = model.GenderFemale
	default:
		return
	}
	if m.Gender != want {
		res.Add(model.FailureRoleGender,
			fmt.Sprintf("role %s requires gender %s but %s is %s", role, want, m.Name, m.Gender))
	}
}

// ValidateAliveState rejects an alive member that still carries a burial or
// tribute record.
func ValidateAliveState(m *model.Member, hasCemetery bool, tributes int) *model.ValidationResult {
	res := model.NewValidationResult()
	if !m.IsAlive {
		return res
	}
	if hasCemetery {
		res.Add(model.FailureAliveWithMemorial, fmt.Sprintf("%s is alive but has a cemetery record", m.Name))
	}
	if tributes > 0 {
		res.Add(model.FailureAliveWithMemorial, fmt.Sprintf("%s is alive but has %d tribute log(s)", m.Name, tributes))
	}
	return res
}
