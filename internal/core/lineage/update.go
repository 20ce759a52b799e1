package lineage

import (
	"context"
	"errors"
	"fmt"

	"github.com/agenthands/lineage/internal/core/model"
)

// Records is the read access CheckUpdate needs beyond the member itself.
type Records interface {
	GetCemetery(ctx context.Context, memberID string) (*model.Cemetery, error)
	ListMemorialLogs(ctx context.Context, memberID string, limit int) ([]*model.MemorialLog, error)
	LinksTo(ctx context.Context, targetID string) ([]*model.FamilyLink, error)
}

// CheckUpdate validates next as the new state of current. On top of the
// member rules it rejects reviving a member that has memorial records and
// changing the gender of a member that parent or child links refer to.
func (v *Validator) CheckUpdate(ctx context.Context, recs Records, current, next *model.Member) error {
	res := v.ValidateNewMember(next, nil)

	if next.IsAlive && !current.IsAlive {
		hasCemetery := true
		if _, err := recs.GetCemetery(ctx, current.ID); errors.Is(err, model.ErrNotFound) {
			hasCemetery = false
		} else if err != nil {
			return err
		}
		logs, err := recs.ListMemorialLogs(ctx, current.ID, 1)
		if err != nil {
			return err
		}
		res.Merge(ValidateAliveState(next, hasCemetery, len(logs)))
	}

	if next.Gender != current.Gender {
		links, err := recs.LinksTo(ctx, current.ID)
		if err != nil {
			return err
		}
		for _, l := range links {
			if l.Role.IsParent() || l.Role.IsChild() {
				res.Add(model.FailureRoleGender,
					fmt.Sprintf("%s is recorded as %s by %s; gender cannot change while that link exists",
						current.Name, l.Role, l.SourceID))
				break
			}
		}
	}
	return res.Err()
}
