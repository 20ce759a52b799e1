package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/agenthands/lineage/internal/core/gedcom"
	"github.com/agenthands/lineage/internal/core/model"
)

func (r *Registry) DetectConflicts(ctx context.Context, incoming []*model.Member) (*model.ConflictReport, error) {
	return r.Merge.DetectConflicts(ctx, incoming)
}

// MergeBranch merges incoming under the given resolutions. A partial failure
// still leaves the applied part visible to trees and the mirror.
func (r *Registry) MergeBranch(ctx context.Context, incoming []*model.Member, resolutions []model.Resolution) (*model.MergeSummary, error) {
	summary, err := r.Merge.MergeBranch(ctx, incoming, resolutions)
	if summary != nil {
		r.changed(ctx)
		r.projectMerge(ctx, summary)
	}
	if err != nil {
		r.log.Warn("merge stopped", "error", err)
		return summary, err
	}
	r.log.Info("branch merged", "added", summary.Added, "resolutions", len(summary.Resolutions))
	return summary, nil
}

func (r *Registry) projectMerge(ctx context.Context, summary *model.MergeSummary) {
	if !r.Projector.enabled() {
		return
	}
	ids := append([]string(nil), summary.AddedIDs...)
	for _, a := range summary.Resolutions {
		if a.MemberID != "" {
			ids = append(ids, a.MemberID)
		}
	}
	for _, id := range ids {
		m, err := r.Store.GetMember(ctx, id)
		if err != nil {
			continue
		}
		r.Projector.SaveMembers(ctx, m)
	}
}

type ImportResult struct {
	Parsed    int              `json:"parsed"`
	Added     int              `json:"added"`
	AddedIDs  []string         `json:"addedIds"`
	Conflicts []model.Conflict `json:"conflicts"`
}

// ImportGEDCOM adds every parsed individual that does not duplicate an
// existing member. Duplicates are reported, not merged; they can be resolved
// through MergeBranch. Family records are not read, so no links are created.
func (r *Registry) ImportGEDCOM(ctx context.Context, text string) (*ImportResult, error) {
	parsed, err := gedcom.Import(text)
	if err != nil {
		return nil, err
	}
	report, err := r.Merge.DetectConflicts(ctx, parsed)
	if err != nil {
		return nil, err
	}

	res := &ImportResult{Parsed: len(parsed), AddedIDs: []string{}, Conflicts: report.Conflicts}
	if res.Conflicts == nil {
		res.Conflicts = []model.Conflict{}
	}
	if len(report.NewMembers) == 0 {
		return res, nil
	}

	summary, err := r.MergeBranch(ctx, report.NewMembers, nil)
	if summary != nil {
		res.Added = summary.Added
		res.AddedIDs = summary.AddedIDs
	}
	if err != nil {
		return res, err
	}
	return res, nil
}

func (r *Registry) ExportGEDCOM(ctx context.Context) (string, error) {
	members, err := r.Store.ListMembers(ctx, model.MemberFilter{})
	if err != nil {
		return "", err
	}
	return gedcom.Export(members), nil
}

type ImportMode string

const (
	ImportCreate ImportMode = "create"
	ImportUpsert ImportMode = "upsert"
)

type RowError struct {
	Row   int    `json:"row"`
	Name  string `json:"name"`
	Error string `json:"error"`
}

type BulkResult struct {
	Created int        `json:"created"`
	Updated int        `json:"updated"`
	Failed  []RowError `json:"failed"`
}

// BulkImport writes rows one at a time. A failing row is recorded and the
// rest still run. In upsert mode a row whose id already exists overwrites
// that member.
func (r *Registry) BulkImport(ctx context.Context, rows []*model.Member, mode ImportMode) (*BulkResult, error) {
	if mode == "" {
		mode = ImportCreate
	}
	if mode != ImportCreate && mode != ImportUpsert {
		return nil, fmt.Errorf("unknown import mode %q: %w", mode, model.ErrValidationFailed)
	}

	res := &BulkResult{Failed: []RowError{}}
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if row == nil {
			res.Failed = append(res.Failed, RowError{Row: i, Error: "empty row"})
			continue
		}
		updated, err := r.importRow(ctx, row, mode)
		if err != nil {
			res.Failed = append(res.Failed, RowError{Row: i, Name: row.Name, Error: err.Error()})
			continue
		}
		if updated {
			res.Updated++
		} else {
			res.Created++
		}
	}
	r.log.Info("bulk import finished", "mode", mode, "created", res.Created, "updated", res.Updated, "failed", len(res.Failed))
	return res, nil
}

func (r *Registry) importRow(ctx context.Context, row *model.Member, mode ImportMode) (bool, error) {
	if mode == ImportUpsert && row.ID != "" {
		_, err := r.Store.GetMember(ctx, row.ID)
		switch {
		case err == nil:
			full := row.Clone()
			full.ApplyDefaults()
			_, err := r.UpdateMember(ctx, row.ID, model.UpdateFromMember(full))
			return true, err
		case !errors.Is(err, model.ErrNotFound):
			return false, err
		}
	}
	_, err := r.CreateMember(ctx, row, "")
	return false, err
}
