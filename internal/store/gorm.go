package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/agenthands/lineage/internal/core/model"
)

// GormStore persists records in a relational database through gorm.
type GormStore struct {
	db *gorm.DB
}

// OpenGorm connects to postgres or sqlite and migrates the schema.
func OpenGorm(backend, dsn string) (*GormStore, error) {
	var dialector gorm.Dialector
	switch backend {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", backend)
	}

	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLog,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", backend, err)
	}
	return NewGormStore(db)
}

// NewGormStore wraps an open connection and migrates the schema.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(
		&memberRecord{},
		&linkRecord{},
		&spouseRecord{},
		&cemeteryRecord{},
		&memorialRecord{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) DB() *gorm.DB { return s.db }

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func notFound(kind, id string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %s: %w", kind, id, model.ErrNotFound)
	}
	return err
}

func (s *GormStore) GetMember(ctx context.Context, id string) (*model.Member, error) {
	var rec memberRecord
	if err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		return nil, notFound("member", id, err)
	}
	return rec.toModel(), nil
}

func (s *GormStore) ListMembers(ctx context.Context, filter model.MemberFilter) ([]*model.Member, error) {
	q := s.db.WithContext(ctx).Model(&memberRecord{})
	if filter.Generation > 0 {
		q = q.Where("generation = ?", filter.Generation)
	}
	if filter.Branch != "" {
		q = q.Where("branch_name = ?", filter.Branch)
	}
	if filter.NameContains != "" {
		q = q.Where("name LIKE ?", "%"+filter.NameContains+"%")
	}
	if filter.Alive != nil {
		q = q.Where("is_alive = ?", *filter.Alive)
	}
	if filter.Floating != nil {
		q = q.Where("is_floating = ?", *filter.Floating)
	}
	if filter.VerifiedOnly {
		q = q.Where("is_verified = ?", true)
	}
	q = q.Order("generation ASC").Order("order_in_generation ASC").Order("name ASC").Order("id ASC")
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var recs []memberRecord
	if err := q.Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]*model.Member, 0, len(recs))
	for i := range recs {
		out = append(out, recs[i].toModel())
	}
	return out, nil
}

func (s *GormStore) CreateMember(ctx context.Context, m *model.Member) error {
	if m.ID == "" {
		return fmt.Errorf("member id is required")
	}
	rec := toMemberRecord(m)
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("member %s already exists", m.ID)
		}
		return err
	}
	m.CreatedAt = rec.CreatedAt
	m.UpdatedAt = rec.UpdatedAt
	return nil
}

func (s *GormStore) UpdateMember(ctx context.Context, id string, mutate MemberMutator) (*model.Member, error) {
	var updated *model.Member
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec memberRecord
		if err := tx.First(&rec, "id = ?", id).Error; err != nil {
			return notFound("member", id, err)
		}
		m := rec.toModel()
		if err := mutate(m); err != nil {
			return err
		}
		m.ID = id
		m.CreatedAt = rec.CreatedAt
		next := toMemberRecord(m)
		if err := tx.Save(next).Error; err != nil {
			return err
		}
		updated = next.toModel()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *GormStore) DeleteMember(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&memberRecord{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("member %s: %w", id, model.ErrNotFound)
		}
		if err := tx.Delete(&linkRecord{}, "member_id = ? OR target_id = ?", id, id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&spouseRecord{}, "member_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&cemeteryRecord{}, "member_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&memorialRecord{}, "member_id = ?", id).Error
	})
}

func (s *GormStore) GetLink(ctx context.Context, id string) (*model.FamilyLink, error) {
	var rec linkRecord
	if err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		return nil, notFound("link", id, err)
	}
	return rec.toModel(), nil
}

func (s *GormStore) FindLink(ctx context.Context, sourceID, targetID string, role model.Role) (*model.FamilyLink, error) {
	var rec linkRecord
	err := s.db.WithContext(ctx).
		Where("member_id = ? AND target_id = ? AND role = ?", sourceID, targetID, string(role)).
		First(&rec).Error
	if err != nil {
		return nil, notFound("link", sourceID+"-"+string(role)+"->"+targetID, err)
	}
	return rec.toModel(), nil
}

func (s *GormStore) LinksFrom(ctx context.Context, sourceID string) ([]*model.FamilyLink, error) {
	return s.findLinks(ctx, "member_id = ?", sourceID)
}

func (s *GormStore) LinksTo(ctx context.Context, targetID string) ([]*model.FamilyLink, error) {
	return s.findLinks(ctx, "target_id = ?", targetID)
}

func (s *GormStore) AllLinks(ctx context.Context) ([]*model.FamilyLink, error) {
	return s.findLinks(ctx, "1 = 1")
}

func (s *GormStore) findLinks(ctx context.Context, query string, args ...interface{}) ([]*model.FamilyLink, error) {
	var recs []linkRecord
	err := s.db.WithContext(ctx).Where(query, args...).
		Order("created_at ASC").Order("id ASC").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	out := make([]*model.FamilyLink, 0, len(recs))
	for i := range recs {
		out = append(out, recs[i].toModel())
	}
	return out, nil
}

// InsertLinks writes the batch in one transaction. A forward edge and its
// reciprocal either both land or neither does.
func (s *GormStore) InsertLinks(ctx context.Context, links ...*model.FamilyLink) error {
	now := time.Now().UTC()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, l := range links {
			if l.ID == "" {
				return fmt.Errorf("link id is required")
			}
			var count int64
			if err := tx.Model(&memberRecord{}).Where("id IN ?", []string{l.SourceID, l.TargetID}).Count(&count).Error; err != nil {
				return err
			}
			want := int64(2)
			if l.SourceID == l.TargetID {
				want = 1
			}
			if count != want {
				return fmt.Errorf("link %s-%s->%s endpoint: %w", l.SourceID, l.Role, l.TargetID, model.ErrNotFound)
			}
			if l.CreatedAt.IsZero() {
				l.CreatedAt = now
			}
			if err := tx.Create(toLinkRecord(l)).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return fmt.Errorf("link %s-%s->%s: %w", l.SourceID, l.Role, l.TargetID, model.ErrDuplicateEdge)
				}
				return err
			}
		}
		return nil
	})
}

func (s *GormStore) DeleteLinks(ctx context.Context, ids ...string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, id := range ids {
			res := tx.Delete(&linkRecord{}, "id = ?", id)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("link %s: %w", id, model.ErrNotFound)
			}
		}
		return nil
	})
}

func (s *GormStore) ListSpouses(ctx context.Context, memberID string) ([]*model.Spouse, error) {
	return s.findSpouses(ctx, "member_id = ?", memberID)
}

func (s *GormStore) AllSpouses(ctx context.Context) ([]*model.Spouse, error) {
	return s.findSpouses(ctx, "1 = 1")
}

func (s *GormStore) findSpouses(ctx context.Context, query string, args ...interface{}) ([]*model.Spouse, error) {
	var recs []spouseRecord
	err := s.db.WithContext(ctx).Where(query, args...).
		Order("created_at ASC").Order("id ASC").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	out := make([]*model.Spouse, 0, len(recs))
	for i := range recs {
		out = append(out, recs[i].toModel())
	}
	return out, nil
}

func (s *GormStore) AddSpouse(ctx context.Context, sp *model.Spouse) error {
	if _, err := s.GetMember(ctx, sp.MemberID); err != nil {
		return err
	}
	rec := &spouseRecord{
		ID:           sp.ID,
		MemberID:     sp.MemberID,
		Name:         sp.Name,
		MaidenName:   sp.MaidenName,
		Bio:          sp.Bio,
		IsAlive:      sp.IsAlive,
		MarriedDate:  sp.MarriedDate,
		DivorcedDate: sp.DivorcedDate,
		CreatedAt:    sp.CreatedAt,
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return err
	}
	sp.CreatedAt = rec.CreatedAt
	return nil
}

func (s *GormStore) GetCemetery(ctx context.Context, memberID string) (*model.Cemetery, error) {
	var rec cemeteryRecord
	if err := s.db.WithContext(ctx).First(&rec, "member_id = ?", memberID).Error; err != nil {
		return nil, notFound("cemetery of", memberID, err)
	}
	return rec.toModel(), nil
}

func (s *GormStore) PutCemetery(ctx context.Context, c *model.Cemetery) error {
	if _, err := s.GetMember(ctx, c.MemberID); err != nil {
		return err
	}
	rec := &cemeteryRecord{
		MemberID:     c.MemberID,
		Lat:          c.Lat,
		Lng:          c.Lng,
		Address:      c.Address,
		CemeteryCode: c.CemeteryCode,
		Photos:       c.Photos,
		Panorama:     c.Panorama,
		IsPublic:     c.IsPublic,
		IsVerified:   c.IsVerified,
	}
	if err := s.db.WithContext(ctx).Save(rec).Error; err != nil {
		return err
	}
	c.UpdatedAt = rec.UpdatedAt
	return nil
}

func (s *GormStore) ListMemorialLogs(ctx context.Context, memberID string, limit int) ([]*model.MemorialLog, error) {
	q := s.db.WithContext(ctx).Where("member_id = ?", memberID).Order("visited_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var recs []memorialRecord
	if err := q.Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]*model.MemorialLog, 0, len(recs))
	for i := range recs {
		out = append(out, recs[i].toModel())
	}
	return out, nil
}

func (s *GormStore) AddMemorialLog(ctx context.Context, l *model.MemorialLog) error {
	if _, err := s.GetMember(ctx, l.MemberID); err != nil {
		return err
	}
	if l.VisitedAt.IsZero() {
		l.VisitedAt = time.Now().UTC()
	}
	return s.db.WithContext(ctx).Create(&memorialRecord{
		ID:          l.ID,
		MemberID:    l.MemberID,
		VisitorName: l.VisitorName,
		Action:      string(l.Action),
		Message:     l.Message,
		VisitedAt:   l.VisitedAt,
	}).Error
}
