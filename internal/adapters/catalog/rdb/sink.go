package rdb

import (
	"context"
	"time"

	jsoniter "github.com/json-iterator/go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/olusolaa/catalog-entity-provider/internal/core/domain"
	"github.com/olusolaa/catalog-entity-provider/internal/errors"
)

const SinkType = "rdb"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Sink stores the catalog in a relational database. Each mutation is applied
// in one transaction, so a failed submission leaves the stored catalog as it
// was.
type Sink struct {
	db  *gorm.DB
	now func() time.Time
}

func NewSink(db *gorm.DB) *Sink {
	return &Sink{db: db, now: time.Now}
}

// Open connects to dbURL and migrates the schema.
func Open(dbURL string) (*Sink, error) {
	db, err := OpenFromURL(dbURL)
	if err != nil {
		return nil, errors.WrapUserFacing(err, errors.CodeStoreError, "failed to open catalog database", "Check catalog.rdb.url.")
	}
	if err := AutoMigrate(db); err != nil {
		return nil, errors.Rewrap(err, errors.CodeStoreError, "failed to migrate catalog database")
	}
	return NewSink(db), nil
}

func (s *Sink) Type() string { return SinkType }

func entityToRecord(provider string, e domain.Entity, now time.Time) (*EntityRecord, error) {
	doc, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	ref := e.Ref()
	return &EntityRecord{
		Ref:       ref.String(),
		Provider:  provider,
		Kind:      string(ref.Kind),
		Namespace: ref.Namespace,
		Name:      ref.Name,
		Document:  string(doc),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func recordToEntity(r *EntityRecord) (domain.Entity, error) {
	var e domain.Entity
	if err := json.Unmarshal([]byte(r.Document), &e); err != nil {
		return domain.Entity{}, err
	}
	return e, nil
}

func (s *Sink) ApplyMutation(ctx context.Context, m domain.Mutation) error {
	now := s.now()
	records := make([]*EntityRecord, 0, len(m.Upsert))
	for _, e := range m.Upsert {
		rec, err := entityToRecord(m.Provider, e, now)
		if err != nil {
			return errors.Rewrap(err, errors.CodeSubmissionError, "failed to encode entity "+e.Ref().String())
		}
		records = append(records, rec)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, ref := range m.Removed {
			if err := tx.Where("ref = ? AND provider = ?", ref.String(), m.Provider).Delete(&EntityRecord{}).Error; err != nil {
				return err
			}
		}
		if len(records) > 0 {
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "ref"}},
				DoUpdates: clause.AssignmentColumns([]string{"provider", "kind", "namespace", "name", "document", "updated_at"}),
			}).Create(&records).Error
			if err != nil {
				return err
			}
		}
		return tx.Create(&MutationRecord{
			Provider:  m.Provider,
			Upserted:  len(m.Upsert),
			Removed:   len(m.Removed),
			AppliedAt: now,
		}).Error
	})
	if err != nil {
		return errors.Rewrap(err, errors.CodeSubmissionError, "failed to apply mutation for "+m.Provider)
	}
	return nil
}

// ListEntities returns stored entities ordered by ref. An empty provider
// lists every provider's entities.
func (s *Sink) ListEntities(ctx context.Context, provider string) ([]domain.Entity, error) {
	q := s.db.WithContext(ctx).Order("ref ASC")
	if provider != "" {
		q = q.Where("provider = ?", provider)
	}
	var recs []EntityRecord
	if err := q.Find(&recs).Error; err != nil {
		return nil, errors.Rewrap(err, errors.CodeStoreError, "failed to list catalog entities")
	}
	out := make([]domain.Entity, 0, len(recs))
	for i := range recs {
		e, err := recordToEntity(&recs[i])
		if err != nil {
			return nil, errors.Rewrap(err, errors.CodeStoreError, "corrupt entity document for "+recs[i].Ref)
		}
		out = append(out, e)
	}
	return out, nil
}

// CountMutations returns how many mutations were applied for provider.
func (s *Sink) CountMutations(ctx context.Context, provider string) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&MutationRecord{}).Where("provider = ?", provider).Count(&n).Error; err != nil {
		return 0, errors.Rewrap(err, errors.CodeStoreError, "failed to count mutations")
	}
	return n, nil
}

func (s *Sink) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
