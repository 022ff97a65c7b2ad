package store

import (
	"context"
	"errors"
	"time"

	"go-erp-agent/internal/database"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore keeps one row per collection in erp_collections and one row per
// session in erp_sessions.
type GormStore struct {
	db   *gorm.DB
	now  func() time.Time
	lock bool
}

var _ Store = (*GormStore)(nil)

// NewGormStore migrates the tables it needs and wraps db.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	return &GormStore{
		db:  db,
		now: time.Now,
		// SQLite serializes writers itself and has no FOR UPDATE.
		lock: db.Dialector.Name() != "sqlite",
	}, nil
}

func (s *GormStore) Get(ctx context.Context, key Key) ([]byte, error) {
	var rec database.CollectionRecord
	err := s.db.WithContext(ctx).First(&rec, "name = ?", string(key)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(rec.Data), nil
}

func (s *GormStore) Put(ctx context.Context, key Key, data []byte) error {
	return upsertCollection(s.db.WithContext(ctx), key, data, s.now())
}

func (s *GormStore) Update(ctx context.Context, keys []Key, fn func(tx Tx) error) error {
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, string(k))
	}

	return s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		q := db
		if s.lock {
			q = db.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var recs []database.CollectionRecord
		if err := q.Where("name IN ?", names).Find(&recs).Error; err != nil {
			return err
		}

		tx := &gormTx{keys: declared(keys), loaded: map[Key][]byte{}, staged: map[Key][]byte{}}
		for _, r := range recs {
			tx.loaded[Key(r.Name)] = []byte(r.Data)
		}
		if err := fn(tx); err != nil {
			return err
		}

		now := s.now()
		for k, data := range tx.staged {
			if err := upsertCollection(db, k, data, now); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *GormStore) GetSession(ctx context.Context, id string) ([]byte, error) {
	var rec database.SessionRecord
	err := s.db.WithContext(ctx).Where("id = ? AND expires_at > ?", id, s.now()).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(rec.Data), nil
}

func (s *GormStore) SetSession(ctx context.Context, id string, data []byte, ttl time.Duration) error {
	now := s.now()
	expires := now.Add(ttl)
	if ttl <= 0 {
		expires = now.AddDate(100, 0, 0)
	}
	rec := database.SessionRecord{ID: id, Data: string(data), ExpiresAt: expires, CreatedAt: now}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "expires_at"}),
	}).Create(&rec).Error
}

func (s *GormStore) DeleteSession(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&database.SessionRecord{}, "id = ?", id).Error
}

// PurgeSessions removes expired session rows.
func (s *GormStore) PurgeSessions(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at <= ?", s.now()).Delete(&database.SessionRecord{})
	return res.RowsAffected, res.Error
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func upsertCollection(db *gorm.DB, key Key, data []byte, now time.Time) error {
	rec := database.CollectionRecord{Name: string(key), Data: string(data), UpdatedAt: now}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&rec).Error
}

type gormTx struct {
	keys   map[Key]bool
	loaded map[Key][]byte
	staged map[Key][]byte
}

func (t *gormTx) Get(key Key) ([]byte, error) {
	if !t.keys[key] {
		return nil, ErrUndeclaredKey
	}
	if data, ok := t.staged[key]; ok {
		return clone(data), nil
	}
	if data, ok := t.loaded[key]; ok {
		return clone(data), nil
	}
	return nil, ErrNotFound
}

func (t *gormTx) Put(key Key, data []byte) error {
	if !t.keys[key] {
		return ErrUndeclaredKey
	}
	t.staged[key] = clone(data)
	return nil
}
