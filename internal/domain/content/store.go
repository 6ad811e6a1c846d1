package content

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Store is the gorm-backed persistence for content items and revisions.
// Use WithTx to run the same queries inside a transaction.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) WithTx(tx *gorm.DB) *Store {
	return &Store{db: tx}
}

func (s *Store) FindByKey(ctx context.Context, key Key) (*ContentItem, error) {
	var item ContentItem
	err := s.db.WithContext(ctx).
		Where("section_type = ? AND section_key = ? AND language = ?", key.SectionType, key.SectionKey, key.Language).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) FindByID(ctx context.Context, id uint) (*ContentItem, error) {
	var item ContentItem
	err := s.db.WithContext(ctx).First(&item, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) Create(ctx context.Context, item *ContentItem) error {
	return s.db.WithContext(ctx).Create(item).Error
}

// UpdateContent writes content, updated_at and updated_by only.
func (s *Store) UpdateContent(ctx context.Context, item *ContentItem) error {
	return s.db.WithContext(ctx).
		Model(&ContentItem{}).
		Where("id = ?", item.ID).
		Updates(map[string]interface{}{
			"content":    item.Content,
			"updated_at": item.UpdatedAt,
			"updated_by": item.UpdatedBy,
		}).Error
}

func (s *Store) CreateRevision(ctx context.Context, rev *ContentRevision) error {
	return s.db.WithContext(ctx).Create(rev).Error
}

// EnforceRetention keeps the newest max revisions of an item and deletes
// the rest. Ordering is created_at DESC with id DESC as tie-break.
func (s *Store) EnforceRetention(ctx context.Context, contentID uint, max int) (int64, error) {
	var ids []uint
	err := s.db.WithContext(ctx).
		Model(&ContentRevision{}).
		Where("content_id = ?", contentID).
		Order("created_at DESC").
		Order("id DESC").
		Pluck("id", &ids).Error
	if err != nil {
		return 0, err
	}
	if len(ids) <= max {
		return 0, nil
	}

	res := s.db.WithContext(ctx).Where("id IN ?", ids[max:]).Delete(&ContentRevision{})
	return res.RowsAffected, res.Error
}

func (s *Store) ListRevisions(ctx context.Context, contentID uint) ([]ContentRevision, error) {
	revs := []ContentRevision{}
	err := s.db.WithContext(ctx).
		Where("content_id = ?", contentID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&revs).Error
	return revs, err
}

func (s *Store) FindRevision(ctx context.Context, id uint) (*ContentRevision, error) {
	var rev ContentRevision
	err := s.db.WithContext(ctx).First(&rev, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRevisionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rev, nil
}

func (s *Store) ListSection(ctx context.Context, sectionType, sectionKey string) ([]ContentItem, error) {
	items := []ContentItem{}
	err := s.db.WithContext(ctx).
		Where("section_type = ? AND section_key = ?", sectionType, sectionKey).
		Order("language ASC").
		Find(&items).Error
	return items, err
}

func (s *Store) ListByType(ctx context.Context, sectionType string) ([]ContentItem, error) {
	items := []ContentItem{}
	err := s.db.WithContext(ctx).
		Where("section_type = ?", sectionType).
		Order("section_key ASC").
		Order("language ASC").
		Find(&items).Error
	return items, err
}

type LanguageCount struct {
	Language Language `json:"language"`
	Count    int64    `json:"count"`
}

// CountByLanguage backs the admin dashboard.
func (s *Store) CountByLanguage(ctx context.Context) ([]LanguageCount, error) {
	var rows []LanguageCount
	err := s.db.WithContext(ctx).
		Model(&ContentItem{}).
		Select("language, COUNT(*) AS count").
		Group("language").
		Order("language ASC").
		Scan(&rows).Error
	return rows, err
}

func (s *Store) CountRevisions(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&ContentRevision{}).Count(&n).Error
	return n, err
}
