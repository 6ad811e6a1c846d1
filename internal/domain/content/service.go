package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Cache is the read-through cache for public content reads.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}) error
	DeletePrefix(ctx context.Context, prefix string) error
}

type Options struct {
	SourceLanguage   Language
	MaxRevisions     int
	TranslateTimeout time.Duration
}

type Service struct {
	db         *gorm.DB
	store      *Store
	translator Translator
	cache      Cache
	opts       Options
	log        zerolog.Logger
	now        func() time.Time
}

// NewService wires the content write path. translator and cache may be nil.
func NewService(db *gorm.DB, translator Translator, cache Cache, opts Options, log zerolog.Logger) *Service {
	if opts.SourceLanguage == "" {
		opts.SourceLanguage = LangRU
	}
	if opts.MaxRevisions <= 0 {
		opts.MaxRevisions = 5
	}
	return &Service{
		db:         db,
		store:      NewStore(db),
		translator: translator,
		cache:      cache,
		opts:       opts,
		log:        log.With().Str("component", "content").Logger(),
		now:        time.Now,
	}
}

func (s *Service) Store() *Store { return s.store }

func (s *Service) SourceLanguage() Language { return s.opts.SourceLanguage }

type SaveInput struct {
	SectionType string
	SectionKey  string
	Language    Language
	Content     json.RawMessage
	ActorID     *uint
}

func (in SaveInput) key() Key {
	return Key{SectionType: in.SectionType, SectionKey: in.SectionKey, Language: in.Language}
}

func (in *SaveInput) validate() error {
	in.SectionType = strings.TrimSpace(in.SectionType)
	in.SectionKey = strings.TrimSpace(in.SectionKey)
	if in.SectionType == "" {
		return &ValidationError{Field: "sectionType", Message: "is required", Err: ErrInvalidContent}
	}
	if in.SectionKey == "" {
		return &ValidationError{Field: "sectionKey", Message: "is required", Err: ErrInvalidContent}
	}
	if _, err := ParseLanguage(string(in.Language)); err != nil {
		return err
	}
	var obj map[string]json.RawMessage
	if len(in.Content) == 0 || json.Unmarshal(in.Content, &obj) != nil || obj == nil {
		return &ValidationError{Field: "content", Message: "must be a JSON object", Err: ErrInvalidContent}
	}
	return nil
}

// Save upserts the item for the input's (type, key, language). When a row
// already exists its current content is snapshotted as a revision first.
func (s *Service) Save(ctx context.Context, in SaveInput) (*ContentItem, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	item, err := s.save(ctx, in)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// lost the first-insert race; the row exists now, so this takes the update path
		s.log.Debug().Str("key", in.key().String()).Msg("retrying save after duplicate insert")
		item, err = s.save(ctx, in)
	}
	if err != nil {
		return nil, fmt.Errorf("save content %s: %w", in.key(), err)
	}

	s.invalidate(ctx, in.SectionType)
	return item, nil
}

func (s *Service) save(ctx context.Context, in SaveInput) (*ContentItem, error) {
	var saved *ContentItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		store := s.store.WithTx(tx)
		now := s.now()

		existing, err := store.FindByKey(ctx, in.key())
		if errors.Is(err, ErrNotFound) {
			item := &ContentItem{
				SectionType: in.SectionType,
				SectionKey:  in.SectionKey,
				Language:    in.Language,
				Content:     datatypes.JSON(in.Content),
				CreatedBy:   in.ActorID,
				UpdatedBy:   in.ActorID,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := store.Create(ctx, item); err != nil {
				return err
			}
			saved = item
			return nil
		}
		if err != nil {
			return err
		}

		rev := &ContentRevision{
			ContentID: existing.ID,
			Content:   existing.Content,
			CreatedBy: in.ActorID,
			CreatedAt: now,
		}
		if err := store.CreateRevision(ctx, rev); err != nil {
			return fmt.Errorf("snapshot revision: %w", err)
		}
		if _, err := store.EnforceRetention(ctx, existing.ID, s.opts.MaxRevisions); err != nil {
			return fmt.Errorf("enforce retention: %w", err)
		}

		existing.Content = datatypes.JSON(in.Content)
		existing.UpdatedAt = now
		existing.UpdatedBy = in.ActorID
		if err := store.UpdateContent(ctx, existing); err != nil {
			return err
		}
		saved = existing
		return nil
	})
	return saved, err
}

type TranslationOutcome struct {
	Language       Language     `json:"language"`
	Saved          bool         `json:"saved"`
	Translated     bool         `json:"translated"`
	FallbackFields []string     `json:"fallbackFields,omitempty"`
	Error          string       `json:"error,omitempty"`
	Item           *ContentItem `json:"-"`
}

type SaveResult struct {
	Item     *ContentItem
	FanOut   bool
	Outcomes []TranslationOutcome
}

func (r *SaveResult) TranslationsCreated() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Saved {
			n++
		}
	}
	return n
}

// SaveWithTranslation saves the input and, when autoTranslate is set and
// the input is in the source language, writes machine-translated copies for
// every other language. Only the source save can fail the call.
func (s *Service) SaveWithTranslation(ctx context.Context, in SaveInput, autoTranslate bool) (*SaveResult, error) {
	item, err := s.Save(ctx, in)
	if err != nil {
		return nil, err
	}

	res := &SaveResult{Item: item}
	if !autoTranslate || item.Language != s.opts.SourceLanguage {
		return res, nil
	}

	res.FanOut = true
	res.Outcomes = s.fanOut(ctx, item, in.ActorID)
	return res, nil
}

func (s *Service) targetLanguages() []Language {
	targets := make([]Language, 0, len(Languages)-1)
	for _, l := range Languages {
		if l != s.opts.SourceLanguage {
			targets = append(targets, l)
		}
	}
	return targets
}

func (s *Service) fanOut(ctx context.Context, source *ContentItem, actorID *uint) []TranslationOutcome {
	targets := s.targetLanguages()
	outcomes := make([]TranslationOutcome, len(targets))

	var wg sync.WaitGroup
	for i, lang := range targets {
		wg.Add(1)
		go func(idx int, target Language) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					outcomes[idx] = TranslationOutcome{Language: target, Error: fmt.Sprintf("panic: %v", r)}
				}
			}()
			outcomes[idx] = s.translateInto(ctx, source, target, actorID)
		}(i, lang)
	}
	wg.Wait()

	for _, o := range outcomes {
		ev := s.log.Info()
		if o.Error != "" || len(o.FallbackFields) > 0 {
			ev = s.log.Warn()
		}
		ev.Str("key", source.Key().String()).
			Str("target", string(o.Language)).
			Bool("saved", o.Saved).
			Strs("fallback_fields", o.FallbackFields).
			Str("error", o.Error).
			Msg("auto-translation finished")
	}
	return outcomes
}

func (s *Service) translateInto(ctx context.Context, source *ContentItem, target Language, actorID *uint) TranslationOutcome {
	out := TranslationOutcome{Language: target}

	doc := json.RawMessage(source.Content)
	if s.translator != nil {
		tctx, cancel := ctx, context.CancelFunc(func() {})
		if s.opts.TranslateTimeout > 0 {
			tctx, cancel = context.WithTimeout(ctx, s.opts.TranslateTimeout)
		}
		translated, fallbacks, err := translateDocument(tctx, s.translator, source.SectionType, source.Content, source.Language, target)
		cancel()
		if err != nil {
			out.Error = err.Error()
			return out
		}
		doc = translated
		out.FallbackFields = fallbacks
		out.Translated = len(fallbacks) < countPresent(source.SectionType, source.Content)
	} else {
		out.FallbackFields = presentFields(source.SectionType, source.Content)
	}

	item, err := s.Save(ctx, SaveInput{
		SectionType: source.SectionType,
		SectionKey:  source.SectionKey,
		Language:    target,
		Content:     doc,
		ActorID:     actorID,
	})
	if err != nil {
		out.Error = err.Error()
		return out
	}
	out.Saved = true
	out.Item = item
	return out
}

func presentFields(sectionType string, doc []byte) []string {
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(doc, &fields); err != nil {
		return nil
	}
	var present []string
	for _, name := range TranslatableFields(sectionType) {
		if _, ok := fields[name]; ok {
			present = append(present, name)
		}
	}
	return present
}

func countPresent(sectionType string, doc []byte) int {
	return len(presentFields(sectionType, doc))
}

// Restore writes a revision's snapshot back to its item through Save, so
// the content being replaced becomes a new revision.
func (s *Service) Restore(ctx context.Context, revisionID uint, actorID *uint) (*ContentItem, error) {
	rev, err := s.store.FindRevision(ctx, revisionID)
	if err != nil {
		return nil, err
	}
	item, err := s.store.FindByID(ctx, rev.ContentID)
	if err != nil {
		return nil, err
	}
	return s.Save(ctx, SaveInput{
		SectionType: item.SectionType,
		SectionKey:  item.SectionKey,
		Language:    item.Language,
		Content:     json.RawMessage(rev.Content),
		ActorID:     actorID,
	})
}

func (s *Service) Get(ctx context.Context, sectionType, sectionKey string, lang Language) (*ContentItem, error) {
	if _, err := ParseLanguage(string(lang)); err != nil {
		return nil, err
	}
	return s.store.FindByKey(ctx, Key{SectionType: sectionType, SectionKey: sectionKey, Language: lang})
}

// GetSection returns content per language for one section. Languages that
// were never saved are absent from the map.
func (s *Service) GetSection(ctx context.Context, sectionType, sectionKey string) (map[Language]json.RawMessage, error) {
	cacheKey := sectionCachePrefix(sectionType) + "key:" + sectionKey
	out := map[Language]json.RawMessage{}
	if s.cacheGet(ctx, cacheKey, &out) {
		return out, nil
	}

	items, err := s.store.ListSection(ctx, sectionType, sectionKey)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		out[item.Language] = json.RawMessage(item.Content)
	}
	s.cacheSet(ctx, cacheKey, out)
	return out, nil
}

func (s *Service) ListByType(ctx context.Context, sectionType string) ([]ContentItem, error) {
	cacheKey := sectionCachePrefix(sectionType) + "all"
	items := []ContentItem{}
	if s.cacheGet(ctx, cacheKey, &items) {
		return items, nil
	}

	items, err := s.store.ListByType(ctx, sectionType)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, cacheKey, items)
	return items, nil
}

// ListRevisions returns the item's revisions newest first.
func (s *Service) ListRevisions(ctx context.Context, sectionType, sectionKey string, lang Language) ([]ContentRevision, error) {
	item, err := s.Get(ctx, sectionType, sectionKey, lang)
	if err != nil {
		return nil, err
	}
	return s.store.ListRevisions(ctx, item.ID)
}

func sectionCachePrefix(sectionType string) string {
	return "content:" + sectionType + ":"
}

func (s *Service) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.GetJSON(ctx, key, dest)
	if err != nil {
		s.log.Warn().Err(err).Str("cache_key", key).Msg("cache read failed")
		return false
	}
	return hit
}

func (s *Service) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetJSON(ctx, key, value); err != nil {
		s.log.Warn().Err(err).Str("cache_key", key).Msg("cache write failed")
	}
}

func (s *Service) invalidate(ctx context.Context, sectionType string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeletePrefix(ctx, sectionCachePrefix(sectionType)); err != nil {
		s.log.Warn().Err(err).Str("section_type", sectionType).Msg("cache invalidation failed")
	}
}
