package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	applog "github.com/mrlokans/mangashelf/internal/logger"
	"github.com/mrlokans/mangashelf/internal/mangaapi"
)

const DefaultPageSize = 20

// Source is the catalog part of the manga service.
type Source interface {
	FetchCatalogPage(ctx context.Context, page, per int, filter mangaapi.Filter) (*mangaapi.Page, error)
	FetchVocabulary(ctx context.Context, kind mangaapi.VocabularyKind) ([]string, error)
	SearchByPrefix(ctx context.Context, term string) ([]mangaapi.Manga, error)
	SearchContaining(ctx context.Context, term string) ([]mangaapi.Manga, error)
}

type SearchMode int

const (
	SearchPrefix SearchMode = iota
	SearchContains
)

type Option func(*Manager)

func WithLogger(log *zap.Logger) Option {
	return func(m *Manager) { m.log = applog.OrNop(log) }
}

// WithObserver registers fn to receive a Snapshot after every state change.
func WithObserver(fn func(Snapshot)) Option {
	return func(m *Manager) { m.observer = fn }
}

func WithSearchMode(mode SearchMode) Option {
	return func(m *Manager) { m.searchMode = mode }
}

// Manager drives incremental loading of the catalog under at most one
// filter, plus an independent search.
//
// A request that arrives while a page is loading is dropped, not queued: the
// call returns the current snapshot immediately. State is only replaced when
// a request succeeds; a failure records LastError and keeps everything else.
type Manager struct {
	source     Source
	pageSize   int
	searchMode SearchMode
	log        *zap.Logger
	observer   func(Snapshot)

	mu          sync.Mutex
	phase       Phase
	page        int
	total       int
	hasTotal    bool
	items       []mangaapi.Manga
	filter      mangaapi.Filter
	canLoadMore bool
	lastErr     error

	vocab       Vocabularies
	vocabLoaded bool

	searchTerm    string
	searchResults []mangaapi.Manga
	searchSeq     uint64
}

func NewManager(source Source, pageSize int, opts ...Option) *Manager {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	m := &Manager{
		source:   source,
		pageSize: pageSize,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// LoadInitial loads page 1 of the unfiltered catalog. The first call also
// loads the filter vocabularies.
func (m *Manager) LoadInitial(ctx context.Context) Snapshot {
	return m.reload(ctx, mangaapi.NoFilter)
}

// ApplyFilter reloads page 1 narrowed by filter. mangaapi.NoFilter clears any
// active filter.
func (m *Manager) ApplyFilter(ctx context.Context, filter mangaapi.Filter) Snapshot {
	if filter.IsZero() {
		filter = mangaapi.NoFilter
	}
	return m.reload(ctx, filter)
}

func (m *Manager) reload(ctx context.Context, filter mangaapi.Filter) Snapshot {
	m.mu.Lock()
	next, ok := transition(m.phase, evStartInitial, m.canLoadMore)
	if !ok {
		snap := m.snapshotLocked()
		m.mu.Unlock()
		m.log.Debug("reload dropped", zap.Stringer("phase", snap.Phase))
		return snap
	}
	m.phase = next
	m.lastErr = nil
	loadVocab := !m.vocabLoaded
	snap := m.snapshotLocked()
	m.mu.Unlock()
	m.publish(snap)

	var (
		page     *mangaapi.Page
		pageErr  error
		vocab    Vocabularies
		vocabErr error
		wg       sync.WaitGroup
	)
	// Independent: a vocabulary failure must not cancel the page load.
	wg.Add(1)
	go func() {
		defer wg.Done()
		page, pageErr = m.source.FetchCatalogPage(ctx, 1, m.pageSize, filter)
	}()
	if loadVocab {
		wg.Add(1)
		go func() {
			defer wg.Done()
			vocab, vocabErr = m.fetchVocabularies(ctx)
		}()
	}
	wg.Wait()

	m.mu.Lock()
	if pageErr != nil {
		m.failLocked(pageErr)
	} else {
		m.phase, _ = transition(m.phase, evSucceed, m.canLoadMore)
		m.page = 1
		m.filter = filter
		m.items = append([]mangaapi.Manga(nil), page.Items...)
		m.applyTotalsLocked(page)
	}
	if loadVocab {
		if vocabErr != nil {
			m.log.Warn("failed to load filter vocabularies", zap.Error(vocabErr))
		} else {
			m.vocab = vocab
			m.vocabLoaded = true
		}
	}
	snap = m.snapshotLocked()
	m.mu.Unlock()

	if pageErr != nil {
		m.log.Warn("catalog load failed", zap.Stringer("filter", filter), zap.Error(pageErr))
	}
	m.publish(snap)
	return snap
}

// LoadNextPage appends the next page under the active filter. It is a no-op
// while loading or when there is nothing more to load. On failure the page
// cursor is restored so a retry requests the same page.
func (m *Manager) LoadNextPage(ctx context.Context) Snapshot {
	m.mu.Lock()
	next, ok := transition(m.phase, evStartNext, m.canLoadMore)
	if !ok {
		snap := m.snapshotLocked()
		m.mu.Unlock()
		return snap
	}
	m.phase = next
	m.lastErr = nil
	m.page++
	requested, filter := m.page, m.filter
	snap := m.snapshotLocked()
	m.mu.Unlock()
	m.publish(snap)

	page, err := m.source.FetchCatalogPage(ctx, requested, m.pageSize, filter)

	m.mu.Lock()
	if err != nil {
		m.page--
		m.failLocked(err)
	} else {
		m.phase, _ = transition(m.phase, evSucceed, m.canLoadMore)
		m.items = append(m.items, page.Items...)
		m.applyTotalsLocked(page)
	}
	snap = m.snapshotLocked()
	m.mu.Unlock()

	if err != nil {
		m.log.Warn("next page failed", zap.Int("page", requested), zap.Stringer("filter", filter), zap.Error(err))
	}
	m.publish(snap)
	return snap
}

// Search sets the search term. Terms shorter than MinSearchLength clear the
// results without a request. Filter and page state are never touched, so
// clearing the term resumes browsing where it was left.
func (m *Manager) Search(ctx context.Context, term string) Snapshot {
	term = strings.TrimSpace(term)

	m.mu.Lock()
	m.searchSeq++
	seq := m.searchSeq
	m.searchTerm = term
	if !searchable(term) {
		m.searchResults = nil
		snap := m.snapshotLocked()
		m.mu.Unlock()
		m.publish(snap)
		return snap
	}
	m.mu.Unlock()

	var (
		results []mangaapi.Manga
		err     error
	)
	if m.searchMode == SearchContains {
		results, err = m.source.SearchContaining(ctx, term)
	} else {
		results, err = m.source.SearchByPrefix(ctx, term)
	}

	m.mu.Lock()
	if seq != m.searchSeq {
		// A newer term was set while this request was in flight.
		snap := m.snapshotLocked()
		m.mu.Unlock()
		return snap
	}
	if err != nil {
		// Keep the previous results on screen.
		m.lastErr = err
	} else {
		m.searchResults = results
	}
	snap := m.snapshotLocked()
	m.mu.Unlock()

	if err != nil {
		m.log.Warn("search failed", zap.String("term", term), zap.Error(err))
	}
	m.publish(snap)
	return snap
}

func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Manager) fetchVocabularies(ctx context.Context) (Vocabularies, error) {
	var v Vocabularies
	g, gctx := errgroup.WithContext(ctx)
	fetch := func(kind mangaapi.VocabularyKind, dst *[]string) {
		g.Go(func() error {
			labels, err := m.source.FetchVocabulary(gctx, kind)
			if err != nil {
				return err
			}
			sort.Strings(labels)
			*dst = labels
			return nil
		})
	}
	fetch(mangaapi.VocabularyGenres, &v.Genres)
	fetch(mangaapi.VocabularyDemographics, &v.Demographics)
	fetch(mangaapi.VocabularyThemes, &v.Themes)

	if err := g.Wait(); err != nil {
		return Vocabularies{}, err
	}
	return v, nil
}

func (m *Manager) failLocked(err error) {
	m.phase, _ = transition(m.phase, evFail, m.canLoadMore)
	m.lastErr = err
}

func (m *Manager) applyTotalsLocked(page *mangaapi.Page) {
	m.hasTotal = page.HasTotal
	if page.HasTotal {
		m.total = page.Metadata.Total
		m.canLoadMore = len(m.items) < m.total
		return
	}
	m.total = 0
	m.canLoadMore = len(page.Items) == m.pageSize
}

func (m *Manager) snapshotLocked() Snapshot {
	return Snapshot{
		Phase:    m.phase,
		Page:     m.page,
		PageSize: m.pageSize,
		Total:    m.total,
		HasTotal: m.hasTotal,
		Items:    append([]mangaapi.Manga(nil), m.items...),
		Filter:   m.filter,
		Vocabularies: Vocabularies{
			Genres:       append([]string(nil), m.vocab.Genres...),
			Demographics: append([]string(nil), m.vocab.Demographics...),
			Themes:       append([]string(nil), m.vocab.Themes...),
		},
		SearchTerm:    m.searchTerm,
		SearchResults: append([]mangaapi.Manga(nil), m.searchResults...),
		CanLoadMore:   m.canLoadMore,
		LastError:     m.lastErr,
	}
}

func (m *Manager) publish(snap Snapshot) {
	if m.observer != nil {
		m.observer(snap)
	}
}
