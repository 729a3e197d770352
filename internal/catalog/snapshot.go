package catalog

import (
	"unicode/utf8"

	"github.com/mrlokans/mangashelf/internal/mangaapi"
)

// MinSearchLength is the number of characters a search term needs before
// search results replace the catalog listing.
const MinSearchLength = 3

// Vocabularies are the sorted labels available for filtering.
type Vocabularies struct {
	Genres       []string
	Demographics []string
	Themes       []string
}

// Snapshot is an immutable copy of a Manager's state.
type Snapshot struct {
	Phase Phase
	// Page is the last page merged into Items.
	Page     int
	PageSize int
	Total    int
	HasTotal bool
	Items    []mangaapi.Manga
	Filter   mangaapi.Filter

	Vocabularies Vocabularies

	SearchTerm    string
	SearchResults []mangaapi.Manga

	CanLoadMore bool
	LastError   error
}

func (s Snapshot) IsLoading() bool {
	return s.Phase.Loading()
}

// Searching reports whether the search term is long enough for search
// results to be shown instead of the catalog listing.
func (s Snapshot) Searching() bool {
	return searchable(s.SearchTerm)
}

// Display returns what should be shown: search results while searching,
// otherwise the accumulated catalog listing.
func (s Snapshot) Display() []mangaapi.Manga {
	if s.Searching() {
		return s.SearchResults
	}
	return s.Items
}

func searchable(term string) bool {
	return utf8.RuneCountInString(term) >= MinSearchLength
}
