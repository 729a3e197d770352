package mangaapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// FetchCatalogPage returns one page of the catalog, narrowed by filter.
func (c *Client) FetchCatalogPage(ctx context.Context, page, per int, filter Filter) (*Page, error) {
	path := "/list/mangas"
	if !filter.IsZero() {
		switch filter.Kind {
		case FilterGenre:
			path = "/list/mangaByGenre/" + url.PathEscape(filter.Value)
		case FilterDemographic:
			path = "/list/mangaByDemographic/" + url.PathEscape(filter.Value)
		case FilterTheme:
			path = "/list/mangaByTheme/" + url.PathEscape(filter.Value)
		default:
			return nil, fmt.Errorf("unsupported filter kind %q", filter.Kind)
		}
	}

	var result Page
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   path,
		query:  pageQuery(page, per),
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// FetchVocabulary returns the labels of one classification list.
func (c *Client) FetchVocabulary(ctx context.Context, kind VocabularyKind) ([]string, error) {
	switch kind {
	case VocabularyGenres, VocabularyDemographics, VocabularyThemes:
	default:
		return nil, fmt.Errorf("unsupported vocabulary %q", kind)
	}

	var labels []string
	if err := c.do(ctx, request{method: http.MethodGet, path: "/list/" + string(kind)}, &labels); err != nil {
		return nil, err
	}
	return labels, nil
}

// SearchByPrefix returns entries whose title begins with term.
func (c *Client) SearchByPrefix(ctx context.Context, term string) ([]Manga, error) {
	return c.search(ctx, "/search/mangasBeginsWith/", term)
}

// SearchContaining returns entries whose title contains term.
func (c *Client) SearchContaining(ctx context.Context, term string) ([]Manga, error) {
	return c.search(ctx, "/search/mangasContains/", term)
}

func (c *Client) search(ctx context.Context, prefix, term string) ([]Manga, error) {
	var items []Manga
	if err := c.do(ctx, request{method: http.MethodGet, path: prefix + url.PathEscape(term)}, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// FetchEntry returns one catalog entry by id.
func (c *Client) FetchEntry(ctx context.Context, id int) (*Manga, error) {
	var m Manga
	if err := c.do(ctx, request{method: http.MethodGet, path: fmt.Sprintf("/search/manga/%d", id)}, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
