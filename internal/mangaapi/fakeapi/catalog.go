package fakeapi

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/mangashelf/internal/mangaapi"
)

const defaultPer = 10

type pageResponse struct {
	Items    []mangaapi.Manga      `json:"items"`
	Metadata mangaapi.PageMetadata `json:"metadata"`
}

func paginate(c *gin.Context, items []mangaapi.Manga) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	per, err := strconv.Atoi(c.DefaultQuery("per", strconv.Itoa(defaultPer)))
	if err != nil || per < 1 {
		per = defaultPer
	}

	start := (page - 1) * per
	if start > len(items) {
		start = len(items)
	}
	end := start + per
	if end > len(items) {
		end = len(items)
	}

	c.JSON(http.StatusOK, pageResponse{
		Items:    append([]mangaapi.Manga{}, items[start:end]...),
		Metadata: mangaapi.PageMetadata{Total: len(items), Page: page, Per: per},
	})
}

func (s *Server) listMangas(c *gin.Context) {
	paginate(c, s.catalog)
}

func (s *Server) listFiltered(kind mangaapi.FilterKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		value := c.Param("value")
		var matched []mangaapi.Manga
		for _, m := range s.catalog {
			if hasLabel(labelsOf(m, kind), value) {
				matched = append(matched, m)
			}
		}
		paginate(c, matched)
	}
}

func (s *Server) listVocabulary(kind mangaapi.VocabularyKind) gin.HandlerFunc {
	filterKind := map[mangaapi.VocabularyKind]mangaapi.FilterKind{
		mangaapi.VocabularyGenres:       mangaapi.FilterGenre,
		mangaapi.VocabularyDemographics: mangaapi.FilterDemographic,
		mangaapi.VocabularyThemes:       mangaapi.FilterTheme,
	}[kind]

	return func(c *gin.Context) {
		seen := make(map[string]struct{})
		labels := []string{}
		for _, m := range s.catalog {
			for _, l := range labelsOf(m, filterKind) {
				if _, ok := seen[l]; !ok {
					seen[l] = struct{}{}
					labels = append(labels, l)
				}
			}
		}
		c.JSON(http.StatusOK, labels)
	}
}

func (s *Server) searchBeginsWith(c *gin.Context) {
	term := strings.ToLower(c.Param("term"))
	s.searchWith(c, func(title string) bool { return strings.HasPrefix(title, term) })
}

func (s *Server) searchContains(c *gin.Context) {
	term := strings.ToLower(c.Param("term"))
	s.searchWith(c, func(title string) bool { return strings.Contains(title, term) })
}

func (s *Server) searchWith(c *gin.Context, match func(title string) bool) {
	results := []mangaapi.Manga{}
	for _, m := range s.catalog {
		if match(strings.ToLower(m.Title)) {
			results = append(results, m)
		}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Title < results[j].Title })
	c.JSON(http.StatusOK, results)
}

func (s *Server) getManga(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	m, ok := s.byID[id]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "manga not found"})
		return
	}
	c.JSON(http.StatusOK, m)
}

func labelsOf(m mangaapi.Manga, kind mangaapi.FilterKind) []string {
	var labels []string
	switch kind {
	case mangaapi.FilterGenre:
		for _, g := range m.Genres {
			labels = append(labels, g.Genre)
		}
	case mangaapi.FilterDemographic:
		for _, d := range m.Demographics {
			labels = append(labels, d.Demographic)
		}
	case mangaapi.FilterTheme:
		for _, t := range m.Themes {
			labels = append(labels, t.Theme)
		}
	}
	return labels
}

func hasLabel(labels []string, want string) bool {
	for _, l := range labels {
		if strings.EqualFold(l, want) {
			return true
		}
	}
	return false
}
