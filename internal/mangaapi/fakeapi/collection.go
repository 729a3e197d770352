package fakeapi

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mrlokans/mangashelf/internal/mangaapi"
)

type collectionEntry struct {
	ID                 string
	MangaID            int
	VolumesOwned       []int
	ReadingVolume      *int
	CompleteCollection bool
}

type collectionReq struct {
	Manga              int   `json:"manga" binding:"required,gt=0"`
	CompleteCollection bool  `json:"completeCollection"`
	VolumesOwned       []int `json:"volumesOwned" binding:"omitempty,dive,gt=0"`
	ReadingVolume      *int  `json:"readingVolume" binding:"omitempty,gt=0"`
}

func (s *Server) listCollection(c *gin.Context) {
	cl := mustGetClaims(c)

	s.mu.RLock()
	entries := make([]mangaapi.CloudCollectionEntry, 0, len(s.collections[cl.UserID]))
	for _, e := range s.collections[cl.UserID] {
		entries = append(entries, mangaapi.CloudCollectionEntry{
			ID:                 e.ID,
			Manga:              s.byID[e.MangaID],
			VolumesOwned:       append([]int{}, e.VolumesOwned...),
			ReadingVolume:      e.ReadingVolume,
			CompleteCollection: e.CompleteCollection,
		})
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].Manga.ID < entries[j].Manga.ID })
	c.JSON(http.StatusOK, entries)
}

func (s *Server) upsertCollection(c *gin.Context) {
	cl := mustGetClaims(c)

	var req collectionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, ok := s.byID[req.Manga]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "manga not found"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	owned := s.collections[cl.UserID]
	if owned == nil {
		owned = make(map[int]*collectionEntry)
		s.collections[cl.UserID] = owned
	}
	entry, ok := owned[req.Manga]
	if !ok {
		entry = &collectionEntry{ID: uuid.NewString(), MangaID: req.Manga}
		owned[req.Manga] = entry
	}
	entry.VolumesOwned = append([]int{}, req.VolumesOwned...)
	entry.ReadingVolume = req.ReadingVolume
	entry.CompleteCollection = req.CompleteCollection

	c.Status(http.StatusCreated)
}

func (s *Server) deleteCollection(c *gin.Context) {
	cl := mustGetClaims(c)

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[cl.UserID][id]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not in collection"})
		return
	}
	delete(s.collections[cl.UserID], id)
	c.Status(http.StatusOK)
}

// CollectionSize returns how many entries email has in the cloud collection.
func (s *Server) CollectionSize(email string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u := s.users[normalizeEmail(email)]
	if u == nil {
		return 0
	}
	return len(s.collections[u.ID])
}
