package mangaapi_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/mangashelf/internal/mangaapi"
	"github.com/mrlokans/mangashelf/internal/mangaapi/fakeapi"
)

const (
	testAppToken = "app-token"
	testEmail    = "reader@example.com"
	testPassword = "correct-horse"
)

func setupTestService(t *testing.T) (*fakeapi.Server, *mangaapi.Client) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	srv := fakeapi.New(fakeapi.Config{JWTSecret: "test-secret", AppToken: testAppToken}, fakeapi.SampleCatalog())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return srv, mangaapi.NewClient(mangaapi.Config{BaseURL: ts.URL, AppToken: testAppToken})
}

func loginTestUser(t *testing.T, client *mangaapi.Client) string {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, client.CreateAccount(ctx, testEmail, testPassword))
	creds, err := client.Login(ctx, testEmail, testPassword)
	require.NoError(t, err)
	return creds.Token
}

func TestClient_FetchCatalogPage(t *testing.T) {
	_, client := setupTestService(t)
	ctx := context.Background()
	total := len(fakeapi.SampleCatalog())

	tests := []struct {
		name      string
		page, per int
		filter    mangaapi.Filter
		wantItems int
		wantTotal int
	}{
		{name: "first page", page: 1, per: 10, wantItems: 10, wantTotal: total},
		{name: "last partial page", page: 3, per: 10, wantItems: total - 20, wantTotal: total},
		{name: "past the end", page: 9, per: 10, wantItems: 0, wantTotal: total},
		{name: "by demographic", page: 1, per: 20, filter: mangaapi.Filter{Kind: mangaapi.FilterDemographic, Value: "Seinen"}, wantItems: 10, wantTotal: 10},
		{name: "by genre", page: 1, per: 20, filter: mangaapi.Filter{Kind: mangaapi.FilterGenre, Value: "Horror"}, wantItems: 2, wantTotal: 2},
		{name: "by theme with space", page: 1, per: 20, filter: mangaapi.Filter{Kind: mangaapi.FilterTheme, Value: "Martial Arts"}, wantItems: 3, wantTotal: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := client.FetchCatalogPage(ctx, tt.page, tt.per, tt.filter)
			require.NoError(t, err)
			assert.True(t, page.HasTotal)
			assert.Len(t, page.Items, tt.wantItems)
			assert.Equal(t, tt.wantTotal, page.Metadata.Total)
			assert.Equal(t, tt.page, page.Metadata.Page)
		})
	}
}

func TestClient_FetchVocabulary(t *testing.T) {
	_, client := setupTestService(t)

	genres, err := client.FetchVocabulary(context.Background(), mangaapi.VocabularyGenres)
	require.NoError(t, err)
	assert.Contains(t, genres, "Action")
	assert.Contains(t, genres, "Horror")

	demographics, err := client.FetchVocabulary(context.Background(), mangaapi.VocabularyDemographics)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Seinen", "Shounen", "Josei", "Shoujo"}, demographics)

	_, err = client.FetchVocabulary(context.Background(), mangaapi.VocabularyKind("authors"))
	assert.Error(t, err)
}

func TestClient_Search(t *testing.T) {
	_, client := setupTestService(t)
	ctx := context.Background()

	byPrefix, err := client.SearchByPrefix(ctx, "one")
	require.NoError(t, err)
	require.Len(t, byPrefix, 2)
	assert.Equal(t, "One Piece", byPrefix[0].Title)
	assert.Equal(t, "One Punch-Man", byPrefix[1].Title)

	containing, err := client.SearchContaining(ctx, "saga")
	require.NoError(t, err)
	assert.Len(t, containing, 2)

	none, err := client.SearchByPrefix(ctx, "zzz")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestClient_FetchEntry(t *testing.T) {
	_, client := setupTestService(t)

	m, err := client.FetchEntry(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Monster", m.Title)
	assert.Equal(t, mangaapi.StatusFinished, m.Status)
	require.NotNil(t, m.Volumes)
	assert.Equal(t, 18, *m.Volumes)
	require.NotNil(t, m.StartDate)
	assert.Equal(t, 1994, m.StartDate.Year())
	assert.NotContains(t, m.CoverURL(), `"`)
	assert.Contains(t, m.MainPicture, `"`)

	_, err = client.FetchEntry(context.Background(), 424242)
	assert.Equal(t, http.StatusNotFound, mangaapi.StatusCode(err))
}

func TestClient_AccountFlow(t *testing.T) {
	srv, client := setupTestService(t)
	ctx := context.Background()

	token := loginTestUser(t, client)
	assert.NotEmpty(t, token)

	profile, err := client.FetchProfile(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, testEmail, profile.Email)
	assert.True(t, profile.IsActive)

	refreshed, err := client.RefreshToken(ctx, token)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.Token)
	assert.Equal(t, "Bearer", refreshed.TokenType)

	t.Run("duplicate account", func(t *testing.T) {
		err := client.CreateAccount(ctx, testEmail, testPassword)
		assert.Equal(t, http.StatusConflict, mangaapi.StatusCode(err))
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := client.Login(ctx, testEmail, "wrong-password")
		assert.True(t, mangaapi.IsUnauthorized(err))
	})

	t.Run("revoked token", func(t *testing.T) {
		srv.RevokeSessions(testEmail)
		_, err := client.FetchProfile(ctx, refreshed.Token)
		assert.True(t, mangaapi.IsUnauthorized(err))
	})
}

func TestClient_MissingAppToken(t *testing.T) {
	srv, _ := setupTestService(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	client := mangaapi.NewClient(mangaapi.Config{BaseURL: ts.URL})
	err := client.CreateAccount(context.Background(), testEmail, testPassword)
	assert.True(t, mangaapi.IsUnauthorized(err))
}

func TestClient_Collection(t *testing.T) {
	srv, client := setupTestService(t)
	ctx := context.Background()
	token := loginTestUser(t, client)

	reading := 2
	require.NoError(t, client.PushCollectionEntry(ctx, token, 1, mangaapi.CollectionEntry{
		VolumesOwned:  []int{1, 2, 3},
		ReadingVolume: &reading,
	}))
	require.NoError(t, client.PushCollectionEntry(ctx, token, 21, mangaapi.CollectionEntry{
		VolumesOwned:       []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12},
		CompleteCollection: true,
	}))
	// pushing again replaces the entry
	require.NoError(t, client.PushCollectionEntry(ctx, token, 1, mangaapi.CollectionEntry{
		VolumesOwned:  []int{1, 2, 3, 4},
		ReadingVolume: &reading,
	}))

	entries, err := client.FetchCollection(ctx, token)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 1, entries[0].Manga.ID)
	assert.Equal(t, []int{1, 2, 3, 4}, entries[0].VolumesOwned)
	require.NotNil(t, entries[0].ReadingVolume)
	assert.Equal(t, 2, *entries[0].ReadingVolume)
	assert.True(t, entries[1].CompleteCollection)
	assert.Nil(t, entries[1].ReadingVolume)
	assert.Equal(t, 2, srv.CollectionSize(testEmail))

	require.NoError(t, client.DeleteCollectionEntry(ctx, token, 21))
	err = client.DeleteCollectionEntry(ctx, token, 21)
	assert.Equal(t, http.StatusNotFound, mangaapi.StatusCode(err))

	t.Run("empty volume list", func(t *testing.T) {
		require.NoError(t, client.PushCollectionEntry(ctx, token, 2, mangaapi.CollectionEntry{}))
		entries, err := client.FetchCollection(ctx, token)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Empty(t, entries[1].VolumesOwned)
	})

	t.Run("unknown manga", func(t *testing.T) {
		err := client.PushCollectionEntry(ctx, token, 424242, mangaapi.CollectionEntry{VolumesOwned: []int{1}})
		assert.Equal(t, http.StatusNotFound, mangaapi.StatusCode(err))
	})

	t.Run("without token", func(t *testing.T) {
		_, err := client.FetchCollection(ctx, "")
		assert.True(t, mangaapi.IsUnauthorized(err))
	})
}

func TestClient_BareListPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "5", r.URL.Query().Get("per"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id": 1, "title": "Monster", "mainPicture": "", "status": "weird", "url": "", "authors": [], "genres": [], "themes": [], "demographics": []}]`))
	}))
	defer server.Close()

	client := mangaapi.NewClient(mangaapi.Config{BaseURL: server.URL})
	page, err := client.FetchCatalogPage(context.Background(), 2, 5, mangaapi.NoFilter)
	require.NoError(t, err)
	assert.False(t, page.HasTotal)
	require.Len(t, page.Items, 1)
	assert.Equal(t, mangaapi.StatusUnknown, page.Items[0].Status)
}

func TestClient_ErrorKinds(t *testing.T) {
	t.Run("malformed body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"items": [`))
		}))
		defer server.Close()

		client := mangaapi.NewClient(mangaapi.Config{BaseURL: server.URL})
		_, err := client.FetchCatalogPage(context.Background(), 1, 20, mangaapi.NoFilter)

		var decodeErr *mangaapi.DecodeError
		assert.True(t, errors.As(err, &decodeErr))
	})

	t.Run("server unavailable", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		client := mangaapi.NewClient(mangaapi.Config{BaseURL: url})
		_, err := client.FetchVocabulary(context.Background(), mangaapi.VocabularyThemes)

		var transportErr *mangaapi.TransportError
		assert.True(t, errors.As(err, &transportErr))
	})

	t.Run("unexpected status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer server.Close()

		client := mangaapi.NewClient(mangaapi.Config{BaseURL: server.URL})
		_, err := client.SearchByPrefix(context.Background(), "mon")

		var statusErr *mangaapi.StatusError
		require.True(t, errors.As(err, &statusErr))
		assert.Equal(t, http.StatusInternalServerError, statusErr.Code)
		assert.Equal(t, "boom", statusErr.Body)
		assert.False(t, mangaapi.IsUnauthorized(err))
	})
}

func TestClient_SendsHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, testAppToken, r.Header.Get("App-Token"))
		assert.Equal(t, "/collection/manga/7", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := mangaapi.NewClient(mangaapi.Config{BaseURL: server.URL + "/", AppToken: testAppToken})
	require.NoError(t, client.DeleteCollectionEntry(context.Background(), "tok", 7))
}
