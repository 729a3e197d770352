package mangaapi

import (
	"context"
	"fmt"
	"net/http"
)

// PushCollectionEntry creates or replaces the cloud entry for mangaID.
func (c *Client) PushCollectionEntry(ctx context.Context, token string, mangaID int, entry CollectionEntry) error {
	volumes := entry.VolumesOwned
	if volumes == nil {
		volumes = []int{}
	}
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/collection/manga",
		body: collectionRequest{
			Manga:              mangaID,
			CompleteCollection: entry.CompleteCollection,
			VolumesOwned:       volumes,
			ReadingVolume:      entry.ReadingVolume,
		},
		bearer:   token,
		appToken: true,
		expect:   http.StatusCreated,
	}, nil)
}

// FetchCollection returns the user's whole cloud collection.
func (c *Client) FetchCollection(ctx context.Context, token string) ([]CloudCollectionEntry, error) {
	var entries []CloudCollectionEntry
	if err := c.do(ctx, request{method: http.MethodGet, path: "/collection/manga", bearer: token}, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// DeleteCollectionEntry removes mangaID from the cloud collection.
func (c *Client) DeleteCollectionEntry(ctx context.Context, token string, mangaID int) error {
	return c.do(ctx, request{
		method:   http.MethodDelete,
		path:     fmt.Sprintf("/collection/manga/%d", mangaID),
		bearer:   token,
		appToken: true,
	}, nil)
}
