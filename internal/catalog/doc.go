// Package catalog implements paginated, filterable browsing of the remote
// manga catalog.
//
// A Manager moves through explicit phases:
//
//	Idle ──LoadInitial──▶ LoadingInitial ──ok──▶ Loaded ──LoadNextPage──▶ LoadingNextPage
//	                            │                  ▲  ▲                          │
//	                            └──err──▶ Failed ──┘  └────────────ok────────────┘
//
// ApplyFilter and LoadInitial restart from page 1; LoadNextPage is accepted
// from Loaded or Failed while CanLoadMore holds. Calls made while loading are
// dropped and return the current Snapshot.
//
// Search is independent of paging. While the term has at least
// MinSearchLength characters Snapshot.Display returns the search results;
// otherwise it returns the accumulated listing, which searching never
// modifies.
package catalog
