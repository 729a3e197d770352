package mangaapi

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Manga is a catalog entry as served by the remote service.
type Manga struct {
	ID            int           `json:"id"`
	Title         string        `json:"title"`
	TitleEnglish  *string       `json:"titleEnglish"`
	TitleJapanese *string       `json:"titleJapanese"`
	MainPicture   string        `json:"mainPicture"`
	Synopsis      *string       `json:"sypnosis"`
	Background    *string       `json:"background"`
	Score         *float64      `json:"score"`
	Volumes       *int          `json:"volumes"`
	Chapters      *int          `json:"chapters"`
	Status        Status        `json:"status"`
	StartDate     *Date         `json:"startDate"`
	EndDate       *Date         `json:"endDate"`
	URL           string        `json:"url"`
	Authors       []Author      `json:"authors"`
	Genres        []Genre       `json:"genres"`
	Themes        []Theme       `json:"themes"`
	Demographics  []Demographic `json:"demographics"`
}

// CoverURL is MainPicture without the stray quote characters the service embeds.
func (m Manga) CoverURL() string {
	return strings.TrimSpace(strings.ReplaceAll(m.MainPicture, `"`, ""))
}

type Author struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

func (a Author) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

type Genre struct {
	ID    string `json:"id"`
	Genre string `json:"genre"`
}

type Theme struct {
	ID    string `json:"id"`
	Theme string `json:"theme"`
}

type Demographic struct {
	ID          string `json:"id"`
	Demographic string `json:"demographic"`
}

// Status is the publication status. Unrecognised values decode as StatusUnknown.
type Status string

const (
	StatusFinished     Status = "finished"
	StatusPublishing   Status = "currently_publishing"
	StatusOnHiatus     Status = "on_hiatus"
	StatusDiscontinued Status = "discontinued"
	StatusUnknown      Status = "unknown"
)

func ParseStatus(raw string) Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "finished":
		return StatusFinished
	case "currently_publishing", "publishing":
		return StatusPublishing
	case "on_hiatus":
		return StatusOnHiatus
	case "discontinued":
		return StatusDiscontinued
	default:
		return StatusUnknown
	}
}

func (s *Status) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*s = ParseStatus(raw)
	return nil
}

func (s Status) Label() string {
	switch s {
	case StatusFinished:
		return "Finished"
	case StatusPublishing:
		return "Publishing"
	case StatusOnHiatus:
		return "On hiatus"
	case StatusDiscontinued:
		return "Discontinued"
	default:
		return "Unknown"
	}
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Date is an ISO-8601 timestamp.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw == "" {
		d.Time = time.Time{}
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			d.Time = t
			return nil
		}
	}
	return fmt.Errorf("invalid ISO-8601 date %q", raw)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.UTC().Format(time.RFC3339))
}

// PageMetadata describes a page of a paginated listing.
type PageMetadata struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Per   int `json:"per"`
}

// Page is one page of catalog entries. HasTotal is false when the service
// answered with a bare list instead of the paginated envelope.
type Page struct {
	Items    []Manga
	Metadata PageMetadata
	HasTotal bool
}

type pageEnvelope struct {
	Items    []Manga       `json:"items"`
	Metadata *PageMetadata `json:"metadata"`
}

func (p *Page) UnmarshalJSON(b []byte) error {
	trimmed := strings.TrimSpace(string(b))
	if strings.HasPrefix(trimmed, "[") {
		var items []Manga
		if err := json.Unmarshal(b, &items); err != nil {
			return err
		}
		*p = Page{Items: items}
		return nil
	}

	var env pageEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		return err
	}
	*p = Page{Items: env.Items}
	if env.Metadata != nil {
		p.Metadata = *env.Metadata
		p.HasTotal = true
	}
	return nil
}

// VocabularyKind selects one of the catalog's classification lists.
type VocabularyKind string

const (
	VocabularyGenres       VocabularyKind = "genres"
	VocabularyDemographics VocabularyKind = "demographics"
	VocabularyThemes       VocabularyKind = "themes"
)

// FilterKind selects the catalog listing a page is requested from.
type FilterKind string

const (
	FilterNone        FilterKind = ""
	FilterGenre       FilterKind = "genre"
	FilterDemographic FilterKind = "demographic"
	FilterTheme       FilterKind = "theme"
)

// Filter narrows a catalog listing. Only one dimension can be active at a time.
type Filter struct {
	Kind  FilterKind
	Value string
}

var NoFilter = Filter{}

func (f Filter) IsZero() bool {
	return f.Kind == FilterNone || f.Value == ""
}

func (f Filter) String() string {
	if f.IsZero() {
		return "all"
	}
	return fmt.Sprintf("%s=%s", f.Kind, f.Value)
}

// Credentials is the token triple returned by login and refresh.
type Credentials struct {
	Token     string `json:"token"`
	TokenType string `json:"tokenType"`
	ExpiresIn int    `json:"expiresIn"`
}

// Profile is the authenticated user as reported by the service.
type Profile struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	IsActive bool   `json:"isActive"`
	IsAdmin  bool   `json:"isAdmin"`
	Role     string `json:"role"`
}

// CollectionEntry is the data pushed for one manga in the user's cloud collection.
type CollectionEntry struct {
	VolumesOwned       []int
	ReadingVolume      *int
	CompleteCollection bool
}

// CloudCollectionEntry is one manga as stored in the user's cloud collection.
type CloudCollectionEntry struct {
	ID                 string `json:"id"`
	Manga              Manga  `json:"manga"`
	VolumesOwned       []int  `json:"volumesOwned"`
	ReadingVolume      *int   `json:"readingVolume"`
	CompleteCollection bool   `json:"completeCollection"`
}

type collectionRequest struct {
	Manga              int   `json:"manga"`
	CompleteCollection bool  `json:"completeCollection"`
	VolumesOwned       []int `json:"volumesOwned"`
	ReadingVolume      *int  `json:"readingVolume"`
}

type createUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
