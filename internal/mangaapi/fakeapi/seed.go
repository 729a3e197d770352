package fakeapi

import (
	"fmt"
	"strings"
	"time"

	"github.com/mrlokans/mangashelf/internal/mangaapi"
)

type seedEntry struct {
	id           int
	title        string
	english      string
	author       string
	volumes      int // 0 while still publishing
	score        float64
	status       mangaapi.Status
	start        string
	genres       []string
	themes       []string
	demographics []string
}

var seedEntries = []seedEntry{
	{2, "Berserk", "Berserk", "Kentarou Miura", 0, 9.47, mangaapi.StatusPublishing, "1989-08-25", []string{"Action", "Adventure", "Drama", "Fantasy", "Horror"}, []string{"Gore", "Military", "Mythology"}, []string{"Seinen"}},
	{1, "Monster", "Monster", "Naoki Urasawa", 18, 9.15, mangaapi.StatusFinished, "1994-12-05", []string{"Drama", "Mystery"}, []string{"Adult Cast", "Psychological"}, []string{"Seinen"}},
	{3, "JoJo no Kimyou na Bouken Part 7: Steel Ball Run", "JoJo's Bizarre Adventure Part 7: Steel Ball Run", "Hirohiko Araki", 24, 9.30, mangaapi.StatusFinished, "2004-01-19", []string{"Action", "Adventure", "Mystery", "Supernatural"}, []string{"Historical"}, []string{"Seinen"}},
	{13, "One Piece", "One Piece", "Eiichiro Oda", 0, 9.22, mangaapi.StatusPublishing, "1997-07-22", []string{"Action", "Adventure", "Fantasy"}, []string{"Pirates"}, []string{"Shounen"}},
	{4, "Vagabond", "Vagabond", "Takehiko Inoue", 37, 9.27, mangaapi.StatusOnHiatus, "1998-09-03", []string{"Action", "Adventure", "Award Winning"}, []string{"Historical", "Martial Arts", "Samurai"}, []string{"Seinen"}},
	{25, "Fullmetal Alchemist", "Fullmetal Alchemist", "Hiromu Arakawa", 27, 9.03, mangaapi.StatusFinished, "2001-07-12", []string{"Action", "Adventure", "Drama", "Fantasy"}, []string{"Military"}, []string{"Shounen"}},
	{51, "Slam Dunk", "Slam Dunk", "Takehiko Inoue", 31, 9.08, mangaapi.StatusFinished, "1990-10-01", []string{"Award Winning", "Comedy", "Sports"}, []string{"School", "Team Sports"}, []string{"Shounen"}},
	{656, "Vinland Saga", "Vinland Saga", "Makoto Yukimura", 0, 9.06, mangaapi.StatusPublishing, "2005-04-13", []string{"Action", "Adventure", "Award Winning", "Drama"}, []string{"Gore", "Historical"}, []string{"Seinen"}},
	{642, "Vinland Saga Prologue", "", "Makoto Yukimura", 1, 7.90, mangaapi.StatusFinished, "2005-04-13", []string{"Action", "Drama"}, []string{"Historical"}, []string{"Seinen"}},
	{28, "NANA", "Nana", "Ai Yazawa", 21, 8.98, mangaapi.StatusOnHiatus, "2000-05-26", []string{"Award Winning", "Drama", "Romance"}, []string{"Adult Cast", "Music"}, []string{"Josei"}},
	{104, "Yotsuba to!", "Yotsuba&!", "Kiyohiko Azuma", 0, 8.95, mangaapi.StatusPublishing, "2003-03-21", []string{"Comedy", "Slice of Life"}, []string{"Childcare", "Iyashikei"}, []string{"Shounen"}},
	{1706, "Ashita no Joe", "Tomorrow's Joe", "Asao Takamori", 20, 8.87, mangaapi.StatusFinished, "1968-01-01", []string{"Drama", "Sports"}, []string{"Combat Sports"}, []string{"Shounen"}},
	{21, "Death Note", "Death Note", "Tsugumi Ohba", 12, 8.69, mangaapi.StatusFinished, "2003-12-01", []string{"Supernatural", "Suspense"}, []string{"Psychological"}, []string{"Shounen"}},
	{11, "Naruto", "Naruto", "Masashi Kishimoto", 72, 8.07, mangaapi.StatusFinished, "1999-09-21", []string{"Action", "Adventure", "Fantasy"}, []string{"Martial Arts"}, []string{"Shounen"}},
	{44347, "One Punch-Man", "One-Punch Man", "ONE", 0, 8.75, mangaapi.StatusPublishing, "2012-06-14", []string{"Action", "Comedy"}, []string{"Parody", "Super Power"}, []string{"Seinen"}},
	{3009, "Nodame Cantabile", "Nodame Cantabile", "Tomoko Ninomiya", 25, 8.52, mangaapi.StatusFinished, "2001-07-10", []string{"Comedy", "Romance"}, []string{"Music"}, []string{"Josei"}},
	{70, "Hikaru no Go", "Hikaru no Go", "Yumi Hotta", 23, 8.36, mangaapi.StatusFinished, "1998-12-08", []string{"Award Winning", "Supernatural"}, []string{"Strategy Game"}, []string{"Shounen"}},
	{436, "Uzumaki", "Uzumaki", "Junji Ito", 3, 8.53, mangaapi.StatusFinished, "1998-01-01", []string{"Drama", "Horror", "Mystery"}, []string{"Psychological"}, []string{"Seinen"}},
	{1224, "Sailor Moon", "Pretty Guardian Sailor Moon", "Naoko Takeuchi", 18, 8.21, mangaapi.StatusFinished, "1991-12-28", []string{"Fantasy", "Romance"}, []string{"Mahou Shoujo"}, []string{"Shoujo"}},
	{1010, "Fruits Basket", "Fruits Basket", "Natsuki Takaya", 23, 8.41, mangaapi.StatusFinished, "1998-07-18", []string{"Comedy", "Drama", "Romance", "Supernatural"}, []string{"School"}, []string{"Shoujo"}},
	{9115, "Houseki no Kuni", "Land of the Lustrous", "Haruko Ichikawa", 0, 8.70, mangaapi.StatusOnHiatus, "2012-10-25", []string{"Action", "Drama", "Fantasy", "Mystery"}, []string{"Psychological"}, []string{"Seinen"}},
	{7, "Dragon Ball", "Dragon Ball", "Akira Toriyama", 42, 8.42, mangaapi.StatusFinished, "1984-11-20", []string{"Action", "Adventure", "Comedy"}, []string{"Martial Arts", "Super Power"}, []string{"Shounen"}},
	{99, "Hunter x Hunter", "Hunter x Hunter", "Yoshihiro Togashi", 0, 9.00, mangaapi.StatusOnHiatus, "1998-03-03", []string{"Action", "Adventure", "Fantasy"}, []string{"Gore"}, []string{"Shounen"}},
	{5114, "Oyasumi Punpun", "Goodnight Punpun", "Inio Asano", 13, 9.02, mangaapi.StatusFinished, "2007-03-15", []string{"Drama", "Slice of Life"}, []string{"Psychological"}, []string{"Seinen"}},
	{9999, "Unfinished Draft", "", "Anonymous", 0, 0, mangaapi.StatusDiscontinued, "", []string{"Drama"}, nil, nil},
}

// SampleCatalog returns a small catalog of well-known titles.
func SampleCatalog() []mangaapi.Manga {
	catalog := make([]mangaapi.Manga, 0, len(seedEntries))
	for _, e := range seedEntries {
		catalog = append(catalog, e.toManga())
	}
	return catalog
}

func (e seedEntry) toManga() mangaapi.Manga {
	m := mangaapi.Manga{
		ID: e.id,
		// The real service wraps the cover URL in quotes.
		MainPicture: fmt.Sprintf(`"https://cdn.myanimelist.net/images/manga/%d/%dl.jpg"`, e.id%10, e.id),
		Title:       e.title,
		Status:      e.status,
		URL:         fmt.Sprintf("https://myanimelist.net/manga/%d", e.id),
		Authors:     []mangaapi.Author{authorFor(e.author)},
	}
	if e.english != "" {
		english := e.english
		m.TitleEnglish = &english
	}
	if e.volumes > 0 {
		volumes := e.volumes
		m.Volumes = &volumes
	}
	if e.score > 0 {
		score := e.score
		m.Score = &score
	}
	if e.start != "" {
		if t, err := time.Parse("2006-01-02", e.start); err == nil {
			m.StartDate = &mangaapi.Date{Time: t}
		}
	}
	for _, g := range e.genres {
		m.Genres = append(m.Genres, mangaapi.Genre{ID: labelID("g", g), Genre: g})
	}
	for _, t := range e.themes {
		m.Themes = append(m.Themes, mangaapi.Theme{ID: labelID("t", t), Theme: t})
	}
	for _, d := range e.demographics {
		m.Demographics = append(m.Demographics, mangaapi.Demographic{ID: labelID("d", d), Demographic: d})
	}
	return m
}

func authorFor(name string) mangaapi.Author {
	first, last, _ := strings.Cut(name, " ")
	return mangaapi.Author{
		ID:        labelID("a", name),
		FirstName: first,
		LastName:  last,
		Role:      "Story & Art",
	}
}

func labelID(prefix, label string) string {
	return prefix + "-" + strings.ToLower(strings.ReplaceAll(label, " ", "-"))
}
