// Command tmdb-mock serves a small TMDB lookalike from a JSON fixture file,
// for local development without an API token.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
)

type mockMovie struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Overview    string          `json:"overview"`
	PosterPath  string          `json:"poster_path"`
	ReleaseDate string          `json:"release_date"`
	Runtime     *int            `json:"runtime"`
	Popularity  float64         `json:"popularity"`
	Genres      []mockGenre     `json:"genres"`
	Credits     json.RawMessage `json:"credits"`
	Similar     []int64         `json:"similar"`
}

type mockGenre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type fixture struct {
	Movies []mockMovie `json:"movies"`
	Genres []mockGenre `json:"genres"`
}

type searchPage struct {
	Page         int         `json:"page"`
	Results      []mockMovie `json:"results"`
	TotalPages   int         `json:"total_pages"`
	TotalResults int         `json:"total_results"`
}

func main() {
	var (
		port = flag.String("port", "9098", "port to listen on")
		data = flag.String("data", "mock-tmdb.json", "path to fixture file")
	)
	flag.Parse()

	file, err := os.ReadFile(*data)
	if err != nil {
		log.Fatalf("read fixture: %v", err)
	}

	var fx fixture
	if err := json.Unmarshal(file, &fx); err != nil {
		log.Fatalf("parse fixture: %v", err)
	}

	byID := make(map[int64]mockMovie, len(fx.Movies))
	for _, m := range fx.Movies {
		byID[m.ID] = m
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/search/movie", func(w http.ResponseWriter, r *http.Request) {
		query := strings.ToLower(r.URL.Query().Get("query"))
		var results []mockMovie
		for _, m := range fx.Movies {
			if strings.Contains(strings.ToLower(m.Title), query) {
				results = append(results, m)
			}
		}
		writeJSON(w, searchPage{Page: 1, Results: results, TotalPages: 1, TotalResults: len(results)})
	})

	mux.HandleFunc("/genre/movie/list", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string][]mockGenre{"genres": fx.Genres})
	})

	mux.HandleFunc("/movie/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/movie/")
		if id, ok := strings.CutSuffix(rest, "/similar"); ok {
			movie, found := lookup(byID, id)
			if !found {
				http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
				return
			}
			var results []mockMovie
			for _, sid := range movie.Similar {
				if sim, ok := byID[sid]; ok {
					results = append(results, sim)
				}
			}
			writeJSON(w, searchPage{Page: 1, Results: results, TotalPages: 1, TotalResults: len(results)})
			return
		}
		movie, found := lookup(byID, rest)
		if !found {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		writeJSON(w, movie)
	})

	addr := ":" + *port
	log.Printf("mock tmdb listening on %s with %d movies", addr, len(fx.Movies))
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func lookup(byID map[int64]mockMovie, raw string) (mockMovie, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return mockMovie{}, false
	}
	m, ok := byID[id]
	return m, ok
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
