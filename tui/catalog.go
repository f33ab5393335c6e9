package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"datve-cli/format"
	"datve-cli/guard"
	"datve-cli/model"
	"datve-cli/service"
	"datve-cli/store"
)

type moviesMsg struct {
	movies []model.Movie
	err    error
}

type showtimesMsg struct {
	movie     model.Movie
	showtimes []model.Showtime
	err       error
}

type movieItem struct {
	movie model.Movie
}

func (i movieItem) Title() string { return i.movie.Title }
func (i movieItem) Description() string {
	parts := []string{}
	if i.movie.Genre != "" {
		parts = append(parts, i.movie.Genre)
	}
	if d := format.Duration(i.movie.Duration); d != "" {
		parts = append(parts, d)
	}
	if i.movie.AgeRating != "" {
		parts = append(parts, i.movie.AgeRating)
	}
	if i.movie.ReleaseDate != "" {
		parts = append(parts, "from "+format.DateTime(i.movie.ReleaseDate))
	}
	return strings.Join(parts, " • ")
}
func (i movieItem) FilterValue() string { return i.movie.Title + " " + i.movie.Genre }

type showtimeItem struct {
	showtime model.Showtime
}

func (i showtimeItem) Title() string {
	return fmt.Sprintf("%s %s", format.DateTime(i.showtime.Date), i.showtime.TimeLabel())
}
func (i showtimeItem) Description() string {
	parts := []string{}
	if i.showtime.Theater != nil && i.showtime.Theater.Name != "" {
		parts = append(parts, i.showtime.Theater.Name)
	}
	if i.showtime.Room != nil && i.showtime.Room.Name != "" {
		parts = append(parts, i.showtime.Room.Name)
	}
	if len(parts) == 0 {
		return "Room " + i.showtime.RoomId.String()
	}
	return strings.Join(parts, " • ")
}
func (i showtimeItem) FilterValue() string { return i.Title() + " " + i.Description() }

func (m appModel) openHome(comingSoon bool) (appModel, tea.Cmd) {
	m.comingSoon = comingSoon
	if len(m.movies) > 0 {
		m.refreshHome()
		m.state = stateHome
		return m, nil
	}
	cmd := m.startLoading("Loading movies")
	return m, tea.Batch(m.fetchMoviesCmd(), cmd)
}

func (m *appModel) refreshHome() {
	now := time.Now()
	var items []list.Item
	for _, movie := range m.movies {
		if movie.ComingSoon(now) == m.comingSoon {
			items = append(items, movieItem{movie: movie})
		}
	}
	m.homeList.Title = "Now showing"
	if m.comingSoon {
		m.homeList.Title = "Coming soon"
	}
	m.homeList.ResetFilter()
	m.homeList.SetItems(items)
	m.homeList.Select(0)
}

func (m appModel) openMovie(id model.ID) (appModel, tea.Cmd) {
	cmd := m.startLoading("Loading showtimes")
	return m, tea.Batch(m.fetchShowtimesCmd(id), cmd)
}

func (m appModel) updateCatalog(msg tea.Msg) (appModel, tea.Cmd, bool) {
	switch msg := msg.(type) {
	case moviesMsg:
		if msg.err != nil {
			return m, errWithReturnCmd(fmt.Errorf("load movies: %s", service.ErrorMessage(msg.err)), stateHome), true
		}
		m.movies = msg.movies
		m.refreshHome()
		m.state = stateHome
		return m, nil, true

	case showtimesMsg:
		if msg.err != nil {
			if service.IsNotFound(msg.err) {
				return m, errCmd(fmt.Errorf("movie not found")), true
			}
			return m, errCmd(fmt.Errorf("load showtimes: %s", service.ErrorMessage(msg.err))), true
		}
		m.movie = msg.movie
		m.showtimeList.Title = "Showtimes • " + msg.movie.Title
		items := make([]list.Item, 0, len(msg.showtimes))
		for _, st := range msg.showtimes {
			items = append(items, showtimeItem{showtime: st})
		}
		m.showtimeList.ResetFilter()
		m.showtimeList.SetItems(items)
		m.showtimeList.Select(0)
		m.state = stateShowtimes
		return m, nil, true
	}
	return m, nil, false
}

func (m appModel) handleCatalogKey(msg tea.KeyMsg) (appModel, tea.Cmd, bool) {
	switch {
	case msg.Type == tea.KeyTab && m.state == stateHome:
		target := guard.PathComingSoon
		if m.comingSoon {
			target = guard.PathNowShowing
		}
		next, cmd := m.navigate(guard.Redirect{Path: target}, false)
		return next, cmd, true

	case msg.Type == tea.KeyEnter && m.state == stateHome:
		item, ok := m.homeList.SelectedItem().(movieItem)
		if !ok {
			return m, nil, true
		}
		m.movie = item.movie
		next, cmd := m.navigate(guard.Redirect{Path: guard.Expand(guard.PathMovie, map[string]string{"id": item.movie.Id.String()})}, true)
		return next, cmd, true

	case msg.Type == tea.KeyEnter && m.state == stateShowtimes:
		item, ok := m.showtimeList.SelectedItem().(showtimeItem)
		if !ok {
			return m, nil, true
		}
		m.showtime = item.showtime
		next, cmd := m.navigate(guard.Redirect{Path: guard.Expand(guard.PathBooking, map[string]string{"id": item.showtime.Id.String()})}, true)
		return next, cmd, true
	}
	return m, nil, false
}

func (m appModel) fetchMoviesCmd() tea.Cmd {
	ctx := m.requestCtx()
	return func() tea.Msg {
		movies, err := cachedCatalog(ctx, m.cfg.CatalogTTL, store.LoadMovieCache, store.SaveMovieCache, m.client.Movies)
		return moviesMsg{movies: movies, err: err}
	}
}

func (m appModel) fetchShowtimesCmd(id model.ID) tea.Cmd {
	ctx := m.requestCtx()
	return func() tea.Msg {
		movie, err := m.client.Movie(ctx, id)
		if err != nil {
			return showtimesMsg{err: err}
		}
		showtimes, err := m.client.ShowtimesByMovie(ctx, id)
		if err != nil && !service.IsNotFound(err) {
			return showtimesMsg{err: err}
		}
		sort.SliceStable(showtimes, func(i, j int) bool {
			if showtimes[i].Date != showtimes[j].Date {
				return showtimes[i].Date < showtimes[j].Date
			}
			return showtimes[i].StartTime < showtimes[j].StartTime
		})
		return showtimesMsg{movie: movie, showtimes: showtimes}
	}
}

// cachedCatalog serves a fresh cache entry, otherwise fetches and refreshes
// the cache. A stale entry still beats a failed fetch.
func cachedCatalog[T any](
	ctx context.Context,
	ttl time.Duration,
	load func(time.Duration) ([]T, bool, error),
	save func([]T) error,
	fetch func(context.Context) ([]T, error),
) ([]T, error) {
	cached, fresh, cacheErr := load(ttl)
	if cacheErr == nil && fresh && len(cached) > 0 {
		return cached, nil
	}
	items, err := fetch(ctx)
	if err != nil {
		if cacheErr == nil && len(cached) > 0 {
			return cached, nil
		}
		return nil, err
	}
	_ = save(items)
	return items, nil
}
