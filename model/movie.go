package model

import (
	"strings"
	"time"
)

const (
	MovieStatusNowShowing  = "Đang chiếu"
	MovieStatusComingSoon  = "Sắp chiếu"
	movieReleaseDateLayout = time.DateOnly
)

type Movie struct {
	Id          ID     `json:"ma_phim"`
	Title       string `json:"ten_phim"`
	AgeRating   string `json:"do_tuoi"`
	Duration    int    `json:"thoi_luong"`
	Genre       string `json:"the_loai,omitempty"`
	Director    string `json:"dao_dien,omitempty"`
	ReleaseDate string `json:"ngay_khoi_chieu"`
	Status      string `json:"trang_thai,omitempty"`
	Synopsis    string `json:"mo_ta,omitempty"`
	Poster      string `json:"anh_phim,omitempty"`
}

// ComingSoon reports whether the movie has not premiered at now. An explicit
// status from the backend wins over the release date.
func (m Movie) ComingSoon(now time.Time) bool {
	switch strings.TrimSpace(m.Status) {
	case MovieStatusComingSoon:
		return true
	case MovieStatusNowShowing:
		return false
	}
	release, err := time.ParseInLocation(movieReleaseDateLayout, strings.TrimSpace(m.ReleaseDate), now.Location())
	if err != nil {
		return false
	}
	return release.After(now)
}
