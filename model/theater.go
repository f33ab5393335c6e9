package model

type Theater struct {
	Id      ID     `json:"ma_rap"`
	Name    string `json:"ten_rap"`
	Address string `json:"dia_chi"`
	Phone   string `json:"so_dien_thoai,omitempty"`
}

type Room struct {
	Id        ID     `json:"ma_phong"`
	Name      string `json:"ten_phong"`
	TheaterId ID     `json:"ma_rap"`
	Capacity  int    `json:"so_luong_ghe,omitempty"`
}

// Showtime is a single screening of a movie in a room.
type Showtime struct {
	Id        ID       `json:"ma_sc"`
	MovieId   ID       `json:"ma_phim"`
	RoomId    ID       `json:"ma_phong"`
	TheaterId ID       `json:"ma_rap"`
	Date      string   `json:"ngay_chieu"`
	StartTime string   `json:"thoi_gian_bat_dau"`
	Room      *Room    `json:"phong,omitempty"`
	Theater   *Theater `json:"rap,omitempty"`
	Movie     *Movie   `json:"phim,omitempty"`
}

// TimeLabel trims the seconds off the backend "15:04:05" time.
func (s Showtime) TimeLabel() string {
	if len(s.StartTime) >= 5 {
		return s.StartTime[:5]
	}
	return s.StartTime
}
