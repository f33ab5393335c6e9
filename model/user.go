package model

type User struct {
	Id        ID     `json:"ma_nguoi_dung"`
	Name      string `json:"ho_ten"`
	Email     string `json:"email"`
	Phone     string `json:"sdt,omitempty"`
	Role      Role   `json:"ma_vai_tro"`
	TheaterId ID     `json:"ma_rap,omitempty"`
	Avatar    string `json:"anh_nguoi_dung,omitempty"`
}

// AuthResponse is returned by the login and register endpoints.
type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"nguoiDung"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"matKhau"`
}

type RegisterRequest struct {
	Name                 string `json:"hoTen"`
	Email                string `json:"email"`
	Password             string `json:"matKhau"`
	PasswordConfirmation string `json:"matKhau_confirmation"`
	Phone                string `json:"soDienThoai"`
}

type ProfileUpdate struct {
	Name   string `json:"ho_ten"`
	Email  string `json:"email"`
	Phone  string `json:"sdt"`
	Avatar string `json:"anh_nguoi_dung,omitempty"`
}
