// Package access holds the client-side authorization model: which role
// carries which permission, and the predicates screens and commands use to
// decide what to show.
package access

import (
	"slices"

	"datve-cli/model"
)

type Permission string

const (
	ViewUsers   Permission = "view_users"
	CreateUsers Permission = "create_users"
	EditUsers   Permission = "edit_users"
	DeleteUsers Permission = "delete_users"

	ViewMovies   Permission = "view_movies"
	CreateMovies Permission = "create_movies"
	EditMovies   Permission = "edit_movies"
	DeleteMovies Permission = "delete_movies"

	ViewTheaters   Permission = "view_theaters"
	CreateTheaters Permission = "create_theaters"
	EditTheaters   Permission = "edit_theaters"
	DeleteTheaters Permission = "delete_theaters"

	ViewRooms   Permission = "view_rooms"
	CreateRooms Permission = "create_rooms"
	EditRooms   Permission = "edit_rooms"
	DeleteRooms Permission = "delete_rooms"

	ViewEquipment   Permission = "view_equipment"
	CreateEquipment Permission = "create_equipment"
	EditEquipment   Permission = "edit_equipment"
	DeleteEquipment Permission = "delete_equipment"

	ViewSeats   Permission = "view_seats"
	CreateSeats Permission = "create_seats"
	EditSeats   Permission = "edit_seats"
	DeleteSeats Permission = "delete_seats"

	ViewShowtimes   Permission = "view_showtimes"
	CreateShowtimes Permission = "create_showtimes"
	EditShowtimes   Permission = "edit_showtimes"
	DeleteShowtimes Permission = "delete_showtimes"

	ViewPromotions   Permission = "view_promotions"
	CreatePromotions Permission = "create_promotions"
	EditPromotions   Permission = "edit_promotions"
	DeletePromotions Permission = "delete_promotions"

	ViewTickets    Permission = "view_tickets"
	ProcessTickets Permission = "process_tickets"

	ViewFood          Permission = "view_food"
	ProcessFoodOrders Permission = "process_food_orders"

	ViewStatistics Permission = "view_statistics"
)

func crud(view, create, edit, del Permission) []Permission {
	return []Permission{view, create, edit, del}
}

// RolePermissions is the single source of truth for role grants. It mirrors
// the backend's table and has to be kept in step with it by hand.
var RolePermissions = map[model.Role][]Permission{
	model.RoleAdmin: concat(
		crud(ViewUsers, CreateUsers, EditUsers, DeleteUsers),
		crud(ViewMovies, CreateMovies, EditMovies, DeleteMovies),
		crud(ViewTheaters, CreateTheaters, EditTheaters, DeleteTheaters),
		[]Permission{ViewStatistics},
	),
	model.RoleManager: concat(
		crud(ViewUsers, CreateUsers, EditUsers, DeleteUsers),
		crud(ViewTheaters, CreateTheaters, EditTheaters, DeleteTheaters),
		crud(ViewRooms, CreateRooms, EditRooms, DeleteRooms),
		crud(ViewEquipment, CreateEquipment, EditEquipment, DeleteEquipment),
		crud(ViewSeats, CreateSeats, EditSeats, DeleteSeats),
		crud(ViewPromotions, CreatePromotions, EditPromotions, DeletePromotions),
		crud(ViewShowtimes, CreateShowtimes, EditShowtimes, DeleteShowtimes),
		[]Permission{ViewStatistics, ViewTickets, ProcessTickets},
	),
	model.RoleStaff: {
		ViewTickets, ProcessTickets,
		ViewFood, ProcessFoodOrders,
		ViewMovies, ViewShowtimes,
	},
	model.RoleCustomer: {ViewMovies, ViewShowtimes, ViewSeats},
}

func concat(groups ...[]Permission) []Permission {
	var out []Permission
	for _, group := range groups {
		out = append(out, group...)
	}
	return out
}

// PermissionsFor returns a copy of the role's grants. Unknown roles get none.
func PermissionsFor(role model.Role) []Permission {
	return slices.Clone(RolePermissions[role])
}

// HasRole reports whether user holds exactly role.
func HasRole(user *model.User, role model.Role) bool {
	return user != nil && role.Valid() && user.Role == role
}

func HasPermission(user *model.User, perm Permission) bool {
	if user == nil {
		return false
	}
	return slices.Contains(RolePermissions[user.Role], perm)
}

func HasAnyPermission(user *model.User, perms ...Permission) bool {
	for _, perm := range perms {
		if HasPermission(user, perm) {
			return true
		}
	}
	return false
}

// HasAllPermissions is vacuously true for an empty list once a user exists.
func HasAllPermissions(user *model.User, perms ...Permission) bool {
	if user == nil {
		return false
	}
	for _, perm := range perms {
		if !HasPermission(user, perm) {
			return false
		}
	}
	return true
}

// CanAccess combines an optional role with an optional permission list. A
// zero role skips the role check and an empty list skips the permission
// check; every listed permission is required.
func CanAccess(user *model.User, role model.Role, perms ...Permission) bool {
	if user == nil {
		return false
	}
	if role != model.RoleNone && user.Role != role {
		return false
	}
	return HasAllPermissions(user, perms...)
}
