package access

import (
	"fmt"
	"sort"
	"strings"
)

// Action is one of the CRUD verbs a back-office resource supports.
type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

// ResourcePermissions maps back-office resources to the permission each
// action requires. Missing actions are not offered by the client.
var ResourcePermissions = map[string]map[Action]Permission{
	"users": {
		ActionView: ViewUsers, ActionCreate: CreateUsers, ActionEdit: EditUsers, ActionDelete: DeleteUsers,
	},
	"staff": {
		ActionView: ViewUsers, ActionCreate: CreateUsers, ActionEdit: EditUsers, ActionDelete: DeleteUsers,
	},
	"movies": {
		ActionView: ViewMovies, ActionCreate: CreateMovies, ActionEdit: EditMovies, ActionDelete: DeleteMovies,
	},
	"theaters": {
		ActionView: ViewTheaters, ActionCreate: CreateTheaters, ActionEdit: EditTheaters, ActionDelete: DeleteTheaters,
	},
	"rooms": {
		ActionView: ViewRooms, ActionCreate: CreateRooms, ActionEdit: EditRooms, ActionDelete: DeleteRooms,
	},
	"seats": {
		ActionView: ViewSeats, ActionCreate: CreateSeats, ActionEdit: EditSeats, ActionDelete: DeleteSeats,
	},
	"showtimes": {
		ActionView: ViewShowtimes, ActionCreate: CreateShowtimes, ActionEdit: EditShowtimes, ActionDelete: DeleteShowtimes,
	},
	"promotions": {
		ActionView: ViewPromotions, ActionCreate: CreatePromotions, ActionEdit: EditPromotions, ActionDelete: DeletePromotions,
	},
	"ticket-types": {
		ActionView: ViewTickets, ActionCreate: ProcessTickets, ActionEdit: ProcessTickets, ActionDelete: ProcessTickets,
	},
	"food": {
		ActionView: ViewFood, ActionCreate: ProcessFoodOrders, ActionEdit: ProcessFoodOrders, ActionDelete: ProcessFoodOrders,
	},
	"tickets": {
		ActionView: ViewTickets, ActionEdit: ProcessTickets,
	},
}

func Resources() []string {
	names := make([]string, 0, len(ResourcePermissions))
	for name := range ResourcePermissions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Required returns the permission guarding action on resource.
func Required(resource string, action Action) (Permission, error) {
	actions, ok := ResourcePermissions[strings.ToLower(strings.TrimSpace(resource))]
	if !ok {
		return "", fmt.Errorf("unknown resource %q", resource)
	}
	perm, ok := actions[action]
	if !ok {
		return "", fmt.Errorf("%s does not support %s", resource, action)
	}
	return perm, nil
}
