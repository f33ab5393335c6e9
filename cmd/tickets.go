package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"golang.org/x/exp/maps"

	"datve-cli/format"
	"datve-cli/model"
	"datve-cli/service"
	"datve-cli/session"
)

var ticketsStatus string

var ticketsCmd = &cobra.Command{
	Use:   "tickets",
	Short: "List your tickets, or the theater's tickets for staff roles",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := setup()
		if err != nil {
			return err
		}
		defer d.close()

		ctx := cmd.Context()
		d.restore(ctx)
		tickets, err := fetchTickets(ctx, d.client, d.session)
		if err != nil {
			return err
		}
		if ticketsStatus != "" {
			tickets = slices.DeleteFunc(tickets, func(t model.Ticket) bool {
				return !strings.EqualFold(t.Status.Label(), ticketsStatus)
			})
		}
		renderTickets(cmd.OutOrStdout(), tickets)
		return nil
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel [ticket-id]",
	Short: "Cancel a ticket that is still waiting for payment",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := setup()
		if err != nil {
			return err
		}
		defer d.close()

		ctx := cmd.Context()
		d.restore(ctx)
		user := d.session.User()
		if user == nil {
			return errNotSignedIn
		}

		var id model.ID
		if len(args) == 1 {
			id = model.ID(strings.TrimSpace(args[0]))
		}
		if id, err = cancelTicket(ctx, d.client, user, id, promptSelectTicket); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Ticket #%s cancelled.\n", id)
		return nil
	},
}

// cancelTicket cancels id, or the ticket pick chooses when id is empty. Only
// tickets still waiting for payment may be cancelled.
func cancelTicket(ctx context.Context, client *service.Client, user *model.User, id model.ID, pick func([]model.Ticket) (model.ID, error)) (model.ID, error) {
	tickets, err := client.UserTickets(ctx, user.Id)
	if err != nil {
		return "", fmt.Errorf("load tickets: %s", service.ErrorMessage(err))
	}
	if id.IsZero() {
		if id, err = pick(tickets); err != nil {
			return "", err
		}
	}
	i := slices.IndexFunc(tickets, func(t model.Ticket) bool { return t.Id == id })
	if i < 0 {
		return "", fmt.Errorf("ticket #%s not found among your tickets", id)
	}
	if !tickets[i].Cancellable() {
		return "", fmt.Errorf("ticket #%s is %s; only tickets waiting for payment can be cancelled", id, tickets[i].Status.Label())
	}
	if err := client.CancelTicket(ctx, id); err != nil {
		return "", fmt.Errorf("cancel ticket #%s: %s", id, service.ErrorMessage(err))
	}
	return id, nil
}

func init() {
	ticketsCmd.Flags().StringVar(&ticketsStatus, "status", "", "only show tickets in this status (paid, cancelled, pending payment)")
}

func fetchTickets(ctx context.Context, client *service.Client, sess *session.Manager) ([]model.Ticket, error) {
	user := sess.User()
	if user == nil {
		return nil, errNotSignedIn
	}
	var (
		tickets []model.Ticket
		err     error
	)
	if user.Role == model.RoleCustomer {
		tickets, err = client.UserTickets(ctx, user.Id)
	} else {
		tickets, err = client.RoleTickets(ctx, user.Role)
	}
	if err != nil {
		return nil, fmt.Errorf("load tickets: %s", service.ErrorMessage(err))
	}
	return tickets, nil
}

func renderTickets(out io.Writer, tickets []model.Ticket) {
	if len(tickets) == 0 {
		fmt.Fprintln(out, "No tickets.")
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"ID", "Movie", "Seats", "Total", "Status", "Booked"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: 28},
		{Number: 3, WidthMax: 20},
	})
	for _, ticket := range tickets {
		t.AppendRow(table.Row{
			ticket.Id.String(),
			ticket.MovieTitle(),
			strings.Join(ticket.SeatLabels(), ", "),
			format.Currency(ticket.Total),
			ticket.Status.Label(),
			format.DateTime(ticket.BookedAt),
		})
	}
	t.Render()
}

func promptSelectTicket(tickets []model.Ticket) (model.ID, error) {
	idByLabel := make(map[string]model.ID)
	for _, ticket := range tickets {
		if !ticket.Cancellable() {
			continue
		}
		label := fmt.Sprintf("#%s %s (%s)", ticket.Id, ticket.MovieTitle(), format.Currency(ticket.Total))
		idByLabel[label] = ticket.Id
	}
	if len(idByLabel) == 0 {
		return "", errors.New("no tickets waiting for payment")
	}

	labels := maps.Keys(idByLabel)
	slices.Sort(labels)
	selectTicket := promptui.Select{
		Label: "Select Ticket",
		Items: labels,
		Size:  10,
	}
	_, label, err := selectTicket.Run()
	if err != nil {
		return "", fmt.Errorf("select ticket: %w", err)
	}
	return idByLabel[label], nil
}
