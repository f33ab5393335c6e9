package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"datve-cli/access"
	"datve-cli/model"
	"datve-cli/service"
	"datve-cli/session"
)

var (
	recordFile string
	assumeYes  bool
)

var resourceCmd = &cobra.Command{
	Use:   "resource",
	Short: "Manage back-office records (movies, rooms, showtimes, ...)",
	Long: fmt.Sprintf("Manage back-office records. Known resources: %s.",
		strings.Join(service.ResourceNames(), ", ")),
}

var resourceListCmd = &cobra.Command{
	Use:   "list <resource>",
	Short: "List the records of a resource",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, res, err := resourceSetup(cmd, args[0], access.ActionView)
		if err != nil {
			return err
		}
		defer d.close()

		records, err := d.client.ListResource(cmd.Context(), res.Name)
		if err != nil {
			return fmt.Errorf("list %s: %s", res.Name, service.ErrorMessage(err))
		}
		renderRecords(cmd.OutOrStdout(), res, records)
		return nil
	},
}

var resourceCreateCmd = &cobra.Command{
	Use:   "create <resource>",
	Short: "Create a record from a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, res, err := resourceSetup(cmd, args[0], access.ActionCreate)
		if err != nil {
			return err
		}
		defer d.close()

		record, err := readRecord(cmd.InOrStdin(), recordFile)
		if err != nil {
			return err
		}
		created, err := d.client.CreateResource(cmd.Context(), res.Name, record)
		if err != nil {
			return fmt.Errorf("create %s: %s", res.Name, service.ErrorMessage(err))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created %s #%s.\n", singular(res), created.ID(res.IDKey))
		return nil
	},
}

var resourceUpdateCmd = &cobra.Command{
	Use:   "update <resource> <id>",
	Short: "Update a record from a JSON file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, res, err := resourceSetup(cmd, args[0], access.ActionEdit)
		if err != nil {
			return err
		}
		defer d.close()

		id := model.ID(strings.TrimSpace(args[1]))
		record, err := readRecord(cmd.InOrStdin(), recordFile)
		if err != nil {
			return err
		}
		if _, err := d.client.UpdateResource(cmd.Context(), res.Name, id, record); err != nil {
			return fmt.Errorf("update %s #%s: %s", res.Name, id, service.ErrorMessage(err))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated %s #%s.\n", singular(res), id)
		return nil
	},
}

var resourceDeleteCmd = &cobra.Command{
	Use:   "delete <resource> <id>",
	Short: "Delete a record",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, res, err := resourceSetup(cmd, args[0], access.ActionDelete)
		if err != nil {
			return err
		}
		defer d.close()

		id := model.ID(strings.TrimSpace(args[1]))
		if !assumeYes {
			confirm := promptui.Prompt{
				Label:     fmt.Sprintf("Delete %s #%s", singular(res), id),
				IsConfirm: true,
			}
			if _, err := confirm.Run(); err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
				return nil
			}
		}
		if err := d.client.DeleteResource(cmd.Context(), res.Name, id); err != nil {
			return fmt.Errorf("delete %s #%s: %s", res.Name, id, service.ErrorMessage(err))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s #%s.\n", singular(res), id)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{resourceCreateCmd, resourceUpdateCmd} {
		c.Flags().StringVarP(&recordFile, "file", "f", "-", "JSON object with the record fields, - for stdin")
	}
	resourceDeleteCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "do not ask for confirmation")
	resourceCmd.AddCommand(resourceListCmd, resourceCreateCmd, resourceUpdateCmd, resourceDeleteCmd)
}

// resourceSetup loads the session and checks the signed-in user may run
// action on name before anything goes over the wire.
func resourceSetup(cmd *cobra.Command, name string, action access.Action) (*deps, service.Resource, error) {
	res, err := service.LookupResource(name)
	if err != nil {
		return nil, service.Resource{}, err
	}
	d, err := setup()
	if err != nil {
		return nil, service.Resource{}, err
	}
	d.restore(cmd.Context())
	if err := authorize(d.session, res.Name, action); err != nil {
		d.close()
		return nil, service.Resource{}, err
	}
	return d, res, nil
}

func authorize(sess *session.Manager, resource string, action access.Action) error {
	if sess.User() == nil {
		return errNotSignedIn
	}
	perm, err := access.Required(resource, action)
	if err != nil {
		return err
	}
	if !sess.HasPermission(perm) {
		return fmt.Errorf("your role may not %s %s (needs %s)", action, resource, perm)
	}
	return nil
}

func readRecord(stdin io.Reader, path string) (model.Record, error) {
	var r io.Reader = stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open record file: %w", err)
		}
		defer f.Close()
		r = f
	}
	var record model.Record
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&record); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	if len(record) == 0 {
		return nil, errors.New("record has no fields")
	}
	return record, nil
}

func renderRecords(out io.Writer, res service.Resource, records []model.Record) {
	if len(records) == 0 {
		fmt.Fprintf(out, "No %s.\n", strings.ToLower(res.Title))
		return
	}
	header := make(table.Row, 0, len(res.Columns))
	configs := make([]table.ColumnConfig, 0, len(res.Columns))
	for i, col := range res.Columns {
		header = append(header, col.Title)
		configs = append(configs, table.ColumnConfig{Number: i + 1, WidthMax: 32})
	}
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetTitle(res.Title)
	t.AppendHeader(header)
	t.SetColumnConfigs(configs)
	for _, record := range records {
		row := make(table.Row, 0, len(res.Columns))
		for _, col := range res.Columns {
			row = append(row, record.Field(col.Key))
		}
		t.AppendRow(row)
	}
	t.AppendFooter(table.Row{"Total", len(records)})
	t.Render()
}

func singular(res service.Resource) string {
	return strings.TrimSuffix(strings.ToLower(res.Title), "s")
}
