package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"datve-cli/config"
	"datve-cli/logger"
	"datve-cli/service"
	"datve-cli/session"
	"datve-cli/store"
	"datve-cli/tui"
)

var (
	envFile    string
	startRoute string

	version = "dev"
	commit  = "none"
)

// deps is everything a command needs once config is loaded.
type deps struct {
	cfg      config.Config
	log      *slog.Logger
	closeLog func() error
	client   *service.Client
	session  *session.Manager
}

func setup() (*deps, error) {
	cfg, err := config.New(envFile)
	if err != nil {
		return nil, err
	}
	log, closeLog, err := logger.NewFile(cfg.LogFile, logger.ParseLevel(cfg.LogLevel))
	if err != nil {
		return nil, err
	}
	client := service.NewClient(cfg.APIURL,
		service.WithTimeout(cfg.APITimeout),
		service.WithRetry(cfg.RetryMax, 0, 0),
		service.WithLogger(log),
	)
	mgr := session.NewManager(client, store.Sessions{}, nil, log)
	client.SetSession(mgr)
	return &deps{cfg: cfg, log: log, closeLog: closeLog, client: client, session: mgr}, nil
}

// restore loads the saved session for one-shot commands.
func (d *deps) restore(ctx context.Context) {
	d.session.Initialize(ctx)
}

func (d *deps) close() {
	if d.closeLog != nil {
		_ = d.closeLog()
	}
}

var errNotSignedIn = errors.New("not signed in; run `datve login` first")

var rootCmd = &cobra.Command{
	Use:          "datve",
	Short:        "Cinema tickets from the terminal",
	Long:         `Browse movies, pick seats and book tickets, or run the back office of your theater, all from the terminal.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := setup()
		if err != nil {
			return err
		}
		defer d.close()

		app := tui.New(tui.Options{
			Client:  d.client,
			Session: d.session,
			Config:  d.cfg,
			Log:     d.log,
			Start:   startRoute,
		})
		_, err = tea.NewProgram(app, tea.WithAltScreen()).Run()
		return err
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of datve",
	Run: func(cmd *cobra.Command, args []string) {
		out := fmt.Sprintf("%s %s", config.AppName, version)
		if commit != "none" && commit != "" {
			out += fmt.Sprintf(" (%s)", commit)
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "path to a .env file with DATVE_* settings")
	rootCmd.Flags().StringVar(&startRoute, "start", "/", "route to open first, e.g. /my-tickets or /admin")
	rootCmd.AddCommand(versionCmd, loginCmd, logoutCmd, whoamiCmd, ticketsCmd, cancelCmd, resourceCmd)
}

func Execute(v, c string) {
	version, commit = v, c
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
