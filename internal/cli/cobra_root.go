package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"timesheet-admin/internal/api"
	"timesheet-admin/internal/config"
	"timesheet-admin/internal/domain"
	"timesheet-admin/internal/logging"
)

// AppFactory wires an App from loaded configuration
type AppFactory func(cfg *config.Config) (*App, error)

// RootCommand represents the base command when called without any subcommands
type RootCommand struct {
	cmd    *cobra.Command
	loader *config.Loader
	newApp AppFactory
	config *config.Config
	app    *App
}

// NewRootCommand creates the root cobra command with global flags
func NewRootCommand(loader *config.Loader, newApp AppFactory) *RootCommand {
	if newApp == nil {
		newApp = NewApp
	}
	root := &RootCommand{
		loader: loader,
		newApp: newApp,
	}

	root.cmd = &cobra.Command{
		Use:   "tsadmin",
		Short: "Timesheet administration and attendance reconciliation",
		Long: `tsadmin runs the timesheet reconciliation engine and its repair passes.

EXAMPLES:
  tsadmin serve                            # Serve the ops API, with the scheduler if enabled
  tsadmin sync run                         # Reconcile against the attendance feed once
  tsadmin sync cleanup-entries             # Remove imported duplicates of local entries
  tsadmin sync merge-timesheets            # Merge timesheets that resolve to the same week
  tsadmin sync logs --type TIMESHEET_SYNC  # List recent runs
  tsadmin timesheets repair-status         # Force entry statuses to match their timesheets
  tsadmin timesheets override 42 LOCKED --actor ops
  tsadmin timesheets create 7 2024-01-08       # Open a timesheet for an employee's week
  tsadmin timesheets approve 42 --approver lead
  tsadmin entries add 42 --date 2024-01-09 --start 09:00 --end 13:00
  tsadmin entries update 118 --hours 3.5
  tsadmin entries delete 118

CONFIGURATION:
  Configuration follows this priority order: command-line flags > environment variables > .env > defaults

    TS_DB_DIR, TS_DB_FILENAME, TS_DB_QUERY_TIMEOUT
    TS_SYNC_MATCH_TOLERANCE, TS_SYNC_CONCURRENCY, TS_SYNC_INTERVAL, TS_SYNC_SCHEDULER_ENABLED
    TS_SYNC_LOCK_BACKEND (memory|redis), TS_REDIS_ADDRESS, TS_SYNC_LOCK_TTL
    TS_EXTERNAL_BASE_URL, TS_EXTERNAL_API_KEY, TS_EXTERNAL_API_KEY_HEADER,
    TS_EXTERNAL_RATE_LIMIT_PER_MIN, TS_EXTERNAL_TIMEOUT
    TS_SERVER_ADDR, TS_LOG_LEVEL, TS_LOG_FORMAT, TS_APP_TIMEOUT, TS_ENV`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return root.loadConfig()
		},
	}

	root.addGlobalFlags()
	root.addSubcommands()

	return root
}

// Execute runs the root command and releases whatever the command opened
func (r *RootCommand) Execute() error {
	return r.ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx as the base context
func (r *RootCommand) ExecuteContext(ctx context.Context) error {
	defer func() {
		if r.app != nil {
			r.app.Close()
			r.app = nil
		}
	}()
	return r.cmd.ExecuteContext(ctx)
}

// addGlobalFlags adds global configuration flags
func (r *RootCommand) addGlobalFlags() {
	flags := r.cmd.PersistentFlags()

	flags.String("db-dir", "", "Database directory (overrides TS_DB_DIR)")
	flags.String("db-filename", "", "Database filename (overrides TS_DB_FILENAME)")
	flags.Duration("db-query-timeout", 0, "Database query timeout (overrides TS_DB_QUERY_TIMEOUT)")

	flags.Int("sync-concurrency", 0, "Workers reconciled in parallel (overrides TS_SYNC_CONCURRENCY)")
	flags.String("lock-backend", "", "Sync run guard, memory or redis (overrides TS_SYNC_LOCK_BACKEND)")
	flags.String("redis-address", "", "Redis address for the run guard (overrides TS_REDIS_ADDRESS)")
	flags.String("external-base-url", "", "Attendance feed base URL (overrides TS_EXTERNAL_BASE_URL)")
	flags.String("server-addr", "", "HTTP listen address (overrides TS_SERVER_ADDR)")

	flags.String("log-level", "", "Log level (overrides TS_LOG_LEVEL)")
	flags.String("log-format", "", "Log format, json or text (overrides TS_LOG_FORMAT)")

	flags.Duration("app-timeout", 0, "Timeout for short commands (overrides TS_APP_TIMEOUT)")
	flags.Bool("verbose", false, "Enable verbose output (overrides TS_APP_VERBOSE)")
}

// addSubcommands adds all CLI subcommands to the root command
func (r *RootCommand) addSubcommands() {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the operational HTTP API",
		Long:  "Serve the operational HTTP API until interrupted. Starts the sync scheduler when TS_SYNC_SCHEDULER_ENABLED is set.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return r.run(ctx, args, func(app *App) Command { return NewServeCommand(app) })
		},
	}

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile against the external attendance feed",
	}

	// A run has no deadline of its own; the feed client's timeout bounds each call.
	syncRunCmd := &cobra.Command{
		Use:   "run",
		Short: "Run one reconciliation pass",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.run(cmd.Context(), args, func(app *App) Command { return NewSyncRunCommand(app) })
		},
	}

	cleanupCmd := &cobra.Command{
		Use:   "cleanup-entries",
		Short: "Remove imported entries that duplicate local entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.run(cmd.Context(), args, func(app *App) Command { return NewCleanupEntriesCommand(app) })
		},
	}

	mergeCmd := &cobra.Command{
		Use:   "merge-timesheets",
		Short: "Merge timesheets that resolve to the same week",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.run(cmd.Context(), args, func(app *App) Command { return NewMergeTimesheetsCommand(app) })
		},
	}

	logsCmd := &cobra.Command{
		Use:   "logs",
		Short: "List sync logs, newest first",
		Long: `List sync logs, newest first.

Examples:
  tsadmin sync logs
  tsadmin sync logs --type DUPLICATE_ENTRY_CLEANUP
  tsadmin sync logs --status ERROR --page 2 --limit 50`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := syncLogFilterFromFlags(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), r.getAppTimeout())
			defer cancel()
			return r.run(ctx, args, func(app *App) Command { return NewSyncLogsCommand(app, filter) })
		},
	}
	logsCmd.Flags().String("type", "", "Filter by log type")
	logsCmd.Flags().String("status", "", "Filter by run status")
	logsCmd.Flags().Int("page", 1, "Page number")
	logsCmd.Flags().Int("limit", domain.DefaultPageSize, "Logs per page")

	syncCmd.AddCommand(syncRunCmd, cleanupCmd, mergeCmd, logsCmd)

	timesheetsCmd := &cobra.Command{
		Use:   "timesheets",
		Short: "Create timesheets and administer their statuses",
	}

	repairCmd := &cobra.Command{
		Use:   "repair-status",
		Short: "Force every entry's status to match its timesheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.run(cmd.Context(), args, func(app *App) Command { return NewRepairStatusCommand(app) })
		},
	}

	overrideCmd := &cobra.Command{
		Use:   "override <timesheet id> <status>",
		Short: "Set a timesheet's status, cascading to its entries",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, _ := cmd.Flags().GetString("actor")
			ctx, cancel := context.WithTimeout(cmd.Context(), r.getAppTimeout())
			defer cancel()
			return r.run(ctx, args, func(app *App) Command { return NewOverrideStatusCommand(app, actor) })
		},
	}
	overrideCmd.Flags().String("actor", "", "Who is performing the override (required)")

	createCmd := &cobra.Command{
		Use:   "create <employee id> <week of>",
		Short: "Create an empty OPEN timesheet for the week containing a date",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), r.getAppTimeout())
			defer cancel()
			return r.run(ctx, args, func(app *App) Command { return NewCreateTimesheetCommand(app) })
		},
	}

	timesheetsCmd.AddCommand(repairCmd, overrideCmd, createCmd)
	for _, t := range []struct {
		action domain.Action
		short  string
	}{
		{domain.ActionSubmit, "Submit a timesheet holding at least one entry"},
		{domain.ActionApprove, "Approve a submitted timesheet"},
		{domain.ActionLock, "Lock a timesheet"},
		{domain.ActionUnlock, "Re-open a locked timesheet as UNLOCKED"},
		{domain.ActionProcess, "Mark an approved or locked timesheet as processed by payroll"},
	} {
		timesheetsCmd.AddCommand(r.transitionCommand(t.action, t.short))
	}

	entriesCmd := &cobra.Command{
		Use:   "entries",
		Short: "Add, change and remove locally authored entries",
	}

	addCmd := &cobra.Command{
		Use:   "add <timesheet id>",
		Short: "Add an entry to a timesheet",
		Long: `Add an entry to a timesheet. Give --start and --end to derive the hours,
or --hours alone for an untimed entry.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := entryRequestFromFlags(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), r.getAppTimeout())
			defer cancel()
			return r.run(ctx, args, func(app *App) Command { return NewAddEntryCommand(app, req) })
		},
	}
	addEntryFlags(addCmd)

	updateCmd := &cobra.Command{
		Use:   "update <entry id>",
		Short: "Change an entry; flags left out keep their stored value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := entryRequestFromFlags(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), r.getAppTimeout())
			defer cancel()
			return r.run(ctx, args, func(app *App) Command { return NewUpdateEntryCommand(app, req) })
		},
	}
	addEntryFlags(updateCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete <entry id>",
		Short: "Delete an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), r.getAppTimeout())
			defer cancel()
			return r.run(ctx, args, func(app *App) Command { return NewDeleteEntryCommand(app) })
		},
	}

	entriesCmd.AddCommand(addCmd, updateCmd, deleteCmd)

	r.cmd.AddCommand(serveCmd, syncCmd, timesheetsCmd, entriesCmd)
}

// transitionCommand builds the subcommand for one lifecycle action
func (r *RootCommand) transitionCommand(action domain.Action, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   string(action) + " <timesheet id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			approver, _ := cmd.Flags().GetString("approver")
			ctx, cancel := context.WithTimeout(cmd.Context(), r.getAppTimeout())
			defer cancel()
			return r.run(ctx, args, func(app *App) Command { return NewTransitionCommand(app, action, approver) })
		},
	}
	if action == domain.ActionApprove {
		cmd.Flags().String("approver", "", "Who is approving the timesheet (required)")
	}
	return cmd
}

func addEntryFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("date", "", "Entry date, YYYY-MM-DD")
	flags.String("start", "", "Start time, HH:MM")
	flags.String("end", "", "End time, HH:MM")
	flags.String("hours", "", "Hours, decimal or H:MM")
	flags.String("type", "", "Entry type: GENERAL, TRAVEL, TRAINING or OVERTIME")
	flags.String("notes", "", "Free-text notes")
	flags.Int64("role-id", 0, "Role the work was done in")
	flags.Int64("company-id", 0, "Company the work was done for")
}

// entryRequestFromFlags reads only the flags that were set, so an update
// leaves everything else alone
func entryRequestFromFlags(cmd *cobra.Command) (api.EntryRequest, error) {
	var req api.EntryRequest
	flags := cmd.Flags()

	req.Date, _ = flags.GetString("date")
	req.StartTime, _ = flags.GetString("start")
	req.EndTime, _ = flags.GetString("end")
	req.Hours, _ = flags.GetString("hours")
	req.EntryType, _ = flags.GetString("type")
	if flags.Changed("notes") {
		v, _ := flags.GetString("notes")
		req.Notes = &v
	}
	for _, f := range []struct {
		name string
		dst  **int64
	}{{"role-id", &req.RoleID}, {"company-id", &req.CompanyID}} {
		if !flags.Changed(f.name) {
			continue
		}
		v, _ := flags.GetInt64(f.name)
		if v < 1 {
			return req, fmt.Errorf("--%s must be a positive integer", f.name)
		}
		*f.dst = &v
	}
	return req, nil
}

// run wires the app on first use and executes the command it builds
func (r *RootCommand) run(ctx context.Context, args []string, build func(*App) Command) error {
	if r.app == nil {
		app, err := r.newApp(r.config)
		if err != nil {
			return NewErrorHandler().Handle("start", err)
		}
		r.app = app
	}
	logging.Debugln("run:", args)
	return build(r.app).Execute(ctx, args)
}

func syncLogFilterFromFlags(cmd *cobra.Command) (domain.SyncLogFilter, error) {
	var filter domain.SyncLogFilter
	flags := cmd.Flags()

	if v, _ := flags.GetString("type"); v != "" {
		t := domain.SyncLogType(v)
		filter.Type = &t
	}
	if v, _ := flags.GetString("status"); v != "" {
		s := domain.SyncRunStatus(v)
		filter.Status = &s
	}
	filter.Page, _ = flags.GetInt("page")
	filter.Limit, _ = flags.GetInt("limit")
	if filter.Page < 1 || filter.Limit < 1 {
		return filter, fmt.Errorf("page and limit must be positive")
	}
	return filter.Normalize(), nil
}

// getAppTimeout returns the configured application timeout
func (r *RootCommand) getAppTimeout() time.Duration {
	if r.config != nil && r.config.Application.Timeout > 0 {
		return r.config.Application.Timeout
	}
	return 60 * time.Second
}

// loadConfig loads configuration with flag overrides applied
func (r *RootCommand) loadConfig() error {
	cfg, err := r.loader.LoadWithOverrides(r.overridesFromFlags())
	if err != nil {
		return err
	}
	r.config = cfg
	logging.Debugf("config: db=%s lock=%s source=%q\n",
		cfg.GetDatabasePath(), cfg.Sync.LockBackend, cfg.External.BaseURL)
	return nil
}

// overridesFromFlags collects the global flags that were set explicitly
func (r *RootCommand) overridesFromFlags() *config.ConfigOverrides {
	flags := r.cmd.PersistentFlags()
	overrides := &config.ConfigOverrides{}

	if flags.Changed("db-dir") {
		v, _ := flags.GetString("db-dir")
		overrides.DBDir = &v
	}
	if flags.Changed("db-filename") {
		v, _ := flags.GetString("db-filename")
		overrides.DBFilename = &v
	}
	if flags.Changed("db-query-timeout") {
		v, _ := flags.GetDuration("db-query-timeout")
		overrides.DBQueryTimeout = &v
	}
	if flags.Changed("sync-concurrency") {
		v, _ := flags.GetInt("sync-concurrency")
		overrides.SyncConcurrency = &v
	}
	if flags.Changed("lock-backend") {
		v, _ := flags.GetString("lock-backend")
		overrides.LockBackend = &v
	}
	if flags.Changed("redis-address") {
		v, _ := flags.GetString("redis-address")
		overrides.RedisAddress = &v
	}
	if flags.Changed("external-base-url") {
		v, _ := flags.GetString("external-base-url")
		overrides.ExternalBaseURL = &v
	}
	if flags.Changed("server-addr") {
		v, _ := flags.GetString("server-addr")
		overrides.ServerAddr = &v
	}
	if flags.Changed("log-level") {
		v, _ := flags.GetString("log-level")
		overrides.LogLevel = &v
	}
	if flags.Changed("log-format") {
		v, _ := flags.GetString("log-format")
		overrides.LogFormat = &v
	}
	if flags.Changed("app-timeout") {
		v, _ := flags.GetDuration("app-timeout")
		overrides.Timeout = &v
	}
	if flags.Changed("verbose") {
		v, _ := flags.GetBool("verbose")
		overrides.Verbose = &v
	}
	return overrides
}
