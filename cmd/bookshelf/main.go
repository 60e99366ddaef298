// Command bookshelf manages the local bookshelf from a terminal.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"bookshelf/internal/books"
	"bookshelf/internal/controller"
	"bookshelf/internal/kv"
	"bookshelf/internal/storage"
	"bookshelf/pkg/database"
	"bookshelf/pkg/logging"
)

// app holds the flags and the shelf opened for one command.
type app struct {
	dbPath  string
	driver  string
	verbose bool

	in     io.Reader
	out    io.Writer
	errOut io.Writer

	logger  *zap.Logger
	db      *sql.DB
	adapter *storage.Adapter
	store   *books.Store
	ctl     *controller.Controller
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	return &app{in: in, out: out, errOut: errOut, logger: zap.NewNop()}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "bookshelf",
		Short:         "Track the books you are reading and have finished",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := "warn"
			if a.verbose {
				level = "debug"
			}
			logger, err := logging.New(level, true)
			if err != nil {
				return err
			}
			a.logger = logger
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			_ = a.logger.Sync()
			return a.close()
		},
	}
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "database path (default: $BOOKSHELF_DB_PATH or ~/.bookshelf/data.db)")
	root.PersistentFlags().StringVar(&a.driver, "driver", "", "sqlite driver: sqlite3 (cgo) or sqlite (pure Go)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging")

	root.AddCommand(
		newAddCmd(a),
		newEditCmd(a),
		newDeleteCmd(a),
		newToggleCmd(a),
		newListCmd(a),
		newFilterCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newWatchCmd(a),
	)
	return root
}

// open loads the shelf from the configured database.
func (a *app) open(ctx context.Context) error {
	if a.store != nil {
		return nil
	}

	cfg := database.DefaultConfig()
	if a.dbPath != "" {
		cfg.Path = a.dbPath
	}
	if a.driver != "" {
		cfg.Driver = a.driver
	}

	db, err := database.Open(cfg)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		_ = db.Close()
		return fmt.Errorf("db migrate failed: %w", err)
	}
	a.logger.Debug("database opened", zap.String("path", cfg.Path), zap.String("driver", cfg.Driver))

	a.db = db
	a.adapter = storage.NewAdapter(kv.NewSQLStore(db), a.logger)
	a.store = books.NewStore(ctx, a.adapter, books.WithLogger(a.logger))
	a.ctl = controller.New(ctx, a.store, a.adapter, a.logger)
	return nil
}

func (a *app) close() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db, a.store, a.ctl, a.adapter = nil, nil, nil, nil
	return err
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := newApp(os.Stdin, os.Stdout, os.Stderr)
	if err := newRootCmd(a).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		_ = a.close()
		os.Exit(1)
	}
}
