package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/marco/movieCatalog/internal/catalog"
	"github.com/marco/movieCatalog/internal/cli"
	"github.com/marco/movieCatalog/internal/config"
	"github.com/marco/movieCatalog/internal/logging"
	"github.com/marco/movieCatalog/internal/storage"
)

// errReported marks failures that were already shown to the user.
var errReported = errors.New("already reported")

const watchDebounce = 250 * time.Millisecond

func newRootCommand() *cobra.Command {
	return &cobra.Command{
		Use:           "moviecatalog",
		Short:         "Manage a movie catalog from an interactive menu",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), config.Path(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

// run loads the catalog, then hands control to the menu loop until the user
// exits. Pending saves are drained before it returns.
func run(ctx context.Context, configPath string, stdin io.Reader, stdout io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logCloser, err := logging.Setup(cfg.Log.SlogLevel(), cfg.Log.File)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	out := cli.NewOutput(stdout)

	gateway, closeGateway, err := openGateway(cfg)
	if err != nil {
		out.Printf("Error reading catalog: %v\n", err)
		return errors.Join(errReported, err)
	}
	defer closeGateway()

	movies, err := gateway.Load(ctx)
	if err != nil {
		slog.Error("failed to load catalog", "path", cfg.Storage.Path, "error", err)
		out.Printf("Error reading catalog: %v\n", err)
		return errors.Join(errReported, err)
	}
	slog.Info("catalog loaded",
		"driver", cfg.Storage.Driver,
		"path", cfg.Storage.Path,
		"movies", len(movies),
	)

	saver := storage.NewSaver(gateway, storage.SaverOptions{
		Attempts: cfg.Save.Attempts,
		Backoff:  cfg.Save.Backoff(),
	}, cli.SaveReporter(out))
	defer saver.Close()

	if fileGateway, ok := gateway.(*storage.FileGateway); ok && cfg.Storage.Watch {
		watcher, err := storage.NewWatcher(fileGateway, watchDebounce, func(path string) {
			out.Printf("Warning: %s was changed outside this session; it will be overwritten on the next save.\n", path)
		})
		if err != nil {
			return err
		}
		if err := watcher.Start(); err != nil {
			return err
		}
		defer watcher.Stop()
	}

	driver := cli.New(catalog.New(movies), saver, stdin, out)
	if err := driver.Run(ctx); err != nil {
		return err
	}

	saver.Close()
	return nil
}

func openGateway(cfg *config.Config) (storage.Gateway, func() error, error) {
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		g, err := storage.NewSQLiteGateway(cfg.Storage.Path)
		if err != nil {
			return nil, nil, err
		}
		return g, g.Close, nil
	default:
		g := storage.NewFileGateway(cfg.Storage.Path, cfg.Storage.AllowMissing)
		return g, func() error { return nil }, nil
	}
}
