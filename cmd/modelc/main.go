package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"modelc/internal/api"
	"modelc/internal/config"
	"modelc/internal/descriptor"
	"modelc/internal/dsl"
	"modelc/internal/pg"
)

// коды выхода
const (
	exitOK          = 0
	exitModelErrors = 1 // модель не собралась
	exitUsage       = 2
	exitFailure     = 3 // БД, сервер, вывод
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// newLoader: дескриптор (model.yaml) -> разбор -> разрешение FK.
// Явный -descriptor относится только к каталогу из конфига.
func newLoader(cfg config.Config, log *slog.Logger) api.Loader {
	return func(dir string) (*dsl.Model, error) {
		explicit := ""
		if dir == cfg.ModelDir {
			explicit = cfg.Descriptor
		}
		desc, err := descriptor.LoadFor(dir, explicit)
		if err != nil {
			return nil, err
		}
		opts := dsl.Options{Logger: log, Workers: cfg.ParseWorkers()}
		if desc != nil {
			opts.Name = desc.Name
		}
		m, err := dsl.LoadModel(dir, opts)
		desc.Apply(m)
		return m, err
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	log := cfg.Logger(stderr)

	store := api.NewStore(cfg.ModelDir, newLoader(cfg, log), log)
	b := store.Reload("")
	m := store.Model()

	if err := writeSummary(stdout, cfg.ReportFormat, newSummary(b, m)); err != nil {
		log.Error("write report", "err", err)
		return exitFailure
	}
	if !b.OK {
		return exitModelErrors
	}
	for _, it := range api.SchemaLint(m) {
		log.Warn("schema lint", "entity", it.Entity, "field", it.Field, "code", it.Code, "severity", it.Severity, "message", it.Message)
	}

	if cfg.PrintDDL || cfg.ApplyDDL {
		ddl, err := pg.GenerateDDL(m, cfg.DBSchema)
		if err != nil {
			log.Error("generate DDL", "err", err)
			return exitFailure
		}
		if cfg.PrintDDL {
			fmt.Fprint(stdout, pg.Script(ddl))
		}
		if cfg.ApplyDDL {
			if err := applyDDL(ctx, cfg.DBURL, ddl, log); err != nil {
				log.Error("apply DDL", "err", err)
				return exitFailure
			}
		}
	}

	if cfg.Serve {
		if err := api.RunServer(ctx, ":"+cfg.Port, store, log); err != nil {
			log.Error("server", "err", err)
			return exitFailure
		}
	}
	return exitOK
}

func applyDDL(ctx context.Context, url string, ddl map[string]string, log *slog.Logger) error {
	db, err := pg.Open(ctx, url)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer db.Close()
	return pg.ApplyDDL(ctx, db, ddl, log)
}
