package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// DefaultPath: конфиг рядом с бинарником, если не указан -config
const DefaultPath = "modelc.json"

type Config struct {
	ModelDir     string `json:"modelDir"`
	Descriptor   string `json:"descriptor"`   // пусто — <modelDir>/model.yaml, если есть
	ReportFormat string `json:"reportFormat"` // "yaml" (default) | "json"

	LogLevel  string `json:"logLevel"`  // debug|info|warn|error
	LogFormat string `json:"logFormat"` // text|json

	Parallel bool `json:"parallel"`
	Workers  int  `json:"workers"`

	// Postgres
	DBURL    string `json:"dbUrl"`
	DBSchema string `json:"dbSchema"`
	ApplyDDL bool   `json:"applyDdl"`
	PrintDDL bool   `json:"printDdl"`

	// HTTP
	Port  string `json:"port"`
	Serve bool   `json:"serve"`
}

func def() Config {
	return Config{
		ModelDir:     "model",
		Descriptor:   "",
		ReportFormat: "yaml",

		LogLevel:  "info",
		LogFormat: "text",

		Parallel: false,
		Workers:  4,

		DBURL:    "",
		DBSchema: "public",
		ApplyDDL: false,
		PrintDDL: false,

		Port:  "8080",
		Serve: false,
	}
}

// Default возвращает значения по умолчанию (без файла, ENV и флагов)
func Default() Config { return def() }

func loadJSON(path string, base Config) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return base, err
	}
	c := base
	if err := json.Unmarshal(b, &c); err != nil {
		return base, fmt.Errorf("parse %s: %w", path, err)
	}
	return c, nil
}

func getenv(k, fallback string) string {
	if v, ok := os.LookupEnv(k); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}

func getenvBool(k string, fallback bool) bool {
	if v, ok := os.LookupEnv(k); ok {
		if b, ok := parseBool(v); ok {
			return b
		}
	}
	return fallback
}

func getenvInt(k string, fallback int) int {
	if v, ok := os.LookupEnv(k); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return fallback
}

func parseBool(v string) (bool, bool) {
	switch strings.TrimSpace(strings.ToLower(v)) {
	case "1", "true", "yes":
		return true, true
	case "0", "false", "no":
		return false, true
	}
	return false, false
}

// Load: defaults -> JSON -> ENV (MODELC_*) -> флаги из args.
// Путь к JSON берётся из -config (по умолчанию DefaultPath); отсутствующий файл не ошибка.
func Load(args []string, stderr io.Writer) (Config, error) {
	jsonPath := DefaultPath
	for i, a := range args {
		switch {
		case a == "-config" || a == "--config":
			if i+1 < len(args) {
				jsonPath = args[i+1]
			}
		case strings.HasPrefix(a, "-config="), strings.HasPrefix(a, "--config="):
			jsonPath = a[strings.Index(a, "=")+1:]
		}
	}

	cfg := def()

	// JSON (если файл существует)
	if st, err := os.Stat(jsonPath); err == nil && !st.IsDir() {
		c2, err := loadJSON(jsonPath, cfg)
		if err != nil {
			return cfg, err
		}
		cfg = c2
	}

	// ENV overrides
	cfg.ModelDir = getenv("MODELC_MODEL_DIR", cfg.ModelDir)
	cfg.Descriptor = getenv("MODELC_DESCRIPTOR", cfg.Descriptor)
	cfg.ReportFormat = getenv("MODELC_REPORT_FORMAT", cfg.ReportFormat)
	cfg.LogLevel = getenv("MODELC_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getenv("MODELC_LOG_FORMAT", cfg.LogFormat)
	cfg.Parallel = getenvBool("MODELC_PARALLEL", cfg.Parallel)
	cfg.Workers = getenvInt("MODELC_WORKERS", cfg.Workers)
	cfg.DBURL = getenv("MODELC_DB_URL", cfg.DBURL)
	cfg.DBSchema = getenv("MODELC_DB_SCHEMA", cfg.DBSchema)
	cfg.ApplyDDL = getenvBool("MODELC_APPLY_DDL", cfg.ApplyDDL)
	cfg.PrintDDL = getenvBool("MODELC_PRINT_DDL", cfg.PrintDDL)
	cfg.Port = getenv("MODELC_PORT", cfg.Port)
	cfg.Serve = getenvBool("MODELC_SERVE", cfg.Serve)

	// Flags overrides
	fs := flag.NewFlagSet("modelc", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.String("config", jsonPath, "Path to config JSON")
	fs.StringVar(&cfg.ModelDir, "dir", cfg.ModelDir, "Directory with *.entity files")
	fs.StringVar(&cfg.Descriptor, "descriptor", cfg.Descriptor, "Model descriptor (default <dir>/model.yaml)")
	fs.StringVar(&cfg.ReportFormat, "format", cfg.ReportFormat, "Report format (yaml/json)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug/info/warn/error)")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (text/json)")
	fs.BoolVar(&cfg.Parallel, "parallel", cfg.Parallel, "Parse entity files in parallel")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "Parallel parse limit")
	fs.StringVar(&cfg.DBURL, "db", cfg.DBURL, "Postgres URL")
	fs.StringVar(&cfg.DBSchema, "db-schema", cfg.DBSchema, "Postgres schema for generated tables")
	fs.BoolVar(&cfg.ApplyDDL, "apply-ddl", cfg.ApplyDDL, "Apply generated DDL to -db")
	fs.BoolVar(&cfg.PrintDDL, "print-ddl", cfg.PrintDDL, "Print generated DDL")
	fs.StringVar(&cfg.Port, "port", cfg.Port, "HTTP port")
	fs.BoolVar(&cfg.Serve, "serve", cfg.Serve, "Serve the inspection API after loading")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if fs.NArg() > 0 {
		// позиционный аргумент — каталог модели
		cfg.ModelDir = fs.Arg(0)
	}

	cfg.ModelDir = strings.TrimSpace(cfg.ModelDir)
	cfg.Descriptor = strings.TrimSpace(cfg.Descriptor)
	cfg.ReportFormat = strings.ToLower(strings.TrimSpace(cfg.ReportFormat))
	cfg.DBURL = strings.TrimSpace(cfg.DBURL)
	cfg.Port = strings.TrimSpace(cfg.Port)

	return cfg, cfg.Validate()
}

var (
	ErrModelDirRequired = errors.New("model directory required")
	ErrReportFormat     = errors.New("report format must be yaml or json")
	ErrDBURLRequired    = errors.New("-apply-ddl requires -db")
)

func (c Config) Validate() error {
	if c.ModelDir == "" {
		return ErrModelDirRequired
	}
	if c.ReportFormat != "yaml" && c.ReportFormat != "json" {
		return fmt.Errorf("%w: %q", ErrReportFormat, c.ReportFormat)
	}
	if c.ApplyDDL && c.DBURL == "" {
		return ErrDBURLRequired
	}
	return nil
}

// ParseWorkers: 0 — последовательный разбор
func (c Config) ParseWorkers() int {
	if !c.Parallel {
		return 0
	}
	if c.Workers < 2 {
		return 2
	}
	return c.Workers
}
