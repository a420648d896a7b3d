package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/guillermoBallester/strait/internal/adapter/mcp"
	"github.com/guillermoBallester/strait/internal/adapter/policy"
	"github.com/guillermoBallester/strait/internal/adapter/sqlany"
	"github.com/guillermoBallester/strait/internal/audit"
	"github.com/guillermoBallester/strait/internal/config"
	"github.com/guillermoBallester/strait/internal/core/domain"
	"github.com/guillermoBallester/strait/internal/core/port"
	"github.com/guillermoBallester/strait/internal/core/service"
	"github.com/guillermoBallester/strait/internal/telemetry"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var version = "dev"

func main() {
	overrides, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	if err := run(overrides); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// parseFlags builds config overrides from CLI arguments. Only flags the
// user actually passed become overrides; everything else stays nil so the
// environment keeps precedence.
func parseFlags(args []string) (config.Overrides, error) {
	fs := flag.NewFlagSet("strait", flag.ContinueOnError)

	dsn := fs.String("dsn", "", "ODBC connection string (overrides SQLANY_DSN)")
	owners := fs.String("owners", "", "comma-separated authorized owners (overrides AUTHORIZED_OWNERS)")
	logLevel := fs.String("log-level", "", "log level: debug, info, warn, error")
	maxRows := fs.Int("max-rows", 0, "default row limit for queries")
	maxRowsLimit := fs.Int("max-rows-limit", 0, "hard ceiling for caller-requested row limits")
	queryTimeout := fs.Duration("query-timeout", 0, "per-query timeout")
	policyFile := fs.String("policy-file", "", "path to policy YAML")
	transport := fs.String("transport", "", `transport: "stdio" or "http"`)
	httpAddr := fs.String("http-addr", "", "listen address for HTTP transport")
	httpToken := fs.String("http-bearer-token", "", "bearer token for HTTP transport")
	otelEnabled := fs.Bool("otel", false, "enable OpenTelemetry tracing and metrics")
	auditLog := fs.String("audit-log", "", "path to NDJSON audit log file")

	if err := fs.Parse(args); err != nil {
		return config.Overrides{}, err
	}

	var o config.Overrides
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "dsn":
			o.DSN = dsn
		case "owners":
			o.AuthorizedOwners = owners
		case "log-level":
			o.LogLevel = logLevel
		case "max-rows":
			o.MaxRows = maxRows
		case "max-rows-limit":
			o.MaxRowsLimit = maxRowsLimit
		case "query-timeout":
			o.QueryTimeout = queryTimeout
		case "policy-file":
			o.PolicyFile = policyFile
		case "transport":
			o.Transport = transport
		case "http-addr":
			o.HTTPAddr = httpAddr
		case "http-bearer-token":
			o.HTTPBearerToken = httpToken
		}
	})
	o.OTelEnabled = *otelEnabled
	o.AuditLog = *auditLog

	return o, nil
}

func run(overrides config.Overrides) error {
	cfg, err := config.Load(overrides)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Logs go to stderr — stdout is reserved for the MCP stdio transport.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	logger.Info("starting strait",
		slog.String("version", version),
		slog.String("log_level", cfg.LogLevel.String()),
		slog.String("owners", strings.Join(cfg.AuthorizedOwners, ",")),
		slog.Int("max_rows", cfg.MaxRows),
		slog.Int("max_rows_limit", cfg.MaxRowsLimit),
		slog.String("query_timeout", cfg.QueryTimeout.String()),
		slog.String("conn", redactConnString(cfg.ConnString())),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Observability (optional).
	var tracer trace.Tracer
	var inst port.Instrumentation
	if cfg.OTelEnabled {
		provider, err := telemetry.Init(ctx, "strait", version)
		if err != nil {
			return fmt.Errorf("initializing telemetry: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := provider.Shutdown(shutdownCtx); err != nil {
				logger.Error("telemetry shutdown", slog.String("error", err.Error()))
			}
		}()
		tracer = otel.Tracer("strait")
		inst = telemetry.NewInstruments()
		logger.Info("telemetry enabled")
	} else {
		tracer = telemetry.NoopTracer()
		inst = telemetry.NoopInstruments()
	}

	db, err := sqlany.Connect(ctx, cfg.ConnString(), sqlany.PoolConfig{
		MaxOpenConns:    cfg.PoolMaxOpenConns,
		MaxIdleConns:    cfg.PoolMaxIdleConns,
		ConnMaxLifetime: cfg.PoolConnMaxLifetime,
	})
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	logger.Info("database connected", slog.String("db.system", "sqlanywhere"))

	// Domain
	allowList, err := domain.NewOwnerAllowList(cfg.AuthorizedOwners)
	if err != nil {
		return fmt.Errorf("building owner allow-list: %w", err)
	}
	guard := domain.NewQueryGuard(allowList)

	// Adapters
	var explorer port.CatalogExplorer = sqlany.NewExplorer(db, allowList)
	executor := sqlany.NewExecutor(db, cfg.QueryTimeout)

	// Policy decorator (optional).
	var masks map[string]domain.MaskType
	if cfg.PolicyFile != "" {
		pol, err := policy.LoadFromFile(cfg.PolicyFile)
		if err != nil {
			return fmt.Errorf("loading policy: %w", err)
		}
		explorer = policy.NewExplorer(explorer, pol)
		masks = policy.MaskSpec(pol.Context)
		logger.Info("policy loaded", slog.String("file", cfg.PolicyFile))
	}

	// Audit log (optional).
	var auditor port.QueryAuditor = audit.NoopAuditor{}
	if cfg.AuditLog != "" {
		fa, err := audit.NewFileAuditor(cfg.AuditLog)
		if err != nil {
			return fmt.Errorf("opening audit log: %w", err)
		}
		defer func() {
			if err := fa.Close(); err != nil {
				logger.Error("closing audit log", slog.String("error", err.Error()))
			}
		}()
		auditor = fa
		logger.Info("audit log enabled", slog.String("file", cfg.AuditLog))
	}

	// Services
	explorerSvc := service.NewExplorerService(explorer, allowList, cfg.MaxRows, cfg.MaxRowsLimit)
	querySvc := service.NewQueryService(guard, executor, auditor, logger, masks, cfg.MaxRows, cfg.MaxRowsLimit, tracer, inst)

	// MCP server with tool handlers.
	mcpServer := mcp.NewServer(version, explorerSvc, querySvc, logger, tracer, inst)

	if cfg.Transport == "http" {
		return serveHTTP(ctx, mcpServer, cfg, logger)
	}
	return serveStdio(ctx, mcpServer, logger)
}

func serveStdio(ctx context.Context, mcpServer *mcpserver.MCPServer, logger *slog.Logger) error {
	stdioServer := mcpserver.NewStdioServer(mcpServer)

	logger.Info("serving MCP over stdio")
	if err := stdioServer.Listen(ctx, os.Stdin, os.Stdout); err != nil {
		return fmt.Errorf("stdio server: %w", err)
	}

	logger.Info("shutdown complete")
	return nil
}

func serveHTTP(ctx context.Context, mcpServer *mcpserver.MCPServer, cfg *config.Config, logger *slog.Logger) error {
	streamable := mcpserver.NewStreamableHTTPServer(mcpServer)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.Handle("/mcp", bearerAuthMiddleware(streamable, cfg.HTTPBearerToken))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           recoveryMiddleware(mux, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving MCP over HTTP", slog.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// redactConnString hides the PWD value in an ODBC connection string so it
// can be logged safely.
func redactConnString(conn string) string {
	parts := strings.Split(conn, ";")
	for i, p := range parts {
		if key, _, ok := strings.Cut(p, "="); ok && strings.EqualFold(strings.TrimSpace(key), "PWD") {
			parts[i] = key + "=***"
		}
	}
	return strings.Join(parts, ";")
}
