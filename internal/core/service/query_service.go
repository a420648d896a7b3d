package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/guillermoBallester/strait/internal/core/domain"
	"github.com/guillermoBallester/strait/internal/core/port"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type toolNameKey struct{}

// WithToolName returns a context carrying the MCP tool name for audit logging.
func WithToolName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, toolNameKey{}, name)
}

func toolNameFromCtx(ctx context.Context) string {
	if v, ok := ctx.Value(toolNameKey{}).(string); ok {
		return v
	}
	return ""
}

// QueryRequest is one guarded query: the statement plus an optional
// caller-supplied row limit. A nil Limit means "use the server default";
// an explicit zero or negative limit is invalid input.
type QueryRequest struct {
	SQL   string
	Limit *int
}

// QueryResult is what the query tools return to the client.
type QueryResult struct {
	Rows         []map[string]any `json:"rows"`
	RowCount     int              `json:"row_count"`
	Columns      []string         `json:"columns"`
	AppliedLimit int              `json:"applied_limit"`
	HasMore      bool             `json:"has_more"`
	DurationMS   int64            `json:"duration_ms"`
}

// QueryService orchestrates the guard (domain) and the executor
// (infrastructure): validate, clamp the row limit, execute, audit, mask.
type QueryService struct {
	guard        port.StatementValidator
	executor     port.QueryExecutor
	auditor      port.QueryAuditor
	logger       *slog.Logger
	masks        map[string]domain.MaskType // column name -> mask (nil = no masking)
	defaultRows  int
	maxRowsLimit int
	tracer       trace.Tracer
	inst         port.Instrumentation
}

func NewQueryService(guard port.StatementValidator, executor port.QueryExecutor, auditor port.QueryAuditor, logger *slog.Logger, masks map[string]domain.MaskType, defaultRows, maxRowsLimit int, tracer trace.Tracer, inst port.Instrumentation) *QueryService {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("noop")
	}
	if inst == nil {
		inst = port.NoopInstrumentation{}
	}
	return &QueryService{
		guard:        guard,
		executor:     executor,
		auditor:      auditor,
		logger:       logger,
		masks:        masks,
		defaultRows:  defaultRows,
		maxRowsLimit: maxRowsLimit,
		tracer:       tracer,
		inst:         inst,
	}
}

// Validate runs the guard without touching the database.
func (s *QueryService) Validate(sql string) domain.ValidationResult {
	return s.guard.Validate(sql)
}

// Execute validates the statement and, if allowed, runs it with the
// clamped row limit. The statement never reaches the executor unless the
// guard said yes.
func (s *QueryService) Execute(ctx context.Context, req QueryRequest) (*QueryResult, error) {
	ctx, span := s.tracer.Start(ctx, "QueryService.Execute",
		trace.WithAttributes(
			attribute.String("db.system", "sqlanywhere"),
			attribute.String("db.operation.name", "query"),
			attribute.String("db.statement", req.SQL),
		),
	)
	defer span.End()

	verdict := s.guard.Validate(req.SQL)
	if !verdict.Allowed {
		s.logger.WarnContext(ctx, "query rejected",
			slog.String("db.statement", req.SQL),
			slog.String("reason", verdict.Reason),
		)
		err := fmt.Errorf("%w: %s", domain.ErrStatementRejected, verdict.Reason)
		span.RecordError(err)
		span.SetStatus(codes.Error, verdict.Reason)
		s.inst.IncrementQueryRejections(ctx)
		return nil, err
	}

	limit := s.defaultRows
	if req.Limit != nil {
		var err error
		limit, err = domain.ClampRowLimit(*req.Limit, s.maxRowsLimit)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			s.inst.IncrementQueryRejections(ctx)
			return nil, fmt.Errorf("limit %d: %w", *req.Limit, err)
		}
	}

	start := time.Now()
	res, err := s.executor.Execute(ctx, verdict.NormalizedStatement, limit)
	durationMS := time.Since(start).Milliseconds()

	s.inst.RecordQueryDuration(ctx, float64(durationMS))

	rowCount := 0
	if res != nil {
		rowCount = len(res.Rows)
	}
	s.auditor.Record(ctx, port.AuditEntry{
		Tool:         toolNameFromCtx(ctx),
		SQL:          verdict.NormalizedStatement,
		RowsReturned: rowCount,
		AppliedLimit: limit,
		DurationMS:   durationMS,
		Err:          err,
	})

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.inst.IncrementQueryErrors(ctx)
		return nil, fmt.Errorf("executing query: %w", err)
	}

	s.inst.IncrementQueryCount(ctx)
	span.SetAttributes(attribute.Int("db.response.rows", rowCount))
	domain.MaskRows(res.Rows, s.masks)

	return &QueryResult{
		Rows:         res.Rows,
		RowCount:     rowCount,
		Columns:      res.Columns,
		AppliedLimit: limit,
		HasMore:      res.HasMore,
		DurationMS:   durationMS,
	}, nil
}

// BuildAndExecute assembles a query from validated parts and runs it
// through the same guarded path as Execute.
func (s *QueryService) BuildAndExecute(ctx context.Context, in domain.BuilderInput) (*QueryResult, string, error) {
	limit := s.defaultRows
	if in.Limit != 0 {
		var err error
		limit, err = domain.ClampRowLimit(in.Limit, s.maxRowsLimit)
		if err != nil {
			return nil, "", fmt.Errorf("limit %d: %w", in.Limit, err)
		}
	}
	in.Limit = limit

	sql, err := domain.BuildQuery(in)
	if err != nil {
		return nil, "", err
	}

	// The TOP clause already bounds the result; the executor limit is the
	// same value so has_more stays accurate.
	res, err := s.Execute(ctx, QueryRequest{SQL: sql, Limit: &limit})
	return res, sql, err
}
