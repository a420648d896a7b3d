package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/guillermoBallester/strait/internal/core/domain"
	"github.com/guillermoBallester/strait/internal/core/port"
	"github.com/guillermoBallester/strait/internal/core/service"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server metadata
const serverName = "strait"

// Tool descriptions
const (
	descPing = "Check connectivity to the SQL Anywhere server. " +
		"Returns the server name and database name. Call this first to verify the connection works."

	descListOwners = "List the authorized table owners and how many tables each one holds. " +
		"Only owners on the server's allow-list are visible; " +
		"every query must reference tables as owner.Table using one of these owners."

	descListTables = "List tables and views owned by authorized owners, with owner, type, and estimated row count. " +
		"Filter by owner or by a case-insensitive name search (not both). " +
		"Results are capped; has_more tells you when to narrow the filter."

	descDescribeTable = "Describe a table's full structure: columns with types, nullability, defaults, and primary key " +
		"membership; foreign keys with referenced tables; indexes; and check constraints. " +
		"Use this to understand a table before writing queries. " +
		"Foreign keys show JOIN paths; always reference the table as owner.Table in queries."

	descDescribeTableParam = "Table name, either bare (Part) or owner-qualified (monitor.Part)"

	descListProcedures = "List stored procedures and functions owned by authorized owners. " +
		"Filter by owner or by a case-insensitive name search (not both)."

	descDescribeProcedure = "Describe a stored procedure: its parameters with types and modes (IN/OUT/INOUT), " +
		"and its source definition when available. " +
		"Note that procedures cannot be called through this server; only SELECT statements run."

	descDescribeProcedureParam = "Procedure name, either bare or owner-qualified (monitor.GetReadings)"

	descListIndexes = "List indexes on tables owned by authorized owners, optionally restricted to one table. " +
		"Shows uniqueness and whether the index backs the primary key."

	descDescribeIndex = "Describe one index by name: its table, uniqueness, and column list with sort order."

	descDatabaseInfo = "Show database-level metadata: server and database name, product version, charset, " +
		"collation, page size, and counts of authorized tables, views, and procedures."

	descQuery = "Execute a read-only SQL query and return results as JSON rows. " +
		"Only single SELECT statements are accepted, and every table in FROM/JOIN must be " +
		"owner-qualified with an authorized owner (for example monitor.Part). " +
		"A server-side row limit and query timeout are enforced; has_more reports truncation. " +
		"Use specific column names instead of SELECT * on wide tables."

	descQueryParam = "SQL query to execute (a single SELECT statement, tables owner-qualified)"

	descQueryLimit = "Maximum rows to return. Must be positive; values above the server ceiling are clamped down. " +
		"Omit to use the server default."

	descBuildQuery = "Assemble and execute a simple SELECT from parts: table, columns, optional WHERE and ORDER BY, " +
		"and a row limit. Safer than writing raw SQL for simple lookups because every part is " +
		"validated separately. The generated SQL is returned alongside the results."

	descValidateQuery = "Validate a SQL statement without executing it. " +
		"Returns whether the statement would be accepted, the rejection reason if not, " +
		"and the normalized form that would run. Use this to pre-check generated SQL cheaply."
)

func RegisterTools(s *server.MCPServer, explorer *service.ExplorerService, query *service.QueryService) {
	s.AddTool(
		mcp.NewTool("ping",
			mcp.WithDescription(descPing),
		),
		pingHandler(explorer),
	)

	s.AddTool(
		mcp.NewTool("list_owners",
			mcp.WithDescription(descListOwners),
		),
		listOwnersHandler(explorer),
	)

	s.AddTool(
		mcp.NewTool("list_tables",
			mcp.WithDescription(descListTables),
			mcp.WithString("owner",
				mcp.Description("Restrict to one authorized owner"),
			),
			mcp.WithString("search",
				mcp.Description("Case-insensitive substring match on table names"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum tables to return (default: server setting)"),
			),
		),
		listTablesHandler(explorer),
	)

	s.AddTool(
		mcp.NewTool("describe_table",
			mcp.WithDescription(descDescribeTable),
			mcp.WithString("table_name",
				mcp.Required(),
				mcp.Description(descDescribeTableParam),
			),
		),
		describeTableHandler(explorer),
	)

	s.AddTool(
		mcp.NewTool("list_procedures",
			mcp.WithDescription(descListProcedures),
			mcp.WithString("owner",
				mcp.Description("Restrict to one authorized owner"),
			),
			mcp.WithString("search",
				mcp.Description("Case-insensitive substring match on procedure names"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum procedures to return (default: server setting)"),
			),
		),
		listProceduresHandler(explorer),
	)

	s.AddTool(
		mcp.NewTool("describe_procedure",
			mcp.WithDescription(descDescribeProcedure),
			mcp.WithString("procedure_name",
				mcp.Required(),
				mcp.Description(descDescribeProcedureParam),
			),
		),
		describeProcedureHandler(explorer),
	)

	s.AddTool(
		mcp.NewTool("list_indexes",
			mcp.WithDescription(descListIndexes),
			mcp.WithString("table_name",
				mcp.Description("Restrict to indexes on one table"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum indexes to return (default: server setting)"),
			),
		),
		listIndexesHandler(explorer),
	)

	s.AddTool(
		mcp.NewTool("describe_index",
			mcp.WithDescription(descDescribeIndex),
			mcp.WithString("index_name",
				mcp.Required(),
				mcp.Description("Name of the index to describe"),
			),
		),
		describeIndexHandler(explorer),
	)

	s.AddTool(
		mcp.NewTool("database_info",
			mcp.WithDescription(descDatabaseInfo),
		),
		databaseInfoHandler(explorer),
	)

	s.AddTool(
		mcp.NewTool("query",
			mcp.WithDescription(descQuery),
			mcp.WithString("sql",
				mcp.Required(),
				mcp.Description(descQueryParam),
			),
			mcp.WithNumber("limit",
				mcp.Description(descQueryLimit),
			),
		),
		queryHandler(query),
	)

	s.AddTool(
		mcp.NewTool("build_query",
			mcp.WithDescription(descBuildQuery),
			mcp.WithString("table",
				mcp.Required(),
				mcp.Description("Owner-qualified table name (monitor.Part)"),
			),
			mcp.WithString("columns",
				mcp.Description("Comma-separated column names; omit for *"),
			),
			mcp.WithString("where",
				mcp.Description("WHERE predicate, without the WHERE keyword"),
			),
			mcp.WithString("order_by",
				mcp.Description("ORDER BY clause, without the ORDER BY keywords"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum rows to return (default: server setting)"),
			),
		),
		buildQueryHandler(query),
	)

	s.AddTool(
		mcp.NewTool("validate_query",
			mcp.WithDescription(descValidateQuery),
			mcp.WithString("sql",
				mcp.Required(),
				mcp.Description("SQL statement to validate"),
			),
		),
		validateQueryHandler(query),
	)
}

func pingHandler(explorer *service.ExplorerService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		info, err := explorer.Ping(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("ping failed: %v", err)), nil
		}
		return marshalResult(info)
	}
}

func listOwnersHandler(explorer *service.ExplorerService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		owners, err := explorer.ListOwners(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to list owners: %v", err)), nil
		}
		return marshalResult(owners)
	}
}

func listTablesHandler(explorer *service.ExplorerService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		filter, errResult := listFilterFromArgs(request)
		if errResult != nil {
			return errResult, nil
		}

		list, err := explorer.ListTables(ctx, filter)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to list tables: %v", err)), nil
		}
		return marshalResult(list)
	}
}

func describeTableHandler(explorer *service.ExplorerService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tableName, ok := request.GetArguments()["table_name"].(string)
		if !ok || tableName == "" {
			return mcp.NewToolResultError("table_name is required"), nil
		}

		detail, err := explorer.DescribeTable(ctx, tableName)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to describe table: %v", err)), nil
		}
		return marshalResult(detail)
	}
}

func listProceduresHandler(explorer *service.ExplorerService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		filter, errResult := listFilterFromArgs(request)
		if errResult != nil {
			return errResult, nil
		}

		list, err := explorer.ListProcedures(ctx, filter)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to list procedures: %v", err)), nil
		}
		return marshalResult(list)
	}
}

func describeProcedureHandler(explorer *service.ExplorerService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, ok := request.GetArguments()["procedure_name"].(string)
		if !ok || name == "" {
			return mcp.NewToolResultError("procedure_name is required"), nil
		}

		info, err := explorer.DescribeProcedure(ctx, name)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to describe procedure: %v", err)), nil
		}
		return marshalResult(info)
	}
}

func listIndexesHandler(explorer *service.ExplorerService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tableName, _ := request.GetArguments()["table_name"].(string)

		limit, errResult := intArg(request, "limit")
		if errResult != nil {
			return errResult, nil
		}

		list, err := explorer.ListIndexes(ctx, tableName, limit)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to list indexes: %v", err)), nil
		}
		return marshalResult(list)
	}
}

func describeIndexHandler(explorer *service.ExplorerService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, ok := request.GetArguments()["index_name"].(string)
		if !ok || name == "" {
			return mcp.NewToolResultError("index_name is required"), nil
		}

		info, err := explorer.DescribeIndex(ctx, name)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to describe index: %v", err)), nil
		}
		return marshalResult(info)
	}
}

func databaseInfoHandler(explorer *service.ExplorerService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		info, err := explorer.DatabaseInfo(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to read database info: %v", err)), nil
		}
		return marshalResult(info)
	}
}

func queryHandler(query *service.QueryService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sql, ok := request.GetArguments()["sql"].(string)
		if !ok || sql == "" {
			return mcp.NewToolResultError("sql is required"), nil
		}

		req := service.QueryRequest{SQL: sql}
		if raw, present := request.GetArguments()["limit"]; present {
			n, ok := raw.(float64)
			if !ok {
				return mcp.NewToolResultError("limit must be a number"), nil
			}
			limit := int(n)
			req.Limit = &limit
		}

		ctx = service.WithToolName(ctx, "query")
		results, err := query.Execute(ctx, req)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
		}
		return marshalResult(results)
	}
}

// buildQueryResult wraps the query result with the SQL that was generated.
type buildQueryResult struct {
	SQL    string               `json:"sql"`
	Result *service.QueryResult `json:"result"`
}

func buildQueryHandler(query *service.QueryService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		table, ok := args["table"].(string)
		if !ok || table == "" {
			return mcp.NewToolResultError("table is required"), nil
		}

		in := domain.BuilderInput{Table: table}
		in.Columns, _ = args["columns"].(string)
		in.Where, _ = args["where"].(string)
		in.OrderBy, _ = args["order_by"].(string)

		limit, errResult := intArg(request, "limit")
		if errResult != nil {
			return errResult, nil
		}
		in.Limit = limit

		ctx = service.WithToolName(ctx, "build_query")
		results, sql, err := query.BuildAndExecute(ctx, in)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("build_query failed: %v", err)), nil
		}
		return marshalResult(buildQueryResult{SQL: sql, Result: results})
	}
}

func validateQueryHandler(query *service.QueryService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sql, ok := request.GetArguments()["sql"].(string)
		if !ok || sql == "" {
			return mcp.NewToolResultError("sql is required"), nil
		}

		verdict := query.Validate(sql)
		return marshalResult(verdict)
	}
}

// listFilterFromArgs reads the shared owner/search/limit listing arguments.
func listFilterFromArgs(request mcp.CallToolRequest) (port.TableFilter, *mcp.CallToolResult) {
	args := request.GetArguments()

	var filter port.TableFilter
	filter.Owner, _ = args["owner"].(string)
	filter.Search, _ = args["search"].(string)

	limit, errResult := intArg(request, "limit")
	if errResult != nil {
		return filter, errResult
	}
	filter.Limit = limit
	return filter, nil
}

// intArg reads an optional numeric argument. JSON numbers arrive as
// float64; absence yields zero, which the services treat as "use default".
func intArg(request mcp.CallToolRequest, name string) (int, *mcp.CallToolResult) {
	raw, present := request.GetArguments()[name]
	if !present {
		return 0, nil
	}
	n, ok := raw.(float64)
	if !ok {
		return 0, mcp.NewToolResultError(fmt.Sprintf("%s must be a number", name))
	}
	return int(n), nil
}

func marshalResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
