package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGuard(t *testing.T, owners ...string) *QueryGuard {
	t.Helper()
	if len(owners) == 0 {
		owners = []string{"monitor"}
	}
	list, err := NewOwnerAllowList(owners)
	require.NoError(t, err)
	return NewQueryGuard(list)
}

func TestValidate_AllowsQualifiedSelect(t *testing.T) {
	g := newGuard(t)

	res := g.Validate("SELECT Id FROM monitor.Part")
	assert.True(t, res.Allowed)
	assert.Empty(t, res.Reason)
	assert.Equal(t, "SELECT Id FROM monitor.Part", res.NormalizedStatement)
}

func TestValidate_NormalizesLeadingKeyword(t *testing.T) {
	g := newGuard(t)

	res := g.Validate("select Id from monitor.Part")
	require.True(t, res.Allowed, res.Reason)
	assert.Equal(t, "SELECT Id from monitor.Part", res.NormalizedStatement)
}

func TestValidate_StripsTrailingSemicolon(t *testing.T) {
	g := newGuard(t)

	res := g.Validate("SELECT Id FROM monitor.Part;")
	require.True(t, res.Allowed, res.Reason)
	assert.Equal(t, "SELECT Id FROM monitor.Part", res.NormalizedStatement)
}

func TestValidate_StripsLeadingComment(t *testing.T) {
	g := newGuard(t)

	res := g.Validate("-- fetch parts\nSELECT Id FROM monitor.Part")
	require.True(t, res.Allowed, res.Reason)
	assert.Equal(t, "SELECT Id FROM monitor.Part", res.NormalizedStatement)
}

func TestValidate_RejectsEmpty(t *testing.T) {
	g := newGuard(t)

	for _, sql := range []string{"", "   ", "\n\t", "-- just a comment"} {
		res := g.Validate(sql)
		assert.False(t, res.Allowed, "input %q", sql)
		assert.Contains(t, res.Reason, "empty")
	}
}

func TestValidate_RejectsNonSelect(t *testing.T) {
	g := newGuard(t)

	tests := []struct {
		sql    string
		reason string
	}{
		{"DROP TABLE monitor.Part", "only SELECT"},
		{"INSERT INTO monitor.Part VALUES (1)", "only SELECT"},
		{"UPDATE monitor.Part SET State = 2", "only SELECT"},
		{"DELETE FROM monitor.Part", "only SELECT"},
		{"CALL monitor.GetReadings(1)", "only SELECT"},
		{"WITH x AS (SELECT 1) SELECT * FROM x", "only SELECT"},
	}
	for _, tt := range tests {
		res := g.Validate(tt.sql)
		assert.False(t, res.Allowed, "input %q", tt.sql)
		assert.Contains(t, res.Reason, tt.reason, "input %q", tt.sql)
	}
}

func TestValidate_RejectsForbiddenKeywordInBody(t *testing.T) {
	g := newGuard(t)

	tests := []struct {
		sql     string
		keyword string
	}{
		{"SELECT Id INTO #tmp FROM monitor.Part", "INTO"},
		{"SELECT Id FROM monitor.Part; DROP TABLE monitor.Part", "multiple statements"},
		{"SELECT (DELETE FROM monitor.Part) FROM monitor.Part", "DELETE"},
		{"SELECT Id FROM monitor.Part WHERE EXEC('x') = 1", "EXEC"},
		{"SELECT * FROM monitor.Part UNION SELECT * FROM monitor.Reading WHERE TRUNCATE(1,0) > 0", "TRUNCATE"},
	}
	for _, tt := range tests {
		res := g.Validate(tt.sql)
		assert.False(t, res.Allowed, "input %q", tt.sql)
		assert.Contains(t, res.Reason, tt.keyword, "input %q", tt.sql)
	}
}

func TestValidate_KeywordInsideLiteralsIsFine(t *testing.T) {
	g := newGuard(t)

	tests := []string{
		`SELECT Id FROM monitor.Part WHERE Note = 'please do not DROP this'`,
		`SELECT "Delete" FROM monitor.Part`,
		`SELECT [Update] FROM monitor.Part`,
		`SELECT UpdatedAt FROM monitor.Part`,
		`SELECT Id FROM monitor.DeleteLog`,
	}
	for _, sql := range tests {
		res := g.Validate(sql)
		assert.True(t, res.Allowed, "input %q rejected: %s", sql, res.Reason)
	}
}

func TestValidate_RejectsMultipleStatements(t *testing.T) {
	g := newGuard(t)

	res := g.Validate("SELECT * FROM monitor.Part; DROP TABLE monitor.Part")
	assert.False(t, res.Allowed)
	assert.Contains(t, res.Reason, "multiple statements")

	res = g.Validate("SELECT 1 FROM monitor.Part;;")
	assert.False(t, res.Allowed)
	assert.Contains(t, res.Reason, "multiple statements")
}

func TestValidate_RejectsInlineComments(t *testing.T) {
	g := newGuard(t)

	tests := []string{
		"SELECT Id FROM monitor.Part -- trailing",
		"SELECT Id /* hidden */ FROM monitor.Part",
		"SELECT Id FROM monitor.Part // c++ style",
		"SEL/**/ECT Id FROM monitor.Part",
	}
	for _, sql := range tests {
		res := g.Validate(sql)
		assert.False(t, res.Allowed, "input %q", sql)
	}
}

func TestValidate_RejectsUnterminatedRegions(t *testing.T) {
	g := newGuard(t)

	tests := []string{
		"SELECT Id FROM monitor.Part WHERE Note = 'open",
		`SELECT "open FROM monitor.Part`,
		"SELECT [open FROM monitor.Part",
		"SELECT Id FROM monitor.Part /* open",
	}
	for _, sql := range tests {
		res := g.Validate(sql)
		assert.False(t, res.Allowed, "input %q", sql)
		assert.Contains(t, res.Reason, "cannot be parsed safely", "input %q", sql)
	}
}

func TestValidate_RejectsUnqualifiedTable(t *testing.T) {
	g := newGuard(t)

	res := g.Validate("SELECT Id FROM Part")
	assert.False(t, res.Allowed)
	assert.Contains(t, res.Reason, "not qualified with an owner")
	assert.Contains(t, res.Reason, "monitor")
}

func TestValidate_RejectsUnauthorizedOwner(t *testing.T) {
	g := newGuard(t)

	res := g.Validate("SELECT Id FROM dba.Users")
	assert.False(t, res.Allowed)
	assert.Contains(t, res.Reason, `"dba" is not authorized`)
	assert.Contains(t, res.Reason, "monitor")
}

func TestValidate_OwnerCheckIsCaseInsensitive(t *testing.T) {
	g := newGuard(t)

	res := g.Validate("SELECT Id FROM MONITOR.Part")
	assert.True(t, res.Allowed, res.Reason)
}

func TestValidate_ChecksEveryJoin(t *testing.T) {
	g := newGuard(t)

	res := g.Validate("SELECT p.Id FROM monitor.Part p JOIN monitor.Reading r ON r.PartId = p.Id")
	assert.True(t, res.Allowed, res.Reason)

	res = g.Validate("SELECT p.Id FROM monitor.Part p JOIN dba.Secrets s ON s.PartId = p.Id")
	assert.False(t, res.Allowed)
	assert.Contains(t, res.Reason, `"dba"`)

	res = g.Validate("SELECT p.Id FROM monitor.Part p LEFT OUTER JOIN Reading r ON r.PartId = p.Id")
	assert.False(t, res.Allowed)
	assert.Contains(t, res.Reason, "not qualified")
}

func TestValidate_CommaSeparatedFromList(t *testing.T) {
	g := newGuard(t)

	res := g.Validate("SELECT * FROM monitor.Part p, monitor.Reading r WHERE r.PartId = p.Id")
	assert.True(t, res.Allowed, res.Reason)

	res = g.Validate("SELECT * FROM monitor.Part p, Reading r")
	assert.False(t, res.Allowed)
	assert.Contains(t, res.Reason, "not qualified")

	// A derived table earlier in the list must not exempt what follows it.
	res = g.Validate("SELECT * FROM (SELECT Id FROM monitor.Part) d, monitor.Reading r")
	assert.True(t, res.Allowed, res.Reason)

	res = g.Validate("SELECT * FROM (SELECT 1 FROM monitor.Part) d, dba.Accounts")
	assert.False(t, res.Allowed)
	assert.Contains(t, res.Reason, `"dba"`)
}

func TestValidate_Subqueries(t *testing.T) {
	g := newGuard(t)

	res := g.Validate("SELECT Id FROM monitor.Part WHERE Id IN (SELECT PartId FROM monitor.Reading)")
	assert.True(t, res.Allowed, res.Reason)

	res = g.Validate("SELECT Id FROM monitor.Part WHERE Id IN (SELECT PartId FROM Reading)")
	assert.False(t, res.Allowed)

	res = g.Validate("SELECT x.Id FROM (SELECT Id FROM monitor.Part) x")
	assert.True(t, res.Allowed, res.Reason)

	res = g.Validate("SELECT x.Id FROM (SELECT Id FROM Part) x")
	assert.False(t, res.Allowed)

	res = g.Validate("SELECT * FROM (SELECT r.PartId FROM monitor.Reading r WHERE r.Value > 0) d JOIN monitor.Part p ON p.Id = d.PartId")
	assert.True(t, res.Allowed, res.Reason)

	res = g.Validate("SELECT * FROM (SELECT 1 FROM (SELECT 1 FROM monitor.Part) i) d, dba.Accounts")
	assert.False(t, res.Allowed)
	assert.Contains(t, res.Reason, `"dba"`)
}

func TestValidate_SetOperations(t *testing.T) {
	g := newGuard(t)

	res := g.Validate("SELECT Id FROM monitor.Part UNION SELECT PartId FROM monitor.Reading")
	assert.True(t, res.Allowed, res.Reason)

	res = g.Validate("SELECT Id FROM monitor.Part UNION SELECT Id FROM Reading")
	assert.False(t, res.Allowed)
}

func TestValidate_FromListTerminatorsEndOwnerChecks(t *testing.T) {
	g := newGuard(t)

	// Identifiers after WHERE/GROUP/ORDER are column references, not tables.
	res := g.Validate("SELECT State, COUNT(*) FROM monitor.Part WHERE Weight > 10 GROUP BY State ORDER BY State")
	assert.True(t, res.Allowed, res.Reason)
}

func TestValidate_QuotedTableNames(t *testing.T) {
	g := newGuard(t)

	res := g.Validate(`SELECT Id FROM "monitor"."Part"`)
	assert.True(t, res.Allowed, res.Reason)

	res = g.Validate(`SELECT Id FROM [monitor].[Part]`)
	assert.True(t, res.Allowed, res.Reason)

	res = g.Validate(`SELECT Id FROM "dba"."Part"`)
	assert.False(t, res.Allowed)
}

func TestValidate_ThreePartName(t *testing.T) {
	g := newGuard(t)

	// database.owner.table: the owner is the part before the table name.
	res := g.Validate("SELECT Id FROM plant.monitor.Part")
	assert.True(t, res.Allowed, res.Reason)

	res = g.Validate("SELECT Id FROM plant.dba.Part")
	assert.False(t, res.Allowed)
	assert.Contains(t, res.Reason, `"dba"`)
}

func TestValidate_MultipleOwners(t *testing.T) {
	g := newGuard(t, "monitor", "reporting")

	res := g.Validate("SELECT * FROM monitor.Part p JOIN reporting.Summary s ON s.PartId = p.Id")
	assert.True(t, res.Allowed, res.Reason)
}

func TestValidate_PreservesStatementBody(t *testing.T) {
	g := newGuard(t)

	sql := "SELECT Id, Weight * 2 AS DoubleWeight FROM monitor.Part WHERE Note = 'keep; this'"
	res := g.Validate(sql)
	require.True(t, res.Allowed, res.Reason)
	assert.Equal(t, sql, res.NormalizedStatement)
}
