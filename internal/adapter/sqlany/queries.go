package sqlany

// Catalog queries against the SQL Anywhere system views. Every query that
// returns user objects carries a LOWER(user_name) IN (?) predicate bound
// to the owner allow-list, so unauthorized objects never leave the
// database. Placeholders are ODBC-style; IN lists are expanded with
// sqlx.In before binding.

const queryPing = `
SELECT PROPERTY('ServerName') AS server_name, DB_PROPERTY('Name') AS database_name`

const queryListOwners = `
SELECT u.user_name, COUNT(t.table_id) AS table_count
FROM SYS.SYSUSER u
LEFT JOIN SYS.SYSTAB t ON t.creator = u.user_id
WHERE LOWER(u.user_name) IN (?)
GROUP BY u.user_name
ORDER BY u.user_name`

// queryListTables takes an optional extra predicate (owner or search).
const queryListTables = `
SELECT t.table_name, u.user_name AS owner_name, t.table_type_str, t.count
FROM SYS.SYSTAB t
JOIN SYS.SYSUSER u ON t.creator = u.user_id
WHERE LOWER(u.user_name) IN (?)%s
ORDER BY u.user_name, t.table_name`

const (
	condTableOwner  = ` AND LOWER(u.user_name) = ?`
	condTableSearch = ` AND LOWER(t.table_name) LIKE ?`
)

const queryTableMeta = `
SELECT t.table_id, t.object_id, t.table_name, u.user_name AS owner_name, t.table_type_str, t.count
FROM SYS.SYSTAB t
JOIN SYS.SYSUSER u ON t.creator = u.user_id
WHERE LOWER(t.table_name) = LOWER(?) AND LOWER(u.user_name) IN (?)%s
ORDER BY u.user_name`

const queryColumns = `
SELECT sc.column_name, d.domain_name, sc.width, sc.scale, sc.nulls, sc."default"
FROM SYS.SYSTABCOL sc
JOIN SYS.SYSDOMAIN d ON sc.domain_id = d.domain_id
WHERE sc.table_id = ?
ORDER BY sc.column_id`

const queryPrimaryKeyColumns = `
SELECT stc.column_name
FROM SYS.SYSIDX i
JOIN SYS.SYSIDXCOL ic ON ic.table_id = i.table_id AND ic.index_id = i.index_id
JOIN SYS.SYSTABCOL stc ON stc.table_id = ic.table_id AND stc.column_id = ic.column_id
WHERE i.table_id = ? AND i.index_category = 1
ORDER BY ic.sequence`

const queryForeignKeys = `
SELECT fi.index_name, pu.user_name AS ref_owner, pt.table_name AS ref_table,
       fc.column_name, pc.column_name AS ref_column
FROM SYS.SYSFKEY fk
JOIN SYS.SYSIDX fi ON fi.table_id = fk.foreign_table_id AND fi.index_id = fk.foreign_index_id
JOIN SYS.SYSTAB pt ON pt.table_id = fk.primary_table_id
JOIN SYS.SYSUSER pu ON pu.user_id = pt.creator
JOIN SYS.SYSIDXCOL fic ON fic.table_id = fk.foreign_table_id AND fic.index_id = fk.foreign_index_id
JOIN SYS.SYSTABCOL fc ON fc.table_id = fic.table_id AND fc.column_id = fic.column_id
JOIN SYS.SYSIDXCOL pic ON pic.table_id = fk.primary_table_id AND pic.index_id = fk.primary_index_id AND pic.sequence = fic.sequence
JOIN SYS.SYSTABCOL pc ON pc.table_id = pic.table_id AND pc.column_id = pic.column_id
WHERE fk.foreign_table_id = ?
ORDER BY fi.index_name, fic.sequence`

const queryTableIndexes = `
SELECT i.index_id, i.index_name, i."unique", i.index_category
FROM SYS.SYSIDX i
WHERE i.table_id = ?
ORDER BY i.index_name`

const queryIndexColumns = `
SELECT stc.column_name, ic."order"
FROM SYS.SYSIDXCOL ic
JOIN SYS.SYSTABCOL stc ON stc.table_id = ic.table_id AND stc.column_id = ic.column_id
WHERE ic.table_id = ? AND ic.index_id = ?
ORDER BY ic.sequence`

const queryCheckConstraints = `
SELECT con.constraint_name, ck.check_defn
FROM SYS.SYSCONSTRAINT con
JOIN SYS.SYSCHECK ck ON ck.check_id = con.constraint_id
WHERE con.constraint_type = 'C' AND con.table_object_id = ?
ORDER BY con.constraint_name`

// queryListIndexes takes an optional table-name predicate.
const queryListIndexes = `
SELECT i.index_id, t.table_id, i.index_name, t.table_name, u.user_name AS owner_name, i."unique", i.index_category
FROM SYS.SYSIDX i
JOIN SYS.SYSTAB t ON t.table_id = i.table_id
JOIN SYS.SYSUSER u ON u.user_id = t.creator
WHERE LOWER(u.user_name) IN (?)%s
ORDER BY u.user_name, t.table_name, i.index_name`

const (
	condIndexTable = ` AND LOWER(t.table_name) = ?`
	condIndexName  = ` AND LOWER(i.index_name) = LOWER(?)`
)

// queryListProcedures takes an optional extra predicate (owner or search).
const queryListProcedures = `
SELECT p.proc_name, u.user_name AS owner_name
FROM SYS.SYSPROCEDURE p
JOIN SYS.SYSUSER u ON p.creator = u.user_id
WHERE LOWER(u.user_name) IN (?)%s
ORDER BY u.user_name, p.proc_name`

const (
	condProcOwner  = ` AND LOWER(u.user_name) = ?`
	condProcSearch = ` AND LOWER(p.proc_name) LIKE ?`
)

const queryProcedureMeta = `
SELECT p.proc_id, p.proc_name, u.user_name AS owner_name, p.proc_defn
FROM SYS.SYSPROCEDURE p
JOIN SYS.SYSUSER u ON p.creator = u.user_id
WHERE LOWER(p.proc_name) = LOWER(?) AND LOWER(u.user_name) IN (?)%s
ORDER BY u.user_name`

const queryProcedureParams = `
SELECT pp.parm_name, d.domain_name, pp.parm_mode_in, pp.parm_mode_out
FROM SYS.SYSPROCPARM pp
JOIN SYS.SYSDOMAIN d ON pp.domain_id = d.domain_id
WHERE pp.proc_id = ? AND pp.parm_type = 0
ORDER BY pp.parm_id`

const queryDatabaseProperties = `
SELECT DB_PROPERTY('Name') AS database_name,
       PROPERTY('ServerName') AS server_name,
       PROPERTY('ProductVersion') AS version,
       DB_PROPERTY('CharSet') AS charset,
       DB_PROPERTY('Collation') AS collation,
       DB_PROPERTY('PageSize') AS page_size`

const queryObjectCounts = `
SELECT SUM(CASE WHEN t.table_type_str = 'BASE' THEN 1 ELSE 0 END) AS table_count,
       SUM(CASE WHEN t.table_type_str = 'VIEW' THEN 1 ELSE 0 END) AS view_count
FROM SYS.SYSTAB t
JOIN SYS.SYSUSER u ON t.creator = u.user_id
WHERE LOWER(u.user_name) IN (?)`

const queryProcedureCount = `
SELECT COUNT(*) AS procedure_count
FROM SYS.SYSPROCEDURE p
JOIN SYS.SYSUSER u ON p.creator = u.user_id
WHERE LOWER(u.user_name) IN (?)`
