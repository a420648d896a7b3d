package port

import "github.com/guillermoBallester/strait/internal/core/domain"

// StatementValidator decides whether a SQL statement may be executed.
// Implementations must be pure: rejections come back inside the
// ValidationResult, never as panics or errors.
type StatementValidator interface {
	Validate(sql string) domain.ValidationResult
}
