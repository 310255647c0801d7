package services

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	apperrors "github.com/charlesng35/clubhouse/pkg/errors"
)

var (
	// ErrMembershipNotFound indicates the requested membership does not exist.
	ErrMembershipNotFound = apperrors.New("MEMBERSHIP_NOT_FOUND", "Membership not found", http.StatusNotFound)
	// ErrMembershipExists rejects a second membership for the same club and user.
	ErrMembershipExists = apperrors.New("MEMBERSHIP_EXISTS", "User is already a member of this club", http.StatusConflict)
	// ErrOverrideNotFound indicates there is no member-specific override to clear.
	ErrOverrideNotFound = apperrors.New("OVERRIDE_NOT_FOUND", "Permission override not found", http.StatusNotFound)
)

// isUniqueConstraintError detects database uniqueness constraint violations across vendors.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr != nil && pgErr.Code == "23505" {
		return true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr != nil && myErr.Number == 1062 {
		return true
	}

	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "unique") ||
		strings.Contains(lower, "duplicate")
}
