package postgres

import (
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/gosuda/taskhub/internal/domain"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// contains builds an ILIKE pattern matching s anywhere, with wildcards in s
// taken literally.
func contains(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func paged(b sq.SelectBuilder, page domain.Page) sq.SelectBuilder {
	page = page.Normalize()
	return b.Limit(uint64(page.Limit)).Offset(uint64(page.Offset))
}
