package db

import (
	"fmt"
	"sort"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"hardware-request-system/pkg/types"
)

// ApplyFilters добавляет в запрос условия из filter.Filter. Ключи вне allowedMap игнорируются,
// значение "a,b" превращается в IN.
func ApplyFilters(builder sq.SelectBuilder, filter types.Filter, allowedMap map[string]string) sq.SelectBuilder {
	for _, jsonField := range sortedKeys(filter.Filter) {
		dbCol, ok := allowedMap[jsonField]
		if !ok {
			continue
		}
		val := filter.Filter[jsonField]
		if s, ok := val.(string); ok && strings.Contains(s, ",") {
			builder = builder.Where(sq.Eq{dbCol: strings.Split(s, ",")})
		} else {
			builder = builder.Where(sq.Eq{dbCol: val})
		}
	}
	return builder
}

func ApplyListParams(builder sq.SelectBuilder, filter types.Filter, allowedMap map[string]string, defaultOrder string) sq.SelectBuilder {
	builder = ApplyFilters(builder, filter, allowedMap)

	ordered := false
	for _, jsonField := range sortedKeys(filter.Sort) {
		dbCol, ok := allowedMap[jsonField]
		if !ok {
			continue
		}
		sqlDir := "ASC"
		if strings.ToLower(filter.Sort[jsonField]) == "desc" {
			sqlDir = "DESC"
		}
		builder = builder.OrderBy(fmt.Sprintf("%s %s", dbCol, sqlDir))
		ordered = true
	}
	if !ordered && defaultOrder != "" {
		builder = builder.OrderBy(defaultOrder)
	}

	if filter.WithPagination {
		if filter.Limit > 0 {
			builder = builder.Limit(uint64(filter.Limit))
		}
		if filter.Offset > 0 {
			builder = builder.Offset(uint64(filter.Offset))
		}
	}

	return builder
}

// ApplySearch ищет подстроку без учёта регистра хотя бы в одной из колонок.
func ApplySearch(builder sq.SelectBuilder, search string, columns ...string) sq.SelectBuilder {
	search = strings.TrimSpace(search)
	if search == "" || len(columns) == 0 {
		return builder
	}
	pattern := "%" + escapeLike(search) + "%"
	or := make(sq.Or, 0, len(columns))
	for _, col := range columns {
		or = append(or, sq.ILike{col: pattern})
	}
	return builder.Where(or)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
