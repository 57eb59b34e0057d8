package persistence

import (
	"strings"
)

// ValidateSortOrder normalizes a sort direction to ASC or DESC, defaulting to DESC
func ValidateSortOrder(orderDir string) string {
	if strings.EqualFold(strings.TrimSpace(orderDir), "asc") {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField when it is in allowedFields and
// defaultField otherwise. Only whitelisted names ever reach ORDER BY.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// RegistroSortFields are the registro_tickets columns the archive can be ordered by
var RegistroSortFields = map[string]bool{
	"fecha_registro": true,
	"fecha_entrega":  true,
	"numero":         true,
	"total":          true,
	"repartidor":     true,
}
