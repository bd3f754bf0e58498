package repository

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

const (
	dialectSQLite   = "sqlite"
	dialectPostgres = "postgres"
	dialectMySQL    = "mysql"

	likeEscapeChar = "!"
)

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// dialectOf 返回连接方言，未知时按 sqlite 处理
func dialectOf(db *gorm.DB) string {
	if db == nil || db.Dialector == nil {
		return dialectSQLite
	}
	switch name := strings.ToLower(strings.TrimSpace(db.Dialector.Name())); name {
	case "postgresql":
		return dialectPostgres
	case "":
		return dialectSQLite
	default:
		return name
	}
}

// jsonTextExpr 取 JSON 文档字段的文本值
func jsonTextExpr(dialect, column, key string) string {
	switch dialect {
	case dialectPostgres:
		return fmt.Sprintf("(%s::jsonb ->> '%s')", column, key)
	case dialectMySQL:
		return fmt.Sprintf("JSON_UNQUOTE(JSON_EXTRACT(%s, '$.%s'))", column, key)
	default:
		return fmt.Sprintf("json_extract(%s, '$.%s')", column, key)
	}
}

// documentSearchClause 对文档的多个字段做不区分大小写的包含匹配
// 关键字中的 % 与 _ 按字面量处理；没有有效字段或关键字时返回空条件
func documentSearchClause(dialect, column string, keys []string, keyword string) (string, []any) {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return "", nil
	}
	pattern := "%" + likeEscaper.Replace(keyword) + "%"
	operator := "LIKE"
	if dialect == dialectPostgres {
		operator = "ILIKE"
	}

	parts := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	for _, key := range keys {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("LOWER(COALESCE(%s, '')) %s ? ESCAPE '%s'", jsonTextExpr(dialect, column, key), operator, likeEscapeChar))
		args = append(args, pattern)
	}
	if len(parts) == 0 {
		return "", nil
	}
	return "(" + strings.Join(parts, " OR ") + ")", args
}
