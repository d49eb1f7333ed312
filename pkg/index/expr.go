package index

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lontok/kala-rag/pkg/errors"
)

// filterExpr 将合取精确匹配的过滤条件编译为 Milvus 布尔表达式。
// 键按字典序排列以保证表达式稳定。
func filterExpr(filter map[string]any) (string, error) {
	if len(filter) == 0 {
		return "", nil
	}

	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	terms := make([]string, 0, len(keys))
	for _, k := range keys {
		switch v := filter[k].(type) {
		case string:
			terms = append(terms, fmt.Sprintf(`%s == "%s"`, k, escapeString(v)))
		case int:
			terms = append(terms, fmt.Sprintf("%s == %d", k, v))
		case int64:
			terms = append(terms, fmt.Sprintf("%s == %d", k, v))
		case bool:
			terms = append(terms, fmt.Sprintf("%s == %t", k, v))
		default:
			return "", errors.ErrIndexOperation.WithMessagef(
				"unsupported filter value type %T for key %q", v, k)
		}
	}

	return strings.Join(terms, " && "), nil
}

func escapeString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
