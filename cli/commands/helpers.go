package commands

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"

	"github.com/dapsql/dapsql/dap"
)

// formatValue renders a row value for terminal output.
func formatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return fmt.Sprint(val)
	}
}

// attrNodes converts an attribute map into sorted tree nodes.
func attrNodes(attrs dap.Attributes) []pterm.TreeNode {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	nodes := make([]pterm.TreeNode, 0, len(keys))
	for _, k := range keys {
		nodes = append(nodes, attrNode(k, attrs[k]))
	}
	return nodes
}

func attrNode(key string, value interface{}) pterm.TreeNode {
	switch val := value.(type) {
	case dap.Attributes:
		return pterm.TreeNode{Text: key, Children: attrNodes(val)}
	case []interface{}:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = formatValue(item)
		}
		return pterm.TreeNode{Text: fmt.Sprintf("%s: [%s]", key, strings.Join(parts, ", "))}
	default:
		return pterm.TreeNode{Text: fmt.Sprintf("%s: %s", key, formatValue(value))}
	}
}

// summarizeAttrs renders scalar attributes as a short "k=v" list for
// table cells. Nested maps are elided.
func summarizeAttrs(attrs dap.Attributes) string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		switch v := attrs[k].(type) {
		case dap.Attributes:
			parts = append(parts, k+"={...}")
		case []interface{}:
			parts = append(parts, fmt.Sprintf("%s=[%d items]", k, len(v)))
		default:
			parts = append(parts, fmt.Sprintf("%s=%s", k, formatValue(v)))
		}
	}
	return strings.Join(parts, ", ")
}
