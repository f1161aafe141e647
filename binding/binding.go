package binding

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ByLCY/labelkit/label"
)

var exprPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Records 解析 JSON 数据：数组中的每个元素是一条记录，其他值本身是一条记录。
// 数字保留为 json.Number，避免大整数（例如条码号）丢失精度。
func Records(data []byte) ([]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("解析 data JSON 失败: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("解析 data JSON 失败: 末尾存在多余内容")
	}
	if list, ok := v.([]any); ok {
		return list, nil
	}
	return []any{v}, nil
}

// Resolve 为文档中的每个槽位在 data 中查找取值，得到最终渲染所需的映射。
// paths 可将槽位 entry 映射到数据路径，未列出的槽位直接以 entry 作为路径。
// 找不到或值为 null 的槽位不出现在结果中，渲染时会被跳过。
func Resolve(doc *label.Document, data any, paths map[string]string) map[string]string {
	slots := map[string]string{}
	for _, entry := range doc.SlotEntries() {
		path := entry
		if p, ok := paths[entry]; ok {
			path = p
		}
		if v, ok := Lookup(data, path); ok {
			slots[entry] = v
		}
	}
	return slots
}

// Lookup 按 "customer.name"、"items[0].sku" 形式的路径取值并格式化为字符串。
func Lookup(data any, path string) (string, bool) {
	path = strings.TrimSpace(path)
	if data == nil || path == "" {
		return "", false
	}
	val, ok := resolvePath(data, path)
	if !ok || val == nil {
		return "", false
	}
	return format(val), true
}

// Interpolate 将文本中的 ${path.to.value} 替换为 data 中的值。
// 若 data 为空或路径不存在，则保留原占位符。
func Interpolate(text string, data any) string {
	if data == nil {
		return text
	}
	return exprPattern.ReplaceAllStringFunc(text, func(match string) string {
		groups := exprPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		if val, ok := Lookup(data, groups[1]); ok {
			return val
		}
		return match
	})
}

func format(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case map[string]any, []any:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	default:
		return fmt.Sprint(x)
	}
}

func resolvePath(data any, path string) (any, bool) {
	current := data
	for _, segment := range strings.Split(path, ".") {
		name, indexes, ok := parseSegment(segment)
		if !ok {
			return nil, false
		}
		if name != "" {
			current, ok = descendMap(current, name)
			if !ok {
				return nil, false
			}
		}
		for _, idx := range indexes {
			current, ok = descendArray(current, idx)
			if !ok {
				return nil, false
			}
		}
	}
	return current, true
}

// parseSegment 拆分 "items[0][1]" 为名称与下标；括号不成对或下标不是整数时 ok 为 false。
func parseSegment(segment string) (name string, indexes []int, ok bool) {
	i := strings.IndexByte(segment, '[')
	if i == -1 {
		return segment, nil, segment != ""
	}
	name, rest := segment[:i], segment[i:]
	for rest != "" {
		if rest[0] != '[' {
			return "", nil, false
		}
		end := strings.IndexByte(rest, ']')
		if end == -1 {
			return "", nil, false
		}
		idx, err := strconv.Atoi(rest[1:end])
		if err != nil {
			return "", nil, false
		}
		indexes = append(indexes, idx)
		rest = rest[end+1:]
	}
	return name, indexes, true
}

func descendMap(current any, key string) (any, bool) {
	switch c := current.(type) {
	case map[string]any:
		val, ok := c[key]
		return val, ok
	case map[string]string:
		val, ok := c[key]
		return val, ok
	default:
		return nil, false
	}
}

func descendArray(current any, idx int) (any, bool) {
	c, ok := current.([]any)
	if !ok || idx < 0 || idx >= len(c) {
		return nil, false
	}
	return c[idx], true
}
