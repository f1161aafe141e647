package fonts

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

// DefaultName 是未指定字体时使用的内置字体。
const DefaultName = "go-bold"

var builtin = map[string][]byte{
	"go-regular": goregular.TTF,
	"go-medium":  gomedium.TTF,
	"go-bold":    gobold.TTF,
	"go-italic":  goitalic.TTF,
	"go-mono":    gomono.TTF,
}

// Default 返回默认内置字体的 TTF 数据。
func Default() []byte { return builtin[DefaultName] }

// Names 返回全部内置字体名，按字母排序。
func Names() []string { return slices.Sorted(maps.Keys(builtin)) }

// Load 返回字体字节数据。src 可写为 "builtin:go-bold"、"embed:go-bold"、
// 直接写内置字体名，或字体文件路径。
func Load(src string) ([]byte, error) {
	if src == "" {
		return Default(), nil
	}
	name := src
	for _, prefix := range []string{"builtin:", "built-in:", "embed:"} {
		if n, ok := strings.CutPrefix(src, prefix); ok {
			name = n
			break
		}
	}
	if data, ok := builtin[name]; ok {
		return data, nil
	}
	if name != src {
		return nil, fmt.Errorf("找不到内置字体资源 %s（可用: %s）", src, strings.Join(Names(), ", "))
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("读取字体 %s 失败: %w", src, err)
	}
	return data, nil
}
