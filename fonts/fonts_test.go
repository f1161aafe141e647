package fonts

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadBuiltin(t *testing.T) {
	for _, src := range []string{"builtin:go-mono", "built-in:go-mono", "embed:go-mono", "go-mono"} {
		data, err := Load(src)
		if err != nil {
			t.Fatalf("Load(%q): %v", src, err)
		}
		if !bytes.Equal(data, builtin["go-mono"]) {
			t.Fatalf("Load(%q) 返回了错误的字体", src)
		}
	}
	data, err := Load("")
	if err != nil || !bytes.Equal(data, Default()) {
		t.Fatalf("空 src 应返回默认字体: %v", err)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load("builtin:comic-sans"); err == nil {
		t.Fatalf("未知内置字体应报错")
	}
	_, err := Load(filepath.Join(t.TempDir(), "missing.ttf"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected fs.ErrNotExist, got %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "font.ttf")
	if err := os.WriteFile(path, Default(), 0o644); err != nil {
		t.Fatal(err)
	}
	data, err := Load(path)
	if err != nil || len(data) != len(Default()) {
		t.Fatalf("读取字体文件失败: %v", err)
	}
}

func TestNamesSorted(t *testing.T) {
	names := Names()
	if len(names) != len(builtin) || names[0] != "go-bold" {
		t.Fatalf("unexpected names %v", names)
	}
}
