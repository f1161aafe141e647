package main

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/ByLCY/labelkit/geom"
	"github.com/ByLCY/labelkit/label"
	"github.com/ByLCY/labelkit/renderer"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func writeLabel(t *testing.T, dir string) string {
	t.Helper()
	doc := label.New(200, 100, 10)
	doc.Add(
		label.NewText(geom.R(0, 0, 200, 50), "HELLO"),
		label.NewTextSlot(geom.R(0, 50, 150, 50), "customer.name", "Jane"),
		label.NewQrCodeSlot(geom.R(150, 50, 50, 50), "url", "https://example.com"),
		label.NewRect(geom.R(0, 0, 200, 100)),
	)
	path := filepath.Join(dir, "label.json")
	if err := doc.Save(path); err != nil {
		t.Fatalf("保存标签失败: %v", err)
	}
	return path
}

func TestRunPreviewPNG(t *testing.T) {
	dir := t.TempDir()
	cfg := config{input: writeLabel(t, dir), output: filepath.Join(dir, "out", "preview.png"), dpi: 50.8, jobs: 1, font: "go-regular"}
	if err := run(context.Background(), cfg, discard); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	f, err := os.Open(cfg.output)
	if err != nil {
		t.Fatalf("没有生成 PNG: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("PNG 无法解码: %v", err)
	}
	// 20cm 宽、50.8dpi → 400px
	if img.Bounds().Dx() != 400 || img.Bounds().Dy() != 200 {
		t.Fatalf("unexpected size %v", img.Bounds())
	}
}

func TestRunBatchPNG(t *testing.T) {
	dir := t.TempDir()
	data := `[{"customer": {"name": "John"}, "url": "a"}, {"customer": {"name": "Mary"}}, {}]`
	cfg := config{
		input:  writeLabel(t, dir),
		output: filepath.Join(dir, "batch", "${customer.name}.png"),
		data:   data,
		jobs:   2,
	}
	if err := run(context.Background(), cfg, discard); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	for _, name := range []string{"John.png", "Mary.png", "${customer.name}-002.png"} {
		if _, err := os.Stat(filepath.Join(dir, "batch", name)); err != nil {
			t.Fatalf("缺少输出 %s: %v", name, err)
		}
	}
}

func TestRunPDFFromDSL(t *testing.T) {
	dir := t.TempDir()
	src := `label {
  pixels 200 100
  resolution 10
  attribute "title" = "Demo"
  textslot "name" at 0 0 200 100 "Jane"
}
`
	in := filepath.Join(dir, "demo.label")
	if err := os.WriteFile(in, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	dataPath := filepath.Join(dir, "data.json")
	if err := os.WriteFile(dataPath, []byte(`[{"name": "a"}, {"name": "b"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := config{input: in, output: filepath.Join(dir, "out.pdf"), data: "@" + dataPath, debug: filepath.Join(dir, "plan.json")}
	if err := run(context.Background(), cfg, discard); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	out, err := os.ReadFile(cfg.output)
	if err != nil || !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatalf("没有生成 PDF: %v", err)
	}

	raw, err := os.ReadFile(cfg.debug)
	if err != nil {
		t.Fatalf("没有生成调试 JSON: %v", err)
	}
	var plan struct {
		Mode string `json:"mode"`
		Ops  []struct {
			Text string `json:"text"`
		} `json:"ops"`
	}
	if err := json.Unmarshal(raw, &plan); err != nil {
		t.Fatalf("调试 JSON 无法解析: %v", err)
	}
	if plan.Mode != "final" || len(plan.Ops) != 1 || plan.Ops[0].Text != "a" {
		t.Fatalf("调试计划应对应第一条记录: %s", raw)
	}
}

func TestRunCheckRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	doc := label.New(100, 100, 10)
	doc.Add(
		label.NewTextSlot(geom.R(0, 0, 10, 10), "dup", ""),
		label.NewTextSlot(geom.R(0, 0, 10, 10), "dup", ""),
	)
	path := filepath.Join(dir, "bad.json")
	if err := doc.Save(path); err != nil {
		t.Fatal(err)
	}
	if err := run(context.Background(), config{input: path, check: true}, discard); err == nil {
		t.Fatalf("重复的槽位应校验失败")
	}
	if err := run(context.Background(), config{input: writeLabel(t, dir), check: true}, discard); err != nil {
		t.Fatalf("有效标签校验失败: %v", err)
	}
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()
	in := writeLabel(t, dir)
	if err := run(context.Background(), config{input: in, output: filepath.Join(dir, "x.gif")}, discard); err == nil {
		t.Fatalf("不支持的输出格式应报错")
	}
	if err := run(context.Background(), config{input: filepath.Join(dir, "missing.json")}, discard); err == nil {
		t.Fatalf("缺失的输入文件应报错")
	}
	if err := run(context.Background(), config{input: in, output: filepath.Join(dir, "x.png"), data: "{"}, discard); err == nil {
		t.Fatalf("非法数据应报错")
	}
	for _, out := range []string{"empty.png", "empty.pdf"} {
		cfg := config{input: in, output: filepath.Join(dir, out), data: "[]"}
		if err := run(context.Background(), cfg, discard); err == nil {
			t.Fatalf("%s: 空数据数组应报错", out)
		}
		if _, err := os.Stat(cfg.output); err == nil {
			t.Fatalf("%s: 空数据不应生成文件", out)
		}
	}
	if err := run(context.Background(), config{input: in, output: filepath.Join(dir, "x.png"), font: "builtin:nope"}, discard); err == nil {
		t.Fatalf("未知字体应报错")
	}
}

func TestOutputSize(t *testing.T) {
	doc := label.New(400, 200, 20)
	cases := []struct {
		cfg  config
		w, h int
	}{
		{config{}, 400, 200},
		{config{width: 800}, 800, 400},
		{config{height: 50}, 100, 50},
		{config{width: 10, height: 10}, 10, 10},
		{config{dpi: 101.6}, 800, 400},
	}
	for _, c := range cases {
		if w, h := outputSize(doc, c.cfg); w != c.w || h != c.h {
			t.Fatalf("outputSize(%+v) = %dx%d, want %dx%d", c.cfg, w, h, c.w, c.h)
		}
	}
}

func TestOutputPath(t *testing.T) {
	rec := map[string]any{"sku": "A-1"}
	if got := outputPath("out/label.png", 3, rec, 5); got != "out/label-003.png" {
		t.Fatalf("unexpected %q", got)
	}
	if got := outputPath("out/label.png", 0, rec, 1); got != "out/label.png" {
		t.Fatalf("unexpected %q", got)
	}
	if got := outputPath("out/${sku}-${index}.png", 2, rec, 5); got != "out/A-1-2.png" {
		t.Fatalf("unexpected %q", got)
	}
}

func TestMain(m *testing.M) {
	renderer.SetLogger(discard)
	os.Exit(m.Run())
}

func TestExampleLabel(t *testing.T) {
	if err := run(context.Background(), config{input: filepath.Join("examples", "demo.label"), check: true}, discard); err != nil {
		t.Fatalf("示例标签校验失败: %v", err)
	}
	dir := t.TempDir()
	cfg := config{
		input:  filepath.Join("examples", "demo.label"),
		output: filepath.Join(dir, "${items[0].sku}.png"),
		data:   "@" + filepath.Join("examples", "orders.json"),
		jobs:   2,
	}
	if err := run(context.Background(), cfg, discard); err != nil {
		t.Fatalf("示例批量渲染失败: %v", err)
	}
	for _, name := range []string{"A-1001.png", "B-2002.png"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("缺少输出 %s: %v", name, err)
		}
	}
}
