package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ByLCY/labelkit/binding"
	"github.com/ByLCY/labelkit/dsl"
	"github.com/ByLCY/labelkit/fonts"
	"github.com/ByLCY/labelkit/label"
	"github.com/ByLCY/labelkit/layout"
	"github.com/ByLCY/labelkit/renderer"
	canvasrenderer "github.com/ByLCY/labelkit/renderer/canvas"
)

// config 汇总命令行参数。
type config struct {
	input   string
	output  string
	data    string
	preview bool
	width   int
	height  int
	dpi     float64
	debug   string
	font    string
	jobs    int
	check   bool
}

func main() {
	var cfg config
	flag.StringVar(&cfg.input, "in", "examples/demo.label", "标签文件路径（.json 或 .label）")
	flag.StringVar(&cfg.output, "out", "output/demo.png", "输出路径（.png 或 .pdf），可包含 ${index} 或 ${数据路径}")
	flag.StringVar(&cfg.data, "data", "", "槽位数据 JSON（对象或数组）；以 @ 开头表示从文件读取")
	flag.BoolVar(&cfg.preview, "preview", false, "预览渲染：忽略数据，槽位显示预览值")
	flag.IntVar(&cfg.width, "width", 0, "输出宽度（像素），0 表示使用标签尺寸")
	flag.IntVar(&cfg.height, "height", 0, "输出高度（像素），0 表示使用标签尺寸")
	flag.Float64Var(&cfg.dpi, "dpi", 0, "按物理尺寸与分辨率计算输出像素，优先级低于 -width/-height")
	flag.StringVar(&cfg.debug, "debug", "", "绘制计划调试 JSON 输出路径")
	flag.StringVar(&cfg.font, "font", fonts.DefaultName, "字体：内置名（"+strings.Join(fonts.Names(), ", ")+"）或字体文件路径")
	flag.IntVar(&cfg.jobs, "jobs", 4, "批量渲染的并发数")
	flag.BoolVar(&cfg.check, "check", false, "只校验标签文件，不渲染")
	verbose := flag.Bool("v", false, "输出调试日志")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	renderer.SetLogger(logger)

	if err := run(context.Background(), cfg, logger); err != nil {
		logger.Error("生成标签失败", "err", err)
		os.Exit(1)
	}
}

// run 串联加载、校验、绑定与渲染。
func run(ctx context.Context, cfg config, logger *slog.Logger) error {
	doc, err := load(cfg.input)
	if err != nil {
		return err
	}
	if err := doc.Validate(); err != nil {
		return fmt.Errorf("标签校验失败: %w", err)
	}
	if cfg.check {
		pxX, pxY := doc.PixelsPerCm()
		logger.Info("标签校验通过",
			"id", doc.ID,
			"size", fmt.Sprintf("%dx%d", doc.WidthPx, doc.HeightPx),
			"physical", fmt.Sprintf("%gx%gcm", doc.WidthCm, doc.HeightCm),
			"pxPerCm", fmt.Sprintf("%gx%g", pxX, pxY),
			"fields", doc.Len(),
			"slots", strings.Join(doc.SlotEntries(), ","))
		return nil
	}

	fontData, err := fonts.Load(cfg.font)
	if err != nil {
		return err
	}

	var records []any
	if !cfg.preview && cfg.data != "" {
		raw, err := readData(cfg.data)
		if err != nil {
			return err
		}
		if records, err = binding.Records(raw); err != nil {
			return err
		}
		if len(records) == 0 {
			return fmt.Errorf("数据中没有任何记录")
		}
	}

	w, h := outputSize(doc, cfg)
	if cfg.debug != "" {
		if err := writeDebug(doc, fontData, w, h, records, cfg.debug); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(cfg.output), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	switch ext := strings.ToLower(filepath.Ext(cfg.output)); ext {
	case ".pdf":
		return renderPDF(doc, fontData, records, cfg.output, logger)
	case ".png":
		return renderPNG(ctx, doc, fontData, w, h, records, cfg, logger)
	default:
		return fmt.Errorf("不支持的输出格式 %q（仅支持 .png 与 .pdf）", ext)
	}
}

func load(path string) (*label.Document, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".label":
		doc, err := dsl.ParseFile(path)
		if err != nil {
			return nil, fmt.Errorf("解析 DSL 失败: %w", err)
		}
		return doc, nil
	default:
		doc, err := label.Open(path)
		if err != nil {
			return nil, fmt.Errorf("读取标签 %s 失败: %w", path, err)
		}
		return doc, nil
	}
}

func readData(arg string) ([]byte, error) {
	if path, ok := strings.CutPrefix(arg, "@"); ok {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("读取数据文件失败: %w", err)
		}
		return data, nil
	}
	return []byte(arg), nil
}

// outputSize 计算输出像素：-width/-height 优先，其次 -dpi，否则使用标签自身尺寸。
// 只给出一边时另一边按比例推算。
func outputSize(doc *label.Document, cfg config) (int, int) {
	w, h := cfg.width, cfg.height
	switch {
	case w > 0 && h > 0:
	case w > 0:
		h = max(1, w*doc.HeightPx/doc.WidthPx)
	case h > 0:
		w = max(1, h*doc.WidthPx/doc.HeightPx)
	case cfg.dpi > 0:
		w, h = layout.PixelsAt(doc.WidthCm, cfg.dpi), layout.PixelsAt(doc.HeightCm, cfg.dpi)
	default:
		w, h = doc.WidthPx, doc.HeightPx
	}
	return w, h
}

func renderPNG(ctx context.Context, doc *label.Document, fontData []byte, w, h int, records []any, cfg config, logger *slog.Logger) error {
	engine, err := renderer.NewEngine(renderer.Options{Font: fontData})
	if err != nil {
		return err
	}
	if records == nil {
		bmp, err := engine.PreviewRender(doc, w, h)
		if err != nil {
			return fmt.Errorf("渲染失败: %w", err)
		}
		if err := bmp.SavePNG(cfg.output); err != nil {
			return fmt.Errorf("写入 PNG 失败: %w", err)
		}
		logger.Info("已生成预览", "out", cfg.output, "size", fmt.Sprintf("%dx%d", w, h))
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, cfg.jobs))
	for i, rec := range records {
		out := outputPath(cfg.output, i, rec, len(records))
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			bmp, err := engine.FinalRender(doc, w, h, binding.Resolve(doc, rec, nil))
			if err != nil {
				return fmt.Errorf("渲染第 %d 条记录失败: %w", i, err)
			}
			if err := bmp.SavePNG(out); err != nil {
				return fmt.Errorf("写入 %s 失败: %w", out, err)
			}
			logger.Info("已生成标签", "record", i, "out", out)
			return nil
		})
	}
	return g.Wait()
}

// outputPath 为第 i 条记录生成输出路径。模板中的 ${index} 与数据路径会被替换；
// 多条记录但路径不含占位符时在扩展名前追加序号。
func outputPath(tmpl string, i int, rec any, total int) string {
	out := strings.ReplaceAll(tmpl, "${index}", strconv.Itoa(i))
	out = binding.Interpolate(out, rec)
	if total > 1 && out == tmpl {
		ext := filepath.Ext(out)
		out = fmt.Sprintf("%s-%03d%s", strings.TrimSuffix(out, ext), i, ext)
	}
	return out
}

func renderPDF(doc *label.Document, fontData []byte, records []any, out string, logger *slog.Logger) error {
	r, err := canvasrenderer.NewRenderer(canvasrenderer.Options{Font: fontData})
	if err != nil {
		return err
	}
	pages := []canvasrenderer.Page{{Preview: true}}
	if records != nil {
		pages = make([]canvasrenderer.Page, len(records))
		for i, rec := range records {
			pages[i] = canvasrenderer.Page{Slots: binding.Resolve(doc, rec, nil)}
		}
	}
	data, err := r.RenderPDF(doc, pages...)
	if err != nil {
		return fmt.Errorf("渲染 PDF 失败: %w", err)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("写入 PDF 文件失败: %w", err)
	}
	logger.Info("已生成 PDF", "out", out, "pages", len(pages))
	return nil
}

// writeDebug 输出第一页（预览或第一条记录）的绘制计划。
func writeDebug(doc *label.Document, fontData []byte, w, h int, records []any, debugPath string) error {
	engine, err := renderer.NewEngine(renderer.Options{Font: fontData})
	if err != nil {
		return err
	}
	mode, slots := layout.ModePreview, map[string]string(nil)
	if len(records) > 0 {
		mode, slots = layout.ModeFinal, binding.Resolve(doc, records[0], nil)
	}
	plan, err := engine.Plan(doc, w, h, mode, slots)
	if err != nil {
		return fmt.Errorf("布局计算失败: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := layout.WriteDebugJSON(plan, debugPath); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}
