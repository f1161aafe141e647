package renderer

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler 丢弃所有日志；Enabled 返回 false，调用方不会格式化消息。
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var loggerPtr atomic.Pointer[slog.Logger]

func init() { loggerPtr.Store(slog.New(nopHandler{})) }

// SetLogger 设置 renderer 及其子包使用的日志器，默认不输出任何日志。
// 传入 nil 恢复静默。可并发调用。
//
// 使用的级别：
//   - [slog.LevelDebug]：每次渲染的文档 id、尺寸与原语数量
//   - [slog.LevelWarn]：被跳过的原语（例如尺寸为零的文字）
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	loggerPtr.Store(l)
}

// Logger 返回当前日志器，renderer/canvas 通过它共享同一配置。
func Logger() *slog.Logger { return loggerPtr.Load() }
