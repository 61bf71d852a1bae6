package storage

import (
	"BillionairesDashboard/src/config"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// LogLevel 定义日志级别类型
type LogLevel int

// 日志级别常量定义
const (
	DEBUG   LogLevel = iota // 调试信息
	INFO                    // 普通信息
	WARNING                 // 警告信息
	ERROR                   // 错误信息
	FATAL                   // 致命错误
)

// slog没有FATAL级别，放在ERROR之上
const levelFatal = slog.Level(12)

// Logger 日志记录器结构体
// With 派生出的子logger共享同一个文件和订阅者
type Logger struct {
	core  *logCore
	attrs []any
}

type logCore struct {
	filename    string
	file        *os.File      // 日志文件句柄
	mu          sync.Mutex    // 互斥锁，保证并发安全
	subscribers []chan string // 订阅者通道列表
	buf         bytes.Buffer
	handler     slog.Handler
}

// NewLogger 创建新的日志记录器
// 参数:
//
//	filename: 日志文件路径
//
// 返回值:
//
//	*Logger: 日志记录器实例
//	error: 创建过程中的错误
func NewLogger(filename string) (*Logger, error) {
	file, err := openLogFile(filename)
	if err != nil {
		return nil, err
	}

	core := &logCore{
		filename: filename,
		file:     file,
	}
	core.handler = slog.NewTextHandler(&core.buf, &slog.HandlerOptions{
		Level:       slog.LevelDebug,
		ReplaceAttr: replaceAttr,
	})

	return &Logger{core: core}, nil
}

func openLogFile(filename string) (*os.File, error) {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	return os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
}

// replaceAttr 时间用本地格式，级别用自己的名字
func replaceAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.TimeKey:
		return slog.String(slog.TimeKey, a.Value.Time().Format("2006-01-02 15:04:05"))
	case slog.LevelKey:
		if lvl, ok := a.Value.Any().(slog.Level); ok {
			return slog.String(slog.LevelKey, fromSlog(lvl).String())
		}
	}
	return a
}

// With 返回附带额外属性的logger，例如 With("cycle", id)
func (l *Logger) With(args ...any) *Logger {
	attrs := make([]any, 0, len(l.attrs)+len(args))
	attrs = append(attrs, l.attrs...)
	attrs = append(attrs, args...)
	return &Logger{core: l.core, attrs: attrs}
}

// Close 关闭日志文件
func (l *Logger) Close() error {
	l.core.mu.Lock()
	defer l.core.mu.Unlock()

	if l.core.file != nil {
		err := l.core.file.Close()
		l.core.file = nil
		return err
	}
	return nil
}

// Reopen 重新打开一个文件
// 参数：
// filename：新文件的路径，为空时重新打开当前文件
func (l *Logger) Reopen(filename string) error {
	l.core.mu.Lock()
	defer l.core.mu.Unlock()

	if filename == "" {
		filename = l.core.filename
	}

	if l.core.file != nil {
		_ = l.core.file.Close()
	}

	file, err := openLogFile(filename)
	if err != nil {
		return err
	}
	l.core.file = file
	l.core.filename = filename
	return nil
}

// Log 记录日志方法
// 参数:
//
//	level: 日志级别
//	message: 日志消息内容
//	args: slog风格的键值对
func (l *Logger) Log(level LogLevel, message string, args ...any) {
	c := l.core
	c.mu.Lock()
	defer c.mu.Unlock()

	r := slog.NewRecord(time.Now(), level.slog(), message, 0)
	r.Add(l.attrs...)
	r.Add(args...)

	c.buf.Reset()
	if err := c.handler.Handle(context.Background(), r); err != nil {
		return
	}
	entry := c.buf.String()

	if c.file != nil {
		c.file.WriteString(entry)
	}

	// 通知所有订阅者
	for _, ch := range c.subscribers {
		select {
		case ch <- entry:
		default: // 通道已满则跳过
		}
	}
}

// CheckRotate 文件超过配置的大小时轮转
func (l *Logger) CheckRotate(cfg *config.Config) error {
	maxSize, err := ParseSize(cfg.LogMaxSize)
	if err != nil {
		return err
	}

	l.core.mu.Lock()
	file := l.core.file
	l.core.mu.Unlock()
	if file == nil {
		return nil
	}

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("读取日志文件信息失败: %w", err)
	}

	if info.Size() > maxSize {
		return l.rotateLog()
	}
	return nil
}

func (l *Logger) rotateLog() error {
	c := l.core
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.file != nil {
		c.file.Close()
		ext := filepath.Ext(c.filename)
		rotated := fmt.Sprintf("%s.%s%s", strings.TrimSuffix(c.filename, ext), time.Now().Format("20060102150405"), ext)
		if err := os.Rename(c.filename, rotated); err != nil {
			return fmt.Errorf("日志轮转失败: %w", err)
		}
	}

	file, err := openLogFile(c.filename)
	if err != nil {
		return err
	}
	c.file = file
	return nil
}

// Subscribe 订阅日志消息
// 返回值:
//
//	<-chan string: 只读通道，用于接收日志消息
func (l *Logger) Subscribe() <-chan string {
	l.core.mu.Lock()
	defer l.core.mu.Unlock()

	ch := make(chan string, 100)
	l.core.subscribers = append(l.core.subscribers, ch)
	return ch
}

// Unsubscribe 取消订阅并关闭通道
func (l *Logger) Unsubscribe(sub <-chan string) {
	l.core.mu.Lock()
	defer l.core.mu.Unlock()

	for i, ch := range l.core.subscribers {
		if ch == sub {
			l.core.subscribers = append(l.core.subscribers[:i], l.core.subscribers[i+1:]...)
			close(ch)
			return
		}
	}
}

// String 实现LogLevel的String方法
func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARNING:
		return "WARNING"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) slog() slog.Level {
	switch l {
	case DEBUG:
		return slog.LevelDebug
	case WARNING:
		return slog.LevelWarn
	case ERROR:
		return slog.LevelError
	case FATAL:
		return levelFatal
	default:
		return slog.LevelInfo
	}
}

func fromSlog(lvl slog.Level) LogLevel {
	switch {
	case lvl >= levelFatal:
		return FATAL
	case lvl >= slog.LevelError:
		return ERROR
	case lvl >= slog.LevelWarn:
		return WARNING
	case lvl >= slog.LevelInfo:
		return INFO
	default:
		return DEBUG
	}
}

// ParseSize 解析 "10 * 1024 * 1024" 形式的大小表达式
func ParseSize(expr string) (int64, error) {
	parts := strings.Split(expr, "*")
	var result int64 = 1
	for _, part := range parts {
		num, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("无效的日志大小 %q: %w", expr, err)
		}
		result *= num
	}
	return result, nil
}

// 以下是快捷日志方法
func (l *Logger) Debug(msg string, args ...any)   { l.Log(DEBUG, msg, args...) }   // 记录调试信息
func (l *Logger) Info(msg string, args ...any)    { l.Log(INFO, msg, args...) }    // 记录普通信息
func (l *Logger) Warning(msg string, args ...any) { l.Log(WARNING, msg, args...) } // 记录警告信息
func (l *Logger) Error(msg string, args ...any)   { l.Log(ERROR, msg, args...) }   // 记录错误信息
func (l *Logger) Fatal(msg string, args ...any)   { l.Log(FATAL, msg, args...) }   // 记录致命错误
