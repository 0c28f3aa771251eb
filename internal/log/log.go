package log

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

type Options struct {
	Service string
	Level   string
	// Format is "json" (default) or "console".
	Format string
	// File, when set, receives a copy of every line.
	File   string
	Output io.Writer
}

var (
	mu   sync.RWMutex
	base = zerolog.New(os.Stdout).With().Timestamp().Logger()
)

// Setup replaces the process logger. The returned closer releases the log
// file, if one was opened.
func Setup(opts Options) (io.Closer, error) {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if strings.EqualFold(opts.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		out = io.MultiWriter(out, f)
		closer = f
	}

	zerolog.TimeFieldFormat = time.RFC3339
	l := zerolog.New(out).With().Timestamp().Str("service", opts.Service).Logger().Level(ParseLevel(opts.Level))

	mu.Lock()
	base = l
	mu.Unlock()
	return closer, nil
}

func ParseLevel(value string) zerolog.Level {
	s := strings.ToLower(strings.TrimSpace(value))
	if s == "" {
		return zerolog.InfoLevel
	}
	if lvl, err := zerolog.ParseLevel(s); err == nil {
		return lvl
	}
	return zerolog.InfoLevel
}

// L returns the process logger for code that runs outside a request.
func L() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := base
	return &l
}

func write(ev *zerolog.Event, kind string, c *fiber.Ctx, action string, err error, fields map[string]any) {
	ev = ev.Str("kind", kind).Str("action", action)
	if c != nil {
		ev = ev.Str("ip", c.IP()).Str("method", c.Method()).Str("path", c.Path()).
			Int("status", c.Response().StatusCode())
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			ev = ev.Str("req_id", rid)
		}
		if uid := userID(c); uid != "" {
			ev = ev.Str("user_id", uid)
		}
	}
	if err != nil {
		ev = ev.Err(err)
	}
	if len(fields) > 0 {
		ev = ev.Fields(fields)
	}
	ev.Send()
}

type identified interface{ UserID() string }

func userID(c *fiber.Ctx) string {
	if u, ok := c.Locals("user").(identified); ok && u != nil {
		return u.UserID()
	}
	return ""
}

func Info(c *fiber.Ctx, action string, fields map[string]any) {
	write(L().Info(), "info", c, action, nil, fields)
}

func Audit(c *fiber.Ctx, action string, fields map[string]any) {
	write(L().Info(), "audit", c, action, nil, fields)
}

func Security(c *fiber.Ctx, action string, fields map[string]any) {
	write(L().Warn(), "security", c, action, nil, fields)
}

func Error(c *fiber.Ctx, action string, err error, fields map[string]any) {
	write(L().Error(), "error", c, action, err, fields)
}

type accessWriter struct{}

// AccessWriter adapts fiber's logger middleware output into "access"
// entries on the process logger.
func AccessWriter() io.Writer { return accessWriter{} }

func (accessWriter) Write(p []byte) (int, error) {
	L().Info().Str("kind", "access").Msg(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
