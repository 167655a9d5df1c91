package logging

import (
	"context"
	"fmt"
	"os"
	"strings"
)

var exit = os.Exit

// PrintfLogger feeds printf-style library output, such as goose migration
// progress, into a Logger at info level. Fatalf logs at error level and exits.
type PrintfLogger struct {
	ctx context.Context
	l   Logger
}

func NewPrintfLogger(ctx context.Context, l Logger) *PrintfLogger {
	return &PrintfLogger{ctx: ctx, l: l}
}

func (p *PrintfLogger) Printf(format string, v ...any) {
	p.l.Info(p.ctx, strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (p *PrintfLogger) Fatalf(format string, v ...any) {
	p.l.Error(p.ctx, strings.TrimSpace(fmt.Sprintf(format, v...)))
	exit(1)
}
