package notify

import (
	"context"

	"ats-evaluator/internal/logger"
	"ats-evaluator/internal/processor"

	"github.com/rs/zerolog"
)

var (
	_ processor.ProgressNotifier = (*Hub)(nil)
	_ processor.ProgressNotifier = (*AMQPNotifier)(nil)
	_ processor.ProgressNotifier = (*LogNotifier)(nil)
	_ processor.ProgressNotifier = MultiNotifier(nil)
	_ processor.ProgressNotifier = NoopNotifier{}
)

// LogNotifier 把进度写入日志
type LogNotifier struct {
	logger *zerolog.Logger
}

func NewLogNotifier(l *zerolog.Logger) *LogNotifier {
	if l == nil {
		l = &logger.Logger
	}
	return &LogNotifier{logger: l}
}

func (n *LogNotifier) Notify(_ context.Context, sessionID, message string, percent int) {
	n.logger.Info().
		Str("session_id", sessionID).
		Int("percent", percent).
		Str("message", message).
		Msg("评估进度")
}

// MultiNotifier 依次转发给所有下游
type MultiNotifier []processor.ProgressNotifier

// NewMultiNotifier 忽略 nil
func NewMultiNotifier(notifiers ...processor.ProgressNotifier) MultiNotifier {
	out := make(MultiNotifier, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

func (m MultiNotifier) Notify(ctx context.Context, sessionID, message string, percent int) {
	for _, n := range m {
		n.Notify(ctx, sessionID, message, percent)
	}
}

type NoopNotifier struct{}

func (NoopNotifier) Notify(context.Context, string, string, int) {}
