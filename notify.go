package dobhasi

import (
	"context"

	"go.uber.org/zap"
)

// Notice is a user-visible message about a failed translation batch.
type Notice struct {
	Kind     ErrorKind
	Language Language
	Count    int // Number of texts shown untranslated
	Message  string
}

// Notifier surfaces translation failures to the user.
type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, n Notice)

// Notify calls f(ctx, n).
func (f NotifierFunc) Notify(ctx context.Context, n Notice) {
	f(ctx, n)
}

// LogNotifier writes notices to a zap logger.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a notifier that logs at warn level.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(_ context.Context, notice Notice) {
	n.logger.Warn(notice.Message,
		zap.String("kind", notice.Kind.String()),
		zap.String("lang", string(notice.Language)),
		zap.Int("count", notice.Count),
	)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, Notice) {}

// noticeFor builds the notice shown for a failed batch. Rate-limit failures
// produce no notice.
func noticeFor(kind ErrorKind, lang Language, count int) (Notice, bool) {
	switch kind {
	case KindNone, KindRateLimited:
		return Notice{}, false
	case KindQuotaExceeded:
		return Notice{
			Kind:     kind,
			Language: lang,
			Count:    count,
			Message:  "Translation is unavailable right now. Showing original text.",
		}, true
	default:
		return Notice{
			Kind:     kind,
			Language: lang,
			Count:    count,
			Message:  "Translation failed. Showing original text.",
		}, true
	}
}
