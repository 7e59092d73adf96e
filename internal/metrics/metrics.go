package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	authTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsportal_auth_total",
			Help: "Session operations by kind and outcome.",
		},
		[]string{"kind", "result"}, // kind=login|register|logout, result=ok|cancelled|error
	)

	chatMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsportal_chat_messages_total",
			Help: "Chat send attempts by outcome.",
		},
		[]string{"result"}, // ok|empty|too_long|no_session|error
	)

	chatLogSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "newsportal_chat_log_size",
			Help:    "Length of a chat log each time it is rewritten.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	savedToggles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsportal_saved_toggles_total",
			Help: "Saved-news toggles by direction.",
		},
		[]string{"action"}, // added|removed
	)

	commentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsportal_comment_actions_total",
			Help: "Comment list actions.",
		},
		[]string{"action"}, // add|like
	)

	feedImports = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsportal_feed_imports_total",
			Help: "Feed imports by outcome.",
		},
		[]string{"result"},
	)
)

// Register adds the collectors to prometheus.DefaultRegisterer once.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			authTotal,
			chatMessagesTotal,
			chatLogSize,
			savedToggles,
			commentsTotal,
			feedImports,
		)
	})
}

func IncAuth(kind, result string) { authTotal.WithLabelValues(kind, result).Inc() }

func IncChatMessage(result string) { chatMessagesTotal.WithLabelValues(result).Inc() }

func ObserveChatLogSize(n int) { chatLogSize.Observe(float64(n)) }

func IncSavedToggle(added bool) {
	action := "removed"
	if added {
		action = "added"
	}
	savedToggles.WithLabelValues(action).Inc()
}

func IncComment(action string) { commentsTotal.WithLabelValues(action).Inc() }

func IncFeedImport(result string) { feedImports.WithLabelValues(result).Inc() }
