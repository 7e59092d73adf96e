package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	Register()
	Register() // idempotent

	before := testutil.ToFloat64(chatMessagesTotal.WithLabelValues("ok"))
	IncChatMessage("ok")
	require.Equal(t, before+1, testutil.ToFloat64(chatMessagesTotal.WithLabelValues("ok")))

	added := testutil.ToFloat64(savedToggles.WithLabelValues("added"))
	IncSavedToggle(true)
	require.Equal(t, added+1, testutil.ToFloat64(savedToggles.WithLabelValues("added")))
}
