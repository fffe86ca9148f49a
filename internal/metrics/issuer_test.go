package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterIssuer_Idempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, RegisterIssuer(reg))
	require.NoError(t, RegisterIssuer(reg))

	ObserveIssued(2 * time.Millisecond)
	ObserveFailure("key_format")

	n, err := testutil.GatherAndCount(reg,
		"devtoken_tokens_issued_total",
		"devtoken_issue_failures_total",
		"devtoken_sign_duration_seconds",
	)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 3)
}

func TestObserveFailure_UnknownCode(t *testing.T) {
	before := testutil.ToFloat64(IssueFailures.WithLabelValues("unknown"))
	ObserveFailure("")
	assert.Equal(t, before+1, testutil.ToFloat64(IssueFailures.WithLabelValues("unknown")))
}

func TestObserveIssued(t *testing.T) {
	before := testutil.ToFloat64(TokensIssued)
	ObserveIssued(time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(TokensIssued))
}
