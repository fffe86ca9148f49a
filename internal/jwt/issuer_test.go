package jwt

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/devtoken/internal/metrics"
)

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func newTestIssuer(t *testing.T, opts ...Option) *Issuer {
	t.Helper()
	p8, _ := newP8(t)
	iss, err := NewIssuer(p8, "TEAM123", "KEY456", opts...)
	require.NoError(t, err)
	return iss
}

func claimInt(t *testing.T, c map[string]any, name string) int64 {
	t.Helper()
	v, ok := c[name].(float64)
	require.True(t, ok, "claim %s missing or not numeric: %#v", name, c[name])
	return int64(v)
}

func TestIssueSeconds_HeaderAndClaims(t *testing.T) {
	iss := newTestIssuer(t)

	tok, err := iss.IssueSeconds(3600)
	require.NoError(t, err)
	require.Len(t, strings.Split(tok, "."), 3)

	d, err := Inspect(tok)
	require.NoError(t, err)
	assert.Equal(t, "ES256", d.Header["alg"])
	assert.Equal(t, "KEY456", d.Header["kid"])
	assert.Equal(t, "TEAM123", d.Claims["iss"])

	iat := claimInt(t, d.Claims, "iat")
	assert.Equal(t, iat, claimInt(t, d.Claims, "nbf"))
	assert.Equal(t, int64(3600), claimInt(t, d.Claims, "exp")-iat)
	assert.InDelta(t, time.Now().Unix(), iat, 5)

	// sólo iss/iat/nbf/exp
	assert.Len(t, d.Claims, 4)
}

func TestMint_UsesClockInUTC(t *testing.T) {
	loc := time.FixedZone("UTC-3", -3*3600)
	now := time.Date(2026, 10, 17, 9, 30, 15, 999, loc)
	iss := newTestIssuer(t, WithClock(fixedClock(now)))

	a, err := iss.Mint(2 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, now.Unix(), a.IssuedAt.Unix())
	assert.Equal(t, time.UTC, a.IssuedAt.Location())
	assert.Equal(t, 2*time.Hour, a.ExpiresAt.Sub(a.IssuedAt))
	assert.Equal(t, "TEAM123", a.Issuer)
	assert.Equal(t, "KEY456", a.KeyID)

	d, err := Inspect(a.Token)
	require.NoError(t, err)
	assert.Equal(t, now.Unix(), claimInt(t, d.Claims, "iat"))
	assert.Equal(t, now.Unix(), claimInt(t, d.Claims, "nbf"))
	assert.Equal(t, now.Add(2*time.Hour).Unix(), claimInt(t, d.Claims, "exp"))
}

func TestIssueSeconds_ValidRange(t *testing.T) {
	iss := newTestIssuer(t)
	for _, secs := range []int64{1, 59, 3600, 86400 * 30, MaxValiditySeconds} {
		tok, err := iss.IssueSeconds(secs)
		require.NoError(t, err, "secs=%d", secs)
		d, err := Inspect(tok)
		require.NoError(t, err)
		assert.Equal(t, secs, claimInt(t, d.Claims, "exp")-claimInt(t, d.Claims, "iat"))
	}
}

func TestIssueSeconds_OutOfRange(t *testing.T) {
	iss := newTestIssuer(t)
	for _, secs := range []int64{0, -1, MaxValiditySeconds + 1, 1 << 62} {
		tok, err := iss.IssueSeconds(secs)
		assert.Empty(t, tok)
		assert.True(t, errors.Is(err, ErrInvalidArgument), "secs=%d err=%v", secs, err)
	}
}

func TestIssueFor_Duration(t *testing.T) {
	iss := newTestIssuer(t, WithClock(fixedClock(time.Unix(1_700_000_000, 0))))

	a, err := iss.Mint(1500 * time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, time.Second, a.ExpiresAt.Sub(a.IssuedAt), "sub-second part is truncated")

	_, err = iss.IssueFor(MaxValidity)
	require.NoError(t, err)

	for _, d := range []time.Duration{0, -time.Minute, 999 * time.Millisecond, MaxValidity + time.Nanosecond, MaxValidity + time.Hour} {
		_, err := iss.IssueFor(d)
		assert.ErrorIs(t, err, ErrInvalidArgument, "d=%s", d)
	}
}

func TestIssue_DefaultValidity(t *testing.T) {
	t.Run("no default", func(t *testing.T) {
		iss := newTestIssuer(t)
		_, err := iss.Issue()
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("default from option", func(t *testing.T) {
		iss := newTestIssuer(t, WithDefaultValidity(20*time.Minute))
		assert.Equal(t, 20*time.Minute, iss.DefaultValidity())
		tok, err := iss.Issue()
		require.NoError(t, err)
		d, err := Inspect(tok)
		require.NoError(t, err)
		assert.Equal(t, int64(1200), claimInt(t, d.Claims, "exp")-claimInt(t, d.Claims, "iat"))
	})

	t.Run("default over max fails construction", func(t *testing.T) {
		p8, _ := newP8(t)
		iss, err := NewIssuer(p8, "TEAM123", "KEY456", WithDefaultValidity(MaxValidity+time.Second))
		assert.Nil(t, iss)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("setter keeps previous on error", func(t *testing.T) {
		iss := newTestIssuer(t, WithDefaultValidity(time.Hour))
		err := iss.SetDefaultValidity(MaxValidity + time.Second)
		assert.ErrorIs(t, err, ErrInvalidArgument)
		assert.Equal(t, time.Hour, iss.DefaultValidity())

		require.NoError(t, iss.SetDefaultValidity(MaxValidity))
		assert.Equal(t, MaxValidity, iss.DefaultValidity())
	})
}

func TestIssue_DistinctSignatures(t *testing.T) {
	// mismo reloj => mismas claims; la firma ECDSA igual debe cambiar
	iss := newTestIssuer(t, WithClock(fixedClock(time.Unix(1_700_000_000, 0))))
	a, err := iss.IssueSeconds(60)
	require.NoError(t, err)
	b, err := iss.IssueSeconds(60)
	require.NoError(t, err)

	pa, pb := strings.Split(a, "."), strings.Split(b, ".")
	assert.Equal(t, pa[0], pb[0])
	assert.Equal(t, pa[1], pb[1])
	assert.NotEqual(t, pa[2], pb[2])
}

func TestNewIssuer_Errors(t *testing.T) {
	p8, _ := newP8(t)

	_, err := NewIssuer("not a key", "TEAM123", "KEY456")
	assert.ErrorIs(t, err, ErrKeyFormat)

	_, err = NewIssuer(p8, "  ", "KEY456")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = NewIssuer(p8, "TEAM123", "")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestIssue_VerifiesWithAccountKey(t *testing.T) {
	iss := newTestIssuer(t)
	tok, err := iss.IssueSeconds(600)
	require.NoError(t, err)

	claims, err := ParseES256(tok, iss.Account().PublicKey(), "TEAM123")
	require.NoError(t, err)
	assert.Equal(t, "TEAM123", claims["iss"])

	other := newTestIssuer(t)
	_, err = ParseES256(tok, other.Account().PublicKey(), "TEAM123")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseES256(tok, iss.Account().PublicKey(), "OTHER")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssue_Concurrent(t *testing.T) {
	iss := newTestIssuer(t, WithDefaultValidity(time.Hour))
	pub := iss.Account().PublicKey()

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for n := 0; n < 32; n++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if n%4 == 0 {
				_ = iss.SetDefaultValidity(time.Duration(n+1) * time.Minute)
			}
			tok, err := iss.Issue()
			if err == nil {
				_, err = ParseES256(tok, pub, "TEAM123")
			}
			errs <- err
		}(n)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestIssue_RecordsMetrics(t *testing.T) {
	iss := newTestIssuer(t)
	okBefore := testutil.ToFloat64(metrics.TokensIssued)
	failBefore := testutil.ToFloat64(metrics.IssueFailures.WithLabelValues(ErrInvalidArgument.Code))

	_, err := iss.IssueSeconds(60)
	require.NoError(t, err)
	_, err = iss.IssueSeconds(0)
	require.Error(t, err)

	assert.Equal(t, okBefore+1, testutil.ToFloat64(metrics.TokensIssued))
	assert.Equal(t, failBefore+1, testutil.ToFloat64(metrics.IssueFailures.WithLabelValues(ErrInvalidArgument.Code)))
}
