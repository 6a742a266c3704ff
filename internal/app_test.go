package internal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haMahdiyar/analyzer-galxe-refdrop/internal/config"
	"github.com/haMahdiyar/analyzer-galxe-refdrop/internal/domain"
)

// deadRPC returns the URL of a server that is no longer listening.
func deadRPC(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	return srv.URL
}

func testConfig(t *testing.T) config.Config {
	rpc := deadRPC(t)
	return config.Config{
		HTTPAddr:       "127.0.0.1:0",
		RPCCallTimeout: time.Second,
		AllowedOrigins: []string{"https://galxe.com"},
		Networks: []domain.Network{
			{Name: "A", RPCURL: rpc, ReferralContract: "0xB78F9d52405DcF40D6fC684032fDaf658dA67725"},
			{Name: "B", RPCURL: rpc, ReferralContract: "0xAd2969f87Def708FE5BaCbA4662a9e704dE8cdC4"},
		},
		ScoreCachePrefix: "test:score",
	}
}

func TestAppServesZeroWhenNetworksAreDown(t *testing.T) {
	app, err := NewApp(context.Background(), testConfig(t), zerolog.Nop())
	require.NoError(t, err)
	defer app.Close()

	for _, target := range []string{
		"/api/score?address=0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		"/api/score?type=subscription&address=0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		"/api/check?address=0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
	} {
		rr := httptest.NewRecorder()
		app.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusOK, rr.Code, target)
		assert.JSONEq(t, `{"score":0}`, rr.Body.String(), target)
	}
}

func TestAppWiresRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.RedisAddr = mr.Addr()
	cfg.ScoreCacheTTL = time.Minute

	app, err := NewApp(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer app.Close()

	rr := httptest.NewRecorder()
	app.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet,
		"/api/score?address=0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	val, err := mr.Get("test:score:referral:count:0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed")
	require.NoError(t, err)
	assert.Equal(t, "0", val)
}

func TestAppRunStopsOnCancel(t *testing.T) {
	app, err := NewApp(context.Background(), testConfig(t), zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
}

func TestNewAppRejectsBadRPCURL(t *testing.T) {
	cfg := testConfig(t)
	cfg.Networks[1].RPCURL = "ftp://nowhere"
	_, err := NewApp(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)
}
