package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	tomlrepo "github.com/bnema/finagents/internal/adapters/repo/toml"
	"github.com/bnema/finagents/internal/domain"
	"github.com/bnema/finagents/internal/version"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tickersFixture = `{"0": {"cik_str": 1045810, "ticker": "NVDA", "title": "NVIDIA CORP"}}`

const factsFixture = `{
	"entityName": "NVIDIA CORP",
	"facts": {"us-gaap": {
		"NetIncomeLoss": {"units": {"USD": [
			{"end": "2025-01-26", "val": 72880000000, "accn": "0001045810-25-000023", "form": "10-K", "filed": "2025-02-26"}
		]}},
		"StockholdersEquity": {"units": {"USD": [
			{"end": "2025-01-26", "val": 79327000000, "accn": "0001045810-25-000023", "form": "10-K", "filed": "2025-02-26"}
		]}}
	}}
}`

const submissionsFixture = `{
	"name": "NVIDIA CORP",
	"tickers": ["NVDA"],
	"exchanges": ["Nasdaq"],
	"sic": "3674",
	"sicDescription": "Semiconductors & Related Devices",
	"stateOfIncorporation": "DE",
	"filings": {"recent": {"accessionNumber": [], "filingDate": [], "reportDate": [], "form": []}}
}`

const chartFixture = `{"chart":{"result":[{
	"meta":{"currency":"USD","symbol":"NVDA"},
	"timestamp":[1767277800,1767364200,1767623400],
	"indicators":{"quote":[{"close":[140.5,141.0,142.25]}]}
}],"error":null}}`

// upstreamFixture serves every outbound dependency from one test server and
// points the FA_* overrides at it.
type upstreamFixture struct {
	server          *httptest.Server
	classifications atomic.Int32
}

func newUpstreamFixture(t *testing.T, plan string) *upstreamFixture {
	t.Helper()

	fixture := &upstreamFixture{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /files/company_tickers.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, tickersFixture)
	})
	mux.HandleFunc("GET /api/xbrl/companyfacts/CIK0001045810.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, factsFixture)
	})
	mux.HandleFunc("GET /submissions/CIK0001045810.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, submissionsFixture)
	})
	mux.HandleFunc("GET /v8/finance/chart/NVDA", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, chartFixture)
	})
	mux.HandleFunc("POST /llm/chat/completions", func(w http.ResponseWriter, _ *http.Request) {
		fixture.classifications.Add(1)
		// Long enough for the progress line to draw at least once.
		time.Sleep(150 * time.Millisecond)
		body, _ := json.Marshal(map[string]any{
			"choices": []map[string]any{{
				"message":       map[string]string{"role": "assistant", "content": plan},
				"finish_reason": "stop",
			}},
		})
		_, _ = w.Write(body)
	})

	fixture.server = httptest.NewServer(mux)
	t.Cleanup(fixture.server.Close)

	t.Setenv("FA_SEC_TICKERS_URL", fixture.server.URL+"/files/company_tickers.json")
	t.Setenv("FA_SEC_DATA_URL", fixture.server.URL)
	t.Setenv("FA_PRICES_BASE_URL", fixture.server.URL)
	t.Setenv("FA_LLM_BASE_URL", fixture.server.URL+"/llm")
	t.Setenv("FA_LOG_LEVEL", "error")
	return fixture
}

// startServer wires a fresh app for home and serves it on a loopback port.
func startServer(t *testing.T, home string) string {
	t.Helper()
	t.Setenv("HOME", home)

	app, err := wireApp()
	require.NoError(t, err)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- serve(ctx, app, listener, &bytes.Buffer{})
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("server did not stop")
		}
	})

	return "http://" + listener.Addr().String()
}

func TestVersionPrintsVersion(t *testing.T) {
	stdout, _, err := executeCLI(t, t.TempDir(), "version")
	require.NoError(t, err)
	assert.Equal(t, version.Version+"\n", stdout)
}

func TestAskRequiresTickerFlag(t *testing.T) {
	_, _, err := executeCLI(t, t.TempDir(), "ask", "What is the ROE?")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag(s) \"ticker\" not set")
}

func TestAskRequiresQuestion(t *testing.T) {
	_, _, err := executeCLI(t, t.TempDir(), "ask", "--ticker", "NVDA")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg(s)")
}

func TestUnknownLogFormatFailsEveryCommand(t *testing.T) {
	t.Setenv("FA_LOG_FORMAT", "xml")

	_, _, err := executeCLI(t, t.TempDir(), "version")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported log.format")
}

func TestAskRendersWorkerAnswer(t *testing.T) {
	fixture := newUpstreamFixture(t, `{"plan":[{"agent":"compinfo_agent","task":"Where is the company incorporated?"}]}`)
	home := t.TempDir()
	serverURL := startServer(t, home)

	stdout, stderr, err := executeCLI(t, home,
		"ask",
		"--ticker", "nvda",
		"--server", serverURL,
		"Where is NVIDIA incorporated?",
	)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Where is NVIDIA incorporated?")
	assert.Contains(t, stdout, "Company profile for NVDA")
	assert.Contains(t, stdout, "DE")
	assert.Contains(t, stderr, "Asking the supervisor")
	assert.Equal(t, int32(1), fixture.classifications.Load())
}

func TestAskJSONOutputPrintsOneLinePerQuestion(t *testing.T) {
	newUpstreamFixture(t, `{"plan":[{"agent":"compinfo_agent","task":"exchange"}]}`)
	home := t.TempDir()
	serverURL := startServer(t, home)

	stdout, _, err := executeCLI(t, home,
		"ask",
		"--ticker", "NVDA",
		"--server", serverURL,
		"--json",
		"Which exchange?",
		"And again?",
	)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		assert.True(t, json.Valid([]byte(line)))
		var response domain.Response
		require.NoError(t, json.Unmarshal([]byte(line), &response))
		require.Len(t, response.Entries, 1)
		assert.Equal(t, domain.SenderCompInfo, response.Entries[0].Sender)
		assert.Contains(t, response.Entries[0].Content, "Nasdaq")
	}
}

func TestAskFinishAnswerComesFromSupervisor(t *testing.T) {
	newUpstreamFixture(t, `{"finish":"I can only analyse NVDA."}`)
	home := t.TempDir()
	serverURL := startServer(t, home)

	stdout, _, err := executeCLI(t, home, "ask", "--ticker", "NVDA", "--server", serverURL, "--json", "What about Tesla?")
	require.NoError(t, err)

	var response domain.Response
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(stdout)), &response))
	require.Len(t, response.Entries, 1)
	assert.Equal(t, domain.SenderSupervisor, response.Entries[0].Sender)
	assert.Equal(t, "I can only analyse NVDA.", response.Entries[0].Content)
}

func TestAskUnknownTickerPrintsErrorToken(t *testing.T) {
	newUpstreamFixture(t, `{"plan":[]}`)
	home := t.TempDir()
	serverURL := startServer(t, home)

	stdout, _, err := executeCLI(t, home, "ask", "--ticker", "ZZZZ", "--server", serverURL, "--json", "Anything?")
	require.NoError(t, err)
	assert.Equal(t, "\"Error\"\n", stdout)
}

func TestCacheStatusShowsSavedSnapshot(t *testing.T) {
	home := t.TempDir()

	cfg := viper.New()
	cfg.Set(tomlrepo.CacheDirKey, filepath.Join(home, configDirName, "cache"))
	store, err := tomlrepo.NewStore(cfg)
	require.NoError(t, err)
	require.NoError(t, tomlrepo.NewProfileRepository(store).Save(context.Background(), domain.Snapshot[domain.CompanyProfile]{
		Ticker: "NVDA",
		AsOf:   time.Now().Add(-2 * time.Hour),
		Data:   domain.CompanyProfile{Name: "NVIDIA CORP"},
	}))

	stdout, _, err := executeCLI(t, home, "cache", "status", "--ticker", "nvda")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Cached data for NVDA")
	assert.Contains(t, stdout, "not cached")
	assert.Contains(t, stdout, "2 hours ago")
	assert.Contains(t, stdout, "[fresh]")

	stdout, _, err = executeCLI(t, home, "cache", "status", "--ticker", "NVDA", "--json")
	require.NoError(t, err)
	var rows []cacheStatusJSON
	require.NoError(t, json.Unmarshal([]byte(stdout), &rows))
	require.Len(t, rows, 3)
	assert.Equal(t, domain.SnapshotFacts, rows[0].Kind)
	assert.Nil(t, rows[0].AsOf)
	assert.True(t, rows[0].Stale)
	assert.Equal(t, domain.SnapshotProfile, rows[2].Kind)
	require.NotNil(t, rows[2].AsOf)
	assert.False(t, rows[2].Stale)
}

func TestCacheRefreshFetchesEveryKind(t *testing.T) {
	newUpstreamFixture(t, `{"plan":[]}`)
	home := t.TempDir()

	stdout, _, err := executeCLI(t, home, "cache", "refresh", "--ticker", "NVDA")
	require.NoError(t, err)
	assert.Contains(t, stdout, "refreshed facts for NVDA")
	assert.Contains(t, stdout, "refreshed prices for NVDA")
	assert.Contains(t, stdout, "refreshed profile for NVDA")

	stdout, _, err = executeCLI(t, home, "cache", "status", "--ticker", "NVDA")
	require.NoError(t, err)
	assert.NotContains(t, stdout, "not cached")
	assert.NotContains(t, stdout, "[stale]")
}

func TestCacheRefreshUnknownTicker(t *testing.T) {
	newUpstreamFixture(t, `{"plan":[]}`)

	_, _, err := executeCLI(t, t.TempDir(), "cache", "refresh", "--ticker", "ZZZZ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lookup ZZZZ")
}

func TestServeReportsHealthAndStopsOnCancel(t *testing.T) {
	newUpstreamFixture(t, `{"plan":[]}`)
	serverURL := startServer(t, t.TempDir())

	resp, err := http.Get(serverURL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	var health map[string]int
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, 0, health["sessions"])
}

func executeCLI(t *testing.T, home string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", home)

	root := newRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}
