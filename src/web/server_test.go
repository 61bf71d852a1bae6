package web

import (
	"BillionairesDashboard/src/config"
	"BillionairesDashboard/src/datasource/file"
	"BillionairesDashboard/src/processor"
	"BillionairesDashboard/src/storage"
	"BillionairesDashboard/src/telemetry"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const sampleCSV = `rank,finalWorth,category,personName,age,country,city,source,industries,countryOfCitizenship,organization,selfMade,status,gender,birthDate,lastName
1,211000,Fashion & Retail,Bernard Arnault & family,74,France,Paris,LVMH,Fashion & Retail,France,LVMH,FALSE,U,M,3/5/1949,Arnault
2,180000,Automotive,Elon Musk,51,United States,Austin,"Tesla, SpaceX",Automotive,United States,Tesla,TRUE,D,M,6/28/1971,Musk
3,114000,Technology,Jeff Bezos,,United States,Medina,Amazon,Technology,United States,Amazon,TRUE,D,M,1/12/1964,Bezos
4,107000,Technology,Larry Ellison,78,,Lanai,Oracle,Technology,United States,Oracle,TRUE,U,M,8/17/1944,Ellison
5,106000,Finance & Investments,Warren Buffett,92,United States,Omaha,Berkshire Hathaway,Finance & Investments,United States,Berkshire Hathaway,TRUE,D,M,8/30/1930,Buffett
6,80500,Fashion & Retail,Francoise Bettencourt Meyers & family,69,France,Paris,L'Oreal,Fashion & Retail,France,L'Oreal,FALSE,U,F,7/10/1953,Bettencourt Meyers
7,77000,Technology,Larry Page,,United States,Palo Alto,Google,Technology,United States,Alphabet Inc.,TRUE,D,M,3/26/1973,Page
`

type testEnv struct {
	server *Server
	cache  *file.Cache
	logger *storage.Logger
}

func newTestEnv(t *testing.T, dataFile string) *testEnv {
	t.Helper()
	dir := t.TempDir()
	if dataFile == "" {
		dataFile = filepath.Join(dir, "billionaires.csv")
		require.NoError(t, os.WriteFile(dataFile, []byte(sampleCSV), 0644))
	}

	cfg := config.Default()
	cfg.DataFile = dataFile
	cfg.EnableMetrics = true

	logger, err := storage.NewLogger(filepath.Join(dir, "app.log"))
	require.NoError(t, err)
	t.Cleanup(func() { logger.Close() })

	metrics := telemetry.NewMetrics()
	cache := file.NewCache(file.SchemaLoader(file.DefaultSchema(), cfg.SheetName), metrics)
	pipeline := processor.NewPipeline(logger, metrics)

	s, err := NewServer(cfg, config.DefaultChartConfig(), cache, pipeline, logger, metrics)
	require.NoError(t, err)
	return &testEnv{server: s, cache: cache, logger: logger}
}

func (e *testEnv) do(method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeDashboard(t *testing.T, rec *httptest.ResponseRecorder) processor.Dashboard {
	t.Helper()
	var d processor.Dashboard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
	return d
}

func TestIndexPage(t *testing.T) {
	env := newTestEnv(t, "")
	rec := env.do(http.MethodGet, "/")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	body := rec.Body.String()
	assert.Contains(t, body, pageTitle)
	for _, name := range []string{"Países", "Indústrias", "Idade", "Self-made", "Gênero", "Patrimônio"} {
		assert.Contains(t, body, name)
	}
	assert.Contains(t, body, `name="countries"`)
	assert.Contains(t, body, `name="age_min" min="51" max="92"`)
	assert.Contains(t, body, `<img src="data:image/svg`)
	assert.NotContains(t, body, "ZgotmplZ")
}

func TestIndexKeepsActiveTab(t *testing.T) {
	env := newTestEnv(t, "")

	body := env.do(http.MethodGet, "/?age_min=60&tab=idade").Body.String()
	assert.Contains(t, body, `id="tab-idade" value="idade" checked`)
	assert.NotContains(t, body, `id="tab-paises" value="paises" checked`)
	assert.Contains(t, body, `name="tab" id="active-tab" value="idade"`)

	body = env.do(http.MethodGet, "/?tab=nope").Body.String()
	assert.Contains(t, body, `id="tab-paises" value="paises" checked`)
	assert.Contains(t, body, `name="tab" id="active-tab" value="paises"`)
}

func TestIndexDataLoadFailure(t *testing.T) {
	env := newTestEnv(t, filepath.Join(t.TempDir(), "missing.csv"))
	rec := env.do(http.MethodGet, "/")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, dataLoadMessage)
	assert.NotContains(t, body, "<img")
	assert.NotContains(t, body, "missing.csv")
}

func TestIndexInvalidParams(t *testing.T) {
	env := newTestEnv(t, "")

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/?countries=0").Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/?industries=19").Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/?age_min=abc").Code)
}

func TestIndexEmptyFilter(t *testing.T) {
	env := newTestEnv(t, "")
	rec := env.do(http.MethodGet, "/?age_min=60&age_max=60")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Sem dados para a faixa selecionada")
	assert.Contains(t, body, `class="empty"`)
}

func TestDashboardAPI(t *testing.T) {
	env := newTestEnv(t, "")
	rec := env.do(http.MethodGet, "/api/dashboard?countries=1&age_min=70&age_max=80")
	require.Equal(t, http.StatusOK, rec.Code)

	d := decodeDashboard(t, rec)
	assert.Equal(t, 7, d.Total)
	assert.Equal(t, 4, d.Rows)
	assert.Equal(t, processor.FilterParams{TopNCountries: 1, TopNIndustries: 10, AgeMin: 70, AgeMax: 80}, d.Params)
	assert.Equal(t, []processor.Count{{Key: "United States", Count: 3}}, d.TopCountries)
	for _, a := range d.Ages {
		assert.True(t, a >= 70 && a <= 80, a)
	}
}

func TestDashboardAPIDefaultsAndClamping(t *testing.T) {
	env := newTestEnv(t, "")

	d := decodeDashboard(t, env.do(http.MethodGet, "/api/dashboard"))
	assert.Equal(t, processor.DefaultParams(51, 92), d.Params)
	assert.Equal(t, 7, d.Rows)

	d = decodeDashboard(t, env.do(http.MethodGet, "/api/dashboard?age_min=0&age_max=500"))
	assert.Equal(t, 51, d.Params.AgeMin)
	assert.Equal(t, 92, d.Params.AgeMax)
}

func TestDashboardAPIErrors(t *testing.T) {
	env := newTestEnv(t, "")

	rec := env.do(http.MethodGet, "/api/dashboard?countries=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "countries")

	rec = env.do(http.MethodGet, "/api/dashboard?age_min=90&age_max=60")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	missing := newTestEnv(t, filepath.Join(t.TempDir(), "missing.csv"))
	rec = missing.do(http.MethodGet, "/api/dashboard")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"`+dataLoadMessage+`"}`, rec.Body.String())
}

func TestChartEndpoint(t *testing.T) {
	env := newTestEnv(t, "")

	rec := env.do(http.MethodGet, "/api/charts/age.svg")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<svg")

	rec = env.do(http.MethodGet, "/api/charts/countries.svg?age_min=60&age_max=60")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Sem dados")

	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/api/charts/nope.svg").Code)
}

func TestExportEndpoint(t *testing.T) {
	env := newTestEnv(t, "")
	rec := env.do(http.MethodGet, "/export.xlsx?countries=2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "billionaires.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Países")
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestClearCache(t *testing.T) {
	env := newTestEnv(t, "")
	require.Equal(t, http.StatusOK, env.do(http.MethodGet, "/healthz").Code)
	require.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/dashboard").Code)
	assert.Equal(t, 1, env.cache.Len())

	rec := env.do(http.MethodPost, "/api/cache/clear")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"cleared":1}`, rec.Body.String())
	assert.Equal(t, 0, env.cache.Len())

	assert.Equal(t, http.StatusMethodNotAllowed, env.do(http.MethodGet, "/api/cache/clear").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, "")
	env.do(http.MethodGet, "/api/dashboard")
	env.do(http.MethodGet, "/api/dashboard?countries=99")

	rec := env.do(http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `billionaires_render_cycles_total{outcome="ok"} 1`)
	assert.Contains(t, body, `billionaires_render_cycles_total{outcome="invalid"} 1`)
}

func TestMetricsCountLoadFailures(t *testing.T) {
	env := newTestEnv(t, filepath.Join(t.TempDir(), "missing.csv"))
	require.Equal(t, http.StatusInternalServerError, env.do(http.MethodGet, "/").Code)
	require.Equal(t, http.StatusInternalServerError, env.do(http.MethodGet, "/api/dashboard").Code)

	body := env.do(http.MethodGet, "/metrics").Body.String()
	assert.Contains(t, body, `billionaires_render_cycles_total{outcome="load_failed"} 2`)
	assert.NotContains(t, body, `outcome="ok"`)
}

func TestLogStream(t *testing.T) {
	env := newTestEnv(t, "")
	srv := httptest.NewServer(env.server.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/logs"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// 订阅在握手之后才发生，持续写日志直到收到
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				env.logger.Info("hello websocket")
			}
		}
	}()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(msg), `msg="hello websocket"`)
}

func TestParseParams(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?countries=5&age_min=10&age_max=+80", nil)
	p, err := parseParams(req, 18, 100)
	require.NoError(t, err)
	assert.Equal(t, processor.FilterParams{TopNCountries: 5, TopNIndustries: 10, AgeMin: 18, AgeMax: 80}, p)

	req = httptest.NewRequest(http.MethodGet, "/?industries=1.5", nil)
	_, err = parseParams(req, 18, 100)
	assert.ErrorIs(t, err, processor.ErrInvalidParams)
}
