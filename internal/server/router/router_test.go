package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mamadbah2/aviario/internal/config"
	"github.com/mamadbah2/aviario/internal/repository/sqlstore"
	"github.com/mamadbah2/aviario/internal/server/handlers"
	"github.com/mamadbah2/aviario/internal/service/batches"
	"github.com/mamadbah2/aviario/internal/service/commands"
	"github.com/mamadbah2/aviario/internal/service/finance"
	"github.com/mamadbah2/aviario/internal/service/husbandry"
	"github.com/mamadbah2/aviario/internal/service/indicators"
	"github.com/mamadbah2/aviario/internal/service/reporting"
	"github.com/mamadbah2/aviario/internal/service/targets"
	"github.com/mamadbah2/aviario/internal/service/whatsapp"
	"github.com/mamadbah2/aviario/internal/telemetry"
)

func newTestRouter(t *testing.T, metrics *telemetry.Metrics) http.Handler {
	t.Helper()
	store, err := sqlstore.Open(context.Background(), sqlstore.DialectSQLite, filepath.Join(t.TempDir(), "router.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	batchSvc := batches.NewService(store, nil)
	indicatorSvc := indicators.NewService(store, metrics, nil)
	reportingSvc := reporting.NewService(store, indicatorSvc, nil, nil, metrics, nil)
	dispatcher := commands.NewService(batchSvc, indicatorSvc, reportingSvc, nil)
	messaging := whatsapp.NewMetaWhatsAppService(config.WhatsAppConfig{VerifyToken: "secret"}, nil, dispatcher, nil)

	return New(Handlers{
		Webhook:    handlers.NewWebhookHandler(messaging, nil),
		Batches:    handlers.NewBatchHandler(batchSvc, metrics, nil),
		Indicators: handlers.NewIndicatorHandler(indicatorSvc, nil, nil),
		Finance:    handlers.NewFinanceHandler(finance.NewService(store, nil), nil),
		Husbandry:  handlers.NewHusbandryHandler(husbandry.NewService(store, nil), nil),
		Targets:    handlers.NewTargetHandler(targets.NewService(store, nil, "", nil), nil),
	}, metrics, nil)
}

func serve(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Healthz(t *testing.T) {
	r := newTestRouter(t, nil)

	rec := serve(r, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("healthz = %d %s", rec.Code, rec.Body.String())
	}
	if rec := serve(r, http.MethodGet, "/metrics", ""); rec.Code != http.StatusNotFound {
		t.Errorf("metrics without telemetry: status %d", rec.Code)
	}
}

func TestRouter_MetricsByRouteTemplate(t *testing.T) {
	metrics := telemetry.New()
	r := newTestRouter(t, metrics)

	serve(r, http.MethodGet, "/api/batches/one", "")
	serve(r, http.MethodGet, "/api/batches/two", "")
	serve(r, http.MethodGet, "/nowhere", "")

	rec := serve(r, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: status %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `aviario_http_requests_total{method="GET",route="/api/batches/:id",status="404"} 2`) {
		t.Errorf("route template series missing:\n%s", body)
	}
	if !strings.Contains(body, `route="unmatched"`) {
		t.Errorf("unmatched series missing")
	}
	if strings.Contains(body, "/api/batches/one") {
		t.Errorf("raw path leaked into labels")
	}
}

func TestRouter_BatchLifecycleAndCommand(t *testing.T) {
	metrics := telemetry.New()
	r := newTestRouter(t, metrics)

	rec := serve(r, http.MethodPost, "/api/batches", `{"code":"L-01","breed":"Cobb 500","housed_at":"2026-01-05","housed_birds":1000}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = serve(r, http.MethodPut, "/api/targets", `{"breed":"cobb 500","week_of_age":1,"weight_grams":190}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("upsert target: status %d", rec.Code)
	}

	rec = serve(r, http.MethodGet, "/api/batches?status=active", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"code":"L-01"`) {
		t.Errorf("list = %d %s", rec.Code, rec.Body.String())
	}

	rec = serve(r, http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=secret&hub.challenge=abc", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "abc" {
		t.Errorf("verify = %d %q", rec.Code, rec.Body.String())
	}

	payload := `{"object":"whatsapp_business_account","entry":[{"id":"1","changes":[{"field":"messages","value":{"messages":[{"from":"55","id":"wamid.1","type":"text","text":{"body":"/lote L-01"}}]}}]}]}`
	if rec := serve(r, http.MethodPost, "/webhook", payload); rec.Code != http.StatusOK {
		t.Errorf("webhook: status %d", rec.Code)
	}

	body := serve(r, http.MethodGet, "/metrics", "").Body.String()
	if !strings.Contains(body, `aviario_indicator_computations_total{target_status="matched"} 1`) {
		t.Errorf("command did not compute indicators:\n%s", body)
	}
}
