package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/aviario/internal/domain/models"
	"github.com/mamadbah2/aviario/internal/repository/mongodb"
	"github.com/mamadbah2/aviario/internal/repository/sqlstore"
	"github.com/mamadbah2/aviario/internal/service/batches"
	"github.com/mamadbah2/aviario/internal/service/finance"
	"github.com/mamadbah2/aviario/internal/service/husbandry"
	"github.com/mamadbah2/aviario/internal/service/indicators"
	"github.com/mamadbah2/aviario/internal/service/targets"
	"github.com/mamadbah2/aviario/internal/service/validation"
)

type countingRecorder struct{ n int }

func (r *countingRecorder) WeeklySubmitted() { r.n++ }

func newTestEngine(t *testing.T) (*gin.Engine, *countingRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := sqlstore.Open(context.Background(), sqlstore.DialectSQLite, filepath.Join(t.TempDir(), "http.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	recorder := &countingRecorder{}
	bh := NewBatchHandler(batches.NewService(store, nil), recorder, nil)
	ih := NewIndicatorHandler(indicators.NewService(store, nil, nil), nil, nil)
	fh := NewFinanceHandler(finance.NewService(store, nil), nil)
	hh := NewHusbandryHandler(husbandry.NewService(store, nil), nil)
	th := NewTargetHandler(targets.NewService(store, nil, "", nil), nil)

	r := gin.New()
	r.POST("/batches", bh.Create)
	r.GET("/batches", bh.List)
	r.GET("/batches/:id", bh.Get)
	r.POST("/batches/:id/finalize", bh.Finalize)
	r.POST("/batches/:id/weeks", bh.SubmitWeek)
	r.GET("/batches/:id/weeks", bh.Weeks)
	r.GET("/batches/:id/weeks/:week/history", bh.WeekHistory)
	r.GET("/batches/:id/weekly-form", bh.FormDefaults)
	r.GET("/batches/:id/indicators", ih.Get)
	r.GET("/batches/:id/indicators.csv", ih.CSV)
	r.GET("/batches/:id/indicators/latest-report", ih.LatestSnapshot)
	r.POST("/batches/:id/costs", fh.AddCost)
	r.POST("/batches/:id/revenues", fh.AddRevenue)
	r.GET("/batches/:id/finance", fh.Summary)
	r.POST("/batches/:id/eggs", hh.AddEggs)
	r.GET("/batches/:id/eggs", hh.Eggs)
	r.POST("/batches/:id/water", hh.AddWater)
	r.POST("/batches/:id/treatments", hh.AddTreatment)
	r.GET("/batches/:id/treatments", hh.Treatments)
	r.PUT("/targets", th.Upsert)
	r.GET("/targets", th.List)
	r.GET("/targets/breeds", th.Breeds)
	r.DELETE("/targets/:id", th.Delete)
	r.POST("/targets/import", th.Import)
	return r, recorder
}

func do(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func createBatch(t *testing.T, r http.Handler, code string) models.Batch {
	t.Helper()
	rec := do(t, r, http.MethodPost, "/batches",
		fmt.Sprintf(`{"code":%q,"breed":"Cobb 500","house":"A1","housed_at":"2026-01-05","housed_birds":1000}`, code))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create batch: status %d body %s", rec.Code, rec.Body.String())
	}
	var b models.Batch
	decode(t, rec, &b)
	return b
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{validation.Invalid("bad"), http.StatusBadRequest},
		{&validation.Error{Fields: map[string]string{"code": "required"}}, http.StatusBadRequest},
		{fmt.Errorf("get batch x: %w", sqlstore.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("append: %w", sqlstore.ErrConflict), http.StatusConflict},
		{fmt.Errorf("submit: %w", batches.ErrBatchFinalized), http.StatusConflict},
		{fmt.Errorf("import: %w", models.ErrDisabled), http.StatusServiceUnavailable},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestBatchEndpoints(t *testing.T) {
	r, recorder := newTestEngine(t)
	batch := createBatch(t, r, "L-01")

	if rec := do(t, r, http.MethodPost, "/batches", `{"code":"L-01","housed_at":"2026-01-05","housed_birds":10}`); rec.Code != http.StatusConflict {
		t.Errorf("duplicate code: status %d", rec.Code)
	}

	rec := do(t, r, http.MethodPost, "/batches", `{"housed_at":"2026-01-05"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid batch: status %d", rec.Code)
	}
	var invalid struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	decode(t, rec, &invalid)
	if invalid.Fields["code"] != "required" || invalid.Fields["housed_birds"] != "gt" {
		t.Errorf("fields = %v", invalid.Fields)
	}

	if rec := do(t, r, http.MethodPost, "/batches", `{not json`); rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body: status %d", rec.Code)
	}
	if rec := do(t, r, http.MethodGet, "/batches/missing", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown batch: status %d", rec.Code)
	}
	if rec := do(t, r, http.MethodGet, "/batches?status=sleeping", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad status filter: status %d", rec.Code)
	}

	week := `{"week_of_age":1,"birds_in_week":1000,"daily_mortalities":[2,null,1],"weighing_date":"2026-01-12","average_weight_grams":190,"daily_feed_intake_grams":25}`
	rec = do(t, r, http.MethodPost, "/batches/"+batch.ID+"/weeks", week)
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit week: status %d body %s", rec.Code, rec.Body.String())
	}
	if recorder.n != 1 {
		t.Errorf("recorded submissions = %d", recorder.n)
	}

	rec = do(t, r, http.MethodGet, "/batches/"+batch.ID+"/weekly-form", "")
	var defaults models.WeeklyFormDefaults
	decode(t, rec, &defaults)
	if defaults.NextWeek != 2 || defaults.CurrentBirds != 997 {
		t.Errorf("defaults = %+v", defaults)
	}

	if rec := do(t, r, http.MethodGet, "/batches/"+batch.ID+"/weeks/abc/history", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad week param: status %d", rec.Code)
	}
	rec = do(t, r, http.MethodGet, "/batches/"+batch.ID+"/weeks/1/history", "")
	var history []models.WeeklySubmission
	decode(t, rec, &history)
	if len(history) != 1 || history[0].Revision != 1 {
		t.Errorf("history = %+v", history)
	}

	if rec := do(t, r, http.MethodPost, "/batches/"+batch.ID+"/finalize", ""); rec.Code != http.StatusOK {
		t.Fatalf("finalize: status %d", rec.Code)
	}
	if rec := do(t, r, http.MethodPost, "/batches/"+batch.ID+"/weeks", week); rec.Code != http.StatusConflict {
		t.Errorf("submit on finalized batch: status %d", rec.Code)
	}
	if recorder.n != 1 {
		t.Errorf("rejected submission was counted")
	}

	rec = do(t, r, http.MethodGet, "/batches?status=active", "")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("active list = %d %s", rec.Code, rec.Body.String())
	}
}

func TestIndicatorEndpoints(t *testing.T) {
	r, _ := newTestEngine(t)
	batch := createBatch(t, r, "L-02")
	do(t, r, http.MethodPost, "/batches/"+batch.ID+"/weeks",
		`{"week_of_age":1,"daily_mortalities":[5],"weighing_date":"2026-01-12","average_weight_grams":200,"daily_feed_intake_grams":20}`)

	rec := do(t, r, http.MethodGet, "/batches/"+batch.ID+"/indicators", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("indicators: status %d", rec.Code)
	}
	var got indicators.BatchIndicators
	decode(t, rec, &got)
	if got.Indicators.LatestWeek != 1 || got.Indicators.CurrentBirds != 995 || got.Indicators.TargetStatus != models.TargetsMissing {
		t.Errorf("indicators = %+v", got.Indicators)
	}

	rec = do(t, r, http.MethodGet, "/batches/"+batch.ID+"/indicators.csv", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("csv: status %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("content type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, `filename="L-02-indicators.csv"`) {
		t.Errorf("content disposition = %q", cd)
	}
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "week,") || !strings.HasPrefix(lines[1], "1,") {
		t.Errorf("csv body = %q", rec.Body.String())
	}

	if rec := do(t, r, http.MethodGet, "/batches/missing/indicators.csv", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown batch csv: status %d", rec.Code)
	}
	if rec := do(t, r, http.MethodGet, "/batches/"+batch.ID+"/indicators/latest-report", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("latest report without archive: status %d", rec.Code)
	}
}

type fakeSnapshots map[string]mongodb.IndicatorSnapshot

func (f fakeSnapshots) LatestSnapshot(_ context.Context, batchID string) (mongodb.IndicatorSnapshot, error) {
	s, ok := f[batchID]
	if !ok {
		return mongodb.IndicatorSnapshot{}, fmt.Errorf("latest snapshot %s: %w", batchID, mongodb.ErrNotFound)
	}
	return s, nil
}

func TestLatestSnapshotEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	generated := time.Date(2026, 3, 6, 23, 0, 0, 0, time.UTC)
	h := NewIndicatorHandler(nil, fakeSnapshots{"b1": {BatchID: "b1", BatchCode: "L-01", GeneratedAt: generated}}, nil)
	r := gin.New()
	r.GET("/batches/:id/indicators/latest-report", h.LatestSnapshot)

	rec := do(t, r, http.MethodGet, "/batches/b1/indicators/latest-report", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var got mongodb.IndicatorSnapshot
	decode(t, rec, &got)
	if got.BatchCode != "L-01" || !got.GeneratedAt.Equal(generated) {
		t.Errorf("snapshot = %+v", got)
	}

	if rec := do(t, r, http.MethodGet, "/batches/b2/indicators/latest-report", ""); rec.Code != http.StatusNotFound {
		t.Errorf("missing snapshot: status %d", rec.Code)
	}
}

func TestFinanceEndpoints(t *testing.T) {
	r, _ := newTestEngine(t)
	batch := createBatch(t, r, "L-03")
	base := "/batches/" + batch.ID

	if rec := do(t, r, http.MethodPost, base+"/costs", `{"date":"2026-01-06","category":"ração","amount":"100.10"}`); rec.Code != http.StatusCreated {
		t.Fatalf("add cost: status %d body %s", rec.Code, rec.Body.String())
	}
	if rec := do(t, r, http.MethodPost, base+"/revenues", `{"date":"2026-02-20","category":"venda","amount":"250"}`); rec.Code != http.StatusCreated {
		t.Fatalf("add revenue: status %d", rec.Code)
	}
	if rec := do(t, r, http.MethodPost, base+"/costs", `{"date":"2026-01-06","amount":"-3"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("negative cost: status %d", rec.Code)
	}
	if rec := do(t, r, http.MethodPost, "/batches/missing/costs", `{"date":"2026-01-06","amount":"3"}`); rec.Code != http.StatusNotFound {
		t.Errorf("unknown batch: status %d", rec.Code)
	}

	rec := do(t, r, http.MethodGet, base+"/finance", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("finance: status %d", rec.Code)
	}
	var body struct {
		Summary struct {
			TotalCosts    string `json:"total_costs"`
			TotalRevenues string `json:"total_revenues"`
			Balance       string `json:"balance"`
		} `json:"summary"`
		Entries []models.FinanceEntry `json:"entries"`
	}
	decode(t, rec, &body)
	if body.Summary.Balance != "149.9" || body.Summary.TotalCosts != "100.1" || len(body.Entries) != 2 {
		t.Errorf("finance = %+v", body)
	}

	rec = do(t, r, http.MethodGet, base+"/finance?kind=cost", "")
	decode(t, rec, &body)
	if len(body.Entries) != 1 || body.Entries[0].Kind != models.EntryCost {
		t.Errorf("cost entries = %+v", body.Entries)
	}
	if rec := do(t, r, http.MethodGet, base+"/finance?kind=gift", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown kind: status %d", rec.Code)
	}
}

func TestHusbandryEndpoints(t *testing.T) {
	r, _ := newTestEngine(t)
	batch := createBatch(t, r, "L-04")
	base := "/batches/" + batch.ID

	if rec := do(t, r, http.MethodPost, base+"/eggs", `{"date":"2026-03-01","total_eggs":10,"broken_eggs":11}`); rec.Code != http.StatusBadRequest {
		t.Errorf("broken > total: status %d", rec.Code)
	}
	if rec := do(t, r, http.MethodPost, base+"/eggs", `{"date":"2026-03-01","total_eggs":900,"broken_eggs":12}`); rec.Code != http.StatusCreated {
		t.Errorf("add eggs: status %d", rec.Code)
	}
	rec := do(t, r, http.MethodGet, base+"/eggs", "")
	var eggs []models.EggProduction
	decode(t, rec, &eggs)
	if len(eggs) != 1 || eggs[0].TotalEggs != 900 {
		t.Errorf("eggs = %+v", eggs)
	}

	if rec := do(t, r, http.MethodPost, base+"/water", `{"measured_on":"2026-03-01"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("water without ph: status %d", rec.Code)
	}

	rec = do(t, r, http.MethodPost, base+"/treatments",
		`{"medication":"Enrofloxacina","starts_on":"2026-03-01","ends_on":"2026-03-05","withdrawal_days":7}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add treatment: status %d body %s", rec.Code, rec.Body.String())
	}
	rec = do(t, r, http.MethodGet, base+"/treatments", "")
	var treatments []map[string]interface{}
	decode(t, rec, &treatments)
	if len(treatments) != 1 || treatments[0]["withdrawal_ends_on"] != "2026-03-12" {
		t.Errorf("treatments = %+v", treatments)
	}
}

func TestTargetEndpoints(t *testing.T) {
	r, _ := newTestEngine(t)

	if rec := do(t, r, http.MethodPost, "/targets/import", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("import without sheets: status %d", rec.Code)
	}

	rec := do(t, r, http.MethodPut, "/targets", `{"breed":"Cobb 500","week_of_age":1,"weight_grams":190,"cumulative_mortality_pct":0.7}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("upsert: status %d body %s", rec.Code, rec.Body.String())
	}
	var target models.TargetRecord
	decode(t, rec, &target)

	if rec := do(t, r, http.MethodPut, "/targets", `{"breed":"Cobb 500","week_of_age":0}`); rec.Code != http.StatusBadRequest {
		t.Errorf("week 0: status %d", rec.Code)
	}

	rec = do(t, r, http.MethodGet, "/targets/breeds", "")
	var breeds []string
	decode(t, rec, &breeds)
	if len(breeds) != 1 || breeds[0] != "cobb 500" {
		t.Errorf("breeds = %v", breeds)
	}

	rec = do(t, r, http.MethodGet, "/targets?breed=COBB%20500", "")
	var list []models.TargetRecord
	decode(t, rec, &list)
	if len(list) != 1 {
		t.Errorf("list = %+v", list)
	}

	if rec := do(t, r, http.MethodDelete, "/targets/"+target.ID, ""); rec.Code != http.StatusNoContent {
		t.Errorf("delete: status %d", rec.Code)
	}
	if rec := do(t, r, http.MethodDelete, "/targets/"+target.ID, ""); rec.Code != http.StatusNotFound {
		t.Errorf("delete again: status %d", rec.Code)
	}
}

type fakeMessaging struct {
	webhookErr error
	sendErr    error
	received   int
	sent       []models.OutboundMessageRequest
}

func (f *fakeMessaging) VerifyWebhookToken(mode, token, challenge string) (string, error) {
	if mode == "subscribe" && token == "secret" {
		return challenge, nil
	}
	return "", errors.New("invalid verify token")
}

func (f *fakeMessaging) HandleWebhook(_ context.Context, _ models.WebhookPayload) error {
	f.received++
	return f.webhookErr
}

func (f *fakeMessaging) SendOutbound(_ context.Context, req models.OutboundMessageRequest) error {
	f.sent = append(f.sent, req)
	return f.sendErr
}

func webhookEngine(svc *fakeMessaging) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewWebhookHandler(svc, nil)
	r := gin.New()
	r.GET("/webhook", h.Verify)
	r.POST("/webhook", h.Receive)
	r.POST("/send-message", h.SendMessage)
	return r
}

func TestWebhookHandler(t *testing.T) {
	svc := &fakeMessaging{webhookErr: errors.New("reply failed")}
	r := webhookEngine(svc)

	rec := do(t, r, http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=secret&hub.challenge=42", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "42" {
		t.Errorf("verify = %d %q", rec.Code, rec.Body.String())
	}
	if rec := do(t, r, http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=nope&hub.challenge=42", ""); rec.Code != http.StatusForbidden {
		t.Errorf("bad token: status %d", rec.Code)
	}

	if rec := do(t, r, http.MethodPost, "/webhook", `{"entry":[`); rec.Code != http.StatusBadRequest {
		t.Errorf("malformed payload: status %d", rec.Code)
	}
	if rec := do(t, r, http.MethodPost, "/webhook", `{"object":"whatsapp_business_account","entry":[]}`); rec.Code != http.StatusOK {
		t.Errorf("failed processing must still be acknowledged: status %d", rec.Code)
	}
	if svc.received != 1 {
		t.Errorf("received = %d", svc.received)
	}
}

func TestSendMessageHandler(t *testing.T) {
	tests := []struct {
		name    string
		sendErr error
		body    string
		want    int
	}{
		{"accepted", nil, `{"to":"55","message":"oi"}`, http.StatusAccepted},
		{"missing fields", nil, `{"to":"55"}`, http.StatusBadRequest},
		{"disabled", fmt.Errorf("whatsapp: %w", models.ErrDisabled), `{"to":"55","message":"oi"}`, http.StatusServiceUnavailable},
		{"upstream failure", errors.New("whatsapp api error"), `{"to":"55","message":"oi"}`, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := webhookEngine(&fakeMessaging{sendErr: tt.sendErr})
			rec := do(t, r, http.MethodPost, "/send-message", tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
