package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"jobboard/internal/delivery/http/middleware"
	"jobboard/internal/delivery/http/routes"
	v1 "jobboard/internal/delivery/http/routes/v1"
	"jobboard/internal/domain/identity"
	"jobboard/internal/domain/job"
	"jobboard/internal/pkg/jwt"
	"jobboard/internal/pkg/response"
	"jobboard/internal/repository/memstore"
	"jobboard/internal/usecase/applications"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type semanticResponse struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testEnv struct {
	app   *fiber.App
	store *memstore.Store
	jwt   *jwt.HMACService

	job       job.Job
	recruiter identity.Actor
	seeker    identity.Actor
}

func newTestEnv(t *testing.T, limiter *middleware.RateLimitMiddleware) *testEnv {
	t.Helper()

	logger := log.New(io.Discard, "", 0)
	store := memstore.New()
	jwtSvc := jwt.NewHMACService("test-secret", "jobboard-test", time.Hour)

	env := &testEnv{
		store:     store,
		jwt:       jwtSvc,
		recruiter: identity.Actor{ID: uuid.New(), Role: identity.RoleRecruiter},
		seeker:    identity.Actor{ID: uuid.New(), Role: identity.RoleSeeker},
	}
	env.job = job.Job{
		ID:                  uuid.New(),
		RecruiterID:         env.recruiter.ID,
		CompanyID:           uuid.New(),
		Title:               "Backend Engineer",
		Status:              job.StatusActive,
		ApplicationDeadline: time.Now().Add(30 * 24 * time.Hour),
	}
	store.PutJob(env.job)

	svc := applications.NewService(store, nil, nil, applications.Options{}, logger)

	app := fiber.New()
	app.Use(middleware.NewErrorMiddleware(logger).Middleware())
	routes.NewRegistry(nil, v1.Deps{
		Auth:         middleware.NewAuthMiddleware(jwtSvc),
		RateLimit:    limiter,
		Applications: svc,
	}, nil).Register(app)
	env.app = app

	return env
}

func (e *testEnv) token(t *testing.T, a identity.Actor) string {
	t.Helper()
	tok, err := e.jwt.GenerateAccessToken(a.ID, string(a.Role))
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return tok
}

func (e *testEnv) do(t *testing.T, method, path string, actor *identity.Actor, body any) (int, semanticResponse) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if actor != nil {
		req.Header.Set("Authorization", "Bearer "+e.token(t, *actor))
	}

	resp, err := e.app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	var out semanticResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode %s %s: %v", method, path, err)
	}
	if out.Status != resp.StatusCode {
		t.Fatalf("envelope status %d != http status %d", out.Status, resp.StatusCode)
	}
	return resp.StatusCode, out
}

func (e *testEnv) submit(t *testing.T, seeker identity.Actor) map[string]any {
	t.Helper()
	status, res := e.do(t, http.MethodPost, "/api/v1/applications", &seeker, map[string]any{
		"job":         e.job.ID.String(),
		"resume":      map[string]string{"url": "https://cdn.example.com/cv.pdf", "originalName": "cv.pdf"},
		"coverLetter": "Hello",
	})
	if status != http.StatusCreated {
		t.Fatalf("submit: expected 201, got %d (%s)", status, res.Message)
	}
	return decodeObject(t, res.Data)
}

func decodeObject(t *testing.T, raw json.RawMessage) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	return m
}

func TestSubmit_CreatesThenRejectsDuplicate(t *testing.T) {
	env := newTestEnv(t, nil)

	created := env.submit(t, env.seeker)
	if created["status"] != "applied" {
		t.Fatalf("expected applied, got %v", created["status"])
	}
	if _, ok := created["recruiterNotes"]; ok {
		t.Fatalf("seeker response must not carry recruiterNotes")
	}

	status, res := env.do(t, http.MethodPost, "/api/v1/applications", &env.seeker, map[string]any{
		"job":    env.job.ID.String(),
		"resume": map[string]string{"url": "https://cdn.example.com/cv.pdf"},
	})
	if status != http.StatusConflict {
		t.Fatalf("expected 409, got %d (%s)", status, res.Message)
	}

	j, _ := env.store.Job(env.job.ID)
	if j.TotalApplications != 1 {
		t.Fatalf("expected totalApplications=1, got %d", j.TotalApplications)
	}
}

func TestSubmit_AuthAndRoleChecks(t *testing.T) {
	env := newTestEnv(t, nil)
	body := map[string]any{
		"job":    env.job.ID.String(),
		"resume": map[string]string{"url": "https://cdn.example.com/cv.pdf"},
	}

	status, _ := env.do(t, http.MethodPost, "/api/v1/applications", nil, body)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", status)
	}

	status, _ = env.do(t, http.MethodPost, "/api/v1/applications", &env.recruiter, body)
	if status != http.StatusForbidden {
		t.Fatalf("expected 403 for recruiter, got %d", status)
	}
}

func TestSubmit_ValidationErrorsCarryFields(t *testing.T) {
	env := newTestEnv(t, nil)

	status, res := env.do(t, http.MethodPost, "/api/v1/applications", &env.seeker, map[string]any{
		"job":    "not-a-uuid",
		"resume": map[string]string{"url": "cv.pdf"},
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}

	var fields []middleware.FieldErrorResponse
	if err := json.Unmarshal(res.Data, &fields); err != nil {
		t.Fatalf("decode fields: %v", err)
	}
	got := map[string]bool{}
	for _, f := range fields {
		got[f.Field] = true
	}
	if !got["job"] || !got["resume.url"] {
		t.Fatalf("expected job and resume.url errors, got %+v", fields)
	}
}

func TestSubmit_UnknownJobIsNotFound(t *testing.T) {
	env := newTestEnv(t, nil)

	status, _ := env.do(t, http.MethodPost, "/api/v1/applications", &env.seeker, map[string]any{
		"job":    uuid.NewString(),
		"resume": map[string]string{"url": "https://cdn.example.com/cv.pdf"},
	})
	if status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
}

func TestGet_ProjectsPerViewer(t *testing.T) {
	env := newTestEnv(t, nil)
	created := env.submit(t, env.seeker)
	id := created["id"].(string)

	status, _ := env.do(t, http.MethodPatch, "/api/v1/applications/"+id+"/notes", &env.recruiter, map[string]any{
		"recruiterNotes": "strong systems background",
	})
	if status != http.StatusOK {
		t.Fatalf("notes: expected 200, got %d", status)
	}
	status, res := env.do(t, http.MethodPatch, "/api/v1/applications/"+id+"/rating", &env.recruiter, map[string]any{"rating": 4})
	if status != http.StatusOK {
		t.Fatalf("rating: expected 200, got %d", status)
	}
	if decodeObject(t, res.Data)["rating"] != float64(4) {
		t.Fatalf("unexpected rating payload: %s", res.Data)
	}

	_, res = env.do(t, http.MethodGet, "/api/v1/applications/"+id, &env.recruiter, nil)
	asRecruiter := decodeObject(t, res.Data)
	if asRecruiter["recruiterNotes"] != "strong systems background" || asRecruiter["rating"] != float64(4) {
		t.Fatalf("recruiter view missing notes or rating: %s", res.Data)
	}

	_, res = env.do(t, http.MethodGet, "/api/v1/applications/"+id, &env.seeker, nil)
	asSeeker := decodeObject(t, res.Data)
	if _, ok := asSeeker["recruiterNotes"]; ok {
		t.Fatalf("seeker view leaked recruiterNotes: %s", res.Data)
	}
	if _, ok := asSeeker["rating"]; ok {
		t.Fatalf("seeker view leaked rating: %s", res.Data)
	}
	if _, ok := asSeeker["statusHistory"]; !ok {
		t.Fatalf("detail view should include statusHistory")
	}

	stranger := identity.Actor{ID: uuid.New(), Role: identity.RoleSeeker}
	status, _ = env.do(t, http.MethodGet, "/api/v1/applications/"+id, &stranger, nil)
	if status != http.StatusNotFound {
		t.Fatalf("stranger: expected 404, got %d", status)
	}

	status, _ = env.do(t, http.MethodGet, "/api/v1/applications/not-a-uuid", &env.seeker, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("bad id: expected 400, got %d", status)
	}
}

func TestRate_MissingRatingIsValidationError(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.submit(t, env.seeker)["id"].(string)

	status, _ := env.do(t, http.MethodPatch, "/api/v1/applications/"+id+"/rating", &env.recruiter, map[string]any{})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	status, _ = env.do(t, http.MethodPatch, "/api/v1/applications/"+id+"/rating", &env.recruiter, map[string]any{"rating": 6})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for out of range rating, got %d", status)
	}
}

func TestLifecycle_WithdrawBlocksRecruiter(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.submit(t, env.seeker)["id"].(string)
	base := "/api/v1/applications/" + id

	status, res := env.do(t, http.MethodPatch, base+"/status", &env.recruiter, map[string]any{"status": "shortlisted"})
	if status != http.StatusOK || decodeObject(t, res.Data)["status"] != "shortlisted" {
		t.Fatalf("shortlist: got %d %s", status, res.Data)
	}

	date := time.Now().AddDate(0, 0, 7).Format(time.DateOnly)
	status, res = env.do(t, http.MethodPatch, base+"/interview", &env.recruiter, map[string]any{
		"date":        date,
		"time":        "10:00",
		"type":        "video",
		"meetingLink": "https://meet.example.com/abc",
	})
	if status != http.StatusOK {
		t.Fatalf("interview: expected 200, got %d (%s)", status, res.Message)
	}
	iv := decodeObject(t, res.Data)
	if iv["status"] != "interview" {
		t.Fatalf("expected interview status, got %v", iv["status"])
	}

	status, res = env.do(t, http.MethodPatch, base+"/withdraw", &env.seeker, nil)
	if status != http.StatusOK || decodeObject(t, res.Data)["status"] != "withdrawn" {
		t.Fatalf("withdraw: got %d %s", status, res.Data)
	}

	status, _ = env.do(t, http.MethodPatch, base+"/status", &env.recruiter, map[string]any{"status": "hired"})
	if status != http.StatusBadRequest {
		t.Fatalf("status after withdraw: expected 400, got %d", status)
	}
	status, _ = env.do(t, http.MethodPatch, base+"/withdraw", &env.seeker, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("second withdraw: expected 400, got %d", status)
	}

	_, res = env.do(t, http.MethodGet, base, &env.seeker, nil)
	var detail struct {
		StatusHistory []struct {
			Status string `json:"status"`
		} `json:"statusHistory"`
	}
	if err := json.Unmarshal(res.Data, &detail); err != nil {
		t.Fatalf("decode detail: %v", err)
	}
	var seq []string
	for _, e := range detail.StatusHistory {
		seq = append(seq, e.Status)
	}
	want := []string{"applied", "shortlisted", "interview", "withdrawn"}
	if len(seq) != len(want) {
		t.Fatalf("history %v, want %v", seq, want)
	}
	for i := range want {
		if seq[i] != want[i] {
			t.Fatalf("history %v, want %v", seq, want)
		}
	}

	j, _ := env.store.Job(env.job.ID)
	if j.TotalApplications != 0 {
		t.Fatalf("expected totalApplications=0 after withdraw, got %d", j.TotalApplications)
	}
}

func TestScheduleInterview_InvalidDate(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.submit(t, env.seeker)["id"].(string)

	status, res := env.do(t, http.MethodPatch, "/api/v1/applications/"+id+"/interview", &env.recruiter, map[string]any{
		"date": "next tuesday",
		"time": "10:00",
		"type": "phone",
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	var fields []middleware.FieldErrorResponse
	if err := json.Unmarshal(res.Data, &fields); err != nil || len(fields) != 1 || fields[0].Field != "date" {
		t.Fatalf("expected a date field error, got %s", res.Data)
	}
}

func TestLists_PaginateAndStrip(t *testing.T) {
	env := newTestEnv(t, nil)
	env.submit(t, env.seeker)
	other := identity.Actor{ID: uuid.New(), Role: identity.RoleSeeker}
	env.submit(t, other)

	type page struct {
		Items      []map[string]any    `json:"items"`
		Pagination response.Pagination `json:"pagination"`
	}

	status, res := env.do(t, http.MethodGet, "/api/v1/applications/job/"+env.job.ID.String()+"?limit=1", &env.recruiter, nil)
	if status != http.StatusOK {
		t.Fatalf("job list: expected 200, got %d", status)
	}
	var jp page
	if err := json.Unmarshal(res.Data, &jp); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if jp.Pagination.Total != 2 || jp.Pagination.TotalPages != 2 || len(jp.Items) != 1 {
		t.Fatalf("unexpected job page: %+v", jp.Pagination)
	}
	if _, ok := jp.Items[0]["statusHistory"]; ok {
		t.Fatalf("listing must not include statusHistory")
	}
	if _, ok := jp.Items[0]["recruiterNotes"]; !ok {
		t.Fatalf("recruiter listing should keep recruiterNotes")
	}

	status, res = env.do(t, http.MethodGet, "/api/v1/applications/mine", &env.seeker, nil)
	if status != http.StatusOK {
		t.Fatalf("mine: expected 200, got %d", status)
	}
	var mp page
	if err := json.Unmarshal(res.Data, &mp); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if mp.Pagination.Total != 1 || len(mp.Items) != 1 {
		t.Fatalf("unexpected seeker page: %+v", mp.Pagination)
	}
	if _, ok := mp.Items[0]["recruiterNotes"]; ok {
		t.Fatalf("seeker listing leaked recruiterNotes")
	}

	foreign := identity.Actor{ID: uuid.New(), Role: identity.RoleRecruiter}
	status, _ = env.do(t, http.MethodGet, "/api/v1/applications/job/"+env.job.ID.String(), &foreign, nil)
	if status != http.StatusNotFound {
		t.Fatalf("foreign recruiter: expected 404, got %d", status)
	}

	status, _ = env.do(t, http.MethodGet, "/api/v1/applications/mine?page=abc", &env.seeker, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("bad page: expected 400, got %d", status)
	}
	status, _ = env.do(t, http.MethodGet, "/api/v1/applications/mine?status=bogus", &env.seeker, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("bad status filter: expected 400, got %d", status)
	}
}

func TestCheckApplied(t *testing.T) {
	env := newTestEnv(t, nil)
	path := "/api/v1/applications/job/" + env.job.ID.String() + "/applied"

	_, res := env.do(t, http.MethodGet, path, &env.seeker, nil)
	before := decodeObject(t, res.Data)
	if before["hasApplied"] != false || before["application"] != nil {
		t.Fatalf("expected not applied, got %s", res.Data)
	}

	created := env.submit(t, env.seeker)

	_, res = env.do(t, http.MethodGet, path, &env.seeker, nil)
	after := decodeObject(t, res.Data)
	if after["hasApplied"] != true {
		t.Fatalf("expected applied, got %s", res.Data)
	}
	app := after["application"].(map[string]any)
	if app["id"] != created["id"] || app["status"] != "applied" {
		t.Fatalf("unexpected summary: %v", app)
	}
}

func TestReconcile_AdminOnly(t *testing.T) {
	env := newTestEnv(t, nil)
	env.submit(t, env.seeker)

	j, _ := env.store.Job(env.job.ID)
	j.TotalApplications = 7
	env.store.PutJob(j)

	path := "/api/v1/admin/jobs/" + env.job.ID.String() + "/reconcile-applications"
	status, _ := env.do(t, http.MethodPost, path, &env.recruiter, nil)
	if status != http.StatusForbidden {
		t.Fatalf("recruiter: expected 403, got %d", status)
	}

	admin := identity.Actor{ID: uuid.New(), Role: identity.RoleAdmin}
	status, res := env.do(t, http.MethodPost, path, &admin, nil)
	if status != http.StatusOK {
		t.Fatalf("admin: expected 200, got %d (%s)", status, res.Message)
	}
	out := decodeObject(t, res.Data)
	if out["totalApplications"] != float64(1) || out["jobId"] != env.job.ID.String() {
		t.Fatalf("unexpected reconcile payload: %s", res.Data)
	}
}

func TestRateLimit_MutatingRoutes(t *testing.T) {
	env := newTestEnv(t, middleware.NewRateLimitMiddleware(0.001, 1))
	id := env.submit(t, env.seeker)["id"].(string)

	status, res := env.do(t, http.MethodPatch, "/api/v1/applications/"+id+"/withdraw", &env.seeker, nil)
	if status != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d (%s)", status, res.Message)
	}

	status, _ = env.do(t, http.MethodGet, "/api/v1/applications/"+id, &env.seeker, nil)
	if status != http.StatusOK {
		t.Fatalf("reads are not limited: expected 200, got %d", status)
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)
	status, _ := env.do(t, http.MethodGet, "/health", nil, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
}
