package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/eigo-backend/internal/data/aggregates"
	"github.com/yungbote/eigo-backend/internal/data/repos"
	"github.com/yungbote/eigo-backend/internal/data/repos/testutil"
	"github.com/yungbote/eigo-backend/internal/domain/account"
	domainagg "github.com/yungbote/eigo-backend/internal/domain/aggregates"
	httpH "github.com/yungbote/eigo-backend/internal/http/handlers"
	httpMW "github.com/yungbote/eigo-backend/internal/http/middleware"
	"github.com/yungbote/eigo-backend/internal/services"
)

// tokenAuth treats the id_token as the account email.
type tokenAuth struct {
	accounts services.AccountService
	byToken  map[string]*account.Account
}

func (a *tokenAuth) AuthURL(state string) string {
	return "https://accounts.example.com/?state=" + state
}

func (a *tokenAuth) Login(ctx context.Context, code string) (*services.Session, *account.Account, error) {
	return nil, nil, domainagg.NewError(domainagg.CodeUnauthorized, "test", "not supported", nil)
}

func (a *tokenAuth) Authenticate(ctx context.Context, idToken string) (*account.Account, error) {
	acct, ok := a.byToken[idToken]
	if !ok {
		return nil, domainagg.NewError(domainagg.CodeUnauthorized, "test", "invalid session", nil)
	}
	return a.accounts.GetByID(ctx, acct.ID)
}

func (a *tokenAuth) Refresh(ctx context.Context, refreshToken string) (*services.Session, error) {
	return nil, domainagg.NewError(domainagg.CodeUnauthorized, "test", "session expired", nil)
}

type apiEnv struct {
	router *gin.Engine
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.DB(t)
	log := testutil.Logger(t)
	rs := repos.NewSet(db, log)
	tx := aggregates.NewGormTxRunner(db)
	locker := aggregates.NewScopeLocker(db)

	accounts := services.NewAccountService(db, log, tx, rs)
	hierarchy := services.NewHierarchyService(db, log, tx, locker, rs)
	query := services.NewQueryService(db, log, tx, rs)
	answers := services.NewAnswerService(db, log, tx, rs)
	importer := services.NewImportService(db, log, tx, locker, rs)

	ctx := context.Background()
	learner, err := accounts.FindOrCreate(ctx, account.ProviderGoogle, "sub-learner", account.Profile{Email: "learner@example.com"})
	if err != nil {
		t.Fatalf("FindOrCreate learner: %v", err)
	}
	admin, err := accounts.FindOrCreate(ctx, account.ProviderGoogle, "sub-admin", account.Profile{Email: "admin@example.com"})
	if err != nil {
		t.Fatalf("FindOrCreate admin: %v", err)
	}
	if _, err := accounts.Promote(ctx, admin.Email, account.RoleAdmin); err != nil {
		t.Fatalf("Promote: %v", err)
	}

	auth := &tokenAuth{accounts: accounts, byToken: map[string]*account.Account{"learner": learner, "admin": admin}}
	cookies := httpMW.NewSessionCookies(false, "")
	router := NewRouter(RouterConfig{
		Log:            log,
		SessionSecret:  []byte("test-secret-test-secret-test-sec"),
		AuthMiddleware: httpMW.NewAuthMiddleware(log, auth, cookies),
		AuthHandler:    httpH.NewAuthHandler(log, auth, cookies, "http://localhost:5173"),
		MeHandler:      httpH.NewMeHandler(log),
		LearnHandler:   httpH.NewLearnHandler(log, query, answers),
		AdminHandler:   httpH.NewAdminHandler(log, hierarchy, answers, importer),
		HealthHandler:  httpH.NewHealthHandler(db),
	})
	return &apiEnv{router: router}
}

func (e *apiEnv) call(t *testing.T, token, method, path, contentType string, body []byte) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.AddCookie(&nethttp.Cookie{Name: httpMW.IDTokenCookie, Value: token})
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	out := map[string]any{}
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec.Code, out
}

func (e *apiEnv) json(t *testing.T, token, method, path string, body any) (int, map[string]any) {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return e.call(t, token, method, path, "application/json", raw)
}

func idOf(t *testing.T, out map[string]any, key string) string {
	t.Helper()
	obj, ok := out[key].(map[string]any)
	if !ok {
		t.Fatalf("response has no %q object: %v", key, out)
	}
	id, _ := obj["id"].(string)
	if id == "" {
		t.Fatalf("%q has no id: %v", key, obj)
	}
	return id
}

func errorOf(out map[string]any) map[string]any {
	e, _ := out["error"].(map[string]any)
	return e
}

func TestHealthAndAuthGates(t *testing.T) {
	env := newAPIEnv(t)

	req := httptest.NewRequest(nethttp.MethodGet, "/healthcheck", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("healthcheck: %d", rec.Code)
	}

	if code, _ := env.call(t, "", nethttp.MethodGet, "/api/learn/materials", "", nil); code != nethttp.StatusUnauthorized {
		t.Fatalf("anonymous learn: expected 401, got %d", code)
	}
	code, out := env.json(t, "learner", nethttp.MethodPost, "/api/admin/materials", map[string]string{"name": "M"})
	if code != nethttp.StatusForbidden || errorOf(out)["code"] != "FORBIDDEN" {
		t.Fatalf("learner on admin: %d %v", code, out)
	}
	code, out = env.call(t, "learner", nethttp.MethodGet, "/api/me", "", nil)
	if code != nethttp.StatusOK {
		t.Fatalf("me: %d", code)
	}
	if acct, _ := out["account"].(map[string]any); acct["role"] != "user" {
		t.Fatalf("me: unexpected account %v", out)
	}
}

func TestGoogleLoginRedirectsWithState(t *testing.T) {
	env := newAPIEnv(t)
	req := httptest.NewRequest(nethttp.MethodGet, "/auth/google/login", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != nethttp.StatusFound || !strings.Contains(rec.Header().Get("Location"), "state=") {
		t.Fatalf("login: %d %q", rec.Code, rec.Header().Get("Location"))
	}
	if !strings.Contains(strings.Join(rec.Header().Values("Set-Cookie"), ";"), httpH.OAuthSessionName+"=") {
		t.Fatalf("expected oauth session cookie")
	}

	// callback without the session cookie is a state mismatch
	req = httptest.NewRequest(nethttp.MethodGet, "/auth/google/callback?state=forged&code=x", nil)
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != nethttp.StatusFound || !strings.Contains(rec.Header().Get("Location"), "error=state_mismatch") {
		t.Fatalf("callback: %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestAdminBuildsAndLearnerStudies(t *testing.T) {
	env := newAPIEnv(t)

	code, out := env.json(t, "admin", nethttp.MethodPost, "/api/admin/materials", map[string]string{"name": "NEW HORIZON 1"})
	if code != nethttp.StatusCreated {
		t.Fatalf("create material: %d %v", code, out)
	}
	materialID := idOf(t, out, "material")

	code, out = env.json(t, "admin", nethttp.MethodPost, "/api/admin/materials/"+materialID+"/chapters", map[string]string{"name": "Ch1"})
	if code != nethttp.StatusCreated {
		t.Fatalf("create chapter: %d %v", code, out)
	}
	chapterID := idOf(t, out, "chapter")

	code, out = env.json(t, "admin", nethttp.MethodPost, "/api/admin/chapters/"+chapterID+"/units", map[string]string{"name": "Unit 1"})
	if code != nethttp.StatusCreated {
		t.Fatalf("create unit: %d %v", code, out)
	}
	unitID := idOf(t, out, "unit")

	// invalid row 2 rejects the whole CSV batch
	bad := "japanese,answers\n私は学生です。,I am a student.\n,Nothing here\nこれはペンです。,This is a pen.\n"
	code, out = env.call(t, "admin", nethttp.MethodPost, "/api/admin/units/"+unitID+"/import", "text/csv", []byte(bad))
	if code != nethttp.StatusBadRequest {
		t.Fatalf("bad import: expected 400, got %d %v", code, out)
	}
	if e := errorOf(out); e["code"] != "VALIDATION_ERROR" || e["row"] != float64(2) || e["field"] != "japanese" {
		t.Fatalf("bad import: unexpected error %v", e)
	}

	good := "japanese,answers\n私は学生です。,I am a student.|I'm a student.\nこれはペンです。,This is a pen.\n"
	code, out = env.call(t, "admin", nethttp.MethodPost, "/api/admin/units/"+unitID+"/import", "text/csv", []byte(good))
	if code != nethttp.StatusCreated || out["questions"] != float64(2) {
		t.Fatalf("good import: %d %v", code, out)
	}

	code, out = env.call(t, "learner", nethttp.MethodGet, "/api/learn/materials/"+materialID+"/hierarchy", "", nil)
	if code != nethttp.StatusOK {
		t.Fatalf("hierarchy: %d %v", code, out)
	}
	chapters, _ := out["chapters"].([]any)
	if len(chapters) != 1 {
		t.Fatalf("hierarchy: expected 1 chapter, got %v", out["chapters"])
	}
	units, _ := chapters[0].(map[string]any)["units"].([]any)
	if len(units) != 1 || units[0].(map[string]any)["question_count"] != float64(2) {
		t.Fatalf("hierarchy: unexpected units %v", units)
	}

	code, out = env.call(t, "learner", nethttp.MethodGet, "/api/learn/units/"+unitID, "", nil)
	if code != nethttp.StatusOK {
		t.Fatalf("detail: %d %v", code, out)
	}
	questions, _ := out["questions"].([]any)
	if len(questions) != 2 {
		t.Fatalf("detail: expected 2 questions, got %v", out["questions"])
	}
	questionID := questions[0].(map[string]any)["id"].(string)

	code, out = env.json(t, "learner", nethttp.MethodPost, "/api/learn/questions/"+questionID+"/answers", map[string]string{"text": "  i'm a STUDENT "})
	if code != nethttp.StatusCreated {
		t.Fatalf("submit: %d %v", code, out)
	}
	if ans, _ := out["answer"].(map[string]any); ans["is_correct"] != true {
		t.Fatalf("submit: expected a correct answer, got %v", out)
	}

	code, out = env.call(t, "learner", nethttp.MethodGet, "/api/learn/units/"+unitID+"/answers", "", nil)
	if code != nethttp.StatusOK {
		t.Fatalf("list answers: %d %v", code, out)
	}
	if list, _ := out["answers"].([]any); len(list) != 1 {
		t.Fatalf("list answers: expected 1, got %v", out["answers"])
	}
}

func TestAdminOrderingErrors(t *testing.T) {
	env := newAPIEnv(t)

	_, out := env.json(t, "admin", nethttp.MethodPost, "/api/admin/materials", map[string]string{"name": "M"})
	materialID := idOf(t, out, "material")
	_, out = env.json(t, "admin", nethttp.MethodPost, "/api/admin/materials/"+materialID+"/chapters", map[string]string{"name": "Ch1"})
	ch1 := idOf(t, out, "chapter")
	_, out = env.json(t, "admin", nethttp.MethodPost, "/api/admin/materials/"+materialID+"/chapters", map[string]string{"name": "Ch2"})
	ch2 := idOf(t, out, "chapter")

	code, out := env.json(t, "admin", nethttp.MethodPost, "/api/admin/chapters/"+ch1+"/move", map[string]any{"new_parent_chapter_id": ch1, "new_index": 0})
	if code != nethttp.StatusUnprocessableEntity || errorOf(out)["code"] != "INVALID_HIERARCHY" {
		t.Fatalf("move into self: %d %v", code, out)
	}

	code, out = env.json(t, "admin", nethttp.MethodPost, "/api/admin/reorder", map[string]any{
		"kind": "chapters", "material_id": materialID, "ordered_ids": []string{ch2},
	})
	if code != nethttp.StatusUnprocessableEntity {
		t.Fatalf("partial reorder: %d %v", code, out)
	}

	code, _ = env.json(t, "admin", nethttp.MethodPost, "/api/admin/reorder", map[string]any{
		"kind": "chapters", "material_id": materialID, "ordered_ids": []string{ch2, ch1},
	})
	if code != nethttp.StatusNoContent {
		t.Fatalf("reorder: %d", code)
	}

	code, out = env.json(t, "admin", nethttp.MethodPost, "/api/admin/reorder", map[string]any{"kind": "shelves"})
	if code != nethttp.StatusBadRequest || errorOf(out)["field"] != "kind" {
		t.Fatalf("unknown kind: %d %v", code, out)
	}

	code, out = env.json(t, "admin", nethttp.MethodPost, "/api/admin/materials", map[string]string{"name": "   "})
	if code != nethttp.StatusBadRequest || errorOf(out)["field"] != "name" {
		t.Fatalf("blank name: %d %v", code, out)
	}

	code, _ = env.call(t, "admin", nethttp.MethodDelete, "/api/admin/chapters/"+ch1, "", nil)
	if code != nethttp.StatusNoContent {
		t.Fatalf("delete chapter: %d", code)
	}
	code, out = env.call(t, "admin", nethttp.MethodDelete, "/api/admin/chapters/"+ch1, "", nil)
	if code != nethttp.StatusNotFound {
		t.Fatalf("delete again: %d %v", code, out)
	}
	code, out = env.call(t, "admin", nethttp.MethodGet, fmt.Sprintf("/api/admin/units/%s", "not-a-uuid"), "", nil)
	if code != nethttp.StatusBadRequest {
		t.Fatalf("bad uuid: %d %v", code, out)
	}
}

func TestCreateQuestionAlwaysReturnsAnswers(t *testing.T) {
	env := newAPIEnv(t)
	_, out := env.json(t, "admin", nethttp.MethodPost, "/api/admin/materials", map[string]string{"name": "M"})
	materialID := idOf(t, out, "material")
	_, out = env.json(t, "admin", nethttp.MethodPost, "/api/admin/materials/"+materialID+"/chapters", map[string]string{"name": "Ch"})
	chapterID := idOf(t, out, "chapter")
	_, out = env.json(t, "admin", nethttp.MethodPost, "/api/admin/chapters/"+chapterID+"/units", map[string]string{"name": "U"})
	unitID := idOf(t, out, "unit")

	code, out := env.json(t, "admin", nethttp.MethodPost, "/api/admin/units/"+unitID+"/questions", map[string]any{
		"japanese": "これはペンです。", "answers": []string{"This is a pen.", "It's a pen."},
	})
	if code != nethttp.StatusCreated {
		t.Fatalf("with answers: %d %v", code, out)
	}
	questionID := idOf(t, out, "question")
	answers, _ := out["correct_answers"].([]any)
	if len(answers) != 2 || answers[0].(map[string]any)["question_id"] != questionID {
		t.Fatalf("with answers: unexpected correct_answers %v", out["correct_answers"])
	}

	code, out = env.json(t, "admin", nethttp.MethodPost, "/api/admin/units/"+unitID+"/questions", map[string]any{"japanese": "犬です。"})
	if code != nethttp.StatusCreated {
		t.Fatalf("without answers: %d %v", code, out)
	}
	idOf(t, out, "question")
	if answers, ok := out["correct_answers"].([]any); !ok || len(answers) != 0 {
		t.Fatalf("without answers: expected an empty correct_answers list, got %v", out)
	}

	code, out = env.json(t, "admin", nethttp.MethodPost, "/api/admin/units/"+unitID+"/questions", map[string]any{"japanese": "   "})
	if code != nethttp.StatusBadRequest {
		t.Fatalf("blank question: %d %v", code, out)
	}
	if e := errorOf(out); e["code"] != "VALIDATION_ERROR" || e["row"] != nil {
		t.Fatalf("blank question: unexpected error %v", e)
	}
}
