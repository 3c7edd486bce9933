package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"vculaunch/internal/dispatch"
	"vculaunch/internal/launcher"
	"vculaunch/internal/makefile"
	"vculaunch/internal/model"
	"vculaunch/internal/paths"
	"vculaunch/internal/report"
)

type fakeOps struct {
	active    int32
	maxActive int32
	missing   []string
	ctxErr    error
	panicOn   string
}

func (f *fakeOps) enter() func() {
	n := atomic.AddInt32(&f.active, 1)
	for {
		m := atomic.LoadInt32(&f.maxActive)
		if n <= m || atomic.CompareAndSwapInt32(&f.maxActive, m, n) {
			break
		}
	}
	return func() { atomic.AddInt32(&f.active, -1) }
}

func (f *fakeOps) Startup(*report.Logger) (model.BuildPaths, error) { return model.BuildPaths{}, nil }

func (f *fakeOps) UpdatePaths(log *report.Logger) (launcher.PathUpdate, error) {
	defer f.enter()()
	time.Sleep(5 * time.Millisecond)
	log.Infof("updated")
	return launcher.PathUpdate{BuildPaths: model.BuildPaths{MVCU: "/c/a/m", SVCU: "/c/a/s"}}, nil
}

func (f *fakeOps) RewriteMakefiles(*report.Logger) []model.MakefileResult { return nil }

func (f *fakeOps) Dispatch(ctx context.Context, source string, log *report.Logger) (dispatch.Result, error) {
	defer f.enter()()
	if source == f.panicOn {
		panic("boom")
	}
	time.Sleep(5 * time.Millisecond)
	f.ctxErr = ctx.Err()
	v, err := model.Classify(model.BaseNameNoExt(source))
	if err != nil {
		log.Errorf("%v", err)
		return dispatch.Result{}, err
	}
	log.Infof("dispatched %s", v.Name)
	return dispatch.Result{Variant: v, Copied: true, ShellStarted: true}, nil
}

func (f *fakeOps) CheckModules(code string, _ *report.Logger) (makefile.ModuleReport, error) {
	v, _ := model.VariantByCode(code)
	return makefile.ModuleReport{Variant: v.Name, Modules: []string{"foo", "bar"}, Missing: f.missing}, nil
}

func (f *fakeOps) Layout() paths.Layout {
	return paths.Layout{AppRoot: "/app", ResourceRoot: "/app", ProjectName: "p", MSYSName: "MSYS", GOOS: "linux"}
}

func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func TestLayout(t *testing.T) {
	h := NewServer(&fakeOps{}, false).Handler()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/layout", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var got layoutResponse
	decode(t, rec, &got)
	if got.Version != model.Version || got.BuildPaths.MVCU != "/app/p/dev_kernel_mvcu/build" {
		t.Fatalf("unexpected layout %+v", got)
	}
}

func TestUpdatePaths(t *testing.T) {
	h := NewServer(&fakeOps{}, false).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/update-paths", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET allowed: %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, postJSON("/api/update-paths", "{}"))
	var got struct {
		OK     bool          `json:"ok"`
		Lines  []report.Line `json:"lines"`
		Result launcher.PathUpdate
	}
	decode(t, rec, &got)
	if !got.OK || len(got.Lines) != 1 || !strings.HasSuffix(got.Lines[0].Text, "updated") {
		t.Fatalf("unexpected response %+v", got)
	}
	if got.Result.BuildPaths.SVCU != "/c/a/s" {
		t.Fatalf("build paths %+v", got.Result.BuildPaths)
	}
}

func TestDispatch(t *testing.T) {
	h := NewServer(&fakeOps{}, false).Handler()

	cases := []struct {
		body    string
		status  int
		variant string
	}{
		{`{"path": "/in/Proj_SVCU"}`, http.StatusOK, "SVCU"},
		{`{"path": "/in/firmware"}`, http.StatusUnprocessableEntity, ""},
		{`{"path": ""}`, http.StatusBadRequest, ""},
		{`not json`, http.StatusBadRequest, ""},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, postJSON("/api/dispatch", tc.body))
		if rec.Code != tc.status {
			t.Fatalf("%s: status %d, want %d", tc.body, rec.Code, tc.status)
		}
		if tc.variant == "" {
			continue
		}
		var got struct {
			OK     bool           `json:"ok"`
			Result dispatchResult `json:"result"`
		}
		decode(t, rec, &got)
		if !got.OK || got.Result.Variant != tc.variant || !got.Result.ShellStarted {
			t.Fatalf("%s: %+v", tc.body, got)
		}
	}
}

func TestPostsRequireJSON(t *testing.T) {
	ops := &fakeOps{}
	h := NewServer(ops, false).Handler()

	for _, path := range []string{"/api/update-paths", "/api/dispatch"} {
		for _, ct := range []string{"", "text/plain", "application/x-www-form-urlencoded"} {
			req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{"path": "/in/Proj_MVCU"}`))
			if ct != "" {
				req.Header.Set("Content-Type", ct)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnsupportedMediaType {
				t.Fatalf("%s with %q: status %d", path, ct, rec.Code)
			}
		}
	}
	if ops.maxActive != 0 {
		t.Fatal("an operation ran for a rejected request")
	}

	rec := httptest.NewRecorder()
	req := postJSON("/api/dispatch", `{"path": "/in/Proj_MVCU"}`)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("charset parameter rejected: %d", rec.Code)
	}
}

func TestDispatch_SurvivesClientDisconnect(t *testing.T) {
	ops := &fakeOps{}
	h := NewServer(ops, false).Handler()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, postJSON("/api/dispatch", `{"path": "/in/Proj_MVCU"}`).WithContext(ctx))

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if ops.ctxErr != nil {
		t.Fatalf("dispatch saw a cancelled context: %v", ops.ctxErr)
	}
}

func TestDispatch_PanicIsReported(t *testing.T) {
	ops := &fakeOps{panicOn: "/in/Crash_MVCU"}
	h := NewServer(ops, false).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, postJSON("/api/dispatch", `{"path": "/in/Crash_MVCU"}`))
	var got opResponse
	decode(t, rec, &got)
	if got.OK || !strings.Contains(got.Error, "unexpected error: boom") || len(got.Lines) == 0 {
		t.Fatalf("unexpected %+v", got)
	}

	// The lock was released.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, postJSON("/api/update-paths", "{}"))
	if rec.Code != http.StatusOK {
		t.Fatalf("follow-up status %d", rec.Code)
	}
}

func TestModules(t *testing.T) {
	ops := &fakeOps{}
	h := NewServer(ops, false).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/modules?variant=x", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad variant accepted: %d", rec.Code)
	}

	ops.missing = []string{"bar"}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/modules?variant=s", nil))
	var got struct {
		OK     bool                  `json:"ok"`
		Error  string                `json:"error"`
		Result makefile.ModuleReport `json:"result"`
	}
	decode(t, rec, &got)
	if got.OK || got.Result.Variant != "SVCU" || !strings.Contains(got.Error, "1 module(s) missing") {
		t.Fatalf("unexpected %+v", got)
	}
}

func TestOperationsAreSerialized(t *testing.T) {
	ops := &fakeOps{}
	h := NewServer(ops, false).Handler()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := httptest.NewRecorder()
			if i%2 == 0 {
				h.ServeHTTP(rec, postJSON("/api/update-paths", "{}"))
			} else {
				body := fmt.Sprintf(`{"path": "/in/mvcu_%d"}`, i)
				h.ServeHTTP(rec, postJSON("/api/dispatch", body))
			}
		}(i)
	}
	wg.Wait()
	if ops.maxActive != 1 {
		t.Fatalf("operations overlapped: max %d", ops.maxActive)
	}
}

func TestStaticAndHelp(t *testing.T) {
	h := NewServer(&fakeOps{}, false).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "VCU Compile Launcher") {
		t.Fatalf("index: %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/help", nil))
	if strings.Contains(rec.Body.String(), "{{VERSION}}") || !strings.Contains(rec.Body.String(), model.Version) {
		t.Fatal("help version not substituted")
	}
}

func TestLs(t *testing.T) {
	h := NewServer(&fakeOps{}, false).Handler()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ls?path="+t.TempDir(), nil))
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("ls: %d %q", rec.Code, rec.Body.String())
	}
}
