// Package web serves a small browser panel over the launcher operations.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"vculaunch/internal/dispatch"
	"vculaunch/internal/launcher"
	"vculaunch/internal/makefile"
	"vculaunch/internal/model"
	"vculaunch/internal/report"
)

//go:embed static/*
var staticFS embed.FS

//go:embed help.md
var helpMD string

// Server exposes Operations over HTTP. Operations run one at a time
// because they all write to the same project tree.
type Server struct {
	ops   launcher.Operations
	debug bool
	mu    sync.Mutex
}

// NewServer creates a Server over ops.
func NewServer(ops launcher.Operations, debug bool) *Server {
	return &Server{ops: ops, debug: debug}
}

// Handler returns the routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	subFS, _ := fs.Sub(staticFS, "static")
	mux.Handle("/", http.FileServer(http.FS(subFS)))

	mux.HandleFunc("/api/layout", s.handleLayout)
	mux.HandleFunc("/api/update-paths", requireJSON(s.handleUpdatePaths))
	mux.HandleFunc("/api/dispatch", requireJSON(s.handleDispatch))
	mux.HandleFunc("/api/modules", s.handleModules)
	mux.HandleFunc("/api/ls", handleLs)
	mux.HandleFunc("/api/help", handleHelp)
	return mux
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string, log *report.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	host := addr
	if strings.HasPrefix(host, ":") {
		host = "localhost" + host
	}
	log.Infof("Starting vculaunch web panel at http://%s", host)

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// requireJSON rejects POSTs that a plain cross-site form or text/plain
// request could send.
func requireJSON(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
			if err != nil || mt != "application/json" {
				http.Error(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
				return
			}
		}
		next(w, r)
	}
}

// run executes op under the lock with a logger collecting its lines.
// A panic in op is reported as its error.
func (s *Server) run(op func(log *report.Logger) error) (lines []report.Line, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var c report.Collector
	log := report.New(s.debug, &c)
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Unexpected error: %v", r)
			err = fmt.Errorf("unexpected error: %v", r)
		}
		lines = c.Lines()
	}()
	return nil, op(log)
}

type layoutResponse struct {
	Version      string           `json:"version"`
	AppRoot      string           `json:"app_root"`
	ResourceRoot string           `json:"resource_root"`
	ProjectRoot  string           `json:"project_root"`
	ShellScript  string           `json:"shell_script"`
	Tools        model.ToolPaths  `json:"tools"`
	BuildPaths   model.BuildPaths `json:"build_paths"`
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	l := s.ops.Layout()
	writeJSON(w, http.StatusOK, layoutResponse{
		Version:      model.Version,
		AppRoot:      l.AppRoot,
		ResourceRoot: l.ResourceRoot,
		ProjectRoot:  l.ProjectRoot(),
		ShellScript:  l.ShellScript(),
		Tools:        l.ToolPaths(),
		BuildPaths:   l.BuildPaths(),
	})
}

type opResponse struct {
	OK     bool          `json:"ok"`
	Error  string        `json:"error,omitempty"`
	Lines  []report.Line `json:"lines"`
	Result any           `json:"result,omitempty"`
}

func (s *Server) handleUpdatePaths(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var up launcher.PathUpdate
	lines, err := s.run(func(log *report.Logger) error {
		var err error
		up, err = s.ops.UpdatePaths(log)
		return err
	})
	respond(w, lines, up, err)
}

type dispatchRequest struct {
	Path string `json:"path"`
}

type dispatchResult struct {
	Variant      string `json:"variant"`
	Copied       bool   `json:"copied"`
	ShellStarted bool   `json:"shell_started"`
	OutputOpened bool   `json:"output_opened"`
}

func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dispatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Path) == "" {
		http.Error(w, "path is required", http.StatusBadRequest)
		return
	}

	// A started mirror runs to completion even if the client goes away.
	ctx := context.WithoutCancel(r.Context())
	var res dispatch.Result
	lines, err := s.run(func(log *report.Logger) error {
		var err error
		res, err = s.ops.Dispatch(ctx, req.Path, log)
		return err
	})
	respond(w, lines, dispatchResult{
		Variant:      res.Variant.Name,
		Copied:       res.Copied,
		ShellStarted: res.ShellStarted,
		OutputOpened: res.OutputOpened,
	}, err)
}

func (s *Server) handleModules(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	code := r.URL.Query().Get("variant")
	if _, ok := model.VariantByCode(code); !ok {
		http.Error(w, "variant must be m or s", http.StatusBadRequest)
		return
	}

	var rep makefile.ModuleReport
	lines, err := s.run(func(log *report.Logger) error {
		var err error
		rep, err = s.ops.CheckModules(code, log)
		return err
	})
	if err == nil && !rep.OK() {
		err = fmt.Errorf("%d module(s) missing from the makefile", len(rep.Missing))
	}
	respond(w, lines, rep, err)
}

// respond writes an operation outcome. Operation failures are reported in
// the body with 200 so the page can show the log; only the source-not-found
// and classification errors map to client errors.
func respond(w http.ResponseWriter, lines []report.Line, result any, err error) {
	status := http.StatusOK
	resp := opResponse{OK: err == nil, Lines: lines, Result: result}
	if resp.Lines == nil {
		resp.Lines = []report.Line{}
	}
	if err != nil {
		resp.Error = err.Error()
		if errors.Is(err, dispatch.ErrSourceNotFound) || errors.Is(err, model.ErrUnclassified) {
			status = http.StatusUnprocessableEntity
		}
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// LsEntry is one row of a directory listing used by the page's browser.
type LsEntry struct {
	Name    string `json:"name"`
	IsDir   bool   `json:"is_dir"`
	Size    int64  `json:"size"`
	ModTime string `json:"mod_time"`
}

func handleLs(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		http.Error(w, "path is required", http.StatusBadRequest)
		return
	}
	path = model.CleanInput(path)

	files, err := os.ReadDir(path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	entries := []LsEntry{}
	for _, f := range files {
		info, err := f.Info()
		if err != nil {
			continue
		}
		entries = append(entries, LsEntry{
			Name:    f.Name(),
			IsDir:   f.IsDir(),
			Size:    info.Size(),
			ModTime: info.ModTime().Format("Jan 02 15:04"),
		})
	}
	writeJSON(w, http.StatusOK, entries)
}

func handleHelp(w http.ResponseWriter, r *http.Request) {
	text := strings.ReplaceAll(helpMD, "{{VERSION}}", model.Version)
	w.Header().Set("Content-Type", "text/markdown")
	_, _ = w.Write([]byte(text))
}
