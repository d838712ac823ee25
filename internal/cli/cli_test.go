package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bytedance/sonic"
	"github.com/golang-jwt/jwt/v4"

	"github.com/idilsaglam/kanban/internal/auth"
	"github.com/idilsaglam/kanban/internal/board"
	"github.com/idilsaglam/kanban/internal/config"
	"github.com/idilsaglam/kanban/internal/model"
	"github.com/idilsaglam/kanban/internal/store/jsonstore"
)

type testEnv struct {
	t         *testing.T
	home, cwd string
	runTUI    func(ctx context.Context, a *App, boardID string) error
}

func newTestEnv(t *testing.T, configYAML string) *testEnv {
	t.Helper()
	e := &testEnv{t: t, home: t.TempDir(), cwd: t.TempDir()}
	if configYAML != "" {
		p := filepath.Join(e.home, config.AppDir, "config.yaml")
		if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(configYAML), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	t.Setenv(auth.EnvToken, "")
	return e
}

func (e *testEnv) run(args ...string) (int, string, string) {
	e.t.Helper()
	var out, errb bytes.Buffer
	code := Run(context.Background(), args, Options{
		Stdin:  strings.NewReader(""),
		Stdout: &out,
		Stderr: &errb,
		Paths:  config.Paths{Home: e.home, Cwd: e.cwd},
		RunTUI: e.runTUI,
	})
	return code, out.String(), errb.String()
}

func (e *testEnv) mustRun(args ...string) string {
	e.t.Helper()
	code, out, errOut := e.run(args...)
	if code != ExitOK {
		e.t.Fatalf("%v: exit %d\nstdout: %s\nstderr: %s", args, code, out, errOut)
	}
	return out
}

// repo opens the data directory the CLI writes to.
func (e *testEnv) repo() *board.Repository {
	return board.New(jsonstore.New(filepath.Join(e.home, config.AppDir, "data"), nil))
}

func (e *testEnv) workspace(name string) *board.Workspace {
	e.t.Helper()
	ctx := context.Background()
	r := e.repo()
	boards, err := r.SearchBoards(ctx, name)
	if err != nil || len(boards) != 1 {
		e.t.Fatalf("board %q: %+v %v", name, boards, err)
	}
	ws, err := r.Open(ctx, boards[0].ID)
	if err != nil {
		e.t.Fatal(err)
	}
	return ws
}

func taskByTitle(t *testing.T, ws *board.Workspace, title string) model.Task {
	t.Helper()
	for _, tk := range ws.Tasks() {
		if tk.Title == title {
			return tk
		}
	}
	t.Fatalf("no task %q", title)
	return model.Task{}
}

func authServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestBoardCommandsRequireSession(t *testing.T) {
	e := newTestEnv(t, "")
	for _, args := range [][]string{{"board", "ls"}, {"column", "add", "b", "c"}, {"task", "rm", "b", "t"}, {"tui"}} {
		code, _, errOut := e.run(args...)
		if code != ExitUsage {
			t.Fatalf("%v: exit %d", args, code)
		}
		if !strings.Contains(errOut, "not logged in") || !strings.Contains(errOut, "kanban auth login") {
			t.Fatalf("%v: stderr %q", args, errOut)
		}
	}
}

func TestLoginSessionLifecycle(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": "ada@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatal(err)
	}
	srv, _ := authServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/login" {
			http.NotFound(w, r)
			return
		}
		var body map[string]string
		b, _ := readBody(r)
		_ = sonic.Unmarshal(b, &body)
		if body["email"] != "ada@example.com" || body["password"] != "secret1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"token":"` + token + `"}`))
	})
	e := newTestEnv(t, "auth_url: "+srv.URL+"\n")

	e.mustRun("auth", "login", "-e", "ada@example.com", "-p", "secret1")
	fi, err := os.Stat(filepath.Join(e.home, config.AppDir, "session.json"))
	if err != nil {
		t.Fatalf("session file: %v", err)
	}
	if fi.Mode().Perm() != 0o600 {
		t.Fatalf("session file mode %v", fi.Mode().Perm())
	}

	if out := e.mustRun("auth", "status"); !strings.Contains(out, "logged in (source: file)") {
		t.Fatalf("status: %q", out)
	}
	if out := e.mustRun("auth", "whoami"); !strings.Contains(out, "email: ada@example.com") {
		t.Fatalf("whoami: %q", out)
	}
	if code, _, errOut := e.run("auth", "login", "-e", "ada@example.com", "-p", "secret1"); code != ExitUsage || !strings.Contains(errOut, "already logged in") {
		t.Fatalf("second login: exit %d %q", code, errOut)
	}
	if code, _, _ := e.run("auth", "register", "-u", "ada", "--full-name", "Ada", "-e", "ada@example.com", "-p", "secret1"); code != ExitUsage {
		t.Fatalf("register while logged in: exit %d", code)
	}
	e.mustRun("board", "ls")

	e.mustRun("auth", "logout")
	if out := e.mustRun("auth", "status"); strings.TrimSpace(out) != "logged out" {
		t.Fatalf("status after logout: %q", out)
	}
}

func TestLoginFailureUsesServerMessage(t *testing.T) {
	srv, _ := authServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Wrong password"}`))
	})
	e := newTestEnv(t, "auth_url: "+srv.URL+"\n")

	code, _, errOut := e.run("auth", "login", "-e", "ada@example.com", "-p", "secret1")
	if code != ExitError || !strings.Contains(errOut, "email: Wrong password") {
		t.Fatalf("exit %d, stderr %q", code, errOut)
	}
	if _, err := os.Stat(filepath.Join(e.home, config.AppDir, "session.json")); !os.IsNotExist(err) {
		t.Fatal("failed login stored a session")
	}
}

func TestLoginValidationSkipsServer(t *testing.T) {
	srv, calls := authServer(t, func(w http.ResponseWriter, _ *http.Request) {})
	e := newTestEnv(t, "auth_url: "+srv.URL+"\n")

	code, _, errOut := e.run("auth", "login", "-e", "not-an-email", "-p", "123")
	if code != ExitUsage {
		t.Fatalf("exit %d", code)
	}
	for _, want := range []string{"email: Invalid email format", "password: Password must be at least 6 characters"} {
		if !strings.Contains(errOut, want) {
			t.Fatalf("stderr %q missing %q", errOut, want)
		}
	}
	if atomic.LoadInt32(calls) != 0 {
		t.Fatal("invalid form reached the server")
	}
}

func TestLoginPromptsForPassword(t *testing.T) {
	srv, _ := authServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"token":"opaque"}`))
	})
	e := newTestEnv(t, "auth_url: "+srv.URL+"\n")

	var out, errb bytes.Buffer
	code := Run(context.Background(), []string{"auth", "login", "-e", "ada@example.com"}, Options{
		Stdin:  strings.NewReader("secret1\n"),
		Stdout: &out,
		Stderr: &errb,
		Paths:  config.Paths{Home: e.home, Cwd: e.cwd},
	})
	if code != ExitOK || !strings.Contains(errb.String(), "Password: ") {
		t.Fatalf("exit %d, stderr %q", code, errb.String())
	}
}

func TestRegister(t *testing.T) {
	var got map[string]string
	srv, _ := authServer(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := readBody(r)
		_ = sonic.Unmarshal(b, &got)
		w.WriteHeader(http.StatusCreated)
	})
	e := newTestEnv(t, "auth_url: "+srv.URL+"\n")

	out := e.mustRun("auth", "register", "-u", "ada", "--full-name", "Ada Lovelace", "-e", "ada@example.com", "-p", "secret1")
	if !strings.Contains(out, "account created") || !strings.Contains(out, "kanban auth login") {
		t.Fatalf("stdout %q", out)
	}
	if got["full_name"] != "Ada Lovelace" || got["username"] != "ada" {
		t.Fatalf("request body %v", got)
	}
}

func TestBoardColumnTaskFlow(t *testing.T) {
	e := newTestEnv(t, "")
	t.Setenv(auth.EnvToken, "Bearer env-token")

	e.mustRun("board", "add", "Sprint 1", "-d", "first sprint")
	e.mustRun("board", "add", "Backlog")
	if out := e.mustRun("board", "ls", "--search", "sprint"); !strings.Contains(out, "Sprint 1") || strings.Contains(out, "Backlog") {
		t.Fatalf("board ls: %q", out)
	}

	e.mustRun("column", "add", "Sprint 1", "To Do")
	e.mustRun("column", "add", "sprint 1", "Done")
	for _, title := range []string{"A", "B"} {
		e.mustRun("task", "add", "Sprint 1", "to do",
			"--title", title, "--description", "d", "--created-by", "ada",
			"--assigned-to", "grace", "--due", "2025-01-01")
	}
	ws := e.workspace("Sprint 1")
	todo := ws.Columns()[0]
	a, b := taskByTitle(t, ws, "A"), taskByTitle(t, ws, "B")
	if a.Order != 0 || b.Order != 1 || a.Priority != model.PriorityMedium {
		t.Fatalf("unexpected tasks %+v %+v", a, b)
	}

	out := e.mustRun("board", "show", "Sprint 1")
	for _, want := range []string{"Sprint 1", "first sprint", "To Do", "Done", "A", "B", "100%", "(empty)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("board show missing %q:\n%s", want, out)
		}
	}

	// Reorder within the column, then move across.
	e.mustRun("task", "mv", "Sprint 1", b.ID, a.ID)
	ws = e.workspace("Sprint 1")
	if got := ws.ColumnTasks(todo.ID); got[0].ID != b.ID || got[1].ID != a.ID {
		t.Fatalf("after reorder: %+v", got)
	}
	e.mustRun("task", "mv", "Sprint 1", a.ID, "Done")
	ws = e.workspace("Sprint 1")
	if moved, _ := ws.Task(a.ID); moved.ColumnID != ws.Columns()[1].ID || moved.Order != 0 {
		t.Fatalf("after move: %+v", moved)
	}
	if out := e.mustRun("task", "mv", "Sprint 1", a.ID, a.ID); !strings.Contains(out, "nothing to move") {
		t.Fatalf("self drop: %q", out)
	}

	e.mustRun("task", "edit", "Sprint 1", b.ID, "--priority", "low")
	ws = e.workspace("Sprint 1")
	if edited, _ := ws.Task(b.ID); edited.Priority != model.PriorityLow || edited.Title != "B" || edited.Order != 0 {
		t.Fatalf("after edit: %+v", edited)
	}

	e.mustRun("task", "rm", "Sprint 1", b.ID)
	e.mustRun("column", "rename", "Sprint 1", "Done", "Shipped")
	if out := e.mustRun("column", "rm", "Sprint 1", "Shipped"); !strings.Contains(out, "with 1 task(s)") {
		t.Fatalf("column rm: %q", out)
	}
	ws = e.workspace("Sprint 1")
	if len(ws.Columns()) != 1 || len(ws.Tasks()) != 0 {
		t.Fatalf("left over: %+v %+v", ws.Columns(), ws.Tasks())
	}
}

func TestTaskAddValidationExitsWithUsage(t *testing.T) {
	e := newTestEnv(t, "")
	t.Setenv(auth.EnvToken, "tok")
	e.mustRun("board", "add", "B")
	e.mustRun("column", "add", "B", "Todo")

	code, _, errOut := e.run("task", "add", "B", "Todo", "--title", "x", "--due", "tomorrow", "--priority", "urgent")
	if code != ExitUsage {
		t.Fatalf("exit %d", code)
	}
	for _, want := range []string{"description: Description is required", "dueDate: Due date must be YYYY-MM-DD", "priority: Priority must be high, medium or low"} {
		if !strings.Contains(errOut, want) {
			t.Fatalf("stderr %q missing %q", errOut, want)
		}
	}
	if tasks := e.workspace("B").Tasks(); len(tasks) != 0 {
		t.Fatal("invalid task was written")
	}
}

func TestUsageErrors(t *testing.T) {
	e := newTestEnv(t, "")
	t.Setenv(auth.EnvToken, "tok")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing args", []string{"board", "add"}, "usage: kanban board add <name>"},
		{"unknown command", []string{"frobnicate"}, "unknown command"},
		{"unknown flag", []string{"board", "ls", "--bogus"}, "unknown flag"},
		{"unknown board", []string{"board", "show", "nope"}, "board not found"},
		{"empty board name", []string{"board", "add", " "}, "name: Board name is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, errOut := e.run(tt.args...)
			if code != ExitUsage {
				t.Fatalf("exit %d, stderr %q", code, errOut)
			}
			if !strings.Contains(errOut, tt.want) {
				t.Fatalf("stderr %q missing %q", errOut, tt.want)
			}
		})
	}
}

func TestTUIResolvesBoard(t *testing.T) {
	e := newTestEnv(t, "")
	t.Setenv(auth.EnvToken, "tok")
	e.mustRun("board", "add", "Ops")
	want := e.workspace("Ops").Board().ID

	var got string
	e.runTUI = func(_ context.Context, a *App, boardID string) error {
		if a.Repo == nil {
			t.Error("repository not wired")
		}
		got = boardID
		return nil
	}
	e.mustRun("tui", "ops")
	if got != want {
		t.Fatalf("board id = %q, want %q", got, want)
	}
}

func TestRedisStorage(t *testing.T) {
	mr := miniredis.RunT(t)
	e := newTestEnv(t, "storage: redis\nredis_url: redis://"+mr.Addr()+"\n")
	t.Setenv(auth.EnvToken, "tok")

	e.mustRun("board", "add", "Shared")
	if !mr.Exists("kanban:boards") {
		t.Fatalf("boards not written to redis, keys %v", mr.Keys())
	}
	if out := e.mustRun("board", "ls"); !strings.Contains(out, "Shared") {
		t.Fatalf("board ls: %q", out)
	}

	mr.Close()
	if code, _, errOut := e.run("board", "ls"); code != ExitError || !strings.Contains(errOut, "redis") {
		t.Fatalf("redis down: exit %d %q", code, errOut)
	}
}

func readBody(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	var buf bytes.Buffer
	_, err := buf.ReadFrom(r.Body)
	return buf.Bytes(), err
}
