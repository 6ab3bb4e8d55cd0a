package browser_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"

	"edtpro/internal/adapters/api"
	web "edtpro/internal/adapters/http"
	"edtpro/internal/adapters/http/middleware"
	"edtpro/internal/adapters/http/perf"
	"edtpro/internal/adapters/storage"
	"edtpro/internal/adapters/storage/clientstore"
	"edtpro/internal/application/session"
	"edtpro/internal/application/validation"
)

const testPassword = "secret1"

var profiles = map[string]string{
	"admin@edt.pro": `{"id":1,"nom":"Alice Admin","email":"admin@edt.pro","role":"ADMIN"}`,
	"prof@edt.pro": `{"id":2,"nom":"Tom Prof","email":"prof@edt.pro","role":"ENSEIGNANT",
		"enseignant":{"id":20,"poste":"Maître de conférences","matieres":[
			{"matiereId":7,"matiere":{"id":7,"nom":"Algorithmique","niveau":{"id":3,"nom":"L2"}}}]}}`,
	"etu@edt.pro": `{"id":3,"nom":"Sam Student","email":"etu@edt.pro","role":"ETUDIANT",
		"etudiant":{"id":30,"matricule":"E123","niveau":{"id":3,"nom":"L2","departement":{"id":1,"nom":"Informatique"}}}}`,
}

// backendAPI is an in-process stand-in for the EDT Pro REST API.
type backendAPI struct {
	mu    sync.Mutex
	notes []byte
	puts  int
}

func (b *backendAPI) lastSave() (notes string, puts int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.notes), b.puts
}

func (b *backendAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body struct{ Email, Password string }
		json.NewDecoder(r.Body).Decode(&body)
		profile, ok := profiles[body.Email]
		if !ok || body.Password != testPassword {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message":"Identifiants invalides"}`))
			return
		}
		w.Write([]byte(`{"accessToken":"tok-` + body.Email + `","user":` + profile + `}`))
	})
	mux.HandleFunc("GET /api/utilisateurs/{id}", func(w http.ResponseWriter, r *http.Request) {
		for _, p := range profiles {
			if strings.HasPrefix(p, `{"id":`+r.PathValue("id")+`,`) {
				w.Write([]byte(p))
				return
			}
		}
		http.NotFound(w, r)
	})
	mux.HandleFunc("GET /api/niveaux", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":3,"nom":"L2"}]`))
	})
	mux.HandleFunc("GET /api/matieres", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":7,"nom":"Algorithmique"}]`))
	})
	mux.HandleFunc("GET /api/matieres/{id}/notes", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"studentId":30,"studentName":"Sam Student","registrationNumber":"E123","grade":12.5},
			{"studentId":31,"studentName":"Lea Lune","registrationNumber":"E124","grade":null}]`))
	})
	mux.HandleFunc("PUT /api/matieres/{id}/notes", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		b.mu.Lock()
		b.notes = body
		b.puts++
		b.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

// testApp holds the running test server and Playwright handles.
type testApp struct {
	BaseURL string
	Server  *http.Server
	Backend *backendAPI
	PW      *playwright.Playwright
	Browser playwright.Browser
}

// newTestApp starts the web front-end against a fake API, with a temp SQLite client store.
func newTestApp(t *testing.T) *testApp {
	t.Helper()

	backend := &backendAPI{}
	apiServer := httptest.NewServer(backend.handler())
	t.Cleanup(apiServer.Close)

	dbPath := filepath.Join(t.TempDir(), "client.db")
	db, err := storage.OpenSQLite(dbPath)
	if err != nil {
		t.Fatalf("failed to open test DB: %v", err)
	}
	if err := storage.MigrateDB(db); err != nil {
		t.Fatalf("failed to migrate test DB: %v", err)
	}
	collector := perf.NewCollector(1000)
	store := clientstore.NewSQLiteStore(storage.NewTimedDB(db, collector, storage.DefaultSlowQueryMs), time.Hour)

	// Find a free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	mux := web.NewMux(web.Deps{
		Sessions:  session.NewAccessor(store),
		API:       api.NewClient(apiServer.URL, 5*time.Second, collector),
		Validator: validation.New(),
		Collector: collector,
		Limiter:   middleware.NewRateLimiter(1000, time.Second),
		Options: web.Options{
			CSRFKey: bytes.Repeat([]byte("b"), 32),
			TrustedOrigins: []string{
				fmt.Sprintf("127.0.0.1:%d", port),
				fmt.Sprintf("localhost:%d", port),
			},
			CookieMaxAge: time.Hour,
		},
	})
	srv := &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", port),
		Handler: mux,
	}
	go func() {
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("test server error: %v", err)
		}
	}()

	// Wait for server to be ready
	baseURL := fmt.Sprintf("http://127.0.0.1:%d", port)
	for i := 0; i < 50; i++ {
		resp, err := http.Get(baseURL + "/healthz")
		if err == nil {
			resp.Body.Close()
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	pw, err := playwright.Run()
	if err != nil {
		t.Fatalf("failed to start Playwright: %v", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		t.Fatalf("failed to launch browser: %v", err)
	}

	t.Cleanup(func() {
		browser.Close()
		pw.Stop()
		srv.Close()
		db.Close()
	})

	return &testApp{
		BaseURL: baseURL,
		Server:  srv,
		Backend: backend,
		PW:      pw,
		Browser: browser,
	}
}

// newPage creates a new browser page (tab).
func (a *testApp) newPage(t *testing.T) playwright.Page {
	t.Helper()
	page, err := a.Browser.NewPage()
	if err != nil {
		t.Fatalf("failed to create page: %v", err)
	}
	t.Cleanup(func() { page.Close() })
	return page
}

// login signs in through the login form and waits for the dashboard.
func (a *testApp) login(t *testing.T, page playwright.Page, email string) {
	t.Helper()
	if _, err := page.Goto(a.BaseURL + "/login"); err != nil {
		t.Fatalf("failed to navigate to login: %v", err)
	}
	if err := page.Locator("input[name=email]").Fill(email); err != nil {
		t.Fatalf("failed to fill email: %v", err)
	}
	if err := page.Locator("input[name=password]").Fill(testPassword); err != nil {
		t.Fatalf("failed to fill password: %v", err)
	}
	if err := page.Locator("button[type=submit]").Click(); err != nil {
		t.Fatalf("failed to click login: %v", err)
	}
	if err := page.WaitForURL(a.BaseURL+"/dashboard", playwright.PageWaitForURLOptions{
		Timeout: playwright.Float(10000),
	}); err != nil {
		t.Fatalf("login did not redirect to dashboard: %v", err)
	}
}
