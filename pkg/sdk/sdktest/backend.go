// Package sdktest provides an in-memory feedback backend for tests.
//
// Backend honours the same HTTP contract as the production service: cookie
// sessions, admin-only delete/summarize/export, keyword sentiment on create,
// and first-sentence summaries. Hooks allow tests to delay or fail calls.
package sdktest

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/felixgeelhaar/feedback/pkg/domain/feedback"
	"github.com/google/uuid"
)

const sessionCookie = "session"

// Default admin credentials accepted by POST /admin/login.
const (
	AdminUsername = "admin"
	AdminPassword = "admin123"
)

type account struct {
	name     string
	password string
}

type sessionState struct {
	admin    bool
	email    string
	userName string
}

// Backend is a fake feedback service. The zero value is not usable; call
// NewBackend.
type Backend struct {
	mu       sync.Mutex
	items    []feedback.Item
	nextID   int
	accounts map[string]account
	sessions map[string]sessionState
	uploads  map[string][]byte
	calls    map[string]int

	// Now stamps new items.
	Now func() time.Time
	// BeforeSummarize runs before a summary is produced, outside the lock.
	// Returning an error makes the endpoint answer 500.
	BeforeSummarize func(id int) error
	// OmitSentimentStats drops by_sentiment from GET /stats.
	OmitSentimentStats bool
	// LastForm records the form field names of the latest POST /feedback.
	LastForm []string
}

// NewBackend creates an empty backend.
func NewBackend() *Backend {
	return &Backend{
		nextID:   1,
		accounts: make(map[string]account),
		sessions: make(map[string]sessionState),
		uploads:  make(map[string][]byte),
		calls:    make(map[string]int),
		Now:      time.Now,
	}
}

// NewServer starts an httptest server for b. Callers must Close it.
func NewServer(b *Backend) *httptest.Server {
	return httptest.NewServer(b.Handler())
}

// Seed appends items as if they had been submitted, assigning ids.
func (b *Backend) Seed(items ...feedback.Item) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, it := range items {
		it.ID = b.nextID
		b.nextID++
		if it.Timestamp.IsZero() {
			it.Timestamp = feedback.Timestamp{Time: b.Now().UTC().Truncate(time.Second)}
		}
		b.items = append(b.items, it)
	}
}

// AddUser registers an account directly.
func (b *Backend) AddUser(name, email, password string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.accounts[email] = account{name: name, password: password}
}

// Items returns a copy of the stored items.
func (b *Backend) Items() []feedback.Item {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]feedback.Item(nil), b.items...)
}

// Calls returns how often "METHOD /path-pattern" was hit.
func (b *Backend) Calls(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[route]
}

// ExpireSessions drops every session, as a server restart would.
func (b *Backend) ExpireSessions() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sessions = make(map[string]sessionState)
}

// Handler returns the routing handler.
func (b *Backend) Handler() http.Handler {
	mux := http.NewServeMux()
	b.route(mux, "GET /feedback", b.listFeedback)
	b.route(mux, "POST /feedback", b.createFeedback)
	b.route(mux, "DELETE /feedback/{id}", b.deleteFeedback)
	b.route(mux, "GET /stats", b.stats)
	b.route(mux, "GET /summarize/{id}", b.summarize)
	b.route(mux, "GET /check-admin", b.checkAdmin)
	b.route(mux, "GET /check-user", b.checkUser)
	b.route(mux, "POST /admin/login", b.adminLogin)
	b.route(mux, "POST /admin/logout", b.logout)
	b.route(mux, "POST /user/signup", b.signup)
	b.route(mux, "POST /user/login", b.userLogin)
	b.route(mux, "POST /user/logout", b.logout)
	b.route(mux, "GET /export/csv", b.exportCSV)
	b.route(mux, "GET /export/json", b.exportJSON)
	b.route(mux, "GET /uploads/{name}", b.upload)
	return mux
}

func (b *Backend) route(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.calls[pattern]++
		b.mu.Unlock()
		h(w, r)
	})
}

// session returns the caller's session; b.mu must be held.
func (b *Backend) session(r *http.Request) (string, sessionState, bool) {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return "", sessionState{}, false
	}
	s, ok := b.sessions[c.Value]
	return c.Value, s, ok
}

func (b *Backend) startSession(w http.ResponseWriter, r *http.Request, s sessionState) {
	if token, _, ok := b.session(r); ok {
		delete(b.sessions, token)
	}
	token := uuid.New().String()
	b.sessions[token] = s
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: token, Path: "/", HttpOnly: true})
}

func (b *Backend) isAdmin(r *http.Request) bool {
	_, s, ok := b.session(r)
	return ok && s.admin
}

func (b *Backend) listFeedback(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	items := append([]feedback.Item{}, b.items...)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, items)
}

func (b *Backend) createFeedback(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(5 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	var fields []string
	for name := range r.MultipartForm.Value {
		fields = append(fields, name)
	}
	for name := range r.MultipartForm.File {
		fields = append(fields, name)
	}

	var screenshot string
	var data []byte
	if f, hdr, err := r.FormFile("screenshot"); err == nil {
		data, _ = io.ReadAll(f)
		_ = f.Close()
		screenshot = filepath.Base(hdr.Filename)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.LastForm = fields

	userName := feedback.AnonymousAuthor
	if _, s, ok := b.session(r); ok && s.userName != "" {
		userName = s.userName
	}

	text := r.FormValue("text")
	item := feedback.Item{
		ID:        b.nextID,
		Text:      text,
		Category:  feedback.Category(r.FormValue("category")),
		Sentiment: Classify(text),
		UserName:  userName,
		Timestamp: feedback.Timestamp{Time: b.Now().UTC().Truncate(time.Second)},
	}
	if screenshot != "" {
		b.uploads[screenshot] = data
		item.Screenshot = "/uploads/" + screenshot
	}
	b.nextID++
	b.items = append(b.items, item)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Feedback added!"})
}

func (b *Backend) deleteFeedback(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.isAdmin(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}
	id, _ := strconv.Atoi(r.PathValue("id"))
	for i, it := range b.items {
		if it.ID == id {
			b.items = append(b.items[:i], b.items[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"message": "Deleted"})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "Feedback not found"})
}

func (b *Backend) stats(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	byCategory := map[string]int{}
	bySentiment := map[string]int{}
	for _, it := range b.items {
		byCategory[it.Category.String()]++
		bySentiment[it.Sentiment.String()]++
	}
	body := map[string]any{"total": len(b.items), "by_category": byCategory}
	if !b.OmitSentimentStats {
		body["by_sentiment"] = bySentiment
	}
	writeJSON(w, http.StatusOK, body)
}

func (b *Backend) summarize(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	admin := b.isAdmin(r)
	hook := b.BeforeSummarize
	b.mu.Unlock()
	if !admin {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	id, _ := strconv.Atoi(r.PathValue("id"))
	if hook != nil {
		if err := hook(id); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Unable to generate summary."})
			return
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, it := range b.items {
		if it.ID == id && strings.TrimSpace(it.Text) != "" {
			writeJSON(w, http.StatusOK, map[string]string{"summary": FirstSentence(it.Text)})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "Feedback not found or empty"})
}

func (b *Backend) checkAdmin(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]bool{"admin": b.isAdmin(r)})
}

func (b *Backend) checkUser(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, s, ok := b.session(r)
	writeJSON(w, http.StatusOK, map[string]bool{"user": ok && s.email != ""})
}

func (b *Backend) adminLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	b.mu.Lock()
	defer b.mu.Unlock()
	if body.Username != AdminUsername || body.Password != AdminPassword {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
		return
	}
	b.startSession(w, r, sessionState{admin: true})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Login successful"})
}

func (b *Backend) signup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.accounts[body.Email]; exists {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "User already exists"})
		return
	}
	b.accounts[body.Email] = account{name: body.Name, password: body.Password}
	writeJSON(w, http.StatusOK, map[string]string{"message": "User registered"})
}

func (b *Backend) userLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	b.mu.Lock()
	defer b.mu.Unlock()
	acct, ok := b.accounts[body.Email]
	if !ok || acct.password != body.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid email or password"})
		return
	}
	b.startSession(w, r, sessionState{email: body.Email, userName: acct.name})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Login successful"})
}

func (b *Backend) logout(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if token, _, ok := b.session(r); ok {
		delete(b.sessions, token)
	}
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (b *Backend) exportCSV(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.isAdmin(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	_ = cw.Write([]string{"ID", "Text", "Category", "Sentiment", "User", "Timestamp", "Screenshot"})
	for _, it := range b.items {
		_ = cw.Write([]string{
			strconv.Itoa(it.ID), it.Text, it.Category.String(), it.Sentiment.String(),
			it.UserName, it.Timestamp.Format("2006-01-02 15:04:05"), strings.TrimPrefix(it.Screenshot, "/uploads/"),
		})
	}
	cw.Flush()
	w.Header().Set("Content-Disposition", "attachment; filename=feedback.csv")
	w.Header().Set("Content-Type", "text/csv")
	_, _ = w.Write(buf.Bytes())
}

func (b *Backend) exportJSON(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.isAdmin(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}
	w.Header().Set("Content-Disposition", "attachment; filename=feedback.json")
	writeJSON(w, http.StatusOK, b.items)
}

func (b *Backend) upload(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	data, ok := b.uploads[r.PathValue("name")]
	b.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	_, _ = w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		panic(fmt.Sprintf("sdktest: encode response: %v", err))
	}
}
