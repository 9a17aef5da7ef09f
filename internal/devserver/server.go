package devserver

import (
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/SoarinFerret/TimeoutWarden/internal/session"
	"github.com/SoarinFerret/TimeoutWarden/internal/warning"
)

const (
	SessionCookie        = "TW_SESSION"
	DefaultTimeoutCookie = "session_timeout_data"
)

// Server is a small stand-in for the real application: it logs users in,
// keeps their sessions and publishes the timeout cookie on every response.
type Server struct {
	Store         *session.Store
	CSRFToken     string
	TimeoutCookie string
	Logger        *slog.Logger
}

func New(store *session.Store, csrfToken string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		Store:         store,
		CSRFToken:     csrfToken,
		TimeoutCookie: DefaultTimeoutCookie,
		Logger:        logger,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /extend-session", s.handleExtend)
	mux.HandleFunc("GET /logout", s.handleLogout)
	mux.HandleFunc("GET /logBackIn", s.handleLogBackIn)
	return mux
}

func (s *Server) sessionID(r *http.Request) string {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

func (s *Server) setCookies(w http.ResponseWriter, rec session.SessionRecord) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    rec.SessionId,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	// readable by the page, so not HttpOnly
	http.SetCookie(w, &http.Cookie{
		Name:     s.TimeoutCookie,
		Value:    rec.Schedule(s.Store.Policy, s.Store.Now()).Encode(),
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearCookies(w http.ResponseWriter) {
	for _, name := range []string{SessionCookie, s.TimeoutCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:    name,
			Value:   "",
			Path:    "/",
			MaxAge:  -1,
			Expires: time.Unix(0, 0),
		})
	}
}

// handleIndex counts as activity on a live session and starts one otherwise.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	rec, err := s.Store.Touch(s.sessionID(r), "request")
	if err != nil {
		rec = s.Store.Create()
		s.Logger.Info("started session", "session", rec.SessionId)
	}
	s.setCookies(w, rec)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, s.page(rec)); err != nil {
		s.Logger.Error("failed to render page", "err", err)
	}
}

func (s *Server) handleExtend(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	if s.CSRFToken != "" && r.PostForm.Get("csrfToken") != s.CSRFToken {
		s.Logger.Warn("extend rejected, bad csrf token")
		http.Error(w, "invalid csrf token", http.StatusForbidden)
		return
	}
	id := s.sessionID(r)
	var idle time.Duration
	if prev, err := s.Store.Get(id); err == nil {
		idle = prev.Idle(s.Store.Now())
	}
	rec, err := s.Store.Touch(id, "extend")
	if err != nil {
		s.Logger.Info("extend rejected", "err", err)
		http.Error(w, "session expired", http.StatusUnauthorized)
		return
	}
	s.Logger.Info("extended session", "session", rec.SessionId, "idle", idle)
	s.setCookies(w, rec)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if id := s.sessionID(r); id != "" {
		s.Store.End(id)
		s.Logger.Info("ended session", "session", id)
	}
	s.clearCookies(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	loggedOutTemplate.Execute(w, nil)
}

func (s *Server) handleLogBackIn(w http.ResponseWriter, r *http.Request) {
	if id := s.sessionID(r); id != "" {
		s.Store.End(id)
	}
	rec := s.Store.Create()
	s.Logger.Info("started session", "session", rec.SessionId)
	s.setCookies(w, rec)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type modalView struct {
	ID   string
	Type string
	Text warning.Text
}

type segmentView struct {
	Reason  string
	Started string
	Length  time.Duration
	Open    bool
}

type pageView struct {
	CSRFToken string
	Modals    []modalView
	Activity  []segmentView
}

func (s *Server) page(rec session.SessionRecord) pageView {
	now := s.Store.Now()
	pv := pageView{CSRFToken: s.CSRFToken}
	for _, seg := range rec.Segments {
		pv.Activity = append(pv.Activity, segmentView{
			Reason:  seg.Reason,
			Started: seg.StartTime.UTC().Format(time.RFC3339),
			Length:  seg.Length(now),
			Open:    seg.Open(),
		})
	}
	for _, k := range warning.Kinds {
		pv.Modals = append(pv.Modals, modalView{
			ID:   k.SurfaceID(),
			Type: k.ModalType(),
			Text: warning.DefaultText(k),
		})
	}
	return pv
}

var indexTemplate = template.Must(template.New("index").Parse(`<!doctype html>
<html>
<body>
<h1>Signed in</h1>
<table id="session-activity">
{{range .Activity}}<tr><td>{{.Reason}}</td><td>{{.Started}}</td><td>{{if .Open}}current{{else}}{{.Length}}{{end}}</td></tr>
{{end}}</table>
<form id="extend-session-form" method="post" action="/extend-session">
  <input type="hidden" name="csrfToken" value="{{.CSRFToken}}">
</form>
{{range .Modals}}
<div id="{{.ID}}" class="is-hidden" data-modal-type="{{.Type}}">
  <h2>{{.Text.Heading}}</h2>
  <p>{{.Text.Body}}</p>
  <button data-modal-primary data-modal-type="{{.Type}}">{{.Text.Primary}}</button>
  <button data-modal-secondary data-modal-type="{{.Type}}">{{.Text.Secondary}}</button>
  <button data-close-modal data-modal-type="{{.Type}}">Close</button>
</div>
{{end}}
</body>
</html>
`))

var loggedOutTemplate = template.Must(template.New("loggedOut").Parse(`<!doctype html>
<html>
<body>
<h1>Signed out</h1>
<a href="/logBackIn">Log back in</a>
</body>
</html>
`))
