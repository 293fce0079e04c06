package api

import (
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/ternarybob/abacus/pkg/calc"
	"github.com/ternarybob/abacus/pkg/keypad"
	"github.com/ternarybob/abacus/pkg/session"
	"github.com/ternarybob/abacus/web"
)

const sessionCookie = "abacus_session"

// WebIndexData is the data for the keypad page template.
type WebIndexData struct {
	Version string
	Display string
	Pending string
	Rows    [][]keypad.Button
}

func (s *Server) handleWebRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/web/", http.StatusFound)
}

func (s *Server) handleWebIndex(w http.ResponseWriter, r *http.Request) {
	// Viewing the page does not create a session; the first press does
	state := calc.Initial()
	if sess, ok := s.cookieSession(r); ok {
		state = sess.State()
	}

	tmpl, err := template.ParseFS(web.Templates, "templates/index.html")
	if err != nil {
		http.Error(w, "Template error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	data := WebIndexData{
		Version: version,
		Display: calc.Display(state),
		Rows:    keypad.Layout(),
	}
	if state.Pending != calc.OpNone && state.Pending != calc.OpEquals {
		data.Pending = state.Pending.String()
	}

	w.Header().Set("Content-Type", "text/html")
	if err := tmpl.Execute(w, data); err != nil {
		http.Error(w, "Template execution error: "+err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleWebPress(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	in, err := keypad.Parse(r.PostFormValue("key"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sess, err := s.webSession(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	if _, err := sess.Press(in); err != nil {
		s.logger.Error().Err(err).Str("session_id", sess.ID()).Msg("Failed to save session")
		http.Error(w, "Failed to save session", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/web/", http.StatusSeeOther)
}

// cookieSession returns the session named by the browser's cookie.
func (s *Server) cookieSession(r *http.Request) (session.Session, bool) {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return nil, false
	}
	sess, err := s.store.Get(c.Value)
	if err != nil {
		return nil, false
	}
	return sess, true
}

// webSession returns the browser's session, creating one when the
// cookie is missing or stale.
func (s *Server) webSession(w http.ResponseWriter, r *http.Request) (session.Session, error) {
	if sess, ok := s.cookieSession(r); ok {
		return sess, nil
	}

	sess, err := s.store.Create()
	if err != nil {
		return nil, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.ID(),
		Path:     "/web",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sess, nil
}

func (s *Server) handleWebStatic(w http.ResponseWriter, r *http.Request) {
	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	fileName := strings.TrimPrefix(r.URL.Path, "/web/static/")

	switch filepath.Ext(fileName) {
	case ".css":
		w.Header().Set("Content-Type", "text/css")
	case ".js":
		w.Header().Set("Content-Type", "application/javascript")
	case ".svg":
		w.Header().Set("Content-Type", "image/svg+xml")
	}

	data, err := fs.ReadFile(staticFS, fileName)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	w.Write(data)
}
