package server

import (
	"html/template"
	"net/http"
	"net/url"
	"sync"

	"github.com/desertthunder/intmo/internal/auth"
)

var resultPage = template.Must(template.New("result").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>{{.Title}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #121212; }
        .container { text-align: center; background: #181818; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.4); }
        h1 { color: {{.Color}}; margin: 0 0 1rem 0; }
        p { color: #b3b3b3; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>{{.Title}}</h1>
        <p>{{.Message}}</p>
    </div>
</body>
</html>
`))

type pageData struct {
	Title   string
	Message string
	Color   string
}

// RedirectHandler hands the first request on its path to an [auth.CallbackHandler].
//
// Implements the [Handler] interface for registration with a [Router].
type RedirectHandler struct {
	path    string
	deliver auth.CallbackHandler

	mu  sync.Mutex
	hit bool
}

// NewRedirectHandler creates a [RedirectHandler] serving path.
func NewRedirectHandler(path string, deliver auth.CallbackHandler) *RedirectHandler {
	return &RedirectHandler{path: path, deliver: deliver}
}

// Routes returns the HTTP routes this handler serves.
func (h *RedirectHandler) Routes() []string {
	return []string{h.path}
}

// ServeHTTP delivers the redirect URI and renders a page for the browser.
func (h *RedirectHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if r.URL.Path != h.path {
		http.NotFound(w, r)
		return
	}

	h.mu.Lock()
	if h.hit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.hit = true
	h.mu.Unlock()

	uri := *r.URL
	uri.Scheme = "http"
	uri.Host = r.Host
	h.deliver(&uri, nil)

	page := pageData{
		Title:   "Authorization received",
		Message: "You can close this window and return to the terminal.",
		Color:   "#1DB954",
	}
	status := http.StatusOK
	if q, err := url.ParseQuery(r.URL.RawQuery); err != nil || q.Get("error") != "" {
		page = pageData{
			Title:   "Authorization failed",
			Message: "Spotify did not grant access. Check the terminal for details.",
			Color:   "#E22134",
		}
		status = http.StatusBadRequest
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = resultPage.Execute(w, page)
}
