package kinet

import (
	"bytes"
	"encoding/json"
	"errors"
	"html"
	"net/http"

	"github.com/kinet-dev/kinet/pkg/dom"
	"github.com/kinet-dev/kinet/pkg/server"
)

// shellBoot is the bootstrap object the client runtime reads on load. The
// session ID hands the hydrating client the session whose tree it is
// already looking at.
type shellBoot struct {
	Session  string `json:"session"`
	Endpoint string `json:"endpoint"`
	Debug    bool   `json:"debug,omitempty"`
}

// serveShell renders the root component and wraps it in the HTML document
// that loads the client runtime. Each response pre-creates a session; the
// session ages out with the resume window if the client never connects.
func (a *App) serveShell(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	root := a.rootFactory
	a.mu.Unlock()
	if root == nil {
		http.NotFound(w, r)
		return
	}

	sess, err := a.server.CreateSession()
	if err != nil {
		if errors.Is(err, server.ErrMaxSessionsReached) {
			a.logger.Warn("shell rejected, session limit reached")
			http.Error(w, "server busy", http.StatusServiceUnavailable)
			return
		}
		a.logger.Error("session create failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	node := sess.MountRoot(root())
	body := dom.RenderToString(node)

	boot, err := json.Marshal(shellBoot{
		Session:  sess.ID,
		Endpoint: wsPath,
		Debug:    a.cfg.DevMode,
	})
	if err != nil {
		sess.Close()
		a.logger.Error("bootstrap encode failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	// Every page load owns a fresh session, so the document must never be
	// served from a cache.
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(a.shellDocument(body, boot))
}

// shellDocument assembles the page around the rendered component. The
// bootstrap script runs before the deferred client runtime, so the runtime
// finds its configuration on window.
func (a *App) shellDocument(body string, boot []byte) []byte {
	var b bytes.Buffer
	b.WriteString("<!DOCTYPE html>\n")
	b.WriteString(`<html lang="` + html.EscapeString(a.cfg.Shell.Lang) + "\">\n")
	b.WriteString("<head>\n")
	b.WriteString("<meta charset=\"utf-8\">\n")
	b.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n")
	b.WriteString("<title>" + html.EscapeString(a.cfg.Shell.Title) + "</title>\n")
	if a.cfg.Shell.Head != "" {
		b.WriteString(a.cfg.Shell.Head)
		b.WriteByte('\n')
	}
	b.WriteString("</head>\n<body>\n")
	b.WriteString(body)
	b.WriteByte('\n')
	b.WriteString("<script>window.__kinet = ")
	b.Write(boot)
	b.WriteString(";</script>\n")
	b.WriteString(`<script src="` + clientPath + "\" defer></script>\n")
	b.WriteString("</body>\n</html>\n")
	return b.Bytes()
}
