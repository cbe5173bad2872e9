package server

import (
	"html/template"
	"log/slog"
	"net/http"
)

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>mlvis sessions</title></head>
<body>
<h1>Sessions</h1>
{{if .}}
<table>
<tr><th>ID</th><th>Kind</th><th>Running</th><th>Progress</th></tr>
{{range .}}
<tr>
<td><a href="/api/v1/sessions/{{.ID}}">{{.ID}}</a></td>
<td>{{.Kind}}</td>
<td>{{.Running}}</td>
<td>{{with .Conv}}step {{.Step}} of {{.TotalSteps}}{{end}}{{with .Descent}}{{.Objective}}, iteration {{.Iteration}}, loss {{printf "%.4f" .Position.Z}}{{end}}</td>
</tr>
{{end}}
</table>
{{else}}
<p>No sessions. POST /api/v1/sessions to create one.</p>
{{end}}
</body>
</html>
`))

// handleIndex handles GET /
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	sessions := s.sessions.ListSessions()
	snaps := make([]Snapshot, len(sessions))
	for i, sess := range sessions {
		snaps[i] = sess.Snapshot()
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, snaps); err != nil {
		slog.Error("Failed to render index", "error", err)
	}
}
