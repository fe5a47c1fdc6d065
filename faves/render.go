package faves

import (
	"bytes"
	"embed"
	"encoding/json"
	"encoding/xml"
	"html/template"
	"net/http"
)

//go:embed templates/*.html
var templateFS embed.FS

var defaultTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// payload carries one response in every representation a handler can emit.
type payload struct {
	status int
	json   any
	xml    any
	html   map[string]any
}

// respond writes p in the format negotiated for r.
func (b *base) respond(w http.ResponseWriter, r *http.Request, p payload) {
	switch b.format(r) {
	case FormatJSON:
		writeJSON(w, p.status, p.json)
	case FormatXML:
		writeXML(w, p.status, p.xml)
	default:
		var buf bytes.Buffer
		if err := b.tmpl.ExecuteTemplate(&buf, b.tmplName, b.context(p.html)); err != nil {
			b.log.Error("rendering favorites template", "template", b.tmplName, "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(p.status)
		_, _ = buf.WriteTo(w)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeXML(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(xml.Header))
	_ = xml.NewEncoder(w).Encode(v)
}

type xmlError struct {
	XMLName xml.Name `xml:"error"`
	Message string   `xml:",chardata"`
}

func writeFailure(w http.ResponseWriter, format Format, status int, message string) {
	switch format {
	case FormatJSON:
		writeJSON(w, status, map[string]string{"error": message})
	case FormatXML:
		writeXML(w, status, xmlError{Message: message})
	default:
		http.Error(w, message, status)
	}
}
