package templates

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	htmpl "html/template"
	"reflect"
	"strings"
	texttpl "text/template"
	"time"
)

//go:embed *.tmpl
var FS embed.FS

// Template names. Each has <name>.subject.tmpl, <name>.text.tmpl and
// <name>.html.tmpl.
const (
	VerifyEmail   = "verify_email"
	ResetPassword = "reset_password"
)

// EmailData is the data every passcode template renders from.
type EmailData struct {
	Name  string `json:"Name"`
	Email string `json:"Email"`

	CompanyName    string `json:"CompanyName"`
	CompanyAddress string `json:"CompanyAddress"`
	AppName        string `json:"AppName"`
	SupportURL     string `json:"SupportURL"`

	Code          string    `json:"Code"`
	ExpiresAt     time.Time `json:"ExpiresAt"`
	ExpiresInText string    `json:"ExpiresInText"`
}

// ToMap converts EmailData to a map[string]any for EmailJob.Data
func ToMap(d EmailData) map[string]any {
	b, _ := json.Marshal(d)
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	return m
}

// defaultFn supports pipe usage: {{ .Value | default "Fallback" }}
func defaultFn(fallback any, value any) any {
	switch x := value.(type) {
	case string:
		if strings.TrimSpace(x) == "" {
			return fallback
		}
		return x
	case nil:
		return fallback
	}
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || rv.IsZero() {
		return fallback
	}
	return value
}

var funcs = map[string]any{"default": defaultFn}

// Parsed once; a broken template fails at startup.
var (
	textTemplates = texttpl.Must(texttpl.New("").Funcs(funcs).ParseFS(FS, "*.subject.tmpl", "*.text.tmpl"))
	htmlTemplates = htmpl.Must(htmpl.New("").Funcs(funcs).ParseFS(FS, "*.html.tmpl"))
)

func execText(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := textTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %q: %w", name, err)
	}
	return buf.String(), nil
}

func execHTML(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := htmlTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %q: %w", name, err)
	}
	return buf.String(), nil
}

// Render renders subject, text and html for the named template. data may be
// EmailData or the map form carried on the email queue.
func Render(name string, data any) (subject string, text string, html string, err error) {
	if htmlTemplates.Lookup(name+".html.tmpl") == nil {
		return "", "", "", fmt.Errorf("unknown email template %q", name)
	}
	if subject, err = execText(name+".subject.tmpl", data); err != nil {
		return "", "", "", err
	}
	if text, err = execText(name+".text.tmpl", data); err != nil {
		return "", "", "", err
	}
	if html, err = execHTML(name+".html.tmpl", data); err != nil {
		return "", "", "", err
	}
	return strings.TrimSpace(subject), text, html, nil
}
