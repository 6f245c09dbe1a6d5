package activity

import (
	"net"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

// Webhook embed limits.
const (
	MaxTitleLength      = 256
	MaxFieldNameLength  = 256
	MaxFieldValueLength = 1024
	MaxFields           = 25
)

// Placeholder values.
const (
	Unknown      = "Unknown"
	NotAvailable = "N/A"
)

// Field is a single name/value pair rendered in an event embed.
type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// RequestContext carries the client network and device context of the
// request that triggered an event.
type RequestContext struct {
	IP        string
	Device    string
	UserAgent string
}

// FromRequest derives the request context from an HTTP request, preferring
// proxy headers over the socket address.
func FromRequest(r *http.Request) *RequestContext {
	if r == nil {
		return nil
	}
	ua := r.UserAgent()
	return &RequestContext{
		IP:        clientIP(r),
		Device:    describeDevice(ua),
		UserAgent: ua,
	}
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// describeDevice reduces a User-Agent to a short "<platform> (<class>)" label.
func describeDevice(ua string) string {
	if ua == "" {
		return Unknown
	}

	platform := "Other"
	switch {
	case strings.Contains(ua, "iPhone"):
		platform = "iPhone"
	case strings.Contains(ua, "iPad"):
		platform = "iPad"
	case strings.Contains(ua, "Android"):
		platform = "Android"
	case strings.Contains(ua, "Windows"):
		platform = "Windows"
	case strings.Contains(ua, "Macintosh"), strings.Contains(ua, "Mac OS X"):
		platform = "macOS"
	case strings.Contains(ua, "CrOS"):
		platform = "ChromeOS"
	case strings.Contains(ua, "Linux"):
		platform = "Linux"
	}

	class := "Desktop"
	switch {
	case strings.Contains(ua, "iPad"), strings.Contains(ua, "Tablet"):
		class = "Tablet"
	case strings.Contains(ua, "Mobile"), strings.Contains(ua, "iPhone"):
		class = "Mobile"
	case strings.Contains(strings.ToLower(ua), "bot"):
		class = "Bot"
	}

	return platform + " (" + class + ")"
}

// Event is one activity notification. Events are never persisted.
type Event struct {
	Kind      Kind
	Timestamp time.Time
	Context   *RequestContext
	Fields    []Field
}

// Message is the webhook payload.
type Message struct {
	Content  string  `json:"content,omitempty"`
	Username string  `json:"username,omitempty"`
	Embeds   []Embed `json:"embeds"`
}

// Embed is a single rich embed within a Message.
type Embed struct {
	Title     string       `json:"title"`
	Color     int          `json:"color"`
	Fields    []Field      `json:"fields,omitempty"`
	Timestamp string       `json:"timestamp"`
	Footer    *EmbedFooter `json:"footer,omitempty"`
}

// EmbedFooter is the small text shown below an embed.
type EmbedFooter struct {
	Text string `json:"text"`
}

// Render converts an event into a webhook message. Context fields come first,
// with explicit placeholders when no request context is known.
func (e *Event) Render(mention, username, footer string) *Message {
	style := StyleOf(e.Kind)

	ip, device := Unknown, Unknown
	if e.Context != nil {
		if e.Context.IP != "" {
			ip = e.Context.IP
		}
		if e.Context.Device != "" {
			device = e.Context.Device
		}
	}

	fields := make([]Field, 0, len(e.Fields)+2)
	fields = append(fields,
		Field{Name: "IP", Value: ip, Inline: true},
		Field{Name: "Device", Value: device, Inline: true},
	)
	for _, f := range e.Fields {
		if len(fields) == MaxFields {
			break
		}
		fields = append(fields, normalizeField(f))
	}

	embed := Embed{
		Title:     truncate(strings.TrimSpace(style.Emoji+" "+style.Label), MaxTitleLength),
		Color:     style.Color,
		Fields:    fields,
		Timestamp: e.Timestamp.UTC().Format(time.RFC3339),
	}
	if footer != "" {
		embed.Footer = &EmbedFooter{Text: footer}
	}

	return &Message{
		Content:  mention,
		Username: username,
		Embeds:   []Embed{embed},
	}
}

func normalizeField(f Field) Field {
	name := strings.TrimSpace(f.Name)
	if name == "" {
		name = "Detail"
	}
	return Field{
		Name:   truncate(name, MaxFieldNameLength),
		Value:  truncate(valueOrNA(f.Value), MaxFieldValueLength),
		Inline: f.Inline,
	}
}

func valueOrNA(v string) string {
	if strings.TrimSpace(v) == "" {
		return NotAvailable
	}
	return v
}

// truncate bounds s to max runes, marking the cut with an ellipsis.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max-1]) + "…"
}
