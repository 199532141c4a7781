package session

import (
	"fmt"
	"strings"
	"sync"

	"github.com/port4k/port4k/internal/template"
)

// Writer is the transport-side interface an OutputChannel writes through:
// raw string output plus the negotiated width and height. Terminal and
// web-socket transports each implement it; the line/system/table/set_prompt
// operations that handlers call live on OutputChannel.
type Writer interface {
	WriteString(s string) error
	Size() (int, int)
}

// OutputChannel is the structured write stream of spec.md §4.1: four
// operations, template-rendered and ANSI-emitted here so handlers never
// embed raw escape codes. Calls are serialised with a mutex because the
// dispatcher and the script-runtime goroutine can both write to the same
// session concurrently (spec.md §4.3 "say()/sys()").
type OutputChannel struct {
	mu      sync.Mutex
	w       Writer
	vars    map[string]string
	resolve template.ObjectResolver
}

// NewOutputChannel wraps a transport Writer. It starts with no object-link
// resolver; object links (§6) render against whatever SetResolver last
// installed.
func NewOutputChannel(w Writer) *OutputChannel {
	return &OutputChannel{w: w, vars: map[string]string{}}
}

// SetResolver installs the object-link resolver for the active RoomView.
func (o *OutputChannel) SetResolver(resolve template.ObjectResolver) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.resolve = resolve
}

// SetVar sets a named template variable substituted into subsequent
// {v:name} tokens (spec.md §6).
func (o *OutputChannel) SetVar(name, value string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.vars == nil {
		o.vars = map[string]string{}
	}
	o.vars[name] = value
}

func (o *OutputChannel) render(text string) string {
	return template.Render(text, o.vars, o.resolve)
}

// Line writes a player-visible narrative line (script say(), room text).
func (o *OutputChannel) Line(text string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	_ = o.w.WriteString(toCRLF(o.render(text)) + "\r\n")
}

// System writes a meta/out-of-game line (script sys(), error text).
func (o *OutputChannel) System(text string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	_ = o.w.WriteString(toCRLF(o.render(text)) + "\r\n")
}

// Table writes aligned columnar output (e.g. "who", "inventory").
func (o *OutputChannel) Table(headers []string, rows [][]string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}
	var b strings.Builder
	writeRow := func(cells []string) {
		for i, cell := range cells {
			if i > 0 {
				b.WriteString("  ")
			}
			fmt.Fprintf(&b, "%-*s", widths[i], cell)
		}
		b.WriteString("\r\n")
	}
	writeRow(headers)
	for _, row := range rows {
		writeRow(row)
	}
	_ = o.w.WriteString(b.String())
}

// SetPrompt writes a non-newline-terminated prompt line.
func (o *OutputChannel) SetPrompt(text string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	_ = o.w.WriteString(toCRLF(o.render(text)))
}

// Width reports the transport's negotiated terminal width, or 0 if unknown.
func (o *OutputChannel) Width() int {
	w, _ := o.w.Size()
	return w
}

func toCRLF(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' && (i == 0 || s[i-1] != '\r') {
			b.WriteByte('\r')
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
