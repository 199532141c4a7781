// Package template implements the small output template language of
// spec.md §6: {v:name} variables, {c:fg[:bg[:attr,...]]}...{c} colour
// spans, {obj:id}/{obj:id|label} object links, and {{ / }} literal-brace
// escaping. Everything else passes through unchanged.
package template

import (
	"strconv"
	"strings"
)

// ObjectResolver resolves an {obj:id} token against the active RoomView.
// It returns the label to display and whether id was recognised.
type ObjectResolver func(id string) (label string, ok bool)

// Render expands text against vars and resolver. Parse failures in width
// directives render as 0 (spec.md §6); unknown or unterminated tokens pass
// through literally.
func Render(text string, vars map[string]string, resolve ObjectResolver) string {
	var out strings.Builder
	i := 0
	n := len(text)
	for i < n {
		c := text[i]
		if c == '}' {
			out.WriteByte('}')
			if i+1 < n && text[i+1] == '}' {
				i += 2
			} else {
				i++
			}
			continue
		}
		if c != '{' {
			out.WriteByte(c)
			i++
			continue
		}
		if i+1 < n && text[i+1] == '{' {
			out.WriteByte('{')
			i += 2
			continue
		}
		end := strings.IndexByte(text[i:], '}')
		if end == -1 {
			// No closing brace at all: the remainder is a literal.
			out.WriteString(text[i:])
			break
		}
		end += i // absolute index of the '}'
		token := text[i+1 : end]

		switch {
		case strings.HasPrefix(token, "v:"):
			out.WriteString(renderVar(token[2:], vars))
			i = end + 1
		case strings.HasPrefix(token, "obj:"):
			rendered, ok := renderObj(token[4:], resolve)
			if ok {
				out.WriteString(rendered)
			} else {
				out.WriteString("{" + token + "}")
			}
			i = end + 1
		case strings.HasPrefix(token, "c:"):
			span, consumed, ok := renderColourSpan(text[i:], token, vars, resolve)
			if ok {
				out.WriteString(span)
				i += consumed
			} else {
				out.WriteString("{" + token + "}")
				i = end + 1
			}
		default:
			out.WriteString("{" + token + "}")
			i = end + 1
		}
	}
	return out.String()
}

func renderVar(body string, vars map[string]string) string {
	name := body
	directive := ""
	if idx := strings.IndexByte(body, '|'); idx != -1 {
		name = body[:idx]
		directive = body[idx+1:]
	}
	def := ""
	hasDef := false
	if idx := strings.IndexByte(name, ':'); idx != -1 {
		def = name[idx+1:]
		name = name[:idx]
		hasDef = true
	}

	value, ok := vars[name]
	if !ok {
		if hasDef {
			value = def
		} else {
			value = ""
		}
	}
	if directive == "" {
		return value
	}
	return applyWidthDirective(value, directive)
}

// applyWidthDirective implements "{v:name|%Ns}" (string, space padded) and
// "{v:name|%0Nd}" (integer, zero padded); a parse failure renders as 0
// per spec.md §8's boundary-behaviour list.
func applyWidthDirective(value, directive string) string {
	if !strings.HasPrefix(directive, "%") {
		return value
	}
	body := directive[1:]
	if body == "" {
		return value
	}
	kind := body[len(body)-1]
	widthStr := body[:len(body)-1]
	zeroPad := strings.HasPrefix(widthStr, "0")
	widthStr = strings.TrimPrefix(widthStr, "0")
	width, err := strconv.Atoi(widthStr)
	if err != nil {
		width = 0
	}

	switch kind {
	case 's':
		if len(value) >= width {
			return value
		}
		return strings.Repeat(" ", width-len(value)) + value
	case 'd':
		n, err := strconv.Atoi(value)
		if err != nil {
			n = 0
		}
		s := strconv.Itoa(n)
		neg := strings.HasPrefix(s, "-")
		if neg {
			s = s[1:]
		}
		pad := width - len(s)
		if neg {
			pad--
		}
		if pad > 0 {
			fill := " "
			if zeroPad {
				fill = "0"
			}
			s = strings.Repeat(fill, pad) + s
		}
		if neg {
			s = "-" + s
		}
		return s
	default:
		return value
	}
}

func renderObj(body string, resolve ObjectResolver) (string, bool) {
	id := body
	label := ""
	hasLabel := false
	if idx := strings.IndexByte(body, '|'); idx != -1 {
		id = body[:idx]
		label = body[idx+1:]
		hasLabel = true
	}
	if resolve == nil {
		return "", false
	}
	resolved, ok := resolve(id)
	if !ok {
		return "", false
	}
	if hasLabel {
		return label, true
	}
	return resolved, true
}

// renderColourSpan parses a "{c:fg[:bg[:attr,attr,...]]}" opening tag at
// the start of rest, locates the matching "{c}" closer, and renders the
// wrapped text (recursively, so nested {v:..}/{obj:..} tokens still work).
// consumed is the number of bytes of rest belonging to the whole span
// (opening tag + body + closing tag).
func renderColourSpan(rest, openToken string, vars map[string]string, resolve ObjectResolver) (string, int, bool) {
	openLen := len(openToken) + 2 // "{" + token + "}"
	closeIdx := strings.Index(rest[openLen:], "{c}")
	if closeIdx == -1 {
		return "", 0, false
	}
	body := Render(rest[openLen:openLen+closeIdx], vars, resolve)
	consumed := openLen + closeIdx + len("{c}")

	codes := colourCodes(strings.TrimPrefix(openToken, "c:"))
	if codes == "" {
		return body, consumed, true
	}
	return codes + body + ansiReset, consumed, true
}

func colourCodes(spec string) string {
	parts := strings.Split(spec, ":")
	var out strings.Builder
	if len(parts) > 0 && parts[0] != "" {
		if code, ok := fgColors[parts[0]]; ok {
			out.WriteString(code)
		}
	}
	if len(parts) > 1 && parts[1] != "" {
		if code, ok := bgColors[parts[1]]; ok {
			out.WriteString(code)
		}
	}
	if len(parts) > 2 {
		for _, attr := range strings.Split(parts[2], ",") {
			if code, ok := attrCodes[attr]; ok {
				out.WriteString(code)
			}
		}
	}
	return out.String()
}
