package template

import "testing"

func TestIdentityOnPlainText(t *testing.T) {
	in := "The corridor bends north."
	if got := Render(in, nil, nil); got != in {
		t.Fatalf("Render(%q) = %q, want identity", in, got)
	}
}

func TestLiteralBraceEscaping(t *testing.T) {
	in := "a {{b}} c"
	want := "a {b} c"
	if got := Render(in, nil, nil); got != want {
		t.Fatalf("Render(%q) = %q, want %q", in, got, want)
	}
}

func TestVariableSubstitution(t *testing.T) {
	vars := map[string]string{"name": "Alice"}
	got := Render("Hello, {v:name}!", vars, nil)
	if got != "Hello, Alice!" {
		t.Fatalf("got %q", got)
	}
}

func TestVariableDefault(t *testing.T) {
	got := Render("Hello, {v:name:stranger}!", nil, nil)
	if got != "Hello, stranger!" {
		t.Fatalf("got %q", got)
	}
}

func TestVariableWidthPadding(t *testing.T) {
	vars := map[string]string{"hp": "7"}
	got := Render("[{v:hp|%03d}]", vars, nil)
	if got != "[007]" {
		t.Fatalf("got %q", got)
	}
}

func TestVariableWidthParseFailureYieldsZero(t *testing.T) {
	vars := map[string]string{"hp": "not-a-number"}
	got := Render("[{v:hp|%03d}]", vars, nil)
	if got != "[000]" {
		t.Fatalf("got %q", got)
	}
}

func TestColourSpan(t *testing.T) {
	got := Render("{c:red}danger{c}", nil, nil)
	want := "\x1b[31mdanger\x1b[0m"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestColourSpanUnterminatedIsLiteral(t *testing.T) {
	got := Render("{c:red}danger", nil, nil)
	if got != "{c:red}danger" {
		t.Fatalf("got %q", got)
	}
}

func TestObjectLink(t *testing.T) {
	resolve := func(id string) (string, bool) {
		if id == "lamp" {
			return "a brass lamp", true
		}
		return "", false
	}
	got := Render("You see {obj:lamp}.", nil, resolve)
	if got != "You see a brass lamp." {
		t.Fatalf("got %q", got)
	}
}

func TestObjectLinkWithLabel(t *testing.T) {
	resolve := func(id string) (string, bool) { return "a brass lamp", true }
	got := Render("{obj:lamp|the lamp}", nil, resolve)
	if got != "the lamp" {
		t.Fatalf("got %q", got)
	}
}

func TestUnknownTokenPassesThroughLiterally(t *testing.T) {
	got := Render("{zzz:nope}", nil, nil)
	if got != "{zzz:nope}" {
		t.Fatalf("got %q", got)
	}
}
