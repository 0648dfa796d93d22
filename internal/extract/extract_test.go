package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jquerySource = `
$(function () {
	$(document).ready(init);
	$.on(document, 'ready', function () {});
	$.on(document, "user:login", onLogin);
	$.on(window, 'resize', onResize);
	$(el).trigger('ready');
	$(document).trigger(document, "user:logout");
	$.trigger('');
});
`

func TestRegex_Extract(t *testing.T) {
	r, err := NewRegex(DefaultPatterns())
	require.NoError(t, err)

	ev := r.Extract("app.js", []byte(jquerySource))
	assert.Equal(t, []string{"ready", "user:login"}, ev.Sinks)
	assert.Equal(t, []string{"ready", "user:logout"}, ev.Sources)
}

func TestRegex_NoMatches(t *testing.T) {
	r, err := NewRegex(DefaultPatterns())
	require.NoError(t, err)

	ev := r.Extract("empty.js", []byte("var x = 1;\n.on(document)\n.trigger(name)"))
	assert.Empty(t, ev.Sinks)
	assert.Empty(t, ev.Sources)
}

func TestRegex_CustomPatterns(t *testing.T) {
	r, err := NewRegex(Patterns{
		SinkMethods:   []string{"subscribe", "once"},
		SourceMethods: []string{"emit"},
		Target:        "bus",
	})
	require.NoError(t, err)

	src := `bus.subscribe(bus, 'a', f); x.once(bus, "b"); x.emit('c'); x.on(document, 'd')`
	ev := r.Extract("x.js", []byte(src))
	assert.Equal(t, []string{"a", "b"}, ev.Sinks)
	assert.Equal(t, []string{"c"}, ev.Sources)
}

func TestNewRegex_Validation(t *testing.T) {
	_, err := NewRegex(Patterns{SourceMethods: []string{"trigger"}, Target: "document"})
	assert.Error(t, err)

	_, err = NewRegex(Patterns{SinkMethods: []string{"on"}, SourceMethods: []string{"trigger"}})
	assert.Error(t, err)
}

func TestNew_UnknownExtractor(t *testing.T) {
	_, err := New("ast", DefaultPatterns())
	assert.Error(t, err)
}

func TestTreeSitter_Extract(t *testing.T) {
	ts, err := NewTreeSitter(DefaultPatterns())
	require.NoError(t, err)
	defer ts.Close()

	src := `
// $.on(document, 'commented', f);
const s = "$.trigger('in-a-string')";
$.on(document, 'ready', function () {});
$.on(/* target */ document, "user:login", onLogin);
$.on(window, 'resize', onResize);
$(el).trigger('ready');
$(el).trigger(document, ` + "`user:logout`" + `);
$(el).trigger(` + "`dyn:${name}`" + `);
$(el).trigger(eventName);
`
	ev := ts.Extract("app.js", []byte(src))
	assert.Equal(t, []string{"ready", "user:login"}, ev.Sinks)
	assert.Equal(t, []string{"ready", "user:logout"}, ev.Sources)
}

func TestTreeSitter_TypeScript(t *testing.T) {
	ts, err := NewTreeSitter(DefaultPatterns())
	require.NoError(t, err)
	defer ts.Close()

	src := `
const el: JQuery = $("#x");
$.on(document, 'saved', (e: Event): void => {});
el.trigger('saved');
`
	ev := ts.Extract("store.ts", []byte(src))
	assert.Equal(t, []string{"saved"}, ev.Sinks)
	assert.Equal(t, []string{"saved"}, ev.Sources)
}

func TestTreeSitter_DecodesEscapes(t *testing.T) {
	ts, err := NewTreeSitter(DefaultPatterns())
	require.NoError(t, err)
	defer ts.Close()

	src := `
$(el).trigger('it\'s');
$.on(document, "it's", f);
$(el).trigger("q\"x");
$.on(document, 'q"x', g);
$(el).trigger("\u0041\x42\u{43}");
$(el).trigger(` + "`two\\nlines`" + `);
`
	ev := ts.Extract("app.js", []byte(src))
	assert.Equal(t, []string{"it's", `q"x`}, ev.Sinks)
	assert.Equal(t, []string{"it's", `q"x`, "ABC", "two\nlines"}, ev.Sources)
}

func TestUnescape(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`plain`, "plain"},
		{`it\'s`, "it's"},
		{`q\"x`, `q"x`},
		{`a\nb\tc`, "a\nb\tc"},
		{`back\\slash`, `back\slash`},
		{`\x41\u0042\u{1F600}`, "AB\U0001F600"},
		{`\uD83D\uDE00`, "\U0001F600"},
		{"line\\\ncontinued", "linecontinued"},
		{`\xZZ`, "xZZ"},
		{`\u{}`, "u{}"},
		{`trailing\`, `trailing\`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, unescape(tt.in), tt.in)
	}
}

func TestTreeSitter_FallsBackForUnknownLanguage(t *testing.T) {
	ts, err := NewTreeSitter(DefaultPatterns())
	require.NoError(t, err)
	defer ts.Close()

	ev := ts.Extract("view.coffee", []byte(`$.on(document, 'ready', f)`))
	assert.Equal(t, []string{"ready"}, ev.Sinks)
}

func TestLanguageFor(t *testing.T) {
	assert.Equal(t, "javascript", languageFor("a/b.JS"))
	assert.Equal(t, "javascript", languageFor("a.mjs"))
	assert.Equal(t, "typescript", languageFor("a.ts"))
	assert.Equal(t, "tsx", languageFor("a.tsx"))
	assert.Equal(t, "", languageFor("a.py"))
}
