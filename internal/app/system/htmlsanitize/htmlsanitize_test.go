package htmlsanitize_test

import (
	"strings"
	"testing"

	"github.com/dalemusser/taskhub/internal/app/system/htmlsanitize"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"plain text", "Hello, World!", "Hello, World!"},
		{"safe html", "<p><strong>Bold</strong> and <em>italic</em></p>", "<p><strong>Bold</strong> and <em>italic</em></p>"},
		{"script removed", "<p>Hello</p><script>alert('xss')</script>", "<p>Hello</p>"},
		{"lists kept", "<ul><li>Item 1</li><li>Item 2</li></ul>", "<ul><li>Item 1</li><li>Item 2</li></ul>"},
		{"formatting kept", "<u>underline</u> <s>strike</s>", "<u>underline</u> <s>strike</s>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := htmlsanitize.Sanitize(tt.input); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitize_RemovesDangerousMarkup(t *testing.T) {
	tests := []struct {
		input  string
		banned string
	}{
		{`<button onclick="alert('xss')">Click</button>`, "onclick"},
		{`<a href="javascript:alert('xss')">Click</a>`, "javascript:"},
		{`<p>Content</p><iframe src="https://evil.com"></iframe>`, "iframe"},
		{`<img src="x" onerror="alert('xss')">`, "onerror"},
		{`<form action="/submit"><input type="text"></form>`, "<form"},
	}

	for _, tt := range tests {
		t.Run(tt.banned, func(t *testing.T) {
			if got := htmlsanitize.Sanitize(tt.input); strings.Contains(got, tt.banned) {
				t.Errorf("Sanitize(%q) = %q, still contains %q", tt.input, got, tt.banned)
			}
		})
	}
}

func TestStripTags(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"Review the report", "Review the report"},
		{"<b>Tom</b> & Jerry", "Tom & Jerry"},
		{"Hi<script>alert(1)</script>", "Hi"},
		{"  padded  ", "padded"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := htmlsanitize.StripTags(tt.input); got != tt.want {
				t.Errorf("StripTags(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsPlainText(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"", true},
		{"Hello, World!", true},
		{"5 < 10", true},
		{"5 > 3", true},
		{"<p>Hello</p>", false},
	}

	for _, tt := range tests {
		if got := htmlsanitize.IsPlainText(tt.input); got != tt.want {
			t.Errorf("IsPlainText(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestPlainTextToHTML(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"Hello", "<p>Hello</p>"},
		{"Line 1\nLine 2", "<p>Line 1<br>Line 2</p>"},
		{"A & B", "<p>A &amp; B</p>"},
	}

	for _, tt := range tests {
		if got := htmlsanitize.PlainTextToHTML(tt.input); got != tt.want {
			t.Errorf("PlainTextToHTML(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestDescription(t *testing.T) {
	if got := htmlsanitize.Description("  5 < 10 items  "); got != "5 < 10 items" {
		t.Errorf("plain description changed: %q", got)
	}
	if got := htmlsanitize.Description("<p>ok</p><script>x</script>"); got != "<p>ok</p>" {
		t.Errorf("rich description not sanitized: %q", got)
	}
}
