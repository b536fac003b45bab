package service

import "testing"

func TestAutopRenderer(t *testing.T) {
	r := NewAutopRenderer()

	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"empty", "  \n ", ""},
		{"single paragraph", "Hello", "<p>Hello</p>\n"},
		{"paragraphs and breaks", "Line one\nLine two\r\n\r\nSecond", "<p>Line one<br />\nLine two</p>\n<p>Second</p>\n"},
		{"block tag kept", "<ul><li>a</li></ul>\n\ntext", "<ul><li>a</li></ul>\n<p>text</p>\n"},
	}
	for _, tc := range cases {
		if got := r.Render(tc.raw); got != tc.want {
			t.Fatalf("%s: expect %q, got %q", tc.name, tc.want, got)
		}
	}
}
