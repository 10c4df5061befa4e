package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name string
		html string
		want Tokens
	}{
		{
			name: "empty",
			html: "",
			want: Tokens{ColorType: "light"},
		},
		{
			name: "dark body style attribute",
			html: `<html><head><meta name="theme-color" content=" #FF0000 "></head>
				<body style="background-color: #111; font-family: 'Inter', sans-serif"><p>x</p></body></html>`,
			want: Tokens{
				ThemeColor:      "#FF0000",
				BackgroundColor: "#111",
				FontFamilies:    []string{"Inter", "sans-serif"},
				ColorType:       "dark",
			},
		},
		{
			name: "light stylesheet rule",
			html: `<html><head><style>
				h1 { font-family: Georgia, serif; }
				body { margin: 0; background: #fafafa url(bg.png); font-family: "Helvetica Neue", Arial; }
				</style></head><body></body></html>`,
			want: Tokens{
				BackgroundColor: "#fafafa",
				FontFamilies:    []string{"Helvetica Neue", "Arial", "Georgia", "serif"},
				ColorType:       "light",
			},
		},
		{
			name: "rgb background",
			html: `<style>body{background-color:rgb(20, 24, 30)}</style>`,
			want: Tokens{BackgroundColor: "rgb(20, 24, 30)", ColorType: "dark"},
		},
		{
			name: "named color and css variables",
			html: `<body style="background: black; font-family: var(--font)">`,
			want: Tokens{BackgroundColor: "black", ColorType: "dark"},
		},
		{
			name: "unparsable background stays light",
			html: `<body style="background: linear-gradient(red, blue)">`,
			want: Tokens{ColorType: "light"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Analyze(tt.html))
		})
	}
}

func TestParseColorAndLuminance(t *testing.T) {
	rgb, ok := parseColor("#abc")
	assert.True(t, ok)
	assert.Equal(t, [3]int{0xaa, 0xbb, 0xcc}, rgb)

	_, ok = parseColor("#abcd")
	assert.False(t, ok)

	assert.InDelta(t, 1.0, luminance([3]int{255, 255, 255}), 1e-9)
	assert.InDelta(t, 0.0, luminance([3]int{0, 0, 0}), 1e-9)
	assert.GreaterOrEqual(t, luminance([3]int{128, 128, 128}), 0.5)
}
