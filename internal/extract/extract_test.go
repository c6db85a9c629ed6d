package extract

import (
	"reflect"
	"strings"
	"testing"
)

func TestHTMLContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "fenced html block",
			content: "Here is your app:\n```html\n<!DOCTYPE html><html></html>\n```\nEnjoy!",
			want:    "<!DOCTYPE html><html></html>",
		},
		{
			name:    "bare document",
			content: "<!DOCTYPE html>\n<html><body></body></html>",
			want:    "<!DOCTYPE html>\n<html><body></body></html>",
		},
		{
			name:    "bare document with trailing tag marker",
			content: "<!DOCTYPE html>\n<html></html>\n[[app_tags: Timer, Utility]]",
			want:    "<!DOCTYPE html>\n<html></html>",
		},
		{
			name:    "prose only",
			content: "I can't build that.",
			want:    "",
		},
		{
			name:    "unclosed fence falls through to markup check",
			content: "```html\n<html></html>",
			want:    "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTMLContent(tt.content); got != tt.want {
				t.Errorf("HTMLContent() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTitle(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "html title tag",
			content: "<html><head><title>Pomodoro Timer</title></head></html>",
			want:    "Pomodoro Timer",
		},
		{
			name:    "case-insensitive tag, original casing kept",
			content: "<HTML><TITLE>My App</TITLE></HTML>",
			want:    "My App",
		},
		{
			name:    "markdown heading fallback",
			content: "\n\n# Weather Dashboard\nSome body text.",
			want:    "Weather Dashboard",
		},
		{
			name:    "first non-blank line fallback",
			content: "Todo List\nwith items",
			want:    "Todo List",
		},
		{
			name:    "empty title element ignored",
			content: "<title>  </title>\nBackup Heading",
			want:    "Backup Heading",
		},
		{
			name:    "nothing usable",
			content: "   \n\t\n",
			want:    DefaultTitle,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Title(tt.content); got != tt.want {
				t.Errorf("Title() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTitle_Truncated(t *testing.T) {
	long := strings.Repeat("x", 200)
	got := Title("<title>" + long + "</title>")
	if len(got) != maxTitleLen {
		t.Errorf("len(Title()) = %d, want %d", len(got), maxTitleLen)
	}
}

func TestTags(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantClean string
		wantTags  []string
	}{
		{
			name:      "marker stripped and tags capitalized",
			content:   "<html></html>\n[[app_tags: timer, utility]]",
			wantClean: "<html></html>",
			wantTags:  []string{"Timer", "Utility"},
		},
		{
			name:      "last marker wins",
			content:   "[[app_tags: draft]]\nbody\n[[app_tags: Final]]",
			wantClean: "[[app_tags: draft]]\nbody",
			wantTags:  []string{"Final"},
		},
		{
			name:      "no marker falls back to word frequency",
			content:   "weather weather dashboard",
			wantClean: "weather weather dashboard",
			wantTags:  []string{"Weather", "Dashboard"},
		},
		{
			name:      "nothing derivable defaults",
			content:   "a b c",
			wantClean: "a b c",
			wantTags:  []string{"App"},
		},
		{
			name:      "empty marker defaults without derivation",
			content:   "weather weather dashboard\n[[app_tags: ]]",
			wantClean: "weather weather dashboard",
			wantTags:  []string{"App"},
		},
		{
			name:      "unterminated marker left alone",
			content:   "keyboard [[app_tags: Timer",
			wantClean: "keyboard [[app_tags: Timer",
			wantTags:  []string{"App_tags", "Keyboard", "Timer"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clean, tags := Tags(tt.content)
			if clean != tt.wantClean {
				t.Errorf("clean = %q, want %q", clean, tt.wantClean)
			}
			if !reflect.DeepEqual(tags, tt.wantTags) {
				t.Errorf("tags = %v, want %v", tags, tt.wantTags)
			}
		})
	}
}

func TestGenerateTags(t *testing.T) {
	text := "Weather weather WEATHER dashboard dashboard shows local forecast data forecast"
	got := GenerateTags(text)
	want := []string{"Weather", "Dashboard", "Forecast", "Data"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("GenerateTags() = %v, want %v", got, want)
	}
}

func TestGenerateTags_FiltersShortAndStopwords(t *testing.T) {
	got := GenerateTags("the cat sat on a mat with them because it could")
	if len(got) != 0 {
		t.Errorf("GenerateTags() = %v, want empty", got)
	}
}
