package shared

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseCurlCommand(t *testing.T) {
	tt := []struct {
		name        string
		curlCmd     string
		wantHeaders map[string]string
		wantCookie  string
		wantErr     bool
	}{
		{
			name:    "headers with single quotes",
			curlCmd: `curl -H 'User-Agent: Mozilla/5.0' -H 'Referer: https://www.tiktok.com/' https://www.tiktok.com/api`,
			wantHeaders: map[string]string{
				"User-Agent": "Mozilla/5.0",
				"Referer":    "https://www.tiktok.com/",
			},
			wantCookie: "",
		},
		{
			name:    "headers with double quotes",
			curlCmd: `curl -H "Accept: application/json" https://www.tiktok.com/api`,
			wantHeaders: map[string]string{
				"Accept": "application/json",
			},
			wantCookie: "",
		},
		{
			name:        "cookie in -b flag",
			curlCmd:     `curl -b 'msToken=abc123; tt_csrf_token=xyz' https://www.tiktok.com/api`,
			wantHeaders: map[string]string{},
			wantCookie:  "msToken=abc123; tt_csrf_token=xyz",
		},
		{
			name:    "cookie header excluded from regular headers",
			curlCmd: `curl -H 'Cookie: msToken=abc123' -H 'Accept: */*' https://www.tiktok.com/api`,
			wantHeaders: map[string]string{
				"Accept": "*/*",
			},
			wantCookie: "msToken=abc123",
		},
		{
			name: "multiline curl with backslashes",
			curlCmd: `curl 'https://www.tiktok.com/api/recommend/item_list/' \
  -H 'accept: */*' \
  -H 'accept-language: en-US,en;q=0.9' \
  -H 'cookie: msToken=abc123; ttwid=1%7Cxyz' \
  --compressed`,
			wantHeaders: map[string]string{
				"accept":          "*/*",
				"accept-language": "en-US,en;q=0.9",
			},
			wantCookie: "msToken=abc123; ttwid=1%7Cxyz",
		},
		{
			name:        "-b cookie takes precedence over -H cookie",
			curlCmd:     `curl -H 'Cookie: old=value' -b 'new=value' https://www.tiktok.com/api`,
			wantHeaders: map[string]string{},
			wantCookie:  "new=value",
		},
		{
			name:    "no headers or cookies",
			curlCmd: `curl https://www.tiktok.com/`,
			wantErr: true,
		},
		{
			name:    "empty command",
			curlCmd: "",
			wantErr: true,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			result, err := ParseCurlCommand([]byte(tc.curlCmd))

			if (err != nil) != tc.wantErr {
				t.Errorf("ParseCurlCommand() error = %v, wantErr %v", err, tc.wantErr)
				return
			}

			if tc.wantErr {
				return
			}

			if result == nil {
				t.Fatal("ParseCurlCommand() returned nil result")
			}

			if len(result.Headers) != len(tc.wantHeaders) {
				t.Errorf("ParseCurlCommand() headers count = %v, want %v", len(result.Headers), len(tc.wantHeaders))
			}

			for key, want := range tc.wantHeaders {
				if got := result.Headers[key]; got != want {
					t.Errorf("ParseCurlCommand() header[%s] = %v, want %v", key, got, want)
				}
			}

			if result.Cookie != tc.wantCookie {
				t.Errorf("ParseCurlCommand() cookie = %v, want %v", result.Cookie, tc.wantCookie)
			}
		})
	}
}

func TestParseCurlFile(t *testing.T) {
	t.Run("successful file parse", func(t *testing.T) {
		tmpDir := t.TempDir()
		curlFile := filepath.Join(tmpDir, "curl.sh")

		curlCmd := `curl -H 'User-Agent: Mozilla/5.0' -b 'msToken=abc123' https://www.tiktok.com/api`
		if err := os.WriteFile(curlFile, []byte(curlCmd), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}

		result, err := ParseCurlFile(curlFile)
		if err != nil {
			t.Fatalf("ParseCurlFile() error = %v", err)
		}

		if result.Headers["User-Agent"] != "Mozilla/5.0" {
			t.Errorf("ParseCurlFile() User-Agent = %v, want Mozilla/5.0", result.Headers["User-Agent"])
		}

		if result.Cookie != "msToken=abc123" {
			t.Errorf("ParseCurlFile() cookie = %v, want msToken=abc123", result.Cookie)
		}
	})

	t.Run("file does not exist", func(t *testing.T) {
		_, err := ParseCurlFile("/nonexistent/file.sh")
		if err == nil {
			t.Error("ParseCurlFile() expected error for nonexistent file")
		}
	})
}

func TestSessionToken(t *testing.T) {
	tt := []struct {
		name   string
		cookie string
		lookup string
		want   string
	}{
		{
			name:   "token present",
			cookie: "tt_csrf_token=xyz; msToken=abc123; ttwid=1",
			lookup: "msToken",
			want:   "abc123",
		},
		{
			name:   "token first in cookie",
			cookie: "msToken=abc123",
			lookup: "msToken",
			want:   "abc123",
		},
		{
			name:   "token absent",
			cookie: "tt_csrf_token=xyz",
			lookup: "msToken",
			want:   "",
		},
		{
			name:   "empty cookie",
			cookie: "",
			lookup: "msToken",
			want:   "",
		},
		{
			name:   "name is a prefix of another cookie",
			cookie: "msTokenOld=stale; msToken=fresh",
			lookup: "msToken",
			want:   "fresh",
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			headers := &CurlHeaders{Cookie: tc.cookie}
			if got := headers.SessionToken(tc.lookup); got != tc.want {
				t.Errorf("SessionToken(%q) = %q, want %q", tc.lookup, got, tc.want)
			}
		})
	}
}
