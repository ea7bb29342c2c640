package extract

import (
	"strings"
	"testing"
)

// TestDetectPageError 测试错误页检测
func TestDetectPageError(t *testing.T) {
	longNormalText := strings.Repeat("Acme builds developer tools for modern teams. ", 5)

	tests := []struct {
		name     string
		html     string
		text     string
		expected string
	}{
		{
			name:     "正常页面",
			html:     "<html><body>normal</body></html>",
			text:     longNormalText,
			expected: "",
		},
		{
			name:     "SPA白屏异常",
			html:     "<html><body>Application error: a client-side exception has occurred</body></html>",
			text:     "Application error: a client-side exception has occurred",
			expected: "application error",
		},
		{
			name:     "服务端错误模板",
			html:     "<html><body><h1>500 Internal Server Error</h1></body></html>",
			text:     "500 Internal Server Error",
			expected: "internal server error",
		},
		{
			name:     "软404",
			html:     "<html><body>Sorry, page not found</body></html>",
			text:     "Sorry, page not found " + longNormalText,
			expected: "page not found",
		},
		{
			name:     "大小写不敏感",
			html:     "<html></html>",
			text:     "SOMETHING WENT WRONG " + longNormalText,
			expected: "something went wrong",
		},
		{
			name:     "极短内容且HTML含error",
			html:     `<html><body><div id="error-root"></div></body></html>`,
			text:     "",
			expected: "suspected_error_short_content",
		},
		{
			name:     "极短内容但HTML无错误字样",
			html:     "<html><body><div id=\"app\"></div></body></html>",
			text:     "Welcome",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectPageError(tt.html, tt.text)
			if got != tt.expected {
				t.Errorf("DetectPageError = %q, 期望 %q", got, tt.expected)
			}
		})
	}
}
