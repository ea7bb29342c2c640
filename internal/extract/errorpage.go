package extract

import "strings"

// errorPhrases 已知错误页特征短语
// 命中任一短语即判定为错误页,返回命中的短语作为签名
var errorPhrases = []string{
	"application error",
	"client-side exception",
	"something went wrong",
	"an error occurred",
	"error loading page",
	"page not found",
	"404 error",
	"500 error",
	"internal server error",
	"this page isn't working",
	"this site can't be reached",
	"network error",
	"loading error",
	"failed to load",
	"error occurred while rendering",
}

// shortContentThreshold 疑似错误页的文本长度阈值(字符)
const shortContentThreshold = 50

// DetectPageError 检测页面是否为错误页
// HTTP成功但渲染出错误内容的页面(SPA白屏/服务端错误模板)在此识别;
// 返回错误签名,正常页面返回空字符串
func DetectPageError(html string, textContent string) string {
	textLower := strings.ToLower(textContent)

	for _, phrase := range errorPhrases {
		if strings.Contains(textLower, phrase) {
			return phrase
		}
	}

	// 极短内容且HTML中含错误字样,视为疑似错误页
	if len(strings.TrimSpace(textContent)) < shortContentThreshold {
		htmlLower := strings.ToLower(html)
		for _, hint := range []string{"error", "exception", "failed"} {
			if strings.Contains(htmlLower, hint) {
				return "suspected_error_short_content"
			}
		}
	}

	return ""
}
