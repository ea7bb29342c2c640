package crawlers

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"crypto/sha256"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/RecoveryAshes/CompanyCrawl/internal/models"
	"github.com/RecoveryAshes/CompanyCrawl/internal/utils"
	"github.com/andybalholm/brotli"
	"github.com/gocolly/colly/v2"
	"golang.org/x/net/html/charset"
)

// 错误类型定义
var (
	ErrRobotsDisallowed = errors.New("robots.txt禁止访问")
	ErrEmptyResponse    = errors.New("响应体为空")
)

// MinContentLength 正常页面的最小内容长度(字节)
// 低于此阈值视为可疑响应,触发浏览器渲染回退
const MinContentLength = 500

// blockedStatusCodes 反爬拦截状态码,触发渲染回退而非重试
var blockedStatusCodes = map[int]bool{
	http.StatusForbidden:       true, // 403
	http.StatusTooManyRequests: true, // 429
}

// FetchOutcome 单次抓取结果
type FetchOutcome struct {
	HTML        string
	StatusCode  int
	StatusClass models.StatusClass
	Hash        string // 原始字节的SHA-256十六进制
	Rendered    bool   // 是否经过浏览器渲染
	Note        string // 失败原因说明
}

// Found 抓取是否产出可用内容
func (o *FetchOutcome) Found() bool {
	return o.StatusClass == models.StatusOK
}

// Fetcher 抓取策略执行器
// 默认走直接HTTP请求(Colly),被拦截/内容可疑/强制渲染时回退到无头浏览器。
// 同域请求间隔由lastRequest表强制执行,与重试无关。
type Fetcher struct {
	config models.SessionConfig

	// HTTP头部提供者
	headerProvider models.HeaderProvider

	// 渲染回退
	renderer *Renderer

	// robots.txt检查(respect_robots=false时为nil)
	robots *RobotsGate

	// 直接抓取collector(同步模式,允许重复访问)
	collector *colly.Collector

	// 单次抓取的响应捕获(collector回调写入,fetchMu串行化)
	lastStatus  int
	lastBody    []byte
	lastHeaders http.Header
	lastErr     error

	// 同域最小请求间隔
	lastRequest map[string]time.Time
	rateMu      sync.Mutex

	// 串行化collector使用
	fetchMu sync.Mutex
}

// NewFetcher 创建抓取策略执行器
func NewFetcher(config models.SessionConfig, headerProvider models.HeaderProvider, renderer *Renderer) *Fetcher {
	f := &Fetcher{
		config:         config,
		headerProvider: headerProvider,
		renderer:       renderer,
		lastRequest:    make(map[string]time.Time),
	}

	f.collector = f.newCollector(time.Duration(config.RequestTimeout) * time.Second)
	f.setupCallbacks()

	return f
}

// EnableRobots 启用robots.txt检查
func (f *Fetcher) EnableRobots(gate *RobotsGate) {
	f.robots = gate
}

// newCollector 创建同步collector
// 跳过TLS证书验证以兼容自签名/过期证书站点;
// 调度器自行管理访问集合,因此允许URL重复访问
func (f *Fetcher) newCollector(timeout time.Duration) *colly.Collector {
	c := colly.NewCollector(
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
	)

	c.SetRequestTimeout(timeout)
	c.WithTransport(&http.Transport{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: true,
		},
	})

	return c
}

// setupCallbacks 设置Colly回调,捕获响应到Fetcher字段
func (f *Fetcher) setupCallbacks() {
	f.collector.OnRequest(func(r *colly.Request) {
		// 应用自定义HTTP头部
		if f.headerProvider != nil {
			headers, err := f.headerProvider.GetHeaders()
			if err != nil {
				utils.Warnf("获取HTTP头部失败: %v", err)
			} else {
				for name, values := range headers {
					if len(values) > 0 {
						r.Headers.Set(name, values[0])
					}
				}
			}
		}
		utils.Debugf("请求: %s", r.URL.String())
	})

	f.collector.OnResponse(func(r *colly.Response) {
		f.lastStatus = r.StatusCode
		f.lastBody = r.Body
		f.lastHeaders = *r.Headers
		f.lastErr = nil
	})

	f.collector.OnError(func(r *colly.Response, err error) {
		f.lastErr = err
		if r != nil {
			f.lastStatus = r.StatusCode
			f.lastBody = r.Body
			if r.Headers != nil {
				f.lastHeaders = *r.Headers
			}
		}
	})
}

// Fetch 抓取单个URL
// 流程: 同域限速 -> robots检查 -> 直接HTTP(带重试) -> 必要时渲染回退
func (f *Fetcher) Fetch(rawURL string, forceRender bool) *FetchOutcome {
	f.waitInterval(rawURL)

	if f.robots != nil {
		if allowed, err := f.robots.Allowed(rawURL); err == nil && !allowed {
			utils.Debugf("robots.txt禁止访问: %s", rawURL)
			return &FetchOutcome{
				StatusClass: models.StatusBlocked,
				Note:        ErrRobotsDisallowed.Error(),
			}
		}
	}

	if forceRender || f.config.ForceRender {
		return f.renderFetch(rawURL, "强制渲染")
	}

	outcome := f.directFetch(rawURL)

	// 被拦截或内容可疑时回退到浏览器渲染
	switch {
	case outcome.StatusClass == models.StatusBlocked:
		utils.Debugf("直接抓取被拦截 [%s]: HTTP %d, 回退到浏览器渲染", rawURL, outcome.StatusCode)
		return f.renderFetch(rawURL, fmt.Sprintf("HTTP %d拦截", outcome.StatusCode))
	case outcome.StatusClass == models.StatusOK && len(outcome.HTML) < MinContentLength:
		utils.Debugf("响应内容过短 [%s]: %d字节, 回退到浏览器渲染", rawURL, len(outcome.HTML))
		return f.renderFetch(rawURL, "内容过短")
	}

	return outcome
}

// directFetch 直接HTTP抓取,网络错误指数退避重试
// 4xx不重试(404为终态not_found),5xx重试一次
func (f *Fetcher) directFetch(rawURL string) *FetchOutcome {
	f.fetchMu.Lock()
	defer f.fetchMu.Unlock()

	var lastNote string

	for attempt := 0; attempt <= f.config.MaxRetries; attempt++ {
		if attempt > 0 {
			// 指数退避: 2^attempt 秒
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			utils.Debugf("重试 %d/%d [%s], 等待 %v", attempt, f.config.MaxRetries, rawURL, backoff)
			time.Sleep(backoff)
		}

		f.lastStatus = 0
		f.lastBody = nil
		f.lastHeaders = nil
		f.lastErr = nil

		visitErr := f.collector.Visit(rawURL)

		// 网络层错误(连接失败/超时): 重试
		if f.lastErr != nil && f.lastStatus == 0 {
			lastNote = f.lastErr.Error()
			utils.Debugf("网络错误 [%s]: %v", rawURL, f.lastErr)
			continue
		}
		if visitErr != nil && f.lastStatus == 0 {
			lastNote = visitErr.Error()
			continue
		}

		status := f.lastStatus

		// 404: 终态,不重试
		if status == http.StatusNotFound {
			return &FetchOutcome{
				StatusCode:  status,
				StatusClass: models.StatusNotFound,
				Note:        "HTTP 404",
			}
		}

		// 反爬拦截: 交给上层渲染回退,不再重试
		if blockedStatusCodes[status] {
			return &FetchOutcome{
				StatusCode:  status,
				StatusClass: models.StatusBlocked,
				Note:        fmt.Sprintf("HTTP %d", status),
			}
		}

		// 其他4xx: 不重试
		if status >= 400 && status < 500 {
			return &FetchOutcome{
				StatusCode:  status,
				StatusClass: models.StatusHTTPError,
				Note:        fmt.Sprintf("HTTP %d", status),
			}
		}

		// 5xx: 最多再试一次
		if status >= 500 {
			lastNote = fmt.Sprintf("HTTP %d", status)
			if attempt >= 1 {
				return &FetchOutcome{
					StatusCode:  status,
					StatusClass: models.StatusHTTPError,
					Note:        lastNote,
				}
			}
			continue
		}

		// 成功: 解压、转码、计算哈希
		body := f.lastBody
		if encoding := f.lastHeaders.Get("Content-Encoding"); encoding != "" {
			decompressed, err := decompressResponse(encoding, body)
			if err != nil {
				utils.Warnf("解压响应失败 [%s] (编码=%s): %v", rawURL, encoding, err)
			} else {
				body = decompressed
			}
		}

		// 空响应体多为JS渲染的空壳页: 按成功返回,
		// 由上层的内容长度检查触发浏览器渲染回退
		if len(body) == 0 {
			return &FetchOutcome{
				StatusCode:  status,
				StatusClass: models.StatusOK,
				Hash:        ContentHash(body),
				Note:        ErrEmptyResponse.Error(),
			}
		}

		hash := ContentHash(body)
		htmlText := decodeToUTF8(body, f.lastHeaders.Get("Content-Type"))

		return &FetchOutcome{
			HTML:        htmlText,
			StatusCode:  status,
			StatusClass: models.StatusOK,
			Hash:        hash,
		}
	}

	return &FetchOutcome{
		StatusClass: models.StatusNetworkError,
		Note:        lastNote,
	}
}

// renderFetch 浏览器渲染抓取
func (f *Fetcher) renderFetch(rawURL string, reason string) *FetchOutcome {
	if f.renderer == nil {
		return &FetchOutcome{
			StatusClass: models.StatusRenderError,
			Note:        "渲染器未启用 (" + reason + ")",
		}
	}

	htmlText, err := f.renderer.Render(rawURL)
	if err != nil {
		utils.Warnf("浏览器渲染失败 [%s]: %v", rawURL, err)
		return &FetchOutcome{
			StatusClass: models.StatusRenderError,
			Note:        err.Error(),
			Rendered:    true,
		}
	}

	return &FetchOutcome{
		HTML:        htmlText,
		StatusCode:  http.StatusOK,
		StatusClass: models.StatusOK,
		Hash:        ContentHash([]byte(htmlText)),
		Rendered:    true,
	}
}

// Probe 轻量级存在性检查(HEAD请求,跟随重定向)
// 用于发现阶段的路径模式探测,不计入页面预算
func (f *Fetcher) Probe(rawURL string) (string, bool) {
	f.waitInterval(rawURL)

	client := &http.Client{
		Timeout: 5 * time.Second,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true,
			},
		},
	}

	req, err := http.NewRequest(http.MethodHead, rawURL, nil)
	if err != nil {
		return "", false
	}
	if f.headerProvider != nil {
		if headers, herr := f.headerProvider.GetHeaders(); herr == nil {
			for name, values := range headers {
				if len(values) > 0 {
					req.Header.Set(name, values[0])
				}
			}
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		// 跟随重定向后的最终URL
		return resp.Request.URL.String(), true
	}
	return "", false
}

// waitInterval 强制同域最小请求间隔
func (f *Fetcher) waitInterval(rawURL string) {
	if f.config.RequestInterval <= 0 {
		return
	}

	domain := hostOf(rawURL)
	interval := time.Duration(f.config.RequestInterval) * time.Second

	f.rateMu.Lock()
	last, seen := f.lastRequest[domain]
	now := time.Now()
	var wait time.Duration
	if seen {
		if elapsed := now.Sub(last); elapsed < interval {
			wait = interval - elapsed
		}
	}
	f.lastRequest[domain] = now.Add(wait)
	f.rateMu.Unlock()

	if wait > 0 {
		utils.Debugf("同域限速: 等待 %.1f 秒", wait.Seconds())
		time.Sleep(wait)
	}
}

// hostOf 提取URL主机名
func hostOf(rawURL string) string {
	if idx := strings.Index(rawURL, "://"); idx >= 0 {
		rest := rawURL[idx+3:]
		if end := strings.IndexAny(rest, "/?#"); end >= 0 {
			return strings.ToLower(rest[:end])
		}
		return strings.ToLower(rest)
	}
	return rawURL
}

// ContentHash 计算内容哈希(原始字节的SHA-256)
// 纯函数: 相同字节恒产出相同哈希,用于跨运行变更检测
func ContentHash(data []byte) string {
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash)
}

// decodeToUTF8 根据Content-Type将响应体转码为UTF-8字符串
func decodeToUTF8(body []byte, contentType string) string {
	reader, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return string(body)
	}
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return string(body)
	}
	return string(decoded)
}

// decompressResponse 根据Content-Encoding头部解压响应体
// 支持 gzip, deflate, br (Brotli) 三种压缩格式
func decompressResponse(contentEncoding string, body []byte) ([]byte, error) {
	encoding := strings.ToLower(strings.TrimSpace(contentEncoding))

	switch encoding {
	case "gzip":
		reader, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("gzip解压失败: %w", err)
		}
		defer reader.Close()

		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("gzip读取失败: %w", err)
		}
		return decompressed, nil

	case "deflate":
		reader := flate.NewReader(bytes.NewReader(body))
		defer reader.Close()

		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("deflate读取失败: %w", err)
		}
		return decompressed, nil

	case "br":
		reader := brotli.NewReader(bytes.NewReader(body))
		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("brotli读取失败: %w", err)
		}
		return decompressed, nil

	case "":
		return body, nil

	default:
		utils.Warnf("未知的Content-Encoding: %s", contentEncoding)
		return body, nil
	}
}
