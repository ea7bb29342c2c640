package crawlers

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/RecoveryAshes/CompanyCrawl/internal/models"
	"github.com/RecoveryAshes/CompanyCrawl/internal/utils"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// 错误类型定义
var (
	ErrBrowserCrashed    = errors.New("浏览器崩溃")
	ErrMaxRetriesReached = errors.New("已达最大重试次数")
	ErrResourcePressure  = errors.New("系统资源不足,拒绝创建渲染页面")
)

// settleDelay 页面加载完成后的额外静置时间,等待JS补水
const settleDelay = 2 * time.Second

// maxBrowserRetries 浏览器崩溃后的最大重启次数
const maxBrowserRetries = 3

// Renderer 无头浏览器渲染器(使用Rod)
// 直接HTTP抓取被拦截或内容可疑时的回退通道。
// 浏览器实例惰性启动,崩溃后自动重启,最多重试3次。
type Renderer struct {
	browser *rod.Browser

	// 渲染超时(秒)
	timeout time.Duration

	// 无头模式开关
	headless bool

	// HTTP头部提供者
	headerProvider models.HeaderProvider

	// 资源监控器(内存不足时拒绝新渲染页面)
	resourceMonitor *ResourceMonitor

	mu sync.Mutex
}

// NewRenderer 创建渲染器
// 浏览器不在此处启动,首次Render时惰性启动
func NewRenderer(config models.SessionConfig, headerProvider models.HeaderProvider, monitor *ResourceMonitor) *Renderer {
	return &Renderer{
		timeout:         time.Duration(config.RenderTimeout) * time.Second,
		headless:        config.Headless,
		headerProvider:  headerProvider,
		resourceMonitor: monitor,
	}
}

// Render 渲染单个URL并返回最终DOM的HTML
// 浏览器崩溃(panic)时自动重启并重试,最多3次
func (r *Renderer) Render(pageURL string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.resourceMonitor != nil {
		if canCreate, reason := r.resourceMonitor.CheckResourceAvailability(); !canCreate {
			return "", fmt.Errorf("%w: %s", ErrResourcePressure, reason)
		}
	}

	var lastErr error

	for attempt := 0; attempt <= maxBrowserRetries; attempt++ {
		if attempt > 0 {
			utils.Warnf("浏览器崩溃,准备重启(重试%d/%d)", attempt, maxBrowserRetries)
			r.closeBrowserLocked()
			time.Sleep(2 * time.Second)
		}

		if err := r.ensureBrowser(); err != nil {
			lastErr = err
			continue
		}

		html, err := r.renderPage(pageURL)
		if errors.Is(err, ErrBrowserCrashed) {
			lastErr = err
			continue
		}
		return html, err
	}

	return "", fmt.Errorf("渲染失败 [%s]: %w (%v)", pageURL, ErrMaxRetriesReached, lastErr)
}

// ensureBrowser 惰性启动浏览器
func (r *Renderer) ensureBrowser() error {
	if r.browser != nil {
		return nil
	}

	l := launcher.New().Headless(r.headless)

	// 跳过TLS证书验证,兼容自签名/过期证书站点
	l = l.Set("ignore-certificate-errors")

	controlURL, err := l.Launch()
	if err != nil {
		return fmt.Errorf("启动浏览器失败: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("连接浏览器失败: %w", err)
	}

	r.browser = browser
	utils.Debugf("浏览器已启动: %s", controlURL)
	return nil
}

// renderPage 在当前浏览器实例中渲染页面
// panic转换为ErrBrowserCrashed,由上层重试循环处理
func (r *Renderer) renderPage(pageURL string) (html string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			utils.Errorf("浏览器操作panic [%s]: %v", pageURL, rec)
			err = ErrBrowserCrashed
		}
	}()

	page, err := r.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", ErrBrowserCrashed
	}
	defer func() {
		_ = page.Close()
	}()

	r.applyHeaders(page)

	page = page.Timeout(r.timeout)

	if err := page.Navigate(pageURL); err != nil {
		return "", fmt.Errorf("页面导航失败: %w", err)
	}

	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("等待页面加载失败: %w", err)
	}

	// 静置等待JS渲染出动态内容
	time.Sleep(settleDelay)

	html, err = page.HTML()
	if err != nil {
		return "", fmt.Errorf("获取页面HTML失败: %w", err)
	}

	utils.Debugf("渲染完成 [%s]: %d字节", pageURL, len(html))
	return html, nil
}

// applyHeaders 通过请求劫持注入自定义HTTP头部
func (r *Renderer) applyHeaders(page *rod.Page) {
	if r.headerProvider == nil {
		return
	}

	router := page.HijackRequests()
	router.MustAdd("*", func(ctx *rod.Hijack) {
		headers, err := r.headerProvider.GetHeaders()
		if err != nil {
			utils.Warnf("获取HTTP头部失败: %v", err)
		} else {
			for name, values := range headers {
				if len(values) > 0 {
					ctx.Request.Req().Header.Set(name, values[0])
				}
			}
		}
		ctx.ContinueRequest(&proto.FetchContinueRequest{})
	})
	go router.Run()
}

// Close 关闭浏览器实例
func (r *Renderer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closeBrowserLocked()
}

func (r *Renderer) closeBrowserLocked() {
	if r.browser != nil {
		_ = r.browser.Close()
		r.browser = nil
		utils.Debugf("浏览器已关闭")
	}
}
