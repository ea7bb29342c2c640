package crawlers

import (
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/RecoveryAshes/CompanyCrawl/internal/utils"
	"github.com/temoto/robotstxt"
)

// robotsUserAgent robots.txt规则匹配使用的UA标识
const robotsUserAgent = "companycrawl"

// RobotsGate robots.txt访问控制
// 每个域名的robots.txt只抓取一次,结果缓存到会话结束。
// 抓取失败(网络错误/4xx/5xx)时视为全部允许,不阻塞爬取。
type RobotsGate struct {
	client *http.Client

	// 域名 -> 解析后的robots数据(nil表示抓取失败,视为允许)
	cache map[string]*robotstxt.RobotsData
	mu    sync.Mutex
}

// NewRobotsGate 创建robots.txt检查器
func NewRobotsGate(timeout time.Duration) *RobotsGate {
	return &RobotsGate{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: true,
				},
			},
		},
		cache: make(map[string]*robotstxt.RobotsData),
	}
}

// Allowed 检查URL是否允许抓取
func (g *RobotsGate) Allowed(rawURL string) (bool, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false, fmt.Errorf("URL解析失败: %w", err)
	}

	data := g.robotsFor(parsed)
	if data == nil {
		// robots.txt不可用,默认允许
		return true, nil
	}

	group := data.FindGroup(robotsUserAgent)
	return group.Test(parsed.Path), nil
}

// robotsFor 获取域名的robots数据,按需抓取并缓存
func (g *RobotsGate) robotsFor(parsed *url.URL) *robotstxt.RobotsData {
	host := parsed.Host

	g.mu.Lock()
	defer g.mu.Unlock()

	if data, seen := g.cache[host]; seen {
		return data
	}

	robotsURL := parsed.Scheme + "://" + host + "/robots.txt"
	data := g.fetchRobots(robotsURL)
	g.cache[host] = data
	return data
}

// fetchRobots 抓取并解析robots.txt,失败返回nil
func (g *RobotsGate) fetchRobots(robotsURL string) *robotstxt.RobotsData {
	resp, err := g.client.Get(robotsURL)
	if err != nil {
		utils.Debugf("获取robots.txt失败 [%s]: %v", robotsURL, err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		utils.Debugf("robots.txt不可用 [%s]: HTTP %d", robotsURL, resp.StatusCode)
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		utils.Debugf("读取robots.txt失败 [%s]: %v", robotsURL, err)
		return nil
	}

	data, err := robotstxt.FromBytes(body)
	if err != nil {
		utils.Debugf("解析robots.txt失败 [%s]: %v", robotsURL, err)
		return nil
	}

	utils.Debugf("robots.txt已缓存: %s", robotsURL)
	return data
}
