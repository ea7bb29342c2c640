package crawlers

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/RecoveryAshes/CompanyCrawl/internal/models"
)

// SkipPatterns 低价值页面过滤模式
// 命中任一模式的链接不进入队列(法务/登录/下载/静态资源等)
var SkipPatterns = []string{
	"/legal", "/privacy", "/terms", "/cookie", "/policy",
	"/signup", "/sign-up", "/login", "/sign-in", "/register", "/account", "/profile",
	"/search", "/archive", "/tag/", "/category/", "/author/", "/page/",
	"javascript:", "mailto:", "tel:",
	".pdf", ".jpg", ".jpeg", ".png", ".gif", ".svg", ".zip", ".exe", ".doc", ".docx",
	"/download", "/support", "/help", "/faq", "/docs/", "/documentation", "/api/",
}

// EntityPathKeywords 职位/文章类URL特征,命中则提升为最高优先级
var EntityPathKeywords = []string{
	"/job/", "/position/", "/opening/", "/career/",
	"/blog/", "/news/", "/post/", "/article/",
}

// TaskQueue 优先级任务队列
// 职责: 管理待抓取任务和已访问集合,三级优先级出队
// 已访问集合以规范化URL为键,保证同一会话内任何URL不会被抓取两次
type TaskQueue struct {
	// 按优先级分层的待处理任务
	pending [3][]models.PageTask

	// 已访问集合(规范化URL -> true),含已入队未出队的任务
	visited map[string]bool

	mu sync.Mutex

	// 目标域名(同域过滤)
	targetDomain string
}

// NewTaskQueue 创建任务队列实例
func NewTaskQueue(targetDomain string) *TaskQueue {
	return &TaskQueue{
		visited:      make(map[string]bool),
		targetDomain: targetDomain,
	}
}

// Push 添加任务到队列
// 检查协议、同域限制、过滤模式、已访问集合;重复入队返回错误
func (q *TaskQueue) Push(task models.PageTask) error {
	parsedURL, err := url.Parse(task.URL)
	if err != nil {
		return fmt.Errorf("URL格式无效: %w", err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("不支持的协议: %s", parsedURL.Scheme)
	}

	if !models.SameDomain(task.URL, q.targetDomain) {
		return fmt.Errorf("跨域链接已过滤: %s (目标域名: %s)", parsedURL.Host, q.targetDomain)
	}

	// 过滤模式只作用于普通链接,规范页面和实体URL由发现阶段显式指定
	if task.Priority == models.PriorityLink && ShouldSkipURL(task.URL) {
		return fmt.Errorf("命中过滤模式: %s", task.URL)
	}

	if task.Priority < models.PriorityEntity || task.Priority > models.PriorityLink {
		return fmt.Errorf("无效的优先级: %d", task.Priority)
	}

	if task.NormalizedURL == "" {
		task.NormalizedURL = models.NormalizeURL(task.URL)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.visited[task.NormalizedURL] {
		return fmt.Errorf("URL已访问或已入队: %s", task.NormalizedURL)
	}

	// 入队即占位,防止同一URL重复入队
	q.visited[task.NormalizedURL] = true
	q.pending[task.Priority] = append(q.pending[task.Priority], task)

	return nil
}

// Pop 取出当前最高优先级的任务
// 队列为空时返回ok=false;同级任务按入队顺序出队
func (q *TaskQueue) Pop() (models.PageTask, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for p := range q.pending {
		if len(q.pending[p]) > 0 {
			task := q.pending[p][0]
			q.pending[p] = q.pending[p][1:]
			return task, true
		}
	}

	return models.PageTask{}, false
}

// IsVisited 检查URL是否已访问或已入队
func (q *TaskQueue) IsVisited(rawURL string) bool {
	key := models.NormalizeURL(rawURL)

	q.mu.Lock()
	defer q.mu.Unlock()
	return q.visited[key]
}

// MarkVisited 显式标记URL为已访问
// 用于不经队列的抓取(如发现阶段的首页)
func (q *TaskQueue) MarkVisited(rawURL string) {
	key := models.NormalizeURL(rawURL)

	q.mu.Lock()
	defer q.mu.Unlock()
	q.visited[key] = true
}

// PendingCount 返回当前待处理任务数量
func (q *TaskQueue) PendingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	count := 0
	for p := range q.pending {
		count += len(q.pending[p])
	}
	return count
}

// VisitedCount 返回已访问集合大小
func (q *TaskQueue) VisitedCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.visited)
}

// Reset 清空队列和已访问集合,为下一个目标准备全新状态
func (q *TaskQueue) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()

	for p := range q.pending {
		q.pending[p] = nil
	}
	q.visited = make(map[string]bool)
}

// ShouldSkipURL 判断URL是否命中过滤模式
func ShouldSkipURL(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, pattern := range SkipPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

// IsEntityURL 判断URL是否为职位/文章类URL(最高优先级)
func IsEntityURL(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, kw := range EntityPathKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
