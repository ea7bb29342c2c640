// Package crawlers 提供公司官网的页面发现、抓取调度和浏览器渲染回退
//
// # 概述
//
// crawlers包实现了单域名会话的抓取基础设施: 规范页面发现(模式探测+链接分析)、
// 三级优先级任务队列、直接HTTP抓取(Colly)与无头浏览器渲染(go-rod)的双通道策略,
// 以及robots.txt门禁和系统资源监控。
//
// # 核心组件
//
// ## Discoverer (页面发现器)
//
// 定位12种规范页面类型(首页/关于/产品/招聘/博客/团队/投资方/客户/媒体/定价/合作伙伴/联系)。
// 两条通道: 路径模式HEAD探测为主,首页链接分析为补,探测结果优先。
//
//	discoverer := NewDiscoverer(fetcher, target)
//	pages := discoverer.Discover(homepageHTML)
//
// ## TaskQueue (优先级任务队列)
//
// 三级优先级(实体URL > 规范页面 > 普通链接),已访问集合以规范化URL为键,
// 入队即占位,保证同一会话内任何URL不会被抓取两次。
//
//	queue := NewTaskQueue(targetDomain)
//	err := queue.Push(task)
//	task, ok := queue.Pop()
//
// ## Fetcher (抓取策略执行器)
//
// 默认走Colly直接HTTP请求; 403/429拦截或内容过短时回退到浏览器渲染。
// 网络错误指数退避重试,404为终态,同域请求间隔强制执行。
//
//	fetcher := NewFetcher(config, headerProvider, renderer)
//	outcome := fetcher.Fetch(url, false)
//
// ## Renderer (浏览器渲染器)
//
// 基于go-rod的无头浏览器渲染,浏览器惰性启动,崩溃后自动重启(最多3次)。
// 创建渲染页面前咨询ResourceMonitor,内存不足时拒绝。
//
//	renderer := NewRenderer(config, headerProvider, monitor)
//	html, err := renderer.Render(url)
//	defer renderer.Close()
//
// ## RobotsGate (robots.txt门禁)
//
// 每个域名的robots.txt只抓取一次并缓存;抓取失败视为全部允许。
// 仅在respect_robots开启时挂载到Fetcher。
//
// ## ResourceMonitor (资源监控器)
//
// 实时监控系统可用内存和CPU负载,计算批量模式的并发worker上限,
// 内存低于安全阈值时阻止新的渲染页面创建。
//
//	monitor := NewResourceMonitor(DefaultResourceMonitorConfig())
//	monitor.StartMonitoring(1 * time.Second)
//	defer monitor.StopMonitoring()
//
// # 并发安全
//
// 所有核心组件都是并发安全的:
//   - TaskQueue: sync.Mutex
//   - Fetcher: fetchMu串行化collector,rateMu保护限速表
//   - Renderer: sync.Mutex串行化浏览器操作
//   - RobotsGate/ResourceMonitor: sync.Mutex / sync.RWMutex
//
// # 批量爬取隔离
//
// 每个目标使用独立的TaskQueue,完成后调用Reset()清空队列和已访问集合;
// Fetcher的同域限速表跨目标共享,保证对同一站点的礼貌间隔。
package crawlers
