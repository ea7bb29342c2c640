package main

import (
	"fmt"
	"strings"
)

// ValidateDomain 验证目标域名格式
func ValidateDomain(domain string) error {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return fmt.Errorf("目标域名不能为空")
	}
	if strings.ContainsAny(domain, " \t") {
		return fmt.Errorf("目标域名包含非法字符: %s", domain)
	}
	trimmed := strings.TrimPrefix(strings.TrimPrefix(domain, "https://"), "http://")
	if !strings.Contains(trimmed, ".") {
		return fmt.Errorf("目标域名格式无效: %s", domain)
	}
	return nil
}

// ValidateFlags 验证命令行标志
func ValidateFlags(
	targetDomain string,
	pageBudget int,
	requestInterval int,
	articleLimit int,
	maxWorkers int,
	targetDelay int,
) error {
	// 验证域名
	if targetDomain != "" {
		if err := ValidateDomain(targetDomain); err != nil {
			return fmt.Errorf("无效的目标域名: %w", err)
		}
	}

	// 验证页面预算 (0表示使用配置文件/默认值)
	if pageBudget != 0 && (pageBudget < 1 || pageBudget > 500) {
		return fmt.Errorf("页面预算必须在1-500之间,当前值: %d", pageBudget)
	}

	// 验证请求间隔 (-1表示使用配置文件/默认值)
	if requestInterval >= 0 && requestInterval > 60 {
		return fmt.Errorf("请求间隔必须在0-60秒之间,当前值: %d", requestInterval)
	}

	// 验证文章数量上限
	if articleLimit != 0 && (articleLimit < 1 || articleLimit > 100) {
		return fmt.Errorf("文章数量上限必须在1-100之间,当前值: %d", articleLimit)
	}

	// 验证并发数 (0表示按系统资源自动计算)
	if maxWorkers < 0 || maxWorkers > 100 {
		return fmt.Errorf("并发worker数必须在0-100之间,当前值: %d", maxWorkers)
	}

	// 验证目标间延迟
	if targetDelay < 0 || targetDelay > 300 {
		return fmt.Errorf("目标间延迟必须在0-300秒之间,当前值: %d", targetDelay)
	}

	return nil
}

// ValidateTargetsFile 验证目标文件路径
func ValidateTargetsFile(filepath string) error {
	if filepath == "" {
		return fmt.Errorf("目标文件路径不能为空")
	}
	// 文件存在性检查将在运行时进行
	return nil
}
