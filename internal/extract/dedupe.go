package extract

import "github.com/RecoveryAshes/CompanyCrawl/internal/models"

// DedupeByKey 通用的按键去重,保留首次出现的条目
// 幂等: 对已去重列表再次去重,结果不变
func DedupeByKey[T any](items []T, keyFn func(T) string) []T {
	seen := make(map[string]bool, len(items))
	unique := make([]T, 0, len(items))
	for _, item := range items {
		key := keyFn(item)
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, item)
	}
	return unique
}

// DedupeJobs 职位去重,自然键为(小写标题, URL)
// 形状不合格的条目在此丢弃,不作为页面级失败传播
func DedupeJobs(jobs []models.JobPosting) []models.JobPosting {
	valid := make([]models.JobPosting, 0, len(jobs))
	for _, job := range jobs {
		if job.IsValid() {
			valid = append(valid, job)
		}
	}
	return DedupeByKey(valid, func(j models.JobPosting) string {
		return j.DedupeKey()
	})
}

// DedupeArticles 文章去重,自然键为URL(缺失时回退小写标题)
func DedupeArticles(articles []models.NewsArticle) []models.NewsArticle {
	valid := make([]models.NewsArticle, 0, len(articles))
	for _, article := range articles {
		if article.IsValid() {
			valid = append(valid, article)
		}
	}
	return DedupeByKey(valid, func(a models.NewsArticle) string {
		return a.DedupeKey()
	})
}
