package extract

import (
	"testing"

	"github.com/RecoveryAshes/CompanyCrawl/internal/models"
)

// TestExtractJobs_JSONLD 测试JSON-LD JobPosting通道
func TestExtractJobs_JSONLD(t *testing.T) {
	html := `<html><head>
	<script type="application/ld+json">
	{"@type": "JobPosting", "title": "Senior Engineer",
	 "jobLocation": {"@type": "Place", "name": "Remote"},
	 "url": "https://acme.com/jobs/senior-engineer",
	 "description": "Build things."}
	</script>
	</head><body></body></html>`

	jobs := ExtractJobs(html, "https://acme.com/careers")
	if len(jobs) != 1 {
		t.Fatalf("职位数 = %d, 期望 1", len(jobs))
	}

	job := jobs[0]
	if job.Title != "Senior Engineer" {
		t.Errorf("标题 = %q", job.Title)
	}
	if job.Location != "Remote" {
		t.Errorf("地点 = %q (应读取嵌套jobLocation.name)", job.Location)
	}
	if job.URL != "https://acme.com/jobs/senior-engineer" {
		t.Errorf("URL = %q", job.URL)
	}
	if job.Source != "json_ld" {
		t.Errorf("来源 = %q, 期望 json_ld", job.Source)
	}
}

// TestExtractJobs_JSONLDMissingURL 测试JSON-LD职位URL缺失时回退页面URL
func TestExtractJobs_JSONLDMissingURL(t *testing.T) {
	html := `<html><head>
	<script type="application/ld+json">
	{"@type": "JobPosting", "title": "Designer"}
	</script>
	</head><body></body></html>`

	jobs := ExtractJobs(html, "https://acme.com/careers")
	if len(jobs) != 1 {
		t.Fatalf("职位数 = %d, 期望 1", len(jobs))
	}
	if jobs[0].URL != "https://acme.com/careers" {
		t.Errorf("URL应回退为页面URL, 得到 %q", jobs[0].URL)
	}
}

// TestExtractJobs_EmbeddedJSON 测试嵌入式JSON通道的三种职位形状
func TestExtractJobs_EmbeddedJSON(t *testing.T) {
	t.Run("通用形状", func(t *testing.T) {
		html := `<html><body>
		<script type="application/json">
		{"data": {"openings": [{"title": "Backend Engineer", "location": "Berlin", "department": "Engineering"}]}}
		</script>
		</body></html>`

		jobs := ExtractJobs(html, "https://acme.com/careers")
		if len(jobs) != 1 {
			t.Fatalf("职位数 = %d, 期望 1", len(jobs))
		}
		if jobs[0].Title != "Backend Engineer" || jobs[0].Location != "Berlin" {
			t.Errorf("职位 = %+v", jobs[0])
		}
		if jobs[0].Source != "embedded_json" {
			t.Errorf("来源 = %q", jobs[0].Source)
		}
	})

	t.Run("Lever形状", func(t *testing.T) {
		html := `<html><body>
		<script type="application/json">
		{"postings": [{"text": "Data Scientist", "hostedUrl": "https://jobs.lever.co/acme/123",
		 "categories": {"location": "NYC", "team": "Data"}}]}
		</script>
		</body></html>`

		jobs := ExtractJobs(html, "https://acme.com/careers")
		if len(jobs) != 1 {
			t.Fatalf("职位数 = %d, 期望 1", len(jobs))
		}
		job := jobs[0]
		if job.Title != "Data Scientist" || job.Location != "NYC" || job.Department != "Data" {
			t.Errorf("职位 = %+v", job)
		}
		if job.URL != "https://jobs.lever.co/acme/123" {
			t.Errorf("URL = %q", job.URL)
		}
	})

	t.Run("深度嵌套有界遍历", func(t *testing.T) {
		// 超过深度上限的职位不会被发现,但不应崩溃
		deep := `{"a":{"b":{"c":{"d":{"e":{"f":{"g":{"h":{"i":{"j":{"k":{"title":"Hidden","location":"X"}}}}}}}}}}}`
		html := `<html><body><script type="application/json">` + deep + `</script></body></html>`

		jobs := ExtractJobs(html, "https://acme.com/careers")
		if len(jobs) != 0 {
			t.Errorf("超深嵌套的职位不应被发现, 得到 %d", len(jobs))
		}
	})
}

// TestExtractJobs_Cards 测试HTML职位卡片通道
func TestExtractJobs_Cards(t *testing.T) {
	html := `<html><body>
	<div class="job-listing">
		<h3>Platform Engineer</h3>
		<span class="location">Remote, EU</span>
		<span class="department">Infrastructure</span>
		<a href="/careers/platform-engineer">Apply</a>
	</div>
	<div class="job-listing">
		<h3>Product Manager</h3>
		<span class="location">London</span>
		<a href="/careers/product-manager">Apply</a>
	</div>
	</body></html>`

	jobs := ExtractJobs(html, "https://acme.com/careers")
	if len(jobs) != 2 {
		t.Fatalf("职位数 = %d, 期望 2", len(jobs))
	}

	first := jobs[0]
	if first.Title != "Platform Engineer" {
		t.Errorf("标题 = %q", first.Title)
	}
	if first.Location != "Remote, EU" {
		t.Errorf("地点 = %q", first.Location)
	}
	if first.Department != "Infrastructure" {
		t.Errorf("部门 = %q", first.Department)
	}
	if first.URL != "https://acme.com/careers/platform-engineer" {
		t.Errorf("相对链接应解析为绝对URL, 得到 %q", first.URL)
	}
	if first.Source != "html" {
		t.Errorf("来源 = %q", first.Source)
	}
}

// TestExtractJobs_CardSelectorsNoDouble 测试同一卡片被多个选择器命中时不重复
func TestExtractJobs_CardSelectorsNoDouble(t *testing.T) {
	// job-card和div[class*="job"]都会命中同一元素
	html := `<html><body>
	<div class="job-card">
		<h3>Solutions Architect</h3>
		<a href="/careers/sa">Apply</a>
	</div>
	</body></html>`

	jobs := ExtractJobs(html, "https://acme.com/careers")
	if len(jobs) != 1 {
		t.Errorf("同一卡片应只提取一次, 得到 %d", len(jobs))
	}
}

// TestExtractJobs_Table 测试表格形式的职位列表
func TestExtractJobs_Table(t *testing.T) {
	html := `<html><body>
	<table>
		<tr><th>Title</th><th>Location</th><th>Department</th></tr>
		<tr><td>QA Engineer</td><td>Austin</td><td>Quality</td></tr>
		<tr><td>Recruiter</td><td>Remote</td><td>People</td></tr>
	</table>
	</body></html>`

	jobs := ExtractJobs(html, "https://acme.com/careers")
	if len(jobs) != 2 {
		t.Fatalf("职位数 = %d, 期望 2", len(jobs))
	}
	if jobs[0].Title != "QA Engineer" || jobs[0].Location != "Austin" || jobs[0].Department != "Quality" {
		t.Errorf("首行职位 = %+v", jobs[0])
	}
}

// TestExtractJobs_TableHeaderGate 测试非职位表格被忽略
func TestExtractJobs_TableHeaderGate(t *testing.T) {
	html := `<html><body>
	<table>
		<tr><th>Feature</th><th>Included</th></tr>
		<tr><td>SSO</td><td>Yes</td></tr>
	</table>
	</body></html>`

	jobs := ExtractJobs(html, "https://acme.com/careers")
	if len(jobs) != 0 {
		t.Errorf("非职位表格不应产出职位, 得到 %d", len(jobs))
	}
}

// TestExtractJobs_LinkFallback 测试链接兜底仅在其他通道落空时生效
func TestExtractJobs_LinkFallback(t *testing.T) {
	t.Run("其他通道落空时启用", func(t *testing.T) {
		html := `<html><body>
		<a href="/job/senior-backend-engineer">Senior Backend Engineer</a>
		<a href="/about">About</a>
		</body></html>`

		jobs := ExtractJobs(html, "https://acme.com/careers")
		if len(jobs) != 1 {
			t.Fatalf("职位数 = %d, 期望 1", len(jobs))
		}
		if jobs[0].Source != "link" {
			t.Errorf("来源 = %q, 期望 link", jobs[0].Source)
		}
	})

	t.Run("卡片通道命中时不启用", func(t *testing.T) {
		html := `<html><body>
		<div class="job-listing"><h3>Platform Engineer</h3></div>
		<a href="/job/another-role">Another Role Engineer</a>
		</body></html>`

		jobs := ExtractJobs(html, "https://acme.com/careers")
		for _, job := range jobs {
			if job.Source == "link" {
				t.Error("卡片通道命中时不应启用链接兜底")
			}
		}
	})
}

// TestExtractJobs_DedupeAcrossSources 测试跨来源重复职位最终收敛为一条
func TestExtractJobs_DedupeAcrossSources(t *testing.T) {
	// 同一职位同时出现在JSON-LD和卡片中,URL相同
	html := `<html><head>
	<script type="application/ld+json">
	{"@type": "JobPosting", "title": "Platform Engineer",
	 "url": "https://acme.com/careers/platform-engineer"}
	</script>
	</head><body>
	<div class="job-listing">
		<h3>Platform Engineer</h3>
		<a href="/careers/platform-engineer">Apply</a>
	</div>
	</body></html>`

	raw := ExtractJobs(html, "https://acme.com/careers")
	if len(raw) < 2 {
		t.Fatalf("去重前应有多条来源, 得到 %d", len(raw))
	}

	deduped := DedupeJobs(raw)
	if len(deduped) != 1 {
		t.Errorf("跨来源重复应收敛为1条, 得到 %d", len(deduped))
	}
	// 保留首个来源(可靠性最高的JSON-LD)
	if deduped[0].Source != "json_ld" {
		t.Errorf("去重应保留最先出现的来源, 得到 %q", deduped[0].Source)
	}
}

// TestDedupeJobs_DropInvalid 测试形状不合格的职位被丢弃
func TestDedupeJobs_DropInvalid(t *testing.T) {
	jobs := []models.JobPosting{
		{Title: "Engineer", URL: "https://acme.com/j/1"},
		{Title: "", URL: "https://acme.com/j/2"},
		{Title: "   ", URL: "https://acme.com/j/3"},
	}
	deduped := DedupeJobs(jobs)
	if len(deduped) != 1 {
		t.Errorf("无标题职位应被丢弃, 得到 %d", len(deduped))
	}
}
