// Package extract 提供页面内容和实体的结构化提取
//
// # 概述
//
// extract包是HTML到结构化数据的纯转换层,除ATS API和订阅源客户端外不产生网络访问。
// 核心入口:
//
//   - ExtractPage: 通用页面主体(元数据/结构化标记/链接/图片/表单/表格/层次化文本)
//   - ExtractJobs + ATSClient: 招聘页职位提取(ATS API优先,通用回退链兜底)
//   - FeedClient + ExtractArticle: 博客/新闻文章(订阅源优先,页面级回退)
//   - ExtractTeam / ExtractFunding / ExtractCustomers / ExtractPartners /
//     ExtractPricing / ExtractPress: 页面类型专属解析器
//   - DedupeJobs / DedupeArticles: 按自然键去重(幂等)
//
// # 回退链设计
//
// 每条提取通道按可靠性降序排列,上游通道落空才进入下一级;
// 提取失败返回空结果而非错误,实体形状校验失败的条目直接丢弃,
// 不作为页面级失败传播。
package extract
