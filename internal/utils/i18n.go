package utils

// Minimal server-side i18n for messages the gateway itself produces.
// Domain validation messages come from the services and are not translated.

var translations = map[string]map[string]string{
	"en": {
		"health.ok":        "ok",
		"error.bad_id":     "Invalid id",
		"error.bad_body":   "Invalid JSON body",
		"error.no_jobs":    "No jobs available to assign the candidate to",
		"error.internal":   "Internal server error",
		"error.auth":       "unauthorized",
		"error.chaos":      "Random write failure (simulated)",
		"error.bad_filter": "Invalid candidateId",
	},
	"zh": {
		"health.ok":        "好的",
		"error.bad_id":     "无效的 ID",
		"error.bad_body":   "无效的 JSON 请求体",
		"error.no_jobs":    "没有可分配给候选人的职位",
		"error.internal":   "服务器内部错误",
		"error.auth":       "未授权",
		"error.chaos":      "随机写入失败（模拟）",
		"error.bad_filter": "无效的 candidateId",
	},
}

// T returns the translated string for key in locale; falls back to English.
func T(locale, key string) string {
	if m, ok := translations[locale]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	if m, ok := translations["en"]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	return key
}
