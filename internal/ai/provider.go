package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// SampleRowLimit 发送给 provider 的样本行数
const SampleRowLimit = 3

// Provider 表头 -> 标准字段建议来源
type Provider interface {
	// Name 写入改进记录的 provider 名称
	Name() string

	// SuggestMapping 返回 源列 -> 标准字段；无法判断的列不出现在结果中
	SuggestMapping(ctx context.Context, headers []string, sampleRows []map[string]string) (map[string]string, error)
}

// TargetField 提示词中可选的标准字段
type TargetField struct {
	Name        string
	Description string
}

const systemPrompt = "You map freight rate card spreadsheet headers to a canonical schema. Answer with a single JSON object and nothing else."

// buildPrompt 构造映射提示词
func buildPrompt(fields []TargetField, headers []string, sampleRows []map[string]string) string {
	var b strings.Builder
	b.WriteString("Canonical fields:\n")
	for _, f := range fields {
		fmt.Fprintf(&b, "- %s: %s\n", f.Name, f.Description)
	}

	b.WriteString("\nSource headers:\n")
	for _, h := range headers {
		fmt.Fprintf(&b, "- %s\n", h)
	}

	if len(sampleRows) > 0 {
		b.WriteString("\nSample rows:\n")
		for _, r := range sampleRows {
			data, _ := json.Marshal(r)
			b.Write(data)
			b.WriteByte('\n')
		}
	}

	b.WriteString(`
Return a JSON object whose keys are the source headers exactly as written and
whose values are canonical field names, or null when no field fits.
Example: {"Port of Loading": "lane_origin", "Remarks": null}`)
	return b.String()
}

// parseMapping 从模型回复中提取 JSON 对象
func parseMapping(text string, headers []string, fields []TargetField) (map[string]string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return nil, eris.Errorf("no JSON object in provider response: %q", truncate(text, 200))
	}

	var raw map[string]*string
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil, eris.Wrap(err, "decode provider mapping")
	}

	known := make(map[string]bool, len(fields))
	for _, f := range fields {
		known[f.Name] = true
	}
	wanted := make(map[string]bool, len(headers))
	for _, h := range headers {
		wanted[h] = true
	}

	out := make(map[string]string, len(raw))
	for header, target := range raw {
		if target == nil || !wanted[header] {
			continue
		}
		t := strings.TrimSpace(*target)
		if known[t] {
			out[header] = t
		}
	}
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
