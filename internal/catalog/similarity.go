package catalog

import (
	"math"
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// Similarity 字符级相似度（0-1），大小写不敏感且对称
//
// 插入/删除代价 1、替换代价 2 时，编辑距离 = len(a)+len(b)-2*LCS，
// 因此 RatioForStrings 的结果即最长公共子序列比率 2*LCS/(len(a)+len(b))。
func Similarity(a, b string) float64 {
	ra := []rune(strings.ToLower(a))
	rb := []rune(strings.ToLower(b))
	if len(ra) == 0 && len(rb) == 0 {
		return 1.0
	}
	return levenshtein.RatioForStrings(ra, rb, levenshtein.DefaultOptions)
}

// Round3 保留三位小数
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
