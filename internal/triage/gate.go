package triage

import "strings"

// DefaultKeywords 是未配置关键词时使用的紧急短语集合。
var DefaultKeywords = []string{
	"chest pain",
	"can't breathe",
	"cannot breathe",
	"difficulty breathing",
	"heart attack",
	"stroke",
	"unconscious",
	"severe bleeding",
	"overdose",
	"seizure",
	"suicide",
	"kill myself",
}

// KeywordSet 是不可变的紧急短语集合，构造后不再修改。
type KeywordSet struct {
	phrases []string
}

// NewKeywordSet 归一化（小写、去空白、去重）给定短语。空列表时使用 DefaultKeywords。
func NewKeywordSet(phrases []string) KeywordSet {
	if len(phrases) == 0 {
		phrases = DefaultKeywords
	}
	seen := make(map[string]struct{}, len(phrases))
	normalized := make([]string, 0, len(phrases))
	for _, p := range phrases {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		normalized = append(normalized, p)
	}
	return KeywordSet{phrases: normalized}
}

// Phrases 返回短语副本。
func (k KeywordSet) Phrases() []string {
	out := make([]string, len(k.phrases))
	copy(out, k.phrases)
	return out
}

// Gate 判断一条用户消息是否属于紧急情况。
type Gate struct {
	keywords KeywordSet
}

// NewGate 创建一个基于给定关键词集合的分流器。
func NewGate(keywords KeywordSet) *Gate {
	return &Gate{keywords: keywords}
}

// Match 对文本做不区分大小写的子串匹配，不做分词：
// 关键词出现在无关单词内部也会命中（例如 "heatstroke" 命中 "stroke"）。
func (g *Gate) Match(text string) bool {
	_, ok := g.MatchedKeyword(text)
	return ok
}

// MatchedKeyword 返回第一个命中的关键词。
func (g *Gate) MatchedKeyword(text string) (string, bool) {
	normalized := strings.ToLower(text)
	if strings.TrimSpace(normalized) == "" {
		return "", false
	}
	for _, phrase := range g.keywords.phrases {
		if strings.Contains(normalized, phrase) {
			return phrase, true
		}
	}
	return "", false
}
