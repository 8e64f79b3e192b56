package crisis

import "strings"

// DefaultKeywords 是触发危机回复的默认关键词表。
var DefaultKeywords = []string{
	"kill myself",
	"want to die",
	"end my life",
	"suicide",
	"self harm",
	"hurt myself",
	"cut myself",
	"no reason to live",
	"better off dead",
}

// Detector 通过大小写不敏感的子串匹配判断一条消息是否包含危机信号。
type Detector struct {
	keywords []string
}

// New builds a Detector from a keyword table. Keywords are lower-cased and blank
// entries dropped; an empty table falls back to DefaultKeywords.
func New(keywords []string) *Detector {
	normalized := make([]string, 0, len(keywords))
	for _, word := range keywords {
		word = strings.ToLower(strings.TrimSpace(word))
		if word == "" {
			continue
		}
		normalized = append(normalized, word)
	}
	if len(normalized) == 0 {
		return New(DefaultKeywords)
	}
	return &Detector{keywords: normalized}
}

// Default returns a Detector over DefaultKeywords.
func Default() *Detector {
	return New(DefaultKeywords)
}

// Detect reports whether any keyword occurs anywhere in text.
func (d *Detector) Detect(text string) bool {
	normalized := strings.ToLower(text)
	for _, word := range d.keywords {
		if strings.Contains(normalized, word) {
			return true
		}
	}
	return false
}

// Matches lists the keywords found in text, in table order.
func (d *Detector) Matches(text string) []string {
	normalized := strings.ToLower(text)
	var found []string
	for _, word := range d.keywords {
		if strings.Contains(normalized, word) {
			found = append(found, word)
		}
	}
	return found
}

// Keywords returns a copy of the active keyword table.
func (d *Detector) Keywords() []string {
	return append([]string(nil), d.keywords...)
}

// Detect 使用默认关键词表检测文本。
func Detect(text string) bool {
	return defaultDetector.Detect(text)
}

var defaultDetector = Default()
