package content

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Slugify 生成稳定的 URL 标识：去除重音、保留小写字母数字，空白与连字符折叠为单个 -
// 结果为空时回退为 post-时间戳
func Slugify(value string, now time.Time) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range norm.NFKD.String(value) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		r = unicode.ToLower(r)
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if pendingSep && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingSep = false
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-' || r == '_':
			pendingSep = true
		}
	}
	if b.Len() == 0 {
		return "post-" + now.UTC().Format("20060102150405")
	}
	return b.String()
}
