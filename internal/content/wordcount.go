package content

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// articleSelector 参与词数统计的正文区域
const articleSelector = "article.page-body"

// CountWords 统计渲染后 HTML 正文区域的词数
func CountWords(html []byte) (int, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return 0, fmt.Errorf("parse rendered html failed: %w", err)
	}
	selection := doc.Find(articleSelector)
	if selection.Length() == 0 {
		selection = doc.Find("body")
	}
	return len(strings.Fields(selection.Text())), nil
}
