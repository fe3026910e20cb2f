// Package page は見出しと社員テーブルを 1 枚の HTML ページにまとめます。
package page

import (
	_ "embed"
	"html/template"
	"io"

	"github.com/ogurasousui/talent-explorer/internal/ui/table"
)

// Heading はページ見出しです。
const Heading = "Talent Explorer"

//go:embed page.html.tmpl
var pageTemplateText string

var pageTemplate = template.Must(template.New("page").Parse(pageTemplateText))

type pageData struct {
	Heading string
	Table   template.HTML
}

// Render は見出しとテーブルを含むページ全体を書き出します。
func Render(w io.Writer, res table.Result) error {
	body, err := table.HTML(res)
	if err != nil {
		return err
	}
	return pageTemplate.Execute(w, pageData{Heading: Heading, Table: body})
}
