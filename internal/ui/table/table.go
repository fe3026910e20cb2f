// Package table は社員クエリの状態を表形式の出力へ変換します。
// 出力はクエリ結果だけで決まり、副作用を持ちません。
package table

import (
	"bytes"
	_ "embed"
	"html/template"
	"io"

	"github.com/ogurasousui/talent-explorer/internal/core/employee"
	"github.com/ogurasousui/talent-explorer/internal/query"
	"github.com/zeebo/xxh3"
)

const (
	LoadingText = "Loading employees..."
	ErrorText   = "Error loading employees."
)

// Columns は表のヘッダーです。順序は固定です。
var Columns = [5]string{"Name", "Email", "Location", "Position", "Department"}

// Kind は描画すべき状態の種類です。
type Kind string

const (
	KindLoading Kind = "loading"
	KindError   Kind = "error"
	KindTable   Kind = "table"
)

// Result はテーブルが受け取るクエリ結果です。
type Result = query.Result[[]employee.Employee]

// Row は 1 社員分の行です。Key には社員 ID が入ります。
type Row struct {
	Key   string
	Cells [5]string
}

// View は描画直前の表示モデルです。
type View struct {
	Kind    Kind
	Message string
	Header  [5]string
	Rows    []Row
}

//go:embed table.html.tmpl
var tableTemplateText string

var tableTemplate = template.Must(template.New("table").Parse(tableTemplateText))

// Build はクエリ結果から表示モデルを組み立てます。
// loading → error → 成功の順に判定し、成功時は受信順のまま 1 社員 1 行にします。
// ID の重複は検査せず、そのまま行を出力します。
func Build(res Result) View {
	switch {
	case res.IsLoading():
		return View{Kind: KindLoading, Message: LoadingText}
	case res.IsError():
		return View{Kind: KindError, Message: ErrorText}
	}

	rows := make([]Row, 0, len(res.Data))
	for _, emp := range res.Data {
		rows = append(rows, Row{
			Key:   emp.ID,
			Cells: [5]string{emp.FullName, emp.Email, emp.Location, emp.CurrentPosition, emp.Department},
		})
	}
	return View{Kind: KindTable, Header: Columns, Rows: rows}
}

// Render は結果を HTML 断片として w に書き出します。
func Render(w io.Writer, res Result) error {
	return tableTemplate.Execute(w, Build(res))
}

// HTML は Render の結果を template.HTML として返します。
func HTML(res Result) (template.HTML, error) {
	var buf bytes.Buffer
	if err := Render(&buf, res); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// Fingerprint は表示モデルのハッシュです。同じ表示になる結果は同じ値になります。
func Fingerprint(v View) uint64 {
	h := xxh3.New()
	_, _ = h.WriteString(string(v.Kind))
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(v.Message)
	for _, row := range v.Rows {
		_, _ = h.WriteString("\x1e")
		_, _ = h.WriteString(row.Key)
		for _, cell := range row.Cells {
			_, _ = h.WriteString("\x1f")
			_, _ = h.WriteString(cell)
		}
	}
	return h.Sum64()
}
