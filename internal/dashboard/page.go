package dashboard

import (
	"html/template"
	"net/url"
)

type pageHeader struct {
	Label  string
	Href   string
	Active bool
	Desc   bool
}

type pageData struct {
	Error   string
	Headers []pageHeader
	Rows    []Row
	Total   int
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Dividend Stocks</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; }
th, td { padding: 4px 12px; border-bottom: 1px solid #ddd; text-align: left; }
th a { color: inherit; }
td.num { text-align: right; }
</style>
</head>
<body>
<h1>Dividend Stocks</h1>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
<p>Total: {{.Total}}</p>
<table>
<thead><tr>
{{range .Headers}}<th><a href="{{.Href}}">{{.Label}}</a>{{if .Active}}{{if .Desc}} &#9660;{{else}} &#9650;{{end}}{{end}}</th>
{{end}}</tr></thead>
<tbody>
{{range .Rows}}<tr><td>{{.Symbol}}</td><td>{{.Sector}}</td><td class="num">{{.MarketCap}}</td></tr>
{{end}}</tbody>
</table>
</body>
</html>
`))

// headers builds the sort links; clicking the active column flips its direction
func headers(column string, desc bool) []pageHeader {
	columns := []struct{ key, label string }{
		{SortSymbol, "Symbol"},
		{SortSector, "Sector"},
		{SortMarketCap, "Market Cap (B)"},
	}

	out := make([]pageHeader, 0, len(columns))
	for _, c := range columns {
		active := c.key == column
		dir := "asc"
		if active && !desc {
			dir = "desc"
		}
		q := url.Values{"sort": {c.key}, "dir": {dir}}
		out = append(out, pageHeader{
			Label:  c.label,
			Href:   "/?" + q.Encode(),
			Active: active,
			Desc:   active && desc,
		})
	}
	return out
}
