package server

import (
	"html/template"

	"github.com/thesyncim/dimdim/pkg/converter"
)

// pageData feeds pageTemplate.
type pageData struct {
	Currencies []converter.Currency
	From       string
	To         string
	Amount     string
	Result     string
	Error      string
}

// pageTemplate is the converter UI. The class, name and id hooks are what
// the functional tests select on; keep them stable.
var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>dimdim converter</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            max-width: 640px;
            margin: 50px auto;
            padding: 20px;
            background: #f5f5f5;
        }
        .container {
            background: white;
            padding: 30px;
            border-radius: 8px;
            box-shadow: 0 2px 4px rgba(0,0,0,0.1);
        }
        h1 { color: #333; margin-bottom: 10px; }
        .subtitle { color: #666; margin-bottom: 30px; }
        select, input { font-size: 16px; padding: 6px; margin-right: 8px; }
        button {
            background: #4285f4;
            color: white;
            border: none;
            padding: 10px 20px;
            border-radius: 4px;
            cursor: pointer;
            font-size: 16px;
        }
        .result { margin-top: 24px; font-size: 24px; color: #333; }
        .error { margin-top: 16px; color: #c62828; }
    </style>
</head>
<body>
    <div class="container">
        <h1>dimdim converter</h1>
        <p class="subtitle">Convert an amount between currencies.</p>

        <form id="convert_form" method="get" action="/">
            <input type="text" name="from_amount" value="{{.Amount}}" size="8">
            <select name="from_currency" class="from_currency">
            {{- range .Currencies}}
                <option value="{{.Code}}"{{if eq .Code $.From}} selected{{end}}>{{.Name}}</option>
            {{- end}}
            </select>
            to
            <select name="to_currency" class="to_currency">
            {{- range .Currencies}}
                <option value="{{.Code}}"{{if eq .Code $.To}} selected{{end}}>{{.Name}}</option>
            {{- end}}
            </select>
            <button type="submit">Convert</button>
        </form>

        <div class="result">
            = <output class="to_amount" for="convert_form">{{.Result}}</output> {{.To}}
        </div>
        {{- if .Error}}
        <p class="error">{{.Error}}</p>
        {{- end}}
    </div>
</body>
</html>
`))
