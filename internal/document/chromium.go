package document

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/url"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

const defaultChromiumTimeout = 20 * time.Second

// ChromiumRenderer prints an HTML invoice through headless Chromium.
type ChromiumRenderer struct {
	execPath string
	timeout  time.Duration
	tmpl     *template.Template
}

func NewChromiumRenderer(execPath string, timeout time.Duration) *ChromiumRenderer {
	if timeout <= 0 {
		timeout = defaultChromiumTimeout
	}
	return &ChromiumRenderer{
		execPath: execPath,
		timeout:  timeout,
		tmpl:     template.Must(template.New("invoice").Funcs(templateFuncs).Parse(invoiceHTML)),
	}
}

func (r *ChromiumRenderer) Render(ctx context.Context, inv Invoice) ([]byte, error) {
	html, err := r.HTML(inv)
	if err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
	)
	if r.execPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(r.execPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()

	runCtx, cancelRun := chromedp.NewContext(allocCtx)
	defer cancelRun()
	runCtx, cancelTimeout := context.WithTimeout(runCtx, r.timeout)
	defer cancelTimeout()

	var out []byte
	err = chromedp.Run(runCtx,
		chromedp.Navigate("data:text/html,"+url.PathEscape(html)),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				Do(ctx)
			if err != nil {
				return err
			}
			out = buf
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("chromedp run: %w", err)
	}
	return out, nil
}

// HTML renders the invoice page printed by Render.
func (r *ChromiumRenderer) HTML(inv Invoice) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, inv); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var templateFuncs = template.FuncMap{
	"money": rupees,
	"inc":   func(i int) int { return i + 1 },
}

const invoiceHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Number}}</title>
<style>
body { font-family: Arial, sans-serif; font-size: 12px; margin: 24px; }
h1 { font-size: 20px; margin: 0; }
table { width: 100%; border-collapse: collapse; margin-top: 12px; }
th, td { border: 1px solid #999; padding: 4px 6px; }
th { background: #eee; }
td.num { text-align: right; }
.summary { width: 50%; margin-left: auto; }
.muted { color: #555; font-style: italic; }
</style>
</head>
<body>
<h1>{{.Issuer.Name}}</h1>
<div>{{.Issuer.Address}}</div>
{{if .Issuer.GSTIN}}<div>GSTIN: {{.Issuer.GSTIN}}</div>{{end}}
<h2>TAX INVOICE</h2>
<table>
<tr><th>Invoice No.</th><td>{{.Number}}</td><th>Date</th><td>{{.IssuedOn.Format "02 Jan 2006"}}</td></tr>
<tr><th>Period</th><td>{{.Period}}</td><th>Status</th><td>{{.Status}}</td></tr>
</table>
<p><strong>Bill To:</strong> {{.BillTo.Name}}<br>{{.BillTo.Address}}{{if .BillTo.GSTIN}}<br>GSTIN: {{.BillTo.GSTIN}}{{end}}</p>
{{if .IsMerged}}<p class="muted">Consolidates: {{range $i, $n := .SourceInvoices}}{{if $i}}, {{end}}{{$n}}{{end}}</p>{{end}}
<table>
<tr><th>#</th><th>Name</th><th>Present</th><th>Regular</th><th>OT</th><th>Gross</th><th>Net</th></tr>
{{range $i, $e := .Employees}}<tr>
<td>{{inc $i}}</td><td>{{$e.Name}}{{if $e.SourceCompanyName}} ({{$e.SourceCompanyName}}){{end}}</td>
<td class="num">{{$e.PresentDays}}</td><td class="num">{{$e.RegularDays}}</td><td class="num">{{$e.OvertimeDays}}</td>
<td class="num">{{$e.GrossPay.StringFixed 2}}</td><td class="num">{{$e.Salary.StringFixed 2}}</td>
</tr>{{end}}
</table>
<table class="summary">
<tr><td>Base amount</td><td class="num">{{money .Bill.BaseAmount}}</td></tr>
<tr><td>Overtime amount</td><td class="num">{{money .Bill.OvertimeAmount}}</td></tr>
<tr><td>PF @ 13%</td><td class="num">{{money .Bill.PFAmount}}</td></tr>
<tr><td>ESIC @ 3.25%</td><td class="num">{{money .Bill.ESICAmount}}</td></tr>
<tr><td>Bonus @ {{.BonusRate}}%</td><td class="num">{{money .Bill.BonusAmount}}</td></tr>
<tr><td>Sub total</td><td class="num">{{money .SubTotal}}</td></tr>
<tr><td>Round off</td><td class="num">{{money .RoundOff}}</td></tr>
<tr><td>Service charge @ {{.ServiceChargeRate}}%</td><td class="num">{{money .Bill.ServiceCharge}}</td></tr>
<tr><td>Total before tax</td><td class="num">{{money .TotalBeforeTax}}</td></tr>
{{if .Tax.IGST.IsPositive}}<tr><td>IGST @ 18%</td><td class="num">{{money .Tax.IGST}}</td></tr>
{{else}}<tr><td>CGST @ 9%</td><td class="num">{{money .Tax.CGST}}</td></tr>
<tr><td>SGST @ 9%</td><td class="num">{{money .Tax.SGST}}</td></tr>{{end}}
<tr><th>Grand total</th><th class="num">{{money .Bill.TotalAmount}}</th></tr>
</table>
<p><strong>Amount in words:</strong> {{.AmountInWords}}</p>
{{if not .GSTIncluded}}<p class="muted">GST payable by the principal employer under reverse charge.</p>{{end}}
</body>
</html>
`
