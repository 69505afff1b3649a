// Package render projects invoices and receipts into fixed-layout card
// images for download and LINE delivery.
package render

import (
	"bytes"
	"html/template"

	"propertyflow-backend/internal/model"

	"github.com/shopspring/decimal"
)

// Row is one label/value line on a card.
type Row struct {
	Label string
	Value string
}

// Card is the render-ready projection of an invoice or receipt.
type Card struct {
	Lang        string
	CompanyName string
	ProjectName string
	Title       string
	DocumentNo  string
	TenantName  string
	Rows        []Row
	Items       []Row
	TotalLabel  string
	TotalValue  string
}

var cardTmpl = template.Must(template.New("card").Parse(`<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
<meta charset="utf-8">
<style>
  body { margin: 0; font-family: 'Sarabun', 'Helvetica Neue', sans-serif; background: #f3f4f6; }
  .card { width: 420px; margin: 16px auto; background: #fff; border-radius: 12px; overflow: hidden; box-shadow: 0 1px 4px rgba(0,0,0,.12); }
  .banner { background: #1d4ed8; color: #fff; padding: 18px 24px; }
  .banner .company { font-size: 13px; opacity: .85; }
  .banner .title { font-size: 22px; font-weight: 700; margin-top: 4px; }
  .body { padding: 20px 24px; }
  .tenant { font-size: 17px; font-weight: 600; margin-bottom: 12px; }
  .row { display: flex; justify-content: space-between; font-size: 14px; padding: 3px 0; color: #374151; }
  .items { border-top: 1px solid #e5e7eb; margin-top: 10px; padding-top: 10px; }
  .total { background: #eff6ff; border-radius: 8px; margin-top: 16px; padding: 14px 16px; display: flex; justify-content: space-between; }
  .total .label { font-size: 14px; color: #1e40af; }
  .total .value { font-size: 20px; font-weight: 700; color: #1e40af; }
</style>
</head>
<body>
<div class="card">
  <div class="banner">
    <div class="company">{{.CompanyName}}{{if .ProjectName}} &middot; {{.ProjectName}}{{end}}</div>
    <div class="title">{{.Title}}</div>
  </div>
  <div class="body">
    <div class="tenant">{{.TenantName}}</div>
    {{range .Rows}}<div class="row"><span>{{.Label}}</span><span>{{.Value}}</span></div>{{end}}
    {{if .Items}}<div class="items">
    {{range .Items}}<div class="row"><span>{{.Label}}</span><span>{{.Value}}</span></div>{{end}}
    </div>{{end}}
    <div class="total"><span class="label">{{.TotalLabel}}</span><span class="value">{{.TotalValue}}</span></div>
  </div>
</div>
</body>
</html>`))

// HTML renders the card template.
func (c Card) HTML() (string, error) {
	var buf bytes.Buffer
	if err := cardTmpl.Execute(&buf, c); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// label picks the Thai text when the card language is Thai.
func label(lang, en, th string) string {
	if lang == "th" {
		return th
	}
	return en
}

// InvoiceCard builds the card projection for an invoice. The Thai tenant
// name snapshot is preferred when lang is "th" and the field is set.
func InvoiceCard(inv *model.Invoice, project *model.Project, lang string) Card {
	tenantName := inv.TenantName
	if lang == "th" && inv.TenantNameTh != "" {
		tenantName = inv.TenantNameTh
	}
	companyName := project.CompanyName
	projectName := project.Name
	if lang == "th" {
		if project.CompanyNameTh != "" {
			companyName = project.CompanyNameTh
		}
		if project.NameTh != "" {
			projectName = project.NameTh
		}
	}

	card := Card{
		Lang:        lang,
		CompanyName: companyName,
		ProjectName: projectName,
		Title:       label(lang, "INVOICE", "ใบแจ้งหนี้"),
		DocumentNo:  inv.InvoiceNo,
		TenantName:  tenantName,
		Rows: []Row{
			{Label: label(lang, "Invoice No.", "เลขที่"), Value: inv.InvoiceNo},
			{Label: label(lang, "Billing Month", "รอบบิล"), Value: inv.BillingMonth},
			{Label: label(lang, "Due Date", "ครบกำหนด"), Value: inv.DueDate.Format("2006-01-02")},
		},
		TotalLabel: label(lang, "Total Amount", "ยอดรวม"),
		TotalValue: money(inv.TotalAmount),
	}

	for _, item := range inv.Items {
		card.Items = append(card.Items, Row{Label: item.Description, Value: money(item.Amount)})
	}
	if inv.WithholdingTax.IsPositive() {
		card.Items = append(card.Items,
			Row{Label: label(lang, "Subtotal", "รวมก่อนหัก"), Value: money(inv.Subtotal)},
			Row{Label: label(lang, "Withholding Tax", "หัก ณ ที่จ่าย"), Value: "-" + money(inv.WithholdingTax)},
		)
	}
	return card
}

// ReceiptCard builds the card projection for a receipt.
func ReceiptCard(rcpt *model.Receipt, project *model.Project, lang string) Card {
	tenantName := rcpt.TenantName
	if lang == "th" && rcpt.TenantNameTh != "" {
		tenantName = rcpt.TenantNameTh
	}
	companyName := project.CompanyName
	if lang == "th" && project.CompanyNameTh != "" {
		companyName = project.CompanyNameTh
	}

	return Card{
		Lang:        lang,
		CompanyName: companyName,
		ProjectName: project.Name,
		Title:       label(lang, "RECEIPT", "ใบเสร็จรับเงิน"),
		DocumentNo:  rcpt.ReceiptNo,
		TenantName:  tenantName,
		Rows: []Row{
			{Label: label(lang, "Receipt No.", "เลขที่"), Value: rcpt.ReceiptNo},
			{Label: label(lang, "Invoice No.", "อ้างอิงใบแจ้งหนี้"), Value: rcpt.InvoiceNo},
			{Label: label(lang, "Issued", "ออกเมื่อ"), Value: rcpt.IssuedAt.Format("2006-01-02")},
		},
		TotalLabel: label(lang, "Amount Received", "จำนวนเงินที่รับ"),
		TotalValue: money(rcpt.Amount),
	}
}
