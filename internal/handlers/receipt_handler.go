package handlers

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/shopspring/decimal"

	"storefront/internal/models"
)

const receiptTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Receipt #{{.Order.ID}}</title>
<style>
@page { size: 80mm auto; margin: 0; }
body { width: 72mm; margin: 0 auto; padding: 4mm 0; font-family: "Courier New", monospace; font-size: 12px; color: #000; }
h1 { font-size: 18px; text-align: center; margin: 0; text-transform: uppercase; }
.center { text-align: center; }
.row { display: flex; justify-content: space-between; }
.rule { border-top: 1px dashed #000; margin: 6px 0; }
.total { font-weight: bold; font-size: 14px; }
img.qr { display: block; margin: 8px auto 0; width: 30mm; height: 30mm; }
</style>
</head>
<body onload="window.print()">
<h1>{{.StoreName}}</h1>
{{with .StoreAddress}}<p class="center">{{.}}</p>{{end}}
<div class="rule"></div>
<div class="row"><span>Order #{{.Order.ID}}</span><span>{{.Kind}}</span></div>
<div class="row"><span>{{.Order.Date}}</span><span>{{.Order.Timestamp}}</span></div>
<div class="rule"></div>
<div>{{.Order.CustomerName}}</div>
<div>{{.Order.ContactNumber}}</div>
{{if .Delivery}}<div>{{.Order.Address}}</div>{{end}}
<div class="rule"></div>
{{range .Order.Items}}<div class="row"><span>{{.Quantity}} x {{.Name}}</span><span>{{money .LineTotal}}</span></div>
{{end}}<div class="rule"></div>
<div class="row"><span>Subtotal</span><span>{{money .Order.Subtotal}}</span></div>
{{if .Delivery}}<div class="row"><span>Delivery</span><span>{{money .Order.DeliveryCharge}}</span></div>{{end}}
{{if .Order.Discount.IsPositive}}<div class="row"><span>Discount{{with .Order.CouponCode}} ({{.}}){{end}}</span><span>-{{money .Order.Discount}}</span></div>{{end}}
<div class="rule"></div>
<div class="row total"><span>TOTAL</span><span>{{money .Order.Total}}</span></div>
<img class="qr" src="{{.QRURL}}" alt="Order {{.Order.ID}}">
<p class="center">Thank you for ordering!</p>
</body>
</html>
`

// ReceiptRenderer prints orders as 80mm thermal receipts.
type ReceiptRenderer struct {
	tmpl         *template.Template
	storeName    string
	storeAddress string
}

func NewReceiptRenderer(storeName, storeAddress string) *ReceiptRenderer {
	tmpl := template.Must(template.New("receipt").Funcs(template.FuncMap{
		"money": func(d decimal.Decimal) string { return "₹" + d.StringFixed(2) },
	}).Parse(receiptTemplate))
	return &ReceiptRenderer{tmpl: tmpl, storeName: storeName, storeAddress: storeAddress}
}

func (r *ReceiptRenderer) Render(order *models.Order, qrURL string) ([]byte, error) {
	kind := "Pickup"
	if order.Type == models.OrderDelivery {
		kind = "Delivery"
	}

	var buf bytes.Buffer
	err := r.tmpl.Execute(&buf, struct {
		StoreName    string
		StoreAddress string
		Order        *models.Order
		Kind         string
		Delivery     bool
		QRURL        string
	}{
		StoreName:    r.storeName,
		StoreAddress: r.storeAddress,
		Order:        order,
		Kind:         kind,
		Delivery:     order.Type == models.OrderDelivery,
		QRURL:        qrURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render receipt: %w", err)
	}
	return buf.Bytes(), nil
}
