package pesapal

import (
	"encoding/xml"
	"html"

	"github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/port/gateway"
)

const (
	orderNamespace = "http://www.pesapal.com"
	xsiNamespace   = "http://www.w3.org/2001/XMLSchema-instance"
	xsdNamespace   = "http://www.w3.org/2001/XMLSchema"
	orderType      = "MERCHANT"
	xmlHeader      = `<?xml version="1.0" encoding="utf-8"?>`
)

// directOrderInfo is the PesapalDirectOrderInfo document posted to the checkout page
type directOrderInfo struct {
	XMLName     xml.Name `xml:"http://www.pesapal.com PesapalDirectOrderInfo"`
	XSI         string   `xml:"xmlns:xsi,attr"`
	XSD         string   `xml:"xmlns:xsd,attr"`
	Amount      string   `xml:"Amount,attr"`
	Currency    string   `xml:"Currency,attr"`
	Description string   `xml:"Description,attr"`
	Type        string   `xml:"Type,attr"`
	Reference   string   `xml:"Reference,attr"`
	FirstName   string   `xml:"FirstName,attr"`
	LastName    string   `xml:"LastName,attr"`
	Email       string   `xml:"Email,attr"`
}

// orderXML renders the order document with its xml declaration
func orderXML(order gateway.Order) (string, error) {
	doc := directOrderInfo{
		XSI:         xsiNamespace,
		XSD:         xsdNamespace,
		Amount:      order.Amount,
		Currency:    order.Currency,
		Description: order.Description,
		Type:        orderType,
		Reference:   order.Reference,
		FirstName:   order.FirstName,
		LastName:    order.LastName,
		Email:       order.Email,
	}

	body, err := xml.Marshal(doc)
	if err != nil {
		return "", err
	}
	return xmlHeader + string(body), nil
}

// requestData returns the entity escaped order document sent as pesapal_request_data
func requestData(order gateway.Order) (string, error) {
	doc, err := orderXML(order)
	if err != nil {
		return "", err
	}
	return html.EscapeString(doc), nil
}
