package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// Template names used as the metric label on dispatch counters.
const (
	TemplateApproved   = "listing_approved"
	TemplateSubmitted  = "listing_submitted"
	TemplateAdminAlert = "admin_new_submission"
)

var approvedTmpl = template.Must(template.New(TemplateApproved).Parse(`
<p>Olá!</p>
<p>Boa notícia: o cadastro de <strong>{{.ListingName}}</strong> foi aprovado e já está visível em {{.SiteName}}.</p>
<p><a href="{{.ListingURL}}">Veja sua página aqui</a>.</p>
<p>— Equipe {{.SiteName}}</p>
`))

var submittedTmpl = template.Must(template.New(TemplateSubmitted).Parse(`
<p>Olá!</p>
<p>Recebemos o cadastro de <strong>{{.ListingName}}</strong> em {{.SiteName}}.</p>
<p>Nossa equipe vai revisar as informações e você receberá um aviso assim que o cadastro for aprovado.</p>
<p>— Equipe {{.SiteName}}</p>
`))

var adminAlertTmpl = template.Must(template.New(TemplateAdminAlert).Parse(`
<p>Olá!</p>
<p>O cadastro de <strong>{{.ListingName}}</strong> acabou de chegar e aguarda revisão.</p>
<p><a href="{{.ListingURL}}">Abra a fila de pendentes</a> para aprovar ou recusar.</p>
<p>— {{.SiteName}}</p>
`))

type templateData struct {
	SiteName    string
	ListingName string
	ListingURL  string
}

// RenderApproved builds the subject and HTML body of the approval email.
func RenderApproved(siteName, siteURL, listingName string, listingID uint) (subject, body string, err error) {
	data := templateData{
		SiteName:    siteName,
		ListingName: listingName,
		ListingURL:  fmt.Sprintf("%s/listings/%d", siteURL, listingID),
	}
	var buf bytes.Buffer
	if err := approvedTmpl.Execute(&buf, data); err != nil {
		return "", "", err
	}
	return fmt.Sprintf("%s: seu cadastro foi aprovado", siteName), buf.String(), nil
}

// RenderSubmitted builds the subject and HTML body of the submission receipt.
func RenderSubmitted(siteName, listingName string) (subject, body string, err error) {
	data := templateData{SiteName: siteName, ListingName: listingName}
	var buf bytes.Buffer
	if err := submittedTmpl.Execute(&buf, data); err != nil {
		return "", "", err
	}
	return fmt.Sprintf("%s: recebemos seu cadastro", siteName), buf.String(), nil
}

// RenderAdminAlert builds the subject and HTML body of the new-submission
// alert sent to administrators.
func RenderAdminAlert(siteName, siteURL, listingName string) (subject, body string, err error) {
	data := templateData{
		SiteName:    siteName,
		ListingName: listingName,
		ListingURL:  fmt.Sprintf("%s/admin/pending", siteURL),
	}
	var buf bytes.Buffer
	if err := adminAlertTmpl.Execute(&buf, data); err != nil {
		return "", "", err
	}
	return fmt.Sprintf("%s: novo cadastro aguardando revisão", siteName), buf.String(), nil
}
