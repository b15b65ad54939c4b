package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title      string
	Heading    string
	Subheading string
	CTALabel   string
	CTAURL     string
}

type customerWelcomeEmailData struct {
	baseEmailData
	CustomerName    string
	EngagementTitle string
	LoginEmail      string
}

type conversionAttentionEmailData struct {
	baseEmailData
	LeadID          string
	CustomerID      string
	CredentialEmail string
	Reason          string
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}

// message is a rendered email ready for any transport.
type message struct {
	subject string
	html    string
}

func customerWelcomeMessage(w CustomerWelcome) (message, error) {
	content, err := renderEmailTemplate("customer_welcome.html", customerWelcomeEmailData{
		baseEmailData: baseEmailData{
			Title:    "Your portal is ready",
			Heading:  "Your portal is ready",
			CTALabel: "Open the portal",
			CTAURL:   portalLoginURL(w.PortalBaseURL),
		},
		CustomerName:    w.CustomerName,
		EngagementTitle: w.EngagementTitle,
		LoginEmail:      w.LoginEmail,
	})
	if err != nil {
		return message{}, err
	}
	return message{subject: fmt.Sprintf(subjectCustomerWelcomeFmt, w.EngagementTitle), html: content}, nil
}

func conversionAttentionMessage(a ConversionAttention) (message, error) {
	content, err := renderEmailTemplate("conversion_attention.html", conversionAttentionEmailData{
		baseEmailData: baseEmailData{
			Title:   "Conversion needs attention",
			Heading: "Conversion needs attention",
		},
		LeadID:          a.LeadID,
		CustomerID:      a.CustomerID,
		CredentialEmail: a.CredentialEmail,
		Reason:          a.Reason,
	})
	if err != nil {
		return message{}, err
	}
	return message{subject: fmt.Sprintf(subjectConversionAttentionFmt, a.LeadID), html: content}, nil
}

func portalLoginURL(base string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		return ""
	}
	return base + "/portal/login"
}
