package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title      string
	Heading    string
	Subheading string
}

type leadNoticeEmailData struct {
	baseEmailData
	Notice                 LeadNotice
	ContactPreferenceLabel string
}

var contactPreferenceLabels = map[string]string{
	"phone": "Phone Call",
	"email": "Email",
	"wait":  "Customer will contact us",
}

func contactPreferenceLabel(pref string) string {
	if label, ok := contactPreferenceLabels[pref]; ok {
		return label
	}
	if pref == "" {
		return contactPreferenceLabels["phone"]
	}
	return pref
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

// RenderLeadNotice renders the subject and HTML body of a lead notice.
func RenderLeadNotice(notice LeadNotice) (subject, body string, err error) {
	service := notice.Service
	if service == "" {
		service = "N/A"
	}
	if notice.PriceEstimate == "" {
		notice.PriceEstimate = "Not estimated"
	}
	if notice.Problem == "" {
		notice.Problem = "No description provided"
	}
	notice.Service = service

	subjectFmt := subjectLeadNoticeFmt
	if notice.Emergency() {
		subjectFmt = subjectLeadNoticeEmergencyFmt
	}
	subject = fmt.Sprintf(subjectFmt, notice.Name, service)

	body, err = renderEmailTemplate("lead_notice.html", leadNoticeEmailData{
		baseEmailData: baseEmailData{
			Title:   "New HVAC Lead",
			Heading: "🔧 New HVAC Lead Received",
		},
		Notice:                 notice,
		ContactPreferenceLabel: contactPreferenceLabel(notice.ContactPreference),
	})
	if err != nil {
		return "", "", err
	}
	return subject, body, nil
}
