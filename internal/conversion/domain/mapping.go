package domain

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// EngagementDefaults pre-fills the engagement form.
type EngagementDefaults struct {
	Title       string
	Description string
}

var serviceCategoryLabels = map[string]string{
	"web_design":      "Web Design",
	"web_development": "Web Development",
	"branding":        "Branding",
	"marketing":       "Marketing",
	"seo":             "SEO",
	"consulting":      "Consulting",
	"maintenance":     "Maintenance",
	"mobile_app":      "Mobile App",
	"ecommerce":       "E-commerce",
}

var titleCaser = cases.Title(language.English)

// ServiceCategoryLabel returns the display label for a category key.
// Unknown keys are humanised rather than rejected.
func ServiceCategoryLabel(category string) string {
	key := strings.ToLower(strings.TrimSpace(category))
	if key == "" {
		return ""
	}
	if label, ok := serviceCategoryLabels[key]; ok {
		return label
	}
	words := strings.FieldsFunc(key, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
	return titleCaser.String(strings.Join(words, " "))
}

// DefaultEngagementFields derives the engagement form defaults from a lead.
// It never fails; missing lead fields just shorten the title.
func DefaultEngagementFields(lead Lead) EngagementDefaults {
	subject := ""
	if lead.Company != nil {
		subject = strings.TrimSpace(*lead.Company)
	}
	if subject == "" {
		subject = lead.FullName()
	}

	label := ServiceCategoryLabel(lead.ServiceCategory)

	var title string
	switch {
	case label != "" && subject != "":
		title = label + " – " + subject
	case label != "":
		title = label
	default:
		title = subject
	}

	description := ""
	if lead.Description != nil {
		description = *lead.Description
	}

	return EngagementDefaults{Title: title, Description: description}
}

// CustomerFromLead copies the identity fields verbatim.
// Blank optional fields become nil so they are stored as NULL.
func CustomerFromLead(lead Lead) NewCustomer {
	return NewCustomer{
		Name:    lead.FullName(),
		Email:   lead.Email,
		Phone:   nilIfBlank(lead.Phone),
		Company: nilIfBlank(lead.Company),
		City:    nilIfBlank(lead.City),
	}
}

func nilIfBlank(value *string) *string {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil
	}
	v := *value
	return &v
}
