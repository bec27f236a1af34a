// internal/service/template_service.go
package service

import (
	"strings"

	"github.com/kenxsak/omniflow-buisness-sub000/internal/model"
)

func RenderTemplate(template string, data map[string]string) string {
	result := template
	for k, v := range data {
		if v == "" {
			v = "<unknown>"
		}
		result = strings.ReplaceAll(result, "{"+k+"}", v)
	}
	return result
}

// RenderForRecipient substitutes the recipient's standard fields and
// custom fields into the template.
func RenderForRecipient(template string, rec model.Recipient) string {
	data := map[string]string{
		"name":  rec.Name,
		"email": rec.Email,
		"phone": rec.Phone,
	}
	for k, v := range rec.CustomFields {
		data[k] = v
	}
	return RenderTemplate(template, data)
}
