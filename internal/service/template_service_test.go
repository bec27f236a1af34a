package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kenxsak/omniflow-buisness-sub000/internal/model"
	"github.com/kenxsak/omniflow-buisness-sub000/internal/service"
)

func TestRenderTemplate(t *testing.T) {
	out := service.RenderTemplate("Hi {name}, order {order_id} shipped", map[string]string{
		"name":     "Asha",
		"order_id": "A-42",
	})
	assert.Equal(t, "Hi Asha, order A-42 shipped", out)
}

func TestRenderTemplateEmptyValueBecomesUnknown(t *testing.T) {
	out := service.RenderTemplate("Hi {name}", map[string]string{"name": ""})
	assert.Equal(t, "Hi <unknown>", out)
}

func TestRenderTemplateLeavesUnmatchedPlaceholders(t *testing.T) {
	out := service.RenderTemplate("Hi {name} {nope}", map[string]string{"name": "Asha"})
	assert.Equal(t, "Hi Asha {nope}", out)
}

func TestRenderForRecipientUsesStandardAndCustomFields(t *testing.T) {
	rec := model.Recipient{
		Phone: "+15550001",
		Email: "asha@example.com",
		Name:  "Asha",
		CustomFields: map[string]string{
			"company": "Acme",
		},
	}
	out := service.RenderForRecipient("{name} <{email}> at {company}, call {phone}", rec)
	assert.Equal(t, "Asha <asha@example.com> at Acme, call +15550001", out)
}
