package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeLeadPayload(t *testing.T) {
	t.Run("aliases are case and separator insensitive", func(t *testing.T) {
		f := NormalizeLeadPayload(map[string]any{
			"Full Name":    "Maria Silva",
			"PHONE-NUMBER": "+20 100 000",
			"Position":     "CTO",
			"notes":        "asked for demo",
			"Campaign":     "facebook",
			"msg":          "call me",
		})

		assert.Equal(t, "Maria Silva", f.Name)
		assert.Equal(t, "+20 100 000", f.Phone)
		assert.Equal(t, "CTO", f.JobTitle)
		assert.Equal(t, "asked for demo", f.Description)
		assert.Equal(t, "facebook", f.AdSource)
		assert.Equal(t, "call me", f.Message)
	})

	t.Run("first alias with a value wins", func(t *testing.T) {
		f := NormalizeLeadPayload(map[string]any{
			"name":      "",
			"full_name": "Ahmed",
		})
		assert.Equal(t, "Ahmed", f.Name)
	})

	t.Run("numbers are kept as text", func(t *testing.T) {
		f := NormalizeLeadPayload(map[string]any{"mobile": float64(201001234567)})
		assert.Equal(t, "201001234567", f.Phone)

		f = NormalizeLeadPayload(map[string]any{"phone": json.Number("201001234567890123")})
		assert.Equal(t, "201001234567890123", f.Phone)
	})

	t.Run("missing fields stay empty", func(t *testing.T) {
		f := NormalizeLeadPayload(map[string]any{"api_key": "x"})
		assert.Equal(t, LeadFields{}, f)
		assert.Equal(t, NotAvailable, Display(f.Phone))
	})
}

func TestLeadAssignTo(t *testing.T) {
	l := NewLead("co", nil, LeadFields{Name: "x"})
	assert.Equal(t, LeadStatusReceived, l.Status)

	l.AssignTo(Agent{ID: "a1", Name: "Ana", ChatID: "42"}, 3)

	assert.Equal(t, LeadStatusAssigned, l.Status)
	assert.Equal(t, "Ana", l.AgentName)
	if assert.NotNil(t, l.RotationPosition) {
		assert.Equal(t, 3, *l.RotationPosition)
	}
}
