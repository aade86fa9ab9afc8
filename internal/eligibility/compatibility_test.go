package eligibility

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var allGroups = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

func TestUniversalDonorAndRecipient(t *testing.T) {
	for _, g := range allGroups {
		assert.True(t, CanDonateTo("O-", g), "O- should donate to %s", g)
		assert.True(t, CanDonateTo(g, "AB+"), "%s should donate to AB+", g)
	}
}

func TestCompatibilityTable(t *testing.T) {
	expected := map[string][]string{
		"A+":  {"A+", "AB+"},
		"O+":  {"O+", "A+", "B+", "AB+"},
		"B+":  {"B+", "AB+"},
		"AB+": {"AB+"},
		"A-":  {"A+", "A-", "AB+", "AB-"},
		"O-":  {"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"},
		"B-":  {"B+", "B-", "AB+", "AB-"},
		"AB-": {"AB+", "AB-"},
	}

	for donor, recipients := range expected {
		assert.ElementsMatch(t, recipients, CompatibleRecipients(donor), "donor %s", donor)
		allowed := map[string]bool{}
		for _, r := range recipients {
			allowed[r] = true
		}
		for _, recipient := range allGroups {
			assert.Equal(t, allowed[recipient], CanDonateTo(donor, recipient),
				"%s -> %s", donor, recipient)
		}
	}
}

func TestUnknownGroupsNeverMatch(t *testing.T) {
	assert.False(t, CanDonateTo("C+", "A+"))
	assert.False(t, CanDonateTo("A+", ""))
}
