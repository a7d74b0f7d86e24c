package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSearchMode(t *testing.T) {
	tests := []struct {
		in   string
		want SearchMode
	}{
		{"LEAD", ModeLead},
		{"opportunity", ModeOpportunity},
		{" Opportunity ", ModeOpportunity},
		{"", ModeLead},
		{"anything else", ModeLead},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseSearchMode(tt.in))
		})
	}
}

func TestParseLeadStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    LeadStatus
		wantErr bool
	}{
		{"New", StatusNew, false},
		{"contacted", StatusContacted, false},
		{"IN DISCUSSION", StatusInDiscussion, false},
		{" won ", StatusWon, false},
		{"Lost", StatusLost, false},
		{"pending", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLeadStatus(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSavedLead_FlattensLeadFields(t *testing.T) {
	saved := SavedLead{
		Lead:   Lead{ID: "reddit_1", ProspectName: "jane", Status: StatusNew},
		UserID: "u1",
	}

	data, err := json.Marshal(saved)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Equal(t, "reddit_1", fields["id"])
	assert.Equal(t, "jane", fields["prospectName"])
	assert.Equal(t, "u1", fields["userId"])
	assert.NotContains(t, fields, "Lead")
}
