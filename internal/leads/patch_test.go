package leads

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatchApply_LeavesUnsetFieldsAlone(t *testing.T) {
	lead := &Lead{
		Name:             "Sarah",
		Phone:            "+17138642200",
		JobDetails:       "Full detail",
		Location:         "77008",
		EstimatedRevenue: 150,
		Status:           StatusQualified,
	}
	Patch{ChosenSlot: String("Friday at 2pm"), Status: StatusPtr(StatusBooked)}.Apply(lead)

	assert.Equal(t, "Sarah", lead.Name)
	assert.Equal(t, "Full detail", lead.JobDetails)
	assert.Equal(t, "77008", lead.Location)
	assert.Equal(t, 150.0, lead.EstimatedRevenue)
	assert.Equal(t, "Friday at 2pm", lead.ChosenSlot)
	assert.Equal(t, StatusBooked, lead.Status)
}

func TestPatchApply_ExplicitEmptyOverwrites(t *testing.T) {
	lead := &Lead{Location: "77008"}
	Patch{Location: String("")}.Apply(lead)
	assert.Equal(t, "", lead.Location)
}

func TestPatchUnmarshal_Lenient(t *testing.T) {
	var p Patch
	err := json.Unmarshal([]byte(`{
		"name": "Mike",
		"estimatedRevenue": "$1,165",
		"status": "booked",
		"channel": "SMS",
		"location": 77008,
		"chosenSlot": null,
		"serviceRequested": {"nested": true}
	}`), &p)
	require.NoError(t, err)

	require.NotNil(t, p.Name)
	assert.Equal(t, "Mike", *p.Name)
	require.NotNil(t, p.EstimatedRevenue)
	assert.Equal(t, 1165.0, *p.EstimatedRevenue)
	require.NotNil(t, p.Status)
	assert.Equal(t, StatusBooked, *p.Status)
	require.NotNil(t, p.Channel)
	assert.Equal(t, ChannelSMS, *p.Channel)
	require.NotNil(t, p.Location)
	assert.Equal(t, "77008", *p.Location)
	assert.Nil(t, p.ChosenSlot)
	assert.Nil(t, p.ServiceRequested)
}

func TestPatchUnmarshal_DropsUnknownStatus(t *testing.T) {
	var p Patch
	require.NoError(t, json.Unmarshal([]byte(`{"status":"MAYBE","name":"x"}`), &p))
	assert.Nil(t, p.Status)
	assert.False(t, p.IsEmpty())
}

func TestPatchMergeAndIsEmpty(t *testing.T) {
	assert.True(t, Patch{}.IsEmpty())

	base := Patch{Name: String("a"), Status: StatusPtr(StatusQualified)}
	merged := base.Merge(Patch{Status: StatusPtr(StatusBooked), ChosenSlot: String("Today at 3pm")})

	assert.Equal(t, "a", *merged.Name)
	assert.Equal(t, StatusBooked, *merged.Status)
	assert.Equal(t, "Today at 3pm", *merged.ChosenSlot)
	assert.Equal(t, StatusQualified, *base.Status)
}
