package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/contact-extractor/internal/types"
)

func TestCategorize(t *testing.T) {
	c := DefaultClassifier()
	const name = "Jane Doe"

	tests := []struct {
		text string
		want Field
	}{
		{"Jane Doe", FieldName},
		{"jane doe", FieldName},
		{"Jane D.", FieldName},
		{"J. Doe", FieldName},
		{"Senior Engineer at Budapest Labs", FieldJobTitle},
		{"Recruiter @ Initech", FieldJobTitle},
		{"Talent Acquisition", FieldJobTitle},
		{"Ford Motor Company", FieldJobTitle},
		{"Budapest Metropolitan Area", FieldLocation},
		{"Springfield, Illinois", FieldLocation},
		{"Former: Intern, Globex", FieldPastExperience},
		{"12 other mutual connections", FieldMutualConnections},
		{"Alex and 3 other connections", FieldMutualConnections},
		{"Message", FieldNoise},
		{"View profile", FieldNoise},
		{"2nd", FieldNoise},
		{"•", FieldNoise},
		{"X", FieldNoise},
		{"Open to work", FieldOther},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			var rec types.ContactRecord
			assert.Equal(t, tt.want, c.Categorize(tt.text, name, &rec))
		})
	}
}

func TestCategorize_JobTitleBeatsLocation(t *testing.T) {
	c := DefaultClassifier()
	var rec types.ContactRecord

	assert.Equal(t, FieldJobTitle, c.Categorize("Senior Engineer at Budapest Labs", "Jane Doe", &rec))
}

func TestCategorize_FilledSlotFallsThrough(t *testing.T) {
	c := DefaultClassifier()
	rec := types.ContactRecord{JobTitle: "Data Analyst"}

	assert.Equal(t, FieldOther, c.Categorize("Engineer at Acme", "Jane Doe", &rec))

	rec.Location = "Prague, Czechia"
	assert.Equal(t, FieldOther, c.Categorize("Vienna, Austria", "Jane Doe", &rec))
}

func TestCategorize_CurrentFordIsNotJobTitle(t *testing.T) {
	c := DefaultClassifier()
	var rec types.ContactRecord

	assert.Equal(t, FieldPastExperience, c.Categorize("Current: Ford", "Jane Doe", &rec))
}

func TestClassify(t *testing.T) {
	c := DefaultClassifier()
	rec := types.ContactRecord{Name: "Jane Doe", IdentityURL: "https://www.linkedin.com/in/jane-doe"}

	dropped := c.Classify([]string{
		"Jane Doe",
		"2nd",
		"Connect",
		"Senior Engineer at Budapest Labs",
		"Budapest, Hungary",
		"Current: Engineer at Acme",
		"John Roe and 5 other mutual connections",
		"Open to work",
	}, rec.Name, &rec)

	assert.Equal(t, 0, dropped)
	assert.Equal(t, "Senior Engineer at Budapest Labs", rec.JobTitle)
	assert.Equal(t, "Budapest, Hungary", rec.Location)
	assert.Equal(t, "Current: Engineer at Acme", rec.PastExperience)
	assert.Equal(t, "John Roe and 5 other mutual connections", rec.MutualConnections)
	assert.Equal(t, [types.AdditionalInfoSlots]string{"Open to work", ""}, rec.AdditionalInfo)
}

func TestClassify_OverflowKeepsFirstTwo(t *testing.T) {
	c := DefaultClassifier()
	var rec types.ContactRecord

	dropped := c.Classify([]string{
		"Open to work",
		"Hiring",
		"Provides services",
		"Top voice",
		"Volunteer",
	}, "Jane Doe", &rec)

	assert.Equal(t, 3, dropped)
	assert.Equal(t, [types.AdditionalInfoSlots]string{"Open to work", "Hiring"}, rec.AdditionalInfo)
}

func TestRules_Order(t *testing.T) {
	var fields []Field
	for _, r := range DefaultClassifier().Rules() {
		fields = append(fields, r.Field)
	}

	assert.Equal(t, []Field{
		FieldName,
		FieldJobTitle,
		FieldLocation,
		FieldPastExperience,
		FieldMutualConnections,
		FieldNoise,
	}, fields)
}

func TestField_String(t *testing.T) {
	assert.Equal(t, "job_title", FieldJobTitle.String())
	assert.Equal(t, "unknown", Field(99).String())
}
