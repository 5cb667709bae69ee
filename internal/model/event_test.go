package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapToBaseEventType(t *testing.T) {
	testCases := []struct {
		name         string
		input        string
		expectedType EventType
		expectedOK   bool
	}{
		{
			name:         "direct match batch triage",
			input:        "v1.batches.triage",
			expectedType: V1BatchesTriage,
			expectedOK:   true,
		},
		{
			name:         "direct match submission create",
			input:        "v1.submissions.create",
			expectedType: V1SubmissionsCreate,
			expectedOK:   true,
		},
		{
			name:         "batch triage with org suffix",
			input:        "v1.batches.triage.org_abc123",
			expectedType: V1BatchesTriage,
			expectedOK:   true,
		},
		{
			name:         "submission create with org suffix",
			input:        "v1.submissions.create.org_abc123",
			expectedType: V1SubmissionsCreate,
			expectedOK:   true,
		},
		{
			name:       "unknown subject",
			input:      "v1.contacts.upsert.org_abc123",
			expectedOK: false,
		},
		{
			name:       "no dots",
			input:      "garbage",
			expectedOK: false,
		},
		{
			name:       "empty string",
			input:      "",
			expectedOK: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			eventType, ok := MapToBaseEventType(tc.input)
			assert.Equal(t, tc.expectedOK, ok)
			assert.Equal(t, tc.expectedType, eventType)
		})
	}
}

func TestEventTypeVersioning(t *testing.T) {
	assert.Equal(t, "v1", V1BatchesTriage.GetVersion())
	assert.Equal(t, EventType("batches.triage"), V1BatchesTriage.GetBaseType())
	assert.Equal(t, EventType("v2.batches.triage"), V1BatchesTriage.WithVersion("v2"))

	unversioned := EventType("submissions.create")
	assert.Equal(t, "", unversioned.GetVersion())
	assert.Equal(t, unversioned, unversioned.GetBaseType())
}
