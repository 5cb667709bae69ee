package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/datatypes"

	"gitlab.com/beaubassin/api/canvass-triage-processor/pkg/utils"
)

// init ensures gofakeit is seeded.
func init() {
	gofakeit.Seed(time.Now().UnixNano())
}

// RandomJSONB generates random JSON data for testing.
func RandomJSONB() datatypes.JSON {
	jsonData := map[string]interface{}{
		"stub_key": gofakeit.Word(),
		"stub_num": gofakeit.Number(1, 100),
	}
	bytes, _ := json.Marshal(jsonData)
	return datatypes.JSON(bytes)
}

// frenchSurnames feeds the classification-positive side of fixtures.
var frenchSurnames = []string{
	"Lebrun", "Lavoie", "Dubois", "Deschamps", "Boudreau", "Lemieux",
	"Gagnier", "Charpentier",
}

// NewContact creates a Contact with default fake data.
func NewContact(overrideDefaults ...*Contact) *Contact {
	base := &Contact{
		ID:        gofakeit.UUID(),
		FirstName: gofakeit.FirstName(),
		LastName:  gofakeit.LastName(),
		Address:   gofakeit.Street(),
		City:      gofakeit.City(),
		Zipcode:   gofakeit.Zip(),
		Phone:     gofakeit.Phone(),
		Status:    StatusNotChecked,
	}
	base.RecomputeFullName()

	if len(overrideDefaults) > 0 && overrideDefaults[0] != nil {
		ovr := overrideDefaults[0]
		if ovr.ID != "" {
			base.ID = ovr.ID
		}
		if ovr.FirstName != "" {
			base.FirstName = ovr.FirstName
		}
		if ovr.LastName != "" {
			base.LastName = ovr.LastName
		}
		if ovr.Address != "" {
			base.Address = ovr.Address
		}
		if ovr.City != "" {
			base.City = ovr.City
		}
		if ovr.Zipcode != "" {
			base.Zipcode = ovr.Zipcode
		}
		if ovr.Phone != "" {
			base.Phone = ovr.Phone
		}
		if ovr.Status != "" {
			base.Status = ovr.Status
		}
		if ovr.Notes != "" {
			base.Notes = ovr.Notes
		}
		base.NeedAddressUpdate = ovr.NeedAddressUpdate
		base.NeedPhoneUpdate = ovr.NeedPhoneUpdate
		base.TerritoryStatus = ovr.TerritoryStatus
		base.FrenchNameMatched = ovr.FrenchNameMatched
		base.RecomputeFullName()
	}
	return base
}

// NewFrenchContact creates a Contact whose surname is French-looking.
func NewFrenchContact() *Contact {
	c := NewContact()
	c.LastName = gofakeit.RandomString(frenchSurnames)
	c.RecomputeFullName()
	return c
}

// NewContactList creates n contacts.
func NewContactList(n int) []Contact {
	contacts := make([]Contact, 0, n)
	for i := 0; i < n; i++ {
		contacts = append(contacts, *NewContact())
	}
	return contacts
}

// NewTriageBatch creates a TriageBatch with default fake data and an
// embedded contact snapshot.
func NewTriageBatch(overrideDefaults ...*TriageBatch) *TriageBatch {
	base := &TriageBatch{
		BatchID:            gofakeit.UUID(),
		OrgID:              "org_" + gofakeit.LetterN(10),
		UserID:             gofakeit.Username(),
		TerritoryZipcode:   gofakeit.Zip(),
		TerritoryPageRange: fmt.Sprintf("%d-%d", gofakeit.Number(1, 10), gofakeit.Number(11, 30)),
		DetectionStatus:    DetectionPending,
		CreatedAt:          utils.Now(),
		UpdatedAt:          utils.Now(),
	}
	_ = base.SetContacts(NewContactList(gofakeit.Number(2, 8)))

	if len(overrideDefaults) > 0 && overrideDefaults[0] != nil {
		ovr := overrideDefaults[0]
		if ovr.BatchID != "" {
			base.BatchID = ovr.BatchID
		}
		if ovr.OrgID != "" {
			base.OrgID = ovr.OrgID
		}
		if ovr.UserID != "" {
			base.UserID = ovr.UserID
		}
		if ovr.TerritoryZipcode != "" {
			base.TerritoryZipcode = ovr.TerritoryZipcode
		}
		if ovr.TerritoryPageRange != "" {
			base.TerritoryPageRange = ovr.TerritoryPageRange
		}
		if ovr.DetectionStatus != "" {
			base.DetectionStatus = ovr.DetectionStatus
		}
		if len(ovr.Contacts) > 0 {
			base.Contacts = ovr.Contacts
			base.ContactCount = ovr.ContactCount
		}
	}
	return base
}

// NewSubmission creates a Submission with default fake data. Counters are
// left at zero; tests that care recompute them from the snapshot.
func NewSubmission(overrideDefaults ...*Submission) *Submission {
	base := &Submission{
		OrgID:              "org_" + gofakeit.LetterN(10),
		UserID:             gofakeit.Username(),
		SubmittedAt:        utils.Now(),
		GlobalNotes:        gofakeit.Sentence(6),
		TerritoryZipcode:   gofakeit.Zip(),
		TerritoryPageRange: fmt.Sprintf("%d-%d", gofakeit.Number(1, 10), gofakeit.Number(11, 30)),
		ReviewStatus:       ReviewPending,
	}
	contacts := NewContactList(gofakeit.Number(2, 8))
	_ = base.SetContacts(contacts)
	base.ContactCount = len(contacts)

	if len(overrideDefaults) > 0 && overrideDefaults[0] != nil {
		ovr := overrideDefaults[0]
		if ovr.ID != 0 {
			base.ID = ovr.ID
		}
		if ovr.OrgID != "" {
			base.OrgID = ovr.OrgID
		}
		if ovr.UserID != "" {
			base.UserID = ovr.UserID
		}
		if !ovr.SubmittedAt.IsZero() {
			base.SubmittedAt = ovr.SubmittedAt
		}
		if ovr.GlobalNotes != "" {
			base.GlobalNotes = ovr.GlobalNotes
		}
		if ovr.TerritoryZipcode != "" {
			base.TerritoryZipcode = ovr.TerritoryZipcode
		}
		if ovr.ReviewStatus != "" {
			base.ReviewStatus = ovr.ReviewStatus
		}
		if len(ovr.Contacts) > 0 {
			base.Contacts = ovr.Contacts
			base.ContactCount = ovr.ContactCount
			base.PotentiallyFrench = ovr.PotentiallyFrench
			base.NotFrench = ovr.NotFrench
			base.Duplicate = ovr.Duplicate
			base.NotChecked = ovr.NotChecked
		}
		base.Archived = ovr.Archived
	}
	return base
}

// NewContactBatchPayload creates a ContactBatchPayload with default fake data.
func NewContactBatchPayload(overrideDefaults ...*ContactBatchPayload) *ContactBatchPayload {
	base := &ContactBatchPayload{
		BatchID:            gofakeit.UUID(),
		OrgID:              "org_" + gofakeit.LetterN(10),
		UserID:             gofakeit.Username(),
		TerritoryZipcode:   gofakeit.Zip(),
		TerritoryPageRange: fmt.Sprintf("%d-%d", gofakeit.Number(1, 10), gofakeit.Number(11, 30)),
	}
	for i := 0; i < gofakeit.Number(2, 8); i++ {
		c := NewContact()
		base.Contacts = append(base.Contacts, ContactPayload{
			ID:        c.ID,
			FirstName: c.FirstName,
			LastName:  c.LastName,
			Address:   c.Address,
			City:      c.City,
			Zipcode:   c.Zipcode,
			Phone:     c.Phone,
		})
	}

	if len(overrideDefaults) > 0 && overrideDefaults[0] != nil {
		ovr := overrideDefaults[0]
		if ovr.BatchID != "" {
			base.BatchID = ovr.BatchID
		}
		if ovr.OrgID != "" {
			base.OrgID = ovr.OrgID
		}
		if ovr.UserID != "" {
			base.UserID = ovr.UserID
		}
		if ovr.TerritoryZipcode != "" {
			base.TerritoryZipcode = ovr.TerritoryZipcode
		}
		if ovr.TerritoryPageRange != "" {
			base.TerritoryPageRange = ovr.TerritoryPageRange
		}
		if len(ovr.Contacts) > 0 {
			base.Contacts = ovr.Contacts
		}
	}
	return base
}

// NewSubmissionPayload creates a SubmissionPayload with default fake data.
func NewSubmissionPayload(overrideDefaults ...*SubmissionPayload) *SubmissionPayload {
	base := &SubmissionPayload{
		OrgID:              "org_" + gofakeit.LetterN(10),
		UserID:             gofakeit.Username(),
		GlobalNotes:        gofakeit.Sentence(6),
		TerritoryZipcode:   gofakeit.Zip(),
		TerritoryPageRange: fmt.Sprintf("%d-%d", gofakeit.Number(1, 10), gofakeit.Number(11, 30)),
	}
	for i := 0; i < gofakeit.Number(2, 8); i++ {
		c := NewContact()
		base.Contacts = append(base.Contacts, ContactPayload{
			ID:        c.ID,
			FirstName: c.FirstName,
			LastName:  c.LastName,
			Address:   c.Address,
			City:      c.City,
			Zipcode:   c.Zipcode,
			Phone:     c.Phone,
			Status:    c.Status,
		})
	}

	if len(overrideDefaults) > 0 && overrideDefaults[0] != nil {
		ovr := overrideDefaults[0]
		if ovr.OrgID != "" {
			base.OrgID = ovr.OrgID
		}
		if ovr.UserID != "" {
			base.UserID = ovr.UserID
		}
		if ovr.GlobalNotes != "" {
			base.GlobalNotes = ovr.GlobalNotes
		}
		if ovr.TerritoryZipcode != "" {
			base.TerritoryZipcode = ovr.TerritoryZipcode
		}
		if len(ovr.Contacts) > 0 {
			base.Contacts = ovr.Contacts
		}
	}
	return base
}
