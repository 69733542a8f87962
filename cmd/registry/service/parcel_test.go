package service

import (
	"context"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/villagereg/landregistry/cmd/registry/models"
	"github.com/villagereg/landregistry/common/derrors"
)

func newTestParcelService(ledger *MockLedger, parcels *MockParcelStore, transfers *MockTransferReader, owners *MockOwnerStore) *ParcelService {
	return NewParcelService(ledger, parcels, transfers, owners, NewMockCache(), testConfig(), testPublisher(), testLogger())
}

// TestRegisterParcel_WithOwner verifies that registering with a known owner
// writes the parcel and a synthetic initial transfer record together
func TestRegisterParcel_WithOwner(t *testing.T) {
	ctx := context.Background()
	ledger := NewMockLedger()
	owners := NewMockOwnerStore()
	alice := owners.Add("Alice Wanjiku")

	svc := newTestParcelService(ledger, NewMockParcelStore(), NewMockTransferReader(), owners)

	parcel, err := svc.RegisterParcel(ctx, RegisterParcelInput{
		ParcelNumber:    "PLOT-001",
		Location:        "North Village",
		AreaSqm:         1200,
		OriginalOwnerID: &alice.ID,
	})
	if err != nil {
		t.Fatalf("RegisterParcel failed: %v", err)
	}

	if parcel.ID == uuid.Nil {
		t.Error("expected parcel to receive an id")
	}
	if parcel.CurrentOwnerID == nil || *parcel.CurrentOwnerID != alice.ID {
		t.Errorf("expected current owner to default to original owner %s, got %v", alice.ID, parcel.CurrentOwnerID)
	}

	if len(ledger.records) != 1 {
		t.Fatalf("expected 1 initial transfer record, got %d", len(ledger.records))
	}
	rec := ledger.records[0]
	if rec.FromOwnerID != nil {
		t.Errorf("initial record must have no from-owner, got %v", rec.FromOwnerID)
	}
	if rec.ToOwnerID != alice.ID {
		t.Errorf("initial record to_owner: expected %s, got %s", alice.ID, rec.ToOwnerID)
	}
	if rec.ParcelID != parcel.ID {
		t.Errorf("initial record parcel_id: expected %s, got %s", parcel.ID, rec.ParcelID)
	}
	if rec.Notes == nil || *rec.Notes != initialRegistrationNotes {
		t.Errorf("initial record notes: expected %q, got %v", initialRegistrationNotes, rec.Notes)
	}
}

// TestRegisterParcel_WithoutOwner verifies that an ownerless registration
// writes no transfer record and leaves the pointer unset
func TestRegisterParcel_WithoutOwner(t *testing.T) {
	ctx := context.Background()
	ledger := NewMockLedger()

	svc := newTestParcelService(ledger, NewMockParcelStore(), NewMockTransferReader(), NewMockOwnerStore())

	parcel, err := svc.RegisterParcel(ctx, RegisterParcelInput{
		ParcelNumber: "PLOT-002",
		Location:     "East Village",
		AreaSqm:      800,
	})
	if err != nil {
		t.Fatalf("RegisterParcel failed: %v", err)
	}

	if parcel.CurrentOwnerID != nil {
		t.Errorf("expected no current owner, got %v", parcel.CurrentOwnerID)
	}
	if len(ledger.records) != 0 {
		t.Errorf("expected no transfer records, got %d", len(ledger.records))
	}
}

// TestRegisterParcel_InlineOwner verifies that a new owner supplied with the
// registration is created and becomes the original owner
func TestRegisterParcel_InlineOwner(t *testing.T) {
	ctx := context.Background()
	ledger := NewMockLedger()
	owners := NewMockOwnerStore()

	svc := newTestParcelService(ledger, NewMockParcelStore(), NewMockTransferReader(), owners)

	parcel, err := svc.RegisterParcel(ctx, RegisterParcelInput{
		ParcelNumber: "PLOT-003",
		Location:     "South Village",
		AreaSqm:      450,
		NewOwner:     &CreateOwnerInput{FullName: "  Bob Otieno  "},
	})
	if err != nil {
		t.Fatalf("RegisterParcel failed: %v", err)
	}

	if len(owners.owners) != 1 {
		t.Fatalf("expected 1 owner created, got %d", len(owners.owners))
	}
	if parcel.OriginalOwnerID == nil {
		t.Fatal("expected original owner to be set")
	}
	created := owners.owners[*parcel.OriginalOwnerID]
	if created == nil {
		t.Fatal("original owner id does not match the created owner")
	}
	if created.FullName != "Bob Otieno" {
		t.Errorf("expected trimmed owner name, got %q", created.FullName)
	}
}

// TestRegisterParcel_Validation exercises input rejection
func TestRegisterParcel_Validation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		input RegisterParcelInput
	}{
		{"missing parcel number", RegisterParcelInput{Location: "x", AreaSqm: 1}},
		{"blank parcel number", RegisterParcelInput{ParcelNumber: "   ", Location: "x", AreaSqm: 1}},
		{"missing location", RegisterParcelInput{ParcelNumber: "P-1", AreaSqm: 1}},
		{"zero area", RegisterParcelInput{ParcelNumber: "P-1", Location: "x", AreaSqm: 0}},
		{"negative area", RegisterParcelInput{ParcelNumber: "P-1", Location: "x", AreaSqm: -5}},
		{"NaN area", RegisterParcelInput{ParcelNumber: "P-1", Location: "x", AreaSqm: math.NaN()}},
		{"blank inline owner name", RegisterParcelInput{ParcelNumber: "P-1", Location: "x", AreaSqm: 1, NewOwner: &CreateOwnerInput{FullName: "  "}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := NewMockLedger()
			svc := newTestParcelService(ledger, NewMockParcelStore(), NewMockTransferReader(), NewMockOwnerStore())

			_, err := svc.RegisterParcel(ctx, tt.input)
			if !derrors.IsKind(err, derrors.KindValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
			if len(ledger.parcels) != 0 {
				t.Errorf("rejected input must not write, got %d parcels", len(ledger.parcels))
			}
		})
	}
}

// TestRegisterParcel_UnknownOwner verifies that referencing a missing owner
// is rejected before anything is written
func TestRegisterParcel_UnknownOwner(t *testing.T) {
	ctx := context.Background()
	ledger := NewMockLedger()
	missing := uuid.New()

	svc := newTestParcelService(ledger, NewMockParcelStore(), NewMockTransferReader(), NewMockOwnerStore())

	_, err := svc.RegisterParcel(ctx, RegisterParcelInput{
		ParcelNumber:    "PLOT-004",
		Location:        "West Village",
		AreaSqm:         100,
		OriginalOwnerID: &missing,
	})
	if !derrors.IsKind(err, derrors.KindNotFound) {
		t.Errorf("expected not-found error, got %v", err)
	}
	if len(ledger.parcels) != 0 {
		t.Errorf("expected no writes, got %d parcels", len(ledger.parcels))
	}
}

// TestRegisterParcel_ExplicitCurrentOwner verifies that an explicit current
// owner overrides the default
func TestRegisterParcel_ExplicitCurrentOwner(t *testing.T) {
	ctx := context.Background()
	owners := NewMockOwnerStore()
	alice := owners.Add("Alice Wanjiku")
	bob := owners.Add("Bob Otieno")

	svc := newTestParcelService(NewMockLedger(), NewMockParcelStore(), NewMockTransferReader(), owners)

	parcel, err := svc.RegisterParcel(ctx, RegisterParcelInput{
		ParcelNumber:    "PLOT-005",
		Location:        "Hilltop",
		AreaSqm:         300,
		OriginalOwnerID: &alice.ID,
		CurrentOwnerID:  &bob.ID,
	})
	if err != nil {
		t.Fatalf("RegisterParcel failed: %v", err)
	}

	if parcel.CurrentOwnerID == nil || *parcel.CurrentOwnerID != bob.ID {
		t.Errorf("expected current owner %s, got %v", bob.ID, parcel.CurrentOwnerID)
	}
	if parcel.OriginalOwnerID == nil || *parcel.OriginalOwnerID != alice.ID {
		t.Errorf("expected original owner %s, got %v", alice.ID, parcel.OriginalOwnerID)
	}
}

// TestRegisterParcel_RetriesTransientFailure verifies the write retries past
// transient store failures
func TestRegisterParcel_RetriesTransientFailure(t *testing.T) {
	ctx := context.Background()
	ledger := NewMockLedger()
	ledger.failures = 2

	svc := newTestParcelService(ledger, NewMockParcelStore(), NewMockTransferReader(), NewMockOwnerStore())

	_, err := svc.RegisterParcel(ctx, RegisterParcelInput{
		ParcelNumber: "PLOT-006",
		Location:     "Riverside",
		AreaSqm:      150,
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if len(ledger.parcels) != 1 {
		t.Errorf("expected 1 parcel written, got %d", len(ledger.parcels))
	}
}

// TestRegisterParcel_ExhaustedRetries verifies the failure surfaces once
// attempts run out
func TestRegisterParcel_ExhaustedRetries(t *testing.T) {
	ctx := context.Background()
	ledger := NewMockLedger()
	ledger.failures = 10

	svc := newTestParcelService(ledger, NewMockParcelStore(), NewMockTransferReader(), NewMockOwnerStore())

	_, err := svc.RegisterParcel(ctx, RegisterParcelInput{
		ParcelNumber: "PLOT-007",
		Location:     "Lakeside",
		AreaSqm:      150,
	})
	if !derrors.IsKind(err, derrors.KindPersistence) {
		t.Errorf("expected persistence error, got %v", err)
	}
	if len(ledger.parcels) != 0 {
		t.Errorf("expected no parcels written, got %d", len(ledger.parcels))
	}
}

// TestListParcels_FilterExpression verifies CEL filtering on top of the list
func TestListParcels_FilterExpression(t *testing.T) {
	ctx := context.Background()
	parcels := NewMockParcelStore()
	parcels.Add(&models.Parcel{ParcelNumber: "PLOT-A", Location: "North", AreaSqm: 900})
	parcels.Add(&models.Parcel{ParcelNumber: "PLOT-B", Location: "South", AreaSqm: 200})

	svc := newTestParcelService(NewMockLedger(), parcels, NewMockTransferReader(), NewMockOwnerStore())

	result, err := svc.ListParcels(ctx, "", "parcel.area_sqm > 500.0")
	if err != nil {
		t.Fatalf("ListParcels failed: %v", err)
	}
	if len(result) != 1 {
		t.Fatalf("expected 1 parcel, got %d", len(result))
	}
	if result[0].ParcelNumber != "PLOT-A" {
		t.Errorf("expected PLOT-A, got %s", result[0].ParcelNumber)
	}
}

// TestListParcels_InvalidFilter verifies a bad expression is the caller's error
func TestListParcels_InvalidFilter(t *testing.T) {
	ctx := context.Background()
	parcels := NewMockParcelStore()
	parcels.Add(&models.Parcel{ParcelNumber: "PLOT-A", Location: "North", AreaSqm: 900})

	svc := newTestParcelService(NewMockLedger(), parcels, NewMockTransferReader(), NewMockOwnerStore())

	_, err := svc.ListParcels(ctx, "", "parcel.area_sqm >")
	if !derrors.IsKind(err, derrors.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

// TestListParcels_CachesUnfilteredList verifies the second unfiltered read
// is served from cache
func TestListParcels_CachesUnfilteredList(t *testing.T) {
	ctx := context.Background()
	parcels := NewMockParcelStore()
	parcels.Add(&models.Parcel{ParcelNumber: "PLOT-A", Location: "North", AreaSqm: 900})

	svc := newTestParcelService(NewMockLedger(), parcels, NewMockTransferReader(), NewMockOwnerStore())

	if _, err := svc.ListParcels(ctx, "", ""); err != nil {
		t.Fatalf("first ListParcels failed: %v", err)
	}
	if _, err := svc.ListParcels(ctx, "", ""); err != nil {
		t.Fatalf("second ListParcels failed: %v", err)
	}

	if parcels.listCalls != 1 {
		t.Errorf("expected 1 store read, got %d", parcels.listCalls)
	}
}

// TestGetCertificate verifies the certificate bundles the parcel with its
// full history
func TestGetCertificate(t *testing.T) {
	ctx := context.Background()
	parcels := NewMockParcelStore()
	transfers := NewMockTransferReader()

	parcel := &models.Parcel{ParcelNumber: "PLOT-C", Location: "Central", AreaSqm: 640}
	parcels.Add(parcel)

	alice := uuid.New()
	transfers.history[parcel.ID] = []*models.TransferWithOwners{
		{TransferRecord: models.TransferRecord{ParcelID: parcel.ID, ToOwnerID: alice}},
	}

	svc := newTestParcelService(NewMockLedger(), parcels, transfers, NewMockOwnerStore())

	cert, err := svc.GetCertificate(ctx, parcel.ID)
	if err != nil {
		t.Fatalf("GetCertificate failed: %v", err)
	}

	if cert.Parcel.ParcelNumber != "PLOT-C" {
		t.Errorf("expected parcel PLOT-C, got %s", cert.Parcel.ParcelNumber)
	}
	if len(cert.History) != 1 {
		t.Fatalf("expected 1 history record, got %d", len(cert.History))
	}
	if cert.History[0].ToOwnerID != alice {
		t.Errorf("expected history to_owner %s, got %s", alice, cert.History[0].ToOwnerID)
	}
	if cert.IssuedAt.IsZero() {
		t.Error("expected issued_at to be set")
	}
}
