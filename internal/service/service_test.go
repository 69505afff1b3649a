package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"propertyflow-backend/internal/database"
	"propertyflow-backend/internal/model"
	"propertyflow-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A single connection keeps every session on the same in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

func mustUUID(t *testing.T, s string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(s)
	require.NoError(t, err)
	return id
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// fakeStore is an in-memory ObjectStorage.
type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (f *fakeStore) Upload(ctx context.Context, key, contentType string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return nil
}

func (f *fakeStore) PresignGet(ctx context.Context, key string, expiresIn time.Duration) (string, error) {
	return "https://storage.test/" + key, nil
}

func (f *fakeStore) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

// captureNotifier records broadcast events and who they were addressed to.
type capturedEvent struct {
	ownerID   uuid.UUID
	eventType string
}

type captureNotifier struct {
	mu     sync.Mutex
	events []capturedEvent
}

func (n *captureNotifier) BroadcastEvent(ownerID uuid.UUID, eventType string, payload interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, capturedEvent{ownerID: ownerID, eventType: eventType})
}

func (n *captureNotifier) has(eventType string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, e := range n.events {
		if e.eventType == eventType {
			return true
		}
	}
	return false
}

// ownersOf returns the owner ids the given event type was addressed to.
func (n *captureNotifier) ownersOf(eventType string) []uuid.UUID {
	n.mu.Lock()
	defer n.mu.Unlock()
	var owners []uuid.UUID
	for _, e := range n.events {
		if e.eventType == eventType {
			owners = append(owners, e.ownerID)
		}
	}
	return owners
}

// testEnv wires the service stack against an in-memory database with one
// owner, one project and one occupied unit whose tenant is mid-contract.
type testEnv struct {
	db       *gorm.DB
	store    *fakeStore
	notifier *captureNotifier

	owner   *model.User
	project *model.Project
	unit    *model.Unit
	tenant  *model.Tenant

	invoices  InvoiceService
	payments  PaymentService
	receipts  ReceiptService
	meters    MeterReadingService
	contracts ContractService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)

	owner := &model.User{Username: "owner1", Email: "owner1@example.com", Password: "x", Role: model.RoleOwner}
	require.NoError(t, db.Create(owner).Error)

	project := &model.Project{OwnerID: owner.ID, Code: "WH1", Name: "Warehouse One", CompanyName: "Warehouse One Co., Ltd."}
	require.NoError(t, db.Create(project).Error)

	unit := &model.Unit{ProjectID: project.ID, UnitNo: "A101", Status: model.UnitOccupied}
	require.NoError(t, db.Create(unit).Error)

	now := time.Now()
	tenant := &model.Tenant{
		UnitID:         unit.ID,
		Name:           "Somchai Trading",
		TenantType:     model.TenantIndividual,
		BaseRent:       dec("10000"),
		CommonFee:      dec("500"),
		DiscountAmount: dec("1000"),
		ContractStart:  now.AddDate(0, -6, 0),
		ContractEnd:    now.AddDate(0, 6, 0),
	}
	require.NoError(t, db.Create(tenant).Error)

	store := newFakeStore()
	notifier := &captureNotifier{}

	invoiceRepo := repository.NewInvoiceRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	unitRepo := repository.NewUnitRepository(db)
	tenantRepo := repository.NewTenantRepository(db)
	meterRepo := repository.NewMeterReadingRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	receiptRepo := repository.NewReceiptRepository(db)
	contractRepo := repository.NewContractRepository(db)
	txManager := repository.NewTransactionManager(db)

	return &testEnv{
		db:       db,
		store:    store,
		notifier: notifier,
		owner:    owner,
		project:  project,
		unit:     unit,
		tenant:   tenant,

		invoices:  NewInvoiceService(invoiceRepo, projectRepo, unitRepo, tenantRepo, meterRepo, txManager),
		payments:  NewPaymentService(paymentRepo, invoiceRepo, receiptRepo, projectRepo, txManager, store, notifier),
		receipts:  NewReceiptService(receiptRepo, invoiceRepo, paymentRepo, projectRepo, txManager),
		meters:    NewMeterReadingService(meterRepo, unitRepo),
		contracts: NewContractService(contractRepo, unitRepo, tenantRepo, store, "https://app.test"),
	}
}

// addUnit creates an extra unit in the env's project.
func (e *testEnv) addUnit(t *testing.T, unitNo string) *model.Unit {
	t.Helper()
	unit := &model.Unit{ProjectID: e.project.ID, UnitNo: unitNo, Status: model.UnitVacant}
	require.NoError(t, e.db.Create(unit).Error)
	return unit
}

// addTenant creates a tenant mid-contract on the given unit; mutate adjusts
// the record before insert.
func (e *testEnv) addTenant(t *testing.T, unit *model.Unit, name string, mutate func(*model.Tenant)) *model.Tenant {
	t.Helper()
	now := time.Now()
	tenant := &model.Tenant{
		UnitID:        unit.ID,
		Name:          name,
		TenantType:    model.TenantIndividual,
		BaseRent:      dec("8000"),
		ContractStart: now.AddDate(0, -3, 0),
		ContractEnd:   now.AddDate(0, 9, 0),
	}
	if mutate != nil {
		mutate(tenant)
	}
	require.NoError(t, e.db.Create(tenant).Error)
	return tenant
}

// issueInvoice creates a RENT invoice for the env's default unit, due in a week.
func (e *testEnv) issueInvoice(t *testing.T, billingMonth string) *InvoiceResponse {
	t.Helper()
	resp, err := e.invoices.CreateInvoice(context.Background(), e.owner.ID, CreateInvoiceRequest{
		UnitID:       e.unit.ID.String(),
		Type:         model.InvoiceRent,
		BillingMonth: billingMonth,
		DueDate:      time.Now().AddDate(0, 0, 7).Format("2006-01-02"),
	})
	require.NoError(t, err)
	return resp
}

func (e *testEnv) reloadInvoice(t *testing.T, id string) *model.Invoice {
	t.Helper()
	var inv model.Invoice
	require.NoError(t, e.db.First(&inv, "id = ?", id).Error)
	return &inv
}
