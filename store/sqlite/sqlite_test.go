package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/warp/payroll-engine/allocation"
	"github.com/warp/payroll-engine/calendar"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/sqlite"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleRecord() allocation.Record {
	r := allocation.Record{
		Key: allocation.Key{
			EmployeeID: "emp-1",
			ProjectID:  "proj-a",
			Month:      time.September,
			Year:       2025,
		},
		DaysActive:  13,
		WorkingDays: 26,
		Prorated: payroll.FixedCosts{
			GrossSalary: payroll.NewMoneyFromInt(1500),
			EmployerSS:  payroll.NewMoneyFromInt(450),
			WorkerSS:    payroll.NewMoneyFromInt(95),
			Withholding: payroll.NewMoneyFromInt(225),
			Garnishment: payroll.ZeroMoney(),
		},
		NormalHours:   payroll.NewHoursFromInt(72),
		OvertimeHours: payroll.NewHoursFromInt(2),
		HolidayHours:  payroll.ZeroHours(),
		OvertimePay:   payroll.NewMoneyFromInt(50),
		HolidayPay:    payroll.ZeroMoney(),
		Expenses: []payroll.VariableExpense{
			{
				ID:         "exp-1",
				Scope:      payroll.ExpenseEmployee,
				EmployeeID: "emp-1",
				Date:       time.Date(2025, time.September, 20, 0, 0, 0, 0, time.UTC),
				Category:   "travel",
				Amount:     payroll.NewMoneyFromInt(80),
			},
		},
	}
	r.Finalize()
	return r
}

// =============================================================================
// RECORD STORE
// =============================================================================

func TestSQLite_RecordRoundTrip(t *testing.T) {
	// GIVEN: A finalized record with expense lines
	// WHEN: Upserting and reading it back
	// THEN: Every field survives, decimals with full precision

	store := newTestStore(t)
	ctx := context.Background()
	record := sampleRecord()

	if err := store.Upsert(ctx, record); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	got, err := store.Get(ctx, record.Key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if got.DaysActive != 13 || got.WorkingDays != 26 {
		t.Errorf("proration inputs lost: %d/%d", got.DaysActive, got.WorkingDays)
	}
	if !got.Prorated.GrossSalary.Equal(record.Prorated.GrossSalary) {
		t.Errorf("expected gross %s, got %s", record.Prorated.GrossSalary, got.Prorated.GrossSalary)
	}
	if !got.NormalHours.Equal(record.NormalHours) {
		t.Errorf("expected %s normal hours, got %s", record.NormalHours, got.NormalHours)
	}
	if !got.Total.Equal(record.Total) {
		t.Errorf("expected total %s, got %s", record.Total, got.Total)
	}
	if len(got.Expenses) != 1 || got.Expenses[0].ID != "exp-1" {
		t.Fatalf("expense lines lost: %+v", got.Expenses)
	}
	if !got.Expenses[0].Amount.Equal(payroll.NewMoneyFromInt(80)) {
		t.Errorf("expected expense 80.00, got %s", got.Expenses[0].Amount)
	}
}

func TestSQLite_UpsertReplacesByKey(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	record := sampleRecord()
	if err := store.Upsert(ctx, record); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	record.DaysActive = 26
	record.Prorated.GrossSalary = payroll.NewMoneyFromInt(3000)
	record.Expenses = nil
	record.Finalize()
	if err := store.Upsert(ctx, record); err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}

	all, err := store.Query(ctx, allocation.Filter{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("upsert must replace, not append: got %d records", len(all))
	}
	if !all[0].Prorated.GrossSalary.Equal(payroll.NewMoneyFromInt(3000)) {
		t.Errorf("expected replaced gross 3000.00, got %s", all[0].Prorated.GrossSalary)
	}
	if len(all[0].Expenses) != 0 {
		t.Errorf("old expense lines must not survive, got %d", len(all[0].Expenses))
	}
}

func TestSQLite_GetMissingReturnsNotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Get(context.Background(), allocation.Key{
		EmployeeID: "emp-x", ProjectID: "proj-x", Month: time.January, Year: 2025,
	})
	if !errors.Is(err, payroll.ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestSQLite_QueryFilterAndOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	months := []time.Month{time.October, time.September}
	for _, m := range months {
		r := sampleRecord()
		r.Month = m
		if err := store.Upsert(ctx, r); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	year := 2025
	got, err := store.Query(ctx, allocation.Filter{Year: &year})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].Month != time.September || got[1].Month != time.October {
		t.Errorf("expected chronological order, got %v then %v", got[0].Month, got[1].Month)
	}

	month := time.October
	got, err = store.Query(ctx, allocation.Filter{Month: &month})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected 1 October record, got %d", len(got))
	}
}

// =============================================================================
// OVERRIDE STORE
// =============================================================================

func TestSQLite_OverridesFilteredByMonth(t *testing.T) {
	// GIVEN: Overrides in September and October plus a malformed date
	// WHEN: Loading September
	// THEN: Only the September rows surface; the malformed row never matches

	store := newTestStore(t)
	ctx := context.Background()

	hours := 4.0
	overrides := []calendar.DayOverride{
		{Date: "2025-09-02", Absence: "vacation"},
		{Date: "2025-09-07", Hours: &hours},
		{Date: "2025-10-01", Absence: "vacation"},
		{Date: "garbage"},
	}
	for _, o := range overrides {
		if err := store.SaveOverride(ctx, "emp-1", o); err != nil {
			t.Fatalf("SaveOverride failed: %v", err)
		}
	}

	got, err := store.OverridesForMonth(ctx, "emp-1", time.September, 2025)
	if err != nil {
		t.Fatalf("OverridesForMonth failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 September overrides, got %d", len(got))
	}
	if got[0].Absence != "vacation" {
		t.Errorf("expected vacation first, got %q", got[0].Absence)
	}
	if got[1].Hours == nil || *got[1].Hours != 4.0 {
		t.Errorf("expected 4 hours on the second override, got %v", got[1].Hours)
	}
}

func TestSQLite_SaveOverrideReplacesSameDay(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.SaveOverride(ctx, "emp-1", calendar.DayOverride{Date: "2025-09-02", Absence: "vacation"}); err != nil {
		t.Fatalf("SaveOverride failed: %v", err)
	}
	if err := store.SaveOverride(ctx, "emp-1", calendar.DayOverride{Date: "2025-09-02", Absence: "medical-leave"}); err != nil {
		t.Fatalf("replacing SaveOverride failed: %v", err)
	}

	got, err := store.OverridesForMonth(ctx, "emp-1", time.September, 2025)
	if err != nil {
		t.Fatalf("OverridesForMonth failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 override after replace, got %d", len(got))
	}
	if got[0].Absence != "medical-leave" {
		t.Errorf("expected medical-leave, got %q", got[0].Absence)
	}
}

// =============================================================================
// EXPENSE STORE
// =============================================================================

func TestSQLite_ExpensesByScope(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	date := time.Date(2025, time.September, 12, 0, 0, 0, 0, time.UTC)
	employeeExp := payroll.NewEmployeeExpense("emp-1", date, "travel", payroll.NewMoneyFromInt(120))
	projectExp := payroll.NewProjectExpense("proj-a", date, "materials", payroll.MustParseMoney("349.95"))
	projectExp.InvoiceRef = "INV-2025-118"

	for _, e := range []payroll.VariableExpense{employeeExp, projectExp} {
		if err := store.SaveExpense(ctx, e); err != nil {
			t.Fatalf("SaveExpense failed: %v", err)
		}
	}

	forEmployee, err := store.ExpensesForEmployee(ctx, "emp-1")
	if err != nil {
		t.Fatalf("ExpensesForEmployee failed: %v", err)
	}
	if len(forEmployee) != 1 || forEmployee[0].Category != "travel" {
		t.Fatalf("expected the travel expense, got %+v", forEmployee)
	}

	forProject, err := store.ExpensesForProject(ctx, "proj-a")
	if err != nil {
		t.Fatalf("ExpensesForProject failed: %v", err)
	}
	if len(forProject) != 1 {
		t.Fatalf("expected 1 project expense, got %d", len(forProject))
	}
	if !forProject[0].Amount.Equal(payroll.MustParseMoney("349.95")) {
		t.Errorf("expected 349.95, got %s", forProject[0].Amount)
	}
	if forProject[0].InvoiceRef != "INV-2025-118" {
		t.Errorf("invoice ref lost: %q", forProject[0].InvoiceRef)
	}
}
