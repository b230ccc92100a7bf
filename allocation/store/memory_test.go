package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/warp/payroll-engine/allocation"
	"github.com/warp/payroll-engine/allocation/store"
	"github.com/warp/payroll-engine/payroll"
)

func testRecord(employee payroll.EmployeeID, project payroll.ProjectID, month time.Month, year int, gross int) allocation.Record {
	r := allocation.Record{
		Key: allocation.Key{EmployeeID: employee, ProjectID: project, Month: month, Year: year},
		Prorated: payroll.FixedCosts{
			GrossSalary: payroll.NewMoneyFromInt(gross),
		},
	}
	r.Finalize()
	return r
}

func TestMemory_UpsertReplacesWholeRecord(t *testing.T) {
	// GIVEN: A stored record
	// WHEN: Upserting a different record under the same key
	// THEN: The old record is fully replaced, not merged

	m := store.NewMemory()
	ctx := context.Background()

	first := testRecord("emp-1", "proj-a", time.September, 2025, 3000)
	first.Expenses = []payroll.VariableExpense{
		payroll.NewEmployeeExpense("emp-1", time.Date(2025, time.September, 3, 0, 0, 0, 0, time.UTC), "travel", payroll.NewMoneyFromInt(80)),
	}
	first.Finalize()
	if err := m.Upsert(ctx, first); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	second := testRecord("emp-1", "proj-a", time.September, 2025, 2500)
	if err := m.Upsert(ctx, second); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	got, err := m.Get(ctx, second.Key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !got.Prorated.GrossSalary.Equal(payroll.NewMoneyFromInt(2500)) {
		t.Errorf("expected replaced gross 2500.00, got %s", got.Prorated.GrossSalary)
	}
	if len(got.Expenses) != 0 {
		t.Errorf("old expense lines must not survive the replace, got %d", len(got.Expenses))
	}
}

func TestMemory_GetMissingReturnsNotFound(t *testing.T) {
	m := store.NewMemory()
	_, err := m.Get(context.Background(), allocation.Key{EmployeeID: "emp-1", ProjectID: "proj-a", Month: time.January, Year: 2025})
	if !errors.Is(err, payroll.ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestMemory_QueryFiltersAndOrders(t *testing.T) {
	// GIVEN: Records across employees, projects and months
	// WHEN: Querying with a filter
	// THEN: Only matches return, ordered year/month/project/employee

	m := store.NewMemory()
	ctx := context.Background()

	records := []allocation.Record{
		testRecord("emp-2", "proj-b", time.October, 2025, 100),
		testRecord("emp-1", "proj-a", time.September, 2025, 100),
		testRecord("emp-1", "proj-b", time.September, 2025, 100),
		testRecord("emp-1", "proj-a", time.December, 2024, 100),
	}
	for _, r := range records {
		if err := m.Upsert(ctx, r); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	employee := payroll.EmployeeID("emp-1")
	got, err := m.Query(ctx, allocation.Filter{EmployeeID: &employee})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got))
	}
	if got[0].Year != 2024 {
		t.Errorf("expected 2024 first, got %d", got[0].Year)
	}
	if got[1].ProjectID != "proj-a" || got[2].ProjectID != "proj-b" {
		t.Errorf("expected proj-a before proj-b, got %s then %s", got[1].ProjectID, got[2].ProjectID)
	}

	year := 2025
	month := time.October
	got, err = m.Query(ctx, allocation.Filter{Year: &year, Month: &month})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(got) != 1 || got[0].EmployeeID != "emp-2" {
		t.Errorf("expected only emp-2's October record, got %v", got)
	}
}

func TestSummarize_RollsUpComponents(t *testing.T) {
	a := allocation.Record{
		Key: allocation.Key{EmployeeID: "emp-1", ProjectID: "proj-a", Month: time.September, Year: 2025},
		Prorated: payroll.FixedCosts{
			GrossSalary: payroll.NewMoneyFromInt(3000),
			EmployerSS:  payroll.NewMoneyFromInt(900),
			WorkerSS:    payroll.NewMoneyFromInt(190),
			Withholding: payroll.NewMoneyFromInt(450),
		},
		OvertimePay: payroll.NewMoneyFromInt(50),
		Expenses: []payroll.VariableExpense{
			payroll.NewEmployeeExpense("emp-1", time.Date(2025, time.September, 3, 0, 0, 0, 0, time.UTC), "travel", payroll.NewMoneyFromInt(80)),
		},
	}
	a.Finalize()

	totals := allocation.Summarize([]allocation.Record{a})
	if totals.Records != 1 {
		t.Errorf("expected 1 record, got %d", totals.Records)
	}
	if !totals.SalaryAndSS.Equal(payroll.NewMoneyFromInt(4090)) {
		t.Errorf("expected 4090.00 salary+SS, got %s", totals.SalaryAndSS)
	}
	if !totals.Withholding.Equal(payroll.NewMoneyFromInt(450)) {
		t.Errorf("expected 450.00 withholding, got %s", totals.Withholding)
	}
	if !totals.VariableExpenses.Equal(payroll.NewMoneyFromInt(80)) {
		t.Errorf("expected 80.00 expenses, got %s", totals.VariableExpenses)
	}
	if !totals.Total.Equal(payroll.NewMoneyFromInt(4670)) {
		t.Errorf("expected 4670.00 total, got %s", totals.Total)
	}
}
