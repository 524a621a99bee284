package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"erp/internal/app/server"
	"erp/internal/platform/config"
	"erp/internal/platform/db"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func testApp(t *testing.T) (*server.App, *httptest.Server) {
	t.Helper()
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	cfg := config.Config{
		DatabaseURL:       dbURL,
		JWTSecret:         "test-secret",
		Environment:       "test",
		SeedAdminUsername: "admin",
		SeedAdminEmail:    "admin@test.local",
		SeedAdminPassword: "ChangeMe123!",
		MigrationsDir:     findMigrationsDir(t),
		MaxBodyBytes:      1048576,
		TokenTTL:          time.Hour,
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		t.Fatalf("db connect failed: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
		t.Fatalf("migrations failed: %v", err)
	}
	// Routing picks the earliest user per role, so stale rows from previous
	// runs would skew assertions.
	if _, err := pool.Exec(ctx, `
    TRUNCATE audit_events, financial_transactions, payrolls, resource_allocations,
             resources, workflows, attendance, employees, departments, users CASCADE
  `); err != nil {
		t.Fatalf("truncate failed: %v", err)
	}
	if err := db.Seed(ctx, pool, cfg); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	app := server.New(cfg, pool)
	ts := httptest.NewServer(app.Router())
	t.Cleanup(ts.Close)
	return app, ts
}

func findMigrationsDir(t *testing.T) string {
	t.Helper()
	for _, candidate := range []string{"migrations", "../migrations", "../../migrations", "../../../migrations", "../../../../migrations"} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	t.Fatal("migrations dir not found")
	return ""
}

func TestApprovalWorkflowJourney(t *testing.T) {
	_, ts := testApp(t)
	client := ts.Client()

	adminToken := login(t, client, ts.URL, "admin@test.local", "ChangeMe123!")

	suffix := fmt.Sprintf("%d", time.Now().UnixNano())
	managerUserID := register(t, client, ts.URL, adminToken, "mgr-"+suffix, "manager")
	employeeUserID := register(t, client, ts.URL, adminToken, "emp-"+suffix, "employee")
	financeUserID := register(t, client, ts.URL, adminToken, "fin-"+suffix, "finance")

	deptID := createDepartment(t, client, ts.URL, adminToken, "Engineering-"+suffix)
	managerEmployeeID := createEmployee(t, client, ts.URL, adminToken, managerUserID, deptID, "")
	createEmployee(t, client, ts.URL, adminToken, employeeUserID, deptID, managerEmployeeID)

	employeeToken := login(t, client, ts.URL, "emp-"+suffix+"@test.local", "Password123!")
	managerToken := login(t, client, ts.URL, "mgr-"+suffix+"@test.local", "Password123!")
	financeToken := login(t, client, ts.URL, "fin-"+suffix+"@test.local", "Password123!")

	// Leave request routes to the direct manager.
	resp := postJSON(t, client, ts.URL+"/api/v1/workflows/leave", employeeToken, map[string]any{
		"leaveType": "vacation",
		"startDate": "2026-10-05",
		"endDate":   "2026-10-09",
		"reason":    "family trip",
	}, http.StatusCreated)
	leave := decodeMap(t, resp)
	leaveID, _ := leave["id"].(string)
	if assignee, _ := leave["assigneeId"].(string); assignee != managerUserID {
		t.Fatalf("expected leave routed to manager %s, got %s", managerUserID, assignee)
	}

	// Only the assignee may decide.
	postJSON(t, client, ts.URL+"/api/v1/workflows/"+leaveID+"/approve", financeToken, nil, http.StatusForbidden)

	approved := decodeMap(t, postJSON(t, client, ts.URL+"/api/v1/workflows/"+leaveID+"/approve", managerToken, nil, http.StatusOK))
	if status, _ := approved["status"].(string); status != "approved" {
		t.Fatalf("expected approved, got %v", approved["status"])
	}

	// Terminal states absorb further decisions.
	postJSON(t, client, ts.URL+"/api/v1/workflows/"+leaveID+"/reject", managerToken, nil, http.StatusConflict)
	postJSON(t, client, ts.URL+"/api/v1/workflows/"+leaveID+"/cancel", employeeToken, nil, http.StatusConflict)

	// Expense claim routes to finance and approval marks it reimbursed.
	resp = postJSON(t, client, ts.URL+"/api/v1/workflows/expense", employeeToken, map[string]any{
		"amount":      125.40,
		"expenseDate": "2026-09-20",
		"category":    "travel",
		"description": "client visit",
	}, http.StatusCreated)
	expense := decodeMap(t, resp)
	expenseID, _ := expense["id"].(string)
	if assignee, _ := expense["assigneeId"].(string); assignee != financeUserID {
		t.Fatalf("expected expense routed to finance %s, got %s", financeUserID, assignee)
	}

	decided := decodeMap(t, postJSON(t, client, ts.URL+"/api/v1/workflows/"+expenseID+"/approve", financeToken, nil, http.StatusOK))
	details, _ := decided["expense"].(map[string]any)
	if details == nil || details["reimbursed"] != true {
		t.Fatalf("expected reimbursed expense, got %v", decided["expense"])
	}

	// A pending request can be withdrawn by its requester only.
	resp = postJSON(t, client, ts.URL+"/api/v1/workflows/leave", employeeToken, map[string]any{
		"leaveType": "sick",
		"startDate": "2026-11-02",
		"endDate":   "2026-11-03",
	}, http.StatusCreated)
	secondID, _ := decodeMap(t, resp)["id"].(string)
	postJSON(t, client, ts.URL+"/api/v1/workflows/"+secondID+"/cancel", managerToken, nil, http.StatusForbidden)
	cancelled := decodeMap(t, postJSON(t, client, ts.URL+"/api/v1/workflows/"+secondID+"/cancel", employeeToken, nil, http.StatusOK))
	if status, _ := cancelled["status"].(string); status != "cancelled" {
		t.Fatalf("expected cancelled, got %v", cancelled["status"])
	}
}

func TestAttendanceAndResourceJourney(t *testing.T) {
	_, ts := testApp(t)
	client := ts.Client()

	adminToken := login(t, client, ts.URL, "admin@test.local", "ChangeMe123!")

	suffix := fmt.Sprintf("%d", time.Now().UnixNano())
	userID := register(t, client, ts.URL, adminToken, "att-"+suffix, "employee")
	deptID := createDepartment(t, client, ts.URL, adminToken, "Ops-"+suffix)
	employeeID := createEmployee(t, client, ts.URL, adminToken, userID, deptID, "")

	token := login(t, client, ts.URL, "att-"+suffix+"@test.local", "Password123!")

	postJSON(t, client, ts.URL+"/api/v1/attendance/check-in", token, nil, http.StatusCreated)
	postJSON(t, client, ts.URL+"/api/v1/attendance/check-in", token, nil, http.StatusConflict)
	rec := decodeMap(t, postJSON(t, client, ts.URL+"/api/v1/attendance/check-out", token, nil, http.StatusOK))
	if rec["checkOut"] == nil {
		t.Fatal("expected check-out timestamp")
	}
	postJSON(t, client, ts.URL+"/api/v1/attendance/check-out", token, nil, http.StatusConflict)

	// Stock thresholds: 6 on the shelf, drawing 4 leaves 2 (Low Stock).
	res := decodeMap(t, postJSON(t, client, ts.URL+"/api/v1/resources", adminToken, map[string]any{
		"name":     "Laptop-" + suffix,
		"category": "hardware",
		"quantity": 6,
	}, http.StatusCreated))
	resourceID, _ := res["id"].(string)

	alloc := decodeMap(t, postJSON(t, client, ts.URL+"/api/v1/resources/"+resourceID+"/allocate", adminToken, map[string]any{
		"employeeId": employeeID,
		"quantity":   4,
	}, http.StatusCreated))
	allocationID, _ := alloc["id"].(string)

	// Over-allocation reports the shortfall.
	resp := postJSON(t, client, ts.URL+"/api/v1/resources/"+resourceID+"/allocate", adminToken, map[string]any{
		"employeeId": employeeID,
		"quantity":   10,
	}, http.StatusConflict)
	if resp.Error == nil || resp.Error.Code != "insufficient_stock" {
		t.Fatalf("expected insufficient_stock, got %+v", resp.Error)
	}

	returned := decodeMap(t, postJSON(t, client, ts.URL+"/api/v1/allocations/"+allocationID+"/return", adminToken, nil, http.StatusOK))
	if status, _ := returned["status"].(string); status != "returned" {
		t.Fatalf("expected returned allocation, got %v", returned["status"])
	}
	postJSON(t, client, ts.URL+"/api/v1/allocations/"+allocationID+"/return", adminToken, nil, http.StatusConflict)

	// A damaged return closes the allocation without crediting stock.
	alloc = decodeMap(t, postJSON(t, client, ts.URL+"/api/v1/resources/"+resourceID+"/allocate", adminToken, map[string]any{
		"employeeId": employeeID,
		"quantity":   2,
	}, http.StatusCreated))
	damagedID, _ := alloc["id"].(string)
	damaged := decodeMap(t, postJSON(t, client, ts.URL+"/api/v1/allocations/"+damagedID+"/return", adminToken, map[string]any{
		"damaged": true,
	}, http.StatusOK))
	if status, _ := damaged["status"].(string); status != "damaged" {
		t.Fatalf("expected damaged allocation, got %v", damaged["status"])
	}

	inventory := decodeMap(t, getJSON(t, client, ts.URL+"/api/v1/resources/inventory", adminToken, http.StatusOK))
	total, _ := inventory["totalResources"].(float64)
	if total < 1 {
		t.Fatalf("expected inventory lines, got %v", inventory["totalResources"])
	}
	found := false
	lines, _ := inventory["lines"].([]any)
	for _, raw := range lines {
		line, _ := raw.(map[string]any)
		if line["id"] == resourceID {
			found = true
			// 6 in, 4 out and back, 2 written off as damaged.
			if qty, _ := line["quantity"].(float64); qty != 4 {
				t.Fatalf("expected quantity 4 after damaged write-off, got %v", line["quantity"])
			}
		}
	}
	if !found {
		t.Fatalf("resource %s missing from inventory", resourceID)
	}
}

func TestPayrollAndFinanceJourney(t *testing.T) {
	_, ts := testApp(t)
	client := ts.Client()

	adminToken := login(t, client, ts.URL, "admin@test.local", "ChangeMe123!")

	suffix := fmt.Sprintf("%d", time.Now().UnixNano())
	userID := register(t, client, ts.URL, adminToken, "pay-"+suffix, "employee")
	deptID := createDepartment(t, client, ts.URL, adminToken, "Sales-"+suffix)
	employeeID := createEmployee(t, client, ts.URL, adminToken, userID, deptID, "")

	record := decodeMap(t, postJSON(t, client, ts.URL+"/api/v1/payroll/generate", adminToken, map[string]any{
		"employeeId": employeeID,
		"month":      "2026-08",
		"overtime":   200,
		"bonus":      100,
		"tax":        400,
		"insurance":  150,
	}, http.StatusCreated))
	payrollID, _ := record["id"].(string)
	if net, _ := record["netSalary"].(float64); net != 3250 {
		t.Fatalf("expected net 3250, got %v", record["netSalary"])
	}

	// One payroll per employee per month.
	postJSON(t, client, ts.URL+"/api/v1/payroll/generate", adminToken, map[string]any{
		"employeeId": employeeID,
		"month":      "2026-08",
	}, http.StatusConflict)

	paid := decodeMap(t, postJSON(t, client, ts.URL+"/api/v1/payroll/"+payrollID+"/pay", adminToken, nil, http.StatusOK))
	if status, _ := paid["status"].(string); status != "paid" {
		t.Fatalf("expected paid, got %v", paid["status"])
	}
	postJSON(t, client, ts.URL+"/api/v1/payroll/"+payrollID+"/pay", adminToken, nil, http.StatusConflict)

	// The employee can fetch their own payslip; another employee cannot.
	ownToken := login(t, client, ts.URL, "pay-"+suffix+"@test.local", "Password123!")
	payslip := getRaw(t, client, ts.URL+"/api/v1/payroll/"+payrollID+"/payslip", ownToken, http.StatusOK)
	if payslip.Header.Get("Content-Type") != "application/pdf" {
		t.Fatalf("expected pdf, got %s", payslip.Header.Get("Content-Type"))
	}
	payslip.Body.Close()

	register(t, client, ts.URL, adminToken, "other-"+suffix, "employee")
	otherToken := login(t, client, ts.URL, "other-"+suffix+"@test.local", "Password123!")
	getRaw(t, client, ts.URL+"/api/v1/payroll/"+payrollID+"/payslip", otherToken, http.StatusForbidden)

	postJSON(t, client, ts.URL+"/api/v1/finance/transactions", adminToken, map[string]any{
		"type":     "income",
		"amount":   10000,
		"category": "sales",
		"date":     "2026-08-15",
	}, http.StatusCreated)
	postJSON(t, client, ts.URL+"/api/v1/finance/transactions", adminToken, map[string]any{
		"type":     "expense",
		"amount":   2500,
		"category": "rent",
		"date":     "2026-08-20",
	}, http.StatusCreated)

	report := decodeMap(t, getJSON(t, client, ts.URL+"/api/v1/finance/report?from=2026-08-01&to=2026-08-31", adminToken, http.StatusOK))
	income, _ := report["totalIncome"].(float64)
	expenseTotal, _ := report["totalExpense"].(float64)
	if income < 10000 || expenseTotal < 2500 {
		t.Fatalf("report totals too small: income=%v expense=%v", income, expenseTotal)
	}

	// Finance endpoints reject non-finance roles.
	getRaw(t, client, ts.URL+"/api/v1/finance/report", otherToken, http.StatusForbidden)
}

func login(t *testing.T, client *http.Client, baseURL, email, password string) string {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/v1/auth/login", "", map[string]any{
		"email":    email,
		"password": password,
	}, http.StatusOK)
	payload := decodeMap(t, resp)
	token, _ := payload["token"].(string)
	if token == "" {
		t.Fatal("expected token")
	}
	return token
}

func register(t *testing.T, client *http.Client, baseURL, token, username, role string) string {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/v1/auth/register", token, map[string]any{
		"username":  username,
		"email":     username + "@test.local",
		"firstName": "Test",
		"lastName":  "User",
		"password":  "Password123!",
		"role":      role,
	}, http.StatusCreated)
	id, _ := decodeMap(t, resp)["id"].(string)
	if id == "" {
		t.Fatal("expected user id")
	}
	return id
}

func createDepartment(t *testing.T, client *http.Client, baseURL, token, name string) string {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/v1/departments", token, map[string]any{
		"name": name,
	}, http.StatusCreated)
	id, _ := decodeMap(t, resp)["id"].(string)
	if id == "" {
		t.Fatal("expected department id")
	}
	return id
}

func createEmployee(t *testing.T, client *http.Client, baseURL, token, userID, deptID, managerID string) string {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/v1/employees", token, map[string]any{
		"userId":       userID,
		"departmentId": deptID,
		"position":     "Staff",
		"hireDate":     "2025-01-15",
		"salary":       3500,
		"managerId":    managerID,
	}, http.StatusCreated)
	id, _ := decodeMap(t, resp)["id"].(string)
	if id == "" {
		t.Fatal("expected employee id")
	}
	return id
}

func postJSON(t *testing.T, client *http.Client, url, token string, body any, wantStatus int) envelope {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(http.MethodPost, url, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request %s: %v", url, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != wantStatus {
		t.Fatalf("POST %s: expected %d, got %d: %s", url, wantStatus, resp.StatusCode, raw)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("decode envelope from %s: %v", url, err)
	}
	return env
}

func getJSON(t *testing.T, client *http.Client, url, token string, wantStatus int) envelope {
	t.Helper()
	resp := getRaw(t, client, url, token, wantStatus)
	defer resp.Body.Close()
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope from %s: %v", url, err)
	}
	return env
}

func getRaw(t *testing.T, client *http.Client, url, token string, wantStatus int) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request %s: %v", url, err)
	}
	if resp.StatusCode != wantStatus {
		raw, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Fatalf("GET %s: expected %d, got %d: %s", url, wantStatus, resp.StatusCode, raw)
	}
	return resp
}

func decodeMap(t *testing.T, env envelope) map[string]any {
	t.Helper()
	payload := map[string]any{}
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	return payload
}
