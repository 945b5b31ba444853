// Command apitest runs smoke tests against a running lunisolar API.
//
// Usage:
//
//	go run ./cmd/apitest -url http://localhost:8080 -key $API_KEY
//
// Expected values assume the server computes events with the Meeus
// ephemeris, which places new moons and solar terms within minutes.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// =============================================================================
// Response Types - Match the actual API response structure
// =============================================================================

type APIResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *ErrorInfo      `json:"error,omitempty"`
}

type ErrorInfo struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ConvertResponse is the response for /lunisolar/convert
type ConvertResponse struct {
	Instant time.Time     `json:"instant"`
	Zone    string        `json:"zone"`
	Text    string        `json:"text"`
	Pillars [4]string     `json:"pillars"`
	Date    LunisolarDate `json:"date"`
}

type LunisolarDate struct {
	LunarYear   int    `json:"lunar_year"`
	LunarMonth  int    `json:"lunar_month"`
	LunarDay    int    `json:"lunar_day"`
	IsLeapMonth bool   `json:"is_leap_month"`
	MonthName   string `json:"month_name"`
	DayName     string `json:"day_name"`
	Zodiac      string `json:"zodiac"`
}

type BatchResponse struct {
	Zone    string `json:"zone"`
	Failed  int    `json:"failed"`
	Results []struct {
		Input  string           `json:"input"`
		Result *ConvertResponse `json:"result"`
		Error  *ErrorInfo       `json:"error"`
	} `json:"results"`
}

type MonthsResponse struct {
	LunarYear int `json:"lunar_year"`
	Months    []struct {
		Month  int    `json:"month"`
		IsLeap bool   `json:"is_leap"`
		Name   string `json:"name"`
		Days   int    `json:"days"`
	} `json:"months"`
	Report struct {
		LeapMonth int      `json:"leap_month"`
		Problems  []string `json:"problems"`
	} `json:"report"`
}

type TermsResponse struct {
	Year  int `json:"year"`
	Terms []struct {
		Index int    `json:"index"`
		Date  string `json:"date"`
	} `json:"terms"`
}

// HealthResponse is the response for /health
type HealthResponse struct {
	Status string `json:"status"`
	Cache  *struct {
		Years int `json:"years"`
	} `json:"cache"`
}

// =============================================================================
// Test Runner
// =============================================================================

type TestRunner struct {
	baseURL      string
	apiKey       string
	client       *http.Client
	verbose      bool
	successCount int
	errorCount   int
	errors       []string
}

func NewTestRunner(baseURL, apiKey string, verbose bool) *TestRunner {
	return &TestRunner{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
		verbose: verbose,
	}
}

func (tr *TestRunner) Run() {
	fmt.Println("==============================================")
	fmt.Println("Lunisolar API Test Suite")
	fmt.Println("==============================================")
	fmt.Printf("Base URL: %s\n", tr.baseURL)
	fmt.Println()

	tr.testHealth()
	tr.testKnownDates()
	tr.testPillars()
	tr.testQueryZone()
	tr.testBatch()
	tr.testTables()
	tr.testEdgeCases()

	tr.printSummary()
}

// =============================================================================
// Test Groups
// =============================================================================

func (tr *TestRunner) testHealth() {
	tr.printSection("Health Check")

	var health HealthResponse
	if err := tr.get("/health", &health); err != nil {
		tr.recordError("Health", err.Error())
		return
	}

	if health.Status != "healthy" {
		tr.recordError("Health", fmt.Sprintf("Unexpected status: %s", health.Status))
		return
	}
	if health.Cache != nil {
		tr.recordSuccess(fmt.Sprintf("Health check passed (%d years cached)", health.Cache.Years))
	} else {
		tr.recordSuccess("Health check passed (cache disabled)")
	}
}

func (tr *TestRunner) testKnownDates() {
	tr.printSection("Known Dates (UTC+8, noon)")

	testCases := []struct {
		date        string
		year, month int
		day         int
		leap        bool
		description string
	}{
		{"2024-02-10", 2024, 1, 1, false, "Lunar New Year 2024"},
		{"2025-01-29", 2025, 1, 1, false, "Lunar New Year 2025"},
		{"2025-01-28", 2024, 12, 29, false, "New Year's Eve 2025"},
		{"2024-01-20", 2023, 12, 10, false, "Month 12 before the January rollover"},
		{"2023-03-21", 2023, 2, 30, false, "Last day of month 2, 2023"},
		{"2023-04-01", 2023, 2, 11, true, "Leap month 2, 2023"},
		{"2025-08-01", 2025, 6, 8, true, "Leap month 6, 2025"},
	}

	for _, tc := range testCases {
		var data ConvertResponse
		if err := tr.get("/api/v1/lunisolar/convert?tz=%2B08:00&date="+tc.date, &data); err != nil {
			tr.recordError(tc.date, err.Error())
			continue
		}

		d := data.Date
		if d.LunarYear == tc.year && d.LunarMonth == tc.month && d.LunarDay == tc.day && d.IsLeapMonth == tc.leap {
			tr.recordSuccess(fmt.Sprintf("%s: %s (%s)", tc.date, data.Text, tc.description))
		} else {
			tr.recordError(tc.date, fmt.Sprintf("Expected %d/%d/%d leap=%v, got %d/%d/%d leap=%v",
				tc.year, tc.month, tc.day, tc.leap, d.LunarYear, d.LunarMonth, d.LunarDay, d.IsLeapMonth))
		}
	}
}

func (tr *TestRunner) testPillars() {
	tr.printSection("Four Pillars")

	testCases := []struct {
		query string
		want  [4]string
	}{
		{"date=2024-02-10&time=12:00", [4]string{"甲辰", "丙寅", "甲辰", "庚午"}},
		{"date=2024-02-10&time=23:30", [4]string{"甲辰", "丙寅", "甲辰", "丙子"}},
	}

	for _, tc := range testCases {
		var data ConvertResponse
		if err := tr.get("/api/v1/lunisolar/convert?tz=%2B08:00&"+tc.query, &data); err != nil {
			tr.recordError(tc.query, err.Error())
			continue
		}
		if data.Pillars == tc.want {
			tr.recordSuccess(fmt.Sprintf("%s: %s", tc.query, strings.Join(data.Pillars[:], " ")))
		} else {
			tr.recordError(tc.query, fmt.Sprintf("Expected %v, got %v", tc.want, data.Pillars))
		}
	}
}

func (tr *TestRunner) testQueryZone() {
	tr.printSection("Query Time Zone")

	// 23:30 in New York is already the New Year in Beijing, but the local
	// date is still New Year's Eve.
	var data ConvertResponse
	path := "/api/v1/lunisolar/convert?date=2024-02-09&time=23:30&tz=America/New_York"
	if err := tr.get(path, &data); err != nil {
		tr.recordError("New York", err.Error())
		return
	}
	if data.Date.LunarYear == 2023 && data.Date.LunarMonth == 12 && data.Date.LunarDay == 30 {
		tr.recordSuccess(fmt.Sprintf("New York 2024-02-09 23:30: %s", data.Text))
	} else {
		tr.recordError("New York", fmt.Sprintf("Expected 2023/12/30, got %d/%d/%d",
			data.Date.LunarYear, data.Date.LunarMonth, data.Date.LunarDay))
	}
}

func (tr *TestRunner) testBatch() {
	tr.printSection("Batch")

	body := map[string]interface{}{
		"tz":       "+08:00",
		"instants": []string{"2024-02-10", "not-a-date", "2025-01-29T04:00:00Z"},
	}
	var data BatchResponse
	if err := tr.post("/api/v1/lunisolar/batch", body, &data); err != nil {
		tr.recordError("Batch", err.Error())
		return
	}

	if len(data.Results) != 3 || data.Failed != 1 {
		tr.recordError("Batch", fmt.Sprintf("Expected 3 results with 1 failure, got %d/%d", len(data.Results), data.Failed))
		return
	}
	tr.recordSuccess("Batch preserved order and isolated the bad input")

	for _, r := range data.Results {
		if r.Result != nil && r.Result.Date.LunarDay != 1 {
			tr.recordError("Batch "+r.Input, fmt.Sprintf("Expected day 1, got %d", r.Result.Date.LunarDay))
		}
	}
}

func (tr *TestRunner) testTables() {
	tr.printSection("Tables")

	var terms TermsResponse
	if err := tr.get("/api/v1/solar-terms/2024", &terms); err != nil {
		tr.recordError("Solar terms", err.Error())
	} else if len(terms.Terms) != 24 {
		tr.recordError("Solar terms", fmt.Sprintf("Expected 24 terms, got %d", len(terms.Terms)))
	} else {
		tr.recordSuccess("Solar terms 2024: 24 terms")
	}

	for _, tc := range []struct{ year, leap int }{{2023, 2}, {2024, 0}, {2025, 6}} {
		var months MonthsResponse
		if err := tr.get(fmt.Sprintf("/api/v1/months/%d", tc.year), &months); err != nil {
			tr.recordError(fmt.Sprintf("Months %d", tc.year), err.Error())
			continue
		}
		if months.Report.LeapMonth != tc.leap || len(months.Report.Problems) > 0 {
			tr.recordError(fmt.Sprintf("Months %d", tc.year), fmt.Sprintf("leap %d, problems %v",
				months.Report.LeapMonth, months.Report.Problems))
			continue
		}
		tr.recordSuccess(fmt.Sprintf("Months %d: %d months, leap %d", tc.year, len(months.Months), tc.leap))
		if tr.verbose {
			for _, m := range months.Months {
				fmt.Printf("    %-6s %d days\n", m.Name, m.Days)
			}
		}
	}

	var cycle struct {
		Name string `json:"name"`
	}
	if err := tr.get("/api/v1/sexagenary/"+url.PathEscape("甲辰"), &cycle); err != nil || cycle.Name != "甲辰" {
		tr.recordError("Sexagenary", fmt.Sprintf("lookup of 甲辰 failed: %v", err))
	} else {
		tr.recordSuccess("Sexagenary lookup by name")
	}
}

func (tr *TestRunner) testEdgeCases() {
	tr.printSection("Edge Cases")

	testCases := []struct {
		path   string
		status int
		desc   string
	}{
		{"/api/v1/lunisolar/convert", 400, "Missing input rejected"},
		{"/api/v1/lunisolar/convert?date=2024-02-30", 400, "Invalid date rejected"},
		{"/api/v1/lunisolar/convert?date=2024-02-10&tz=Nowhere/City", 400, "Unknown zone rejected"},
		{"/api/v1/months/abc", 400, "Invalid year rejected"},
		{"/api/v1/sexagenary/61", 404, "Unknown cycle rejected"},
		{"/api/v1/holidays/today", 404, "Unknown route rejected"},
	}

	for _, tc := range testCases {
		resp, err := tr.getRaw(tc.path)
		if err != nil {
			tr.recordError(tc.desc, err.Error())
			continue
		}
		resp.Body.Close()
		if resp.StatusCode == tc.status {
			tr.recordSuccess(tc.desc)
		} else {
			tr.recordError(tc.desc, fmt.Sprintf("Expected HTTP %d, got %d", tc.status, resp.StatusCode))
		}
	}
}

// =============================================================================
// Helper Methods
// =============================================================================

func (tr *TestRunner) get(path string, target interface{}) error {
	resp, err := tr.getRaw(path)
	if err != nil {
		return err
	}
	return decode(resp, target)
}

func (tr *TestRunner) post(path string, body, target interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, tr.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if tr.apiKey != "" {
		req.Header.Set("X-API-Key", tr.apiKey)
	}
	resp, err := tr.client.Do(req)
	if err != nil {
		return err
	}
	return decode(resp, target)
}

func (tr *TestRunner) getRaw(path string) (*http.Response, error) {
	return tr.client.Get(tr.baseURL + path)
}

// decode unwraps the response envelope into target.
func decode(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read error: %w", err)
	}

	var apiResp APIResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return fmt.Errorf("parse error: %w", err)
	}

	if !apiResp.Success {
		errMsg := "unknown error"
		if apiResp.Error != nil {
			errMsg = apiResp.Error.Code + ": " + apiResp.Error.Message
		}
		return fmt.Errorf("API error (HTTP %d): %s", resp.StatusCode, errMsg)
	}

	return json.Unmarshal(apiResp.Data, target)
}

func (tr *TestRunner) printSection(name string) {
	fmt.Println()
	fmt.Printf("--- %s ---\n", name)
	fmt.Println()
}

func (tr *TestRunner) recordSuccess(msg string) {
	tr.successCount++
	fmt.Printf("  ✓ %s\n", msg)
}

func (tr *TestRunner) recordError(context, msg string) {
	tr.errorCount++
	errStr := fmt.Sprintf("%s: %s", context, msg)
	tr.errors = append(tr.errors, errStr)
	fmt.Printf("  ✗ %s\n", errStr)
}

func (tr *TestRunner) printSummary() {
	fmt.Println()
	fmt.Println("==============================================")
	fmt.Println("Summary")
	fmt.Println("==============================================")
	fmt.Printf("  Passed: %d\n", tr.successCount)
	fmt.Printf("  Failed: %d\n", tr.errorCount)
	fmt.Println()

	if tr.errorCount > 0 {
		fmt.Println("Failures:")
		for _, err := range tr.errors {
			fmt.Printf("  • %s\n", err)
		}
		fmt.Println()
		fmt.Printf("Tests completed with %d failure(s)\n", tr.errorCount)
		return
	}

	fmt.Println("All tests passed! ✓")
}

// =============================================================================
// Main
// =============================================================================

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Base URL of the API")
	apiKey := flag.String("key", os.Getenv("API_KEY"), "API key for the batch endpoint")
	verbose := flag.Bool("v", false, "Verbose output (show month tables)")
	flag.Parse()

	// Check if server is reachable
	client := &http.Client{Timeout: 2 * time.Second}
	if _, err := client.Get(*baseURL + "/health"); err != nil {
		fmt.Printf("Error: Cannot connect to %s\n", *baseURL)
		fmt.Println("Make sure the API server is running.")
		os.Exit(1)
	}

	runner := NewTestRunner(*baseURL, *apiKey, *verbose)
	runner.Run()

	// Exit with error code if tests failed
	if runner.errorCount > 0 {
		os.Exit(1)
	}
}
