// Command coverage converts every day of a Gregorian year range through a
// running API and checks that consecutive days form an unbroken lunisolar
// calendar.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"
)

// APIResponse matches the API response structure
type APIResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *ErrorInfo      `json:"error,omitempty"`
}

type ErrorInfo struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type BatchResponse struct {
	Results []struct {
		Input  string `json:"input"`
		Result *struct {
			Date LunarDate `json:"date"`
		} `json:"result"`
		Error *ErrorInfo `json:"error"`
	} `json:"results"`
}

type LunarDate struct {
	LunarYear   int  `json:"lunar_year"`
	LunarMonth  int  `json:"lunar_month"`
	LunarDay    int  `json:"lunar_day"`
	IsLeapMonth bool `json:"is_leap_month"`
	MonthDays   int  `json:"month_days"`
	DayCycle    struct {
		Number int `json:"number"`
	} `json:"day_cycle"`
}

// TestResult holds the result for a single date
type TestResult struct {
	Date      string `json:"date"`
	Success   bool   `json:"success"`
	LunarYear int    `json:"lunar_year,omitempty"`
	Lunar     string `json:"lunar,omitempty"`
	Error     string `json:"error,omitempty"`

	date *LunarDate
}

// YearStats tracks statistics for each lunar year
type YearStats struct {
	LunarYear   int      `json:"lunar_year"`
	TotalDays   int      `json:"total_days"`
	SuccessDays int      `json:"success_days"`
	FailedDays  int      `json:"failed_days"`
	FailedDates []string `json:"failed_dates,omitempty"`
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Base URL of the API")
	apiKey := flag.String("key", os.Getenv("API_KEY"), "API key for the batch endpoint")
	startYear := flag.Int("start", 2024, "Start year")
	years := flag.Int("years", 4, "Number of years to test")
	chunk := flag.Int("chunk", 366, "Dates per batch request (at most the server's MAX_BATCH_SIZE)")
	verbose := flag.Bool("v", false, "Verbose output (show each date)")
	outputFile := flag.String("o", "", "Output results to JSON file")
	flag.Parse()

	endYear := *startYear + *years - 1

	fmt.Println("================================================================")
	fmt.Println("Lunisolar API - Calendar Continuity Test")
	fmt.Println("================================================================")
	fmt.Printf("Base URL:    %s\n", *baseURL)
	fmt.Printf("Date Range:  %d-01-01 to %d-12-31\n", *startYear, endYear)
	fmt.Printf("Total Years: %d\n", *years)
	fmt.Println()

	// Check if server is reachable
	client := &http.Client{Timeout: 5 * time.Second}
	_, err := client.Get(*baseURL + "/health")
	if err != nil {
		fmt.Printf("Error: Cannot connect to %s\n", *baseURL)
		fmt.Println("Make sure the API server is running.")
		os.Exit(1)
	}
	client.Timeout = 5 * time.Minute

	var dates []string
	for d := time.Date(*startYear, 1, 1, 0, 0, 0, 0, time.UTC); d.Year() <= endYear; d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format("2006-01-02"))
	}
	fmt.Printf("Testing %d days...\n\n", len(dates))

	results := convertAll(client, *baseURL, *apiKey, dates, *chunk)
	checkContinuity(results)

	if *verbose {
		for _, r := range results {
			status := "✓"
			if !r.Success {
				status = "✗"
			}
			fmt.Printf("  %s %s: %s\n", status, r.Date, r.Lunar)
			if !r.Success {
				fmt.Printf("      Error: %s\n", r.Error)
			}
		}
		fmt.Println()
	}

	analysis := analyzeResults(results)
	printSummary(analysis)
	printFailuresByYear(analysis)
	printAllFailures(analysis)

	// Output to file if requested
	if *outputFile != "" {
		saveResults(*outputFile, analysis)
	}

	if analysis.TotalFailed > 0 {
		os.Exit(1)
	}
}

// convertAll posts dates to the batch endpoint in chunks, at noon UTC+8.
func convertAll(client *http.Client, baseURL, apiKey string, dates []string, chunk int) []TestResult {
	if chunk < 1 {
		chunk = 1
	}
	results := make([]TestResult, 0, len(dates))

	for start := 0; start < len(dates); start += chunk {
		end := min(start+chunk, len(dates))
		part := dates[start:end]

		batch, err := postBatch(client, baseURL, apiKey, part)
		if err == nil && len(batch.Results) != len(part) {
			err = fmt.Errorf("got %d results for %d dates", len(batch.Results), len(part))
		}
		if err != nil {
			for _, d := range part {
				results = append(results, TestResult{Date: d, Error: err.Error()})
			}
			continue
		}

		for i, item := range batch.Results {
			r := TestResult{Date: part[i]}
			switch {
			case item.Error != nil:
				r.Error = item.Error.Code + ": " + item.Error.Message
			case item.Result == nil:
				r.Error = "No result in response"
			default:
				d := item.Result.Date
				r.Success = true
				r.date = &d
				r.LunarYear = d.LunarYear
				r.Lunar = formatLunar(d)
			}
			results = append(results, r)
		}

		fmt.Printf("  Progress: %d%% (%d/%d)\n", end*100/len(dates), end, len(dates))
	}

	fmt.Println()
	return results
}

func postBatch(client *http.Client, baseURL, apiKey string, dates []string) (*BatchResponse, error) {
	body, err := json.Marshal(map[string]interface{}{"tz": "+08:00", "instants": dates})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/api/v1/lunisolar/batch", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Connection error: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("Read error: %v", err)
	}

	var apiResp APIResponse
	if err := json.Unmarshal(raw, &apiResp); err != nil {
		return nil, fmt.Errorf("Parse error: %v", err)
	}
	if !apiResp.Success {
		errMsg := "Unknown error"
		if apiResp.Error != nil {
			errMsg = apiResp.Error.Message
		}
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, errMsg)
	}

	var batch BatchResponse
	if err := json.Unmarshal(apiResp.Data, &batch); err != nil {
		return nil, fmt.Errorf("Data parse error: %v", err)
	}
	return &batch, nil
}

// checkContinuity marks each day that does not follow from the day before.
func checkContinuity(results []TestResult) {
	for i := 1; i < len(results); i++ {
		prev, cur := results[i-1].date, results[i].date
		if prev == nil || cur == nil {
			continue
		}
		if msg := nextDayProblem(*prev, *cur); msg != "" {
			results[i].Success = false
			results[i].Error = msg
		}
	}
}

func nextDayProblem(prev, cur LunarDate) string {
	if want := prev.DayCycle.Number%60 + 1; cur.DayCycle.Number != want {
		return fmt.Sprintf("day cycle %d follows %d", cur.DayCycle.Number, prev.DayCycle.Number)
	}
	if cur.MonthDays != 29 && cur.MonthDays != 30 {
		return fmt.Sprintf("month of %d days", cur.MonthDays)
	}

	if cur.LunarDay != 1 {
		same := cur.LunarYear == prev.LunarYear && cur.LunarMonth == prev.LunarMonth && cur.IsLeapMonth == prev.IsLeapMonth
		if !same || cur.LunarDay != prev.LunarDay+1 {
			return fmt.Sprintf("%s follows %s", formatLunar(cur), formatLunar(prev))
		}
		return ""
	}

	if prev.LunarDay != prev.MonthDays {
		return fmt.Sprintf("month ended on day %d of %d", prev.LunarDay, prev.MonthDays)
	}
	switch {
	case !prev.IsLeapMonth && cur.IsLeapMonth && cur.LunarMonth == prev.LunarMonth && cur.LunarYear == prev.LunarYear:
	case !cur.IsLeapMonth && cur.LunarMonth == prev.LunarMonth+1 && cur.LunarYear == prev.LunarYear:
	case !cur.IsLeapMonth && cur.LunarMonth == 1 && prev.LunarMonth >= 11 && cur.LunarYear == prev.LunarYear+1:
	default:
		return fmt.Sprintf("month %s follows %s", formatLunar(cur), formatLunar(prev))
	}
	return ""
}

func formatLunar(d LunarDate) string {
	leap := ""
	if d.IsLeapMonth {
		leap = "L"
	}
	return fmt.Sprintf("%d/%d%s/%d", d.LunarYear, d.LunarMonth, leap, d.LunarDay)
}

// Analysis holds the analyzed results
type Analysis struct {
	TotalDays    int
	TotalSuccess int
	TotalFailed  int
	ByYear       map[int]*YearStats
	AllFailures  []TestResult
}

func analyzeResults(results []TestResult) *Analysis {
	analysis := &Analysis{
		ByYear: make(map[int]*YearStats),
	}

	for _, r := range results {
		analysis.TotalDays++

		// Unresolved days are grouped under lunar year 0.
		year := r.LunarYear
		if _, ok := analysis.ByYear[year]; !ok {
			analysis.ByYear[year] = &YearStats{LunarYear: year}
		}
		stats := analysis.ByYear[year]
		stats.TotalDays++

		if r.Success {
			analysis.TotalSuccess++
			stats.SuccessDays++
		} else {
			analysis.TotalFailed++
			stats.FailedDays++
			stats.FailedDates = append(stats.FailedDates, r.Date)
			analysis.AllFailures = append(analysis.AllFailures, r)
		}
	}

	return analysis
}

func (a *Analysis) sortedYears() []*YearStats {
	years := make([]*YearStats, 0, len(a.ByYear))
	for _, s := range a.ByYear {
		years = append(years, s)
	}
	sort.Slice(years, func(i, j int) bool { return years[i].LunarYear < years[j].LunarYear })
	return years
}

func printSummary(analysis *Analysis) {
	fmt.Println("================================================================")
	fmt.Println("SUMMARY")
	fmt.Println("================================================================")
	fmt.Printf("Total Days Tested: %d\n", analysis.TotalDays)
	fmt.Printf("Successful:        %d (%.1f%%)\n", analysis.TotalSuccess,
		float64(analysis.TotalSuccess)/float64(analysis.TotalDays)*100)
	fmt.Printf("Failed:            %d (%.1f%%)\n", analysis.TotalFailed,
		float64(analysis.TotalFailed)/float64(analysis.TotalDays)*100)
	fmt.Println()

	fmt.Println("By Lunar Year:")
	for _, stats := range analysis.sortedYears() {
		status := "✓"
		if stats.FailedDays > 0 {
			status = "✗"
		}
		label := fmt.Sprint(stats.LunarYear)
		if stats.LunarYear == 0 {
			label = "(unresolved)"
		}
		fmt.Printf("  %s %s: %d/%d days\n", status, label, stats.SuccessDays, stats.TotalDays)
	}
	fmt.Println()
}

func printFailuresByYear(analysis *Analysis) {
	if analysis.TotalFailed == 0 {
		fmt.Println("No failures! 🎉")
		return
	}

	fmt.Println("================================================================")
	fmt.Println("FAILURES BY LUNAR YEAR")
	fmt.Println("================================================================")

	for _, stats := range analysis.sortedYears() {
		if stats.FailedDays == 0 {
			continue
		}
		fmt.Printf("\n%d: %d failures\n", stats.LunarYear, stats.FailedDays)
		for i, date := range stats.FailedDates {
			if i >= 5 {
				fmt.Printf("  ... and %d more\n", len(stats.FailedDates)-5)
				break
			}
			fmt.Printf("  - %s\n", date)
		}
	}
	fmt.Println()
}

func printAllFailures(analysis *Analysis) {
	if analysis.TotalFailed == 0 {
		return
	}

	if analysis.TotalFailed > 50 {
		fmt.Printf("(Showing first 50 of %d failures)\n\n", analysis.TotalFailed)
	}

	fmt.Println("================================================================")
	fmt.Println("ALL FAILURES (Date | Lunar | Error)")
	fmt.Println("================================================================")

	// Group by error type
	errorGroups := make(map[string][]TestResult)
	var order []string
	for _, f := range analysis.AllFailures {
		key := f.Error
		if i := strings.Index(key, " follows "); i > 0 {
			key = "discontinuity"
		}
		if _, ok := errorGroups[key]; !ok {
			order = append(order, key)
		}
		errorGroups[key] = append(errorGroups[key], f)
	}

	shown := 0
	for _, errorType := range order {
		failures := errorGroups[errorType]
		fmt.Printf("\nError: %s (%d occurrences)\n", errorType, len(failures))
		for _, f := range failures {
			if shown >= 50 {
				break
			}
			fmt.Printf("  %s | %s | %s\n", f.Date, f.Lunar, f.Error)
			shown++
		}
		if shown >= 50 {
			break
		}
	}
	fmt.Println()
}

func saveResults(filename string, analysis *Analysis) {
	output := struct {
		GeneratedAt string                 `json:"generated_at"`
		Summary     map[string]interface{} `json:"summary"`
		ByYear      []*YearStats           `json:"by_lunar_year"`
		Failures    []TestResult           `json:"failures"`
	}{
		GeneratedAt: time.Now().Format(time.RFC3339),
		Summary: map[string]interface{}{
			"total_days":    analysis.TotalDays,
			"total_success": analysis.TotalSuccess,
			"total_failed":  analysis.TotalFailed,
			"success_rate":  fmt.Sprintf("%.2f%%", float64(analysis.TotalSuccess)/float64(analysis.TotalDays)*100),
		},
		ByYear:   analysis.sortedYears(),
		Failures: analysis.AllFailures,
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		fmt.Printf("Error marshaling results: %v\n", err)
		return
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		fmt.Printf("Error writing file: %v\n", err)
		return
	}

	fmt.Printf("Results saved to: %s\n", filename)
}
