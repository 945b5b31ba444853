package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/zapponejosh/lunisolar-api/internal/ephemeris"
	"github.com/zapponejosh/lunisolar-api/internal/ephemeris/ephemeristest"
)

// execute runs the command tree against the linear-motion gateway.
func execute(t *testing.T, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	root := NewRootCommand(ephemeris.NewFinder(ephemeristest.New()))
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	err = root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

type jsonResult struct {
	Input string `json:"input"`
	Zone  string `json:"zone"`
	Error string `json:"error"`
	Date  *struct {
		LunarYear  int    `json:"lunar_year"`
		LunarMonth int    `json:"lunar_month"`
		LunarDay   int    `json:"lunar_day"`
		LocalDate  string `json:"local_date"`
		LocalHour  int    `json:"local_hour"`
	} `json:"date"`
}

func TestConvertJSON(t *testing.T) {
	at := ephemeristest.New().NewMoon(50).Add(5 * 24 * time.Hour)

	out, _, err := execute(t, "", "convert", at.Format(time.RFC3339Nano), "--tz", "+08:00", "--json")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}

	var res jsonResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if res.Date == nil || res.Date.LunarDay != 6 {
		t.Errorf("result = %+v, want lunar day 6", res)
	}
	if res.Zone != "+08:00" {
		t.Errorf("Zone = %q", res.Zone)
	}
}

func TestConvertZoneFromEnvironment(t *testing.T) {
	t.Setenv("DEFAULT_TIMEZONE", "+09:00")

	out, _, err := execute(t, "", "convert", "2004-06-15", "--json")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}

	var res jsonResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if res.Zone != "+09:00" {
		t.Errorf("Zone = %q, want +09:00 from DEFAULT_TIMEZONE", res.Zone)
	}
}

func TestConvertText(t *testing.T) {
	out, _, err := execute(t, "", "convert", "2004-06-15", "--time", "23:30", "--tz", "+08:00")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	for _, want := range []string{"2004-06-15 23:30", "lunar", "pillars", "zodiac"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestConvertRejects(t *testing.T) {
	tests := [][]string{
		{"convert", "--time", "08:00"},
		{"convert", "not-a-date"},
		{"convert", "2004-06-15", "--tz", "Mars/Olympus"},
		{"convert", "2004-06-15", "--workers", "0"},
		{"convert", "a", "b"},
	}
	for _, args := range tests {
		if _, _, err := execute(t, "", args...); err == nil {
			t.Errorf("%v succeeded", args)
		}
	}
}

func TestBatchYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.yaml")
	yml := `tz: "+08:00"
instants:
  - "2004-06-15"
  - "garbage"
  - "2004-06-15T04:00:00Z"
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}

	out, errOut, err := execute(t, "", "batch", "--file", path, "--json")
	if err != nil {
		t.Fatalf("batch: %v", err)
	}

	var results []jsonResult
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results", len(results))
	}
	if results[0].Date == nil || results[0].Date.LocalDate != "2004-06-15" || results[0].Date.LocalHour != 12 {
		t.Errorf("result 0 = %+v", results[0])
	}
	if results[1].Error == "" || results[1].Input != "garbage" {
		t.Errorf("result 1 = %+v", results[1])
	}
	// 04:00Z is 12:00 at UTC+8, the same local moment as the bare date.
	if results[2].Date == nil || *results[2].Date != *results[0].Date {
		t.Errorf("result 2 = %+v, want it to match result 0", results[2])
	}
	if !strings.Contains(errOut, "converted 2, failed 1") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestBatchJSONStdin(t *testing.T) {
	out, _, err := execute(t, `{"instants": ["2004-06-15", "2004-06-16"]}`, "batch", "-f", "-")
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "2004-06-15") {
		t.Errorf("output:\n%s", out)
	}
}

func TestBatchEmptyFile(t *testing.T) {
	if _, _, err := execute(t, "tz: UTC\n", "batch", "--file", "-"); err == nil {
		t.Error("empty batch accepted")
	}
}

func TestTerms(t *testing.T) {
	out, _, err := execute(t, "", "terms", "2004", "--json")
	if err != nil {
		t.Fatalf("terms: %v", err)
	}
	var terms []struct {
		Index     int  `json:"index"`
		Principal bool `json:"principal"`
	}
	if err := json.Unmarshal([]byte(out), &terms); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(terms) != 24 {
		t.Errorf("got %d terms, want 24", len(terms))
	}

	text, _, err := execute(t, "", "terms", "2004")
	if err != nil {
		t.Fatalf("terms: %v", err)
	}
	if !strings.Contains(text, "冬至 *") || !strings.Contains(text, "Winter Solstice") {
		t.Errorf("text output:\n%s", text)
	}
}

func TestMonths(t *testing.T) {
	out, _, err := execute(t, "", "months", "2004")
	if err != nil {
		t.Fatalf("months: %v", err)
	}
	for _, want := range []string{"2004 甲申年", "MONTH", "正月", "months,"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "problem:") {
		t.Errorf("unexpected problems:\n%s", out)
	}
}

func TestCycle(t *testing.T) {
	out, _, err := execute(t, "", "cycle", "甲辰")
	if err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if !strings.HasPrefix(out, "41 甲辰") || !strings.Contains(out, "Dragon") {
		t.Errorf("output = %q", out)
	}

	if _, _, err := execute(t, "", "cycle", "0"); err == nil {
		t.Error("cycle 0 accepted")
	}
}

func TestSweep(t *testing.T) {
	out, _, err := execute(t, "", "sweep", "--from", "2001", "--to", "2003")
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines:\n%s", len(lines), out)
	}
	for _, l := range lines[1:] {
		if !strings.HasSuffix(strings.TrimSpace(l), "ok") {
			t.Errorf("year failed: %s", l)
		}
	}

	if _, _, err := execute(t, "", "sweep", "--from", "2003", "--to", "2001"); err == nil {
		t.Error("reversed range accepted")
	}
}
