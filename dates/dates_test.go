package dates

import (
	"testing"
	"time"
)

func TestResolve(t *testing.T) {
	now := time.Date(2024, time.July, 3, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		token string
		want  string
	}{
		{token: "t", want: "03/07/24"},
		{token: "T", want: "03/07/24"},
		{token: "today", want: "03/07/24"},
		{token: "y", want: "02/07/24"},
		{token: "yesterday", want: "02/07/24"},
		{token: "25/12/23", want: "25/12/23"},
		{token: " 25/12/23 ", want: "25/12/23"},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			if got := Resolve(tt.token, now); got != tt.want {
				t.Fatalf("Resolve(%q) = %q, want %q", tt.token, got, tt.want)
			}
		})
	}
}

func TestResolveYesterdayIsTodayMinusOneDay(t *testing.T) {
	// First of the month: yesterday must roll back into the prior month.
	now := time.Date(2024, time.March, 1, 8, 0, 0, 0, time.UTC)
	if got := Resolve("y", now); got != "29/02/24" {
		t.Fatalf("Resolve(\"y\") = %q, want 29/02/24", got)
	}

	today, err := time.Parse(Layout, Resolve("t", now))
	if err != nil {
		t.Fatal(err)
	}
	yesterday, err := time.Parse(Layout, Resolve("y", now))
	if err != nil {
		t.Fatal(err)
	}
	if diff := today.Sub(yesterday); diff != 24*time.Hour {
		t.Fatalf("today-yesterday = %v, want 24h", diff)
	}
}

func TestYearSheetName(t *testing.T) {
	if got := YearSheetName("03/07/24"); got != "2024" {
		t.Fatalf("YearSheetName = %q, want 2024", got)
	}
	if got := YearSheetName("31/12/19"); got != "2019" {
		t.Fatalf("YearSheetName = %q, want 2019", got)
	}
}

func TestSplit(t *testing.T) {
	parts, err := Split("03/07/24")
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if parts.Year != "2024" || parts.Month != "7" || parts.Day != "3" {
		t.Fatalf("Split = %+v, want {2024 7 3}", parts)
	}

	parts, err = Split("25/12/23")
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if parts.Year != "2023" || parts.Month != "12" || parts.Day != "25" {
		t.Fatalf("Split = %+v, want {2023 12 25}", parts)
	}

	if _, err := Split("not-a-date"); err == nil {
		t.Fatalf("Split should reject malformed dates")
	}
	if _, err := Split("2024-07-03"); err == nil {
		t.Fatalf("Split should reject ISO dates")
	}
}

func TestMonthName(t *testing.T) {
	tests := []struct {
		month int
		want  string
	}{
		{1, "January"},
		{7, "July"},
		{12, "December"},
		{0, ""},
		{13, ""},
	}
	for _, tt := range tests {
		if got := MonthName(tt.month); got != tt.want {
			t.Fatalf("MonthName(%d) = %q, want %q", tt.month, got, tt.want)
		}
	}
}
