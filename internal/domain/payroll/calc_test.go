package payroll

import "testing"

func TestNetSalary(t *testing.T) {
	cases := []struct {
		name string
		in   Components
		want float64
	}{
		{
			name: "base only",
			in:   Components{BaseSalary: 5000},
			want: 5000,
		},
		{
			name: "earnings and deductions",
			in:   Components{BaseSalary: 5000, Overtime: 320.50, Bonus: 1000, Tax: 950.25, Insurance: 210, Other: 60},
			want: 5100.25,
		},
		{
			name: "deductions exceed earnings",
			in:   Components{BaseSalary: 1000, Tax: 800, Insurance: 300},
			want: -100,
		},
		{
			name: "rounds to cents",
			in:   Components{BaseSalary: 100.005},
			want: 100.01,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NetSalary(tc.in); got != tc.want {
				t.Fatalf("NetSalary = %v, want %v", got, tc.want)
			}
		})
	}
}
