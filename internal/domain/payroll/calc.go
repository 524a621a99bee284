package payroll

// Components are the inputs to a month's pay.
type Components struct {
	BaseSalary float64
	Overtime   float64
	Bonus      float64
	Tax        float64
	Insurance  float64
	Other      float64
}

// NetSalary is earnings minus deductions, rounded to cents so repeated
// generations of the same inputs always land on the same figure.
func NetSalary(c Components) float64 {
	net := c.BaseSalary + c.Overtime + c.Bonus - c.Tax - c.Insurance - c.Other
	return roundCents(net)
}

func roundCents(v float64) float64 {
	cents := v * 100
	if cents >= 0 {
		cents += 0.5
	} else {
		cents -= 0.5
	}
	return float64(int64(cents)) / 100
}
