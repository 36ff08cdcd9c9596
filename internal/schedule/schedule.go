// Package schedule converts effort into calendar development time.
package schedule

import "math"

const (
	// Drivers is the number of cost drivers the exponent base accounts for.
	Drivers = 13
	// Base is 0.91 + 0.01 per driver.
	Base = 0.91 + 0.01*Drivers
	// Exponent applies to effort in person-months.
	Exponent = 0.28
)

// DevelopmentTime returns months for the given effort in person-months.
// Zero or negative effort yields zero.
func DevelopmentTime(effort float64) float64 {
	if effort <= 0 || math.IsNaN(effort) {
		return 0
	}
	return Base * math.Pow(effort, Exponent)
}
