package fairenough

// Gamma returns the approximation ratio γ(n) = 2·odd(n) / (3·odd(n) − 1),
// where odd(n) is the largest odd number not above n. Values of n below 1
// are treated as 1.
//
//	Gamma(1) = Gamma(2) = 1
//	Gamma(3) = Gamma(4) = 0.75
//	Gamma(n) → 2/3 as n grows
func Gamma(n int) float64 {
	if n < 1 {
		n = 1
	}
	odd := n
	if odd%2 == 0 {
		odd--
	}

	return 2 * float64(odd) / (3*float64(odd) - 1)
}
