package stats

import (
	"math"

	"github.com/statwise/abengine/internal/utils"
)

// Erf approximates the Gauss error function using the Abramowitz & Stegun
// rational polynomial (formula 7.1.26), accurate to about 1.5e-7 absolute
// error. Erf is odd: Erf(-x) == -Erf(x).
func Erf(x float64) float64 {
	sign := 1.0
	if x < 0 {
		sign = -1.0
		x = -x
	}

	const (
		a1 = 0.254829592
		a2 = -0.284496736
		a3 = 1.421413741
		a4 = -1.453152027
		a5 = 1.061405429
		p  = 0.3275911
	)

	t := 1.0 / (1.0 + p*x)
	y := 1.0 - (((((a5*t+a4)*t)+a3)*t+a2)*t+a1)*t*math.Exp(-x*x)

	return sign * y
}

// NormalCDF returns the cumulative distribution function of the standard
// normal distribution evaluated at x.
func NormalCDF(x float64) float64 {
	return 0.5 * (1.0 + Erf(x/math.Sqrt2))
}

// Acklam's rational approximation coefficients for the inverse normal CDF.
// Relative error is below 1.15e-9 over the full open interval (0,1).
var (
	probitA = [6]float64{
		-3.969683028665376e+01, 2.209460984245205e+02,
		-2.759285104469687e+02, 1.383577518672690e+02,
		-3.066479806614716e+01, 2.506628277459239e+00,
	}
	probitB = [5]float64{
		-5.447609879822406e+01, 1.615858368580409e+02,
		-1.556989798598866e+02, 6.680131188771972e+01,
		-1.328068155288572e+01,
	}
	probitC = [6]float64{
		-7.784894002430293e-03, -3.223964580411365e-01,
		-2.400758277161838e+00, -2.549732539343734e+00,
		4.374664141464968e+00, 2.938163982698783e+00,
	}
	probitD = [4]float64{
		7.784695709041462e-03, 3.224671290700398e-01,
		2.445134137142996e+00, 3.754408661907416e+00,
	}
)

// NormalQuantile returns the inverse of the standard normal CDF (the probit
// function) using Acklam's algorithm. It fails with a DomainError when p is
// outside the open interval (0,1), where the inverse is undefined.
func NormalQuantile(p float64) (float64, error) {
	if p <= 0 || p >= 1 || math.IsNaN(p) {
		return 0, utils.NewDomainErrorf("normal quantile undefined for p=%v, need 0 < p < 1", p)
	}
	if p == 0.5 {
		return 0, nil
	}

	const (
		pLow  = 0.02425
		pHigh = 1 - pLow
	)

	switch {
	case p < pLow:
		// Lower tail.
		q := math.Sqrt(-2 * math.Log(p))
		return (((((probitC[0]*q+probitC[1])*q+probitC[2])*q+probitC[3])*q+probitC[4])*q + probitC[5]) /
			((((probitD[0]*q+probitD[1])*q+probitD[2])*q+probitD[3])*q + 1), nil
	case p > pHigh:
		// Upper tail, mirror of the lower tail.
		q := math.Sqrt(-2 * math.Log(1-p))
		return -(((((probitC[0]*q+probitC[1])*q+probitC[2])*q+probitC[3])*q+probitC[4])*q + probitC[5]) /
			((((probitD[0]*q+probitD[1])*q+probitD[2])*q+probitD[3])*q + 1), nil
	default:
		// Central region.
		q := p - 0.5
		r := q * q
		return (((((probitA[0]*r+probitA[1])*r+probitA[2])*r+probitA[3])*r+probitA[4])*r + probitA[5]) * q /
			(((((probitB[0]*r+probitB[1])*r+probitB[2])*r+probitB[3])*r+probitB[4])*r + 1), nil
	}
}

// CriticalValue returns the two-tailed critical z value for the given
// confidence level expressed as a fraction, e.g. 0.95 -> 1.96.
func CriticalValue(confidenceLevel float64) (float64, error) {
	if confidenceLevel <= 0 || confidenceLevel >= 1 {
		return 0, utils.NewDomainErrorf("confidence level must be in (0,1), got %v", confidenceLevel)
	}
	return NormalQuantile(1 - (1-confidenceLevel)/2)
}
