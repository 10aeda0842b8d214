package profiling

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"

	"ruletree/domain/dataset"
)

// ColumnProfile summarizes the distribution of one telemetry column,
// used to screen a dataset before rules run against it
type ColumnProfile struct {
	Column  string
	Rows    int
	Missing int

	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
	Median float64
	Q25    float64
	Q75    float64

	Skewness float64
	Kurtosis float64
	IsNormal bool
	NormalP  float64

	Outliers int
	Noise    float64
}

// ProfileFrame profiles every column of a frame in source order
func ProfileFrame(frame *dataset.Frame) ([]ColumnProfile, error) {
	profiles := make([]ColumnProfile, 0, len(frame.Columns()))
	for _, name := range frame.Columns() {
		values, ok := frame.Column(name)
		if !ok {
			continue
		}
		profile, err := ProfileColumn(name, values)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *profile)
	}
	return profiles, nil
}

// ProfileColumn computes summary statistics, distribution shape and
// outlier counts for one column. NaN entries count as missing; a column
// with nothing but NaN yields a profile carrying only the missing count.
func ProfileColumn(name string, values []float64) (*ColumnProfile, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("column %q is empty", name)
	}

	clean := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}

	profile := &ColumnProfile{
		Column:  name,
		Rows:    len(values),
		Missing: len(values) - len(clean),
	}
	if len(clean) == 0 {
		return profile, nil
	}

	mean, err := stats.Mean(clean)
	if err != nil {
		return nil, err
	}
	stdDev, err := stats.StandardDeviation(clean)
	if err != nil {
		return nil, err
	}
	min, err := stats.Min(clean)
	if err != nil {
		return nil, err
	}
	max, err := stats.Max(clean)
	if err != nil {
		return nil, err
	}
	median, err := stats.Median(clean)
	if err != nil {
		return nil, err
	}
	q25, err := stats.Percentile(clean, 25)
	if err != nil {
		return nil, err
	}
	q75, err := stats.Percentile(clean, 75)
	if err != nil {
		return nil, err
	}

	profile.Mean = mean
	profile.StdDev = stdDev
	profile.Min = min
	profile.Max = max
	profile.Median = median
	profile.Q25 = q25
	profile.Q75 = q75

	profile.Skewness = calculateSkewness(clean, mean, stdDev)
	profile.Kurtosis = calculateKurtosis(clean, mean, stdDev)
	profile.IsNormal, profile.NormalP = testNormality(clean, mean, stdDev)

	profile.Outliers = detectOutliers(clean, q25, q75)
	profile.Noise = noiseCoefficient(mean, stdDev)

	return profile, nil
}

// calculateSkewness computes sample skewness using the adjusted Fisher-Pearson coefficient
func calculateSkewness(data []float64, mean, stdDev float64) float64 {
	if len(data) < 3 || stdDev == 0 {
		return 0
	}

	n := float64(len(data))
	sumCubedDeviations := 0.0

	for _, x := range data {
		deviation := (x - mean) / stdDev
		sumCubedDeviations += deviation * deviation * deviation
	}

	skewness := sumCubedDeviations / n

	// Bias correction for sample skewness
	correction := math.Sqrt(n*(n-1)) / (n - 2)
	skewness *= correction

	return skewness
}

// calculateKurtosis computes sample kurtosis
func calculateKurtosis(data []float64, mean, stdDev float64) float64 {
	if len(data) < 4 || stdDev == 0 {
		return 0
	}

	n := float64(len(data))
	sumFourthDeviations := 0.0

	for _, x := range data {
		deviation := (x - mean) / stdDev
		sumFourthDeviations += deviation * deviation * deviation * deviation
	}

	kurtosis := sumFourthDeviations / n

	// Convert to excess kurtosis (subtract 3 for normal distribution)
	excessKurtosis := kurtosis - 3

	// Bias correction for sample excess kurtosis
	if n > 3 {
		correction := (n - 1) / ((n - 2) * (n - 3))
		excessKurtosis = excessKurtosis*correction + 6/(n+1)
	}

	return excessKurtosis + 3
}

// testNormality approximates a normality test from skewness and kurtosis.
// A proper Shapiro-Wilk would need ordered statistics tables; this is
// good enough to warn before rules assume roughly normal sensor readings.
func testNormality(data []float64, mean, stdDev float64) (isNormal bool, pValue float64) {
	if len(data) < 3 {
		return false, 1.0
	}

	skewness := calculateSkewness(data, mean, stdDev)
	kurtosis := calculateKurtosis(data, mean, stdDev)

	testStat := math.Abs(skewness) + math.Abs(kurtosis-3)/2

	chiDist := distuv.ChiSquared{K: 2}
	pValue = 1 - chiDist.CDF(testStat*testStat)

	isNormal = pValue > 0.05
	return isNormal, pValue
}

// detectOutliers counts values outside the 1.5 IQR fences
func detectOutliers(data []float64, q25, q75 float64) int {
	iqr := q75 - q25
	lowerBound := q25 - 1.5*iqr
	upperBound := q75 + 1.5*iqr

	outlierCount := 0
	for _, x := range data {
		if x < lowerBound || x > upperBound {
			outlierCount++
		}
	}

	return outlierCount
}

// noiseCoefficient estimates noise as a capped coefficient of variation
func noiseCoefficient(mean, stdDev float64) float64 {
	if mean == 0 {
		return 1.0
	}
	cv := stdDev / math.Abs(mean)
	return math.Min(cv/2.0, 1.0)
}
