package strategy

// SMA: среднее последних period значений серии.
// ok == false, если значений меньше периода.
func SMA(series []float64, period int) (float64, bool) {
	if period < 1 || len(series) < period {
		return 0, false
	}
	var sum float64
	for _, v := range series[len(series)-period:] {
		sum += v
	}
	return sum / float64(period), true
}
