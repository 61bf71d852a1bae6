package processor

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Point 曲线或散点图上的一个点
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// KDEPoints 密度曲线的采样点数
const KDEPoints = 200

// Bandwidth 高斯核带宽(Scott规则)，样本不足或方差为0时取1
func Bandwidth(samples []float64) float64 {
	if len(samples) < 2 {
		return 1
	}
	sd := stat.StdDev(samples, nil)
	if sd == 0 || math.IsNaN(sd) {
		return 1
	}
	return sd * math.Pow(float64(len(samples)), -0.2)
}

// KDE 高斯核密度估计，采样区间为 [min-3h, max+3h]
// 没有样本时返回nil
func KDE(samples []float64, points int) []Point {
	if len(samples) == 0 || points < 2 {
		return nil
	}

	h := Bandwidth(samples)
	lo := floats.Min(samples) - 3*h
	hi := floats.Max(samples) + 3*h
	step := (hi - lo) / float64(points-1)
	n := float64(len(samples))

	curve := make([]Point, points)
	for i := range curve {
		x := lo + float64(i)*step
		var sum float64
		for _, s := range samples {
			sum += distuv.UnitNormal.Prob((x - s) / h)
		}
		curve[i] = Point{X: x, Y: sum / (n * h)}
	}
	return curve
}

// MeanOf 空切片返回 ok=false
func MeanOf(vals []float64) (float64, bool) {
	if len(vals) == 0 {
		return 0, false
	}
	return stat.Mean(vals, nil), true
}
