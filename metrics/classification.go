// Package metrics は二値分類の評価指標を提供する
package metrics

import (
	"math"
	"sort"

	"github.com/YuminosukeSato/sigboot/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// logLossEps は log(0) を避けるための確率のクリップ幅
const logLossEps = 1e-15

// checkPair は2つのベクトルが空でなく同じ長さであることを検証する
func checkPair(op string, yTrue, yPred *mat.VecDense) (int, error) {
	if yTrue == nil || yPred == nil || yTrue.Len() == 0 {
		return 0, errors.NewValueError(op, "empty vector")
	}
	n := yTrue.Len()
	if yPred.Len() != n {
		return 0, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return n, nil
}

// checkBinary はラベルが {0, 1} であることを検証し、正例数を返す
func checkBinary(op string, yTrue *mat.VecDense) (int, error) {
	nPos := 0
	for i := 0; i < yTrue.Len(); i++ {
		switch yTrue.AtVec(i) {
		case 0:
		case 1:
			nPos++
		default:
			return 0, errors.NewInvalidArgumentError(op, "y_true", "labels must be 0 or 1", yTrue.AtVec(i))
		}
	}
	return nPos, nil
}

// Accuracy は正解率（ラベルが完全一致した割合）を計算する
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("Accuracy", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// AUC はROC曲線下面積を計算する
//
// Mann–Whitney U 統計量と同値な順位和で求める。同じスコアには平均順位を与えるので、
// 正例と負例の同点は 0.5 として数えられる。
// y_true が単一クラスのみの場合 AUC は定義されないため DegenerateLabelSetError を返す。
func AUC(yTrue, yScore *mat.VecDense) (float64, error) {
	n, err := checkPair("AUC", yTrue, yScore)
	if err != nil {
		return 0, err
	}
	nPos, err := checkBinary("AUC", yTrue)
	if err != nil {
		return 0, err
	}
	nNeg := n - nPos
	switch {
	case nPos == 0:
		return 0, errors.NewDegenerateLabelSetError("AUC", "evaluation", 0, nNeg)
	case nNeg == 0:
		return 0, errors.NewDegenerateLabelSetError("AUC", "evaluation", 1, nPos)
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return yScore.AtVec(order[a]) < yScore.AtVec(order[b])
	})

	// 同点グループに平均順位（1始まり）を割り当て、正例の順位和を取る
	rankSum := 0.0
	for start := 0; start < n; {
		end := start + 1
		for end < n && yScore.AtVec(order[end]) == yScore.AtVec(order[start]) {
			end++
		}
		avgRank := float64(start+end+1) / 2
		for k := start; k < end; k++ {
			if yTrue.AtVec(order[k]) == 1 {
				rankSum += avgRank
			}
		}
		start = end
	}

	u := rankSum - float64(nPos)*float64(nPos+1)/2
	return u / (float64(nPos) * float64(nNeg)), nil
}

// AUCMatrix は行列形式の入力の第1列に対してAUCを計算する
func AUCMatrix(yTrue, yScore mat.Matrix) (float64, error) {
	if yTrue == nil || yScore == nil {
		return 0, errors.NewValueError("AUCMatrix", "nil matrix")
	}
	rTrue, cTrue := yTrue.Dims()
	rPred, cPred := yScore.Dims()
	if rTrue == 0 || cTrue == 0 || cPred == 0 {
		return 0, errors.NewValueError("AUCMatrix", "empty matrix")
	}
	if rTrue != rPred {
		return 0, errors.NewDimensionError("AUCMatrix", rTrue, rPred, 0)
	}

	return AUC(firstColumn(yTrue), firstColumn(yScore))
}

// BinaryLogLoss は二値交差エントロピーの平均を計算する
// 確率は [eps, 1-eps] にクリップされる。
func BinaryLogLoss(yTrue, yProb *mat.VecDense) (float64, error) {
	n, err := checkPair("BinaryLogLoss", yTrue, yProb)
	if err != nil {
		return 0, err
	}
	if _, err := checkBinary("BinaryLogLoss", yTrue); err != nil {
		return 0, err
	}

	sum := 0.0
	for i := 0; i < n; i++ {
		p := math.Min(math.Max(yProb.AtVec(i), logLossEps), 1-logLossEps)
		if yTrue.AtVec(i) == 1 {
			sum -= math.Log(p)
		} else {
			sum -= math.Log(1 - p)
		}
	}
	return sum / float64(n), nil
}

// firstColumn は行列の第1列をベクトルとしてコピーする
func firstColumn(m mat.Matrix) *mat.VecDense {
	r, _ := m.Dims()
	return mat.NewVecDense(r, mat.Col(nil, 0, m))
}
