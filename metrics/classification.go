// Package metrics scores classifier and novelty detector outputs.
package metrics

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	scierrors "github.com/YuminosukeSato/scimkl/pkg/errors"
)

func checkPair(op string, yTrue, yPred *mat.VecDense) (int, error) {
	if yTrue == nil || yPred == nil || yTrue.Len() == 0 {
		return 0, scierrors.Wrap(scierrors.ErrEmptyData, op)
	}
	n := yTrue.Len()
	if yPred.Len() != n {
		return 0, scierrors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return n, nil
}

// Accuracy は予測ラベルが正解と一致した割合を返す
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

// ClassificationError は誤分類率 (1 − Accuracy) を返す
func ClassificationError(yTrue, yPred *mat.VecDense) (float64, error) {
	acc, err := Accuracy(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return 1 - acc, nil
}

// AUC はROC曲線下面積を決定関数の値から計算する
//
// ラベルは{0, 1}または{−1, +1}で、正例は1。同じスコアは平均順位で扱う
// (Mann–Whitney U統計量)。片方のクラスしかない場合は0.5を返す。
func AUC(yTrue, scores *mat.VecDense) (float64, error) {
	n, err := checkPair("AUC", yTrue, scores)
	if err != nil {
		return 0, err
	}

	type pair struct {
		score float64
		pos   bool
	}
	items := make([]pair, n)
	nPos := 0
	for i := 0; i < n; i++ {
		switch yTrue.AtVec(i) {
		case 1:
			items[i] = pair{scores.AtVec(i), true}
			nPos++
		case 0, -1:
			items[i] = pair{scores.AtVec(i), false}
		default:
			return 0, scierrors.NewValidationError("y_true", "labels must be 0/1 or -1/+1", yTrue.AtVec(i))
		}
	}
	nNeg := n - nPos
	if nPos == 0 || nNeg == 0 {
		return 0.5, nil
	}

	sort.SliceStable(items, func(a, b int) bool { return items[a].score < items[b].score })

	// 同順位には平均順位を与える
	var rankSum float64
	for i := 0; i < n; {
		j := i
		for j < n && items[j].score == items[i].score {
			j++
		}
		avg := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			if items[k].pos {
				rankSum += avg
			}
		}
		i = j
	}

	u := rankSum - float64(nPos*(nPos+1))/2
	return u / float64(nPos*nNeg), nil
}

// AUCMatrix はn×k行列の最初の列を使ってAUCを計算する
func AUCMatrix(yTrue, scores mat.Matrix) (float64, error) {
	t, err := firstColumn("AUCMatrix", yTrue)
	if err != nil {
		return 0, err
	}
	s, err := firstColumn("AUCMatrix", scores)
	if err != nil {
		return 0, err
	}
	return AUC(t, s)
}

func firstColumn(op string, m mat.Matrix) (*mat.VecDense, error) {
	if m == nil {
		return nil, scierrors.Wrap(scierrors.ErrEmptyData, op)
	}
	if d, ok := m.(*mat.Dense); ok && d.IsEmpty() {
		return nil, scierrors.Wrap(scierrors.ErrEmptyData, op)
	}
	r, c := m.Dims()
	if r == 0 || c == 0 {
		return nil, scierrors.Wrap(scierrors.ErrEmptyData, op)
	}
	return mat.NewVecDense(r, mat.Col(nil, 0, m)), nil
}

// NoveltyRate は決定関数の値が負 (外れ値) と判定された割合を返す
func NoveltyRate(scores []float64) (float64, error) {
	if len(scores) == 0 {
		return 0, scierrors.Wrap(scierrors.ErrEmptyData, "NoveltyRate")
	}
	out := 0
	for _, s := range scores {
		if s < 0 {
			out++
		}
	}
	return float64(out) / float64(len(scores)), nil
}
