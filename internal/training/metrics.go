package training

import "sort"

// ClassMetrics hold precision/recall/F1 for one class.
type ClassMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Report summarizes holdout performance at the scoring threshold.
type Report struct {
	Accuracy float64      `json:"accuracy"`
	ROCAUC   float64      `json:"roc_auc"`
	AUCValid bool         `json:"auc_valid"`
	Retained ClassMetrics `json:"retained"`
	Churned  ClassMetrics `json:"churned"`
	N        int          `json:"n"`
}

// Evaluate computes the holdout report from true labels, predicted
// probabilities, and the decision threshold. When the holdout contains a
// single class, ROC AUC is undefined and AUCValid is false.
func Evaluate(y []int, probs []float64, threshold float64) Report {
	var tp, fp, tn, fn int
	for i, label := range y {
		pred := 0
		if probs[i] >= threshold {
			pred = 1
		}
		switch {
		case label == 1 && pred == 1:
			tp++
		case label == 0 && pred == 1:
			fp++
		case label == 0 && pred == 0:
			tn++
		default:
			fn++
		}
	}

	r := Report{N: len(y)}
	if r.N > 0 {
		r.Accuracy = float64(tp+tn) / float64(r.N)
	}
	r.Churned = classMetrics(tp, fp, fn, tp+fn)
	r.Retained = classMetrics(tn, fn, fp, tn+fp)
	r.ROCAUC, r.AUCValid = rocAUC(y, probs)
	return r
}

func classMetrics(tp, fp, fn, support int) ClassMetrics {
	m := ClassMetrics{Support: support}
	if tp+fp > 0 {
		m.Precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		m.Recall = float64(tp) / float64(tp+fn)
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	return m
}

// rocAUC computes the area under the ROC curve via the rank statistic,
// with midranks for tied scores.
func rocAUC(y []int, probs []float64) (float64, bool) {
	var nPos, nNeg int
	for _, label := range y {
		if label == 1 {
			nPos++
		} else {
			nNeg++
		}
	}
	if nPos == 0 || nNeg == 0 {
		return 0, false
	}

	order := make([]int, len(y))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return probs[order[a]] < probs[order[b]] })

	ranks := make([]float64, len(y))
	for i := 0; i < len(order); {
		j := i
		for j < len(order) && probs[order[j]] == probs[order[i]] {
			j++
		}
		mid := float64(i+j+1) / 2 // average of 1-based ranks i+1..j
		for k := i; k < j; k++ {
			ranks[order[k]] = mid
		}
		i = j
	}

	var posRankSum float64
	for i, label := range y {
		if label == 1 {
			posRankSum += ranks[i]
		}
	}
	auc := (posRankSum - float64(nPos)*float64(nPos+1)/2) / (float64(nPos) * float64(nNeg))
	return auc, true
}
