package scoring

import "math"

// Cosine は2ベクトルのコサイン類似度 dot(a,b) / (‖a‖·‖b‖) を返します
// いずれかのノルムがゼロの場合、および次元が一致しない場合は 0 を
// 返します
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x := float64(a[i])
		y := float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// SimilarityToScore はコサイン類似度 [-1, 1] をマッチスコア [0, 100] に
// 線形変換します
//
//	score = clamp((similarity + 1) / 2 * 100, 0, 100)
//
// この写像は仕様で固定されており、キャリブレーションされた確率では
// ありません。結果は小数第2位に丸められます
func SimilarityToScore(similarity float64) float64 {
	score := (similarity + 1.0) / 2.0 * 100.0
	score = math.Max(0.0, math.Min(100.0, score))
	return math.Round(score*100) / 100
}
