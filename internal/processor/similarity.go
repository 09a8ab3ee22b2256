package processor

import (
	"fmt"
	"math"
)

// DefaultSimilarityThreshold 进入候选人池的最低余弦相似度
const DefaultSimilarityThreshold = 0.5

// CosineSimilarity dot(v1,v2)/(|v1|·|v2|)。长度不一致时返回 ErrVectorLengthMismatch，
// 任一向量范数为0时返回0，结果截断到 [-1,1]。
func CosineSimilarity(v1, v2 []float64) (float64, error) {
	if len(v1) != len(v2) {
		return 0, fmt.Errorf("%w: %d != %d", ErrVectorLengthMismatch, len(v1), len(v2))
	}

	var dot, norm1, norm2 float64
	for i := range v1 {
		dot += v1[i] * v2[i]
		norm1 += v1[i] * v1[i]
		norm2 += v2[i] * v2[i]
	}
	if norm1 == 0 || norm2 == 0 {
		return 0, nil
	}

	sim := dot / (math.Sqrt(norm1) * math.Sqrt(norm2))
	return math.Max(-1, math.Min(1, sim)), nil
}
