package converter

import "strconv"

const lamportsPerSol = 1_000_000_000

func ConvertSolToLamports(amount float64) uint64 {
	return uint64(amount * lamportsPerSol)
}

func ConvertLamportsToSol(amount uint64) float64 {
	return float64(amount) / lamportsPerSol
}

func ConvertLamportsToString(amount uint64) string {
	return strconv.FormatUint(amount, 10)
}
