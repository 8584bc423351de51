package vasana

import "math"

// changeStat is the Normal-Inverse-Gamma sufficient statistic for one
// hypothesised run (the data since the last changepoint), updated online
// as in Adams & MacKay's Bayesian Online Changepoint Detection.
type changeStat struct {
	mu, kappa, alpha, beta float64
	n                      int
}

func newChangeStat(priorMu, priorKappa, priorAlpha, priorBeta float64) changeStat {
	return changeStat{mu: priorMu, kappa: priorKappa, alpha: priorAlpha, beta: priorBeta}
}

// predictive returns the Student-t predictive log-density of x under this
// run's current posterior, the probability BOCPD needs to score "does x
// look like it belongs to the current regime".
func (s changeStat) predictive(x float64) float64 {
	df := 2 * s.alpha
	scale := math.Sqrt(s.beta * (s.kappa + 1) / (s.alpha * s.kappa))
	return studentTLogPDF(x, s.mu, scale, df)
}

// update folds in one new observation, returning the posterior for the
// next step.
func (s changeStat) update(x float64) changeStat {
	kappaNew := s.kappa + 1
	muNew := (s.kappa*s.mu + x) / kappaNew
	alphaNew := s.alpha + 0.5
	betaNew := s.beta + (s.kappa*(x-s.mu)*(x-s.mu))/(2*kappaNew)
	return changeStat{mu: muNew, kappa: kappaNew, alpha: alphaNew, beta: betaNew, n: s.n + 1}
}

func studentTLogPDF(x, mu, scale, df float64) float64 {
	z := (x - mu) / scale
	return lgamma((df+1)/2) - lgamma(df/2) - 0.5*math.Log(df*math.Pi) - math.Log(scale) -
		(df+1)/2*math.Log(1+z*z/df)
}

func lgamma(x float64) float64 {
	v, _ := math.Lgamma(x)
	return v
}

// BOCPD is a Bayesian Online Changepoint Detector over a scalar stream
// (valence, in this module's use). It tracks a run-length distribution and
// signals a changepoint whenever the detector's belief concentrates on a
// fresh run that has accumulated enough observations.
type BOCPD struct {
	hazard float64 // constant hazard rate: 1/expected run length
	prior  changeStat

	runLogProbs []float64    // log P(run length = i | data so far)
	stats       []changeStat // sufficient stats per hypothesised run length
}

// NewBOCPD builds a detector with a constant hazard (1/expectedRunLength)
// and a weak Normal-Inverse-Gamma prior centred at 0.
func NewBOCPD(expectedRunLength float64) *BOCPD {
	if expectedRunLength < 1 {
		expectedRunLength = 20
	}
	return &BOCPD{
		hazard:      1.0 / expectedRunLength,
		prior:       newChangeStat(0, 1, 1, 1),
		runLogProbs: []float64{0}, // log(1) = 0: certain we start at run length 0
		stats:       []changeStat{newChangeStat(0, 1, 1, 1)},
	}
}

// Step processes one observation and returns the current MAP run length
// and the posterior probability assigned to it.
func (b *BOCPD) Step(x float64) (mapRunLength int, posterior float64) {
	n := len(b.runLogProbs)
	predLog := make([]float64, n)
	for i, s := range b.stats {
		predLog[i] = s.predictive(x)
	}

	growthLog := make([]float64, n+1)
	// growthLog[0] accumulates the changepoint mass (a reset to run length 0).
	cpTerms := make([]float64, n)
	for i := 0; i < n; i++ {
		joint := b.runLogProbs[i] + predLog[i]
		growthLog[i+1] = joint + math.Log1p(-b.hazard)
		cpTerms[i] = joint + math.Log(b.hazard)
	}
	growthLog[0] = logSumExp(cpTerms)

	normalized := normalizeLogProbs(growthLog)

	newStats := make([]changeStat, n+1)
	newStats[0] = b.prior.update(x)
	for i, s := range b.stats {
		newStats[i+1] = s.update(x)
	}

	b.runLogProbs = normalized
	b.stats = newStats

	best, bestLog := 0, math.Inf(-1)
	for i, lp := range normalized {
		if lp > bestLog {
			best, bestLog = i, lp
		}
	}
	return best, math.Exp(bestLog)
}

func logSumExp(xs []float64) float64 {
	if len(xs) == 0 {
		return math.Inf(-1)
	}
	maxV := xs[0]
	for _, x := range xs[1:] {
		if x > maxV {
			maxV = x
		}
	}
	if math.IsInf(maxV, -1) {
		return maxV
	}
	sum := 0.0
	for _, x := range xs {
		sum += math.Exp(x - maxV)
	}
	return maxV + math.Log(sum)
}

func normalizeLogProbs(xs []float64) []float64 {
	total := logSumExp(xs)
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = x - total
	}
	return out
}
