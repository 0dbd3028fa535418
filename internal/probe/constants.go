package probe

// Endpoint paths.
const (
	PathReady              = "/readyz"
	PathKPIs               = "/api/kpis"
	PathWorstMeasures      = "/api/worst-measures"
	PathNationalPerf       = "/api/national-performance"
	PathPerformanceVolume  = "/api/performance-by-volume"
	PathTopHospitals       = "/api/top-hospitals"
	PathStateDetails       = "/api/state-details"
	PathPerformanceByState = "/api/performance-by-state"
)

// Verification constants.
const (
	MaxRankedRows = 5
	// Each share is rounded to one decimal, so the sum drifts a little.
	PercentageTolerance     = 0.5
	FullShare               = 100.0
	DefaultMinFacilities    = 20
	WorkerChannelMultiplier = 2
	nationalScope           = "national"
)
