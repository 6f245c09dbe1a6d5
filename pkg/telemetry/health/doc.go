// Package health provides liveness and readiness probes for the custodian
// admin API.
//
// Liveness only reports that the process is serving requests. Readiness runs
// every registered check concurrently, each bounded by the checker timeout,
// and answers 503 when any of them fails:
//
//	checker := health.New(2 * time.Second)
//	checker.RegisterCheck("store", s.Ping)
//
//	r.Get("/healthz", checker.LivenessHandler())
//	r.Get("/readyz", checker.ReadinessHandler())
//
// A readiness response lists each check:
//
//	{
//	    "status": "degraded",
//	    "checks": {
//	        "store": {"status": "unhealthy", "message": "store not connected"}
//	    },
//	    "timestamp": "2024-06-15T10:30:00Z"
//	}
package health
