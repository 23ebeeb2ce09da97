// Package memory derives the Go soft memory limit from the container limit.
//
// Kubernetes can pass the pod limit through the Downward API:
//
//	env:
//	  - name: MEMORY_LIMIT
//	    valueFrom:
//	      resourceFieldRef:
//	        resource: limits.memory
//
// [ConfigureFromEnv] then sets GOMEMLIMIT to MEMORY_RATIO (default 0.85) of
// that value, so the collector works harder before the kernel OOM killer
// steps in during large scans.
package memory
