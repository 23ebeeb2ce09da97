/*
Package workers sizes the bounded worker pools used across the catalog.

GOMAXPROCS follows container CPU limits (Go 1.19+), so counts are derived from
it rather than runtime.NumCPU. Network-bound fan-out, such as fetching the
device descriptions of SSDP responders, uses two workers per CPU:

	workers.ForIO(8)

Operators can pin the count with CATALOG_WORKERS:

	CATALOG_WORKERS=4 nas-media-catalog

Invalid or non-positive values are ignored. The limit passed to each helper
always applies, including to the override.
*/
package workers
