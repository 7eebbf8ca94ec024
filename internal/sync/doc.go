// ABOUTME: Clock synchronization package
// ABOUTME: Sliding-window median filter over round-trip offset samples
// Package sync estimates the offset between this client's monotonic
// clock and the server's clock from a small ring of recent probe
// samples, filtered by median to reject bufferbloat-skewed RTT halves.
//
// Adapted from the teacher's exponential-smoothing ClockSync: this
// module uses a fixed-capacity median window instead, per the design's
// §4.4 filter contract.
package sync
