// Package buffer provides the per-generator signal buffer and a pool that
// recycles buffers as generators are created and removed.
//
// A Buffer is written by exactly one owner once per tick and read by any
// number of downstream consumers after that tick. Its length always equals
// the server block size; it only changes length when the block size is
// reconfigured between ticks.
package buffer
