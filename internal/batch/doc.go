// Package batch runs the sheet pipeline over a stream of scanned pages.
//
// Pages arrive on a channel in acquisition order and are numbered as they
// arrive. A fixed pool of workers analyzes and rectifies them in parallel;
// Submit blocks the producer while every worker is busy. Each worker task
// owns its sheet from decode to hand-off and turns every fault, panics
// included, into an error result for its own index.
//
// Rectified sheets are pushed onto a bounded queue drained in FIFO order by
// a single post-processing goroutine. Run returns once the producer closed
// its channel, every in-flight task finished and the queue is empty.
package batch
