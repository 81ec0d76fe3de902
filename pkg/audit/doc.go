// Package audit records cleave decisions for later review.
//
// Every computed cleave and every commit is recorded as an [Entry] so that
// proofreading history can be reconstructed per body: who split what, with
// which strategy, against which mutation of the segmentation.
//
// Two backends are provided: [MemoryRecorder] for tests and single-shot CLI
// use, and [MongoRecorder] for the service. Recording is best-effort at the
// call sites; an unavailable audit store must never fail a cleave.
package audit
