// Package googletts implements synthesis.Synthesizer on Google Cloud
// Text-to-Speech (v1beta1, for SSML mark timepoints).
//
// Each accepted task runs in a background goroutine bounded by a
// semaphore. Audio tasks upload the MP3 body; timing-marks tasks inject a
// <mark/> at the start of every <s> sentence, request SSML_MARK
// timepoints, and upload one JSON line per sentence.
package googletts
