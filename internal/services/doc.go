// Package services holds the cross-cutting helpers stage handlers share.
//
// It provides context decoration (queue item ID, stage, lane, requester, and
// request ID travel on the context for logging) and the error classification
// layer: Wrap tags failures with marker errors and FailureStatus maps them to
// the failed or review queue status. New stage logic should route its errors
// through these helpers so retry and review behavior stays consistent across
// the pipeline.
package services
