// Package jobs runs search collections submitted through the job API.
//
// A Manager gives every job a uuid, an output store out/<jobID>_tweets.json,
// a cancel func and a bounded log ring, and hands it to a worker pool.
// Job history lives in SQLite; jobs a crashed process left queued or
// running are marked failed when the next Manager starts.
package jobs
