// Package server exposes scrape jobs over a small JSON HTTP API.
//
// Routes:
//
//	POST /api/scrape            submit a search job, returns {"jobId": ...}
//	GET  /api/status/{jobID}    job state with recent log output
//	POST /api/stop/{jobID}      stop a job and save what it collected
//	GET  /api/jobs              all known jobs, newest first
//	GET  /api/tweets/{jobID}    parsed contents of the job's output file
//	GET  /api/download/{jobID}  the output file as an attachment
package server
