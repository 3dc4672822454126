// Package record contains the recording engine: segment planning, the
// chunked fetch/retry/concatenate pipeline, and the job orchestrator
// that sequences authentication, resolution and recording into one
// run.
//
// A job runs on whatever goroutine calls Job.Run; invoking surfaces
// offload it to a background goroutine and consume ProgressEvents
// asynchronously:
//
//	job := record.NewJob(settings, logger, func(e record.ProgressEvent) {
//	    fmt.Println(e.Message)
//	})
//	path, err := job.Run(ctx, record.Input{ProgramURL: url})
package record
