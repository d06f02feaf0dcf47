package domain

import "go.trai.ch/zerr"

var (
	// ErrWorkflowNotFound is returned when no workflow file can be discovered.
	ErrWorkflowNotFound = zerr.New("could not find workflow file")
	// ErrWorkflowReadFailed is returned when the workflow file cannot be read.
	ErrWorkflowReadFailed = zerr.New("failed to read workflow file")
	// ErrWorkflowParseFailed is returned when the workflow file is not valid YAML.
	ErrWorkflowParseFailed = zerr.New("failed to parse workflow file")
	// ErrNoTriggers is returned when a workflow declares no trigger.
	ErrNoTriggers = zerr.New("workflow declares no trigger")
	// ErrInvalidCron is returned when a schedule is not a valid cron expression.
	ErrInvalidCron = zerr.New("invalid cron expression")
	// ErrNoJobs is returned when a workflow declares no job.
	ErrNoJobs = zerr.New("workflow declares no job")
	// ErrMissingRunsOn is returned when a job has no runs-on label.
	ErrMissingRunsOn = zerr.New("job is missing runs-on")
	// ErrNoSteps is returned when a job has no step.
	ErrNoSteps = zerr.New("job declares no step")
	// ErrEmptyAxis is returned when a matrix axis has no value.
	ErrEmptyAxis = zerr.New("matrix axis has no values")
	// ErrInvalidMatrix is returned when the matrix definition is malformed.
	ErrInvalidMatrix = zerr.New("invalid matrix definition")
	// ErrInvalidStep is returned when a step sets both or neither of uses and run.
	ErrInvalidStep = zerr.New("step must set exactly one of 'uses' or 'run'")
	// ErrDuplicateStepID is returned when two steps of a job share an id.
	ErrDuplicateStepID = zerr.New("duplicate step id")
	// ErrUnknownAction is returned when a step references an action that is not available.
	ErrUnknownAction = zerr.New("unknown action")
	// ErrMissingInput is returned when a required action input is not set.
	ErrMissingInput = zerr.New("missing required action input")
	// ErrUnknownEvent is returned for an unsupported event name.
	ErrUnknownEvent = zerr.New("unknown event, expected 'push', 'pull_request' or 'schedule'")
	// ErrNotTriggered is returned when the workflow does not react to the given event.
	ErrNotTriggered = zerr.New("workflow is not triggered by event")
	// ErrJobNotFound is returned when a requested job id does not exist.
	ErrJobNotFound = zerr.New("job not found")

	// ErrExpressionParseFailed is returned when a ${{ }} expression cannot be parsed.
	ErrExpressionParseFailed = zerr.New("failed to parse expression")
	// ErrExpressionEvalFailed is returned when a ${{ }} expression cannot be evaluated.
	ErrExpressionEvalFailed = zerr.New("failed to evaluate expression")
	// ErrUnterminatedExpression is returned when a ${{ is not closed.
	ErrUnterminatedExpression = zerr.New("unterminated expression")

	// ErrHostUnavailable is returned when no host can serve a runs-on label.
	ErrHostUnavailable = zerr.New("no host available for label")
	// ErrHostProvisionFailed is returned when a host directory tree cannot be created.
	ErrHostProvisionFailed = zerr.New("failed to provision host")
	// ErrEnvironmentProvisionFailed is returned when the job environment cannot be created.
	ErrEnvironmentProvisionFailed = zerr.New("failed to provision environment")
	// ErrCheckoutFailed is returned when the source cannot be copied onto the host.
	ErrCheckoutFailed = zerr.New("failed to check out source")
	// ErrStepFailed is returned when a step exits unsuccessfully.
	ErrStepFailed = zerr.New("step failed")
	// ErrJobFailed is returned when at least one job of a run failed.
	ErrJobFailed = zerr.New("one or more jobs failed")
	// ErrRunInProgress is returned by the watch loop when an event arrives during a run.
	ErrRunInProgress = zerr.New("a run is already in progress")

	// ErrCacheMiss is returned when no cache entry exists for a key.
	ErrCacheMiss = zerr.New("cache miss")
	// ErrCacheCreateFailed is returned when the cache directory cannot be created.
	ErrCacheCreateFailed = zerr.New("failed to create cache directory")
	// ErrCacheReadFailed is returned when a cache archive cannot be read.
	ErrCacheReadFailed = zerr.New("failed to read cache entry")
	// ErrCacheWriteFailed is returned when a cache archive cannot be written.
	ErrCacheWriteFailed = zerr.New("failed to write cache entry")
	// ErrCacheUnmarshalFailed is returned when cache metadata is corrupt.
	ErrCacheUnmarshalFailed = zerr.New("failed to unmarshal cache metadata")
	// ErrPathOutsideHost is returned when a path escapes the job host.
	ErrPathOutsideHost = zerr.New("path is outside the job host")

	// ErrFileOpenFailed is returned when a file cannot be opened.
	ErrFileOpenFailed = zerr.New("failed to open file")
	// ErrFileHashFailed is returned when hashing a file fails.
	ErrFileHashFailed = zerr.New("failed to hash file content")
	// ErrWriteHashFailed is returned when writing the hash to the digest fails.
	ErrWriteHashFailed = zerr.New("failed to write hash to digest")

	// ErrHistoryOpenFailed is returned when the history database cannot be opened.
	ErrHistoryOpenFailed = zerr.New("failed to open run history")
	// ErrHistoryWriteFailed is returned when a run cannot be recorded.
	ErrHistoryWriteFailed = zerr.New("failed to record run")
	// ErrHistoryReadFailed is returned when runs cannot be listed.
	ErrHistoryReadFailed = zerr.New("failed to read run history")

	// ErrReportWriteFailed is returned when a report or log file cannot be written.
	ErrReportWriteFailed = zerr.New("failed to write report")
)
