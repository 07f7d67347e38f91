// Package task manages background job queuing, processing, and lifecycle.
// Tasks are persisted before they are queued, executed by a bounded worker
// pool, retried up to a maximum number of attempts and recovered after a
// restart. The review pipeline's chunk and completion stages run as tasks.
package task
