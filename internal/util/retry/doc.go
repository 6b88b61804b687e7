// Package retry provides bounded backoff retry logic for transient failures.
//
// [WithExponentialBackoff] and [WithLinearBackoff] retry an operation with
// configurable max attempts, initial delay, and maximum delay. They back the
// remote downloads and the container runtime poll, where a failure usually
// means "not yet" rather than "never".
package retry
