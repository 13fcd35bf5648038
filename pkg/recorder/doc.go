// Package recorder buffers the interactions a consumer exercises against the
// mock and uploads them to the broker in batches.
//
// Each interaction is hashed from service, consumer, consumer version,
// operation, request and response; a hash already seen in the session is
// dropped. In CI the recorder uploads in the background whenever the buffer
// reaches the flush threshold. Flush uploads whatever remains and reports
// the outcome of every batch sent since the previous Flush.
//
// Failed uploads are retried with exponential backoff. After the final
// attempt the batch and its hashes are discarded whether or not it was
// accepted, so delivery is at most once per session.
package recorder
