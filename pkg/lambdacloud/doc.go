// Package lambdacloud is a client for the Lambda Cloud API.
//
// Every method maps to one endpoint and sends exactly one request. Successful
// responses are unwrapped from their {"data": ...} envelope; error responses
// become *APIError values whose message is "<code>: <message>[ - <suggestion>]".
// The client never polls or caches. It retries only when WithRetryMax is set
// and adds no timeout of its own; cancel through the context.
package lambdacloud
