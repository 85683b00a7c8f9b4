// Package light drives an ESPHome-style light over its REST API.
//
// Every command is a single POST without retries and with a bounded timeout.
package light
