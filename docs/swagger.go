// Package docs provides the Swagger documentation for the relay server.
package docs

// @title           Selection Relay
// @version         1.0
// @description     Relays text and image selections captured on a page to a remote inference service and returns one answer per selection.

// @contact.name   API Support
// @contact.url    https://github.com/aashari/go-selection-relay

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      127.0.0.1:8082
// @BasePath  /
