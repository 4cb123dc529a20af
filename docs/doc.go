// Package docs provides generated OpenAPI documentation.
//
// Lector API
//
//	@title			Lector API
//	@version		1.0
//	@description	Image OCR service: upload an image, pick an engine and languages, get the text back.
//
//	@contact.name	API Support
//	@contact.url	https://github.com/jackzampolin/lector
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@schemes	http https
package docs

//go:generate swag init -g ../cmd/lector/serve.go -o ./swagger --parseDependency --parseInternal
