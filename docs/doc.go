// Package docs provides generated OpenAPI documentation.
//
// Novelarc API
//
//	@title			Novelarc API
//	@version		1.0
//	@description	Web novel hosting and translation API for managing novels, translation jobs and glossaries.
//
//	@contact.name	API Support
//	@contact.url	https://github.com/novelarc/novelarc
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@schemes	http https
package docs
